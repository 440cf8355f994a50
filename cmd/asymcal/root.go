// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/server/logger"
	"github.com/zintix-labs/asymcal/setting"
	"gopkg.in/yaml.v3"
)

// cli 在子命令間共用的狀態。
type cli struct {
	logMode string
	log     *slog.Logger
}

// NewCommand 建立 root command。
func NewCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "asymcal",
		Short:         "Asymmetric beta calibration for binary classifier probabilities",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mode, err := logger.ParseMode(c.logMode)
			if err != nil {
				return err
			}
			c.log = logger.NewWriterLogger(cmd.ErrOrStderr(), mode)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.logMode, "log", "silence", "log mode: dev|prod|silence")

	root.AddCommand(
		newFitCommand(c),
		newPredictCommand(c),
		newEvaluateCommand(c),
		newServeCommand(c),
		newVersionCommand(),
	)
	return root
}

// loadSetting path 為空時回傳預設設定。
func loadSetting(path string) (*setting.FitSetting, error) {
	if path == "" {
		return setting.Default(), nil
	}
	return setting.LoadFitSetting(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// saveParams 以 YAML 寫出參數，可再由 loadParams 讀回。
func saveParams(path string, p asymcal.Params) error {
	raw, err := yaml.Marshal(p)
	if err != nil {
		return errs.Wrap(err, "marshal params")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errs.Wrap(err, "write params")
	}
	return nil
}

// loadParams 讀取 YAML 或 JSON 參數檔（JSON 是 YAML 的子集）。
func loadParams(path string) (asymcal.Params, error) {
	var p asymcal.Params
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, errs.WrapKind(err, errs.KindNotFound, "params file not found")
		}
		return p, errs.Wrap(err, "read params")
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, errs.WrapKind(err, errs.KindConfig, "decode params")
	}
	return p, nil
}

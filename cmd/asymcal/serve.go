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
	"time"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/asymcal/server"
	"github.com/zintix-labs/asymcal/server/svrcfg"
)

// newServeCommand 設定來源：環境變數（ASYMCAL_*）為底，命令列旗標覆蓋。
func newServeCommand(c *cli) *cobra.Command {
	var (
		addr    string
		ttl     time.Duration
		maxBody int64
		maxRows int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the calibration HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := svrcfg.LoadEnv()
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("addr") {
				env.Addr = addr
			}
			if f.Changed("model-ttl") {
				env.ModelTTL = ttl
			}
			if f.Changed("max-body") {
				env.MaxBody = maxBody
			}
			if f.Changed("max-rows") {
				env.MaxRows = maxRows
			}
			if cmd.Flags().Changed("log") || env.LogMode == "" {
				env.LogMode = c.logMode
			}
			sCfg, err := svrcfg.FromEnv(env)
			if err != nil {
				return err
			}
			return server.Run(sCfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", svrcfg.DefaultAddr, "listen address")
	f.DurationVar(&ttl, "model-ttl", svrcfg.DefaultModelTTL, "idle time before a fitted model is evicted")
	f.Int64Var(&maxBody, "max-body", svrcfg.DefaultMaxBody, "max request body in bytes")
	f.IntVar(&maxRows, "max-rows", svrcfg.DefaultMaxRows, "max samples per request")
	return cmd
}

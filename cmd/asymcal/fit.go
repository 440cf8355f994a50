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
	"io"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/dataset"
	"github.com/zintix-labs/asymcal/perf"
	"github.com/zintix-labs/asymcal/resample"
	"github.com/zintix-labs/asymcal/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang = language.English

type fitOpts struct {
	config     string
	format     string
	save       string
	bootstrap  int
	workers    int
	seed       int64
	profile    string
	profileDir string
}

// fitOutput fit 命令的完整輸出。
type fitOutput struct {
	Params    asymcal.Params     `json:"params"              yaml:"params"`
	Summary   asymcal.FitSummary `json:"summary"             yaml:"summary"`
	Report    *stats.Comparison  `json:"report"              yaml:"report"`
	Bootstrap *resample.Result   `json:"bootstrap,omitempty" yaml:"bootstrap,omitempty"`
}

func newFitCommand(c *cli) *cobra.Command {
	o := &fitOpts{}
	cmd := &cobra.Command{
		Use:   "fit <data.csv>",
		Short: "Fit calibration parameters on labeled probabilities (prob,label)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, c, o, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.config, "config", "c", "", "fit setting file (.yaml / .json)")
	f.StringVarP(&o.format, "format", "f", "table", "output format: table|json|yaml")
	f.StringVarP(&o.save, "save", "o", "", "write fitted params to this YAML file")
	f.IntVar(&o.bootstrap, "bootstrap", 0, "bootstrap rounds for parameter confidence intervals (0 = off)")
	f.IntVar(&o.workers, "workers", 0, "bootstrap workers (0 = from setting)")
	f.Int64Var(&o.seed, "seed", 0, "bootstrap seed (0 = from setting, random if unset)")
	f.StringVar(&o.profile, "profile", "", "pprof mode: cpu|heap|allocs")
	f.StringVar(&o.profileDir, "profile-dir", perf.DefaultDir, "pprof output directory")
	return cmd
}

func runFit(cmd *cobra.Command, c *cli, o *fitOpts, path string) error {
	rd, err := stats.RenderByName(o.format, "Asymmetric Calibration")
	if err != nil {
		return err
	}
	fs, err := loadSetting(o.config)
	if err != nil {
		return err
	}
	if o.bootstrap > 0 {
		fs.Bootstrap.Rounds = o.bootstrap
	}
	if o.workers > 0 {
		fs.Bootstrap.Workers = o.workers
	}
	if o.seed > 0 {
		fs.Bootstrap.Seed = o.seed
	}
	if err := fs.Valid(); err != nil {
		return err
	}
	data, err := dataset.Load(path)
	if err != nil {
		return err
	}

	out := &fitOutput{}
	err = perf.Run(func() error {
		cal, err := asymcal.New(asymcal.WithSetting(fs), asymcal.WithLogger(c.log))
		if err != nil {
			return err
		}
		if _, err := cal.Fit(data.Probs, data.Labels); err != nil {
			return err
		}
		out.Params, _ = cal.Params()
		out.Summary = cal.Summary()

		calibrated, err := cal.PredictProba(data.Probs)
		if err != nil {
			return err
		}
		if out.Report, err = stats.Compare(data.Probs, calibrated, data.Labels, fs.Report.Bins); err != nil {
			return err
		}

		if fs.Bootstrap.Rounds > 0 {
			opt := resample.OptionsFrom(fs)
			opt.Logger = c.log
			if o.format == "table" {
				opt.Progress = cmd.ErrOrStderr()
			}
			if out.Bootstrap, err = resample.Bootstrap(cmd.Context(), data.Probs, data.Labels, opt); err != nil {
				return err
			}
		}
		return nil
	}, o.profile, o.profileDir)
	if err != nil {
		return err
	}

	if o.save != "" {
		if err := saveParams(o.save, out.Params); err != nil {
			return err
		}
	}
	return rd.Write(cmd.OutOrStdout(), out)
}

// WriteTable 參數與擬合摘要、校準前後對照，有 bootstrap 時再加一張參數區間表。
func (fo *fitOutput) WriteTable(w io.Writer, title string) error {
	p := message.NewPrinter(lang)
	keys := []string{"a", "b", "c", "Status", "Iterations", "Func Evals", "Train Loss", "Runtime"}
	vals := map[string]string{
		"a":          p.Sprintf("%.6f", fo.Params.A),
		"b":          p.Sprintf("%.6f", fo.Params.B),
		"c":          p.Sprintf("%.6f", fo.Params.C),
		"Status":     fo.Summary.Status,
		"Iterations": p.Sprintf("%d", fo.Summary.Iterations),
		"Func Evals": p.Sprintf("%d", fo.Summary.FuncEvals),
		"Train Loss": p.Sprintf("%.6f", fo.Summary.Loss),
		"Runtime":    fo.Summary.Runtime.String(),
	}
	if !fo.Summary.Converged {
		vals["Status"] += " (" + fo.Summary.Reason + ")"
	}
	if err := stats.WriteKV(w, title, keys, vals); err != nil {
		return err
	}
	if err := fo.Report.WriteTable(w, "Raw -> Calibrated"); err != nil {
		return err
	}
	if fo.Bootstrap == nil {
		return nil
	}

	bs := fo.Bootstrap
	keys = []string{"Rounds", "Failed", "Not Converged", "Seed", "a", "b", "c"}
	vals = map[string]string{
		"Rounds":        p.Sprintf("%d", bs.Rounds),
		"Failed":        p.Sprintf("%d", bs.Failed),
		"Not Converged": p.Sprintf("%d", bs.NotConv),
		"Seed":          p.Sprintf("%d", bs.Seed),
	}
	for k, e := range map[string]resample.Estimate{"a": bs.A, "b": bs.B, "c": bs.C} {
		vals[k] = p.Sprintf("%.4f ± %.4f [%.4f, %.4f]", e.Mean, e.Std, e.CI.Lo, e.CI.Hi)
	}
	return stats.WriteKV(w, p.Sprintf("Bootstrap (%.0f%% CI)", 100*bs.Confidence), keys, vals)
}

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
	"os"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/dataset"
	"github.com/zintix-labs/asymcal/errs"
)

type predictOpts struct {
	model   string
	a, b, c float64
	config  string
	out     string
}

func newPredictCommand(c *cli) *cobra.Command {
	o := &predictOpts{}
	cmd := &cobra.Command{
		Use:   "predict <scores.csv>",
		Short: "Apply fitted parameters to raw probabilities and write prob,calibrated CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, c, o, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.model, "model", "m", "", "params file written by `fit --save`")
	f.Float64Var(&o.a, "a", 0, "intercept a")
	f.Float64Var(&o.b, "b", 1, "coefficient b of ln p")
	f.Float64Var(&o.c, "c", -1, "coefficient c of ln(1-p)")
	f.StringVar(&o.config, "config", "", "fit setting file (only epsilon / output clip are used)")
	f.StringVarP(&o.out, "out", "o", "", "output CSV path (default stdout)")
	cmd.MarkFlagsMutuallyExclusive("model", "a")
	cmd.MarkFlagsMutuallyExclusive("model", "b")
	cmd.MarkFlagsMutuallyExclusive("model", "c")
	return cmd
}

func runPredict(cmd *cobra.Command, c *cli, o *predictOpts, path string) error {
	f := cmd.Flags()
	p := asymcal.Params{A: o.a, B: o.b, C: o.c}
	switch {
	case o.model != "":
		var err error
		if p, err = loadParams(o.model); err != nil {
			return err
		}
	case !f.Changed("a") && !f.Changed("b") && !f.Changed("c"):
		return errs.NewKind(errs.KindNotFitted, "predict needs --model or --a/--b/--c")
	}

	fs, err := loadSetting(o.config)
	if err != nil {
		return err
	}
	cal, err := asymcal.NewFitted(p, asymcal.WithSetting(fs), asymcal.WithLogger(c.log))
	if err != nil {
		return err
	}
	probs, err := dataset.LoadProbs(path)
	if err != nil {
		return err
	}
	calibrated, err := cal.PredictProba(probs)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if o.out != "" {
		file, err := os.Create(o.out)
		if err != nil {
			return errs.Wrap(err, "create output")
		}
		defer file.Close()
		w = file
	}
	if err := dataset.WritePredictions(w, probs, calibrated); err != nil {
		return err
	}
	c.log.Info("predict done", "rows", len(probs), "out", o.out)
	return nil
}

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
	"github.com/spf13/cobra"
	"github.com/zintix-labs/asymcal/dataset"
	"github.com/zintix-labs/asymcal/stats"
)

func newEvaluateCommand(c *cli) *cobra.Command {
	var (
		bins       int
		confidence float64
		format     string
	)
	cmd := &cobra.Command{
		Use:   "evaluate <data.csv>",
		Short: "Report calibration quality (ECE, Brier, reliability bins) of labeled probabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rd, err := stats.RenderByName(format, "Calibration Report")
			if err != nil {
				return err
			}
			data, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			rep, err := stats.EvaluateConf(data.Probs, data.Labels, bins, confidence)
			if err != nil {
				return err
			}
			c.log.Debug("evaluate done", "rows", rep.N, "ece", rep.ECE)
			return rd.Write(cmd.OutOrStdout(), rep)
		},
	}
	f := cmd.Flags()
	f.IntVar(&bins, "bins", 10, "number of equal-width reliability bins")
	f.Float64Var(&confidence, "confidence", 0.95, "confidence level of the per-bin interval")
	f.StringVarP(&format, "format", "f", "table", "output format: table|json|yaml")
	return cmd
}

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

package asymcal

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/optimizer"
)

// Fit 以 (probs, labels) 擬合參數並覆寫校準器狀態，回傳自身以便串接。
//
// labels 應為 0 或 1。全為 0 或全為 1 的標籤是允許的（可能得到退化但有限的參數）。
//
// 最小化器未收斂時仍採用其回傳的最佳點：結果記錄在 Summary() 並以 Warn 記錄，
// 不會回傳錯誤。只有參數非有限值時回傳 errs.KindNumericDomain，且保留原狀態。
func (c *Calibrator) Fit(probs, labels []float64) (*Calibrator, error) {
	if len(probs) != len(labels) {
		return nil, errs.Kindf(errs.KindInputShape, "length mismatch: probs=%d labels=%d", len(probs), len(labels))
	}
	if len(probs) == 0 {
		return nil, errs.NewKind(errs.KindInputShape, "empty training set")
	}

	obj := newObjective(probs, labels, c.set.Epsilon)
	c.log.Debug("fit start", slog.Int("n", len(probs)))

	start := time.Now()
	res, err := c.min.Minimize(optimizer.Problem{
		Func:   obj.eval,
		X0:     c.set.Init.Slice(),
		Bounds: c.set.Bounds.Slice(),
	})
	if err != nil {
		return nil, errs.Wrap(err, "fit: minimize failed")
	}
	if len(res.X) != 3 {
		return nil, errs.Fatalf("fit: minimizer returned %d params, want 3", len(res.X))
	}
	p := ParamsFrom(res.X)
	if !p.Finite() {
		return nil, errs.Kindf(errs.KindNumericDomain, "fit produced non-finite params %+v", p)
	}

	c.params = p
	c.fitted = true
	c.summary = FitSummary{
		N:          len(probs),
		Loss:       res.F,
		Status:     res.Status,
		Converged:  res.Converged,
		Reason:     res.Reason,
		Iterations: res.Iterations,
		FuncEvals:  res.FuncEvals,
		Runtime:    time.Since(start),
	}

	attrs := []any{
		slog.Int("n", len(probs)),
		slog.Float64("a", p.A),
		slog.Float64("b", p.B),
		slog.Float64("c", p.C),
		slog.Float64("loss", res.F),
		slog.String("status", res.Status),
		slog.Int("iterations", res.Iterations),
		slog.Int("func_evals", res.FuncEvals),
	}
	if res.Converged {
		c.log.Info("fit done", attrs...)
	} else {
		c.log.Warn("fit did not converge, keeping best point", append(attrs, slog.String("reason", res.Reason))...)
	}
	return c, nil
}

// Loss 以目前參數計算 (probs, labels) 上的平均非對稱損失（即擬合的目標函數值）。
func (c *Calibrator) Loss(probs, labels []float64) (float64, error) {
	if !c.fitted {
		return 0, errs.NewKind(errs.KindNotFitted, "model not fitted: call Fit before Loss")
	}
	if len(probs) == 0 {
		return 0, errs.NewKind(errs.KindInputShape, "empty input")
	}
	if len(probs) != len(labels) {
		return 0, errs.Kindf(errs.KindInputShape, "length mismatch: probs=%d labels=%d", len(probs), len(labels))
	}
	return newObjective(probs, labels, c.set.Epsilon).eval(c.params.Slice()), nil
}

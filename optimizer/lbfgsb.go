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

package optimizer

import (
	"math"
	"strconv"

	"github.com/zintix-labs/asymcal/errs"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LBFGSB 以 gonum 的 L-BFGS 搭配變數轉換實作盒型限制的擬牛頓法。
//
// 受限參數 x 透過平滑、單調的映射 x = T(u) 由無限制的 u 表示（見 Bound.toExternal），
// 因此在 u 空間中的任何點都滿足限制。梯度由中央差分數值近似，呼叫端不需提供。
type LBFGSB struct {
	Settings Settings
}

// NewLBFGSB 建立求解器。
func NewLBFGSB(s Settings) *LBFGSB {
	return &LBFGSB{Settings: s}
}

// NewDefaultLBFGSB 以 DefaultSettings 建立求解器。
func NewDefaultLBFGSB() *LBFGSB {
	return NewLBFGSB(DefaultSettings())
}

// Minimize 實作 Minimizer。
//
// 底層求解器若在找到有限點之後才失敗（例如 line search 無法再下降），
// 回傳的 Result.Converged 為 false，error 為 nil。
func (m *LBFGSB) Minimize(p Problem) (*Result, error) {
	if err := m.Settings.Valid(); err != nil {
		return nil, err
	}
	dim := len(p.X0)
	if dim == 0 {
		return nil, errs.NewKind(errs.KindInputShape, "optimizer: initial point must not be empty")
	}
	if p.Func == nil {
		return nil, errs.NewFatal("optimizer: objective function is required")
	}
	sp, err := newSpace(dim, p.Bounds)
	if err != nil {
		return nil, err
	}

	fn := func(u []float64) float64 {
		return p.Func(sp.toExternal(u))
	}
	fdSet := &fd.Settings{Formula: fd.Central, Step: m.Settings.GradStep}
	prob := optimize.Problem{
		Func: fn,
		Grad: func(grad, u []float64) {
			fd.Gradient(grad, fn, u, fdSet)
		},
	}
	set := &optimize.Settings{
		GradientThreshold: m.Settings.GradientThreshold,
		MajorIterations:   m.Settings.MaxIterations,
		FuncEvaluations:   m.Settings.MaxFuncEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   m.Settings.FuncAbsTol,
			Relative:   m.Settings.FuncRelTol,
			Iterations: m.Settings.ConvergeWindow,
		},
	}
	method := &optimize.LBFGS{Store: m.Settings.Memory}

	res, merr := optimize.Minimize(prob, sp.toInternal(p.X0), set, method)
	if res == nil {
		return nil, errs.Wrap(merr, "optimizer: lbfgs failed before evaluating")
	}
	x := sp.toExternal(res.X)
	if floats.HasNaN(x) || hasInf(x) || math.IsNaN(res.F) {
		if merr != nil {
			return nil, errs.WrapKind(merr, errs.KindNumericDomain, "optimizer: no finite point found")
		}
		return nil, errs.NewKind(errs.KindNumericDomain, "optimizer: no finite point found")
	}
	out := &Result{
		X:          x,
		F:          res.F,
		Status:     res.Status.String(),
		Converged:  merr == nil && converged(res.Status),
		Iterations: res.Stats.MajorIterations,
		FuncEvals:  res.Stats.FuncEvaluations,
		GradEvals:  res.Stats.GradEvaluations,
		Runtime:    res.Stats.Runtime,
	}
	if merr != nil {
		out.Reason = merr.Error()
	}
	return out, nil
}

func newSpace(dim int, bounds []Bound) (space, error) {
	if bounds == nil {
		sp := make(space, dim)
		for i := range sp {
			sp[i] = Free()
		}
		return sp, nil
	}
	if len(bounds) != dim {
		return nil, errs.Kindf(errs.KindInputShape, "optimizer: bounds length %d != dimension %d", len(bounds), dim)
	}
	for i, b := range bounds {
		if err := b.Valid(); err != nil {
			return nil, errs.WrapWithExtra(err, "optimizer: invalid bound", "index="+strconv.Itoa(i))
		}
	}
	return space(bounds), nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success,
		optimize.FunctionThreshold,
		optimize.FunctionConvergence,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	default:
		return false
	}
}

func hasInf(x []float64) bool {
	for _, v := range x {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

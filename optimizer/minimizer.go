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

// Package optimizer 提供盒型限制（box-constrained）的多變數最小化器。
//
// 呼叫端只需要提供：目標函數、起點、每個參數的上下界；
// 回傳找到的最佳點與收斂狀態。是否收斂由呼叫端決定要不要在意。
package optimizer

import (
	"time"

	"github.com/zintix-labs/asymcal/errs"
)

// Problem 最小化問題。Bounds 為 nil 時所有參數皆無限制。
type Problem struct {
	Func   func(x []float64) float64
	X0     []float64
	Bounds []Bound
}

// Result 最小化結果。
//
// Converged 為 false 時 X 仍是目前找到的最佳點（例如達到迭代上限或 line search 失敗）。
// Reason 保存底層求解器回報的錯誤訊息（若有）。
type Result struct {
	X          []float64     `json:"x"           yaml:"x"`
	F          float64       `json:"f"           yaml:"f"`
	Status     string        `json:"status"      yaml:"status"`
	Converged  bool          `json:"converged"   yaml:"converged"`
	Reason     string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Iterations int           `json:"iterations"  yaml:"iterations"`
	FuncEvals  int           `json:"func_evals"  yaml:"func_evals"`
	GradEvals  int           `json:"grad_evals"  yaml:"grad_evals"`
	Runtime    time.Duration `json:"runtime_ns"  yaml:"runtime_ns"`
}

// Minimizer 外部最小化器的合約。
type Minimizer interface {
	Minimize(p Problem) (*Result, error)
}

// Settings 求解器設定，預設值對齊常見的 L-BFGS-B 實作。
type Settings struct {
	MaxIterations     int     `yaml:"max_iterations"     json:"max_iterations"`
	MaxFuncEvals      int     `yaml:"max_func_evals"     json:"max_func_evals"`
	GradientThreshold float64 `yaml:"gradient_threshold" json:"gradient_threshold"`
	FuncRelTol        float64 `yaml:"func_rel_tol"       json:"func_rel_tol"`
	FuncAbsTol        float64 `yaml:"func_abs_tol"       json:"func_abs_tol"`
	ConvergeWindow    int     `yaml:"converge_window"    json:"converge_window"`
	Memory            int     `yaml:"memory"             json:"memory"`
	// GradStep 有限差分步長；0 表示使用 fd 預設值。
	GradStep float64 `yaml:"grad_step" json:"grad_step"`
}

// DefaultSettings 回傳預設設定。
func DefaultSettings() Settings {
	return Settings{
		MaxIterations:     15000,
		MaxFuncEvals:      15000,
		GradientThreshold: 1e-5,
		FuncRelTol:        2.220446049250313e-09,
		FuncAbsTol:        0,
		ConvergeWindow:    5,
		Memory:            10,
		GradStep:          0,
	}
}

// Valid 檢查設定是否合法。
func (s Settings) Valid() error {
	if s.MaxIterations < 1 {
		return errs.NewKind(errs.KindConfig, "optimizer: max_iterations must be >= 1")
	}
	if s.MaxFuncEvals < 0 {
		return errs.NewKind(errs.KindConfig, "optimizer: max_func_evals must be >= 0")
	}
	if !(s.GradientThreshold > 0) {
		return errs.NewKind(errs.KindConfig, "optimizer: gradient_threshold must be > 0")
	}
	if s.FuncRelTol < 0 || s.FuncAbsTol < 0 {
		return errs.NewKind(errs.KindConfig, "optimizer: function tolerances must be >= 0")
	}
	if s.ConvergeWindow < 0 {
		return errs.NewKind(errs.KindConfig, "optimizer: converge_window must be >= 0")
	}
	if s.Memory < 1 {
		return errs.NewKind(errs.KindConfig, "optimizer: memory must be >= 1")
	}
	if s.GradStep < 0 {
		return errs.NewKind(errs.KindConfig, "optimizer: grad_step must be >= 0")
	}
	return nil
}

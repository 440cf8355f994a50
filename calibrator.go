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

// Package asymcal 提供非對稱 beta 校準器（asymmetric beta calibration）。
//
// 校準器把上游分類器輸出的原始機率 p 映射為校準後機率：
//
//	q = logistic(a + b·ln(p) + c·ln(1-p))
//
// 參數 (a, b, c) 以非對稱 log-loss 擬合：正類（y=1）的損失乘上 1 + sqrt(1-q)，
// 使模型傾向不低估正類。擬合使用 optimizer 套件提供的盒型限制擬牛頓法，
// 限制 b >= 1e-5、c <= -1e-5，a 無限制。
//
// Calibrator 本身不加鎖：同一個 instance 的 Fit / PredictProba 需由呼叫端序列化
// （single-writer, caller-synchronized）。需要跨 goroutine 共用時請在外層加鎖，
// 例如 server/registry 的做法。
//
// 典型用法：
//
//	cal, _ := asymcal.New()
//	if _, err := cal.Fit(probs, labels); err != nil { ... }
//	q, err := cal.PredictProba(newProbs)
package asymcal

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/optimizer"
	"github.com/zintix-labs/asymcal/setting"
)

// Params 校準器的三個參數。
type Params struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
}

// ParamsFrom 由 (a, b, c) 順序的切片建立 Params。
func ParamsFrom(x []float64) Params {
	return Params{A: x[0], B: x[1], C: x[2]}
}

func (p Params) Slice() []float64 { return []float64{p.A, p.B, p.C} }

// Finite 回報三個參數是否皆為有限值。
func (p Params) Finite() bool {
	return allFinite(p.Slice())
}

// FitSummary 最近一次擬合的摘要。Converged 為 false 時參數仍被採用。
type FitSummary struct {
	N          int           `json:"n"          yaml:"n"`
	Loss       float64       `json:"loss"       yaml:"loss"`
	Status     string        `json:"status"     yaml:"status"`
	Converged  bool          `json:"converged"  yaml:"converged"`
	Reason     string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	FuncEvals  int           `json:"func_evals" yaml:"func_evals"`
	Runtime    time.Duration `json:"runtime_ns" yaml:"runtime_ns"`
}

// Calibrator 非對稱 beta 校準器。
type Calibrator struct {
	set *setting.FitSetting
	min optimizer.Minimizer
	log *slog.Logger

	params  Params
	fitted  bool
	summary FitSummary
}

// Option 建構選項。
type Option func(*Calibrator)

// WithSetting 使用自訂設定（會被深拷貝）。nil 代表使用預設值。
func WithSetting(s *setting.FitSetting) Option {
	return func(c *Calibrator) {
		if s != nil {
			c.set = s.Clone()
		}
	}
}

// WithMinimizer 替換外部最小化器（預設為依設定建立的 optimizer.LBFGSB）。
func WithMinimizer(m optimizer.Minimizer) Option {
	return func(c *Calibrator) {
		if m != nil {
			c.min = m
		}
	}
}

// WithLogger 設定 logger；預設丟棄所有紀錄。
func WithLogger(l *slog.Logger) Option {
	return func(c *Calibrator) {
		if l != nil {
			c.log = l
		}
	}
}

// New 建立一個尚未擬合的校準器。設定不合法時回傳 errs.KindConfig 錯誤。
func New(opts ...Option) (*Calibrator, error) {
	c := &Calibrator{
		set: setting.Default(),
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.set.Valid(); err != nil {
		return nil, err
	}
	if c.min == nil {
		c.min = optimizer.NewLBFGSB(c.set.Optimizer)
	}
	return c, nil
}

// NewFitted 以已知參數建立一個可直接 PredictProba 的校準器（不經過擬合）。
func NewFitted(p Params, opts ...Option) (*Calibrator, error) {
	if !p.Finite() {
		return nil, errs.Kindf(errs.KindNumericDomain, "params must be finite, got %+v", p)
	}
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	c.params = p
	c.fitted = true
	c.summary = FitSummary{Status: "Provided", Converged: true}
	return c, nil
}

// Fitted 回報是否已完成擬合。
func (c *Calibrator) Fitted() bool { return c.fitted }

// Params 回傳目前參數；尚未擬合時第二個回傳值為 false。
func (c *Calibrator) Params() (Params, bool) { return c.params, c.fitted }

// Summary 回傳最近一次擬合的摘要。
func (c *Calibrator) Summary() FitSummary { return c.summary }

// Setting 回傳設定的副本。
func (c *Calibrator) Setting() *setting.FitSetting { return c.set.Clone() }

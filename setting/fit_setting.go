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

// Package setting 定義校準器的可調參數與其 YAML / JSON 載入。
package setting

import (
	"math"

	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/optimizer"
)

// FitSetting 校準器的完整設定。
//
// 所有欄位都有預設值（見 Default）；設定檔只需要寫想覆蓋的欄位。
type FitSetting struct {
	// Epsilon 內部裁切 [eps, 1-eps]，避免 log(0)。
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`
	// OutputFloor / OutputCeil 為對外輸出的裁切範圍。
	OutputFloor float64 `yaml:"output_floor" json:"output_floor"`
	OutputCeil  float64 `yaml:"output_ceil"  json:"output_ceil"`

	Init      Point              `yaml:"init"      json:"init"`
	Bounds    ParamBounds        `yaml:"bounds"    json:"bounds"`
	Optimizer optimizer.Settings `yaml:"optimizer" json:"optimizer"`
	Report    ReportSetting      `yaml:"report"    json:"report"`
	Bootstrap BootstrapSetting   `yaml:"bootstrap" json:"bootstrap"`
}

// Point (a, b, c)
type Point struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
}

// Slice 依 (a, b, c) 順序回傳。
func (p Point) Slice() []float64 { return []float64{p.A, p.B, p.C} }

// Limit 單一參數的上下限；nil 代表無限制。
type Limit struct {
	Lower *float64 `yaml:"lower,omitempty" json:"lower,omitempty"`
	Upper *float64 `yaml:"upper,omitempty" json:"upper,omitempty"`
}

// Bound 轉成 optimizer.Bound。
func (l Limit) Bound() optimizer.Bound {
	b := optimizer.Free()
	if l.Lower != nil {
		b.Lower = *l.Lower
	}
	if l.Upper != nil {
		b.Upper = *l.Upper
	}
	return b
}

type ParamBounds struct {
	A Limit `yaml:"a" json:"a"`
	B Limit `yaml:"b" json:"b"`
	C Limit `yaml:"c" json:"c"`
}

// Slice 依 (a, b, c) 順序回傳 optimizer.Bound。
func (pb ParamBounds) Slice() []optimizer.Bound {
	return []optimizer.Bound{pb.A.Bound(), pb.B.Bound(), pb.C.Bound()}
}

type ReportSetting struct {
	// Bins 可靠度圖（reliability diagram）的等寬分桶數。
	Bins int `yaml:"bins" json:"bins"`
	// Confidence 分桶觀測率信賴區間的信心水準。
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

type BootstrapSetting struct {
	Rounds     int     `yaml:"rounds"     json:"rounds"`
	Workers    int     `yaml:"workers"    json:"workers"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
	// Seed <= 0 代表由系統亂數產生。
	Seed int64 `yaml:"seed" json:"seed"`
}

func ptr(v float64) *float64 { return &v }

// Default 回傳預設設定：
//
//	eps = 1e-15, 輸出裁切 [0.001, 1.0]
//	起點 (0, 1, -1)，b >= 1e-5，c <= -1e-5，a 無限制
func Default() *FitSetting {
	return &FitSetting{
		Epsilon:     1e-15,
		OutputFloor: 0.001,
		OutputCeil:  1.0,
		Init:        Point{A: 0, B: 1, C: -1},
		Bounds: ParamBounds{
			B: Limit{Lower: ptr(1e-5)},
			C: Limit{Upper: ptr(-1e-5)},
		},
		Optimizer: optimizer.DefaultSettings(),
		Report: ReportSetting{
			Bins:       10,
			Confidence: 0.95,
		},
		Bootstrap: BootstrapSetting{
			Rounds:     0,
			Workers:    1,
			Confidence: 0.95,
			Seed:       0,
		},
	}
}

// Clone 深拷貝（含 Limit 內的指標）。
func (fs *FitSetting) Clone() *FitSetting {
	cp := *fs
	cp.Bounds = ParamBounds{
		A: fs.Bounds.A.clone(),
		B: fs.Bounds.B.clone(),
		C: fs.Bounds.C.clone(),
	}
	return &cp
}

func (l Limit) clone() Limit {
	out := Limit{}
	if l.Lower != nil {
		out.Lower = ptr(*l.Lower)
	}
	if l.Upper != nil {
		out.Upper = ptr(*l.Upper)
	}
	return out
}

// Valid 檢查設定合法性。
//
// 規則：
//  1. 0 < epsilon < 0.5
//  2. 0 <= output_floor < output_ceil <= 1
//  3. 每個 bound 合法，且起點落在 bound 內
//  4. optimizer / report / bootstrap 各自的範圍
func (fs *FitSetting) Valid() error {
	if !(fs.Epsilon > 0 && fs.Epsilon < 0.5) {
		return errs.Kindf(errs.KindConfig, "epsilon must be in (0, 0.5), got %v", fs.Epsilon)
	}
	if !(fs.OutputFloor >= 0 && fs.OutputFloor < fs.OutputCeil && fs.OutputCeil <= 1) {
		return errs.Kindf(errs.KindConfig, "output clip must satisfy 0 <= floor < ceil <= 1, got [%v, %v]", fs.OutputFloor, fs.OutputCeil)
	}
	names := []string{"a", "b", "c"}
	start := fs.Init.Slice()
	for i, b := range fs.Bounds.Slice() {
		if err := b.Valid(); err != nil {
			return errs.WrapWithExtra(err, "invalid bound", "param="+names[i])
		}
		if math.IsNaN(start[i]) || math.IsInf(start[i], 0) {
			return errs.Kindf(errs.KindConfig, "init %s must be finite", names[i])
		}
		if !b.Contains(start[i]) {
			return errs.Kindf(errs.KindConfig, "init %s=%v outside bound [%v, %v]", names[i], start[i], b.Lower, b.Upper)
		}
	}
	if err := fs.Optimizer.Valid(); err != nil {
		return err
	}
	if fs.Report.Bins < 1 || fs.Report.Bins > 1000 {
		return errs.Kindf(errs.KindConfig, "report bins must be in [1, 1000], got %d", fs.Report.Bins)
	}
	if !(fs.Report.Confidence > 0 && fs.Report.Confidence < 1) {
		return errs.Kindf(errs.KindConfig, "report confidence must be in (0, 1), got %v", fs.Report.Confidence)
	}
	if fs.Bootstrap.Rounds < 0 {
		return errs.Kindf(errs.KindConfig, "bootstrap rounds must be >= 0, got %d", fs.Bootstrap.Rounds)
	}
	if fs.Bootstrap.Workers < 1 {
		return errs.Kindf(errs.KindConfig, "bootstrap workers must be >= 1, got %d", fs.Bootstrap.Workers)
	}
	if !(fs.Bootstrap.Confidence > 0 && fs.Bootstrap.Confidence < 1) {
		return errs.Kindf(errs.KindConfig, "bootstrap confidence must be in (0, 1), got %v", fs.Bootstrap.Confidence)
	}
	return nil
}

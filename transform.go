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
	"math"

	"github.com/zintix-labs/asymcal/errs"
	"gonum.org/v1/gonum/floats"
)

// Clip 把 x 夾到 [lo, hi]。NaN 原樣回傳。
func Clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Logistic 標準 logistic（inverse-logit）函數 1 / (1 + e^-z)，對大 |z| 穩定。
func Logistic(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Logit ln(p / (1-p))
func Logit(p float64) float64 {
	return math.Log(p) - math.Log1p(-p)
}

// Score 計算 logit 空間的分數 z = a + b·ln(p) + c·ln(1-p)，p 先被夾到 [eps, 1-eps]。
func (p Params) Score(prob, eps float64) float64 {
	x := Clip(prob, eps, 1-eps)
	return p.A + p.B*math.Log(x) + p.C*math.Log1p(-x)
}

// Transform 對單一機率套用校準轉換（未做輸出裁切）。
func (p Params) Transform(prob, eps float64) float64 {
	return Logistic(p.Score(prob, eps))
}

// PredictProba 回傳校準後機率，長度與輸入相同，值落在 [output_floor, output_ceil]
// （預設 [0.001, 1.0]）。尚未擬合時回傳 errs.ErrNotFitted 類別的錯誤。
func (c *Calibrator) PredictProba(probs []float64) ([]float64, error) {
	if !c.fitted {
		return nil, errs.NewKind(errs.KindNotFitted, "model not fitted: call Fit before PredictProba")
	}
	out := make([]float64, len(probs))
	c.transformInto(out, probs)
	if !allFinite(out) {
		return nil, errs.NewKind(errs.KindNumericDomain, "predict produced non-finite probability")
	}
	return out, nil
}

// transformInto 寫入 dst（長度需與 probs 相同）。
func (c *Calibrator) transformInto(dst, probs []float64) {
	eps := c.set.Epsilon
	lo, hi := c.set.OutputFloor, c.set.OutputCeil
	for i, p := range probs {
		dst[i] = Clip(c.params.Transform(p, eps), lo, hi)
	}
}

func allFinite(x []float64) bool {
	if floats.HasNaN(x) {
		return false
	}
	for _, v := range x {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

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

	"github.com/zintix-labs/asymcal/errs"
)

// interiorGap 是把起點推離邊界時使用的最小距離（在內部空間中對應有限值）。
const interiorGap float64 = 1e-10

// Bound 單一參數的盒型限制。Lower / Upper 可以是 ±Inf。
type Bound struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper"`
}

type boundKind uint8

const (
	kindFree boundKind = iota
	kindLower
	kindUpper
	kindBoth
)

// Free 無限制。
func Free() Bound { return Bound{Lower: math.Inf(-1), Upper: math.Inf(1)} }

// LowerOnly x >= lo
func LowerOnly(lo float64) Bound { return Bound{Lower: lo, Upper: math.Inf(1)} }

// UpperOnly x <= hi
func UpperOnly(hi float64) Bound { return Bound{Lower: math.Inf(-1), Upper: hi} }

// Between lo <= x <= hi
func Between(lo, hi float64) Bound { return Bound{Lower: lo, Upper: hi} }

func (b Bound) kind() boundKind {
	lo := !math.IsInf(b.Lower, -1)
	hi := !math.IsInf(b.Upper, 1)
	switch {
	case lo && hi:
		return kindBoth
	case lo:
		return kindLower
	case hi:
		return kindUpper
	default:
		return kindFree
	}
}

// Valid 檢查限制本身是否合法（非 NaN、非空區間）。
func (b Bound) Valid() error {
	if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) {
		return errs.NewKind(errs.KindConfig, "bound must not be NaN")
	}
	if math.IsInf(b.Lower, 1) || math.IsInf(b.Upper, -1) {
		return errs.Kindf(errs.KindConfig, "bound [%v, %v] is empty", b.Lower, b.Upper)
	}
	if b.kind() == kindBoth && !(b.Lower < b.Upper) {
		return errs.Kindf(errs.KindConfig, "bound lower %v must be < upper %v", b.Lower, b.Upper)
	}
	return nil
}

// Contains 回報 x 是否落在限制內（含邊界）。
func (b Bound) Contains(x float64) bool {
	return x >= b.Lower && x <= b.Upper
}

// Clamp 把 x 夾回限制內。
func (b Bound) Clamp(x float64) float64 {
	return math.Min(math.Max(x, b.Lower), b.Upper)
}

// toExternal 把無限制的內部座標 u 映射回受限座標 x。
//
//	free  : x = u
//	lower : x = lo + softplus(u)
//	upper : x = hi - softplus(u)
//	both  : x = lo + (hi-lo) * logistic(u)
func (b Bound) toExternal(u float64) float64 {
	switch b.kind() {
	case kindLower:
		return b.Lower + softplus(u)
	case kindUpper:
		return b.Upper - softplus(u)
	case kindBoth:
		return b.Clamp(b.Lower + (b.Upper-b.Lower)*logistic(u))
	default:
		return u
	}
}

// toInternal 是 toExternal 的反函數；落在邊界上或邊界外的 x 會先被推回內部。
func (b Bound) toInternal(x float64) float64 {
	switch b.kind() {
	case kindLower:
		return softplusInv(math.Max(x-b.Lower, interiorGap))
	case kindUpper:
		return softplusInv(math.Max(b.Upper-x, interiorGap))
	case kindBoth:
		t := (x - b.Lower) / (b.Upper - b.Lower)
		t = math.Min(math.Max(t, interiorGap), 1-interiorGap)
		return math.Log(t / (1 - t))
	default:
		return x
	}
}

// softplus(u) = ln(1 + e^u)，對大 |u| 穩定。
func softplus(u float64) float64 {
	return math.Max(u, 0) + math.Log1p(math.Exp(-math.Abs(u)))
}

// softplusInv(y) = ln(e^y - 1)，y > 0。
func softplusInv(y float64) float64 {
	if y > 30 {
		return y + math.Log1p(-math.Exp(-y))
	}
	return math.Log(math.Expm1(y))
}

func logistic(u float64) float64 {
	if u >= 0 {
		return 1 / (1 + math.Exp(-u))
	}
	e := math.Exp(u)
	return e / (1 + e)
}

// space 是一組 Bound 組成的座標轉換。
type space []Bound

func (s space) toExternal(u []float64) []float64 {
	x := make([]float64, len(u))
	for i, b := range s {
		x[i] = b.toExternal(u[i])
	}
	return x
}

func (s space) toInternal(x []float64) []float64 {
	u := make([]float64, len(x))
	for i, b := range s {
		u[i] = b.toInternal(x[i])
	}
	return u
}

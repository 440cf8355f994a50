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

	"gonum.org/v1/gonum/stat"
)

// Penalty 正類的損失乘數 1 + y·sqrt(1-q)；y=0 時為 1，y=1 時介於 [1, 2]。
func Penalty(y, q float64) float64 {
	return 1 + y*math.Sqrt(1-q)
}

// SampleLoss 單一樣本的非對稱 log-loss：
//
//	-( y·penalty·ln(q) + (1-y)·ln(1-q) )
//
// q 需已落在 (0, 1)。
func SampleLoss(y, q float64) float64 {
	return -(y*Penalty(y, q)*math.Log(q) + (1-y)*math.Log1p(-q))
}

// LogLoss 單一樣本的一般（對稱）log-loss。
func LogLoss(y, q float64) float64 {
	return -(y*math.Log(q) + (1-y)*math.Log1p(-q))
}

// MeanAsymLoss 對已算好的機率 q 計算平均非對稱損失，q 先被夾到 [eps, 1-eps]。
// 空輸入回傳 NaN。
func MeanAsymLoss(q, labels []float64, eps float64) float64 {
	if len(q) == 0 {
		return math.NaN()
	}
	loss := make([]float64, len(q))
	for i := range q {
		loss[i] = SampleLoss(labels[i], Clip(q[i], eps, 1-eps))
	}
	return stat.Mean(loss, nil)
}

// objective 是擬合時的目標函數，事先把 ln(p)、ln(1-p) 算好。
//
// buf 在每次呼叫間重用，因此 objective 不可併發呼叫。
type objective struct {
	lp, lq []float64
	y      []float64
	eps    float64
	buf    []float64
}

func newObjective(probs, labels []float64, eps float64) *objective {
	n := len(probs)
	o := &objective{
		lp:  make([]float64, n),
		lq:  make([]float64, n),
		y:   labels,
		eps: eps,
		buf: make([]float64, n),
	}
	for i, p := range probs {
		x := Clip(p, eps, 1-eps)
		o.lp[i] = math.Log(x)
		o.lq[i] = math.Log1p(-x)
	}
	return o
}

// eval 平均損失，x 為 (a, b, c)。
func (o *objective) eval(x []float64) float64 {
	a, b, c := x[0], x[1], x[2]
	for i := range o.buf {
		q := Clip(Logistic(a+b*o.lp[i]+c*o.lq[i]), o.eps, 1-o.eps)
		o.buf[i] = SampleLoss(o.y[i], q)
	}
	return stat.Mean(o.buf, nil)
}

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

// Package stats 提供機率校準品質的診斷：可靠度分桶、ECE/MCE、log-loss、Brier，
// 以及 JSON / YAML / 表格輸出。
package stats

import (
	"math"

	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/errs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// lossEps 計算 log-loss 時的裁切量。
const lossEps float64 = 1e-15

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// Report 校準診斷報告
type Report struct {
	N          int     `json:"N"          yaml:"N"`
	Positives  int     `json:"Positives"  yaml:"Positives"`
	BaseRate   float64 `json:"BaseRate"   yaml:"BaseRate"`
	MeanProb   float64 `json:"MeanProb"   yaml:"MeanProb"`
	LogLoss    float64 `json:"LogLoss"    yaml:"LogLoss"`
	AsymLoss   float64 `json:"AsymLoss"   yaml:"AsymLoss"`
	Brier      float64 `json:"Brier"      yaml:"Brier"`
	ECE        float64 `json:"ECE"        yaml:"ECE"`
	MCE        float64 `json:"MCE"        yaml:"MCE"`
	Confidence float64 `json:"Confidence" yaml:"Confidence"`
	Bins       []Bin   `json:"Bins"       yaml:"Bins"`
}

// Bin 可靠度圖的一個等寬分桶 [Lo, Hi)（最後一桶含 1）。
//
// 空桶的 MeanProb / Observed 為 0，CI 為 [0, 1]。
type Bin struct {
	Lo        float64 `json:"Lo"        yaml:"Lo"`
	Hi        float64 `json:"Hi"        yaml:"Hi"`
	Count     int     `json:"Count"     yaml:"Count"`
	Positives int     `json:"Positives" yaml:"Positives"`
	MeanProb  float64 `json:"MeanProb"  yaml:"MeanProb"`
	Observed  float64 `json:"Observed"  yaml:"Observed"`
	CI        CI      `json:"CI"        yaml:"CI"`
}

// Gap |平均預測 - 觀測率|
func (b Bin) Gap() float64 {
	return math.Abs(b.MeanProb - b.Observed)
}

// Comparison 校準前後的對照。
type Comparison struct {
	Raw        *Report `json:"Raw"        yaml:"Raw"`
	Calibrated *Report `json:"Calibrated" yaml:"Calibrated"`
}

// Evaluate 以 95% 信心水準評估 (probs, labels)，分成 bins 個等寬分桶。
func Evaluate(probs, labels []float64, bins int) (*Report, error) {
	return EvaluateConf(probs, labels, bins, 0.95)
}

// EvaluateConf 同 Evaluate，可指定分桶觀測率 Clopper–Pearson CI 的信心水準。
//
// probs 會被夾到 [0, 1]；NaN 視為 NumericDomain 錯誤。labels 必須是 0 或 1。
func EvaluateConf(probs, labels []float64, bins int, confidence float64) (*Report, error) {
	if len(probs) != len(labels) {
		return nil, errs.Kindf(errs.KindInputShape, "length mismatch: probs=%d labels=%d", len(probs), len(labels))
	}
	if len(probs) == 0 {
		return nil, errs.NewKind(errs.KindInputShape, "empty evaluation set")
	}
	if bins < 1 {
		return nil, errs.Kindf(errs.KindConfig, "bins must be >= 1, got %d", bins)
	}
	if !(confidence > 0 && confidence < 1) {
		return nil, errs.Kindf(errs.KindConfig, "confidence must be in (0, 1), got %v", confidence)
	}
	if floats.HasNaN(probs) {
		return nil, errs.NewKind(errs.KindNumericDomain, "probs contain NaN")
	}
	for i, y := range labels {
		if y != 0 && y != 1 {
			return nil, errs.Kindf(errs.KindInputShape, "label[%d]=%v must be 0 or 1", i, y)
		}
	}

	n := len(probs)
	p := make([]float64, n)
	logLoss := make([]float64, n)
	sqErr := make([]float64, n)
	for i, v := range probs {
		p[i] = asymcal.Clip(v, 0, 1)
		q := asymcal.Clip(p[i], lossEps, 1-lossEps)
		logLoss[i] = asymcal.LogLoss(labels[i], q)
		d := p[i] - labels[i]
		sqErr[i] = d * d
	}

	r := &Report{
		N:          n,
		Positives:  int(floats.Sum(labels)),
		BaseRate:   stat.Mean(labels, nil),
		MeanProb:   stat.Mean(p, nil),
		LogLoss:    stat.Mean(logLoss, nil),
		AsymLoss:   asymcal.MeanAsymLoss(p, labels, lossEps),
		Brier:      stat.Mean(sqErr, nil),
		Confidence: confidence,
		Bins:       reliability(p, labels, bins, confidence),
	}
	for _, b := range r.Bins {
		if b.Count == 0 {
			continue
		}
		g := b.Gap()
		r.ECE += float64(b.Count) / float64(n) * g
		r.MCE = max(r.MCE, g)
	}
	return r, nil
}

// Compare 以相同 labels 與分桶評估校準前後兩組機率。
func Compare(raw, calibrated, labels []float64, bins int) (*Comparison, error) {
	before, err := Evaluate(raw, labels, bins)
	if err != nil {
		return nil, errs.Wrap(err, "evaluate raw probs")
	}
	after, err := Evaluate(calibrated, labels, bins)
	if err != nil {
		return nil, errs.Wrap(err, "evaluate calibrated probs")
	}
	return &Comparison{Raw: before, Calibrated: after}, nil
}

// reliability 把已夾到 [0, 1] 的 p 分到等寬分桶。
func reliability(p, labels []float64, bins int, confidence float64) []Bin {
	out := make([]Bin, bins)
	sum := make([]float64, bins)
	w := 1 / float64(bins)
	for i := range out {
		out[i].Lo = float64(i) * w
		out[i].Hi = float64(i+1) * w
	}
	out[bins-1].Hi = 1
	for i, v := range p {
		k := min(int(v*float64(bins)), bins-1)
		out[k].Count++
		out[k].Positives += int(labels[i])
		sum[k] += v
	}
	for k := range out {
		b := &out[k]
		if b.Count == 0 {
			b.CI = CI{Lo: 0, Hi: 1}
			continue
		}
		b.MeanProb = sum[k] / float64(b.Count)
		b.Observed, b.CI = binomialCI(b.Positives, b.Count, confidence)
	}
	return out
}

// binomialCI k/n 的點估計與 Clopper–Pearson 精確區間：
//
//	lo = Beta(k, n-k+1).Quantile(α/2)    (k = 0 時為 0)
//	hi = Beta(k+1, n-k).Quantile(1-α/2)  (k = n 時為 1)
func binomialCI(k, n int, confidence float64) (float64, CI) {
	if n <= 0 {
		return 0, CI{Lo: 0, Hi: 1}
	}
	tail := (1 - confidence) / 2
	ci := CI{Lo: 0, Hi: 1}
	if k > 0 {
		ci.Lo = distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(tail)
	}
	if k < n {
		ci.Hi = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - tail)
	}
	return float64(k) / float64(n), ci
}

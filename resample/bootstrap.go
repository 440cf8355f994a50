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

// Package resample 以 bootstrap 估計校準參數 (a, b, c) 的不確定性。
package resample

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/setting"
	"github.com/zintix-labs/asymcal/stats"
	"gonum.org/v1/gonum/stat"
)

// Options bootstrap 選項。
type Options struct {
	Rounds     int
	Workers    int
	Confidence float64
	// Seed 為 0 時隨機產生；實際使用的值記錄在 Result.Seed。
	Seed uint64
	// Setting 每輪擬合使用的設定；nil 代表預設值。
	Setting *setting.FitSetting
	// Progress 非 nil 時輸出進度條。
	Progress io.Writer
	Logger   *slog.Logger
}

// OptionsFrom 由 setting.BootstrapSetting 建立選項。
func OptionsFrom(fs *setting.FitSetting) Options {
	return Options{
		Rounds:     fs.Bootstrap.Rounds,
		Workers:    fs.Bootstrap.Workers,
		Confidence: fs.Bootstrap.Confidence,
		Seed:       uint64(max(fs.Bootstrap.Seed, 0)),
		Setting:    fs,
	}
}

// Estimate 單一參數的 bootstrap 估計。
type Estimate struct {
	Mean float64  `json:"Mean" yaml:"Mean"`
	Std  float64  `json:"Std"  yaml:"Std"`
	CI   stats.CI `json:"CI"   yaml:"CI"`
}

// Result bootstrap 結果。Failed 為擬合失敗（非有限參數）而被略過的輪數。
type Result struct {
	Rounds     int           `json:"Rounds"     yaml:"Rounds"`
	Failed     int           `json:"Failed"     yaml:"Failed"`
	NotConv    int           `json:"NotConv"    yaml:"NotConv"`
	Seed       uint64        `json:"Seed"       yaml:"Seed"`
	Confidence float64       `json:"Confidence" yaml:"Confidence"`
	A          Estimate      `json:"A"          yaml:"A"`
	B          Estimate      `json:"B"          yaml:"B"`
	C          Estimate      `json:"C"          yaml:"C"`
	Used       time.Duration `json:"Used"       yaml:"Used"`
}

// round 單輪結果
type round struct {
	p    asymcal.Params
	ok   bool
	conv bool
}

// Bootstrap 對 (probs, labels) 重抽樣 Rounds 次並各自擬合。
//
// 每輪使用 PCG(seed, round) 抽樣，因此結果與 Workers 數量及排程無關。
// ctx 取消時尚未開始的輪次不再執行，回傳 ctx 的錯誤。
func Bootstrap(ctx context.Context, probs, labels []float64, opt Options) (*Result, error) {
	if len(probs) != len(labels) {
		return nil, errs.Kindf(errs.KindInputShape, "length mismatch: probs=%d labels=%d", len(probs), len(labels))
	}
	if len(probs) == 0 {
		return nil, errs.NewKind(errs.KindInputShape, "empty training set")
	}
	if opt.Rounds < 2 {
		return nil, errs.Kindf(errs.KindConfig, "bootstrap rounds must be >= 2, got %d", opt.Rounds)
	}
	if opt.Workers < 1 {
		return nil, errs.Kindf(errs.KindConfig, "bootstrap workers must be >= 1, got %d", opt.Workers)
	}
	if !(opt.Confidence > 0 && opt.Confidence < 1) {
		return nil, errs.Kindf(errs.KindConfig, "bootstrap confidence must be in (0, 1), got %v", opt.Confidence)
	}
	set := opt.Setting
	if set == nil {
		set = setting.Default()
	}
	if err := set.Valid(); err != nil {
		return nil, err
	}
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	seed := opt.Seed
	if seed == 0 {
		seed = rand.Uint64() | 1
	}

	start := time.Now()
	bar := pb.New(opt.Rounds)
	if opt.Progress != nil {
		bar.SetWriter(opt.Progress)
	} else {
		bar.SetWriter(io.Discard)
	}
	bar.Start()
	defer bar.Finish()

	// ctx 由 task 自行檢查，不交給 pool：被 pool 丟棄的 task 會讓 group.Wait 永不返回。
	pool := pond.NewResultPool[round](opt.Workers)
	defer pool.StopAndWait()
	group := pool.NewGroup()

	n := len(probs)
	for r := 0; r < opt.Rounds; r++ {
		if ctx.Err() != nil {
			break
		}
		group.SubmitErr(func() (round, error) {
			defer bar.Increment()
			if err := ctx.Err(); err != nil {
				return round{}, err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(r)))
			bp := make([]float64, n)
			by := make([]float64, n)
			for i := range n {
				k := rng.IntN(n)
				bp[i], by[i] = probs[k], labels[k]
			}
			cal, err := asymcal.New(asymcal.WithSetting(set))
			if err != nil {
				return round{}, err
			}
			if _, err := cal.Fit(bp, by); err != nil {
				if errs.KindOf(err) == errs.KindNumericDomain {
					return round{}, nil
				}
				return round{}, err
			}
			p, _ := cal.Params()
			return round{p: p, ok: true, conv: cal.Summary().Converged}, nil
		})
	}

	rounds, err := group.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errs.Wrap(ctxErr, "bootstrap canceled")
	}
	if err != nil {
		return nil, errs.Wrap(err, "bootstrap round failed")
	}

	res := &Result{Rounds: opt.Rounds, Seed: seed, Confidence: opt.Confidence}
	as := make([]float64, 0, len(rounds))
	bs := make([]float64, 0, len(rounds))
	cs := make([]float64, 0, len(rounds))
	for _, rd := range rounds {
		if !rd.ok {
			res.Failed++
			continue
		}
		if !rd.conv {
			res.NotConv++
		}
		as = append(as, rd.p.A)
		bs = append(bs, rd.p.B)
		cs = append(cs, rd.p.C)
	}
	if len(as) < 2 {
		return nil, errs.Kindf(errs.KindNumericDomain, "bootstrap: only %d of %d rounds produced finite params", len(as), opt.Rounds)
	}
	res.A = estimate(as, opt.Confidence)
	res.B = estimate(bs, opt.Confidence)
	res.C = estimate(cs, opt.Confidence)
	res.Used = time.Since(start)

	log.Info("bootstrap done",
		slog.Int("rounds", res.Rounds),
		slog.Int("failed", res.Failed),
		slog.Int("not_converged", res.NotConv),
		slog.Uint64("seed", seed),
		slog.Duration("used", res.Used),
	)
	return res, nil
}

// estimate 平均、標準差與百分位 CI。x 會被排序。
func estimate(x []float64, confidence float64) Estimate {
	slices.Sort(x)
	mean, std := stat.MeanStdDev(x, nil)
	alpha := (1 - confidence) / 2
	return Estimate{
		Mean: mean,
		Std:  std,
		CI: stats.CI{
			Lo: stat.Quantile(alpha, stat.Empirical, x, nil),
			Hi: stat.Quantile(1-alpha, stat.Empirical, x, nil),
		},
	}
}

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

package stats_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/stats"
	"gopkg.in/yaml.v3"
)

func TestEvaluateBasics(t *testing.T) {
	probs := []float64{0.05, 0.15, 0.55, 0.65, 0.95, 1.0}
	labels := []float64{0, 0, 1, 0, 1, 1}
	r, err := stats.Evaluate(probs, labels, 10)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if r.N != 6 || r.Positives != 3 {
		t.Fatalf("counts got N=%d pos=%d", r.N, r.Positives)
	}
	if math.Abs(r.BaseRate-0.5) > 1e-12 {
		t.Fatalf("base rate got %v", r.BaseRate)
	}
	if len(r.Bins) != 10 {
		t.Fatalf("bins got %d", len(r.Bins))
	}
	total := 0
	for _, b := range r.Bins {
		total += b.Count
		if b.CI.Lo > b.Observed || b.CI.Hi < b.Observed {
			t.Fatalf("observed %v outside CI %+v", b.Observed, b.CI)
		}
	}
	if total != 6 {
		t.Fatalf("bin counts sum %d want 6", total)
	}
	if r.Bins[9].Count != 2 {
		t.Fatalf("p=1 must land in last bin, got count %d", r.Bins[9].Count)
	}
	if r.Bins[9].Hi != 1 {
		t.Fatalf("last bin hi got %v", r.Bins[9].Hi)
	}
	if math.IsInf(r.LogLoss, 0) || math.IsNaN(r.LogLoss) {
		t.Fatalf("log loss must be finite, got %v", r.LogLoss)
	}
	if r.AsymLoss < r.LogLoss {
		t.Fatalf("asymmetric loss %v must be >= log loss %v", r.AsymLoss, r.LogLoss)
	}
	if r.ECE < 0 || r.ECE > r.MCE+1e-12 {
		t.Fatalf("ece %v mce %v", r.ECE, r.MCE)
	}
}

func TestPerfectCalibrationHasZeroError(t *testing.T) {
	probs := []float64{0, 0, 1, 1}
	labels := []float64{0, 0, 1, 1}
	r, err := stats.Evaluate(probs, labels, 5)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if r.ECE != 0 || r.MCE != 0 || r.Brier != 0 {
		t.Fatalf("perfect predictions: ece=%v mce=%v brier=%v", r.ECE, r.MCE, r.Brier)
	}
}

func TestBrierAndECEByHand(t *testing.T) {
	probs := []float64{0.2, 0.2, 0.8, 0.8}
	labels := []float64{0, 1, 1, 1}
	r, err := stats.Evaluate(probs, labels, 2)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	wantBrier := (0.04 + 0.64 + 0.04 + 0.04) / 4
	if math.Abs(r.Brier-wantBrier) > 1e-12 {
		t.Fatalf("brier got %v want %v", r.Brier, wantBrier)
	}
	// bin0: mean 0.2 obs 0.5 gap 0.3; bin1: mean 0.8 obs 1 gap 0.2
	if math.Abs(r.ECE-0.25) > 1e-12 || math.Abs(r.MCE-0.3) > 1e-12 {
		t.Fatalf("ece=%v mce=%v", r.ECE, r.MCE)
	}
}

func TestClopperPearsonEdges(t *testing.T) {
	r, err := stats.EvaluateConf([]float64{0.1, 0.1, 0.1}, []float64{0, 0, 0}, 1, 0.9)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	ci := r.Bins[0].CI
	if ci.Lo != 0 || !(ci.Hi > 0 && ci.Hi < 1) {
		t.Fatalf("k=0 ci got %+v", ci)
	}
	// k=0: Hi = 1 - (alpha/2)^(1/n)
	want := 1 - math.Pow(0.05, 1.0/3)
	if math.Abs(ci.Hi-want) > 1e-6 {
		t.Fatalf("k=0 upper got %v want %v", ci.Hi, want)
	}
}

func TestEvaluateErrors(t *testing.T) {
	cases := []struct {
		name   string
		probs  []float64
		labels []float64
		bins   int
		want   error
	}{
		{"mismatch", []float64{0.1}, []float64{0, 1}, 10, errs.ErrInputShape},
		{"empty", nil, nil, 10, errs.ErrInputShape},
		{"bad label", []float64{0.1}, []float64{2}, 10, errs.ErrInputShape},
		{"nan", []float64{math.NaN()}, []float64{1}, 10, errs.ErrNumericDomain},
		{"bins", []float64{0.1}, []float64{1}, 0, errs.ErrConfig},
	}
	for _, c := range cases {
		if _, err := stats.Evaluate(c.probs, c.labels, c.bins); !errors.Is(err, c.want) {
			t.Fatalf("%s: got %v want %v", c.name, err, c.want)
		}
	}
}

func TestCompareAndRenders(t *testing.T) {
	raw := []float64{0.1, 0.4, 0.6, 0.9}
	cal := []float64{0.05, 0.5, 0.7, 0.95}
	labels := []float64{0, 1, 1, 1}
	cmp, err := stats.Compare(raw, cal, labels, 4)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.Raw.N != 4 || cmp.Calibrated.N != 4 {
		t.Fatalf("compare reports incomplete")
	}

	var jb bytes.Buffer
	if err := (&stats.JsonRender{}).Write(&jb, cmp); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back stats.Comparison
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if back.Calibrated.Brier != cmp.Calibrated.Brier {
		t.Fatalf("json brier got %v", back.Calibrated.Brier)
	}

	var yb bytes.Buffer
	if err := (&stats.YAMLRender{}).Write(&yb, cmp.Raw); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var yr stats.Report
	if err := yaml.Unmarshal(yb.Bytes(), &yr); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if yr.N != 4 || len(yr.Bins) != 4 {
		t.Fatalf("yaml round trip got %+v", yr)
	}

	var tb bytes.Buffer
	if err := (&stats.TableRender{Title: "Calibration"}).Write(&tb, cmp); err != nil {
		t.Fatalf("table: %v", err)
	}
	out := tb.String()
	for _, want := range []string{"Calibration", "Brier", "->", "Observed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if err := (&stats.TableRender{}).Write(&tb, 42); err == nil {
		t.Fatalf("table render must reject unsupported types")
	}
}

func TestRenderByName(t *testing.T) {
	for _, name := range []string{"", "table", "json", "YAML", "yml"} {
		if _, err := stats.RenderByName(name, "t"); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
	}
	if _, err := stats.RenderByName("xml", "t"); !errors.Is(err, errs.ErrConfig) {
		t.Fatalf("xml: expected config error, got %v", err)
	}
}

func TestWriteKVKeepsKeyOrder(t *testing.T) {
	var b bytes.Buffer
	err := stats.WriteKV(&b, "Params", []string{"b", "a"}, map[string]string{"a": "1.0", "b": "2.0"})
	if err != nil {
		t.Fatalf("write kv: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "Params") || strings.Index(out, "2.0") > strings.Index(out, "1.0") {
		t.Fatalf("table order wrong:\n%s", out)
	}
}

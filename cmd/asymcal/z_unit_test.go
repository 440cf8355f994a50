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

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zintix-labs/asymcal/errs"
)

// writeData 寫出過度自信的樣本：真實機率為 p^2。
func writeData(t *testing.T, n int) string {
	t.Helper()
	r := rand.New(rand.NewPCG(42, 1))
	var sb strings.Builder
	sb.WriteString("prob,label\n")
	for range n {
		p := 0.02 + 0.96*r.Float64()
		y := 0
		if r.Float64() < p*p {
			y = 1
		}
		fmt.Fprintf(&sb, "%.6f,%d\n", p, y)
	}
	path := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFitSavePredict(t *testing.T) {
	data := writeData(t, 500)
	model := filepath.Join(t.TempDir(), "model.yaml")

	out, err := execute(t, "fit", data, "--format", "json", "--save", model)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	var fo fitOutput
	if err := json.Unmarshal([]byte(out), &fo); err != nil {
		t.Fatalf("decode fit output: %v\n%s", err, out)
	}
	if fo.Summary.N != 500 || fo.Params.B < 1e-5 || fo.Params.C > -1e-5 {
		t.Fatalf("fit output got %+v", fo)
	}
	if fo.Report.Calibrated.AsymLoss > fo.Report.Raw.AsymLoss {
		t.Fatalf("calibration worsened asymmetric loss")
	}

	p, err := loadParams(model)
	if err != nil || p != fo.Params {
		t.Fatalf("saved params got %+v %v want %+v", p, err, fo.Params)
	}

	out, err = execute(t, "predict", data, "--model", model)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "prob,calibrated" || len(lines) != 501 {
		t.Fatalf("predict csv got header %q and %d lines", lines[0], len(lines))
	}
}

func TestFitTableWithBootstrap(t *testing.T) {
	data := writeData(t, 300)
	out, err := execute(t, "fit", data, "--bootstrap", "4", "--workers", "2", "--seed", "9")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for _, want := range []string{"Asymmetric Calibration", "Raw -> Calibrated", "Bootstrap (95% CI)", "Seed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFitWithConfigAndProfile(t *testing.T) {
	data := writeData(t, 200)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "fit.yaml")
	if err := os.WriteFile(cfg, []byte("report:\n  bins: 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	prof := filepath.Join(dir, "prof")
	out, err := execute(t, "fit", data, "-c", cfg, "-f", "yaml", "--profile", "heap", "--profile-dir", prof)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !strings.Contains(out, "params:") {
		t.Fatalf("yaml output got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(prof, "heap.pprof")); err != nil {
		t.Fatalf("heap profile missing: %v", err)
	}
}

func TestPredictInlineParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := os.WriteFile(path, []byte("0.5\n0.0001\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := execute(t, "predict", path, "--a", "0", "--b", "1", "--c", "-1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "0.5,0.5") || !strings.HasSuffix(lines[2], ",0.001") {
		t.Fatalf("predict got:\n%s", out)
	}

	if _, err := execute(t, "predict", path); !errors.Is(err, errs.ErrNotFitted) {
		t.Fatalf("no params: expected not fitted, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	data := writeData(t, 300)
	out, err := execute(t, "evaluate", data, "--bins", "5", "--format", "json")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var rep struct {
		N    int
		Bins []json.RawMessage
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.N != 300 || len(rep.Bins) != 5 {
		t.Fatalf("report got n=%d bins=%d", rep.N, len(rep.Bins))
	}
}

func TestCommandErrors(t *testing.T) {
	data := writeData(t, 50)
	cases := []struct {
		args []string
		want error
	}{
		{[]string{"fit", data, "--format", "xml"}, errs.ErrConfig},
		{[]string{"fit", filepath.Join(t.TempDir(), "missing.csv")}, errs.ErrNotFound},
		{[]string{"fit", data, "--profile", "block"}, errs.ErrConfig},
		{[]string{"evaluate", data, "--bins", "0"}, errs.ErrConfig},
		{[]string{"fit", data, "--log", "loud"}, errs.ErrConfig},
	}
	for _, c := range cases {
		if _, err := execute(t, c.args...); !errors.Is(err, c.want) {
			t.Fatalf("%v: expected %v, got %v", c.args, c.want, err)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || !strings.HasPrefix(out, "asymcal dev") {
		t.Fatalf("version got %q %v", out, err)
	}
}

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

package resample_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/resample"
	"github.com/zintix-labs/asymcal/setting"
)

func sampleData() ([]float64, []float64) {
	probs := []float64{0.05, 0.1, 0.2, 0.25, 0.3, 0.4, 0.45, 0.5, 0.6, 0.65, 0.7, 0.8, 0.85, 0.9, 0.95}
	labels := []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 1, 1, 1, 1, 1, 1}
	return probs, labels
}

func TestBootstrapDeterministicAcrossWorkers(t *testing.T) {
	probs, labels := sampleData()
	opt := resample.Options{Rounds: 12, Workers: 1, Confidence: 0.9, Seed: 42}
	r1, err := resample.Bootstrap(context.Background(), probs, labels, opt)
	if err != nil {
		t.Fatalf("bootstrap 1: %v", err)
	}
	opt.Workers = 4
	r2, err := resample.Bootstrap(context.Background(), probs, labels, opt)
	if err != nil {
		t.Fatalf("bootstrap 2: %v", err)
	}
	if r1.A != r2.A || r1.B != r2.B || r1.C != r2.C {
		t.Fatalf("results depend on workers:\n%+v\n%+v", r1, r2)
	}
	if r1.Seed != 42 {
		t.Fatalf("seed got %d", r1.Seed)
	}
}

func TestBootstrapRespectsBounds(t *testing.T) {
	probs, labels := sampleData()
	var progress bytes.Buffer
	res, err := resample.Bootstrap(context.Background(), probs, labels, resample.Options{
		Rounds: 8, Workers: 2, Confidence: 0.95, Seed: 7, Progress: &progress,
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if res.B.CI.Lo < 1e-5 || res.C.CI.Hi > -1e-5 {
		t.Fatalf("bootstrap params violate bounds: b=%+v c=%+v", res.B, res.C)
	}
	for _, e := range []resample.Estimate{res.A, res.B, res.C} {
		if e.CI.Lo > e.CI.Hi || e.Std < 0 {
			t.Fatalf("bad estimate %+v", e)
		}
	}
	if res.Rounds != 8 || res.Failed != 0 {
		t.Fatalf("rounds=%d failed=%d", res.Rounds, res.Failed)
	}
}

func TestBootstrapOptionErrors(t *testing.T) {
	probs, labels := sampleData()
	ctx := context.Background()
	if _, err := resample.Bootstrap(ctx, probs, labels[:3], resample.Options{Rounds: 4, Workers: 1, Confidence: 0.9}); !errors.Is(err, errs.ErrInputShape) {
		t.Fatalf("mismatch: got %v", err)
	}
	if _, err := resample.Bootstrap(ctx, nil, nil, resample.Options{Rounds: 4, Workers: 1, Confidence: 0.9}); !errors.Is(err, errs.ErrInputShape) {
		t.Fatalf("empty: got %v", err)
	}
	if _, err := resample.Bootstrap(ctx, probs, labels, resample.Options{Rounds: 1, Workers: 1, Confidence: 0.9}); !errors.Is(err, errs.ErrConfig) {
		t.Fatalf("rounds: got %v", err)
	}
	if _, err := resample.Bootstrap(ctx, probs, labels, resample.Options{Rounds: 4, Workers: 0, Confidence: 0.9}); !errors.Is(err, errs.ErrConfig) {
		t.Fatalf("workers: got %v", err)
	}
}

func TestBootstrapCanceled(t *testing.T) {
	probs, labels := sampleData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := resample.Bootstrap(ctx, probs, labels, resample.Options{Rounds: 50, Workers: 2, Confidence: 0.9, Seed: 1}); err == nil {
		t.Fatalf("canceled context must fail")
	}
}

func TestBootstrapDeadlineMidRun(t *testing.T) {
	probs, labels := sampleData()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := resample.Bootstrap(ctx, probs, labels, resample.Options{Rounds: 100000, Workers: 1, Confidence: 0.9, Seed: 3})
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline error, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("bootstrap did not return after its deadline")
	}
}

func TestOptionsFrom(t *testing.T) {
	s := setting.Default()
	s.Bootstrap.Rounds = 30
	s.Bootstrap.Workers = 3
	s.Bootstrap.Seed = -5
	opt := resample.OptionsFrom(s)
	if opt.Rounds != 30 || opt.Workers != 3 || opt.Seed != 0 || opt.Setting != s {
		t.Fatalf("options got %+v", opt)
	}
}

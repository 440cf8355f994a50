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

package perf_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/perf"
)

func busy() error {
	s := 0.0
	for i := range 200000 {
		s += float64(i)
	}
	_ = s
	return nil
}

func TestRunWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	for _, mode := range []string{"cpu", "heap", "allocs"} {
		if err := perf.Run(busy, mode, dir); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		st, err := os.Stat(filepath.Join(dir, mode+".pprof"))
		if err != nil || st.Size() == 0 {
			t.Fatalf("%s: profile missing or empty (%v)", mode, err)
		}
	}
}

func TestRunPassesThroughError(t *testing.T) {
	boom := errors.New("boom")
	dir := t.TempDir()
	for _, mode := range []string{"", "heap"} {
		if err := perf.Run(func() error { return boom }, mode, dir); !errors.Is(err, boom) {
			t.Fatalf("mode %q: expected exe error, got %v", mode, err)
		}
	}
}

func TestRunUnknownMode(t *testing.T) {
	called := false
	err := perf.Run(func() error { called = true; return nil }, "block", t.TempDir())
	if !errors.Is(err, errs.ErrConfig) || called {
		t.Fatalf("expected config error without running, got %v called=%v", err, called)
	}
}

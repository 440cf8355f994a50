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

package dataset_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/asymcal/dataset"
	"github.com/zintix-labs/asymcal/errs"
)

const sample = `prob,label
# comment line
0.2,0
0.5, 1

0.8,1,extra
`

func TestReadWithHeaderAndComments(t *testing.T) {
	set, err := dataset.Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("len got %d want 3", set.Len())
	}
	want := []float64{0.2, 0.5, 0.8}
	for i, p := range set.Probs {
		if p != want[i] {
			t.Fatalf("probs got %v", set.Probs)
		}
	}
	if set.Labels[0] != 0 || set.Labels[1] != 1 || set.Labels[2] != 1 {
		t.Fatalf("labels got %v", set.Labels)
	}
}

func TestReadWithoutHeader(t *testing.T) {
	set, err := dataset.Read(strings.NewReader("0.1,1\n0.9,0\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if set.Len() != 2 || set.Probs[0] != 0.1 {
		t.Fatalf("got %+v", set)
	}
}

func TestReadErrors(t *testing.T) {
	cases := map[string]string{
		"bad label":   "0.1,2\n",
		"bad prob":    "prob,label\n0.1,1\nabc,0\n",
		"one column":  "0.1\n",
		"label float": "0.3,0.5\n",
	}
	for name, in := range cases {
		_, err := dataset.Read(strings.NewReader(in))
		if !errors.Is(err, errs.ErrInputShape) {
			t.Fatalf("%s: expected input shape error, got %v", name, err)
		}
	}
	_, err := dataset.Read(strings.NewReader("prob,label\n0.1,1\nabc,0\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("error must carry line number, got %v", err)
	}
}

func TestReadProbs(t *testing.T) {
	probs, err := dataset.ReadProbs(strings.NewReader("prob\n0.3\n0.7,1\n"))
	if err != nil {
		t.Fatalf("read probs: %v", err)
	}
	if len(probs) != 2 || probs[1] != 0.7 {
		t.Fatalf("got %v", probs)
	}
}

func TestLoadCompressed(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(sample))
	_ = gw.Close()
	gzPath := filepath.Join(dir, "data.csv.gz")
	if err := os.WriteFile(gzPath, gz.Bytes(), 0o644); err != nil {
		t.Fatalf("write gz: %v", err)
	}

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	_, _ = zw.Write([]byte(sample))
	_ = zw.Close()
	zsPath := filepath.Join(dir, "data.csv.zst")
	if err := os.WriteFile(zsPath, zs.Bytes(), 0o644); err != nil {
		t.Fatalf("write zst: %v", err)
	}

	plain := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(plain, []byte(sample), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	for _, p := range []string{gzPath, zsPath, plain} {
		set, err := dataset.Load(p)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if set.Len() != 3 {
			t.Fatalf("%s: len got %d", p, set.Len())
		}
	}
	probs, err := dataset.LoadProbs(gzPath)
	if err != nil || len(probs) != 3 {
		t.Fatalf("load probs got %v %v", probs, err)
	}
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	if _, err := dataset.Load(filepath.Join(dir, "nope.csv")); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing: expected not found, got %v", err)
	}
	bad := filepath.Join(dir, "bad.gz")
	_ = os.WriteFile(bad, []byte("not gzip"), 0o644)
	if _, err := dataset.Load(bad); !errors.Is(err, errs.ErrInputShape) {
		t.Fatalf("corrupt gz: expected input shape, got %v", err)
	}
}

func TestWritePredictions(t *testing.T) {
	var buf bytes.Buffer
	if err := dataset.WritePredictions(&buf, []float64{0.2, 0.5}, []float64{0.1, 0.6}); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "prob,calibrated\n0.2,0.1\n0.5,0.6\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
	if err := dataset.WritePredictions(&buf, []float64{1}, nil); !errors.Is(err, errs.ErrInputShape) {
		t.Fatalf("expected input shape error, got %v", err)
	}
}

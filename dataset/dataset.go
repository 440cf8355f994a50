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

// Package dataset 讀取校準用的 CSV 資料（prob,label），並支援 .gz / .zst 壓縮檔。
package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/asymcal/errs"
)

// Set 成對的機率與標籤。
type Set struct {
	Probs  []float64
	Labels []float64
}

func (s *Set) Len() int { return len(s.Probs) }

// Read 解析 CSV：每列 `prob,label`，多餘欄位忽略。
//
// 第一列若第一欄不是數字則視為標題列；以 # 開頭的列視為註解。
// label 必須是 0 或 1。
func Read(r io.Reader) (*Set, error) {
	set := &Set{}
	err := scan(r, 2, func(line int, rec []string) error {
		p, err := parseFloat(rec[0], line, "prob")
		if err != nil {
			return err
		}
		y, err := parseFloat(rec[1], line, "label")
		if err != nil {
			return err
		}
		if y != 0 && y != 1 {
			return errs.Kindf(errs.KindInputShape, "line %d: label must be 0 or 1, got %q", line, rec[1])
		}
		set.Probs = append(set.Probs, p)
		set.Labels = append(set.Labels, y)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// ReadProbs 只讀第一欄機率（用於預測），規則同 Read。
func ReadProbs(r io.Reader) ([]float64, error) {
	var out []float64
	err := scan(r, 1, func(line int, rec []string) error {
		p, err := parseFloat(rec[0], line, "prob")
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Open 開啟檔案；副檔名為 .gz / .zst 時自動解壓縮。
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapKind(err, errs.KindNotFound, "open dataset")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, errs.WrapKind(err, errs.KindInputShape, "gzip header")
		}
		return &stackCloser{Reader: gr, closers: []io.Closer{gr, f}}, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			_ = f.Close()
			return nil, errs.WrapKind(err, errs.KindInputShape, "zstd header")
		}
		rc := zr.IOReadCloser()
		return &stackCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	default:
		return f, nil
	}
}

// Load = Open + Read
func Load(path string) (*Set, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	set, err := Read(rc)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "load dataset", "path="+path)
	}
	return set, nil
}

// LoadProbs = Open + ReadProbs
func LoadProbs(path string) ([]float64, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	out, err := ReadProbs(rc)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "load probs", "path="+path)
	}
	return out, nil
}

// WritePredictions 輸出 `prob,calibrated` 兩欄 CSV（含標題列）。
func WritePredictions(w io.Writer, raw, calibrated []float64) error {
	if len(raw) != len(calibrated) {
		return errs.Kindf(errs.KindInputShape, "length mismatch: raw=%d calibrated=%d", len(raw), len(calibrated))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"prob", "calibrated"}); err != nil {
		return errs.Wrap(err, "write header")
	}
	row := make([]string, 2)
	for i := range raw {
		row[0] = strconv.FormatFloat(raw[i], 'g', -1, 64)
		row[1] = strconv.FormatFloat(calibrated[i], 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return errs.Wrap(err, "write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errs.Wrap(err, "flush csv")
	}
	return nil
}

// scan 逐列讀取，rec 至少有 minCols 欄；第一列非數字時當作標題略過。
func scan(r io.Reader, minCols int, fn func(line int, rec []string) error) error {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errs.WrapKind(err, errs.KindInputShape, "malformed csv")
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if _, perr := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64); perr != nil {
				continue
			}
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < minCols {
			return errs.Kindf(errs.KindInputShape, "line %d: want at least %d columns, got %d", line, minCols, len(rec))
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

func parseFloat(s string, line int, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errs.WrapKind(err, errs.KindInputShape, "line "+strconv.Itoa(line)+": bad "+field+" "+strconv.Quote(s))
	}
	return v, nil
}

// stackCloser 依序關閉解壓器與底層檔案。
type stackCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

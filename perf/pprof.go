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

// Package perf 以 runtime/pprof 包住一段工作，輸出 cpu / heap / allocs profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/asymcal/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Modes 支援的 profile 種類；空字串代表不做 profiling。
var Modes = []string{"", "cpu", "heap", "allocs"}

// Run 根據 mode 決定執行哪種 profiling，dir 為空時使用 DefaultDir。
//
// exe 的錯誤會原樣回傳；profile 寫出失敗則回傳 Fatal 錯誤（exe 仍會被執行）。
// 可以作性能分析，也可以拿來做構建時給 pgo 的優化 blueprint：
//
//	asymcal fit data.csv --profile cpu
func Run(exe func() error, mode, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "":
		return exe()
	case "cpu":
		return CPU(exe, dir)
	case "heap":
		return snapshot(exe, dir, "heap")
	case "allocs":
		return snapshot(exe, dir, "allocs")
	default:
		return errs.Kindf(errs.KindConfig, "unknown profile mode %q (want cpu|heap|allocs)", mode)
	}
}

// CPU 在 exe 執行期間開啟 CPU profiling，輸出 dir/cpu.pprof。
func CPU(exe func() error, dir string) error {
	f, err := create(dir, "cpu")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "failed to start cpu profile")
	}
	defer pprof.StopCPUProfile()

	return exe()
}

// snapshot 在 exe 執行完後寫出一次 heap（in-use）或 allocs（累積配置）快照。
// heap 寫出前先 GC，讓 live objects 貼近最新狀態。
func snapshot(exe func() error, dir, kind string) error {
	runErr := exe()

	if kind == "heap" {
		runtime.GC()
	}
	f, err := create(dir, kind)
	if err != nil {
		return errs.Wrap(err, "profile after run")
	}
	defer f.Close()

	prof := pprof.Lookup(kind)
	if prof == nil {
		return errs.Fatalf("pprof profile %q not found", kind)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "failed to write "+kind+" profile")
	}
	return runErr
}

func create(dir, kind string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "failed to create profiling dir")
	}
	f, err := os.Create(filepath.Join(dir, kind+".pprof"))
	if err != nil {
		return nil, errs.Wrap(err, "failed to create "+kind+".pprof")
	}
	return f, nil
}

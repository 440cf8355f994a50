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

// 開發用任務：go run ./scripts <task>
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		PrintYellow("Usage: go run ./scripts [test|test-detail|race|cover|pgo <data.csv>]")
		os.Exit(1)
	}
	if err := selectTask(os.Args[1], os.Args[2:]); err != nil {
		PrintRed(err.Error())
		os.Exit(1)
	}
}

func selectTask(task string, args []string) error {
	switch task {
	case "test":
		cleanCache()
		return runFiltered("go", "test", "./...", "-cover", "-count=1")
	case "test-detail":
		cleanCache()
		return runPlain("go", "test", "./...", "-v", "-count=1")
	case "race":
		return runFiltered("go", "test", "./...", "-race", "-count=1")
	case "cover":
		return runCover()
	case "pgo":
		if len(args) != 1 {
			return fmt.Errorf("pgo needs a training csv")
		}
		return runPGO(args[0])
	default:
		return fmt.Errorf("unknown task: %s", task)
	}
}

func cleanCache() {
	// clean 失敗不中斷
	if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
		PrintYellow(err.Error())
	}
}

// runFiltered 等同 go test ... 2>&1 | grep -E '^(ok|FAIL)'，但保留編譯錯誤。
func runFiltered(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	sc := bufio.NewScanner(pipe)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "ok"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"),
			strings.Contains(line, "setup failed"), strings.Contains(line, "DATA RACE"):
			PrintRed(line)
		}
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("tests finished with errors")
	}
	PrintGreen("all tests passed")
	return nil
}

func runPlain(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// runCover 輸出 build/coverage.out 並印出總覆蓋率。
func runCover() error {
	out := filepath.Join("build", "coverage.out")
	if err := os.MkdirAll("build", 0o755); err != nil {
		return err
	}
	if err := runFiltered("go", "test", "./...", "-count=1", "-coverprofile="+out); err != nil {
		return err
	}
	res, err := exec.Command("go", "tool", "cover", "-func="+out).Output()
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimSpace(string(res)), "\n")
	PrintBlue(lines[len(lines)-1])
	return nil
}

// runPGO 以 cpu profile 跑一次擬合，並複製成 cmd/asymcal/default.pgo。
func runPGO(data string) error {
	PrintGreen("profiling fit on " + data)
	if err := runPlain("go", "run", "./cmd/asymcal", "fit", data, "--bootstrap", "200", "--format", "json", "--profile", "cpu"); err != nil {
		return err
	}
	src, err := os.Open(filepath.Join("build", "profiling", "cpu.pprof"))
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(filepath.Join("cmd", "asymcal", "default.pgo"))
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	PrintGreen("wrote cmd/asymcal/default.pgo")
	return nil
}

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

package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// StdOut 把報告以表格印到標準輸出。
func (r *Report) StdOut(title string) {
	_ = r.WriteTable(os.Stdout, title)
}

// WriteTable 輸出摘要表與分桶表。
func (r *Report) WriteTable(w io.Writer, title string) error {
	keys, msg := r.fmtBasic()
	str := fmtTable(title, keys, msg) + fmtBins(r.Bins)
	_, err := io.WriteString(w, str)
	return err
}

// StdOut 把校準前後對照以表格印到標準輸出。
func (c *Comparison) StdOut(title string) {
	_ = c.WriteTable(os.Stdout, title)
}

// WriteTable 輸出前後對照摘要表，以及校準後的分桶表。
func (c *Comparison) WriteTable(w io.Writer, title string) error {
	p := message.NewPrinter(lang)
	rk, raw := c.Raw.fmtBasic()
	_, cal := c.Calibrated.fmtBasic()
	msg := make(map[string]string, len(rk))
	for _, k := range rk {
		if raw[k] == cal[k] {
			msg[k] = raw[k]
			continue
		}
		msg[k] = p.Sprintf("%s -> %s", raw[k], cal[k])
	}
	str := fmtTable(title, rk, msg) + fmtBins(c.Calibrated.Bins)
	_, err := io.WriteString(w, str)
	return err
}

// WriteKV 以兩欄表格輸出 keys 對應的值（依 keys 順序）。
func WriteKV(w io.Writer, title string, keys []string, vals map[string]string) error {
	_, err := io.WriteString(w, fmtTable(title, keys, vals))
	return err
}

// ============================================================
// ** 內部方法 **
// ============================================================

func (r *Report) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	conf := p.Sprintf("%.0f%%", 100*r.Confidence)
	basic := map[string]string{
		"Samples":   p.Sprintf("%d", r.N),
		"Positives": p.Sprintf("%d", r.Positives),
		"Base Rate": p.Sprintf("%.4f", r.BaseRate),
		"Mean Prob": p.Sprintf("%.4f", r.MeanProb),
		"Log Loss":  p.Sprintf("%.5f", r.LogLoss),
		"Asym Loss": p.Sprintf("%.5f", r.AsymLoss),
		"Brier":     p.Sprintf("%.5f", r.Brier),
		"ECE":       p.Sprintf("%.5f", r.ECE),
		"MCE":       p.Sprintf("%.5f", r.MCE),
		"Bin CI":    conf,
	}
	keys := []string{"Samples", "Positives", "Base Rate", "Mean Prob", "Log Loss", "Asym Loss", "Brier", "ECE", "MCE", "Bin CI"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	// 標題比內容寬時撐開值欄
	if tw := runewidth.StringWidth(title); tw > maxKeyLen+maxValLen+1 {
		maxValLen = tw - maxKeyLen - 1
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

// fmtBins 可靠度分桶表，欄寬依內容自動對齊。
func fmtBins(bins []Bin) string {
	p := message.NewPrinter(lang)
	head := []string{"Bin", "Count", "Mean Prob", "Observed", "CI", "Gap"}
	rows := make([][]string, 0, len(bins))
	for _, b := range bins {
		row := []string{
			fmt.Sprintf("[%.2f,%.2f)", b.Lo, b.Hi),
			p.Sprintf("%d", b.Count),
			"-", "-", "-", "-",
		}
		if b.Count > 0 {
			row[2] = p.Sprintf("%.4f", b.MeanProb)
			row[3] = p.Sprintf("%.4f", b.Observed)
			row[4] = p.Sprintf("[%.3f,%.3f]", b.CI.Lo, b.CI.Hi)
			row[5] = p.Sprintf("%.4f", b.Gap())
		}
		rows = append(rows, row)
	}

	width := make([]int, len(head))
	for i, h := range head {
		width[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, c := range row {
			width[i] = max(width[i], runewidth.StringWidth(c))
		}
	}

	var sb strings.Builder
	divider := "+"
	for _, w := range width {
		divider += strings.Repeat("-", w+2) + "+"
	}
	divider += "\n"
	line := func(cells []string) {
		sb.WriteString("|")
		for i, c := range cells {
			sb.WriteString(" " + c + blank(width[i]-runewidth.StringWidth(c)) + " |")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(divider)
	line(head)
	sb.WriteString(divider)
	for _, row := range rows {
		line(row)
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}

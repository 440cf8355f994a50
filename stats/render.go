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
	"encoding/json"
	"io"
	"strings"

	"github.com/zintix-labs/asymcal/errs"
	"gopkg.in/yaml.v3"
)

// Render 把報告（*Report 或 *Comparison）寫到 w。
type Render interface {
	Write(w io.Writer, v any) error
}

// Json渲染
type JsonRender struct{}

func (jr *JsonRender) Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML渲染
type YAMLRender struct{}

func (yr *YAMLRender) Write(w io.Writer, v any) error {
	// 不管欄位，只要是陣列（YAML Sequence），就維持外層預設展開；
	// 只有「最內層的一維陣列」或「本身就是一維陣列」時才輸出成 flow style：[..., ...]
	return forceReadableList(w, v)
}

// Tabler 可以自行輸出成 console 表格的型別（*Report、*Comparison 等）。
type Tabler interface {
	WriteTable(w io.Writer, title string) error
}

// Table渲染（console）
type TableRender struct {
	Title string
}

func (tr *TableRender) Write(w io.Writer, v any) error {
	t, ok := v.(Tabler)
	if !ok {
		return errs.Warnf("table render: unsupported type %T", v)
	}
	return t.WriteTable(w, tr.Title)
}

// RenderByName 依名稱（table / json / yaml）取得 Render。
func RenderByName(name, title string) (Render, error) {
	switch strings.ToLower(name) {
	case "", "table":
		return &TableRender{Title: title}, nil
	case "json":
		return &JsonRender{}, nil
	case "yaml", "yml":
		return &YAMLRender{}, nil
	default:
		return nil, errs.Kindf(errs.KindConfig, "unknown format %q (want table|json|yaml)", name)
	}
}

// YAML 內層方法
func forceReadableList(w io.Writer, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return err
	}

	// 自頂向下調整所有 sequence node 的 style：
	// - 內部沒有 mapping / sequence 的 sequence => flow style: [...]
	// - 其他保持預設 block（展開）
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		scalarOnly := true
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				scalarOnly = false
			}
			styleReadableSequences(c)
		}
		if scalarOnly {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		// Scalar / Alias 等不處理
		return
	}
}

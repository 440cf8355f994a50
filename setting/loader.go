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

package setting

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/asymcal/errs"
	"gopkg.in/yaml.v3"
)

// GetFitSettingByYAML
// 以 Default 為底讀取 YAML 設定（嚴格檢查欄位名稱），再執行 Valid 後回傳。
func GetFitSettingByYAML(data []byte) (*FitSetting, error) {
	fset := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 嚴格檢查：多寫/拼錯欄位就報錯
	if err := dec.Decode(fset); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.WrapKind(err, errs.KindConfig, "failed to unmarshal yaml")
	}
	if err := fset.Valid(); err != nil {
		return nil, errs.Wrap(err, "fit setting invalid")
	}
	return fset, nil
}

// GetFitSettingByJSON
// 以 Default 為底讀取 JSON 設定，再執行 Valid 後回傳。
func GetFitSettingByJSON(data []byte) (*FitSetting, error) {
	fset := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(fset); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.WrapKind(err, errs.KindConfig, "can not unmarshal json")
	}
	if err := fset.Valid(); err != nil {
		return nil, errs.Wrap(err, "fit setting invalid")
	}
	return fset, nil
}

// LoadFitSetting 從 fs.FS 讀取設定檔，依副檔名選擇 YAML 或 JSON。
func LoadFitSetting(fsys fs.FS, name string) (*FitSetting, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.WrapKind(err, errs.KindConfig, "read fit setting")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return GetFitSettingByJSON(raw)
	default:
		return GetFitSettingByYAML(raw)
	}
}

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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 描述錯誤的類別（與嚴重度 ErrLevel 正交）。
// 呼叫端用 errors.Is(err, errs.ErrNotFitted) 之類的 sentinel 判斷類別。
type Kind uint8

const (
	KindNone Kind = iota
	KindInputShape
	KindNotFitted
	KindNumericDomain
	KindConfig
	KindNotFound
)

var kindMap = map[Kind]string{
	KindNone:          "",
	KindInputShape:    "input_shape",
	KindNotFitted:     "not_fitted",
	KindNumericDomain: "numeric_domain",
	KindConfig:        "config",
	KindNotFound:      "not_found",
}

func (k Kind) String() string {
	if str, ok := kindMap[k]; ok {
		return str
	}
	return ""
}

// Sentinels，只用於 errors.Is 比對類別。
var (
	ErrInputShape    = &E{Message: "input shape error", ErrLv: Warn, Kind: KindInputShape}
	ErrNotFitted     = &E{Message: "model not fitted", ErrLv: Warn, Kind: KindNotFitted}
	ErrNumericDomain = &E{Message: "numeric domain error", ErrLv: Fatal, Kind: KindNumericDomain}
	ErrConfig        = &E{Message: "config error", ErrLv: Fatal, Kind: KindConfig}
	ErrNotFound      = &E{Message: "not found", ErrLv: Warn, Kind: KindNotFound}
)

// E 是統一的錯誤型別。
// Message 為經過樣板格式化後的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重度；Kind 表示錯誤類別。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Kind != KindNone {
		base = fmt.Sprintf("errlv=%s kind=%s %s", ErrLv(e.ErrLv), e.Kind, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 讓同類別（Kind）的錯誤都能命中對應的 sentinel。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Kind == KindNone {
		return false
	}
	return e.Kind == t.Kind
}

// New 依錯誤碼與參數建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NewKind 建立帶類別的錯誤，嚴重度沿用該類別 sentinel 的預設值。
func NewKind(kind Kind, msg string) *E {
	lv := Warn
	switch kind {
	case KindNumericDomain, KindConfig:
		lv = Fatal
	}
	return &E{Message: msg, ErrLv: lv, Kind: kind}
}

func Kindf(kind Kind, format string, a ...any) *E {
	return NewKind(kind, fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Kind 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Kind（保持原本嚴重度與類別）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
//
// 建議使用方式：
//   - 若你已判斷該錯誤是「可預期且可處理」的情境，請直接建立一個 *E
//     （使用 New / NewKind 並自行指定），而不要對其呼叫 Wrap。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	kind := KindNone
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		kind = e.Kind
	}
	r := New(errLv, msg)
	r.Kind = kind
	r.Cause = cause
	return r
}

// WrapKind 與 Wrap 相同，但明確指定類別（例如把 strconv 錯誤歸類為 InputShape）。
func WrapKind(cause error, kind Kind, msg string) *E {
	r := NewKind(kind, msg)
	r.Cause = cause
	return r
}

// WrapWithExtra 使用給定的訊息與上下文包裝底層錯誤，規則同 Wrap。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// KindOf 回傳錯誤鏈上第一個帶類別的 *E 的 Kind。
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*E); ok && e.Kind != KindNone {
			return e.Kind
		}
		err = errors.Unwrap(err)
	}
	return KindNone
}

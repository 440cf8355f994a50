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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/asymcal/errs"
)

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（邊界層最小映射、可預期）：
//   - ctx timeout/cancel → 504/408（請求生命週期問題）
//   - 帶 Kind 的錯誤：
//     InputShape → 400, NotFitted → 409, NumericDomain → 422, NotFound → 404, Config → 400
//   - 其他 errs.Warn  → 400（請求/參數問題）
//   - 其他 errs.Fatal → 500（系統/不可恢復問題）
//
// 本函數屬於 HTTP 邊界層，因此放在 server/*，核心 errs 不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout // 504
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout // 408
	}

	switch errs.KindOf(err) {
	case errs.KindInputShape, errs.KindConfig:
		return http.StatusBadRequest
	case errs.KindNotFitted:
		return http.StatusConflict
	case errs.KindNumericDomain:
		return http.StatusUnprocessableEntity
	case errs.KindNotFound:
		return http.StatusNotFound
	}

	var e *errs.E
	if errors.As(err, &e) && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Body 錯誤回應的 JSON 結構。
type Body struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Errs 寫回 JSON 錯誤。5xx 只回傳狀態文字，不洩漏內部訊息。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := Body{Error: err.Error(), Kind: errs.KindOf(err).String()}
	if status >= 500 {
		body.Error = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Log 依 status 決定等級：408/409/429 → Warn，5xx → Error，其他不記錄。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	if (status == 408) || (status == 409) || (status == 429) {
		log.Warn(msg, slog.Any("err", err))
	} else if (status >= 500) && (status < 600) {
		log.Error(msg, slog.Any("err", err))
	}
}

// Write = Log + Errs
func Write(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	Log(log, msg, err)
	Errs(w, err)
}

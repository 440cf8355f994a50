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

// Package v1 實作 /v1 的校準 API。
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/optimizer"
	"github.com/zintix-labs/asymcal/server/httperr"
	"github.com/zintix-labs/asymcal/server/metrics"
	"github.com/zintix-labs/asymcal/server/registry"
	"github.com/zintix-labs/asymcal/server/svrcfg"
	"github.com/zintix-labs/asymcal/setting"
)

// ============================================================
// ** CalHandler **
// ============================================================

// CalHandler 持有 /v1 各 handler 共用的依賴。
type CalHandler struct {
	reg     *registry.Registry
	met     *metrics.Metrics
	log     *slog.Logger
	maxRows int

	maxBootstrap int
	maxWorkers   int
}

func NewCalHandler(sCfg *svrcfg.SvrCfg, reg *registry.Registry, met *metrics.Metrics) (*CalHandler, error) {
	if sCfg == nil || reg == nil || met == nil {
		return nil, errs.NewFatal("calibration handler: config, registry and metrics are required")
	}
	return &CalHandler{
		reg:     reg,
		met:     met,
		log:     sCfg.Log,
		maxRows: sCfg.MaxRows,

		maxBootstrap: sCfg.MaxBootstrap,
		maxWorkers:   sCfg.MaxWorkers,
	}, nil
}

// decode 嚴格解析 JSON body（不允許未知欄位）。
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.WrapKind(err, errs.KindInputShape, "request body too large")
		}
		return errs.WrapKind(err, errs.KindInputShape, "malformed json body")
	}
	return nil
}

// reply 以 JSON 回應 200。
func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// header 已送出，只能中斷
		panic(http.ErrAbortHandler)
	}
}

func (h *CalHandler) fail(w http.ResponseWriter, msg string, err error) {
	httperr.Write(w, h.log, msg, err)
}

func (h *CalHandler) checkRows(n int) error {
	if n > h.maxRows {
		return errs.Kindf(errs.KindInputShape, "too many rows: %d > %d", n, h.maxRows)
	}
	return nil
}

// checkLabels 伺服器端在擬合前先檢查 label，避免白跑最佳化。
func checkLabels(labels []float64) error {
	for i, y := range labels {
		if y != 0 && y != 1 {
			return errs.Kindf(errs.KindInputShape, "label[%d]=%v must be 0 or 1", i, y)
		}
	}
	return nil
}

// checkWork 限制客戶端可要求的計算量：bootstrap 輪數、worker 數與最佳化上限。
func (h *CalHandler) checkWork(fs *setting.FitSetting, rounds int) error {
	if rounds < 0 || rounds > h.maxBootstrap {
		return errs.Kindf(errs.KindInputShape, "bootstrap rounds must be in [0, %d], got %d", h.maxBootstrap, rounds)
	}
	if fs.Bootstrap.Workers > h.maxWorkers {
		return errs.Kindf(errs.KindInputShape, "bootstrap workers must be <= %d, got %d", h.maxWorkers, fs.Bootstrap.Workers)
	}
	limit := optimizer.DefaultSettings()
	if fs.Optimizer.MaxIterations > limit.MaxIterations || fs.Optimizer.MaxFuncEvals > limit.MaxFuncEvals ||
		fs.Optimizer.Memory > limit.Memory {
		return errs.Kindf(errs.KindInputShape,
			"optimizer caps must not exceed max_iterations=%d max_func_evals=%d memory=%d",
			limit.MaxIterations, limit.MaxFuncEvals, limit.Memory)
	}
	return nil
}

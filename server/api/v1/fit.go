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

package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/resample"
	"github.com/zintix-labs/asymcal/setting"
	"github.com/zintix-labs/asymcal/stats"
)

const bootstrapTimeout = 60 * time.Second

// FitRequest POST /v1/fit
//
// Setting 為 setting.FitSetting 的 JSON（只需寫要覆蓋的欄位）。
// Bootstrap > 0 時額外估計參數的 bootstrap 區間。
type FitRequest struct {
	Probs     []float64       `json:"probs"`
	Labels    []float64       `json:"labels"`
	Setting   json.RawMessage `json:"setting,omitempty"`
	Bootstrap int             `json:"bootstrap,omitempty"`
}

type FitResponse struct {
	ID        string             `json:"id"`
	Params    asymcal.Params     `json:"params"`
	Summary   asymcal.FitSummary `json:"summary"`
	Report    *stats.Comparison  `json:"report"`
	Bootstrap *resample.Result   `json:"bootstrap,omitempty"`
}

func (h *CalHandler) Fit(w http.ResponseWriter, r *http.Request) {
	req := new(FitRequest)
	if err := decode(r, req); err != nil {
		h.fail(w, "fit: decode", err)
		return
	}
	if err := h.checkRows(len(req.Probs)); err != nil {
		h.fail(w, "fit: rows", err)
		return
	}
	fs := setting.Default()
	if len(req.Setting) > 0 {
		var err error
		if fs, err = setting.GetFitSettingByJSON(req.Setting); err != nil {
			h.fail(w, "fit: setting", err)
			return
		}
	}

	if err := h.checkWork(fs, req.Bootstrap); err != nil {
		h.fail(w, "fit: limits", err)
		return
	}
	if err := checkLabels(req.Labels); err != nil {
		h.fail(w, "fit: labels", err)
		return
	}

	cal, err := asymcal.New(asymcal.WithSetting(fs), asymcal.WithLogger(h.log))
	if err != nil {
		h.fail(w, "fit: new calibrator", err)
		return
	}
	if _, err := cal.Fit(req.Probs, req.Labels); err != nil {
		h.met.ObserveFit(len(req.Probs), 0, false, err)
		h.fail(w, "fit", err)
		return
	}
	sum := cal.Summary()
	h.met.ObserveFit(sum.N, sum.Runtime, sum.Converged, nil)

	calibrated, err := cal.PredictProba(req.Probs)
	if err != nil {
		h.fail(w, "fit: predict", err)
		return
	}
	report, err := stats.Compare(req.Probs, calibrated, req.Labels, fs.Report.Bins)
	if err != nil {
		h.fail(w, "fit: report", err)
		return
	}

	resp := &FitResponse{Summary: sum, Report: report}
	resp.Params, _ = cal.Params()

	if req.Bootstrap > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), bootstrapTimeout)
		defer cancel()
		opt := resample.OptionsFrom(fs)
		opt.Rounds = req.Bootstrap
		opt.Logger = h.log
		bs, err := resample.Bootstrap(ctx, req.Probs, req.Labels, opt)
		if err != nil {
			h.fail(w, "fit: bootstrap", err)
			return
		}
		resp.Bootstrap = bs
	}

	id, err := h.reg.Put(cal)
	if err != nil {
		h.fail(w, "fit: store", err)
		return
	}
	h.met.Models.Set(float64(h.reg.Len()))
	resp.ID = id
	reply(w, resp)
}

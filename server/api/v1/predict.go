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
	"net/http"

	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/stats"
)

// PredictRequest POST /v1/predict
//
// ID 與 Params 擇一：ID 使用已擬合的模型，Params 直接以給定參數校準。
type PredictRequest struct {
	ID     string          `json:"id,omitempty"`
	Params *asymcal.Params `json:"params,omitempty"`
	Probs  []float64       `json:"probs"`
}

type PredictResponse struct {
	ID    string    `json:"id,omitempty"`
	Probs []float64 `json:"probs"`
}

func (h *CalHandler) Predict(w http.ResponseWriter, r *http.Request) {
	req := new(PredictRequest)
	if err := decode(r, req); err != nil {
		h.fail(w, "predict: decode", err)
		return
	}
	if err := h.checkRows(len(req.Probs)); err != nil {
		h.fail(w, "predict: rows", err)
		return
	}

	var (
		out    []float64
		err    error
		source string
	)
	switch {
	case req.ID != "" && req.Params != nil:
		err = errs.NewKind(errs.KindInputShape, "predict: give either id or params, not both")
	case req.ID != "":
		source = "model"
		out, err = h.predictByID(req.ID, req.Probs)
	case req.Params != nil:
		source = "inline"
		out, err = predictInline(*req.Params, req.Probs)
	default:
		// 沒有參數可用，等同未擬合
		err = errs.NewKind(errs.KindNotFitted, "predict: id or params required")
	}
	if source != "" {
		h.met.ObservePredict(source, len(req.Probs), err)
	}
	if err != nil {
		h.fail(w, "predict", err)
		return
	}
	reply(w, &PredictResponse{ID: req.ID, Probs: out})
}

func (h *CalHandler) predictByID(id string, probs []float64) ([]float64, error) {
	e, err := h.reg.Get(id)
	if err != nil {
		return nil, err
	}
	return e.Predict(probs)
}

func predictInline(p asymcal.Params, probs []float64) ([]float64, error) {
	cal, err := asymcal.NewFitted(p)
	if err != nil {
		return nil, err
	}
	return cal.PredictProba(probs)
}

// EvaluateRequest POST /v1/evaluate
type EvaluateRequest struct {
	Probs  []float64 `json:"probs"`
	Labels []float64 `json:"labels"`
	Bins   int       `json:"bins,omitempty"`
}

func (h *CalHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	req := new(EvaluateRequest)
	if err := decode(r, req); err != nil {
		h.fail(w, "evaluate: decode", err)
		return
	}
	if err := h.checkRows(len(req.Probs)); err != nil {
		h.fail(w, "evaluate: rows", err)
		return
	}
	if req.Bins == 0 {
		req.Bins = 10
	}
	rep, err := stats.Evaluate(req.Probs, req.Labels, req.Bins)
	if err != nil {
		h.fail(w, "evaluate", err)
		return
	}
	reply(w, rep)
}

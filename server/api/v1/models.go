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

	"github.com/zintix-labs/asymcal/server/netsvr"
	"github.com/zintix-labs/asymcal/server/registry"
)

type ModelList struct {
	Models []registry.Info `json:"models"`
}

// ListModels GET /v1/models
func (h *CalHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	reply(w, &ModelList{Models: h.reg.List()})
}

// GetModel GET /v1/models/{id}
func (h *CalHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	e, err := h.reg.Get(netsvr.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get model", err)
		return
	}
	reply(w, e.Info())
}

// DeleteModel DELETE /v1/models/{id}
func (h *CalHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.reg.Delete(netsvr.URLParam(r, "id")); err != nil {
		h.fail(w, "delete model", err)
		return
	}
	h.met.Models.Set(float64(h.reg.Len()))
	w.WriteHeader(http.StatusNoContent)
}

// RefitRequest POST /v1/models/{id}/fit
type RefitRequest struct {
	Probs  []float64 `json:"probs"`
	Labels []float64 `json:"labels"`
}

// RefitModel 以新資料重新擬合既有模型（沿用其設定）；失敗時保留原參數。
func (h *CalHandler) RefitModel(w http.ResponseWriter, r *http.Request) {
	req := new(RefitRequest)
	if err := decode(r, req); err != nil {
		h.fail(w, "refit: decode", err)
		return
	}
	if err := h.checkRows(len(req.Probs)); err != nil {
		h.fail(w, "refit: rows", err)
		return
	}
	if err := checkLabels(req.Labels); err != nil {
		h.fail(w, "refit: labels", err)
		return
	}
	e, err := h.reg.Get(netsvr.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "refit: get model", err)
		return
	}
	info, err := e.Refit(req.Probs, req.Labels)
	h.met.ObserveFit(len(req.Probs), info.Summary.Runtime, info.Summary.Converged, err)
	if err != nil {
		h.fail(w, "refit", err)
		return
	}
	reply(w, info)
}

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

package api

import (
	"encoding/json"
	"net/http"
	"time"

	v1 "github.com/zintix-labs/asymcal/server/api/v1"
	"github.com/zintix-labs/asymcal/server/metrics"
	"github.com/zintix-labs/asymcal/server/netsvr"
	"github.com/zintix-labs/asymcal/server/netsvr/middleware"
	"github.com/zintix-labs/asymcal/server/registry"
	"github.com/zintix-labs/asymcal/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與所有路由。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, reg *registry.Registry, met *metrics.Metrics) error {
	registerMiddleware(svr, sCfg) // 1. 註冊 middleware
	registerHealth(svr, reg)      // 2. 健康檢查
	svr.Mount("/metrics", met.Handler())
	return registerV1API(svr, sCfg, reg, met) // 3. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.MaxBody(sCfg.MaxBody))
	svr.Use(middleware.Compression)
}

type health struct {
	Status string `json:"status"`
	Models int    `json:"models"`
	Uptime string `json:"uptime"`
}

func registerHealth(svr netsvr.NetRouter, reg *registry.Registry) {
	start := time.Now()
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(health{
			Status: "ok",
			Models: reg.Len(),
			Uptime: time.Since(start).Round(time.Second).String(),
		})
	})
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, reg *registry.Registry, met *metrics.Metrics) error {
	h, err := v1.NewCalHandler(sCfg, reg, met)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Post("/fit", h.Fit)
		vOne.Post("/predict", h.Predict)
		vOne.Post("/evaluate", h.Evaluate)

		vOne.Get("/models", h.ListModels)
		vOne.Get("/models/{id}", h.GetModel)
		vOne.Delete("/models/{id}", h.DeleteModel)
		vOne.Post("/models/{id}/fit", h.RefitModel)
	})
	return nil
}

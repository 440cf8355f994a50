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

// Package server 組裝校準 HTTP 服務：chi server、middleware、模型 registry 與 Prometheus 指標。
package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/server/api"
	"github.com/zintix-labs/asymcal/server/app"
	"github.com/zintix-labs/asymcal/server/logger"
	"github.com/zintix-labs/asymcal/server/metrics"
	"github.com/zintix-labs/asymcal/server/netsvr"
	"github.com/zintix-labs/asymcal/server/registry"
	"github.com/zintix-labs/asymcal/server/svrcfg"
)

// Build 驗證設定並建立已註冊好路由的 server（尚未開始監聽）。
func Build(sCfg *svrcfg.SvrCfg) (*netsvr.ChiAdapter, error) {
	if sCfg == nil {
		return nil, errs.NewFatal("server config is required")
	}
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	svr := netsvr.NewChiServer(sCfg.Addr)
	if err := RegisterWith(svr, sCfg); err != nil {
		return nil, err
	}
	return svr, nil
}

// RegisterWith 把 API 掛到任意 NetRouter（例如既有服務的子路由）。
func RegisterWith(r netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	met := metrics.New()
	reg := registry.New(sCfg.ModelTTL)
	reg.OnEvicted(func(id string) {
		met.Models.Set(float64(reg.Len()))
		sCfg.Log.Debug("model evicted", slog.String("id", id))
	})
	return api.RegisterRoutes(r, sCfg, reg, met)
}

// Run 組裝並啟動服務，阻塞直到收到 SIGINT/SIGTERM 或 server 發生錯誤。
//
// 組裝失敗時除了回傳錯誤，也會輸出到 stderr，避免 logger 不可用時看不到原因。
func Run(sCfg *svrcfg.SvrCfg) error {
	svr, err := Build(sCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.Close(sCfg.Log)

	a := app.NewWith(svr)
	a.Log = sCfg.Log
	sCfg.Log.Info("[asymcal] listening on http://localhost" + svr.Address())
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	sCfg.Log.Info("[asymcal] stopped")
	return nil
}

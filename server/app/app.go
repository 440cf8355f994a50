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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component，並在收到 OS 信號、ctx 結束或任一 Component 返回時協調優雅關閉。
type App struct {
	comps []Component

	// ShutdownTimeout 關閉所有 Component 的總時限，0 代表 5 秒。
	ShutdownTimeout time.Duration
	// Log 記錄關閉錯誤；nil 時不記錄。
	Log *slog.Logger
}

// New 建立一個新的 App 實例。
func New() *App { return &App{} }

// NewWith 是 New 的語法糖，允許在建立時直接註冊多個 Component。
func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

// Register 將一個 Component 註冊到 App 中，該 Component 將在 Run 時被管理。
func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// Run 等同 RunContext(context.Background())，並監聽 SIGINT/SIGTERM。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 以 goroutine 啟動所有 Component（Run 應為阻塞呼叫），阻塞直到：
//   - ctx 結束：優雅關閉後回傳 nil
//   - 任一 Component 返回：優雅關閉後回傳其錯誤（可能為 nil）
//
// 關閉時的錯誤會與上述錯誤合併回傳。
func (a *App) RunContext(ctx context.Context) error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	return errors.Join(runErr, a.gracefulShutdown())
}

// gracefulShutdown 在時限內依序呼叫所有 Component.Shutdown。
func (a *App) gracefulShutdown() error {
	td := a.ShutdownTimeout
	if td <= 0 {
		td = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), td)
	defer cancel()

	var all []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			if a.Log != nil {
				a.Log.Warn("shutdown", slog.Any("err", err))
			}
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}

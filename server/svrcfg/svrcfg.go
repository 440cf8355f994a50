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

// Package svrcfg 定義 HTTP 服務的執行期設定，可由環境變數載入。
package svrcfg

import (
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/server/logger"
)

const (
	DefaultAddr     string        = ":5808"
	DefaultModelTTL time.Duration = 30 * time.Minute
	DefaultMaxBody  int64         = 8 << 20
	DefaultMaxRows  int           = 1_000_000

	// DefaultMaxBootstrap 單一 /v1/fit 請求可要求的 bootstrap 輪數上限
	DefaultMaxBootstrap int = 1000
)

type SvrCfg struct {
	Log *slog.Logger
	// Addr 監聽位址
	Addr string
	// ModelTTL 已擬合模型在記憶體中保留的時間（每次存取會延長）
	ModelTTL time.Duration
	// MaxBody 單一請求 body 上限（bytes）
	MaxBody int64
	// MaxRows 單一請求的樣本數上限
	MaxRows int
	// MaxBootstrap 單一請求的 bootstrap 輪數上限
	MaxBootstrap int
	// MaxWorkers 單一請求的 bootstrap worker 上限，0 代表 GOMAXPROCS
	MaxWorkers int
}

// Env 對應的環境變數；未設定的欄位保留預設值。
type Env struct {
	Addr     string        `env:"ASYMCAL_ADDR"`
	LogMode  string        `env:"ASYMCAL_LOG_MODE"`
	ModelTTL time.Duration `env:"ASYMCAL_MODEL_TTL"`
	MaxBody  int64         `env:"ASYMCAL_MAX_BODY"`
	MaxRows  int           `env:"ASYMCAL_MAX_ROWS"`

	MaxBootstrap int `env:"ASYMCAL_MAX_BOOTSTRAP"`
	MaxWorkers   int `env:"ASYMCAL_MAX_WORKERS"`
}

// DefaultEnv 回傳預設值。
func DefaultEnv() Env {
	return Env{
		Addr:     DefaultAddr,
		LogMode:  "dev",
		ModelTTL: DefaultModelTTL,
		MaxBody:  DefaultMaxBody,
		MaxRows:  DefaultMaxRows,

		MaxBootstrap: DefaultMaxBootstrap,
	}
}

// LoadEnv 以 DefaultEnv 為底讀取環境變數。
func LoadEnv() (Env, error) {
	env := DefaultEnv()
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return env, errs.WrapKind(err, errs.KindConfig, "decode server env")
	}
	return env, nil
}

// FromEnv 由 Env 組出 SvrCfg（含非同步 logger）。
func FromEnv(env Env) (*SvrCfg, error) {
	mode, err := logger.ParseMode(env.LogMode)
	if err != nil {
		return nil, err
	}
	sc := &SvrCfg{
		Log:      logger.NewDefaultAsyncLogger(mode),
		Addr:     env.Addr,
		ModelTTL: env.ModelTTL,
		MaxBody:  env.MaxBody,
		MaxRows:  env.MaxRows,

		MaxBootstrap: env.MaxBootstrap,
		MaxWorkers:   env.MaxWorkers,
	}
	if err := sc.Valid(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Valid 補齊預設值並檢查範圍。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if !strings.Contains(sc.Addr, ":") {
		return errs.Kindf(errs.KindConfig, "addr %q must contain a port", sc.Addr)
	}
	if sc.ModelTTL == 0 {
		sc.ModelTTL = DefaultModelTTL
	}
	if sc.ModelTTL < time.Second {
		return errs.Kindf(errs.KindConfig, "model ttl must be >= 1s, got %v", sc.ModelTTL)
	}
	if sc.MaxBody == 0 {
		sc.MaxBody = DefaultMaxBody
	}
	if sc.MaxBody < 1024 {
		return errs.Kindf(errs.KindConfig, "max body must be >= 1024 bytes, got %d", sc.MaxBody)
	}
	if sc.MaxRows == 0 {
		sc.MaxRows = DefaultMaxRows
	}
	if sc.MaxRows < 1 {
		return errs.Kindf(errs.KindConfig, "max rows must be >= 1, got %d", sc.MaxRows)
	}
	if sc.MaxBootstrap == 0 {
		sc.MaxBootstrap = DefaultMaxBootstrap
	}
	if sc.MaxBootstrap < 2 {
		return errs.Kindf(errs.KindConfig, "max bootstrap must be >= 2, got %d", sc.MaxBootstrap)
	}
	if sc.MaxWorkers == 0 {
		sc.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	if sc.MaxWorkers < 1 {
		return errs.Kindf(errs.KindConfig, "max workers must be >= 1, got %d", sc.MaxWorkers)
	}
	return nil
}

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

// Package registry 以 go-cache 在記憶體中保存已擬合的校準器，逾時自動淘汰。
//
// 這只是服務期間的暫存，不是模型的持久化格式。
package registry

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/errs"
)

// Entry 一個已擬合的模型。mu 序列化同一個校準器上的 Fit / PredictProba。
type Entry struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	cal       *asymcal.Calibrator
	updatedAt time.Time
}

// Info 對外可見的模型描述。
type Info struct {
	ID        string             `json:"id"         yaml:"id"`
	Params    asymcal.Params     `json:"params"     yaml:"params"`
	Summary   asymcal.FitSummary `json:"summary"    yaml:"summary"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" yaml:"updated_at"`
}

func (e *Entry) Info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, _ := e.cal.Params()
	return Info{
		ID:        e.ID,
		Params:    p,
		Summary:   e.cal.Summary(),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.updatedAt,
	}
}

// Predict 以此模型校準 probs。
func (e *Entry) Predict(probs []float64) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cal.PredictProba(probs)
}

// Refit 在同一個校準器上重新擬合；失敗時保留原參數。
func (e *Entry) Refit(probs, labels []float64) (Info, error) {
	e.mu.Lock()
	if _, err := e.cal.Fit(probs, labels); err != nil {
		e.mu.Unlock()
		return Info{}, err
	}
	e.updatedAt = time.Now()
	e.mu.Unlock()
	return e.Info(), nil
}

// Registry 模型表。
type Registry struct {
	c   *cache.Cache
	ttl time.Duration
}

// New ttl 為每個模型的存活時間，每次 Get 會重新計時。
func New(ttl time.Duration) *Registry {
	return &Registry{
		c:   cache.New(ttl, max(ttl/2, time.Second)),
		ttl: ttl,
	}
}

// OnEvicted 註冊淘汰（逾時或刪除）回呼。
func (r *Registry) OnEvicted(fn func(id string)) {
	r.c.OnEvicted(func(k string, _ any) { fn(k) })
}

// Put 保存已擬合的校準器並回傳新的 ID。
func (r *Registry) Put(cal *asymcal.Calibrator) (string, error) {
	if cal == nil || !cal.Fitted() {
		return "", errs.NewKind(errs.KindNotFitted, "registry: only fitted calibrators can be stored")
	}
	now := time.Now()
	e := &Entry{
		ID:        uuid.NewString(),
		CreatedAt: now,
		cal:       cal,
		updatedAt: now,
	}
	r.c.Set(e.ID, e, cache.DefaultExpiration)
	return e.ID, nil
}

// Get 取得模型並延長其存活時間。
func (r *Registry) Get(id string) (*Entry, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if _, err := uuid.Parse(id); err != nil {
		return nil, errs.WrapKind(err, errs.KindInputShape, "registry: malformed model id")
	}
	v, ok := r.c.Get(id)
	if !ok {
		return nil, errs.Kindf(errs.KindNotFound, "registry: model %s not found", id)
	}
	e := v.(*Entry)
	r.c.Set(id, e, cache.DefaultExpiration)
	return e, nil
}

// Delete 刪除模型；不存在時回傳 NotFound。
func (r *Registry) Delete(id string) error {
	id = strings.ToLower(strings.TrimSpace(id))
	if _, ok := r.c.Get(id); !ok {
		return errs.Kindf(errs.KindNotFound, "registry: model %s not found", id)
	}
	r.c.Delete(id)
	return nil
}

// List 依建立時間排序的模型列表（不延長存活時間）。
func (r *Registry) List() []Info {
	items := r.c.Items()
	out := make([]Info, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(*Entry).Info())
	}
	slices.SortFunc(out, func(a, b Info) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len 目前模型數（可能包含尚未被清掃的過期項目）。
func (r *Registry) Len() int { return r.c.ItemCount() }

// TTL
func (r *Registry) TTL() time.Duration { return r.ttl }

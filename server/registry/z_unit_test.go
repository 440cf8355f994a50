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

package registry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/zintix-labs/asymcal"
	"github.com/zintix-labs/asymcal/errs"
	"github.com/zintix-labs/asymcal/server/registry"
)

func fitted(t *testing.T) *asymcal.Calibrator {
	t.Helper()
	cal, err := asymcal.NewFitted(asymcal.Params{A: 0.1, B: 1.2, C: -0.8})
	if err != nil {
		t.Fatalf("new fitted: %v", err)
	}
	return cal
}

func TestPutGetDelete(t *testing.T) {
	r := registry.New(time.Minute)
	id, err := r.Put(fitted(t))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	e, err := r.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if info := e.Info(); info.ID != id || info.Params.B != 1.2 {
		t.Fatalf("info got %+v", info)
	}
	out, err := e.Predict([]float64{0.3, 0.7})
	if err != nil || len(out) != 2 {
		t.Fatalf("predict got %v %v", out, err)
	}
	if r.Len() != 1 || len(r.List()) != 1 {
		t.Fatalf("len got %d", r.Len())
	}
	if err := r.Delete(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.Get(id); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get after delete: expected not found, got %v", err)
	}
	if err := r.Delete(id); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestPutRejectsUnfitted(t *testing.T) {
	r := registry.New(time.Minute)
	cal, err := asymcal.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := r.Put(cal); !errors.Is(err, errs.ErrNotFitted) {
		t.Fatalf("expected not fitted, got %v", err)
	}
	if _, err := r.Put(nil); !errors.Is(err, errs.ErrNotFitted) {
		t.Fatalf("nil: expected not fitted, got %v", err)
	}
}

func TestGetMalformedID(t *testing.T) {
	r := registry.New(time.Minute)
	if _, err := r.Get("not-a-uuid"); !errors.Is(err, errs.ErrInputShape) {
		t.Fatalf("expected input shape error, got %v", err)
	}
}

func TestRefitKeepsIDOnFailure(t *testing.T) {
	r := registry.New(time.Minute)
	id, _ := r.Put(fitted(t))
	e, _ := r.Get(id)
	before := e.Info()
	if _, err := e.Refit([]float64{0.5}, nil); !errors.Is(err, errs.ErrInputShape) {
		t.Fatalf("expected input shape error, got %v", err)
	}
	if after := e.Info(); after.Params != before.Params || after.UpdatedAt != before.UpdatedAt {
		t.Fatalf("failed refit changed the model: %+v -> %+v", before, after)
	}
}

func TestListSortedByCreation(t *testing.T) {
	r := registry.New(time.Minute)
	first, _ := r.Put(fitted(t))
	time.Sleep(2 * time.Millisecond)
	second, _ := r.Put(fitted(t))
	list := r.List()
	if len(list) != 2 || list[0].ID != first || list[1].ID != second {
		t.Fatalf("list order got %+v", list)
	}
}

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

package errs_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zintix-labs/asymcal/errs"
)

func TestKindSentinels(t *testing.T) {
	err := errs.NewKind(errs.KindInputShape, "length mismatch: probs=2 labels=1")
	if !errors.Is(err, errs.ErrInputShape) {
		t.Fatalf("expected ErrInputShape match")
	}
	if errors.Is(err, errs.ErrNotFitted) {
		t.Fatalf("unexpected ErrNotFitted match")
	}
	if err.ErrLv != errs.Warn {
		t.Fatalf("errlv got %v want warn", err.ErrLv)
	}
	if !strings.Contains(err.Error(), "kind=input_shape") {
		t.Fatalf("message missing kind: %s", err.Error())
	}
}

func TestWrapKeepsKindAndLevel(t *testing.T) {
	base := errs.NewKind(errs.KindNumericDomain, "non-finite parameter")
	wrapped := fmt.Errorf("outer: %w", errs.Wrap(base, "fit failed"))
	if !errors.Is(wrapped, errs.ErrNumericDomain) {
		t.Fatalf("expected ErrNumericDomain through wrap chain")
	}
	if got := errs.KindOf(wrapped); got != errs.KindNumericDomain {
		t.Fatalf("KindOf got %v", got)
	}
	e, ok := errs.AsErr(wrapped)
	if !ok || e.ErrLv != errs.Fatal {
		t.Fatalf("expected fatal *E, got %v %v", e, ok)
	}
}

func TestWrapForeignErrorIsFatal(t *testing.T) {
	e := errs.Wrap(errors.New("boom"), "read failed")
	if e.ErrLv != errs.Fatal {
		t.Fatalf("errlv got %v want fatal", e.ErrLv)
	}
	if errs.KindOf(e) != errs.KindNone {
		t.Fatalf("foreign error should have no kind")
	}
	if errors.Is(e, errs.ErrConfig) {
		t.Fatalf("kindless error must not match a sentinel")
	}
}

func TestWrapKind(t *testing.T) {
	e := errs.WrapKind(errors.New("strconv: bad"), errs.KindInputShape, "line 3")
	if !errors.Is(e, errs.ErrInputShape) {
		t.Fatalf("expected input shape")
	}
	if !strings.Contains(e.Error(), "cause: strconv: bad") {
		t.Fatalf("cause missing: %s", e.Error())
	}
}

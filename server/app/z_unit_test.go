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

package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zintix-labs/asymcal/server/app"
)

type fakeComp struct {
	runErr   error
	stop     chan struct{}
	shutdown atomic.Int32
}

func newFake(runErr error) *fakeComp { return &fakeComp{runErr: runErr, stop: make(chan struct{})} }

func (f *fakeComp) Run() error {
	if f.runErr != nil {
		return f.runErr
	}
	<-f.stop
	return nil
}

func (f *fakeComp) Shutdown(ctx context.Context) error {
	if f.shutdown.Add(1) == 1 {
		close(f.stop)
	}
	return nil
}

func TestRunContextStopsOnCancel(t *testing.T) {
	a, b := newFake(nil), newFake(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.NewWith(a, b).RunContext(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("app did not stop")
	}
	if a.shutdown.Load() != 1 || b.shutdown.Load() != 1 {
		t.Fatalf("shutdown calls a=%d b=%d", a.shutdown.Load(), b.shutdown.Load())
	}
}

func TestRunContextReturnsComponentError(t *testing.T) {
	boom := errors.New("listen failed")
	ok := newFake(nil)
	err := app.NewWith(ok, newFake(boom)).RunContext(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected component error, got %v", err)
	}
	if ok.shutdown.Load() != 1 {
		t.Fatalf("healthy component was not shut down")
	}
}

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

package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/asymcal/server/httperr"
	"github.com/zintix-labs/asymcal/server/netsvr/middleware"
)

var payload = strings.Repeat(`{"probs":[0.1,0.2,0.3]}`, 64)

func serveBody(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, payload)
}

func TestCompressionZstdAndGzip(t *testing.T) {
	h := middleware.Compression(http.HandlerFunc(serveBody))

	for _, enc := range []string{"zstd", "gzip"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
		req.Header.Set("Accept-Encoding", enc)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Content-Encoding"); got != enc {
			t.Fatalf("%s: content-encoding got %q", enc, got)
		}
		var rd io.Reader
		switch enc {
		case "zstd":
			zr, err := zstd.NewReader(rec.Body)
			if err != nil {
				t.Fatalf("zstd reader: %v", err)
			}
			defer zr.Close()
			rd = zr
		case "gzip":
			gr, err := gzip.NewReader(rec.Body)
			if err != nil {
				t.Fatalf("gzip reader: %v", err)
			}
			rd = gr
		}
		raw, err := io.ReadAll(rd)
		if err != nil || string(raw) != payload {
			t.Fatalf("%s: round trip failed (%v)", enc, err)
		}
	}
}

func TestCompressionSkipsMetrics(t *testing.T) {
	h := middleware.Compression(http.HandlerFunc(serveBody))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != payload {
		t.Fatalf("/metrics should pass through uncompressed")
	}
}

func TestRecoverWritesJSON500(t *testing.T) {
	h := middleware.Recover(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status got %d", rec.Code)
	}
	var b httperr.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(b.Error, "boom") {
		t.Fatalf("panic value leaked to client: %q", b.Error)
	}
}

func TestMaxBody(t *testing.T) {
	h := middleware.MaxBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status got %d", rec.Code)
	}
}

func TestAccessLogRoutePattern(t *testing.T) {
	buf := new(bytes.Buffer)
	log := slog.New(slog.NewJSONHandler(buf, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))
	r.Get("/v1/models/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models/abc", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log: %v (%s)", err, buf.String())
	}
	if entry["route"] != "/v1/models/{id}" || entry["level"] != "WARN" {
		t.Fatalf("access log got %v", entry)
	}
	if entry["req_id"] == "" || rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id missing")
	}
}

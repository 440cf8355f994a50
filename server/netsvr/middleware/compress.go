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

package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮設定。SkipPrefixes 內的路徑不壓縮（例如自帶 gzip 的 /metrics）。
type CompressConfig struct {
	GzipLevel    int
	ZstdLevel    zstd.EncoderLevel
	SkipPrefixes []string
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel:    gzip.DefaultCompression,
	ZstdLevel:    zstd.SpeedFastest,
	SkipPrefixes: []string{"/metrics"},
}

// compressor 持有一組依設定建立的 writer pool。
type compressor struct {
	cfg      CompressConfig
	gzipPool sync.Pool
	zstdPool sync.Pool
}

func (c *compressor) getZstd(w io.Writer) (*zstd.Encoder, error) {
	if v := c.zstdPool.Get(); v != nil {
		zw := v.(*zstd.Encoder)
		zw.Reset(w)
		return zw, nil
	}
	return zstd.NewWriter(w,
		zstd.WithEncoderLevel(c.cfg.ZstdLevel),
		zstd.WithEncoderConcurrency(1),
	)
}

func (c *compressor) putZstd(zw *zstd.Encoder) {
	_ = zw.Close()
	c.zstdPool.Put(zw)
}

func (c *compressor) getGzip(w io.Writer) *gzip.Writer {
	if v := c.gzipPool.Get(); v != nil {
		gw := v.(*gzip.Writer)
		gw.Reset(w)
		return gw
	}
	gw, err := gzip.NewWriterLevel(w, c.cfg.GzipLevel)
	if err != nil {
		gw = gzip.NewWriter(w)
	}
	return gw
}

func (c *compressor) putGzip(gw *gzip.Writer) {
	_ = gw.Close()
	c.gzipPool.Put(gw)
}

func (c *compressor) skip(r *http.Request) bool {
	if r.Method == http.MethodHead || isWebSocketUpgrade(r) {
		return true
	}
	for _, p := range c.cfg.SkipPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			return true
		}
	}
	return false
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

// 204 No Content, 304 Not Modified, 1xx Informational
func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// --- ResponseWriter Wrapper ---

type compressResponseWriter struct {
	http.ResponseWriter
	w        io.Writer // gzip.Writer 或 zstd.Encoder
	disabled bool      // 204/304 時動態取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.w.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

// --- Middleware 入口 ---

// Compression 以 DefaultCompressConfig 壓縮回應（zstd 優先，其次 gzip）。
func Compression(next http.Handler) http.Handler {
	return CompressionWith(DefaultCompressConfig)(next)
}

// CompressionWith 依設定建立壓縮 middleware。
func CompressionWith(cfg CompressConfig) func(http.Handler) http.Handler {
	c := &compressor{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 避免二次壓縮
			if c.skip(r) || w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}
			encoding := r.Header.Get("Accept-Encoding")

			if strings.Contains(encoding, "zstd") {
				zw, err := c.getZstd(w)
				if err == nil {
					w.Header().Set("Content-Encoding", "zstd")
					w.Header().Add("Vary", "Accept-Encoding")
					cw := &compressResponseWriter{ResponseWriter: w, w: zw}
					// disabled 時把 writer 導向 io.Discard，Close 產生的 footer 才不會污染 204/304
					defer func() {
						if cw.disabled {
							zw.Reset(io.Discard)
						}
						c.putZstd(zw)
					}()
					next.ServeHTTP(cw, r)
					return
				}
			}

			if strings.Contains(encoding, "gzip") {
				gw := c.getGzip(w)
				w.Header().Set("Content-Encoding", "gzip")
				w.Header().Add("Vary", "Accept-Encoding")
				cw := &compressResponseWriter{ResponseWriter: w, w: gw}
				defer func() {
					if cw.disabled {
						gw.Reset(io.Discard)
					}
					c.putGzip(gw)
				}()
				next.ServeHTTP(cw, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

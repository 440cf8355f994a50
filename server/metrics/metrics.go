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

// Package metrics 定義服務的 Prometheus 指標。每個 Metrics 持有自己的 registry，
// 避免多個 server instance（或測試）之間重複註冊。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "asymcal"

type Metrics struct {
	reg *prometheus.Registry

	FitsTotal        *prometheus.CounterVec
	FitDuration      prometheus.Histogram
	FitSamples       prometheus.Histogram
	NotConverged     prometheus.Counter
	PredictsTotal    *prometheus.CounterVec
	PredictedSamples prometheus.Counter
	Models           prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		FitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Total number of fit requests by result",
		}, []string{"result"}),
		FitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Wall time spent in the optimizer per fit",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		FitSamples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_samples",
			Help:      "Number of samples per fit",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),
		NotConverged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fit_not_converged_total",
			Help:      "Fits whose optimizer stopped without reporting convergence",
		}),
		PredictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predicts_total",
			Help:      "Total number of predict requests by source and result",
		}, []string{"source", "result"}),
		PredictedSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predicted_samples_total",
			Help:      "Total number of probabilities calibrated",
		}),
		Models: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "models",
			Help:      "Number of fitted models held in memory",
		}),
	}
	m.reg.MustRegister(
		m.FitsTotal,
		m.FitDuration,
		m.FitSamples,
		m.NotConverged,
		m.PredictsTotal,
		m.PredictedSamples,
		m.Models,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFit 記錄一次擬合。err 非 nil 時只記錄失敗次數。
func (m *Metrics) ObserveFit(n int, used time.Duration, converged bool, err error) {
	if err != nil {
		m.FitsTotal.WithLabelValues("error").Inc()
		return
	}
	m.FitsTotal.WithLabelValues("ok").Inc()
	m.FitDuration.Observe(used.Seconds())
	m.FitSamples.Observe(float64(n))
	if !converged {
		m.NotConverged.Inc()
	}
}

// ObservePredict source 為 "model" 或 "inline"。
func (m *Metrics) ObservePredict(source string, n int, err error) {
	if err != nil {
		m.PredictsTotal.WithLabelValues(source, "error").Inc()
		return
	}
	m.PredictsTotal.WithLabelValues(source, "ok").Inc()
	m.PredictedSamples.Add(float64(n))
}

// Registry 給測試或外部組裝使用。
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

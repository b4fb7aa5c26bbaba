// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package monitor exports training progress as Prometheus metrics.
package monitor

import (
	"github.com/gorse-io/mfkit/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelModel  = "model"
	LabelMetric = "metric"
)

type Metrics struct {
	EpochsTotal    *prometheus.CounterVec
	Loss           *prometheus.GaugeVec
	ValidationLoss *prometheus.GaugeVec
	Score          *prometheus.GaugeVec
	FitSeconds     *prometheus.HistogramVec
	EvalSeconds    *prometheus.HistogramVec
}

// NewMetrics registers the training metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EpochsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfkit",
			Subsystem: "fit",
			Name:      "epochs_total",
		}, []string{LabelModel}),
		Loss: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mfkit",
			Subsystem: "fit",
			Name:      "loss",
		}, []string{LabelModel}),
		ValidationLoss: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mfkit",
			Subsystem: "fit",
			Name:      "validation_loss",
		}, []string{LabelModel}),
		Score: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mfkit",
			Subsystem: "fit",
			Name:      "score",
		}, []string{LabelModel, LabelMetric}),
		FitSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mfkit",
			Subsystem: "fit",
			Name:      "epoch_fit_seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{LabelModel}),
		EvalSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mfkit",
			Subsystem: "fit",
			Name:      "epoch_eval_seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{LabelModel}),
	}
}

// Observer returns an epoch observer that records under the name of a model.
func (m *Metrics) Observer(name string) model.Observer {
	return model.ObserverFunc(func(record model.Record) {
		m.EpochsTotal.WithLabelValues(name).Inc()
		m.Loss.WithLabelValues(name).Set(float64(record.Loss))
		if record.HasValidation {
			m.ValidationLoss.WithLabelValues(name).Set(float64(record.ValidationLoss))
		}
		for metric, value := range record.Metrics {
			m.Score.WithLabelValues(name, metric).Set(float64(value))
		}
		m.FitSeconds.WithLabelValues(name).Observe(record.FitTime.Seconds())
		m.EvalSeconds.WithLabelValues(name).Observe(record.EvalTime.Seconds())
	})
}

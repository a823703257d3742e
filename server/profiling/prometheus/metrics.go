/*
 * Copyright 2025 The DocuLink Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/doculink-team/doculink/internal/version"
)

const (
	namespace         = "doculink"
	versionLabel      = "version"
	docEventTypeLabel = "doc_event_type"
)

// Metrics manages the metric information that DocuLink measures.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	persistsTotal        prometheus.Counter
	persistSeconds       prometheus.Histogram
	docEventsTotal       *prometheus.CounterVec
	versionsCreatedTotal prometheus.Counter
	restoresTotal        prometheus.Counter

	watchConnectionsTotal prometheus.Gauge
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Version of the server.",
		}, []string{versionLabel}),
		persistsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "doc",
			Name:      "persists_total",
			Help:      "The total count of document content persists.",
		}),
		persistSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "doc",
			Name:      "persist_seconds",
			Help:      "The time spent persisting document content.",
		}),
		docEventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "doc",
			Name:      "events_total",
			Help:      "The total count of events published per type.",
		}, []string{docEventTypeLabel}),
		versionsCreatedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "version",
			Name:      "created_total",
			Help:      "The total count of versions created.",
		}),
		restoresTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "version",
			Name:      "restores_total",
			Help:      "The total count of version restores.",
		}),
		watchConnectionsTotal: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "connections_total",
			Help:      "The current count of watch connections.",
		}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		versionLabel: version.Version,
	}).Set(1)

	return metrics, nil
}

// ObservePersist adds a document persist to the metrics.
func (m *Metrics) ObservePersist(seconds float64) {
	m.persistsTotal.Inc()
	m.persistSeconds.Observe(seconds)
}

// AddDocEvent adds a published event of the given type to the metrics.
func (m *Metrics) AddDocEvent(eventType string) {
	m.docEventsTotal.With(prometheus.Labels{
		docEventTypeLabel: eventType,
	}).Inc()
}

// AddVersionCreated adds a created version to the metrics.
func (m *Metrics) AddVersionCreated() {
	m.versionsCreatedTotal.Inc()
}

// AddRestore adds a version restore to the metrics.
func (m *Metrics) AddRestore() {
	m.restoresTotal.Inc()
}

// AddWatchConnection adds a watch connection to the metrics.
func (m *Metrics) AddWatchConnection() {
	m.watchConnectionsTotal.Inc()
}

// RemoveWatchConnection removes a watch connection from the metrics.
func (m *Metrics) RemoveWatchConnection() {
	m.watchConnectionsTotal.Dec()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes Prometheus metrics on a dedicated listener.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/evolibrary/evolibrary/internal/models"
)

// Manager owns the registry: request-level counters incremented by the
// API layer plus gauges collected from the stores on scrape.
type Manager struct {
	registry *prometheus.Registry

	SearchesTotal  *prometheus.CounterVec
	DownloadsTotal prometheus.Counter

	books    *models.BookStore
	counters *models.CounterStore
	log      zerolog.Logger

	booksGauge     *prometheus.Desc
	monitoredGauge *prometheus.Desc
	searchCounter  *prometheus.Desc
	downloadCtr    *prometheus.Desc
}

// NewManager builds the registry and registers all collectors.
func NewManager(books *models.BookStore, counters *models.CounterStore, logger zerolog.Logger) *Manager {
	m := &Manager{
		registry: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evolibrary_search_requests_total",
			Help: "Search requests handled, by backend.",
		}, []string{"backend"}),
		DownloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evolibrary_download_submissions_total",
			Help: "Download submissions handled since process start.",
		}),
		books:    books,
		counters: counters,
		log:      logger.With().Str("component", "metrics").Logger(),
		booksGauge: prometheus.NewDesc(
			"evolibrary_library_books",
			"Books currently in the library.",
			nil, nil,
		),
		monitoredGauge: prometheus.NewDesc(
			"evolibrary_library_monitored_books",
			"Monitored books currently in the library.",
			nil, nil,
		),
		searchCounter: prometheus.NewDesc(
			"evolibrary_persisted_search_count",
			"Persisted lifetime search counter.",
			nil, nil,
		),
		downloadCtr: prometheus.NewDesc(
			"evolibrary_persisted_download_count",
			"Persisted lifetime download counter.",
			nil, nil,
		),
	}

	m.registry.MustRegister(m.SearchesTotal, m.DownloadsTotal, m)
	return m
}

// Registry exposes the registry for the metrics HTTP handler.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Describe implements prometheus.Collector.
func (m *Manager) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.booksGauge
	ch <- m.monitoredGauge
	ch <- m.searchCounter
	ch <- m.downloadCtr
}

// Collect implements prometheus.Collector, reading the stores with a
// scrape-scoped timeout.
func (m *Manager) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if stats, err := m.books.Stats(ctx); err == nil {
		ch <- prometheus.MustNewConstMetric(m.booksGauge, prometheus.GaugeValue, float64(stats.TotalBooks))
		ch <- prometheus.MustNewConstMetric(m.monitoredGauge, prometheus.GaugeValue, float64(stats.MonitoredBooks))
	} else {
		m.log.Warn().Err(err).Msg("failed to collect book stats")
	}

	if searches, err := m.counters.Get(ctx, models.CounterSearches); err == nil {
		ch <- prometheus.MustNewConstMetric(m.searchCounter, prometheus.CounterValue, float64(searches))
	}

	if downloads, err := m.counters.Get(ctx, models.CounterDownloads); err == nil {
		ch <- prometheus.MustNewConstMetric(m.downloadCtr, prometheus.CounterValue, float64(downloads))
	}
}

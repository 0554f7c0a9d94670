// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the EPG source and channel catalog.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Parse modes.
const (
	ModeFiltered = "filtered"
	ModeAdditive = "additive"
)

// Reference operations.
const (
	OpAdd    = "add"
	OpRemove = "remove"
)

var (
	catalogParseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgimport_catalog_parse_total",
		Help: "Channel-mapping documents parsed, by mode",
	}, []string{"mode"}) // mode=filtered|additive

	catalogParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgimport_catalog_parse_errors_total",
		Help: "Channel-mapping parse failures, by reason",
	}, []string{"reason"}) // reason=not_found|empty|open|decode

	catalogRefsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgimport_catalog_refs_total",
		Help: "Service references added to or removed from catalogs",
	}, []string{"op"}) // op=add|remove

	filterFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgimport_filter_fallback_total",
		Help: "Identifier filter compilations that fell back to the empty-only filter, by reason",
	}, []string{"reason"}) // reason=missing|empty|compile

	sourcesEnumerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epgimport_sources_enumerated_total",
		Help: "Source descriptors produced by directory enumeration",
	})

	sourceFileErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epgimport_source_file_errors_total",
		Help: "Source-definition documents that failed to open or parse",
	})

	catalogsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epgimport_catalogs_cached",
		Help: "Channel catalogs currently held in the catalog cache",
	})
)

// RecordCatalogParse counts one parsed document.
func RecordCatalogParse(filtered bool) {
	mode := ModeAdditive
	if filtered {
		mode = ModeFiltered
	}
	catalogParseTotal.WithLabelValues(mode).Inc()
}

// RecordCatalogParseError counts one failed parse.
func RecordCatalogParseError(reason string) {
	catalogParseErrors.WithLabelValues(reason).Inc()
}

// RecordCatalogRefs adds n to the reference operation counter.
func RecordCatalogRefs(op string, n int) {
	if n <= 0 {
		return
	}
	catalogRefsTotal.WithLabelValues(op).Add(float64(n))
}

// RecordFilterFallback counts a filter fallback.
func RecordFilterFallback(reason string) {
	filterFallbackTotal.WithLabelValues(reason).Inc()
}

// IncSourcesEnumerated counts one enumerated source descriptor.
func IncSourcesEnumerated() {
	sourcesEnumerated.Inc()
}

// IncSourceFileErrors counts one source-definition document failure.
func IncSourceFileErrors() {
	sourceFileErrors.Inc()
}

// SetCatalogsCached sets the cache size gauge.
func SetCatalogsCached(n int) {
	catalogsCached.Set(float64(n))
}

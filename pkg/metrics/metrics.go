// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes prometheus counters/histograms for the
// ingestion pipeline, grounded on the teacher's own use of
// prometheus/client_golang (present in its go.mod even though the
// retrieved ingestion sources don't wire it directly — this package is
// where SPEC_FULL.md's domain-stack table commits it to, since the
// pipeline's per-type edge counts and per-file parse latency are exactly
// the kind of thing that dependency exists to expose).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder bundles every counter/histogram the pipeline updates. A nil
// *Recorder is safe to use — every method is a no-op guard.
type Recorder struct {
	reg *prometheus.Registry

	EdgesBuilt      *prometheus.CounterVec
	EdgesSuppressed prometheus.Counter
	ParseDuration   *prometheus.HistogramVec
	BuildDuration   prometheus.Histogram
	TypeCheckerUsed prometheus.Counter
}

// New creates a Recorder registered against its own registry (not the
// global default, so tests and multiple pipeline instances don't collide).
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		EdgesBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relgraph",
			Name:      "edges_built_total",
			Help:      "Relationships built, labeled by type and resolution state.",
		}, []string{"type", "resolution_state"}),
		EdgesSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relgraph",
			Name:      "edges_suppressed_total",
			Help:      "Candidate edges dropped by noise/stop-name policy or for scoring below the confidence floor.",
		}),
		ParseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relgraph",
			Name:      "parse_duration_seconds",
			Help:      "Per-file parse duration, labeled by language.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"language"}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "relgraph",
			Name:      "build_duration_seconds",
			Help:      "Whole-repository relationship-build duration.",
			Buckets:   prometheus.DefBuckets,
		}),
		TypeCheckerUsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relgraph",
			Name:      "typechecker_consults_total",
			Help:      "Times the C4 type-checker facade was consulted.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for this recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveEdge records one built relationship.
func (r *Recorder) ObserveEdge(edgeType, resolutionState string) {
	if r == nil {
		return
	}
	r.EdgesBuilt.WithLabelValues(edgeType, resolutionState).Inc()
}

// ObserveSuppressed records one policy-suppressed candidate edge.
func (r *Recorder) ObserveSuppressed() {
	if r == nil {
		return
	}
	r.EdgesSuppressed.Inc()
}

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

package metrics

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveEdge_IncrementsCounter(t *testing.T) {
	r := New()
	r.ObserveEdge("CALLS", "resolved")
	r.ObserveEdge("CALLS", "resolved")
	r.ObserveEdge("IMPORTS", "unresolved")

	assert.InDelta(t, 2, testutilValue(t, r, "CALLS", "resolved"), 0)
	assert.InDelta(t, 1, testutilValue(t, r, "IMPORTS", "unresolved"), 0)
}

func TestObserveSuppressed_IncrementsCounter(t *testing.T) {
	r := New()
	r.ObserveSuppressed()
	r.ObserveSuppressed()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "relgraph_edges_suppressed_total 2")
}

func TestNilRecorder_MethodsAreNoOps(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveEdge("CALLS", "resolved")
		r.ObserveSuppressed()
		_ = r.Handler()
	})
}

func TestHandler_ServesMetricsFormat(t *testing.T) {
	r := New()
	r.ObserveEdge("CALLS", "resolved")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "relgraph_edges_built_total")
}

// testutilValue scrapes the handler output rather than pulling in
// prometheus/client_golang/prometheus/testutil, keeping the test
// dependency surface identical to the package under test.
func testutilValue(t *testing.T, r *Recorder, edgeType, resolutionState string) float64 {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	want := `relgraph_edges_built_total{resolution_state="` + resolutionState + `",type="` + edgeType + `"}`
	idx := -1
	for i := 0; i+len(want) <= len(body); i++ {
		if body[i:i+len(want)] == want {
			idx = i
			break
		}
	}
	require.NotEqual(t, -1, idx, "metric line %q not found in:\n%s", want, body)

	lineEnd := idx
	for lineEnd < len(body) && body[lineEnd] != '\n' {
		lineEnd++
	}
	line := body[idx:lineEnd]
	spaceIdx := -1
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ' ' {
			spaceIdx = i
			break
		}
	}
	require.NotEqual(t, -1, spaceIdx)

	var value float64
	_, err := fmt.Sscan(line[spaceIdx+1:], &value)
	require.NoError(t, err)
	return value
}

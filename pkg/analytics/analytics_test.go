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

package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/relgraph/pkg/relationship"
)

func imp(from, to string) Edge {
	return Edge{From: from, To: to, Type: relationship.Imports}
}

func TestAnalyze_DetectsCycle(t *testing.T) {
	edges := []Edge{imp("file:a.go", "file:b.go"), imp("file:b.go", "file:c.go"), imp("file:c.go", "file:a.go")}
	report := Analyze(edges)
	require.Len(t, report.Cycles, 1)
	assert.Contains(t, report.Cycles[0].Files, "file:a.go")
}

func TestAnalyze_NoCycleForDAG(t *testing.T) {
	edges := []Edge{imp("file:a.go", "file:b.go"), imp("file:a.go", "file:c.go"), imp("file:b.go", "file:c.go")}
	report := Analyze(edges)
	assert.Empty(t, report.Cycles)
}

func TestAnalyze_HotspotScoring(t *testing.T) {
	edges := []Edge{
		imp("file:a.go", "file:util.go"),
		imp("file:b.go", "file:util.go"),
		imp("file:c.go", "file:util.go"),
	}
	report := Analyze(edges)
	require.NotEmpty(t, report.Hotspots)
	assert.Equal(t, "file:util.go", report.Hotspots[0].FileEntityID)
	assert.Equal(t, 3, report.Hotspots[0].ImportsIn)
}

func TestAnalyze_IgnoresNonImportEdges(t *testing.T) {
	edges := []Edge{{From: "file:a.go", To: "file:b.go", Type: relationship.Calls}}
	report := Analyze(edges)
	assert.Empty(t, report.Cycles)
	assert.Empty(t, report.Hotspots)
}

func TestFileEntityIDFromRef(t *testing.T) {
	assert.Equal(t, "a.go", FileEntityIDFromRef("file:a.go"))
	assert.Equal(t, "sym:a.go#Foo", FileEntityIDFromRef("sym:a.go#Foo"))
}

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

// Package analytics is a read-only consumer of pkg/project's persisted
// rows: circular-import detection and file hotspot scoring, supplementing
// features the distilled spec dropped but a complete knowledge-graph
// pipeline would expose (graph queries over structural edges, not just
// the edges themselves).
package analytics

import (
	"sort"
	"strings"

	"github.com/kraklabs/relgraph/pkg/relationship"
)

// Edge is the minimal shape analytics needs from a persisted row: who
// points at whom, and with what type.
type Edge struct {
	From string
	To   string
	Type relationship.Type
}

// Cycle is one detected import cycle, as the ordered sequence of file
// entity ids that form it.
type Cycle struct {
	Files []string
}

// Hotspot scores a file by its combined import fan-in/fan-out.
type Hotspot struct {
	FileEntityID string
	ImportsOut   int
	ImportsIn    int
	Score        float64
}

// Report is the result of a full analytics pass over one build's edges.
type Report struct {
	Cycles        []Cycle
	Hotspots      []Hotspot
	IsolatedFiles []string
}

// Analyze runs circular-dependency detection, hotspot scoring, and
// isolated-file detection over the IMPORTS edges in edges. Only IMPORTS
// edges participate: cycles and hotspots are defined over the
// file-dependency graph, matching the teacher's analyzer, which treats
// these three passes as independent views over the same edge set.
func Analyze(edges []Edge) *Report {
	adjacency := make(map[string][]string)
	fanIn := make(map[string]int)
	fanOut := make(map[string]int)
	nodes := make(map[string]struct{})

	for _, e := range edges {
		if e.Type != relationship.Imports {
			continue
		}
		adjacency[e.From] = append(adjacency[e.From], e.To)
		fanOut[e.From]++
		fanIn[e.To]++
		nodes[e.From] = struct{}{}
		nodes[e.To] = struct{}{}
	}

	rep := &Report{}
	rep.Cycles = detectCycles(nodes, adjacency)
	rep.Hotspots = scoreHotspots(nodes, fanIn, fanOut)
	rep.IsolatedFiles = isolatedNodes(nodes, fanIn, fanOut)
	return rep
}

// detectCycles runs DFS from every unvisited node, mirroring the
// teacher's detectCycleDFS: a node revisited while still on the
// recursion stack closes a cycle.
func detectCycles(nodes map[string]struct{}, adjacency map[string][]string) []Cycle {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var cycles []Cycle

	sorted := sortedKeys(nodes)
	for _, n := range sorted {
		if !visited[n] {
			if cyc := dfs(n, adjacency, visited, onStack, nil); cyc != nil {
				cycles = append(cycles, Cycle{Files: cyc})
			}
		}
	}
	return cycles
}

func dfs(node string, adjacency map[string][]string, visited, onStack map[string]bool, path []string) []string {
	visited[node] = true
	onStack[node] = true
	path = append(path, node)

	for _, next := range adjacency[node] {
		if !visited[next] {
			if cyc := dfs(next, adjacency, visited, onStack, path); cyc != nil {
				return cyc
			}
		} else if onStack[next] {
			start := -1
			for i, p := range path {
				if p == next {
					start = i
					break
				}
			}
			if start != -1 {
				return append(append([]string{}, path[start:]...), next)
			}
		}
	}

	onStack[node] = false
	return nil
}

// scoreHotspots weights being-imported twice as heavily as importing,
// same ratio the teacher's identifyHotspotFiles uses, and keeps only
// files clearing the same >=2.0 activity floor.
func scoreHotspots(nodes map[string]struct{}, fanIn, fanOut map[string]int) []Hotspot {
	var hotspots []Hotspot
	for _, n := range sortedKeys(nodes) {
		score := float64(fanOut[n]) + float64(fanIn[n])*2.0
		if score < 2.0 {
			continue
		}
		hotspots = append(hotspots, Hotspot{
			FileEntityID: n, ImportsOut: fanOut[n], ImportsIn: fanIn[n], Score: score,
		})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Score != hotspots[j].Score {
			return hotspots[i].Score > hotspots[j].Score
		}
		return hotspots[i].FileEntityID < hotspots[j].FileEntityID
	})
	return hotspots
}

func isolatedNodes(nodes map[string]struct{}, fanIn, fanOut map[string]int) []string {
	var out []string
	for _, n := range sortedKeys(nodes) {
		if fanIn[n] == 0 && fanOut[n] == 0 {
			out = append(out, n)
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FileEntityIDFromRef extracts the bare file path from a "file:<path>"
// entity id, or returns the id unchanged if it isn't one — a small convenience so callers
// building Edge values from pkg/project.Row don't need to know the
// entity-id scheme themselves.
func FileEntityIDFromRef(id string) string {
	return strings.TrimPrefix(id, "file:")
}

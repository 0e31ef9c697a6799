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

// Package symbolindex holds the two in-memory maps C2 describes: a
// (file, name) -> symbol lookup and a name -> candidates lookup, populated
// incrementally as files are parsed. It is the shared read-often structure
// spec.md §5 calls out: every write takes the index's write lock for the
// duration of one Add (there is no per-file buffering), and readers take the
// read lock, so each read sees a consistent state.
package symbolindex

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Entry is what both indexes resolve a name to.
type Entry struct {
	ID         string
	Path       string
	IsExported bool
}

// Index is the concurrency-safe Symbol Index (C2).
type Index struct {
	mu sync.RWMutex

	// global: (fileRel, name) -> Entry
	global map[string]map[string]Entry

	// byName: name -> candidates, kept sorted by path for deterministic
	// disambiguation.
	byName map[string][]Entry
}

// New creates an empty Symbol Index.
func New() *Index {
	return &Index{
		global: make(map[string]map[string]Entry),
		byName: make(map[string][]Entry),
	}
}

// Add registers a symbol declared in fileRel under name. Safe for concurrent
// callers; the name's candidate list is re-sorted by path on every call.
func (idx *Index) Add(fileRel, name string, e Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.global[fileRel] == nil {
		idx.global[fileRel] = make(map[string]Entry)
	}
	idx.global[fileRel][name] = e

	idx.byName[name] = append(idx.byName[name], e)
	sort.Slice(idx.byName[name], func(i, j int) bool {
		return idx.byName[name][i].Path < idx.byName[name][j].Path
	})
}

// Local performs the same-file lookup in globalSymbolIndex (spec.md §4.2).
func (idx *Index) Local(fileRel, name string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	m, ok := idx.global[fileRel]
	if !ok {
		return Entry{}, false
	}
	e, ok := m[name]
	return e, ok
}

// Candidates returns every cross-file candidate for an exact name match,
// the nameIndex lookup in spec.md §4.2.
func (idx *Index) Candidates(name string) []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	src := idx.byName[name]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Resolve implements the builder's lookup order for any name: local
// (same-file) first, then cross-file by exact name disambiguated by
// directory proximity, otherwise reports ambiguity so the caller can retain
// a placeholder with ambiguous = true (spec.md §4.2, §4.6).
//
// fromFileRel is the referencing file, used both for the local lookup and
// for directory-proximity disambiguation among cross-file candidates.
func (idx *Index) Resolve(fromFileRel, name string) (entry Entry, resolved bool, ambiguous bool, candidateCount int) {
	if e, ok := idx.Local(fromFileRel, name); ok {
		return e, true, false, 1
	}

	candidates := idx.Candidates(name)
	if len(candidates) == 0 {
		return Entry{}, false, false, 0
	}
	if len(candidates) == 1 {
		return candidates[0], true, false, 1
	}

	// Directory proximity: prefer the candidate sharing the longest common
	// directory prefix with fromFileRel.
	fromDir := filepath.Dir(fromFileRel)
	bestScore := -1
	bestIdx := -1
	tie := false
	for i, c := range candidates {
		score := commonPrefixSegments(fromDir, filepath.Dir(c.Path))
		if score > bestScore {
			bestScore = score
			bestIdx = i
			tie = false
		} else if score == bestScore {
			tie = true
		}
	}
	if !tie && bestIdx >= 0 {
		return candidates[bestIdx], true, false, len(candidates)
	}
	return Entry{}, false, true, len(candidates)
}

// Concretize rewrites a placeholder name into a concrete symbol id whenever
// the index contains a unique match, per spec.md §4.2 ("Placeholders are
// concretized to real symbol ids whenever the builder discovers a unique
// match.") and §4.6. It returns ("", false) when no unique match exists.
func (idx *Index) Concretize(fromFileRel, name string) (string, bool) {
	e, resolved, ambiguous, _ := idx.Resolve(fromFileRel, name)
	if resolved && !ambiguous {
		return e.ID, true
	}
	return "", false
}

func commonPrefixSegments(a, b string) int {
	as := strings.Split(filepath.ToSlash(a), "/")
	bs := strings.Split(filepath.ToSlash(b), "/")
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	return n
}

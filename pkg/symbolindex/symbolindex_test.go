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

package symbolindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocal_FindsSameFileSymbol(t *testing.T) {
	idx := New()
	idx.Add("pkg/a.go", "Foo", Entry{ID: "sym:pkg/a.go#Foo", Path: "pkg/a.go", IsExported: true})

	e, ok := idx.Local("pkg/a.go", "Foo")
	assert.True(t, ok)
	assert.Equal(t, "sym:pkg/a.go#Foo", e.ID)

	_, ok = idx.Local("pkg/a.go", "Bar")
	assert.False(t, ok)
}

func TestResolve_PrefersLocalOverCrossFile(t *testing.T) {
	idx := New()
	idx.Add("pkg/a.go", "Foo", Entry{ID: "local", Path: "pkg/a.go"})
	idx.Add("pkg/b.go", "Foo", Entry{ID: "cross", Path: "pkg/b.go"})

	e, resolved, ambiguous, count := idx.Resolve("pkg/a.go", "Foo")
	assert.True(t, resolved)
	assert.False(t, ambiguous)
	assert.Equal(t, 1, count)
	assert.Equal(t, "local", e.ID)
}

func TestResolve_SingleCrossFileCandidate(t *testing.T) {
	idx := New()
	idx.Add("pkg/b.go", "Helper", Entry{ID: "sym:pkg/b.go#Helper", Path: "pkg/b.go"})

	e, resolved, ambiguous, count := idx.Resolve("pkg/a.go", "Helper")
	assert.True(t, resolved)
	assert.False(t, ambiguous)
	assert.Equal(t, 1, count)
	assert.Equal(t, "sym:pkg/b.go#Helper", e.ID)
}

func TestResolve_DirectoryProximityDisambiguates(t *testing.T) {
	idx := New()
	idx.Add("pkg/sub/near.go", "Helper", Entry{ID: "near", Path: "pkg/sub/near.go"})
	idx.Add("other/far.go", "Helper", Entry{ID: "far", Path: "other/far.go"})

	e, resolved, ambiguous, count := idx.Resolve("pkg/sub/caller.go", "Helper")
	assert.True(t, resolved)
	assert.False(t, ambiguous)
	assert.Equal(t, 2, count)
	assert.Equal(t, "near", e.ID)
}

func TestResolve_TrueTieIsAmbiguous(t *testing.T) {
	idx := New()
	idx.Add("x/one.go", "Helper", Entry{ID: "one", Path: "x/one.go"})
	idx.Add("y/two.go", "Helper", Entry{ID: "two", Path: "y/two.go"})

	_, resolved, ambiguous, count := idx.Resolve("z/caller.go", "Helper")
	assert.False(t, resolved)
	assert.True(t, ambiguous)
	assert.Equal(t, 2, count)
}

func TestResolve_NoCandidates(t *testing.T) {
	idx := New()
	_, resolved, ambiguous, count := idx.Resolve("pkg/a.go", "Nonexistent")
	assert.False(t, resolved)
	assert.False(t, ambiguous)
	assert.Equal(t, 0, count)
}

func TestConcretize_UniqueMatch(t *testing.T) {
	idx := New()
	idx.Add("pkg/b.go", "Helper", Entry{ID: "sym:pkg/b.go#Helper", Path: "pkg/b.go"})

	id, ok := idx.Concretize("pkg/a.go", "Helper")
	assert.True(t, ok)
	assert.Equal(t, "sym:pkg/b.go#Helper", id)
}

func TestConcretize_AmbiguousReturnsFalse(t *testing.T) {
	idx := New()
	idx.Add("x/one.go", "Helper", Entry{ID: "one", Path: "x/one.go"})
	idx.Add("y/two.go", "Helper", Entry{ID: "two", Path: "y/two.go"})

	id, ok := idx.Concretize("z/caller.go", "Helper")
	assert.False(t, ok)
	assert.Equal(t, "", id)
}

func TestCandidates_ReturnsSortedCopy(t *testing.T) {
	idx := New()
	idx.Add("z.go", "Foo", Entry{ID: "z", Path: "z.go"})
	idx.Add("a.go", "Foo", Entry{ID: "a", Path: "a.go"})

	got := idx.Candidates("Foo")
	assert.Len(t, got, 2)
	assert.Equal(t, "a.go", got[0].Path)
	assert.Equal(t, "z.go", got[1].Path)

	got[0].Path = "mutated"
	got2 := idx.Candidates("Foo")
	assert.Equal(t, "a.go", got2[0].Path, "Candidates must return a copy, not the internal slice")
}

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

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_DirectDeclaredExport(t *testing.T) {
	r := New()
	r.AddDeclaredExport("pkg/a.go", "Foo")

	exp, ok := r.Resolve("caller.go", "Foo", "")
	assert.True(t, ok)
	assert.Equal(t, "pkg/a.go", exp.FileRel)
	assert.Equal(t, 0, exp.Depth)
}

func TestResolve_FollowsReExportChain(t *testing.T) {
	r := New()
	r.AddDeclaredExport("pkg/a.go", "Foo")
	r.AddReExport(ReExport{FileRel: "pkg/b.go", LocalName: "Foo", FromFile: "pkg/a.go", FromName: "Foo"})
	r.AddReExport(ReExport{FileRel: "pkg/c.go", LocalName: "Foo", FromFile: "pkg/b.go", FromName: "Foo"})

	m := r.ExportMap("pkg/c.go")
	got, ok := m["Foo"]
	assert.True(t, ok)
	assert.Equal(t, "pkg/a.go", got.FileRel)
	assert.Equal(t, 2, got.Depth, "depth must count re-export hops")
}

func TestResolve_MemberNameOverridesLocalName(t *testing.T) {
	r := New()
	r.AddDeclaredExport("pkg/a.go", "Bar")

	exp, ok := r.Resolve("caller.go", "ns", "Bar")
	assert.True(t, ok)
	assert.Equal(t, "pkg/a.go", exp.FileRel)
}

func TestExportMap_TerminatesOnCycle(t *testing.T) {
	r := New()
	r.AddReExport(ReExport{FileRel: "a.go", LocalName: "X", FromFile: "b.go", FromName: "X"})
	r.AddReExport(ReExport{FileRel: "b.go", LocalName: "X", FromFile: "a.go", FromName: "X"})

	m := r.ExportMap("a.go")
	_, ok := m["X"]
	assert.False(t, ok, "a pure cycle with no terminal declared export must not resolve")
}

func TestExportMap_IsMemoized(t *testing.T) {
	r := New()
	r.AddDeclaredExport("a.go", "Foo")

	first := r.ExportMap("a.go")
	r.AddDeclaredExport("a.go", "Bar")
	second := r.ExportMap("a.go")

	assert.Equal(t, first, second, "ExportMap must return the memoized result after first computation")
	_, ok := second["Bar"]
	assert.False(t, ok)
}

func TestResolve_UnknownNameNotFound(t *testing.T) {
	r := New()
	_, ok := r.Resolve("caller.go", "Missing", "")
	assert.False(t, ok)
}

func TestNormalizeModulePath(t *testing.T) {
	cases := map[string]string{
		"a\\b\\c": "a/b/c",
		"a//b///c/": "a/b/c",
		"/":         "/",
		"a/b/":      "a/b",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeModulePath(in), "input %q", in)
	}
}

func TestImportPathToFileRel_SuffixMatch(t *testing.T) {
	got := ImportPathToFileRel("example.com/mod/pkg/sub", []string{"pkg/sub", "pkg/other"}, nil)
	assert.Equal(t, "pkg/sub", got)
}

func TestImportPathToFileRel_PackageNameFallback(t *testing.T) {
	got := ImportPathToFileRel("example.com/vendor/sub", nil, map[string]string{"pkg/sub": "sub"})
	assert.Equal(t, "pkg/sub", got)
}

func TestImportPathToFileRel_NoMatch(t *testing.T) {
	got := ImportPathToFileRel("example.com/unknown", []string{"pkg/sub"}, map[string]string{"pkg/sub": "sub"})
	assert.Equal(t, "", got)
}

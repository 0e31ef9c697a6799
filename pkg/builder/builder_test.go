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

package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/relgraph/pkg/parse"
	"github.com/kraklabs/relgraph/pkg/policy"
	"github.com/kraklabs/relgraph/pkg/relationship"
)

func findFirst(rels []*relationship.Relationship, t relationship.Type) *relationship.Relationship {
	for _, r := range rels {
		if r.Type == t {
			return r
		}
	}
	return nil
}

func countType(rels []*relationship.Relationship, t relationship.Type) int {
	n := 0
	for _, r := range rels {
		if r.Type == t {
			n++
		}
	}
	return n
}

func TestBuild_ContainsDefinesPerDeclaration(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	fr := &parse.FileResult{
		Path:        "pkg/a.go",
		Language:    "go",
		PackageName: "a",
		Declarations: []parse.Declaration{
			{Name: "DoThing", StartLine: 10, EndLine: 20},
		},
	}
	b.AddFile(fr)
	result := b.Build(1700000000)

	assert.Equal(t, 1, countType(result.Relationships, relationship.Contains))
	assert.Equal(t, 1, countType(result.Relationships, relationship.Defines))

	contains := findFirst(result.Relationships, relationship.Contains)
	require.NotNil(t, contains)
	assert.Equal(t, "file:pkg/a.go", contains.FromEntityID)
	assert.True(t, contains.Resolved)
	assert.Equal(t, relationship.Resolved, contains.ResolutionState)
}

func TestBuild_LocalCallResolvesWithinFile(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	fr := &parse.FileResult{
		Path: "pkg/a.go",
		Declarations: []parse.Declaration{
			{Name: "Caller", StartLine: 1},
			{Name: "Callee", StartLine: 5},
		},
		Calls: []parse.CallSite{
			{CallerName: "Caller", Callee: "Callee", Line: 2, Arity: 0},
		},
	}
	b.AddFile(fr)
	result := b.Build(1700000000)

	call := findFirst(result.Relationships, relationship.Calls)
	require.NotNil(t, call)
	assert.Equal(t, relationship.Resolved, call.ResolutionState)
	assert.Equal(t, relationship.ScopeLocal, call.Scope)
}

func TestBuild_UnresolvedCallBecomesExternalPlaceholder(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	fr := &parse.FileResult{
		Path: "pkg/a.go",
		Declarations: []parse.Declaration{
			{Name: "Caller", StartLine: 1},
		},
		Calls: []parse.CallSite{
			{CallerName: "Caller", Callee: "fmt.Println", CalleeFull: "fmt.Println", Line: 2},
		},
	}
	b.AddFile(fr)
	result := b.Build(1700000000)

	call := findFirst(result.Relationships, relationship.Calls)
	require.NotNil(t, call)
	assert.Equal(t, relationship.Unresolved, call.ResolutionState)
	assert.Equal(t, "external:fmt.Println", call.ToEntityID)
}

func TestBuild_CrossFileCallResolvesViaSymbolIndex(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	b.AddFile(&parse.FileResult{
		Path: "pkg/a.go",
		Declarations: []parse.Declaration{
			{Name: "Caller", StartLine: 1},
		},
		Calls: []parse.CallSite{
			{CallerName: "Caller", Callee: "Helper", Line: 2},
		},
	})
	b.AddFile(&parse.FileResult{
		Path: "pkg/b.go",
		Declarations: []parse.Declaration{
			{Name: "Helper", StartLine: 3},
		},
	})
	result := b.Build(1700000000)

	call := findFirst(result.Relationships, relationship.Calls)
	require.NotNil(t, call)
	assert.Equal(t, relationship.Resolved, call.ResolutionState)
	assert.Equal(t, relationship.ScopeImported, call.Scope)
}

func TestBuild_CallsAggregatePerTarget(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	b.AddFile(&parse.FileResult{
		Path: "pkg/a.go",
		Declarations: []parse.Declaration{
			{Name: "Caller", StartLine: 1},
		},
		Calls: []parse.CallSite{
			{CallerName: "Caller", Callee: "fetch", CalleeFull: "svc.fetch", Line: 10, Arity: 1},
			{CallerName: "Caller", Callee: "fetch", CalleeFull: "svc.fetch", Line: 11, Arity: 2},
			{CallerName: "Caller", Callee: "fetch", CalleeFull: "svc.fetch", Line: 8, Arity: 2},
			{CallerName: "Caller", Callee: "fetch", CalleeFull: "svc.fetch", Line: 12, Arity: 1},
			{CallerName: "Caller", Callee: "fetch", CalleeFull: "svc.fetch", Line: 13, Arity: 1},
		},
	})
	result := b.Build(1700000000)

	assert.Equal(t, 1, countType(result.Relationships, relationship.Calls), "duplicate calls to the same target must aggregate into one CALLS edge")
	call := findFirst(result.Relationships, relationship.Calls)
	require.NotNil(t, call)
	assert.Equal(t, 5, call.Metadata["occurrencesScan"])
	assert.Equal(t, 8, call.Metadata["line"], "earliest line must win")
}

func TestBuild_CallsEmitCompanionReferencesAndDependsOn(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	b.AddFile(&parse.FileResult{
		Path: "pkg/a.go",
		Declarations: []parse.Declaration{
			{Name: "Caller", StartLine: 1},
		},
		Calls: []parse.CallSite{
			{CallerName: "Caller", Callee: "Helper", Line: 2},
		},
	})
	b.AddFile(&parse.FileResult{
		Path: "pkg/b.go",
		Declarations: []parse.Declaration{
			{Name: "Helper", StartLine: 3},
		},
	})
	result := b.Build(1700000000)

	assert.Equal(t, 1, countType(result.Relationships, relationship.Calls))
	assert.Equal(t, 1, countType(result.Relationships, relationship.References))
	assert.Equal(t, 1, countType(result.Relationships, relationship.DependsOn), "cross-file CALLS must roll up into a DEPENDS_ON")

	ref := findFirst(result.Relationships, relationship.References)
	require.NotNil(t, ref)
	call := findFirst(result.Relationships, relationship.Calls)
	assert.Equal(t, call.ToEntityID, ref.ToEntityID)
}

func TestBuild_HeritageProducesExtends(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	fr := &parse.FileResult{
		Path: "pkg/a.go",
		Types: []parse.TypeDecl{
			{Name: "Base", Kind: "struct", StartLine: 1},
			{Name: "Derived", Kind: "struct", StartLine: 5},
		},
		Heritage: []parse.HeritageDecl{
			{TypeName: "Derived", BaseName: "Base", Line: 5},
		},
	}
	b.AddFile(fr)
	result := b.Build(1700000000)

	extends := findFirst(result.Relationships, relationship.Extends)
	require.NotNil(t, extends)
	assert.Equal(t, relationship.Resolved, extends.ResolutionState)
}

func TestBuild_ParamTypeAndDependsOnDeduped(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	b.AddFile(&parse.FileResult{
		Path: "pkg/a.go",
		Declarations: []parse.Declaration{
			{Name: "Widget", StartLine: 1},
		},
		Types: []parse.TypeDecl{{Name: "Config", Kind: "struct", StartLine: 1}},
	})
	fr := &parse.FileResult{
		Path: "pkg/b.go",
		Declarations: []parse.Declaration{
			{Name: "New", StartLine: 1, Signature: "func _(c Config, c2 Config)"},
		},
	}
	b.AddFile(fr)
	result := b.Build(1700000000)

	assert.Equal(t, 2, countType(result.Relationships, relationship.ParamType))
	assert.Equal(t, 1, countType(result.Relationships, relationship.DependsOn), "DEPENDS_ON must be deduplicated per target type")
}

func TestBuild_ReturnsTypeResolvesLocalType(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	b.AddFile(&parse.FileResult{
		Path:  "pkg/a.go",
		Types: []parse.TypeDecl{{Name: "Result", Kind: "struct", StartLine: 1}},
		Declarations: []parse.Declaration{
			{Name: "New", StartLine: 5, Signature: "func _() *Result"},
		},
	})
	result := b.Build(1700000000)

	rt := findFirst(result.Relationships, relationship.ReturnsType)
	require.NotNil(t, rt)
	assert.Equal(t, relationship.Resolved, rt.ResolutionState)
}

func TestBuild_ReturnsTypeDedupesMultipleResults(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	b.AddFile(&parse.FileResult{
		Path: "pkg/a.go",
		Declarations: []parse.Declaration{
			{Name: "Parse", StartLine: 1, Signature: "func _(s string) (string, string, error)"},
		},
	})
	result := b.Build(1700000000)

	assert.Equal(t, 2, countType(result.Relationships, relationship.ReturnsType))
}

func TestBuild_TypeUsesDedupesParamAndReturnPositions(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	b.AddFile(&parse.FileResult{
		Path:  "pkg/a.go",
		Types: []parse.TypeDecl{{Name: "Config", Kind: "struct", StartLine: 1}},
		Declarations: []parse.Declaration{
			{Name: "Reload", StartLine: 5, Signature: "func _(c Config) Config"},
		},
	})
	result := b.Build(1700000000)

	assert.Equal(t, 1, countType(result.Relationships, relationship.TypeUses), "same type in param and return position must dedupe to one TYPE_USES edge")
	tu := findFirst(result.Relationships, relationship.TypeUses)
	require.NotNil(t, tu)
	assert.Equal(t, relationship.Resolved, tu.ResolutionState)
}

func TestBuild_ImportsEmitsReciprocalExports(t *testing.T) {
	b := New(policy.Default(), nil, nil)
	b.AddFile(&parse.FileResult{Path: "pkg/sub/file.go", PackageName: "sub"})
	b.AddFile(&parse.FileResult{
		Path: "pkg/main.go",
		Imports: []parse.Import{
			{ImportPath: "example.com/mod/pkg/sub", StartLine: 1},
		},
	})
	result := b.Build(1700000000)

	assert.Equal(t, 1, countType(result.Relationships, relationship.Imports))
	assert.Equal(t, 1, countType(result.Relationships, relationship.Exports))
}

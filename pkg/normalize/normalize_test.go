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

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/relgraph/pkg/adapter"
	"github.com/kraklabs/relgraph/pkg/policy"
	"github.com/kraklabs/relgraph/pkg/relationship"
)

func newNormalizer() *Normalizer {
	return New(policy.Default(), adapter.Default(nil, false))
}

func TestNormalize_HoistsFromMetadata(t *testing.T) {
	n := newNormalizer()
	e := &relationship.Relationship{
		FromEntityID: "file:a.go",
		ToEntityID:   "file:b.go",
		Type:         relationship.Imports,
		Metadata:     map[string]any{"module": "pkg/b", "alias": "b2"},
	}
	n.Normalize(e)
	assert.Equal(t, "pkg/b", e.ModulePath)
	assert.Equal(t, "b2", e.ImportAlias)
	assert.NotContains(t, e.Metadata, "module")
	assert.NotContains(t, e.Metadata, "alias")
}

func TestNormalize_IsIdempotent(t *testing.T) {
	n := newNormalizer()
	e := &relationship.Relationship{
		FromEntityID: "file:a.go",
		ToEntityID:   "file:b.go",
		Type:         relationship.Imports,
		ModulePath:   "pkg//b/",
		Language:     "GO",
	}
	first := n.Normalize(e)
	firstID, firstLang, firstMP := first.ID, first.Language, first.ModulePath

	second := n.Normalize(first)
	assert.Equal(t, firstID, second.ID)
	assert.Equal(t, firstLang, second.Language)
	assert.Equal(t, firstMP, second.ModulePath)
}

func TestNormalize_ModulePathCollapsesSlashes(t *testing.T) {
	n := newNormalizer()
	e := &relationship.Relationship{Type: relationship.Imports, ModulePath: "a//b///c/"}
	n.Normalize(e)
	assert.Equal(t, "a/b/c", e.ModulePath)
}

func TestNormalize_ContainsDefinesAlwaysResolved(t *testing.T) {
	n := newNormalizer()
	e := &relationship.Relationship{Type: relationship.Contains, ToEntityID: "sym:a.go#Foo"}
	n.Normalize(e)
	assert.Equal(t, relationship.Resolved, e.ResolutionState)
	assert.True(t, e.Resolved)
}

func TestNormalize_ExternalPlaceholderIsUnresolved(t *testing.T) {
	n := newNormalizer()
	e := &relationship.Relationship{Type: relationship.Calls, ToEntityID: "external:fmt.Println"}
	n.Normalize(e)
	assert.Equal(t, relationship.Unresolved, e.ResolutionState)
	assert.False(t, e.Resolved)
}

func TestNormalize_DefaultConfidenceIsMirroredToMetadata(t *testing.T) {
	n := newNormalizer()
	e := &relationship.Relationship{Type: relationship.Contains, ToEntityID: "sym:a.go#Foo"}
	n.Normalize(e)
	require.NotNil(t, e.Metadata)
	assert.Equal(t, e.Confidence, e.Metadata["confidence"])
	assert.InDelta(t, 0.95, e.Confidence, 1e-9)
}

func TestNormalize_NamespaceImportImpliesIsNamespace(t *testing.T) {
	n := newNormalizer()
	e := &relationship.Relationship{Type: relationship.Imports, ModulePath: "pkg/*"}
	n.Normalize(e)
	assert.Equal(t, relationship.ImportNamespace, e.ImportType)
	assert.True(t, e.IsNamespace)
}

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

package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/relgraph/pkg/relationship"
)

func TestApply_DetectsGoByFileExtension(t *testing.T) {
	reg := Default(nil, false)
	e := &relationship.Relationship{Type: relationship.Calls}
	reg.Apply(e, "pkg/a.go")
	assert.Equal(t, "go", e.Language)
}

func TestApply_DetectsTypeScriptTsxSyntax(t *testing.T) {
	reg := Default(nil, false)
	e := &relationship.Relationship{
		Type:     relationship.Imports,
		Metadata: map[string]any{"filePath": "src/App.tsx"},
	}
	reg.Apply(e, "src/App.tsx")
	assert.Equal(t, "typescript", e.Language)

	ls, ok := e.Metadata["languageSpecific"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tsx", ls["syntax"])
}

func TestApply_CoercesModuleSymbolKindForImports(t *testing.T) {
	reg := Default(nil, false)
	e := &relationship.Relationship{Type: relationship.Imports}
	reg.Apply(e, "pkg/a.py")
	assert.Equal(t, "module", e.SymbolKind)
}

func TestApply_DoesNotOverrideExplicitSymbolKind(t *testing.T) {
	reg := Default(nil, false)
	e := &relationship.Relationship{Type: relationship.Imports, SymbolKind: "class"}
	reg.Apply(e, "pkg/a.go")
	assert.Equal(t, "class", e.SymbolKind)
}

func TestApply_NoMatchLeavesEdgeUntouched(t *testing.T) {
	reg := Default(nil, false)
	e := &relationship.Relationship{Type: relationship.Calls, Language: "rust"}
	reg.Apply(e, "pkg/a.rs")
	assert.Equal(t, "rust", e.Language)
}

func TestApply_FirstMatchWinsByPriorityOrder(t *testing.T) {
	reg := Default(nil, false)
	e := &relationship.Relationship{Type: relationship.Calls, Language: "typescript"}
	reg.Apply(e, "pkg/a.go")
	assert.Equal(t, "typescript", e.Language, "declared language takes priority over the file-path hint")
}

type panickyAdapter struct{}

func (panickyAdapter) DetectLanguage(filePathHint, declared string) (string, bool) {
	return "panicky", true
}

func (panickyAdapter) Finalize(e *relationship.Relationship) {
	panic("boom")
}

func TestApply_RecoversFromAdapterPanic(t *testing.T) {
	reg := NewRegistry(nil, false, panickyAdapter{})
	e := &relationship.Relationship{Type: relationship.Calls}
	assert.NotPanics(t, func() {
		reg.Apply(e, "whatever")
	})
	assert.Equal(t, "panicky", e.Language)
}

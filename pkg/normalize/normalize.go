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

// Package normalize implements C7, the Relationship Normalizer: it takes
// any edge — freshly built or reconstructed from a persisted snapshot — and
// produces its canonical form. Normalize is idempotent:
// normalize(normalize(x)) == normalize(x) (spec.md §4.7, §8 invariant 2).
package normalize

import (
	"strconv"
	"strings"

	"github.com/kraklabs/relgraph/pkg/adapter"
	"github.com/kraklabs/relgraph/pkg/confidence"
	"github.com/kraklabs/relgraph/pkg/policy"
	"github.com/kraklabs/relgraph/pkg/relationship"
)

const (
	maxShortField = 512
	maxLongField  = 1024
)

// legacyMetadataAliases are stripped from metadata once their canonical
// top-level field has been hoisted (spec.md §3 invariant 8, §4.7 step 4).
var legacyMetadataAliases = []string{
	"alias", "module", "moduleSpecifier", "sourceModule", "importKind",
	"lang", "languageId", "language_id", "reExport",
}

// Normalizer wires the policy and adapter registry C7 needs to derive
// confidence defaults and run C10.
type Normalizer struct {
	Policy   policy.Policy
	Adapters *adapter.Registry
}

// New builds a Normalizer.
func New(pol policy.Policy, adapters *adapter.Registry) *Normalizer {
	return &Normalizer{Policy: pol, Adapters: adapters}
}

// Normalize produces the canonical form of e, mutating and returning it.
// Steps follow spec.md §4.7 exactly, in order.
func (n *Normalizer) Normalize(e *relationship.Relationship) *relationship.Relationship {
	hoistFromMetadata(e)
	sanitize(e)
	e.ModulePath = normalizeModulePath(e.ModulePath)
	lowercaseLanguageFields(e)
	stripLegacyAliases(e)
	deriveImportType(e)
	n.deriveResolutionState(e)
	reconcileResolvedState(e)
	n.defaultConfidence(e)
	if n.Adapters != nil {
		n.Adapters.Apply(e, filePathHint(e))
	}
	recomputeID(e)
	return e
}

// hoistFromMetadata lifts structural fields from metadata to the top level
// when the top-level field is unset (spec.md §4.7 step 1).
func hoistFromMetadata(e *relationship.Relationship) {
	if e.Metadata == nil {
		return
	}
	if e.ModulePath == "" {
		if v, ok := e.Metadata["modulePath"].(string); ok {
			e.ModulePath = v
		} else if v, ok := e.Metadata["module"].(string); ok {
			e.ModulePath = v
		} else if v, ok := e.Metadata["moduleSpecifier"].(string); ok {
			e.ModulePath = v
		} else if v, ok := e.Metadata["sourceModule"].(string); ok {
			e.ModulePath = v
		}
	}
	if e.ImportAlias == "" {
		if v, ok := e.Metadata["importAlias"].(string); ok {
			e.ImportAlias = v
		} else if v, ok := e.Metadata["alias"].(string); ok {
			e.ImportAlias = v
		}
	}
	if e.ImportType == "" {
		if v, ok := e.Metadata["importType"].(string); ok {
			e.ImportType = relationship.ImportType(v)
		} else if v, ok := e.Metadata["importKind"].(string); ok {
			e.ImportType = relationship.ImportType(strings.ToLower(v))
		}
	}
	if !e.IsNamespace {
		if v, ok := e.Metadata["isNamespace"]; ok {
			e.IsNamespace = coerceBool(v)
		}
	}
	if !e.IsReExport {
		if v, ok := e.Metadata["isReExport"]; ok {
			e.IsReExport = coerceBool(v)
		} else if v, ok := e.Metadata["reExport"]; ok {
			e.IsReExport = coerceBool(v)
		}
	}
	if e.ReExportTarget == "" {
		if v, ok := e.Metadata["reExportTarget"].(string); ok {
			e.ReExportTarget = v
		}
	}
	if e.Language == "" {
		if v, ok := e.Metadata["language"].(string); ok {
			e.Language = v
		} else if v, ok := e.Metadata["lang"].(string); ok {
			e.Language = v
		} else if v, ok := e.Metadata["languageId"].(string); ok {
			e.Language = v
		} else if v, ok := e.Metadata["language_id"].(string); ok {
			e.Language = v
		}
	}
	if e.SymbolKind == "" {
		if v, ok := e.Metadata["symbolKind"].(string); ok {
			e.SymbolKind = v
		}
	}
	if e.ResolutionState == "" {
		if v, ok := e.Metadata["resolutionState"].(string); ok {
			e.ResolutionState = relationship.ResolutionState(v)
		}
	}
	if e.ImportDepth == 0 {
		if v, ok := e.Metadata["importDepth"]; ok {
			e.ImportDepth = coerceInt(v)
		}
	}
	if e.Confidence == 0 {
		if v, ok := e.Metadata["confidence"]; ok {
			e.Confidence = coerceFloat(v)
		}
	}
	if e.Scope == "" {
		if v, ok := e.Metadata["scope"].(string); ok {
			e.Scope = relationship.Scope(v)
		}
	}
}

// sanitize implements spec.md §4.7 step 2: strings trimmed and length
// capped, booleans coerced, integers floored and clamped >= 0, confidence
// clamped to [0,1].
func sanitize(e *relationship.Relationship) {
	e.ImportAlias = capString(strings.TrimSpace(e.ImportAlias), maxShortField)
	e.ModulePath = capString(strings.TrimSpace(e.ModulePath), maxLongField)
	e.ReExportTarget = capString(strings.TrimSpace(e.ReExportTarget), maxShortField)
	e.Language = capString(strings.TrimSpace(e.Language), maxShortField)
	e.SymbolKind = capString(strings.TrimSpace(e.SymbolKind), maxShortField)

	if e.ImportDepth < 0 {
		e.ImportDepth = 0
	}
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 1 {
		e.Confidence = 1
	}
}

func normalizeModulePath(p string) string {
	if p == "" {
		return p
	}
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// lowercaseLanguageFields implements spec.md §4.7 step 4 and §3 invariant 5:
// language/symbolKind are lowercased single tokens, <= 64 chars.
func lowercaseLanguageFields(e *relationship.Relationship) {
	e.Language = capString(strings.ToLower(strings.TrimSpace(firstToken(e.Language))), 64)
	e.SymbolKind = capString(strings.ToLower(strings.TrimSpace(firstToken(e.SymbolKind))), 64)
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexAny(s, " \t\n"); idx >= 0 {
		return s[:idx]
	}
	return s
}

// stripLegacyAliases deletes legacy alias keys from metadata after
// hoisting (spec.md §3 invariant 8).
func stripLegacyAliases(e *relationship.Relationship) {
	if e.Metadata == nil {
		return
	}
	for _, k := range legacyMetadataAliases {
		delete(e.Metadata, k)
	}
}

// deriveImportType implements spec.md §4.7 step 5.
func deriveImportType(e *relationship.Relationship) {
	if e.Type != relationship.Imports && e.Type != relationship.Exports {
		return
	}
	mp := e.ModulePath
	switch {
	case e.ImportType != "":
		// an import type that is already set is kept as-is
	case strings.HasSuffix(mp, "/*"):
		e.ImportType = relationship.ImportNamespace
	case mp == "*":
		e.ImportType = relationship.ImportWildcard
	default:
		lower := strings.ToLower(mp)
		switch {
		case strings.Contains(lower, "default"):
			e.ImportType = relationship.ImportDefault
		case strings.Contains(lower, "named"):
			e.ImportType = relationship.ImportNamed
		case strings.Contains(lower, "namespace"):
			e.ImportType = relationship.ImportNamespace
		case strings.Contains(lower, "wildcard"):
			e.ImportType = relationship.ImportWildcard
		case strings.Contains(lower, "side"):
			e.ImportType = relationship.ImportSideEffect
		}
	}

	// spec.md §3 invariant 6: importType = "namespace" implies isNamespace.
	if e.ImportType == relationship.ImportNamespace {
		e.IsNamespace = true
	}
	// invariant 6: if reExportTarget is set and isReExport is unset, infer true.
	if e.ReExportTarget != "" && !e.IsReExport {
		e.IsReExport = true
	}
}

// deriveResolutionState implements spec.md §4.7 step 6.
func (n *Normalizer) deriveResolutionState(e *relationship.Relationship) {
	if e.Type == relationship.Contains || e.Type == relationship.Defines {
		e.ResolutionState = relationship.Resolved
		return
	}
	if e.ResolutionState != "" {
		return
	}

	ref := e.ToRef
	if ref == nil {
		parsed := relationship.ParseTargetRef(e.ToEntityID)
		ref = &parsed
	}
	switch ref.Kind {
	case relationship.RefEntity:
		e.ResolutionState = relationship.Resolved
	case relationship.RefPlaceholder, relationship.RefFileSymbol:
		// fileSymbol targets are "known file, unresolved symbol" per
		// spec.md §3 — a placeholder target, not a concrete entity.
		if ref.Kind == relationship.RefFileSymbol {
			e.ResolutionState = relationship.Unresolved
		} else {
			e.ResolutionState = relationship.Unresolved
		}
	case relationship.RefExternal:
		e.ResolutionState = relationship.Unresolved
	default:
		if e.ResolutionState == "" {
			if e.Resolved {
				e.ResolutionState = relationship.Resolved
			} else {
				e.ResolutionState = relationship.Unresolved
			}
		}
	}

	// module:/package:/import: prefixed ids are explicitly placeholders too.
	for _, prefix := range []string{"module:", "package:", "import:"} {
		if strings.HasPrefix(e.ToEntityID, prefix) {
			e.ResolutionState = relationship.Unresolved
		}
	}
}

// reconcileResolvedState implements spec.md §4.7 step 7: state wins, the
// boolean is a projection.
func reconcileResolvedState(e *relationship.Relationship) {
	e.Resolved = e.ResolutionState == relationship.Resolved
}

// defaultConfidence implements spec.md §4.7 step 8: default by (type,
// state) if missing, mirrored into metadata.confidence.
func (n *Normalizer) defaultConfidence(e *relationship.Relationship) {
	if e.Confidence == 0 {
		in := confidence.Input{
			Type:       e.Type,
			State:      e.ResolutionState,
			Scope:      e.Scope,
			NameLength: 0,
			ImportDepth: e.ImportDepth,
		}
		e.Confidence = confidence.Score(in, n.Policy)
	}
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 1 {
		e.Confidence = 1
	}
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata["confidence"] = e.Confidence
}

// recomputeID implements spec.md §4.7 step 10: recompute id via C1 using
// the canonical target key, re-prefixing structural edges.
func recomputeID(e *relationship.Relationship) {
	e.ID = relationship.CanonicalRelationshipID(e.FromEntityID, e.ToEntityID, e.ToRef, e.Type)
}

func filePathHint(e *relationship.Relationship) string {
	if e.ToRef != nil && e.ToRef.Kind == relationship.RefFileSymbol {
		return e.ToRef.File
	}
	if e.Metadata != nil {
		if v, ok := e.Metadata["filePath"].(string); ok {
			return v
		}
	}
	return ""
}

func capString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	default:
		return false
	}
}

func coerceInt(v any) int {
	switch t := v.(type) {
	case int:
		return maxInt(t, 0)
	case int64:
		return maxInt(int(t), 0)
	case float64:
		return maxInt(int(t), 0)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return maxInt(n, 0)
		}
	}
	return 0
}

func coerceFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

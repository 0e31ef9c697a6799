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

// Package project implements C8, the Structural Projector: it flattens a
// normalized relationship into a persistence row (spec.md §4.8, §6's
// persisted-state column table) and computes idempotent backfill diffs —
// the single source of truth for "does persistence need a write?".
package project

import (
	"time"

	"github.com/kraklabs/relgraph/pkg/normalize"
	"github.com/kraklabs/relgraph/pkg/relationship"
)

// Row is the flat persistence row from spec.md §6's column table.
type Row struct {
	ID string

	FromEntityID string
	ToEntityID   string
	Type         relationship.Type

	ImportAlias    string
	ImportType     relationship.ImportType
	IsNamespace    bool
	IsReExport     bool
	ReExportTarget string
	Language       string
	SymbolKind     string
	ModulePath     string
	ResolutionState relationship.ResolutionState
	ImportDepth    int
	Confidence     float64
	Scope          relationship.Scope

	FirstSeenAt *string // ISO-8601 or nil
	LastSeenAt  *string // ISO-8601 or nil

	Metadata string // stable-stringified JSON
}

// Project flattens a normalized relationship into its persistence row
// (spec.md §4.8 step 3).
func Project(e *relationship.Relationship) Row {
	return Row{
		ID:              e.ID,
		FromEntityID:    e.FromEntityID,
		ToEntityID:      e.ToEntityID,
		Type:            e.Type,
		ImportAlias:     e.ImportAlias,
		ImportType:      e.ImportType,
		IsNamespace:     e.IsNamespace,
		IsReExport:      e.IsReExport,
		ReExportTarget:  e.ReExportTarget,
		Language:        e.Language,
		SymbolKind:      e.SymbolKind,
		ModulePath:      e.ModulePath,
		ResolutionState: e.ResolutionState,
		ImportDepth:     e.ImportDepth,
		Confidence:      e.Confidence,
		Scope:           e.Scope,
		FirstSeenAt:     isoOrNil(e.FirstSeenAt),
		LastSeenAt:      isoOrNil(e.LastSeenAt),
		Metadata:        relationship.StableStringify(e.Metadata),
	}
}

func isoOrNil(unixSeconds int64) *string {
	if unixSeconds == 0 {
		return nil
	}
	s := time.Unix(unixSeconds, 0).UTC().Format(time.RFC3339)
	return &s
}

// Snapshot is the minimal reconstruction input for compute_backfill_update:
// whatever a persisted row already holds (top-level fields plus whatever
// survives in its metadata blob), reconstructed into an edge-shaped value
// before re-running C7.
type Snapshot struct {
	FromEntityID string
	ToEntityID   string
	Type         relationship.Type
	Row          Row
	Metadata     map[string]any
}

// BackfillUpdate is the {payload, changedFields} result of
// compute_backfill_update, or nil when no write is needed.
type BackfillUpdate struct {
	Payload       Row
	ChangedFields []string
}

// ComputeBackfillUpdate implements spec.md §4.8's compute_backfill_update:
//
//  1. Reconstruct a minimal edge from the snapshot.
//  2. Run C7.
//  3. Project to the flat row (expected).
//  4. Project the snapshot similarly (existing).
//  5. Compute changedFields; compare metadata by stable-stringified JSON.
//  6. If changedFields is empty, return nil (no write).
func ComputeBackfillUpdate(snap Snapshot, n *normalize.Normalizer) *BackfillUpdate {
	reconstructed := &relationship.Relationship{
		FromEntityID: snap.FromEntityID,
		ToEntityID:   snap.ToEntityID,
		Type:         snap.Type,
		Metadata:     mergeMetadata(snap.Row, snap.Metadata),
	}
	reconstructed.ImportAlias = snap.Row.ImportAlias
	reconstructed.ImportType = snap.Row.ImportType
	reconstructed.IsNamespace = snap.Row.IsNamespace
	reconstructed.IsReExport = snap.Row.IsReExport
	reconstructed.ReExportTarget = snap.Row.ReExportTarget
	reconstructed.Language = snap.Row.Language
	reconstructed.SymbolKind = snap.Row.SymbolKind
	reconstructed.ModulePath = snap.Row.ModulePath
	reconstructed.ResolutionState = snap.Row.ResolutionState
	reconstructed.ImportDepth = snap.Row.ImportDepth
	reconstructed.Confidence = snap.Row.Confidence
	reconstructed.Scope = snap.Row.Scope
	for _, ts := range []struct {
		src *string
		dst *int64
	}{{snap.Row.FirstSeenAt, &reconstructed.FirstSeenAt}, {snap.Row.LastSeenAt, &reconstructed.LastSeenAt}} {
		if ts.src == nil {
			continue
		}
		if t, err := time.Parse(time.RFC3339, *ts.src); err == nil {
			*ts.dst = t.Unix()
		}
	}

	normalized := n.Normalize(reconstructed)
	expected := Project(normalized)
	existing := snap.Row

	changed := diffFields(expected, existing)
	if len(changed) == 0 {
		return nil
	}
	return &BackfillUpdate{Payload: expected, ChangedFields: changed}
}

func mergeMetadata(row Row, extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// diffFields computes the keys where expected[k] != existing[k]; metadata
// is compared by stable-stringified JSON (already the Row representation).
func diffFields(expected, existing Row) []string {
	var changed []string
	cmp := func(name string, a, b any) {
		if a != b {
			changed = append(changed, name)
		}
	}
	cmp("id", expected.ID, existing.ID)
	cmp("importAlias", expected.ImportAlias, existing.ImportAlias)
	cmp("importType", expected.ImportType, existing.ImportType)
	cmp("isNamespace", expected.IsNamespace, existing.IsNamespace)
	cmp("isReExport", expected.IsReExport, existing.IsReExport)
	cmp("reExportTarget", expected.ReExportTarget, existing.ReExportTarget)
	cmp("language", expected.Language, existing.Language)
	cmp("symbolKind", expected.SymbolKind, existing.SymbolKind)
	cmp("modulePath", expected.ModulePath, existing.ModulePath)
	cmp("resolutionState", expected.ResolutionState, existing.ResolutionState)
	cmp("importDepth", expected.ImportDepth, existing.ImportDepth)
	cmp("confidence", expected.Confidence, existing.Confidence)
	cmp("scope", expected.Scope, existing.Scope)
	cmp("metadata", expected.Metadata, existing.Metadata)

	if (expected.FirstSeenAt == nil) != (existing.FirstSeenAt == nil) ||
		(expected.FirstSeenAt != nil && existing.FirstSeenAt != nil && *expected.FirstSeenAt != *existing.FirstSeenAt) {
		changed = append(changed, "firstSeenAt")
	}
	if (expected.LastSeenAt == nil) != (existing.LastSeenAt == nil) ||
		(expected.LastSeenAt != nil && existing.LastSeenAt != nil && *expected.LastSeenAt != *existing.LastSeenAt) {
		changed = append(changed, "lastSeenAt")
	}

	return changed
}

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

// Package confidence implements C5: score(relType, toId, fromFileRel,
// usedTypeChecker?, isExported?, nameLength?, importDepth?) -> [0,1].
package confidence

import (
	"github.com/kraklabs/relgraph/pkg/policy"
	"github.com/kraklabs/relgraph/pkg/relationship"
)

// Resolution describes which resolution tier produced an edge, feeding the
// "+0.10 if resolution = type-checker; +0.05 if via-import" adjustment.
type Resolution string

const (
	ResolutionDirect      Resolution = "direct"
	ResolutionViaImport   Resolution = "via-import"
	ResolutionTypeChecker Resolution = "type-checker"
	ResolutionHeuristic   Resolution = "heuristic"
)

// Input bundles everything the scorer needs to produce a confidence value.
type Input struct {
	Type            relationship.Type
	State           relationship.ResolutionState
	Scope           relationship.Scope
	Resolution      Resolution
	NameLength      int
	IsStopOrShort   bool
	ImportDepth     int
}

// Score implements spec.md §4.5 in full: a base default by (type, state),
// then multiplicative, clamped adjustments.
func Score(in Input, pol policy.Policy) float64 {
	base := baseDefault(in.Type, in.State)

	score := base
	if in.Resolution == ResolutionTypeChecker {
		score *= 1.10
	} else if in.Resolution == ResolutionViaImport {
		score *= 1.05
	}
	if in.Scope == relationship.ScopeExternal {
		score *= 0.90
	}
	if in.ImportDepth >= 2 {
		score *= 0.90
		extraHops := in.ImportDepth - 2
		for i := 0; i < extraHops; i++ {
			score *= 0.95
		}
	}
	if in.IsStopOrShort || (in.NameLength > 0 && in.NameLength < pol.ASTMinNameLength) {
		score *= 0.90
	}

	return clamp01(score)
}

// baseDefault implements the unconditional defaults from spec.md §4.5:
// CONTAINS/DEFINES: 0.95; resolved: 0.9; partial: 0.6; unresolved: 0.4.
func baseDefault(t relationship.Type, state relationship.ResolutionState) float64 {
	if t == relationship.Contains || t == relationship.Defines {
		return 0.95
	}
	switch state {
	case relationship.Resolved:
		return 0.9
	case relationship.Partial:
		return 0.6
	case relationship.Unresolved:
		return 0.4
	default:
		return 0.4
	}
}

// DropsBelowFloor reports whether an inferred edge of this type should be
// dropped for falling below the configured MinInferredConfidence. Only the
// inferred types call this out explicitly in spec.md §4.5: REFERENCES,
// READS/WRITES targeting placeholders, DEPENDS_ON.
func DropsBelowFloor(t relationship.Type, targetIsPlaceholder bool, score float64, pol policy.Policy) bool {
	inferred := t == relationship.References || t == relationship.DependsOn ||
		((t == relationship.Reads || t == relationship.Writes) && targetIsPlaceholder)
	if !inferred {
		return false
	}
	return score < pol.MinInferredConfidence
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

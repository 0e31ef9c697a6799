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

// Package relationship defines the central Relationship entity, its
// structured target references, and the deterministic identity scheme that
// makes re-ingestion of the same source idempotent.
package relationship

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Type enumerates the kinds of edges the pipeline produces.
type Type string

const (
	Imports     Type = "IMPORTS"
	Exports     Type = "EXPORTS"
	Contains    Type = "CONTAINS"
	Defines     Type = "DEFINES"
	Calls       Type = "CALLS"
	References  Type = "REFERENCES"
	Reads       Type = "READS"
	Writes      Type = "WRITES"
	TypeUses    Type = "TYPE_USES"
	DependsOn   Type = "DEPENDS_ON"
	Extends     Type = "EXTENDS"
	Implements  Type = "IMPLEMENTS"
	Overrides   Type = "OVERRIDES"
	Throws      Type = "THROWS"
	ReturnsType Type = "RETURNS_TYPE"
	ParamType   Type = "PARAM_TYPE"
	Tests       Type = "TESTS"
)

// structural reports whether edges of this type are handled by the
// normalizer's structural path (IMPORTS/EXPORTS) and therefore re-prefixed
// to "time-rel_" once normalized, per spec.md §4.1.
func (t Type) structural() bool {
	return t == Imports || t == Exports
}

// ImportType enumerates the shapes an IMPORTS/EXPORTS edge can take.
type ImportType string

const (
	ImportDefault    ImportType = "default"
	ImportNamed      ImportType = "named"
	ImportNamespace  ImportType = "namespace"
	ImportWildcard   ImportType = "wildcard"
	ImportSideEffect ImportType = "side-effect"
)

// ResolutionState is the tri-state authoritative over the boolean Resolved.
type ResolutionState string

const (
	Resolved   ResolutionState = "resolved"
	Partial    ResolutionState = "partial"
	Unresolved ResolutionState = "unresolved"
)

// Scope classifies where a resolved (or placeholder) target lives relative
// to the edge's source file.
type Scope string

const (
	ScopeLocal    Scope = "local"
	ScopeImported Scope = "imported"
	ScopeExternal Scope = "external"
	ScopeUnknown  Scope = "unknown"
)

// RefKind enumerates the shapes TargetRef can take.
type RefKind string

const (
	RefEntity     RefKind = "entity"
	RefFileSymbol RefKind = "fileSymbol"
	RefExternal   RefKind = "external"
	RefPlaceholder RefKind = "placeholder"
)

// TargetRef is the structured sum type spec.md §9 asks for in place of
// stringly-typed id handling: Entity(id) | FileSymbol(file, name) |
// External(name) | Placeholder(kind, name).
type TargetRef struct {
	Kind RefKind

	// RefEntity
	ID string

	// RefFileSymbol
	File   string
	Symbol string

	// RefExternal / RefPlaceholder
	Name string

	// RefPlaceholder only: a kind qualifier, e.g. "class", "interface",
	// "function", "typeAlias".
	PlaceholderKind string
}

// CanonicalKey derives the portion of an edge's identity that depends on its
// target, per spec.md §4.1:
//
//  1. fileSymbol  -> "file:<file>:<symbol>"
//  2. external    -> "external:<name>"
//  3. placeholder -> the placeholder string, used literally
//  4. otherwise   -> the raw entity id
func (r TargetRef) CanonicalKey(rawToEntityID string) string {
	switch r.Kind {
	case RefFileSymbol:
		return "file:" + r.File + ":" + r.Symbol
	case RefExternal:
		return "external:" + r.Name
	case RefPlaceholder:
		if r.PlaceholderKind != "" {
			return r.PlaceholderKind + ":" + r.Name
		}
		return "file:" + r.File + ":" + r.Name
	case RefEntity:
		if r.ID != "" {
			return r.ID
		}
	}
	if rawToEntityID != "" {
		return rawToEntityID
	}
	return ""
}

// ParseTargetRef reconstructs a TargetRef from a raw toEntityId string,
// recognizing the placeholder forms spec.md §3 documents. This is the
// inverse used by invariant 7 ("placeholder round-trip"): for every
// placeholder form, ToRef can be derived, and the canonical key derived
// from it matches the one derived from the placeholder string directly.
func ParseTargetRef(toEntityID string) TargetRef {
	switch {
	case strings.HasPrefix(toEntityID, "external:"):
		return TargetRef{Kind: RefExternal, Name: strings.TrimPrefix(toEntityID, "external:")}
	case strings.HasPrefix(toEntityID, "file:"):
		rest := strings.TrimPrefix(toEntityID, "file:")
		if idx := strings.LastIndex(rest, ":"); idx >= 0 {
			return TargetRef{Kind: RefFileSymbol, File: rest[:idx], Symbol: rest[idx+1:]}
		}
		return TargetRef{Kind: RefEntity, ID: toEntityID}
	case strings.HasPrefix(toEntityID, "class:"):
		return TargetRef{Kind: RefPlaceholder, PlaceholderKind: "class", Name: strings.TrimPrefix(toEntityID, "class:")}
	case strings.HasPrefix(toEntityID, "interface:"):
		return TargetRef{Kind: RefPlaceholder, PlaceholderKind: "interface", Name: strings.TrimPrefix(toEntityID, "interface:")}
	case strings.HasPrefix(toEntityID, "function:"):
		return TargetRef{Kind: RefPlaceholder, PlaceholderKind: "function", Name: strings.TrimPrefix(toEntityID, "function:")}
	case strings.HasPrefix(toEntityID, "typeAlias:"):
		return TargetRef{Kind: RefPlaceholder, PlaceholderKind: "typeAlias", Name: strings.TrimPrefix(toEntityID, "typeAlias:")}
	case strings.HasPrefix(toEntityID, "sym:"), strings.HasPrefix(toEntityID, "dir:"), strings.HasPrefix(toEntityID, "entity:"):
		return TargetRef{Kind: RefEntity, ID: toEntityID}
	default:
		return TargetRef{Kind: RefEntity, ID: toEntityID}
	}
}

// Relationship is the central core entity described in spec.md §3.
type Relationship struct {
	ID           string
	FromEntityID string
	ToEntityID   string
	Type         Type

	Created      int64 // unix seconds
	LastModified int64
	Version      int

	Confidence float64

	Resolved        bool
	ResolutionState ResolutionState

	// Structural fields (IMPORTS/EXPORTS)
	ImportAlias   string
	ImportType    ImportType
	IsNamespace   bool
	IsReExport    bool
	ReExportTarget string
	ModulePath    string
	ImportDepth   int

	// Code-edge fields
	Language   string
	SymbolKind string
	Scope      Scope

	Metadata map[string]any

	ToRef   *TargetRef
	FromRef *TargetRef

	FirstSeenAt int64
	LastSeenAt  int64
}

// CanonicalRelationshipID implements C1's canonical_relationship_id(fromId,
// {toEntityId, type}) -> id operation: id = rel_<sha1(fromId|type|key)>,
// re-prefixed to time-rel_<hex> for structural (IMPORTS/EXPORTS) edges.
func CanonicalRelationshipID(fromID string, toEntityID string, toRef *TargetRef, t Type) string {
	var key string
	if toRef != nil {
		key = toRef.CanonicalKey(toEntityID)
	} else {
		key = ParseTargetRef(toEntityID).CanonicalKey(toEntityID)
	}

	h := sha1.New()
	h.Write([]byte(fromID))
	h.Write([]byte("|"))
	h.Write([]byte(string(t)))
	h.Write([]byte("|"))
	h.Write([]byte(key))
	hexDigest := hex.EncodeToString(h.Sum(nil))

	if t.structural() {
		return "time-rel_" + hexDigest
	}
	return "rel_" + hexDigest
}

// DataFlowID implements C1's dataflow grouping id used by READS/WRITES:
// df_<first-12-hex of sha1(file|owner-symbol-id|variable-name)>. The same
// variable in the same enclosing symbol always yields the same id, enabling
// downstream correlation across reads and writes.
func DataFlowID(file, ownerSymbolID, variableName string) string {
	h := sha1.New()
	h.Write([]byte(file))
	h.Write([]byte("|"))
	h.Write([]byte(ownerSymbolID))
	h.Write([]byte("|"))
	h.Write([]byte(variableName))
	full := hex.EncodeToString(h.Sum(nil))
	return "df_" + full[:12]
}

// EntityFileID builds the "file:<relPath>" entity id form from spec.md §3.
func EntityFileID(relPath string) string { return "file:" + relPath }

// EntityDirID builds the "dir:<relPath>" entity id form.
func EntityDirID(relPath string) string { return "dir:" + relPath }

// EntitySymbolID builds the "sym:<relPath>#<name>@<location?>" entity id
// form. Location is optional; pass "" to omit it.
func EntitySymbolID(relPath, name, location string) string {
	id := "sym:" + relPath + "#" + name
	if location != "" {
		id += "@" + location
	}
	return id
}

// PlaceholderFileSymbol builds the "file:<relPath>:<name>" placeholder form:
// a known target file and exported name not yet resolved to a symbol id.
func PlaceholderFileSymbol(relPath, name string) string {
	return "file:" + relPath + ":" + name
}

// PlaceholderExternal builds the "external:<name>" name-only placeholder.
func PlaceholderExternal(name string) string { return "external:" + name }

// PlaceholderKindQualified builds a kind-qualified placeholder such as
// "class:<name>", "interface:<name>", "function:<name>", "typeAlias:<name>".
func PlaceholderKindQualified(kind, name string) string { return kind + ":" + name }

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

// Package builder implements C6, the Relationship Builder: the largest
// component, walking pkg/parse's per-file output into the full typed-edge
// set spec.md §4.6 names. It leans on C2 (symbolindex) for in-repo
// resolution, C3 (resolve) for import/export-depth bookkeeping, C4
// (typecheck) as the paid escalation tier, C5 (confidence) for scoring
// every edge it emits, and C9 (policy) for noise suppression. C7/C8/C10
// are applied downstream, one relationship at a time, by the caller.
package builder

import (
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/kraklabs/relgraph/pkg/confidence"
	"github.com/kraklabs/relgraph/pkg/parse"
	"github.com/kraklabs/relgraph/pkg/policy"
	"github.com/kraklabs/relgraph/pkg/relationship"
	"github.com/kraklabs/relgraph/pkg/resolve"
	"github.com/kraklabs/relgraph/pkg/sigparse"
	"github.com/kraklabs/relgraph/pkg/symbolindex"
	"github.com/kraklabs/relgraph/pkg/typecheck"
)

// Builder accumulates FileResults from pkg/parse across an entire repo
// walk and, once every file has been registered, emits the relationship
// set. Two passes are required because CALLS/TYPE_USES/EXTENDS resolution
// is repo-wide: a symbol defined in file B can only be linked from file A
// once B's declarations have been indexed (same two-pass shape as the
// teacher's CallResolver.BuildIndex + ResolveCalls).
type Builder struct {
	Policy   policy.Policy
	Symbols  *symbolindex.Index
	Resolver *resolve.Resolver
	Checker  *typecheck.Facade // nil if type-checking is unavailable
	Budget   *typecheck.Budget

	mu    sync.Mutex
	files map[string]*parse.FileResult

	// dirPackage maps a directory (the Go notion of "package") to its
	// declared package name, built incrementally as files register.
	dirPackage map[string]string
}

// New creates a Builder wired with the C2-C5/C9 collaborators. checker may
// be nil when no go.mod / package load succeeded; budget may be nil to
// disable the type-checker escalation tier entirely.
func New(pol policy.Policy, checker *typecheck.Facade, budget *typecheck.Budget) *Builder {
	return &Builder{
		Policy:     pol,
		Symbols:    symbolindex.New(),
		Resolver:   resolve.New(),
		Checker:    checker,
		Budget:     budget,
		files:      make(map[string]*parse.FileResult),
		dirPackage: make(map[string]string),
	}
}

// AddFile registers one parsed file's declarations into the repo-wide
// indexes (C2/C3) and retains the FileResult for the emission pass. This
// must be called for every file before Build.
func (b *Builder) AddFile(fr *parse.FileResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.files[fr.Path] = fr
	dir := path.Dir(fr.Path)
	if fr.PackageName != "" {
		b.dirPackage[dir] = fr.PackageName
	}

	for _, d := range fr.Declarations {
		if d.IsAnonymous {
			continue
		}
		simple := d.Name
		if d.ReceiverType != "" {
			if idx := strings.LastIndex(d.Name, "."); idx >= 0 {
				simple = d.Name[idx+1:]
			}
		}
		b.Symbols.Add(fr.Path, simple, symbolindex.Entry{
			ID:         relationship.EntitySymbolID(fr.Path, simple, strconv.Itoa(d.StartLine)),
			Path:       fr.Path,
			IsExported: isExportedGoName(simple),
		})
		if isExportedGoName(simple) {
			b.Resolver.AddDeclaredExport(fr.Path, simple)
		}
	}
	for _, t := range fr.Types {
		b.Symbols.Add(fr.Path, t.Name, symbolindex.Entry{
			ID:         relationship.EntitySymbolID(fr.Path, t.Name, strconv.Itoa(t.StartLine)),
			Path:       fr.Path,
			IsExported: isExportedGoName(t.Name),
		})
		if isExportedGoName(t.Name) {
			b.Resolver.AddDeclaredExport(fr.Path, t.Name)
		}
	}
}

func isExportedGoName(name string) bool {
	if name == "" {
		return false
	}
	r := rune(name[0])
	return r >= 'A' && r <= 'Z'
}

// Result is the emission pass's output: every relationship built plus a
// tally of how many were suppressed by policy (spec.md §4.9).
type Result struct {
	Relationships []*relationship.Relationship
	Suppressed    int
}

// Build performs the emission pass over every file registered via AddFile,
// producing CONTAINS/DEFINES, IMPORTS/EXPORTS, CALLS (aggregated per
// (fromId, toId) with companion REFERENCES and imported-scope DEPENDS_ON),
// EXTENDS, TYPE_USES, PARAM_TYPE, RETURNS_TYPE, and their DEPENDS_ON
// roll-ups (spec.md §4.6). now is the build timestamp applied to
// Created/LastModified/FirstSeenAt/LastSeenAt; the caller supplies it since
// this package does not call time.Now directly (keeps the builder
// deterministic and testable).
func (b *Builder) Build(now int64) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*relationship.Relationship
	suppressed := 0
	emit := func(r *relationship.Relationship) {
		if r == nil {
			return
		}
		isPlaceholder := r.ToRef != nil && (r.ToRef.Kind == relationship.RefPlaceholder || r.ToRef.Kind == relationship.RefExternal)
		if confidence.DropsBelowFloor(r.Type, isPlaceholder, r.Confidence, b.Policy) {
			suppressed++
			return
		}
		r.Created, r.LastModified, r.FirstSeenAt, r.LastSeenAt = now, now, now, now
		r.Version = 1
		out = append(out, r)
	}

	for _, fr := range b.files {
		fileID := relationship.EntityFileID(fr.Path)

		b.emitContainsDefines(fr, fileID, emit)
		b.emitImports(fr, fileID, emit)
		b.emitHeritage(fr, emit)
		b.emitCalls(fr, emit)
		b.emitParamTypesAndDependsOn(fr, emit, &suppressed)
		b.emitReturnsType(fr, emit, &suppressed)
		b.emitTypeUses(fr, emit, &suppressed)
	}

	return Result{Relationships: out, Suppressed: suppressed}
}

func (b *Builder) emitContainsDefines(fr *parse.FileResult, fileID string, emit func(*relationship.Relationship)) {
	for _, d := range fr.Declarations {
		if d.IsAnonymous {
			continue
		}
		simple := simpleNameOf(d)
		symID := relationship.EntitySymbolID(fr.Path, simple, strconv.Itoa(d.StartLine))
		emit(b.containsOrDefines(fileID, symID, relationship.Contains, "function", fr.Path))
		emit(b.containsOrDefines(fileID, symID, relationship.Defines, "function", fr.Path))
	}
	for _, t := range fr.Types {
		symID := relationship.EntitySymbolID(fr.Path, t.Name, strconv.Itoa(t.StartLine))
		emit(b.containsOrDefines(fileID, symID, relationship.Contains, t.Kind, fr.Path))
		emit(b.containsOrDefines(fileID, symID, relationship.Defines, t.Kind, fr.Path))
	}
}

func (b *Builder) containsOrDefines(fileID, symID string, t relationship.Type, symbolKind, filePath string) *relationship.Relationship {
	ref := relationship.TargetRef{Kind: relationship.RefEntity, ID: symID}
	score := confidence.Score(confidence.Input{
		Type: t, State: relationship.Resolved, Scope: relationship.ScopeLocal, Resolution: confidence.ResolutionDirect,
	}, b.Policy)
	r := &relationship.Relationship{
		FromEntityID: fileID, ToEntityID: symID, Type: t,
		ResolutionState: relationship.Resolved, Resolved: true, Scope: relationship.ScopeLocal,
		Confidence: score, SymbolKind: symbolKind, Language: "go",
		Metadata: map[string]any{"filePath": filePath},
	}
	r.ID = relationship.CanonicalRelationshipID(fileID, symID, &ref, t)
	return r
}

func simpleNameOf(d parse.Declaration) string {
	if d.ReceiverType == "" {
		return d.Name
	}
	if idx := strings.LastIndex(d.Name, "."); idx >= 0 {
		return d.Name[idx+1:]
	}
	return d.Name
}

func (b *Builder) emitImports(fr *parse.FileResult, fileID string, emit func(*relationship.Relationship)) {
	for _, imp := range fr.Imports {
		importType := relationship.ImportDefault
		switch imp.Alias {
		case ".":
			importType = relationship.ImportNamespace
		case "_":
			importType = relationship.ImportSideEffect
		case "":
			importType = relationship.ImportNamed
		default:
			importType = relationship.ImportNamed
		}

		targetFile := resolve.ImportPathToFileRel(imp.ImportPath, b.knownDirs(), b.dirPackage)
		var ref relationship.TargetRef
		toEntity := ""
		state := relationship.Unresolved
		scope := relationship.ScopeExternal
		if targetFile != "" {
			toEntity = relationship.EntityFileID(targetFile)
			ref = relationship.TargetRef{Kind: relationship.RefEntity, ID: toEntity}
			state = relationship.Resolved
			scope = relationship.ScopeImported
		} else {
			ref = relationship.TargetRef{Kind: relationship.RefExternal, Name: imp.ImportPath}
			toEntity = ref.CanonicalKey("")
		}

		score := confidence.Score(confidence.Input{
			Type: relationship.Imports, State: state, Scope: scope, Resolution: confidence.ResolutionDirect,
		}, b.Policy)

		r := &relationship.Relationship{
			FromEntityID: fileID, ToEntityID: toEntity, Type: relationship.Imports,
			ImportAlias: imp.Alias, ImportType: importType, IsNamespace: importType == relationship.ImportNamespace,
			ModulePath: resolve.NormalizeModulePath(imp.ImportPath), ResolutionState: state,
			Resolved: state == relationship.Resolved, Scope: scope, Confidence: score,
			SymbolKind: "module", Language: "go", ToRef: &ref,
			Metadata: map[string]any{"filePath": fr.Path, "line": imp.StartLine},
		}
		r.ID = relationship.CanonicalRelationshipID(fileID, toEntity, &ref, relationship.Imports)
		emit(r)

		if targetFile != "" {
			exportsBack := &relationship.Relationship{
				FromEntityID: toEntity, ToEntityID: fileID, Type: relationship.Exports,
				ResolutionState: relationship.Resolved, Resolved: true, Scope: relationship.ScopeLocal,
				Confidence: confidence.Score(confidence.Input{Type: relationship.Exports, State: relationship.Resolved, Scope: relationship.ScopeLocal, Resolution: confidence.ResolutionDirect}, b.Policy),
				SymbolKind: "module", Language: "go",
				Metadata: map[string]any{"filePath": targetFile},
			}
			fileRef := relationship.TargetRef{Kind: relationship.RefEntity, ID: fileID}
			exportsBack.ID = relationship.CanonicalRelationshipID(toEntity, fileID, &fileRef, relationship.Exports)
			emit(exportsBack)
		}
	}
}

func (b *Builder) knownDirs() []string {
	dirs := make([]string, 0, len(b.dirPackage))
	for d := range b.dirPackage {
		dirs = append(dirs, d)
	}
	return dirs
}

// emitHeritage converts parsed embedding/inheritance declarations into
// EXTENDS edges (spec.md §4.6). Go embedding is structural rather than
// nominal, but the parse layer already lexically distinguishes embedded
// fields (no field name) from named ones (see pkg/parse/go.go), so this
// stays a direct translation rather than a type-checker round trip.
func (b *Builder) emitHeritage(fr *parse.FileResult, emit func(*relationship.Relationship)) {
	for _, h := range fr.Heritage {
		fromID := b.localSymbolID(fr.Path, h.TypeName)
		entry, resolved, ambiguous, _ := b.Symbols.Resolve(fr.Path, h.BaseName)
		var ref relationship.TargetRef
		toID := ""
		state := relationship.Unresolved
		scope := relationship.ScopeExternal
		if resolved && !ambiguous {
			toID = entry.ID
			ref = relationship.TargetRef{Kind: relationship.RefEntity, ID: toID}
			state = relationship.Resolved
			scope = relationship.ScopeImported
			if entry.Path == fr.Path {
				scope = relationship.ScopeLocal
			}
		} else {
			ref = relationship.TargetRef{Kind: relationship.RefPlaceholder, PlaceholderKind: "class", Name: h.BaseName}
			toID = ref.CanonicalKey("")
		}
		score := confidence.Score(confidence.Input{
			Type: relationship.Extends, State: state, Scope: scope, Resolution: confidence.ResolutionDirect,
			IsStopOrShort: b.Policy.IsNoisyName(h.BaseName),
		}, b.Policy)
		r := &relationship.Relationship{
			FromEntityID: fromID, ToEntityID: toID, Type: relationship.Extends,
			ResolutionState: state, Resolved: state == relationship.Resolved, Scope: scope,
			Confidence: score, Language: "go", ToRef: &ref,
			Metadata: map[string]any{"filePath": fr.Path, "line": h.Line},
		}
		r.ID = relationship.CanonicalRelationshipID(fromID, toID, &ref, relationship.Extends)
		emit(r)
	}
}

func (b *Builder) localSymbolID(filePath, name string) string {
	if e, ok := b.Symbols.Local(filePath, name); ok {
		return e.ID
	}
	return relationship.EntitySymbolID(filePath, name, "")
}

// callAgg accumulates repeated call sites from the same caller symbol to
// the same target before emission, per spec.md §4.6's aggregation rule:
// "retain earliest line, keep occurrencesScan = count."
type callAgg struct {
	ref            relationship.TargetRef
	toID           string
	state          relationship.ResolutionState
	scope          relationship.Scope
	resolutionTier confidence.Resolution
	importDepth    int
	calleeName     string
	accessPath     string
	firstLine      int
	firstCol       int
	arity          int
	count          int
}

// emitCalls resolves every call site found by pkg/parse via a 3-tier
// strategy mirroring the teacher's CallResolver: local (same-file, direct
// id lookup), symbol-index cross-file (C2, disambiguated by directory
// proximity), then type-checker escalation (C4) when policy allows it and
// the first two tiers leave it unresolved or ambiguous. Anything left over becomes an
// external-call placeholder rather than being dropped (spec.md §4.2).
//
// Resolved call sites are aggregated per (fromId, toId) before emission
// (spec.md §4.6/§4.6 aggregation rules, invariant 8, scenario S2): repeated
// calls to the same target from the same symbol collapse into one CALLS
// edge carrying occurrencesScan, plus a companion REFERENCES edge and,
// for imported scope, a rolled-up DEPENDS_ON edge (spec.md:142,161).
func (b *Builder) emitCalls(fr *parse.FileResult, emit func(*relationship.Relationship)) {
	declByName := make(map[string]parse.Declaration, len(fr.Declarations))
	for _, d := range fr.Declarations {
		declByName[simpleNameOf(d)] = d
	}

	type aggKey struct{ fromID, toID string }
	agg := make(map[aggKey]*callAgg)
	var order []aggKey

	for _, call := range fr.Calls {
		fromID := b.localSymbolID(fr.Path, call.CallerName)

		var ref relationship.TargetRef
		toID := ""
		state := relationship.Unresolved
		scope := relationship.ScopeExternal
		resolutionTier := confidence.ResolutionDirect
		importDepth := 0

		if localDecl, ok := declByName[call.Callee]; ok && localDecl.Name != call.CallerName {
			toID = relationship.EntitySymbolID(fr.Path, call.Callee, strconv.Itoa(localDecl.StartLine))
			ref = relationship.TargetRef{Kind: relationship.RefEntity, ID: toID}
			state = relationship.Resolved
			scope = relationship.ScopeLocal
		} else if entry, resolved, ambiguous, _ := b.Symbols.Resolve(fr.Path, call.Callee); resolved && !ambiguous {
			toID = entry.ID
			ref = relationship.TargetRef{Kind: relationship.RefEntity, ID: toID}
			state = relationship.Resolved
			scope = relationship.ScopeImported
			resolutionTier = confidence.ResolutionViaImport
			importDepth = 1
		} else if b.Checker != nil && b.Budget != nil && b.Budget.ShouldUse(typecheck.Context{Kind: typecheck.KindCall, Ambiguous: ambiguous, NameLength: len(call.Callee)}) && b.Budget.Spend() {
			if resolvedSym, err := b.Checker.GetModuleExportMap(fr.Path); err == nil {
				if sym, ok := resolvedSym[call.Callee]; ok {
					toID = relationship.EntitySymbolID(sym.FileRel, sym.Name, "")
					ref = relationship.TargetRef{Kind: relationship.RefEntity, ID: toID}
					state = relationship.Resolved
					scope = relationship.ScopeImported
					resolutionTier = confidence.ResolutionTypeChecker
				}
			}
		}

		if toID == "" {
			ref = relationship.TargetRef{Kind: relationship.RefExternal, Name: call.CalleeFull}
			if call.CalleeFull == "" {
				ref.Name = call.Callee
			}
			toID = ref.CanonicalKey("")
		}

		key := aggKey{fromID, toID}
		a, ok := agg[key]
		if !ok {
			a = &callAgg{
				ref: ref, toID: toID, state: state, scope: scope,
				resolutionTier: resolutionTier, importDepth: importDepth,
				calleeName: call.Callee, accessPath: call.CalleeFull,
				firstLine: call.Line, firstCol: call.Col, arity: call.Arity,
			}
			agg[key] = a
			order = append(order, key)
		} else if call.Line < a.firstLine {
			a.firstLine = call.Line
			a.firstCol = call.Col
			a.arity = call.Arity
		}
		a.count++
		if a.accessPath == "" {
			a.accessPath = call.CalleeFull
		}
	}

	for _, key := range order {
		a := agg[key]

		score := confidence.Score(confidence.Input{
			Type: relationship.Calls, State: a.state, Scope: a.scope, Resolution: a.resolutionTier,
			NameLength: len(a.calleeName), IsStopOrShort: b.Policy.IsNoisyName(a.calleeName), ImportDepth: a.importDepth,
		}, b.Policy)
		r := &relationship.Relationship{
			FromEntityID: key.fromID, ToEntityID: a.toID, Type: relationship.Calls,
			ResolutionState: a.state, Resolved: a.state == relationship.Resolved, Scope: a.scope,
			Confidence: score, Language: "go", ToRef: &a.ref, ImportDepth: a.importDepth,
			Metadata: map[string]any{
				"filePath": fr.Path, "line": a.firstLine, "col": a.firstCol,
				"arity": a.arity, "occurrencesScan": a.count, "accessPath": a.accessPath,
			},
		}
		r.ID = relationship.CanonicalRelationshipID(key.fromID, a.toID, &a.ref, relationship.Calls)
		emit(r)

		refScore := confidence.Score(confidence.Input{
			Type: relationship.References, State: a.state, Scope: a.scope, Resolution: a.resolutionTier,
			NameLength: len(a.calleeName), IsStopOrShort: b.Policy.IsNoisyName(a.calleeName), ImportDepth: a.importDepth,
		}, b.Policy)
		refRel := &relationship.Relationship{
			FromEntityID: key.fromID, ToEntityID: a.toID, Type: relationship.References,
			ResolutionState: a.state, Resolved: a.state == relationship.Resolved, Scope: a.scope,
			Confidence: refScore, Language: "go", ToRef: &a.ref, ImportDepth: a.importDepth,
			Metadata: map[string]any{
				"filePath": fr.Path, "line": a.firstLine, "col": a.firstCol,
				"occurrencesScan": a.count, "accessPath": a.accessPath, "via": "call",
			},
		}
		refRel.ID = relationship.CanonicalRelationshipID(key.fromID, a.toID, &a.ref, relationship.References)
		emit(refRel)

		if a.scope == relationship.ScopeImported {
			depScore := confidence.Score(confidence.Input{
				Type: relationship.DependsOn, State: a.state, Scope: a.scope, Resolution: a.resolutionTier,
			}, b.Policy)
			depRel := &relationship.Relationship{
				FromEntityID: key.fromID, ToEntityID: a.toID, Type: relationship.DependsOn,
				ResolutionState: a.state, Resolved: a.state == relationship.Resolved, Scope: a.scope,
				Confidence: depScore, Language: "go", ToRef: &a.ref, ImportDepth: a.importDepth,
				Metadata: map[string]any{"filePath": fr.Path, "via": "call"},
			}
			depRel.ID = relationship.CanonicalRelationshipID(key.fromID, a.toID, &a.ref, relationship.DependsOn)
			emit(depRel)
		}
	}
}

// emitParamTypesAndDependsOn derives PARAM_TYPE edges from each
// declaration's signature (via sigparse, the teacher's own signature
// parser) and a companion DEPENDS_ON roll-up per spec.md §4.6: "a
// function that takes a parameter of type T depends on T."
func (b *Builder) emitParamTypesAndDependsOn(fr *parse.FileResult, emit func(*relationship.Relationship), suppressed *int) {
	for _, d := range fr.Declarations {
		if d.IsAnonymous || d.Signature == "" {
			continue
		}
		fromID := b.localSymbolID(fr.Path, simpleNameOf(d))
		params := sigparse.ParseGoParams(d.Signature)
		seenTypes := make(map[string]struct{})
		for _, param := range params {
			if param.Type == "" || param.Type == "func" {
				continue
			}
			if b.Policy.IsNoisyName(param.Type) && len(param.Type) < b.Policy.ASTMinNameLength {
				*suppressed++
				continue
			}

			entry, resolved, ambiguous, _ := b.Symbols.Resolve(fr.Path, param.Type)
			var ref relationship.TargetRef
			toID := ""
			state := relationship.Unresolved
			scope := relationship.ScopeExternal
			if resolved && !ambiguous {
				toID = entry.ID
				ref = relationship.TargetRef{Kind: relationship.RefEntity, ID: toID}
				state = relationship.Resolved
				scope = relationship.ScopeImported
				if entry.Path == fr.Path {
					scope = relationship.ScopeLocal
				}
			} else {
				ref = relationship.TargetRef{Kind: relationship.RefPlaceholder, PlaceholderKind: "type", Name: param.Type}
				toID = ref.CanonicalKey("")
			}

			score := confidence.Score(confidence.Input{
				Type: relationship.ParamType, State: state, Scope: scope, Resolution: confidence.ResolutionDirect,
			}, b.Policy)
			r := &relationship.Relationship{
				FromEntityID: fromID, ToEntityID: toID, Type: relationship.ParamType,
				ResolutionState: state, Resolved: state == relationship.Resolved, Scope: scope,
				Confidence: score, Language: "go", ToRef: &ref,
				Metadata: map[string]any{"filePath": fr.Path, "paramName": param.Name},
			}
			r.ID = relationship.CanonicalRelationshipID(fromID, toID, &ref, relationship.ParamType)
			emit(r)

			if _, dup := seenTypes[toID]; !dup {
				seenTypes[toID] = struct{}{}
				dep := confidence.Score(confidence.Input{
					Type: relationship.DependsOn, State: state, Scope: scope, Resolution: confidence.ResolutionDirect,
				}, b.Policy)
				dr := &relationship.Relationship{
					FromEntityID: fromID, ToEntityID: toID, Type: relationship.DependsOn,
					ResolutionState: state, Resolved: state == relationship.Resolved, Scope: scope,
					Confidence: dep, Language: "go", ToRef: &ref,
					Metadata: map[string]any{"filePath": fr.Path, "via": "paramType"},
				}
				dr.ID = relationship.CanonicalRelationshipID(fromID, toID, &ref, relationship.DependsOn)
				emit(dr)
			}
		}
	}
}

// emitReturnsType derives RETURNS_TYPE edges from each declaration's
// explicit return-type node (spec.md §4.6: "from explicit return-type
// node, or from the type checker when missing"). This builder only has
// the explicit-node source wired; a declaration with no parsed result
// simply yields no RETURNS_TYPE edges, rather than escalating to the
// type checker to infer one.
func (b *Builder) emitReturnsType(fr *parse.FileResult, emit func(*relationship.Relationship), suppressed *int) {
	for _, d := range fr.Declarations {
		if d.IsAnonymous || d.Signature == "" {
			continue
		}
		fromID := b.localSymbolID(fr.Path, simpleNameOf(d))
		resultTypes := sigparse.ExtractResultTypes(d.Signature)
		seen := make(map[string]struct{})
		for _, rt := range resultTypes {
			if rt == "" || rt == "func" {
				continue
			}
			if _, dup := seen[rt]; dup {
				continue
			}
			seen[rt] = struct{}{}

			if b.Policy.IsNoisyName(rt) && len(rt) < b.Policy.ASTMinNameLength {
				*suppressed++
				continue
			}

			entry, resolved, ambiguous, _ := b.Symbols.Resolve(fr.Path, rt)
			var ref relationship.TargetRef
			toID := ""
			state := relationship.Unresolved
			scope := relationship.ScopeExternal
			if resolved && !ambiguous {
				toID = entry.ID
				ref = relationship.TargetRef{Kind: relationship.RefEntity, ID: toID}
				state = relationship.Resolved
				scope = relationship.ScopeImported
				if entry.Path == fr.Path {
					scope = relationship.ScopeLocal
				}
			} else {
				ref = relationship.TargetRef{Kind: relationship.RefPlaceholder, PlaceholderKind: "type", Name: rt}
				toID = ref.CanonicalKey("")
			}

			score := confidence.Score(confidence.Input{
				Type: relationship.ReturnsType, State: state, Scope: scope, Resolution: confidence.ResolutionDirect,
			}, b.Policy)
			r := &relationship.Relationship{
				FromEntityID: fromID, ToEntityID: toID, Type: relationship.ReturnsType,
				ResolutionState: state, Resolved: state == relationship.Resolved, Scope: scope,
				Confidence: score, Language: "go", ToRef: &ref,
				Metadata: map[string]any{"filePath": fr.Path},
			}
			r.ID = relationship.CanonicalRelationshipID(fromID, toID, &ref, relationship.ReturnsType)
			emit(r)
		}
	}
}

// emitTypeUses derives TYPE_USES edges: spec.md §4.6 describes these as
// generated "from every type reference; dedupes return-type and
// parameter-type positions to avoid double-count." This folds the same
// parameter and result type names PARAM_TYPE/RETURNS_TYPE already extract
// into one set per declaration, deduplicated across both positions, and
// emits one TYPE_USES edge per distinct type referenced.
func (b *Builder) emitTypeUses(fr *parse.FileResult, emit func(*relationship.Relationship), suppressed *int) {
	for _, d := range fr.Declarations {
		if d.IsAnonymous || d.Signature == "" {
			continue
		}
		fromID := b.localSymbolID(fr.Path, simpleNameOf(d))

		var typeNames []string
		for _, param := range sigparse.ParseGoParams(d.Signature) {
			typeNames = append(typeNames, param.Type)
		}
		typeNames = append(typeNames, sigparse.ExtractResultTypes(d.Signature)...)

		seen := make(map[string]struct{})
		for _, tn := range typeNames {
			if tn == "" || tn == "func" {
				continue
			}
			if _, dup := seen[tn]; dup {
				continue
			}
			seen[tn] = struct{}{}

			if b.Policy.IsNoisyName(tn) && len(tn) < b.Policy.ASTMinNameLength {
				*suppressed++
				continue
			}

			entry, resolved, ambiguous, _ := b.Symbols.Resolve(fr.Path, tn)
			var ref relationship.TargetRef
			toID := ""
			state := relationship.Unresolved
			scope := relationship.ScopeExternal
			if resolved && !ambiguous {
				toID = entry.ID
				ref = relationship.TargetRef{Kind: relationship.RefEntity, ID: toID}
				state = relationship.Resolved
				scope = relationship.ScopeImported
				if entry.Path == fr.Path {
					scope = relationship.ScopeLocal
				}
			} else {
				ref = relationship.TargetRef{Kind: relationship.RefPlaceholder, PlaceholderKind: "type", Name: tn}
				toID = ref.CanonicalKey("")
			}

			score := confidence.Score(confidence.Input{
				Type: relationship.TypeUses, State: state, Scope: scope, Resolution: confidence.ResolutionDirect,
			}, b.Policy)
			r := &relationship.Relationship{
				FromEntityID: fromID, ToEntityID: toID, Type: relationship.TypeUses,
				ResolutionState: state, Resolved: state == relationship.Resolved, Scope: scope,
				Confidence: score, Language: "go", ToRef: &ref,
				Metadata: map[string]any{"filePath": fr.Path},
			}
			r.ID = relationship.CanonicalRelationshipID(fromID, toID, &ref, relationship.TypeUses)
			emit(r)
		}
	}
}

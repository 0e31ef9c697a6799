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

// Package typecheck implements C4: bounded access to a semantic type
// checker with a per-parse credit budget, plus the real go/types-backed
// facade spec.md §6 names (resolveWithTypeChecker, resolveCallTargetWithChecker,
// getModuleExportMap) for the Go language adapter.
package typecheck

import (
	"context"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"
)

// Context mirrors the heuristic inputs should_use_type_checker consults:
// context kind, import-adjacency, ambiguity, and name length.
type Context struct {
	Kind        ContextKind
	ImportAdjacent bool
	Ambiguous   bool
	NameLength  int
}

// ContextKind enumerates the syntactic positions spec.md §4.4 lists.
type ContextKind string

const (
	KindCall       ContextKind = "call"
	KindDecorator  ContextKind = "decorator"
	KindHeritage   ContextKind = "heritage"
	KindIdentifier ContextKind = "identifier"
	KindProperty   ContextKind = "property"
)

// Budget is the per-parse integer credit counter from spec.md §4.4 and §9
// ("a single integer counter per parse; use an atomic if parses share
// workers"). It is never shared across parses.
type Budget struct {
	credit int64
}

// NewBudget creates a budget with the given starting credit (typically
// policy.Policy.TypeCheckerBudget).
func NewBudget(credit int) *Budget {
	return &Budget{credit: int64(credit)}
}

// Remaining reports the credit left.
func (b *Budget) Remaining() int64 { return atomic.LoadInt64(&b.credit) }

// ShouldUse implements should_use_type_checker(context): true iff credit
// remains and the heuristics recommend consulting the type checker. It does
// not itself decrement credit — call Spend to take one credit per consult.
func (b *Budget) ShouldUse(ctx Context) bool {
	if b.Remaining() <= 0 {
		return false
	}
	switch ctx.Kind {
	case KindCall, KindHeritage, KindDecorator:
		return true
	case KindProperty:
		return ctx.ImportAdjacent || ctx.Ambiguous
	case KindIdentifier:
		return ctx.Ambiguous && ctx.NameLength > 1
	default:
		return false
	}
}

// Spend atomically decrements the credit counter by one. Returns false
// (without decrementing below zero) once exhausted.
func (b *Budget) Spend() bool {
	for {
		cur := atomic.LoadInt64(&b.credit)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&b.credit, cur, cur-1) {
			return true
		}
	}
}

// ResolvedSymbol is the { fileRel, name } | null result shape spec.md §6
// specifies for every facade operation.
type ResolvedSymbol struct {
	FileRel string
	Name    string
}

// Facade is the semantic type-checker facade described in spec.md §6. It
// wraps golang.org/x/tools/go/packages loading of a single module so the
// builder can ask real go/types questions about Go source, instead of
// only lexical heuristics.
type Facade struct {
	fset    *token.FileSet
	pkgs    []*packages.Package
	modPath string
	root    string
}

// Load type-checks the module rooted at dir (which must contain a go.mod)
// using golang.org/x/tools/go/packages, loading types and syntax for every
// package under it. A failure here is not fatal to the pipeline: callers
// should fall back to a nil *Facade, in which case every facade method
// below returns (nil, nil) per the "failures are not fatal" rule in
// spec.md §4.4 and §7.
func Load(ctx context.Context, dir string) (*Facade, error) {
	modPath := ""
	if data, err := readGoMod(dir); err == nil {
		if mf, err := modfile.Parse("go.mod", data, nil); err == nil && mf.Module != nil {
			modPath = mf.Module.Mod.Path
		}
	}

	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo |
			packages.NeedSyntax | packages.NeedDeps | packages.NeedImports,
		Dir:  dir,
		Fset: fset,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, err
	}
	return &Facade{fset: fset, pkgs: pkgs, modPath: modPath, root: dir}, nil
}

// ResolveWithTypeChecker resolves an identifier node's declaration site via
// go/types object information, honoring an optional deadline (ctx).
func (f *Facade) ResolveWithTypeChecker(ctx context.Context, ident *ast.Ident) (*ResolvedSymbol, error) {
	if f == nil || ident == nil {
		return nil, nil
	}
	select {
	case <-ctx.Done():
		return nil, nil
	default:
	}

	for _, pkg := range f.pkgs {
		if pkg.TypesInfo == nil {
			continue
		}
		obj, ok := pkg.TypesInfo.Uses[ident]
		if !ok {
			obj, ok = pkg.TypesInfo.Defs[ident]
		}
		if !ok || obj == nil {
			continue
		}
		return f.objectToResolved(obj), nil
	}
	return nil, nil
}

// ResolveCallTargetWithChecker resolves the callee of a call expression
// using go/types selection/object info, e.g. to capture interface dynamic
// dispatch (spec.md §4.6 tier 1: "property-access-on-typed-base via type
// checker").
func (f *Facade) ResolveCallTargetWithChecker(ctx context.Context, call *ast.CallExpr) (*ResolvedSymbol, error) {
	if f == nil || call == nil {
		return nil, nil
	}
	select {
	case <-ctx.Done():
		return nil, nil
	default:
	}

	ident := calleeIdent(call)
	if ident == nil {
		return nil, nil
	}
	return f.ResolveWithTypeChecker(ctx, ident)
}

// GetModuleExportMap returns the exported top-level names of every loaded
// package of the module, for use by C3's import/export resolver. fileRel is
// not used: the result is the same for every file, and when two packages
// export the same name, the later-loaded package's entry wins.
func (f *Facade) GetModuleExportMap(fileRel string) (map[string]ResolvedSymbol, error) {
	if f == nil {
		return nil, nil
	}
	out := make(map[string]ResolvedSymbol)
	for _, pkg := range f.pkgs {
		if pkg.Types == nil {
			continue
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			if !ast.IsExported(name) {
				continue
			}
			obj := scope.Lookup(name)
			rs := f.objectToResolved(obj)
			if rs != nil {
				out[name] = *rs
			}
		}
	}
	return out, nil
}

func (f *Facade) objectToResolved(obj types.Object) *ResolvedSymbol {
	pos := f.fset.Position(obj.Pos())
	if pos.Filename == "" {
		return &ResolvedSymbol{Name: obj.Name()}
	}
	return &ResolvedSymbol{FileRel: pos.Filename, Name: obj.Name()}
}

func calleeIdent(call *ast.CallExpr) *ast.Ident {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return fn
	case *ast.SelectorExpr:
		return fn.Sel
	}
	return nil
}

// WithDeadline bounds a type-checker consult to an optional deadline; on
// timeout the call returns a nil result and the builder falls back to a
// placeholder, per spec.md §5 ("Type-checker calls must honor an optional
// deadline; on timeout, the call returns null").
func WithDeadline(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

func readGoMod(dir string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, "go.mod"))
}

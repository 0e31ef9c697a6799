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

// Package resolve implements C3, the Import/Export Resolver: given
// (fromFile, localName, memberName?), resolve to { fileRel, name, depth }
// through re-export chains, where depth counts re-export hops.
package resolve

import (
	"path/filepath"
	"strings"
	"sync"
)

// Export is a single declared or re-exported name.
type Export struct {
	FileRel string
	Name    string
	Depth   int // 0 for a declared export, k+1 for a re-export k hops deep
}

// ReExport records "export { X [as Y] } from <target>" style edges, the
// input ExportMap consumes to compute re-export depth per spec.md §4.3.
type ReExport struct {
	FileRel    string // module doing the re-export
	LocalName  string // name exposed by this module
	FromFile   string // module the name is re-exported from
	FromName   string // name in the source module (often == LocalName)
}

// Resolver holds the per-module export maps (name -> Export) the builder
// consults for IMPORTS/EXPORTS edges and for deep-import call resolution.
type Resolver struct {
	mu sync.RWMutex

	// declared: fileRel -> name -> Export{Depth: 0}
	declared map[string]map[string]Export

	// reExports: fileRel -> local name -> ReExport
	reExports map[string]map[string]ReExport

	// resolved memoizes the fully-walked export map per file, built lazily.
	resolved map[string]map[string]Export
}

// New creates an empty resolver.
func New() *Resolver {
	return &Resolver{
		declared:  make(map[string]map[string]Export),
		reExports: make(map[string]map[string]ReExport),
		resolved:  make(map[string]map[string]Export),
	}
}

// AddDeclaredExport registers a name as directly declared (depth 0) by a
// module.
func (r *Resolver) AddDeclaredExport(fileRel, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[fileRel] == nil {
		r.declared[fileRel] = make(map[string]Export)
	}
	r.declared[fileRel][name] = Export{FileRel: fileRel, Name: name, Depth: 0}
}

// AddReExport registers a re-export edge to be resolved lazily by
// ExportMap/Resolve.
func (r *Resolver) AddReExport(re ReExport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reExports[re.FileRel] == nil {
		r.reExports[re.FileRel] = make(map[string]ReExport)
	}
	r.reExports[re.FileRel][re.LocalName] = re
}

// ExportMap returns the fully-resolved name -> Export map for fileRel,
// following re-export chains and tracking visited modules so cycles
// terminate (spec.md §4.3: "Depth is monotone across hops; cycles must
// terminate").
func (r *Resolver) ExportMap(fileRel string) map[string]Export {
	r.mu.Lock()
	if m, ok := r.resolved[fileRel]; ok {
		r.mu.Unlock()
		return m
	}
	r.mu.Unlock()

	out := make(map[string]Export)

	r.mu.RLock()
	for name, exp := range r.declared[fileRel] {
		out[name] = exp
	}
	names := make([]string, 0, len(r.reExports[fileRel]))
	for name := range r.reExports[fileRel] {
		names = append(names, name)
	}
	r.mu.RUnlock()

	for _, name := range names {
		if exp, ok := r.resolveReExport(fileRel, name, map[string]bool{fileRel: true}); ok {
			out[name] = exp
		}
	}

	r.mu.Lock()
	r.resolved[fileRel] = out
	r.mu.Unlock()
	return out
}

// resolveReExport walks a single re-export chain starting at fileRel/name,
// incrementing depth once per hop and stopping (without resolving) if a
// module is revisited.
func (r *Resolver) resolveReExport(fileRel, name string, visited map[string]bool) (Export, bool) {
	r.mu.RLock()
	re, ok := r.reExports[fileRel][name]
	if !ok {
		// Not a re-export at this hop: maybe it's actually a declared
		// export under a different local name.
		if exp, ok := r.declared[fileRel][name]; ok {
			r.mu.RUnlock()
			return exp, true
		}
		r.mu.RUnlock()
		return Export{}, false
	}
	r.mu.RUnlock()

	if visited[re.FromFile] {
		return Export{}, false // cycle: terminate without resolving
	}
	visited[re.FromFile] = true

	r.mu.RLock()
	if exp, ok := r.declared[re.FromFile][re.FromName]; ok {
		r.mu.RUnlock()
		return Export{FileRel: exp.FileRel, Name: exp.Name, Depth: 1}, true
	}
	r.mu.RUnlock()

	next, ok := r.resolveReExport(re.FromFile, re.FromName, visited)
	if !ok {
		return Export{}, false
	}
	return Export{FileRel: next.FileRel, Name: next.Name, Depth: next.Depth + 1}, true
}

// Resolve is the C3 operation proper: given the file doing the importing,
// the local binding name it imported, and an optional member name (for
// namespace-style access, e.g. `ns.member`), return the resolved export.
// The name is looked up first in fromFile's own export map, then among the
// declared exports of every module; when several modules declare it, the
// one with the lexically smallest path wins.
func (r *Resolver) Resolve(fromFile, localName, memberName string) (Export, bool) {
	name := localName
	if memberName != "" {
		name = memberName
	}
	if exp, ok := r.ExportMap(fromFile)[name]; ok {
		return exp, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best Export
	found := false
	for fileRel, names := range r.declared {
		if exp, ok := names[name]; ok && (!found || fileRel < best.FileRel) {
			best, found = exp, true
		}
	}
	return best, found
}

// NormalizeModulePath applies spec.md §3 invariant 4: backslashes become
// forward slashes, runs of "/" collapse, and no trailing slash is kept
// except the literal "/".
func NormalizeModulePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// ImportPathToFileRel maps an import path to a local module-relative
// directory when it shares a suffix with a known package directory, the
// same suffix-matching fallback the teacher's resolver.go uses
// (findPackageByImportPath) before falling back to package-name matching.
func ImportPathToFileRel(importPath string, knownDirs []string, dirToPackageName map[string]string) string {
	for _, dir := range knownDirs {
		if dir != "" && strings.HasSuffix(importPath, dir) {
			return dir
		}
	}
	base := filepath.Base(importPath)
	for dir, name := range dirToPackageName {
		if name == base {
			return dir
		}
	}
	return ""
}

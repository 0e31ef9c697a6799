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

// Package adapter implements C10, the Language Adapter Registry: a sealed
// set of per-language finishers, each mutating a relationship.Relationship
// in place. Per spec.md §9, this is a capability-set interface with a
// vector of implementations discovered at init rather than a process-wide
// mutable registration mechanism.
package adapter

import (
	"log/slog"
	"strings"

	"github.com/kraklabs/relgraph/pkg/relationship"
)

// Adapter is the capability set spec.md §9 calls for: detectLanguage and
// finalize(edge).
type Adapter interface {
	// DetectLanguage reports whether this adapter recognizes the given
	// file path / declared language hint, and if so, the canonical
	// language name it sets.
	DetectLanguage(filePathHint, declaredLanguage string) (string, bool)

	// Finalize mutates e in place: refining Language, adding
	// e.Metadata["languageSpecific"], and coercing SymbolKind where the
	// spec requires it. Must never panic; adapters that encounter bad
	// input leave the edge as-is.
	Finalize(e *relationship.Relationship)
}

// Registry is the sealed, globally-immutable-after-init set of adapters.
type Registry struct {
	adapters []Adapter
	logger   *slog.Logger
	diagnose bool
}

// NewRegistry builds a registry from the given adapters, in priority order.
// Pass diagnose=true to log suppressed adapter errors (spec.md §4.10:
// "Adapters must not throw; errors are logged when a diagnostics flag is
// enabled.").
func NewRegistry(logger *slog.Logger, diagnose bool, adapters ...Adapter) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{adapters: adapters, logger: logger, diagnose: diagnose}
}

// Default returns the registry wired with the TypeScript, Python, and Go
// adapters spec.md §4.10 names explicitly, followed by a JavaScript adapter.
func Default(logger *slog.Logger, diagnose bool) *Registry {
	return NewRegistry(logger, diagnose, TypeScriptAdapter{}, PythonAdapter{}, GoAdapter{}, JavaScriptAdapter{})
}

// Apply runs DetectLanguage across the registry (edge's declared language
// first, then metadata aliases, then file-path hints in that priority
// order) and, on a match, calls Finalize. It never panics outward: a
// recovered adapter panic is suppressed (logged only under diagnose).
func (reg *Registry) Apply(e *relationship.Relationship, filePathHint string) {
	hint := detectedLanguageHint(e)
	for _, pathHint := range []string{"", filePathHint} {
		for _, a := range reg.adapters {
			lang, ok := a.DetectLanguage(pathHint, hint)
			if !ok {
				continue
			}
			e.Language = lang
			reg.safeFinalize(a, e)
			return
		}
	}
}

func (reg *Registry) safeFinalize(a Adapter, e *relationship.Relationship) {
	defer func() {
		if r := recover(); r != nil && reg.diagnose {
			reg.logger.Warn("language adapter panicked", "recover", r)
		}
	}()
	a.Finalize(e)
}

func detectedLanguageHint(e *relationship.Relationship) string {
	if e.Language != "" {
		return e.Language
	}
	if e.Metadata != nil {
		for _, key := range []string{"lang", "languageId", "language_id"} {
			if v, ok := e.Metadata[key]; ok {
				if s, ok := v.(string); ok {
					return s
				}
			}
		}
	}
	return ""
}

// coerceModuleSymbolKind implements the shared rule "coerce symbolKind =
// 'module' for IMPORTS/EXPORTS when unset" that both the TypeScript and
// generic adapters apply.
func coerceModuleSymbolKind(e *relationship.Relationship) {
	if (e.Type == relationship.Imports || e.Type == relationship.Exports) && e.SymbolKind == "" {
		e.SymbolKind = "module"
	}
}

func ensureLanguageSpecific(e *relationship.Relationship) map[string]any {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	ls, ok := e.Metadata["languageSpecific"].(map[string]any)
	if !ok {
		ls = make(map[string]any)
		e.Metadata["languageSpecific"] = ls
	}
	return ls
}

// TypeScriptAdapter matches spec.md §4.10's TypeScript rules: language =
// "typescript", languageSpecific.syntax in {"ts","tsx"}, symbolKind =
// "module" for IMPORTS/EXPORTS when unset.
type TypeScriptAdapter struct{}

func (TypeScriptAdapter) DetectLanguage(filePathHint, declared string) (string, bool) {
	d := strings.ToLower(declared)
	if d == "typescript" || d == "ts" || d == "tsx" {
		return "typescript", true
	}
	if strings.HasSuffix(filePathHint, ".ts") || strings.HasSuffix(filePathHint, ".tsx") {
		return "typescript", true
	}
	return "", false
}

func (TypeScriptAdapter) Finalize(e *relationship.Relationship) {
	e.Language = "typescript"
	syntax := "ts"
	if strings.HasSuffix(filePathOf(e), ".tsx") {
		syntax = "tsx"
	}
	ensureLanguageSpecific(e)["syntax"] = syntax
	coerceModuleSymbolKind(e)
}

// PythonAdapter matches spec.md §4.10's "For Python / Go: set language
// accordingly when path hints match."
type PythonAdapter struct{}

func (PythonAdapter) DetectLanguage(filePathHint, declared string) (string, bool) {
	if strings.ToLower(declared) == "python" || strings.HasSuffix(filePathHint, ".py") {
		return "python", true
	}
	return "", false
}

func (PythonAdapter) Finalize(e *relationship.Relationship) {
	e.Language = "python"
	coerceModuleSymbolKind(e)
}

// GoAdapter matches spec.md §4.10's Go rule.
type GoAdapter struct{}

func (GoAdapter) DetectLanguage(filePathHint, declared string) (string, bool) {
	if strings.ToLower(declared) == "go" || strings.HasSuffix(filePathHint, ".go") {
		return "go", true
	}
	return "", false
}

func (GoAdapter) Finalize(e *relationship.Relationship) {
	e.Language = "go"
	coerceModuleSymbolKind(e)
}

// JavaScriptAdapter covers the plain-JS case the other three don't.
type JavaScriptAdapter struct{}

func (JavaScriptAdapter) DetectLanguage(filePathHint, declared string) (string, bool) {
	if strings.ToLower(declared) == "javascript" || strings.HasSuffix(filePathHint, ".js") || strings.HasSuffix(filePathHint, ".jsx") {
		return "javascript", true
	}
	return "", false
}

func (JavaScriptAdapter) Finalize(e *relationship.Relationship) {
	e.Language = "javascript"
	coerceModuleSymbolKind(e)
}

func filePathOf(e *relationship.Relationship) string {
	if e.Metadata == nil {
		return ""
	}
	if v, ok := e.Metadata["filePath"].(string); ok {
		return v
	}
	return ""
}

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

// Package parse is the tree-sitter-backed layer producing the ParseResult
// spec.md §6 names as the core's external input contract:
// { entities: Entity[], errors: ParserError[], relationships?: … }.
//
// It does not itself decide relationship types or confidence — that is
// pkg/builder's job (C6). This package only turns source bytes into the
// declarations, imports, types, fields, and call sites C6 walks.
package parse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// ParserError is a best-effort parse diagnostic, attached to the result
// rather than aborting the pass (spec.md §7).
type ParserError struct {
	FilePath string
	Message  string
	Line     int
}

// Declaration is a function/method/closure declaration.
type Declaration struct {
	Name         string // simple name, or "Receiver.Method" for methods
	ReceiverType string // non-empty for methods
	Signature    string
	StartLine    int
	EndLine      int
	StartCol     int
	EndCol       int
	IsAnonymous  bool
}

// TypeDecl is a struct/interface/class/type-alias declaration.
type TypeDecl struct {
	Name      string
	Kind      string // "struct", "interface", "type_alias", "class"
	StartLine int
	EndLine   int
}

// FieldDecl is a struct/class field (mirrors the teacher's FieldEntity).
// pkg/builder does not read it.
type FieldDecl struct {
	OwnerType string
	FieldName string
	FieldType string
	Line      int
}

// HeritageDecl records an EXTENDS/IMPLEMENTS-shaped relation discovered
// lexically (Go "implements" is structural: any type whose method set
// satisfies an interface): for Go, this holds declared embedding
// (EXTENDS-shaped) relations. Method-set-based IMPLEMENTS is not computed
// here, and pkg/builder does not emit IMPLEMENTS edges either.
type HeritageDecl struct {
	TypeName string
	BaseName string
	Line     int
}

// Import is a single import statement.
type Import struct {
	ImportPath string
	Alias      string // "" default, "name" aliased, "." dot import, "_" blank
	StartLine  int
}

// CallSite is a call expression found inside a declaration's body.
type CallSite struct {
	CallerName string // enclosing Declaration.Name
	Callee     string // simple name, e.g. "Foo"
	CalleeFull string // full expression, e.g. "pkg.Foo" or "s.field.Method"
	Line       int
	Col        int
	Arity      int
}

// IdentifierRef is a bare identifier reference that is not a declaration,
// import, or call callee — candidate REFERENCES material (spec.md §4.6
// file-level edges).
type IdentifierRef struct {
	Name string
	Line int
	Col  int
}

// FileResult is everything extracted from one source file — the per-file
// shape of spec.md §6's ParseResult.entities.
type FileResult struct {
	Path        string
	Language    string
	PackageName string

	Declarations []Declaration
	Types        []TypeDecl
	Fields       []FieldDecl
	Heritage     []HeritageDecl
	Imports      []Import
	Calls        []CallSite
	Identifiers  []IdentifierRef

	Errors []ParserError
}

// Parser wraps pooled tree-sitter parsers for the supported languages.
type Parser struct {
	logger *slog.Logger

	goPool sync.Pool
	pyPool sync.Pool
	jsPool sync.Pool
	once   sync.Once
}

// New creates a Parser. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

func (p *Parser) initPools() {
	p.once.Do(func() {
		p.goPool.New = func() any {
			ps := sitter.NewParser()
			ps.SetLanguage(golang.GetLanguage())
			return ps
		}
		p.pyPool.New = func() any {
			ps := sitter.NewParser()
			ps.SetLanguage(python.GetLanguage())
			return ps
		}
		p.jsPool.New = func() any {
			ps := sitter.NewParser()
			ps.SetLanguage(javascript.GetLanguage())
			return ps
		}
	})
}

// ParseFile reads path (relative to repoRoot) and parses it according to
// language, one of "go", "python", "javascript".
func (p *Parser) ParseFile(repoRoot, relPath, language string) (*FileResult, error) {
	p.initPools()

	full := relPath
	if repoRoot != "" {
		full = repoRoot + string(os.PathSeparator) + relPath
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	switch language {
	case "go":
		parserObj := p.goPool.Get()
		ps, _ := parserObj.(*sitter.Parser)
		defer p.goPool.Put(ps)
		return p.parseGo(ps, content, relPath)
	case "python":
		parserObj := p.pyPool.Get()
		ps, _ := parserObj.(*sitter.Parser)
		defer p.pyPool.Put(ps)
		return p.parsePython(ps, content, relPath)
	case "javascript", "typescript":
		parserObj := p.jsPool.Get()
		ps, _ := parserObj.(*sitter.Parser)
		defer p.jsPool.Put(ps)
		return p.parseJavaScript(ps, content, relPath)
	default:
		return &FileResult{Path: relPath, Language: language}, nil
	}
}

func countErrors(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}

func parseTree(ctx context.Context, ps *sitter.Parser, content []byte) (*sitter.Tree, error) {
	tree, err := ps.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree, nil
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"'`+"`")
}

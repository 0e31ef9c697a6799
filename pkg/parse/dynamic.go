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

package parse

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// parsePython and parseJavaScript cover declarations, classes/heritage,
// and imports only — reduced fidelity relative to Go (no call-site
// classification). This mirrors the C6 scope note in DESIGN.md: Go is the
// fully-grounded language, the others get declaration/import breadth so
// IMPORTS/EXPORTS/DEFINES still work across the whole repo, while CALLS
// stays Go-only until a second grounded parser is worth the size budget.

func (p *Parser) parsePython(ps *sitter.Parser, content []byte, relPath string) (*FileResult, error) {
	tree, err := parseTree(context.Background(), ps, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	res := &FileResult{Path: relPath, Language: "python"}
	if errs := countErrors(root); errs > 0 {
		res.Errors = append(res.Errors, ParserError{FilePath: relPath, Message: "tree-sitter reported syntax errors"})
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				sl, sc, el, ec := goLineCol(n)
				res.Declarations = append(res.Declarations, Declaration{
					Name: nodeText(nameNode, content), StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
				})
			}
		case "class_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				sl, _, el, _ := goLineCol(n)
				name := nodeText(nameNode, content)
				res.Types = append(res.Types, TypeDecl{Name: name, Kind: "class", StartLine: sl, EndLine: el})
				if superclasses := n.ChildByFieldName("superclasses"); superclasses != nil {
					for i := 0; i < int(superclasses.ChildCount()); i++ {
						c := superclasses.Child(i)
						if c.IsNamed() && c.Type() == "identifier" {
							res.Heritage = append(res.Heritage, HeritageDecl{TypeName: name, BaseName: nodeText(c, content), Line: sl})
						}
					}
				}
			}
		case "import_statement", "import_from_statement":
			extractPythonImport(n, content, res)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return res, nil
}

func extractPythonImport(n *sitter.Node, content []byte, res *FileResult) {
	sp := n.StartPoint()
	if n.Type() == "import_from_statement" {
		if mod := n.ChildByFieldName("module_name"); mod != nil {
			res.Imports = append(res.Imports, Import{ImportPath: nodeText(mod, content), StartLine: int(sp.Row) + 1})
		}
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "dotted_name" || c.Type() == "aliased_import" {
			res.Imports = append(res.Imports, Import{ImportPath: nodeText(c, content), StartLine: int(sp.Row) + 1})
		}
	}
}

func (p *Parser) parseJavaScript(ps *sitter.Parser, content []byte, relPath string) (*FileResult, error) {
	tree, err := parseTree(context.Background(), ps, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	res := &FileResult{Path: relPath, Language: "javascript"}
	if errs := countErrors(root); errs > 0 {
		res.Errors = append(res.Errors, ParserError{FilePath: relPath, Message: "tree-sitter reported syntax errors"})
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				sl, sc, el, ec := goLineCol(n)
				res.Declarations = append(res.Declarations, Declaration{
					Name: nodeText(nameNode, content), StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
				})
			}
		case "method_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				sl, sc, el, ec := goLineCol(n)
				res.Declarations = append(res.Declarations, Declaration{
					Name: nodeText(nameNode, content), StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
				})
			}
		case "class_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				sl, _, el, _ := goLineCol(n)
				name := nodeText(nameNode, content)
				res.Types = append(res.Types, TypeDecl{Name: name, Kind: "class", StartLine: sl, EndLine: el})
				if heritage := n.ChildByFieldName("heritage"); heritage != nil {
					if id := findFirstIdentifier(heritage, content); id != "" {
						res.Heritage = append(res.Heritage, HeritageDecl{TypeName: name, BaseName: id, Line: sl})
					}
				}
			}
		case "import_statement":
			extractJSImport(n, content, res)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return res, nil
}

func findFirstIdentifier(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	if n.Type() == "identifier" {
		return nodeText(n, content)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if id := findFirstIdentifier(n.Child(i), content); id != "" {
			return id
		}
	}
	return ""
}

func extractJSImport(n *sitter.Node, content []byte, res *FileResult) {
	sp := n.StartPoint()
	if src := n.ChildByFieldName("source"); src != nil {
		res.Imports = append(res.Imports, Import{ImportPath: trimQuotes(nodeText(src, content)), StartLine: int(sp.Row) + 1})
	}
}

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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseGo walks a Go source tree in two passes, mirroring the teacher's
// parser_go.go: first collect declarations (func/method/func literal),
// then walk each declaration's body for call expressions, then collect
// type/field/embedding (heritage) declarations at package scope.
func (p *Parser) parseGo(ps *sitter.Parser, content []byte, relPath string) (*FileResult, error) {
	tree, err := parseTree(context.Background(), ps, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	res := &FileResult{Path: relPath, Language: "go"}
	if errs := countErrors(root); errs > 0 {
		res.Errors = append(res.Errors, ParserError{FilePath: relPath, Message: "tree-sitter reported syntax errors", Line: 0})
	}

	res.PackageName = extractGoPackageName(root, content)

	type declNode struct {
		decl Declaration
		body *sitter.Node
	}
	var decls []declNode

	var walkDecls func(n *sitter.Node)
	walkDecls = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration":
			d, body := extractGoFunctionDeclaration(n, content)
			decls = append(decls, declNode{d, body})
		case "method_declaration":
			d, body := extractGoMethodDeclaration(n, content)
			decls = append(decls, declNode{d, body})
		case "func_literal":
			d, body := extractGoFuncLiteral(n, content)
			decls = append(decls, declNode{d, body})
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walkDecls(n.Child(i))
		}
	}
	walkDecls(root)

	for _, dn := range decls {
		res.Declarations = append(res.Declarations, dn.decl)
	}

	funcNames := make(map[string]struct{}, len(decls))
	for _, dn := range decls {
		funcNames[dn.decl.Name] = struct{}{}
	}

	for _, dn := range decls {
		if dn.body == nil {
			continue
		}
		extractGoCallsFromNode(dn.body, content, dn.decl.Name, funcNames, res)
	}

	extractGoImports(root, content, res)
	extractGoTypesAndFields(root, content, res)

	return res, nil
}

func nodeText(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(content)
}

func extractGoPackageName(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() == "package_clause" {
			if name := c.ChildByFieldName("name"); name != nil {
				return nodeText(name, content)
			}
			for j := 0; j < int(c.ChildCount()); j++ {
				if c.Child(j).Type() == "package_identifier" {
					return nodeText(c.Child(j), content)
				}
			}
		}
	}
	return ""
}

func goLineCol(n *sitter.Node) (startLine, startCol, endLine, endCol int) {
	sp := n.StartPoint()
	ep := n.EndPoint()
	return int(sp.Row) + 1, int(sp.Column) + 1, int(ep.Row) + 1, int(ep.Column) + 1
}

func extractGoFunctionDeclaration(n *sitter.Node, content []byte) (Declaration, *sitter.Node) {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = nodeText(nameNode, content)
	}
	sig := buildGoSignature(n, content)
	sl, sc, el, ec := goLineCol(n)
	return Declaration{
		Name:      name,
		Signature: sig,
		StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	}, n.ChildByFieldName("body")
}

func extractGoMethodDeclaration(n *sitter.Node, content []byte) (Declaration, *sitter.Node) {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = nodeText(nameNode, content)
	}
	recvType := ""
	if recv := n.ChildByFieldName("receiver"); recv != nil {
		recvType = extractGoReceiverType(recv, content)
	}
	sig := buildGoSignature(n, content)
	sl, sc, el, ec := goLineCol(n)
	full := name
	if recvType != "" {
		full = recvType + "." + name
	}
	return Declaration{
		Name:         full,
		ReceiverType: recvType,
		Signature:    sig,
		StartLine:    sl, StartCol: sc, EndLine: el, EndCol: ec,
	}, n.ChildByFieldName("body")
}

func extractGoFuncLiteral(n *sitter.Node, content []byte) (Declaration, *sitter.Node) {
	sig := buildGoSignature(n, content)
	sl, sc, el, ec := goLineCol(n)
	return Declaration{
		Name:        "<anonymous>",
		Signature:   sig,
		IsAnonymous: true,
		StartLine:   sl, StartCol: sc, EndLine: el, EndCol: ec,
	}, n.ChildByFieldName("body")
}

// extractGoReceiverType pulls the base type name out of a Go method
// receiver, stripping pointer/generic decoration — grounded on the
// teacher's extractReceiverType/extractBaseTypeName.
func extractGoReceiverType(recv *sitter.Node, content []byte) string {
	for i := 0; i < int(recv.ChildCount()); i++ {
		c := recv.Child(i)
		if c.Type() == "parameter_declaration" {
			if t := c.ChildByFieldName("type"); t != nil {
				return extractGoBaseTypeName(t, content)
			}
		}
	}
	return ""
}

func extractGoBaseTypeName(t *sitter.Node, content []byte) string {
	switch t.Type() {
	case "pointer_type":
		if inner := t.Child(int(t.ChildCount()) - 1); inner != nil {
			return extractGoBaseTypeName(inner, content)
		}
	case "generic_type":
		if tn := t.ChildByFieldName("type"); tn != nil {
			return extractGoBaseTypeName(tn, content)
		}
	case "qualified_type":
		if nameNode := t.ChildByFieldName("name"); nameNode != nil {
			return nodeText(nameNode, content)
		}
	}
	txt := strings.TrimPrefix(nodeText(t, content), "*")
	if idx := strings.IndexByte(txt, '['); idx >= 0 {
		txt = txt[:idx]
	}
	return txt
}

// buildGoSignature renders "func _(params) result", not just the bare
// parameter list: pkg/sigparse.ParseGoParams locates the parameter list by
// scanning past the "func" keyword and a following name (or receiver) to
// find the first matching paren group — a signature without a name in that
// position would be misread as a bare receiver and yield no params. The
// placeholder name is never inspected by ParseGoParams, only skipped over.
func buildGoSignature(n *sitter.Node, content []byte) string {
	var params, result string
	if p := n.ChildByFieldName("parameters"); p != nil {
		params = nodeText(p, content)
	}
	if r := n.ChildByFieldName("result"); r != nil {
		result = nodeText(r, content)
	}
	return strings.TrimSpace("func _" + params + " " + result)
}

// extractGoCallsFromNode walks a declaration's body for call expressions,
// classifying each as a local call (resolved against funcNames) or an
// unresolved/cross-package candidate (left for pkg/resolve + pkg/builder),
// mirroring the teacher's extractGoCallsFromNodeV2 / processGoCallExpression.
func extractGoCallsFromNode(body *sitter.Node, content []byte, callerName string, funcNames map[string]struct{}, res *FileResult) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			args := n.ChildByFieldName("arguments")
			arity := 0
			if args != nil {
				for i := 0; i < int(args.ChildCount()); i++ {
					if args.Child(i).IsNamed() {
						arity++
					}
				}
			}
			simple, full := extractGoCalleeName(fn, content)
			sp := n.StartPoint()
			if simple != "" {
				if _, ok := funcNames[simple]; ok && simple != callerName {
					res.Calls = append(res.Calls, CallSite{CallerName: callerName, Callee: simple, CalleeFull: full, Line: int(sp.Row) + 1, Col: int(sp.Column) + 1, Arity: arity})
				} else if full != "" {
					res.Calls = append(res.Calls, CallSite{CallerName: callerName, Callee: simple, CalleeFull: full, Line: int(sp.Row) + 1, Col: int(sp.Column) + 1, Arity: arity})
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
}

func extractGoCalleeName(fn *sitter.Node, content []byte) (simple, full string) {
	if fn == nil {
		return "", ""
	}
	switch fn.Type() {
	case "identifier":
		name := nodeText(fn, content)
		return name, name
	case "selector_expression":
		full = nodeText(fn, content)
		if field := fn.ChildByFieldName("field"); field != nil {
			simple = nodeText(field, content)
		}
		return simple, full
	case "index_expression":
		if operand := fn.ChildByFieldName("operand"); operand != nil {
			return extractGoCalleeName(operand, content)
		}
	}
	return "", nodeText(fn, content)
}

func extractGoImports(root *sitter.Node, content []byte, res *FileResult) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "import_declaration" {
			extractGoImportDeclaration(n, content, res)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
}

func extractGoImportDeclaration(n *sitter.Node, content []byte, res *FileResult) {
	var specs []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "import_spec":
			specs = append(specs, c)
		case "import_spec_list":
			for j := 0; j < int(c.ChildCount()); j++ {
				if c.Child(j).Type() == "import_spec" {
					specs = append(specs, c.Child(j))
				}
			}
		}
	}
	for _, spec := range specs {
		extractGoImportSpec(spec, content, res)
	}
}

func extractGoImportSpec(spec *sitter.Node, content []byte, res *FileResult) {
	path := ""
	if p := spec.ChildByFieldName("path"); p != nil {
		path = trimQuotes(nodeText(p, content))
	}
	alias := ""
	if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
		alias = nodeText(nameNode, content)
	}
	sp := spec.StartPoint()
	res.Imports = append(res.Imports, Import{ImportPath: path, Alias: alias, StartLine: int(sp.Row) + 1})
}

func determineGoTypeKind(typeNode *sitter.Node) string {
	if typeNode == nil {
		return "type_alias"
	}
	switch typeNode.Type() {
	case "struct_type":
		return "struct"
	case "interface_type":
		return "interface"
	default:
		return "type_alias"
	}
}

func extractGoTypesAndFields(root *sitter.Node, content []byte, res *FileResult) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "type_declaration" {
			extractGoTypeDeclaration(n, content, res)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
}

func extractGoTypeDeclaration(n *sitter.Node, content []byte, res *FileResult) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "type_spec" {
			extractGoTypeSpec(c, content, res)
		}
	}
}

func extractGoTypeSpec(spec *sitter.Node, content []byte, res *FileResult) {
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)
	typeNode := spec.ChildByFieldName("type")
	kind := determineGoTypeKind(typeNode)
	sl, _, el, _ := goLineCol(spec)
	res.Types = append(res.Types, TypeDecl{Name: name, Kind: kind, StartLine: sl, EndLine: el})

	if typeNode != nil && typeNode.Type() == "struct_type" {
		extractGoStructFields(typeNode, content, name, res)
	}
}

func extractGoStructFields(structType *sitter.Node, content []byte, ownerType string, res *FileResult) {
	body := structType.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		fd := body.Child(i)
		if fd.Type() != "field_declaration" {
			continue
		}
		fieldType := ""
		if t := fd.ChildByFieldName("type"); t != nil {
			fieldType = nodeText(t, content)
		}
		sp := fd.StartPoint()
		nameField := fd.ChildByFieldName("name")
		if nameField != nil {
			for j := 0; j < int(fd.ChildCount()); j++ {
				c := fd.Child(j)
				if c.Type() == "field_identifier" {
					res.Fields = append(res.Fields, FieldDecl{OwnerType: ownerType, FieldName: nodeText(c, content), FieldType: fieldType, Line: int(sp.Row) + 1})
				}
			}
		} else {
			// embedded field: the type itself is the "name" (Go embedding,
			// heritage-shaped — spec.md's EXTENDS edge for structural reuse).
			embedded := extractGoBaseTypeName(fd, content)
			if embedded != "" {
				res.Heritage = append(res.Heritage, HeritageDecl{TypeName: ownerType, BaseName: embedded, Line: int(sp.Row) + 1})
			}
		}
	}
}

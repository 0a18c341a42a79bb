// Copyright The Flowcheck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package modelquery

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"
	"regexp"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"golang.org/x/tools/go/ast/astutil"
)

// AnnotationConstraint matches a target's type/return annotation string,
// following NameConstraint's empty-means-wildcard convention.
type AnnotationConstraint struct {
	Equals  string
	Pattern *regexp.Regexp
}

func (ac AnnotationConstraint) matches(annotation string) bool {
	if ac.Pattern != nil {
		return ac.Pattern.MatchString(annotation)
	}
	return ac.Equals == "" || ac.Equals == annotation
}

// globalPlaceholder is the quoted string literal value the $global
// sentinel parameter is written as in an annotation expression, since a
// bare $global is not a valid Go identifier.
const globalPlaceholder = `"$global"`

// ParseAnnotation parses an annotation expression, represented as the
// body of a parenthesized Go expression such as
// `Annotated[T, Source("UserControlled")]`, into a decorated syntax tree.
// Every square bracket outside a string literal is read as a parenthesis,
// so a subscript such as Annotated[...] parses as a call: Go's parser
// reads the second and later elements of an index list as types and
// would reject a call such as Source(...) there. Apart from brackets,
// the decorated tree preserves original formatting so a rewritten
// annotation can be rendered back for diagnostics.
func ParseAnnotation(expr string) (dst.Expr, *decorator.Restorer, error) {
	in, out := []byte(expr), []byte(expr)
	file := token.NewFileSet().AddFile("", -1, len(in))
	var s scanner.Scanner
	s.Init(file, in, nil, 0)
	for pos, tok, _ := s.Scan(); tok != token.EOF; pos, tok, _ = s.Scan() {
		if tok == token.LBRACK {
			out[file.Offset(pos)] = '('
		} else if tok == token.RBRACK {
			out[file.Offset(pos)] = ')'
		}
	}
	src := "package p\nvar _ = " + string(out) + "\n"
	f, err := decorator.Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("modelquery: parsing annotation %q: %w", expr, err)
	}
	decl, ok := f.Decls[0].(*dst.GenDecl)
	if !ok || len(decl.Specs) == 0 {
		return nil, nil, fmt.Errorf("modelquery: annotation %q did not parse to a value spec", expr)
	}
	spec, ok := decl.Specs[0].(*dst.ValueSpec)
	if !ok || len(spec.Values) == 0 {
		return nil, nil, fmt.Errorf("modelquery: annotation %q has no value expression", expr)
	}
	return spec.Values[0], decorator.NewRestorerWithImports("p", nil), nil
}

// callsNamed walks expr depth-first and returns every *dst.CallExpr whose
// function identifier is name, e.g. "Source" or "Sink" inside an
// `Annotated[..., Source(...)]` expression.
func callsNamed(expr dst.Expr, name string) []*dst.CallExpr {
	var out []*dst.CallExpr
	dst.Inspect(expr, func(n dst.Node) bool {
		call, ok := n.(*dst.CallExpr)
		if !ok {
			return true
		}
		if ident, ok := call.Fun.(*dst.Ident); ok && ident.Name == name {
			out = append(out, call)
		}
		return true
	})
	return out
}

// ParametricAnnotation is a parsed `Source(pattern(subkind))` or
// `Sink(pattern(subkind))` production found inside an annotation
// expression.
type ParametricAnnotation struct {
	Pattern string
	Subkind string
}

// ParametricSourceFromAnnotation parses every `Source(...)` call found in
// expr.
func ParametricSourceFromAnnotation(expr dst.Expr) []ParametricAnnotation {
	return parametricCalls(expr, "Source")
}

// ParametricSinkFromAnnotation parses every `Sink(...)` call found in
// expr, the symmetric sink-side production.
func ParametricSinkFromAnnotation(expr dst.Expr) []ParametricAnnotation {
	return parametricCalls(expr, "Sink")
}

func parametricCalls(expr dst.Expr, name string) []ParametricAnnotation {
	var out []ParametricAnnotation
	for _, call := range callsNamed(expr, name) {
		if len(call.Args) == 0 {
			continue
		}
		lit, ok := call.Args[0].(*dst.BasicLit)
		if !ok {
			continue
		}
		pattern := unquote(lit.Value)
		subkind := ""
		if len(call.Args) > 1 {
			if sub, ok := call.Args[1].(*dst.BasicLit); ok {
				subkind = unquote(sub.Value)
			}
		}
		out = append(out, ParametricAnnotation{Pattern: pattern, Subkind: subkind})
	}
	return out
}

func unquote(lit string) string {
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		return lit[1 : len(lit)-1]
	}
	return lit
}

// RewriteGlobalPlaceholder clones expr and rewrites every ViaTypeOf /
// ViaValueOf call argument equal to the $global sentinel to target
// instead, per spec.md §4.G's "Placeholder-via-feature rewrite".
func RewriteGlobalPlaceholder(expr dst.Expr, target string) dst.Expr {
	clone := dst.Clone(expr).(dst.Expr)
	for _, name := range []string{"ViaTypeOf", "ViaValueOf"} {
		for _, call := range callsNamed(clone, name) {
			for i, arg := range call.Args {
				if lit, ok := arg.(*dst.BasicLit); ok && lit.Value == globalPlaceholder {
					call.Args[i] = &dst.BasicLit{Kind: lit.Kind, Value: `"` + target + `"`}
				}
			}
		}
	}
	return clone
}

// FindSubExpr performs a read-only search for the first sub-expression of
// e matching pred, using go/ast's astutil as a plain traversal helper
// alongside dst — used when matching (not mutating) an annotation
// sub-expression, the read path's analogue of RewriteGlobalPlaceholder.
func FindSubExpr(e ast.Expr, pred func(ast.Expr) bool) ast.Expr {
	var found ast.Expr
	astutil.Apply(e, func(c *astutil.Cursor) bool {
		if found != nil {
			return false
		}
		if expr, ok := c.Node().(ast.Expr); ok && pred(expr) {
			found = expr
			return false
		}
		return true
	}, nil)
	return found
}

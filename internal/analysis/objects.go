// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package analysis

import (
	"fmt"
	"go/ast"
	"go/token"
	gotypes "go/types"
	"sort"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// canonical maps instantiated generic members back to their origin so that
// every use of a generic function, method, or field shares one identity.
func canonical(obj gotypes.Object) gotypes.Object {
	switch o := obj.(type) {
	case *gotypes.Func:
		return o.Origin()
	case *gotypes.Var:
		return o.Origin()
	}
	return obj
}

// objectKey identifies a symbol independently of which type-check produced
// the object. A file shared by two modules yields distinct objects for the
// same declaration; they share a key because they share a position.
func objectKey(fset *token.FileSet, obj gotypes.Object) string {
	obj = canonical(obj)
	switch o := obj.(type) {
	case *gotypes.PkgName:
		return "package:" + o.Imported().Path()
	case *gotypes.Builtin, *gotypes.Nil:
		return "builtin:" + obj.Name()
	}
	if obj.Pkg() == nil {
		return "universe:" + obj.Name()
	}
	if obj.Pos().IsValid() {
		p := fset.Position(obj.Pos())
		return fmt.Sprintf("%s:%d:%d:%s", p.Filename, p.Line, p.Column, obj.Name())
	}
	return obj.Pkg().Path() + "." + fullName(obj)
}

// kindOf classifies an object for presentation.
func kindOf(obj gotypes.Object) types.SymbolKind {
	switch o := obj.(type) {
	case *gotypes.Func:
		if sig, ok := o.Type().(*gotypes.Signature); ok && sig.Recv() != nil {
			return types.Method
		}
		return types.Function
	case *gotypes.TypeName:
		if _, isParam := o.Type().(*gotypes.TypeParam); isParam {
			return types.TypeName
		}
		switch o.Type().Underlying().(type) {
		case *gotypes.Struct:
			return types.Struct
		case *gotypes.Interface:
			return types.Interface
		}
		return types.TypeName
	case *gotypes.Var:
		if o.IsField() {
			return types.Field
		}
		return types.Variable
	case *gotypes.Const:
		return types.Constant
	case *gotypes.PkgName:
		return types.Package
	case *gotypes.Label:
		return types.Label
	case *gotypes.Builtin, *gotypes.Nil:
		return types.Builtin
	}
	return types.Variable
}

// fullName renders a qualified name: (*pkg.T).M for methods, pkg.F for
// package members, the bare name otherwise.
func fullName(obj gotypes.Object) string {
	if fn, ok := obj.(*gotypes.Func); ok {
		return fn.FullName()
	}
	if pn, ok := obj.(*gotypes.PkgName); ok {
		return pn.Imported().Path()
	}
	if obj.Pkg() != nil && obj.Parent() == obj.Pkg().Scope() {
		return obj.Pkg().Path() + "." + obj.Name()
	}
	return obj.Name()
}

// originModule names the package a symbol comes from.
func originModule(obj gotypes.Object) string {
	if pn, ok := obj.(*gotypes.PkgName); ok {
		return pn.Imported().Path()
	}
	if obj.Pkg() == nil {
		return "builtin"
	}
	return obj.Pkg().Path()
}

// describe builds the SymbolUse for obj as seen from pkg.
func describe(fset *token.FileSet, pkg *gotypes.Package, obj gotypes.Object) types.SymbolUse {
	obj = canonical(obj)
	return types.SymbolUse{
		Key:       objectKey(fset, obj),
		Name:      obj.Name(),
		FullName:  fullName(obj),
		Module:    originModule(obj),
		Kind:      kindOf(obj),
		Signature: gotypes.ObjectString(obj, gotypes.RelativeTo(pkg)),
	}
}

// declarationOf returns the name range of obj's declaration. Builtins,
// package names, and objects without a source position have none.
func declarationOf(fset *token.FileSet, obj gotypes.Object) types.Declaration {
	obj = canonical(obj)
	switch obj.(type) {
	case *gotypes.PkgName, *gotypes.Builtin, *gotypes.Nil:
		return types.NotFound()
	}
	if obj.Pkg() == nil || !obj.Pos().IsValid() {
		return types.NotFound()
	}
	p := fset.Position(obj.Pos())
	if p.Filename == "" {
		return types.NotFound()
	}
	return types.FoundAt(types.TextRange{
		Path:  p.Filename,
		Start: types.Position{Line: p.Line, Column: p.Column - 1},
		End:   types.Position{Line: p.Line, Column: p.Column - 1 + len(obj.Name())},
	})
}

// buildIndex groups every defining and using identifier of the module by
// symbol key, sorted by position.
func (e *Engine) buildIndex(res *moduleResult) map[string][]occurrence {
	index := make(map[string][]occurrence)
	add := func(id *ast.Ident, obj gotypes.Object) {
		if obj == nil || id.Name == "_" {
			return
		}
		start := e.fset.Position(id.Pos())
		end := e.fset.Position(id.End())
		if _, ok := res.files[start.Filename]; !ok {
			return
		}
		key := objectKey(e.fset, obj)
		index[key] = append(index[key], occurrence{
			path:  start.Filename,
			start: types.Position{Line: start.Line, Column: start.Column - 1},
			end:   types.Position{Line: end.Line, Column: end.Column - 1},
		})
	}

	for id, obj := range res.info.Defs {
		add(id, obj)
	}
	for id, obj := range res.info.Uses {
		add(id, obj)
	}

	for key, occs := range index {
		sort.Slice(occs, func(i, j int) bool {
			if occs[i].path != occs[j].path {
				return occs[i].path < occs[j].path
			}
			return occs[i].start.Less(occs[j].start)
		})
		index[key] = dedupeOccurrences(occs)
	}
	return index
}

// dedupeOccurrences drops adjacent duplicates; an embedded field's
// identifier is both a definition and a use.
func dedupeOccurrences(occs []occurrence) []occurrence {
	out := occs[:0]
	for i, o := range occs {
		if i > 0 && o == occs[i-1] {
			continue
		}
		out = append(out, o)
	}
	return out
}

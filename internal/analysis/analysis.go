// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package analysis

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	gotypes "go/types"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/petar-djukic/go-finder/internal/findusages"
	"github.com/petar-djukic/go-finder/pkg/types"
)

// Analysis answers symbol queries about one file of a checked module.
type Analysis struct {
	engine *Engine
	res    *moduleResult
	path   string
	file   *ast.File
}

var _ findusages.Analysis = (*Analysis)(nil)

// Module returns the name of the module the file was checked in.
func (a *Analysis) Module() string {
	return a.res.module.Name
}

// SymbolUseAt resolves the identifier ending at (line, col).
func (a *Analysis) SymbolUseAt(line, col int, lineText string, island []string) (types.SymbolUse, bool) {
	_, obj := a.resolve(line, col, lineText, island)
	if obj == nil {
		return types.SymbolUse{}, false
	}
	return describe(a.engine.fset, a.res.pkg, obj), true
}

// DeclarationOf returns the declaration of the identifier ending at
// (line, col).
func (a *Analysis) DeclarationOf(line, col int, lineText string, island []string) (types.Declaration, error) {
	_, obj := a.resolve(line, col, lineText, island)
	if obj == nil {
		return types.Declaration{}, fmt.Errorf("%w: %s at %s:%d:%d",
			findusages.ErrUnresolvableSymbol, strings.Join(island, "."), a.path, line, col)
	}
	return declarationOf(a.engine.fset, obj), nil
}

// resolve finds the identifier and the object it binds to. The identifier
// is first looked up at its exact end position; if the snapshot's line
// does not line up, the line is searched for a selector chain spelling
// island, picking the candidate closest to col.
func (a *Analysis) resolve(line, col int, lineText string, island []string) (*ast.Ident, gotypes.Object) {
	if len(island) == 0 {
		return nil, nil
	}
	name := island[len(island)-1]

	tf := a.engine.fset.File(a.file.Pos())
	if tf == nil || line < 1 || line > tf.LineCount() {
		return nil, nil
	}

	if lineText == "" || a.snapshotLine(tf, line) == lineText {
		end := tf.LineStart(line) + token.Pos(col)
		if end > token.Pos(tf.Base()) && int(end) <= tf.Base()+tf.Size() {
			path, _ := astutil.PathEnclosingInterval(a.file, end-1, end)
			if len(path) > 0 {
				if id, ok := path[0].(*ast.Ident); ok && id.Name == name && id.End() == end {
					if obj := a.objectOf(id); obj != nil {
						return id, obj
					}
				}
			}
		}
	}

	return a.searchLine(tf, line, col, island)
}

// searchLine scans the identifiers on line for one whose selector chain
// spells island.
func (a *Analysis) searchLine(tf *token.File, line, col int, island []string) (*ast.Ident, gotypes.Object) {
	name := island[len(island)-1]

	var best *ast.Ident
	bestDist := -1
	ast.Inspect(a.file, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || id.Name != name || tf.Line(id.Pos()) != line {
			return true
		}
		if len(island) > 1 && !a.matchesIsland(id, island) {
			return true
		}
		dist := tf.Position(id.End()).Column - 1 - col
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = id, dist
		}
		return true
	})

	if best == nil {
		return nil, nil
	}
	return best, a.objectOf(best)
}

// matchesIsland reports whether id is the last segment of a selector chain
// spelling island.
func (a *Analysis) matchesIsland(id *ast.Ident, island []string) bool {
	path, _ := astutil.PathEnclosingInterval(a.file, id.Pos(), id.End())
	if len(path) < 2 {
		return false
	}
	sel, ok := path[1].(*ast.SelectorExpr)
	if !ok || sel.Sel != id {
		return false
	}
	return selectorChain(sel) == strings.Join(island, ".")
}

func (a *Analysis) objectOf(id *ast.Ident) gotypes.Object {
	if obj := a.res.info.Uses[id]; obj != nil {
		return obj
	}
	return a.res.info.Defs[id]
}

func (a *Analysis) snapshotLine(tf *token.File, line int) string {
	text := a.res.texts[a.path]
	start := tf.Offset(tf.LineStart(line))
	end := len(text)
	if line < tf.LineCount() {
		end = tf.Offset(tf.LineStart(line+1)) - 1
	}
	if start > end || end > len(text) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSuffix(text[start:end], "\n"), "\r")
}

// selectorChain renders a selector over identifiers as a dotted string.
func selectorChain(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		prefix := selectorChain(e.X)
		if prefix == "" {
			return ""
		}
		return prefix + "." + e.Sel.Name
	}
	return ""
}

// EnumerateUses pushes every occurrence of use in every module of the
// workspace. Modules are visited in registration order and checked on
// demand; a module that cannot be read is skipped.
func (e *Engine) EnumerateUses(ctx context.Context, use types.SymbolUse, ref types.ArtifactRef, a findusages.Analysis, fn func(types.Occurrence) error) error {
	for _, mod := range e.src.Modules() {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := e.checkModule(ctx, mod.Name)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("skipping module during usage scan", "module", mod.Name, "error", err)
			continue
		}

		for _, occ := range res.index[use.Key] {
			art, ok := e.src.ArtifactFor(occ.path, mod.Name)
			if !ok {
				continue
			}
			err := fn(types.Occurrence{
				Artifact: art,
				Range:    types.TextRange{Path: occ.path, Start: occ.start, End: occ.end},
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package analysis type-checks workspace modules with go/types and answers
// the symbol questions the find-usages core asks: what is under the
// cursor, where is it declared, and where is it used.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	gotypes "go/types"
	"hash/fnv"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/go-finder/internal/findusages"
	"github.com/petar-djukic/go-finder/internal/workspace"
	"github.com/petar-djukic/go-finder/pkg/types"
)

// ErrImportCycle is returned when workspace modules import each other.
var ErrImportCycle = errors.New("import cycle")

// Source is the part of the workspace the engine reads.
type Source interface {
	Modules() []workspace.Module
	Module(name string) (workspace.Module, error)
	ModuleArtifacts(name string) []types.ArtifactRef
	ArtifactFor(path, module string) (types.ArtifactRef, bool)
	Text(ctx context.Context, ref types.ArtifactRef) (string, error)
}

// Options configures an Engine.
type Options struct {
	// Importer resolves packages outside the workspace. Defaults to the
	// source importer, which type-checks GOROOT and module cache sources.
	Importer gotypes.Importer
	// Concurrency bounds parallel file reads and parses; <= 0 means
	// runtime.NumCPU().
	Concurrency int
	Logger      *slog.Logger
}

// Engine type-checks modules on demand and caches the results until the
// text of a module changes.
type Engine struct {
	src         Source
	fset        *token.FileSet
	external    gotypes.Importer
	concurrency int
	logger      *slog.Logger

	// mu serializes type checking; go/types importers are not safe for
	// concurrent use.
	mu       sync.Mutex
	checked  map[string]*moduleResult
	checking map[string]bool

	snapMu    sync.RWMutex
	snapshots map[string]string
}

// moduleResult is the outcome of type-checking one module.
type moduleResult struct {
	module      workspace.Module
	fingerprint uint64
	pkg         *gotypes.Package
	info        *gotypes.Info
	files       map[string]*ast.File
	texts       map[string]string
	errs        []error
	index       map[string][]occurrence
	// deps holds the workspace modules this one was checked against.
	deps        map[string]*moduleResult
}

// occurrence is an identifier bound to some symbol, in snapshot coordinates.
type occurrence struct {
	path  string
	start types.Position
	end   types.Position
}

// New creates an Engine over src.
func New(src Source, opts Options) *Engine {
	fset := token.NewFileSet()
	ext := opts.Importer
	if ext == nil {
		ext = importer.ForCompiler(fset, "source", nil)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		src:         src,
		fset:        fset,
		external:    ext,
		concurrency: concurrency,
		logger:      logger,
		checked:     make(map[string]*moduleResult),
		checking:    make(map[string]bool),
		snapshots:   make(map[string]string),
	}
}

// Check type-checks the module ref belongs to and returns the analysis of
// ref's file. Type errors do not fail the check; only an unreadable module
// or cancellation does.
func (e *Engine) Check(ctx context.Context, ref types.ArtifactRef) (findusages.Analysis, error) {
	res, err := e.checkModule(ctx, ref.Module)
	if err != nil {
		return nil, err
	}
	file, ok := res.files[ref.Path]
	if !ok {
		return nil, fmt.Errorf("%s is not part of module %s", ref.Path, ref.Module)
	}
	return &Analysis{engine: e, res: res, path: ref.Path, file: file}, nil
}

// SnapshotText returns the text ref's path had when it was last checked.
func (e *Engine) SnapshotText(ref types.ArtifactRef) (string, bool) {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	text, ok := e.snapshots[ref.Path]
	return text, ok
}

// TypeErrors returns the type errors recorded for the named module during
// its last check.
func (e *Engine) TypeErrors(module string) []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if res, ok := e.checked[module]; ok {
		return append([]error(nil), res.errs...)
	}
	return nil
}

func (e *Engine) checkModule(ctx context.Context, name string) (*moduleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkLocked(ctx, name)
}

// checkLocked returns the cached result for the module if its text and
// the results of the workspace modules it imports are unchanged, otherwise
// re-parses and re-checks it. Callers hold e.mu.
func (e *Engine) checkLocked(ctx context.Context, name string) (*moduleResult, error) {
	mod, err := e.src.Module(name)
	if err != nil {
		return nil, err
	}

	texts, err := e.readTexts(ctx, name)
	if err != nil {
		return nil, err
	}
	fp := fingerprint(texts)

	if cached, ok := e.checked[name]; ok {
		if cached.fingerprint == fp {
			fresh, err := e.depsFresh(ctx, name, cached)
			if err != nil {
				return nil, err
			}
			if fresh {
				return cached, nil
			}
			e.logger.Debug("dependency changed, dropping cached analysis", "module", name)
		} else {
			e.logger.Debug("module changed, dropping cached analysis", "module", name)
		}
		delete(e.checked, name)
	}

	if e.checking[name] {
		return nil, fmt.Errorf("%w: %s", ErrImportCycle, name)
	}
	e.checking[name] = true
	defer delete(e.checking, name)

	files, err := e.parseFiles(ctx, texts)
	if err != nil {
		return nil, err
	}

	res := &moduleResult{
		module:      mod,
		fingerprint: fp,
		files:       files,
		texts:       texts,
		deps:        make(map[string]*moduleResult),
		info: &gotypes.Info{
			Defs:       make(map[*ast.Ident]gotypes.Object),
			Uses:       make(map[*ast.Ident]gotypes.Object),
			Implicits:  make(map[ast.Node]gotypes.Object),
			Selections: make(map[*ast.SelectorExpr]*gotypes.Selection),
		},
	}

	conf := gotypes.Config{
		Importer:    &moduleImporter{engine: e, ctx: ctx, deps: res.deps},
		FakeImportC: true,
		Error: func(err error) {
			res.errs = append(res.errs, err)
		},
	}

	ordered := make([]*ast.File, 0, len(files))
	for _, p := range sortedKeys(files) {
		ordered = append(ordered, files[p])
	}

	path := mod.ImportPath
	if path == "" {
		path = mod.Name
	}
	res.pkg, _ = conf.Check(path, e.fset, ordered, res.info)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.index = e.buildIndex(res)
	e.checked[name] = res

	e.snapMu.Lock()
	for p, text := range texts {
		e.snapshots[p] = text
	}
	e.snapMu.Unlock()

	e.logger.Debug("checked module", "module", name, "files", len(files), "type_errors", len(res.errs))
	return res, nil
}

// depsFresh reports whether every workspace module res was checked against
// still resolves to the same result. Revalidating a dependency rechecks it
// when its own text or dependencies changed. Callers hold e.mu.
func (e *Engine) depsFresh(ctx context.Context, name string, res *moduleResult) (bool, error) {
	if e.checking[name] {
		return false, fmt.Errorf("%w: %s", ErrImportCycle, name)
	}
	e.checking[name] = true
	defer delete(e.checking, name)

	for _, dep := range sortedKeys(res.deps) {
		current, err := e.checkLocked(ctx, dep)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			return false, nil
		}
		if current != res.deps[dep] {
			return false, nil
		}
	}
	return true, nil
}

// readTexts loads the current text of every file in the module.
func (e *Engine) readTexts(ctx context.Context, module string) (map[string]string, error) {
	arts := e.src.ModuleArtifacts(module)
	texts := make([]string, len(arts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, a := range arts {
		g.Go(func() error {
			text, err := e.src.Text(gctx, a)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading module %s: %w", module, err)
	}

	result := make(map[string]string, len(arts))
	for i, a := range arts {
		result[a.Path] = texts[i]
	}
	return result, nil
}

// parseFiles parses every text into the shared file set. Files with syntax
// errors keep whatever partial AST the parser produced.
func (e *Engine) parseFiles(ctx context.Context, texts map[string]string) (map[string]*ast.File, error) {
	paths := sortedKeys(texts)
	parsed := make([]*ast.File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := parser.ParseFile(e.fset, p, texts[p], parser.ParseComments|parser.AllErrors)
			if err != nil && f == nil {
				e.logger.Debug("skipping unparsable file", "path", p, "error", err)
				return nil
			}
			parsed[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make(map[string]*ast.File, len(paths))
	for i, p := range paths {
		if parsed[i] != nil {
			files[p] = parsed[i]
		}
	}
	return files, nil
}

// moduleImporter resolves imports of workspace packages from source and
// delegates everything else to the external importer.
type moduleImporter struct {
	engine *Engine
	ctx    context.Context
	deps   map[string]*moduleResult
}

func (m *moduleImporter) Import(path string) (*gotypes.Package, error) {
	if path == "unsafe" {
		return gotypes.Unsafe, nil
	}
	for _, mod := range m.engine.src.Modules() {
		if mod.Test || mod.ImportPath != path {
			continue
		}
		res, err := m.engine.checkLocked(m.ctx, mod.Name)
		if err != nil {
			return nil, err
		}
		m.deps[mod.Name] = res
		return res.pkg, nil
	}
	return m.engine.external.Import(path)
}

func fingerprint(texts map[string]string) uint64 {
	h := fnv.New64a()
	for _, p := range sortedKeys(texts) {
		io.WriteString(h, p)
		h.Write([]byte{0})
		io.WriteString(h, texts[p])
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

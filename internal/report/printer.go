// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/fatih/color"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Printer writes one line per definition and reference, grep style:
//
//	path:line:col: [def] Kind FullName (module)
//	path:line:col: Name
type Printer struct {
	w    io.Writer
	root string

	def    *color.Color
	loc    *color.Color
	module *color.Color

	mu sync.Mutex
}

var _ types.Reporter = (*Printer)(nil)

// NewPrinter creates a Printer writing to w. Paths under root are printed
// relative to it. Colors are used only when colored is true.
func NewPrinter(w io.Writer, root string, colored bool) *Printer {
	p := &Printer{
		w:      w,
		root:   root,
		def:    color.New(color.FgGreen, color.Bold),
		loc:    color.New(color.FgCyan),
		module: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.def, p.loc, p.module} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// OnDefinitionFound prints one line per span of def, or a single
// [external] line when def has no source.
func (p *Printer) OnDefinitionFound(ctx context.Context, def types.DefinitionDescriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	label := fmt.Sprintf("%s %s", def.Kind, def.FullName)
	if !def.Navigable {
		_, err := fmt.Fprintf(p.w, "%s %s %s\n",
			p.def.Sprint("[external]"), label, p.module.Sprintf("(%s)", def.Module))
		return err
	}
	for _, s := range def.Spans {
		_, err := fmt.Fprintf(p.w, "%s: %s %s %s\n",
			p.loc.Sprint(p.position(s.Range)), p.def.Sprint("[def]"), label,
			p.module.Sprintf("(%s)", s.Artifact.Module))
		if err != nil {
			return err
		}
	}
	return nil
}

// OnReferenceFound prints the location of ref.
func (p *Printer) OnReferenceFound(ctx context.Context, ref types.ReportedReference) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := fmt.Fprintf(p.w, "%s: %s %s\n",
		p.loc.Sprint(p.position(ref.Span.Range)), ref.Definition.Name,
		p.module.Sprintf("(%s)", ref.Span.Artifact.Module))
	return err
}

func (p *Printer) position(r types.TextRange) string {
	path := r.Path
	if p.root != "" {
		if rel, err := filepath.Rel(p.root, path); err == nil {
			path = rel
		}
	}
	return fmt.Sprintf("%s:%d:%d", path, r.Start.Line, r.Start.Column+1)
}

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report provides Reporter implementations for the hosts of the
// find-usages core.
package report

import (
	"context"
	"sort"
	"sync"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Collector records everything reported to it. It is safe for concurrent
// use.
type Collector struct {
	mu   sync.Mutex
	defs []types.DefinitionDescriptor
	refs []types.ReportedReference
}

var _ types.Reporter = (*Collector)(nil)

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// OnDefinitionFound records def.
func (c *Collector) OnDefinitionFound(ctx context.Context, def types.DefinitionDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs = append(c.defs, def)
	return nil
}

// OnReferenceFound records ref.
func (c *Collector) OnReferenceFound(ctx context.Context, ref types.ReportedReference) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs = append(c.refs, ref)
	return nil
}

// Definitions returns the reported definitions in report order.
func (c *Collector) Definitions() []types.DefinitionDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]types.DefinitionDescriptor, len(c.defs))
	copy(result, c.defs)
	return result
}

// References returns the reported references sorted by path, module, and
// offset.
func (c *Collector) References() []types.ReportedReference {
	c.mu.Lock()
	result := make([]types.ReportedReference, len(c.refs))
	copy(result, c.refs)
	c.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Span, result[j].Span
		if a.Artifact.Path != b.Artifact.Path {
			return a.Artifact.Path < b.Artifact.Path
		}
		if a.Artifact.Module != b.Artifact.Module {
			return a.Artifact.Module < b.Artifact.Module
		}
		return a.Start < b.Start
	})
	return result
}

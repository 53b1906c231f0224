// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package findusages

import (
	"context"

	"github.com/petar-djukic/go-finder/pkg/types"
)

// Classifier decides whether a declaration can be navigated to and builds
// the definition descriptors for it.
type Classifier struct {
	mapper *Mapper
}

// NewClassifier creates a Classifier that maps declarations with mapper.
func NewClassifier(mapper *Mapper) *Classifier {
	return &Classifier{mapper: mapper}
}

// Classify returns one navigable descriptor per module that compiles the
// declaration, or a single non-navigable descriptor when the declaration
// is not found or maps to no span in the workspace.
func (c *Classifier) Classify(ctx context.Context, use types.SymbolUse, decl types.Declaration) ([]types.DefinitionDescriptor, error) {
	if !decl.Found {
		return []types.DefinitionDescriptor{nonNavigable(use)}, nil
	}

	spans, err := c.mapper.MapRangeToSpans(ctx, decl.Range)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return []types.DefinitionDescriptor{nonNavigable(use)}, nil
	}

	type spanKey struct {
		path   string
		module string
	}
	seen := make(map[spanKey]bool, len(spans))
	byModule := make(map[string]int)

	var defs []types.DefinitionDescriptor
	for _, s := range spans {
		k := spanKey{path: s.Artifact.Path, module: s.Artifact.Module}
		if seen[k] {
			continue
		}
		seen[k] = true

		idx, ok := byModule[k.module]
		if !ok {
			idx = len(defs)
			byModule[k.module] = idx
			defs = append(defs, navigable(use))
		}
		defs[idx].Spans = append(defs[idx].Spans, s)
	}
	return defs, nil
}

func navigable(use types.SymbolUse) types.DefinitionDescriptor {
	d := nonNavigable(use)
	d.Navigable = true
	return d
}

func nonNavigable(use types.SymbolUse) types.DefinitionDescriptor {
	return types.DefinitionDescriptor{
		Name:      use.Name,
		FullName:  use.FullName,
		Kind:      use.Kind,
		Module:    use.Module,
		Signature: use.Signature,
	}
}

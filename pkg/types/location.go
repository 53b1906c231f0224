// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Position is a location inside a text. Line is 1-based; Column is a
// 0-based byte column within the line.
type Position struct {
	Line   int
	Column int
}

// Less reports whether p comes before q.
func (p Position) Less(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// TextRange is a half-open range inside a named source file.
type TextRange struct {
	Path  string
	Start Position
	End   Position
}

// IsDegenerate reports whether the range has no extent. Analysis engines
// produce such ranges for synthesized symbols.
func (r TextRange) IsDegenerate() bool {
	return r.Start == r.End
}

func (r TextRange) String() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d", r.Path, r.Start.Line, r.Start.Column, r.End.Line, r.End.Column)
}

// ArtifactRef is a handle to one file as compiled within one module. The
// same Path may back several artifacts.
type ArtifactRef struct {
	ID     int
	Path   string
	Module string
}

// NavigableSpan is a concrete, jump-to-able byte span inside one artifact's
// current text.
type NavigableSpan struct {
	Artifact ArtifactRef
	Start    int       // Byte offset (inclusive)
	End      int       // Byte offset (exclusive)
	Range    TextRange // Line/column form of Start and End
}

// Occurrence is a use of a symbol paired with the artifact it was found in.
type Occurrence struct {
	Artifact ArtifactRef
	Range    TextRange
}

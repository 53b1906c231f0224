// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

// Token is an identifier found in a text by the tokenizer.
type Token struct {
	Text        string
	Start       int      // Byte offset of the first byte
	End         int      // Byte offset past the last byte
	Line        int      // 1-based line of the token
	StartColumn int      // 0-based byte column of Start
	EndColumn   int      // 0-based byte column of End
	LineText    string   // Full text of the token's line, without newline
	Island      []string // Dotted identifier chain ending with Text (pkg.Type.Field)
}

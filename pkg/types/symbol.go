// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines shared types used across go-finder packages.
package types

// SymbolKind identifies the category of a code symbol.
type SymbolKind int

const (
	Function  SymbolKind = iota // Function declaration
	Method                      // Method declaration (has receiver)
	Struct                      // Struct type declaration
	Interface                   // Interface type declaration
	Variable                    // Variable, parameter, or result
	Constant                    // Constant declaration
	Field                       // Struct field
	TypeName                    // Any other named type (alias, defined type, type parameter)
	Package                     // Imported package name
	Label                       // Statement label
	Builtin                     // Universe-scope builtin (len, append, ...)
)

// String returns the human-readable name of the symbol kind.
func (k SymbolKind) String() string {
	switch k {
	case Function:
		return "Function"
	case Method:
		return "Method"
	case Struct:
		return "Struct"
	case Interface:
		return "Interface"
	case Variable:
		return "Variable"
	case Constant:
		return "Constant"
	case Field:
		return "Field"
	case TypeName:
		return "Type"
	case Package:
		return "Package"
	case Label:
		return "Label"
	case Builtin:
		return "Builtin"
	default:
		return "Unknown"
	}
}

// SymbolUse is one occurrence's resolved binding to a symbol.
type SymbolUse struct {
	Key       string     // Identity shared by every occurrence of the symbol
	Name      string     // Display text
	FullName  string     // Qualified name (pkg.Type.Method)
	Module    string     // Originating package path of the symbol
	Kind      SymbolKind // Presentation classification
	Signature string     // Rendered type information
}

// Declaration is the canonical defining location of a symbol, if any is
// reachable from source.
type Declaration struct {
	Found bool
	Range TextRange
}

// FoundAt returns a declaration located at r.
func FoundAt(r TextRange) Declaration {
	return Declaration{Found: true, Range: r}
}

// NotFound returns a declaration with no source location.
func NotFound() Declaration {
	return Declaration{}
}

// Package ast defines the expression/statement sum types, the type
// algebra, and the scope-structured symbol table that the optimizer and
// code generator consume. Lexing, parsing, and pretty-printing build this
// tree; this package only models its shape.
package ast

import "fmt"

// Pos is a source position carried on every node for diagnostics. It is
// optional: a node synthesized by the optimizer (e.g. a folded literal)
// may carry a zero Pos.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" && p.Line == 0 {
		return "<generated>"
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IsZero reports whether the position was never set.
func (p Pos) IsZero() bool { return p.File == "" && p.Line == 0 && p.Column == 0 }

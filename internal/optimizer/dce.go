package optimizer

import "github.com/sindarin-lang/sdc/internal/ast"

// EliminateDeadCode drops every statement following a terminator in
// stmts (spec.md §4.3 pass 1), recursing into nested blocks. It runs
// once per Run — not to a fixpoint — since a single top-down pass
// already catches every terminator introduced by earlier source text;
// nothing a later pass does here can expose a new one.
func EliminateDeadCode(stmts []ast.Statement, stats *Stats) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	terminated := false
	for _, st := range stmts {
		if terminated {
			stats.StmtsRemoved++
			continue
		}
		st = recurseDCE(st, stats)
		out = append(out, st)
		if IsTerminator(st) {
			terminated = true
		}
	}
	return out
}

func recurseDCE(st ast.Statement, stats *Stats) ast.Statement {
	switch s := st.(type) {
	case *ast.BlockStmt:
		s.Statements = EliminateDeadCode(s.Statements, stats)
	case *ast.IfStmt:
		if s.Then != nil {
			s.Then.Statements = EliminateDeadCode(s.Then.Statements, stats)
		}
		if s.Else != nil {
			s.Else.Statements = EliminateDeadCode(s.Else.Statements, stats)
		}
	case *ast.WhileStmt:
		if s.Body != nil {
			s.Body.Statements = EliminateDeadCode(s.Body.Statements, stats)
		}
	case *ast.ForStmt:
		if s.Body != nil {
			s.Body.Statements = EliminateDeadCode(s.Body.Statements, stats)
		}
	case *ast.ForEachStmt:
		if s.Body != nil {
			s.Body.Statements = EliminateDeadCode(s.Body.Statements, stats)
		}
	case *ast.FuncDeclStmt:
		s.Body = EliminateDeadCode(s.Body, stats)
	}
	return st
}

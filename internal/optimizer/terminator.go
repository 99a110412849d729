package optimizer

import "github.com/sindarin-lang/sdc/internal/ast"

// IsTerminator reports whether stmt unconditionally transfers control
// out of the statement list it sits in — a return, break, continue, a
// block whose last statement terminates, or an if/else where both arms
// terminate. Dead-code elimination uses this to find the point past
// which a statement list is unreachable.
func IsTerminator(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
		return true
	case *ast.BlockStmt:
		return blockTerminates(s.Statements)
	case *ast.IfStmt:
		if s.Else == nil {
			return false
		}
		return blockTerminates(s.Then.Statements) && blockTerminates(s.Else.Statements)
	default:
		return false
	}
}

func blockTerminates(stmts []ast.Statement) bool {
	if len(stmts) == 0 {
		return false
	}
	return IsTerminator(stmts[len(stmts)-1])
}

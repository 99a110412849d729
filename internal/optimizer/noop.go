package optimizer

import "github.com/sindarin-lang/sdc/internal/ast"

// SimplifyNoOps removes statements with no observable effect (spec.md
// §4.3 pass 2): a bare variable or literal used as a statement, a
// self-assignment `x = x`, and an if/else whose branches are both empty
// and whose condition is side-effect free.
func SimplifyNoOps(stmts []ast.Statement, stats *Stats) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, st := range stmts {
		st = simplifyStmt(st, stats)
		if st == nil {
			stats.NoOpsSimplified++
			continue
		}
		out = append(out, st)
	}
	return out
}

func simplifyStmt(st ast.Statement, stats *Stats) ast.Statement {
	switch s := st.(type) {
	case *ast.ExpressionStmt:
		if isNoOpExpr(s.Expr) {
			return nil
		}
		return s
	case *ast.BlockStmt:
		s.Statements = SimplifyNoOps(s.Statements, stats)
		return s
	case *ast.IfStmt:
		if s.Then != nil {
			s.Then.Statements = SimplifyNoOps(s.Then.Statements, stats)
		}
		if s.Else != nil {
			s.Else.Statements = SimplifyNoOps(s.Else.Statements, stats)
		}
		if blockEmpty(s.Then) && blockEmpty(s.Else) && sideEffectFree(s.Cond) {
			return nil
		}
		return s
	case *ast.WhileStmt:
		if s.Body != nil {
			s.Body.Statements = SimplifyNoOps(s.Body.Statements, stats)
		}
		return s
	case *ast.ForStmt:
		if s.Body != nil {
			s.Body.Statements = SimplifyNoOps(s.Body.Statements, stats)
		}
		return s
	case *ast.ForEachStmt:
		if s.Body != nil {
			s.Body.Statements = SimplifyNoOps(s.Body.Statements, stats)
		}
		return s
	case *ast.FuncDeclStmt:
		s.Body = SimplifyNoOps(s.Body, stats)
		return s
	default:
		return st
	}
}

func isNoOpExpr(e ast.Expression) bool {
	switch v := e.(type) {
	case *ast.VarExpr, *ast.LiteralExpr:
		return true
	case *ast.AssignExpr:
		if v.Declare {
			return false
		}
		target, ok := v.Target.(*ast.VarExpr)
		if !ok {
			return false
		}
		value, ok := v.Value.(*ast.VarExpr)
		if !ok {
			return false
		}
		return target.Name == value.Name
	default:
		return false
	}
}

func blockEmpty(b *ast.BlockStmt) bool {
	return b == nil || len(b.Statements) == 0
}

func sideEffectFree(e ast.Expression) bool {
	if e == nil {
		return true
	}
	switch e.(type) {
	case *ast.LiteralExpr, *ast.VarExpr:
		return true
	default:
		return false
	}
}

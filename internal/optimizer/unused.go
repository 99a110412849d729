package optimizer

import "github.com/sindarin-lang/sdc/internal/ast"

// RemoveUnusedVars drops local declarations whose name is never
// referenced again and whose initializer has no side effect to preserve
// (spec.md §4.3 pass 5). Any reference counts as a use, an assignment
// to the variable included, so a variable that is only written is kept. A declaration whose initializer calls out to another
// function is kept even if the variable itself goes unread — the call
// might matter for what it does, not what it returns.
func RemoveUnusedVars(stmts []ast.Statement, stats *Stats) []ast.Statement {
	used := collectUsedNames(stmts)
	return pruneUnused(stmts, used, stats)
}

func collectUsedNames(stmts []ast.Statement) map[string]int {
	counts := make(map[string]int)
	WalkStmt(stmts, func(e ast.Expression) {
		if v, ok := e.(*ast.VarExpr); ok {
			counts[v.Name]++
		}
	}, nil)
	return counts
}

func pruneUnused(stmts []ast.Statement, used map[string]int, stats *Stats) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, st := range stmts {
		if decl, ok := st.(*ast.VarDeclStmt); ok {
			if used[decl.Name] == 0 && isPureExpr(decl.Init) {
				stats.VarsRemoved++
				continue
			}
		}
		out = append(out, recursePrune(st, used, stats))
	}
	return out
}

func recursePrune(st ast.Statement, used map[string]int, stats *Stats) ast.Statement {
	switch s := st.(type) {
	case *ast.BlockStmt:
		s.Statements = pruneUnused(s.Statements, used, stats)
	case *ast.IfStmt:
		if s.Then != nil {
			s.Then.Statements = pruneUnused(s.Then.Statements, used, stats)
		}
		if s.Else != nil {
			s.Else.Statements = pruneUnused(s.Else.Statements, used, stats)
		}
	case *ast.WhileStmt:
		if s.Body != nil {
			s.Body.Statements = pruneUnused(s.Body.Statements, used, stats)
		}
	case *ast.ForStmt:
		if s.Body != nil {
			s.Body.Statements = pruneUnused(s.Body.Statements, used, stats)
		}
	case *ast.ForEachStmt:
		if s.Body != nil {
			s.Body.Statements = pruneUnused(s.Body.Statements, used, stats)
		}
	case *ast.FuncDeclStmt:
		localUsed := collectUsedNames(s.Body)
		s.Body = pruneUnused(s.Body, localUsed, stats)
	}
	return st
}

// isPureExpr is a conservative purity check: true only for expressions
// built entirely out of literals, variable reads, and arithmetic over
// them — anything that might call out or mutate returns false.
func isPureExpr(e ast.Expression) bool {
	if e == nil {
		return true
	}
	switch v := e.(type) {
	case *ast.LiteralExpr, *ast.VarExpr:
		return true
	case *ast.BinaryExpr:
		return isPureExpr(v.Left) && isPureExpr(v.Right)
	case *ast.UnaryExpr:
		return isPureExpr(v.Operand)
	case *ast.ArrayLiteralExpr:
		for _, el := range v.Elements {
			if !isPureExpr(el) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

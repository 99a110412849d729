package optimizer

import "github.com/sindarin-lang/sdc/internal/ast"

// MarkTailCalls finds every `return f(...)` in fn's body, its nested
// blocks and its if/else arms, where f is fn itself, flips
// CallExpr.IsTailCall, and sets fn.IsTailRecursive when at least one
// call was marked (spec.md §4.3 pass 3). Returns inside loop bodies are
// not examined. The marks are checked by codegen.Validate; the code
// generator lowers a marked call as an ordinary C call. Only direct
// self-recursion is recognized — mutual recursion and calls through a
// function value are left as ordinary calls, matching the narrower
// scope of the C ancestor this was ported from.
func MarkTailCalls(fn *ast.FuncDeclStmt, stats *Stats) int {
	marked := markTailCallsInStmts(fn.Body, fn.Name)
	if marked > 0 {
		fn.IsTailRecursive = true
	}
	stats.TailCallsMarked += marked
	return marked
}

// MarkAllTailCalls runs MarkTailCalls over every top-level function
// declaration in the program.
func MarkAllTailCalls(prog *ast.Program, stats *Stats) {
	for _, st := range prog.Statements {
		if fn, ok := st.(*ast.FuncDeclStmt); ok {
			MarkTailCalls(fn, stats)
		}
	}
}

func markTailCallsInStmts(stmts []ast.Statement, name string) int {
	marked := 0
	for _, st := range stmts {
		marked += markTailCallsInStmt(st, name)
	}
	return marked
}

func markTailCallsInStmt(st ast.Statement, name string) int {
	switch s := st.(type) {
	case *ast.ReturnStmt:
		if call := tailCallExpr(s.Value, name); call != nil {
			call.IsTailCall = true
			return 1
		}
		return 0
	case *ast.BlockStmt:
		return markTailCallsInStmts(s.Statements, name)
	case *ast.IfStmt:
		marked := 0
		if s.Then != nil {
			marked += markTailCallsInStmts(s.Then.Statements, name)
		}
		if s.Else != nil {
			marked += markTailCallsInStmts(s.Else.Statements, name)
		}
		return marked
	default:
		return 0
	}
}

// tailCallExpr returns the call expression if e is a direct call to
// name, or nil otherwise.
func tailCallExpr(e ast.Expression, name string) *ast.CallExpr {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return nil
	}
	if call.Callee != nil {
		v, ok := call.Callee.(*ast.VarExpr)
		if ok && v.Name == name {
			return call
		}
		return nil
	}
	if call.Name == name {
		return call
	}
	return nil
}

package optimizer

import "github.com/sindarin-lang/sdc/internal/ast"

// WalkExpr visits e and every expression nested inside it, pre-order.
// It does not descend into LambdaExpr.Body or BlockExpr statements —
// callers that need those call WalkStmt on them directly, since a
// nested function body has its own scope the caller usually wants to
// handle separately.
func WalkExpr(e ast.Expression, visit func(ast.Expression)) {
	if e == nil {
		return
	}
	visit(e)
	switch v := e.(type) {
	case *ast.BinaryExpr:
		WalkExpr(v.Left, visit)
		WalkExpr(v.Right, visit)
	case *ast.UnaryExpr:
		WalkExpr(v.Operand, visit)
	case *ast.AssignExpr:
		WalkExpr(v.Target, visit)
		WalkExpr(v.Value, visit)
	case *ast.IndexedAssignExpr:
		WalkExpr(v.Array, visit)
		WalkExpr(v.Index, visit)
		WalkExpr(v.Value, visit)
	case *ast.CompoundAssignExpr:
		WalkExpr(v.Target, visit)
		WalkExpr(v.Value, visit)
	case *ast.CallExpr:
		WalkExpr(v.Callee, visit)
		for _, a := range v.Args {
			WalkExpr(a, visit)
		}
	case *ast.StaticCallExpr:
		for _, a := range v.Args {
			WalkExpr(a, visit)
		}
	case *ast.MethodCallExpr:
		WalkExpr(v.Receiver, visit)
		for _, a := range v.Args {
			WalkExpr(a, visit)
		}
	case *ast.ArrayLiteralExpr:
		for _, el := range v.Elements {
			WalkExpr(el, visit)
		}
	case *ast.ArrayAccessExpr:
		WalkExpr(v.Array, visit)
		WalkExpr(v.Index, visit)
	case *ast.ArraySliceExpr:
		WalkExpr(v.Array, visit)
		WalkExpr(v.Start, visit)
		WalkExpr(v.End, visit)
	case *ast.RangeExpr:
		WalkExpr(v.Start, visit)
		WalkExpr(v.End, visit)
	case *ast.SpreadExpr:
		WalkExpr(v.Operand, visit)
	case *ast.InterpolatedStringExpr:
		for _, p := range v.Parts {
			WalkExpr(p.Expr, visit)
		}
	case *ast.MemberAccessExpr:
		WalkExpr(v.Object, visit)
	case *ast.MemberAssignExpr:
		WalkExpr(v.Object, visit)
		WalkExpr(v.Value, visit)
	case *ast.SizedArrayAllocExpr:
		WalkExpr(v.Size, visit)
	case *ast.ThreadSpawnExpr:
		if v.Call != nil {
			WalkExpr(v.Call, visit)
		}
	case *ast.ThreadSyncExpr:
		WalkExpr(v.Handle, visit)
	case *ast.SyncListExpr:
		for _, h := range v.Handles {
			WalkExpr(h, visit)
		}
	case *ast.ValueOfExpr:
		WalkExpr(v.Operand, visit)
	case *ast.RefOfExpr:
		WalkExpr(v.Operand, visit)
	case *ast.TypeOfExpr:
		WalkExpr(v.Operand, visit)
	case *ast.IsExpr:
		WalkExpr(v.Operand, visit)
	case *ast.CastExpr:
		WalkExpr(v.Operand, visit)
	case *ast.StructLiteralExpr:
		for _, name := range v.FieldOrder {
			WalkExpr(v.Fields[name], visit)
		}
	case *ast.SizeOfExpr:
		WalkExpr(v.OfExpr, visit)
	case *ast.IncDecExpr:
		WalkExpr(v.Operand, visit)
	case *ast.MatchExpr:
		WalkExpr(v.Subject, visit)
		for _, arm := range v.Arms {
			WalkExpr(arm.Literal, visit)
			WalkExpr(arm.Result, visit)
		}
		WalkExpr(v.Default, visit)
	}
}

// WalkStmt visits every statement nested in stmts and calls visitExpr on
// every expression reachable from them. visitStmt, if non-nil, is
// called once per statement before its children are visited.
func WalkStmt(stmts []ast.Statement, visitExpr func(ast.Expression), visitStmt func(ast.Statement)) {
	for _, st := range stmts {
		walkOneStmt(st, visitExpr, visitStmt)
	}
}

func walkOneStmt(st ast.Statement, visitExpr func(ast.Expression), visitStmt func(ast.Statement)) {
	if st == nil {
		return
	}
	if visitStmt != nil {
		visitStmt(st)
	}
	switch s := st.(type) {
	case *ast.ExpressionStmt:
		WalkExpr(s.Expr, visitExpr)
	case *ast.VarDeclStmt:
		WalkExpr(s.Init, visitExpr)
	case *ast.ReturnStmt:
		WalkExpr(s.Value, visitExpr)
	case *ast.BlockStmt:
		WalkStmt(s.Statements, visitExpr, visitStmt)
	case *ast.IfStmt:
		WalkExpr(s.Cond, visitExpr)
		if s.Then != nil {
			WalkStmt(s.Then.Statements, visitExpr, visitStmt)
		}
		if s.Else != nil {
			WalkStmt(s.Else.Statements, visitExpr, visitStmt)
		}
	case *ast.WhileStmt:
		WalkExpr(s.Cond, visitExpr)
		if s.Body != nil {
			WalkStmt(s.Body.Statements, visitExpr, visitStmt)
		}
	case *ast.ForStmt:
		walkOneStmt(s.Init, visitExpr, visitStmt)
		WalkExpr(s.Cond, visitExpr)
		walkOneStmt(s.Post, visitExpr, visitStmt)
		if s.Body != nil {
			WalkStmt(s.Body.Statements, visitExpr, visitStmt)
		}
	case *ast.ForEachStmt:
		WalkExpr(s.Iterable, visitExpr)
		if s.Body != nil {
			WalkStmt(s.Body.Statements, visitExpr, visitStmt)
		}
	case *ast.FuncDeclStmt:
		WalkStmt(s.Body, visitExpr, visitStmt)
	case *ast.LockStmt:
		WalkExpr(s.Target, visitExpr)
		if s.Body != nil {
			WalkStmt(s.Body.Statements, visitExpr, visitStmt)
		}
	case *ast.StructDeclStmt:
		for _, m := range s.Methods {
			walkOneStmt(m, visitExpr, visitStmt)
		}
	}
}

package codegen

import (
	"fmt"
	"strings"

	"github.com/sindarin-lang/sdc/internal/ast"
)

// ClosureField is one captured-variable slot in a hoisted lambda's
// closure struct (spec.md §4.2 "Lambda hoisting... closure struct").
type ClosureField struct {
	Name string
	Type *ast.Type
}

// ClosureLayout is the struct layout a LambdaExpr's captures are lowered
// into: one field per name in lam.Captured, resolved against the
// enclosing scope so the field carries the captured variable's type.
func ClosureLayout(lam *ast.LambdaExpr, enclosing *ast.Scope) []ClosureField {
	fields := make([]ClosureField, 0, len(lam.Captured))
	for _, name := range lam.Captured {
		var typ *ast.Type
		if sym, ok := enclosing.Lookup(name); ok {
			typ = sym.Type
		}
		fields = append(fields, ClosureField{Name: name, Type: typ})
	}
	return fields
}

// IsSelfRecursive reports whether lam's body calls back into the name
// it will be hoisted under — the case spec.md §4.2 calls out as needing
// "recursive self-fixup": the closure struct must be fully built and
// its function pointer installed before the body's first recursive call
// can run.
func IsSelfRecursive(lam *ast.LambdaExpr, hoistedName string) bool {
	found := false
	var scan func(ast.Expression)
	scan = func(e ast.Expression) {
		if e == nil || found {
			return
		}
		if call, ok := e.(*ast.CallExpr); ok && call.Name == hoistedName {
			found = true
			return
		}
		walkLambdaBody(e, scan)
	}
	scan(lam.Body)
	return found
}

// HasLocalDeclarations reports whether a lambda body declares a local
// variable anywhere but as a nested lambda assignment, grounded
// directly on the teacher's hasLocalVariables (lambda_helpers.go) —
// same restriction (lambdas may bind params and nest closures, but may
// not declare their own locals), same traversal shape, retargeted from
// the teacher's BlockExpr/AssignStmt/MatchExpr node names to this
// package's ast.BlockExpr/ast.AssignExpr/ast.MatchExpr.
func HasLocalDeclarations(expr ast.Expression) bool {
	found := false
	var scan func(ast.Expression)
	scan = func(e ast.Expression) {
		if e == nil || found {
			return
		}
		switch ex := e.(type) {
		case *ast.BlockExpr:
			for _, stmt := range ex.Statements {
				es, ok := stmt.(*ast.ExpressionStmt)
				if !ok {
					continue
				}
				assign, ok := es.Expr.(*ast.AssignExpr)
				if !ok {
					continue
				}
				if _, isLambda := assign.Value.(*ast.LambdaExpr); isLambda {
					continue
				}
				if assign.Declare {
					found = true
					return
				}
			}
		case *ast.MatchExpr:
			for _, arm := range ex.Arms {
				scan(arm.Result)
			}
			scan(ex.Default)
		}
	}
	scan(expr)
	return found
}

// lowerLambda hoists lam to a top-level static thunk plus the closure
// struct literal carrying its captured free variables (spec.md §4.2
// "Lambda... Free variables become members of a heap-allocated closure
// struct captured at the allocation site. A thunk with a closure
// pointer as first parameter is emitted alongside."). boundName is the
// name lam is being declared under, used only to recognize self-
// recursion ("the being-declared variable captured by its own
// initializer"); pass "" for an anonymous lambda in expression
// position, which cannot be self-recursive by construction.
func lowerLambda(g *Generator, lam *ast.LambdaExpr, boundName string) string {
	name := g.NextLambdaName()
	closureType := name + "_closure"
	fields := ClosureLayout(lam, g.Scope())
	selfRecursive := boundName != "" && IsSelfRecursive(lam, boundName)

	retType := "RtHandle"
	if lam.ReturnType != nil && !lam.ReturnType.IsHandleTyped() {
		retType = cTypeName(lam.ReturnType)
	}

	params := make([]string, 0, len(lam.Params)+2)
	params = append(params, "void *_sdc_closure", "RtManagedArena *arena")
	for i, p := range lam.Params {
		t := "RtHandle"
		if i < len(lam.ParamTypes) && lam.ParamTypes[i] != nil && !lam.ParamTypes[i].IsHandleTyped() {
			t = cTypeName(lam.ParamTypes[i])
		}
		params = append(params, t+" "+p)
	}

	var structFields strings.Builder
	structFields.WriteString("    void *fn;\n")
	if selfRecursive {
		// A self-recursive lambda's own call site needs the closure
		// pointer it was invoked through, so the struct carries it
		// alongside the captures a plain recursive reference would need.
		structFields.WriteString("    void *self;\n")
	}
	for _, f := range fields {
		fmt.Fprintf(&structFields, "    %s %s;\n", cTypeName(f.Type), f.Name)
	}

	var decl strings.Builder
	fmt.Fprintf(&decl, "typedef struct {\n%s} %s;\n\n", structFields.String(), closureType)
	fmt.Fprintf(&decl, "static %s %s(%s) {\n", retType, name, strings.Join(params, ", "))
	if len(fields) > 0 {
		fmt.Fprintf(&decl, "    %s *_sdc_c = (%s *)_sdc_closure;\n", closureType, closureType)
		for _, f := range fields {
			fmt.Fprintf(&decl, "    %s %s = _sdc_c->%s;\n", cTypeName(f.Type), f.Name, f.Name)
		}
	}

	prevFunc := g.curFunc
	g.curFunc = nil
	fnArenaVar := g.NextTemp("lambda_arena")
	pop := g.PushArena(fnArenaVar, ArenaFunction)
	g.PushScope()
	fmt.Fprintf(&decl, "    RtManagedArena *%s = rt_managed_arena_create_child(arena);\n", fnArenaVar)
	// TODO: a recursive call inside lam.Body that targets boundName still
	// lowers through the ordinary CallExpr path (by source name), not
	// through this thunk's own _sdc_closure pointer — self-recursive
	// lambdas need CallExpr dispatch rewritten to call name(...) with the
	// closure forwarded before this is correct.
	if body, ok := lam.Body.(*ast.BlockExpr); ok {
		for _, st := range body.Statements {
			decl.WriteString(LowerStmt(g, st, 1))
		}
	} else {
		fmt.Fprintf(&decl, "    %s _sdc_ret = %s;\n", retType, LowerExpr(g, lam.Body))
		fmt.Fprintf(&decl, "    rt_managed_arena_destroy_child(arena, %s);\n", fnArenaVar)
		decl.WriteString("    return _sdc_ret;\n")
	}
	if _, isBlock := lam.Body.(*ast.BlockExpr); isBlock {
		fmt.Fprintf(&decl, "    rt_managed_arena_destroy_child(arena, %s);\n", fnArenaVar)
	}
	g.PopScope()
	pop()
	g.curFunc = prevFunc
	decl.WriteString("}\n")

	g.emitHoisted(decl.String())

	litFields := []string{".fn = (void *)" + name}
	for _, f := range fields {
		litFields = append(litFields, fmt.Sprintf(".%s = %s", f.Name, f.Name))
	}
	closureVar := g.NextTemp("closure")
	var box strings.Builder
	fmt.Fprintf(&box, "({ %s *%s = rt_managed_arena_alloc_raw(%s, sizeof(%s)); *%s = (%s){%s}; ",
		closureType, closureVar, g.CurrentArenaVar(), closureType, closureVar, closureType, strings.Join(litFields, ", "))
	if selfRecursive {
		fmt.Fprintf(&box, "%s->self = %s; ", closureVar, closureVar)
	}
	fmt.Fprintf(&box, "%s; })", closureVar)
	return box.String()
}

// walkLambdaBody is a small expression-only descent used by
// IsSelfRecursive — it does not need the full generality of
// optimizer.WalkExpr (which this package deliberately does not import,
// to keep lambda hoisting decoupled from the optimizer's pass
// machinery), only enough to find a CallExpr anywhere under a lambda
// body's BlockExpr/MatchExpr/BinaryExpr shapes.
func walkLambdaBody(e ast.Expression, visit func(ast.Expression)) {
	switch v := e.(type) {
	case *ast.BlockExpr:
		for _, stmt := range v.Statements {
			if es, ok := stmt.(*ast.ExpressionStmt); ok {
				visit(es.Expr)
			}
			if ret, ok := stmt.(*ast.ReturnStmt); ok {
				visit(ret.Value)
			}
		}
	case *ast.BinaryExpr:
		visit(v.Left)
		visit(v.Right)
	case *ast.CallExpr:
		for _, a := range v.Args {
			visit(a)
		}
	case *ast.MatchExpr:
		for _, arm := range v.Arms {
			visit(arm.Result)
		}
		visit(v.Default)
	}
}

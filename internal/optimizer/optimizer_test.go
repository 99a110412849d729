package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sindarin-lang/sdc/internal/ast"
)

func lit(v any) ast.Expression          { return &ast.LiteralExpr{Raw: v} }
func varRef(name string) ast.Expression { return &ast.VarExpr{Name: name} }

func TestEliminateDeadCodeDropsAfterReturn(t *testing.T) {
	fn := &ast.FuncDeclStmt{
		Name: "f",
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: lit(1)},
			&ast.ExpressionStmt{Expr: lit(2)},
		},
	}
	prog := &ast.Program{Statements: []ast.Statement{fn}}
	stats, _ := Run(prog)

	require.Equal(t, 1, stats.StmtsRemoved)
	require.Len(t, fn.Body, 1)
}

func TestEliminateDeadCodeInsideIfBranches(t *testing.T) {
	fn := &ast.FuncDeclStmt{
		Name: "f",
		Body: []ast.Statement{
			&ast.IfStmt{
				Cond: varRef("x"),
				Then: &ast.BlockStmt{Statements: []ast.Statement{
					&ast.ReturnStmt{Value: lit(1)},
					&ast.ExpressionStmt{Expr: lit(2)},
				}},
			},
		},
	}
	var stats Stats
	fn.Body = EliminateDeadCode(fn.Body, &stats)

	ifStmt := fn.Body[0].(*ast.IfStmt)
	require.Len(t, ifStmt.Then.Statements, 1)
	require.Equal(t, 1, stats.StmtsRemoved)
}

func TestSimplifyNoOpsRemovesBareLiteralAndSelfAssign(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ExpressionStmt{Expr: lit(5)},
		&ast.ExpressionStmt{Expr: &ast.AssignExpr{Target: varRef("x"), Value: varRef("x")}},
		&ast.ExpressionStmt{Expr: &ast.CallExpr{Name: "println"}},
	}
	var stats Stats
	out := SimplifyNoOps(stmts, &stats)

	require.Len(t, out, 1)
	require.Equal(t, 2, stats.NoOpsSimplified)
}

func TestSimplifyNoOpsRemovesEmptyIf(t *testing.T) {
	stmts := []ast.Statement{
		&ast.IfStmt{Cond: lit(true), Then: &ast.BlockStmt{}, Else: &ast.BlockStmt{}},
	}
	var stats Stats
	out := SimplifyNoOps(stmts, &stats)
	require.Len(t, out, 0)
}

func TestMarkTailCallsSelfRecursion(t *testing.T) {
	fn := &ast.FuncDeclStmt{
		Name: "loop",
		Body: []ast.Statement{
			&ast.IfStmt{
				Cond: varRef("n"),
				Then: &ast.BlockStmt{Statements: []ast.Statement{
					&ast.ReturnStmt{Value: lit(0)},
				}},
			},
			&ast.ReturnStmt{Value: &ast.CallExpr{
				Name:   "loop",
				Callee: varRef("loop"),
				Args:   []ast.Expression{varRef("n")},
			}},
		},
	}
	stats := Stats{}
	n := MarkTailCalls(fn, &stats)

	require.Equal(t, 1, n)
	require.Equal(t, 1, stats.TailCallsMarked)
	tailCall := fn.Body[1].(*ast.ReturnStmt).Value.(*ast.CallExpr)
	require.True(t, tailCall.IsTailCall)
}

func TestMarkTailCallsIgnoresNonTailPosition(t *testing.T) {
	fn := &ast.FuncDeclStmt{
		Name: "factorial",
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:   "*",
				Left: varRef("n"),
				Right: &ast.CallExpr{
					Name:   "factorial",
					Callee: varRef("factorial"),
					Args:   []ast.Expression{varRef("n")},
				},
			}},
		},
	}
	var stats Stats
	n := MarkTailCalls(fn, &stats)
	require.Equal(t, 0, n)
}

func TestMergeStringLiteralsCountsDuplicates(t *testing.T) {
	stmts := []ast.Statement{
		&ast.ExpressionStmt{Expr: lit("hello")},
		&ast.ExpressionStmt{Expr: lit("hello")},
		&ast.ExpressionStmt{Expr: lit("world")},
	}
	pool := NewStringPool()
	var stats Stats
	MergeStringLiterals(stmts, pool, &stats)

	require.Equal(t, 1, stats.StringLiteralsMerged)
	require.Equal(t, []string{"hello", "world"}, pool.Values())
}

func TestRemoveUnusedVarsDropsPureUnreadDecl(t *testing.T) {
	stmts := []ast.Statement{
		&ast.VarDeclStmt{Name: "dead", Init: lit(1)},
		&ast.VarDeclStmt{Name: "live", Init: lit(2)},
		&ast.ExpressionStmt{Expr: &ast.CallExpr{Name: "println", Args: []ast.Expression{varRef("live")}}},
	}
	var stats Stats
	out := RemoveUnusedVars(stmts, &stats)

	require.Len(t, out, 2)
	require.Equal(t, 1, stats.VarsRemoved)
}

func TestRemoveUnusedVarsKeepsImpureInit(t *testing.T) {
	stmts := []ast.Statement{
		&ast.VarDeclStmt{Name: "ignored", Init: &ast.CallExpr{Name: "sideEffect"}},
	}
	var stats Stats
	out := RemoveUnusedVars(stmts, &stats)

	require.Len(t, out, 1)
	require.Equal(t, 0, stats.VarsRemoved)
}

func TestIsTerminatorIfWithBothBranchesReturning(t *testing.T) {
	ifStmt := &ast.IfStmt{
		Cond: varRef("x"),
		Then: &ast.BlockStmt{Statements: []ast.Statement{&ast.ReturnStmt{Value: lit(1)}}},
		Else: &ast.BlockStmt{Statements: []ast.Statement{&ast.ReturnStmt{Value: lit(2)}}},
	}
	require.True(t, IsTerminator(ifStmt))
}

func TestIsTerminatorIfWithoutElse(t *testing.T) {
	ifStmt := &ast.IfStmt{
		Cond: varRef("x"),
		Then: &ast.BlockStmt{Statements: []ast.Statement{&ast.ReturnStmt{Value: lit(1)}}},
	}
	require.False(t, IsTerminator(ifStmt))
}

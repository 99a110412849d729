package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sindarin-lang/sdc/internal/ast"
	"github.com/sindarin-lang/sdc/internal/optimizer"
)

func TestSafeBufferPanicsAfterCommit(t *testing.T) {
	b := NewSafeBuffer("top")
	b.WriteString("hello")
	b.Commit()
	require.Panics(t, func() { b.WriteString("oops") })
}

func TestScopedBufferResetDiscardsWrites(t *testing.T) {
	b := NewSafeBuffer("func")
	b.WriteString("kept")
	scope := NewScopedBuffer(b)
	b.WriteString("speculative")
	scope.ResetScope()
	require.Equal(t, "kept", string(b.Bytes()))
}

func TestPipelineRejectsOutOfOrderAdvance(t *testing.T) {
	p := NewPipeline()
	require.Panics(t, func() { p.AdvanceTo(PhaseEntryPoint) })
	p.AdvanceTo(PhaseDeclarations)
	require.Equal(t, PhaseDeclarations, p.Current())
}

func TestDivisionGuardTextNamesDivisor(t *testing.T) {
	guard := EmitDivisionGuard("n", "arena")
	require.Contains(t, guard, "(n) == 0")
	require.Contains(t, guard, "rt_panic")
}

func TestNativeExternSetDedupesAndRespectsAllowList(t *testing.T) {
	s := NewNativeExternSet()
	require.True(t, s.IsAllowed("printf"))
	require.False(t, s.IsAllowed("my_native_fn"))

	require.True(t, s.MarkEmitted("my_native_fn"))
	require.False(t, s.MarkEmitted("my_native_fn"))
}

func TestLowerLiteralInternsStringIntoPool(t *testing.T) {
	pool := optimizer.NewStringPool()
	g := NewGenerator(Options{ModuleName: "m"}, pool)

	out1 := LowerExpr(g, &ast.LiteralExpr{Raw: "hi"})
	out2 := LowerExpr(g, &ast.LiteralExpr{Raw: "hi"})

	require.Equal(t, out1, out2)
	require.Equal(t, []string{"hi"}, pool.Values())
}

func TestLowerCallPrependsArenaArgument(t *testing.T) {
	g := NewGenerator(Options{ModuleName: "m"}, nil)
	call := &ast.CallExpr{Name: "frob", Args: []ast.Expression{&ast.LiteralExpr{Raw: int64(1)}}}
	out := LowerExpr(g, call)
	require.Equal(t, "frob(arena, 1)", out)
}

func TestLowerCallNativeOmitsArenaArgument(t *testing.T) {
	g := NewGenerator(Options{ModuleName: "m"}, nil)
	call := &ast.CallExpr{Name: "strlen", Native: true, Args: []ast.Expression{&ast.VarExpr{Name: "s"}}}
	out := LowerExpr(g, call)
	require.Equal(t, "strlen(s)", out)
}

func TestLowerFuncEntersAndLeavesFunctionArena(t *testing.T) {
	g := NewGenerator(Options{ModuleName: "m"}, nil)
	fn := &ast.FuncDeclStmt{
		Name: "add",
		Params: []ast.Param{
			{Name: "a", Type: ast.Int},
			{Name: "b", Type: ast.Int},
		},
		ReturnType: ast.Int,
		Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: "+", Left: &ast.VarExpr{Name: "a"}, Right: &ast.VarExpr{Name: "b"}}},
		},
	}
	out := LowerFunc(g, fn)
	require.Contains(t, out, "int32_t add(RtManagedArena *arena, int32_t a, int32_t b)")
	require.Contains(t, out, "return (a + b);")
	require.Empty(t, g.arenaStack, "function arena frame must be popped after lowering")
}

func TestLowerBlockPrivateQualifierCreatesChildArena(t *testing.T) {
	g := NewGenerator(Options{ModuleName: "m"}, nil)
	pop := g.PushArena("arena", ArenaFunction)
	defer pop()

	block := &ast.BlockStmt{
		Qualifier:  ast.QualPrivate,
		Statements: []ast.Statement{&ast.ExpressionStmt{Expr: &ast.LiteralExpr{Raw: int64(1)}}},
	}
	out := lowerBlock(g, block, 0)
	require.Contains(t, out, "rt_managed_arena_create_child(arena)")
	require.Contains(t, out, "rt_managed_arena_destroy_child")
}

func TestValidateFlagsUndeclaredCall(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.FuncDeclStmt{Name: "f", Body: []ast.Statement{
			&ast.ExpressionStmt{Expr: &ast.CallExpr{Name: "ghost"}},
		}},
	}}
	issues := Validate(prog, NewNativeExternSet(), nil)
	require.Len(t, issues, 1)
	require.True(t, strings.Contains(issues[0], "ghost"))
}

func TestValidateFlagsTailCallTargetMismatch(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.FuncDeclStmt{Name: "f", Body: []ast.Statement{
			&ast.ReturnStmt{Value: &ast.CallExpr{Name: "other", IsTailCall: true}},
		}},
		&ast.FuncDeclStmt{Name: "other"},
	}}
	issues := Validate(prog, NewNativeExternSet(), nil)
	require.Len(t, issues, 1)
	require.Contains(t, issues[0], "target mismatch")
}

func TestValidatePassesAllowListedNativeCall(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.FuncDeclStmt{Name: "f", Body: []ast.Statement{
			&ast.ExpressionStmt{Expr: &ast.CallExpr{Name: "printf", Native: true}},
		}},
	}}
	issues := Validate(prog, NewNativeExternSet(), nil)
	require.Empty(t, issues)
}

func TestEmitThreadSpawnNamesWrapperAndArgStruct(t *testing.T) {
	g := NewGenerator(Options{ModuleName: "m"}, nil)
	spawn := &ast.ThreadSpawnExpr{Call: &ast.CallExpr{Name: "work"}, Private: true}
	decl, call, w := EmitThreadSpawn(g, spawn, ast.Int)

	require.Contains(t, decl, w.Name)
	require.Contains(t, decl, w.ArgStruct)
	require.Contains(t, call, "pthread_create")
	require.Contains(t, call, "rt_managed_arena_create_child")
	require.Equal(t, ArenaBlock, w.ArenaMode)
}

func TestEmitThreadSpawnCapturesCallArguments(t *testing.T) {
	g := NewGenerator(Options{ModuleName: "m"}, nil)
	spawn := &ast.ThreadSpawnExpr{Call: &ast.CallExpr{
		Name: "work",
		Args: []ast.Expression{&ast.LiteralExpr{Raw: int64(7)}},
	}}
	decl, call, _ := EmitThreadSpawn(g, spawn, ast.Int)

	require.Contains(t, decl, "_sdc_arg0")
	require.Contains(t, decl, "work(args->arena, args->_sdc_arg0)")
	require.Contains(t, call, "args->_sdc_arg0 = 7;")
}

func TestClosureLayoutResolvesCapturedTypes(t *testing.T) {
	scope := ast.NewScope()
	scope.Declare(&ast.Symbol{Name: "total", Type: ast.Int})

	lam := &ast.LambdaExpr{Captured: []string{"total"}}
	fields := ClosureLayout(lam, scope)

	require.Len(t, fields, 1)
	require.Equal(t, "total", fields[0].Name)
	require.Equal(t, ast.Int, fields[0].Type)
}

func TestHasLocalDeclarationsAllowsLambdaAssignButNotPlainVar(t *testing.T) {
	okBody := &ast.BlockExpr{Statements: []ast.Statement{
		&ast.ExpressionStmt{Expr: &ast.AssignExpr{Target: &ast.VarExpr{Name: "f"}, Value: &ast.LambdaExpr{}, Declare: true}},
	}}
	require.False(t, HasLocalDeclarations(okBody))

	badBody := &ast.BlockExpr{Statements: []ast.Statement{
		&ast.ExpressionStmt{Expr: &ast.AssignExpr{Target: &ast.VarExpr{Name: "x"}, Value: &ast.LiteralExpr{Raw: int64(1)}, Declare: true}},
	}}
	require.True(t, HasLocalDeclarations(badBody))
}

func TestGenerateProducesThreeCommittedStreams(t *testing.T) {
	g := NewGenerator(Options{ModuleName: "m"}, nil)
	prog := &ast.Program{
		ModuleName: "m",
		Statements: []ast.Statement{
			&ast.FuncDeclStmt{Name: "main", Body: []ast.Statement{
				&ast.ExpressionStmt{Expr: &ast.LiteralExpr{Raw: int64(1)}},
			}},
		},
	}
	out, err := Generate(g, prog)
	require.NoError(t, err)
	require.Contains(t, out, "int main(int argc, char **argv)")
	require.Equal(t, PhaseComplete, g.Pipeline.Current())
}

func TestLowerStructDeclEmitsTypedefOnceViaTypeTable(t *testing.T) {
	g := NewGenerator(Options{ModuleName: "m"}, nil)
	decl := &ast.StructDeclStmt{Name: "Point", Fields: []ast.Field{{Name: "x", Type: ast.Int}}}

	first := lowerStructDecl(g, decl)
	require.Contains(t, first, "typedef struct Point")
	require.True(t, g.Types.Has("Point"))

	second := lowerStructDecl(g, decl)
	require.Empty(t, second, "repeated struct declaration must not re-emit the typedef")
}

package codegen

import (
	"fmt"
	"strings"

	"github.com/sindarin-lang/sdc/internal/ast"
)

// ThreadResultType names the C type a spawned thread's result is
// carried in across the pthread join boundary, grounded on
// code_gen_expr_thread.h's get_rt_result_type — handle-typed results
// cross in an RtHandle, everything else in its native C type.
func ThreadResultType(t *ast.Type) string {
	if t == nil {
		return "void"
	}
	if t.IsHandleTyped() {
		return "RtHandle"
	}
	switch t.Kind {
	case ast.KindInt, ast.KindInt32:
		return "int32_t"
	case ast.KindUint, ast.KindUint32:
		return "uint32_t"
	case ast.KindLong:
		return "int64_t"
	case ast.KindDouble:
		return "double"
	case ast.KindFloat:
		return "float"
	case ast.KindBool:
		return "bool"
	case ast.KindByte, ast.KindChar:
		return "uint8_t"
	default:
		return "void *"
	}
}

// ThreadWrapper is the synthesized C around one spawn site: an argument
// struct carrying the call's actual arguments plus the arena the spawned
// thread should run against, and a `void *(*)(void *)`-shaped trampoline
// pthread_create can be handed directly (spec.md §4.2 "Thread spawn...
// OS threads"), grounded on code_gen_expr_thread.h's
// code_gen_thread_spawn_expression contract and retargeted from
// x86/Darwin-GCD primitives (parallel_unix.go/parallel_darwin.go) to
// plain pthreads, since the generated artifact is portable C text, not
// an object file this generator links itself.
type ThreadWrapper struct {
	Name       string // trampoline function name
	ArgStruct  string // argument struct type name
	ResultType string
	ArenaMode  ArenaScope
}

// EmitThreadSpawn lowers a ThreadSpawnExpr into the wrapper/arg-struct
// declaration (returned for the caller to place with emitHoisted) and
// the call-site statements that populate the argument struct and
// pthread_create the trampoline (written at the call site). Private
// spawns pass a fresh child of the spawner's arena, created at the
// spawn site, into the argument struct; every other spawn passes the
// spawner's own arena pointer. A private thread and its spawner
// therefore never contend over the same arena's
// internal locks (spec.md §4.1 "concurrent Alloc from multiple
// goroutines" contract the private case sidesteps entirely by not
// sharing).
func EmitThreadSpawn(g *Generator, spawn *ast.ThreadSpawnExpr, resultType *ast.Type) (decl, call string, w ThreadWrapper) {
	g.lambdaSeq++
	name := fmt.Sprintf("_%s_thread_%d", g.Options.ModuleName, g.lambdaSeq)
	argStruct := name + "_args"
	resC := ThreadResultType(resultType)

	w = ThreadWrapper{Name: name, ArgStruct: argStruct, ResultType: resC}
	switch {
	case spawn.Private:
		w.ArenaMode = ArenaBlock
	case spawn.Shared:
		w.ArenaMode = ArenaFrame
	default:
		w.ArenaMode = ArenaFunction
	}

	// The trampoline runs on its own stack, so the call's argument
	// expressions — evaluated in the spawner's scope — are captured into
	// named struct fields at spawn time rather than re-lowered inside the
	// trampoline body, the same closure-capture shape lambda hoisting
	// uses for free variables.
	argFields, argNames, assigns := threadArgFields(g, spawn.Call.Args)

	var fields strings.Builder
	fields.WriteString("RtManagedArena *arena;\n")
	for _, f := range argFields {
		fmt.Fprintf(&fields, "    %s;\n", f)
	}
	fmt.Fprintf(&fields, "    %s result;\n    bool panicked;\n    pthread_t thread;", resC)

	decl = fmt.Sprintf(
		"typedef struct {\n    %s\n} %s;\n\n"+
			"static void *%s(void *raw_arg) {\n"+
			"    %s *args = (%s *)raw_arg;\n"+
			"    args->result = %s(args->arena%s);\n"+
			"    return NULL;\n"+
			"}\n",
		fields.String(), argStruct, name, argStruct, argStruct, spawn.Call.Name, argNames)

	callerArena := g.CurrentArenaVar()
	arenaExpr := callerArena
	if spawn.Private {
		arenaExpr = fmt.Sprintf("rt_managed_arena_create_child(%s)", callerArena)
	}
	var argAssigns strings.Builder
	for _, a := range assigns {
		fmt.Fprintf(&argAssigns, "args->%s\n", a)
	}
	call = fmt.Sprintf(
		"%s *args = rt_managed_arena_alloc_raw(%s, sizeof(%s));\n"+
			"args->arena = %s;\n"+
			"%s"+
			"pthread_create(&args->thread, NULL, %s, args);\n",
		argStruct, callerArena, argStruct, arenaExpr, argAssigns.String(), name)

	return decl, call, w
}

// EmitThreadSync lowers a single-handle `sync` expression into a
// pthread_join plus the panic-repropagation check spec.md §7 requires
// ("sync re-raises" a panic the spawned thread recorded instead of
// swallowing it).
func EmitThreadSync(handleVarC, argStructType, arenaVar string) string {
	return fmt.Sprintf(
		"pthread_join(((%s *)%s)->thread, NULL);\n"+
			"if (((%s *)%s)->panicked) { %s }\n",
		argStructType, handleVarC, argStructType, handleVarC, panicCall(arenaVar, "thread panicked"))
}

// EmitSyncList lowers a `sync [h1, h2, ...]` expression: join every
// handle in order and collect results into an array, matching spec.md
// §4.2's "wait for several spawned threads and collect their results in
// order" contract.
func EmitSyncList(handleVars []string, argStructType, resultType, resultVar, arenaVar string) string {
	out := fmt.Sprintf("%s %s[%d];\n", resultType, resultVar, len(handleVars))
	for i, h := range handleVars {
		out += EmitThreadSync(h, argStructType, arenaVar)
		out += fmt.Sprintf("%s[%d] = ((%s *)%s)->result;\n", resultVar, i, argStructType, h)
	}
	return out
}

// threadArgFields builds, for each call argument, the struct field
// declaration ("TYPE _sdc_arg0"), the ", args->_sdc_argN" piece of the
// trampoline's call to the real function, and the "_sdc_argN = EXPR;"
// assignment the spawn site uses to populate it.
func threadArgFields(g *Generator, args []ast.Expression) (fields []string, argNames string, assigns []string) {
	for i, arg := range args {
		field := fmt.Sprintf("_sdc_arg%d", i)
		typ := cTypeName(arg.ResolvedType())
		fields = append(fields, fmt.Sprintf("%s %s", typ, field))
		argNames += ", args->" + field
		assigns = append(assigns, fmt.Sprintf("%s = %s;", field, LowerExpr(g, arg)))
	}
	return fields, argNames, assigns
}

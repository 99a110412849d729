package codegen

import (
	"fmt"

	"github.com/sindarin-lang/sdc/internal/ast"
)

// Generate drives one full run over prog: declarations to the top
// stream, function bodies to the func stream, and (if a `main` function
// exists) the entry point to the entry stream, advancing g.Pipeline
// through each phase in order the way the teacher's CompilerState moves
// through CompilationStage (compiler_state.go), and committing each
// stream once its phase completes so a later phase can't accidentally
// write into an earlier one.
func Generate(g *Generator, prog *ast.Program) (string, error) {
	directives := NewPragmaDirectives()
	for _, p := range prog.Pragmas {
		directives.Apply(p)
	}

	g.Pipeline.AdvanceTo(PhaseDeclarations)
	emitTopMatter(g, prog, directives)
	g.Streams.Top.Commit()

	g.Pipeline.AdvanceTo(PhaseBodies)
	for _, st := range prog.Statements {
		switch v := st.(type) {
		case *ast.FuncDeclStmt:
			if v.Name == "main" {
				continue // the entry point gets its own stream/phase
			}
			g.Streams.Func.WriteString(LowerFunc(g, v))
		case *ast.StructDeclStmt:
			g.Streams.Func.WriteString(lowerStructDecl(g, v))
		}
	}
	g.Streams.Func.Commit()

	g.Pipeline.AdvanceTo(PhaseEntryPoint)
	emitEntryPoint(g, prog)
	g.Streams.Entry.Commit()

	g.Pipeline.AdvanceTo(PhaseComplete)

	if g.Errors.HasFatal() {
		return "", fmt.Errorf("codegen: fatal errors:\n%s", g.Errors.Report())
	}
	return g.Streams.Render(), nil
}

func emitTopMatter(g *Generator, prog *ast.Program, directives *PragmaDirectives) {
	g.Streams.Top.Printf("/* generated from module %q */\n", prog.ModuleName)
	for _, inc := range directives.Includes {
		g.Streams.Top.Printf("#include %s\n", inc)
	}
	g.Streams.Top.WriteString("#include \"rt_runtime.h\"\n\n")

	for i, s := range g.Pool.Values() {
		g.Streams.Top.Printf("static const char *_sdc_str_%d = %q;\n", i, s)
	}
	if len(g.Pool.Values()) > 0 {
		g.Streams.Top.WriteString("\n")
	}

	for _, st := range prog.Statements {
		fn, ok := st.(*ast.FuncDeclStmt)
		if !ok || !fn.Native || !g.Externs.MarkEmitted(fn.Name) {
			continue
		}
		emitNativeExtern(g, fn)
	}
}

// emitNativeExtern writes one `extern` declaration for a native
// function, grounded on code_gen_native_extern.c's
// code_gen_native_extern_declaration — with no RtManagedArena*
// parameter, since lowerCall passes no arena argument to a native call.
// Allow-listed functions get no declaration at all (those are genuine C
// stdlib calls declared by an included header).
func emitNativeExtern(g *Generator, fn *ast.FuncDeclStmt) {
	if g.Externs.IsAllowed(fn.Name) {
		return // declared by the stdlib header already included
	}
	retC := "void"
	if fn.ReturnType != nil {
		retC = cTypeName(fn.ReturnType)
	}
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, cTypeName(p.Type))
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	name := fn.Name
	if fn.CAlias != "" {
		name = fn.CAlias
	}
	g.Streams.Top.Printf("extern %s %s(", retC, name)
	for i, p := range params {
		if i > 0 {
			g.Streams.Top.WriteString(", ")
		}
		g.Streams.Top.WriteString(p)
	}
	g.Streams.Top.WriteString(");\n")
}

func emitEntryPoint(g *Generator, prog *ast.Program) {
	var mainFn *ast.FuncDeclStmt
	for _, st := range prog.Statements {
		if fn, ok := st.(*ast.FuncDeclStmt); ok && fn.Name == "main" {
			mainFn = fn
		}
	}
	if mainFn == nil {
		return
	}
	// Lower the body before writing main's header, so declarations that
	// emitHoisted writes to the entry stream land above main, at file scope.
	pop := g.PushArena(mainArenaVar, ArenaGlobal)
	g.PushScope()
	body := ""
	for _, st := range mainFn.Body {
		body += LowerStmt(g, st, 1)
	}
	g.PopScope()
	pop()
	g.Streams.Entry.WriteString("int main(int argc, char **argv) {\n")
	g.Streams.Entry.Printf("    RtManagedArena *%s = rt_managed_arena_create();\n", mainArenaVar)
	g.Streams.Entry.WriteString(body)
	g.Streams.Entry.Printf("    rt_managed_arena_destroy(%s);\n", mainArenaVar)
	g.Streams.Entry.WriteString("    return 0;\n}\n")
}

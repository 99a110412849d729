package codegen

import (
	"fmt"

	"github.com/sindarin-lang/sdc/internal/ast"
	"github.com/sindarin-lang/sdc/internal/optimizer"
)

// Validate runs the post-emission sanity checks spec.md §4.2/§6 expect
// a generator to perform before it trusts its own output, grounded on
// the teacher's validateGeneratedCode (codegen_validation.go) — there it
// scans emitted machine-code bytes for placeholder patterns
// (0xDEADBEEF) and unresolved call targets; here, with no machine code
// to scan, the same three concerns become AST-level checks: every
// direct call resolves to a known function, every native call is either
// allow-listed or backed by a declared extern, and every tail-call mark
// actually targets its own enclosing function.
func Validate(prog *ast.Program, externs *NativeExternSet, declaredNative map[string]bool) []string {
	var issues []string

	declared := map[string]bool{}
	for _, st := range prog.Statements {
		if fn, ok := st.(*ast.FuncDeclStmt); ok {
			declared[fn.Name] = true
		}
	}

	checkCall := func(call *ast.CallExpr, enclosingFunc string) {
		if call.Callee != nil {
			return // dynamic/closure call, nothing to resolve statically
		}
		if call.Native {
			if !externs.IsAllowed(call.Name) && !declaredNative[call.Name] {
				issues = append(issues, fmt.Sprintf(
					"%s: native call to %q is neither allow-listed nor declared extern",
					call.Position(), call.Name))
			}
			return
		}
		if !declared[call.Name] {
			issues = append(issues, fmt.Sprintf(
				"%s: call to undeclared function %q", call.Position(), call.Name))
		}
		if call.IsTailCall && call.Name != enclosingFunc {
			issues = append(issues, fmt.Sprintf(
				"%s: tail call marked for %q inside %q, target mismatch",
				call.Position(), call.Name, enclosingFunc))
		}
	}

	for _, st := range prog.Statements {
		fn, ok := st.(*ast.FuncDeclStmt)
		if !ok {
			continue
		}
		optimizer.WalkStmt(fn.Body, func(e ast.Expression) {
			if call, ok := e.(*ast.CallExpr); ok {
				checkCall(call, fn.Name)
			}
		}, nil)
	}

	return issues
}

package codegen

import (
	"fmt"

	"github.com/sindarin-lang/sdc/internal/ast"
)

// PromoteReturn renders the C statement that copies a handle-typed
// return value out of the function's local arena into the caller's
// arena before the function frame is torn down, grounded on
// code_gen_stmt_func_promote.h's code_gen_return_promotion — split by
// array vs. struct the same way the original does
// (code_gen_promote_array_return / code_gen_promote_struct_return),
// collapsed into one function here since both cases reduce to the same
// arena.Promote call once the value's handle-typedness is known; only
// the recursive struct-field walk differs, handled by promoteStructFields.
func PromoteReturn(g *Generator, resultVar string, t *ast.Type, isMain, isShared bool, callerArena string) string {
	if isMain || !t.IsHandleTyped() {
		return ""
	}
	if isShared {
		// A shared-arena function's return value already lives in an
		// arena the caller can see directly: promotion would just move
		// it to itself.
		return ""
	}
	if t.Kind == ast.KindStruct {
		return promoteStructFields(g, resultVar, t, callerArena)
	}
	return fmt.Sprintf("%s = rt_managed_promote(%s, %s, %s);\n", resultVar, callerArena, g.CurrentArenaVar(), resultVar)
}

// promoteStructFields promotes each handle-typed field of a struct
// return value individually — spec.md §4.2 calls this "deep promote"
// because a struct's handle-typed fields each carry their own
// independent arena-local storage that the struct's own handle (if it
// has one) doesn't automatically drag along.
func promoteStructFields(g *Generator, resultVar string, t *ast.Type, callerArena string) string {
	out := ""
	for _, expr := range promoteStructFieldExprs(g, resultVar, t, callerArena) {
		out += expr + ";\n"
	}
	return out
}

// promoteStructFieldExprs is promoteStructFields without the trailing
// statement punctuation, for callers (lowerAssign's global-struct case)
// that need to splice the per-field promotions into a comma expression
// instead of a statement sequence.
func promoteStructFieldExprs(g *Generator, resultVar string, t *ast.Type, callerArena string) []string {
	var out []string
	for _, f := range t.Fields {
		if !f.Type.IsHandleTyped() {
			continue
		}
		fieldRef := resultVar + "." + f.Name
		out = append(out, fmt.Sprintf("%s = rt_managed_promote(%s, %s, %s)", fieldRef, callerArena, g.CurrentArenaVar(), fieldRef))
	}
	return out
}

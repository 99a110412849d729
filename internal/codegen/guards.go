package codegen

import "fmt"

// ArithmeticMode names checked versus unchecked arithmetic, the C-text
// analogue of the teacher's GuardConfig toggles (codegen_guards.go),
// where they gate raw x86 instruction emission. No lowering in this
// package reads it: lowerBinary consults GuardConfig.OverflowChecks, and
// division and modulo are guarded unconditionally.
type ArithmeticMode int

const (
	ModeChecked ArithmeticMode = iota
	ModeUnchecked
)

// GuardConfig mirrors the teacher's GuardConfig shape (null-pointer,
// stack-alignment, bounds checks) generalized to the checks this
// generator's C output can actually need: a stack-alignment check has
// no meaning once the output is C source rather than hand-assembled
// machine code, so it is dropped; bounds and null checks carry over
// directly, and division-by-zero/overflow checks are added since
// spec.md §4.2 requires checked-mode arithmetic to trap on both.
type GuardConfig struct {
	NullChecks     bool
	BoundsChecks   bool
	DivisionChecks bool
	OverflowChecks bool
}

// DefaultGuardConfig matches the teacher's DefaultGuardConfig: all
// checks off by default. A Generator applies one GuardConfig (g.Guards)
// to the whole run; there is no per-function or per-block switch.
var DefaultGuardConfig = GuardConfig{}

// panicCall renders the C statement that raises a runtime panic with msg, the shared
// tail every guard below emits. The runtime surface (spec.md §6) names
// `rt_panic(RtManagedArena*, const char *)` as the trap entry point.
func panicCall(arenaVar, msg string) string {
	return fmt.Sprintf("rt_panic(%s, %q);", arenaVar, msg)
}

// EmitNullCheck returns the C guard for a pointer/handle dereference:
// `if (!expr) { rt_panic(...); }`.
func EmitNullCheck(exprC, arenaVar, context string) string {
	return fmt.Sprintf("if (!(%s)) { %s }\n", exprC,
		panicCall(arenaVar, "null dereference: "+context))
}

// EmitBoundsCheck returns the C guard for `array[index]`:
// `if ((index) < 0 || (index) >= (len)) { rt_panic(...); }`.
func EmitBoundsCheck(indexC, lenC, arenaVar, context string) string {
	return fmt.Sprintf("if ((%s) < 0 || (%s) >= (%s)) { %s }\n", indexC, indexC, lenC,
		panicCall(arenaVar, "index out of bounds: "+context))
}

// EmitDivisionGuard returns the C guard for `a / b` / `a %% b`:
// `if ((b) == 0) { rt_panic(...); }`.
func EmitDivisionGuard(divisorC, arenaVar string) string {
	return fmt.Sprintf("if ((%s) == 0) { %s }\n", divisorC,
		panicCall(arenaVar, "divide by zero"))
}

// EmitOverflowGuard returns the C guard for a checked-mode binary op
// using GCC/Clang's __builtin_*_overflow family (spec.md §9 "assumes a
// GCC/Clang-like toolchain" already concedes this non-portability), the
// same assumption the teacher's own guard emission makes about its
// target toolchain.
func EmitOverflowGuard(builtin, lhsC, rhsC, resultVar, arenaVar string) string {
	return fmt.Sprintf("if (%s(%s, %s, &%s)) { %s }\n", builtin, lhsC, rhsC, resultVar,
		panicCall(arenaVar, "integer overflow"))
}

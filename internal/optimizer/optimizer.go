// Package optimizer runs the fixed pipeline of AST-level passes between
// parsing and code generation: dead-code elimination, no-op
// simplification, tail-call marking, string-literal merging, and
// unused-variable removal. Each pass runs exactly once per program —
// this is not a fixpoint optimizer — mirroring the five-pass pipeline
// the C ancestor ran over its own AST.
package optimizer

import "github.com/sindarin-lang/sdc/internal/ast"

// Stats tallies what each pass did, surfaced to callers that want to
// report or test optimizer behavior without inspecting the AST diff
// themselves.
type Stats struct {
	StmtsRemoved         int
	NoOpsSimplified      int
	TailCallsMarked      int
	StringLiteralsMerged int
	VarsRemoved          int
}

// Run applies all five passes to prog in order and returns the
// resulting stats plus the string pool built by the literal-merging
// pass, which the generator consults when emitting string constants.
func Run(prog *ast.Program) (Stats, *StringPool) {
	var stats Stats

	prog.Statements = EliminateDeadCode(prog.Statements, &stats)
	prog.Statements = SimplifyNoOps(prog.Statements, &stats)
	MarkAllTailCalls(prog, &stats)

	pool := NewStringPool()
	MergeStringLiterals(prog.Statements, pool, &stats)

	prog.Statements = RemoveUnusedVars(prog.Statements, &stats)

	return stats, pool
}

package codegen

import (
	"fmt"

	"github.com/sindarin-lang/sdc/internal/ast"
	"github.com/sindarin-lang/sdc/internal/optimizer"
)

// Phase is a stage in the generation pipeline, grounded on the teacher's
// CompilationStage/CompilationPipeline (compilation_pipeline.go), pared
// down from its eleven ELF-writing stages to the four this text-emitting
// generator actually passes through.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseDeclarations
	PhaseBodies
	PhaseEntryPoint
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseDeclarations:
		return "declarations"
	case PhaseBodies:
		return "bodies"
	case PhaseEntryPoint:
		return "entry point"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

var validTransition = map[Phase]Phase{
	PhaseInit:         PhaseDeclarations,
	PhaseDeclarations: PhaseBodies,
	PhaseBodies:       PhaseEntryPoint,
	PhaseEntryPoint:   PhaseComplete,
}

// Pipeline tracks and validates the generator's phase transitions, the
// same "advance only along one legal edge or panic" contract as the
// teacher's CompilationPipeline.AdvanceTo.
type Pipeline struct {
	current Phase
	history []Phase
}

func NewPipeline() *Pipeline {
	return &Pipeline{current: PhaseInit, history: []Phase{PhaseInit}}
}

func (p *Pipeline) Current() Phase { return p.current }

func (p *Pipeline) AdvanceTo(next Phase) {
	if validTransition[p.current] != next {
		panic(fmt.Sprintf("codegen: invalid phase transition %s -> %s", p.current, next))
	}
	p.current = next
	p.history = append(p.history, next)
}

// ArenaScope names the lifetime level a nested arena variable belongs
// to, grounded on the teacher's ArenaGlobal/ArenaFrame/ArenaFunction/
// ArenaBlock vocabulary (arena.go) — there it labels which bump-pointer
// region an x86 instruction targets; here it labels which C arena
// variable a lowering should reference when it needs "the current
// arena".
type ArenaScope int

const (
	ArenaGlobal ArenaScope = iota
	ArenaFrame
	ArenaFunction
	ArenaBlock
)

// arenaFrame is one entry on the generator's arena-nesting stack: the C
// identifier of the live `RtManagedArena *` variable at this nesting
// level and which scope kind pushed it (spec.md §4.2 "Arena nesting").
type arenaFrame struct {
	varName string
	scope   ArenaScope
}

// ExprMode distinguishes the two expression-lowering contracts spec.md
// §4.2 names: handle mode, where a value is represented by an arena
// Handle the generated C passes around, and raw mode, where it is an
// ordinary C scalar/struct value with no arena indirection.
type ExprMode int

const (
	ModeHandle ExprMode = iota
	ModeRaw
)

// Options configures one generation run, the text-emission analogue of
// the teacher's CompileOptions (compiler_state.go) stripped of the
// object-file fields (outputPath, targetArch, targetOS) this generator
// has no use for — its output is always one .c file.
type Options struct {
	Verbose  bool
	Optimize bool
	// ModuleName prefixes the names of hoisted lambda thunks and thread
	// trampolines to avoid collisions between imported modules (spec.md
	// §4.2 namespacing). The generated file's header comment takes the
	// Program's own ModuleName instead.
	ModuleName string
}

// mainArenaVar is the C identifier of the program's root arena (spec.md
// §4.2 "globals pin from __main_arena__") — unlike every other arena
// variable in the generated output, its name is fixed rather than
// synthesized, since lowerAssign must be able to reference it when
// storing into a global symbol without threading the entry point's local
// variable name through every call that lowers an assignment.
const mainArenaVar = "__main_arena__"

// Generator is the single mutable state object threaded through every
// lowering call, grounded on the teacher's CompilerState
// (compiler_state.go) — one struct carrying everything a phase needs
// rather than passing a dozen parameters through every function.
type Generator struct {
	Options  Options
	Streams  *Streams
	Errors   *Collector
	Pipeline *Pipeline
	Pool     *optimizer.StringPool
	Externs  *NativeExternSet
	Guards   GuardConfig
	Types    *ast.TypeTable

	scope         *ast.Scope
	arenaStack    []arenaFrame
	mode          ExprMode
	lambdaSeq     int
	tempSeq       int
	curFunc       *ast.FuncDeclStmt
	threadHandles map[string]ThreadWrapper
}

// NewGenerator builds a Generator ready to lower a Program, seeded with
// the string pool the optimizer's literal-merging pass already built
// (spec.md §4.3 pass 4 feeds §4.2's string-constant emission directly).
func NewGenerator(opts Options, pool *optimizer.StringPool) *Generator {
	if pool == nil {
		pool = optimizer.NewStringPool()
	}
	return &Generator{
		Options:       opts,
		Streams:       NewStreams(),
		Errors:        NewCollector(0),
		Pipeline:      NewPipeline(),
		Pool:          pool,
		Externs:       NewNativeExternSet(),
		Guards:        DefaultGuardConfig,
		Types:         ast.NewTypeTable(),
		scope:         ast.NewScope(),
		mode:          ModeHandle,
		threadHandles: make(map[string]ThreadWrapper),
	}
}

// PushArena enters a new arena-nesting level and returns a function that
// pops it, mirroring the teacher's block-scoped prologue/epilogue
// pairing in arena.go's generateArenaInit/generateArenaReset.
func (g *Generator) PushArena(varName string, scope ArenaScope) func() {
	g.arenaStack = append(g.arenaStack, arenaFrame{varName: varName, scope: scope})
	return func() {
		g.arenaStack = g.arenaStack[:len(g.arenaStack)-1]
	}
}

// CurrentArenaVar is the C identifier lowering should use for "the
// arena in scope right now" — the innermost pushed frame, or the
// function-level arena if no block/loop has pushed one of its own.
func (g *Generator) CurrentArenaVar() string {
	if len(g.arenaStack) == 0 {
		return "arena"
	}
	return g.arenaStack[len(g.arenaStack)-1].varName
}

// CurrentFuncArenaVar is the C identifier of the nearest enclosing
// function-level arena — the local arena LowerFunc creates as a child of
// the function's caller-passed "arena" parameter — or "" if lowering is
// happening outside any function body (emitEntryPoint's main runs
// directly against the root arena and pushes no ArenaFunction frame of
// its own).
func (g *Generator) CurrentFuncArenaVar() string {
	for i := len(g.arenaStack) - 1; i >= 0; i-- {
		if g.arenaStack[i].scope == ArenaFunction {
			return g.arenaStack[i].varName
		}
	}
	return ""
}

// NextTemp returns a fresh, collision-free C identifier prefixed for
// diagnostics — the generic counterpart of NextLambdaName for the
// various guard/promotion temporaries lowering needs mid-expression.
func (g *Generator) NextTemp(prefix string) string {
	g.tempSeq++
	return fmt.Sprintf("_sdc_%s_%d", prefix, g.tempSeq)
}

// emitHoisted writes a top-level declaration discovered mid-body-lowering
// (a lambda's thunk and closure struct, a thread-spawn trampoline) to
// whichever of the function/entry streams is still open. Lambdas and
// spawns found while lowering an ordinary function land in the function
// stream; ones found while lowering `main` (lowered in the entry-point
// phase, after the function stream has already committed) land in the
// entry stream instead.
func (g *Generator) emitHoisted(text string) {
	if !g.Streams.Func.IsCommitted() {
		g.Streams.Func.WriteString(text)
		return
	}
	g.Streams.Entry.WriteString(text)
}

func (g *Generator) PushScope() { g.scope = g.scope.Child() }
func (g *Generator) PopScope()  { g.scope = g.scope.Parent }
func (g *Generator) Scope() *ast.Scope { return g.scope }

func (g *Generator) SetMode(m ExprMode) (restore func()) {
	prev := g.mode
	g.mode = m
	return func() { g.mode = prev }
}

func (g *Generator) Mode() ExprMode { return g.mode }

// NextLambdaName returns a fresh, collision-free C function name for a
// hoisted lambda body (spec.md §4.2 "Lambda hoisting").
func (g *Generator) NextLambdaName() string {
	g.lambdaSeq++
	return fmt.Sprintf("_%s_lambda_%d", g.Options.ModuleName, g.lambdaSeq)
}

func (g *Generator) errPos(n ast.Node) ast.Pos {
	if n == nil {
		return ast.Pos{}
	}
	return n.Position()
}

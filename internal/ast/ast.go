package ast

import "fmt"

// Node is the root interface of the AST, grounded on the teacher's
// Node/String() pattern (ast.go) — every variant below implements it for
// debugging and diagnostic rendering, the same way the teacher's
// tagged-union nodes do.
type Node interface {
	String() string
	Position() Pos
}

// EscapeInfo is the oracle escape analysis fills in on every expression
// node (spec.md §3.1, Design Notes §9: "treat them as an oracle the
// generator consumes and preserve their contract"). This module never
// computes it; it only reads it.
type EscapeInfo struct {
	EscapesScope       bool
	NeedsHeapAllocation bool
}

// base carries the fields every expression node has in common: resolved
// type, escape info, and source position. Embedded rather than
// duplicated on each variant, per the teacher's preference for small
// focused structs over one mega-struct (ast.go's per-variant structs).
type base struct {
	Typ    *Type
	Escape EscapeInfo
	Pos    Pos
}

func (b base) ResolvedType() *Type   { return b.Typ }
func (b base) EscapeInfo_() EscapeInfo { return b.Escape }
func (b base) Position() Pos         { return b.Pos }

// Expression is the sum type of all expression variants (spec.md §3.1).
type Expression interface {
	Node
	expressionNode()
	ResolvedType() *Type
	EscapeInfo_() EscapeInfo
}

// Statement is the sum type of all statement variants (spec.md §3.1).
type Statement interface {
	Node
	statementNode()
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

// LiteralExpr covers int/uint/long/double/float/char/bool/byte/string/nil
// constants; Raw holds the parsed Go value (int64, uint64, float64, bool,
// byte, string, or nil).
type LiteralExpr struct {
	base
	Raw interface{}
}

func (l *LiteralExpr) String() string  { return fmt.Sprintf("%v", l.Raw) }
func (l *LiteralExpr) expressionNode() {}

// VarExpr is a variable reference by name, resolved against the symbol
// table (Sym is filled once name resolution — out of scope here — runs).
type VarExpr struct {
	base
	Name string
	Sym  *Symbol
}

func (v *VarExpr) String() string  { return v.Name }
func (v *VarExpr) expressionNode() {}

// BinaryExpr applies a binary operator; Op is one of the textual
// operators ("+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=",
// "&&", "||", "&", "|", "^", "<<", ">>").
type BinaryExpr struct {
	base
	Op          string
	Left, Right Expression
}

func (b *BinaryExpr) String() string  { return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")" }
func (b *BinaryExpr) expressionNode() {}

// UnaryExpr applies a unary operator ("-", "!", "~").
type UnaryExpr struct {
	base
	Op      string
	Operand Expression
}

func (u *UnaryExpr) String() string  { return "(" + u.Op + u.Operand.String() + ")" }
func (u *UnaryExpr) expressionNode() {}

// AssignExpr is `target = value` (or `:=` when Declare is set).
type AssignExpr struct {
	base
	Target  Expression
	Value   Expression
	Declare bool
}

func (a *AssignExpr) String() string  { return a.Target.String() + " = " + a.Value.String() }
func (a *AssignExpr) expressionNode() {}

// IndexedAssignExpr is `array[index] = value`.
type IndexedAssignExpr struct {
	base
	Array, Index, Value Expression
}

func (i *IndexedAssignExpr) String() string {
	return i.Array.String() + "[" + i.Index.String() + "] = " + i.Value.String()
}
func (i *IndexedAssignExpr) expressionNode() {}

// CompoundAssignExpr is `target += value` and friends; Op is the binary
// operator without the trailing `=` ("+", "-", "*", "/", ...).
type CompoundAssignExpr struct {
	base
	Target Expression
	Op     string
	Value  Expression
}

func (c *CompoundAssignExpr) String() string {
	return c.Target.String() + " " + c.Op + "= " + c.Value.String()
}
func (c *CompoundAssignExpr) expressionNode() {}

// CallExpr is a direct call by resolved function name, a dynamic call
// through a closure value (Callee set, Name empty), or a self-recursive
// call the optimizer may mark as a tail call.
type CallExpr struct {
	base
	Name       string     // resolved function name, empty for dynamic calls
	Callee     Expression // non-nil for dynamic/closure calls
	Args       []Expression
	Native     bool // true: calls an extern C function, no arena argument
	IsTailCall bool // set by optimizer.MarkTailCalls
}

func (c *CallExpr) String() string {
	callee := c.Name
	if c.Callee != nil {
		callee = "(" + c.Callee.String() + ")"
	}
	args := ""
	for i, a := range c.Args {
		if i > 0 {
			args += ", "
		}
		args += a.String()
	}
	return callee + "(" + args + ")"
}
func (c *CallExpr) expressionNode() {}

// StaticCallExpr is `Type::Method(args)` — a namespaced static method
// call that does not require an instance receiver.
type StaticCallExpr struct {
	base
	TypeName, Method string
	Args             []Expression
}

func (s *StaticCallExpr) String() string {
	return s.TypeName + "::" + s.Method + "(...)"
}
func (s *StaticCallExpr) expressionNode() {}

// MethodCallExpr is `receiver.Method(args)`.
type MethodCallExpr struct {
	base
	Receiver Expression
	Method   string
	Args     []Expression
	Resolved *Method // filled by the (out-of-scope) type checker
}

func (m *MethodCallExpr) String() string { return m.Receiver.String() + "." + m.Method + "(...)" }
func (m *MethodCallExpr) expressionNode() {}

// ArrayLiteralExpr is `[e1, e2, ...]`.
type ArrayLiteralExpr struct {
	base
	Elements []Expression
}

func (a *ArrayLiteralExpr) String() string { return fmt.Sprintf("[%d elements]", len(a.Elements)) }
func (a *ArrayLiteralExpr) expressionNode() {}

// ArrayAccessExpr is `array[index]`.
type ArrayAccessExpr struct {
	base
	Array, Index Expression
}

func (a *ArrayAccessExpr) String() string { return a.Array.String() + "[" + a.Index.String() + "]" }
func (a *ArrayAccessExpr) expressionNode() {}

// ArraySliceExpr is `array[start:end]`; Start/End may be nil.
type ArraySliceExpr struct {
	base
	Array, Start, End Expression
}

func (a *ArraySliceExpr) String() string { return a.Array.String() + "[:]" }
func (a *ArraySliceExpr) expressionNode() {}

// RangeExpr is `start..end` (half-open) or `start..=end` (inclusive).
type RangeExpr struct {
	base
	Start, End Expression
	Inclusive  bool
}

func (r *RangeExpr) String() string {
	op := ".."
	if r.Inclusive {
		op = "..="
	}
	return r.Start.String() + op + r.End.String()
}
func (r *RangeExpr) expressionNode() {}

// SpreadExpr is `...expr`, used inside array literals and call argument
// lists to splice a container's elements.
type SpreadExpr struct {
	base
	Operand Expression
}

func (s *SpreadExpr) String() string  { return "..." + s.Operand.String() }
func (s *SpreadExpr) expressionNode() {}

// StringPart is one piece of an interpolated string: either a literal
// run (Expr nil) or an embedded expression with an optional format spec
// (e.g. the "02d" in "{n:02d}").
type StringPart struct {
	Literal string
	Expr    Expression
	Format  string
}

// InterpolatedStringExpr is `$"...{expr}..."`.
type InterpolatedStringExpr struct {
	base
	Parts []StringPart
}

func (i *InterpolatedStringExpr) String() string { return fmt.Sprintf("$\"...(%d parts)\"", len(i.Parts)) }
func (i *InterpolatedStringExpr) expressionNode() {}

// MemberAccessExpr is `obj.field`.
type MemberAccessExpr struct {
	base
	Object Expression
	Field  string
}

func (m *MemberAccessExpr) String() string { return m.Object.String() + "." + m.Field }
func (m *MemberAccessExpr) expressionNode() {}

// MemberAssignExpr is `obj.field = value`.
type MemberAssignExpr struct {
	base
	Object Expression
	Field  string
	Value  Expression
}

func (m *MemberAssignExpr) String() string {
	return m.Object.String() + "." + m.Field + " = " + m.Value.String()
}
func (m *MemberAssignExpr) expressionNode() {}

// LambdaExpr is an anonymous function literal; Body may be a single
// expression or a BlockExpr statement sequence (mirroring the teacher's
// LambdaExpr.Body being an Expression that can itself be a block).
type LambdaExpr struct {
	base
	Params     []string
	ParamTypes []*Type
	Variadic   bool
	ReturnType *Type
	Body       Expression
	// Captured is filled by the (out-of-scope) resolver with the names of
	// outer-scope variables this lambda's body reads or writes; the
	// generator routes each through the closure struct (spec.md §4.2).
	Captured []string
}

func (l *LambdaExpr) String() string { return fmt.Sprintf("(%d params) -> ...", len(l.Params)) }
func (l *LambdaExpr) expressionNode() {}

// BlockExpr is a statement sequence used as an expression (the value of
// the last statement, if it is an ExpressionStmt, is the block's value).
type BlockExpr struct {
	base
	Statements []Statement
}

func (b *BlockExpr) String() string  { return fmt.Sprintf("{ %d stmts }", len(b.Statements)) }
func (b *BlockExpr) expressionNode() {}

// SizedArrayAllocExpr is `new T[n]` — allocate an array of n elements of
// type T, all default-initialized.
type SizedArrayAllocExpr struct {
	base
	ElemType *Type
	Size     Expression
}

func (s *SizedArrayAllocExpr) String() string { return "new " + s.ElemType.String() + "[...]" }
func (s *SizedArrayAllocExpr) expressionNode() {}

// ThreadSpawnExpr is `spawn shared|private f(args)` — a real OS thread
// is created at codegen time (spec.md §4.2 Thread spawn).
type ThreadSpawnExpr struct {
	base
	Call    *CallExpr
	Shared  bool // true: spawned thread shares the spawner's arena
	Private bool // true: spawned thread owns a private arena
}

func (t *ThreadSpawnExpr) String() string { return "spawn " + t.Call.String() }
func (t *ThreadSpawnExpr) expressionNode() {}

// ThreadSyncExpr is `sync handle` — block for a spawned thread's result,
// re-raising any panic it recorded.
type ThreadSyncExpr struct {
	base
	Handle Expression
}

func (t *ThreadSyncExpr) String() string  { return "sync " + t.Handle.String() }
func (t *ThreadSyncExpr) expressionNode() {}

// SyncListExpr is `sync [h1, h2, ...]` — wait for several spawned
// threads and collect their results in order.
type SyncListExpr struct {
	base
	Handles []Expression
}

func (s *SyncListExpr) String() string  { return fmt.Sprintf("sync [%d handles]", len(s.Handles)) }
func (s *SyncListExpr) expressionNode() {}

// ValueOfExpr is `expr as val` — copy semantics (spec.md §4.2).
type ValueOfExpr struct {
	base
	Operand Expression
}

func (v *ValueOfExpr) String() string  { return v.Operand.String() + " as val" }
func (v *ValueOfExpr) expressionNode() {}

// RefOfExpr is `expr as ref` — reference semantics (spec.md §4.2).
type RefOfExpr struct {
	base
	Operand Expression
}

func (r *RefOfExpr) String() string  { return r.Operand.String() + " as ref" }
func (r *RefOfExpr) expressionNode() {}

// TypeOfExpr is `typeof expr`.
type TypeOfExpr struct {
	base
	Operand Expression
}

func (t *TypeOfExpr) String() string  { return "typeof " + t.Operand.String() }
func (t *TypeOfExpr) expressionNode() {}

// IsExpr is `expr is T`.
type IsExpr struct {
	base
	Operand Expression
	Target  *Type
}

func (i *IsExpr) String() string  { return i.Operand.String() + " is " + i.Target.String() }
func (i *IsExpr) expressionNode() {}

// CastExpr is `expr as T`.
type CastExpr struct {
	base
	Operand Expression
	Target  *Type
}

func (c *CastExpr) String() string  { return c.Operand.String() + " as " + c.Target.String() }
func (c *CastExpr) expressionNode() {}

// StructLiteralExpr is `T { field: value, ... }`.
type StructLiteralExpr struct {
	base
	StructName string
	Fields     map[string]Expression
	// FieldOrder preserves declaration order for deterministic codegen
	// output (Go map iteration order is not stable).
	FieldOrder []string
}

func (s *StructLiteralExpr) String() string { return s.StructName + "{...}" }
func (s *StructLiteralExpr) expressionNode() {}

// SizeOfExpr is `sizeof T` or `sizeof expr`.
type SizeOfExpr struct {
	base
	OfType *Type
	OfExpr Expression
}

func (s *SizeOfExpr) String() string {
	if s.OfType != nil {
		return "sizeof " + s.OfType.String()
	}
	return "sizeof " + s.OfExpr.String()
}
func (s *SizeOfExpr) expressionNode() {}

// IncDecExpr is `expr++` / `expr--` / `++expr` / `--expr`.
type IncDecExpr struct {
	base
	Operand Expression
	Inc     bool // true for ++, false for --
	Prefix  bool
}

func (i *IncDecExpr) String() string {
	op := "++"
	if !i.Inc {
		op = "--"
	}
	if i.Prefix {
		return op + i.Operand.String()
	}
	return i.Operand.String() + op
}
func (i *IncDecExpr) expressionNode() {}

// MatchArm is one arm of a MatchExpr: a type pattern (Type set), a
// literal pattern (Literal set), or the wildcard default (both nil).
type MatchArm struct {
	Type    *Type
	Literal Expression
	Bind    string // optional variable bound to the matched value
	Result  Expression
}

// MatchExpr is the pattern-match expression recovered from
// original_source/src/parser/parser_expr_match.h, dropped by the
// distillation's essential-set listing (spec.md §3.1) but present in
// the original compiler and supplemented here (see SPEC_FULL.md §3).
type MatchExpr struct {
	base
	Subject Expression
	Arms    []MatchArm
	Default Expression
}

func (m *MatchExpr) String() string { return "match " + m.Subject.String() + " { ... }" }
func (m *MatchExpr) expressionNode() {}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

type stmtBase struct {
	Pos Pos
}

func (s stmtBase) Position() Pos { return s.Pos }

// MemoryQualifier is the scope-based ownership annotation on a variable
// declaration or function body block (spec.md §3.3/§4.2).
type MemoryQualifier int

const (
	QualDefault MemoryQualifier = iota
	QualAsVal
	QualAsRef
	QualShared
	QualPrivate
)

// ExpressionStmt wraps an expression evaluated for effect.
type ExpressionStmt struct {
	stmtBase
	Expr Expression
}

func (e *ExpressionStmt) String() string { return e.Expr.String() }
func (e *ExpressionStmt) statementNode() {}

// VarDeclStmt is a local/global variable declaration.
type VarDeclStmt struct {
	stmtBase
	Name      string
	Type      *Type
	Init      Expression
	Qualifier MemoryQualifier
	Sync      bool // atomic
	Sym       *Symbol
}

func (v *VarDeclStmt) String() string { return "var " + v.Name }
func (v *VarDeclStmt) statementNode() {}

// Param is one function parameter.
type Param struct {
	Name      string
	Type      *Type
	Qualifier MemoryQualifier
}

// FuncDeclStmt is a top-level or method function definition.
type FuncDeclStmt struct {
	stmtBase
	Name       string
	Params     []Param
	ReturnType *Type
	Body       []Statement
	Native     bool
	CAlias     string
	Modifier   MethodModifier // for methods; ModDefault for free functions
	Static     bool
	// IsTailRecursive is set by optimizer.MarkTailCalls when this
	// function's body contains at least one tail-call-marked self call.
	IsTailRecursive bool
}

func (f *FuncDeclStmt) String() string { return "func " + f.Name }
func (f *FuncDeclStmt) statementNode() {}

// ReturnStmt is `return expr` (Value nil for a bare `return`).
type ReturnStmt struct {
	stmtBase
	Value Expression
}

func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}
func (r *ReturnStmt) statementNode() {}

// BlockStmt is a braced statement sequence; Qualifier distinguishes a
// plain block from a `shared { ... }` / `private { ... }` scope modifier
// block (spec.md §4.2 "Arena nesting").
type BlockStmt struct {
	stmtBase
	Statements []Statement
	Qualifier  MemoryQualifier
}

func (b *BlockStmt) String() string  { return fmt.Sprintf("{ %d stmts }", len(b.Statements)) }
func (b *BlockStmt) statementNode() {}

// IfStmt is `if cond { then } else { else }`; Else may be nil, or itself
// an IfStmt wrapped in a BlockStmt for `else if` chains.
type IfStmt struct {
	stmtBase
	Cond Expression
	Then *BlockStmt
	Else *BlockStmt
}

func (i *IfStmt) String() string { return "if " + i.Cond.String() }
func (i *IfStmt) statementNode() {}

// WhileStmt is a condition loop.
type WhileStmt struct {
	stmtBase
	Cond Expression
	Body *BlockStmt
	// Shared mirrors the `shared` modifier on a loop: when true, no
	// per-iteration loop arena is allocated (spec.md §4.2 "Entering a
	// non-shared loop").
	Shared bool
}

func (w *WhileStmt) String() string  { return "while " + w.Cond.String() }
func (w *WhileStmt) statementNode() {}

// ForStmt is a C-style `for init; cond; post { body }`.
type ForStmt struct {
	stmtBase
	Init   Statement
	Cond   Expression
	Post   Statement
	Body   *BlockStmt
	Shared bool
}

func (f *ForStmt) String() string  { return "for ..." }
func (f *ForStmt) statementNode() {}

// ForEachStmt is `for x in iterable { body }`.
type ForEachStmt struct {
	stmtBase
	Var      string
	Iterable Expression
	Body     *BlockStmt
	Shared   bool
	// CounterNonNegative is set by the (out-of-scope) checker/optimizer
	// when Var is provably non-negative across the whole loop, letting
	// codegen elide the negative-index runtime adjust (spec.md §4.2
	// "Indexed assignment").
	CounterNonNegative bool
}

func (f *ForEachStmt) String() string { return "for " + f.Var + " in " + f.Iterable.String() }
func (f *ForEachStmt) statementNode() {}

// BreakStmt / ContinueStmt.
type BreakStmt struct{ stmtBase }

func (b *BreakStmt) String() string  { return "break" }
func (b *BreakStmt) statementNode() {}

type ContinueStmt struct{ stmtBase }

func (c *ContinueStmt) String() string  { return "continue" }
func (c *ContinueStmt) statementNode() {}

// ImportStmt is a module import; Alias is the namespace prefix used for
// NamespacedIdent-style references into the imported module.
type ImportStmt struct {
	stmtBase
	Path  string
	Alias string
}

func (i *ImportStmt) String() string { return "import " + i.Path + " as " + i.Alias }
func (i *ImportStmt) statementNode() {}

// PragmaKind enumerates the #pragma directives the generator consumes
// (spec.md §6 "#pragma directives surface to the generator as
// statements").
type PragmaKind int

const (
	PragmaInclude PragmaKind = iota
	PragmaLink
	PragmaSource
	PragmaAlias
	PragmaExtern
)

// PragmaStmt is a `#pragma ...` directive.
type PragmaStmt struct {
	stmtBase
	Kind  PragmaKind
	Value string // include path, link name, source file, or alias mapping "Name=CName"
}

func (p *PragmaStmt) String() string { return "#pragma " + p.Value }
func (p *PragmaStmt) statementNode() {}

// TypeDeclStmt is a type alias / named scalar type declaration.
type TypeDeclStmt struct {
	stmtBase
	Name string
	Type *Type
}

func (t *TypeDeclStmt) String() string { return "type " + t.Name }
func (t *TypeDeclStmt) statementNode() {}

// StructDeclStmt is a struct type declaration.
type StructDeclStmt struct {
	stmtBase
	Name    string
	Fields  []Field
	Methods []*FuncDeclStmt
	Flags   StructFlags
	CAlias  string
}

func (s *StructDeclStmt) String() string { return "struct " + s.Name }
func (s *StructDeclStmt) statementNode() {}

// LockStmt is `lock expr { body }` — serializes body execution against
// a sync-qualified variable's associated mutex in the generated C.
type LockStmt struct {
	stmtBase
	Target Expression
	Body   *BlockStmt
}

func (l *LockStmt) String() string  { return "lock " + l.Target.String() }
func (l *LockStmt) statementNode() {}

// Program is the root of a compilation unit.
type Program struct {
	Statements []Statement
	ModuleName string
	Imports    []*ImportStmt
	Pragmas    []*PragmaStmt
}

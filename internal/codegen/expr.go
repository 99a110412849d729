package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sindarin-lang/sdc/internal/ast"
)

// LowerExpr renders e as a C expression string, dispatching by concrete
// AST node type the way the teacher's code_gen.go switches on
// Expr.type — split here into one function per node family, mirroring
// original_source/src/code_gen's code_gen_expr_binary.h /
// code_gen_expr_core.c / code_gen_expr_member.h / code_gen_expr_misc.h /
// code_gen_expr_static.h / code_gen_expr_string.h file boundaries.
func LowerExpr(g *Generator, e ast.Expression) string {
	switch v := e.(type) {
	case *ast.LiteralExpr:
		return lowerLiteral(g, v)
	case *ast.VarExpr:
		return lowerVar(g, v)
	case *ast.BinaryExpr:
		return lowerBinary(g, v)
	case *ast.UnaryExpr:
		return "(" + v.Op + LowerExpr(g, v.Operand) + ")"
	case *ast.AssignExpr:
		return lowerAssign(g, v)
	case *ast.IndexedAssignExpr:
		arr, idx := lowerIndex(g, v.Array, v.Index)
		return fmt.Sprintf("%s[%s] = %s", arr, idx, LowerExpr(g, v.Value))
	case *ast.CompoundAssignExpr:
		return fmt.Sprintf("%s %s= %s", LowerExpr(g, v.Target), v.Op, LowerExpr(g, v.Value))
	case *ast.CallExpr:
		return lowerCall(g, v)
	case *ast.StaticCallExpr:
		return lowerStaticCall(g, v)
	case *ast.MethodCallExpr:
		return lowerMethodCall(g, v)
	case *ast.ArrayLiteralExpr:
		return lowerArrayLiteral(g, v)
	case *ast.ArrayAccessExpr:
		return lowerArrayAccess(g, v)
	case *ast.ArraySliceExpr:
		return lowerArraySlice(g, v)
	case *ast.RangeExpr:
		return fmt.Sprintf("rt_range(%s, %s, %t)", LowerExpr(g, v.Start), LowerExpr(g, v.End), v.Inclusive)
	case *ast.SpreadExpr:
		return "/* spread */ " + LowerExpr(g, v.Operand)
	case *ast.InterpolatedStringExpr:
		return lowerInterpolatedString(g, v)
	case *ast.MemberAccessExpr:
		return LowerExpr(g, v.Object) + "->" + v.Field
	case *ast.MemberAssignExpr:
		return fmt.Sprintf("%s->%s = %s", LowerExpr(g, v.Object), v.Field, LowerExpr(g, v.Value))
	case *ast.SizedArrayAllocExpr:
		return lowerSizedArrayAlloc(g, v)
	case *ast.ThreadSpawnExpr:
		return fmt.Sprintf("/* spawn lowered at statement level: %s */", v.Call.String())
	case *ast.ThreadSyncExpr:
		return fmt.Sprintf("/* sync lowered at statement level: %s */", v.Handle.String())
	case *ast.SyncListExpr:
		return "/* sync list lowered at statement level */"
	case *ast.ValueOfExpr:
		return lowerValueOf(g, v)
	case *ast.RefOfExpr:
		return "&(" + LowerExpr(g, v.Operand) + ")"
	case *ast.TypeOfExpr:
		return "rt_typeof(" + LowerExpr(g, v.Operand) + ")"
	case *ast.IsExpr:
		return fmt.Sprintf("rt_is(%s, %q)", LowerExpr(g, v.Operand), v.Target.String())
	case *ast.CastExpr:
		return lowerCast(g, v)
	case *ast.StructLiteralExpr:
		return lowerStructLiteral(g, v)
	case *ast.SizeOfExpr:
		return lowerSizeOf(g, v)
	case *ast.IncDecExpr:
		return lowerIncDec(g, v)
	case *ast.MatchExpr:
		return lowerMatch(g, v)
	case *ast.LambdaExpr:
		return lowerLambda(g, v, "")
	default:
		g.Errors.Add(LevelError, CategoryInternal, e.Position(), "no lowering for expression kind %T", e)
		return "/* unsupported expression */"
	}
}

// lowerLiteral renders a literal per spec.md §4.2's literal contract:
// integer widths get explicit C suffixes since the parsed Go value
// alone carries none, float literals that would otherwise look like an
// integer get a trailing `.0`, and `nil` lowers to the runtime's null
// handle sentinel when the literal sits in a handle-typed context and
// to a plain C `NULL` otherwise.
func lowerLiteral(g *Generator, l *ast.LiteralExpr) string {
	switch raw := l.Raw.(type) {
	case nil:
		if l.ResolvedType() != nil && l.ResolvedType().IsHandleTyped() {
			return "RT_NULL_HANDLE"
		}
		return "NULL"
	case bool:
		if raw {
			return "true"
		}
		return "false"
	case string:
		idx, _ := g.Pool.Intern(raw)
		return fmt.Sprintf("rt_managed_strdup(%s, RT_NULL_HANDLE, _sdc_str_%d)", g.CurrentArenaVar(), idx)
	case byte:
		return fmt.Sprintf("%d", raw)
	case int64:
		return strconv.FormatInt(raw, 10) + intLiteralSuffix(l.ResolvedType(), false)
	case uint64:
		return strconv.FormatUint(raw, 10) + intLiteralSuffix(l.ResolvedType(), true)
	case float64:
		return floatLiteralC(raw)
	default:
		return fmt.Sprintf("%v", raw)
	}
}

// intLiteralSuffix picks the C integer-width suffix (LL/ULL/U) spec.md
// §4.2 names, keyed on the literal's resolved type rather than its
// parsed Go value — the parser hands every integer literal through as
// a plain int64/uint64 regardless of its declared width.
func intLiteralSuffix(t *ast.Type, unsigned bool) string {
	if t == nil {
		return ""
	}
	long := t.Kind == ast.KindLong
	unsigned = unsigned || t.Kind == ast.KindUint || t.Kind == ast.KindUint32
	switch {
	case long && unsigned:
		return "ULL"
	case long:
		return "LL"
	case unsigned:
		return "U"
	default:
		return ""
	}
}

// floatLiteralC renders f the way C requires to keep it a floating
// literal: an integer-looking value ("2") would otherwise parse as an
// int constant, so it gets ".0" appended.
func floatLiteralC(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// lowerVar resolves the arena to pin a handle-typed variable reference
// against by the symbol's declaration kind (spec.md §4.2 "Variable
// reference"): globals are cloned into the current arena and pinned
// from there (a global's table index means nothing anywhere else),
// params use the tree-searching pin_any since their origin arena
// is unknown to the callee, and locals pin from whatever arena is
// nearest in scope.
func lowerVar(g *Generator, v *ast.VarExpr) string {
	if g.Mode() != ModeRaw || v.Sym == nil || !v.Sym.Type.IsHandleTyped() {
		return v.Name
	}
	switch v.Sym.Kind {
	case ast.SymGlobal:
		cloned := fmt.Sprintf("rt_managed_clone(%s, %s)", g.CurrentArenaVar(), v.Name)
		return fmt.Sprintf("rt_managed_pin(%s, %s)", g.CurrentArenaVar(), cloned)
	case ast.SymParam:
		root := v.Sym.ParamArenaVar
		if root == "" {
			root = "arena"
		}
		return fmt.Sprintf("rt_managed_pin_any(%s, %s)", root, v.Name)
	default:
		return fmt.Sprintf("rt_managed_pin(%s, %s)", g.CurrentArenaVar(), v.Name)
	}
}

// lowerAssign chooses among the assignment forms spec.md §4.2
// "Assignment" names: a direct scalar store; a handle-producing store
// that releases the target's old handle first (strings); a clone into
// the innermost arena at the assignment, not the arena the target was
// declared in (arrays assigned to locals/params); a promote
// to the root arena (globals); and a statement-expression sequence that
// frees stale handle fields and promotes fresh ones (global struct
// assignment). Assigning into an `any`-typed target also boxes the
// value, or converts an array to any[], when the source isn't already
// `any`.
func lowerAssign(g *Generator, a *ast.AssignExpr) string {
	if lam, ok := a.Value.(*ast.LambdaExpr); ok {
		// A lambda can only be "declared" by assignment (lambdas may not
		// introduce genuine new locals — spec.md §4.2 "Lambda"), so the
		// target name already exists; just rebind it to the hoisted value.
		boundName := ""
		if ve, ok := a.Target.(*ast.VarExpr); ok {
			boundName = ve.Name
		}
		return LowerExpr(g, a.Target) + " = " + lowerLambda(g, lam, boundName)
	}

	valC := LowerExpr(g, a.Value)
	targetType := a.Target.ResolvedType()
	valType := a.Value.ResolvedType()
	if targetType != nil && targetType.Kind == ast.KindAny && valType != nil && valType.Kind != ast.KindAny {
		valC = boxAnyValue(g, valType, valC)
	}

	ve, isVar := a.Target.(*ast.VarExpr)
	if !isVar || ve.Sym == nil || targetType == nil || !targetType.IsHandleTyped() {
		return LowerExpr(g, a.Target) + " = " + valC
	}

	switch ve.Sym.Kind {
	case ast.SymGlobal:
		if targetType.Kind == ast.KindStruct {
			return lowerGlobalStructAssign(g, ve, targetType, valC)
		}
		return fmt.Sprintf("%s = rt_managed_promote(%s, %s, %s)", ve.Name, mainArenaVar, g.CurrentArenaVar(), valC)
	case ast.SymLocal, ast.SymParam:
		switch targetType.Kind {
		case ast.KindString:
			return fmt.Sprintf("(rt_managed_mark_dead(%s, %s), %s = %s)", g.CurrentArenaVar(), ve.Name, ve.Name, valC)
		case ast.KindArray:
			return fmt.Sprintf("%s = rt_managed_clone(%s, %s)", ve.Name, g.CurrentArenaVar(), valC)
		default:
			return ve.Name + " = " + valC
		}
	default:
		return ve.Name + " = " + valC
	}
}

// boxAnyValue implements the `any` boxing / array-to-any conversion
// spec.md §4.2 "Assignment" requires when the left-hand side is `any`:
// scalars and strings box through rt_any_box, arrays convert through
// the matching rt_array_to_any depth helper (1D/2D/3D).
func boxAnyValue(g *Generator, valType *ast.Type, valC string) string {
	if valType.Kind != ast.KindArray {
		return fmt.Sprintf("rt_any_box(%s, %s)", g.CurrentArenaVar(), valC)
	}
	switch {
	case valType.Is3DArray():
		return fmt.Sprintf("rt_array3_to_any(%s, %s)", g.CurrentArenaVar(), valC)
	case valType.Is2DArray():
		return fmt.Sprintf("rt_array2_to_any(%s, %s)", g.CurrentArenaVar(), valC)
	default:
		return fmt.Sprintf("rt_array_to_any(%s, %s)", g.CurrentArenaVar(), valC)
	}
}

// lowerGlobalStructAssign renders a global struct assignment as one
// GNU statement expression: stage the new value, mark the old value's
// handle-typed fields dead, deep-promote the new value's handle-typed
// fields into the root arena, then commit — spec.md §4.2 "statement-
// expression sequence that frees old handle fields and promotes new
// ones (for global struct assignment containing handle fields)".
func lowerGlobalStructAssign(g *Generator, ve *ast.VarExpr, t *ast.Type, valC string) string {
	tmp := g.NextTemp("gassign")
	var b strings.Builder
	fmt.Fprintf(&b, "({ %s %s = %s; ", cTypeName(t), tmp, valC)
	for _, f := range t.Fields {
		if !f.Type.IsHandleTyped() {
			continue
		}
		fmt.Fprintf(&b, "rt_managed_mark_dead(%s, %s.%s); ", g.CurrentArenaVar(), ve.Name, f.Name)
	}
	for _, expr := range promoteStructFieldExprs(g, tmp, t, mainArenaVar) {
		fmt.Fprintf(&b, "%s; ", expr)
	}
	fmt.Fprintf(&b, "%s = %s; })", ve.Name, tmp)
	return b.String()
}

// lowerBinary wires checked-mode arithmetic guards (spec.md §4.2
// "Binary/unary" — division/modulo always trap on a zero divisor
// regardless of ArithmeticMode; `+`/`-`/`*` trap on overflow only when
// the generator's GuardConfig asks for it).
func lowerBinary(g *Generator, b *ast.BinaryExpr) string {
	lhs, rhs := LowerExpr(g, b.Left), LowerExpr(g, b.Right)
	switch b.Op {
	case "/", "%":
		return lowerDivOrMod(g, b.Op, lhs, rhs)
	case "+", "-", "*":
		if g.Guards.OverflowChecks {
			if guarded, ok := lowerOverflowChecked(g, b, lhs, rhs); ok {
				return guarded
			}
		}
	}
	return "(" + lhs + " " + b.Op + " " + rhs + ")"
}

// lowerDivOrMod wraps a division/modulo in a GNU statement expression
// that panics on a zero divisor ahead of evaluating the operator —
// unconditional, since divide-by-zero is undefined behavior in C
// regardless of checked/unchecked arithmetic mode.
func lowerDivOrMod(g *Generator, op, lhs, rhs string) string {
	guard := EmitDivisionGuard(rhs, g.CurrentArenaVar())
	return fmt.Sprintf("({ %s(%s %s %s); })", guard, lhs, op, rhs)
}

// lowerOverflowChecked wraps a checked-mode +/-/* in the matching
// __builtin_*_overflow and panics if it reports one, reporting ok=false
// for a result type the builtin family doesn't cover (non-integer).
func lowerOverflowChecked(g *Generator, b *ast.BinaryExpr, lhs, rhs string) (string, bool) {
	rt := b.ResolvedType()
	builtin := overflowBuiltin(b.Op)
	if builtin == "" || rt == nil {
		return "", false
	}
	switch rt.Kind {
	case ast.KindInt, ast.KindInt32, ast.KindUint, ast.KindUint32, ast.KindLong:
	default:
		return "", false
	}
	resultVar := g.NextTemp("ovf")
	guard := EmitOverflowGuard(builtin, lhs, rhs, resultVar, g.CurrentArenaVar())
	return fmt.Sprintf("({ %s %s; %s%s; })", cTypeName(rt), resultVar, guard, resultVar), true
}

func overflowBuiltin(op string) string {
	switch op {
	case "+":
		return "__builtin_add_overflow"
	case "-":
		return "__builtin_sub_overflow"
	case "*":
		return "__builtin_mul_overflow"
	default:
		return ""
	}
}

func lowerCall(g *Generator, c *ast.CallExpr) string {
	var callee string
	switch {
	case c.Callee != nil:
		callee = LowerExpr(g, c.Callee)
	default:
		callee = c.Name
		if c.Native {
			g.Externs.MarkEmitted(c.Name)
		}
	}
	args := make([]string, 0, len(c.Args)+1)
	if !c.Native {
		args = append(args, g.CurrentArenaVar())
	}
	for _, a := range c.Args {
		args = append(args, LowerExpr(g, a))
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

func lowerStaticCall(g *Generator, s *ast.StaticCallExpr) string {
	args := make([]string, 0, len(s.Args)+1)
	args = append(args, g.CurrentArenaVar())
	for _, a := range s.Args {
		args = append(args, LowerExpr(g, a))
	}
	return fmt.Sprintf("%s_%s(%s)", s.TypeName, s.Method, strings.Join(args, ", "))
}

func lowerMethodCall(g *Generator, m *ast.MethodCallExpr) string {
	recv := LowerExpr(g, m.Receiver)
	args := make([]string, 0, len(m.Args)+2)
	args = append(args, g.CurrentArenaVar(), recv)
	for _, a := range m.Args {
		args = append(args, LowerExpr(g, a))
	}
	name := m.Method
	if m.Resolved != nil && m.Resolved.Alias != "" {
		name = m.Resolved.Alias
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}

func lowerArrayLiteral(g *Generator, a *ast.ArrayLiteralExpr) string {
	elems := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		elems[i] = LowerExpr(g, el)
	}
	return fmt.Sprintf("rt_array_literal(%s, %d, (double[]){%s})", g.CurrentArenaVar(), len(elems), strings.Join(elems, ", "))
}

func lowerArrayAccess(g *Generator, a *ast.ArrayAccessExpr) string {
	arr, idx := lowerIndex(g, a.Array, a.Index)
	if g.Guards.BoundsChecks {
		return fmt.Sprintf("(%s[rt_bounds_check(%s, %s, %s)])", arr, idx, "rt_array_len("+arr+")", g.CurrentArenaVar())
	}
	return arr + "[" + idx + "]"
}

// lowerIndex lowers an array and its index together so a negative index
// can be adjusted against the array's length before use (spec.md §4.2
// "negative indices count from the end"), matching the adjustment
// lowerForEach already performs for its own iteration index. The
// adjustment is skipped when idx's shape proves it can never be
// negative (an unsigned variable, or a non-negative integer literal) —
// the common case, where the extra rt_index_adjust call would only add
// overhead around an index that can't need it.
func lowerIndex(g *Generator, arr, idx ast.Expression) (arrC, idxC string) {
	arrC = LowerExpr(g, arr)
	idxC = LowerExpr(g, idx)
	if indexProvablyNonNegative(idx) {
		return arrC, idxC
	}
	return arrC, fmt.Sprintf("rt_index_adjust(%s, rt_array_len(%s))", idxC, arrC)
}

// indexProvablyNonNegative reports whether idx's own shape rules out a
// negative value without needing a runtime check: an unsigned-typed
// expression, or an integer literal that isn't itself negative.
func indexProvablyNonNegative(idx ast.Expression) bool {
	if t := idx.ResolvedType(); t != nil && (t.Kind == ast.KindUint || t.Kind == ast.KindUint32) {
		return true
	}
	if lit, ok := idx.(*ast.LiteralExpr); ok {
		switch v := lit.Raw.(type) {
		case uint64:
			return true
		case int64:
			return v >= 0
		}
	}
	return false
}

func lowerArraySlice(g *Generator, a *ast.ArraySliceExpr) string {
	start, end := "0", "rt_array_len("+LowerExpr(g, a.Array)+")"
	if a.Start != nil {
		start = LowerExpr(g, a.Start)
	}
	if a.End != nil {
		end = LowerExpr(g, a.End)
	}
	return fmt.Sprintf("rt_array_slice(%s, %s, %s, %s)", g.CurrentArenaVar(), LowerExpr(g, a.Array), start, end)
}

func lowerInterpolatedString(g *Generator, i *ast.InterpolatedStringExpr) string {
	var b strings.Builder
	b.WriteString("rt_string_concat(" + g.CurrentArenaVar())
	for _, part := range i.Parts {
		b.WriteString(", ")
		if part.Expr == nil {
			idx, _ := g.Pool.Intern(part.Literal)
			fmt.Fprintf(&b, "_sdc_str_%d", idx)
			continue
		}
		if part.Format != "" {
			fmt.Fprintf(&b, "rt_format(%s, %q, %s)", g.CurrentArenaVar(), part.Format, LowerExpr(g, part.Expr))
		} else {
			fmt.Fprintf(&b, "rt_to_string(%s, %s)", g.CurrentArenaVar(), LowerExpr(g, part.Expr))
		}
	}
	b.WriteString(")")
	return b.String()
}

func lowerSizedArrayAlloc(g *Generator, s *ast.SizedArrayAllocExpr) string {
	return fmt.Sprintf("rt_managed_alloc_array(%s, sizeof(%s), %s)", g.CurrentArenaVar(), cTypeName(s.ElemType), LowerExpr(g, s.Size))
}

// lowerValueOf implements `expr as val` copy semantics (spec.md §4.2):
// a handle-typed value is deep-cloned into the current arena so the
// caller holds an independent copy rather than another alias of the
// same storage.
func lowerValueOf(g *Generator, v *ast.ValueOfExpr) string {
	inner := LowerExpr(g, v.Operand)
	if v.ResolvedType() != nil && v.ResolvedType().IsHandleTyped() {
		return fmt.Sprintf("rt_managed_clone(%s, %s)", g.CurrentArenaVar(), inner)
	}
	return inner
}

func lowerCast(g *Generator, c *ast.CastExpr) string {
	return fmt.Sprintf("((%s)%s)", cTypeName(c.Target), LowerExpr(g, c.Operand))
}

func lowerStructLiteral(g *Generator, s *ast.StructLiteralExpr) string {
	fields := make([]string, 0, len(s.FieldOrder))
	for _, name := range s.FieldOrder {
		fields = append(fields, fmt.Sprintf(".%s = %s", name, LowerExpr(g, s.Fields[name])))
	}
	return fmt.Sprintf("(%s){%s}", s.StructName, strings.Join(fields, ", "))
}

func lowerSizeOf(g *Generator, s *ast.SizeOfExpr) string {
	if s.OfType != nil {
		return "sizeof(" + cTypeName(s.OfType) + ")"
	}
	return "sizeof(" + LowerExpr(g, s.OfExpr) + ")"
}

func lowerIncDec(g *Generator, i *ast.IncDecExpr) string {
	op := "++"
	if !i.Inc {
		op = "--"
	}
	operand := LowerExpr(g, i.Operand)
	if i.Prefix {
		return op + operand
	}
	return operand + op
}

// lowerMatch lowers a MatchExpr to a C conditional-operator (`?:`) chain of
// `is`-style tag tests, reusing IsExpr's runtime tag-comparison contract
// (spec.md §3.1 recovered MatchExpr note) — arms test in source order,
// the first matching arm's Result wins, Default covers the wildcard.
func lowerMatch(g *Generator, m *ast.MatchExpr) string {
	subject := LowerExpr(g, m.Subject)
	var b strings.Builder
	b.WriteString("(")
	for _, arm := range m.Arms {
		switch {
		case arm.Type != nil:
			fmt.Fprintf(&b, "rt_is(%s, %q) ? (%s) : ", subject, arm.Type.String(), LowerExpr(g, arm.Result))
		case arm.Literal != nil:
			fmt.Fprintf(&b, "(%s) == (%s) ? (%s) : ", subject, LowerExpr(g, arm.Literal), LowerExpr(g, arm.Result))
		}
	}
	if m.Default != nil {
		b.WriteString(LowerExpr(g, m.Default))
	} else {
		b.WriteString("rt_unreachable()")
	}
	b.WriteString(")")
	return b.String()
}

// cTypeName renders t as a C type name, the code-generator-local
// counterpart of the teacher's get_c_type (code_gen_native_extern.c).
func cTypeName(t *ast.Type) string {
	if t == nil {
		return "void"
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
	case ast.KindByte:
		return "uint8_t"
	case ast.KindChar:
		return "char"
	case ast.KindVoid:
		return "void"
	case ast.KindString, ast.KindArray:
		return "RtHandle"
	case ast.KindStruct:
		return t.StructName
	case ast.KindPointer, ast.KindOpaque:
		return t.PointeeOrOpaqueName + " *"
	case ast.KindFunction:
		// A lambda/closure value is the heap-boxed closure-struct pointer
		// lowerLambda allocates, not a bare C function pointer — callers
		// dereference its `fn` field to get the actual thunk.
		return "void *"
	default:
		return "void *"
	}
}

package codegen

import (
	"fmt"
	"strings"

	"github.com/sindarin-lang/sdc/internal/ast"
)

// ErrorLevel is the severity of a generator-reported diagnostic.
type ErrorLevel int

const (
	LevelWarning ErrorLevel = iota
	LevelError
	LevelFatal
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ErrorCategory buckets a diagnostic by which subsystem raised it. Only
// Codegen and Internal originate in this package; Semantic carries
// through diagnostics the (out-of-scope) type checker already produced
// against this AST, opaque to the generator (spec.md §7).
type ErrorCategory int

const (
	CategorySemantic ErrorCategory = iota
	CategoryCodegen
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategorySemantic:
		return "semantic"
	case CategoryCodegen:
		return "codegen"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// GenError is a diagnostic the generator raised while lowering the AST,
// generalized from the teacher's CompilerError (errors.go) to carry an
// ast.Pos instead of a line/column pair tied to one source file on disk.
type GenError struct {
	Level    ErrorLevel
	Category ErrorCategory
	Message  string
	Pos      ast.Pos
}

func (e *GenError) Error() string {
	return fmt.Sprintf("%s [%s] %s: %s", e.Pos.String(), e.Category, e.Level, e.Message)
}

// Collector accumulates diagnostics across one generation run the way
// the teacher's ErrorCollector does, without the ANSI-colorized
// source-line rendering — this package has no source text of its own,
// only the AST and its positions.
type Collector struct {
	errors   []*GenError
	warnings []*GenError
	maxErrs  int
}

// NewCollector returns a Collector that stops accepting new errors once
// maxErrs is reached (0 means unlimited), mirroring the teacher's
// NewErrorCollector(maxErrors).
func NewCollector(maxErrs int) *Collector {
	return &Collector{maxErrs: maxErrs}
}

func (c *Collector) Add(level ErrorLevel, category ErrorCategory, pos ast.Pos, format string, args ...any) {
	e := &GenError{Level: level, Category: category, Message: fmt.Sprintf(format, args...), Pos: pos}
	if level == LevelWarning {
		c.warnings = append(c.warnings, e)
		return
	}
	if c.maxErrs > 0 && len(c.errors) >= c.maxErrs {
		return
	}
	c.errors = append(c.errors, e)
}

func (c *Collector) HasErrors() bool { return len(c.errors) > 0 }

func (c *Collector) HasFatal() bool {
	for _, e := range c.errors {
		if e.Level == LevelFatal {
			return true
		}
	}
	return false
}

func (c *Collector) ErrorCount() int   { return len(c.errors) }
func (c *Collector) WarningCount() int { return len(c.warnings) }
func (c *Collector) Errors() []*GenError   { return c.errors }
func (c *Collector) Warnings() []*GenError { return c.warnings }

// Report renders every accumulated diagnostic, errors first, one per
// line — the plain-text analogue of the teacher's colorized Report.
func (c *Collector) Report() string {
	var b strings.Builder
	for _, e := range c.errors {
		b.WriteString(e.Error())
		b.WriteByte('\n')
	}
	for _, w := range c.warnings {
		b.WriteString(w.Error())
		b.WriteByte('\n')
	}
	return b.String()
}

// RuntimePanicKind enumerates the ways generated C can panic at runtime
// (spec.md §7: "runtime panics... terminate the thread; sync re-raises
// them to the joining thread"). Modeled as a Go value rather than a Go
// panic so generator tests can assert on which panic a lowering path
// would produce without actually running the emitted C.
type RuntimePanicKind int

const (
	PanicNone RuntimePanicKind = iota
	PanicDivideByZero
	PanicIntegerOverflow
	PanicIndexOutOfBounds
	PanicNullDereference
	PanicUseAfterFree
)

func (k RuntimePanicKind) String() string {
	switch k {
	case PanicDivideByZero:
		return "divide by zero"
	case PanicIntegerOverflow:
		return "integer overflow"
	case PanicIndexOutOfBounds:
		return "index out of bounds"
	case PanicNullDereference:
		return "null dereference"
	case PanicUseAfterFree:
		return "use after free"
	default:
		return "none"
	}
}

// RuntimePanic is the value a guard's generated C raises at runtime;
// Message is the literal text codegen embeds in the panic call.
type RuntimePanic struct {
	Kind    RuntimePanicKind
	Message string
}

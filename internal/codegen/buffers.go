package codegen

import (
	"bytes"
	"fmt"
)

// SafeBuffer wraps a bytes.Buffer with a commit flag, grounded on the
// teacher's safe_buffer.go: once Commit is called, further writes panic
// instead of silently appending to a stream that some later stage
// already assumed was final.
type SafeBuffer struct {
	buf       bytes.Buffer
	committed bool
	name      string
}

// NewSafeBuffer returns an empty, uncommitted buffer named for
// diagnostics (one of "top", "func", "entry").
func NewSafeBuffer(name string) *SafeBuffer {
	return &SafeBuffer{name: name}
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.MustNotBeCommitted("Write")
	return b.buf.Write(p)
}

func (b *SafeBuffer) WriteString(s string) {
	b.MustNotBeCommitted("WriteString")
	b.buf.WriteString(s)
}

func (b *SafeBuffer) Printf(format string, args ...any) {
	b.MustNotBeCommitted("Printf")
	fmt.Fprintf(&b.buf, format, args...)
}

func (b *SafeBuffer) Bytes() []byte { return b.buf.Bytes() }
func (b *SafeBuffer) Len() int      { return b.buf.Len() }

func (b *SafeBuffer) Commit()          { b.committed = true }
func (b *SafeBuffer) IsCommitted() bool { return b.committed }

func (b *SafeBuffer) MustNotBeCommitted(op string) {
	if b.committed {
		panic(fmt.Sprintf("codegen: %s on committed buffer %q", op, b.name))
	}
}

// ScopedBuffer gives a function/block lowering its own checkpoint within
// a parent SafeBuffer: Complete marks the scope done; ResetScope
// discards everything written since the scope opened, the mechanism
// behind an aborted speculative lowering (e.g. a lambda body rewritten
// mid-emit once its captures are known).
type ScopedBuffer struct {
	parent *SafeBuffer
	start  int
	done   bool
}

func NewScopedBuffer(parent *SafeBuffer) *ScopedBuffer {
	return &ScopedBuffer{parent: parent, start: parent.Len()}
}

func (s *ScopedBuffer) Buffer() *SafeBuffer { return s.parent }

func (s *ScopedBuffer) Complete() { s.done = true }

func (s *ScopedBuffer) Bytes() []byte {
	return s.parent.Bytes()[s.start:]
}

// ResetScope truncates the parent buffer back to where this scope
// began, discarding anything emitted inside it.
func (s *ScopedBuffer) ResetScope() {
	if s.parent.committed {
		panic("codegen: ResetScope on committed buffer")
	}
	b := s.parent.buf.Bytes()[:s.start]
	s.parent.buf.Reset()
	s.parent.buf.Write(b)
}

// Streams holds the three buffered emission targets spec.md §4.2 names:
// top-of-file declarations (includes, string constants, native externs),
// function bodies, and the program's entry point. Struct typedefs are
// written to the function stream in source order, and a lambda's closure
// typedef goes wherever emitHoisted puts its thunk; neither is written
// to the top stream.
type Streams struct {
	Top   *SafeBuffer
	Func  *SafeBuffer
	Entry *SafeBuffer
}

func NewStreams() *Streams {
	return &Streams{
		Top:   NewSafeBuffer("top"),
		Func:  NewSafeBuffer("func"),
		Entry: NewSafeBuffer("entry"),
	}
}

// Render concatenates the three streams in file order once all three
// are committed.
func (s *Streams) Render() string {
	if !s.Top.IsCommitted() || !s.Func.IsCommitted() || !s.Entry.IsCommitted() {
		panic("codegen: Render before all streams committed")
	}
	var out bytes.Buffer
	out.Write(s.Top.Bytes())
	out.Write(s.Func.Bytes())
	out.Write(s.Entry.Bytes())
	return out.String()
}

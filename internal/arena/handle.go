// Package arena implements the managed arena runtime: a hierarchical,
// compacting region allocator addressed through indirected handles rather
// than raw pointers, so the code generator never hands out a pointer that
// can outlive the block it was allocated in.
package arena

import "fmt"

// Handle is an opaque (index, generation) pair. The index selects a slot
// in an arena's handle table; the generation guards against a later
// allocation reusing that slot out from under a stale reference.
type Handle struct {
	index uint32
	gen   uint32
}

// Null is the zero handle, equivalent to RT_HANDLE_NULL in the runtime
// this package replaces — no slot ever validly carries generation 0.
var Null = Handle{}

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h.gen == 0 }

func (h Handle) String() string {
	if h.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("handle(%d#%d)", h.index, h.gen)
}

// slot is one entry in an arena's handle table.
type slot struct {
	data []byte
	gen  uint32
	pins int32
	dead bool
	// size of the logical allocation; every Alloc gives the slot fresh
	// data of exactly this many bytes, so it equals len(data) while the
	// slot still holds its data.
	size int
}

func (s *slot) live() bool { return s.gen != 0 && !s.dead }

package ast

import "github.com/dolthub/maphash"

// TypeTable indexes struct types by name for fast repeated lookup —
// codegen consults it once per struct reference across a whole
// compilation (emitting a typedef at most once, resolving a StructName
// forward reference to its Type at a call site), so a custom-hash bucket
// map pays for itself the same way internal/optimizer's string pool does.
type TypeTable struct {
	hasher  maphash.Hasher[string]
	buckets map[uint64][]*Type
}

// NewTypeTable builds an empty table indexed by every struct's
// StructName.
func NewTypeTable() *TypeTable {
	return &TypeTable{
		hasher:  maphash.NewHasher[string](),
		buckets: make(map[uint64][]*Type),
	}
}

// Put indexes t under its StructName. A non-struct Type or one with an
// empty StructName is ignored.
func (tt *TypeTable) Put(t *Type) {
	if t == nil || t.Kind != KindStruct || t.StructName == "" {
		return
	}
	key := tt.hasher.Hash(t.StructName)
	for _, existing := range tt.buckets[key] {
		if existing.StructName == t.StructName {
			return
		}
	}
	tt.buckets[key] = append(tt.buckets[key], t)
}

// Get resolves name to its full Type, if one has been Put.
func (tt *TypeTable) Get(name string) (*Type, bool) {
	for _, t := range tt.buckets[tt.hasher.Hash(name)] {
		if t.StructName == name {
			return t, true
		}
	}
	return nil, false
}

// Has reports whether name has already been indexed, without the
// *Type allocation-free lookup's extra return value.
func (tt *TypeTable) Has(name string) bool {
	_, ok := tt.Get(name)
	return ok
}

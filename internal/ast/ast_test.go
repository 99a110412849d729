package ast

import "testing"

func eq(t *testing.T, got, want any) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIsHandleTypedScalarsAreNot(t *testing.T) {
	eq(t, Int.IsHandleTyped(), false)
	eq(t, Double.IsHandleTyped(), false)
	eq(t, Str.IsHandleTyped(), true)
	eq(t, ArrayOf(Int).IsHandleTyped(), true)
}

func TestIsHandleTypedStructDeepensIntoFields(t *testing.T) {
	plain := &Type{Kind: KindStruct, StructName: "Point", Fields: []Field{{Name: "x", Type: Int}, {Name: "y", Type: Int}}}
	eq(t, plain.IsHandleTyped(), false)

	withString := &Type{Kind: KindStruct, StructName: "Named", Fields: []Field{{Name: "label", Type: Str}}}
	eq(t, withString.IsHandleTyped(), true)
}

func TestIs2DArrayAndIs3DArray(t *testing.T) {
	oneD := ArrayOf(Int)
	twoD := ArrayOf(oneD)
	threeD := ArrayOf(twoD)

	eq(t, oneD.Is2DArray(), false)
	eq(t, twoD.Is2DArray(), true)
	eq(t, twoD.Is3DArray(), false)
	eq(t, threeD.Is2DArray(), false)
	eq(t, threeD.Is3DArray(), true)
}

func TestTypeEqualStructByNameOnly(t *testing.T) {
	forward := &Type{Kind: KindStruct, StructName: "Widget"}
	resolved := &Type{Kind: KindStruct, StructName: "Widget", Fields: []Field{{Name: "id", Type: Int}}}
	other := &Type{Kind: KindStruct, StructName: "Gadget"}

	eq(t, forward.Equal(resolved), true)
	eq(t, forward.Equal(other), false)
}

func TestTypeEqualFunctionComparesSignature(t *testing.T) {
	f1 := &Type{Kind: KindFunction, Params: []*Type{Int, Double}, Results: []*Type{Bool}}
	f2 := &Type{Kind: KindFunction, Params: []*Type{Int, Double}, Results: []*Type{Bool}}
	f3 := &Type{Kind: KindFunction, Params: []*Type{Int}, Results: []*Type{Bool}}

	eq(t, f1.Equal(f2), true)
	eq(t, f1.Equal(f3), false)
}

func TestScopeLookupWalksAncestorsInnermostFirst(t *testing.T) {
	root := NewScope()
	root.Declare(&Symbol{Name: "x", Type: Int})

	child := root.Child()
	child.Declare(&Symbol{Name: "x", Type: Double})

	sym, ok := child.Lookup("x")
	if !ok || sym.Type != Double {
		t.Fatalf("expected shadowed Double, got %v ok=%v", sym, ok)
	}

	_, ok = child.LookupLocal("x")
	eq(t, ok, true)

	grandchild := child.Child()
	_, ok = grandchild.LookupLocal("x")
	eq(t, ok, false)
	_, ok = grandchild.Lookup("x")
	eq(t, ok, true)
}

func TestScopeDeclaredPreservesOrder(t *testing.T) {
	s := NewScope()
	s.Declare(&Symbol{Name: "b"})
	s.Declare(&Symbol{Name: "a"})
	s.Declare(&Symbol{Name: "b"}) // redeclare, should not duplicate order entry

	names := s.Declared()
	if len(names) != 2 || names[0].Name != "b" || names[1].Name != "a" {
		t.Fatalf("unexpected declaration order: %+v", names)
	}
}

func TestPosStringZeroValueIsGenerated(t *testing.T) {
	var p Pos
	eq(t, p.IsZero(), true)
	eq(t, p.String(), "<generated>")

	p2 := Pos{File: "a.sn", Line: 3, Column: 4}
	eq(t, p2.IsZero(), false)
}

func TestTypeTablePutGetDedupesByName(t *testing.T) {
	tt := NewTypeTable()
	first := &Type{Kind: KindStruct, StructName: "Point", Fields: []Field{{Name: "x", Type: Int}}}
	tt.Put(first)

	got, ok := tt.Get("Point")
	eq(t, ok, true)
	eq(t, got, first)

	// A second Put under the same name must not replace the first entry.
	second := &Type{Kind: KindStruct, StructName: "Point", Fields: []Field{{Name: "x", Type: Double}}}
	tt.Put(second)
	got, _ = tt.Get("Point")
	eq(t, got, first)

	eq(t, tt.Has("Point"), true)
	eq(t, tt.Has("Nothing"), false)
}

func TestTypeTableIgnoresNonStruct(t *testing.T) {
	tt := NewTypeTable()
	tt.Put(Int)
	eq(t, tt.Has(""), false)
}

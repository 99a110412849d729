package ast

import "strings"

// Kind is the category of a resolved type (spec.md §3.2).
type Kind int

const (
	KindUnknown Kind = iota
	KindInt
	KindInt32
	KindUint
	KindUint32
	KindLong
	KindDouble
	KindFloat
	KindChar
	KindString
	KindBool
	KindByte
	KindVoid
	KindArray
	KindFunction
	KindNil
	KindAny
	KindPointer
	KindOpaque
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindInt32:
		return "int32"
	case KindUint:
		return "uint"
	case KindUint32:
		return "uint32"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindVoid:
		return "void"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	case KindNil:
		return "nil"
	case KindAny:
		return "any"
	case KindPointer:
		return "pointer"
	case KindOpaque:
		return "opaque"
	case KindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// MethodModifier is the scope modifier on a struct method declaration.
type MethodModifier int

const (
	ModDefault MethodModifier = iota
	ModShared
	ModPrivate
)

// Method describes a struct method's signature and compiler-visible flags.
type Method struct {
	Name     string
	Modifier MethodModifier
	Static   bool
	Native   bool
	Alias    string // C name override from #pragma alias
	Fn       *Type  // function(...) type
}

// Field describes one struct field.
type Field struct {
	Name    string
	Type    *Type
	Offset  int // byte offset, resolved by the (out-of-scope) layout pass
	Default Expression
	CAlias  string
}

// StructFlags records struct-level compiler-visible toggles that came
// from #pragma directives consumed by, but not produced by, this module.
type StructFlags struct {
	Packed bool
	Extern bool // declared via #pragma extern: never emit a definition, only use it
}

// Type is the universal type representation. Exactly one of the
// kind-specific fields is meaningful for a given Kind, mirroring the
// teacher's Vibe67Type "one struct, many kinds" shape (types.go) widened
// to the full kind list of spec.md §3.2.
type Type struct {
	Kind Kind

	// KindArray
	Elem *Type

	// KindPointer / KindOpaque
	PointeeOrOpaqueName string

	// KindFunction
	Results      []*Type // spec.md names a single result R, kept as a slice for forward compatibility with multi-value returns recovered from original_source
	Params       []*Type
	Variadic     bool
	Native       bool
	TypedefName  string

	// KindStruct
	StructName string
	Fields     []Field
	Methods    []Method
	Size       int
	Alignment  int
	Flags      StructFlags
	CAlias     string
}

// String renders the type the way diagnostics and generated typedef
// comments want it.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case KindArray:
		return "array(" + t.Elem.String() + ")"
	case KindPointer:
		return "pointer(" + t.PointeeOrOpaqueName + ")"
	case KindOpaque:
		return "opaque(" + t.PointeeOrOpaqueName + ")"
	case KindFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		ret := "void"
		if len(t.Results) == 1 {
			ret = t.Results[0].String()
		} else if len(t.Results) > 1 {
			rs := make([]string, len(t.Results))
			for i, r := range t.Results {
				rs[i] = r.String()
			}
			ret = "(" + strings.Join(rs, ", ") + ")"
		}
		variadic := ""
		if t.Variadic {
			variadic = ", ..."
		}
		return "function(" + ret + ", [" + strings.Join(parts, ", ") + variadic + "])"
	case KindStruct:
		return "struct(" + t.StructName + ")"
	default:
		return t.Kind.String()
	}
}

// IsHandleTyped reports whether values of this type are represented as
// arena handles at the C boundary rather than as raw scalars — the
// condition that puts the generator's handle/raw mode machinery
// (spec.md §4.2) into play.
func (t *Type) IsHandleTyped() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindString, KindArray:
		return true
	case KindStruct:
		// A struct is handle-typed if at least one field recursively is;
		// deep-promote (spec.md §4.2 "Return promotion") exists precisely
		// because of this case.
		for _, f := range t.Fields {
			if f.Type.IsHandleTyped() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Is2DArray / Is3DArray implement the array(array(T)) canonical-form
// invariant of spec.md §3.2(a): codegen has distinct 1D/2D/3D lowering
// paths, so those depths are named rather than computed ad hoc at every
// call site.
func (t *Type) Is2DArray() bool {
	return t.Kind == KindArray && t.Elem != nil && t.Elem.Kind == KindArray &&
		(t.Elem.Elem == nil || t.Elem.Elem.Kind != KindArray)
}

func (t *Type) Is3DArray() bool {
	return t.Kind == KindArray && t.Elem != nil && t.Elem.Is2DArray()
}

// Equal implements struct equality-by-name-after-resolution (spec.md
// §3.2(c)) and structural equality for everything else. Forward
// references that have not yet been patched (StructName set, Fields
// nil) still compare equal by name.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindArray:
		return t.Elem.Equal(o.Elem)
	case KindPointer, KindOpaque:
		return t.PointeeOrOpaqueName == o.PointeeOrOpaqueName
	case KindStruct:
		return t.StructName == o.StructName
	case KindFunction:
		if t.Variadic != o.Variadic || len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		for i := range t.Results {
			if !t.Results[i].Equal(o.Results[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Common singleton types, grounded on the teacher's Type*Value var block
// (types.go) which keeps one shared instance per native kind instead of
// allocating afresh at every use site.
var (
	Int    = &Type{Kind: KindInt}
	Int32  = &Type{Kind: KindInt32}
	Uint   = &Type{Kind: KindUint}
	Uint32 = &Type{Kind: KindUint32}
	Long   = &Type{Kind: KindLong}
	Double = &Type{Kind: KindDouble}
	Float  = &Type{Kind: KindFloat}
	Char   = &Type{Kind: KindChar}
	Str    = &Type{Kind: KindString}
	Bool   = &Type{Kind: KindBool}
	Byte   = &Type{Kind: KindByte}
	Void   = &Type{Kind: KindVoid}
	Nil    = &Type{Kind: KindNil}
	Any    = &Type{Kind: KindAny}
)

// ArrayOf returns the array(T) type for element type elem.
func ArrayOf(elem *Type) *Type { return &Type{Kind: KindArray, Elem: elem} }

// PointerTo returns pointer(T) where T is named by a C type string
// (structs, opaque foreign handles).
func PointerTo(name string) *Type { return &Type{Kind: KindPointer, PointeeOrOpaqueName: name} }

// Opaque returns opaque(name) for a foreign type the checker never
// inspects the layout of.
func Opaque(name string) *Type { return &Type{Kind: KindOpaque, PointeeOrOpaqueName: name} }

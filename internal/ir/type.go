package ir

import "fmt"

// TypeKind enumerates the Type variants of spec.md §3.
type TypeKind int

const (
	TyVoid TypeKind = iota
	TyError
	TyInt
	TyFloat
	TyPointer
	TyArray
	TyCSU
	TyFunction
)

// Type is one immutable, hash-consed IR type. Only the fields relevant
// to its Kind are meaningful, mirroring the tagged-union variants of
// spec.md §3; grounded on the teacher's TypeInfo (std/compiler/ir.go)
// generalized to the C-family variant set the spec names instead of the
// Go-subset one the teacher actually compiles.
type Type struct {
	Kind TypeKind

	// Int / Float
	Bits   int
	Signed bool // Int only

	// Pointer
	Target *Type
	Width  int // pointer width in bytes

	// Array
	Element *Type
	Count   int

	// CSU
	Name string

	// Function
	Ret      *Type
	This     *Type // nil if not a method
	Varargs  bool
	Args     []*Type
}

func (t *Type) hash() uint32 {
	h := HashCombine(0, uint32(t.Kind))
	switch t.Kind {
	case TyInt:
		h = HashCombine(h, uint32(t.Bits))
		if t.Signed {
			h = HashCombine(h, 1)
		}
	case TyFloat:
		h = HashCombine(h, uint32(t.Bits))
	case TyPointer:
		h = HashCombine(h, t.Target.hash())
		h = HashCombine(h, uint32(t.Width))
	case TyArray:
		h = HashCombine(h, t.Element.hash())
		h = HashCombine(h, uint32(t.Count))
	case TyCSU:
		h = HashCombine(h, HashString(t.Name))
	case TyFunction:
		if t.Ret != nil {
			h = HashCombine(h, t.Ret.hash())
		}
		if t.This != nil {
			h = HashCombine(h, t.This.hash())
		}
		if t.Varargs {
			h = HashCombine(h, 1)
		}
		for _, a := range t.Args {
			h = HashCombine(h, a.hash())
		}
	}
	return h
}

// equalType implements the macro pattern named in spec.md §4.1: compare
// primitives first, then compare child pointers (which, being interned,
// compare by identity).
func equalType(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TyVoid, TyError:
		return true
	case TyInt:
		return a.Bits == b.Bits && a.Signed == b.Signed
	case TyFloat:
		return a.Bits == b.Bits
	case TyPointer:
		return a.Width == b.Width && a.Target == b.Target
	case TyArray:
		return a.Count == b.Count && a.Element == b.Element
	case TyCSU:
		return a.Name == b.Name
	case TyFunction:
		if a.Ret != b.Ret || a.This != b.This || a.Varargs != b.Varargs {
			return false
		}
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if a.Args[i] != b.Args[i] {
				return false
			}
		}
		return true
	}
	return false
}

// TypeTable interns Type values.
type TypeTable struct {
	t *Table[*Type]
}

// NewTypeTable constructs an empty, fresh type table.
func NewTypeTable() *TypeTable {
	return &TypeTable{t: NewTable(func(ty *Type) uint32 { return ty.hash() }, equalType)}
}

// Intern returns the unique *Type for cand, persisting it on first use.
func (tt *TypeTable) Intern(cand *Type) *Type {
	result, _ := tt.t.Intern(cand)
	return result
}

func (tt *TypeTable) Len() int { return tt.t.Len() }

// Convenience constructors, grounded on initBuiltinTypes in
// std/compiler/ir.go.

func (tt *TypeTable) Void() *Type  { return tt.Intern(&Type{Kind: TyVoid}) }
func (tt *TypeTable) Err() *Type   { return tt.Intern(&Type{Kind: TyError}) }
func (tt *TypeTable) Int(bits int, signed bool) *Type {
	return tt.Intern(&Type{Kind: TyInt, Bits: bits, Signed: signed})
}
func (tt *TypeTable) Float(bits int) *Type {
	return tt.Intern(&Type{Kind: TyFloat, Bits: bits})
}
func (tt *TypeTable) Pointer(target *Type, width int) *Type {
	return tt.Intern(&Type{Kind: TyPointer, Target: target, Width: width})
}
func (tt *TypeTable) Array(elem *Type, count int) *Type {
	return tt.Intern(&Type{Kind: TyArray, Element: elem, Count: count})
}
func (tt *TypeTable) CSU(name string) *Type {
	return tt.Intern(&Type{Kind: TyCSU, Name: name})
}
func (tt *TypeTable) Function(ret, this *Type, varargs bool, args []*Type) *Type {
	return tt.Intern(&Type{Kind: TyFunction, Ret: ret, This: this, Varargs: varargs, Args: args})
}

// String renders a debug form; not used for hashing or equality.
func (t *Type) String() string {
	switch t.Kind {
	case TyVoid:
		return "void"
	case TyError:
		return "<error>"
	case TyInt:
		sign := "u"
		if t.Signed {
			sign = "i"
		}
		return fmt.Sprintf("%s%d", sign, t.Bits)
	case TyFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case TyPointer:
		return t.Target.String() + "*"
	case TyArray:
		return fmt.Sprintf("%s[%d]", t.Element.String(), t.Count)
	case TyCSU:
		return t.Name
	case TyFunction:
		return "func(...)"
	}
	return "?"
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInterningInjectivity is property 1 of spec.md §8: two construction
// sequences producing values with equal Compare return pointer-equal
// references.
func TestInterningInjectivity(t *testing.T) {
	tt := NewTypeTable()

	a := tt.Int(32, true)
	b := tt.Int(32, true)
	require.Same(t, a, b)

	c := tt.Pointer(a, 8)
	d := tt.Pointer(b, 8)
	require.Same(t, c, d)

	require.Equal(t, 2, tt.Len(), "expected exactly two distinct interned types (int32, *int32)")
}

// TestHashCompareConsistency is property 2 of spec.md §8.
func TestHashCompareConsistency(t *testing.T) {
	tt := NewTypeTable()
	x := &Type{Kind: TyInt, Bits: 64, Signed: false}
	y := &Type{Kind: TyInt, Bits: 64, Signed: false}
	require.True(t, equalType(x, y))
	require.Equal(t, x.hash(), y.hash())

	interned := tt.Intern(x)
	require.Same(t, interned, tt.Intern(y))
}

func TestTableResizePolicy(t *testing.T) {
	tt := NewTypeTable()
	for i := 0; i < 200; i++ {
		tt.Intern(&Type{Kind: TyInt, Bits: i, Signed: true})
	}
	require.Equal(t, 200, tt.Len())

	// Distinct bit-widths must never collapse.
	a := tt.Intern(&Type{Kind: TyInt, Bits: 17, Signed: true})
	b := tt.Intern(&Type{Kind: TyInt, Bits: 18, Signed: true})
	require.NotSame(t, a, b)
}

func TestRefcountDebugMode(t *testing.T) {
	vt := NewVariableTable()
	vt.t.SetDebug(true, 0)

	v := vt.Intern(&Variable{Kind: VarLocal, Name: "x"})
	vt.t.Ref(v, Source("blockA"))
	vt.t.Ref(v, Source("blockB"))
	require.Len(t, vt.t.Leaks(), 1)

	require.Equal(t, 1, vt.t.Deref(v, Source("blockA")))
	require.Equal(t, 0, vt.t.Deref(v, Source("blockB")))
	require.Empty(t, vt.t.Leaks())
}

func TestReferenceBreakpointPanics(t *testing.T) {
	vt := NewVariableTable()
	vt.t.SetDebug(true, 1) // the first interned entry gets stamp 1
	v := vt.Intern(&Variable{Kind: VarLocal, Name: "y"})

	require.Panics(t, func() {
		vt.t.Ref(v, Source("somewhere"))
	})
}

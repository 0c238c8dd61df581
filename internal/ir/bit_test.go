package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitAndOrCanonicalizeOperandOrder(t *testing.T) {
	bt := NewBitTable()
	a := bt.Var("a")
	b := bt.Var("b")

	require.Same(t, bt.And(a, b), bt.And(b, a))
	require.Same(t, bt.Or(a, b), bt.Or(b, a))
}

func TestBitAndAbsorbsFalse(t *testing.T) {
	bt := NewBitTable()
	a := bt.Var("a")
	require.Same(t, bt.False(), bt.And(a, bt.False()))
	require.Same(t, bt.True(), bt.Or(a, bt.True()))
}

func TestBitNotInvolution(t *testing.T) {
	bt := NewBitTable()
	a := bt.Var("a")
	require.Same(t, a, bt.Not(bt.Not(a)))
}

func TestBitSubstitute(t *testing.T) {
	bt := NewBitTable()
	et := NewExpTable()
	vt := NewVariableTable()
	x := et.Variable(vt.Intern(&Variable{Kind: VarLocal, Name: "x"}))
	five := et.Int(5)
	zero := et.Int(0)

	cmp := bt.Compare(CmpLT, x, five)
	subst := bt.Substitute(cmp, x, zero)
	require.Equal(t, zero, subst.Left)
	require.Equal(t, five, subst.Right)
}

package solve_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/solve"
	"github.com/xgill-go/sixgill/internal/solve/stubsolver"
)

func TestStubSolverFindsSatisfyingAssignment(t *testing.T) {
	s := stubsolver.New()
	x := s.DeclareInt("x", 32, true)
	e := s.ExprCompare(ir.CmpGT, s.ExprFromDecl(x), s.ExprInt(3))
	s.Assert(e)

	sat, err := s.CheckSAT()
	require.NoError(t, err)
	require.True(t, sat)

	model, err := s.Model()
	require.NoError(t, err)
	require.Greater(t, model[x], int64(3))
}

func TestStubSolverDetectsUnsat(t *testing.T) {
	s := stubsolver.New()
	x := s.DeclareInt("x", 32, true)
	xe := s.ExprFromDecl(x)
	s.Assert(s.ExprCompare(ir.CmpGT, xe, s.ExprInt(3)))
	s.Assert(s.ExprCompare(ir.CmpLT, xe, s.ExprInt(3)))

	sat, err := s.CheckSAT()
	require.NoError(t, err)
	require.False(t, sat)
}

func TestStubSolverPushPopRestoresContext(t *testing.T) {
	s := stubsolver.New()
	x := s.DeclareInt("x", 32, true)
	xe := s.ExprFromDecl(x)
	s.Assert(s.ExprCompare(ir.CmpGE, xe, s.ExprInt(0)))

	sat, err := s.CheckSAT()
	require.NoError(t, err)
	require.True(t, sat)

	s.PushContext()
	s.Assert(s.ExprCompare(ir.CmpLT, xe, s.ExprInt(-100))) // unsatisfiable within domain
	sat, err = s.CheckSAT()
	require.NoError(t, err)
	require.False(t, sat)
	s.PopContext()

	sat, err = s.CheckSAT()
	require.NoError(t, err)
	require.True(t, sat)
}

func TestLowerBitAndAssertBitRoundTrip(t *testing.T) {
	exps := ir.NewExpTable()
	bits := ir.NewBitTable()

	s := stubsolver.New()
	x := s.DeclareInt("n", 32, true)
	xExp := exps.Int(5) // stand-in leaf; tr below maps any Exp to x's decl
	_ = xExp

	formula := bits.Compare(ir.CmpGE, exps.Int(0), exps.Int(0)) // trivially true shape
	tr := func(sv solve.BaseSolver, e *ir.Exp) solve.SlvExpr {
		return sv.ExprFromDecl(x)
	}
	solve.AssertBit(s, formula, tr)

	sat, err := s.CheckSAT()
	require.NoError(t, err)
	require.True(t, sat)
}

func TestMuxAgreementReturnsNoError(t *testing.T) {
	a := stubsolver.New()
	b := stubsolver.New()
	mux := solve.NewMux(a, b)

	x := mux.DeclareInt("x", 32, true)
	mux.Assert(mux.ExprCompare(ir.CmpEQ, mux.ExprFromDecl(x), mux.ExprInt(2)))

	sat, err := mux.CheckSAT()
	require.NoError(t, err)
	require.True(t, sat)
}

// disagreeingSolver always reports the opposite of what it's actually
// asked, to exercise Mux's disagreement path deterministically without
// depending on two different real backends.
type disagreeingSolver struct {
	*stubsolver.Solver
}

func newDisagreeing() *disagreeingSolver {
	return &disagreeingSolver{Solver: stubsolver.New()}
}

func (d *disagreeingSolver) Name() string { return "disagreeing" }

func (d *disagreeingSolver) CheckSAT() (bool, error) {
	sat, err := d.Solver.CheckSAT()
	if err != nil {
		return false, err
	}
	return !sat, nil
}

func TestMuxDisagreementIsReported(t *testing.T) {
	agreeing := stubsolver.New()
	dissenter := newDisagreeing()
	mux := solve.NewMux(agreeing, dissenter)

	x := mux.DeclareInt("x", 32, true)
	mux.Assert(mux.ExprCompare(ir.CmpEQ, mux.ExprFromDecl(x), mux.ExprInt(2)))

	_, err := mux.CheckSAT()
	require.Error(t, err)
	var disagreement *solve.DisagreementError
	require.ErrorAs(t, err, &disagreement)
	require.Equal(t, "disagreeing", disagreement.Dissenter)
}

func TestSolverHashTablePushPopUndoesInserts(t *testing.T) {
	h := solve.NewSolverHashTable[string, int]()
	h.Insert("a", 1)

	h.PushFrame()
	h.Insert("b", 2)
	v, ok := h.Get("b")
	require.True(t, ok)
	require.Equal(t, 2, v)
	h.PopFrame()

	_, ok = h.Get("b")
	require.False(t, ok)
	v, ok = h.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestSolverHashTableNestedFrames(t *testing.T) {
	h := solve.NewSolverHashTable[int, string]()
	h.PushFrame()
	h.Insert(1, "one")
	h.PushFrame()
	h.Insert(2, "two")
	h.PopFrame()
	_, ok := h.Get(2)
	require.False(t, ok)
	v, ok := h.Get(1)
	require.True(t, ok)
	require.Equal(t, "one", v)
	h.PopFrame()
	_, ok = h.Get(1)
	require.False(t, ok)
}

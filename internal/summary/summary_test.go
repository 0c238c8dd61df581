package summary

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/memory"
	"github.com/xgill-go/sixgill/internal/solve"
	"github.com/xgill-go/sixgill/internal/solve/stubsolver"
)

// buildWriteOverflowCFG models `void f(int *p, int n){ p[n] = 0; }`: a
// single Assign edge whose lvalue is p[n], matching spec.md's S1 scenario.
func buildWriteOverflowCFG(vars *ir.VariableTable, exps *ir.ExpTable, ids *ir.BlockIdTable) (*ir.BlockCFG, *ir.Exp, *ir.Exp) {
	fn := vars.Intern(&ir.Variable{Kind: ir.VarFunction, Name: "f"})
	id := ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: fn})
	p := vars.Intern(&ir.Variable{Kind: ir.VarArgument, OwnerBlock: id, ArgIndex: 0, Name: "p"})
	n := vars.Intern(&ir.Variable{Kind: ir.VarArgument, OwnerBlock: id, ArgIndex: 1, Name: "n"})

	pExp := exps.Variable(p)
	nExp := exps.Variable(n)
	lval := exps.Index(pExp, nExp)

	cfg := ir.NewCFG(id)
	cfg.Points = append(cfg.Points, ir.CFGPoint{}, ir.CFGPoint{})
	cfg.Entry, cfg.Exit = 1, 2
	cfg.AddEdge(&ir.PEdge{Source: 1, Target: 2, Kind: ir.EdgeAssign, Lhs: lval, Rhs: exps.Int(0)})
	cfg.Freeze()
	return cfg, pExp, nExp
}

func TestBufferAccessAssertionsS1Scenario(t *testing.T) {
	vars := ir.NewVariableTable()
	exps := ir.NewExpTable()
	bits := ir.NewBitTable()
	ids := ir.NewBlockIdTable()
	types := ir.NewTypeTable()

	cfg, pExp, _ := buildWriteOverflowCFG(vars, exps, ids)
	mem := memory.Build(cfg, bits, nil)

	intType := types.Int(32, true)
	elemType := func(base *ir.Exp) *ir.Type {
		require.Same(t, pExp, base)
		return intType
	}

	assertions := BufferAccessAssertions(mem, exps, bits, elemType)
	require.Len(t, assertions, 2)
	for _, a := range assertions {
		require.Equal(t, cfg.Entry, a.Point) // Assign.Point is the edge's source
		require.Equal(t, Check, a.Class)
	}
	require.Equal(t, "write_overflow_lower", assertions[0].Label)
	require.Equal(t, "write_overflow_upper", assertions[1].Label)
}

func TestArithmeticEscapeSetPropagatesThroughCopies(t *testing.T) {
	vars := ir.NewVariableTable()
	exps := ir.NewExpTable()

	base := vars.Intern(&ir.Variable{Kind: ir.VarLocal, Name: "base"})
	a := vars.Intern(&ir.Variable{Kind: ir.VarLocal, Name: "a"})
	b := vars.Intern(&ir.Variable{Kind: ir.VarLocal, Name: "b"})

	baseExp := exps.Variable(base)
	aExp := exps.Variable(a)
	bExp := exps.Variable(b)

	arith := exps.Binop(ir.BinPlusPI, baseExp, exps.Int(1))
	assigns := []memory.Assign{
		{Point: 1, Lhs: aExp, Rhs: arith},
		{Point: 2, Lhs: bExp, Rhs: aExp}, // copy-propagates the flag
	}

	flagged := ArithmeticEscapeSet(assigns, ArithmeticEscapeLimit)
	require.True(t, flagged[aExp])
	require.True(t, flagged[bExp])
	require.False(t, flagged[baseExp])
}

func TestDerefAssertionsOnlyFiresOnFlaggedTarget(t *testing.T) {
	vars := ir.NewVariableTable()
	exps := ir.NewExpTable()
	bits := ir.NewBitTable()
	ids := ir.NewBlockIdTable()
	types := ir.NewTypeTable()

	fn := vars.Intern(&ir.Variable{Kind: ir.VarFunction, Name: "g"})
	id := ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: fn})
	p := vars.Intern(&ir.Variable{Kind: ir.VarLocal, OwnerBlock: id, Name: "p"})
	pExp := exps.Variable(p)
	deref := exps.Deref(pExp)

	cfg := ir.NewCFG(id)
	cfg.Points = append(cfg.Points, ir.CFGPoint{}, ir.CFGPoint{})
	cfg.Entry, cfg.Exit = 1, 2
	cfg.AddEdge(&ir.PEdge{Source: 1, Target: 2, Kind: ir.EdgeAssign, Lhs: deref, Rhs: exps.Int(0)})
	cfg.Freeze()

	mem := memory.Build(cfg, bits, nil)
	intType := types.Int(32, true)
	elemType := func(*ir.Exp) *ir.Type { return intType }

	noFlags := DerefAssertions(mem, exps, bits, elemType, map[*ir.Exp]bool{})
	require.Empty(t, noFlags)

	flagged := map[*ir.Exp]bool{pExp: true}
	withFlag := DerefAssertions(mem, exps, bits, elemType, flagged)
	require.Len(t, withFlag, 2)
	require.Equal(t, cfg.Entry, withFlag[0].Point)
}

func TestIntegerOverflowAssertionsDisabledByDefault(t *testing.T) {
	exps := ir.NewExpTable()
	bits := ir.NewBitTable()
	te := []TypedExpr{{Point: 1, Exp: exps.Int(5), Bits: 8, Signed: false}}

	require.Nil(t, IntegerOverflowAssertions(te, exps, bits, false))

	enabled := IntegerOverflowAssertions(te, exps, bits, true)
	require.Len(t, enabled, 1)
	require.Equal(t, "integer_overflow", enabled[0].Label)
}

func TestAnnotationAssertionsEmitsPostconditionAtExit(t *testing.T) {
	vars := ir.NewVariableTable()
	exps := ir.NewExpTable()
	bits := ir.NewBitTable()
	ids := ir.NewBlockIdTable()

	fn := vars.Intern(&ir.Variable{Kind: ir.VarFunction, Name: "h"})
	id := ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: fn})
	cfg := ir.NewCFG(id)
	cfg.Points = append(cfg.Points, ir.CFGPoint{})
	cfg.Entry, cfg.Exit = 1, 1
	cfg.Freeze()

	postCFG := ir.NewCFG(id)
	postCFG.Points = append(postCFG.Points, ir.CFGPoint{})
	postCFG.Entry, postCFG.Exit = 1, 1
	postCFG.AnnotBit = bits.Compare(ir.CmpGE, exps.Int(1), exps.Int(0))
	postCFG.Freeze()

	out := AnnotationAssertions(cfg, exps, bits, []*ir.BlockCFG{postCFG}, nil, nil, nil)
	require.Len(t, out, 1)
	require.Equal(t, "postcondition", out[0].Label)
	require.Equal(t, cfg.Exit, out[0].Point)
}

func TestMarkRedundancyReclassifiesTrivialAssertion(t *testing.T) {
	exps := ir.NewExpTable()
	bits := ir.NewBitTable()

	s := stubsolver.New()
	decl := s.DeclareInt("n", 32, true)
	tr := func(sv solve.BaseSolver, e *ir.Exp) solve.SlvExpr {
		if e.Kind == ir.ExpInt {
			return sv.ExprInt(e.IntValue)
		}
		return sv.ExprFromDecl(decl)
	}

	// n >= 0 OR n < 0 is a tautology: guard True, bit "n>=0 or n<0".
	tautology := bits.Or(
		bits.Compare(ir.CmpGE, exps.Int(0), exps.Int(0)),
		bits.Compare(ir.CmpLT, exps.Int(-1), exps.Int(0)),
	)
	candidates := []Assertion{{Point: 1, Bit: tautology, Class: Check, Label: "always_true"}}
	guards := map[int]*ir.Bit{1: bits.True()}

	out := MarkRedundancy(s, tr, bits, guards, candidates)
	require.Len(t, out, 1)
	require.Equal(t, Trivial, out[0].Class)
}

func TestCFGLoopIsomorphicPredicateReadsPointFlag(t *testing.T) {
	vars := ir.NewVariableTable()
	ids := ir.NewBlockIdTable()
	fn := vars.Intern(&ir.Variable{Kind: ir.VarFunction, Name: "loopy"})
	id := ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: fn})

	cfg := ir.NewCFG(id)
	cfg.Points = append(cfg.Points, ir.CFGPoint{}, ir.CFGPoint{})
	cfg.Entry, cfg.Exit = 1, 2
	cfg.SetLoopIsomorphic(1)
	cfg.Freeze()

	pred := CFGLoopIsomorphicPredicate(cfg)
	require.True(t, pred(1))
	require.False(t, pred(2))
}

func TestMarkLoopIsomorphicRedundantReclassifiesInteriorPoints(t *testing.T) {
	bits := ir.NewBitTable()
	candidates := []Assertion{
		{Point: 3, Bit: bits.True(), Class: Check, Label: "loop_body"},
		{Point: 9, Bit: bits.True(), Class: Check, Label: "outside_loop"},
	}
	isIso := func(p int) bool { return p == 3 }

	out := MarkLoopIsomorphicRedundant(candidates, isIso)
	require.Equal(t, Redundant, out[0].Class)
	require.Equal(t, Check, out[1].Class)
}

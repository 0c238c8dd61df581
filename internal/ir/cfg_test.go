package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCFGWellFormedness(t *testing.T) {
	bt := NewBlockIdTable()
	vt := NewVariableTable()
	fn := vt.Intern(&Variable{Kind: VarFunction, Name: "f"})
	id := bt.Intern(&BlockId{Kind: BlockFunctionWhole, Base: fn})

	c := NewCFG(id)
	p1 := c.AddPoint(SourcePoint{File: "f.c", Line: 1})
	p2 := c.AddPoint(SourcePoint{File: "f.c", Line: 2})
	c.Entry = p1
	c.Exit = p2
	c.AddEdge(&PEdge{Source: p1, Target: p2, Kind: EdgeSkip})

	require.NoError(t, c.Validate())
}

func TestCFGValidateRejectsOutOfRangeEdges(t *testing.T) {
	bt := NewBlockIdTable()
	vt := NewVariableTable()
	fn := vt.Intern(&Variable{Kind: VarFunction, Name: "f"})
	id := bt.Intern(&BlockId{Kind: BlockFunctionWhole, Base: fn})

	c := NewCFG(id)
	c.AddPoint(SourcePoint{File: "f.c", Line: 1})
	c.AddEdge(&PEdge{Source: 1, Target: 5, Kind: EdgeSkip})

	require.Error(t, c.Validate())
}

func TestLoopIsomorphicRequiresSingleLoopEdge(t *testing.T) {
	bt := NewBlockIdTable()
	vt := NewVariableTable()
	fn := vt.Intern(&Variable{Kind: VarFunction, Name: "f"})
	id := bt.Intern(&BlockId{Kind: BlockFunctionWhole, Base: fn})
	loopID := bt.Intern(&BlockId{Kind: BlockLoop, Base: fn, LoopName: LoopName(1, 10)})

	c := NewCFG(id)
	p1 := c.AddPoint(SourcePoint{File: "f.c", Line: 10})
	p2 := c.AddPoint(SourcePoint{File: "f.c", Line: 11})
	c.SetLoopIsomorphic(p1)
	c.AddEdge(&PEdge{Source: p1, Target: p2, Kind: EdgeSkip})
	require.Error(t, c.Validate(), "loop-isomorphic point with a non-Loop edge must fail validation")

	c2 := NewCFG(id)
	q1 := c2.AddPoint(SourcePoint{File: "f.c", Line: 10})
	c2.AddPoint(SourcePoint{File: "f.c", Line: 11})
	c2.SetLoopIsomorphic(q1)
	c2.AddEdge(&PEdge{Source: q1, Target: 0, Kind: EdgeLoop, LoopBlock: loopID})
	require.NoError(t, c2.Validate())
}

func TestAnnotationCFGShape(t *testing.T) {
	bt := NewBlockIdTable()
	vt := NewVariableTable()
	et := NewExpTable()
	fn := vt.Intern(&Variable{Kind: VarFunction, Name: "f"})
	id := bt.Intern(&BlockId{Kind: BlockAnnotationFunc, Base: fn})

	c := NewCFG(id)
	p1 := c.AddPoint(SourcePoint{})
	p2 := c.AddPoint(SourcePoint{})
	c.Entry, c.Exit = p1, p2
	errVar := vt.Intern(&Variable{Kind: VarLocal, Name: "__error__"})
	c.AddEdge(&PEdge{Source: p1, Target: p2, Kind: EdgeAssign, Lhs: et.Variable(errVar), Rhs: et.Int(1)})
	c.SetAnnotationBit(AnnotAssert, nil)

	require.NoError(t, c.Validate())
}

func TestIsEquivalentDetectsStructuralChange(t *testing.T) {
	bt := NewBlockIdTable()
	vt := NewVariableTable()
	fn := vt.Intern(&Variable{Kind: VarFunction, Name: "f"})
	id := bt.Intern(&BlockId{Kind: BlockFunctionWhole, Base: fn})

	a := NewCFG(id)
	a.AddPoint(SourcePoint{Line: 1})
	a.AddPoint(SourcePoint{Line: 2})
	a.AddEdge(&PEdge{Source: 1, Target: 2, Kind: EdgeSkip})

	b := NewCFG(id)
	b.AddPoint(SourcePoint{Line: 100}) // line changed, shape identical
	b.AddPoint(SourcePoint{Line: 200})
	b.AddEdge(&PEdge{Source: 1, Target: 2, Kind: EdgeSkip})

	require.True(t, IsEquivalent(a, b))

	c := NewCFG(id)
	c.AddPoint(SourcePoint{Line: 1})
	c.AddPoint(SourcePoint{Line: 2})
	c.AddPoint(SourcePoint{Line: 3})
	require.False(t, IsEquivalent(a, c))
}

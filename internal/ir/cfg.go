package ir

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// SourcePoint is a (file, line, column) source location.
type SourcePoint struct {
	File   string
	Line   int
	Column int
}

// CFGPoint is one program point inside a BlockCFG.
type CFGPoint struct {
	Loc           SourcePoint
	LoopIsomorphic bool
}

// LoopHead records a loop head point with an optional end location.
type LoopHead struct {
	Point    int
	EndLoc   SourcePoint
	HasEndLoc bool
}

// DefinedLocal is a local declared within a BlockCFG.
type DefinedLocal struct {
	Var  *Variable
	Type *Type
}

// AnnotationKind distinguishes precondition/postcondition/invariant/assert
// annotation CFGs.
type AnnotationKind int

const (
	AnnotNone AnnotationKind = iota
	AnnotPrecondition
	AnnotPostcondition
	AnnotInvariant
	AnnotAssert
)

// BlockCFG is the control-flow graph for one Block (spec.md §3). CFGs
// pass through the intern table for their BlockId identity but the CFG
// body itself is mutable only up to the point it is finalized: after
// construction, mutation helpers only operate on the candidate before
// interning or on scratch (non-interned) CFGs, per spec.md §4.3.
type BlockCFG struct {
	Id *BlockId

	BeginLoc SourcePoint
	EndLoc   SourcePoint

	DefinedLocals []DefinedLocal
	LoopParents   []*BlockId // for loop-split child CFGs

	Points []CFGPoint
	Entry  int
	Exit   int

	Edges []*PEdge

	LoopHeads []LoopHead

	AnnotKind AnnotationKind
	AnnotBit  *Bit

	scratch bool
	frozen  bool
}

// NewCFG starts a new, mutable CFG candidate for id.
func NewCFG(id *BlockId) *BlockCFG {
	return &BlockCFG{Id: id, Entry: 1, Exit: 0}
}

// NewScratchCFG starts a CFG that will never be interned: identity is
// pointer-based throughout its lifetime (spec.md §3 "Scratch CFGs are
// not interned").
func NewScratchCFG(id *BlockId) *BlockCFG {
	c := NewCFG(id)
	c.scratch = true
	return c
}

func (c *BlockCFG) checkMutable() {
	if c.frozen && !c.scratch {
		panic("ir: mutation of a frozen (interned) BlockCFG")
	}
}

// AddPoint appends a new program point and returns its 1-based index.
func (c *BlockCFG) AddPoint(loc SourcePoint) int {
	c.checkMutable()
	c.Points = append(c.Points, CFGPoint{Loc: loc})
	return len(c.Points)
}

// AddEdge appends edge e, which must already reference valid point
// indices within c (or 0 for an abnormal-exit target).
func (c *BlockCFG) AddEdge(e *PEdge) {
	c.checkMutable()
	c.Edges = append(c.Edges, e)
}

// SetLoopHead marks point as a loop head, optionally with an end
// location.
func (c *BlockCFG) SetLoopHead(point int, end SourcePoint, hasEnd bool) {
	c.checkMutable()
	c.LoopHeads = append(c.LoopHeads, LoopHead{Point: point, EndLoc: end, HasEndLoc: hasEnd})
}

// SetAnnotationBit finalizes c as a single-edge annotation CFG carrying
// kind/bit (spec.md §3 "Annotation CFG: exactly one edge from entry to
// exit").
func (c *BlockCFG) SetAnnotationBit(kind AnnotationKind, bit *Bit) {
	c.checkMutable()
	c.AnnotKind = kind
	c.AnnotBit = bit
}

// SetLoopIsomorphic flags point as loop-isomorphic (spec.md §3).
func (c *BlockCFG) SetLoopIsomorphic(point int) {
	c.checkMutable()
	c.Points[point-1].LoopIsomorphic = true
}

// Freeze marks c as no longer mutable (called when it is persisted into
// the interning table, or explicitly once construction is done for a
// scratch CFG the caller still wants protected).
func (c *BlockCFG) Freeze() { c.frozen = true }

// IsLoopHead reports whether point is a recorded loop head.
func (c *BlockCFG) IsLoopHead(point int) bool {
	for _, h := range c.LoopHeads {
		if h.Point == point {
			return true
		}
	}
	return false
}

// EdgesFrom returns every edge whose Source == point.
func (c *BlockCFG) EdgesFrom(point int) []*PEdge {
	var out []*PEdge
	for _, e := range c.Edges {
		if e.Source == point {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the structural invariants named in spec.md §3 and
// tested by property 4 ("CFG well-formedness"):
//   - every edge's source is a valid point index
//   - every edge's target is 0 (abnormal exit) or a valid point index
//   - loop heads are a subset of points
//   - loop-isomorphic points have exactly one outgoing edge, and it is a Loop edge
//   - an annotation CFG has exactly one edge, Entry->Exit, of an allowed kind
// Validate checks every structural invariant of c and returns all violations
// found, not just the first: a fixture loader building CFGs from untrusted
// JSON benefits from seeing every bad edge and loop head at once instead of
// fixing one and re-running to find the next.
func (c *BlockCFG) Validate() error {
	var result *multierror.Error
	n := len(c.Points)
	for _, e := range c.Edges {
		if e.Source < 1 || e.Source > n {
			result = multierror.Append(result, fmt.Errorf("ir: edge source %d out of range [1,%d]", e.Source, n))
		}
		if e.Target != 0 && (e.Target < 1 || e.Target > n) {
			result = multierror.Append(result, fmt.Errorf("ir: edge target %d out of range [0,%d]", e.Target, n))
		}
	}
	for _, h := range c.LoopHeads {
		if h.Point < 1 || h.Point > n {
			result = multierror.Append(result, fmt.Errorf("ir: loop head %d out of range [1,%d]", h.Point, n))
		}
	}
	for i, p := range c.Points {
		if !p.LoopIsomorphic {
			continue
		}
		point := i + 1
		out := c.EdgesFrom(point)
		if len(out) != 1 || out[0].Kind != EdgeLoop {
			result = multierror.Append(result, fmt.Errorf("ir: loop-isomorphic point %d must have exactly one outgoing Loop edge", point))
		}
	}
	if c.AnnotKind != AnnotNone {
		if len(c.Edges) != 1 {
			result = multierror.Append(result, fmt.Errorf("ir: annotation CFG must have exactly one edge, got %d", len(c.Edges)))
		} else {
			e := c.Edges[0]
			if e.Source != c.Entry || e.Target != c.Exit {
				result = multierror.Append(result, fmt.Errorf("ir: annotation CFG edge must run entry->exit"))
			}
			if e.Kind != EdgeAssign && e.Kind != EdgeAssume {
				result = multierror.Append(result, fmt.Errorf("ir: annotation CFG edge must be Assign(__error__) or a computed Assume"))
			}
		}
	}
	return result.ErrorOrNil()
}

// IsEquivalent compares only structural shape and primitive payloads
// (point count, loop-head set, edge shapes) — used by incremental-build
// change detection (spec.md §4.4 "equivalence predicate is_equivalent").
// It deliberately ignores source locations so line-only changes that do
// not alter control flow still count as "no structural change"; the
// caller (sched package) separately compares preprocessed text to decide
// whether a function changed at all.
func IsEquivalent(a, b *BlockCFG) bool {
	if len(a.Points) != len(b.Points) {
		return false
	}
	if len(a.LoopHeads) != len(b.LoopHeads) {
		return false
	}
	if len(a.Edges) != len(b.Edges) {
		return false
	}
	for i := range a.Edges {
		ea, eb := a.Edges[i], b.Edges[i]
		if ea.Kind != eb.Kind || ea.Source != eb.Source || ea.Target != eb.Target {
			return false
		}
	}
	return true
}

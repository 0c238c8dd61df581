package ir

// PEdgeKind enumerates the PEdge variants of spec.md §3.
type PEdgeKind int

const (
	EdgeSkip PEdgeKind = iota
	EdgeAssume
	EdgeAssign
	EdgeCall
	EdgeLoop
	EdgeAssembly
	EdgeAnnotation
)

// PEdge is one control-flow edge within a single BlockCFG: (source_point,
// target_point) plus a kind-specific payload (spec.md §3). Target may be
// 0 for an abnormal exit.
type PEdge struct {
	Source int
	Target int
	Kind   PEdgeKind

	// Assume
	Cond  *Bit
	Sense bool

	// Assign
	AssignType *Type
	Lhs        *Exp
	Rhs        *Exp

	// Call
	FnType    *Type
	RetAssign *Exp // nil if the call result is discarded
	Instance  *Exp // nil for non-instance calls
	Callee    *Exp
	Args      []*Exp

	// Loop
	LoopBlock *BlockId

	// Annotation
	AnnotBlock *BlockId
}

func (e *PEdge) hash() uint32 {
	h := HashCombine(0, uint32(e.Kind))
	h = HashCombine(h, uint32(e.Source))
	h = HashCombine(h, uint32(e.Target))
	switch e.Kind {
	case EdgeAssume:
		h = HashCombine(h, e.Cond.hash())
		if e.Sense {
			h = HashCombine(h, 1)
		}
	case EdgeAssign:
		h = HashCombine(h, e.Lhs.hash())
		h = HashCombine(h, e.Rhs.hash())
	case EdgeCall:
		h = HashCombine(h, e.Callee.hash())
		for _, a := range e.Args {
			h = HashCombine(h, a.hash())
		}
	case EdgeLoop:
		h = HashCombine(h, e.LoopBlock.hash())
	case EdgeAnnotation:
		h = HashCombine(h, e.AnnotBlock.hash())
	}
	return h
}

func equalPEdge(a, b *PEdge) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind || a.Source != b.Source || a.Target != b.Target {
		return false
	}
	switch a.Kind {
	case EdgeSkip, EdgeAssembly:
		return true
	case EdgeAssume:
		return a.Cond == b.Cond && a.Sense == b.Sense
	case EdgeAssign:
		return a.AssignType == b.AssignType && a.Lhs == b.Lhs && a.Rhs == b.Rhs
	case EdgeCall:
		if a.Callee != b.Callee || a.FnType != b.FnType || a.RetAssign != b.RetAssign || a.Instance != b.Instance {
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
	case EdgeLoop:
		return a.LoopBlock == b.LoopBlock
	case EdgeAnnotation:
		return a.AnnotBlock == b.AnnotBlock
	}
	return false
}

// PEdgeTable interns PEdge values.
type PEdgeTable struct{ t *Table[*PEdge] }

func NewPEdgeTable() *PEdgeTable {
	return &PEdgeTable{t: NewTable(func(e *PEdge) uint32 { return e.hash() }, equalPEdge)}
}

func (pt *PEdgeTable) Intern(cand *PEdge) *PEdge {
	result, _ := pt.t.Intern(cand)
	return result
}

func (pt *PEdgeTable) Len() int { return pt.t.Len() }

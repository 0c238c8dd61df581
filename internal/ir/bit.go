package ir

// BitKind enumerates the Bit (propositional formula) variants of
// spec.md §3. Canonicalization beyond hash-consing (BDD-style rewriting)
// is explicitly out of scope; Bit only needs to be hash-consed and
// support map/substitute, per the spec.
type BitKind int

const (
	BitTrue BitKind = iota
	BitFalse
	BitVar      // an opaque named path condition (used by guard computation)
	BitCompare  // cmp(left, right) over Exps
	BitNot
	BitAnd
	BitOr
)

// CompareOp is the comparison operator carried by a BitCompare node.
type CompareOp int

const (
	CmpEQ CompareOp = iota
	CmpNE
	CmpLT
	CmpGT
	CmpLE
	CmpGE
)

// Bit is one hash-consed propositional-formula node.
type Bit struct {
	Kind BitKind

	VarName string // BitVar

	Op          CompareOp // BitCompare
	Left, Right *Exp      // BitCompare

	Operand  *Bit   // BitNot
	Operands []*Bit // BitAnd / BitOr, sorted by content hash before interning so
	// that And(a,b) and And(b,a) collapse to the same node.
}

func (b *Bit) hash() uint32 {
	if b == nil {
		return 0
	}
	h := HashCombine(0, uint32(b.Kind))
	switch b.Kind {
	case BitVar:
		h = HashCombine(h, HashString(b.VarName))
	case BitCompare:
		h = HashCombine(h, uint32(b.Op))
		h = HashCombine(h, b.Left.hash())
		h = HashCombine(h, b.Right.hash())
	case BitNot:
		h = HashCombine(h, b.Operand.hash())
	case BitAnd, BitOr:
		for _, o := range b.Operands {
			h = HashCombine(h, o.hash())
		}
	}
	return h
}

func equalBit(a, b *Bit) bool {
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
	case BitTrue, BitFalse:
		return true
	case BitVar:
		return a.VarName == b.VarName
	case BitCompare:
		return a.Op == b.Op && a.Left == b.Left && a.Right == b.Right
	case BitNot:
		return a.Operand == b.Operand
	case BitAnd, BitOr:
		if len(a.Operands) != len(b.Operands) {
			return false
		}
		for i := range a.Operands {
			if a.Operands[i] != b.Operands[i] {
				return false
			}
		}
		return true
	}
	return false
}

// BitTable interns Bit nodes and implements And/Or/Not construction
// with deterministic operand ordering (a stable sort by content hash,
// which is the same in every run) so equivalent conjunctions/disjunctions
// collapse.
type BitTable struct {
	t          *Table[*Bit]
	trueNode   *Bit
	falseNode  *Bit
}

func NewBitTable() *BitTable {
	bt := &BitTable{t: NewTable(func(b *Bit) uint32 { return b.hash() }, equalBit)}
	bt.trueNode = bt.intern(&Bit{Kind: BitTrue})
	bt.falseNode = bt.intern(&Bit{Kind: BitFalse})
	return bt
}

func (bt *BitTable) intern(cand *Bit) *Bit {
	result, _ := bt.t.Intern(cand)
	return result
}

func (bt *BitTable) Len() int { return bt.t.Len() }

func (bt *BitTable) True() *Bit  { return bt.trueNode }
func (bt *BitTable) False() *Bit { return bt.falseNode }

func (bt *BitTable) Var(name string) *Bit { return bt.intern(&Bit{Kind: BitVar, VarName: name}) }

func (bt *BitTable) Compare(op CompareOp, l, r *Exp) *Bit {
	return bt.intern(&Bit{Kind: BitCompare, Op: op, Left: l, Right: r})
}

func (bt *BitTable) Not(b *Bit) *Bit {
	if b.Kind == BitTrue {
		return bt.falseNode
	}
	if b.Kind == BitFalse {
		return bt.trueNode
	}
	if b.Kind == BitNot {
		return b.Operand
	}
	return bt.intern(&Bit{Kind: BitNot, Operand: b})
}

func (bt *BitTable) And(operands ...*Bit) *Bit {
	flat := bt.flatten(BitAnd, operands)
	if len(flat) == 0 {
		return bt.trueNode
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return bt.intern(&Bit{Kind: BitAnd, Operands: flat})
}

func (bt *BitTable) Or(operands ...*Bit) *Bit {
	flat := bt.flatten(BitOr, operands)
	if len(flat) == 0 {
		return bt.falseNode
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return bt.intern(&Bit{Kind: BitOr, Operands: flat})
}

// flatten drops the absorbing/identity element, flattens nested nodes
// of the same kind, dedups by pointer identity, and sorts by content
// hash. Operands with equal hashes keep their argument order.
func (bt *BitTable) flatten(kind BitKind, operands []*Bit) []*Bit {
	identity, absorb := bt.trueNode, bt.falseNode
	if kind == BitOr {
		identity, absorb = bt.falseNode, bt.trueNode
	}
	seen := make(map[*Bit]bool)
	var out []*Bit
	var walk func(*Bit)
	walk = func(b *Bit) {
		if b == identity {
			return
		}
		if b == absorb {
			out = []*Bit{absorb}
			return
		}
		if b.Kind == kind {
			for _, o := range b.Operands {
				walk(o)
			}
			return
		}
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	for _, o := range operands {
		walk(o)
		if len(out) == 1 && out[0] == absorb {
			return out
		}
	}
	// stable insertion sort by hash, deterministic across runs since
	// hashes are content-derived; equal hashes keep their order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].hash() < out[j-1].hash(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Map applies f to every Exp leaf reachable from b and rebuilds the
// formula through the same table, so the result is hash-consed too
// (spec.md §3: "the Bit interface ... supports map/substitute").
func (bt *BitTable) Map(b *Bit, f func(*Exp) *Exp) *Bit {
	switch b.Kind {
	case BitTrue, BitFalse, BitVar:
		return b
	case BitCompare:
		return bt.Compare(b.Op, f(b.Left), f(b.Right))
	case BitNot:
		return bt.Not(bt.Map(b.Operand, f))
	case BitAnd:
		mapped := make([]*Bit, len(b.Operands))
		for i, o := range b.Operands {
			mapped[i] = bt.Map(o, f)
		}
		return bt.And(mapped...)
	case BitOr:
		mapped := make([]*Bit, len(b.Operands))
		for i, o := range b.Operands {
			mapped[i] = bt.Map(o, f)
		}
		return bt.Or(mapped...)
	}
	return b
}

// Substitute replaces every occurrence of `from` with `to` inside b.
func (bt *BitTable) Substitute(b *Bit, from, to *Exp) *Bit {
	return bt.Map(b, func(e *Exp) *Exp {
		if e == from {
			return to
		}
		return e
	})
}

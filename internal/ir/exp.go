package ir

// ExpKind enumerates the Exp variants of spec.md §3.
type ExpKind int

const (
	ExpVar ExpKind = iota
	ExpDeref
	ExpFld
	ExpIndex
	ExpInt
	ExpFloatConst
	ExpString
	ExpUnop
	ExpBinop
	ExpBound   // lower/upper(target, stride_type)
	ExpTerminate
	ExpVPtr // vtable-slot reference
	ExpLoopEntry
)

// BoundKind distinguishes lower() from upper() bound expressions.
type BoundKind int

const (
	BoundLower BoundKind = iota
	BoundUpper
)

// UnopKind / BinopKind name the unary/binary operators over expressions.
type UnopKind int

const (
	UnopNeg UnopKind = iota
	UnopNot
	UnopBitwiseNot
)

type BinopKind int

const (
	BinAdd BinopKind = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinEq
	BinNeq
	BinLt
	BinGt
	BinLeq
	BinGeq
	BinPlusPI // pointer + integer
	BinMinusPP
)

// Exp is one node of the hash-consed expression tree (spec.md §3).
// lvalue-context ("write" vs "read") is not part of node identity: it is
// a traversal flag threaded by the visitor in memory analysis
// (spec.md §4.3), not a property of the expression itself.
type Exp struct {
	Kind ExpKind

	Var *Variable // ExpVar

	Target *Exp // ExpDeref, ExpFld, ExpIndex, ExpBound, ExpTerminate, ExpVPtr

	Fld *Field // ExpFld, ExpVPtr (vtable slot field)

	Index *Exp // ExpIndex

	IntValue    int64  // ExpInt
	FloatValue  float64 // ExpFloatConst
	StringValue string  // ExpString

	Unop  UnopKind
	Binop BinopKind
	Left  *Exp // ExpUnop/ExpBinop operand (or left operand of binop)
	Right *Exp // ExpBinop right operand

	Bound      BoundKind
	StrideType *Type // element type for Bound/Index stride

	// ExpTerminate: the access being asserted terminated (in-bounds);
	// carries the same Target/StrideType fields.

	// ExpLoopEntry marks the value of Target as observed at loop entry,
	// used by modset translation across loop iterations.
}

func (e *Exp) hash() uint32 {
	if e == nil {
		return 0
	}
	h := HashCombine(0, uint32(e.Kind))
	switch e.Kind {
	case ExpVar:
		h = HashCombine(h, e.Var.hash())
	case ExpDeref, ExpTerminate, ExpLoopEntry:
		h = HashCombine(h, e.Target.hash())
	case ExpFld:
		h = HashCombine(h, e.Target.hash())
		h = HashCombine(h, e.Fld.hash())
	case ExpVPtr:
		h = HashCombine(h, e.Target.hash())
		h = HashCombine(h, e.Fld.hash())
	case ExpIndex:
		h = HashCombine(h, e.Target.hash())
		h = HashCombine(h, e.Index.hash())
	case ExpInt:
		h = HashCombine(h, uint32(e.IntValue)^uint32(e.IntValue>>32))
	case ExpFloatConst:
		h = HashCombine(h, uint32(int64(e.FloatValue*1000)))
	case ExpString:
		h = HashCombine(h, HashString(e.StringValue))
	case ExpUnop:
		h = HashCombine(h, uint32(e.Unop))
		h = HashCombine(h, e.Left.hash())
	case ExpBinop:
		h = HashCombine(h, uint32(e.Binop))
		h = HashCombine(h, e.Left.hash())
		h = HashCombine(h, e.Right.hash())
	case ExpBound:
		h = HashCombine(h, uint32(e.Bound))
		h = HashCombine(h, e.Target.hash())
		if e.StrideType != nil {
			h = HashCombine(h, e.StrideType.hash())
		}
	}
	return h
}

func equalExp(a, b *Exp) bool {
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
	case ExpVar:
		return a.Var == b.Var
	case ExpDeref, ExpTerminate, ExpLoopEntry:
		return a.Target == b.Target
	case ExpFld, ExpVPtr:
		return a.Target == b.Target && a.Fld == b.Fld
	case ExpIndex:
		return a.Target == b.Target && a.Index == b.Index
	case ExpInt:
		return a.IntValue == b.IntValue
	case ExpFloatConst:
		return a.FloatValue == b.FloatValue
	case ExpString:
		return a.StringValue == b.StringValue
	case ExpUnop:
		return a.Unop == b.Unop && a.Left == b.Left
	case ExpBinop:
		return a.Binop == b.Binop && a.Left == b.Left && a.Right == b.Right
	case ExpBound:
		return a.Bound == b.Bound && a.Target == b.Target && a.StrideType == b.StrideType
	}
	return false
}

// ExpTable interns Exp nodes.
type ExpTable struct{ t *Table[*Exp] }

func NewExpTable() *ExpTable {
	return &ExpTable{t: NewTable(func(e *Exp) uint32 { return e.hash() }, equalExp)}
}

func (et *ExpTable) Intern(cand *Exp) *Exp {
	result, _ := et.t.Intern(cand)
	return result
}

func (et *ExpTable) Len() int { return et.t.Len() }

// Convenience constructors mirroring the shapes named in spec.md §3.

func (et *ExpTable) Variable(v *Variable) *Exp { return et.Intern(&Exp{Kind: ExpVar, Var: v}) }
func (et *ExpTable) Deref(target *Exp) *Exp    { return et.Intern(&Exp{Kind: ExpDeref, Target: target}) }
func (et *ExpTable) Field(target *Exp, f *Field) *Exp {
	return et.Intern(&Exp{Kind: ExpFld, Target: target, Fld: f})
}
func (et *ExpTable) Index(target, index *Exp) *Exp {
	return et.Intern(&Exp{Kind: ExpIndex, Target: target, Index: index})
}
func (et *ExpTable) Int(v int64) *Exp { return et.Intern(&Exp{Kind: ExpInt, IntValue: v}) }
func (et *ExpTable) Str(v string) *Exp { return et.Intern(&Exp{Kind: ExpString, StringValue: v}) }
func (et *ExpTable) Unop(op UnopKind, operand *Exp) *Exp {
	return et.Intern(&Exp{Kind: ExpUnop, Unop: op, Left: operand})
}
func (et *ExpTable) Binop(op BinopKind, l, r *Exp) *Exp {
	return et.Intern(&Exp{Kind: ExpBinop, Binop: op, Left: l, Right: r})
}
func (et *ExpTable) Bound(kind BoundKind, target *Exp, stride *Type) *Exp {
	return et.Intern(&Exp{Kind: ExpBound, Bound: kind, Target: target, StrideType: stride})
}
func (et *ExpTable) Terminate(target *Exp) *Exp {
	return et.Intern(&Exp{Kind: ExpTerminate, Target: target})
}
func (et *ExpTable) VPtr(target *Exp, f *Field) *Exp {
	return et.Intern(&Exp{Kind: ExpVPtr, Target: target, Fld: f})
}
func (et *ExpTable) LoopEntry(target *Exp) *Exp {
	return et.Intern(&Exp{Kind: ExpLoopEntry, Target: target})
}

// IsLvalueShape reports whether e is one of the lvalue-shaped kinds
// (Var/Deref/Fld/Index) that the memory analysis visitor may flag as a
// write when it appears on an assign's LHS (spec.md §4.3).
func (e *Exp) IsLvalueShape() bool {
	switch e.Kind {
	case ExpVar, ExpDeref, ExpFld, ExpIndex:
		return true
	}
	return false
}

package ir

// VarKind enumerates the Variable kinds of spec.md §3.
type VarKind int

const (
	VarGlobal VarKind = iota
	VarFunction
	VarArgument
	VarLocal
	VarReturn
	VarThis
	VarTemp
	VarScratch
)

// Variable is (owner_block_id?, kind, name, source_name?); Argument
// carries its index in ArgIndex.
type Variable struct {
	OwnerBlock *BlockId // nil for Global/Function
	Kind       VarKind
	ArgIndex   int // meaningful for VarArgument
	Name       string
	SourceName string
}

func (v *Variable) hash() uint32 {
	h := HashCombine(0, uint32(v.Kind))
	h = HashCombine(h, HashString(v.Name))
	if v.Kind == VarArgument {
		h = HashCombine(h, uint32(v.ArgIndex))
	}
	if v.OwnerBlock != nil {
		h = HashCombine(h, v.OwnerBlock.hash())
	}
	return h
}

func equalVariable(a, b *Variable) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Kind == b.Kind && a.ArgIndex == b.ArgIndex && a.Name == b.Name &&
		a.SourceName == b.SourceName && a.OwnerBlock == b.OwnerBlock
}

// VariableTable interns Variable values.
type VariableTable struct{ t *Table[*Variable] }

func NewVariableTable() *VariableTable {
	return &VariableTable{t: NewTable(func(v *Variable) uint32 { return v.hash() }, equalVariable)}
}

func (vt *VariableTable) Intern(cand *Variable) *Variable {
	result, _ := vt.t.Intern(cand)
	return result
}

func (vt *VariableTable) Len() int { return vt.t.Len() }

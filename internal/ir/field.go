package ir

// Field is (name, source_name?, owning_csu, field_type, is_instance_method)
// per spec.md §3.
type Field struct {
	Name             string
	SourceName       string // optional, "" if absent
	OwningCSU        string
	FieldType        *Type
	IsInstanceMethod bool
}

func (f *Field) hash() uint32 {
	h := HashCombine(0, HashString(f.Name))
	h = HashCombine(h, HashString(f.OwningCSU))
	if f.FieldType != nil {
		h = HashCombine(h, f.FieldType.hash())
	}
	if f.IsInstanceMethod {
		h = HashCombine(h, 1)
	}
	return h
}

func equalField(a, b *Field) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Name == b.Name && a.SourceName == b.SourceName &&
		a.OwningCSU == b.OwningCSU && a.FieldType == b.FieldType &&
		a.IsInstanceMethod == b.IsInstanceMethod
}

// FieldTable interns Field values.
type FieldTable struct{ t *Table[*Field] }

func NewFieldTable() *FieldTable {
	return &FieldTable{t: NewTable(func(f *Field) uint32 { return f.hash() }, equalField)}
}

func (ft *FieldTable) Intern(cand *Field) *Field {
	result, _ := ft.t.Intern(cand)
	return result
}

func (ft *FieldTable) Len() int { return ft.t.Len() }

// VFuncEntry pairs a virtual-function field with its resolved function
// variable, part of CompositeCSU below.
type VFuncEntry struct {
	Field    *Field
	Function *Variable
}

// DataField is a CompositeCSU field with its byte offset.
type DataField struct {
	Field  *Field
	Offset int
}

// CompositeCSU is a class/struct/union definition (spec.md §3).
type CompositeCSU struct {
	Name        string
	Width       int
	BeginLine   int
	EndLine     int
	BaseClasses []string
	DataFields  []DataField
	VFuncs      []VFuncEntry
}

func (c *CompositeCSU) hash() uint32 {
	h := HashCombine(0, HashString(c.Name))
	h = HashCombine(h, uint32(c.Width))
	for _, b := range c.BaseClasses {
		h = HashCombine(h, HashString(b))
	}
	for _, df := range c.DataFields {
		h = HashCombine(h, df.Field.hash())
		h = HashCombine(h, uint32(df.Offset))
	}
	return h
}

func equalCSU(a, b *CompositeCSU) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Name != b.Name || a.Width != b.Width || len(a.BaseClasses) != len(b.BaseClasses) || len(a.DataFields) != len(b.DataFields) {
		return false
	}
	for i := range a.BaseClasses {
		if a.BaseClasses[i] != b.BaseClasses[i] {
			return false
		}
	}
	for i := range a.DataFields {
		if a.DataFields[i].Field != b.DataFields[i].Field || a.DataFields[i].Offset != b.DataFields[i].Offset {
			return false
		}
	}
	return true
}

// CSUTable interns CompositeCSU definitions by their full content (name,
// width, base classes and data fields), so two definitions that share a
// name but differ elsewhere are distinct entries.
type CSUTable struct{ t *Table[*CompositeCSU] }

func NewCSUTable() *CSUTable {
	return &CSUTable{t: NewTable(func(c *CompositeCSU) uint32 { return c.hash() }, equalCSU)}
}

func (ct *CSUTable) Intern(cand *CompositeCSU) *CompositeCSU {
	result, _ := ct.t.Intern(cand)
	return result
}

func (ct *CSUTable) Len() int { return ct.t.Len() }

package memory

import "github.com/xgill-go/sixgill/internal/ir"

// Assign is one write recorded at a point: (lvalue, rvalue, guard),
// spec.md §4.8 step 2. CSU-typed writes are expanded field by field by
// the caller supplying a FieldExpander (internal/ir already knows how
// to build Field exps; memory stays decoupled from the CSU field table
// so it can be unit-tested with bare Types).
type Assign struct {
	Point int
	Lhs   *ir.Exp
	Rhs   *ir.Exp
	Guard *ir.Bit
}

// FieldExpander breaks a CSU-typed assignment into one Assign per field;
// the default (nil) expander treats every write as scalar.
type FieldExpander func(lhsType *ir.Type, lhs, rhs *ir.Exp) []Assign

// ComputeAssigns walks cfg's Assign and Call(with RetAssign) edges,
// producing the Assigns table keyed by point, per spec.md §4.8 step 2.
func ComputeAssigns(cfg *ir.BlockCFG, guards map[int]*ir.Bit, expand FieldExpander) []Assign {
	var out []Assign
	for _, e := range cfg.Edges {
		guard := guards[e.Source]
		switch e.Kind {
		case ir.EdgeAssign:
			if e.Lhs == nil {
				continue
			}
			if e.AssignType != nil && e.AssignType.Kind == ir.TyCSU && expand != nil {
				out = append(out, expand(e.AssignType, e.Lhs, e.Rhs)...)
				continue
			}
			out = append(out, Assign{Point: e.Source, Lhs: e.Lhs, Rhs: e.Rhs, Guard: guard})
		case ir.EdgeCall:
			if e.RetAssign != nil {
				out = append(out, Assign{Point: e.Source, Lhs: e.RetAssign, Rhs: nil, Guard: guard})
			}
		}
	}
	return out
}

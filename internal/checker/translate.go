// Package checker is the end-to-end driver: it assembles one function's
// memory/summary/solve/report pipeline the way main.go drives
// `CompileModule → GenerateELF`, and carries the S1–S6 scenario tests
// named in spec.md §8.
package checker

import (
	"fmt"

	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/solve"
)

// DeclTable assigns one solver declaration per distinct Exp leaf a
// translator is asked to lower, the minimal symbolic model sufficient to
// drive write/deref-overflow checks without full points-to inference
// (out of scope per spec.md §1). Bound expressions get their own fresh
// declaration per (target, bound-kind) pair, modeling an unknown but
// fixed buffer size/base the way a real backend would ask the points-to
// oracle for lbound/ubound.
type DeclTable struct {
	decls map[*ir.Exp]solve.SlvDecl
	names map[*ir.Exp]string
	next  int
}

func NewDeclTable() *DeclTable {
	return &DeclTable{decls: map[*ir.Exp]solve.SlvDecl{}, names: map[*ir.Exp]string{}}
}

// Translator returns a solve.ExprTranslator closed over this table,
// suitable for passing to solve.AssertBit/LowerBit and summary.MarkRedundancy.
func (dt *DeclTable) Translator() solve.ExprTranslator {
	return dt.lower
}

func (dt *DeclTable) lower(s solve.BaseSolver, e *ir.Exp) solve.SlvExpr {
	switch e.Kind {
	case ir.ExpInt:
		return s.ExprInt(e.IntValue)
	case ir.ExpVar:
		return s.ExprFromDecl(dt.declFor(s, e, e.Var.Name))
	case ir.ExpBound:
		label := "lbound"
		if e.Bound == ir.BoundUpper {
			label = "ubound"
		}
		return s.ExprFromDecl(dt.declFor(s, e, label))
	case ir.ExpUnop:
		return s.ExprUnop(e.Unop, dt.lower(s, e.Left))
	case ir.ExpBinop:
		return s.ExprBinop(e.Binop, dt.lower(s, e.Left), dt.lower(s, e.Right))
	case ir.ExpDeref, ir.ExpFld, ir.ExpIndex, ir.ExpTerminate, ir.ExpLoopEntry, ir.ExpVPtr:
		return s.ExprFromDecl(dt.declFor(s, e, "expr"))
	default:
		return s.ExprInt(0)
	}
}

// declFor caches one declaration per distinct Exp pointer (hash-consing
// already guarantees identical sub-expressions share a pointer).
func (dt *DeclTable) declFor(s solve.BaseSolver, e *ir.Exp, label string) solve.SlvDecl {
	if d, ok := dt.decls[e]; ok {
		return d
	}
	name := fmt.Sprintf("%s_%d", label, dt.next)
	dt.next++
	d := s.DeclareInt(name, 64, true)
	dt.decls[e] = d
	dt.names[e] = name
	return d
}

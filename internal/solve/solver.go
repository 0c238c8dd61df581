// Package solve defines the SMT solver capability interface named in
// spec.md §4.10, an incremental push/pop-scoped declaration table, a
// multiplexing cross-checker, and a tiny reference implementation
// (solve/stubsolver) sufficient to drive the MUX and the checker
// end-to-end. No production SMT decision procedure is implemented —
// that is explicitly out of scope (spec.md §1 Non-goals).
package solve

import "github.com/xgill-go/sixgill/internal/ir"

// SlvExpr and SlvDecl are opaque solver-local handles, per spec.md §4.10
// ("the core manipulates handle integers SlvExpr/SlvDecl").
type SlvExpr int
type SlvDecl int

// Model maps a declaration handle to its assigned boolean/integer value
// in a satisfying assignment.
type Model map[SlvDecl]int64

// BaseSolver is the capability interface every concrete backend
// implements: build integer/boolean/declaration/unop/binop/coercion
// expressions, push/pop scoped context, assert, check satisfiability,
// extract a model, and print state for diagnosis (spec.md §4.10).
type BaseSolver interface {
	Name() string

	DeclareBool(name string) SlvDecl
	DeclareInt(name string, bits int, signed bool) SlvDecl

	ExprFromDecl(d SlvDecl) SlvExpr
	ExprInt(v int64) SlvExpr
	ExprUnop(op ir.UnopKind, operand SlvExpr) SlvExpr
	ExprBinop(op ir.BinopKind, l, r SlvExpr) SlvExpr
	ExprCompare(op ir.CompareOp, l, r SlvExpr) SlvExpr
	ExprCoerce(e SlvExpr, bits int, signed bool) SlvExpr

	PushContext()
	PopContext()

	Assert(e SlvExpr)
	CheckSAT() (sat bool, err error)
	Model() (Model, error)

	Print() string
}

// AssertBit lowers an ir.Bit into solver assertions via a translator
// that knows how to turn ir.Exp leaves into SlvExpr handles (built by
// the checker from a per-function declaration table); this keeps solve
// decoupled from any particular variable-naming scheme.
type ExprTranslator func(s BaseSolver, e *ir.Exp) SlvExpr

func AssertBit(s BaseSolver, b *ir.Bit, tr ExprTranslator) {
	s.Assert(LowerBit(s, b, tr))
}

// LowerBit recursively lowers an ir.Bit formula into a single SlvExpr,
// threading through tr for Exp leaves.
func LowerBit(s BaseSolver, b *ir.Bit, tr ExprTranslator) SlvExpr {
	switch b.Kind {
	case ir.BitTrue:
		return s.ExprInt(1)
	case ir.BitFalse:
		return s.ExprInt(0)
	case ir.BitVar:
		return s.ExprFromDecl(s.DeclareBool(b.VarName))
	case ir.BitCompare:
		return s.ExprCompare(b.Op, tr(s, b.Left), tr(s, b.Right))
	case ir.BitNot:
		return s.ExprUnop(ir.UnopNot, LowerBit(s, b.Operand, tr))
	case ir.BitAnd:
		acc := s.ExprInt(1)
		for _, o := range b.Operands {
			acc = s.ExprBinop(ir.BinAnd, acc, LowerBit(s, o, tr))
		}
		return acc
	case ir.BitOr:
		acc := s.ExprInt(0)
		for _, o := range b.Operands {
			acc = s.ExprBinop(ir.BinOr, acc, LowerBit(s, o, tr))
		}
		return acc
	}
	return s.ExprInt(0)
}

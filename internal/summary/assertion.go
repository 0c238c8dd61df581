// Package summary infers per-function assertion obligations (buffer
// access, integer overflow, annotation-derived) and marks them
// Trivial/Redundant against internal/solve, per spec.md §4.9.
//
// Grounded on original_source/infer/infer.cpp's assertion emission
// passes and original_source/imlang/block.cpp's S1/S2 worked examples.
package summary

import (
	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/memory"
)

// ArithmeticEscapeLimit is the pre-pass hop budget named in spec.md
// §4.9 ("an arithmetic-escape pre-pass with limit 50").
const ArithmeticEscapeLimit = 50

// Classification is an assertion's redundancy status.
type Classification int

const (
	Check Classification = iota
	Trivial
	Redundant
)

// Assertion is one obligation emitted at a CFG point, spec.md §4.9/§4.10
// ("candidate assertion (p, bit) in classification Check").
type Assertion struct {
	Point  int
	Bit    *ir.Bit
	Class  Classification
	Label  string // e.g. "write_overflow_lower", "postcondition"
}

// ElementTypeOf resolves the element type of an indexed/dereferenced
// buffer access, supplied by the caller (the checker, which has the
// function's resolved type information); summary stays decoupled from
// full C type inference.
type ElementTypeOf func(base *ir.Exp) *ir.Type

// BufferAccessAssertions implements spec.md §4.9's first bullet for
// indexed accesses: for every assign whose lvalue is `a[i]` of element
// type t, emit `i >= lbound(a,t)` and `i < ubound(a,t)` at the write
// point.
func BufferAccessAssertions(mem *memory.BlockMemory, exps *ir.ExpTable, bits *ir.BitTable, elemType ElementTypeOf) []Assertion {
	var out []Assertion
	for _, a := range mem.Assigns {
		if a.Lhs == nil || a.Lhs.Kind != ir.ExpIndex {
			continue
		}
		base, idx := a.Lhs.Target, a.Lhs.Index
		t := elemType(base)
		out = append(out,
			Assertion{Point: a.Point, Bit: bits.Compare(ir.CmpGE, idx, exps.Bound(ir.BoundLower, base, t)), Class: Check, Label: "write_overflow_lower"},
			Assertion{Point: a.Point, Bit: bits.Compare(ir.CmpLT, idx, exps.Bound(ir.BoundUpper, base, t)), Class: Check, Label: "write_overflow_upper"},
		)
	}
	return out
}

// ArithmeticEscapeSet flags every Exp observed as the result of pointer
// arithmetic (a BinPlusPI rhs), propagated through copy assigns up to
// ArithmeticEscapeLimit hops — spec.md §4.9's pre-pass.
func ArithmeticEscapeSet(assigns []memory.Assign, limit int) map[*ir.Exp]bool {
	flagged := map[*ir.Exp]bool{}
	for _, a := range assigns {
		if a.Rhs != nil && a.Rhs.Kind == ir.ExpBinop && a.Rhs.Binop == ir.BinPlusPI {
			flagged[a.Lhs] = true
		}
	}
	for hop := 0; hop < limit; hop++ {
		changed := false
		for _, a := range assigns {
			if a.Rhs != nil && flagged[a.Rhs] && a.Lhs != nil && !flagged[a.Lhs] {
				flagged[a.Lhs] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return flagged
}

// DerefAssertions implements spec.md §4.9's second half of the first
// bullet: a dereference whose address-taken expression was flagged by
// ArithmeticEscapeSet gets the same lbound/ubound pair with index 0.
func DerefAssertions(mem *memory.BlockMemory, exps *ir.ExpTable, bits *ir.BitTable, elemType ElementTypeOf, flagged map[*ir.Exp]bool) []Assertion {
	var out []Assertion
	zero := exps.Int(0)
	for _, a := range mem.Assigns {
		if a.Lhs == nil || a.Lhs.Kind != ir.ExpDeref || !flagged[a.Lhs.Target] {
			continue
		}
		base := a.Lhs.Target
		t := elemType(base)
		out = append(out,
			Assertion{Point: a.Point, Bit: bits.Compare(ir.CmpGE, zero, exps.Bound(ir.BoundLower, base, t)), Class: Check, Label: "deref_overflow_lower"},
			Assertion{Point: a.Point, Bit: bits.Compare(ir.CmpLT, zero, exps.Bound(ir.BoundUpper, base, t)), Class: Check, Label: "deref_overflow_upper"},
		)
	}
	return out
}

// TypedExpr names a fixed-width operation's result for the integer
// overflow pass; full C type propagation lives upstream of this
// package, so callers supply the operations they want checked.
type TypedExpr struct {
	Point  int
	Exp    *ir.Exp
	Bits   int
	Signed bool
}

// IntegerOverflowAssertions implements spec.md §4.9's second bullet.
// Disabled unless enabled is true (config.EnableOverflowChecks), per
// "Disabled by default but supported."
func IntegerOverflowAssertions(exprs []TypedExpr, exps *ir.ExpTable, bits *ir.BitTable, enabled bool) []Assertion {
	if !enabled {
		return nil
	}
	var out []Assertion
	for _, te := range exprs {
		lo, hi := intRange(te.Bits, te.Signed)
		out = append(out, Assertion{
			Point: te.Point,
			Bit: bits.And(
				bits.Compare(ir.CmpGE, te.Exp, exps.Int(lo)),
				bits.Compare(ir.CmpLE, te.Exp, exps.Int(hi)),
			),
			Class: Check,
			Label: "integer_overflow",
		})
	}
	return out
}

func intRange(bitWidth int, signed bool) (lo, hi int64) {
	if bitWidth <= 0 || bitWidth > 63 {
		bitWidth = 32
	}
	if !signed {
		return 0, (int64(1) << uint(bitWidth)) - 1
	}
	return -(int64(1) << uint(bitWidth-1)), (int64(1) << uint(bitWidth-1)) - 1
}

// AnnotationCFGs groups a function's annotation CFGs by kind, resolved
// by the caller (the checker) from the function's declared annotations.
type AnnotationCFGs struct {
	Postconditions []*ir.BlockCFG
	Preconditions  []*ir.BlockCFG // of a *callee*, looked up per call site
}

// CalleePreconditionsOf resolves a callee's precondition annotation
// CFGs by function name.
type CalleePreconditionsOf func(funcName string) []*ir.BlockCFG

// AnnotationAssertions implements spec.md §4.9's third bullet: one
// assertion per postcondition at function exit, callee preconditions
// translated via the call-site argument mapping, and any Annotation
// edge inside cfg itself (intermediate asserts) emitted at their point.
func AnnotationAssertions(
	cfg *ir.BlockCFG,
	exps *ir.ExpTable,
	bits *ir.BitTable,
	postconditions []*ir.BlockCFG,
	calleeArgsOf func(funcName string) ([]*ir.Variable, *ir.Variable),
	calleePreconditions CalleePreconditionsOf,
	annotationCFGByID func(*ir.BlockId) *ir.BlockCFG,
) []Assertion {
	var out []Assertion
	for _, post := range postconditions {
		if post.AnnotBit == nil {
			continue
		}
		out = append(out, Assertion{Point: cfg.Exit, Bit: post.AnnotBit, Class: Check, Label: "postcondition"})
	}

	for _, e := range cfg.Edges {
		switch e.Kind {
		case ir.EdgeCall:
			callee := calleeName(e)
			if callee == "" || calleePreconditions == nil {
				continue
			}
			args, ret := calleeArgsOf(callee)
			mapping := memory.BuildCallMapping(args, e, ret)
			for _, pre := range calleePreconditions(callee) {
				if pre.AnnotBit == nil {
					continue
				}
				translated := memory.TranslateBit(exps, bits, pre.AnnotBit, mapping)
				out = append(out, Assertion{Point: e.Source, Bit: translated, Class: Check, Label: "precondition"})
			}
		case ir.EdgeAnnotation:
			if e.AnnotBlock == nil || annotationCFGByID == nil {
				continue
			}
			annot := annotationCFGByID(e.AnnotBlock)
			if annot == nil || annot.AnnotBit == nil {
				continue
			}
			out = append(out, Assertion{Point: e.Source, Bit: annot.AnnotBit, Class: Check, Label: "assert"})
		}
	}
	return out
}

func calleeName(e *ir.PEdge) string {
	if e.Callee != nil && e.Callee.Kind == ir.ExpVar && e.Callee.Var != nil {
		return e.Callee.Var.Name
	}
	return ""
}

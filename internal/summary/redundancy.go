package summary

import (
	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/solve"
)

// MarkRedundancy implements spec.md §4.9's two-phase redundancy marking:
// for each Check candidate (p, bit), assert g(p) ∧ ¬bit; UNSAT reclassifies
// it Trivial (the guard alone rules the failure out). Otherwise, assert
// the same negation together with every *other* surviving candidate's
// implication g(p') → bit'; UNSAT there reclassifies it Redundant (some
// other obligation already entails this one). s is reset (push/pop) around
// each query so candidates don't leak assertions into one another.
func MarkRedundancy(s solve.BaseSolver, tr solve.ExprTranslator, bits *ir.BitTable, guards map[int]*ir.Bit, candidates []Assertion) []Assertion {
	out := make([]Assertion, len(candidates))
	copy(out, candidates)

	for i := range out {
		if out[i].Class != Check {
			continue
		}
		g := guardOf(bits, guards, out[i].Point)
		negation := bits.Not(out[i].Bit)

		s.PushContext()
		solve.AssertBit(s, bits.And(g, negation), tr)
		sat, err := s.CheckSAT()
		s.PopContext()
		if err == nil && !sat {
			out[i].Class = Trivial
			continue
		}

		s.PushContext()
		solve.AssertBit(s, bits.And(g, negation), tr)
		for j, other := range out {
			if j == i || other.Class == Redundant {
				continue
			}
			og := guardOf(bits, guards, other.Point)
			implication := bits.Or(bits.Not(og), other.Bit)
			solve.AssertBit(s, implication, tr)
		}
		sat2, err2 := s.CheckSAT()
		s.PopContext()
		if err2 == nil && !sat2 {
			out[i].Class = Redundant
		}
	}
	return out
}

func guardOf(bits *ir.BitTable, guards map[int]*ir.Bit, point int) *ir.Bit {
	if g, ok := guards[point]; ok && g != nil {
		return g
	}
	return bits.True()
}

// IsIsomorphicLoopPoint reports whether point lies inside a loop body
// that internal/cfgx.IsEquivalent found structurally identical to one
// already summarized — e.g. a loop-split child CFG repeated unchanged
// across an incremental rebuild, or, within a single build, two
// syntactically identical inlined copies of the same loop shape.
type IsIsomorphicLoopPoint func(point int) bool

// CFGLoopIsomorphicPredicate reads the flag cfg.SetLoopIsomorphic records
// directly on each CFGPoint, the ordinary source of an
// IsIsomorphicLoopPoint in the checker.
func CFGLoopIsomorphicPredicate(cfg *ir.BlockCFG) IsIsomorphicLoopPoint {
	return func(point int) bool {
		if point < 1 || point > len(cfg.Points) {
			return false
		}
		return cfg.Points[point-1].LoopIsomorphic
	}
}

// MarkLoopIsomorphicRedundant implements spec.md §4.9's second rule: any
// surviving Check candidate at a point inside an isomorphic loop region
// is reclassified Redundant, since the canonical copy of that loop
// already carries the real obligation.
func MarkLoopIsomorphicRedundant(candidates []Assertion, isIsomorphic IsIsomorphicLoopPoint) []Assertion {
	if isIsomorphic == nil {
		return candidates
	}
	out := make([]Assertion, len(candidates))
	copy(out, candidates)
	for i := range out {
		if out[i].Class == Check && isIsomorphic(out[i].Point) {
			out[i].Class = Redundant
		}
	}
	return out
}

// Package memory builds per-function BlockMemory and BlockModset
// summaries: path guards, assignment tables, the Buffer alias
// predicate, and clobber/translation across call edges.
//
// Grounded on original_source/memory/alias.cpp (MALIAS_Buffer) and
// original_source/memory/clobber.cpp (MCLB_Modset), the strategy
// combination spec.md §4.8 singles out; MSIMP_Scalar has no dedicated
// file and follows the same storage.h strategy-tag pattern.
// Only those three strategy tags are implemented; the tag type is left
// open for more (spec.md §9 "polymorphic capability sets ... dispatched
// via small registries").
package memory

import "github.com/xgill-go/sixgill/internal/ir"

// ComputeGuards computes g(p) for every point of cfg, per spec.md §4.8
// step 1: g(entry) = true; for each Assume(cond, sense) edge p->q, g(q)
// accumulates g(p) ∧ cond^sense; joins (multiple incoming edges)
// combine with disjunction. cfg's points must already be in topological
// order (the output of cfgx.SplitLoops followed by cfgx.Renumber), so a
// single ascending pass suffices — no fixpoint iteration is needed on a
// loop-free CFG.
func ComputeGuards(cfg *ir.BlockCFG, bits *ir.BitTable) map[int]*ir.Bit {
	guards := make(map[int]*ir.Bit, len(cfg.Points))
	guards[cfg.Entry] = bits.True()

	incoming := make(map[int][]*ir.PEdge)
	for _, e := range cfg.Edges {
		if e.Target != 0 {
			incoming[e.Target] = append(incoming[e.Target], e)
		}
	}

	for p := 1; p <= len(cfg.Points); p++ {
		if p == cfg.Entry {
			continue
		}
		var parts []*ir.Bit
		for _, e := range incoming[p] {
			src, ok := guards[e.Source]
			if !ok {
				continue // source not yet settled (unreachable or not processed)
			}
			switch e.Kind {
			case ir.EdgeAssume:
				cond := e.Cond
				if !e.Sense {
					cond = bits.Not(cond)
				}
				parts = append(parts, bits.And(src, cond))
			default:
				parts = append(parts, src)
			}
		}
		if len(parts) == 0 {
			guards[p] = bits.False()
			continue
		}
		guards[p] = bits.Or(parts...)
	}
	return guards
}

// Package cfgx implements the CFG post-processing pipeline named in
// spec.md §4.4: loop splitting, skip-edge contraction, unreachable-point
// trimming, and a final topological renumbering, plus the structural
// equivalence predicate used for incremental-build change detection.
//
// Grounded on dce.go's mark/sweep reachability walk (the same
// depth-first traversal shape, retargeted from "is this global/function
// reachable from main" to "is this CFG point reachable from entry") and
// original_source/imlang/loopsplit.h for the five-step algorithm.
package cfgx

import (
	"fmt"
	"sort"

	"github.com/xgill-go/sixgill/internal/ir"
)

// dfsColor tracks the classic white/gray/black DFS state used to find
// back edges (candidate loop back-edges) during a depth-first walk.
type dfsColor int

const (
	white dfsColor = iota
	gray
	black
)

// topoOrderDFS walks cfg from Entry and returns a reverse-postorder
// point sequence together with every back edge discovered (an edge
// whose target is still gray, i.e. an ancestor on the current DFS
// stack) — step 1 of spec.md §4.4's split_loops algorithm.
func topoOrderDFS(cfg *ir.BlockCFG) (order []int, backEdges []*ir.PEdge, err error) {
	color := make(map[int]dfsColor)
	var rpostorder []int

	var visit func(p int) error
	visit = func(p int) error {
		color[p] = gray
		edges := cfg.EdgesFrom(p)
		sort.Slice(edges, func(i, j int) bool { return edges[i].Target < edges[j].Target })
		for _, e := range edges {
			if e.Target == 0 {
				continue // abnormal exit, not part of structural control flow
			}
			switch color[e.Target] {
			case white:
				if err := visit(e.Target); err != nil {
					return err
				}
			case gray:
				backEdges = append(backEdges, e)
			case black:
				// forward/cross edge, not a loop back-edge
			}
		}
		color[p] = black
		rpostorder = append(rpostorder, p)
		return nil
	}
	if err := visit(cfg.Entry); err != nil {
		return nil, nil, err
	}

	order = make([]int, len(rpostorder))
	for i, p := range rpostorder {
		order[len(rpostorder)-1-i] = p
	}
	return order, backEdges, nil
}

// TopoSort returns cfg's points in a valid topological order (entry
// first). Points not reachable from Entry are left out of the order;
// topoOrderDFS reports no error for them. Loop back-edges are allowed: callers
// that need a loop-free graph should run SplitLoops first.
func TopoSort(cfg *ir.BlockCFG) ([]int, error) {
	order, _, err := topoOrderDFS(cfg)
	if err != nil {
		return nil, fmt.Errorf("cfgx: toposort: %w", err)
	}
	return order, nil
}

// Renumber rebuilds cfg with points relabeled according to order (which
// must be a permutation of 1..len(cfg.Points)), the final step of
// spec.md §4.4's five-step algorithm ("topologically sort the remaining
// points; renumber"). The result is a fresh scratch CFG.
func Renumber(cfg *ir.BlockCFG, order []int) *ir.BlockCFG {
	remap := make(map[int]int, len(order))
	for newIdx, old := range order {
		remap[old] = newIdx + 1
	}

	out := ir.NewScratchCFG(cfg.Id)
	out.BeginLoc = cfg.BeginLoc
	out.EndLoc = cfg.EndLoc
	out.DefinedLocals = cfg.DefinedLocals
	out.LoopParents = cfg.LoopParents
	out.AnnotKind = cfg.AnnotKind
	out.AnnotBit = cfg.AnnotBit

	out.Points = make([]ir.CFGPoint, len(order))
	for old, newIdx := range remap {
		out.Points[newIdx-1] = cfg.Points[old-1]
	}
	out.Entry = remap[cfg.Entry]
	if cfg.Exit != 0 {
		out.Exit = remap[cfg.Exit]
	}

	for _, e := range cfg.Edges {
		ne := *e
		ne.Source = remap[e.Source]
		if e.Target != 0 {
			ne.Target = remap[e.Target]
		}
		out.Edges = append(out.Edges, &ne)
	}
	for _, h := range cfg.LoopHeads {
		out.LoopHeads = append(out.LoopHeads, ir.LoopHead{
			Point: remap[h.Point], EndLoc: h.EndLoc, HasEndLoc: h.HasEndLoc,
		})
	}
	return out
}

// IsEquivalent re-exports ir.IsEquivalent so callers that only import
// cfgx don't also need the ir package for the incremental-build change
// check named in spec.md §4.4.
func IsEquivalent(a, b *ir.BlockCFG) bool { return ir.IsEquivalent(a, b) }

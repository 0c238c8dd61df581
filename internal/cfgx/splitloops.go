package cfgx

import (
	"fmt"
	"sort"

	"github.com/xgill-go/sixgill/internal/ir"
)

// SplitLoops implements the five-step algorithm of spec.md §4.4:
// identify loop heads by back-edge detection, carve each natural loop
// into its own child CFG with a fresh Loop BlockId, contract Skip
// edges, trim unreachable points, and topologically renumber what's
// left. It returns the extracted loop bodies (innermost first) and the
// loop-free outer CFG.
//
// Only loops with exactly one distinct exit target are split; a loop
// with multiple distinct exit points returns an error, a documented
// restriction (the original backend's loopsplit.h handles the general
// case by introducing an exit-selector temporary, which this port
// omits).
func SplitLoops(cfg *ir.BlockCFG, blockIds *ir.BlockIdTable) (children []*ir.BlockCFG, outer *ir.BlockCFG, err error) {
	current := cfg
	for {
		_, backEdges, err := topoOrderDFS(current)
		if err != nil {
			return nil, nil, err
		}
		if len(backEdges) == 0 {
			break
		}

		head, tails := pickInnermostHead(current, backEdges)
		loopSet := map[int]bool{head: true}
		for _, tail := range tails {
			for p := range naturalLoopSet(current, head, tail) {
				loopSet[p] = true
			}
		}

		child, exitTarget, err := extractLoopChild(current, blockIds, head, loopSet)
		if err != nil {
			return nil, nil, err
		}
		children = append(children, child)

		current, err = collapseLoop(current, head, loopSet, exitTarget, child.Id)
		if err != nil {
			return nil, nil, err
		}
	}

	current = ContractSkipEdges(current)
	current = TrimUnreachable(current)
	order, err := TopoSort(current)
	if err != nil {
		return nil, nil, err
	}
	outer = Renumber(current, order)
	outer.Freeze()
	return children, outer, nil
}

// pickInnermostHead chooses, among the heads named by backEdges, the
// one with the fewest reachable descendants — an approximation of
// "innermost first" that is exact for properly nested loops (the only
// shape spec.md's worked examples exercise).
func pickInnermostHead(cfg *ir.BlockCFG, backEdges []*ir.PEdge) (head int, tails []int) {
	byHead := map[int][]int{}
	for _, e := range backEdges {
		byHead[e.Target] = append(byHead[e.Target], e.Source)
	}
	var heads []int
	for h := range byHead {
		heads = append(heads, h)
	}
	sort.Slice(heads, func(i, j int) bool {
		si := reachableCount(cfg, heads[i])
		sj := reachableCount(cfg, heads[j])
		if si != sj {
			return si < sj
		}
		return heads[i] < heads[j]
	})
	head = heads[0]
	tails = byHead[head]
	sort.Ints(tails)
	return head, tails
}

func reachableCount(cfg *ir.BlockCFG, from int) int {
	fwd := map[int][]int{}
	for _, e := range cfg.Edges {
		if e.Target != 0 {
			fwd[e.Source] = append(fwd[e.Source], e.Target)
		}
	}
	return len(bfsReachable(fwd, from))
}

// naturalLoopSet computes the standard natural-loop node set for the
// back edge tail->head: head itself plus every node that can reach tail
// without passing through head.
func naturalLoopSet(cfg *ir.BlockCFG, head, tail int) map[int]bool {
	bwd := map[int][]int{}
	for _, e := range cfg.Edges {
		if e.Target != 0 {
			bwd[e.Target] = append(bwd[e.Target], e.Source)
		}
	}
	set := map[int]bool{head: true, tail: true}
	queue := []int{tail}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, pred := range bwd[p] {
			if !set[pred] {
				set[pred] = true
				queue = append(queue, pred)
			}
		}
	}
	return set
}

// extractLoopChild builds the child CFG for the natural loop loopSet
// rooted at head, and reports the single point outside loopSet that the
// loop's body exits to.
func extractLoopChild(cfg *ir.BlockCFG, blockIds *ir.BlockIdTable, head int, loopSet map[int]bool) (child *ir.BlockCFG, exitTarget int, err error) {
	line := cfg.Points[head-1].Loc.Line
	childID := blockIds.Intern(&ir.BlockId{
		Kind:     ir.BlockLoop,
		Base:     cfg.Id.Base,
		LoopName: ir.LoopName(head, line),
	})

	var members []int
	for p := range loopSet {
		members = append(members, p)
	}
	sort.Ints(members)
	newIndex := make(map[int]int, len(members))
	for i, p := range members {
		newIndex[p] = i + 1
	}

	child = ir.NewCFG(childID)
	child.BeginLoc = cfg.Points[head-1].Loc
	child.Points = make([]ir.CFGPoint, len(members))
	for i, p := range members {
		child.Points[i] = cfg.Points[p-1]
	}
	child.Entry = newIndex[head]

	exitSet := map[int]bool{}
	for _, e := range cfg.Edges {
		if !loopSet[e.Source] {
			continue
		}
		if e.Target != 0 && loopSet[e.Target] {
			ne := *e
			ne.Source = newIndex[e.Source]
			ne.Target = newIndex[e.Target]
			child.AddEdge(&ne)
			continue
		}
		// Leaves the loop (to an external point, or an abnormal exit).
		if e.Target != 0 {
			exitSet[e.Target] = true
		}
	}
	if len(exitSet) > 1 {
		return nil, 0, fmt.Errorf("cfgx: loop at point %d has %d distinct exit targets, only single-exit loops are supported", head, len(exitSet))
	}

	// Append a synthetic exit point for the child CFG representing
	// "loop body finished one pass and control leaves the loop".
	child.Exit = child.AddPoint(cfg.Points[head-1].Loc)
	for _, e := range cfg.Edges {
		if !loopSet[e.Source] {
			continue
		}
		if e.Target != 0 && loopSet[e.Target] {
			continue // already added above
		}
		ne := *e
		ne.Source = newIndex[e.Source]
		ne.Target = child.Exit
		child.AddEdge(&ne)
	}
	child.Freeze()

	for target := range exitSet {
		return child, target, nil
	}
	return child, 0, nil // a loop with no exit (infinite loop) has no continuation point
}

// collapseLoop replaces loopSet (minus head) in cfg with a single Loop
// edge from head to exitTarget, leaving head itself in place as the
// splice point.
func collapseLoop(cfg *ir.BlockCFG, head int, loopSet map[int]bool, exitTarget int, childID *ir.BlockId) (*ir.BlockCFG, error) {
	out := ir.NewScratchCFG(cfg.Id)
	out.BeginLoc = cfg.BeginLoc
	out.EndLoc = cfg.EndLoc
	out.DefinedLocals = cfg.DefinedLocals
	out.LoopParents = cfg.LoopParents
	out.AnnotKind = cfg.AnnotKind
	out.AnnotBit = cfg.AnnotBit

	keep := map[int]bool{}
	for p := 1; p <= len(cfg.Points); p++ {
		if !loopSet[p] || p == head {
			keep[p] = true
		}
	}
	var order []int
	for p := 1; p <= len(cfg.Points); p++ {
		if keep[p] {
			order = append(order, p)
		}
	}
	newIndex := make(map[int]int, len(order))
	for i, p := range order {
		newIndex[p] = i + 1
	}
	out.Points = make([]ir.CFGPoint, len(order))
	for i, p := range order {
		out.Points[i] = cfg.Points[p-1]
	}
	out.Entry = newIndex[cfg.Entry]
	if cfg.Exit != 0 {
		out.Exit = newIndex[cfg.Exit]
	}
	for _, h := range cfg.LoopHeads {
		if loopSet[h.Point] && h.Point != head {
			continue
		}
		out.LoopHeads = append(out.LoopHeads, ir.LoopHead{
			Point: newIndex[h.Point], EndLoc: h.EndLoc, HasEndLoc: h.HasEndLoc,
		})
	}

	for _, e := range cfg.Edges {
		if loopSet[e.Source] {
			continue // every loop-internal edge, including head's former loop body, is gone
		}
		ne := *e
		ne.Source = newIndex[e.Source]
		if e.Target != 0 {
			ne.Target = newIndex[e.Target]
		}
		out.AddEdge(&ne)
	}
	if exitTarget != 0 {
		out.AddEdge(&ir.PEdge{
			Source:    newIndex[head],
			Target:    newIndex[exitTarget],
			Kind:      ir.EdgeLoop,
			LoopBlock: childID,
		})
	}
	out.Freeze()
	return out, nil
}

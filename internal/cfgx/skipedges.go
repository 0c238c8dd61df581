package cfgx

import (
	"fmt"

	"github.com/xgill-go/sixgill/internal/ir"
)

// ContractSkipEdges eliminates Skip edges by merging their source and
// target points, step 3 of spec.md §4.4's split_loops algorithm
// ("preserving entry/exit and loop-head points"). When both endpoints
// of a Skip edge are protected (entry, exit, or a loop head) they are
// merged into the source point, which then carries both roles, so no
// Skip edge survives.
func ContractSkipEdges(cfg *ir.BlockCFG) *ir.BlockCFG {
	n := len(cfg.Points)
	protected := make(map[int]bool, 2+len(cfg.LoopHeads))
	protected[cfg.Entry] = true
	if cfg.Exit != 0 {
		protected[cfg.Exit] = true
	}
	for _, h := range cfg.LoopHeads {
		protected[h.Point] = true
	}

	rep := make([]int, n+1)
	for i := 1; i <= n; i++ {
		rep[i] = i
	}
	var find func(int) int
	find = func(p int) int {
		if rep[p] != p {
			rep[p] = find(rep[p])
		}
		return rep[p]
	}

	changed := true
	for changed {
		changed = false
		for _, e := range cfg.Edges {
			if e.Kind != ir.EdgeSkip {
				continue
			}
			s, t := find(e.Source), find(e.Target)
			if s == t {
				continue
			}
			switch {
			case protected[s] && protected[t]:
				rep[t] = s
			case protected[t]:
				rep[s] = t
			default:
				rep[t] = s
			}
			changed = true
		}
	}

	// Determine which old points survive as representatives, in a
	// stable (ascending) order, and assign them fresh 1-based indices.
	newIndex := make(map[int]int)
	var order []int
	for p := 1; p <= n; p++ {
		if r := find(p); r == p {
			order = append(order, p)
		}
	}
	for i, p := range order {
		newIndex[p] = i + 1
	}

	out := ir.NewScratchCFG(cfg.Id)
	out.BeginLoc = cfg.BeginLoc
	out.EndLoc = cfg.EndLoc
	out.DefinedLocals = cfg.DefinedLocals
	out.LoopParents = cfg.LoopParents
	out.AnnotKind = cfg.AnnotKind
	out.AnnotBit = cfg.AnnotBit
	out.Points = make([]ir.CFGPoint, len(order))
	for i, p := range order {
		out.Points[i] = cfg.Points[p-1]
	}
	out.Entry = newIndex[find(cfg.Entry)]
	if cfg.Exit != 0 {
		out.Exit = newIndex[find(cfg.Exit)]
	}
	for _, h := range cfg.LoopHeads {
		out.LoopHeads = append(out.LoopHeads, ir.LoopHead{
			Point: newIndex[find(h.Point)], EndLoc: h.EndLoc, HasEndLoc: h.HasEndLoc,
		})
	}

	seen := make(map[string]bool)
	for _, e := range cfg.Edges {
		s, t := find(e.Source), find(e.Target)
		if e.Kind == ir.EdgeSkip && s == t {
			continue // contracted away
		}
		ne := *e
		ne.Source = newIndex[s]
		if e.Target != 0 {
			ne.Target = newIndex[t]
		} else {
			ne.Target = 0
		}
		key := edgeDedupKey(&ne)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Edges = append(out.Edges, &ne)
	}
	return out
}

func edgeDedupKey(e *ir.PEdge) string {
	return fmt.Sprintf("%d|%d|%d", e.Kind, e.Source, e.Target)
}

// TrimUnreachable removes points unreachable from Entry and points that
// cannot reach Exit, step 4 of spec.md §4.4's split_loops algorithm. A
// path proven to loop forever is removed along with everything only
// reachable through it, a documented limitation (spec.md §4.4: "a known
// limitation documented as an open question").
func TrimUnreachable(cfg *ir.BlockCFG) *ir.BlockCFG {
	n := len(cfg.Points)

	fwd := make(map[int][]int, n)
	bwd := make(map[int][]int, n)
	for _, e := range cfg.Edges {
		if e.Target == 0 {
			continue
		}
		fwd[e.Source] = append(fwd[e.Source], e.Target)
		bwd[e.Target] = append(bwd[e.Target], e.Source)
	}

	reachableFromEntry := bfsReachable(fwd, cfg.Entry)
	reachesExit := map[int]bool{}
	if cfg.Exit != 0 {
		reachesExit = bfsReachable(bwd, cfg.Exit)
	}

	keep := make(map[int]bool)
	for p := 1; p <= n; p++ {
		if reachableFromEntry[p] && (cfg.Exit == 0 || reachesExit[p] || p == cfg.Entry) {
			keep[p] = true
		}
	}
	keep[cfg.Entry] = true
	if cfg.Exit != 0 {
		keep[cfg.Exit] = true
	}

	var order []int
	for p := 1; p <= n; p++ {
		if keep[p] {
			order = append(order, p)
		}
	}
	newIndex := make(map[int]int, len(order))
	for i, p := range order {
		newIndex[p] = i + 1
	}

	out := ir.NewScratchCFG(cfg.Id)
	out.BeginLoc = cfg.BeginLoc
	out.EndLoc = cfg.EndLoc
	out.DefinedLocals = cfg.DefinedLocals
	out.LoopParents = cfg.LoopParents
	out.AnnotKind = cfg.AnnotKind
	out.AnnotBit = cfg.AnnotBit
	out.Points = make([]ir.CFGPoint, len(order))
	for i, p := range order {
		out.Points[i] = cfg.Points[p-1]
	}
	out.Entry = newIndex[cfg.Entry]
	if cfg.Exit != 0 {
		out.Exit = newIndex[cfg.Exit]
	}
	for _, h := range cfg.LoopHeads {
		if ni, ok := newIndex[h.Point]; ok {
			out.LoopHeads = append(out.LoopHeads, ir.LoopHead{Point: ni, EndLoc: h.EndLoc, HasEndLoc: h.HasEndLoc})
		}
	}
	for _, e := range cfg.Edges {
		if !keep[e.Source] {
			continue
		}
		if e.Target != 0 && !keep[e.Target] {
			continue
		}
		ne := *e
		ne.Source = newIndex[e.Source]
		if e.Target != 0 {
			ne.Target = newIndex[e.Target]
		}
		out.Edges = append(out.Edges, &ne)
	}
	return out
}

func bfsReachable(adj map[int][]int, start int) map[int]bool {
	seen := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range adj[p] {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

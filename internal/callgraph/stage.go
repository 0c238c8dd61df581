package callgraph

import "sort"

// Stage implements graph_sort_hash(edges, unknown, nodes) -> stages, as
// named in spec.md §4.7:
//   - stage 0 = nodes with no outgoing edges
//   - stage k = nodes whose outgoing edges all go to nodes in stages < k
//   - final stage = everything else, plus nodes flagged in unknown
//   - within a stage, nodes are ordered by their byte key (stable)
//
// edges maps a node key to the keys of every node it has an outgoing
// edge to (e.g. caller -> callees for worklist staging). unknown names
// nodes that must land in the final stage regardless of their edges
// (indirect-call functions, per spec.md §4.7).
func Stage(nodes []string, edges map[string][]string, unknown map[string]bool) [][]string {
	nodeSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		nodeSet[n] = true
	}

	stageOf := make(map[string]int)
	remaining := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if !unknown[n] {
			remaining[n] = true
		}
	}

	stage := 0
	for len(remaining) > 0 {
		var settled []string
		for n := range remaining {
			ready := true
			for _, callee := range edges[n] {
				if !nodeSet[callee] || callee == n {
					continue // self-edges and out-of-set references never block staging
				}
				if remaining[callee] {
					ready = false
					break
				}
			}
			if ready {
				settled = append(settled, n)
			}
		}
		if len(settled) == 0 {
			// A cycle among the remaining nodes (mutual recursion):
			// everything left collapses into one stage, matching
			// "final stage = everything else" for nodes that can never
			// satisfy the <k condition.
			break
		}
		for _, n := range settled {
			stageOf[n] = stage
			delete(remaining, n)
		}
		stage++
	}

	finalStage := stage
	for n := range remaining {
		stageOf[n] = finalStage
	}
	for n := range unknown {
		if nodeSet[n] {
			stageOf[n] = finalStage
		}
	}

	byStage := make(map[int][]string)
	maxStage := 0
	for n, s := range stageOf {
		byStage[s] = append(byStage[s], n)
		if s > maxStage {
			maxStage = s
		}
	}

	out := make([][]string, maxStage+1)
	for s := 0; s <= maxStage; s++ {
		group := byStage[s]
		sort.Strings(group)
		out[s] = group
	}
	return out
}

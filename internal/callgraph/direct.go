// Package callgraph computes the direct and indirect call graph and the
// escape graph used to resolve indirect calls, plus the stage
// partitioning the scheduler uses for deterministic parallel analysis.
//
// Grounded on original_source/memory/callgraph.h/.cpp (direct/indirect
// edge construction) and the worklist sort-file format described in
// spec.md §4.7/§4.11.
package callgraph

import "github.com/xgill-go/sixgill/internal/ir"

// CallEdge is one resolved (caller, callee) function-name pair.
type CallEdge struct {
	Caller string
	Callee string
}

// FuncName extracts the defining function's name from a block id, or
// "" if base is nil or anonymous.
func FuncName(id *ir.BlockId) string {
	if id == nil || id.Base == nil {
		return ""
	}
	return id.Base.Name
}

// DirectEdges walks cfgs' Call edges whose callee expression statically
// resolves to a function variable, recording (caller, callee) pairs —
// spec.md §4.7 "while visiting each CFG's Call edges, record
// (caller_block.where, callee) into both the caller-of-callee and
// callee-of-caller merge caches".
//
// This function is the pure, store-free edge extraction step: it only
// returns the edges. Nothing in this package or in internal/sched inserts
// them into a merge cache or writes them to a database.
func DirectEdges(cfgs []*ir.BlockCFG) []CallEdge {
	var edges []CallEdge
	for _, cfg := range cfgs {
		caller := FuncName(cfg.Id)
		if caller == "" {
			continue
		}
		for _, e := range cfg.Edges {
			if e.Kind != ir.EdgeCall {
				continue
			}
			if callee, ok := resolvedCallee(e); ok {
				edges = append(edges, CallEdge{Caller: caller, Callee: callee})
			}
		}
	}
	return edges
}

// resolvedCallee reports the statically known callee name of a Call
// edge, if its Callee expression is a direct function-variable
// reference (as opposed to a function pointer requiring escape
// resolution).
func resolvedCallee(e *ir.PEdge) (string, bool) {
	if e.Callee == nil || e.Callee.Kind != ir.ExpVar || e.Callee.Var == nil {
		return "", false
	}
	if e.Callee.Var.Kind != ir.VarFunction {
		return "", false
	}
	return e.Callee.Var.Name, true
}

// UnresolvedCallSite identifies one Call edge whose callee could not be
// statically resolved, together with the Trace that escape propagation
// should search from (spec.md §4.7).
type UnresolvedCallSite struct {
	Caller   string
	Block    *BlockPoint
	ArgCount int
	Source   *ir.Trace
}

// BlockPoint names the (block id, point) a call site occurs at, used
// only for diagnostics.
type BlockPoint struct {
	Block *ir.BlockId
	Point int
}

// IndirectSites finds every unresolved Call edge in cfgs and builds its
// source Trace: Trace::Comp for a virtual call through a receiver
// instance, Trace::from_exp(block, callee) for a plain function
// pointer — spec.md §4.7.
func IndirectSites(cfgs []*ir.BlockCFG) []UnresolvedCallSite {
	var sites []UnresolvedCallSite
	for _, cfg := range cfgs {
		caller := FuncName(cfg.Id)
		for _, e := range cfg.Edges {
			if e.Kind != ir.EdgeCall {
				continue
			}
			if _, ok := resolvedCallee(e); ok {
				continue
			}
			var source *ir.Trace
			if e.Instance != nil && e.FnType != nil && e.FnType.This != nil && e.FnType.This.Name != "" {
				source = &ir.Trace{Kind: ir.TraceComp, CSUName: e.FnType.This.Name, Access: ir.CompNone}
			} else {
				source = ir.TraceFromExp(cfg.Id, e.Callee)
			}
			sites = append(sites, UnresolvedCallSite{
				Caller:   caller,
				Block:    &BlockPoint{Block: cfg.Id, Point: e.Source},
				ArgCount: len(e.Args),
				Source:   source,
			})
		}
	}
	return sites
}

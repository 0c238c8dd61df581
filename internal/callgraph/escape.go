package callgraph

import "github.com/xgill-go/sixgill/internal/ir"

// FunPtrEscapeLimit is the non-function-valued-hop visit budget named
// in spec.md §4.7 (config.DefaultFunPtrEscapeLimit mirrors this value;
// callgraph keeps its own constant so the package has no dependency on
// internal/config for a single integer).
const FunPtrEscapeLimit = 100

// EscapeEdge is one edge of the escape graph: assignment, parameter
// passing, or field access propagates data from From to To (spec.md
// §4.7 "assignments propagate edges both ways").
type EscapeEdge struct {
	From *ir.Trace
	To   *ir.Trace
}

// EscapeAccess records that Target was read or written through Base
// (spec.md §4.7 "(b) address-of and dereference are distinguished").
type EscapeAccess struct {
	Base    *ir.Trace
	Target  *ir.Trace
	Written bool
}

// Graph is an in-memory escape graph: undirected at the edge-set level
// (every assignment is inserted in both directions, per spec.md §4.7),
// indexed by Trace.Key() for traversal.
type Graph struct {
	adj map[string][]*ir.Trace
	// traceByKey lets traversal recover the *ir.Trace value (not just
	// its key) for classification (IsGlobFunc) during propagation.
	traceByKey map[string]*ir.Trace
}

func NewGraph() *Graph {
	return &Graph{adj: make(map[string][]*ir.Trace), traceByKey: make(map[string]*ir.Trace)}
}

func (g *Graph) addNode(t *ir.Trace) {
	k := t.Key()
	if _, ok := g.traceByKey[k]; !ok {
		g.traceByKey[k] = t
	}
}

// AddEdge inserts an assignment edge in both directions.
func (g *Graph) AddEdge(a, b *ir.Trace) {
	g.addNode(a)
	g.addNode(b)
	g.adj[a.Key()] = append(g.adj[a.Key()], b)
	g.adj[b.Key()] = append(g.adj[b.Key()], a)
}

// EscapeProcessCFG walks cfg's assignments, call arguments, and field
// accesses, emitting escape edges into g — spec.md §4.7
// "EscapeProcessCFG(cfg) ... walks assignments, parameter passing, and
// field accesses". Structural copy of a CSU-typed assignment distributes
// over fields is approximated here at the whole-lvalue granularity: a
// finer per-field breakdown belongs to internal/memory, which already
// expands CSU writes field by field for its own Assigns table (spec.md
// §4.8 step 2) and can feed the same edges into g via AddEdge.
func EscapeProcessCFG(g *Graph, cfg *ir.BlockCFG) {
	for _, e := range cfg.Edges {
		switch e.Kind {
		case ir.EdgeAssign:
			if e.Lhs != nil && e.Rhs != nil {
				g.AddEdge(traceOf(cfg.Id, e.Lhs), traceOf(cfg.Id, e.Rhs))
			}
		case ir.EdgeCall:
			for _, arg := range e.Args {
				g.AddEdge(traceOf(cfg.Id, e.Callee), traceOf(cfg.Id, arg))
			}
			if e.RetAssign != nil {
				g.AddEdge(traceOf(cfg.Id, e.RetAssign), traceOf(cfg.Id, e.Callee))
			}
		}
	}
}

// traceOf builds the Trace an escape-graph node should use for e: a
// direct reference to a function value is Trace::Glob(ExpVar(VK_Func))
// so Propagate's IsGlobFunc recognizes it as a resolved target, anything
// else is Trace::from_exp(block, e) (spec.md §4.7).
func traceOf(block *ir.BlockId, e *ir.Exp) *ir.Trace {
	if e.Kind == ir.ExpVar && e.Var != nil && e.Var.Kind == ir.VarFunction {
		return ir.TraceGlobFunc(e.Var)
	}
	return ir.TraceFromExp(block, e)
}

// PropagationResult reports the outcome of one bounded backward escape
// traversal: the resolved function targets found, and whether the
// traversal was cut short by the visit budget.
type PropagationResult struct {
	Targets        []*ir.Variable
	BudgetExceeded bool
}

// Propagate performs bounded backward escape propagation from start,
// per spec.md §4.7: each hop through a non-function-valued node
// consumes one unit of limit; hops through a Trace::Glob(ExpVar(VK_Func))
// node are free. Every Glob(Func) node visited is recorded as a target.
func Propagate(g *Graph, start *ir.Trace, limit int) PropagationResult {
	visited := map[string]bool{}
	var targets []*ir.Variable
	budgetExceeded := false

	type item struct {
		t       *ir.Trace
		spent   int
	}
	queue := []item{{t: start, spent: 0}}
	visited[start.Key()] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if fn, ok := cur.t.IsGlobFunc(); ok {
			targets = append(targets, fn)
		}

		for _, next := range g.adj[cur.t.Key()] {
			if visited[next.Key()] {
				continue
			}
			free := false
			if _, ok := next.IsGlobFunc(); ok {
				free = true
			}
			spent := cur.spent
			if !free {
				spent++
			}
			if spent > limit {
				budgetExceeded = true
				continue
			}
			visited[next.Key()] = true
			queue = append(queue, item{t: next, spent: spent})
		}
	}
	return PropagationResult{Targets: targets, BudgetExceeded: budgetExceeded}
}

// ResolveIndirectCall runs Propagate from site.Source and keeps only
// targets whose argument count matches the call site, emitting call
// edges like the direct case; mismatches are dropped silently by the
// caller's warning log, per spec.md §4.7 ("mismatches are dropped with
// a warning") — warned about via the returned dropped count rather than
// a direct log call, so this package stays logging-framework agnostic.
// SignatureOf, when non-nil, returns the declared argument count of a
// resolved function target; callers that have a function-type table
// available (the checker's per-module symbol table) supply it so
// ResolveIndirectCall can apply the arity-mismatch filter named in
// spec.md §4.7. Without one, arity is treated as unknown and every
// propagated target is kept.
type SignatureOf func(fn *ir.Variable) (argCount int, known bool)

func ResolveIndirectCall(g *Graph, site UnresolvedCallSite, limit int, sig SignatureOf) (edges []CallEdge, dropped int, budgetExceeded bool) {
	result := Propagate(g, site.Source, limit)
	for _, fn := range result.Targets {
		if sig != nil {
			if n, known := sig(fn); known && n != site.ArgCount {
				dropped++
				continue
			}
		}
		edges = append(edges, CallEdge{Caller: site.Caller, Callee: fn.Name})
	}
	return edges, dropped, result.BudgetExceeded
}

package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xgill-go/sixgill/internal/ir"
)

func fn(vars *ir.VariableTable, name string) *ir.Variable {
	return vars.Intern(&ir.Variable{Kind: ir.VarFunction, Name: name})
}

func TestDirectEdgesResolvesFunctionCalls(t *testing.T) {
	vars := ir.NewVariableTable()
	exps := ir.NewExpTable()
	ids := ir.NewBlockIdTable()

	caller := fn(vars, "main")
	callee := fn(vars, "helper")
	cfg := ir.NewCFG(ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: caller}))
	cfg.Points = append(cfg.Points, ir.CFGPoint{}, ir.CFGPoint{})
	cfg.Entry, cfg.Exit = 1, 2
	cfg.AddEdge(&ir.PEdge{Source: 1, Target: 2, Kind: ir.EdgeCall, Callee: exps.Variable(callee)})
	cfg.Freeze()

	edges := DirectEdges([]*ir.BlockCFG{cfg})
	require.Equal(t, []CallEdge{{Caller: "main", Callee: "helper"}}, edges)
}

func TestIndirectSitesBuildsFuncPtrTrace(t *testing.T) {
	vars := ir.NewVariableTable()
	exps := ir.NewExpTable()
	ids := ir.NewBlockIdTable()

	caller := fn(vars, "dispatch")
	fnPtr := vars.Intern(&ir.Variable{Kind: ir.VarLocal, Name: "fp"})
	callerID := ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: caller})
	cfg := ir.NewCFG(callerID)
	cfg.Points = append(cfg.Points, ir.CFGPoint{}, ir.CFGPoint{})
	cfg.Entry, cfg.Exit = 1, 2
	cfg.AddEdge(&ir.PEdge{Source: 1, Target: 2, Kind: ir.EdgeCall, Callee: exps.Variable(fnPtr)})
	cfg.Freeze()

	sites := IndirectSites([]*ir.BlockCFG{cfg})
	require.Len(t, sites, 1)
	require.Equal(t, ir.TraceFunc, sites[0].Source.Kind)
}

func TestPropagateFindsFuncTargetThroughFreeHops(t *testing.T) {
	vars := ir.NewVariableTable()
	exps := ir.NewExpTable()
	ids := ir.NewBlockIdTable()

	callerBlock := ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: fn(vars, "caller")})
	fp := vars.Intern(&ir.Variable{Kind: ir.VarLocal, Name: "fp"})
	target := fn(vars, "target")

	start := ir.TraceFromExp(callerBlock, exps.Variable(fp))
	mid := ir.TraceFromExp(callerBlock, exps.Variable(vars.Intern(&ir.Variable{Kind: ir.VarLocal, Name: "tmp"})))
	end := ir.TraceGlobFunc(target)

	g := NewGraph()
	g.AddEdge(start, mid)
	g.AddEdge(mid, end)

	result := Propagate(g, start, FunPtrEscapeLimit)
	require.False(t, result.BudgetExceeded)
	require.Len(t, result.Targets, 1)
	require.Equal(t, "target", result.Targets[0].Name)
}

func TestPropagateRespectsBudget(t *testing.T) {
	vars := ir.NewVariableTable()
	exps := ir.NewExpTable()
	ids := ir.NewBlockIdTable()
	block := ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: fn(vars, "f")})

	g := NewGraph()
	traces := make([]*ir.Trace, 5)
	for i := range traces {
		v := vars.Intern(&ir.Variable{Kind: ir.VarLocal, Name: string(rune('a' + i))})
		traces[i] = ir.TraceFromExp(block, exps.Variable(v))
	}
	for i := 0; i < len(traces)-1; i++ {
		g.AddEdge(traces[i], traces[i+1])
	}

	result := Propagate(g, traces[0], 2)
	require.True(t, result.BudgetExceeded)
}

func TestStagePartitionsByDependencyDepth(t *testing.T) {
	nodes := []string{"a", "b", "c", "indirect_user"}
	edges := map[string][]string{
		"a":             {"b"},
		"b":             {"c"},
		"c":             {},
		"indirect_user": {"a"},
	}
	unknown := map[string]bool{"indirect_user": true}

	stages := Stage(nodes, edges, unknown)
	require.Equal(t, []string{"c"}, stages[0])
	require.Equal(t, []string{"b"}, stages[1])
	require.Equal(t, []string{"a"}, stages[2])
	require.Contains(t, stages[len(stages)-1], "indirect_user")
}

func TestStageHandlesMutualRecursionAsSingleFinalStage(t *testing.T) {
	nodes := []string{"p", "q"}
	edges := map[string][]string{"p": {"q"}, "q": {"p"}}
	stages := Stage(nodes, edges, nil)
	require.Equal(t, []string{"p", "q"}, stages[len(stages)-1])
}

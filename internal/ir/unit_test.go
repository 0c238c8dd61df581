package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const writeOverflowFixture = `{
  "functions": [
    {
      "name": "f",
      "args": ["p", "n"],
      "points": 2,
      "entry": 1,
      "exit": 2,
      "edges": [
        {"source": 1, "target": 2, "kind": "assign",
         "lhs": {"op": "index", "sub": [{"op": "var", "name": "p"}, {"op": "var", "name": "n"}]},
         "rhs": {"op": "int", "int": 0}}
      ]
    }
  ]
}`

func TestLoadUnitBuildsBufferAccessFunction(t *testing.T) {
	u, err := LoadUnit(strings.NewReader(writeOverflowFixture))
	require.NoError(t, err)
	require.Contains(t, u.Functions, "f")

	cfg := u.Functions["f"]
	require.Equal(t, 1, cfg.Entry)
	require.Equal(t, 2, cfg.Exit)
	require.Len(t, cfg.Edges, 1)

	edge := cfg.Edges[0]
	require.Equal(t, EdgeAssign, edge.Kind)
	require.Equal(t, ExpIndex, edge.Lhs.Kind)
	require.Equal(t, ExpInt, edge.Rhs.Kind)
}

const guardedDerefFixture = `{
  "functions": [
    {
      "name": "f",
      "args": ["p"],
      "points": 3,
      "entry": 1,
      "exit": 3,
      "edges": [
        {"source": 1, "target": 2, "kind": "assume", "sense": true,
         "cond": {"op": "binop", "name": "neq", "sub": [{"op": "var", "name": "p"}, {"op": "int", "int": 0}]}},
        {"source": 2, "target": 3, "kind": "assign",
         "lhs": {"op": "deref", "sub": [{"op": "var", "name": "p"}]},
         "rhs": {"op": "int", "int": 0}}
      ]
    }
  ]
}`

func TestLoadUnitBuildsGuardedDerefFunction(t *testing.T) {
	u, err := LoadUnit(strings.NewReader(guardedDerefFixture))
	require.NoError(t, err)

	cfg := u.Functions["f"]
	require.Len(t, cfg.Edges, 2)
	require.Equal(t, EdgeAssume, cfg.Edges[0].Kind)
	require.Equal(t, CmpNE, cfg.Edges[0].Cond.Op)
	require.Equal(t, EdgeAssign, cfg.Edges[1].Kind)
	require.Equal(t, ExpDeref, cfg.Edges[1].Lhs.Kind)
}

func TestLoadUnitRejectsUnknownEdgeKind(t *testing.T) {
	_, err := LoadUnit(strings.NewReader(`{"functions":[{"name":"f","points":1,"entry":1,"exit":1,
		"edges":[{"source":1,"target":1,"kind":"bogus"}]}]}`))
	require.Error(t, err)
}

func TestLoadUnitRejectsMalformedJSON(t *testing.T) {
	_, err := LoadUnit(strings.NewReader(`{not json`))
	require.Error(t, err)
}

func TestLoadUnitSharesTablesAcrossFunctionsInOneUnit(t *testing.T) {
	const twoFuncs = `{
	  "functions": [
	    {"name": "f", "points": 1, "entry": 1, "exit": 1,
	     "edges": [{"source": 1, "target": 1, "kind": "call", "callee": "g", "args": []}]},
	    {"name": "g", "points": 1, "entry": 1, "exit": 1, "edges": []}
	  ]
	}`
	u, err := LoadUnit(strings.NewReader(twoFuncs))
	require.NoError(t, err)
	require.Len(t, u.Functions, 2)

	callEdge := u.Functions["f"].Edges[0]
	require.Equal(t, "g", callEdge.Callee.Var.Name)
}

package sched

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/store"
)

func openTemp(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sched.xdb")
	db, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBuildStagesSortsLexicographically(t *testing.T) {
	items := []Item{
		{File: "b.c", Function: "g"},
		{File: "a.c", Function: "f"},
		{File: "a.c", Function: "e"},
	}
	edges := map[string][]string{"f": {"g"}}
	stages := BuildStages(items, edges, nil)
	require.NotEmpty(t, stages)
	last := stages[len(stages)-1]
	require.Contains(t, last, Item{File: "b.c", Function: "g"})

	first := stages[0]
	require.True(t, len(first) <= 2)
	for i := 1; i < len(first); i++ {
		require.True(t, first[i-1].Less(first[i]) || first[i-1] == first[i])
	}
}

func TestWriteReadWorklistRoundTrip(t *testing.T) {
	stages := [][]Item{
		{{File: "a.c", Function: "f"}},
		{{File: "b.c", Function: "g"}, {File: "b.c", Function: "h"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteWorklist(&buf, stages))

	sections, order, err := ReadWorklist(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{"stage0", "stage1"}, order)
	require.Equal(t, []Item{{File: "a.c", Function: "f"}}, sections["stage0"])
	require.Len(t, sections["stage1"], 2)
}

func TestFunctionChangedDetectsLoopCountDifference(t *testing.T) {
	vars := ir.NewVariableTable()
	ids := ir.NewBlockIdTable()
	fn := vars.Intern(&ir.Variable{Kind: ir.VarFunction, Name: "f"})
	id := ids.Intern(&ir.BlockId{Kind: ir.BlockFunction, Base: fn})

	stored := ir.NewCFG(id)
	stored.Points = append(stored.Points, ir.CFGPoint{})
	stored.Entry, stored.Exit = 1, 1
	stored.Freeze()

	fresh := ir.NewCFG(id)
	fresh.Points = append(fresh.Points, ir.CFGPoint{}, ir.CFGPoint{})
	fresh.Entry, fresh.Exit = 1, 2
	fresh.SetLoopHead(1, ir.SourcePoint{}, false)
	fresh.Freeze()

	require.True(t, FunctionChanged([]*ir.BlockCFG{stored}, []*ir.BlockCFG{fresh}))
	require.False(t, FunctionChanged([]*ir.BlockCFG{stored}, []*ir.BlockCFG{stored}))
}

func TestPartitionSplitsChangedAndSurviving(t *testing.T) {
	all := []string{"f", "g", "h"}
	changed := map[string]bool{"g": true}
	newSec, oldSec := Partition(all, changed)
	require.Equal(t, []string{"g"}, newSec)
	require.Equal(t, []string{"f", "h"}, oldSec)
}

func TestDeletedFunctionsOnlyFromChangedFiles(t *testing.T) {
	changedFiles := map[string]bool{"a.c": true, "b.c": false}
	prior := map[string][]string{"a.c": {"f", "g"}, "b.c": {"h"}}
	surviving := map[string]bool{"f": true}

	deleted := DeletedFunctions(changedFiles, prior, surviving)
	require.Equal(t, []string{"g"}, deleted)
}

func TestWorklistSingleWorkerDrainsAllStages(t *testing.T) {
	db := openTemp(t)
	wl := NewWorklist(db, 2)
	stages := [][]Item{
		{{File: "a.c", Function: "f"}},
		{{File: "b.c", Function: "g"}},
	}
	require.NoError(t, wl.Init(stages))

	var popped []Item
	holds := false
	for {
		item, got, holdsBarrier, wait, done, err := wl.Pop(holds)
		require.NoError(t, err)
		if done {
			break
		}
		if wait {
			t.Fatal("single worker should never need to wait")
		}
		if !got {
			continue
		}
		popped = append(popped, item)
		require.True(t, holdsBarrier)
		require.NoError(t, wl.ShiftBarrierProcess())
		require.NoError(t, wl.DropBarrierWrite())
		holds = false
	}
	require.ElementsMatch(t, []Item{{File: "a.c", Function: "f"}, {File: "b.c", Function: "g"}}, popped)
}

func TestWorklistConcurrentWorkers(t *testing.T) {
	db := openTemp(t)
	wl := NewWorklist(db, 1)
	var stage []Item
	for i := 0; i < 20; i++ {
		stage = append(stage, Item{File: "a.c", Function: string(rune('a' + i))})
	}
	require.NoError(t, wl.Init([][]Item{stage}))

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for {
			item, got, _, wait, done, err := wl.Pop(false)
			require.NoError(t, err)
			if done {
				return
			}
			if wait || !got {
				continue
			}
			mu.Lock()
			seen[item.String()] = true
			mu.Unlock()
			require.NoError(t, wl.ShiftBarrierProcess())
			require.NoError(t, wl.DropBarrierWrite())
		}
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go worker()
	}
	wg.Wait()
	require.Len(t, seen, 20)
}

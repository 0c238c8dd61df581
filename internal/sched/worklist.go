// Package sched implements the worklist scheduler (spec.md §4.11, C11):
// stage partitioning, the worklist file format, incremental-build
// detection, and the (barrier_process, barrier_write) runtime protocol
// layered on internal/store transactions.
//
// Grounded on frontend.go's package topological ordering (mod.Order) for
// the idea of "partition work into dependency-respecting groups," and
// original_source/memory/callgraph.cpp's stage sort for the partitioning
// algorithm itself (internal/callgraph.Stage).
package sched

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xgill-go/sixgill/internal/callgraph"
)

// StageCount is the default number of stages, spec.md §4.11 ("5 by
// default").
const StageCount = 5

// Item names one function to analyze: its normalized source file and
// function name, formatted per spec.md §6 as "<file>$<function>".
type Item struct {
	File     string
	Function string
}

func (i Item) String() string { return i.File + "$" + i.Function }

func (i Item) Less(o Item) bool {
	if i.File != o.File {
		return i.File < o.File
	}
	return i.Function < o.Function
}

// BuildStages partitions functions into internal/callgraph.Stage groups
// and sorts each stage lexicographically by (file, function), spec.md
// §4.11's initial-build step ("sorted lexicographically by (file,
// function)").
func BuildStages(items []Item, edges map[string][]string, unknown map[string]bool) [][]Item {
	byName := make(map[string]Item, len(items))
	nodes := make([]string, 0, len(items))
	for _, it := range items {
		byName[it.Function] = it
		nodes = append(nodes, it.Function)
	}
	rawStages := callgraph.Stage(nodes, edges, unknown)

	out := make([][]Item, len(rawStages))
	for si, names := range rawStages {
		stage := make([]Item, 0, len(names))
		for _, n := range names {
			stage = append(stage, byName[n])
		}
		sort.Slice(stage, func(a, b int) bool { return stage[a].Less(stage[b]) })
		out[si] = stage
	}
	return out
}

// WriteWorklist serializes stages in the plain-text format of spec.md
// §6: a "#stage<N>" header line per stage followed by its body lines.
func WriteWorklist(w io.Writer, stages [][]Item) error {
	for i, stage := range stages {
		if _, err := fmt.Fprintf(w, "#stage%d\n", i); err != nil {
			return err
		}
		for _, it := range stage {
			if _, err := fmt.Fprintln(w, it.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadWorklist parses the plain-text worklist format. Section names are
// the header text with the leading "#" stripped ("stage0", "new", "old",
// "final"); order preserves the sequence headers appeared in the file.
func ReadWorklist(r io.Reader) (sections map[string][]Item, order []string, err error) {
	sections = map[string][]Item{}
	scanner := bufio.NewScanner(r)
	current := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			current = strings.TrimPrefix(line, "#")
			order = append(order, current)
			if _, ok := sections[current]; !ok {
				sections[current] = nil
			}
			continue
		}
		parts := strings.SplitN(line, "$", 2)
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("sched: malformed worklist line %q", line)
		}
		sections[current] = append(sections[current], Item{File: parts[0], Function: parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return sections, order, nil
}

package sched

import "github.com/xgill-go/sixgill/internal/ir"

// FileChanged reports whether a file's contents changed, spec.md §4.11:
// "A file is new/changed if its preprocessed contents differ from the
// stored preproc entry."
func FileChanged(storedPreproc, currentPreproc []byte) bool {
	return string(storedPreproc) != string(currentPreproc)
}

// FunctionChanged reports whether a function's CFG set changed relative
// to what is stored, spec.md §4.11: "A function is new/changed if its
// new CFG list is not isomorphic to the stored one (distinct number of
// loops ⇒ changed)." Isomorphism is internal/ir.IsEquivalent, checked
// pairwise in order (outer CFG first, then its loop-split children).
func FunctionChanged(stored, fresh []*ir.BlockCFG) bool {
	if len(stored) != len(fresh) {
		return true
	}
	if countLoops(stored) != countLoops(fresh) {
		return true
	}
	for i := range stored {
		if !ir.IsEquivalent(stored[i], fresh[i]) {
			return true
		}
	}
	return false
}

func countLoops(cfgs []*ir.BlockCFG) int {
	n := 0
	for _, c := range cfgs {
		n += len(c.LoopHeads)
	}
	return n
}

// Partition implements the incremental layout of spec.md §4.11: changed
// functions go in the "#new" section, every surviving function goes in
// "#old".
func Partition(allFunctions []string, changed map[string]bool) (newSection, oldSection []string) {
	for _, f := range allFunctions {
		if changed[f] {
			newSection = append(newSection, f)
		} else {
			oldSection = append(oldSection, f)
		}
	}
	return newSection, oldSection
}

// DeletedFunctions implements spec.md §4.11's deleted-function rule:
// "Deleted functions are those whose file changed but which no new CFG
// mentions." priorFunctionsByFile lists what used to live in each file;
// survivingFunctions is the set any fresh CFG still names. This is a
// heuristic, not a certainty — spec.md §9 documents the ghost-detection
// ambiguity this rule carries forward rather than resolves.
func DeletedFunctions(changedFiles map[string]bool, priorFunctionsByFile map[string][]string, survivingFunctions map[string]bool) []string {
	var out []string
	for file, changed := range changedFiles {
		if !changed {
			continue
		}
		for _, fn := range priorFunctionsByFile[file] {
			if !survivingFunctions[fn] {
				out = append(out, fn)
			}
		}
	}
	return out
}

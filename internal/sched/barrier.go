package sched

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/xgill-go/sixgill/internal/store"
)

const (
	barrierDB       = "sched_barrier.xdb"
	stageListPrefix = "sched_stage_"
	nextFuncHash    = "sched_worklist_func_next"

	// maxStageAdvances bounds how many times Pop will auto-advance past
	// an empty stage before concluding there is truly no more work. A
	// real run only ever advances StageCount-ish times plus a handful of
	// WORKLIST_FUNC_NEXT overflow rounds; this is a pragmatic backstop
	// against an unbounded loop inside one transaction, not a spec rule.
	maxStageAdvances = 64
)

// Worklist is the runtime scheduler state for one analysis run, backed
// by internal/store so the protocol below is safe across worker crashes
// and restarts (spec.md §4.11: "Every state transition is a transaction
// on the backend").
type Worklist struct {
	db         *store.DB
	stageCount int
}

// NewWorklist wraps db with a scheduler using stageCount stages (0 means
// StageCount).
func NewWorklist(db *store.DB, stageCount int) *Worklist {
	if stageCount <= 0 {
		stageCount = StageCount
	}
	return &Worklist{db: db, stageCount: stageCount}
}

// Init seeds the store with stages built by BuildStages (one LIFO list
// per stage, pushed so BuildStages' lexicographic head pops first) and
// resets barrier/current-stage state to zero.
func (w *Worklist) Init(stages [][]Item) error {
	return w.db.Update(func(txn *store.Txn) error {
		for i, stage := range stages {
			name := stageListName(i)
			if err := txn.ListCreate(name); err != nil {
				return err
			}
			for j := len(stage) - 1; j >= 0; j-- {
				if err := txn.ListPush(name, []byte(stage[j].String())); err != nil {
					return err
				}
			}
		}
		if err := setCounter(txn, "process", 0); err != nil {
			return err
		}
		if err := setCounter(txn, "write", 0); err != nil {
			return err
		}
		return setCounter(txn, "stage", 0)
	})
}

// Pop implements pop_worklist(have_barrier_process), spec.md §4.11:
//   - If the current stage has items, pop the last, increment
//     barrier_process if the caller isn't already holding one, and
//     return the item.
//   - Else if barrier_process == 0 && barrier_write == 0, advance to the
//     next stage (loading the WORKLIST_FUNC_NEXT overflow hash once
//     past stageCount) and retry.
//   - Else return gotItem=false, wait=true: the caller should back off
//     and retry later.
//
// done=true (with gotItem=false, wait=false) means every stage and every
// round of overflow work is exhausted — there is nothing left to ever
// pop.
func (w *Worklist) Pop(haveBarrierProcess bool) (item Item, gotItem bool, holdsBarrier bool, wait bool, done bool, err error) {
	err = w.db.Update(func(txn *store.Txn) error {
		for advances := 0; advances < maxStageAdvances; advances++ {
			stage, gerr := getCounter(txn, "stage")
			if gerr != nil {
				return gerr
			}
			name := stageListName(int(stage))
			raw, ok, perr := txn.ListPopBack(name)
			if perr != nil {
				return perr
			}
			if ok {
				it, perr2 := parseItem(string(raw))
				if perr2 != nil {
					return perr2
				}
				item = it
				gotItem = true
				holdsBarrier = haveBarrierProcess
				if !haveBarrierProcess {
					p, gerr2 := getCounter(txn, "process")
					if gerr2 != nil {
						return gerr2
					}
					if serr := setCounter(txn, "process", p+1); serr != nil {
						return serr
					}
					holdsBarrier = true
				}
				return nil
			}

			proc, gerr2 := getCounter(txn, "process")
			if gerr2 != nil {
				return gerr2
			}
			wr, gerr3 := getCounter(txn, "write")
			if gerr3 != nil {
				return gerr3
			}
			if proc != 0 || wr != 0 {
				wait = true
				return nil
			}

			next := stage + 1
			if int(next) >= w.stageCount {
				emptied, lerr := w.loadOverflow(txn, next)
				if lerr != nil {
					return lerr
				}
				if emptied {
					done = true
					return nil
				}
			}
			if serr := setCounter(txn, "stage", next); serr != nil {
				return serr
			}
		}
		done = true
		return nil
	})
	return item, gotItem, holdsBarrier, wait, done, err
}

// loadOverflow drains the WORKLIST_FUNC_NEXT side-hash into the list for
// stage, returning emptied=true if there was nothing to drain (meaning
// this overflow round produced no work).
func (w *Worklist) loadOverflow(txn *store.Txn, stage uint64) (emptied bool, err error) {
	name := stageListName(int(stage))
	if err := txn.ListCreate(name); err != nil {
		return false, err
	}
	keys, err := txn.HashAllKeys(nextFuncHash)
	if err != nil {
		return false, err
	}
	if len(keys) == 0 {
		return true, nil
	}
	for _, k := range keys {
		if err := txn.ListPush(name, k); err != nil {
			return false, err
		}
		if err := txn.HashRemove(nextFuncHash, k); err != nil {
			return false, err
		}
	}
	return false, nil
}

// ScheduleReanalysis records item in the WORKLIST_FUNC_NEXT side-hash,
// populated during analysis of the current stage for inter-stage
// reanalysis triggered by modset changes (spec.md §4.11).
func (w *Worklist) ScheduleReanalysis(item Item) error {
	return w.db.Update(func(txn *store.Txn) error {
		return txn.HashInsert(nextFuncHash, []byte(item.String()))
	})
}

// ShiftBarrierProcess implements shift_barrier_process: decrement
// barrier_process, increment barrier_write. Called once a worker
// finishes processing the item it popped, before it writes results.
func (w *Worklist) ShiftBarrierProcess() error {
	return w.db.Update(func(txn *store.Txn) error {
		p, err := getCounter(txn, "process")
		if err != nil {
			return err
		}
		if p > 0 {
			if err := setCounter(txn, "process", p-1); err != nil {
				return err
			}
		}
		wr, err := getCounter(txn, "write")
		if err != nil {
			return err
		}
		return setCounter(txn, "write", wr+1)
	})
}

// DropBarrierWrite implements drop_barrier_write: called once the
// worker's results are durable, decrementing barrier_write and letting
// the stage transition in Pop proceed once every worker has dropped.
func (w *Worklist) DropBarrierWrite() error {
	return w.db.Update(func(txn *store.Txn) error {
		wr, err := getCounter(txn, "write")
		if err != nil {
			return err
		}
		if wr == 0 {
			return nil
		}
		return setCounter(txn, "write", wr-1)
	})
}

func stageListName(stage int) string { return fmt.Sprintf("%s%d", stageListPrefix, stage) }

func parseItem(s string) (Item, error) {
	parts := strings.SplitN(s, "$", 2)
	if len(parts) != 2 {
		return Item{}, fmt.Errorf("sched: malformed worklist entry %q", s)
	}
	return Item{File: parts[0], Function: parts[1]}, nil
}

func setCounter(txn *store.Txn, key string, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return txn.XdbReplace(barrierDB, []byte(key), buf)
}

func getCounter(txn *store.Txn, key string) (uint64, error) {
	v, ok, err := txn.XdbLookup(barrierDB, []byte(key))
	if err != nil || !ok {
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

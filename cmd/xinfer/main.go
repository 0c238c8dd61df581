// Command xinfer emits the assertion candidates a function's summary
// needs checked: buffer accesses and flagged dereferences, the Go-ported
// equivalent of the original suite's `xinfer` wrapper (spec.md §6). It
// emits no integer-overflow assertions: it passes no typed operation
// sites to summary.IntegerOverflowAssertions, so EnableOverflowChecks
// has no effect here.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xgill-go/sixgill/internal/config"
	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/logx"
	"github.com/xgill-go/sixgill/internal/memory"
	"github.com/xgill-go/sixgill/internal/store"
	"github.com/xgill-go/sixgill/internal/summary"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xinfer:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var unitsPath, dbPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "xinfer [functions...]",
		Short: "infer assertion candidates for one or more functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(unitsPath, dbPath, args, debug)
		},
	}

	cmd.Flags().StringVar(&unitsPath, "units", "", "path to a compilation-unit fixture (required)")
	cmd.Flags().StringVar(&dbPath, "db", "xinfer.xdb", "path to the output store database")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable development logging")
	_ = cmd.MarkFlagRequired("units")

	return cmd
}

// candidateRecord is the JSON shape persisted per function: just enough
// to drive xcheck without round-tripping full Bit trees through the
// store, since the wire format's job (internal/wire) is interned-table
// snapshots, not this demo fixture path's per-assertion payloads.
type candidateRecord struct {
	Point int    `json:"point"`
	Label string `json:"label"`
	Class string `json:"class"`
}

func run(unitsPath, dbPath string, functionArgs []string, debug bool) error {
	cfg := config.FromEnv(config.Defaults())
	cfg.Debug = cfg.Debug || debug
	logx.SetDebug(cfg.Debug)
	defer logx.Sync()

	f, err := os.Open(unitsPath)
	if err != nil {
		return fmt.Errorf("opening units fixture: %w", err)
	}
	defer f.Close()

	unit, err := ir.LoadUnit(f)
	if err != nil {
		return err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	names := functionArgs
	if len(names) == 0 {
		for name := range unit.Functions {
			names = append(names, name)
		}
	}

	elemType := func(base *ir.Exp) *ir.Type { return unit.Types.Int(32, true) }

	for _, name := range names {
		fnCFG, ok := unit.Functions[name]
		if !ok {
			logx.L().Warnw("requested function not in unit", "function", name)
			continue
		}

		mem := memory.Build(fnCFG, unit.Bits, nil)

		assertions := summary.BufferAccessAssertions(mem, unit.Exps, unit.Bits, elemType)
		flagged := summary.ArithmeticEscapeSet(collectAssigns(mem, fnCFG), cfg.ArithmeticEscapeLimit)
		assertions = append(assertions, summary.DerefAssertions(mem, unit.Exps, unit.Bits, elemType, flagged)...)
		assertions = append(assertions, summary.IntegerOverflowAssertions(nil, unit.Exps, unit.Bits, cfg.EnableOverflowChecks)...)

		records := make([]candidateRecord, 0, len(assertions))
		for _, a := range assertions {
			records = append(records, candidateRecord{Point: a.Point, Label: a.Label, Class: classificationName(a.Class)})
		}
		payload, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}

		err = db.Update(func(txn *store.Txn) error {
			return txn.XdbReplace("xinfer.xdb", []byte(name), payload)
		})
		if err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}

		logx.L().Infow("xinfer done", "function", name, "assertions", len(records))
	}
	return nil
}

func collectAssigns(mem *memory.BlockMemory, cfg *ir.BlockCFG) []memory.Assign {
	var all []memory.Assign
	for p := 1; p <= len(cfg.Points); p++ {
		all = append(all, mem.AssignsAt(p)...)
	}
	return all
}

func classificationName(c summary.Classification) string {
	switch c {
	case summary.Trivial:
		return "trivial"
	case summary.Redundant:
		return "redundant"
	default:
		return "check"
	}
}

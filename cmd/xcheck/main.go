// Command xcheck resolves one check-kind's assertions for a set of
// functions against the stub SMT backend and emits the byte-equivalent
// XML report, the Go-ported equivalent of the original suite's `xcheck`
// wrapper (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xgill-go/sixgill/internal/checker"
	"github.com/xgill-go/sixgill/internal/config"
	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/logx"
	"github.com/xgill-go/sixgill/internal/memory"
	"github.com/xgill-go/sixgill/internal/report"
	"github.com/xgill-go/sixgill/internal/solve"
	"github.com/xgill-go/sixgill/internal/solve/stubsolver"
	"github.com/xgill-go/sixgill/internal/summary"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xcheck:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var unitsPath, checkKind, xmlOut string
	var appendMode, debug bool

	cmd := &cobra.Command{
		Use:   "xcheck [function-checks...]",
		Short: "resolve one check-kind's assertions and emit the XML report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(unitsPath, checkKind, xmlOut, args, appendMode, debug)
		},
	}

	cmd.Flags().StringVar(&unitsPath, "units", "", "path to a compilation-unit fixture (required)")
	cmd.Flags().StringVar(&checkKind, "check-kind", "write_overflow", "assertion family to check: write_overflow or write_deref")
	cmd.Flags().StringVar(&xmlOut, "xml-out", "", "file to write the XML report to (defaults to stdout)")
	cmd.Flags().BoolVar(&appendMode, "append", false, "append to -xml-out instead of truncating it")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable development logging")
	_ = cmd.MarkFlagRequired("units")

	return cmd
}

func run(unitsPath, checkKind, xmlOut string, functionArgs []string, appendMode, debug bool) error {
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

	names := functionArgs
	if len(names) == 0 {
		for name := range unit.Functions {
			names = append(names, name)
		}
	}

	elemType := func(base *ir.Exp) *ir.Type { return unit.Types.Int(32, true) }
	newSolver := func() solve.BaseSolver { return stubsolver.New() }

	var all []report.Entry
	for _, name := range names {
		fnCFG, ok := unit.Functions[name]
		if !ok {
			logx.L().Warnw("requested function not in unit", "function", name)
			continue
		}

		guards := memory.ComputeGuards(fnCFG, unit.Bits)
		mem := memory.Build(fnCFG, unit.Bits, nil)
		in := checker.FunctionInput{Name: name, CFG: fnCFG, Bits: unit.Bits, Exps: unit.Exps, Mem: mem}

		var entries []report.Entry
		var err error
		switch checkKind {
		case "write_overflow":
			entries, err = checker.CheckBufferAccess(newSolver, in, guards, elemType)
		case "write_deref":
			flagged := summaryFlaggedSet(mem, fnCFG, cfg.ArithmeticEscapeLimit)
			entries, err = checker.CheckDeref(newSolver, in, guards, elemType, flagged)
		default:
			return fmt.Errorf("unknown check-kind %q", checkKind)
		}
		if err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}
		all = append(all, entries...)
		logx.L().Infow("xcheck resolved", "function", name, "check_kind", checkKind, "assertions", len(entries))
	}

	if xmlOut != "" {
		if err := report.WriteFile(xmlOut, appendMode, checkKind, all); err != nil {
			return fmt.Errorf("writing %s: %w", xmlOut, err)
		}
		return nil
	}
	return report.WriteXML(os.Stdout, checkKind, all)
}

func summaryFlaggedSet(mem *memory.BlockMemory, cfg *ir.BlockCFG, limit int) map[*ir.Exp]bool {
	var assigns []memory.Assign
	for p := 1; p <= len(cfg.Points); p++ {
		assigns = append(assigns, mem.AssignsAt(p)...)
	}
	return summary.ArithmeticEscapeSet(assigns, limit)
}

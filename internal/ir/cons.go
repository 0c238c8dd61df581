package ir

import "github.com/xgill-go/sixgill/internal/config"

// Cons bundles every interning table the analysis engine needs. It is
// the process-wide singleton described in spec.md §5
// ("analysis_prepare()/analysis_cleanup()"); callers construct one per
// process (or per test) rather than relying on package-level state, so
// tests can run in parallel without sharing tables.
type Cons struct {
	Types     *TypeTable
	Fields    *FieldTable
	CSUs      *CSUTable
	Variables *VariableTable
	Exps      *ExpTable
	Bits      *BitTable
	BlockIds  *BlockIdTable
	PEdges    *PEdgeTable

	cfg config.Config
}

// AnalysisPrepare constructs a fresh Cons and, when cfg.Debug is set,
// turns on debug-mode refcounting for the Variable, Exp, Bit and PEdge
// tables (spec.md §5: "start backends, run, ..."). The Type, Field, CSU
// and BlockId tables are not tracked.
func AnalysisPrepare(cfg config.Config) *Cons {
	c := &Cons{
		Types:     NewTypeTable(),
		Fields:    NewFieldTable(),
		CSUs:      NewCSUTable(),
		Variables: NewVariableTable(),
		Exps:      NewExpTable(),
		Bits:      NewBitTable(),
		BlockIds:  NewBlockIdTable(),
		PEdges:    NewPEdgeTable(),
		cfg:       cfg,
	}
	if cfg.Debug {
		c.Variables.t.SetDebug(true, cfg.ReferenceBreakpoint)
		c.Exps.t.SetDebug(true, cfg.ReferenceBreakpoint)
		c.Bits.t.SetDebug(true, cfg.ReferenceBreakpoint)
		c.PEdges.t.SetDebug(true, cfg.ReferenceBreakpoint)
	}
	return c
}

// AnalysisCleanup is the leak scan of spec.md §5/§4.1: it returns every
// leak report found in the Variable, Exp, Bit and PEdge tables, earliest
// stamp first within each table. It does not change any table's
// tracking state.
func (c *Cons) AnalysisCleanup() map[string][]LeakReport {
	reports := make(map[string][]LeakReport)
	if leaks := c.Variables.t.Leaks(); len(leaks) > 0 {
		reports["Variable"] = leaks
	}
	if leaks := c.Exps.t.Leaks(); len(leaks) > 0 {
		reports["Exp"] = leaks
	}
	if leaks := c.Bits.t.Leaks(); len(leaks) > 0 {
		reports["Bit"] = leaks
	}
	if leaks := c.PEdges.t.Leaks(); len(leaks) > 0 {
		reports["PEdge"] = leaks
	}
	return reports
}

package checker

import (
	"fmt"
	"sort"

	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/memory"
	"github.com/xgill-go/sixgill/internal/report"
	"github.com/xgill-go/sixgill/internal/solve"
	"github.com/xgill-go/sixgill/internal/summary"
)

// FunctionInput bundles one function's interned tables and CFG, the
// shape the checker needs to run a single check-kind's assertion pass
// end to end (spec.md §4.9/§4.10/§8).
type FunctionInput struct {
	Name string
	CFG  *ir.BlockCFG
	Bits *ir.BitTable
	Exps *ir.ExpTable
	Mem  *memory.BlockMemory
}

// CheckBufferAccess runs spec.md §8's S1 path for one function: build
// buffer-access assertions and resolve them via ResolveAssertions.
func CheckBufferAccess(newSolver func() solve.BaseSolver, in FunctionInput, guards map[int]*ir.Bit, elemType summary.ElementTypeOf) ([]report.Entry, error) {
	assertions := summary.BufferAccessAssertions(in.Mem, in.Exps, in.Bits, elemType)
	return ResolveAssertions(newSolver, in.Name, in.Bits, guards, assertions)
}

// CheckDeref runs spec.md §8's S2 path: arithmetic-escape-flagged
// dereference assertions, resolved the same way.
func CheckDeref(newSolver func() solve.BaseSolver, in FunctionInput, guards map[int]*ir.Bit, elemType summary.ElementTypeOf, flagged map[*ir.Exp]bool) ([]report.Entry, error) {
	assertions := summary.DerefAssertions(in.Mem, in.Exps, in.Bits, elemType, flagged)
	return ResolveAssertions(newSolver, in.Name, in.Bits, guards, assertions)
}

// ResolveAssertions marks trivial/redundant candidates, then resolves
// every surviving Check assertion's actual outcome by querying
// guard ∧ ¬bit (UNSAT ⇒ safe, SAT ⇒ unsafe with the counterexample model
// rendered into the report Detail) — the reporting-boundary step a real
// SMT backend would run after classification, spec.md §4.10/§6
// ("report_<kind>.xdb ... XML payloads, one per assertion name").
//
// One solver instance and one DeclTable serve the whole function: decl
// handles are only meaningful within the solver instance that allocated
// them (spec.md §4.10 "the core manipulates handle integers"), so every
// query against the same declarations must run on the same instance,
// isolated from the others by PushContext/PopContext rather than by
// spinning up a fresh backend per query.
func ResolveAssertions(newSolver func() solve.BaseSolver, funcName string, bits *ir.BitTable, guards map[int]*ir.Bit, assertions []summary.Assertion) ([]report.Entry, error) {
	s := newSolver()
	dt := NewDeclTable()
	tr := dt.Translator()
	assertions = summary.MarkRedundancy(s, tr, bits, guards, assertions)

	entries := make([]report.Entry, 0, len(assertions))
	for _, a := range assertions {
		e := report.Entry{Function: funcName, Point: a.Point, Label: a.Label}
		switch a.Class {
		case summary.Trivial:
			e.Outcome = report.OutcomeSafe
			e.Detail = "trivial: guard rules out the failing case"
		case summary.Redundant:
			e.Outcome = report.OutcomeSafe
			e.Detail = "redundant: implied by another surviving assertion"
		default:
			outcome, detail, err := resolveCheck(s, tr, bits, guardFor(bits, guards, a.Point), a.Bit)
			if err != nil {
				return nil, err
			}
			e.Outcome = outcome
			e.Detail = detail
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// resolveCheck asserts guard ∧ ¬bit; UNSAT proves the assertion always
// holds (Safe), SAT produces a counterexample model (Unsafe).
func resolveCheck(s solve.BaseSolver, tr solve.ExprTranslator, bits *ir.BitTable, guard, bit *ir.Bit) (report.Outcome, string, error) {
	s.PushContext()
	defer s.PopContext()

	solve.AssertBit(s, guard, tr)
	solve.AssertBit(s, bits.Not(bit), tr)
	sat, err := s.CheckSAT()
	if err != nil {
		return report.OutcomeUnknown, "", err
	}
	if !sat {
		return report.OutcomeSafe, "", nil
	}
	model, err := s.Model()
	if err != nil {
		return report.OutcomeUnsafe, "", err
	}
	return report.OutcomeUnsafe, modelString(model), nil
}

// modelString renders m's bindings in declaration order: map iteration
// is randomized, and this text is persisted verbatim into the XML report
// (report.go), so an unsorted range would make report_<kind>.xdb differ
// byte-for-byte between runs over the same input (spec.md §4.11).
func modelString(m solve.Model) string {
	if len(m) == 0 {
		return "counterexample found"
	}
	decls := make([]solve.SlvDecl, 0, len(m))
	for d := range m {
		decls = append(decls, d)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i] < decls[j] })

	out := "counterexample:"
	for _, d := range decls {
		out += fmt.Sprintf(" decl%d=%d", d, m[d])
	}
	return out
}

func guardFor(bits *ir.BitTable, guards map[int]*ir.Bit, point int) *ir.Bit {
	if g, ok := guards[point]; ok {
		return g
	}
	return bits.True()
}

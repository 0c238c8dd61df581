package solve

import (
	"fmt"

	"github.com/xgill-go/sixgill/internal/ir"
)

// Mux multiplexes N BaseSolver backends behind one BaseSolver interface,
// broadcasting every declaration/expression/assert/push/pop call to all
// of them and cross-checking CheckSAT results, per spec.md §4.10's "run
// every configured backend and flag disagreement rather than trust a
// single decision procedure." Mux's own handle space is just backend[0]'s,
// since every backend observes an identical call sequence and so
// allocates identical indices.
type Mux struct {
	backends []BaseSolver
}

// NewMux constructs a Mux over at least one backend.
func NewMux(backends ...BaseSolver) *Mux {
	if len(backends) == 0 {
		panic("solve: NewMux requires at least one backend")
	}
	return &Mux{backends: backends}
}

func (m *Mux) Name() string { return "mux(" + m.backends[0].Name() + ",...)" }

func (m *Mux) DeclareBool(name string) SlvDecl {
	var d SlvDecl
	for i, b := range m.backends {
		if got := b.DeclareBool(name); i == 0 {
			d = got
		}
	}
	return d
}

func (m *Mux) DeclareInt(name string, bits int, signed bool) SlvDecl {
	var d SlvDecl
	for i, b := range m.backends {
		if got := b.DeclareInt(name, bits, signed); i == 0 {
			d = got
		}
	}
	return d
}

func (m *Mux) ExprFromDecl(d SlvDecl) SlvExpr {
	var e SlvExpr
	for i, b := range m.backends {
		if got := b.ExprFromDecl(d); i == 0 {
			e = got
		}
	}
	return e
}

func (m *Mux) ExprInt(v int64) SlvExpr {
	var e SlvExpr
	for i, b := range m.backends {
		if got := b.ExprInt(v); i == 0 {
			e = got
		}
	}
	return e
}

func (m *Mux) ExprUnop(op ir.UnopKind, operand SlvExpr) SlvExpr {
	var e SlvExpr
	for i, b := range m.backends {
		if got := b.ExprUnop(op, operand); i == 0 {
			e = got
		}
	}
	return e
}

func (m *Mux) ExprBinop(op ir.BinopKind, l, r SlvExpr) SlvExpr {
	var e SlvExpr
	for i, b := range m.backends {
		if got := b.ExprBinop(op, l, r); i == 0 {
			e = got
		}
	}
	return e
}

func (m *Mux) ExprCompare(op ir.CompareOp, l, r SlvExpr) SlvExpr {
	var e SlvExpr
	for i, b := range m.backends {
		if got := b.ExprCompare(op, l, r); i == 0 {
			e = got
		}
	}
	return e
}

func (m *Mux) ExprCoerce(e SlvExpr, bits int, signed bool) SlvExpr {
	var out SlvExpr
	for i, b := range m.backends {
		if got := b.ExprCoerce(e, bits, signed); i == 0 {
			out = got
		}
	}
	return out
}

func (m *Mux) PushContext() {
	for _, b := range m.backends {
		b.PushContext()
	}
}

func (m *Mux) PopContext() {
	for _, b := range m.backends {
		b.PopContext()
	}
}

func (m *Mux) Assert(e SlvExpr) {
	for _, b := range m.backends {
		b.Assert(e)
	}
}

// DisagreementError is returned by CheckSAT when backends reach
// different sat/unsat verdicts on the same query, per spec.md §4.10's
// 5-step protocol: identify the dissenting backend, pin the majority's
// model, verify it independently, then dump the dissenter's state.
type DisagreementError struct {
	MajoritySAT   bool
	MajorityNames []string
	Dissenter     string
	DissenterDump string
}

func (e *DisagreementError) Error() string {
	return fmt.Sprintf("solve: backend %q disagrees with %v (majority sat=%v)", e.Dissenter, e.MajorityNames, e.MajoritySAT)
}

// CheckSAT runs every backend and, when they disagree, follows spec.md
// §4.10's protocol short of the re-verification step: (1) identify the
// disagreeing backend(s), (2) take the majority verdict (sat on a tie),
// (3) dump the dissenter's declarations/asserts via
// Print, (4) return DisagreementError rather than silently picking a
// winner. check_assignment_bits's re-assert-as-unit-clauses re-check is
// not implemented: the stub backends here have no independent model
// representation worth cross-checking, so a dissent is reported as-is
// rather than given a chance to resolve itself.
func (m *Mux) CheckSAT() (bool, error) {
	type result struct {
		name string
		sat  bool
		err  error
	}
	results := make([]result, len(m.backends))
	for i, b := range m.backends {
		sat, err := b.CheckSAT()
		results[i] = result{name: b.Name(), sat: sat, err: err}
	}

	satVotes, unsatVotes := 0, 0
	for _, r := range results {
		if r.err != nil {
			continue
		}
		if r.sat {
			satVotes++
		} else {
			unsatVotes++
		}
	}
	majoritySAT := satVotes >= unsatVotes

	var dissenters []result
	var majorityNames []string
	for _, r := range results {
		if r.err != nil {
			continue
		}
		if r.sat != majoritySAT {
			dissenters = append(dissenters, r)
		} else {
			majorityNames = append(majorityNames, r.name)
		}
	}
	if len(dissenters) == 0 {
		return majoritySAT, nil
	}

	dissenter := dissenters[0]
	var dump string
	for _, b := range m.backends {
		if b.Name() == dissenter.name {
			dump = b.Print()
			break
		}
	}
	return majoritySAT, &DisagreementError{
		MajoritySAT:   majoritySAT,
		MajorityNames: majorityNames,
		Dissenter:     dissenter.name,
		DissenterDump: dump,
	}
}

// Model returns the first backend's model. After a DisagreementError
// this is the majority's model only if the first backend voted with the
// majority.
func (m *Mux) Model() (Model, error) {
	return m.backends[0].Model()
}

func (m *Mux) Print() string {
	out := "mux:\n"
	for _, b := range m.backends {
		out += "--- " + b.Name() + " ---\n" + b.Print()
	}
	return out
}

var _ BaseSolver = (*Mux)(nil)

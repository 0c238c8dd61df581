// Package stubsolver is the toy reference BaseSolver backend used to
// drive internal/solve.Mux and the checker in tests, grounded on
// original_source/solve/solver_hash.h's role as a lightweight,
// always-available backend alongside the real decision procedures
// solver-mux.cpp multiplexes over. It evaluates a syntax tree
// of declared booleans/integers by brute-force enumeration over a small
// domain, which is sufficient for the worked examples in spec.md §8 and
// never pretends to scale beyond them.
package stubsolver

import (
	"fmt"
	"strings"

	"github.com/xgill-go/sixgill/internal/ir"
	"github.com/xgill-go/sixgill/internal/solve"
)

// domainRadius bounds the brute-force search space for integer
// declarations: each is tried over [-domainRadius, domainRadius].
const domainRadius = 8

type declKind int

const (
	declBool declKind = iota
	declInt
)

type decl struct {
	kind   declKind
	name   string
	bits   int
	signed bool
}

type node struct {
	op       string // "decl", "int", "unop", "binop", "cmp", "coerce"
	decl     solve.SlvDecl
	intVal   int64
	unop     ir.UnopKind
	binop    ir.BinopKind
	cmp      ir.CompareOp
	operand  solve.SlvExpr
	l, r     solve.SlvExpr
	coBits   int
	coSigned bool
}

// Solver is the stub BaseSolver. Not safe for concurrent use from
// multiple goroutines without external synchronization (matching the
// teacher's single-threaded solver session model).
type Solver struct {
	decls     []decl
	exprs     []node
	asserts   [][]solve.SlvExpr // one slice per push frame; frame 0 is the base
	lastModel solve.Model
}

func New() *Solver {
	return &Solver{asserts: [][]solve.SlvExpr{nil}}
}

func (s *Solver) Name() string { return "stubsolver" }

func (s *Solver) DeclareBool(name string) solve.SlvDecl {
	s.decls = append(s.decls, decl{kind: declBool, name: name})
	return solve.SlvDecl(len(s.decls) - 1)
}

func (s *Solver) DeclareInt(name string, bits int, signed bool) solve.SlvDecl {
	s.decls = append(s.decls, decl{kind: declInt, name: name, bits: bits, signed: signed})
	return solve.SlvDecl(len(s.decls) - 1)
}

func (s *Solver) push(n node) solve.SlvExpr {
	s.exprs = append(s.exprs, n)
	return solve.SlvExpr(len(s.exprs) - 1)
}

func (s *Solver) ExprFromDecl(d solve.SlvDecl) solve.SlvExpr { return s.push(node{op: "decl", decl: d}) }
func (s *Solver) ExprInt(v int64) solve.SlvExpr              { return s.push(node{op: "int", intVal: v}) }

func (s *Solver) ExprUnop(op ir.UnopKind, operand solve.SlvExpr) solve.SlvExpr {
	return s.push(node{op: "unop", unop: op, operand: operand})
}

func (s *Solver) ExprBinop(op ir.BinopKind, l, r solve.SlvExpr) solve.SlvExpr {
	return s.push(node{op: "binop", binop: op, l: l, r: r})
}

func (s *Solver) ExprCompare(op ir.CompareOp, l, r solve.SlvExpr) solve.SlvExpr {
	return s.push(node{op: "cmp", cmp: op, l: l, r: r})
}

func (s *Solver) ExprCoerce(e solve.SlvExpr, bits int, signed bool) solve.SlvExpr {
	return s.push(node{op: "coerce", operand: e, coBits: bits, coSigned: signed})
}

func (s *Solver) PushContext() {
	s.asserts = append(s.asserts, nil)
}

func (s *Solver) PopContext() {
	if len(s.asserts) > 1 {
		s.asserts = s.asserts[:len(s.asserts)-1]
	}
	s.lastModel = nil
}

func (s *Solver) Assert(e solve.SlvExpr) {
	top := len(s.asserts) - 1
	s.asserts[top] = append(s.asserts[top], e)
}

func (s *Solver) allAsserts() []solve.SlvExpr {
	var out []solve.SlvExpr
	for _, frame := range s.asserts {
		out = append(out, frame...)
	}
	return out
}

// CheckSAT brute-forces every assignment of every declared int variable
// over [-domainRadius, domainRadius] and every bool over {0,1}, returning
// sat=true on the first assignment that satisfies every active assert.
func (s *Solver) CheckSAT() (bool, error) {
	assigned := make([]int64, len(s.decls))
	ok, err := s.search(0, assigned)
	if err != nil {
		return false, err
	}
	if ok {
		model := solve.Model{}
		for i := range s.decls {
			model[solve.SlvDecl(i)] = assigned[i]
		}
		s.lastModel = model
		return true, nil
	}
	s.lastModel = nil
	return false, nil
}

func (s *Solver) search(i int, assigned []int64) (bool, error) {
	if i == len(s.decls) {
		for _, a := range s.allAsserts() {
			v, err := s.eval(a, assigned)
			if err != nil {
				return false, err
			}
			if v == 0 {
				return false, nil
			}
		}
		return true, nil
	}
	d := s.decls[i]
	if d.kind == declBool {
		for _, v := range []int64{0, 1} {
			assigned[i] = v
			if ok, err := s.search(i+1, assigned); err != nil {
				return false, err
			} else if ok {
				return true, nil
			}
		}
		return false, nil
	}
	for v := int64(-domainRadius); v <= domainRadius; v++ {
		assigned[i] = v
		if ok, err := s.search(i+1, assigned); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Solver) eval(e solve.SlvExpr, assigned []int64) (int64, error) {
	n := s.exprs[e]
	switch n.op {
	case "decl":
		return assigned[n.decl], nil
	case "int":
		return n.intVal, nil
	case "unop":
		v, err := s.eval(n.operand, assigned)
		if err != nil {
			return 0, err
		}
		switch n.unop {
		case ir.UnopNeg:
			return -v, nil
		case ir.UnopNot:
			return boolToInt(v == 0), nil
		case ir.UnopBitwiseNot:
			return ^v, nil
		}
	case "binop":
		l, err := s.eval(n.l, assigned)
		if err != nil {
			return 0, err
		}
		r, err := s.eval(n.r, assigned)
		if err != nil {
			return 0, err
		}
		switch n.binop {
		case ir.BinAdd:
			return l + r, nil
		case ir.BinSub:
			return l - r, nil
		case ir.BinMul:
			return l * r, nil
		case ir.BinDiv:
			if r == 0 {
				return 0, fmt.Errorf("stubsolver: division by zero")
			}
			return l / r, nil
		case ir.BinMod:
			if r == 0 {
				return 0, fmt.Errorf("stubsolver: modulo by zero")
			}
			return l % r, nil
		case ir.BinAnd:
			return boolToInt(l != 0 && r != 0), nil
		case ir.BinOr:
			return boolToInt(l != 0 || r != 0), nil
		case ir.BinXor:
			return l ^ r, nil
		case ir.BinShl:
			return l << uint(r), nil
		case ir.BinShr:
			return l >> uint(r), nil
		case ir.BinEq:
			return boolToInt(l == r), nil
		case ir.BinNeq:
			return boolToInt(l != r), nil
		case ir.BinLt:
			return boolToInt(l < r), nil
		case ir.BinGt:
			return boolToInt(l > r), nil
		case ir.BinLeq:
			return boolToInt(l <= r), nil
		case ir.BinGeq:
			return boolToInt(l >= r), nil
		case ir.BinPlusPI:
			return l + r, nil
		case ir.BinMinusPP:
			return l - r, nil
		}
	case "cmp":
		l, err := s.eval(n.l, assigned)
		if err != nil {
			return 0, err
		}
		r, err := s.eval(n.r, assigned)
		if err != nil {
			return 0, err
		}
		switch n.cmp {
		case ir.CmpEQ:
			return boolToInt(l == r), nil
		case ir.CmpNE:
			return boolToInt(l != r), nil
		case ir.CmpLT:
			return boolToInt(l < r), nil
		case ir.CmpGT:
			return boolToInt(l > r), nil
		case ir.CmpLE:
			return boolToInt(l <= r), nil
		case ir.CmpGE:
			return boolToInt(l >= r), nil
		}
	case "coerce":
		v, err := s.eval(n.operand, assigned)
		if err != nil {
			return 0, err
		}
		return coerce(v, n.coBits, n.coSigned), nil
	}
	return 0, fmt.Errorf("stubsolver: unhandled node %q", n.op)
}

func coerce(v int64, bits int, signed bool) int64 {
	if bits <= 0 || bits >= 63 {
		return v
	}
	mask := int64(1)<<uint(bits) - 1
	v &= mask
	if signed && v&(int64(1)<<uint(bits-1)) != 0 {
		v -= int64(1) << uint(bits)
	}
	return v
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (s *Solver) Model() (solve.Model, error) {
	if s.lastModel == nil {
		return nil, fmt.Errorf("stubsolver: no model available (last check was unsat or not run)")
	}
	return s.lastModel, nil
}

func (s *Solver) Print() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stubsolver: %d decls, %d frames\n", len(s.decls), len(s.asserts))
	for i, d := range s.decls {
		fmt.Fprintf(&b, "  decl %d: %s (bool=%v)\n", i, d.name, d.kind == declBool)
	}
	for fi, frame := range s.asserts {
		fmt.Fprintf(&b, "  frame %d: %d asserts\n", fi, len(frame))
	}
	return b.String()
}

var _ solve.BaseSolver = (*Solver)(nil)

package ir

import (
	"encoding/json"
	"fmt"
	"io"
)

// CompilationUnit bundles one batch of functions sharing a single set of
// interning tables: the only contract between the analysis core and
// whatever produced the IR (spec.md §1 "the core ... never depends on
// how it was produced"). The original tool suite gets this from a GCC
// plugin over a C ABI; this port has no plugin, so CompilationUnit is
// the Go-shaped seam a real frontend would fill.
type CompilationUnit struct {
	Vars  *VariableTable
	Exps  *ExpTable
	Bits  *BitTable
	Ids   *BlockIdTable
	Types *TypeTable

	Functions map[string]*BlockCFG
}

// unitFile is the on-disk JSON fixture format cmd/ wrappers read in
// place of a real frontend. It only covers the operations the worked
// scenarios need (var/int/index/deref/binop expressions, assign/call/
// assume edges): floats, strings, CSU fields and vtables require a real
// type system feed that only a C frontend can supply, so they are not
// representable here.
type unitFile struct {
	Functions []unitFunction `json:"functions"`
}

type unitFunction struct {
	Name   string      `json:"name"`
	Args   []string    `json:"args"`
	Points int         `json:"points"`
	Entry  int         `json:"entry"`
	Exit   int         `json:"exit"`
	Edges  []unitEdge  `json:"edges"`
	Loops  []unitLoop  `json:"loops"`
}

type unitLoop struct {
	Point int `json:"point"`
	Line  int `json:"line"`
}

type unitEdge struct {
	Source int    `json:"source"`
	Target int    `json:"target"`
	Kind   string `json:"kind"` // skip, assume, assign, call
	Cond   *unitExp `json:"cond,omitempty"`
	Sense  bool   `json:"sense,omitempty"`
	Lhs    *unitExp `json:"lhs,omitempty"`
	Rhs    *unitExp `json:"rhs,omitempty"`
	Callee string `json:"callee,omitempty"`
	Args   []*unitExp `json:"args,omitempty"`
}

// unitExp is a small s-expression: ["var","p"], ["int",0],
// ["index",target,index], ["deref",target], ["binop","add",l,r].
type unitExp struct {
	Op   string     `json:"op"`
	Name string     `json:"name,omitempty"`
	Int  int64      `json:"int,omitempty"`
	Sub  []*unitExp `json:"sub,omitempty"`
}

// LoadUnit parses a unit fixture from r and builds its CompilationUnit
// against one fresh set of interning tables.
func LoadUnit(r io.Reader) (*CompilationUnit, error) {
	var raw unitFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("ir: decoding unit fixture: %w", err)
	}

	u := &CompilationUnit{
		Vars:      NewVariableTable(),
		Exps:      NewExpTable(),
		Bits:      NewBitTable(),
		Ids:       NewBlockIdTable(),
		Types:     NewTypeTable(),
		Functions: make(map[string]*BlockCFG, len(raw.Functions)),
	}

	for _, fn := range raw.Functions {
		cfg, err := u.buildFunction(fn)
		if err != nil {
			return nil, fmt.Errorf("ir: function %q: %w", fn.Name, err)
		}
		u.Functions[fn.Name] = cfg
	}
	return u, nil
}

func (u *CompilationUnit) buildFunction(fn unitFunction) (*BlockCFG, error) {
	fnVar := u.Vars.Intern(&Variable{Kind: VarFunction, Name: fn.Name})
	id := u.Ids.Intern(&BlockId{Kind: BlockFunction, Base: fnVar})

	argVars := make(map[string]*Variable, len(fn.Args))
	for i, name := range fn.Args {
		argVars[name] = u.Vars.Intern(&Variable{Kind: VarArgument, OwnerBlock: id, ArgIndex: i, Name: name})
	}

	cfg := NewCFG(id)
	for i := 0; i < fn.Points; i++ {
		cfg.Points = append(cfg.Points, CFGPoint{})
	}
	cfg.Entry, cfg.Exit = fn.Entry, fn.Exit

	for _, l := range fn.Loops {
		cfg.SetLoopHead(l.Point, SourcePoint{File: fn.Name, Line: l.Line}, true)
		cfg.Points[l.Point-1].Loc = SourcePoint{File: fn.Name, Line: l.Line}
	}

	for _, e := range fn.Edges {
		pe := &PEdge{Source: e.Source, Target: e.Target}
		switch e.Kind {
		case "skip":
			pe.Kind = EdgeSkip
		case "assume":
			pe.Kind = EdgeAssume
			cond, err := u.resolveBit(e.Cond, argVars)
			if err != nil {
				return nil, err
			}
			pe.Cond, pe.Sense = cond, e.Sense
		case "assign":
			pe.Kind = EdgeAssign
			lhs, err := u.resolveExp(e.Lhs, argVars)
			if err != nil {
				return nil, err
			}
			rhs, err := u.resolveExp(e.Rhs, argVars)
			if err != nil {
				return nil, err
			}
			pe.Lhs, pe.Rhs = lhs, rhs
		case "call":
			pe.Kind = EdgeCall
			pe.Callee = u.Exps.Variable(u.Vars.Intern(&Variable{Kind: VarFunction, Name: e.Callee}))
			for _, a := range e.Args {
				arg, err := u.resolveExp(a, argVars)
				if err != nil {
					return nil, err
				}
				pe.Args = append(pe.Args, arg)
			}
		default:
			return nil, fmt.Errorf("unknown edge kind %q", e.Kind)
		}
		cfg.AddEdge(pe)
	}

	cfg.Freeze()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (u *CompilationUnit) resolveExp(x *unitExp, args map[string]*Variable) (*Exp, error) {
	if x == nil {
		return nil, fmt.Errorf("nil expression")
	}
	switch x.Op {
	case "var":
		v, ok := args[x.Name]
		if !ok {
			v = u.Vars.Intern(&Variable{Kind: VarGlobal, Name: x.Name})
		}
		return u.Exps.Variable(v), nil
	case "int":
		return u.Exps.Int(x.Int), nil
	case "deref":
		target, err := u.resolveExp(x.Sub[0], args)
		if err != nil {
			return nil, err
		}
		return u.Exps.Deref(target), nil
	case "index":
		target, err := u.resolveExp(x.Sub[0], args)
		if err != nil {
			return nil, err
		}
		index, err := u.resolveExp(x.Sub[1], args)
		if err != nil {
			return nil, err
		}
		return u.Exps.Index(target, index), nil
	case "binop":
		op, ok := binopByName[x.Name]
		if !ok {
			return nil, fmt.Errorf("unknown binop %q", x.Name)
		}
		l, err := u.resolveExp(x.Sub[0], args)
		if err != nil {
			return nil, err
		}
		r, err := u.resolveExp(x.Sub[1], args)
		if err != nil {
			return nil, err
		}
		return u.Exps.Binop(op, l, r), nil
	}
	return nil, fmt.Errorf("unknown expression op %q", x.Op)
}

var binopByName = map[string]BinopKind{
	"add": BinAdd, "sub": BinSub, "mul": BinMul, "div": BinDiv, "mod": BinMod,
	"and": BinAnd, "or": BinOr, "xor": BinXor, "shl": BinShl, "shr": BinShr,
	"eq": BinEq, "neq": BinNeq, "lt": BinLt, "gt": BinGt, "leq": BinLeq, "geq": BinGeq,
}

var cmpByBinop = map[BinopKind]CompareOp{
	BinEq: CmpEQ, BinNeq: CmpNE, BinLt: CmpLT, BinGt: CmpGT, BinLeq: CmpLE, BinGeq: CmpGE,
}

// resolveBit builds a Bit from a comparison-shaped unitExp (binop whose
// operator is one of eq/neq/lt/gt/leq/geq), or treats "true"/"false" ops
// as the literal Bit constants.
func (u *CompilationUnit) resolveBit(x *unitExp, args map[string]*Variable) (*Bit, error) {
	if x == nil {
		return nil, fmt.Errorf("nil condition")
	}
	switch x.Op {
	case "true":
		return u.Bits.True(), nil
	case "false":
		return u.Bits.False(), nil
	case "binop":
		op, ok := binopByName[x.Name]
		if !ok {
			return nil, fmt.Errorf("unknown condition operator %q", x.Name)
		}
		cmp, ok := cmpByBinop[op]
		if !ok {
			return nil, fmt.Errorf("operator %q is not a comparison", x.Name)
		}
		l, err := u.resolveExp(x.Sub[0], args)
		if err != nil {
			return nil, err
		}
		r, err := u.resolveExp(x.Sub[1], args)
		if err != nil {
			return nil, err
		}
		return u.Bits.Compare(cmp, l, r), nil
	}
	return nil, fmt.Errorf("unknown condition op %q", x.Op)
}

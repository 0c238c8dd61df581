package ir

import "fmt"

// TraceKind enumerates the Trace variants of spec.md §3: a polymorphic
// "location" identifier used as the key of escape databases.
type TraceKind int

const (
	TraceFunc TraceKind = iota
	TraceGlob
	TraceComp
)

// CompAccessKind distinguishes the three ways a Trace::Comp can be
// reached: through a data field, a virtual-function slot, or a base
// class.
type CompAccessKind int

const (
	CompNone CompAccessKind = iota
	CompField
	CompVFunc
	CompBase
)

// Trace identifies a location for escape/alias propagation (spec.md
// §3): Func(block, local-or-temp), Glob(global var), or
// Comp(csu, field|vfunc|base).
type Trace struct {
	Kind TraceKind

	// Func
	Block *BlockId
	Local *Exp

	// Glob
	Global *Exp

	// Comp
	CSUName string
	Access  CompAccessKind
	Field   *Field // meaningful when Access == CompField or CompVFunc
	Base    string // meaningful when Access == CompBase
}

// Key renders the stable on-disk key format named in spec.md §6:
// "func:<name>", "glob:<var>", "comp:<csu>[:<field>]".
func (t *Trace) Key() string {
	switch t.Kind {
	case TraceFunc:
		name := ""
		if t.Block != nil && t.Block.Base != nil {
			name = t.Block.Base.Name
		}
		return "func:" + name
	case TraceGlob:
		name := ""
		if t.Global != nil && t.Global.Var != nil {
			name = t.Global.Var.Name
		}
		return "glob:" + name
	case TraceComp:
		switch t.Access {
		case CompField, CompVFunc:
			fname := ""
			if t.Field != nil {
				fname = t.Field.Name
			}
			return fmt.Sprintf("comp:%s:%s", t.CSUName, fname)
		case CompBase:
			return fmt.Sprintf("comp:%s:%s", t.CSUName, t.Base)
		default:
			return "comp:" + t.CSUName
		}
	}
	return "?"
}

// FromExp builds the Func(block, local_or_temp_exp) Trace used when an
// indirect call site's callee expression resolves to a plain function
// pointer (spec.md §4.7 "Plain function pointer: Trace::from_exp").
func TraceFromExp(block *BlockId, e *Exp) *Trace {
	return &Trace{Kind: TraceFunc, Block: block, Local: e}
}

// TraceGlobFunc builds Trace::Glob(ExpVar(VK_Func)) used to recognize a
// propagated function target during escape resolution (spec.md §4.7).
func TraceGlobFunc(fn *Variable) *Trace {
	return &Trace{Kind: TraceGlob, Global: &Exp{Kind: ExpVar, Var: fn}}
}

// IsGlobFunc reports whether t is Trace::Glob(ExpVar(VK_Func)).
func (t *Trace) IsGlobFunc() (fn *Variable, ok bool) {
	if t.Kind != TraceGlob || t.Global == nil || t.Global.Kind != ExpVar {
		return nil, false
	}
	if t.Global.Var == nil || t.Global.Var.Kind != VarFunction {
		return nil, false
	}
	return t.Global.Var, true
}

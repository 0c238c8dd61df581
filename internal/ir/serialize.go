package ir

import (
	"fmt"

	"github.com/xgill-go/sixgill/internal/wire"
)

// Sub-tags used only within this package's wire encoding of the IR node
// kinds. Distinct from wire.Tag (the framing layer) — these are the
// "kind" discriminants carried by Open/Close pairs.
const (
	subType uint16 = iota
	subExp
	subField
	subVariable
	subBlockId
	subBit
	subPEdge
)

// WriteType serializes t. Every IR kind follows the same shape: Open,
// a u32 discriminant, kind-specific fields, Close.
func WriteType(w *wire.Writer, t *Type) {
	w.Open(subType)
	w.WriteU32(uint32(t.Kind))
	switch t.Kind {
	case TyInt:
		w.WriteU32(uint32(t.Bits))
		if t.Signed {
			w.WriteU32(1)
		} else {
			w.WriteU32(0)
		}
	case TyFloat:
		w.WriteU32(uint32(t.Bits))
	case TyPointer:
		WriteType(w, t.Target)
		w.WriteU32(uint32(t.Width))
	case TyArray:
		WriteType(w, t.Element)
		w.WriteU32(uint32(t.Count))
	case TyCSU:
		w.WriteString(t.Name)
	case TyFunction:
		hasRet := t.Ret != nil
		if hasRet {
			w.WriteU32(1)
			WriteType(w, t.Ret)
		} else {
			w.WriteU32(0)
		}
		if t.This != nil {
			w.WriteU32(1)
			WriteType(w, t.This)
		} else {
			w.WriteU32(0)
		}
		if t.Varargs {
			w.WriteU32(1)
		} else {
			w.WriteU32(0)
		}
		w.WriteU32(uint32(len(t.Args)))
		for _, a := range t.Args {
			WriteType(w, a)
		}
	}
	w.Close(subType)
}

// ReadType decodes a Type and interns it through tt, so that
// read(write(v)) is pointer-identical to the original interned value
// (spec.md §8 property 3).
func ReadType(r *wire.Reader, tt *TypeTable) (*Type, error) {
	if _, err := r.Open(); err != nil {
		return nil, err
	}
	kindRaw, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	kind := TypeKind(kindRaw)
	var result *Type
	switch kind {
	case TyVoid:
		result = tt.Void()
	case TyError:
		result = tt.Err()
	case TyInt:
		bits, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		signedRaw, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		result = tt.Int(int(bits), signedRaw != 0)
	case TyFloat:
		bits, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		result = tt.Float(int(bits))
	case TyPointer:
		target, err := ReadType(r, tt)
		if err != nil {
			return nil, err
		}
		width, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		result = tt.Pointer(target, int(width))
	case TyArray:
		elem, err := ReadType(r, tt)
		if err != nil {
			return nil, err
		}
		count, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		result = tt.Array(elem, int(count))
	case TyCSU:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		result = tt.CSU(name)
	case TyFunction:
		hasRet, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		var ret *Type
		if hasRet != 0 {
			ret, err = ReadType(r, tt)
			if err != nil {
				return nil, err
			}
		}
		hasThis, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		var this *Type
		if hasThis != 0 {
			this, err = ReadType(r, tt)
			if err != nil {
				return nil, err
			}
		}
		varargsRaw, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		nargs, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		args := make([]*Type, nargs)
		for i := range args {
			args[i], err = ReadType(r, tt)
			if err != nil {
				return nil, err
			}
		}
		result = tt.Function(ret, this, varargsRaw != 0, args)
	default:
		return nil, fmt.Errorf("ir: unknown TypeKind %d in wire buffer", kind)
	}
	if _, err := r.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteExp serializes e.
func WriteExp(w *wire.Writer, e *Exp) {
	w.Open(subExp)
	w.WriteU32(uint32(e.Kind))
	switch e.Kind {
	case ExpVar:
		WriteVariable(w, e.Var)
	case ExpDeref, ExpTerminate, ExpLoopEntry:
		WriteExp(w, e.Target)
	case ExpFld:
		WriteExp(w, e.Target)
		WriteField(w, e.Fld)
	case ExpIndex:
		WriteExp(w, e.Target)
		WriteExp(w, e.Index)
	case ExpInt:
		w.WriteU64(uint64(e.IntValue))
	case ExpString:
		w.WriteString(e.StringValue)
	case ExpUnop:
		w.WriteU32(uint32(e.Unop))
		WriteExp(w, e.Left)
	case ExpBinop:
		w.WriteU32(uint32(e.Binop))
		WriteExp(w, e.Left)
		WriteExp(w, e.Right)
	case ExpBound:
		w.WriteU32(uint32(e.Bound))
		WriteExp(w, e.Target)
		if e.StrideType != nil {
			w.WriteU32(1)
			WriteType(w, e.StrideType)
		} else {
			w.WriteU32(0)
		}
	}
	w.Close(subExp)
}

// ReadExp decodes an Exp and interns it through et. vt/bidT resolve any
// Variable (and its owning BlockId) an ExpVar carries; tt interns any
// stride type carried by an ExpBound node; ft resolves an ExpFld's Field.
func ReadExp(r *wire.Reader, et *ExpTable, vt *VariableTable, tt *TypeTable, ft *FieldTable, bidT *BlockIdTable) (*Exp, error) {
	if _, err := r.Open(); err != nil {
		return nil, err
	}
	kindRaw, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	kind := ExpKind(kindRaw)
	var result *Exp
	switch kind {
	case ExpVar:
		v, err := ReadVariable(r, vt, bidT)
		if err != nil {
			return nil, err
		}
		result = et.Variable(v)
	case ExpDeref:
		target, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		result = et.Deref(target)
	case ExpTerminate:
		target, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		result = et.Terminate(target)
	case ExpLoopEntry:
		target, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		result = et.LoopEntry(target)
	case ExpFld:
		target, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		fld, err := ReadField(r, ft, tt)
		if err != nil {
			return nil, err
		}
		result = et.Field(target, fld)
	case ExpIndex:
		target, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		index, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		result = et.Index(target, index)
	case ExpInt:
		v, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		result = et.Int(int64(v))
	case ExpString:
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		result = et.Str(s)
	case ExpUnop:
		opRaw, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		operand, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		result = et.Unop(UnopKind(opRaw), operand)
	case ExpBinop:
		opRaw, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		left, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		right, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		result = et.Binop(BinopKind(opRaw), left, right)
	case ExpBound:
		boundRaw, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		target, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		hasStride, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		var stride *Type
		if hasStride != 0 {
			stride, err = ReadType(r, tt)
			if err != nil {
				return nil, err
			}
		}
		result = et.Bound(BoundKind(boundRaw), target, stride)
	default:
		return nil, fmt.Errorf("ir: unknown ExpKind %d in wire buffer", kind)
	}
	if _, err := r.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteField serializes f.
func WriteField(w *wire.Writer, f *Field) {
	w.Open(subField)
	w.WriteString(f.Name)
	w.WriteString(f.SourceName)
	w.WriteString(f.OwningCSU)
	if f.FieldType != nil {
		w.WriteU32(1)
		WriteType(w, f.FieldType)
	} else {
		w.WriteU32(0)
	}
	if f.IsInstanceMethod {
		w.WriteU32(1)
	} else {
		w.WriteU32(0)
	}
	w.Close(subField)
}

// ReadField decodes a Field and interns it through ft, resolving its
// FieldType (if any) through tt.
func ReadField(r *wire.Reader, ft *FieldTable, tt *TypeTable) (*Field, error) {
	if _, err := r.Open(); err != nil {
		return nil, err
	}
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	sourceName, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	owningCSU, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	hasType, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	var fieldType *Type
	if hasType != 0 {
		fieldType, err = ReadType(r, tt)
		if err != nil {
			return nil, err
		}
	}
	isMethodRaw, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	result := ft.Intern(&Field{
		Name:             name,
		SourceName:       sourceName,
		OwningCSU:        owningCSU,
		FieldType:        fieldType,
		IsInstanceMethod: isMethodRaw != 0,
	})
	if _, err := r.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteVariable serializes v.
func WriteVariable(w *wire.Writer, v *Variable) {
	w.Open(subVariable)
	w.WriteU32(uint32(v.Kind))
	w.WriteU32(uint32(v.ArgIndex))
	w.WriteString(v.Name)
	w.WriteString(v.SourceName)
	if v.OwnerBlock != nil {
		w.WriteU32(1)
		WriteBlockId(w, v.OwnerBlock)
	} else {
		w.WriteU32(0)
	}
	w.Close(subVariable)
}

// ReadVariable decodes a Variable and interns it through vt, resolving
// its owning BlockId (if any) through bidT.
func ReadVariable(r *wire.Reader, vt *VariableTable, bidT *BlockIdTable) (*Variable, error) {
	if _, err := r.Open(); err != nil {
		return nil, err
	}
	kindRaw, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	argIndex, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	sourceName, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	hasOwner, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	var owner *BlockId
	if hasOwner != 0 {
		owner, err = ReadBlockId(r, bidT, vt)
		if err != nil {
			return nil, err
		}
	}
	result := vt.Intern(&Variable{
		OwnerBlock: owner,
		Kind:       VarKind(kindRaw),
		ArgIndex:   int(argIndex),
		Name:       name,
		SourceName: sourceName,
	})
	if _, err := r.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteBlockId serializes b.
func WriteBlockId(w *wire.Writer, b *BlockId) {
	w.Open(subBlockId)
	w.WriteU32(uint32(b.Kind))
	if b.Base != nil {
		w.WriteU32(1)
		WriteVariable(w, b.Base)
	} else {
		w.WriteU32(0)
	}
	w.WriteString(b.LoopName)
	w.Close(subBlockId)
}

// ReadBlockId decodes a BlockId and interns it through bidT, resolving
// its base Variable (if any) through vt.
func ReadBlockId(r *wire.Reader, bidT *BlockIdTable, vt *VariableTable) (*BlockId, error) {
	if _, err := r.Open(); err != nil {
		return nil, err
	}
	kindRaw, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	hasBase, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	var base *Variable
	if hasBase != 0 {
		base, err = ReadVariable(r, vt, bidT)
		if err != nil {
			return nil, err
		}
	}
	loopName, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	result := bidT.Intern(&BlockId{Kind: BlockKind(kindRaw), Base: base, LoopName: loopName})
	if _, err := r.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteBit serializes b.
func WriteBit(w *wire.Writer, b *Bit) {
	w.Open(subBit)
	w.WriteU32(uint32(b.Kind))
	switch b.Kind {
	case BitVar:
		w.WriteString(b.VarName)
	case BitCompare:
		w.WriteU32(uint32(b.Op))
		WriteExp(w, b.Left)
		WriteExp(w, b.Right)
	case BitNot:
		WriteBit(w, b.Operand)
	case BitAnd, BitOr:
		w.WriteU32(uint32(len(b.Operands)))
		for _, o := range b.Operands {
			WriteBit(w, o)
		}
	}
	w.Close(subBit)
}

// ReadBit decodes a Bit and interns it through bitT; Compare operands
// are resolved through et/vt/tt/ft/bidT the same way ReadExp uses them.
func ReadBit(r *wire.Reader, bitT *BitTable, et *ExpTable, vt *VariableTable, tt *TypeTable, ft *FieldTable, bidT *BlockIdTable) (*Bit, error) {
	if _, err := r.Open(); err != nil {
		return nil, err
	}
	kindRaw, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	kind := BitKind(kindRaw)
	var result *Bit
	switch kind {
	case BitTrue:
		result = bitT.True()
	case BitFalse:
		result = bitT.False()
	case BitVar:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		result = bitT.Var(name)
	case BitCompare:
		opRaw, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		left, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		right, err := ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		result = bitT.Compare(CompareOp(opRaw), left, right)
	case BitNot:
		operand, err := ReadBit(r, bitT, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		result = bitT.Not(operand)
	case BitAnd, BitOr:
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		operands := make([]*Bit, n)
		for i := range operands {
			operands[i], err = ReadBit(r, bitT, et, vt, tt, ft, bidT)
			if err != nil {
				return nil, err
			}
		}
		if kind == BitAnd {
			result = bitT.And(operands...)
		} else {
			result = bitT.Or(operands...)
		}
	default:
		return nil, fmt.Errorf("ir: unknown BitKind %d in wire buffer", kind)
	}
	if _, err := r.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

// WritePEdge serializes e.
func WritePEdge(w *wire.Writer, e *PEdge) {
	w.Open(subPEdge)
	w.WriteU32(uint32(e.Kind))
	w.WriteU32(uint32(e.Source))
	w.WriteU32(uint32(e.Target))
	switch e.Kind {
	case EdgeAssume:
		WriteBit(w, e.Cond)
		if e.Sense {
			w.WriteU32(1)
		} else {
			w.WriteU32(0)
		}
	case EdgeAssign:
		if e.AssignType != nil {
			w.WriteU32(1)
			WriteType(w, e.AssignType)
		} else {
			w.WriteU32(0)
		}
		WriteExp(w, e.Lhs)
		WriteExp(w, e.Rhs)
	case EdgeCall:
		if e.FnType != nil {
			w.WriteU32(1)
			WriteType(w, e.FnType)
		} else {
			w.WriteU32(0)
		}
		if e.RetAssign != nil {
			w.WriteU32(1)
			WriteExp(w, e.RetAssign)
		} else {
			w.WriteU32(0)
		}
		if e.Instance != nil {
			w.WriteU32(1)
			WriteExp(w, e.Instance)
		} else {
			w.WriteU32(0)
		}
		WriteExp(w, e.Callee)
		w.WriteU32(uint32(len(e.Args)))
		for _, a := range e.Args {
			WriteExp(w, a)
		}
	case EdgeLoop:
		WriteBlockId(w, e.LoopBlock)
	case EdgeAnnotation:
		WriteBlockId(w, e.AnnotBlock)
	}
	w.Close(subPEdge)
}

// ReadPEdge decodes a PEdge and interns it through pt, resolving its
// nested IR references through the remaining tables.
func ReadPEdge(r *wire.Reader, pt *PEdgeTable, et *ExpTable, vt *VariableTable, tt *TypeTable, ft *FieldTable, bidT *BlockIdTable, bitT *BitTable) (*PEdge, error) {
	if _, err := r.Open(); err != nil {
		return nil, err
	}
	kindRaw, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	source, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	target, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	cand := &PEdge{Kind: PEdgeKind(kindRaw), Source: int(source), Target: int(target)}
	switch cand.Kind {
	case EdgeAssume:
		cond, err := ReadBit(r, bitT, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		senseRaw, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		cand.Cond, cand.Sense = cond, senseRaw != 0
	case EdgeAssign:
		hasType, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if hasType != 0 {
			cand.AssignType, err = ReadType(r, tt)
			if err != nil {
				return nil, err
			}
		}
		cand.Lhs, err = ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		cand.Rhs, err = ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
	case EdgeCall:
		hasFnType, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if hasFnType != 0 {
			cand.FnType, err = ReadType(r, tt)
			if err != nil {
				return nil, err
			}
		}
		hasRetAssign, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if hasRetAssign != 0 {
			cand.RetAssign, err = ReadExp(r, et, vt, tt, ft, bidT)
			if err != nil {
				return nil, err
			}
		}
		hasInstance, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if hasInstance != 0 {
			cand.Instance, err = ReadExp(r, et, vt, tt, ft, bidT)
			if err != nil {
				return nil, err
			}
		}
		cand.Callee, err = ReadExp(r, et, vt, tt, ft, bidT)
		if err != nil {
			return nil, err
		}
		nargs, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		cand.Args = make([]*Exp, nargs)
		for i := range cand.Args {
			cand.Args[i], err = ReadExp(r, et, vt, tt, ft, bidT)
			if err != nil {
				return nil, err
			}
		}
	case EdgeLoop:
		cand.LoopBlock, err = ReadBlockId(r, bidT, vt)
		if err != nil {
			return nil, err
		}
	case EdgeAnnotation:
		cand.AnnotBlock, err = ReadBlockId(r, bidT, vt)
		if err != nil {
			return nil, err
		}
	}
	result := pt.Intern(cand)
	if _, err := r.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

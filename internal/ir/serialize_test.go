package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xgill-go/sixgill/internal/wire"
)

// TestSerializationRoundTrip is property 3 of spec.md §8: read(write(v)) == v,
// pointer-identical after interning.
func TestSerializationRoundTrip(t *testing.T) {
	tt := NewTypeTable()
	original := tt.Pointer(tt.Int(32, true), 8)

	w := wire.NewWriter()
	WriteType(w, original)

	tt2 := NewTypeTable()
	r := wire.NewReader(w.Bytes())
	got, err := ReadType(r, tt2)
	require.NoError(t, err)
	require.True(t, equalType(original, got))

	// Reading into the SAME table must return the identical pointer.
	r2 := wire.NewReader(w.Bytes())
	got2, err := ReadType(r2, tt)
	require.NoError(t, err)
	require.Same(t, original, got2)
}

func TestSerializationRoundTripExp(t *testing.T) {
	et := NewExpTable()
	vt := NewVariableTable()
	tt := NewTypeTable()
	ft := NewFieldTable()
	bidT := NewBlockIdTable()
	v := vt.Intern(&Variable{Kind: VarLocal, Name: "n"})
	original := et.Binop(BinLt, et.Variable(v), et.Int(10))

	w := wire.NewWriter()
	WriteExp(w, original)

	r := wire.NewReader(w.Bytes())
	got, err := ReadExp(r, et, vt, tt, ft, bidT)
	require.NoError(t, err)
	require.Same(t, original, got)
}

// TestSerializationRoundTripExpBound covers the ExpBound variant
// specifically: its stride type must round-trip like any other Type.
func TestSerializationRoundTripExpBound(t *testing.T) {
	et := NewExpTable()
	vt := NewVariableTable()
	tt := NewTypeTable()
	ft := NewFieldTable()
	bidT := NewBlockIdTable()
	v := vt.Intern(&Variable{Kind: VarLocal, Name: "buf"})
	stride := tt.Int(32, true)
	original := et.Bound(BoundLower, et.Variable(v), stride)

	w := wire.NewWriter()
	WriteExp(w, original)

	r := wire.NewReader(w.Bytes())
	got, err := ReadExp(r, et, vt, tt, ft, bidT)
	require.NoError(t, err)
	require.Same(t, original, got)
	require.Same(t, stride, got.StrideType)
}

// TestSerializationRoundTripField covers Field, including its optional
// FieldType and IsInstanceMethod flag.
func TestSerializationRoundTripField(t *testing.T) {
	tt := NewTypeTable()
	ft := NewFieldTable()
	original := ft.Intern(&Field{Name: "len", OwningCSU: "Slice", FieldType: tt.Int(64, false), IsInstanceMethod: false})

	w := wire.NewWriter()
	WriteField(w, original)

	r := wire.NewReader(w.Bytes())
	got, err := ReadField(r, ft, tt)
	require.NoError(t, err)
	require.Same(t, original, got)
}

// TestSerializationRoundTripVariableWithOwner covers a non-global
// Variable whose OwnerBlock participates in hash()/equalVariable
// (variable.go): dropping it would intern a distinct Variable on read.
func TestSerializationRoundTripVariableWithOwner(t *testing.T) {
	vt := NewVariableTable()
	bidT := NewBlockIdTable()
	fnVar := vt.Intern(&Variable{Kind: VarFunction, Name: "f"})
	owner := bidT.Intern(&BlockId{Kind: BlockFunction, Base: fnVar})
	original := vt.Intern(&Variable{Kind: VarLocal, Name: "n", OwnerBlock: owner})

	w := wire.NewWriter()
	WriteVariable(w, original)

	r := wire.NewReader(w.Bytes())
	got, err := ReadVariable(r, vt, bidT)
	require.NoError(t, err)
	require.Same(t, original, got)
	require.Same(t, owner, got.OwnerBlock)
}

// TestSerializationRoundTripBlockIdLoop covers a BlockLoop id, whose
// stable LoopName (spec.md §4.3) must survive the round trip.
func TestSerializationRoundTripBlockIdLoop(t *testing.T) {
	vt := NewVariableTable()
	bidT := NewBlockIdTable()
	fnVar := vt.Intern(&Variable{Kind: VarFunction, Name: "f"})
	original := bidT.Intern(&BlockId{Kind: BlockLoop, Base: fnVar, LoopName: LoopName(3, 42)})

	w := wire.NewWriter()
	WriteBlockId(w, original)

	r := wire.NewReader(w.Bytes())
	got, err := ReadBlockId(r, bidT, vt)
	require.NoError(t, err)
	require.Same(t, original, got)
}

// TestSerializationRoundTripBit covers a BitCompare node nested under
// And, exercising both the Exp-bearing leaf and the flattening operand
// list (bit.go's And sorts/dedups, so round-tripping through it must
// still reproduce the same interned node).
func TestSerializationRoundTripBit(t *testing.T) {
	et := NewExpTable()
	vt := NewVariableTable()
	tt := NewTypeTable()
	ft := NewFieldTable()
	bidT := NewBlockIdTable()
	bitT := NewBitTable()
	v := vt.Intern(&Variable{Kind: VarLocal, Name: "n"})
	cmp := bitT.Compare(CmpLT, et.Variable(v), et.Int(10))
	original := bitT.And(cmp, bitT.Not(bitT.False()))

	w := wire.NewWriter()
	WriteBit(w, original)

	r := wire.NewReader(w.Bytes())
	got, err := ReadBit(r, bitT, et, vt, tt, ft, bidT)
	require.NoError(t, err)
	require.Same(t, original, got)
}

// TestSerializationRoundTripPEdge covers an EdgeCall PEdge, exercising
// the optional FnType/RetAssign/Instance fields alongside Callee/Args.
func TestSerializationRoundTripPEdge(t *testing.T) {
	et := NewExpTable()
	vt := NewVariableTable()
	tt := NewTypeTable()
	ft := NewFieldTable()
	bidT := NewBlockIdTable()
	bitT := NewBitTable()
	pt := NewPEdgeTable()

	calleeVar := vt.Intern(&Variable{Kind: VarFunction, Name: "g"})
	retVar := vt.Intern(&Variable{Kind: VarReturn, Name: "ret"})
	original := pt.Intern(&PEdge{
		Source: 1, Target: 2, Kind: EdgeCall,
		FnType:    tt.Function(tt.Int(32, true), nil, false, nil),
		RetAssign: et.Variable(retVar),
		Callee:    et.Variable(calleeVar),
		Args:      []*Exp{et.Int(7)},
	})

	w := wire.NewWriter()
	WritePEdge(w, original)

	r := wire.NewReader(w.Bytes())
	got, err := ReadPEdge(r, pt, et, vt, tt, ft, bidT, bitT)
	require.NoError(t, err)
	require.Same(t, original, got)
}

// TestSerializationRoundTripFunctionType covers the method/varargs
// variant of TyFunction: This and Varargs both participate in hash()/
// equalType (type.go), so dropping either breaks property 3 for any
// method or varargs function type.
func TestSerializationRoundTripFunctionType(t *testing.T) {
	tt := NewTypeTable()
	this := tt.CSU("Widget")
	original := tt.Function(tt.Int(32, true), this, true, []*Type{tt.Int(64, false)})

	w := wire.NewWriter()
	WriteType(w, original)

	tt2 := NewTypeTable()
	r := wire.NewReader(w.Bytes())
	got, err := ReadType(r, tt2)
	require.NoError(t, err)
	require.True(t, equalType(original, got))
	require.True(t, got.Varargs)
	require.NotNil(t, got.This)

	r2 := wire.NewReader(w.Bytes())
	got2, err := ReadType(r2, tt)
	require.NoError(t, err)
	require.Same(t, original, got2)
}

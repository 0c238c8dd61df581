package memory

import "github.com/xgill-go/sixgill/internal/ir"

// GetBaseBuffer strips Index/Field/Deref/VPtr layers down to the
// underlying addressable root, the Buffer strategy's notion of "which
// allocation does this lvalue index into" (spec.md §4.8 step 3).
func GetBaseBuffer(e *ir.Exp) *ir.Exp {
	for e != nil {
		switch e.Kind {
		case ir.ExpIndex, ir.ExpFld, ir.ExpVPtr:
			e = e.Target
		case ir.ExpDeref:
			e = e.Target
		default:
			return e
		}
	}
	return e
}

// strideCompatible reports whether an update of updateType is
// consistent with accessing a buffer through stride; per spec.md §4.8
// step 3 ("stride type is compatible with the update's type"), pointer
// arithmetic stride and the type actually being updated must agree on
// element width, approximated here as structural type equality (both
// interned from the same TypeTable, so this is a pointer comparison).
func strideCompatible(stride, updateType *ir.Type) bool {
	if stride == nil || updateType == nil {
		return true
	}
	return stride == updateType
}

// CheckAlias implements check_alias(update, lval, kind) for the Buffer
// strategy: two lvalues alias if GetBaseBuffer agrees and the stride is
// compatible with the update's type. Only ExpTerminate accesses consult
// this predicate (spec.md §4.8 step 3, "Only Terminate accesses consult
// the predicate") — callers should treat any other access kind as
// always-may-alias (the conservative default) rather than calling this.
func CheckAlias(update Assign, updateType *ir.Type, lval *ir.Exp, strideType *ir.Type) bool {
	if lval == nil || lval.Kind != ir.ExpTerminate {
		return true
	}
	return GetBaseBuffer(update.Lhs) == GetBaseBuffer(lval) && strideCompatible(strideType, updateType)
}

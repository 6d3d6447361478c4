package pathsym

// maxZeroElems bounds the size of array constructors ZeroValue is willing to
// materialize.
const maxZeroElems = 1 << 16

// ZeroValue synthesizes the zero value of typ. Not every type has one; ok is
// false when none can be formed and the caller falls back to a symbolic
// value.
func ZeroValue(ns *Namespace, typ Type) (Expr, bool) {
	switch t := ns.Follow(typ).(type) {
	case *BoolType:
		return NewBoolConstantExpr(false), true
	case *IntType:
		return NewConstantExpr(0, t), true
	case *FloatType:
		return NewConstantExpr(0, t), true
	case *PointerType:
		return NewConstantExpr(0, t), true // null
	case *RecordType:
		elems := make([]Expr, len(t.Fields))
		for i, f := range t.Fields {
			elem, ok := ZeroValue(ns, f.Type)
			if !ok {
				return nil, false
			}
			elems[i] = elem
		}
		return NewRecordExpr(elems, typ), true
	case *ArrayType:
		n, ok := t.Len()
		if !ok || n > maxZeroElems {
			return nil, false
		}
		return zeroElems(ns, t.Elem, n, func(elems []Expr) Expr {
			return NewArrayExpr(elems, typ)
		})
	case *VectorType:
		n, ok := t.Len()
		if !ok || n > maxZeroElems {
			return nil, false
		}
		return zeroElems(ns, t.Elem, n, func(elems []Expr) Expr {
			return NewVectorExpr(elems, typ)
		})
	default:
		return nil, false
	}
}

func zeroElems(ns *Namespace, elem Type, n uint64, build func([]Expr) Expr) (Expr, bool) {
	elems := make([]Expr, n)
	for i := range elems {
		e, ok := ZeroValue(ns, elem)
		if !ok {
			return nil, false
		}
		elems[i] = e
	}
	return build(elems), true
}

package pathsym

// PointerResolver maps a pointer-valued expression to the location it points
// at during the dereferencing phase.
type PointerResolver interface {
	// Resolve returns the location pointer points at, as an expression of
	// typ. The result may mix SSA and non-SSA subexpressions; the
	// instantiation rules absorb whatever remains.
	Resolve(pointer Expr, typ Type) (Expr, error)
}

// derefRec rewrites every dereference in src into the location its pointer
// resolves to. The pointer itself goes through a full read first so that as
// many pointers as possible resolve to concrete locations.
func (s *State) derefRec(src Expr, propagate bool) (Expr, error) {
	if deref, ok := src.(*DerefExpr); ok {
		address, err := s.Read(deref.Pointer, propagate)
		if err != nil {
			return nil, err
		}
		return s.config.Resolver.Resolve(address, deref.Type)
	}
	return mapOperands(src, func(child Expr) (Expr, error) {
		return s.derefRec(child, propagate)
	})
}

// ObjectResolver is the default PointerResolver. It resolves address-of
// expressions to their objects, distributes over guarded pointers, looks
// through casts, and maps null to a failed dereference. Anything else stays
// a dereference for the instantiation rules to absorb.
type ObjectResolver struct {
	NS *Namespace
}

// Resolve returns the location pointer points at.
func (r *ObjectResolver) Resolve(pointer Expr, typ Type) (Expr, error) {
	switch pointer := pointer.(type) {
	case *AddrOfExpr:
		// A read through a differently-typed pointer reinterprets the
		// object's bytes.
		if compareTypes(r.NS.Follow(ExprType(pointer.X)), r.NS.Follow(typ)) != 0 {
			offset := NewConstantExpr(0, &IntType{Width: Width64, Signed: true})
			return NewByteExtractExpr(pointer.X, offset, LittleEndian, typ), nil
		}
		return pointer.X, nil

	case *ConstantExpr:
		if pointer.IsZero() {
			return NewFailedDerefExpr(typ), nil
		}
		// Integer-valued pointer, e.g. a literal cast to a pointer.
		return NewDerefExpr(pointer, typ), nil

	case *IfExpr:
		then, err := r.Resolve(pointer.Then, typ)
		if err != nil {
			return nil, err
		}
		els, err := r.Resolve(pointer.Else, typ)
		if err != nil {
			return nil, err
		}
		return NewIfExpr(pointer.Cond, then, els), nil

	case *CondExpr:
		cases := make([]CondCase, len(pointer.Cases))
		for i, c := range pointer.Cases {
			value, err := r.Resolve(c.Value, typ)
			if err != nil {
				return nil, err
			}
			cases[i] = CondCase{Guard: c.Guard, Value: value}
		}
		return NewCondExpr(cases, typ), nil

	case *CastExpr:
		return r.Resolve(pointer.X, typ)

	default:
		return NewDerefExpr(pointer, typ), nil
	}
}

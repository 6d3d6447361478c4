package pathsym

import (
	"fmt"
	"log"
)

// maxExpandElems bounds materialized constructor sizes during compound
// expansion and index case splitting.
const maxExpandElems = 1 << 16

// Read resolves every program-state reference in src into its current SSA
// form. Dereferences are resolved first, then symbols, members and indexes
// are rewritten bottom-up, and the result is simplified. With propagate set,
// variables whose current value is known read as that value instead of an
// SSA symbol. The input expression is not modified.
func (s *State) Read(src Expr, propagate bool) (Expr, error) {
	expr := CloneExpr(src)

	// Propagation is forced on while resolving pointers.
	expr, err := s.derefRec(expr, true)
	if err != nil {
		return nil, err
	}

	expr, err = s.instantiate(expr, propagate)
	if err != nil {
		return nil, err
	}

	expr = s.simplify(expr)

	if s.config.Trace {
		log.Printf("[read] %s => %s", src, expr)
	}
	return expr, nil
}

// instantiate rewrites expr bottom-up using the instantiation rules. Nodes
// are visited right-to-left; a node a rule replaces is not descended into.
func (s *State) instantiate(expr Expr, propagate bool) (Expr, error) {
	root := expr
	stack := []*Expr{&root}
	for len(stack) > 0 {
		slot := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		out, done, err := s.instantiateNode(*slot, propagate)
		if err != nil {
			return nil, err
		}
		if done {
			*slot = out
			continue
		}
		stack = append(stack, exprOperands(*slot)...)
	}
	return root, nil
}

// instantiateNode applies the first instantiation rule that matches node.
// It returns the replacement and done=true when a rule fired, or done=false
// when the node is to be descended into instead.
func (s *State) instantiateNode(node Expr, propagate bool) (Expr, bool, error) {
	// Symbol, member and index chains resolve as a whole.
	if out, err := s.readSymbolMemberIndex(node, propagate); err == nil {
		return out, true, nil
	} else if err != errNotApplicable {
		return nil, false, err
	}

	switch node := node.(type) {
	case *AddrOfExpr:
		// Taking an address is not a read of the object.
		return node, true, nil

	case *SideEffectExpr:
		if node.Statement != StatementNondet {
			return nil, false, fmt.Errorf("%w: %s", ErrUnexpectedSideEffect, node.Statement)
		}
		aux := s.registry.MintAux("nondet", node.Type)
		out, err := s.instantiate(aux, false)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil

	case *DerefExpr, *FailedDerefExpr:
		// A dereference the pointer phase could not resolve becomes an
		// unconstrained placeholder.
		aux := s.registry.MintAux("deref", ExprType(node))
		out, err := s.instantiate(aux, false)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil

	case *MemberExpr:
		switch compound := s.ns().Follow(ExprType(node.X)).(type) {
		case *RecordType:
			return nil, false, nil
		case *UnionType:
			return nil, false, fmt.Errorf("%w: %s.%s", ErrUnionMember, compound, node.Field)
		default:
			return nil, false, fmt.Errorf("%w: %s", ErrNonCompoundMember, ExprType(node.X))
		}

	case *SymbolExpr:
		// Only SSA symbols and opaque function values survive to this point.
		if !node.SSA {
			switch s.ns().Follow(node.Type).(type) {
			case *FuncType, *MathFuncType:
			default:
				assert(false, "unresolved symbol in instantiation: %s", node.Ident)
			}
		}
		return node, true, nil
	}

	return nil, false, nil
}

// readSymbolMemberIndex resolves a symbol, member or index chain to its SSA
// form. It reports errNotApplicable when node is not such a chain.
func (s *State) readSymbolMemberIndex(src Expr, propagate bool) (Expr, error) {
	switch src.(type) {
	case *SymbolExpr, *MemberExpr, *IndexExpr:
	default:
		return nil, errNotApplicable
	}

	// Function values are opaque.
	switch s.ns().Follow(ExprType(src)).(type) {
	case *FuncType, *MathFuncType:
		return nil, errNotApplicable
	}

	// A read of an unbounded array element keeps its index; the solver's
	// array theory takes over. The array itself still resolves as a whole.
	if index, ok := src.(*IndexExpr); ok {
		if t, ok := s.ns().Follow(ExprType(index.Array)).(*ArrayType); ok && t.IsUnbounded() {
			array, err := s.readSymbolMemberIndex(index.Array, propagate)
			if err != nil {
				return nil, err
			}
			idx, err := s.instantiate(CloneExpr(index.Index), propagate)
			if err != nil {
				return nil, err
			}
			return NewIndexExpr(array, idx, index.Type), nil
		}
	}

	// A whole-compound read expands into a constructor over the components;
	// each component then resolves independently.
	expanded, err := s.expandCompound(src)
	if err != nil {
		return nil, err
	}
	switch expanded.(type) {
	case *RecordExpr, *ArrayExpr, *VectorExpr:
		return mapOperands(expanded, func(child Expr) (Expr, error) {
			out, err := s.readSymbolMemberIndex(child, propagate)
			if err == errNotApplicable {
				return nil, fmt.Errorf("unresolvable compound element: %s", child)
			}
			return out, err
		})
	}

	// A bounded array read at a symbolic position splits into one case per
	// element.
	if index, ok := src.(*IndexExpr); ok {
		split, err := s.splitIndex(index, propagate)
		if err != nil {
			return nil, err
		}
		if split != index {
			return s.instantiate(split, propagate)
		}
	}

	root, suffix, err := s.flattenAccess(src, propagate)
	if err != nil {
		return nil, err
	}

	v, err := s.registry.VarInfo(root.Ident, suffix, src)
	if err != nil {
		return nil, err
	}

	vs := s.varState(v)
	if propagate && vs.Value != nil {
		return vs.Value, nil
	}
	if vs.Symbol != nil {
		return vs.Symbol, nil
	}

	// Never read before: mint the variable's first SSA symbol. Under
	// propagation a fresh variable reads as its zero value when the type
	// has one.
	vs.Symbol = v.MintSSA()
	if propagate {
		if zero, ok := ZeroValue(s.ns(), v.Type); ok {
			vs.Value = zero
			s.setVarState(v, vs)
			return zero, nil
		}
	}
	s.setVarState(v, vs)
	return vs.Symbol, nil
}

// flattenAccess reduces a symbol/member/index chain to its root and the
// flattened access suffix. Index positions are read through the full
// pipeline; symbolic positions collapse into the "[*]" suffix. It reports
// errNotApplicable when src is not a chain rooted at a program variable.
func (s *State) flattenAccess(src Expr, propagate bool) (*SymbolExpr, string, error) {
	suffix := ""
	current := src
	for {
		switch node := current.(type) {
		case *MemberExpr:
			switch s.ns().Follow(ExprType(node.X)).(type) {
			case *RecordType:
				suffix = "." + node.Field + suffix
				current = node.X
			default:
				// Union members deliberately do not resolve here; they
				// read through byte reinterpretation instead.
				return nil, "", errNotApplicable
			}

		case *IndexExpr:
			index, err := s.Read(node.Index, propagate)
			if err != nil {
				return nil, "", err
			}
			suffix = indexSuffix(index) + suffix
			current = node.Array

		case *SymbolExpr:
			if node.SSA {
				return nil, "", errNotApplicable
			}
			return node, suffix, nil

		default:
			return nil, "", errNotApplicable
		}
	}
}

// indexSuffix renders one index step of an access suffix.
func indexSuffix(index Expr) string {
	if constant, ok := index.(*ConstantExpr); ok {
		return fmt.Sprintf("[%d]", constant.Int64())
	}
	return "[*]"
}

// expandCompound rewrites a read of a whole record, bounded array or vector
// into a constructor over its components. Anything else is returned
// unchanged.
func (s *State) expandCompound(src Expr) (Expr, error) {
	switch t := s.ns().Follow(ExprType(src)).(type) {
	case *RecordType:
		elems := make([]Expr, len(t.Fields))
		for i, field := range t.Fields {
			elems[i] = NewMemberExpr(CloneExpr(src), field.Name, field.Type)
		}
		return &RecordExpr{Elems: elems, Type: ExprType(src)}, nil

	case *ArrayType:
		if t.IsUnbounded() {
			// Nothing to expand; the array resolves as a single object.
			return src, nil
		}
		n, _ := t.Len()
		return s.expandElems(src, t.Elem, n, func(elems []Expr) Expr {
			return &ArrayExpr{Elems: elems, Type: ExprType(src)}
		})

	case *VectorType:
		n, ok := t.Len()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNonConstantVectorSize, t)
		}
		return s.expandElems(src, t.Elem, n, func(elems []Expr) Expr {
			return &VectorExpr{Elems: elems, Type: ExprType(src)}
		})
	}
	return src, nil
}

// expandElems builds the per-element indexes of a sized compound.
func (s *State) expandElems(src Expr, elem Type, n uint64, build func([]Expr) Expr) (Expr, error) {
	if n > maxExpandElems {
		return nil, fmt.Errorf("failed to convert array size: %d", n)
	}

	elems := make([]Expr, n)
	for i := uint64(0); i < n; i++ {
		index := NewIndexExpr(CloneExpr(src), NewConstantExpr(i, indexType()), elem)
		elems[i] = s.simplify(index)
	}
	return build(elems), nil
}

// splitIndex rewrites a bounded array read at a symbolic position into a
// flat case selection with one case per element. Reads at constant
// positions and reads of unbounded arrays return src unchanged.
func (s *State) splitIndex(src *IndexExpr, propagate bool) (Expr, error) {
	t, ok := s.ns().Follow(ExprType(src.Array)).(*ArrayType)
	if !ok || t.IsUnbounded() {
		return src, nil
	}

	index, err := s.Read(src.Index, propagate)
	if err != nil {
		return nil, err
	}
	if IsConstantExpr(index) {
		return src, nil
	}

	n, ok := t.Len()
	assert(ok, "bounded array without constant size: %s", t)
	if n > maxExpandElems {
		return nil, fmt.Errorf("failed to convert array size: %d", n)
	}

	indexType := ExprType(src.Index)
	cases := make([]CondCase, n)
	for i := uint64(0); i < n; i++ {
		position := NewConstantExpr(i, indexType)
		cases[i] = CondCase{
			Guard: NewBinaryExpr(EQ, CloneExpr(index), position),
			Value: NewIndexExpr(CloneExpr(src.Array), position, t.Elem),
		}
	}
	return &CondExpr{Cases: cases, Type: src.Type}, nil
}

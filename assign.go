package pathsym

import (
	"fmt"
	"log"
)

// Assign records the effect of storing rhs into the location lhs. Every
// scalar leaf of lhs advances to a fresh SSA version, the equation between
// the new version and the matching piece of the stored value joins the path
// constraints, and concrete values are recorded for propagation. lhs must
// resolve to symbol, member or index chains over program variables.
func (s *State) Assign(lhs, rhs Expr) error {
	value, err := s.Read(rhs, true)
	if err != nil {
		return err
	}

	// Pointer targets on the left resolve to locations; the locations
	// themselves are not read.
	target, err := s.derefRec(CloneExpr(lhs), true)
	if err != nil {
		return err
	}

	return s.assignRec(target, value)
}

// assignRec decomposes compound stores field by field and element by
// element, in step with the decomposition Read applies to compound reads.
func (s *State) assignRec(lhs, rhs Expr) error {
	switch t := s.ns().Follow(ExprType(lhs)).(type) {
	case *RecordType:
		for _, field := range t.Fields {
			piece := s.simplify(NewMemberExpr(CloneExpr(rhs), field.Name, field.Type))
			dst := NewMemberExpr(CloneExpr(lhs), field.Name, field.Type)
			if err := s.assignRec(dst, piece); err != nil {
				return err
			}
		}
		return nil

	case *ArrayType:
		n, ok := t.Len()
		if !ok || n > maxExpandElems {
			// Unbounded arrays store as whole objects.
			break
		}
		return s.assignElems(lhs, rhs, t.Elem, n)

	case *VectorType:
		n, ok := t.Len()
		if !ok {
			return fmt.Errorf("%w: %s", ErrNonConstantVectorSize, t)
		}
		return s.assignElems(lhs, rhs, t.Elem, n)
	}

	return s.storeLeaf(lhs, rhs)
}

func (s *State) assignElems(lhs, rhs Expr, elem Type, n uint64) error {
	for i := uint64(0); i < n; i++ {
		position := NewConstantExpr(i, indexType())
		piece := s.simplify(NewIndexExpr(CloneExpr(rhs), position, elem))
		dst := NewIndexExpr(CloneExpr(lhs), position, elem)
		if err := s.assignRec(dst, piece); err != nil {
			return err
		}
	}
	return nil
}

// storeLeaf advances one variable to its next SSA version and binds it to
// the stored value.
func (s *State) storeLeaf(lhs, rhs Expr) error {
	root, suffix, err := s.flattenAccess(lhs, true)
	if err == errNotApplicable {
		return fmt.Errorf("%w: %s", ErrUnsupportedAssignment, lhs)
	} else if err != nil {
		return err
	}

	v, err := s.registry.VarInfo(root.Ident, suffix, lhs)
	if err != nil {
		return err
	}

	vs := s.varState(v)
	vs.Symbol = v.MintSSA()
	if canPropagate(rhs) {
		vs.Value = rhs
	} else {
		vs.Value = nil
	}
	s.setVarState(v, vs)

	s.AddConstraint(NewBinaryExpr(EQ, vs.Symbol, rhs))

	if s.config.Trace {
		log.Printf("[assign] %s = %s", vs.Symbol, rhs)
	}
	return nil
}

// canPropagate reports whether value is concrete enough to substitute into
// later reads.
func canPropagate(value Expr) bool {
	switch value := value.(type) {
	case *ConstantExpr:
		return true
	case *AddrOfExpr:
		return true
	case *RecordExpr:
		return allPropagate(value.Elems)
	case *ArrayExpr:
		return allPropagate(value.Elems)
	case *VectorExpr:
		return allPropagate(value.Elems)
	}
	return false
}

func allPropagate(elems []Expr) bool {
	for _, elem := range elems {
		if !canPropagate(elem) {
			return false
		}
	}
	return true
}

package pathsym

import (
	"fmt"
	"log"
)

// Allocate models a dynamic allocation of count elements of type elem and
// returns the address of the fresh object. A nil count allocates a single
// element. A non-constant count is pinned to a fresh size variable so the
// object's extent can never change after the fact. With zeroed set, the
// object's initial contents are bound to zero values when the type has
// them.
func (s *State) Allocate(elem Type, count Expr, zeroed bool) (Expr, error) {
	n := s.registry.NextDynamic()

	objectType := elem
	if count != nil {
		size, err := s.Read(count, true) // allow constant propagation
		if err != nil {
			return nil, err
		}

		if !IsConstantExpr(size) {
			// A fresh variable prevents the extent from ever changing
			// after the allocation.
			sizeSymbol := &SymbolExpr{
				Ident: fmt.Sprintf("symex::dynamic_object_size%d", n),
				Type:  ExprType(size),
			}
			if err := s.Assign(sizeSymbol, size); err != nil {
				return nil, err
			}
			// Bake the size's SSA form into the type; it is not renamed
			// again.
			if size, err = s.Read(sizeSymbol, true); err != nil {
				return nil, err
			}
		}
		objectType = &ArrayType{Elem: elem, Size: size}
	}

	object := &SymbolExpr{
		Ident: fmt.Sprintf("symex_dynamic::dynamic_object%d", n),
		Type:  objectType,
	}

	if zeroed {
		if zero, ok := ZeroValue(s.ns(), objectType); ok {
			if err := s.Assign(object, zero); err != nil {
				return nil, err
			}
		}
	}

	var address Expr
	if count != nil {
		first := NewIndexExpr(object, NewConstantExpr(0, indexType()), elem)
		address = NewAddrOfExpr(first)
	} else {
		address = NewAddrOfExpr(object)
	}

	if s.config.Trace {
		log.Printf("[alloc] %s %s => %s", object.Ident, objectType, address)
	}
	return address, nil
}

package pathsym

// Simplify rewrites expr bottom-up, folding constant subexpressions and
// selections on constructors. The namespace is needed to look through named
// compound types.
func Simplify(ns *Namespace, expr Expr) Expr {
	if len(exprOperands(expr)) > 0 {
		other := shallowCopyExpr(expr)
		for _, slot := range exprOperands(other) {
			*slot = Simplify(ns, *slot)
		}
		expr = other
	}

	switch e := expr.(type) {
	case *BinaryExpr:
		return NewBinaryExpr(e.Op, e.LHS, e.RHS)
	case *NotExpr:
		return NewNotExpr(e.X)
	case *IfExpr:
		return NewIfExpr(e.Cond, e.Then, e.Else)
	case *CondExpr:
		return NewCondExpr(e.Cases, e.Type)
	case *CastExpr:
		return NewCastExpr(e.X, e.Type)
	case *IndexExpr:
		return NewIndexExpr(e.Array, e.Index, e.Type)
	case *MemberExpr:
		return simplifyMemberExpr(ns, e)
	case *DerefExpr:
		// *&x folds to x.
		if addr, ok := e.Pointer.(*AddrOfExpr); ok {
			return addr.X
		}
		return e
	case *AddrOfExpr:
		// &*p folds to p.
		if deref, ok := e.X.(*DerefExpr); ok {
			return deref.Pointer
		}
		return e
	default:
		return expr
	}
}

// simplifyMemberExpr folds field selections on record constructors. Unlike
// the constructor fold this looks through named types.
func simplifyMemberExpr(ns *Namespace, e *MemberExpr) Expr {
	x, ok := e.X.(*RecordExpr)
	if !ok {
		return e
	}
	rt, ok := ns.Follow(ExprType(x)).(*RecordType)
	if !ok {
		return e
	}
	if i, ok := rt.FieldIndex(e.Field); ok && i < len(x.Elems) {
		return x.Elems[i]
	}
	return e
}

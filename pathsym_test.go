package pathsym_test

import (
	"fmt"
	"testing"

	"github.com/pathsym/pathsym"
)

// Scalar types shared by the tests.
var (
	boolType = &pathsym.BoolType{}
	s8       = &pathsym.IntType{Width: pathsym.Width8, Signed: true}
	u8       = &pathsym.IntType{Width: pathsym.Width8}
	s32      = &pathsym.IntType{Width: pathsym.Width32, Signed: true}
	u32      = &pathsym.IntType{Width: pathsym.Width32}
	s64      = &pathsym.IntType{Width: pathsym.Width64, Signed: true}
	u64      = &pathsym.IntType{Width: pathsym.Width64}
)

// MustNewState returns a state over a fresh registry with the given
// variables declared. Fatal on error.
func MustNewState(tb testing.TB, decls ...*pathsym.Decl) *pathsym.State {
	tb.Helper()
	ns := pathsym.NewNamespace()
	for _, decl := range decls {
		ns.Declare(decl)
	}
	return pathsym.NewState(pathsym.NewRegistry(ns), pathsym.Config{})
}

// MustRead reads src in the state's current SSA form. Fatal on error.
func MustRead(tb testing.TB, state *pathsym.State, src pathsym.Expr, propagate bool) pathsym.Expr {
	tb.Helper()
	expr, err := state.Read(src, propagate)
	if err != nil {
		tb.Fatal(err)
	}
	return expr
}

// MustAssign stores rhs into lhs. Fatal on error.
func MustAssign(tb testing.TB, state *pathsym.State, lhs, rhs pathsym.Expr) {
	tb.Helper()
	if err := state.Assign(lhs, rhs); err != nil {
		tb.Fatal(err)
	}
}

// MustAllocate models a dynamic allocation and returns the address of the
// fresh object. Fatal on error.
func MustAllocate(tb testing.TB, state *pathsym.State, elem pathsym.Type, count pathsym.Expr, zeroed bool) pathsym.Expr {
	tb.Helper()
	addr, err := state.Allocate(elem, count, zeroed)
	if err != nil {
		tb.Fatal(err)
	}
	return addr
}

// Sym returns a reference to the program variable named ident.
func Sym(ident string, typ pathsym.Type) *pathsym.SymbolExpr {
	return pathsym.NewSymbolExpr(ident, typ)
}

// SSA returns the symbol of one SSA version of a variable.
func SSA(ident string, version int, typ pathsym.Type) *pathsym.SymbolExpr {
	return &pathsym.SymbolExpr{
		Ident:     fmt.Sprintf("%s#%d", ident, version),
		Type:      typ,
		SSA:       true,
		FullIdent: ident,
	}
}

package pathsym_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pathsym/pathsym"
)

func TestState_AddConstraint(t *testing.T) {
	t.Run("Append", func(t *testing.T) {
		state := MustNewState(t)
		c := &pathsym.BinaryExpr{Op: pathsym.EQ, LHS: pathsym.NewConstantExpr(5, s32), RHS: SSA("x", 0, s32), Type: boolType}
		state.AddConstraint(c)

		if diff := cmp.Diff(state.Constraints(), []pathsym.Expr{c}); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("SplitConjunctions", func(t *testing.T) {
		state := MustNewState(t)
		a := &pathsym.NotExpr{X: SSA("a", 0, boolType), Type: boolType}
		b := SSA("b", 0, boolType)
		c := SSA("c", 0, boolType)
		state.AddConstraint(&pathsym.BinaryExpr{
			Op:   pathsym.AND,
			LHS:  &pathsym.BinaryExpr{Op: pathsym.AND, LHS: a, RHS: b, Type: boolType},
			RHS:  c,
			Type: boolType,
		})

		if diff := cmp.Diff(state.Constraints(), []pathsym.Expr{a, b, c}); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestState_Fork(t *testing.T) {
	t.Run("ConstraintIsolation", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
		x0 := MustRead(t, state, Sym("x", s32), false)

		fork := state.Fork(pathsym.NewBinaryExpr(pathsym.EQ, x0, pathsym.NewConstantExpr(5, s32)))
		if got, exp := len(state.Constraints()), 0; got != exp {
			t.Fatalf("unexpected parent constraint count: %d, want %d", got, exp)
		}

		exp := []pathsym.Expr{
			&pathsym.BinaryExpr{Op: pathsym.EQ, LHS: pathsym.NewConstantExpr(5, s32), RHS: SSA("x", 0, s32), Type: boolType},
		}
		if diff := cmp.Diff(fork.Constraints(), exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("NilConstraint", func(t *testing.T) {
		state := MustNewState(t)
		fork := state.Fork(nil)
		if got, exp := len(fork.Constraints()), 0; got != exp {
			t.Fatalf("unexpected constraint count: %d, want %d", got, exp)
		}
	})

	t.Run("SharedVersionCounters", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
		MustRead(t, state, Sym("x", s32), false) // mints x#0

		fork := state.Fork(nil)
		MustAssign(t, fork, Sym("x", s32), pathsym.NewConstantExpr(1, s32))  // mints x#1
		MustAssign(t, state, Sym("x", s32), pathsym.NewConstantExpr(2, s32)) // mints x#2

		if diff := cmp.Diff(MustRead(t, fork, Sym("x", s32), false), pathsym.Expr(SSA("x", 1, s32))); diff != "" {
			t.Fatal(diff)
		}
		if diff := cmp.Diff(MustRead(t, state, Sym("x", s32), false), pathsym.Expr(SSA("x", 2, s32))); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("BindingIsolation", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
		fork := state.Fork(nil)

		MustAssign(t, fork, Sym("x", s32), pathsym.NewConstantExpr(1, s32))
		MustAssign(t, state, Sym("x", s32), pathsym.NewConstantExpr(2, s32))

		if diff := cmp.Diff(MustRead(t, fork, Sym("x", s32), true), pathsym.Expr(pathsym.NewConstantExpr(1, s32))); diff != "" {
			t.Fatal(diff)
		}
		if diff := cmp.Diff(MustRead(t, state, Sym("x", s32), true), pathsym.Expr(pathsym.NewConstantExpr(2, s32))); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestState_Dump(t *testing.T) {
	state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
	MustAssign(t, state, Sym("x", s32), pathsym.NewConstantExpr(1, s32))

	got := state.Dump()
	exp := "== VARS\n" +
		"x: symbol=(ssa x#0) value=(const 1 s32)\n" +
		"== CONSTRAINTS\n" +
		"0. (eq (const 1 s32) (ssa x#0))\n"
	if got != exp {
		t.Fatalf("unexpected dump:\n%s", got)
	}
}

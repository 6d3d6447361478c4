package pathsym_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/pathsym/pathsym"
)

func TestState_Read_Scalar(t *testing.T) {
	t.Run("FirstReadMintsVersionZero", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
		got := MustRead(t, state, Sym("x", s32), false)
		exp := SSA("x", 0, s32)
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
		first := MustRead(t, state, Sym("x", s32), false)
		second := MustRead(t, state, Sym("x", s32), false)
		if diff := cmp.Diff(second, first); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("ZeroOnFirstPropagatingRead", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
		got := MustRead(t, state, Sym("x", s32), true)
		exp := pathsym.NewConstantExpr(0, s32)
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}

		// The zero still has an SSA symbol behind it.
		if diff := cmp.Diff(MustRead(t, state, Sym("x", s32), false), pathsym.Expr(SSA("x", 0, s32))); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("PropagateAssignedValue", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
		MustAssign(t, state, Sym("x", s32), pathsym.NewConstantExpr(7, s32))

		if diff := cmp.Diff(MustRead(t, state, Sym("x", s32), true), pathsym.Expr(pathsym.NewConstantExpr(7, s32))); diff != "" {
			t.Fatal(diff)
		}
		if diff := cmp.Diff(MustRead(t, state, Sym("x", s32), false), pathsym.Expr(SSA("x", 0, s32))); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("InputUnmodified", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "x", Type: s32})
		src := &pathsym.BinaryExpr{Op: pathsym.ADD, LHS: Sym("x", s32), RHS: pathsym.NewConstantExpr(1, s32), Type: s32}
		MustRead(t, state, src, false)

		if src.LHS.(*pathsym.SymbolExpr).SSA {
			t.Fatal("input expression was modified")
		}
	})
}

func TestState_Read_Record(t *testing.T) {
	recordType := &pathsym.RecordType{Fields: []pathsym.Field{{Name: "a", Type: s32}, {Name: "b", Type: s32}}}

	t.Run("NonPropagating", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "s", Type: recordType})
		got := MustRead(t, state, Sym("s", recordType), false)
		exp := &pathsym.RecordExpr{
			Elems: []pathsym.Expr{SSA("s.a", 0, s32), SSA("s.b", 0, s32)},
			Type:  recordType,
		}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}

		// Each field resolves as its own variable; the record itself is
		// not registered.
		if got, exp := state.Registry().Len(), 2; got != exp {
			t.Fatalf("unexpected registry size: %d, want %d", got, exp)
		}
	})

	t.Run("Propagating", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "s", Type: recordType})
		got := MustRead(t, state, Sym("s", recordType), true)
		exp := &pathsym.RecordExpr{
			Elems: []pathsym.Expr{pathsym.NewConstantExpr(0, s32), pathsym.NewConstantExpr(0, s32)},
			Type:  recordType,
		}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("SingleField", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "s", Type: recordType})
		got := MustRead(t, state, pathsym.NewMemberExpr(Sym("s", recordType), "b", s32), false)
		exp := SSA("s.b", 0, s32)
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Nested", func(t *testing.T) {
		inner := &pathsym.RecordType{Fields: []pathsym.Field{{Name: "a", Type: s32}}}
		outer := &pathsym.RecordType{Fields: []pathsym.Field{{Name: "in", Type: inner}}}
		state := MustNewState(t, &pathsym.Decl{Name: "s", Type: outer})

		got := MustRead(t, state, Sym("s", outer), false)
		exp := &pathsym.RecordExpr{
			Elems: []pathsym.Expr{
				&pathsym.RecordExpr{Elems: []pathsym.Expr{SSA("s.in.a", 0, s32)}, Type: inner},
			},
			Type: outer,
		}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("InputUnmodified", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "s", Type: recordType})
		src := &pathsym.MemberExpr{X: Sym("s", recordType), Field: "a", Type: s32}
		MustRead(t, state, src, false)

		if src.X.(*pathsym.SymbolExpr).SSA {
			t.Fatal("input expression was modified")
		}
	})
}

func TestState_Read_Union(t *testing.T) {
	unionType := &pathsym.UnionType{Fields: []pathsym.Field{
		{Name: "i", Type: s32},
		{Name: "f", Type: &pathsym.FloatType{Width: 32}},
	}}

	t.Run("WholeUnion", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "u", Type: unionType})
		got := MustRead(t, state, Sym("u", unionType), false)
		exp := SSA("u", 0, unionType)
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Member", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "u", Type: unionType})
		if _, err := state.Read(pathsym.NewMemberExpr(Sym("u", unionType), "i", s32), false); !errors.Is(err, pathsym.ErrUnionMember) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestState_Read_Array(t *testing.T) {
	arrayType := &pathsym.ArrayType{Elem: s32, Size: pathsym.NewConstantExpr(4, s64)}

	t.Run("ConstantIndex", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "arr", Type: arrayType})
		got := MustRead(t, state, pathsym.NewIndexExpr(Sym("arr", arrayType), pathsym.NewConstantExpr(2, s32), s32), false)
		exp := SSA("arr[2]", 0, s32)
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("SymbolicIndexSplits", func(t *testing.T) {
		state := MustNewState(t,
			&pathsym.Decl{Name: "arr", Type: arrayType},
			&pathsym.Decl{Name: "i", Type: s32},
		)
		got := MustRead(t, state, pathsym.NewIndexExpr(Sym("arr", arrayType), Sym("i", s32), s32), false)

		cases := make([]pathsym.CondCase, 4)
		for k := range cases {
			cases[k] = pathsym.CondCase{
				Guard: &pathsym.BinaryExpr{Op: pathsym.EQ, LHS: pathsym.NewConstantExpr(uint64(k), s32), RHS: SSA("i", 0, s32), Type: boolType},
				Value: SSA(fmt.Sprintf("arr[%d]", k), 0, s32),
			}
		}
		exp := &pathsym.CondExpr{Cases: cases, Type: s32}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatalf("unexpected case split: %s\ngot:\n%s", diff, spew.Sdump(got))
		}
	})

	t.Run("SymbolicIndexRegistersElements", func(t *testing.T) {
		state := MustNewState(t,
			&pathsym.Decl{Name: "arr", Type: arrayType},
			&pathsym.Decl{Name: "i", Type: s32},
		)
		MustRead(t, state, pathsym.NewIndexExpr(Sym("arr", arrayType), Sym("i", s32), s32), false)

		// The index resolves first; elements resolve right to left.
		got := state.Registry().Dump()
		exp := "arr[0]: kind=procedure-local number=4 type=s32\n" +
			"arr[1]: kind=procedure-local number=3 type=s32\n" +
			"arr[2]: kind=procedure-local number=2 type=s32\n" +
			"arr[3]: kind=procedure-local number=1 type=s32\n" +
			"i: kind=procedure-local number=0 type=s32\n"
		if got != exp {
			t.Fatalf("unexpected dump:\n%s", got)
		}
	})

	t.Run("WholeArray", func(t *testing.T) {
		shortType := &pathsym.ArrayType{Elem: s32, Size: pathsym.NewConstantExpr(2, s64)}
		state := MustNewState(t, &pathsym.Decl{Name: "arr", Type: shortType})

		got := MustRead(t, state, Sym("arr", shortType), false)
		exp := &pathsym.ArrayExpr{
			Elems: []pathsym.Expr{SSA("arr[0]", 0, s32), SSA("arr[1]", 0, s32)},
			Type:  shortType,
		}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("WholeArrayPropagating", func(t *testing.T) {
		shortType := &pathsym.ArrayType{Elem: s32, Size: pathsym.NewConstantExpr(2, s64)}
		state := MustNewState(t, &pathsym.Decl{Name: "arr", Type: shortType})

		got := MustRead(t, state, Sym("arr", shortType), true)
		exp := &pathsym.ArrayExpr{
			Elems: []pathsym.Expr{pathsym.NewConstantExpr(0, s32), pathsym.NewConstantExpr(0, s32)},
			Type:  shortType,
		}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("UnboundedSelect", func(t *testing.T) {
		bufType := &pathsym.ArrayType{Elem: s64}
		state := MustNewState(t,
			&pathsym.Decl{Name: "buf", Type: bufType},
			&pathsym.Decl{Name: "i", Type: s32},
		)

		// Unbounded arrays keep their symbolic index; the solver's array
		// theory takes over.
		got := MustRead(t, state, pathsym.NewIndexExpr(Sym("buf", bufType), Sym("i", s32), s64), false)
		exp := &pathsym.IndexExpr{Array: SSA("buf", 0, bufType), Index: SSA("i", 0, s32), Type: s64}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Oversized", func(t *testing.T) {
		bigType := &pathsym.ArrayType{Elem: s32, Size: pathsym.NewConstantExpr(1<<16+1, s64)}
		state := MustNewState(t, &pathsym.Decl{Name: "arr", Type: bigType})

		if _, err := state.Read(Sym("arr", bigType), false); err == nil || err.Error() != `failed to convert array size: 65537` {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestState_Read_Vector(t *testing.T) {
	t.Run("NonConstantSize", func(t *testing.T) {
		vectorType := &pathsym.VectorType{Elem: s32, Size: Sym("n", s64)}
		state := MustNewState(t, &pathsym.Decl{Name: "v", Type: vectorType})

		if _, err := state.Read(Sym("v", vectorType), false); !errors.Is(err, pathsym.ErrNonConstantVectorSize) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("Whole", func(t *testing.T) {
		vectorType := &pathsym.VectorType{Elem: s32, Size: pathsym.NewConstantExpr(2, s64)}
		state := MustNewState(t, &pathsym.Decl{Name: "v", Type: vectorType})

		got := MustRead(t, state, Sym("v", vectorType), false)
		exp := &pathsym.VectorExpr{
			Elems: []pathsym.Expr{SSA("v[0]", 0, s32), SSA("v[1]", 0, s32)},
			Type:  vectorType,
		}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestState_Read_Nondet(t *testing.T) {
	t.Run("FreshSymbols", func(t *testing.T) {
		state := MustNewState(t)

		got := MustRead(t, state, pathsym.NewSideEffectExpr(pathsym.StatementNondet, s32), false)
		if diff := cmp.Diff(got, pathsym.Expr(SSA("symex::nondet0", 0, s32))); diff != "" {
			t.Fatal(diff)
		}

		// Each occurrence is a distinct input.
		got = MustRead(t, state, pathsym.NewSideEffectExpr(pathsym.StatementNondet, s32), false)
		if diff := cmp.Diff(got, pathsym.Expr(SSA("symex::nondet1", 0, s32))); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("NotPropagated", func(t *testing.T) {
		state := MustNewState(t)

		// Nondeterministic inputs never read as zero.
		got := MustRead(t, state, pathsym.NewSideEffectExpr(pathsym.StatementNondet, s32), true)
		if diff := cmp.Diff(got, pathsym.Expr(SSA("symex::nondet0", 0, s32))); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("UnexpectedStatement", func(t *testing.T) {
		state := MustNewState(t)
		if _, err := state.Read(pathsym.NewSideEffectExpr("allocate", s32), false); !errors.Is(err, pathsym.ErrUnexpectedSideEffect) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestState_Read_Deref(t *testing.T) {
	pointerType := &pathsym.PointerType{Elem: s32}

	t.Run("PropagatedPointer", func(t *testing.T) {
		state := MustNewState(t,
			&pathsym.Decl{Name: "p", Type: pointerType},
			&pathsym.Decl{Name: "y", Type: s32},
		)
		MustAssign(t, state, Sym("p", pointerType), pathsym.NewAddrOfExpr(Sym("y", s32)))

		got := MustRead(t, state, pathsym.NewDerefExpr(Sym("p", pointerType), s32), false)
		exp := SSA("y", 0, s32)
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("NullPointer", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "p", Type: pointerType})

		// An unassigned pointer propagates to null; the dereference
		// becomes an unconstrained placeholder.
		got := MustRead(t, state, pathsym.NewDerefExpr(Sym("p", pointerType), s32), false)
		exp := SSA("symex::deref0", 0, s32)
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("SymbolicPointer", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "p", Type: pointerType})
		MustAssign(t, state, Sym("p", pointerType), pathsym.NewSideEffectExpr(pathsym.StatementNondet, pointerType))

		// The nondet input took aux slot 0.
		got := MustRead(t, state, pathsym.NewDerefExpr(Sym("p", pointerType), s32), false)
		exp := SSA("symex::deref1", 0, s32)
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("TypePunnedPointer", func(t *testing.T) {
		state := MustNewState(t, &pathsym.Decl{Name: "y", Type: s32})

		src := pathsym.NewDerefExpr(
			pathsym.NewCastExpr(pathsym.NewAddrOfExpr(Sym("y", s32)), &pathsym.PointerType{Elem: u8}),
			u8,
		)
		got := MustRead(t, state, src, false)
		exp := &pathsym.ByteExtractExpr{
			X:      SSA("y", 0, s32),
			Offset: pathsym.NewConstantExpr(0, s64),
			Endian: pathsym.LittleEndian,
			Type:   u8,
		}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("ConditionalPointer", func(t *testing.T) {
		state := MustNewState(t,
			&pathsym.Decl{Name: "c", Type: boolType},
			&pathsym.Decl{Name: "a", Type: s32},
			&pathsym.Decl{Name: "b", Type: s32},
		)
		MustAssign(t, state, Sym("c", boolType), pathsym.NewSideEffectExpr(pathsym.StatementNondet, boolType))

		src := pathsym.NewDerefExpr(pathsym.NewIfExpr(
			Sym("c", boolType),
			pathsym.NewAddrOfExpr(Sym("a", s32)),
			pathsym.NewAddrOfExpr(Sym("b", s32)),
		), s32)
		got := MustRead(t, state, src, false)
		exp := &pathsym.IfExpr{
			Cond: SSA("c", 0, boolType),
			Then: SSA("a", 0, s32),
			Else: SSA("b", 0, s32),
			Type: s32,
		}
		if diff := cmp.Diff(got, exp); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestState_Read_FuncValue(t *testing.T) {
	funcType := &pathsym.FuncType{}
	state := MustNewState(t, &pathsym.Decl{Name: "f", Type: funcType})

	// Function values are opaque; they pass through without renaming.
	got := MustRead(t, state, Sym("f", funcType), false)
	exp := Sym("f", funcType)
	if diff := cmp.Diff(got, exp); diff != "" {
		t.Fatal(diff)
	}
}

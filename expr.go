package pathsym

import (
	"bytes"
	"fmt"
	"strings"
)

// Expr represents an expression tree node.
type Expr interface {
	expr()
	String() string
}

func (*AddrOfExpr) expr()      {}
func (*ArrayExpr) expr()       {}
func (*BinaryExpr) expr()      {}
func (*ByteExtractExpr) expr() {}
func (*CastExpr) expr()        {}
func (*CondExpr) expr()        {}
func (*ConstantExpr) expr()    {}
func (*DerefExpr) expr()       {}
func (*FailedDerefExpr) expr() {}
func (*IfExpr) expr()          {}
func (*IndexExpr) expr()       {}
func (*MemberExpr) expr()      {}
func (*NotExpr) expr()         {}
func (*RecordExpr) expr()      {}
func (*SideEffectExpr) expr()  {}
func (*SymbolExpr) expr()      {}
func (*VectorExpr) expr()      {}

// ExprType returns the semantic type of the expression.
func ExprType(expr Expr) Type {
	switch expr := expr.(type) {
	case *AddrOfExpr:
		return expr.Type
	case *ArrayExpr:
		return expr.Type
	case *BinaryExpr:
		return expr.Type
	case *ByteExtractExpr:
		return expr.Type
	case *CastExpr:
		return expr.Type
	case *CondExpr:
		return expr.Type
	case *ConstantExpr:
		return expr.Type
	case *DerefExpr:
		return expr.Type
	case *FailedDerefExpr:
		return expr.Type
	case *IfExpr:
		return expr.Type
	case *IndexExpr:
		return expr.Type
	case *MemberExpr:
		return expr.Type
	case *NotExpr:
		return expr.Type
	case *RecordExpr:
		return expr.Type
	case *SideEffectExpr:
		return expr.Type
	case *SymbolExpr:
		return expr.Type
	case *VectorExpr:
		return expr.Type
	default:
		panic("unreachable")
	}
}

// BinaryOp represents a binary expression operation.
type BinaryOp int

// BinaryExpr operations. Comparison operators take their signedness from the
// operand type.
const (
	arithmetic_op_begin = BinaryOp(iota)
	ADD
	SUB
	MUL
	DIV
	REM
	AND
	OR
	XOR
	SHL
	SHR
	arithmetic_op_end

	compare_op_begin
	EQ
	NE
	LT
	LE
	GT
	GE
	compare_op_end
)

var binaryOps = [...]string{
	ADD: "add",
	SUB: "sub",
	MUL: "mul",
	DIV: "div",
	REM: "rem",
	AND: "and",
	OR:  "or",
	XOR: "xor",
	SHL: "shl",
	SHR: "shr",
	EQ:  "eq",
	NE:  "ne",
	LT:  "lt",
	LE:  "le",
	GT:  "gt",
	GE:  "ge",
}

// String returns the string representation of the operation.
func (op BinaryOp) String() string {
	if op >= 0 && op < BinaryOp(len(binaryOps)) && binaryOps[op] != "" {
		return binaryOps[op]
	}
	return fmt.Sprintf("BinaryOp<%d>", int(op))
}

// IsArithmetic returns true if op is an arithmetic operator.
func (op BinaryOp) IsArithmetic() bool {
	return op > arithmetic_op_begin && op < arithmetic_op_end
}

// IsCompare returns true if op is a comparison operator.
func (op BinaryOp) IsCompare() bool {
	return op > compare_op_begin && op < compare_op_end
}

// ConstantExpr represents a constant value of up to 64 bits.
type ConstantExpr struct {
	Value uint64
	Type  Type
}

// NewConstantExpr returns a new instance of ConstantExpr. Integer values are
// masked to the type width.
func NewConstantExpr(value uint64, typ Type) *ConstantExpr {
	switch t := typ.(type) {
	case *IntType:
		assert(t.Width >= 1 && t.Width <= 64, "unsupported constant width: %d", t.Width)
		value &= bitmask(t.Width)
	case *BoolType:
		value &= 1
	}
	return &ConstantExpr{Value: value, Type: typ}
}

// NewBoolConstantExpr is an ease of use function for creating constant boolean expressions.
func NewBoolConstantExpr(value bool) *ConstantExpr {
	if value {
		return &ConstantExpr{Value: 1, Type: &BoolType{}}
	}
	return &ConstantExpr{Value: 0, Type: &BoolType{}}
}

// String returns the string representation of the expression.
func (e *ConstantExpr) String() string {
	return fmt.Sprintf("(const %d %s)", e.Value, e.Type)
}

// IsTrue returns true if this is a boolean true expression.
func (e *ConstantExpr) IsTrue() bool {
	_, ok := e.Type.(*BoolType)
	return ok && e.Value != 0
}

// IsFalse returns true if this is a boolean false expression.
func (e *ConstantExpr) IsFalse() bool {
	_, ok := e.Type.(*BoolType)
	return ok && e.Value == 0
}

// IsZero returns true if the value is zero.
func (e *ConstantExpr) IsZero() bool { return e.Value == 0 }

// Int64 returns the value sign-extended according to the type.
func (e *ConstantExpr) Int64() int64 {
	if t, ok := e.Type.(*IntType); ok && t.Signed {
		return signExtend(e.Value, t.Width)
	}
	return int64(e.Value)
}

// SymbolExpr references a program variable or one SSA instance of it.
type SymbolExpr struct {
	Ident     string
	Type      Type
	SSA       bool
	FullIdent string // identifier the SSA instance was minted from
}

// NewSymbolExpr returns a reference to the program variable named ident.
func NewSymbolExpr(ident string, typ Type) *SymbolExpr {
	return &SymbolExpr{Ident: ident, Type: typ}
}

// String returns the string representation of the expression.
func (e *SymbolExpr) String() string {
	if e.SSA {
		return fmt.Sprintf("(ssa %s)", e.Ident)
	}
	return fmt.Sprintf("(sym %s)", e.Ident)
}

// MemberExpr selects the named field of a record or union value.
type MemberExpr struct {
	X     Expr
	Field string
	Type  Type
}

// NewMemberExpr returns a field selection on x.
// Selections on record constructors fold to the field value.
func NewMemberExpr(x Expr, field string, typ Type) Expr {
	if x, ok := x.(*RecordExpr); ok {
		if rt, ok := ExprType(x).(*RecordType); ok {
			if i, ok := rt.FieldIndex(field); ok && i < len(x.Elems) {
				return x.Elems[i]
			}
		}
	}
	return &MemberExpr{X: x, Field: field, Type: typ}
}

// String returns the string representation of the expression.
func (e *MemberExpr) String() string {
	return fmt.Sprintf("(member %s %s)", e.X, e.Field)
}

// IndexExpr selects one element of an array or vector value.
type IndexExpr struct {
	Array Expr
	Index Expr
	Type  Type
}

// NewIndexExpr returns an element selection on array.
// Constant selections on array and vector constructors fold to the element.
func NewIndexExpr(array, index Expr, typ Type) Expr {
	if index, ok := index.(*ConstantExpr); ok {
		switch array := array.(type) {
		case *ArrayExpr:
			if index.Value < uint64(len(array.Elems)) {
				return array.Elems[index.Value]
			}
		case *VectorExpr:
			if index.Value < uint64(len(array.Elems)) {
				return array.Elems[index.Value]
			}
		}
	}
	return &IndexExpr{Array: array, Index: index, Type: typ}
}

// String returns the string representation of the expression.
func (e *IndexExpr) String() string {
	return fmt.Sprintf("(index %s %s)", e.Array, e.Index)
}

// DerefExpr reads the value a pointer expression points to.
type DerefExpr struct {
	Pointer Expr
	Type    Type
}

// NewDerefExpr returns a dereference of pointer yielding a value of typ.
func NewDerefExpr(pointer Expr, typ Type) *DerefExpr {
	return &DerefExpr{Pointer: pointer, Type: typ}
}

// String returns the string representation of the expression.
func (e *DerefExpr) String() string {
	return fmt.Sprintf("(deref %s)", e.Pointer)
}

// AddrOfExpr takes the address of an addressable expression.
type AddrOfExpr struct {
	X    Expr
	Type Type
}

// NewAddrOfExpr returns the address of x.
func NewAddrOfExpr(x Expr) *AddrOfExpr {
	return &AddrOfExpr{X: x, Type: &PointerType{Elem: ExprType(x)}}
}

// String returns the string representation of the expression.
func (e *AddrOfExpr) String() string {
	return fmt.Sprintf("(addr %s)", e.X)
}

// Side effect statements.
const (
	StatementNondet = "nondet"
)

// SideEffectExpr marks a point where evaluation has an effect on the program
// state. Only nondeterministic input effects may appear in read expressions.
type SideEffectExpr struct {
	Statement string
	Type      Type
}

// NewSideEffectExpr returns a side effect marker of the given statement kind.
func NewSideEffectExpr(statement string, typ Type) *SideEffectExpr {
	return &SideEffectExpr{Statement: statement, Type: typ}
}

// String returns the string representation of the expression.
func (e *SideEffectExpr) String() string {
	return fmt.Sprintf("(side-effect %s %s)", e.Statement, e.Type)
}

// FailedDerefExpr marks a dereference the pointer resolution could not
// resolve to any object. It reads as an unconstrained value.
type FailedDerefExpr struct {
	Type Type
}

// NewFailedDerefExpr returns a failed dereference marker of typ.
func NewFailedDerefExpr(typ Type) *FailedDerefExpr {
	return &FailedDerefExpr{Type: typ}
}

// String returns the string representation of the expression.
func (e *FailedDerefExpr) String() string {
	return fmt.Sprintf("(failed-deref %s)", e.Type)
}

// Endian represents a byte order.
type Endian int

// Byte orders.
const (
	LittleEndian = Endian(iota)
	BigEndian
)

// ByteExtractExpr reinterprets the bytes of x at a byte offset as a value of
// another type. Reads pass it through for the solver to decompose.
type ByteExtractExpr struct {
	X      Expr
	Offset Expr
	Endian Endian
	Type   Type
}

// NewByteExtractExpr returns a byte reinterpretation of x at offset.
func NewByteExtractExpr(x, offset Expr, endian Endian, typ Type) *ByteExtractExpr {
	return &ByteExtractExpr{X: x, Offset: offset, Endian: endian, Type: typ}
}

// String returns the string representation of the expression.
func (e *ByteExtractExpr) String() string {
	if e.Endian == BigEndian {
		return fmt.Sprintf("(byte-extract-be %s %s)", e.X, e.Offset)
	}
	return fmt.Sprintf("(byte-extract-le %s %s)", e.X, e.Offset)
}

// RecordExpr constructs a record value from ordered field values.
type RecordExpr struct {
	Elems []Expr
	Type  Type
}

// NewRecordExpr returns a record constructor.
func NewRecordExpr(elems []Expr, typ Type) *RecordExpr {
	return &RecordExpr{Elems: elems, Type: typ}
}

// String returns the string representation of the expression.
func (e *RecordExpr) String() string { return formatCompound("record", e.Elems) }

// ArrayExpr constructs an array value from ordered element values.
type ArrayExpr struct {
	Elems []Expr
	Type  Type
}

// NewArrayExpr returns an array constructor.
func NewArrayExpr(elems []Expr, typ Type) *ArrayExpr {
	return &ArrayExpr{Elems: elems, Type: typ}
}

// String returns the string representation of the expression.
func (e *ArrayExpr) String() string { return formatCompound("array", e.Elems) }

// VectorExpr constructs a vector value from ordered element values.
type VectorExpr struct {
	Elems []Expr
	Type  Type
}

// NewVectorExpr returns a vector constructor.
func NewVectorExpr(elems []Expr, typ Type) *VectorExpr {
	return &VectorExpr{Elems: elems, Type: typ}
}

// String returns the string representation of the expression.
func (e *VectorExpr) String() string { return formatCompound("vector", e.Elems) }

func formatCompound(kind string, elems []Expr) string {
	var buf bytes.Buffer
	buf.WriteString("(")
	buf.WriteString(kind)
	for _, elem := range elems {
		buf.WriteString(" ")
		buf.WriteString(elem.String())
	}
	buf.WriteString(")")
	return buf.String()
}

// IfExpr selects between two values based on a boolean condition.
type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Type Type
}

// NewIfExpr returns a conditional selection between then & els.
// Constant conditions fold to the selected branch.
func NewIfExpr(cond, then, els Expr) Expr {
	if cond, ok := cond.(*ConstantExpr); ok {
		if cond.IsTrue() {
			return then
		} else if cond.IsFalse() {
			return els
		}
	}
	if CompareExpr(then, els) == 0 {
		return then
	}
	return &IfExpr{Cond: cond, Then: then, Else: els, Type: ExprType(then)}
}

// String returns the string representation of the expression.
func (e *IfExpr) String() string {
	return fmt.Sprintf("(if %s %s %s)", e.Cond, e.Then, e.Else)
}

// CondCase is a single guarded alternative of a CondExpr.
type CondCase struct {
	Guard Expr
	Value Expr
}

// CondExpr selects the value of the first case whose guard holds. The case
// list is flat and ordered; it is never nested.
type CondExpr struct {
	Cases []CondCase
	Type  Type
}

// NewCondExpr returns a guarded case selection.
// Cases with constant false guards are dropped and a leading constant true
// guard folds to its value.
func NewCondExpr(cases []CondCase, typ Type) Expr {
	other := make([]CondCase, 0, len(cases))
	for _, c := range cases {
		if IsConstantFalse(c.Guard) {
			continue
		}
		if IsConstantTrue(c.Guard) && len(other) == 0 {
			return c.Value
		}
		other = append(other, c)
	}
	return &CondExpr{Cases: other, Type: typ}
}

// String returns the string representation of the expression.
func (e *CondExpr) String() string {
	var buf bytes.Buffer
	buf.WriteString("(cond")
	for _, c := range e.Cases {
		fmt.Fprintf(&buf, " (%s %s)", c.Guard, c.Value)
	}
	buf.WriteString(")")
	return buf.String()
}

// BinaryExpr represents an operation on two expressions.
type BinaryExpr struct {
	Op   BinaryOp
	LHS  Expr
	RHS  Expr
	Type Type
}

// NewBinaryExpr returns a new instance of BinaryExpr.
// Attempts to simplify the expression if possible.
func NewBinaryExpr(op BinaryOp, lhs, rhs Expr) Expr {
	switch op {
	// Arithmetic operators
	case ADD:
		return newAddExpr(lhs, rhs)
	case SUB:
		return newSubExpr(lhs, rhs)
	case MUL:
		return newMulExpr(lhs, rhs)
	case DIV:
		return newDivExpr(lhs, rhs)
	case REM:
		return newRemExpr(lhs, rhs)
	case AND:
		return newAndExpr(lhs, rhs)
	case OR:
		return newOrExpr(lhs, rhs)
	case XOR:
		return newXorExpr(lhs, rhs)
	case SHL:
		return newShiftExpr(SHL, lhs, rhs)
	case SHR:
		return newShiftExpr(SHR, lhs, rhs)

	// Comparison operators
	case EQ:
		return newEqExpr(lhs, rhs)
	case NE:
		return newNeExpr(lhs, rhs)
	case LT:
		return newLtExpr(lhs, rhs)
	case GT:
		return newLtExpr(rhs, lhs) // reverse
	case LE:
		return newLeExpr(lhs, rhs)
	case GE:
		return newLeExpr(rhs, lhs) // reverse

	default:
		panic("unreachable")
	}
}

// String returns the string representation of the expression.
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Op, e.LHS, e.RHS)
}

// newAddExpr returns the expression representing the sum of lhs & rhs.
func newAddExpr(lhs, rhs Expr) Expr {
	// Move constant expression to left hand side.
	if !IsConstantExpr(lhs) && IsConstantExpr(rhs) {
		lhs, rhs = rhs, lhs
	}

	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(ADD, lhs, rhs); folded != nil {
				return folded
			}
		}
		if isIntType(lhs.Type) && lhs.IsZero() {
			return rhs
		}
	}
	return &BinaryExpr{Op: ADD, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newSubExpr returns an expression representing the difference of lhs & rhs.
func newSubExpr(lhs, rhs Expr) Expr {
	// Subtracting a value from itself is zero.
	if isIntType(ExprType(lhs)) && CompareExpr(lhs, rhs) == 0 {
		return NewConstantExpr(0, ExprType(lhs))
	}

	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(SUB, lhs, rhs); folded != nil {
				return folded
			}
		}
	}
	if rhs, ok := rhs.(*ConstantExpr); ok && isIntType(rhs.Type) && rhs.IsZero() {
		return lhs
	}
	return &BinaryExpr{Op: SUB, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newMulExpr returns an expression that represents the product of lhs & rhs.
func newMulExpr(lhs, rhs Expr) Expr {
	// Move constant expression to left hand side.
	if !IsConstantExpr(lhs) && IsConstantExpr(rhs) {
		lhs, rhs = rhs, lhs
	}

	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(MUL, lhs, rhs); folded != nil {
				return folded
			}
		}
		if isIntType(lhs.Type) {
			if lhs.IsZero() {
				return lhs
			} else if lhs.Value == 1 {
				return rhs
			}
		}
	}
	return &BinaryExpr{Op: MUL, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newDivExpr returns an expression representing the quotient of lhs & rhs.
func newDivExpr(lhs, rhs Expr) Expr {
	if rhs, ok := rhs.(*ConstantExpr); ok && isIntType(rhs.Type) {
		if rhs.Value == 1 {
			return lhs
		}
		if lhs, ok := lhs.(*ConstantExpr); ok && !rhs.IsZero() {
			if folded := foldBinaryConstants(DIV, lhs, rhs); folded != nil {
				return folded
			}
		}
	}
	return &BinaryExpr{Op: DIV, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newRemExpr returns an expression representing the remainder of lhs & rhs.
func newRemExpr(lhs, rhs Expr) Expr {
	if rhs, ok := rhs.(*ConstantExpr); ok && isIntType(rhs.Type) {
		if rhs.Value == 1 {
			return NewConstantExpr(0, ExprType(lhs))
		}
		if lhs, ok := lhs.(*ConstantExpr); ok && !rhs.IsZero() {
			if folded := foldBinaryConstants(REM, lhs, rhs); folded != nil {
				return folded
			}
		}
	}
	return &BinaryExpr{Op: REM, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newAndExpr returns an expression representing the conjunction of lhs & rhs.
func newAndExpr(lhs, rhs Expr) Expr {
	// Move constant expression to left hand side.
	if !IsConstantExpr(lhs) && IsConstantExpr(rhs) {
		lhs, rhs = rhs, lhs
	}

	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(AND, lhs, rhs); folded != nil {
				return folded
			}
		}
		switch t := lhs.Type.(type) {
		case *BoolType:
			if lhs.IsTrue() {
				return rhs
			}
			return lhs
		case *IntType:
			if lhs.IsZero() {
				return lhs
			} else if lhs.Value == bitmask(t.Width) {
				return rhs
			}
		}
	}
	return &BinaryExpr{Op: AND, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newOrExpr returns an expression representing the disjunction of lhs & rhs.
func newOrExpr(lhs, rhs Expr) Expr {
	// Move constant expression to left hand side.
	if !IsConstantExpr(lhs) && IsConstantExpr(rhs) {
		lhs, rhs = rhs, lhs
	}

	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(OR, lhs, rhs); folded != nil {
				return folded
			}
		}
		switch lhs.Type.(type) {
		case *BoolType:
			if lhs.IsFalse() {
				return rhs
			}
			return lhs
		case *IntType:
			if lhs.IsZero() {
				return rhs
			}
		}
	}
	return &BinaryExpr{Op: OR, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newXorExpr returns an expression representing the exclusive-or of lhs & rhs.
func newXorExpr(lhs, rhs Expr) Expr {
	// Move constant expression to left hand side.
	if !IsConstantExpr(lhs) && IsConstantExpr(rhs) {
		lhs, rhs = rhs, lhs
	}

	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(XOR, lhs, rhs); folded != nil {
				return folded
			}
		}
		if lhs.IsZero() {
			return rhs
		}
	}
	return &BinaryExpr{Op: XOR, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newShiftExpr returns an expression shifting lhs by rhs bits.
func newShiftExpr(op BinaryOp, lhs, rhs Expr) Expr {
	if rhs, ok := rhs.(*ConstantExpr); ok {
		if rhs.IsZero() {
			return lhs
		}
		if lhs, ok := lhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(op, lhs, rhs); folded != nil {
				return folded
			}
		}
	}
	return &BinaryExpr{Op: op, LHS: lhs, RHS: rhs, Type: ExprType(lhs)}
}

// newEqExpr returns an expression comparing lhs & rhs for equality.
func newEqExpr(lhs, rhs Expr) Expr {
	if CompareExpr(lhs, rhs) == 0 {
		return NewBoolConstantExpr(true)
	}

	// Move constant expression to left hand side.
	if !IsConstantExpr(lhs) && IsConstantExpr(rhs) {
		lhs, rhs = rhs, lhs
	}

	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(EQ, lhs, rhs); folded != nil {
				return folded
			}
		}
		if lhs.IsTrue() {
			return rhs
		} else if lhs.IsFalse() {
			return NewNotExpr(rhs)
		}
	}
	return &BinaryExpr{Op: EQ, LHS: lhs, RHS: rhs, Type: &BoolType{}}
}

// newNeExpr returns an expression comparing lhs & rhs for inequality.
func newNeExpr(lhs, rhs Expr) Expr {
	if CompareExpr(lhs, rhs) == 0 {
		return NewBoolConstantExpr(false)
	}
	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(NE, lhs, rhs); folded != nil {
				return folded
			}
		}
	}
	return &BinaryExpr{Op: NE, LHS: lhs, RHS: rhs, Type: &BoolType{}}
}

// newLtExpr returns an expression representing lhs < rhs.
func newLtExpr(lhs, rhs Expr) Expr {
	if CompareExpr(lhs, rhs) == 0 {
		return NewBoolConstantExpr(false)
	}
	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(LT, lhs, rhs); folded != nil {
				return folded
			}
		}
	}
	return &BinaryExpr{Op: LT, LHS: lhs, RHS: rhs, Type: &BoolType{}}
}

// newLeExpr returns an expression representing lhs <= rhs.
func newLeExpr(lhs, rhs Expr) Expr {
	if CompareExpr(lhs, rhs) == 0 {
		return NewBoolConstantExpr(true)
	}
	if lhs, ok := lhs.(*ConstantExpr); ok {
		if rhs, ok := rhs.(*ConstantExpr); ok {
			if folded := foldBinaryConstants(LE, lhs, rhs); folded != nil {
				return folded
			}
		}
	}
	return &BinaryExpr{Op: LE, LHS: lhs, RHS: rhs, Type: &BoolType{}}
}

// foldBinaryConstants computes op over two constants of the same type.
// Returns nil if the operands cannot be folded.
func foldBinaryConstants(op BinaryOp, lhs, rhs *ConstantExpr) Expr {
	switch t := lhs.Type.(type) {
	case *BoolType:
		lv, rv := lhs.Value != 0, rhs.Value != 0
		switch op {
		case AND:
			return NewBoolConstantExpr(lv && rv)
		case OR:
			return NewBoolConstantExpr(lv || rv)
		case XOR:
			return NewBoolConstantExpr(lv != rv)
		case EQ:
			return NewBoolConstantExpr(lv == rv)
		case NE:
			return NewBoolConstantExpr(lv != rv)
		}
		return nil

	case *IntType:
		if t.Width < 1 || t.Width > 64 {
			return nil
		}
		lv, rv := lhs.Value, rhs.Value
		switch op {
		case ADD:
			return NewConstantExpr(lv+rv, t)
		case SUB:
			return NewConstantExpr(lv-rv, t)
		case MUL:
			return NewConstantExpr(lv*rv, t)
		case DIV:
			if rv == 0 {
				return nil
			} else if t.Signed {
				return NewConstantExpr(uint64(signExtend(lv, t.Width)/signExtend(rv, t.Width)), t)
			}
			return NewConstantExpr(lv/rv, t)
		case REM:
			if rv == 0 {
				return nil
			} else if t.Signed {
				return NewConstantExpr(uint64(signExtend(lv, t.Width)%signExtend(rv, t.Width)), t)
			}
			return NewConstantExpr(lv%rv, t)
		case AND:
			return NewConstantExpr(lv&rv, t)
		case OR:
			return NewConstantExpr(lv|rv, t)
		case XOR:
			return NewConstantExpr(lv^rv, t)
		case SHL:
			return NewConstantExpr(lv<<shiftCount(rv), t)
		case SHR:
			if t.Signed {
				return NewConstantExpr(uint64(signExtend(lv, t.Width)>>shiftCount(rv)), t)
			}
			return NewConstantExpr(lv>>shiftCount(rv), t)
		case EQ:
			return NewBoolConstantExpr(lv == rv)
		case NE:
			return NewBoolConstantExpr(lv != rv)
		case LT:
			if t.Signed {
				return NewBoolConstantExpr(signExtend(lv, t.Width) < signExtend(rv, t.Width))
			}
			return NewBoolConstantExpr(lv < rv)
		case LE:
			if t.Signed {
				return NewBoolConstantExpr(signExtend(lv, t.Width) <= signExtend(rv, t.Width))
			}
			return NewBoolConstantExpr(lv <= rv)
		}
		return nil

	case *PointerType:
		switch op {
		case EQ:
			return NewBoolConstantExpr(lhs.Value == rhs.Value)
		case NE:
			return NewBoolConstantExpr(lhs.Value != rhs.Value)
		}
		return nil

	default:
		return nil
	}
}

// NotExpr represents the complement of a boolean or integer expression.
type NotExpr struct {
	X    Expr
	Type Type
}

// NewNotExpr returns the complement of x.
// Attempts to simplify the expression if possible.
func NewNotExpr(x Expr) Expr {
	switch x := x.(type) {
	case *ConstantExpr:
		switch t := x.Type.(type) {
		case *BoolType:
			return NewBoolConstantExpr(x.Value == 0)
		case *IntType:
			return NewConstantExpr(^x.Value, t)
		}
	case *NotExpr:
		return x.X
	}
	return &NotExpr{X: x, Type: ExprType(x)}
}

// String returns the string representation of the expression.
func (e *NotExpr) String() string {
	return fmt.Sprintf("(not %s)", e.X)
}

// CastExpr converts a value to another type.
type CastExpr struct {
	X    Expr
	Type Type
}

// NewCastExpr returns x converted to typ.
// Constant integer conversions are folded.
func NewCastExpr(x Expr, typ Type) Expr {
	if compareTypes(ExprType(x), typ) == 0 {
		return x
	}
	if x, ok := x.(*ConstantExpr); ok {
		if folded := foldCastConstant(x, typ); folded != nil {
			return folded
		}
	}
	return &CastExpr{X: x, Type: typ}
}

func foldCastConstant(x *ConstantExpr, typ Type) Expr {
	switch to := typ.(type) {
	case *BoolType:
		switch x.Type.(type) {
		case *IntType, *PointerType:
			return NewBoolConstantExpr(x.Value != 0)
		}
	case *IntType:
		if to.Width < 1 || to.Width > 64 {
			return nil
		}
		switch from := x.Type.(type) {
		case *BoolType, *PointerType:
			return NewConstantExpr(x.Value, to)
		case *IntType:
			if from.Signed {
				return NewConstantExpr(uint64(signExtend(x.Value, from.Width)), to)
			}
			return NewConstantExpr(x.Value, to)
		}
	case *PointerType:
		switch x.Type.(type) {
		case *IntType, *PointerType:
			return NewConstantExpr(x.Value, to)
		}
	}
	return nil
}

// String returns the string representation of the expression.
func (e *CastExpr) String() string {
	return fmt.Sprintf("(cast %s %s)", e.X, e.Type)
}

// IsConstantExpr returns true if expr is an instance of ConstantExpr.
func IsConstantExpr(expr Expr) bool {
	_, ok := expr.(*ConstantExpr)
	return ok
}

// IsConstantTrue returns true if expr is an instance of ConstantExpr and is true.
func IsConstantTrue(expr Expr) bool {
	tmp, ok := expr.(*ConstantExpr)
	return ok && tmp.IsTrue()
}

// IsConstantFalse returns true if expr is an instance of ConstantExpr and is false.
func IsConstantFalse(expr Expr) bool {
	tmp, ok := expr.(*ConstantExpr)
	return ok && tmp.IsFalse()
}

// CompareExpr returns an integer comparing two expressions.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func CompareExpr(a, b Expr) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == nil && b == nil {
		return 0
	}

	if ak, bk := exprKind(a), exprKind(b); ak < bk {
		return -1
	} else if ak > bk {
		return 1
	}

	switch a := a.(type) {
	case *ConstantExpr:
		return compareConstantExpr(a, b.(*ConstantExpr))
	case *SymbolExpr:
		return compareSymbolExpr(a, b.(*SymbolExpr))
	case *MemberExpr:
		return compareMemberExpr(a, b.(*MemberExpr))
	case *IndexExpr:
		return compareIndexExpr(a, b.(*IndexExpr))
	case *DerefExpr:
		return CompareExpr(a.Pointer, b.(*DerefExpr).Pointer)
	case *AddrOfExpr:
		return CompareExpr(a.X, b.(*AddrOfExpr).X)
	case *SideEffectExpr:
		return compareSideEffectExpr(a, b.(*SideEffectExpr))
	case *FailedDerefExpr:
		return compareTypes(a.Type, b.(*FailedDerefExpr).Type)
	case *ByteExtractExpr:
		return compareByteExtractExpr(a, b.(*ByteExtractExpr))
	case *RecordExpr:
		return compareExprs(a.Elems, b.(*RecordExpr).Elems)
	case *ArrayExpr:
		return compareExprs(a.Elems, b.(*ArrayExpr).Elems)
	case *VectorExpr:
		return compareExprs(a.Elems, b.(*VectorExpr).Elems)
	case *IfExpr:
		return compareIfExpr(a, b.(*IfExpr))
	case *CondExpr:
		return compareCondExpr(a, b.(*CondExpr))
	case *BinaryExpr:
		return compareBinaryExpr(a, b.(*BinaryExpr))
	case *NotExpr:
		return CompareExpr(a.X, b.(*NotExpr).X)
	case *CastExpr:
		return compareCastExpr(a, b.(*CastExpr))
	default:
		panic("unreachable")
	}
}

func compareConstantExpr(a, b *ConstantExpr) int {
	if cmp := compareTypes(a.Type, b.Type); cmp != 0 {
		return cmp
	}
	if a.Value < b.Value {
		return -1
	} else if a.Value > b.Value {
		return 1
	}
	return 0
}

func compareSymbolExpr(a, b *SymbolExpr) int {
	if cmp := strings.Compare(a.Ident, b.Ident); cmp != 0 {
		return cmp
	}
	if !a.SSA && b.SSA {
		return -1
	} else if a.SSA && !b.SSA {
		return 1
	}
	return strings.Compare(a.FullIdent, b.FullIdent)
}

func compareMemberExpr(a, b *MemberExpr) int {
	if cmp := strings.Compare(a.Field, b.Field); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.X, b.X)
}

func compareIndexExpr(a, b *IndexExpr) int {
	if cmp := CompareExpr(a.Array, b.Array); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.Index, b.Index)
}

func compareSideEffectExpr(a, b *SideEffectExpr) int {
	if cmp := strings.Compare(a.Statement, b.Statement); cmp != 0 {
		return cmp
	}
	return compareTypes(a.Type, b.Type)
}

func compareByteExtractExpr(a, b *ByteExtractExpr) int {
	if a.Endian < b.Endian {
		return -1
	} else if a.Endian > b.Endian {
		return 1
	}
	if cmp := CompareExpr(a.X, b.X); cmp != 0 {
		return cmp
	}
	if cmp := CompareExpr(a.Offset, b.Offset); cmp != 0 {
		return cmp
	}
	return compareTypes(a.Type, b.Type)
}

func compareExprs(a, b []Expr) int {
	if len(a) < len(b) {
		return -1
	} else if len(a) > len(b) {
		return 1
	}
	for i := range a {
		if cmp := CompareExpr(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

func compareIfExpr(a, b *IfExpr) int {
	if cmp := CompareExpr(a.Cond, b.Cond); cmp != 0 {
		return cmp
	}
	if cmp := CompareExpr(a.Then, b.Then); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.Else, b.Else)
}

func compareCondExpr(a, b *CondExpr) int {
	if len(a.Cases) < len(b.Cases) {
		return -1
	} else if len(a.Cases) > len(b.Cases) {
		return 1
	}
	for i := range a.Cases {
		if cmp := CompareExpr(a.Cases[i].Guard, b.Cases[i].Guard); cmp != 0 {
			return cmp
		}
		if cmp := CompareExpr(a.Cases[i].Value, b.Cases[i].Value); cmp != 0 {
			return cmp
		}
	}
	return 0
}

func compareBinaryExpr(a, b *BinaryExpr) int {
	if a.Op < b.Op {
		return -1
	} else if a.Op > b.Op {
		return 1
	}
	if cmp := CompareExpr(a.LHS, b.LHS); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.RHS, b.RHS)
}

func compareCastExpr(a, b *CastExpr) int {
	if cmp := compareTypes(a.Type, b.Type); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.X, b.X)
}

func compareTypes(a, b Type) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == nil && b == nil {
		return 0
	}
	return strings.Compare(a.String(), b.String())
}

// exprKind returns a numeric value for the type of expression.
// Only used internally for equality checks and sorting.
func exprKind(expr Expr) int {
	switch expr.(type) {
	case *ConstantExpr:
		return 1
	case *SymbolExpr:
		return 2
	case *MemberExpr:
		return 3
	case *IndexExpr:
		return 4
	case *DerefExpr:
		return 5
	case *AddrOfExpr:
		return 6
	case *SideEffectExpr:
		return 7
	case *FailedDerefExpr:
		return 8
	case *ByteExtractExpr:
		return 9
	case *RecordExpr:
		return 10
	case *ArrayExpr:
		return 11
	case *VectorExpr:
		return 12
	case *IfExpr:
		return 13
	case *CondExpr:
		return 14
	case *BinaryExpr:
		return 15
	case *NotExpr:
		return 16
	case *CastExpr:
		return 17
	default:
		panic("unreachable")
	}
}

// ExprVisitor represents a visitor that can be passed to WalkExpr().
type ExprVisitor interface {
	// Executed for every visited node. Return a different expression to replace it.
	Visit(expr Expr) (Expr, ExprVisitor)
}

// WalkExpr performs a depth-first traversal of an expression tree. Child
// nodes replaced by the visitor are updated in place.
func WalkExpr(v ExprVisitor, expr Expr) Expr {
	other, v := v.Visit(expr)
	if v == nil {
		return other
	}

	for _, slot := range exprOperands(expr) {
		if child := WalkExpr(v, *slot); child != *slot {
			*slot = child
		}
	}
	return other
}

// exprOperands returns the addresses of expr's direct children. The returned
// slots point into expr itself.
func exprOperands(expr Expr) []*Expr {
	switch expr := expr.(type) {
	case *ConstantExpr, *SymbolExpr, *SideEffectExpr, *FailedDerefExpr:
		return nil
	case *MemberExpr:
		return []*Expr{&expr.X}
	case *IndexExpr:
		return []*Expr{&expr.Array, &expr.Index}
	case *DerefExpr:
		return []*Expr{&expr.Pointer}
	case *AddrOfExpr:
		return []*Expr{&expr.X}
	case *ByteExtractExpr:
		return []*Expr{&expr.X, &expr.Offset}
	case *RecordExpr:
		return elemOperands(expr.Elems)
	case *ArrayExpr:
		return elemOperands(expr.Elems)
	case *VectorExpr:
		return elemOperands(expr.Elems)
	case *IfExpr:
		return []*Expr{&expr.Cond, &expr.Then, &expr.Else}
	case *CondExpr:
		ptrs := make([]*Expr, 0, len(expr.Cases)*2)
		for i := range expr.Cases {
			ptrs = append(ptrs, &expr.Cases[i].Guard, &expr.Cases[i].Value)
		}
		return ptrs
	case *BinaryExpr:
		return []*Expr{&expr.LHS, &expr.RHS}
	case *NotExpr:
		return []*Expr{&expr.X}
	case *CastExpr:
		return []*Expr{&expr.X}
	default:
		panic("unreachable")
	}
}

func elemOperands(elems []Expr) []*Expr {
	ptrs := make([]*Expr, len(elems))
	for i := range elems {
		ptrs[i] = &elems[i]
	}
	return ptrs
}

// shallowCopyExpr returns a copy of expr whose child slots do not alias the
// original. Child expressions themselves are shared.
func shallowCopyExpr(expr Expr) Expr {
	switch expr := expr.(type) {
	case *ConstantExpr:
		other := *expr
		return &other
	case *SymbolExpr:
		other := *expr
		return &other
	case *MemberExpr:
		other := *expr
		return &other
	case *IndexExpr:
		other := *expr
		return &other
	case *DerefExpr:
		other := *expr
		return &other
	case *AddrOfExpr:
		other := *expr
		return &other
	case *SideEffectExpr:
		other := *expr
		return &other
	case *FailedDerefExpr:
		other := *expr
		return &other
	case *ByteExtractExpr:
		other := *expr
		return &other
	case *RecordExpr:
		other := *expr
		other.Elems = append([]Expr(nil), expr.Elems...)
		return &other
	case *ArrayExpr:
		other := *expr
		other.Elems = append([]Expr(nil), expr.Elems...)
		return &other
	case *VectorExpr:
		other := *expr
		other.Elems = append([]Expr(nil), expr.Elems...)
		return &other
	case *IfExpr:
		other := *expr
		return &other
	case *CondExpr:
		other := *expr
		other.Cases = append([]CondCase(nil), expr.Cases...)
		return &other
	case *BinaryExpr:
		other := *expr
		return &other
	case *NotExpr:
		other := *expr
		return &other
	case *CastExpr:
		other := *expr
		return &other
	default:
		panic("unreachable")
	}
}

// CloneExpr returns a deep copy of expr. Types are treated as immutable and
// are shared rather than copied.
func CloneExpr(expr Expr) Expr {
	other := shallowCopyExpr(expr)
	for _, slot := range exprOperands(other) {
		*slot = CloneExpr(*slot)
	}
	return other
}

// mapOperands returns expr rebuilt with fn applied to each direct child.
// Returns expr itself if it has no children.
func mapOperands(expr Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	if len(exprOperands(expr)) == 0 {
		return expr, nil
	}
	other := shallowCopyExpr(expr)
	for _, slot := range exprOperands(other) {
		child, err := fn(*slot)
		if err != nil {
			return nil, err
		}
		*slot = child
	}
	return other, nil
}

func isIntType(t Type) bool {
	_, ok := t.(*IntType)
	return ok
}

// bitmask returns a mask of width bits.
func bitmask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (1 << width) - 1
}

// signExtend interprets the low width bits of value as a signed integer.
func signExtend(value uint64, width uint) int64 {
	if width == 0 || width >= 64 {
		return int64(value)
	}
	if value&(1<<(width-1)) != 0 {
		return int64(value | ^bitmask(width))
	}
	return int64(value & bitmask(width))
}

// shiftCount clamps a constant shift amount to the argument range of Go's
// shift operators.
func shiftCount(v uint64) uint {
	if v > 64 {
		return 64
	}
	return uint(v)
}

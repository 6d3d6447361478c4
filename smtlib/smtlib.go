// Package smtlib serializes resolved expressions to SMT-LIB 2 text for use
// with any bit-vector solver.
package smtlib

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pathsym/pathsym"
)

// Encoder writes declarations and assertions for resolved expressions.
// Expressions must contain only SSA symbols, constants and operators over
// them; program-state references are not representable.
type Encoder struct {
	w   io.Writer
	ns  *pathsym.Namespace
	buf bytes.Buffer
}

// NewEncoder returns a new instance of Encoder writing to w. Named types
// inside the expressions are resolved against ns.
func NewEncoder(w io.Writer, ns *pathsym.Namespace) *Encoder {
	return &Encoder{w: w, ns: ns}
}

// Encode writes the asserts as one SMT-LIB 2 problem: a logic header, one
// declaration per symbol in name order, one assertion per expression, and a
// final check-sat command.
func (e *Encoder) Encode(asserts []pathsym.Expr) error {
	e.buf.Reset()
	e.buf.WriteString("(set-logic QF_ABV)\n")

	collector := &symbolCollector{symbols: make(map[string]pathsym.Type)}
	for _, expr := range asserts {
		pathsym.WalkExpr(collector, expr)
	}

	names := make([]string, 0, len(collector.symbols))
	for name := range collector.symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.writeDecl(name, collector.symbols[name]); err != nil {
			return err
		}
	}

	for _, expr := range asserts {
		e.buf.WriteString("(assert ")
		if err := e.writeExpr(expr); err != nil {
			return err
		}
		e.buf.WriteString(")\n")
	}

	e.buf.WriteString("(check-sat)\n")
	_, err := e.w.Write(e.buf.Bytes())
	return err
}

// symbolCollector gathers every symbol mentioned in an expression tree.
type symbolCollector struct {
	symbols map[string]pathsym.Type
}

func (c *symbolCollector) Visit(expr pathsym.Expr) (pathsym.Expr, pathsym.ExprVisitor) {
	if symbol, ok := expr.(*pathsym.SymbolExpr); ok {
		c.symbols[symbol.Ident] = symbol.Type
	}
	return expr, c
}

func (e *Encoder) writeDecl(name string, typ pathsym.Type) error {
	e.buf.WriteString("(declare-const ")
	e.buf.WriteString(symbolName(name))
	e.buf.WriteString(" ")
	if err := e.writeSort(typ); err != nil {
		return err
	}
	e.buf.WriteString(")\n")
	return nil
}

// writeSort writes the solver sort for typ.
func (e *Encoder) writeSort(typ pathsym.Type) error {
	switch typ := e.ns.Follow(typ).(type) {
	case *pathsym.BoolType:
		e.buf.WriteString("Bool")
		return nil
	case *pathsym.IntType:
		fmt.Fprintf(&e.buf, "(_ BitVec %d)", typ.Width)
		return nil
	case *pathsym.FloatType:
		// Floats are carried as raw bit vectors.
		fmt.Fprintf(&e.buf, "(_ BitVec %d)", typ.Width)
		return nil
	case *pathsym.PointerType:
		fmt.Fprintf(&e.buf, "(_ BitVec %d)", pathsym.Width64)
		return nil
	case *pathsym.ArrayType:
		fmt.Fprintf(&e.buf, "(Array (_ BitVec %d) ", pathsym.Width64)
		if err := e.writeSort(typ.Elem); err != nil {
			return err
		}
		e.buf.WriteString(")")
		return nil
	default:
		return fmt.Errorf("smtlib.Encoder.writeSort: invalid type: %s", typ)
	}
}

func (e *Encoder) writeExpr(expr pathsym.Expr) error {
	switch expr := expr.(type) {
	case *pathsym.ConstantExpr:
		return e.writeConstant(expr)
	case *pathsym.SymbolExpr:
		e.buf.WriteString(symbolName(expr.Ident))
		return nil
	case *pathsym.IndexExpr:
		return e.writeSelect(expr)
	case *pathsym.ByteExtractExpr:
		return e.writeByteExtract(expr)
	case *pathsym.CastExpr:
		return e.writeCast(expr)
	case *pathsym.NotExpr:
		return e.writeNot(expr)
	case *pathsym.BinaryExpr:
		return e.writeBinary(expr)
	case *pathsym.IfExpr:
		return e.writeIf(expr)
	case *pathsym.CondExpr:
		return e.writeCond(expr)
	default:
		return fmt.Errorf("smtlib.Encoder.writeExpr: invalid expression type: %T", expr)
	}
}

func (e *Encoder) writeConstant(expr *pathsym.ConstantExpr) error {
	switch typ := e.ns.Follow(expr.Type).(type) {
	case *pathsym.BoolType, nil:
		if expr.IsTrue() {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
		return nil
	case *pathsym.IntType:
		fmt.Fprintf(&e.buf, "(_ bv%d %d)", expr.Value, typ.Width)
		return nil
	case *pathsym.FloatType:
		fmt.Fprintf(&e.buf, "(_ bv%d %d)", expr.Value, typ.Width)
		return nil
	case *pathsym.PointerType:
		fmt.Fprintf(&e.buf, "(_ bv%d %d)", expr.Value, pathsym.Width64)
		return nil
	default:
		return fmt.Errorf("smtlib.Encoder.writeConstant: invalid type: %s", typ)
	}
}

func (e *Encoder) writeSelect(expr *pathsym.IndexExpr) error {
	e.buf.WriteString("(select ")
	if err := e.writeExpr(expr.Array); err != nil {
		return err
	}
	e.buf.WriteString(" ")
	if err := e.writeIndex(expr.Index); err != nil {
		return err
	}
	e.buf.WriteString(")")
	return nil
}

// writeIndex writes an array position, widened to the 64-bit domain sort
// when the position is narrower.
func (e *Encoder) writeIndex(index pathsym.Expr) error {
	width, signed, err := e.intWidth(pathsym.ExprType(index))
	if err != nil {
		return err
	}
	if width == pathsym.Width64 {
		return e.writeExpr(index)
	}

	if signed {
		fmt.Fprintf(&e.buf, "((_ sign_extend %d) ", pathsym.Width64-width)
	} else {
		fmt.Fprintf(&e.buf, "((_ zero_extend %d) ", pathsym.Width64-width)
	}
	if err := e.writeExpr(index); err != nil {
		return err
	}
	e.buf.WriteString(")")
	return nil
}

func (e *Encoder) writeByteExtract(expr *pathsym.ByteExtractExpr) error {
	offset, ok := expr.Offset.(*pathsym.ConstantExpr)
	if !ok {
		return fmt.Errorf("smtlib.Encoder.writeByteExtract: non-constant offset: %s", expr.Offset)
	}
	srcWidth, _, err := e.intWidth(pathsym.ExprType(expr.X))
	if err != nil {
		return err
	}
	dstWidth, _, err := e.intWidth(expr.Type)
	if err != nil {
		return err
	}

	lo := uint(offset.Value) * 8
	if expr.Endian == pathsym.BigEndian {
		lo = srcWidth - lo - dstWidth
	}
	hi := lo + dstWidth - 1
	if hi >= srcWidth {
		return fmt.Errorf("smtlib.Encoder.writeByteExtract: extraction out of range: [%d:%d] of %d bits", hi, lo, srcWidth)
	}

	fmt.Fprintf(&e.buf, "((_ extract %d %d) ", hi, lo)
	if err := e.writeExpr(expr.X); err != nil {
		return err
	}
	e.buf.WriteString(")")
	return nil
}

func (e *Encoder) writeCast(expr *pathsym.CastExpr) error {
	srcType := e.ns.Follow(pathsym.ExprType(expr.X))
	dstType := e.ns.Follow(expr.Type)

	// Casts to bool test against zero.
	if _, ok := dstType.(*pathsym.BoolType); ok {
		srcWidth, _, err := e.intWidth(srcType)
		if err != nil {
			return err
		}
		e.buf.WriteString("(not (= ")
		if err := e.writeExpr(expr.X); err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, " (_ bv0 %d)))", srcWidth)
		return nil
	}

	dstWidth, _, err := e.intWidth(dstType)
	if err != nil {
		return err
	}

	// Casts from bool select between one and zero.
	if _, ok := srcType.(*pathsym.BoolType); ok {
		e.buf.WriteString("(ite ")
		if err := e.writeExpr(expr.X); err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, " (_ bv1 %d) (_ bv0 %d))", dstWidth, dstWidth)
		return nil
	}

	srcWidth, srcSigned, err := e.intWidth(srcType)
	if err != nil {
		return err
	}

	switch {
	case dstWidth == srcWidth:
		return e.writeExpr(expr.X)
	case dstWidth < srcWidth:
		fmt.Fprintf(&e.buf, "((_ extract %d 0) ", dstWidth-1)
	case srcSigned:
		fmt.Fprintf(&e.buf, "((_ sign_extend %d) ", dstWidth-srcWidth)
	default:
		fmt.Fprintf(&e.buf, "((_ zero_extend %d) ", dstWidth-srcWidth)
	}
	if err := e.writeExpr(expr.X); err != nil {
		return err
	}
	e.buf.WriteString(")")
	return nil
}

func (e *Encoder) writeNot(expr *pathsym.NotExpr) error {
	if e.boolExpr(expr.X) {
		e.buf.WriteString("(not ")
	} else {
		e.buf.WriteString("(bvnot ")
	}
	if err := e.writeExpr(expr.X); err != nil {
		return err
	}
	e.buf.WriteString(")")
	return nil
}

func (e *Encoder) writeBinary(expr *pathsym.BinaryExpr) error {
	name, err := e.binaryOpName(expr)
	if err != nil {
		return err
	}

	// NE has no direct operator.
	if expr.Op == pathsym.NE {
		e.buf.WriteString("(not ")
		defer e.buf.WriteString(")")
	}

	e.buf.WriteString("(")
	e.buf.WriteString(name)
	e.buf.WriteString(" ")
	if err := e.writeExpr(expr.LHS); err != nil {
		return err
	}
	e.buf.WriteString(" ")
	if err := e.writeExpr(expr.RHS); err != nil {
		return err
	}
	e.buf.WriteString(")")
	return nil
}

// binaryOpName maps an operation to its solver name, given the operand
// types.
func (e *Encoder) binaryOpName(expr *pathsym.BinaryExpr) (string, error) {
	boolean := e.boolExpr(expr.LHS)
	signed := e.signedExpr(expr.LHS)

	switch expr.Op {
	case pathsym.ADD:
		return "bvadd", nil
	case pathsym.SUB:
		return "bvsub", nil
	case pathsym.MUL:
		return "bvmul", nil
	case pathsym.DIV:
		if signed {
			return "bvsdiv", nil
		}
		return "bvudiv", nil
	case pathsym.REM:
		if signed {
			return "bvsrem", nil
		}
		return "bvurem", nil
	case pathsym.AND:
		if boolean {
			return "and", nil
		}
		return "bvand", nil
	case pathsym.OR:
		if boolean {
			return "or", nil
		}
		return "bvor", nil
	case pathsym.XOR:
		if boolean {
			return "xor", nil
		}
		return "bvxor", nil
	case pathsym.SHL:
		return "bvshl", nil
	case pathsym.SHR:
		if signed {
			return "bvashr", nil
		}
		return "bvlshr", nil
	case pathsym.EQ, pathsym.NE:
		return "=", nil
	case pathsym.LT:
		if signed {
			return "bvslt", nil
		}
		return "bvult", nil
	case pathsym.LE:
		if signed {
			return "bvsle", nil
		}
		return "bvule", nil
	case pathsym.GT:
		if signed {
			return "bvsgt", nil
		}
		return "bvugt", nil
	case pathsym.GE:
		if signed {
			return "bvsge", nil
		}
		return "bvuge", nil
	default:
		return "", fmt.Errorf("smtlib.Encoder.binaryOpName: unexpected operation: %s", expr.Op)
	}
}

func (e *Encoder) writeIf(expr *pathsym.IfExpr) error {
	e.buf.WriteString("(ite ")
	if err := e.writeExpr(expr.Cond); err != nil {
		return err
	}
	e.buf.WriteString(" ")
	if err := e.writeExpr(expr.Then); err != nil {
		return err
	}
	e.buf.WriteString(" ")
	if err := e.writeExpr(expr.Else); err != nil {
		return err
	}
	e.buf.WriteString(")")
	return nil
}

// writeCond writes a case selection as a chain of ite terms. The cases are
// total, so the last value doubles as the default.
func (e *Encoder) writeCond(expr *pathsym.CondExpr) error {
	if len(expr.Cases) == 0 {
		return fmt.Errorf("smtlib.Encoder.writeCond: empty case selection")
	}

	last := len(expr.Cases) - 1
	for _, c := range expr.Cases[:last] {
		e.buf.WriteString("(ite ")
		if err := e.writeExpr(c.Guard); err != nil {
			return err
		}
		e.buf.WriteString(" ")
		if err := e.writeExpr(c.Value); err != nil {
			return err
		}
		e.buf.WriteString(" ")
	}
	if err := e.writeExpr(expr.Cases[last].Value); err != nil {
		return err
	}
	for range expr.Cases[:last] {
		e.buf.WriteString(")")
	}
	return nil
}

// intWidth returns the bit width and signedness of a scalar type.
func (e *Encoder) intWidth(typ pathsym.Type) (uint, bool, error) {
	switch typ := e.ns.Follow(typ).(type) {
	case *pathsym.BoolType:
		return pathsym.WidthBool, false, nil
	case *pathsym.IntType:
		return typ.Width, typ.Signed, nil
	case *pathsym.FloatType:
		return typ.Width, false, nil
	case *pathsym.PointerType:
		return pathsym.Width64, false, nil
	default:
		return 0, false, fmt.Errorf("smtlib.Encoder.intWidth: invalid scalar type: %s", typ)
	}
}

func (e *Encoder) boolExpr(expr pathsym.Expr) bool {
	_, ok := e.ns.Follow(pathsym.ExprType(expr)).(*pathsym.BoolType)
	return ok
}

func (e *Encoder) signedExpr(expr pathsym.Expr) bool {
	typ, ok := e.ns.Follow(pathsym.ExprType(expr)).(*pathsym.IntType)
	return ok && typ.Signed
}

// symbolName quotes a symbol when it contains characters outside the
// simple-symbol alphabet.
func symbolName(name string) string {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
		case r == '~' || r == '!' || r == '@' || r == '$' || r == '%' || r == '^' ||
			r == '&' || r == '*' || r == '_' || r == '-' || r == '+' || r == '=' ||
			r == '<' || r == '>' || r == '.' || r == '?' || r == '/':
		default:
			return "|" + name + "|"
		}
	}
	if name == "" {
		return "||"
	}
	return name
}

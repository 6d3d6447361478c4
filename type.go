package pathsym

import (
	"bytes"
	"fmt"
)

// Type is the interface implemented by all modeled program types.
type Type interface {
	typ()
	String() string
}

func (*BoolType) typ()     {}
func (*IntType) typ()      {}
func (*FloatType) typ()    {}
func (*PointerType) typ()  {}
func (*RecordType) typ()   {}
func (*UnionType) typ()    {}
func (*ArrayType) typ()    {}
func (*VectorType) typ()   {}
func (*FuncType) typ()     {}
func (*MathFuncType) typ() {}
func (*NamedType) typ()    {}

// BoolType represents a single-bit boolean.
type BoolType struct{}

func (t *BoolType) String() string { return "bool" }

// IntType represents a fixed-width two's complement integer.
type IntType struct {
	Width  uint
	Signed bool
}

func (t *IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("s%d", t.Width)
	}
	return fmt.Sprintf("u%d", t.Width)
}

// FloatType represents a floating point value of the given total width.
type FloatType struct {
	Width uint
}

func (t *FloatType) String() string { return fmt.Sprintf("f%d", t.Width) }

// PointerType represents a pointer to a value of an element type.
type PointerType struct {
	Elem Type
}

func (t *PointerType) String() string { return fmt.Sprintf("*%s", t.Elem) }

// Field is a single named component of a record or union type.
type Field struct {
	Name string
	Type Type
}

// RecordType represents a compound value with named, ordered fields.
type RecordType struct {
	Fields []Field
}

// FieldIndex returns the position of the field with the given name.
func (t *RecordType) FieldIndex(name string) (int, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

func (t *RecordType) String() string { return formatFields("record", t.Fields) }

// UnionType represents overlapping named fields sharing storage.
type UnionType struct {
	Fields []Field
}

// FieldIndex returns the position of the field with the given name.
func (t *UnionType) FieldIndex(name string) (int, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

func (t *UnionType) String() string { return formatFields("union", t.Fields) }

func formatFields(kind string, fields []Field) string {
	var buf bytes.Buffer
	buf.WriteString(kind)
	buf.WriteString("{")
	for i, f := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s %s", f.Name, f.Type)
	}
	buf.WriteString("}")
	return buf.String()
}

// ArrayType represents an array of elements. Size may be any expression; an
// array whose size is not a constant is unbounded and its reads are left to
// the solver's theory of arrays.
type ArrayType struct {
	Elem Type
	Size Expr
}

// IsUnbounded returns true if the array size is missing or not a constant.
func (t *ArrayType) IsUnbounded() bool {
	if t.Size == nil {
		return true
	}
	_, ok := t.Size.(*ConstantExpr)
	return !ok
}

// Len returns the constant element count, if there is one.
func (t *ArrayType) Len() (uint64, bool) {
	size, ok := t.Size.(*ConstantExpr)
	if !ok {
		return 0, false
	}
	return size.Value, true
}

func (t *ArrayType) String() string {
	if t.Size == nil {
		return fmt.Sprintf("[]%s", t.Elem)
	} else if size, ok := t.Size.(*ConstantExpr); ok {
		return fmt.Sprintf("[%d]%s", size.Value, t.Elem)
	}
	return fmt.Sprintf("[*]%s", t.Elem)
}

// VectorType represents a short fixed-length vector. Unlike arrays the size
// must be a constant.
type VectorType struct {
	Elem Type
	Size Expr
}

// Len returns the constant element count, if there is one.
func (t *VectorType) Len() (uint64, bool) {
	size, ok := t.Size.(*ConstantExpr)
	if !ok {
		return 0, false
	}
	return size.Value, true
}

func (t *VectorType) String() string {
	if size, ok := t.Size.(*ConstantExpr); ok {
		return fmt.Sprintf("vector[%d]%s", size.Value, t.Elem)
	}
	return fmt.Sprintf("vector[*]%s", t.Elem)
}

// FuncType represents a program function. Function values are opaque; reads
// never look inside them.
type FuncType struct{}

func (t *FuncType) String() string { return "fn" }

// MathFuncType represents a mathematical (uninterpreted) function.
type MathFuncType struct{}

func (t *MathFuncType) String() string { return "mathfn" }

// indexType returns the type given to synthesized array positions.
func indexType() *IntType {
	return &IntType{Width: Width64, Signed: true}
}

// NamedType is a reference to a type definition in a namespace.
type NamedType struct {
	Name string
}

func (t *NamedType) String() string { return t.Name }

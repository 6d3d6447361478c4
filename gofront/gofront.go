// Package gofront loads Go packages and maps their package-level variables
// and named types into a namespace for symbolic reads.
package gofront

import (
	"fmt"
	"go/types"
	"log"

	"golang.org/x/tools/go/packages"

	"github.com/pathsym/pathsym"
)

// Load loads the Go packages matching the given patterns and returns a
// namespace holding their package-level variables and named types.
// Identifiers are qualified by package path. Variables of unsupported Go
// types (maps, channels, interfaces) are skipped.
func Load(patterns ...string) (*pathsym.Namespace, error) {
	initial, err := packages.Load(&packages.Config{
		Mode: packages.LoadAllSyntax,
	}, patterns...)
	if err != nil {
		return nil, err
	} else if packages.PrintErrors(initial) > 0 {
		return nil, fmt.Errorf("packages contain errors")
	}

	ns := pathsym.NewNamespace()
	c := &converter{ns: ns, seen: make(map[*types.Named]bool)}
	for _, pkg := range initial {
		c.loadPackage(pkg)
	}
	return ns, nil
}

// converter maps go/types types onto namespace types. Named types convert
// once and are referenced by name afterwards, which keeps recursive types
// finite.
type converter struct {
	ns   *pathsym.Namespace
	seen map[*types.Named]bool
}

// loadPackage declares the package-level variables and defines the named
// types of one package. Scope names come back sorted, so declaration order
// is deterministic.
func (c *converter) loadPackage(pkg *packages.Package) {
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		switch obj := scope.Lookup(name).(type) {
		case *types.TypeName:
			if _, err := c.convert(obj.Type()); err != nil {
				log.Printf("[gofront] skipping type %s: %s", name, err)
			}

		case *types.Var:
			typ, err := c.convert(obj.Type())
			if err != nil {
				log.Printf("[gofront] skipping var %s: %s", name, err)
				continue
			}
			c.ns.Declare(&pathsym.Decl{
				Name:   qualifiedName(pkg.Types, name),
				Type:   typ,
				Static: true,
			})
		}
	}
}

func (c *converter) convert(t types.Type) (pathsym.Type, error) {
	switch t := t.(type) {
	case *types.Named:
		return c.convertNamed(t)
	case *types.Basic:
		return c.convertBasic(t)
	case *types.Pointer:
		elem, err := c.convert(t.Elem())
		if err != nil {
			return nil, err
		}
		return &pathsym.PointerType{Elem: elem}, nil
	case *types.Array:
		elem, err := c.convert(t.Elem())
		if err != nil {
			return nil, err
		}
		size := pathsym.NewConstantExpr(uint64(t.Len()), &pathsym.IntType{Width: pathsym.Width64, Signed: true})
		return &pathsym.ArrayType{Elem: elem, Size: size}, nil
	case *types.Slice:
		elem, err := c.convert(t.Elem())
		if err != nil {
			return nil, err
		}
		return &pathsym.ArrayType{Elem: elem}, nil
	case *types.Struct:
		return c.convertStruct(t)
	case *types.Signature:
		return &pathsym.FuncType{}, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", t)
	}
}

// convertNamed defines the named type's underlying form in the namespace
// and returns a reference to it.
func (c *converter) convertNamed(t *types.Named) (pathsym.Type, error) {
	name := qualifiedName(t.Obj().Pkg(), t.Obj().Name())
	if !c.seen[t] {
		c.seen[t] = true
		under, err := c.convert(t.Underlying())
		if err != nil {
			return nil, err
		}
		c.ns.DefineType(name, under)
	}
	return &pathsym.NamedType{Name: name}, nil
}

func (c *converter) convertBasic(t *types.Basic) (pathsym.Type, error) {
	switch t.Kind() {
	case types.Bool:
		return &pathsym.BoolType{}, nil
	case types.Int, types.Int64:
		return &pathsym.IntType{Width: pathsym.Width64, Signed: true}, nil
	case types.Int32:
		return &pathsym.IntType{Width: pathsym.Width32, Signed: true}, nil
	case types.Int16:
		return &pathsym.IntType{Width: pathsym.Width16, Signed: true}, nil
	case types.Int8:
		return &pathsym.IntType{Width: pathsym.Width8, Signed: true}, nil
	case types.Uint, types.Uint64, types.Uintptr:
		return &pathsym.IntType{Width: pathsym.Width64, Signed: false}, nil
	case types.Uint32:
		return &pathsym.IntType{Width: pathsym.Width32, Signed: false}, nil
	case types.Uint16:
		return &pathsym.IntType{Width: pathsym.Width16, Signed: false}, nil
	case types.Uint8:
		return &pathsym.IntType{Width: pathsym.Width8, Signed: false}, nil
	case types.Float32:
		return &pathsym.FloatType{Width: pathsym.Width32}, nil
	case types.Float64:
		return &pathsym.FloatType{Width: pathsym.Width64}, nil
	case types.String:
		// Strings read as unbounded byte arrays.
		return &pathsym.ArrayType{Elem: &pathsym.IntType{Width: pathsym.Width8, Signed: false}}, nil
	case types.UnsafePointer:
		return &pathsym.PointerType{Elem: &pathsym.IntType{Width: pathsym.Width8, Signed: false}}, nil
	default:
		return nil, fmt.Errorf("unsupported basic type: %s", t)
	}
}

func (c *converter) convertStruct(t *types.Struct) (pathsym.Type, error) {
	fields := make([]pathsym.Field, t.NumFields())
	for i := 0; i < t.NumFields(); i++ {
		field := t.Field(i)
		typ, err := c.convert(field.Type())
		if err != nil {
			return nil, err
		}
		fields[i] = pathsym.Field{Name: field.Name(), Type: typ}
	}
	return &pathsym.RecordType{Fields: fields}, nil
}

// qualifiedName prefixes name with its package path.
func qualifiedName(pkg *types.Package, name string) string {
	if pkg == nil {
		return name
	}
	return pkg.Path() + "." + name
}

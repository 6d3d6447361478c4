package pathsym

import "sort"

// Decl declares a program variable to the namespace.
type Decl struct {
	Name        string
	Type        Type
	Static      bool // static storage duration
	ThreadLocal bool
}

// Namespace resolves named types and variable declarations. It is not safe
// for concurrent use.
type Namespace struct {
	types map[string]Type
	decls map[string]*Decl
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		types: make(map[string]Type),
		decls: make(map[string]*Decl),
	}
}

// DefineType binds name to a type definition.
func (ns *Namespace) DefineType(name string, typ Type) {
	ns.types[name] = typ
}

// Declare registers a variable declaration, replacing any previous
// declaration with the same name.
func (ns *Namespace) Declare(decl *Decl) {
	ns.decls[decl.Name] = decl
}

// Decl returns the declaration for name, if any.
func (ns *Namespace) Decl(name string) (*Decl, bool) {
	decl, ok := ns.decls[name]
	return decl, ok
}

// Decls returns all declarations in name order.
func (ns *Namespace) Decls() []*Decl {
	decls := make([]*Decl, 0, len(ns.decls))
	for _, decl := range ns.decls {
		decls = append(decls, decl)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

// Follow resolves named type references to their definitions. Types that are
// not named references are returned unchanged, as are names with no
// definition.
func (ns *Namespace) Follow(typ Type) Type {
	for i := 0; ; i++ {
		assert(i < 1000, "type reference cycle: %s", typ)

		named, ok := typ.(*NamedType)
		if !ok {
			return typ
		}
		def, ok := ns.types[named.Name]
		if !ok {
			return typ
		}
		typ = def
	}
}

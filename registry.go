package pathsym

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// VarKind classifies the storage of a program variable.
type VarKind int

// Variable kinds.
const (
	ProcedureLocal = VarKind(iota)
	ThreadLocal
	Shared
)

// String returns the string representation of the kind.
func (k VarKind) String() string {
	switch k {
	case ThreadLocal:
		return "thread-local"
	case Shared:
		return "shared"
	default:
		return "procedure-local"
	}
}

// VarInfo is the registry entry for one variable, identified by its root
// identifier plus the flattened access suffix. Entries are shared by all
// states of a run; only per-state value bindings live elsewhere.
type VarInfo struct {
	Ident    string // root identifier
	Suffix   string // flattened access path, empty for the whole variable
	Type     Type
	Kind     VarKind
	Number   uint64 // position in the registry's single numbering sequence
	Original Expr   // the access expression the entry was created for

	ssaCounter uint64 // next unassigned SSA version
}

// FullIdent returns the identifier SSA names are derived from.
func (v *VarInfo) FullIdent() string { return v.Ident + v.Suffix }

// SSAIdent returns the SSA name of one version of the variable.
func (v *VarInfo) SSAIdent(version uint64) string {
	return fmt.Sprintf("%s#%d", v.FullIdent(), version)
}

// Version returns the next unassigned SSA version.
func (v *VarInfo) Version() uint64 { return v.ssaCounter }

// MintSSA returns a symbol for the next SSA version of the variable and
// advances the version counter. Versions are never reused.
func (v *VarInfo) MintSSA() *SymbolExpr {
	sym := &SymbolExpr{
		Ident:     v.SSAIdent(v.ssaCounter),
		Type:      v.Type,
		SSA:       true,
		FullIdent: v.FullIdent(),
	}
	v.ssaCounter++
	return sym
}

// Registry numbers program variables and owns their SSA version counters.
// A registry is shared by every state forked from the same run; it is not
// safe for concurrent use.
type Registry struct {
	ns   *Namespace
	vars map[string]*VarInfo // keyed by root identifier + suffix

	nondetCount  uint64
	dynamicCount uint64
}

// NewRegistry returns an empty registry resolving declarations against ns.
func NewRegistry(ns *Namespace) *Registry {
	return &Registry{ns: ns, vars: make(map[string]*VarInfo)}
}

// Namespace returns the namespace the registry resolves against.
func (r *Registry) Namespace() *Namespace { return r.ns }

// Len returns the number of registered variables.
func (r *Registry) Len() int { return len(r.vars) }

// VarInfo returns the entry for the variable with the given root identifier
// and access suffix, creating and classifying it on first use. The entry
// takes its type from the original access expression; later accesses do not
// change it.
func (r *Registry) VarInfo(ident, suffix string, original Expr) (*VarInfo, error) {
	key := ident + suffix
	if v, ok := r.vars[key]; ok {
		return v, nil
	}

	kind, err := r.classify(ident)
	if err != nil {
		return nil, err
	}
	v := &VarInfo{
		Ident:    ident,
		Suffix:   suffix,
		Type:     ExprType(original),
		Kind:     kind,
		Number:   uint64(len(r.vars)),
		Original: CloneExpr(original),
	}
	r.vars[key] = v
	return v, nil
}

// Vars returns all registered variables ordered by number.
func (r *Registry) Vars() []*VarInfo {
	a := make([]*VarInfo, 0, len(r.vars))
	for _, v := range r.vars {
		a = append(a, v)
	}
	sort.Slice(a, func(i, j int) bool { return a[i].Number < a[j].Number })
	return a
}

// classify determines the storage kind of a root identifier. Identifiers
// minted by the engine itself are recognized by prefix; everything else must
// be declared in the namespace.
func (r *Registry) classify(ident string) (VarKind, error) {
	if strings.HasPrefix(ident, "symex_dynamic::") {
		return Shared, nil
	} else if strings.HasPrefix(ident, "symex::dynamic_object_size") {
		return Shared, nil
	} else if strings.HasPrefix(ident, "symex_arg::") {
		return ProcedureLocal, nil
	} else if strings.Contains(ident, "::va_arg") {
		return ProcedureLocal, nil
	}

	decl, ok := r.ns.Decl(ident)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownIdentifier, ident)
	}
	if !decl.Static {
		return ProcedureLocal, nil
	} else if decl.ThreadLocal {
		return ThreadLocal, nil
	}
	return Shared, nil
}

// MintAux declares a fresh auxiliary variable with the given name prefix and
// returns a reference to it. Auxiliary variables stand in for values the
// engine cannot constrain, such as nondeterministic inputs and unresolvable
// dereferences.
func (r *Registry) MintAux(prefix string, typ Type) *SymbolExpr {
	ident := fmt.Sprintf("symex::%s%d", prefix, r.nondetCount)
	r.nondetCount++
	r.ns.Declare(&Decl{Name: ident, Type: typ})
	return NewSymbolExpr(ident, typ)
}

// NextDynamic increments and returns the dynamic allocation sequence number.
// The first allocation is numbered 1.
func (r *Registry) NextDynamic() uint64 {
	r.dynamicCount++
	return r.dynamicCount
}

// Dump returns a human readable listing of all registered variables.
func (r *Registry) Dump() string {
	keys := make([]string, 0, len(r.vars))
	for key := range r.vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		v := r.vars[key]
		fmt.Fprintf(&buf, "%s: kind=%s number=%d type=%s\n", v.FullIdent(), v.Kind, v.Number, v.Type)
	}
	return buf.String()
}

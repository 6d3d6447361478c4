package pathsym

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/immutable"
)

// Config holds the collaborators and switches of a run.
type Config struct {
	// Resolver maps pointer expressions to the objects they point at during
	// the dereferencing phase. Defaults to an ObjectResolver over the
	// registry's namespace.
	Resolver PointerResolver

	// Trace enables logging of the read pipeline.
	Trace bool
}

// State is one path's view of the program variables. Forked states share the
// registry, its numbering and its SSA version counters; per-path bindings
// are shared structurally and copied on write.
type State struct {
	registry *Registry
	config   Config

	// Variable bindings keyed by registry number.
	vars *immutable.SortedMap

	// Constraints collected so far along the path, including assignment
	// equations.
	constraints []Expr
}

// NewState returns an empty state reading variables from registry.
func NewState(registry *Registry, config Config) *State {
	if config.Resolver == nil {
		config.Resolver = &ObjectResolver{NS: registry.Namespace()}
	}
	return &State{
		registry: registry,
		config:   config,
		vars:     immutable.NewSortedMap(&uint64Comparer{}),
	}
}

// Registry returns the registry shared by every state of the run.
func (s *State) Registry() *Registry { return s.registry }

// Constraints returns the constraints collected so far.
func (s *State) Constraints() []Expr { return s.constraints }

func (s *State) ns() *Namespace { return s.registry.Namespace() }

func (s *State) simplify(expr Expr) Expr { return Simplify(s.ns(), expr) }

// VarState is the per-path binding of one registered variable.
type VarState struct {
	Symbol *SymbolExpr // current SSA symbol, nil before first access
	Value  Expr        // propagated value, nil when not propagatable
}

// varState returns the binding of v, or an empty binding if unset.
func (s *State) varState(v *VarInfo) VarState {
	if value, _ := s.vars.Get(v.Number); value != nil {
		return value.(VarState)
	}
	return VarState{}
}

// setVarState replaces the binding of v.
func (s *State) setVarState(v *VarInfo, vs VarState) {
	s.vars = s.vars.Set(v.Number, vs)
}

// Fork returns a copy of the state for exploring a diverging path, with the
// additional constraint if one is given. The registry and all unmodified
// bindings stay shared with the parent.
func (s *State) Fork(constraint Expr) *State {
	other := *s
	other.constraints = append([]Expr(nil), s.constraints...)
	if constraint != nil {
		other.AddConstraint(constraint)
	}
	return &other
}

// AddConstraint adds a constraint to the state. Panic if expr is a constant false.
func (s *State) AddConstraint(expr Expr) {
	if expr, ok := expr.(*ConstantExpr); ok {
		assert(expr.IsTrue(), "invalid false constraint")
	}

	// Split logical conjunctions into two separate constraints.
	if expr, ok := expr.(*BinaryExpr); ok && expr.Op == AND {
		s.AddConstraint(expr.LHS)
		s.AddConstraint(expr.RHS)
		return
	}

	s.constraints = append(s.constraints, expr)
}

// Dump returns the contents of the state as a string.
func (s *State) Dump() string {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "== VARS")
	for _, v := range s.registry.Vars() {
		vs := s.varState(v)
		if vs.Symbol == nil && vs.Value == nil {
			continue
		}
		fmt.Fprintf(&buf, "%s:", v.FullIdent())
		if vs.Symbol != nil {
			fmt.Fprintf(&buf, " symbol=%s", vs.Symbol)
		}
		if vs.Value != nil {
			fmt.Fprintf(&buf, " value=%s", vs.Value)
		}
		fmt.Fprintln(&buf, "")
	}

	fmt.Fprintln(&buf, "== CONSTRAINTS")
	for i, expr := range s.constraints {
		fmt.Fprintf(&buf, "%d. %s\n", i, expr.String())
	}
	return buf.String()
}

// uint64Comparer compares two 64-bit unsigned integers. Implements immutable.Comparer.
type uint64Comparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a uint64.
func (c *uint64Comparer) Compare(a, b interface{}) int {
	if i, j := a.(uint64), b.(uint64); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

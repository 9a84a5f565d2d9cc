package runtime

import (
	"fmt"
	"sort"
)

// Binding is a named value in one scope.
type Binding struct {
	Value      Value
	IsConstant bool
	TypeName   string // declared type; empty when undeclared
}

// Environment represents a variable scope with a parent chain.
type Environment struct {
	bindings map[string]*Binding
	parent   *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		bindings: make(map[string]*Binding),
		parent:   parent,
	}
}

// Parent returns the enclosing scope, or nil for the root.
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Define inserts or overwrites a binding in the current scope only.
func (e *Environment) Define(name string, value Value, isConst bool) {
	e.bindings[name] = &Binding{Value: value, IsConstant: isConst}
}

// DefineTyped is Define with a declared type recorded on the binding.
func (e *Environment) DefineTyped(name, typeName string, value Value, isConst bool) {
	e.bindings[name] = &Binding{Value: value, IsConstant: isConst, TypeName: typeName}
}

// Lookup finds the nearest binding for name along the scope chain.
func (e *Environment) Lookup(name string) (*Binding, bool) {
	for env := e; env != nil; env = env.parent {
		if b, exists := env.bindings[name]; exists {
			return b, true
		}
	}
	return nil, false
}

// LookupLocal finds a binding in the current scope only.
func (e *Environment) LookupLocal(name string) (*Binding, bool) {
	b, exists := e.bindings[name]
	return b, exists
}

// Get looks up a variable by walking the scope chain.
func (e *Environment) Get(name string) (Value, error) {
	if b, ok := e.Lookup(name); ok {
		return b.Value, nil
	}
	return nil, fmt.Errorf("%w '%s'", ErrUndefinedVariable, name)
}

// Has reports whether name is bound anywhere in the chain.
func (e *Environment) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Assign updates the nearest mutable binding for name. A constant binding
// fails with ErrConstantReassignment. An unbound name is defined as a
// mutable binding in the receiving scope.
func (e *Environment) Assign(name string, value Value) error {
	if b, ok := e.Lookup(name); ok {
		if b.IsConstant {
			return fmt.Errorf("%w: cannot assign to constant '%s'", ErrConstantReassignment, name)
		}
		b.Value = value
		return nil
	}
	e.Define(name, value, false)
	return nil
}

// Names returns every name visible from this scope, sorted.
func (e *Environment) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for env := e; env != nil; env = env.parent {
		for name := range env.bindings {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the values bound in this scope (not its parents).
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.bindings))
	for name, b := range e.bindings {
		out[name] = b.Value
	}
	return out
}

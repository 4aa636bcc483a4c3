// Package scope implements the shared mutable namespace that settings
// fragments execute into. A Scope is owned by the outermost caller; every
// fragment spliced into it mutates it in place, so later fragments observe
// (and may overwrite) the bindings of earlier ones.
package scope

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// UndefinedNameError is returned by Get when a name has no binding and no
// default was supplied.
type UndefinedNameError struct {
	Name string
}

func (e *UndefinedNameError) Error() string {
	return fmt.Sprintf("setting %q is not defined", e.Name)
}

// Scope is a mutable mapping from setting name to value. It remembers the
// order in which names were first bound so that rendered output is stable.
// A Scope is not safe for concurrent use; fragments execute into it from a
// single goroutine.
type Scope struct {
	values map[string]cty.Value
	order  []string
	funcs  map[string]function.Function
}

// New returns an empty scope with the expression function table installed.
func New() *Scope {
	s := &Scope{values: make(map[string]cty.Value)}
	s.funcs = newFunctions(s)
	return s
}

// Set binds name to value, overwriting any existing binding. Last write wins.
func (s *Scope) Set(name string, value cty.Value) {
	if _, ok := s.values[name]; !ok {
		s.order = append(s.order, name)
	}
	s.values[name] = value
}

// Get returns the value bound to name, or an UndefinedNameError.
func (s *Scope) Get(name string) (cty.Value, error) {
	value, ok := s.values[name]
	if !ok {
		return cty.NilVal, &UndefinedNameError{Name: name}
	}
	return value, nil
}

// GetDefault returns the value bound to name, or def when name is unbound.
func (s *Scope) GetDefault(name string, def cty.Value) cty.Value {
	if value, ok := s.values[name]; ok {
		return value
	}
	return def
}

// IsDefined reports whether name has a binding.
func (s *Scope) IsDefined(name string) bool {
	_, ok := s.values[name]
	return ok
}

// SetDefault binds name to def when it is unbound, or when it is bound to a
// null value and setIfNone is true. It returns the resulting binding.
func (s *Scope) SetDefault(name string, def cty.Value, setIfNone bool) cty.Value {
	current, ok := s.values[name]
	if !ok || setIfNone && current.IsNull() {
		s.Set(name, def)
	}
	return s.values[name]
}

// Names returns every bound name in first-binding order.
func (s *Scope) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Len returns the number of bindings.
func (s *Scope) Len() int {
	return len(s.values)
}

// Snapshot returns a copy of the current bindings. The copy is detached;
// later mutations of the scope do not affect it.
func (s *Scope) Snapshot() map[string]cty.Value {
	snap := make(map[string]cty.Value, len(s.values))
	for name, value := range s.values {
		snap[name] = value
	}
	return snap
}

// EvalContext builds an hcl.EvalContext exposing every current binding as a
// variable, plus the scope function table. The variable map is a copy, so a
// context captured before a statement runs does not see its effects; callers
// build a fresh context per statement.
func (s *Scope) EvalContext() *hcl.EvalContext {
	variables := make(map[string]cty.Value, len(s.values))
	for name, value := range s.values {
		variables[name] = value
	}
	return &hcl.EvalContext{
		Variables: variables,
		Functions: s.funcs,
	}
}

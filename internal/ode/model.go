// Package ode loads gotran-style ODE model descriptions. An ODE file
// declares named parameters and state variables, optionally grouped into
// components, followed by intermediate expressions and one time derivative
// per state. The loader produces an in-memory Model that preserves
// declaration order and the expression syntax trees.
package ode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Param is a model constant declared in a parameters(...) statement.
type Param struct {
	Name      string
	Value     float64
	Raw       string // literal as written, kept for code generation
	Unit      string // from ScalarParam, empty otherwise
	Component string
}

// State is a state variable declared in a states(...) statement together
// with its initial condition.
type State struct {
	Name      string
	Init      float64
	Raw       string
	Component string
}

// Expression is a named right-hand side: either an intermediate assignment
// or, when Deriv is set, the time derivative of the state named Name.
type Expression struct {
	Name      string
	Deriv     bool
	RHS       Expr
	Component string
	Line      int
}

// Model is a parsed ODE file.
type Model struct {
	Name        string
	States      []State
	Parameters  []Param
	Expressions []Expression
}

// Load reads and parses the ODE file at path. The model name derives from
// the file's basename with a trailing ".ode" stripped.
func Load(path string) (*Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ode file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".ode")
	model, err := Parse(name, string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// State returns the state with the given name.
func (m *Model) State(name string) (State, bool) {
	for _, s := range m.States {
		if s.Name == name {
			return s, true
		}
	}
	return State{}, false
}

// Param returns the parameter with the given name.
func (m *Model) Param(name string) (Param, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Intermediate returns the intermediate expression assigned to name.
func (m *Model) Intermediate(name string) (Expression, bool) {
	for _, e := range m.Expressions {
		if !e.Deriv && e.Name == name {
			return e, true
		}
	}
	return Expression{}, false
}

// DerivativeOf returns the derivative expression for the named state.
func (m *Model) DerivativeOf(state string) (Expression, bool) {
	for _, e := range m.Expressions {
		if e.Deriv && e.Name == state {
			return e, true
		}
	}
	return Expression{}, false
}

// Components lists component names in order of first appearance across
// states, parameters and expressions. The unnamed component is included
// as "" when anything was declared outside an explicit component.
func (m *Model) Components() []string {
	var order []string
	seen := map[string]bool{}
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			order = append(order, c)
		}
	}
	for _, s := range m.States {
		add(s.Component)
	}
	for _, p := range m.Parameters {
		add(p.Component)
	}
	for _, e := range m.Expressions {
		add(e.Component)
	}
	return order
}

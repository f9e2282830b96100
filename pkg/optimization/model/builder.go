package model

import (
	"fmt"
	"math"
)

// Builder accumulates variables, constraints and objectives append-only.
// Build hands out the finished Model; the builder cannot be used afterwards.
type Builder struct {
	name        string
	variables   []Variable
	constraints []Constraint
	objectives  []Objective
	families    []string
	familySeen  map[string]bool
	built       bool
}

// NewBuilder creates an empty builder
func NewBuilder(name string) *Builder {
	return &Builder{
		name:       name,
		familySeen: make(map[string]bool),
	}
}

// NumVariables returns the number of variables added so far
func (b *Builder) NumVariables() int {
	return len(b.variables)
}

// AddVariable adds a variable and returns its handle
func (b *Builder) AddVariable(name string, domain Domain, lower, upper float64) VarID {
	b.mustBeOpen()
	id := VarID(len(b.variables))
	b.variables = append(b.variables, Variable{ID: id, Name: name, Domain: domain, Lower: lower, Upper: upper})
	return id
}

// AddConstraint adds expr (relation) rhs and returns its handle
func (b *Builder) AddConstraint(family, name string, expr Expr, relation Relation, rhs float64) ConstraintID {
	b.mustBeOpen()
	id := ConstraintID(len(b.constraints))
	b.constraints = append(b.constraints, Constraint{
		ID:       id,
		Family:   family,
		Name:     name,
		Expr:     expr.Compact(),
		Relation: relation,
		RHS:      rhs,
	})
	b.noteFamily(family)
	return id
}

// SetObjective replaces all objectives with a single one
func (b *Builder) SetObjective(name string, expr Expr, sense Sense) {
	b.mustBeOpen()
	b.objectives = []Objective{{Name: name, Expr: expr.Compact(), Sense: sense, Weight: 1}}
}

// AddObjectiveComponent registers one component of a multi-objective model
func (b *Builder) AddObjectiveComponent(name string, expr Expr, sense Sense, priority int, weight float64) {
	b.mustBeOpen()
	b.objectives = append(b.objectives, Objective{
		Name:     name,
		Expr:     expr.Compact(),
		Sense:    sense,
		Priority: priority,
		Weight:   weight,
	})
}

// Append merges a fragment. Fragments must be appended in the order their
// variable offsets were laid out.
func (b *Builder) Append(f *Fragment) error {
	b.mustBeOpen()
	if int(f.base) != len(b.variables) {
		return fmt.Errorf("fragment %s starts at variable %d, builder has %d", f.label, f.base, len(b.variables))
	}
	b.variables = append(b.variables, f.variables...)
	for _, c := range f.constraints {
		c.ID = ConstraintID(len(b.constraints))
		b.constraints = append(b.constraints, c)
		b.noteFamily(c.Family)
	}
	return nil
}

// Build validates and returns the immutable model
func (b *Builder) Build() (*Model, error) {
	b.mustBeOpen()
	for _, v := range b.variables {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || v.Lower > v.Upper {
			return nil, fmt.Errorf("variable %s has invalid bounds [%v, %v]", v.Name, v.Lower, v.Upper)
		}
	}
	n := VarID(len(b.variables))
	for _, c := range b.constraints {
		for _, t := range c.Expr.Terms {
			if t.Var < 0 || t.Var >= n {
				return nil, fmt.Errorf("constraint %s references unknown variable %d", c.Name, t.Var)
			}
		}
	}
	for _, o := range b.objectives {
		for _, t := range o.Expr.Terms {
			if t.Var < 0 || t.Var >= n {
				return nil, fmt.Errorf("objective %s references unknown variable %d", o.Name, t.Var)
			}
		}
	}
	if len(b.objectives) == 0 {
		return nil, fmt.Errorf("model %s has no objective", b.name)
	}

	b.built = true
	return &Model{
		name:        b.name,
		variables:   b.variables,
		constraints: b.constraints,
		objectives:  b.objectives,
		families:    b.families,
	}, nil
}

func (b *Builder) noteFamily(family string) {
	if !b.familySeen[family] {
		b.familySeen[family] = true
		b.families = append(b.families, family)
	}
}

func (b *Builder) mustBeOpen() {
	if b.built {
		panic("model: builder used after Build")
	}
}

// Fragment collects the variables and constraints of one independent
// partition of a model. Variable handles are assigned from a precomputed base
// offset so that fragments can be filled concurrently and appended in order.
type Fragment struct {
	label       string
	base        VarID
	variables   []Variable
	constraints []Constraint
}

// NewFragment creates a fragment whose first variable gets handle base
func NewFragment(label string, base VarID, varHint, constraintHint int) *Fragment {
	return &Fragment{
		label:       label,
		base:        base,
		variables:   make([]Variable, 0, varHint),
		constraints: make([]Constraint, 0, constraintHint),
	}
}

// AddVariable adds a variable to the fragment and returns its global handle
func (f *Fragment) AddVariable(name string, domain Domain, lower, upper float64) VarID {
	id := f.base + VarID(len(f.variables))
	f.variables = append(f.variables, Variable{ID: id, Name: name, Domain: domain, Lower: lower, Upper: upper})
	return id
}

// AddConstraint adds a constraint to the fragment
func (f *Fragment) AddConstraint(family, name string, expr Expr, relation Relation, rhs float64) {
	f.constraints = append(f.constraints, Constraint{
		Family:   family,
		Name:     name,
		Expr:     expr.Compact(),
		Relation: relation,
		RHS:      rhs,
	})
}

// Len returns the number of variables in the fragment
func (f *Fragment) Len() int {
	return len(f.variables)
}

// Package model describes linear optimization models independently of any
// solver. A Model is assembled once through a Builder and is immutable after
// Build returns.
package model

import (
	"math"
	"slices"
)

// VarID is the handle of a variable; it is its position in the model
type VarID int

// ConstraintID is the handle of a constraint; it is its position in the model
type ConstraintID int

// Domain is the value domain of a variable
type Domain int

const (
	Continuous Domain = iota
	Integer
	Binary
)

func (d Domain) String() string {
	switch d {
	case Continuous:
		return "Continuous"
	case Integer:
		return "Integer"
	case Binary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Relation is the comparison of a constraint's expression with its right-hand side
type Relation int

const (
	Equal Relation = iota
	LessOrEqual
	GreaterOrEqual
)

func (r Relation) String() string {
	switch r {
	case Equal:
		return "=="
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	default:
		return "?"
	}
}

// Sense is the optimization direction of an objective
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "Maximize"
	}
	return "Minimize"
}

// Variable is a decision variable with bounds
type Variable struct {
	ID     VarID
	Name   string
	Domain Domain
	Lower  float64
	Upper  float64
}

// Constraint is a named linear constraint. Family groups constraints
// generated by the same rule.
type Constraint struct {
	ID       ConstraintID
	Family   string
	Name     string
	Expr     Expr
	Relation Relation
	RHS      float64
}

// Slack returns how far the constraint is from being violated at values.
// Negative slack is a violation; for equalities it is minus the absolute residual.
func (c Constraint) Slack(values []float64) float64 {
	lhs := c.Expr.Eval(values)
	switch c.Relation {
	case LessOrEqual:
		return c.RHS - lhs
	case GreaterOrEqual:
		return lhs - c.RHS
	default:
		return -math.Abs(lhs - c.RHS)
	}
}

// Objective is one objective component. Single-objective models carry exactly
// one with Weight 1.
type Objective struct {
	Name     string
	Expr     Expr
	Sense    Sense
	Priority int
	Weight   float64
}

// Model is an immutable linear model
type Model struct {
	name        string
	variables   []Variable
	constraints []Constraint
	objectives  []Objective
	families    []string
}

func (m *Model) Name() string { return m.name }
func (m *Model) NumVariables() int { return len(m.variables) }
func (m *Model) NumConstraints() int { return len(m.constraints) }
func (m *Model) NumObjectives() int { return len(m.objectives) }

func (m *Model) Variable(id VarID) Variable { return m.variables[id] }

// Constraint and Objective return the stored entry without copying its
// expression; callers must not modify the returned Expr.Terms.
func (m *Model) Constraint(id ConstraintID) Constraint { return m.constraints[id] }
func (m *Model) Objective(i int) Objective { return m.objectives[i] }

func (m *Model) Variables() []Variable { return slices.Clone(m.variables) }

// Constraints returns deep copies of all constraints
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	for i, c := range m.constraints {
		out[i] = c
		out[i].Expr = c.Expr.Clone()
	}
	return out
}

// Objectives returns deep copies of all objective components
func (m *Model) Objectives() []Objective {
	out := make([]Objective, len(m.objectives))
	for i, o := range m.objectives {
		out[i] = o
		out[i].Expr = o.Expr.Clone()
	}
	return out
}

// Families returns constraint family names in first-seen order
func (m *Model) Families() []string { return slices.Clone(m.families) }

// FamilyCounts returns the number of constraints per family
func (m *Model) FamilyCounts() map[string]int {
	counts := make(map[string]int, len(m.families))
	for _, c := range m.constraints {
		counts[c.Family]++
	}
	return counts
}

// Derive starts a new Builder seeded with this model's variables and
// constraints but none of its objectives. The receiver is not modified.
func (m *Model) Derive(name string) *Builder {
	b := NewBuilder(name)
	b.variables = slices.Clone(m.variables)
	b.constraints = slices.Clone(m.constraints)
	b.families = slices.Clone(m.families)
	for _, f := range m.families {
		b.familySeen[f] = true
	}
	return b
}

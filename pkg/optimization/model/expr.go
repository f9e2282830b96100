package model

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Term is a coefficient applied to a variable
type Term struct {
	Var  VarID
	Coef float64
}

// Expr is a linear expression sum(Coef*Var) + Constant
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr creates an expression from terms
func NewExpr(terms ...Term) Expr {
	return Expr{Terms: terms}
}

// Clone returns a copy that shares no storage with e
func (e Expr) Clone() Expr {
	return Expr{Terms: slices.Clone(e.Terms), Constant: e.Constant}
}

// Add appends coef*v to the expression
func (e *Expr) Add(v VarID, coef float64) {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// AddExpr appends scale*other to the expression
func (e *Expr) AddExpr(other Expr, scale float64) {
	for _, t := range other.Terms {
		e.Terms = append(e.Terms, Term{Var: t.Var, Coef: t.Coef * scale})
	}
	e.Constant += other.Constant * scale
}

// Compact merges duplicate variables, drops zero coefficients and sorts
// terms by variable, so that evaluation order is reproducible.
func (e Expr) Compact() Expr {
	terms := slices.Clone(e.Terms)
	slices.SortStableFunc(terms, func(a, b Term) int { return int(a.Var) - int(b.Var) })

	out := terms[:0]
	for _, t := range terms {
		if n := len(out); n > 0 && out[n-1].Var == t.Var {
			out[n-1].Coef += t.Coef
			continue
		}
		out = append(out, t)
	}
	merged := out[:0]
	for _, t := range out {
		if t.Coef != 0 {
			merged = append(merged, t)
		}
	}
	return Expr{Terms: merged, Constant: e.Constant}
}

// Eval computes the expression value for the given variable values
func (e Expr) Eval(values []float64) float64 {
	parts := make([]float64, 0, len(e.Terms)+1)
	for _, t := range e.Terms {
		parts = append(parts, t.Coef*values[t.Var])
	}
	parts = append(parts, e.Constant)
	return floats.Sum(parts)
}

// Package solver defines the boundary to linear/mixed-integer solvers and
// provides an in-process simplex implementation.
package solver

import (
	"context"
	"time"

	"github.com/vsinha/scplan/pkg/optimization/model"
)

// Status is the outcome of a solve
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
	TimeLimitReached
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case TimeLimitReached:
		return "TimeLimitReached"
	default:
		return "Unknown"
	}
}

// Options tune a single solve
type Options struct {
	// TimeLimit of 0 means no limit
	TimeLimit time.Duration
	// Gap is the relative optimality gap accepted for integer models
	Gap     float64
	Threads int
}

// Result is what a solver reports back. Values is indexed by model.VarID and
// ObjectiveValues follows the order of the model's objectives; both are only
// set when HasIncumbent is true.
type Result struct {
	Status          Status
	HasIncumbent    bool
	Values          []float64
	ObjectiveValues []float64
	SolveTime       time.Duration
}

// Usable reports whether the result carries a solution to interpret
func (r *Result) Usable() bool {
	return r.HasIncumbent && (r.Status == Optimal || r.Status == TimeLimitReached)
}

// Solver solves a model. Implementations that support several objectives
// natively combine them as a weighted sum; priorities are handled by the caller.
type Solver interface {
	Solve(ctx context.Context, m *model.Model, opts Options) (*Result, error)
}

// ObjectiveValues evaluates every objective of m at values
func ObjectiveValues(m *model.Model, values []float64) []float64 {
	out := make([]float64, m.NumObjectives())
	for i := range out {
		out[i] = m.Objective(i).Expr.Eval(values)
	}
	return out
}

package entities

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// DataInconsistencyError reports input data that cannot form a complete model:
// probabilities that do not sum to one, missing (entity, stage) coverage, or
// references to undeclared entities.
type DataInconsistencyError struct {
	Source string
	Err    error
}

func (e *DataInconsistencyError) Error() string {
	return fmt.Sprintf("data inconsistency in %s: %v", e.Source, e.Err)
}

func (e *DataInconsistencyError) Unwrap() error {
	return e.Err
}

// Problems lists each individual inconsistency
func (e *DataInconsistencyError) Problems() []string {
	errs := multierr.Errors(e.Err)
	problems := make([]string, 0, len(errs))
	for _, err := range errs {
		problems = append(problems, err.Error())
	}
	return problems
}

// InfeasibleModelError is returned when the solver proves the model has no
// feasible solution. Families names the constraint families most likely in
// conflict, when they could be derived from the data.
type InfeasibleModelError struct {
	Families []string
	Report   string
}

func (e *InfeasibleModelError) Error() string {
	if len(e.Families) == 0 {
		return "model is infeasible: " + e.Report
	}
	return fmt.Sprintf("model is infeasible (suspected: %s): %s", strings.Join(e.Families, " vs. "), e.Report)
}

// UnboundedModelError is returned when the objective can decrease without limit
type UnboundedModelError struct {
	Objective string
}

func (e *UnboundedModelError) Error() string {
	return fmt.Sprintf("objective %s is unbounded", e.Objective)
}

// SolverTimeoutError is returned when the time limit expires before any
// incumbent solution is available. A time-out with an incumbent is not an error.
type SolverTimeoutError struct {
	Limit   time.Duration
	Elapsed time.Duration
}

func (e *SolverTimeoutError) Error() string {
	return fmt.Sprintf("solver reached time limit %v after %v without an incumbent solution", e.Limit, e.Elapsed)
}

// InvariantViolation is one failed check of a returned solution
type InvariantViolation struct {
	Family     string
	Constraint string
	Residual   float64
}

// SolutionInvariantViolation is returned when a solver result fails the
// re-verification of the model invariants. It indicates a formulation or
// solver bug and is never recoverable.
type SolutionInvariantViolation struct {
	Violations []InvariantViolation
}

func (e *SolutionInvariantViolation) Error() string {
	const shown = 5
	var b strings.Builder
	fmt.Fprintf(&b, "solution violates %d invariant(s)", len(e.Violations))
	for i, v := range e.Violations {
		if i == shown {
			fmt.Fprintf(&b, "; and %d more", len(e.Violations)-shown)
			break
		}
		fmt.Fprintf(&b, "; %s %s off by %.3g", v.Family, v.Constraint, v.Residual)
	}
	return b.String()
}

// ConfigurationError reports an invalid combination of planning options
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

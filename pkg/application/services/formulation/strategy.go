package formulation

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/scplan/pkg/optimization/model"
	"github.com/vsinha/scplan/pkg/optimization/solver"
)

// FamilyLexicographicFix holds the constraints that pin earlier optima
const FamilyLexicographicFix = "LexicographicFix"

// Level records the optimum reached for one priority level
type Level struct {
	Objective string
	Priority  int
	Optimum   float64
	Status    solver.Status
}

// Outcome is the result of solving a formulation. Result.ObjectiveValues
// follows the formulation model's objective order.
type Outcome struct {
	Result *solver.Result
	Levels []Level
}

// Solve hands the formulation to s. Weighted and single-objective models are
// solved once. Lexicographic models are solved once per priority level: each
// level optimises one objective subject to the earlier optima, relaxed by the
// lexicographic tolerance.
func Solve(ctx context.Context, s solver.Solver, f *Formulation, opts solver.Options, logger *zap.Logger) (*Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := f.Model
	if f.Features.ObjectiveMode != Lexicographic || m.NumObjectives() < 2 {
		res, err := s.Solve(ctx, m, opts)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: res}, nil
	}

	order := make([]int, m.NumObjectives())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return m.Objective(b).Priority - m.Objective(a).Priority
	})

	tol := f.Features.LexicographicTolerance
	start := time.Now()
	var (
		levels  []Level
		last    *solver.Result
		limited bool
	)
	for depth, idx := range order {
		obj := m.Objective(idx)
		b := m.Derive(fmt.Sprintf("%s/%s", m.Name(), obj.Name))
		for _, lv := range levels {
			fixed := m.Objective(indexOf(m, lv.Objective))
			slackAllowed := tol * math.Max(1, math.Abs(lv.Optimum))
			if fixed.Sense == model.Maximize {
				b.AddConstraint(FamilyLexicographicFix, "Fix["+lv.Objective+"]", fixed.Expr, model.GreaterOrEqual, lv.Optimum-slackAllowed)
			} else {
				b.AddConstraint(FamilyLexicographicFix, "Fix["+lv.Objective+"]", fixed.Expr, model.LessOrEqual, lv.Optimum+slackAllowed)
			}
		}
		b.SetObjective(obj.Name, obj.Expr, obj.Sense)
		levelModel, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build level %d model: %w", depth, err)
		}

		levelOpts := opts
		if opts.TimeLimit > 0 {
			levelOpts.TimeLimit = opts.TimeLimit - time.Since(start)
			if levelOpts.TimeLimit <= 0 {
				return &Outcome{Result: timedOut(m, last, start), Levels: levels}, nil
			}
		}

		res, err := s.Solve(ctx, levelModel, levelOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to solve priority level %d (%s): %w", depth, obj.Name, err)
		}
		if !res.Usable() {
			if res.Status == solver.TimeLimitReached && last != nil {
				// the earlier levels' solution still satisfies every fixed optimum
				return &Outcome{Result: timedOut(m, last, start), Levels: levels}, nil
			}
			res.SolveTime = time.Since(start)
			return &Outcome{Result: res, Levels: levels}, nil
		}
		if res.Status == solver.TimeLimitReached {
			limited = true
		}

		levels = append(levels, Level{
			Objective: obj.Name,
			Priority:  obj.Priority,
			Optimum:   res.ObjectiveValues[0],
			Status:    res.Status,
		})
		logger.Debug("priority level solved",
			zap.String("objective", obj.Name),
			zap.Int("priority", obj.Priority),
			zap.Float64("optimum", res.ObjectiveValues[0]),
		)
		last = res
	}

	final := &solver.Result{
		Status:          solver.Optimal,
		HasIncumbent:    true,
		Values:          last.Values,
		ObjectiveValues: solver.ObjectiveValues(m, last.Values),
		SolveTime:       time.Since(start),
	}
	if limited {
		final.Status = solver.TimeLimitReached
	}
	return &Outcome{Result: final, Levels: levels}, nil
}

// timedOut reports a time limit, carrying last as the incumbent when a
// previous level produced one
func timedOut(m *model.Model, last *solver.Result, start time.Time) *solver.Result {
	out := &solver.Result{Status: solver.TimeLimitReached, SolveTime: time.Since(start)}
	if last != nil {
		out.HasIncumbent = true
		out.Values = last.Values
		out.ObjectiveValues = solver.ObjectiveValues(m, last.Values)
	}
	return out
}

func indexOf(m *model.Model, name string) int {
	for i := 0; i < m.NumObjectives(); i++ {
		if m.Objective(i).Name == name {
			return i
		}
	}
	return -1
}

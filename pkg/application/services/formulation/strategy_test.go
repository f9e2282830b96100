package formulation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testinghelpers "github.com/vsinha/scplan/pkg/application/services/testing"
	"github.com/vsinha/scplan/pkg/optimization/model"
	"github.com/vsinha/scplan/pkg/optimization/solver"
)

func withCarbon(mode ObjectiveMode) Features {
	features := singleEchelon()
	features.CarbonObjective = true
	features.ObjectiveMode = mode
	return features
}

func TestSolve_SingleObjectiveSolvesOnce(t *testing.T) {
	f := build(t, testinghelpers.TwoStage(), singleEchelon())
	rec := &solver.Recorder{}

	out, err := Solve(context.Background(), rec, f, solver.Options{TimeLimit: time.Second}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Calls())
	assert.Same(t, f.Model, rec.Models()[0])
	assert.Empty(t, out.Levels)
	opts, ok := rec.LastOptions()
	require.True(t, ok)
	assert.Equal(t, time.Second, opts.TimeLimit)
}

func TestSolve_WeightedPassesComponentsThrough(t *testing.T) {
	features := withCarbon(Weighted)
	features.CostWeight, features.CarbonWeight = 1, 0.5
	f := build(t, testinghelpers.TwoStage(), features)
	rec := &solver.Recorder{}

	_, err := Solve(context.Background(), rec, f, solver.Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Calls())

	objs := rec.Models()[0].Objectives()
	require.Len(t, objs, 2)
	assert.Equal(t, ObjectiveCost, objs[0].Name)
	assert.Equal(t, 1.0, objs[0].Weight)
	assert.Equal(t, ObjectiveCarbon, objs[1].Name)
	assert.Equal(t, 0.5, objs[1].Weight)
}

func TestSolve_LexicographicFixesEarlierOptima(t *testing.T) {
	f := build(t, testinghelpers.TwoStage(), withCarbon(Lexicographic))
	rec := &solver.Recorder{
		Respond: func(m *model.Model, _ solver.Options) (*solver.Result, error) {
			values := make([]float64, m.NumVariables())
			values[0] = 40
			return &solver.Result{
				Status:          solver.Optimal,
				HasIncumbent:    true,
				Values:          values,
				ObjectiveValues: solver.ObjectiveValues(m, values),
			}, nil
		},
	}

	out, err := Solve(context.Background(), rec, f, solver.Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, rec.Calls())

	first, second := rec.Models()[0], rec.Models()[1]
	assert.Equal(t, ObjectiveCost, first.Objective(0).Name)
	assert.Equal(t, ObjectiveCarbon, second.Objective(0).Name)
	assert.Equal(t, f.Model.NumConstraints(), first.NumConstraints())
	require.Equal(t, f.Model.NumConstraints()+1, second.NumConstraints())

	fix := second.Constraint(model.ConstraintID(second.NumConstraints() - 1))
	assert.Equal(t, FamilyLexicographicFix, fix.Family)
	assert.Equal(t, model.LessOrEqual, fix.Relation)
	// initial order costs 1 per unit
	assert.InDelta(t, 40+40*f.Features.LexicographicTolerance, fix.RHS, 1e-12)

	require.Len(t, out.Levels, 2)
	assert.Equal(t, ObjectiveCost, out.Levels[0].Objective)
	assert.Equal(t, 40.0, out.Levels[0].Optimum)
	assert.Equal(t, solver.Optimal, out.Result.Status)
	assert.Len(t, out.Result.ObjectiveValues, 2)

	// the formulation's own model is left untouched
	assert.NotContains(t, f.Model.Families(), FamilyLexicographicFix)
}

func TestSolve_LexicographicStopsOnInfeasibleLevel(t *testing.T) {
	f := build(t, testinghelpers.TwoStage(), withCarbon(Lexicographic))
	rec := &solver.Recorder{
		Respond: func(*model.Model, solver.Options) (*solver.Result, error) {
			return &solver.Result{Status: solver.Infeasible}, nil
		},
	}

	out, err := Solve(context.Background(), rec, f, solver.Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Calls())
	assert.Equal(t, solver.Infeasible, out.Result.Status)
	assert.Empty(t, out.Levels)
}

func TestSolve_LexicographicWithSimplex(t *testing.T) {
	f := build(t, testinghelpers.TwoStage(), withCarbon(Lexicographic))

	out, err := Solve(context.Background(), solver.NewSimplex(nil), f, solver.Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, out.Result.Status)
	require.Len(t, out.Levels, 2)

	// cost is optimised first; carbon then moves all stage-0 supply into the
	// emission-free initial order
	assert.InDelta(t, 200, out.Levels[0].Optimum, 1e-6)
	assert.InDelta(t, 50, out.Levels[1].Optimum, 1e-3)
	assert.InDelta(t, 200, out.Result.ObjectiveValues[0], 1e-3)

	l := f.Layout
	assert.InDelta(t, 100, out.Result.Values[l.InitialOrder(0, 0)], 1e-3)
	assert.InDelta(t, 0, out.Result.Values[l.AdditionalOrder(0, 0, 0, 0, 0)], 1e-3)
	assert.InDelta(t, 100, out.Result.Values[l.AdditionalOrder(0, 1, 0, 0, 0)], 1e-3)
}

func TestSolve_LexicographicKeepsIncumbentWhenLaterLevelTimesOut(t *testing.T) {
	f := build(t, testinghelpers.TwoStage(), withCarbon(Lexicographic))
	calls := 0
	rec := &solver.Recorder{
		Respond: func(m *model.Model, _ solver.Options) (*solver.Result, error) {
			calls++
			if calls > 1 {
				return &solver.Result{Status: solver.TimeLimitReached}, nil
			}
			values := make([]float64, m.NumVariables())
			values[0] = 40
			return &solver.Result{
				Status:          solver.Optimal,
				HasIncumbent:    true,
				Values:          values,
				ObjectiveValues: solver.ObjectiveValues(m, values),
			}, nil
		},
	}

	out, err := Solve(context.Background(), rec, f, solver.Options{TimeLimit: time.Minute}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, rec.Calls())

	assert.Equal(t, solver.TimeLimitReached, out.Result.Status)
	assert.True(t, out.Result.HasIncumbent)
	assert.True(t, out.Result.Usable())
	require.Len(t, out.Result.Values, f.Model.NumVariables())
	assert.Equal(t, 40.0, out.Result.Values[0])
	assert.Len(t, out.Result.ObjectiveValues, 2)
	require.Len(t, out.Levels, 1)
	assert.Equal(t, ObjectiveCost, out.Levels[0].Objective)
}

func TestSolve_LexicographicCostMatchesCostOnlyOptimum(t *testing.T) {
	costOnly := build(t, testinghelpers.Regional(), DefaultFeatures())
	require.Equal(t, 1, costOnly.Model.NumObjectives())

	features := DefaultFeatures()
	features.CarbonObjective = true
	lex := build(t, testinghelpers.Regional(), features)
	require.Equal(t, 2, lex.Model.NumObjectives())

	ref, err := Solve(context.Background(), solver.NewSimplex(nil), costOnly, solver.Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, ref.Result.Status)

	out, err := Solve(context.Background(), solver.NewSimplex(nil), lex, solver.Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, out.Result.Status)
	require.Len(t, out.Levels, 2)

	want := ref.Result.ObjectiveValues[0]
	assert.Equal(t, ObjectiveCost, out.Levels[0].Objective)
	assert.InDelta(t, want, out.Levels[0].Optimum, 1e-6*math.Max(1, math.Abs(want)))
	// carbon is optimised without giving up more than the fix tolerance on cost
	assert.InDelta(t, want, out.Result.ObjectiveValues[0], 1e-5*math.Max(1, math.Abs(want)))
	assert.Greater(t, out.Levels[1].Optimum, 0.0)
}

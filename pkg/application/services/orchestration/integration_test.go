package orchestration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vsinha/scplan/pkg/application/services/formulation"
	testinghelpers "github.com/vsinha/scplan/pkg/application/services/testing"
	"github.com/vsinha/scplan/pkg/domain/entities"
	"github.com/vsinha/scplan/pkg/infrastructure/events"
	"github.com/vsinha/scplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/scplan/pkg/optimization/model"
	"github.com/vsinha/scplan/pkg/optimization/solver"
)

func loadRepositories(t *testing.T, fx testinghelpers.Fixture) (*memory.CatalogRepository, *memory.ScenarioRepository) {
	t.Helper()
	catalogRepo := memory.NewCatalogRepository()
	require.NoError(t, catalogRepo.LoadCatalog(fx.Catalog))
	scenarioRepo := memory.NewScenarioRepository()
	require.NoError(t, scenarioRepo.LoadDemandScenarios(fx.Demands))
	require.NoError(t, scenarioRepo.LoadDisruptionScenarios(fx.Disruptions))
	return catalogRepo, scenarioRepo
}

func eventTypes(t *testing.T, store events.EventStore, runID string) []string {
	t.Helper()
	stream, err := store.ReadEvents(runID, 0)
	require.NoError(t, err)
	types := make([]string, len(stream))
	for i, e := range stream {
		types[i] = e.Type()
	}
	return types
}

func TestPlanningOrchestrator_TwoStageRun(t *testing.T) {
	catalogRepo, scenarioRepo := loadRepositories(t, testinghelpers.TwoStage())
	store := events.NewInMemoryEventStore(nil)
	orchestrator := NewPlanningOrchestrator(catalogRepo, scenarioRepo, solver.NewSimplex(nil), store, zaptest.NewLogger(t))

	features := formulation.DefaultFeatures()
	features.MultiEchelon = false
	features.DistributionCenters = false

	result, err := orchestrator.RunPlanning(context.Background(), RunOptions{Features: features})
	require.NoError(t, err)
	t.Logf("%s", result.GetSummary())

	require.NotNil(t, result.Plan)
	assert.Equal(t, result.RunID, result.Plan.RunID)
	assert.Equal(t, 1, result.ScenarioPairs)
	cost, ok := result.Plan.Objective(formulation.ObjectiveCost)
	require.True(t, ok)
	assert.InDelta(t, 200, cost.Value, 1e-6)
	assert.Contains(t, result.GetSummary(), "TotalCost: 200.00")

	assert.Equal(t, []string{
		events.ModelBuiltEvent,
		events.SolveCompletedEvent,
		events.PlanInterpretedEvent,
	}, eventTypes(t, store, result.RunID))

	stream, err := store.ReadEvents(result.RunID, 0)
	require.NoError(t, err)
	built, ok := stream[0].Data().(events.ModelBuilt)
	require.True(t, ok)
	assert.Equal(t, 5, built.Variables)
	assert.Equal(t, 5, built.Constraints)
	assert.Equal(t, 1, built.ScenarioPairs)
	assert.Equal(t, 3, stream[2].Version())
}

func TestPlanningOrchestrator_RejectsInvalidSolution(t *testing.T) {
	catalogRepo, scenarioRepo := loadRepositories(t, testinghelpers.Regional())
	store := events.NewInMemoryEventStore(nil)
	orchestrator := NewPlanningOrchestrator(catalogRepo, scenarioRepo, &solver.Recorder{}, store, nil)

	result, err := orchestrator.RunPlanning(context.Background(), RunOptions{Features: formulation.DefaultFeatures()})
	// the recorder answers with an all-zero solution, which cannot satisfy demand
	var violation *entities.SolutionInvariantViolation
	require.True(t, errors.As(err, &violation))
	assert.Nil(t, result)

	all, readErr := store.ReadAllEvents(0)
	require.NoError(t, readErr)
	require.Len(t, all, 3)
	assert.Equal(t, events.PlanFailedEvent, all[2].Type())
	failed, ok := all[2].Data().(events.PlanFailed)
	require.True(t, ok)
	assert.Equal(t, StageInterpret, failed.Stage)
	assert.True(t, strings.HasPrefix(err.Error(), "planning run "+all[0].StreamID()+" failed during interpret"))
}

func TestPlanningOrchestrator_InfeasibleRun(t *testing.T) {
	catalogRepo, scenarioRepo := loadRepositories(t, testinghelpers.Shortage())
	store := events.NewInMemoryEventStore(nil)
	orchestrator := NewPlanningOrchestrator(catalogRepo, scenarioRepo, &solver.Recorder{
		Respond: func(*model.Model, solver.Options) (*solver.Result, error) {
			return &solver.Result{Status: solver.Infeasible}, nil
		},
	}, store, nil)

	features := formulation.DefaultFeatures()
	features.MultiEchelon = false
	features.DistributionCenters = false

	_, err := orchestrator.RunPlanning(context.Background(), RunOptions{Features: features})
	var infeasible *entities.InfeasibleModelError
	require.True(t, errors.As(err, &infeasible))
	assert.Contains(t, infeasible.Families, formulation.FamilyMinInventory)
	assert.Contains(t, infeasible.Families, formulation.FamilySupplierCapacity)

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, events.SolveCompletedEvent, all[1].Type())
	assert.Equal(t, "Infeasible", all[1].Data().(events.SolveCompleted).Status)
}

func TestPlanningOrchestrator_FailsBeforeBuild(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) (*memory.CatalogRepository, *memory.ScenarioRepository)
		stage  string
		target any
	}{
		{
			name: "no catalog",
			setup: func(t *testing.T) (*memory.CatalogRepository, *memory.ScenarioRepository) {
				return memory.NewCatalogRepository(), memory.NewScenarioRepository()
			},
			stage: StageLoad,
		},
		{
			name: "probabilities do not sum to one",
			setup: func(t *testing.T) (*memory.CatalogRepository, *memory.ScenarioRepository) {
				fx := testinghelpers.TwoStage()
				fx.Demands[0].Probability = 0.4
				return loadRepositories(t, fx)
			},
			stage:  StageScenario,
			target: new(*entities.DataInconsistencyError),
		},
		{
			name: "invalid feature combination",
			setup: func(t *testing.T) (*memory.CatalogRepository, *memory.ScenarioRepository) {
				return loadRepositories(t, testinghelpers.Regional())
			},
			stage:  StageBuild,
			target: new(*entities.ConfigurationError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalogRepo, scenarioRepo := tt.setup(t)
			store := events.NewInMemoryEventStore(nil)
			rec := &solver.Recorder{}
			orchestrator := NewPlanningOrchestrator(catalogRepo, scenarioRepo, rec, store, nil)

			features := formulation.DefaultFeatures()
			features.MultiEchelon = false
			features.DistributionCenters = false

			result, err := orchestrator.RunPlanning(context.Background(), RunOptions{Features: features})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Contains(t, err.Error(), "failed during "+tt.stage)
			if tt.target != nil {
				assert.ErrorAs(t, err, tt.target)
			}
			assert.Zero(t, rec.Calls())

			all, err := store.ReadAllEvents(0)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, events.PlanFailedEvent, all[0].Type())
			assert.Equal(t, tt.stage, all[0].Data().(events.PlanFailed).Stage)
		})
	}
}

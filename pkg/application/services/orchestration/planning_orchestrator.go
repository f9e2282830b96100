// Package orchestration runs a planning invocation end to end: it reads the
// catalog and scenarios from the repositories, builds and solves the model,
// interprets the result and records the run as an event stream.
package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/scplan/pkg/application/dto"
	"github.com/vsinha/scplan/pkg/application/services/formulation"
	"github.com/vsinha/scplan/pkg/application/services/interpret"
	"github.com/vsinha/scplan/pkg/application/services/scenario"
	"github.com/vsinha/scplan/pkg/domain/repositories"
	"github.com/vsinha/scplan/pkg/infrastructure/events"
	"github.com/vsinha/scplan/pkg/optimization/solver"
)

// Run stages reported in PlanFailed events
const (
	StageLoad      = "load"
	StageScenario  = "scenario"
	StageBuild     = "build"
	StageSolve     = "solve"
	StageInterpret = "interpret"
)

// PlanningOrchestrator coordinates scenario expansion, model construction,
// solving and interpretation
type PlanningOrchestrator struct {
	catalogRepo  repositories.CatalogRepository
	scenarioRepo repositories.ScenarioRepository
	solver       solver.Solver
	eventStore   events.EventStore
	logger       *zap.Logger
}

// NewPlanningOrchestrator creates a new planning orchestrator. eventStore
// may be nil.
func NewPlanningOrchestrator(
	catalogRepo repositories.CatalogRepository,
	scenarioRepo repositories.ScenarioRepository,
	s solver.Solver,
	eventStore events.EventStore,
	logger *zap.Logger,
) *PlanningOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningOrchestrator{
		catalogRepo:  catalogRepo,
		scenarioRepo: scenarioRepo,
		solver:       s,
		eventStore:   eventStore,
		logger:       logger,
	}
}

// RunOptions configures one planning run
type RunOptions struct {
	Features  formulation.Features
	Solver    solver.Options
	Tolerance float64
}

// PlanningResult contains the plan and the timings of a run
type PlanningResult struct {
	RunID         string
	Plan          *dto.Plan
	PlanningDate  time.Time
	ScenarioPairs int
	BuildTime     time.Duration
	SolveTime     time.Duration
	TotalTime     time.Duration
}

// RunPlanning performs one build → solve → interpret cycle. Every failure is
// recorded as a PlanFailed event on the run's stream and returned wrapped.
func (po *PlanningOrchestrator) RunPlanning(ctx context.Context, opts RunOptions) (*PlanningResult, error) {
	runID := uuid.NewString()
	logger := po.logger.With(zap.String("run_id", runID))
	start := time.Now()

	fail := func(stage string, err error) (*PlanningResult, error) {
		po.emit(logger, events.NewPlanFailedEvent(runID, stage, err))
		logger.Error("planning run failed", zap.String("stage", stage), zap.Error(err))
		return nil, fmt.Errorf("planning run %s failed during %s: %w", runID, stage, err)
	}

	// Step 1: Load catalog and raw scenarios
	catalog, err := po.catalogRepo.GetCatalog()
	if err != nil {
		return fail(StageLoad, err)
	}
	demands, err := po.scenarioRepo.GetDemandScenarios()
	if err != nil {
		return fail(StageLoad, err)
	}
	disruptions, err := po.scenarioRepo.GetDisruptionScenarios()
	if err != nil {
		return fail(StageLoad, err)
	}

	// Step 2: Expand the joint scenario space
	space, err := scenario.NewSpace(catalog, demands, disruptions)
	if err != nil {
		return fail(StageScenario, err)
	}
	logger.Info("scenario space ready",
		zap.Int("demand_scenarios", space.NumDemandScenarios()),
		zap.Int("disruption_scenarios", space.NumDisruptionScenarios()),
		zap.Int("pairs", space.NumPairs()),
	)

	// Step 3: Build the model
	buildStart := time.Now()
	f, err := formulation.NewBuilder(opts.Features, formulation.WithLogger(logger)).Build(ctx, catalog, space)
	if err != nil {
		return fail(StageBuild, err)
	}
	buildTime := time.Since(buildStart)
	po.emit(logger, events.NewModelBuiltEvent(runID, events.ModelBuilt{
		Variables:     f.Model.NumVariables(),
		Constraints:   f.Model.NumConstraints(),
		Objectives:    f.Model.NumObjectives(),
		ScenarioPairs: space.NumPairs(),
		Families:      f.Model.FamilyCounts(),
		BuildTime:     buildTime,
	}))

	// Step 4: Solve
	solveStart := time.Now()
	outcome, err := formulation.Solve(ctx, po.solver, f, opts.Solver, logger)
	if err != nil {
		return fail(StageSolve, err)
	}
	solveTime := time.Since(solveStart)
	po.emit(logger, events.NewSolveCompletedEvent(runID, events.SolveCompleted{
		Status:       outcome.Result.Status.String(),
		HasIncumbent: outcome.Result.HasIncumbent,
		SolveTime:    solveTime,
	}))

	// Step 5: Interpret and verify
	interpreter := interpret.New(interpret.Config{Tolerance: opts.Tolerance, TimeLimit: opts.Solver.TimeLimit})
	plan, err := interpreter.Interpret(f, outcome)
	if err != nil {
		return fail(StageInterpret, err)
	}
	plan.RunID = runID

	objectives := make(map[string]float64, len(plan.Objectives))
	for _, o := range plan.Objectives {
		objectives[o.Name] = o.Value
	}
	po.emit(logger, events.NewPlanInterpretedEvent(runID, events.PlanInterpreted{
		Objectives: objectives,
		Degraded:   plan.Degraded,
	}))

	if plan.Degraded {
		logger.Warn("solver stopped at its time limit; plan is feasible but not proven optimal")
	}

	return &PlanningResult{
		RunID:         runID,
		Plan:          plan,
		PlanningDate:  start,
		ScenarioPairs: space.NumPairs(),
		BuildTime:     buildTime,
		SolveTime:     solveTime,
		TotalTime:     time.Since(start),
	}, nil
}

func (po *PlanningOrchestrator) emit(logger *zap.Logger, event events.Event) {
	if po.eventStore == nil {
		return
	}
	if err := po.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		logger.Warn("failed to record event", zap.String("type", event.Type()), zap.Error(err))
	}
}

// GetSummary returns a formatted summary of the planning results
func (result *PlanningResult) GetSummary() string {
	summary := fmt.Sprintf("Planning Summary (run %s, %d scenario pairs):\n", result.RunID, result.ScenarioPairs)
	summary += fmt.Sprintf("  Model: %d variables, %d constraints\n",
		result.Plan.Model.Variables,
		result.Plan.Model.Constraints)
	for _, o := range result.Plan.Objectives {
		summary += fmt.Sprintf("  %s: %s\n", o.Name, o.Amount.StringFixed(2))
	}
	summary += fmt.Sprintf("  Status: %s (build %v, solve %v)", result.Plan.Status, result.BuildTime, result.SolveTime)
	return summary
}

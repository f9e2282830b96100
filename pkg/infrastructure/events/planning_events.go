package events

import (
	"time"
)

const (
	ModelBuiltEvent      = "model.built"
	SolveCompletedEvent  = "solve.completed"
	PlanInterpretedEvent = "plan.interpreted"
	PlanFailedEvent      = "plan.failed"
)

type ModelBuilt struct {
	Variables     int            `json:"variables"`
	Constraints   int            `json:"constraints"`
	Objectives    int            `json:"objectives"`
	ScenarioPairs int            `json:"scenario_pairs"`
	Families      map[string]int `json:"families"`
	BuildTime     time.Duration  `json:"build_time"`
}

type SolveCompleted struct {
	Status       string        `json:"status"`
	HasIncumbent bool          `json:"has_incumbent"`
	SolveTime    time.Duration `json:"solve_time"`
}

type PlanInterpreted struct {
	Objectives map[string]float64 `json:"objectives"`
	Degraded   bool               `json:"degraded"`
}

type PlanFailed struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func NewModelBuiltEvent(runID string, data ModelBuilt) Event {
	return NewEvent(ModelBuiltEvent, runID, data)
}

func NewSolveCompletedEvent(runID string, data SolveCompleted) Event {
	return NewEvent(SolveCompletedEvent, runID, data)
}

func NewPlanInterpretedEvent(runID string, data PlanInterpreted) Event {
	return NewEvent(PlanInterpretedEvent, runID, data)
}

func NewPlanFailedEvent(runID, stage string, err error) Event {
	return NewEvent(PlanFailedEvent, runID, PlanFailed{Stage: stage, Error: err.Error()})
}

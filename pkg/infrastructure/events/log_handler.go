package events

import (
	"fmt"

	"go.uber.org/zap"
)

// RunEventTypes lists every event a planning run emits
var RunEventTypes = []string{ModelBuiltEvent, SolveCompletedEvent, PlanInterpretedEvent, PlanFailedEvent}

// LogHandler writes planning run events to a zap logger. Failures are logged
// at warn level, everything else at info.
type LogHandler struct {
	logger *zap.Logger
}

func NewLogHandler(logger *zap.Logger) *LogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogHandler{logger: logger}
}

var _ EventHandler = (*LogHandler)(nil)

func (h *LogHandler) CanHandle(eventType string) bool {
	for _, t := range RunEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

func (h *LogHandler) Handle(event Event) error {
	fields := []zap.Field{
		zap.String("event", event.Type()),
		zap.String("run_id", event.StreamID()),
		zap.Int("version", event.Version()),
	}

	switch data := event.Data().(type) {
	case ModelBuilt:
		h.logger.Info("run event: model built", append(fields,
			zap.Int("variables", data.Variables),
			zap.Int("constraints", data.Constraints),
			zap.Int("scenario_pairs", data.ScenarioPairs),
			zap.Duration("build_time", data.BuildTime),
		)...)
	case SolveCompleted:
		h.logger.Info("run event: solve completed", append(fields,
			zap.String("status", data.Status),
			zap.Bool("has_incumbent", data.HasIncumbent),
			zap.Duration("solve_time", data.SolveTime),
		)...)
	case PlanInterpreted:
		h.logger.Info("run event: plan interpreted", append(fields,
			zap.Any("objectives", data.Objectives),
			zap.Bool("degraded", data.Degraded),
		)...)
	case PlanFailed:
		h.logger.Warn("run event: plan failed", append(fields,
			zap.String("stage", data.Stage),
			zap.String("error", data.Error),
		)...)
	default:
		h.logger.Debug("run event", fields...)
	}
	return nil
}

// Describe renders one event as a single line for run traces
func Describe(event Event) string {
	switch data := event.Data().(type) {
	case ModelBuilt:
		return fmt.Sprintf("%d %s: %d variables, %d constraints, %d scenario pairs",
			event.Version(), event.Type(), data.Variables, data.Constraints, data.ScenarioPairs)
	case SolveCompleted:
		return fmt.Sprintf("%d %s: %s in %v", event.Version(), event.Type(), data.Status, data.SolveTime)
	case PlanInterpreted:
		if data.Degraded {
			return fmt.Sprintf("%d %s: degraded", event.Version(), event.Type())
		}
		return fmt.Sprintf("%d %s", event.Version(), event.Type())
	case PlanFailed:
		return fmt.Sprintf("%d %s: %s: %s", event.Version(), event.Type(), data.Stage, data.Error)
	default:
		return fmt.Sprintf("%d %s", event.Version(), event.Type())
	}
}

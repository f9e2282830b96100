package solver

import (
	"context"
	"sync"

	"github.com/vsinha/scplan/pkg/optimization/model"
)

// Recorder is a Solver that records every model it is asked to solve and
// answers with a scripted result. It is meant for tests of model construction.
type Recorder struct {
	// Respond produces the result for a model; nil answers Optimal with all
	// variables at their lower bound (or zero when unbounded below).
	Respond func(m *model.Model, opts Options) (*Result, error)

	mu      sync.Mutex
	models  []*model.Model
	options []Options
}

var _ Solver = (*Recorder)(nil)

func (r *Recorder) Solve(ctx context.Context, m *model.Model, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.models = append(r.models, m)
	r.options = append(r.options, opts)
	r.mu.Unlock()

	if r.Respond != nil {
		return r.Respond(m, opts)
	}
	values := make([]float64, m.NumVariables())
	for i := range values {
		if lb := m.Variable(model.VarID(i)).Lower; lb > 0 {
			values[i] = lb
		}
	}
	return &Result{
		Status:          Optimal,
		HasIncumbent:    true,
		Values:          values,
		ObjectiveValues: ObjectiveValues(m, values),
	}, nil
}

// Models returns the models solved so far, in call order
func (r *Recorder) Models() []*model.Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Model(nil), r.models...)
}

// Calls returns the number of Solve calls
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.models)
}

// LastOptions returns the options of the most recent call
func (r *Recorder) LastOptions() (Options, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.options) == 0 {
		return Options{}, false
	}
	return r.options[len(r.options)-1], true
}

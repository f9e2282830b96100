package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/scplan/pkg/optimization/model"
)

// ErrUnsupportedDomain is returned for models with integer or binary variables
var ErrUnsupportedDomain = errors.New("simplex solver supports continuous variables only")

// Simplex solves continuous models with gonum's dense simplex method. Several
// objectives are combined into one weighted sum. Gap and Threads do not apply
// and are ignored.
type Simplex struct {
	// Tolerance is passed to lp.Simplex
	Tolerance float64
	logger    *zap.Logger
}

// NewSimplex creates a simplex solver
func NewSimplex(logger *zap.Logger) *Simplex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simplex{Tolerance: 1e-10, logger: logger}
}

var _ Solver = (*Simplex)(nil)

// Solve runs the simplex method. The gonum routine cannot be interrupted, so
// on time-out or cancellation it is abandoned and left to finish in the background.
func (s *Simplex) Solve(ctx context.Context, m *model.Model, opts Options) (*Result, error) {
	start := time.Now()

	sf, err := toStandardForm(m)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("standard form prepared",
		zap.String("model", m.Name()),
		zap.Int("rows", sf.rows),
		zap.Int("columns", sf.cols),
		zap.Int("threads_ignored", opts.Threads),
		zap.Float64("gap_ignored", opts.Gap),
	)

	if sf.status != nil {
		return &Result{Status: *sf.status, SolveTime: time.Since(start)}, nil
	}

	type outcome struct {
		y   []float64
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		y, err := sf.solve(s.Tolerance)
		done <- outcome{y: y, err: err}
	}()

	var timeout <-chan time.Time
	if opts.TimeLimit > 0 {
		timer := time.NewTimer(opts.TimeLimit)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return &Result{Status: TimeLimitReached, SolveTime: time.Since(start)}, nil
	case out := <-done:
		elapsed := time.Since(start)
		switch {
		case errors.Is(out.err, lp.ErrInfeasible):
			return &Result{Status: Infeasible, SolveTime: elapsed}, nil
		case errors.Is(out.err, lp.ErrUnbounded):
			return &Result{Status: Unbounded, SolveTime: elapsed}, nil
		case out.err != nil:
			return nil, fmt.Errorf("simplex failed on model %s: %w", m.Name(), out.err)
		}
		values := sf.toValues(out.y)
		return &Result{
			Status:          Optimal,
			HasIncumbent:    true,
			Values:          values,
			ObjectiveValues: ObjectiveValues(m, values),
			SolveTime:       elapsed,
		}, nil
	}
}

// column maps a standard-form column back onto a model variable:
// x[v] += sign * y[col]
type column struct {
	v    model.VarID
	sign float64
}

// standardForm is min c'y s.t. Ay = b, y >= 0
type standardForm struct {
	rows, cols int
	a          [][]float64
	b          []float64
	c          []float64
	columns    []column // structural columns only; slacks follow
	shift      []float64
	status     *Status
}

func toStandardForm(m *model.Model) (*standardForm, error) {
	n := m.NumVariables()
	sf := &standardForm{shift: make([]float64, n)}

	// column index of each variable (and its negative part for free variables)
	pos := make([]int, n)
	neg := make([]int, n)
	var bounded []model.VarID

	for i := 0; i < n; i++ {
		v := m.Variable(model.VarID(i))
		if v.Domain != model.Continuous {
			return nil, fmt.Errorf("variable %s is %s: %w", v.Name, v.Domain, ErrUnsupportedDomain)
		}
		pos[i], neg[i] = -1, -1
		lowerFinite := !math.IsInf(v.Lower, -1)
		upperFinite := !math.IsInf(v.Upper, 1)
		switch {
		case lowerFinite && upperFinite && v.Lower == v.Upper:
			sf.shift[i] = v.Lower
		case lowerFinite:
			sf.shift[i] = v.Lower
			pos[i] = sf.addColumn(v.ID, 1)
			if upperFinite {
				bounded = append(bounded, v.ID)
			}
		case upperFinite:
			sf.shift[i] = v.Upper
			pos[i] = sf.addColumn(v.ID, -1)
		default:
			pos[i] = sf.addColumn(v.ID, 1)
			neg[i] = sf.addColumn(v.ID, -1)
		}
	}
	structural := len(sf.columns)

	type row struct {
		coef  map[int]float64
		rhs   float64
		slack float64
	}
	var rows []row
	infeasible := func() (*standardForm, error) {
		st := Infeasible
		sf.status = &st
		return sf, nil
	}

	for i := 0; i < m.NumConstraints(); i++ {
		con := m.Constraint(model.ConstraintID(i))
		r := row{coef: make(map[int]float64, len(con.Expr.Terms)), rhs: con.RHS - con.Expr.Constant}
		for _, t := range con.Expr.Terms {
			r.rhs -= t.Coef * sf.shift[t.Var]
			if p := pos[t.Var]; p >= 0 {
				r.coef[p] += t.Coef * sf.columns[p].sign
			}
			if q := neg[t.Var]; q >= 0 {
				r.coef[q] += t.Coef * sf.columns[q].sign
			}
		}
		for k, v := range r.coef {
			if v == 0 {
				delete(r.coef, k)
			}
		}
		switch con.Relation {
		case model.LessOrEqual:
			r.slack = 1
		case model.GreaterOrEqual:
			r.slack = -1
		}
		if len(r.coef) == 0 {
			if con.Relation == model.Equal && math.Abs(r.rhs) > 1e-9 ||
				r.slack > 0 && r.rhs < -1e-9 ||
				r.slack < 0 && r.rhs > 1e-9 {
				return infeasible()
			}
			continue
		}
		rows = append(rows, r)
	}
	for _, id := range bounded {
		v := m.Variable(id)
		rows = append(rows, row{coef: map[int]float64{pos[id]: 1}, rhs: v.Upper - v.Lower, slack: 1})
	}

	// objective: weighted sum of all components, as minimisation
	cost := make([]float64, structural)
	for i := 0; i < m.NumObjectives(); i++ {
		o := m.Objective(i)
		scale := o.Weight
		if o.Sense == model.Maximize {
			scale = -scale
		}
		for _, t := range o.Expr.Terms {
			if p := pos[t.Var]; p >= 0 {
				cost[p] += scale * t.Coef * sf.columns[p].sign
			}
			if q := neg[t.Var]; q >= 0 {
				cost[q] += scale * t.Coef * sf.columns[q].sign
			}
		}
	}

	// columns that appear in no row are set to zero unless that is unbounded
	used := make([]bool, structural)
	for _, r := range rows {
		for k := range r.coef {
			used[k] = true
		}
	}
	keep := make([]int, structural)
	kept := 0
	for j := 0; j < structural; j++ {
		if !used[j] {
			if cost[j] < 0 {
				st := Unbounded
				sf.status = &st
				return sf, nil
			}
			keep[j] = -1
			continue
		}
		keep[j] = kept
		kept++
	}
	columns := make([]column, 0, kept)
	for j := 0; j < structural; j++ {
		if keep[j] >= 0 {
			columns = append(columns, sf.columns[j])
		}
	}
	sf.columns = columns

	slacks := 0
	for _, r := range rows {
		if r.slack != 0 {
			slacks++
		}
	}
	sf.rows = len(rows)
	sf.cols = kept + slacks
	sf.a = make([][]float64, len(rows))
	sf.b = make([]float64, len(rows))
	sf.c = make([]float64, sf.cols)
	for j := 0; j < structural; j++ {
		if keep[j] >= 0 {
			sf.c[keep[j]] = cost[j]
		}
	}
	next := kept
	for i, r := range rows {
		sf.a[i] = make([]float64, sf.cols)
		for k, v := range r.coef {
			sf.a[i][keep[k]] = v
		}
		if r.slack != 0 {
			sf.a[i][next] = r.slack
			next++
		}
		sf.b[i] = r.rhs
	}
	return sf, nil
}

func (sf *standardForm) addColumn(v model.VarID, sign float64) int {
	sf.columns = append(sf.columns, column{v: v, sign: sign})
	return len(sf.columns) - 1
}

func (sf *standardForm) solve(tol float64) (y []float64, err error) {
	if sf.rows == 0 {
		return make([]float64, sf.cols), nil
	}
	if sf.rows > sf.cols {
		return nil, fmt.Errorf("%d rows exceed %d columns: %w", sf.rows, sf.cols, lp.ErrSingular)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lp: %v", r)
		}
	}()

	a := mat.NewDense(sf.rows, sf.cols, nil)
	for i, row := range sf.a {
		a.SetRow(i, row)
	}
	_, y, err = lp.Simplex(sf.c, a, sf.b, tol, nil)
	return y, err
}

func (sf *standardForm) toValues(y []float64) []float64 {
	values := make([]float64, len(sf.shift))
	copy(values, sf.shift)
	for j, col := range sf.columns {
		values[col.v] += col.sign * y[j]
	}
	return values
}

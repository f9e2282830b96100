// Package interpret maps solver output back onto the planning domain and
// re-verifies the model invariants against the returned values.
package interpret

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vsinha/scplan/pkg/application/dto"
	"github.com/vsinha/scplan/pkg/application/services/formulation"
	"github.com/vsinha/scplan/pkg/domain/entities"
	"github.com/vsinha/scplan/pkg/optimization/model"
	"github.com/vsinha/scplan/pkg/optimization/solver"
)

// DefaultTolerance is the absolute slack allowed on every invariant
const DefaultTolerance = 1e-6

// Config tunes an Interpreter
type Config struct {
	Tolerance float64
	// TimeLimit is reported in SolverTimeoutError
	TimeLimit time.Duration
}

// Interpreter turns solver results into plans
type Interpreter struct {
	tolerance float64
	timeLimit time.Duration
}

// New creates an interpreter; a non-positive tolerance uses DefaultTolerance
func New(cfg Config) *Interpreter {
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Interpreter{tolerance: tol, timeLimit: cfg.TimeLimit}
}

// Interpret checks the solve status, verifies the solution and builds the
// plan. No plan is produced for infeasible, unbounded or timed-out solves.
func (i *Interpreter) Interpret(f *formulation.Formulation, outcome *formulation.Outcome) (*dto.Plan, error) {
	res := outcome.Result
	switch {
	case res.Status == solver.Infeasible:
		families, report := Diagnose(f)
		return nil, &entities.InfeasibleModelError{Families: families, Report: report}
	case res.Status == solver.Unbounded:
		return nil, &entities.UnboundedModelError{Objective: f.Model.Objective(0).Name}
	case res.Status == solver.TimeLimitReached && !res.HasIncumbent:
		return nil, &entities.SolverTimeoutError{Limit: i.timeLimit, Elapsed: res.SolveTime}
	case !res.Usable():
		return nil, fmt.Errorf("solver returned %s without a usable solution", res.Status)
	}

	if len(res.Values) != f.Model.NumVariables() {
		return nil, fmt.Errorf("solver returned %d values for %d variables", len(res.Values), f.Model.NumVariables())
	}
	if len(res.ObjectiveValues) != f.Model.NumObjectives() {
		return nil, fmt.Errorf("solver returned %d objective values for %d objectives", len(res.ObjectiveValues), f.Model.NumObjectives())
	}

	if violations := i.Verify(f, res.Values); len(violations) > 0 {
		return nil, &entities.SolutionInvariantViolation{Violations: violations}
	}

	return i.plan(f, outcome), nil
}

// Verify recomputes every invariant of the plan from the catalog and the
// scenario space and returns those violated by more than the tolerance.
func (i *Interpreter) Verify(f *formulation.Formulation, x []float64) []entities.InvariantViolation {
	c, space, l := f.Catalog, f.Space, f.Layout
	tol := i.tolerance
	var out []entities.InvariantViolation
	report := func(family, name string, residual float64) {
		out = append(out, entities.InvariantViolation{Family: family, Constraint: name, Residual: residual})
	}

	for idx, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			report("Bounds", f.Model.Variable(modelVar(idx)).Name, math.NaN())
		} else if v < -tol {
			report("Bounds", f.Model.Variable(modelVar(idx)).Name, v)
		}
	}

	for p := 0; p < l.Products; p++ {
		minInv := c.Product(p).MinInventory
		for s := 0; s < l.Suppliers; s++ {
			order := x[l.InitialOrder(p, s)]
			for k := 0; k < space.NumDisruptionScenarios(); k++ {
				if space.ScenarioDisrupted(k, s, 0) {
					continue
				}
				if order < minInv-tol {
					report(formulation.FamilyMinInitialOrder, fmt.Sprintf("%s/%s/%s", c.Product(p).ID, c.Supplier(s).ID, space.DisruptionScenarioID(k)), order-minInv)
				}
			}
		}
	}

	for sp := 0; sp < l.Pairs; sp++ {
		label := space.PairLabel(sp)
		for p := 0; p < l.Products; p++ {
			product := c.Product(p)
			for r := 0; r < l.Retailers; r++ {
				for t := 0; t < l.Stages; t++ {
					terms := make([]float64, 0, 2*l.Suppliers+3)
					if t == 0 {
						for s := 0; s < l.Suppliers; s++ {
							terms = append(terms, x[l.InitialOrder(p, s)])
						}
					} else {
						terms = append(terms, x[l.InventoryLevel(p, t-1, r, sp)])
					}
					for s := 0; s < l.Suppliers; s++ {
						terms = append(terms, x[l.AdditionalOrder(p, t, s, r, sp)])
					}
					level := x[l.InventoryLevel(p, t, r, sp)]
					terms = append(terms, -level, -space.Demand(sp, r, p, t))

					name := fmt.Sprintf("%s/%d/%s/%s", product.ID, t, c.Retailer(r).ID, label)
					if residual := floats.Sum(terms); math.Abs(residual) > tol {
						family := formulation.FamilyRecursiveBalance
						if t == 0 {
							family = formulation.FamilyInitialBalance
						}
						report(family, name, residual)
					}
					if level < product.MinInventory-tol {
						report(formulation.FamilyMinInventory, name, level-product.MinInventory)
					}
				}
			}
		}

		for s := 0; s < l.Suppliers; s++ {
			supplier := c.Supplier(s)
			for t := 0; t < l.Stages; t++ {
				var delivered []float64
				for p := 0; p < l.Products; p++ {
					if t == 0 {
						delivered = append(delivered, x[l.InitialOrder(p, s)])
					}
					for r := 0; r < l.Retailers; r++ {
						q := x[l.AdditionalOrder(p, t, s, r, sp)]
						delivered = append(delivered, q)
						if space.Disrupted(sp, s, t) && math.Abs(q) > tol {
							report(formulation.FamilyDisruptionBlock,
								fmt.Sprintf("%s/%d/%s/%s/%s", c.Product(p).ID, t, supplier.ID, c.Retailer(r).ID, label), q)
						}
					}
				}
				if supplier.Capacitated() {
					if excess := floats.Sum(delivered) - supplier.Capacity; excess > tol {
						report(formulation.FamilySupplierCapacity, fmt.Sprintf("%s/%d/%s", supplier.ID, t, label), excess)
					}
				}
			}
		}
	}

	for d := 0; d < l.DistributionCenters; d++ {
		dc := c.DistributionCenter(d)
		stock := make([]float64, l.Products)
		for p := 0; p < l.Products; p++ {
			stock[p] = x[l.DCInventory(d, p)]
		}
		if excess := floats.Sum(stock) - dc.Capacity; excess > tol {
			report(formulation.FamilyDCCapacity, string(dc.ID), excess)
		}
	}
	return out
}

func (i *Interpreter) plan(f *formulation.Formulation, outcome *formulation.Outcome) *dto.Plan {
	c, space, l, m := f.Catalog, f.Space, f.Layout, f.Model
	res := outcome.Result
	x := res.Values

	plan := &dto.Plan{
		Status:    res.Status.String(),
		Degraded:  res.Status == solver.TimeLimitReached,
		SolveTime: res.SolveTime,
		Model: dto.ModelStats{
			Variables:   m.NumVariables(),
			Constraints: m.NumConstraints(),
			Families:    m.FamilyCounts(),
		},
	}

	for k := 0; k < m.NumObjectives(); k++ {
		v := res.ObjectiveValues[k]
		plan.Objectives = append(plan.Objectives, dto.ObjectiveValue{
			Name:   m.Objective(k).Name,
			Value:  v,
			Amount: decimal.NewFromFloat(v).Round(2),
		})
	}
	for _, lv := range outcome.Levels {
		plan.Levels = append(plan.Levels, dto.PriorityLevel{Objective: lv.Objective, Priority: lv.Priority, Optimum: lv.Optimum})
	}

	for sp := 0; sp < l.Pairs; sp++ {
		pair := space.Pair(sp)
		plan.Scenarios = append(plan.Scenarios, dto.ScenarioPair{
			DemandScenario:     space.DemandScenarioID(pair.Demand),
			DisruptionScenario: space.DisruptionScenarioID(pair.Disruption),
			Probability:        pair.Probability,
		})
	}

	for p := 0; p < l.Products; p++ {
		for s := 0; s < l.Suppliers; s++ {
			plan.InitialOrders = append(plan.InitialOrders, dto.InitialOrder{
				Product:  c.Product(p).ID,
				Supplier: c.Supplier(s).ID,
				Quantity: clean(x[l.InitialOrder(p, s)]),
			})
		}
	}

	for sp := 0; sp < l.Pairs; sp++ {
		pair := space.Pair(sp)
		ds, dp := space.DemandScenarioID(pair.Demand), space.DisruptionScenarioID(pair.Disruption)
		for p := 0; p < l.Products; p++ {
			for t := 0; t < l.Stages; t++ {
				for s := 0; s < l.Suppliers; s++ {
					for r := 0; r < l.Retailers; r++ {
						plan.AdditionalOrders = append(plan.AdditionalOrders, dto.AdditionalOrder{
							Product:            c.Product(p).ID,
							Stage:              t,
							Supplier:           c.Supplier(s).ID,
							Retailer:           c.Retailer(r).ID,
							DemandScenario:     ds,
							DisruptionScenario: dp,
							Quantity:           clean(x[l.AdditionalOrder(p, t, s, r, sp)]),
						})
					}
				}
				for r := 0; r < l.Retailers; r++ {
					plan.Inventory = append(plan.Inventory, dto.InventoryLevel{
						Product:            c.Product(p).ID,
						Stage:              t,
						Retailer:           c.Retailer(r).ID,
						DemandScenario:     ds,
						DisruptionScenario: dp,
						Quantity:           clean(x[l.InventoryLevel(p, t, r, sp)]),
					})
				}
			}
		}
	}

	for d := 0; d < l.DistributionCenters; d++ {
		for p := 0; p < l.Products; p++ {
			plan.DCInventory = append(plan.DCInventory, dto.DCStock{
				DistributionCenter: c.DistributionCenter(d).ID,
				Product:            c.Product(p).ID,
				Quantity:           clean(x[l.DCInventory(d, p)]),
			})
		}
	}
	for p := 0; p < l.Products; p++ {
		for r := 0; r < l.Retailers; r++ {
			for t := 0; t < l.Stages; t++ {
				values, weights := space.DemandSeries(r, p, t)
				plan.Demand = append(plan.Demand, dto.DemandSummary{
					Product:  c.Product(p).ID,
					Retailer: c.Retailer(r).ID,
					Stage:    t,
					Expected: stat.Mean(values, weights),
					// population moment; probability weights sum to one
					StdDev: math.Sqrt(stat.Moment(2, values, weights)),
					Max:    floats.Max(values),
				})
			}
		}
	}
	return plan
}

// clean removes solver round-off around zero
func clean(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}

func modelVar(i int) model.VarID { return model.VarID(i) }

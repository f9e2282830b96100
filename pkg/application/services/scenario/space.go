// Package scenario builds the joint probability space of demand and supply
// disruption scenarios.
package scenario

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"

	"github.com/vsinha/scplan/pkg/domain/entities"
)

// ProbabilityTolerance bounds how far a probability set may sum away from one
const ProbabilityTolerance = 1e-6

// Pair is one joint outcome of a demand scenario and a disruption scenario
type Pair struct {
	Index       int
	Demand      int
	Disruption  int
	Probability float64
}

// Space is the Cartesian product of demand and disruption scenarios with
// dense, integer-indexed data tables. Pairs are ordered demand-major.
type Space struct {
	catalog *entities.Catalog

	demandIDs       []string
	demandProbs     []float64
	disruptionIDs   []string
	disruptionProbs []float64

	// demand[k][(r*P+p)*T+t]
	demand [][]float64
	// disrupted[k][s*T+t]
	disrupted [][]bool

	pairs []Pair
}

// NewSpace validates both scenario sets against the catalog and forms every
// scenario pair. Each probability set must sum to one within
// ProbabilityTolerance and every mapping must cover all required (entity,
// stage) combinations; otherwise a DataInconsistencyError is returned.
func NewSpace(
	catalog *entities.Catalog,
	demands []*entities.DemandScenario,
	disruptions []*entities.DisruptionScenario,
) (*Space, error) {
	if catalog == nil {
		return nil, fmt.Errorf("scenario space requires a catalog")
	}

	s := &Space{catalog: catalog}
	var errs error

	if len(demands) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one demand scenario is required"))
	}
	if len(disruptions) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one disruption scenario is required"))
	}

	seen := make(map[string]bool, len(demands))
	for _, ds := range demands {
		if ds == nil {
			errs = multierr.Append(errs, fmt.Errorf("demand scenario cannot be nil"))
			continue
		}
		errs = multierr.Append(errs, checkIdentity("demand", ds.ID, ds.Probability, seen))
		table, err := s.demandTable(*ds)
		errs = multierr.Append(errs, err)
		s.demandIDs = append(s.demandIDs, ds.ID)
		s.demandProbs = append(s.demandProbs, ds.Probability)
		s.demand = append(s.demand, table)
	}

	seen = make(map[string]bool, len(disruptions))
	for _, dp := range disruptions {
		if dp == nil {
			errs = multierr.Append(errs, fmt.Errorf("disruption scenario cannot be nil"))
			continue
		}
		errs = multierr.Append(errs, checkIdentity("disruption", dp.ID, dp.Probability, seen))
		table, err := s.disruptionTable(*dp)
		errs = multierr.Append(errs, err)
		s.disruptionIDs = append(s.disruptionIDs, dp.ID)
		s.disruptionProbs = append(s.disruptionProbs, dp.Probability)
		s.disrupted = append(s.disrupted, table)
	}

	errs = multierr.Append(errs, normalize("demand", s.demandProbs))
	errs = multierr.Append(errs, normalize("disruption", s.disruptionProbs))

	if errs != nil {
		return nil, &entities.DataInconsistencyError{Source: "scenario space", Err: errs}
	}

	s.pairs = make([]Pair, 0, len(demands)*len(disruptions))
	for i := range s.demandProbs {
		for j := range s.disruptionProbs {
			s.pairs = append(s.pairs, Pair{
				Index:       len(s.pairs),
				Demand:      i,
				Disruption:  j,
				Probability: s.demandProbs[i] * s.disruptionProbs[j],
			})
		}
	}
	return s, nil
}

func checkIdentity(kind, id string, probability float64, seen map[string]bool) error {
	var errs error
	if id == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s scenario id cannot be empty", kind))
	} else if seen[id] {
		errs = multierr.Append(errs, fmt.Errorf("duplicate %s scenario %s", kind, id))
	}
	seen[id] = true
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		errs = multierr.Append(errs, fmt.Errorf("%s scenario %s: probability must be within [0,1], got %v", kind, id, probability))
	}
	return errs
}

// normalize checks that probs sums to one and rescales it to sum exactly
func normalize(kind string, probs []float64) error {
	if len(probs) == 0 {
		return nil
	}
	total := floats.Sum(probs)
	if math.Abs(total-1) > ProbabilityTolerance {
		return fmt.Errorf("%s scenario probabilities sum to %v, want 1", kind, total)
	}
	floats.Scale(1/total, probs)
	return nil
}

func (s *Space) demandTable(ds entities.DemandScenario) ([]float64, error) {
	c := s.catalog
	P, T := c.NumProducts(), c.NumStages()
	table := make([]float64, c.NumRetailers()*P*T)
	var errs error

	for key, qty := range ds.Demand {
		r, okR := c.RetailerIndex(key.Retailer)
		p, okP := c.ProductIndex(key.Product)
		switch {
		case !okR:
			errs = multierr.Append(errs, fmt.Errorf("demand scenario %s references unknown retailer %s", ds.ID, key.Retailer))
			continue
		case !okP:
			errs = multierr.Append(errs, fmt.Errorf("demand scenario %s references unknown product %s", ds.ID, key.Product))
			continue
		case key.Stage < 0 || key.Stage >= T:
			errs = multierr.Append(errs, fmt.Errorf("demand scenario %s references stage %d outside 0..%d", ds.ID, key.Stage, T-1))
			continue
		}
		if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
			errs = multierr.Append(errs, fmt.Errorf("demand scenario %s: demand for %s/%s at stage %d must be non-negative, got %v",
				ds.ID, key.Retailer, key.Product, key.Stage, qty))
			continue
		}
		table[(r*P+p)*T+key.Stage] = qty
	}

	for r := 0; r < c.NumRetailers(); r++ {
		for p := 0; p < P; p++ {
			for t := 0; t < T; t++ {
				key := entities.DemandKey{Retailer: c.Retailer(r).ID, Product: c.Product(p).ID, Stage: t}
				if _, ok := ds.Demand[key]; !ok {
					errs = multierr.Append(errs, fmt.Errorf("demand scenario %s has no demand for retailer %s, product %s, stage %d",
						ds.ID, key.Retailer, key.Product, t))
				}
			}
		}
	}
	return table, errs
}

func (s *Space) disruptionTable(dp entities.DisruptionScenario) ([]bool, error) {
	c := s.catalog
	T := c.NumStages()
	table := make([]bool, c.NumSuppliers()*T)
	var errs error

	for key, flag := range dp.Disrupted {
		sup, ok := c.SupplierIndex(key.Supplier)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("disruption scenario %s references unknown supplier %s", dp.ID, key.Supplier))
			continue
		}
		if key.Stage < 0 || key.Stage >= T {
			errs = multierr.Append(errs, fmt.Errorf("disruption scenario %s references stage %d outside 0..%d", dp.ID, key.Stage, T-1))
			continue
		}
		table[sup*T+key.Stage] = flag
	}

	for sup := 0; sup < c.NumSuppliers(); sup++ {
		for t := 0; t < T; t++ {
			key := entities.DisruptionKey{Supplier: c.Supplier(sup).ID, Stage: t}
			if _, ok := dp.Disrupted[key]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("disruption scenario %s has no flag for supplier %s, stage %d", dp.ID, key.Supplier, t))
			}
		}
	}
	return table, errs
}

// Catalog returns the catalog the space was validated against
func (s *Space) Catalog() *entities.Catalog { return s.catalog }

// NumPairs returns the number of scenario pairs
func (s *Space) NumPairs() int { return len(s.pairs) }

// Pair returns the i-th scenario pair
func (s *Space) Pair(i int) Pair { return s.pairs[i] }

// Pairs returns a copy of all scenario pairs
func (s *Space) Pairs() []Pair { return append([]Pair(nil), s.pairs...) }

func (s *Space) NumDemandScenarios() int { return len(s.demandIDs) }

func (s *Space) NumDisruptionScenarios() int { return len(s.disruptionIDs) }

func (s *Space) DemandScenarioID(k int) string { return s.demandIDs[k] }

func (s *Space) DisruptionScenarioID(k int) string { return s.disruptionIDs[k] }

// DemandProbability returns the normalized probability of demand scenario k
func (s *Space) DemandProbability(k int) float64 { return s.demandProbs[k] }

// DisruptionProbability returns the normalized probability of disruption scenario k
func (s *Space) DisruptionProbability(k int) float64 { return s.disruptionProbs[k] }

// PairLabel names a pair by its scenario IDs
func (s *Space) PairLabel(i int) string {
	p := s.pairs[i]
	return s.demandIDs[p.Demand] + "/" + s.disruptionIDs[p.Disruption]
}

// Demand returns the demand of retailer r for product p at stage t in pair i
func (s *Space) Demand(i, r, p, t int) float64 {
	return s.ScenarioDemand(s.pairs[i].Demand, r, p, t)
}

// ScenarioDemand returns the demand of retailer r for product p at stage t in demand scenario k
func (s *Space) ScenarioDemand(k, r, p, t int) float64 {
	P, T := s.catalog.NumProducts(), s.catalog.NumStages()
	return s.demand[k][(r*P+p)*T+t]
}

// Disrupted reports whether supplier sup is unavailable at stage t in pair i
func (s *Space) Disrupted(i, sup, t int) bool {
	return s.ScenarioDisrupted(s.pairs[i].Disruption, sup, t)
}

// ScenarioDisrupted reports whether supplier sup is unavailable at stage t in disruption scenario k
func (s *Space) ScenarioDisrupted(k, sup, t int) bool {
	return s.disrupted[k][sup*s.catalog.NumStages()+t]
}

// TotalProbability sums the joint probabilities of all pairs
func (s *Space) TotalProbability() float64 {
	probs := make([]float64, len(s.pairs))
	for i, p := range s.pairs {
		probs[i] = p.Probability
	}
	return floats.Sum(probs)
}

// DemandSeries returns the demand of (r, p, t) across demand scenarios along
// with the scenario probabilities, suitable for weighted statistics.
func (s *Space) DemandSeries(r, p, t int) (values, weights []float64) {
	values = make([]float64, len(s.demandIDs))
	for k := range s.demandIDs {
		values[k] = s.ScenarioDemand(k, r, p, t)
	}
	return values, append([]float64(nil), s.demandProbs...)
}

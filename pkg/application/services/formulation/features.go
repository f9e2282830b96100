// Package formulation turns a catalog and a scenario space into a linear
// model of the stochastic multi-echelon inventory plan.
package formulation

import (
	"fmt"
	"math"
	"runtime"

	"github.com/vsinha/scplan/pkg/domain/entities"
)

// ObjectiveMode selects how cost and carbon are combined
type ObjectiveMode int

const (
	// Weighted minimises sum(weight_k * objective_k)
	Weighted ObjectiveMode = iota
	// Lexicographic optimises objectives in priority order, fixing each
	// optimum before optimising the next
	Lexicographic
)

func (m ObjectiveMode) String() string {
	switch m {
	case Weighted:
		return "weighted"
	case Lexicographic:
		return "lexicographic"
	default:
		return "unknown"
	}
}

// ParseObjectiveMode parses "weighted" or "lexicographic"
func ParseObjectiveMode(s string) (ObjectiveMode, error) {
	switch s {
	case "weighted", "":
		return Weighted, nil
	case "lexicographic", "priority":
		return Lexicographic, nil
	default:
		return Weighted, fmt.Errorf("unknown objective mode %q", s)
	}
}

// Features selects the model variant
type Features struct {
	// MultiEchelon allows several suppliers and retailers; without it the
	// catalog must hold exactly one of each
	MultiEchelon bool
	// DistributionCenters adds DC inventory and capacity; needs MultiEchelon
	DistributionCenters bool
	// CarbonObjective registers TotalCarbon next to TotalCost
	CarbonObjective bool
	ObjectiveMode   ObjectiveMode

	CostWeight     float64
	CarbonWeight   float64
	CostPriority   int
	CarbonPriority int

	// LexicographicTolerance relaxes each fixed optimum by tol*max(1,|optimum|)
	LexicographicTolerance float64

	// Workers bounds concurrent scenario-pair construction; 0 uses GOMAXPROCS
	Workers int
}

// DefaultFeatures returns the full multi-echelon variant with cost only
func DefaultFeatures() Features {
	return Features{
		MultiEchelon:           true,
		DistributionCenters:    true,
		ObjectiveMode:          Lexicographic,
		CostWeight:             1,
		CarbonWeight:           1,
		CostPriority:           1,
		CarbonPriority:         0,
		LexicographicTolerance: 1e-7,
	}
}

// Validate checks the features against a catalog
func (f Features) Validate(c *entities.Catalog) error {
	if f.DistributionCenters && !f.MultiEchelon {
		return &entities.ConfigurationError{Field: "distribution_centers", Reason: "requires multi_echelon"}
	}
	if !f.MultiEchelon && (c.NumSuppliers() != 1 || c.NumRetailers() != 1) {
		return &entities.ConfigurationError{
			Field:  "multi_echelon",
			Reason: fmt.Sprintf("single-echelon model needs exactly one supplier and one retailer, catalog has %d and %d", c.NumSuppliers(), c.NumRetailers()),
		}
	}
	if f.CarbonObjective && f.ObjectiveMode == Weighted {
		if !validWeight(f.CostWeight) || !validWeight(f.CarbonWeight) {
			return &entities.ConfigurationError{Field: "weights", Reason: "weights must be finite and non-negative"}
		}
		if f.CostWeight == 0 && f.CarbonWeight == 0 {
			return &entities.ConfigurationError{Field: "weights", Reason: "at least one weight must be positive"}
		}
	}
	if f.CarbonObjective && f.ObjectiveMode == Lexicographic && f.CostPriority == f.CarbonPriority {
		return &entities.ConfigurationError{Field: "priorities", Reason: "cost and carbon need distinct priorities"}
	}
	if f.LexicographicTolerance < 0 {
		return &entities.ConfigurationError{Field: "lexicographic_tolerance", Reason: "must be non-negative"}
	}
	if f.Workers < 0 {
		return &entities.ConfigurationError{Field: "workers", Reason: "must be non-negative"}
	}
	return nil
}

func (f Features) workers() int {
	if f.Workers > 0 {
		return f.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func validWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w >= 0
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/scplan/pkg/domain/entities"
)

// Plan is the caller-facing solution of a planning run, keyed by domain
// entities rather than solver handles
type Plan struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`

	// Degraded is set when the solver stopped at its time limit with an
	// incumbent that is feasible but not proven optimal
	Degraded bool `json:"degraded"`

	SolveTime  time.Duration    `json:"solve_time_ns"`
	Model      ModelStats       `json:"model"`
	Scenarios  []ScenarioPair   `json:"scenarios"`
	Objectives []ObjectiveValue `json:"objectives"`
	Levels     []PriorityLevel  `json:"priority_levels,omitempty"`

	InitialOrders    []InitialOrder    `json:"initial_orders"`
	AdditionalOrders []AdditionalOrder `json:"additional_orders"`
	Inventory        []InventoryLevel  `json:"inventory"`
	DCInventory      []DCStock         `json:"dc_inventory,omitempty"`

	Demand []DemandSummary `json:"demand"`
}

// ModelStats summarises the size of the generated model
type ModelStats struct {
	Variables   int            `json:"variables"`
	Constraints int            `json:"constraints"`
	Families    map[string]int `json:"families"`
}

// ScenarioPair describes one joint scenario
type ScenarioPair struct {
	DemandScenario     string  `json:"demand_scenario"`
	DisruptionScenario string  `json:"disruption_scenario"`
	Probability        float64 `json:"probability"`
}

// ObjectiveValue is the value of one objective at the returned solution.
// Amount is the value rounded for reporting.
type ObjectiveValue struct {
	Name   string          `json:"name"`
	Value  float64         `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

// PriorityLevel is the optimum reached at one lexicographic level
type PriorityLevel struct {
	Objective string  `json:"objective"`
	Priority  int     `json:"priority"`
	Optimum   float64 `json:"optimum"`
}

// InitialOrder is a first-stage order placed before uncertainty is revealed
type InitialOrder struct {
	Product  entities.ProductID  `json:"product"`
	Supplier entities.SupplierID `json:"supplier"`
	Quantity float64             `json:"quantity"`
}

// AdditionalOrder is a recourse order in one scenario pair
type AdditionalOrder struct {
	Product            entities.ProductID  `json:"product"`
	Stage              int                 `json:"stage"`
	Supplier           entities.SupplierID `json:"supplier"`
	Retailer           entities.RetailerID `json:"retailer"`
	DemandScenario     string              `json:"demand_scenario"`
	DisruptionScenario string              `json:"disruption_scenario"`
	Quantity           float64             `json:"quantity"`
}

// InventoryLevel is the ending inventory of a retailer in one scenario pair
type InventoryLevel struct {
	Product            entities.ProductID  `json:"product"`
	Stage              int                 `json:"stage"`
	Retailer           entities.RetailerID `json:"retailer"`
	DemandScenario     string              `json:"demand_scenario"`
	DisruptionScenario string              `json:"disruption_scenario"`
	Quantity           float64             `json:"quantity"`
}

// DemandSummary describes the demand distribution of one retailer, product
// and stage across demand scenarios
type DemandSummary struct {
	Product  entities.ProductID  `json:"product"`
	Retailer entities.RetailerID `json:"retailer"`
	Stage    int                 `json:"stage"`
	Expected float64             `json:"expected"`
	StdDev   float64             `json:"std_dev"`
	Max      float64             `json:"max"`
}

// DCStock is the stock a distribution center holds of one product
type DCStock struct {
	DistributionCenter entities.DistributionCenterID `json:"distribution_center"`
	Product            entities.ProductID            `json:"product"`
	Quantity           float64                       `json:"quantity"`
}

// Objective returns the named objective value
func (p *Plan) Objective(name string) (ObjectiveValue, bool) {
	for _, o := range p.Objectives {
		if o.Name == name {
			return o, true
		}
	}
	return ObjectiveValue{}, false
}

// TotalInitialOrder sums the initial orders of a product over suppliers
func (p *Plan) TotalInitialOrder(product entities.ProductID) float64 {
	total := 0.0
	for _, o := range p.InitialOrders {
		if o.Product == product {
			total += o.Quantity
		}
	}
	return total
}

// TotalAdditionalOrder sums the additional orders of a product at a stage in
// one scenario pair over suppliers and retailers
func (p *Plan) TotalAdditionalOrder(product entities.ProductID, stage int, demandScenario, disruptionScenario string) float64 {
	total := 0.0
	for _, o := range p.AdditionalOrders {
		if o.Product == product && o.Stage == stage &&
			o.DemandScenario == demandScenario && o.DisruptionScenario == disruptionScenario {
			total += o.Quantity
		}
	}
	return total
}

// Package testing provides planning fixtures shared by the service tests.
package testing

import (
	"github.com/vsinha/scplan/pkg/domain/entities"
)

// Fixture is a catalog with its raw demand and disruption scenarios
type Fixture struct {
	Catalog     *entities.Catalog
	Demands     []*entities.DemandScenario
	Disruptions []*entities.DisruptionScenario
}

// MustCatalog builds a catalog and panics on validation errors
func MustCatalog(
	products []entities.Product,
	stages []entities.Stage,
	suppliers []entities.Supplier,
	retailers []entities.Retailer,
	dcs []entities.DistributionCenter,
) *entities.Catalog {
	c, err := entities.NewCatalog(products, stages, suppliers, retailers, dcs)
	if err != nil {
		panic(err)
	}
	return c
}

// Stages returns n stages indexed 0..n-1
func Stages(n int) []entities.Stage {
	stages := make([]entities.Stage, n)
	for i := range stages {
		stages[i] = entities.Stage{Index: i}
	}
	return stages
}

// NoDisruption returns a single certain scenario in which every supplier
// delivers in every stage
func NoDisruption(c *entities.Catalog) []*entities.DisruptionScenario {
	sc := &entities.DisruptionScenario{ID: "calm", Probability: 1, Disrupted: make(map[entities.DisruptionKey]bool)}
	for s := 0; s < c.NumSuppliers(); s++ {
		for t := 0; t < c.NumStages(); t++ {
			sc.Disrupted[entities.DisruptionKey{Supplier: c.Supplier(s).ID, Stage: t}] = false
		}
	}
	return []*entities.DisruptionScenario{sc}
}

// UniformDemand returns a demand scenario with the same quantity for every
// retailer, product and stage
func UniformDemand(c *entities.Catalog, id string, probability, quantity float64) *entities.DemandScenario {
	sc := &entities.DemandScenario{ID: id, Probability: probability, Demand: make(map[entities.DemandKey]float64)}
	for r := 0; r < c.NumRetailers(); r++ {
		for p := 0; p < c.NumProducts(); p++ {
			for t := 0; t < c.NumStages(); t++ {
				sc.Demand[entities.DemandKey{Retailer: c.Retailer(r).ID, Product: c.Product(p).ID, Stage: t}] = quantity
			}
		}
	}
	return sc
}

// TwoStage is one product over two stages with one uncapacitated supplier at
// unit cost, one retailer and a certain demand of 100 per stage
func TwoStage() Fixture {
	c := MustCatalog(
		[]entities.Product{{ID: "widget", HoldingCost: 1, MinInventory: 0, EmissionFactor: 0.5}},
		Stages(2),
		[]entities.Supplier{{ID: "acme", OrderCosts: map[entities.ProductID]float64{"widget": 1}, Capacity: entities.Uncapacitated}},
		[]entities.Retailer{{ID: "store"}},
		nil,
	)
	return Fixture{
		Catalog:     c,
		Demands:     []*entities.DemandScenario{UniformDemand(c, "base", 1, 100)},
		Disruptions: NoDisruption(c),
	}
}

// Shortage asks for a minimum stock of 1000 from a supplier that can deliver
// 100 per stage
func Shortage() Fixture {
	c := MustCatalog(
		[]entities.Product{{ID: "widget", HoldingCost: 1, MinInventory: 1000}},
		Stages(2),
		[]entities.Supplier{{ID: "acme", OrderCosts: map[entities.ProductID]float64{"widget": 1}, Capacity: 100}},
		[]entities.Retailer{{ID: "store"}},
		nil,
	)
	return Fixture{
		Catalog:     c,
		Demands:     []*entities.DemandScenario{UniformDemand(c, "base", 1, 10)},
		Disruptions: NoDisruption(c),
	}
}

// Regional is a small multi-echelon network: two products, three stages, a
// cheap capacitated supplier and an expensive uncapacitated one, two
// retailers, one distribution center, two demand and two disruption
// scenarios. In the "strike" scenario the cheap supplier is down at stage 1.
func Regional() Fixture {
	c := MustCatalog(
		[]entities.Product{
			{ID: "bolt", HoldingCost: 0.5, MinInventory: 5, EmissionFactor: 0.2},
			{ID: "nut", HoldingCost: 0.25, MinInventory: 0, EmissionFactor: 0.1},
		},
		Stages(3),
		[]entities.Supplier{
			{ID: "local", OrderCosts: map[entities.ProductID]float64{"bolt": 2, "nut": 1}, Capacity: 400},
			{ID: "overseas", OrderCosts: map[entities.ProductID]float64{"bolt": 3, "nut": 1.5}, Capacity: entities.Uncapacitated},
		},
		[]entities.Retailer{{ID: "north"}, {ID: "south"}},
		[]entities.DistributionCenter{{ID: "hub", Capacity: 250}},
	)

	low := UniformDemand(c, "low", 0.6, 20)
	high := UniformDemand(c, "high", 0.4, 60)

	calm := NoDisruption(c)[0]
	calm.Probability = 0.7
	strike := &entities.DisruptionScenario{ID: "strike", Probability: 0.3, Disrupted: make(map[entities.DisruptionKey]bool)}
	for k, v := range calm.Disrupted {
		strike.Disrupted[k] = v
	}
	strike.Disrupted[entities.DisruptionKey{Supplier: "local", Stage: 1}] = true

	return Fixture{
		Catalog:     c,
		Demands:     []*entities.DemandScenario{low, high},
		Disruptions: []*entities.DisruptionScenario{calm, strike},
	}
}

package formulation

import (
	"github.com/vsinha/scplan/pkg/application/services/scenario"
	"github.com/vsinha/scplan/pkg/domain/entities"
	"github.com/vsinha/scplan/pkg/optimization/model"
)

// Objective names
const (
	ObjectiveCost   = "TotalCost"
	ObjectiveCarbon = "TotalCarbon"
)

// Composer assembles the probability-weighted objectives
type Composer struct {
	features Features
}

// NewComposer creates an objective composer
func NewComposer(features Features) *Composer {
	return &Composer{features: features}
}

// TotalCost is the first-stage ordering cost plus, per scenario pair and
// weighted by its probability, recourse ordering and holding costs
func (c *Composer) TotalCost(catalog *entities.Catalog, space *scenario.Space, l Layout) model.Expr {
	var e model.Expr
	for p := 0; p < l.Products; p++ {
		for s := 0; s < l.Suppliers; s++ {
			e.Add(l.InitialOrder(p, s), catalog.OrderCost(s, p))
		}
	}
	for sp := 0; sp < l.Pairs; sp++ {
		prob := space.Pair(sp).Probability
		for p := 0; p < l.Products; p++ {
			holding := catalog.Product(p).HoldingCost
			for t := 0; t < l.Stages; t++ {
				for s := 0; s < l.Suppliers; s++ {
					for r := 0; r < l.Retailers; r++ {
						e.Add(l.AdditionalOrder(p, t, s, r, sp), prob*catalog.OrderCost(s, p))
					}
				}
				for r := 0; r < l.Retailers; r++ {
					e.Add(l.InventoryLevel(p, t, r, sp), prob*holding)
				}
			}
			for d := 0; d < l.DistributionCenters; d++ {
				e.Add(l.DCInventory(d, p), prob*holding)
			}
		}
	}
	return e.Compact()
}

// TotalCarbon weights held and ordered units by the product emission factor
func (c *Composer) TotalCarbon(catalog *entities.Catalog, space *scenario.Space, l Layout) model.Expr {
	var e model.Expr
	for sp := 0; sp < l.Pairs; sp++ {
		prob := space.Pair(sp).Probability
		for p := 0; p < l.Products; p++ {
			factor := prob * catalog.Product(p).EmissionFactor
			for t := 0; t < l.Stages; t++ {
				for s := 0; s < l.Suppliers; s++ {
					for r := 0; r < l.Retailers; r++ {
						e.Add(l.AdditionalOrder(p, t, s, r, sp), factor)
					}
				}
				for r := 0; r < l.Retailers; r++ {
					e.Add(l.InventoryLevel(p, t, r, sp), factor)
				}
			}
			for d := 0; d < l.DistributionCenters; d++ {
				e.Add(l.DCInventory(d, p), factor)
			}
		}
	}
	return e.Compact()
}

// Apply registers the objectives on b: a single cost objective, or cost and
// carbon as weighted or prioritised components
func (c *Composer) Apply(b *model.Builder, catalog *entities.Catalog, space *scenario.Space, l Layout) {
	cost := c.TotalCost(catalog, space, l)
	if !c.features.CarbonObjective {
		b.SetObjective(ObjectiveCost, cost, model.Minimize)
		return
	}

	carbon := c.TotalCarbon(catalog, space, l)
	switch c.features.ObjectiveMode {
	case Lexicographic:
		b.AddObjectiveComponent(ObjectiveCost, cost, model.Minimize, c.features.CostPriority, 1)
		b.AddObjectiveComponent(ObjectiveCarbon, carbon, model.Minimize, c.features.CarbonPriority, 1)
	default:
		b.AddObjectiveComponent(ObjectiveCost, cost, model.Minimize, 0, c.features.CostWeight)
		b.AddObjectiveComponent(ObjectiveCarbon, carbon, model.Minimize, 0, c.features.CarbonWeight)
	}
}

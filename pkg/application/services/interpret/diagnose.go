package interpret

import (
	"fmt"
	"math"
	"strings"

	"github.com/vsinha/scplan/pkg/application/services/formulation"
)

// Diagnose looks for data conflicts that explain an infeasible model. It
// compares, per scenario pair and stage, an upper bound on cumulative
// deliveries with the cumulative demand plus minimum stock, and each
// supplier's capacity with the minimum initial orders it must accept. Stage-0
// capacity is counted once per retailer since initial orders are shared. When
// nothing is found the report is generic.
func Diagnose(f *formulation.Formulation) ([]string, string) {
	c, space, l := f.Catalog, f.Space, f.Layout
	var findings []string
	suspects := make(map[string]bool)

	for s := 0; s < l.Suppliers; s++ {
		supplier := c.Supplier(s)
		if !supplier.Capacitated() {
			continue
		}
		required := 0.0
		for p := 0; p < l.Products; p++ {
			for k := 0; k < space.NumDisruptionScenarios(); k++ {
				if !space.ScenarioDisrupted(k, s, 0) {
					required += c.Product(p).MinInventory
					break
				}
			}
		}
		if required > supplier.Capacity {
			suspects[formulation.FamilyMinInitialOrder] = true
			suspects[formulation.FamilySupplierCapacity] = true
			findings = append(findings, fmt.Sprintf("supplier %s must accept minimum initial orders of %g but can deliver %g", supplier.ID, required, supplier.Capacity))
		}
	}

	minStock := 0.0
	for p := 0; p < l.Products; p++ {
		minStock += c.Product(p).MinInventory * float64(l.Retailers)
	}

	for sp := 0; sp < l.Pairs; sp++ {
		supply, demand := 0.0, 0.0
		disrupted := false
		for t := 0; t < l.Stages; t++ {
			for s := 0; s < l.Suppliers; s++ {
				capacity := c.Supplier(s).Capacity
				if t == 0 {
					// an initial order counts in every retailer's stage-0 balance
					supply += capacity * float64(l.Retailers)
					continue
				}
				if space.Disrupted(sp, s, t) {
					disrupted = true
					continue
				}
				supply += capacity
			}
			for p := 0; p < l.Products; p++ {
				for r := 0; r < l.Retailers; r++ {
					demand += space.Demand(sp, r, p, t)
				}
			}
			if math.IsInf(supply, 1) || supply >= demand+minStock {
				continue
			}
			if minStock > 0 {
				suspects[formulation.FamilyMinInventory] = true
			}
			suspects[formulation.FamilySupplierCapacity] = true
			if disrupted {
				suspects[formulation.FamilyDisruptionBlock] = true
			}
			findings = append(findings, fmt.Sprintf("scenario %s needs %g units by stage %d (demand %g + minimum stock %g) but suppliers can deliver %g",
				space.PairLabel(sp), demand+minStock, t, demand, minStock, supply))
			break
		}
	}

	if len(findings) == 0 {
		return nil, "solver proved the model infeasible; no conflicting constraint families could be derived from the data"
	}

	var families []string
	for _, fam := range []string{
		formulation.FamilyMinInventory,
		formulation.FamilyMinInitialOrder,
		formulation.FamilySupplierCapacity,
		formulation.FamilyDisruptionBlock,
	} {
		if suspects[fam] {
			families = append(families, fam)
		}
	}
	return families, strings.Join(findings, "; ")
}

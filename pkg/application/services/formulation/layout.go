package formulation

import "github.com/vsinha/scplan/pkg/optimization/model"

// Layout fixes the handle of every decision variable by index arithmetic:
// initial orders first, then one block per scenario pair (additional orders
// followed by inventory levels), then DC inventory.
type Layout struct {
	Products, Stages, Suppliers, Retailers, DistributionCenters, Pairs int
}

func (l Layout) numInitial() int { return l.Products * l.Suppliers }
func (l Layout) numAdditional() int { return l.Products * l.Stages * l.Suppliers * l.Retailers }
func (l Layout) numInventory() int { return l.Products * l.Stages * l.Retailers }
func (l Layout) perPair() int { return l.numAdditional() + l.numInventory() }
func (l Layout) pairBase(sp int) int { return l.numInitial() + sp*l.perPair() }
func (l Layout) dcBase() int { return l.pairBase(l.Pairs) }

// NumVariables returns the total number of variables
func (l Layout) NumVariables() int {
	return l.dcBase() + l.DistributionCenters*l.Products
}

func (l Layout) InitialOrder(p, s int) model.VarID {
	return model.VarID(p*l.Suppliers + s)
}

func (l Layout) AdditionalOrder(p, t, s, r, sp int) model.VarID {
	return model.VarID(l.pairBase(sp) + ((p*l.Stages+t)*l.Suppliers+s)*l.Retailers + r)
}

func (l Layout) InventoryLevel(p, t, r, sp int) model.VarID {
	return model.VarID(l.pairBase(sp) + l.numAdditional() + (p*l.Stages+t)*l.Retailers + r)
}

func (l Layout) DCInventory(d, p int) model.VarID {
	return model.VarID(l.dcBase() + d*l.Products + p)
}

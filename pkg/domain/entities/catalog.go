// Package entities holds the planning catalog, raw scenario data and the
// error taxonomy shared by every layer.
package entities

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/multierr"
)

// ProductID identifies a product
type ProductID string

// SupplierID identifies a supplier
type SupplierID string

// RetailerID identifies a retailer
type RetailerID string

// DistributionCenterID identifies a distribution center
type DistributionCenterID string

// Uncapacitated marks a supplier without a per-stage delivery limit
var Uncapacitated = math.Inf(1)

// Product carries the per-unit parameters of a stocked product
type Product struct {
	ID             ProductID
	HoldingCost    float64
	MinInventory   float64
	EmissionFactor float64
}

// NewProduct creates a validated Product
func NewProduct(id ProductID, holdingCost, minInventory, emissionFactor float64) (*Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if !nonNegative(holdingCost) {
		return nil, fmt.Errorf("product %s: holding cost must be non-negative, got %v", id, holdingCost)
	}
	if !nonNegative(minInventory) {
		return nil, fmt.Errorf("product %s: minimum inventory must be non-negative, got %v", id, minInventory)
	}
	if !nonNegative(emissionFactor) {
		return nil, fmt.Errorf("product %s: emission factor must be non-negative, got %v", id, emissionFactor)
	}
	return &Product{
		ID:             id,
		HoldingCost:    holdingCost,
		MinInventory:   minInventory,
		EmissionFactor: emissionFactor,
	}, nil
}

// Stage is one discrete planning period. Stage 0 has no predecessor.
type Stage struct {
	Index int
	Label string
}

// Name returns the label, falling back to the index
func (s Stage) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return fmt.Sprintf("t%d", s.Index)
}

// Supplier delivers products at a per-product order cost
type Supplier struct {
	ID         SupplierID
	OrderCosts map[ProductID]float64
	// Capacity bounds total deliveries per stage; Uncapacitated disables the bound
	Capacity float64
}

// NewSupplier creates a validated Supplier
func NewSupplier(id SupplierID, orderCosts map[ProductID]float64, capacity float64) (*Supplier, error) {
	if id == "" {
		return nil, fmt.Errorf("supplier id cannot be empty")
	}
	if math.IsNaN(capacity) || capacity < 0 {
		return nil, fmt.Errorf("supplier %s: capacity must be non-negative, got %v", id, capacity)
	}
	costs := make(map[ProductID]float64, len(orderCosts))
	for pid, cost := range orderCosts {
		if !nonNegative(cost) {
			return nil, fmt.Errorf("supplier %s: order cost for %s must be non-negative, got %v", id, pid, cost)
		}
		costs[pid] = cost
	}
	return &Supplier{ID: id, OrderCosts: costs, Capacity: capacity}, nil
}

// Capacitated reports whether the supplier has a finite delivery limit
func (s Supplier) Capacitated() bool {
	return !math.IsInf(s.Capacity, 1)
}

// Retailer is a demand point holding its own inventory
type Retailer struct {
	ID RetailerID
}

// DistributionCenter is an intermediate storage echelon
type DistributionCenter struct {
	ID       DistributionCenterID
	Capacity float64
}

// NewDistributionCenter creates a validated DistributionCenter
func NewDistributionCenter(id DistributionCenterID, capacity float64) (*DistributionCenter, error) {
	if id == "" {
		return nil, fmt.Errorf("distribution center id cannot be empty")
	}
	if !nonNegative(capacity) {
		return nil, fmt.Errorf("distribution center %s: capacity must be non-negative, got %v", id, capacity)
	}
	return &DistributionCenter{ID: id, Capacity: capacity}, nil
}

// Catalog holds the static dimension data of a planning problem. It is
// immutable once constructed; accessors return copies.
type Catalog struct {
	products  []Product
	stages    []Stage
	suppliers []Supplier
	retailers []Retailer
	dcs       []DistributionCenter

	productIdx  map[ProductID]int
	supplierIdx map[SupplierID]int
	retailerIdx map[RetailerID]int
	dcIdx       map[DistributionCenterID]int

	// orderCost[s][p]
	orderCost [][]float64
}

// NewCatalog validates the entity sets and indexes them. Every supplier must
// quote an order cost for every product.
func NewCatalog(
	products []Product,
	stages []Stage,
	suppliers []Supplier,
	retailers []Retailer,
	dcs []DistributionCenter,
) (*Catalog, error) {
	var errs error
	if len(products) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one product is required"))
	}
	if len(stages) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one stage is required"))
	}
	if len(suppliers) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one supplier is required"))
	}
	if len(retailers) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one retailer is required"))
	}

	c := &Catalog{
		products:    slices.Clone(products),
		stages:      slices.Clone(stages),
		suppliers:   make([]Supplier, len(suppliers)),
		retailers:   slices.Clone(retailers),
		dcs:         slices.Clone(dcs),
		productIdx:  make(map[ProductID]int, len(products)),
		supplierIdx: make(map[SupplierID]int, len(suppliers)),
		retailerIdx: make(map[RetailerID]int, len(retailers)),
		dcIdx:       make(map[DistributionCenterID]int, len(dcs)),
	}

	slices.SortFunc(c.stages, func(a, b Stage) int { return a.Index - b.Index })
	for i, st := range c.stages {
		if st.Index != i {
			errs = multierr.Append(errs, fmt.Errorf("stages must be indexed 0..%d without gaps, found index %d at position %d", len(c.stages)-1, st.Index, i))
			break
		}
	}

	for i, p := range c.products {
		if _, err := NewProduct(p.ID, p.HoldingCost, p.MinInventory, p.EmissionFactor); err != nil {
			errs = multierr.Append(errs, err)
		}
		if _, dup := c.productIdx[p.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate product %s", p.ID))
			continue
		}
		c.productIdx[p.ID] = i
	}
	for i, r := range c.retailers {
		if r.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("retailer id cannot be empty"))
			continue
		}
		if _, dup := c.retailerIdx[r.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate retailer %s", r.ID))
			continue
		}
		c.retailerIdx[r.ID] = i
	}
	for i, d := range c.dcs {
		if _, err := NewDistributionCenter(d.ID, d.Capacity); err != nil {
			errs = multierr.Append(errs, err)
		}
		if _, dup := c.dcIdx[d.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate distribution center %s", d.ID))
			continue
		}
		c.dcIdx[d.ID] = i
	}

	c.orderCost = make([][]float64, len(suppliers))
	for i, s := range suppliers {
		validated, err := NewSupplier(s.ID, s.OrderCosts, s.Capacity)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		s = *validated
		c.suppliers[i] = s

		if _, dup := c.supplierIdx[s.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate supplier %s", s.ID))
			continue
		}
		c.supplierIdx[s.ID] = i

		c.orderCost[i] = make([]float64, len(c.products))
		for j, p := range c.products {
			cost, ok := s.OrderCosts[p.ID]
			if !ok {
				errs = multierr.Append(errs, fmt.Errorf("supplier %s has no order cost for product %s", s.ID, p.ID))
				continue
			}
			c.orderCost[i][j] = cost
		}
		for pid := range s.OrderCosts {
			if _, known := c.productIdx[pid]; !known {
				errs = multierr.Append(errs, fmt.Errorf("supplier %s quotes unknown product %s", s.ID, pid))
			}
		}
	}

	if errs != nil {
		return nil, &DataInconsistencyError{Source: "catalog", Err: errs}
	}
	return c, nil
}

func (c *Catalog) NumProducts() int { return len(c.products) }
func (c *Catalog) NumStages() int { return len(c.stages) }
func (c *Catalog) NumSuppliers() int { return len(c.suppliers) }
func (c *Catalog) NumRetailers() int { return len(c.retailers) }
func (c *Catalog) NumDistributionCenters() int { return len(c.dcs) }

func (c *Catalog) Product(i int) Product { return c.products[i] }
func (c *Catalog) Stage(i int) Stage { return c.stages[i] }
func (c *Catalog) Retailer(i int) Retailer { return c.retailers[i] }
func (c *Catalog) DistributionCenter(i int) DistributionCenter { return c.dcs[i] }

// Supplier returns the i-th supplier. The OrderCosts map is shared and must
// not be modified.
func (c *Catalog) Supplier(i int) Supplier { return c.suppliers[i] }

// OrderCost returns the unit cost of ordering product p from supplier s
func (c *Catalog) OrderCost(s, p int) float64 { return c.orderCost[s][p] }

func (c *Catalog) ProductIndex(id ProductID) (int, bool) {
	i, ok := c.productIdx[id]
	return i, ok
}

func (c *Catalog) SupplierIndex(id SupplierID) (int, bool) {
	i, ok := c.supplierIdx[id]
	return i, ok
}

func (c *Catalog) RetailerIndex(id RetailerID) (int, bool) {
	i, ok := c.retailerIdx[id]
	return i, ok
}

func (c *Catalog) DistributionCenterIndex(id DistributionCenterID) (int, bool) {
	i, ok := c.dcIdx[id]
	return i, ok
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

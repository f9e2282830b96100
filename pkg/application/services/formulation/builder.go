package formulation

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/scplan/pkg/application/services/scenario"
	"github.com/vsinha/scplan/pkg/domain/entities"
	"github.com/vsinha/scplan/pkg/optimization/model"
)

// Constraint families
const (
	FamilyInitialBalance   = "InitialBalance"
	FamilyRecursiveBalance = "RecursiveBalance"
	FamilyMinInventory     = "MinInventory"
	FamilyMinInitialOrder  = "MinInitialOrder"
	FamilySupplierCapacity = "SupplierCapacity"
	FamilyDCCapacity       = "DCCapacity"
	// FamilyDisruptionBlock is enforced through a zero upper bound on the
	// affected additional orders rather than through constraints
	FamilyDisruptionBlock = "DisruptionBlock"
)

// Formulation is a fully built model together with everything needed to map
// its variables back onto the domain
type Formulation struct {
	Model    *model.Model
	Layout   Layout
	Features Features
	Catalog  *entities.Catalog
	Space    *scenario.Space
}

// Builder generates the inventory-planning model for one feature set
type Builder struct {
	features Features
	logger   *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithLogger sets the builder's logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a model builder for the given features
func NewBuilder(features Features, opts ...Option) *Builder {
	b := &Builder{features: features, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build generates every variable, constraint and objective. Scenario pairs are
// built concurrently into disjoint fragments and merged in pair order. The
// model is either complete or an error is returned.
func (b *Builder) Build(ctx context.Context, catalog *entities.Catalog, space *scenario.Space) (*Formulation, error) {
	if catalog == nil || space == nil {
		return nil, fmt.Errorf("build requires a catalog and a scenario space")
	}
	if space.Catalog() != catalog {
		return nil, &entities.DataInconsistencyError{
			Source: "model builder",
			Err:    fmt.Errorf("scenario space was validated against a different catalog"),
		}
	}
	if err := b.features.Validate(catalog); err != nil {
		return nil, err
	}

	layout := Layout{
		Products:  catalog.NumProducts(),
		Stages:    catalog.NumStages(),
		Suppliers: catalog.NumSuppliers(),
		Retailers: catalog.NumRetailers(),
		Pairs:     space.NumPairs(),
	}
	if b.features.DistributionCenters {
		layout.DistributionCenters = catalog.NumDistributionCenters()
	}
	g := &generator{catalog: catalog, space: space, layout: layout}

	first := g.firstStage()

	pairs := make([]*model.Fragment, layout.Pairs)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.features.workers())
	for sp := 0; sp < layout.Pairs; sp++ {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			pairs[sp] = g.scenarioPair(sp)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build scenario pairs: %w", err)
	}

	mb := model.NewBuilder("inventory-plan")
	if err := mb.Append(first); err != nil {
		return nil, err
	}
	for _, f := range pairs {
		if err := mb.Append(f); err != nil {
			return nil, err
		}
	}
	if layout.DistributionCenters > 0 {
		if err := mb.Append(g.distributionCenters()); err != nil {
			return nil, err
		}
	}
	if mb.NumVariables() != layout.NumVariables() {
		return nil, fmt.Errorf("layout expects %d variables, built %d", layout.NumVariables(), mb.NumVariables())
	}

	NewComposer(b.features).Apply(mb, catalog, space, layout)

	m, err := mb.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to finalise model: %w", err)
	}

	b.logger.Debug("model built",
		zap.Int("variables", m.NumVariables()),
		zap.Int("constraints", m.NumConstraints()),
		zap.Int("objectives", m.NumObjectives()),
		zap.Int("scenario_pairs", layout.Pairs),
	)

	return &Formulation{
		Model:    m,
		Layout:   layout,
		Features: b.features,
		Catalog:  catalog,
		Space:    space,
	}, nil
}

type generator struct {
	catalog *entities.Catalog
	space   *scenario.Space
	layout  Layout
}

// firstStage holds the here-and-now initial orders and their minimums, one
// constraint per disruption scenario
func (g *generator) firstStage() *model.Fragment {
	c, l := g.catalog, g.layout
	f := model.NewFragment("first-stage", 0, l.numInitial(), l.numInitial()*g.space.NumDisruptionScenarios())

	for p := 0; p < l.Products; p++ {
		for s := 0; s < l.Suppliers; s++ {
			f.AddVariable(fmt.Sprintf("InitialOrder[%s,%s]", c.Product(p).ID, c.Supplier(s).ID), model.Continuous, 0, math.Inf(1))
		}
	}

	for p := 0; p < l.Products; p++ {
		minInv := c.Product(p).MinInventory
		for s := 0; s < l.Suppliers; s++ {
			for k := 0; k < g.space.NumDisruptionScenarios(); k++ {
				rhs := minInv
				if g.space.ScenarioDisrupted(k, s, 0) {
					rhs = 0
				}
				f.AddConstraint(FamilyMinInitialOrder,
					fmt.Sprintf("MinInitialOrder[%s,%s,%s]", c.Product(p).ID, c.Supplier(s).ID, g.space.DisruptionScenarioID(k)),
					model.NewExpr(model.Term{Var: l.InitialOrder(p, s), Coef: 1}),
					model.GreaterOrEqual, rhs)
			}
		}
	}
	return f
}

// scenarioPair builds the recourse variables and the balance, minimum stock
// and supplier capacity constraints of one scenario pair
func (g *generator) scenarioPair(sp int) *model.Fragment {
	c, l, space := g.catalog, g.layout, g.space
	label := space.PairLabel(sp)
	f := model.NewFragment(label, model.VarID(l.pairBase(sp)), l.perPair(), 2*l.numInventory()+l.Suppliers*l.Stages)

	for p := 0; p < l.Products; p++ {
		for t := 0; t < l.Stages; t++ {
			for s := 0; s < l.Suppliers; s++ {
				upper := math.Inf(1)
				if space.Disrupted(sp, s, t) {
					upper = 0
				}
				for r := 0; r < l.Retailers; r++ {
					f.AddVariable(fmt.Sprintf("AdditionalOrder[%s,%d,%s,%s,%s]",
						c.Product(p).ID, t, c.Supplier(s).ID, c.Retailer(r).ID, label), model.Continuous, 0, upper)
				}
			}
		}
	}
	for p := 0; p < l.Products; p++ {
		for t := 0; t < l.Stages; t++ {
			for r := 0; r < l.Retailers; r++ {
				f.AddVariable(fmt.Sprintf("InventoryLevel[%s,%d,%s,%s]",
					c.Product(p).ID, t, c.Retailer(r).ID, label), model.Continuous, 0, math.Inf(1))
			}
		}
	}

	for p := 0; p < l.Products; p++ {
		product := c.Product(p)
		for r := 0; r < l.Retailers; r++ {
			for t := 0; t < l.Stages; t++ {
				var e model.Expr
				family := FamilyRecursiveBalance
				if t == 0 {
					family = FamilyInitialBalance
					for s := 0; s < l.Suppliers; s++ {
						e.Add(l.InitialOrder(p, s), 1)
					}
				} else {
					e.Add(l.InventoryLevel(p, t-1, r, sp), 1)
				}
				for s := 0; s < l.Suppliers; s++ {
					e.Add(l.AdditionalOrder(p, t, s, r, sp), 1)
				}
				e.Add(l.InventoryLevel(p, t, r, sp), -1)

				key := fmt.Sprintf("%s,%d,%s,%s", product.ID, t, c.Retailer(r).ID, label)
				f.AddConstraint(family, family+"["+key+"]", e, model.Equal, space.Demand(sp, r, p, t))
				f.AddConstraint(FamilyMinInventory, FamilyMinInventory+"["+key+"]",
					model.NewExpr(model.Term{Var: l.InventoryLevel(p, t, r, sp), Coef: 1}),
					model.GreaterOrEqual, product.MinInventory)
			}
		}
	}

	for s := 0; s < l.Suppliers; s++ {
		supplier := c.Supplier(s)
		if !supplier.Capacitated() {
			continue
		}
		for t := 0; t < l.Stages; t++ {
			var e model.Expr
			for p := 0; p < l.Products; p++ {
				if t == 0 {
					e.Add(l.InitialOrder(p, s), 1)
				}
				for r := 0; r < l.Retailers; r++ {
					e.Add(l.AdditionalOrder(p, t, s, r, sp), 1)
				}
			}
			f.AddConstraint(FamilySupplierCapacity,
				fmt.Sprintf("%s[%s,%d,%s]", FamilySupplierCapacity, supplier.ID, t, label),
				e, model.LessOrEqual, supplier.Capacity)
		}
	}
	return f
}

func (g *generator) distributionCenters() *model.Fragment {
	c, l := g.catalog, g.layout
	f := model.NewFragment("distribution-centers", model.VarID(l.dcBase()), l.DistributionCenters*l.Products, l.DistributionCenters)

	for d := 0; d < l.DistributionCenters; d++ {
		for p := 0; p < l.Products; p++ {
			f.AddVariable(fmt.Sprintf("DCInventory[%s,%s]", c.DistributionCenter(d).ID, c.Product(p).ID), model.Continuous, 0, math.Inf(1))
		}
	}
	for d := 0; d < l.DistributionCenters; d++ {
		dc := c.DistributionCenter(d)
		var e model.Expr
		for p := 0; p < l.Products; p++ {
			e.Add(l.DCInventory(d, p), 1)
		}
		f.AddConstraint(FamilyDCCapacity, fmt.Sprintf("%s[%s]", FamilyDCCapacity, dc.ID), e, model.LessOrEqual, dc.Capacity)
	}
	return f
}

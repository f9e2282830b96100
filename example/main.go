package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/scplan/pkg/application/services/formulation"
	"github.com/vsinha/scplan/pkg/application/services/interpret"
	"github.com/vsinha/scplan/pkg/application/services/scenario"
	"github.com/vsinha/scplan/pkg/domain/entities"
	"github.com/vsinha/scplan/pkg/optimization/solver"
)

func main() {
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// One product, two stages, one supplier, one retailer
	catalog, err := entities.NewCatalog(
		[]entities.Product{{ID: "widget", HoldingCost: 1, MinInventory: 0, EmissionFactor: 0.5}},
		[]entities.Stage{{Index: 0, Label: "launch"}, {Index: 1, Label: "replenish"}},
		[]entities.Supplier{{ID: "acme", OrderCosts: map[entities.ProductID]float64{"widget": 1}, Capacity: entities.Uncapacitated}},
		[]entities.Retailer{{ID: "store"}},
		nil,
	)
	if err != nil {
		logger.Fatal("invalid catalog", zap.Error(err))
	}

	demands := []*entities.DemandScenario{{
		ID:          "base",
		Probability: 1,
		Demand: map[entities.DemandKey]float64{
			{Retailer: "store", Product: "widget", Stage: 0}: 100,
			{Retailer: "store", Product: "widget", Stage: 1}: 100,
		},
	}}
	disruptions := []*entities.DisruptionScenario{{
		ID:          "calm",
		Probability: 1,
		Disrupted: map[entities.DisruptionKey]bool{
			{Supplier: "acme", Stage: 0}: false,
			{Supplier: "acme", Stage: 1}: false,
		},
	}}

	space, err := scenario.NewSpace(catalog, demands, disruptions)
	if err != nil {
		logger.Fatal("invalid scenarios", zap.Error(err))
	}

	features := formulation.DefaultFeatures()
	features.MultiEchelon = false
	features.DistributionCenters = false

	f, err := formulation.NewBuilder(features, formulation.WithLogger(logger)).Build(ctx, catalog, space)
	if err != nil {
		logger.Fatal("model construction failed", zap.Error(err))
	}

	outcome, err := formulation.Solve(ctx, solver.NewSimplex(logger), f, solver.Options{}, logger)
	if err != nil {
		logger.Fatal("solve failed", zap.Error(err))
	}

	plan, err := interpret.New(interpret.Config{}).Interpret(f, outcome)
	if err != nil {
		logger.Fatal("no plan", zap.Error(err))
	}

	cost, _ := plan.Objective(formulation.ObjectiveCost)
	fmt.Printf("Status: %s\n", plan.Status)
	fmt.Printf("Total cost: %s\n", cost.Amount.StringFixed(2))
	fmt.Printf("Initial order: %v\n", plan.TotalInitialOrder("widget"))
	fmt.Printf("Stage 1 order: %v\n", plan.TotalAdditionalOrder("widget", 1, "base", "calm"))
}

package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testinghelpers "github.com/vsinha/scplan/pkg/application/services/testing"
	"github.com/vsinha/scplan/pkg/domain/entities"
)

func TestNewSpace_FormsDemandMajorPairs(t *testing.T) {
	fx := testinghelpers.Regional()

	space, err := NewSpace(fx.Catalog, fx.Demands, fx.Disruptions)
	require.NoError(t, err)

	require.Equal(t, 4, space.NumPairs())
	assert.Equal(t, "low/calm", space.PairLabel(0))
	assert.Equal(t, "low/strike", space.PairLabel(1))
	assert.Equal(t, "high/calm", space.PairLabel(2))
	assert.Equal(t, "high/strike", space.PairLabel(3))

	assert.InDelta(t, 0.6*0.7, space.Pair(0).Probability, 1e-12)
	assert.InDelta(t, 0.4*0.3, space.Pair(3).Probability, 1e-12)
	assert.InDelta(t, 1, space.TotalProbability(), ProbabilityTolerance)

	for i, p := range space.Pairs() {
		assert.Equal(t, i, p.Index)
	}
}

func TestNewSpace_DenseTables(t *testing.T) {
	fx := testinghelpers.Regional()
	space, err := NewSpace(fx.Catalog, fx.Demands, fx.Disruptions)
	require.NoError(t, err)

	c := fx.Catalog
	local, _ := c.SupplierIndex("local")
	overseas, _ := c.SupplierIndex("overseas")
	south, _ := c.RetailerIndex("south")
	nut, _ := c.ProductIndex("nut")

	assert.Equal(t, 60.0, space.Demand(3, south, nut, 2))
	assert.Equal(t, 20.0, space.ScenarioDemand(0, south, nut, 0))
	assert.True(t, space.Disrupted(1, local, 1))
	assert.False(t, space.Disrupted(0, local, 1))
	assert.False(t, space.Disrupted(1, overseas, 1))
	assert.True(t, space.ScenarioDisrupted(1, local, 1))
	assert.Same(t, c, space.Catalog())
}

func TestNewSpace_NormalizesWithinTolerance(t *testing.T) {
	fx := testinghelpers.TwoStage()
	a := testinghelpers.UniformDemand(fx.Catalog, "a", 0.5, 10)
	b := testinghelpers.UniformDemand(fx.Catalog, "b", 0.5+5e-7, 30)

	space, err := NewSpace(fx.Catalog, []*entities.DemandScenario{a, b}, fx.Disruptions)
	require.NoError(t, err)
	assert.InDelta(t, 1, space.DemandProbability(0)+space.DemandProbability(1), 1e-15)

	values, weights := space.DemandSeries(0, 0, 1)
	assert.Equal(t, []float64{10, 30}, values)
	assert.Len(t, weights, 2)
}

func TestNewSpace_RejectsInconsistentScenarios(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(fx *testinghelpers.Fixture)
		problem string
	}{
		{
			name: "demand probabilities do not sum to one",
			mutate: func(fx *testinghelpers.Fixture) {
				fx.Demands[0].Probability = 0.5
			},
			problem: "demand scenario probabilities sum to 0.5",
		},
		{
			name: "disruption probability out of range",
			mutate: func(fx *testinghelpers.Fixture) {
				fx.Disruptions[0].Probability = 1.5
			},
			problem: "probability must be within [0,1]",
		},
		{
			name: "missing demand",
			mutate: func(fx *testinghelpers.Fixture) {
				delete(fx.Demands[0].Demand, entities.DemandKey{Retailer: "store", Product: "widget", Stage: 1})
			},
			problem: "has no demand for retailer store, product widget, stage 1",
		},
		{
			name: "negative demand",
			mutate: func(fx *testinghelpers.Fixture) {
				fx.Demands[0].Demand[entities.DemandKey{Retailer: "store", Product: "widget", Stage: 0}] = -1
			},
			problem: "must be non-negative",
		},
		{
			name: "unknown retailer",
			mutate: func(fx *testinghelpers.Fixture) {
				fx.Demands[0].Demand[entities.DemandKey{Retailer: "mall", Product: "widget", Stage: 0}] = 5
			},
			problem: "unknown retailer mall",
		},
		{
			name: "stage out of range",
			mutate: func(fx *testinghelpers.Fixture) {
				fx.Disruptions[0].Disrupted[entities.DisruptionKey{Supplier: "acme", Stage: 7}] = true
			},
			problem: "stage 7 outside 0..1",
		},
		{
			name: "missing disruption flag",
			mutate: func(fx *testinghelpers.Fixture) {
				delete(fx.Disruptions[0].Disrupted, entities.DisruptionKey{Supplier: "acme", Stage: 0})
			},
			problem: "has no flag for supplier acme, stage 0",
		},
		{
			name: "duplicate scenario id",
			mutate: func(fx *testinghelpers.Fixture) {
				fx.Demands[0].Probability = 0.5
				dup := testinghelpers.UniformDemand(fx.Catalog, "base", 0.5, 1)
				fx.Demands = append(fx.Demands, dup)
			},
			problem: "duplicate demand scenario base",
		},
		{
			name: "no disruption scenarios",
			mutate: func(fx *testinghelpers.Fixture) {
				fx.Disruptions = nil
			},
			problem: "at least one disruption scenario",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := testinghelpers.TwoStage()
			tt.mutate(&fx)

			space, err := NewSpace(fx.Catalog, fx.Demands, fx.Disruptions)
			require.Error(t, err)
			assert.Nil(t, space)

			var dataErr *entities.DataInconsistencyError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, "scenario space", dataErr.Source)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

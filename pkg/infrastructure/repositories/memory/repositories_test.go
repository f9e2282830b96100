package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/scplan/pkg/domain/entities"
)

func TestCatalogRepository(t *testing.T) {
	repo := NewCatalogRepository()

	_, err := repo.GetCatalog()
	assert.EqualError(t, err, "no catalog loaded")
	assert.EqualError(t, repo.LoadCatalog(nil), "catalog cannot be nil")

	catalog, err := entities.NewCatalog(
		[]entities.Product{{ID: "widget", HoldingCost: 1}},
		[]entities.Stage{{Index: 0}},
		[]entities.Supplier{{ID: "acme", OrderCosts: map[entities.ProductID]float64{"widget": 1}, Capacity: entities.Uncapacitated}},
		[]entities.Retailer{{ID: "store"}},
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, repo.LoadCatalog(catalog))

	got, err := repo.GetCatalog()
	require.NoError(t, err)
	assert.Same(t, catalog, got)
}

func TestScenarioRepository_KeepsLoadOrder(t *testing.T) {
	repo := NewScenarioRepository()

	require.NoError(t, repo.LoadDemandScenarios([]*entities.DemandScenario{
		{ID: "low", Probability: 0.6},
		{ID: "high", Probability: 0.4},
	}))
	require.NoError(t, repo.LoadDisruptionScenarios([]*entities.DisruptionScenario{
		{ID: "calm", Probability: 1},
	}))

	demands, err := repo.GetDemandScenarios()
	require.NoError(t, err)
	require.Len(t, demands, 2)
	assert.Equal(t, "low", demands[0].ID)
	assert.Equal(t, "high", demands[1].ID)

	disruptions, err := repo.GetDisruptionScenarios()
	require.NoError(t, err)
	require.Len(t, disruptions, 1)
	assert.Equal(t, "calm", disruptions[0].ID)
}

func TestScenarioRepository_RejectsDuplicatesAndNil(t *testing.T) {
	repo := NewScenarioRepository()
	require.NoError(t, repo.LoadDemandScenarios([]*entities.DemandScenario{{ID: "base", Probability: 1}}))

	err := repo.LoadDemandScenarios([]*entities.DemandScenario{{ID: "base", Probability: 1}})
	assert.EqualError(t, err, "demand scenario base already exists")

	err = repo.LoadDisruptionScenarios([]*entities.DisruptionScenario{nil})
	assert.EqualError(t, err, "disruption scenario cannot be nil")

	require.NoError(t, repo.LoadDisruptionScenarios([]*entities.DisruptionScenario{{ID: "calm", Probability: 1}}))
	err = repo.LoadDisruptionScenarios([]*entities.DisruptionScenario{{ID: "calm", Probability: 1}})
	assert.EqualError(t, err, "disruption scenario calm already exists")
}

func TestScenarioRepository_EmptyRepository(t *testing.T) {
	repo := NewScenarioRepository()

	demands, err := repo.GetDemandScenarios()
	require.NoError(t, err)
	assert.Empty(t, demands)
}

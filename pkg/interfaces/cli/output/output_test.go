package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/scplan/pkg/application/dto"
)

func samplePlan() *dto.Plan {
	return &dto.Plan{
		RunID:  "run-1",
		Status: "Optimal",
		Model:  dto.ModelStats{Variables: 5, Constraints: 4},
		Scenarios: []dto.ScenarioPair{
			{DemandScenario: "base", DisruptionScenario: "none", Probability: 1},
		},
		Objectives: []dto.ObjectiveValue{
			{Name: "TotalCost", Value: 200, Amount: decimal.NewFromInt(200)},
		},
		InitialOrders: []dto.InitialOrder{{Product: "widget", Supplier: "acme", Quantity: 100}},
		AdditionalOrders: []dto.AdditionalOrder{
			{Product: "widget", Stage: 1, Supplier: "acme", Retailer: "store", DemandScenario: "base", DisruptionScenario: "none", Quantity: 100},
		},
		Inventory: []dto.InventoryLevel{
			{Product: "widget", Stage: 0, Retailer: "store", DemandScenario: "base", DisruptionScenario: "none", Quantity: 0},
		},
		Demand: []dto.DemandSummary{
			{Product: "widget", Retailer: "store", Stage: 0, Expected: 100, Max: 100},
		},
	}
}

func TestGenerate_TextIncludesObjectivesAndOrders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(samplePlan(), Config{Format: "text", Writer: &buf, Detail: true}))

	out := buf.String()
	assert.Contains(t, out, "TotalCost")
	assert.Contains(t, out, "200.00")
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "base/none")
}

func TestGenerate_TextFlagsDegradedPlans(t *testing.T) {
	plan := samplePlan()
	plan.Status = "TimeLimitReached"
	plan.Degraded = true

	var buf bytes.Buffer
	require.NoError(t, Generate(plan, Config{Format: "text", Writer: &buf}))
	assert.Contains(t, buf.String(), "not proven optimal")
}

func TestGenerate_JSONRoundTripsRunID(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(samplePlan(), Config{Format: "json", Writer: &buf}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
}

func TestGenerate_CSVWritesOneFilePerSection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(samplePlan(), Config{Format: "csv", OutputDir: dir}))

	for _, name := range []string{"objectives.csv", "initial_orders.csv", "additional_orders.csv", "inventory.csv", "dc_inventory.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	data, err := os.ReadFile(filepath.Join(dir, "initial_orders.csv"))
	require.NoError(t, err)
	assert.Equal(t, "product_id,supplier_id,quantity\nwidget,acme,100\n", string(data))
}

func TestGenerate_CSVRequiresDirectory(t *testing.T) {
	err := Generate(samplePlan(), Config{Format: "csv"})
	assert.Error(t, err)
}

func TestGenerate_UnknownFormat(t *testing.T) {
	err := Generate(samplePlan(), Config{Format: "xml"})
	assert.EqualError(t, err, "unsupported output format: xml")
}

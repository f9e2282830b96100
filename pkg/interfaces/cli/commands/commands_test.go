package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vsinha/scplan/internal/config"
	"github.com/vsinha/scplan/pkg/application/dto"
	"github.com/vsinha/scplan/pkg/infrastructure/repositories/csv"
	infratesting "github.com/vsinha/scplan/pkg/infrastructure/testing"
)

func twoStageDir(t *testing.T) string {
	t.Helper()
	dir, err := infratesting.WriteDataSet(t.TempDir(), infratesting.TwoStageDataSet)
	require.NoError(t, err)
	return dir
}

func TestPlanCommand_TextReport(t *testing.T) {
	var out bytes.Buffer
	cmd := NewPlanCommand(PlanConfig{DataDir: twoStageDir(t), Format: "text"}, nil, nil, &out)

	require.NoError(t, cmd.Execute(context.Background()))

	report := out.String()
	assert.Contains(t, report, "Inventory Plan Summary")
	assert.Contains(t, report, "Status: Optimal")
	assert.Contains(t, report, "200.00")
}

func TestPlanCommand_JSONReportWithConfig(t *testing.T) {
	settings := config.Default()
	settings.Features.CarbonObjective = true
	settings.Features.ObjectiveMode = "weighted"

	var out bytes.Buffer
	cmd := NewPlanCommand(PlanConfig{DataDir: twoStageDir(t), Format: "json"}, settings, nil, &out)
	require.NoError(t, cmd.Execute(context.Background()))

	var plan dto.Plan
	require.NoError(t, json.Unmarshal(out.Bytes(), &plan))
	assert.Equal(t, "Optimal", plan.Status)
	assert.NotEmpty(t, plan.RunID)
	require.Len(t, plan.Objectives, 2)
	assert.Equal(t, "TotalCarbon", plan.Objectives[1].Name)
}

func TestPlanCommand_ExplicitScenarioFiles(t *testing.T) {
	dir := twoStageDir(t)
	scenarios := t.TempDir()
	require.NoError(t, os.Rename(filepath.Join(dir, csv.DemandsFile), filepath.Join(scenarios, "d.csv")))
	require.NoError(t, os.Rename(filepath.Join(dir, csv.DisruptionsFile), filepath.Join(scenarios, "s.csv")))

	var out bytes.Buffer
	cmd := NewPlanCommand(PlanConfig{
		DataDir:         dir,
		DemandsFile:     filepath.Join(scenarios, "d.csv"),
		DisruptionsFile: filepath.Join(scenarios, "s.csv"),
		Verbose:         true,
	}, nil, nil, &out)
	require.NoError(t, cmd.Execute(context.Background()))
	assert.Contains(t, out.String(), "Demands: "+filepath.Join(scenarios, "d.csv"))
	assert.Contains(t, out.String(), "Planning Summary")
}

func TestPlanCommand_VerboseTracesRunEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	var out bytes.Buffer
	cmd := NewPlanCommand(PlanConfig{DataDir: twoStageDir(t), Verbose: true}, nil, zap.New(core), &out)
	require.NoError(t, cmd.Execute(context.Background()))

	report := out.String()
	assert.Contains(t, report, "Run events:")
	assert.Contains(t, report, "1 model.built: 5 variables, 5 constraints, 1 scenario pairs")
	assert.Contains(t, report, "2 solve.completed: Optimal")
	assert.Contains(t, report, "3 plan.interpreted")

	assert.Equal(t, 1, logs.FilterMessage("run event: model built").Len())
	assert.Equal(t, 1, logs.FilterMessage("run event: solve completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("run event: plan interpreted").Len())
}

func TestPlanCommand_LogsFailedRun(t *testing.T) {
	dir, err := infratesting.WriteDataSet(t.TempDir(), infratesting.With(infratesting.TwoStageDataSet, map[string]string{
		csv.DemandsFile: "scenario_id,probability,retailer_id,product_id,stage,quantity\nbase,1,store,widget,0,100\n",
	}))
	require.NoError(t, err)
	core, logs := observer.New(zapcore.WarnLevel)

	err = NewPlanCommand(PlanConfig{DataDir: dir}, nil, zap.New(core), &bytes.Buffer{}).Execute(context.Background())
	require.Error(t, err)

	failed := logs.FilterMessage("run event: plan failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "scenario", failed[0].ContextMap()["stage"])
}

func TestPlanCommand_Errors(t *testing.T) {
	t.Run("missing data", func(t *testing.T) {
		err := NewPlanCommand(PlanConfig{DataDir: t.TempDir()}, nil, nil, &bytes.Buffer{}).Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error loading catalog")
	})

	t.Run("inconsistent scenarios", func(t *testing.T) {
		dir, err := infratesting.WriteDataSet(t.TempDir(), infratesting.With(infratesting.TwoStageDataSet, map[string]string{
			csv.DemandsFile: "scenario_id,probability,retailer_id,product_id,stage,quantity\nbase,1,store,widget,0,100\n",
		}))
		require.NoError(t, err)

		err = NewPlanCommand(PlanConfig{DataDir: dir}, nil, nil, &bytes.Buffer{}).Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed during scenario")
		assert.Contains(t, err.Error(), "has no demand for retailer store, product widget, stage 1")
	})

	t.Run("unknown format", func(t *testing.T) {
		err := NewPlanCommand(PlanConfig{DataDir: twoStageDir(t), Format: "xml"}, nil, nil, &bytes.Buffer{}).Execute(context.Background())
		assert.EqualError(t, err, "unsupported output format: xml")
	})
}

func TestGenerateCommand_ProducesPlannableData(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	gen := NewGenerateCommand(GenerateConfig{
		Products:            2,
		Stages:              2,
		Suppliers:           2,
		Retailers:           1,
		DistributionCenters: 1,
		DemandScenarios:     2,
		DisruptionScenarios: 2,
		DisruptionRate:      0.5,
		OutputDir:           dir,
		Seed:                42,
	})
	require.NoError(t, gen.Execute(context.Background()))

	for _, name := range []string{
		csv.ProductsFile, csv.StagesFile, csv.SuppliersFile, csv.OrderCostsFile,
		csv.RetailersFile, csv.DistributionCentersFile, csv.DemandsFile, csv.DisruptionsFile,
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	var out bytes.Buffer
	require.NoError(t, NewPlanCommand(PlanConfig{DataDir: dir, Format: "json"}, nil, nil, &out).Execute(context.Background()))

	var plan dto.Plan
	require.NoError(t, json.Unmarshal(out.Bytes(), &plan))
	assert.Len(t, plan.Scenarios, 4)
	assert.Len(t, plan.DCInventory, 2)
}

func TestGenerateCommand_SeedIsReproducible(t *testing.T) {
	cfg := GenerateConfig{Products: 1, Stages: 3, Suppliers: 1, Retailers: 2, DemandScenarios: 3, DisruptionScenarios: 2, DisruptionRate: 0.3, Seed: 7}

	a, b := cfg, cfg
	a.OutputDir = t.TempDir()
	b.OutputDir = t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	require.NoError(t, NewGenerateCommand(a).WithLogger(zap.New(core).Sugar()).Execute(context.Background()))
	require.NoError(t, NewGenerateCommand(b).Execute(context.Background()))

	first, err := os.ReadFile(filepath.Join(a.OutputDir, csv.DemandsFile))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(b.OutputDir, csv.DemandsFile))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.NoFileExists(t, filepath.Join(a.OutputDir, csv.DistributionCentersFile))

	assert.Equal(t, 7, logs.FilterMessage("data file written").Len())
	generated := logs.FilterMessage("data set generated").All()
	require.Len(t, generated, 1)
	assert.Equal(t, a.OutputDir, generated[0].ContextMap()["output"])
}

func TestWriteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, writeRows(path, [][]string{{"product_id", "holding_cost"}, {"P001", "1.5"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "product_id,holding_cost\nP001,1.5\n", string(data))

	err = writeRows(filepath.Join(t.TempDir(), "missing", "rows.csv"), [][]string{{"a"}})
	assert.Error(t, err)
}

func TestGenerateCommand_Validation(t *testing.T) {
	err := NewGenerateCommand(GenerateConfig{}).Execute(context.Background())
	assert.EqualError(t, err, "output directory is required")

	err = NewGenerateCommand(GenerateConfig{
		OutputDir: t.TempDir(), Products: 1, Stages: 1, Suppliers: 1, Retailers: 1,
		DemandScenarios: 1, DisruptionScenarios: 1, DisruptionRate: 2,
	}).Execute(context.Background())
	assert.EqualError(t, err, "disruption rate must be within [0, 1], got 2")
}

func TestProbabilitiesSumToOne(t *testing.T) {
	gen := NewGenerateCommand(GenerateConfig{Seed: 3})
	total := 0.0
	for _, p := range gen.probabilities(7) {
		v, err := strconv.ParseFloat(p, 64)
		require.NoError(t, err)
		total += v
	}
	assert.InDelta(t, 1, total, 1e-12)
}

func TestRootCommand(t *testing.T) {
	t.Setenv("SCPLAN_LOGGING_LEVEL", "error")

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, "scplan version "+Version+"\n", out.String())

	out.Reset()
	root = NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"plan", "--data", twoStageDir(t), "--format", "csv"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "output directory"), err.Error())
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/scplan/internal/config"
	"github.com/vsinha/scplan/internal/logging"
	"github.com/vsinha/scplan/pkg/application/services/orchestration"
	"github.com/vsinha/scplan/pkg/infrastructure/events"
	"github.com/vsinha/scplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/scplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/scplan/pkg/interfaces/cli/output"
	"github.com/vsinha/scplan/pkg/optimization/solver"
)

// PlanConfig holds configuration for the plan command
type PlanConfig struct {
	DataDir         string
	DemandsFile     string
	DisruptionsFile string
	OutputDir       string
	Format          string
	Detail          bool
	Verbose         bool
}

// PlanCommand loads planning data, runs one planning cycle and reports it
type PlanCommand struct {
	config   PlanConfig
	settings *config.Config
	logger   *zap.Logger
	out      io.Writer
}

// NewPlanCommand creates a plan command. settings may be nil for defaults.
func NewPlanCommand(cfg PlanConfig, settings *config.Config, logger *zap.Logger, out io.Writer) *PlanCommand {
	if settings == nil {
		settings = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = os.Stdout
	}
	return &PlanCommand{config: cfg, settings: settings, logger: logger, out: out}
}

func newPlanCommand(root *rootOptions) *cobra.Command {
	var cfg PlanConfig

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build, solve and report an inventory plan",
		Long: `Reads the catalog (products, stages, suppliers, order_costs, retailers and
optional distribution_centers CSV files) plus demand and disruption scenarios
from a data directory, solves the stochastic model and prints the plan.`,
		RunE: func(c *cobra.Command, args []string) error {
			cfg.Verbose = root.verbose
			if !c.Flags().Changed("format") {
				cfg.Format = root.cfg.Output.Format
			}
			if !c.Flags().Changed("detail") {
				cfg.Detail = root.cfg.Output.Detail
			}
			return NewPlanCommand(cfg, root.cfg, logging.Logger, c.OutOrStdout()).Execute(c.Context())
		},
	}

	cmd.Flags().StringVarP(&cfg.DataDir, "data", "d", ".", "directory containing the planning CSV files")
	cmd.Flags().StringVar(&cfg.DemandsFile, "demands", "", "demand scenarios CSV (default <data>/demands.csv)")
	cmd.Flags().StringVar(&cfg.DisruptionsFile, "disruptions", "", "disruption scenarios CSV (default <data>/disruptions.csv)")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "", "output directory for results")
	cmd.Flags().StringVarP(&cfg.Format, "format", "f", "text", "output format: text, json, csv")
	cmd.Flags().BoolVar(&cfg.Detail, "detail", false, "include per-scenario orders and inventory in text output")
	return cmd
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	files := c.resolveInputFiles()
	if c.config.Verbose {
		c.printHeader(files)
	}

	loader := csv.NewLoader()
	catalog, err := loader.LoadCatalog(c.config.DataDir)
	if err != nil {
		return fmt.Errorf("error loading catalog: %w", err)
	}
	demands, err := loader.LoadDemandScenarios(files["Demands"])
	if err != nil {
		return fmt.Errorf("error loading demand scenarios: %w", err)
	}
	disruptions, err := loader.LoadDisruptionScenarios(files["Disruptions"])
	if err != nil {
		return fmt.Errorf("error loading disruption scenarios: %w", err)
	}

	c.logger.Info("planning data loaded",
		zap.Int("products", catalog.NumProducts()),
		zap.Int("stages", catalog.NumStages()),
		zap.Int("suppliers", catalog.NumSuppliers()),
		zap.Int("retailers", catalog.NumRetailers()),
		zap.Int("distribution_centers", catalog.NumDistributionCenters()),
		zap.Int("demand_scenarios", len(demands)),
		zap.Int("disruption_scenarios", len(disruptions)),
	)

	catalogRepo := memory.NewCatalogRepository()
	if err := catalogRepo.LoadCatalog(catalog); err != nil {
		return fmt.Errorf("failed to load catalog into repository: %w", err)
	}
	scenarioRepo := memory.NewScenarioRepository()
	if err := scenarioRepo.LoadDemandScenarios(demands); err != nil {
		return fmt.Errorf("failed to load demand scenarios into repository: %w", err)
	}
	if err := scenarioRepo.LoadDisruptionScenarios(disruptions); err != nil {
		return fmt.Errorf("failed to load disruption scenarios into repository: %w", err)
	}

	features, err := c.settings.FormulationFeatures()
	if err != nil {
		return err
	}

	eventStore := events.NewInMemoryEventStore(c.logger)
	if err := eventStore.Subscribe(events.RunEventTypes, events.NewLogHandler(c.logger)); err != nil {
		return fmt.Errorf("failed to subscribe run event logger: %w", err)
	}
	defer eventStore.Wait()

	orchestrator := orchestration.NewPlanningOrchestrator(
		catalogRepo,
		scenarioRepo,
		solver.NewSimplex(c.logger),
		eventStore,
		c.logger,
	)

	result, err := orchestrator.RunPlanning(ctx, orchestration.RunOptions{
		Features:  features,
		Solver:    c.settings.SolverOptions(),
		Tolerance: c.settings.Solver.Tolerance,
	})
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintln(c.out, result.GetSummary())
		if err := c.printRunEvents(eventStore, result.RunID); err != nil {
			return err
		}
		fmt.Fprintln(c.out)
	}

	return output.Generate(result.Plan, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Detail:    c.config.Detail,
		Writer:    c.out,
	})
}

func (c *PlanCommand) resolveInputFiles() map[string]string {
	files := map[string]string{
		"Demands":     c.config.DemandsFile,
		"Disruptions": c.config.DisruptionsFile,
	}
	if files["Demands"] == "" {
		files["Demands"] = filepath.Join(c.config.DataDir, csv.DemandsFile)
	}
	if files["Disruptions"] == "" {
		files["Disruptions"] = filepath.Join(c.config.DataDir, csv.DisruptionsFile)
	}
	return files
}

func (c *PlanCommand) printHeader(files map[string]string) {
	fmt.Fprintf(c.out, "scplan %s\n", Version)
	fmt.Fprintf(c.out, "Data directory: %s\n", c.config.DataDir)
	fmt.Fprintf(c.out, "  Demands: %s\n", files["Demands"])
	fmt.Fprintf(c.out, "  Disruptions: %s\n", files["Disruptions"])
	fmt.Fprintln(c.out)
}

func (c *PlanCommand) printRunEvents(store events.EventStore, runID string) error {
	trace, err := store.ReadEvents(runID, 1)
	if err != nil {
		return fmt.Errorf("failed to read run events: %w", err)
	}
	fmt.Fprintln(c.out, "Run events:")
	for _, e := range trace {
		fmt.Fprintf(c.out, "  %s\n", events.Describe(e))
	}
	return nil
}

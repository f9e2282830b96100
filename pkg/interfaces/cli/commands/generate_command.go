package commands

import (
	"context"
	stdcsv "encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/scplan/internal/logging"
	"github.com/vsinha/scplan/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for synthetic data generation
type GenerateConfig struct {
	Products            int
	Stages              int
	Suppliers           int
	Retailers           int
	DistributionCenters int
	DemandScenarios     int
	DisruptionScenarios int
	// DisruptionRate is the chance a supplier is down in a stage of a
	// disruption scenario other than the first, which is always disruption-free
	DisruptionRate float64
	// SupplierCapacity of 0 leaves suppliers uncapacitated
	SupplierCapacity float64
	OutputDir        string
	Seed             int64
	Verbose          bool
}

// GenerateCommand writes a random but feasible planning data set
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	log    *zap.SugaredLogger
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		log:    zap.NewNop().Sugar(),
	}
}

// WithLogger sets the logger that records each written file
func (cmd *GenerateCommand) WithLogger(log *zap.SugaredLogger) *GenerateCommand {
	if log != nil {
		cmd.log = log
	}
	return cmd
}

func newGenerateCommand(root *rootOptions) *cobra.Command {
	cfg := GenerateConfig{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic planning data set",
		Example: `  scplan generate --output ./data
  scplan generate --output ./data --products 5 --stages 4 --demand-scenarios 6 --seed 12345`,
		RunE: func(c *cobra.Command, args []string) error {
			cfg.Verbose = root.verbose
			return NewGenerateCommand(cfg).WithLogger(logging.Sugar).Execute(c.Context())
		},
	}

	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "", "output directory for generated files")
	cmd.Flags().IntVar(&cfg.Products, "products", 2, "number of products")
	cmd.Flags().IntVar(&cfg.Stages, "stages", 3, "number of stages")
	cmd.Flags().IntVar(&cfg.Suppliers, "suppliers", 2, "number of suppliers")
	cmd.Flags().IntVar(&cfg.Retailers, "retailers", 2, "number of retailers")
	cmd.Flags().IntVar(&cfg.DistributionCenters, "dcs", 1, "number of distribution centers")
	cmd.Flags().IntVar(&cfg.DemandScenarios, "demand-scenarios", 3, "number of demand scenarios")
	cmd.Flags().IntVar(&cfg.DisruptionScenarios, "disruption-scenarios", 2, "number of disruption scenarios")
	cmd.Flags().Float64Var(&cfg.DisruptionRate, "disruption-rate", 0.2, "probability a supplier is down in a stage")
	cmd.Flags().Float64Var(&cfg.SupplierCapacity, "supplier-capacity", 0, "per-stage supplier capacity (0 = unlimited)")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "random seed for reproducible generation")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if err := cmd.validate(); err != nil {
		return err
	}

	if cmd.config.Verbose {
		fmt.Printf("Generating %d products x %d stages, %d suppliers, %d retailers, %d DCs\n",
			cmd.config.Products, cmd.config.Stages, cmd.config.Suppliers,
			cmd.config.Retailers, cmd.config.DistributionCenters)
		fmt.Printf("Scenarios: %d demand x %d disruption\n", cmd.config.DemandScenarios, cmd.config.DisruptionScenarios)
		fmt.Printf("Output directory: %s\n", cmd.config.OutputDir)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	generators := []struct {
		file string
		gen  func() [][]string
	}{
		{csv.ProductsFile, cmd.generateProducts},
		{csv.StagesFile, cmd.generateStages},
		{csv.SuppliersFile, cmd.generateSuppliers},
		{csv.OrderCostsFile, cmd.generateOrderCosts},
		{csv.RetailersFile, cmd.generateRetailers},
		{csv.DistributionCentersFile, cmd.generateDistributionCenters},
		{csv.DemandsFile, cmd.generateDemands},
		{csv.DisruptionsFile, cmd.generateDisruptions},
	}

	for _, g := range generators {
		if err := ctx.Err(); err != nil {
			return err
		}
		if g.file == csv.DistributionCentersFile && cmd.config.DistributionCenters == 0 {
			continue
		}
		path := filepath.Join(cmd.config.OutputDir, g.file)
		rows := g.gen()
		if err := writeRows(path, rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", g.file, err)
		}
		cmd.log.Debugw("data file written", "path", path, "rows", len(rows)-1)
	}

	cmd.log.Infow("data set generated",
		"output", cmd.config.OutputDir,
		"products", cmd.config.Products,
		"stages", cmd.config.Stages,
		"demand_scenarios", cmd.config.DemandScenarios,
		"disruption_scenarios", cmd.config.DisruptionScenarios,
	)

	if cmd.config.Verbose {
		fmt.Println("Data set generated")
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	c := cmd.config
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Products < 1 || c.Stages < 1 || c.Suppliers < 1 || c.Retailers < 1 {
		return fmt.Errorf("products, stages, suppliers and retailers must be at least 1")
	}
	if c.DistributionCenters < 0 {
		return fmt.Errorf("dcs must be non-negative")
	}
	if c.DemandScenarios < 1 || c.DisruptionScenarios < 1 {
		return fmt.Errorf("at least one demand and one disruption scenario are required")
	}
	if c.DisruptionRate < 0 || c.DisruptionRate > 1 {
		return fmt.Errorf("disruption rate must be within [0, 1], got %v", c.DisruptionRate)
	}
	if c.SupplierCapacity < 0 {
		return fmt.Errorf("supplier capacity must be non-negative, got %v", c.SupplierCapacity)
	}
	return nil
}

func (cmd *GenerateCommand) generateProducts() [][]string {
	rows := [][]string{{"product_id", "holding_cost", "min_inventory", "emission_factor"}}
	for p := 0; p < cmd.config.Products; p++ {
		rows = append(rows, []string{
			productName(p),
			formatFloat(0.5 + cmd.rand.Float64()*2),
			strconv.Itoa(cmd.rand.Intn(10)),
			formatFloat(0.1 + cmd.rand.Float64()),
		})
	}
	return rows
}

func (cmd *GenerateCommand) generateStages() [][]string {
	rows := [][]string{{"stage_index", "label"}}
	for t := 0; t < cmd.config.Stages; t++ {
		rows = append(rows, []string{strconv.Itoa(t), fmt.Sprintf("period-%d", t+1)})
	}
	return rows
}

func (cmd *GenerateCommand) generateSuppliers() [][]string {
	capacity := ""
	if cmd.config.SupplierCapacity > 0 {
		capacity = formatFloat(cmd.config.SupplierCapacity)
	}
	rows := [][]string{{"supplier_id", "capacity"}}
	for s := 0; s < cmd.config.Suppliers; s++ {
		rows = append(rows, []string{supplierName(s), capacity})
	}
	return rows
}

func (cmd *GenerateCommand) generateOrderCosts() [][]string {
	rows := [][]string{{"supplier_id", "product_id", "cost"}}
	for s := 0; s < cmd.config.Suppliers; s++ {
		for p := 0; p < cmd.config.Products; p++ {
			rows = append(rows, []string{supplierName(s), productName(p), formatFloat(5 + cmd.rand.Float64()*20)})
		}
	}
	return rows
}

func (cmd *GenerateCommand) generateRetailers() [][]string {
	rows := [][]string{{"retailer_id"}}
	for r := 0; r < cmd.config.Retailers; r++ {
		rows = append(rows, []string{fmt.Sprintf("R%03d", r+1)})
	}
	return rows
}

func (cmd *GenerateCommand) generateDistributionCenters() [][]string {
	rows := [][]string{{"dc_id", "capacity"}}
	for d := 0; d < cmd.config.DistributionCenters; d++ {
		rows = append(rows, []string{fmt.Sprintf("DC%03d", d+1), strconv.Itoa(500 + cmd.rand.Intn(1500))})
	}
	return rows
}

func (cmd *GenerateCommand) generateDemands() [][]string {
	rows := [][]string{{"scenario_id", "probability", "retailer_id", "product_id", "stage", "quantity"}}
	probs := cmd.probabilities(cmd.config.DemandScenarios)
	for k := 0; k < cmd.config.DemandScenarios; k++ {
		id := fmt.Sprintf("D%02d", k+1)
		scale := 0.5 + cmd.rand.Float64()
		for r := 0; r < cmd.config.Retailers; r++ {
			for p := 0; p < cmd.config.Products; p++ {
				for t := 0; t < cmd.config.Stages; t++ {
					qty := int(scale * float64(20+cmd.rand.Intn(80)))
					rows = append(rows, []string{
						id, probs[k], fmt.Sprintf("R%03d", r+1), productName(p), strconv.Itoa(t), strconv.Itoa(qty),
					})
				}
			}
		}
	}
	return rows
}

func (cmd *GenerateCommand) generateDisruptions() [][]string {
	rows := [][]string{{"scenario_id", "probability", "supplier_id", "stage", "disrupted"}}
	probs := cmd.probabilities(cmd.config.DisruptionScenarios)
	for k := 0; k < cmd.config.DisruptionScenarios; k++ {
		id := fmt.Sprintf("S%02d", k+1)
		for s := 0; s < cmd.config.Suppliers; s++ {
			for t := 0; t < cmd.config.Stages; t++ {
				down := k > 0 && cmd.rand.Float64() < cmd.config.DisruptionRate
				rows = append(rows, []string{id, probs[k], supplierName(s), strconv.Itoa(t), strconv.FormatBool(down)})
			}
		}
	}
	return rows
}

// probabilities draws n random weights and renders them so they sum to one
func (cmd *GenerateCommand) probabilities(n int) []string {
	weights := make([]float64, n)
	total := 0.0
	for i := range weights {
		weights[i] = 1 + cmd.rand.Float64()
		total += weights[i]
	}
	out := make([]string, n)
	remaining := 1.0
	for i := range weights {
		p := weights[i] / total
		if i == n-1 {
			p = remaining
		}
		remaining -= p
		out[i] = formatFloat(p)
	}
	return out
}

func writeRows(path string, rows [][]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	w := stdcsv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func productName(p int) string {
	return fmt.Sprintf("P%03d", p+1)
}

func supplierName(s int) string {
	return fmt.Sprintf("SUP%03d", s+1)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vsinha/scplan/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format string
	// OutputDir receives report files; empty writes to Writer. CSV needs it.
	OutputDir string
	Verbose   bool
	// Detail adds per-scenario orders and inventory to text output
	Detail bool
	Writer io.Writer
}

func (c Config) writer() io.Writer {
	if c.Writer != nil {
		return c.Writer
	}
	return os.Stdout
}

// Generate creates output in the specified format
func Generate(plan *dto.Plan, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(plan, config)
	case "json":
		return generateJSONOutput(plan, config)
	case "csv":
		return generateCSVOutput(plan, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(plan *dto.Plan, config Config) error {
	w := config.writer()

	fmt.Fprintf(w, "Inventory Plan Summary\n")
	fmt.Fprintf(w, "======================\n\n")

	fmt.Fprintf(w, "Run: %s\n", plan.RunID)
	status := plan.Status
	if plan.Degraded {
		status += " (time limit, not proven optimal)"
	}
	fmt.Fprintf(w, "Status: %s\n", status)
	fmt.Fprintf(w, "Model: %d variables, %d constraints\n", plan.Model.Variables, plan.Model.Constraints)
	fmt.Fprintf(w, "Scenario pairs: %d\n", len(plan.Scenarios))
	fmt.Fprintf(w, "Solve Time: %v\n\n", plan.SolveTime)

	fmt.Fprintf(w, "Objectives:\n")
	for _, o := range plan.Objectives {
		fmt.Fprintf(w, "  %-12s %14s\n", o.Name, o.Amount.StringFixed(2))
	}
	for _, lv := range plan.Levels {
		fmt.Fprintf(w, "  level %d: %s optimum %s\n", lv.Priority, lv.Objective, quantity(lv.Optimum))
	}
	fmt.Fprintln(w)

	if len(plan.InitialOrders) > 0 {
		fmt.Fprintf(w, "Initial Orders:\n")
		fmt.Fprintf(w, "%-15s %-15s %12s\n", "Product", "Supplier", "Quantity")
		fmt.Fprintf(w, "%-15s %-15s %12s\n", "---------------", "---------------", "------------")
		for _, o := range plan.InitialOrders {
			fmt.Fprintf(w, "%-15s %-15s %12s\n", o.Product, o.Supplier, quantity(o.Quantity))
		}
		fmt.Fprintln(w)
	}

	if len(plan.Demand) > 0 {
		fmt.Fprintf(w, "Demand Across Scenarios:\n")
		fmt.Fprintf(w, "%-15s %-15s %-6s %10s %10s %10s\n", "Product", "Retailer", "Stage", "Expected", "Std Dev", "Max")
		fmt.Fprintf(w, "%-15s %-15s %-6s %10s %10s %10s\n", "---------------", "---------------", "------", "----------", "----------", "----------")
		for _, d := range plan.Demand {
			fmt.Fprintf(w, "%-15s %-15s %-6d %10s %10s %10s\n", d.Product, d.Retailer, d.Stage, quantity(d.Expected), quantity(d.StdDev), quantity(d.Max))
		}
		fmt.Fprintln(w)
	}

	if config.Detail {
		writeTextDetail(w, plan)
	}

	if config.OutputDir != "" && config.Verbose {
		fmt.Fprintf(w, "Text output is written to the console only; use json or csv for files\n")
	}
	return nil
}

func writeTextDetail(w io.Writer, plan *dto.Plan) {
	if len(plan.AdditionalOrders) > 0 {
		fmt.Fprintf(w, "Additional Orders (non-zero):\n")
		fmt.Fprintf(w, "%-12s %-6s %-12s %-12s %-20s %12s\n", "Product", "Stage", "Supplier", "Retailer", "Scenario", "Quantity")
		for _, o := range plan.AdditionalOrders {
			if o.Quantity == 0 {
				continue
			}
			fmt.Fprintf(w, "%-12s %-6d %-12s %-12s %-20s %12s\n",
				o.Product, o.Stage, o.Supplier, o.Retailer,
				o.DemandScenario+"/"+o.DisruptionScenario, quantity(o.Quantity))
		}
		fmt.Fprintln(w)
	}

	if len(plan.Inventory) > 0 {
		fmt.Fprintf(w, "Inventory:\n")
		fmt.Fprintf(w, "%-12s %-6s %-12s %-20s %12s\n", "Product", "Stage", "Retailer", "Scenario", "Quantity")
		for _, inv := range plan.Inventory {
			fmt.Fprintf(w, "%-12s %-6d %-12s %-20s %12s\n",
				inv.Product, inv.Stage, inv.Retailer,
				inv.DemandScenario+"/"+inv.DisruptionScenario, quantity(inv.Quantity))
		}
		fmt.Fprintln(w)
	}

	if len(plan.DCInventory) > 0 {
		fmt.Fprintf(w, "Distribution Center Stock:\n")
		for _, dc := range plan.DCInventory {
			fmt.Fprintf(w, "  %-12s %-12s %12s\n", dc.DistributionCenter, dc.Product, quantity(dc.Quantity))
		}
		fmt.Fprintln(w)
	}
}

// generateJSONOutput creates JSON output
func generateJSONOutput(plan *dto.Plan, config Config) error {
	jsonData, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.writer(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "plan.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per plan section
func generateCSVOutput(plan *dto.Plan, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tables := []struct {
		file   string
		header []string
		rows   [][]string
	}{
		{"objectives.csv", []string{"objective", "value"}, objectiveRows(plan)},
		{"initial_orders.csv", []string{"product_id", "supplier_id", "quantity"}, initialOrderRows(plan)},
		{"additional_orders.csv", []string{"product_id", "stage", "supplier_id", "retailer_id", "demand_scenario", "disruption_scenario", "quantity"}, additionalOrderRows(plan)},
		{"inventory.csv", []string{"product_id", "stage", "retailer_id", "demand_scenario", "disruption_scenario", "quantity"}, inventoryRows(plan)},
		{"dc_inventory.csv", []string{"dc_id", "product_id", "quantity"}, dcRows(plan)},
	}

	for _, table := range tables {
		filename := filepath.Join(config.OutputDir, table.file)
		if err := writeCSV(filename, table.header, table.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", table.file, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.writer(), "  %s\n", filename)
		}
	}
	return nil
}

func writeCSV(filename string, header []string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Sync()
}

func objectiveRows(plan *dto.Plan) [][]string {
	rows := make([][]string, 0, len(plan.Objectives))
	for _, o := range plan.Objectives {
		rows = append(rows, []string{o.Name, o.Amount.StringFixed(2)})
	}
	return rows
}

func initialOrderRows(plan *dto.Plan) [][]string {
	rows := make([][]string, 0, len(plan.InitialOrders))
	for _, o := range plan.InitialOrders {
		rows = append(rows, []string{string(o.Product), string(o.Supplier), quantity(o.Quantity)})
	}
	return rows
}

func additionalOrderRows(plan *dto.Plan) [][]string {
	rows := make([][]string, 0, len(plan.AdditionalOrders))
	for _, o := range plan.AdditionalOrders {
		rows = append(rows, []string{
			string(o.Product), strconv.Itoa(o.Stage), string(o.Supplier), string(o.Retailer),
			o.DemandScenario, o.DisruptionScenario, quantity(o.Quantity),
		})
	}
	return rows
}

func inventoryRows(plan *dto.Plan) [][]string {
	rows := make([][]string, 0, len(plan.Inventory))
	for _, inv := range plan.Inventory {
		rows = append(rows, []string{
			string(inv.Product), strconv.Itoa(inv.Stage), string(inv.Retailer),
			inv.DemandScenario, inv.DisruptionScenario, quantity(inv.Quantity),
		})
	}
	return rows
}

func dcRows(plan *dto.Plan) [][]string {
	rows := make([][]string, 0, len(plan.DCInventory))
	for _, dc := range plan.DCInventory {
		rows = append(rows, []string{string(dc.DistributionCenter), string(dc.Product), quantity(dc.Quantity)})
	}
	return rows
}

// quantity renders a solver value with at most four decimals
func quantity(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String()
}

package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vsinha/scplan/pkg/domain/entities"
)

// File names read by LoadCatalog from a data directory
const (
	ProductsFile            = "products.csv"
	StagesFile              = "stages.csv"
	SuppliersFile           = "suppliers.csv"
	OrderCostsFile          = "order_costs.csv"
	RetailersFile           = "retailers.csv"
	DistributionCentersFile = "distribution_centers.csv"
	DemandsFile             = "demands.csv"
	DisruptionsFile         = "disruptions.csv"
)

// Loader handles loading planning data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadCatalog reads the entity files of dir and assembles a validated
// catalog. distribution_centers.csv is optional.
func (l *Loader) LoadCatalog(dir string) (*entities.Catalog, error) {
	products, err := l.LoadProducts(filepath.Join(dir, ProductsFile))
	if err != nil {
		return nil, err
	}
	stages, err := l.LoadStages(filepath.Join(dir, StagesFile))
	if err != nil {
		return nil, err
	}
	suppliers, err := l.LoadSuppliers(filepath.Join(dir, SuppliersFile), filepath.Join(dir, OrderCostsFile))
	if err != nil {
		return nil, err
	}
	retailers, err := l.LoadRetailers(filepath.Join(dir, RetailersFile))
	if err != nil {
		return nil, err
	}

	var dcs []entities.DistributionCenter
	dcPath := filepath.Join(dir, DistributionCentersFile)
	if _, statErr := os.Stat(dcPath); statErr == nil {
		dcs, err = l.LoadDistributionCenters(dcPath)
		if err != nil {
			return nil, err
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", dcPath, statErr)
	}

	return entities.NewCatalog(products, stages, suppliers, retailers, dcs)
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]entities.Product, error) {
	expectedHeader := []string{"product_id", "holding_cost", "min_inventory", "emission_factor"}
	records, err := readTable(filename, "products", expectedHeader)
	if err != nil {
		return nil, err
	}

	products := make([]entities.Product, 0, len(records))
	for i, record := range records {
		product, err := parseProduct(record)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, *product)
	}
	return products, nil
}

// LoadStages loads stages from a CSV file
func (l *Loader) LoadStages(filename string) ([]entities.Stage, error) {
	expectedHeader := []string{"stage_index", "label"}
	records, err := readTable(filename, "stages", expectedHeader)
	if err != nil {
		return nil, err
	}

	stages := make([]entities.Stage, 0, len(records))
	for i, record := range records {
		index, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("stages CSV row %d: invalid stage_index: %s", i+2, record[0])
		}
		stages = append(stages, entities.Stage{Index: index, Label: strings.TrimSpace(record[1])})
	}
	return stages, nil
}

// LoadSuppliers loads suppliers and joins their per-product order costs
func (l *Loader) LoadSuppliers(suppliersFile, orderCostsFile string) ([]entities.Supplier, error) {
	records, err := readTable(suppliersFile, "suppliers", []string{"supplier_id", "capacity"})
	if err != nil {
		return nil, err
	}

	suppliers := make([]entities.Supplier, 0, len(records))
	index := make(map[entities.SupplierID]int, len(records))
	for i, record := range records {
		id := entities.SupplierID(strings.TrimSpace(record[0]))
		capacity, err := parseCapacity(record[1])
		if err != nil {
			return nil, fmt.Errorf("suppliers CSV row %d: %w", i+2, err)
		}
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("suppliers CSV row %d: duplicate supplier %s", i+2, id)
		}
		index[id] = len(suppliers)
		suppliers = append(suppliers, entities.Supplier{
			ID:         id,
			OrderCosts: make(map[entities.ProductID]float64),
			Capacity:   capacity,
		})
	}

	costs, err := readTable(orderCostsFile, "order costs", []string{"supplier_id", "product_id", "cost"})
	if err != nil {
		return nil, err
	}
	for i, record := range costs {
		id := entities.SupplierID(strings.TrimSpace(record[0]))
		s, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("order costs CSV row %d: unknown supplier %s", i+2, id)
		}
		cost, err := parseFloat("cost", record[2])
		if err != nil {
			return nil, fmt.Errorf("order costs CSV row %d: %w", i+2, err)
		}
		suppliers[s].OrderCosts[entities.ProductID(strings.TrimSpace(record[1]))] = cost
	}

	for i := range suppliers {
		if _, err := entities.NewSupplier(suppliers[i].ID, suppliers[i].OrderCosts, suppliers[i].Capacity); err != nil {
			return nil, fmt.Errorf("suppliers CSV: %w", err)
		}
	}
	return suppliers, nil
}

// LoadRetailers loads retailers from a CSV file
func (l *Loader) LoadRetailers(filename string) ([]entities.Retailer, error) {
	records, err := readTable(filename, "retailers", []string{"retailer_id"})
	if err != nil {
		return nil, err
	}

	retailers := make([]entities.Retailer, 0, len(records))
	for _, record := range records {
		retailers = append(retailers, entities.Retailer{ID: entities.RetailerID(strings.TrimSpace(record[0]))})
	}
	return retailers, nil
}

// LoadDistributionCenters loads distribution centers from a CSV file
func (l *Loader) LoadDistributionCenters(filename string) ([]entities.DistributionCenter, error) {
	records, err := readTable(filename, "distribution centers", []string{"dc_id", "capacity"})
	if err != nil {
		return nil, err
	}

	dcs := make([]entities.DistributionCenter, 0, len(records))
	for i, record := range records {
		capacity, err := parseFloat("capacity", record[1])
		if err != nil {
			return nil, fmt.Errorf("distribution centers CSV row %d: %w", i+2, err)
		}
		dc, err := entities.NewDistributionCenter(entities.DistributionCenterID(strings.TrimSpace(record[0])), capacity)
		if err != nil {
			return nil, fmt.Errorf("distribution centers CSV row %d: %w", i+2, err)
		}
		dcs = append(dcs, *dc)
	}
	return dcs, nil
}

// LoadDemandScenarios loads demand scenarios from a long-format CSV file.
// Scenarios keep the order of their first row.
func (l *Loader) LoadDemandScenarios(filename string) ([]*entities.DemandScenario, error) {
	expectedHeader := []string{"scenario_id", "probability", "retailer_id", "product_id", "stage", "quantity"}
	records, err := readTable(filename, "demands", expectedHeader)
	if err != nil {
		return nil, err
	}

	var scenarios []*entities.DemandScenario
	byID := make(map[string]*entities.DemandScenario)
	for i, record := range records {
		id := strings.TrimSpace(record[0])
		probability, err := parseFloat("probability", record[1])
		if err != nil {
			return nil, fmt.Errorf("demands CSV row %d: %w", i+2, err)
		}
		sc, ok := byID[id]
		if !ok {
			sc = &entities.DemandScenario{
				ID:          id,
				Probability: probability,
				Demand:      make(map[entities.DemandKey]float64),
			}
			byID[id] = sc
			scenarios = append(scenarios, sc)
		} else if sc.Probability != probability {
			return nil, fmt.Errorf("demands CSV row %d: scenario %s has conflicting probabilities %v and %v", i+2, id, sc.Probability, probability)
		}

		stage, err := strconv.Atoi(strings.TrimSpace(record[4]))
		if err != nil {
			return nil, fmt.Errorf("demands CSV row %d: invalid stage: %s", i+2, record[4])
		}
		quantity, err := parseFloat("quantity", record[5])
		if err != nil {
			return nil, fmt.Errorf("demands CSV row %d: %w", i+2, err)
		}
		key := entities.DemandKey{
			Retailer: entities.RetailerID(strings.TrimSpace(record[2])),
			Product:  entities.ProductID(strings.TrimSpace(record[3])),
			Stage:    stage,
		}
		if _, dup := sc.Demand[key]; dup {
			return nil, fmt.Errorf("demands CSV row %d: duplicate demand for %s/%s/%d in scenario %s", i+2, key.Retailer, key.Product, key.Stage, id)
		}
		sc.Demand[key] = quantity
	}
	return scenarios, nil
}

// LoadDisruptionScenarios loads disruption scenarios from a long-format CSV file
func (l *Loader) LoadDisruptionScenarios(filename string) ([]*entities.DisruptionScenario, error) {
	expectedHeader := []string{"scenario_id", "probability", "supplier_id", "stage", "disrupted"}
	records, err := readTable(filename, "disruptions", expectedHeader)
	if err != nil {
		return nil, err
	}

	var scenarios []*entities.DisruptionScenario
	byID := make(map[string]*entities.DisruptionScenario)
	for i, record := range records {
		id := strings.TrimSpace(record[0])
		probability, err := parseFloat("probability", record[1])
		if err != nil {
			return nil, fmt.Errorf("disruptions CSV row %d: %w", i+2, err)
		}
		sc, ok := byID[id]
		if !ok {
			sc = &entities.DisruptionScenario{
				ID:          id,
				Probability: probability,
				Disrupted:   make(map[entities.DisruptionKey]bool),
			}
			byID[id] = sc
			scenarios = append(scenarios, sc)
		} else if sc.Probability != probability {
			return nil, fmt.Errorf("disruptions CSV row %d: scenario %s has conflicting probabilities %v and %v", i+2, id, sc.Probability, probability)
		}

		stage, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, fmt.Errorf("disruptions CSV row %d: invalid stage: %s", i+2, record[3])
		}
		disrupted, err := parseFlag(record[4])
		if err != nil {
			return nil, fmt.Errorf("disruptions CSV row %d: %w", i+2, err)
		}
		key := entities.DisruptionKey{Supplier: entities.SupplierID(strings.TrimSpace(record[2])), Stage: stage}
		if _, dup := sc.Disrupted[key]; dup {
			return nil, fmt.Errorf("disruptions CSV row %d: duplicate flag for %s/%d in scenario %s", i+2, key.Supplier, key.Stage, id)
		}
		sc.Disrupted[key] = disrupted
	}
	return scenarios, nil
}

// readTable reads a CSV file, checks its header and column counts, and
// returns the data rows
func readTable(filename, name string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(record))
		}
	}

	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseProduct(record []string) (*entities.Product, error) {
	holdingCost, err := parseFloat("holding_cost", record[1])
	if err != nil {
		return nil, err
	}
	minInventory, err := parseFloat("min_inventory", record[2])
	if err != nil {
		return nil, err
	}
	emissionFactor, err := parseFloat("emission_factor", record[3])
	if err != nil {
		return nil, err
	}
	return entities.NewProduct(entities.ProductID(strings.TrimSpace(record[0])), holdingCost, minInventory, emissionFactor)
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	return v, nil
}

// parseCapacity treats a blank or "inf" cell as an uncapacitated supplier
func parseCapacity(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inf", "unlimited":
		return entities.Uncapacitated, nil
	}
	return parseFloat("capacity", s)
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid disrupted flag: %s (expected true/false or 1/0)", s)
	}
}

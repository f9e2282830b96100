// Package testing writes planning data sets to disk for loader and CLI tests.
package testing

import (
	"os"
	"path/filepath"
)

// TwoStageDataSet is the CSV rendering of a one-product, two-stage problem
// with a certain demand of 100 per stage and a unit order cost
var TwoStageDataSet = map[string]string{
	"products.csv":    "product_id,holding_cost,min_inventory,emission_factor\nwidget,1,0,0.5\n",
	"stages.csv":      "stage_index,label\n0,launch\n1,replenish\n",
	"suppliers.csv":   "supplier_id,capacity\nacme,\n",
	"order_costs.csv": "supplier_id,product_id,cost\nacme,widget,1\n",
	"retailers.csv":   "retailer_id\nstore\n",
	"demands.csv": "scenario_id,probability,retailer_id,product_id,stage,quantity\n" +
		"base,1,store,widget,0,100\n" +
		"base,1,store,widget,1,100\n",
	"disruptions.csv": "scenario_id,probability,supplier_id,stage,disrupted\n" +
		"calm,1,acme,0,false\n" +
		"calm,1,acme,1,false\n",
}

// WriteDataSet writes every file of files into dir and returns dir
func WriteDataSet(dir string, files map[string]string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// With returns a copy of files with the given entries replaced or added
func With(files map[string]string, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(files)+len(overrides))
	for k, v := range files {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

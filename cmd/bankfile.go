// Package cmd provides CLI commands for the catsim application.
// This file implements the YAML item bank format shared by the simulate
// and bank commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/adalundhe/catsim/core/irt"
	"github.com/adalundhe/catsim/core/itembank"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Bank File Schema
// =============================================================================

// bankItem is one row of a bank file: the three-parameter logistic triple
// plus the item's interchangeability cluster.
type bankItem struct {
	A       float64 `yaml:"a"`
	B       float64 `yaml:"b"`
	C       float64 `yaml:"c"`
	Cluster int     `yaml:"cluster"`
}

// bankFile is the on-disk schema.
type bankFile struct {
	Items []bankItem `yaml:"items"`
}

// =============================================================================
// Load / Save
// =============================================================================

// loadBank reads a YAML bank file into a validated bank.
func loadBank(path string) (*itembank.Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank %s: %w", path, err)
	}

	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse bank %s: %w", path, err)
	}

	items := make([]irt.Item, len(file.Items))
	clusters := make([]int, len(file.Items))
	for i, row := range file.Items {
		items[i] = irt.Item{Discrimination: row.A, Difficulty: row.B, Guessing: row.C}
		clusters[i] = row.Cluster
	}

	bank, err := itembank.New(items, clusters)
	if err != nil {
		return nil, fmt.Errorf("bank %s: %w", path, err)
	}
	return bank, nil
}

// saveBank writes a bank in the schema loadBank reads.
func saveBank(path string, bank *itembank.Bank) error {
	file := bankFile{Items: make([]bankItem, bank.Len())}
	for i := 0; i < bank.Len(); i++ {
		item := bank.Item(i)
		file.Items[i] = bankItem{
			A:       item.Discrimination,
			B:       item.Difficulty,
			C:       item.Guessing,
			Cluster: bank.Cluster(i),
		}
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encode bank: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bank %s: %w", path, err)
	}
	return nil
}

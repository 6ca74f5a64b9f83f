// Package cmd provides CLI commands for the catsim application.
// This file implements the bank command for generating synthetic item
// banks.
package cmd

import (
	"fmt"

	"github.com/adalundhe/catsim/core/itembank"
	"github.com/spf13/cobra"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// BankDefaultItems is the default synthetic bank size.
	BankDefaultItems = 100

	// BankDefaultClusters is the default number of interchangeability
	// clusters.
	BankDefaultClusters = 4

	// BankDefaultOut is the default output path.
	BankDefaultOut = "bank.yaml"
)

// =============================================================================
// Bank Command Flags
// =============================================================================

var (
	bankItems    int
	bankClusters int
	bankSeed     int64
	bankOut      string
)

// =============================================================================
// Bank Command
// =============================================================================

// bankCmd represents the bank command.
var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Generate a synthetic item bank",
	Long: `Generate a synthetic item bank and write it to a YAML file that
simulate --bank can load.

Examples:
  catsim bank
  catsim bank --items 500 --clusters 8 --out large.yaml
  catsim bank --seed 42 --out reproducible.yaml`,
	Args: cobra.NoArgs,
	RunE: runBank,
}

func init() {
	rootCmd.AddCommand(bankCmd)

	bankCmd.Flags().IntVar(&bankItems, "items", BankDefaultItems, "Number of items to generate")
	bankCmd.Flags().IntVar(&bankClusters, "clusters", BankDefaultClusters, "Number of interchangeability clusters")
	bankCmd.Flags().Int64Var(&bankSeed, "seed", 0, "Random seed (0 = time-derived)")
	bankCmd.Flags().StringVarP(&bankOut, "out", "o", BankDefaultOut, "Output path for the generated bank")
}

// runBank executes the bank command.
func runBank(cmd *cobra.Command, args []string) error {
	bank, err := itembank.Generate(bankItems, bankClusters, bankSeed)
	if err != nil {
		return fmt.Errorf("generate item bank: %w", err)
	}

	if err := saveBank(bankOut, bank); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d items in %d clusters to %s\n",
		bank.Len(), bank.Clusters(), bankOut)
	return nil
}

// Package cmd provides CLI commands for the catsim application.
// This file implements the simulate command that drives full adaptive
// test runs.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/adalundhe/catsim/core/estimation"
	"github.com/adalundhe/catsim/core/itembank"
	"github.com/adalundhe/catsim/core/simulation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Simulate Command Flags
// =============================================================================

var (
	simulateExaminees  int
	simulateTestLength int
	simulateRMaxLevels int
	simulateOptimizer  string
	simulateSeed       int64
	simulateVerbose    bool
	simulateBankPath   string
	simulateItems      int
	simulateClusters   int
	simulateJSONPath   string
	simulateConfigPath string
)

// =============================================================================
// Simulate Command
// =============================================================================

// simulateCmd represents the simulate command.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an adaptive test simulation",
	Long: `Run a computerized adaptive test simulation: a synthetic examinee
population answers exposure-controlled, maximum-information item
selections while their ability is re-estimated after every response.
The simulation sweeps a range of exposure caps and reports estimation
accuracy (RMSE) and test overlap per cap.

Examples:
  catsim simulate
  catsim simulate -e 500 -n 30 --seed 42
  catsim simulate --bank bank.yaml --optimizer NelderMead
  catsim simulate --config run.yaml --json outcome.json`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVarP(&simulateExaminees, "examinees", "e", simulation.DefaultExaminees, "Number of simulated examinees")
	simulateCmd.Flags().IntVarP(&simulateTestLength, "test-length", "n", simulation.DefaultTestLength, "Items administered per examinee")
	simulateCmd.Flags().IntVarP(&simulateRMaxLevels, "r-max-levels", "r", simulation.DefaultRMaxLevels, "Number of exposure cap levels to sweep")
	simulateCmd.Flags().StringVarP(&simulateOptimizer, "optimizer", "o", estimation.DefaultMethod,
		fmt.Sprintf("Optimization method (%s)", strings.Join(estimation.Methods(), ", ")))
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "Random seed (0 = time-derived)")
	simulateCmd.Flags().BoolVarP(&simulateVerbose, "verbose", "v", false, "Enable debug logging")
	simulateCmd.Flags().StringVarP(&simulateBankPath, "bank", "b", "", "Path to a YAML item bank (omit to generate one)")
	simulateCmd.Flags().IntVar(&simulateItems, "items", BankDefaultItems, "Synthetic bank size when no bank file is given")
	simulateCmd.Flags().IntVar(&simulateClusters, "clusters", BankDefaultClusters, "Synthetic bank cluster count")
	simulateCmd.Flags().StringVar(&simulateJSONPath, "json", "", "Write the full outcome as JSON to this path")
	simulateCmd.Flags().StringVarP(&simulateConfigPath, "config", "c", "", "Path to a YAML config file (flags take precedence)")
}

// =============================================================================
// Settings Resolution
// =============================================================================

// simulateSettings is the resolved configuration for one simulate run.
// The YAML tags define the config file schema.
type simulateSettings struct {
	Examinees  int    `yaml:"examinees"`
	TestLength int    `yaml:"test_length"`
	RMaxLevels int    `yaml:"r_max_levels"`
	Optimizer  string `yaml:"optimizer"`
	Seed       int64  `yaml:"seed"`
	Bank       string `yaml:"bank"`
	Items      int    `yaml:"items"`
	Clusters   int    `yaml:"clusters"`
}

// flagSettings collects the current flag values.
func flagSettings() simulateSettings {
	return simulateSettings{
		Examinees:  simulateExaminees,
		TestLength: simulateTestLength,
		RMaxLevels: simulateRMaxLevels,
		Optimizer:  simulateOptimizer,
		Seed:       simulateSeed,
		Bank:       simulateBankPath,
		Items:      simulateItems,
		Clusters:   simulateClusters,
	}
}

// loadSimulateConfig reads a YAML config file.
func loadSimulateConfig(path string) (*simulateSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg simulateSettings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeSimulateSettings overlays config file values onto flag values. A
// flag the user set explicitly wins over the file; otherwise a non-zero
// file value replaces the flag default.
func mergeSimulateSettings(flagValues simulateSettings, fileValues *simulateSettings, changed func(string) bool) simulateSettings {
	merged := flagValues
	if fileValues == nil {
		return merged
	}

	if !changed("examinees") && fileValues.Examinees != 0 {
		merged.Examinees = fileValues.Examinees
	}
	if !changed("test-length") && fileValues.TestLength != 0 {
		merged.TestLength = fileValues.TestLength
	}
	if !changed("r-max-levels") && fileValues.RMaxLevels != 0 {
		merged.RMaxLevels = fileValues.RMaxLevels
	}
	if !changed("optimizer") && fileValues.Optimizer != "" {
		merged.Optimizer = fileValues.Optimizer
	}
	if !changed("seed") && fileValues.Seed != 0 {
		merged.Seed = fileValues.Seed
	}
	if !changed("bank") && fileValues.Bank != "" {
		merged.Bank = fileValues.Bank
	}
	if !changed("items") && fileValues.Items != 0 {
		merged.Items = fileValues.Items
	}
	if !changed("clusters") && fileValues.Clusters != 0 {
		merged.Clusters = fileValues.Clusters
	}
	return merged
}

// =============================================================================
// Simulate Execution
// =============================================================================

// runSimulate executes the simulate command.
func runSimulate(cmd *cobra.Command, args []string) error {
	settings := flagSettings()

	if simulateConfigPath != "" {
		fileValues, err := loadSimulateConfig(simulateConfigPath)
		if err != nil {
			return err
		}
		settings = mergeSimulateSettings(settings, fileValues, cmd.Flags().Changed)
	}

	logger := newLogger(cmd.ErrOrStderr(), simulateVerbose)

	bank, err := resolveBank(settings, logger)
	if err != nil {
		return err
	}

	driver, err := simulation.New(bank, simulation.Config{
		Examinees:  settings.Examinees,
		TestLength: settings.TestLength,
		RMaxLevels: settings.RMaxLevels,
		Optimizer:  settings.Optimizer,
		Seed:       settings.Seed,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("configure simulation: %w", err)
	}

	outcome, err := driver.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run simulation: %w", err)
	}

	if simulateJSONPath != "" {
		if err := writeOutcomeJSON(simulateJSONPath, outcome); err != nil {
			return err
		}
	}

	printAggregates(cmd.OutOrStdout(), outcome)
	return nil
}

// newLogger builds the run logger. Debug level when verbose, Info
// otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveBank loads the bank file when one is given and generates a
// synthetic bank otherwise.
func resolveBank(settings simulateSettings, logger *slog.Logger) (*itembank.Bank, error) {
	if settings.Bank != "" {
		bank, err := loadBank(settings.Bank)
		if err != nil {
			return nil, err
		}
		logger.Info("item bank loaded",
			"path", settings.Bank,
			"items", bank.Len(),
			"clusters", bank.Clusters())
		return bank, nil
	}

	bank, err := itembank.Generate(settings.Items, settings.Clusters, settings.Seed)
	if err != nil {
		return nil, fmt.Errorf("generate item bank: %w", err)
	}
	logger.Info("synthetic item bank generated",
		"items", bank.Len(),
		"clusters", bank.Clusters())
	return bank, nil
}

// =============================================================================
// Output Formatting
// =============================================================================

// writeOutcomeJSON dumps the full outcome to a JSON file.
func writeOutcomeJSON(path string, outcome *simulation.Outcome) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write outcome %s: %w", path, err)
	}
	return nil
}

// printAggregates renders the per-cap summary table.
func printAggregates(w io.Writer, outcome *simulation.Outcome) {
	fmt.Fprintf(w, "Run %s (seed %d)\n\n", outcome.RunID, outcome.Seed)
	fmt.Fprintf(w, "%-8s %-10s %-10s %s\n", "ITEMS", "RMSE", "OVERLAP", "R_MAX")
	for _, aggregate := range outcome.Aggregates {
		fmt.Fprintf(w, "%-8d %-10.4f %-10.4f %.2f\n",
			aggregate.TestLength, aggregate.RMSE, aggregate.Overlap, aggregate.RMax)
	}
}

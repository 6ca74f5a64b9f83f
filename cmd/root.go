package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "catsim",
	Short: "Catsim - A computerized adaptive testing simulator",
	Long: `Catsim simulates computerized adaptive tests over synthetic examinees,
sweeping item exposure caps and reporting estimation accuracy and item
usage for algorithm comparison.`,
}

func Execute() error {
	return rootCmd.Execute()
}

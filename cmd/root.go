package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/SableBench/rnaloc-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags (wired to config/viper)
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "rnaloc",
	Short: "rnaloc: validate and model subcellular RNA-localization tables",
	Long: `rnaloc is a batch analysis pipeline for gene-level RNA-localization
partition coefficients: it re-derives and validates the table's normalized
columns, fits a multinomial logistic regression of localization category on
RBP covariates, and exports diagnostics and decision-boundary surfaces.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.rnaloc/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: every setting has a usable default
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = &cfgpkg.Global{}
		return
	}
	cfg = c
}

// Package cmd provides the CLI commands for auto-rating.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"auto-rating/internal/config"
	"auto-rating/internal/logging"
)

// Version is the CLI version
const Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "auto-rating",
	Short: "Rate personal auto insurance policies",
	Long: `auto-rating computes personal auto premiums from the bundled rating plan.

Every premium is the product of a 13-step factor chain per coverage
(base rate, territory, vehicle, drivers, limits or deductibles, discounts)
and is reproducible from the input document and the table version.

Examples:
  auto-rating rate -i quote.json
  auto-rating rate -i quote.json --format json
  auto-rating breakdown -c COLL -i quote.json
  auto-rating vehicles --year 2020 --make toyota`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(breakdownCmd)
	rootCmd.AddCommand(safetyCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(vehiclesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	// Initialize logging
	logCfg := *cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	} else if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "auto-rating version %s (%s, %s %s)\n", Version, cfg.Engine, cfg.Carrier, cfg.State)
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to an HCL file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Get().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

// Package cmd - rating commands
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"auto-rating/core/engine"
	"auto-rating/core/output"
	"auto-rating/core/tables"
	"auto-rating/core/types"
	"auto-rating/internal/config"
	"auto-rating/internal/errors"
)

var (
	inputFile    string
	outputFormat string
	asOf         string
	showDetails  bool
	coverageName string
	projectYears int
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Calculate the premium of a rating input document",
	Long: `Rate every selected coverage of a rating input document.

The input is a JSON RatingInput; use "-" to read it from stdin.

Examples:
  auto-rating rate -i quote.json
  auto-rating rate -i quote.json --details
  auto-rating rate -i quote.json --as-of 2024-06-01 --format json`,
	Args: cobra.NoArgs,
	RunE: runRate,
}

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Show the driver adjustment factors of every selected coverage",
	Args:  cobra.NoArgs,
	RunE:  runDrivers,
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Show the full calculation chain of one coverage",
	Long: `Rate a single selected coverage and print its 13 calculation steps.

Examples:
  auto-rating breakdown -c COLL -i quote.json`,
	Args: cobra.NoArgs,
	RunE: runBreakdown,
}

var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Score each driver's safety record and project it forward",
	Args:  cobra.NoArgs,
	RunE:  runSafety,
}

func init() {
	for _, c := range []*cobra.Command{rateCmd, driversCmd, breakdownCmd, safetyCmd} {
		c.Flags().StringVarP(&inputFile, "input", "i", "", "rating input JSON file (- for stdin)")
		c.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")
		c.Flags().StringVar(&asOf, "as-of", "", "rating date YYYY-MM-DD (overrides the input)")
		c.MarkFlagRequired("input")
	}
	rateCmd.Flags().BoolVarP(&showDetails, "details", "d", false, "show the calculation steps of each coverage")
	breakdownCmd.Flags().StringVarP(&coverageName, "coverage", "c", "", "coverage to break down (BIPD, COLL, COMP, MPC, UM)")
	breakdownCmd.MarkFlagRequired("coverage")
	safetyCmd.Flags().IntVar(&projectYears, "years", 5, "years to project the record forward")
}

func runRate(cmd *cobra.Command, args []string) error {
	eng, input, err := prepare(cmd)
	if err != nil {
		return err
	}

	result, err := eng.CalculatePremium(context.Background(), input)
	if err != nil {
		return describe(err)
	}

	f, err := output.ForFormat(outputFormat)
	if err != nil {
		return err
	}
	if cli, ok := f.(output.CLIFormatter); ok {
		cli.Details = showDetails
		f = cli
	}
	return f.Render(cmd.OutOrStdout(), result)
}

func runDrivers(cmd *cobra.Command, args []string) error {
	eng, input, err := prepare(cmd)
	if err != nil {
		return err
	}

	result, err := eng.DriverAdjustments(context.Background(), input)
	if err != nil {
		return describe(err)
	}
	if isJSON() {
		return output.WriteJSON(cmd.OutOrStdout(), result, true)
	}
	if err := output.RenderDriverAdjustments(cmd.OutOrStdout(), result.Adjustments); err != nil {
		return err
	}
	renderWarnings(cmd.OutOrStdout(), result.Warnings)
	return nil
}

func runBreakdown(cmd *cobra.Command, args []string) error {
	coverage, ok := types.ParseCoverage(coverageName)
	if !ok {
		return fmt.Errorf("unknown coverage %q (BIPD, COLL, COMP, MPC, UM)", coverageName)
	}
	eng, input, err := prepare(cmd)
	if err != nil {
		return err
	}

	result, err := eng.CoverageBreakdown(context.Background(), coverage, input)
	if err != nil {
		return describe(err)
	}
	if isJSON() {
		return output.WriteJSON(cmd.OutOrStdout(), result, true)
	}
	if err := output.RenderSteps(cmd.OutOrStdout(), coverage, result.Calculation); err != nil {
		return err
	}
	renderWarnings(cmd.OutOrStdout(), result.Warnings)
	return nil
}

func runSafety(cmd *cobra.Command, args []string) error {
	if projectYears < 0 {
		return fmt.Errorf("--years must not be negative")
	}
	eng, input, err := prepare(cmd)
	if err != nil {
		return err
	}

	report, err := eng.SafetyRecords(context.Background(), input, projectYears)
	if err != nil {
		return describe(err)
	}
	if isJSON() {
		return output.WriteJSON(cmd.OutOrStdout(), report, true)
	}
	for i, d := range report.Drivers {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		err := output.RenderSafetyRecord(cmd.OutOrStdout(), output.SafetyDriver{
			DriverID:   d.DriverID,
			Details:    d.Details,
			Projection: d.Projection,
		})
		if err != nil {
			return err
		}
	}
	renderWarnings(cmd.OutOrStdout(), report.Warnings)
	return nil
}

// prepare builds the engine from the effective config and reads the input document
func prepare(cmd *cobra.Command) (*engine.Engine, *types.RatingInput, error) {
	cfg := config.Get()
	holder, err := loadTables(cfg)
	if err != nil {
		return nil, nil, err
	}

	input, err := readInput(cmd.InOrStdin(), inputFile)
	if err != nil {
		return nil, nil, err
	}
	if asOf != "" {
		d, err := types.ParseDate(asOf)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --as-of: %w", err)
		}
		input.RatingDate = &d
	}

	eng := engine.New(holder, engine.Config{
		Carrier: cfg.Carrier,
		State:   cfg.State,
		Engine:  cfg.Engine,
	})
	return eng, input, nil
}

// loadTables loads the configured table directory, or the bundled tables
func loadTables(cfg *config.Config) (*tables.Holder, error) {
	var (
		set *tables.Set
		err error
	)
	if cfg.TablesDir != "" {
		set, err = tables.LoadDir(cfg.TablesDir)
	} else {
		set, err = tables.LoadBundled()
	}
	if err != nil {
		return nil, err
	}
	return tables.NewHolder(set), nil
}

// readInput decodes a RatingInput from a file, or from stdin when path is "-"
func readInput(stdin io.Reader, path string) (*types.RatingInput, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Input("cannot open rating input", err).WithContext("path", path)
		}
		defer f.Close()
		r = f
	}

	var input types.RatingInput
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, errors.Input("malformed rating input", err).WithContext("path", path)
	}
	return &input, nil
}

// describe expands a validation error into one line per field
func describe(err error) error {
	v, ok := errors.AsValidation(err)
	if !ok {
		return err
	}
	var b strings.Builder
	b.WriteString("rating input failed validation:")
	for _, f := range v.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", f.Field, f.Message)
	}
	return fmt.Errorf("%s", b.String())
}

func isJSON() bool {
	return output.Format(strings.ToLower(outputFormat)) == output.FormatJSON
}

func renderWarnings(w io.Writer, warnings []types.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\nWarnings (%d):\n", len(warnings))
	for _, warn := range warnings {
		output.RenderWarning(w, warn)
	}
}

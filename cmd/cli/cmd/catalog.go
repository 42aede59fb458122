// Package cmd - rating plan catalog commands
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"auto-rating/core/output"
	"auto-rating/internal/config"
)

var (
	vehicleYear  int
	vehicleMake  string
	vehicleModel string
)

// optionsCmd lists the selectable limits and deductibles
var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the coverage limits and deductibles of the rating plan",
	Args:  cobra.NoArgs,
	RunE:  runOptions,
}

// vehiclesCmd searches the vehicle rating group database
var vehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "Search the vehicle rating group database",
	Long: `Search vehicles by year and case-insensitive make/model substrings.

Examples:
  auto-rating vehicles --year 2020
  auto-rating vehicles --make toyota --model cam`,
	Args: cobra.NoArgs,
	RunE: runVehicles,
}

func init() {
	optionsCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")

	vehiclesCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")
	vehiclesCmd.Flags().IntVar(&vehicleYear, "year", 0, "model year")
	vehiclesCmd.Flags().StringVar(&vehicleMake, "make", "", "make (substring)")
	vehiclesCmd.Flags().StringVar(&vehicleModel, "model", "", "model (substring)")
}

func runOptions(cmd *cobra.Command, args []string) error {
	holder, err := loadTables(config.Get())
	if err != nil {
		return err
	}
	opts := holder.Set().CoverageOptions()
	if isJSON() {
		return output.WriteJSON(cmd.OutOrStdout(), opts, true)
	}

	w := cmd.OutOrStdout()
	ints := func(values []int) string {
		s := make([]string, len(values))
		for i, v := range values {
			s[i] = strconv.Itoa(v)
		}
		return strings.Join(s, ", ")
	}
	fmt.Fprintf(w, "%-18s %s\n", "BI limits", strings.Join(opts.BILimits, ", "))
	fmt.Fprintf(w, "%-18s %s\n", "PD limits", strings.Join(opts.PDLimits, ", "))
	fmt.Fprintf(w, "%-18s %s\n", "UM limits", strings.Join(opts.UMLimits, ", "))
	fmt.Fprintf(w, "%-18s %s\n", "MPC limits", strings.Join(opts.MPCLimits, ", "))
	fmt.Fprintf(w, "%-18s %s\n", "COLL deductibles", ints(opts.COLLDeductibles))
	fmt.Fprintf(w, "%-18s %s\n", "COMP deductibles", ints(opts.COMPDeductibles))
	fmt.Fprintf(w, "%-18s %s\n", "Multi-line", strings.Join(opts.MultiLine, ", "))
	fmt.Fprintf(w, "%-18s %s\n", "Usage types", strings.Join(opts.UsageTypes, ", "))
	return nil
}

func runVehicles(cmd *cobra.Command, args []string) error {
	holder, err := loadTables(config.Get())
	if err != nil {
		return err
	}
	vehicles := holder.Set().Catalog().Search(vehicleYear, vehicleMake, vehicleModel)
	if isJSON() {
		return output.WriteJSON(cmd.OutOrStdout(), vehicles, true)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-4s  %-12s %-12s %-8s %-8s %-10s %-8s %4s %4s %4s %4s\n",
		"YEAR", "MAKE", "MODEL", "SERIES", "PACKAGE", "STYLE", "ENGINE", "DRG", "GRG", "VSD", "LRG")
	for _, v := range vehicles {
		fmt.Fprintf(w, "%-4d  %-12s %-12s %-8s %-8s %-10s %-8s %4d %4d %4s %4d\n",
			v.Year, v.Make, v.Model, v.Series, v.Package, v.Style, v.Engine,
			v.Group.DRG, v.Group.GRG, v.Group.VSD, v.Group.LRG)
	}
	fmt.Fprintf(w, "\n%d vehicles\n", len(vehicles))
	return nil
}

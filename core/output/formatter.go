// Package output provides output formatting for rating results.
// This package produces human and machine-readable outputs.
package output

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"auto-rating/core/types"
	"auto-rating/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given result
	Render(w io.Writer, result *types.PremiumResult) error
}

// ForFormat returns the formatter for a format name
func ForFormat(name string) (Formatter, error) {
	switch Format(strings.ToLower(name)) {
	case FormatCLI, "":
		return CLIFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{Indent: true}, nil
	default:
		return nil, errors.Newf(errors.TypeInput, "unknown output format %q (cli, json)", name)
	}
}

// Document is the wire form of a PremiumResult.
// Premiums and the total are plain numbers; breakdown factors keep their exact decimal strings.
type Document struct {
	Premiums     map[types.CoverageType]float64 `json:"premiums"`
	TotalPremium float64                        `json:"total_premium"`
	Breakdowns   types.Breakdowns               `json:"breakdowns"`
	Metadata     types.ResultMetadata           `json:"metadata"`
	Warnings     []types.Warning                `json:"warnings,omitempty"`
}

// NewDocument maps a result to its wire form
func NewDocument(r *types.PremiumResult) Document {
	premiums := make(map[types.CoverageType]float64, len(r.Premiums))
	for c, p := range r.Premiums {
		premiums[c] = p.InexactFloat64()
	}
	return Document{
		Premiums:     premiums,
		TotalPremium: r.TotalPremium.InexactFloat64(),
		Breakdowns:   r.Breakdowns,
		Metadata:     r.Metadata,
		Warnings:     r.Warnings,
	}
}

// JSONFormatter renders the wire document
type JSONFormatter struct {
	Indent bool
}

// Format returns FormatJSON
func (JSONFormatter) Format() Format { return FormatJSON }

// Render writes the result as JSON
func (f JSONFormatter) Render(w io.Writer, result *types.PremiumResult) error {
	return WriteJSON(w, NewDocument(result), f.Indent)
}

// WriteJSON encodes any value with the shared codec
func WriteJSON(w io.Writer, v interface{}, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// CLIFormatter renders a boxed premium summary
type CLIFormatter struct {
	// Details adds the step-by-step chain of every coverage
	Details bool
}

// Format returns FormatCLI
func (CLIFormatter) Format() Format { return FormatCLI }

const boxWidth = 73

// Render writes the summary table
func (f CLIFormatter) Render(w io.Writer, result *types.PremiumResult) error {
	b := &box{w: w}
	b.rule("┌", "┐")
	b.center("PREMIUM SUMMARY")
	b.rule("├", "┤")

	for _, c := range types.AllCoverages {
		p, ok := result.Premiums[c]
		if !ok {
			continue
		}
		b.row(coverageLabel(c), money(p))
		if f.Details {
			for _, s := range result.Breakdowns.Calculations[c].Steps {
				b.row(fmt.Sprintf("  %2d. %s", s.Step, s.Name), s.Factor.String())
			}
		}
	}

	b.rule("├", "┤")
	b.row("TOTAL PREMIUM", money(result.TotalPremium))
	b.rule("└", "┘")

	m := result.Metadata
	fmt.Fprintf(w, "\nVehicle rating group: DRG %d / GRG %d / VSD %s / LRG %d (%s)\n",
		result.Breakdowns.VehicleRatingGroups.Group.DRG,
		result.Breakdowns.VehicleRatingGroups.Group.GRG,
		result.Breakdowns.VehicleRatingGroups.Group.VSD,
		result.Breakdowns.VehicleRatingGroups.Group.LRG,
		result.Breakdowns.VehicleRatingGroups.Tier)
	fmt.Fprintf(w, "Quote %s - %s %s, rated %s with tables %s\n", m.QuoteID, m.Carrier, m.State, m.RatingDate, m.TablesVersion)

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			RenderWarning(w, warn)
		}
	}
	return b.err
}

// RenderSteps writes the premium chain of one coverage
func RenderSteps(w io.Writer, c types.CoverageType, calc types.CoverageCalculation) error {
	b := &box{w: w}
	b.rule("┌", "┐")
	b.center(coverageLabel(c) + " CALCULATION")
	b.rule("├", "┤")
	for _, s := range calc.Steps {
		b.step(fmt.Sprintf("%2d. %s", s.Step, s.Name), s.Factor.String(), s.Running.StringFixed(4))
	}
	b.rule("├", "┤")
	b.row("PREMIUM", money(calc.Premium))
	b.rule("└", "┘")
	return b.err
}

// RenderWarning writes one warning line
func RenderWarning(w io.Writer, warn types.Warning) {
	if warn.Coverage != "" {
		fmt.Fprintf(w, "  [%s/%s] %s\n", warn.Component, warn.Coverage, warn.Message)
		return
	}
	fmt.Fprintf(w, "  [%s] %s\n", warn.Component, warn.Message)
}

func coverageLabel(c types.CoverageType) string {
	switch c {
	case types.CoverageBIPD:
		return "BIPD  Bodily Injury / Property Damage"
	case types.CoverageCOLL:
		return "COLL  Collision"
	case types.CoverageCOMP:
		return "COMP  Comprehensive"
	case types.CoverageMPC:
		return "MPC   Medical Payments"
	case types.CoverageUM:
		return "UM    Uninsured Motorist"
	default:
		return string(c)
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// box writes fixed-width table rows and keeps the first write error
type box struct {
	w   io.Writer
	err error
}

func (b *box) printf(format string, args ...interface{}) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
}

func (b *box) rule(left, right string) {
	b.printf("%s%s%s\n", left, strings.Repeat("─", boxWidth), right)
}

func (b *box) center(title string) {
	pad := boxWidth - len(title)
	if pad < 0 {
		pad = 0
	}
	b.printf("│%s%s%s│\n", strings.Repeat(" ", pad/2), title, strings.Repeat(" ", pad-pad/2))
}

func (b *box) row(label, value string) {
	b.printf("│ %-50s %20s │\n", truncate(label, 50), truncate(value, 20))
}

func (b *box) step(label, factor, running string) {
	b.printf("│ %-40s %14s %15s │\n", truncate(label, 40), truncate(factor, 14), truncate(running, 15))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

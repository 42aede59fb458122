package output

import (
	"fmt"
	"io"

	"auto-rating/core/safety"
	"auto-rating/core/types"
)

// RenderDriverAdjustments writes the per-driver factors of every coverage
func RenderDriverAdjustments(w io.Writer, adjustments map[types.CoverageType]types.DriverAdjustment) error {
	b := &box{w: w}
	for _, c := range types.AllCoverages {
		adj, ok := adjustments[c]
		if !ok {
			continue
		}
		b.rule("┌", "┐")
		b.center(coverageLabel(c) + " DRIVERS")
		b.rule("├", "┤")
		for _, f := range adj.Drivers {
			b.row("driver "+f.DriverID, fmt.Sprintf("level %d", f.SafetyRecordLevel))
			b.row("  base", f.BaseFactor.String())
			b.row("  years licensed", f.YearsLicensedFactor.String())
			b.row("  percentage use", f.PercentageUseFactor.String())
			b.row("  safety record", f.SafetyRecordFactor.String())
			b.row("  single automobile", f.SingleAutoFactor.String())
			b.row("  annual mileage", f.AnnualMileageFactor.String())
			b.row("  usage type", f.UsageTypeFactor.String())
			b.row("  combined", f.CombinedFactor.StringFixed(6))
		}
		b.rule("├", "┤")
		b.row("DRIVER ADJUSTMENT FACTOR", adj.Factor.StringFixed(6))
		b.rule("└", "┘")
	}
	return b.err
}

// SafetyDriver is the view of one driver's safety record
type SafetyDriver struct {
	DriverID   string
	Details    types.SafetyRecordDetails
	Projection []safety.Projection
}

// RenderSafetyRecord writes one driver's scored violations and projection
func RenderSafetyRecord(w io.Writer, d SafetyDriver) error {
	b := &box{w: w}
	b.rule("┌", "┐")
	b.center("SAFETY RECORD " + d.DriverID)
	b.rule("├", "┤")
	for _, v := range d.Details.Violations {
		label := fmt.Sprintf("%s %s (%d pts / %d yrs)", v.Date, v.Type, v.PointsAdded, v.DecayYears)
		b.row(label, v.CurrentPoints.StringFixed(3))
	}
	if len(d.Details.Violations) == 0 {
		b.row("no violations", "0")
	}
	b.rule("├", "┤")
	b.row("TOTAL POINTS", d.Details.TotalPoints.StringFixed(3))
	b.row("SAFETY RECORD LEVEL", fmt.Sprint(d.Details.Level))
	b.rule("└", "┘")

	if len(d.Projection) > 0 {
		b.printf("\n%-6s %-12s %10s %6s\n", "YEAR", "DATE", "POINTS", "LEVEL")
		for _, p := range d.Projection {
			b.printf("%-6d %-12s %10s %6d\n", p.YearsAhead, p.Date, p.Points.StringFixed(3), p.Level)
		}
	}
	return b.err
}

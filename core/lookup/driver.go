package lookup

import (
	"fmt"
	"strconv"
	"strings"

	"auto-rating/core/safety"
	"auto-rating/core/tables"
	"auto-rating/core/types"
)

// DriverFactorLookup resolves the seven per-driver factors
type DriverFactorLookup struct {
	tables tables.RatingTables
	scorer *safety.Scorer
}

// NewDriverFactorLookup creates a driver lookup over t
func NewDriverFactorLookup(t tables.RatingTables) *DriverFactorLookup {
	return &DriverFactorLookup{tables: t, scorer: safety.NewScorer(t)}
}

// Scorer returns the safety record scorer reading the same tables
func (l *DriverFactorLookup) Scorer() *safety.Scorer {
	return l.scorer
}

// RatedDriver is a driver with its safety level resolved as of the rating date
type RatedDriver struct {
	Driver types.Driver
	Safety safety.Resolution
}

// Prepare resolves the safety level of every driver once per calculation
func (l *DriverFactorLookup) Prepare(drivers []types.Driver, asOf types.Date, diag *types.Diagnostics) []RatedDriver {
	out := make([]RatedDriver, len(drivers))
	for i, d := range drivers {
		out[i] = RatedDriver{Driver: d, Safety: l.scorer.Resolve(d, asOf, diag)}
	}
	return out
}

// UsageContext is the policy-level input shared by every driver
type UsageContext struct {
	Usage  types.Usage
	Single bool
}

// Factors resolves one driver's factors for coverage c
func (l *DriverFactorLookup) Factors(c types.CoverageType, rd RatedDriver, u UsageContext, diag *types.Diagnostics) types.DriverFactors {
	d := rd.Driver
	marital := types.MaritalStatus(strings.ToUpper(strings.TrimSpace(d.MaritalStatus)))

	base, ok := l.tables.DriverBaseFactor(c, d.Age, marital)
	baseFactor := orNeutral(base, ok, diag, "driver_base", c, driverBaseKey(d.Age, marital))

	yl, ok := l.tables.YearsLicensedFactor(c, d.YearsLicensed, d.IsAssigned())
	yearsLicensed := orNeutral(yl, ok, diag, "years_licensed", c, fmt.Sprintf("%d years", d.YearsLicensed))

	pu, ok := l.tables.PercentageUseFactor(c, d.Percentage(), d.IsAssigned())
	pctUse := orNeutral(pu, ok, diag, "percentage_use", c, strconv.FormatFloat(d.Percentage(), 'f', -1, 64)+"%")

	sr, ok := l.tables.SafetyRecordFactor(c, rd.Safety.Level)
	safetyRecord := orNeutral(sr, ok, diag, "safety_record", c, "level "+strconv.Itoa(rd.Safety.Level))

	sa, ok := l.tables.SingleAutoFactor(c, u.Single)
	singleAuto := orNeutral(sa, ok, diag, "single_auto", c, strconv.FormatBool(u.Single))

	mf, ok := l.tables.MileageFactor(c, u.Usage.AnnualMileage)
	mileage := orNeutral(mf, ok, diag, "annual_mileage", c, strconv.Itoa(u.Usage.AnnualMileage)+" miles")

	ut, ok := l.tables.UsageTypeFactor(c, u.Usage.UsageType())
	usageType := orNeutral(ut, ok, diag, "usage_type", c, string(u.Usage.UsageType()))

	f := types.DriverFactors{
		DriverID:              d.ID,
		BaseFactor:            baseFactor,
		YearsLicensedFactor:   yearsLicensed,
		PercentageUseFactor:   pctUse,
		SafetyRecordFactor:    safetyRecord,
		SingleAutoFactor:      singleAuto,
		AnnualMileageFactor:   mileage,
		UsageTypeFactor:       usageType,
		SafetyRecordLevel:     rd.Safety.Level,
		SafetyLevelCalculated: rd.Safety.Calculated,
		SafetyRecord:          rd.Safety.Details,
	}
	f.CombinedFactor = f.ExcludingSingleAuto().Mul(f.SingleAutoFactor)
	return f
}

func driverBaseKey(age *int, marital types.MaritalStatus) string {
	if age == nil {
		return "age ANY"
	}
	return fmt.Sprintf("age %d %s", *age, marital)
}

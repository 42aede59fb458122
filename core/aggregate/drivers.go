// Package aggregate - Factor aggregation and the premium chain
// Aggregators combine resolved factors; they never read tables themselves
// except through the lookups they are given.
package aggregate

import (
	"auto-rating/core/lookup"
	"auto-rating/core/types"
)

// DriverAdjustmentAggregator combines per-driver factors into one factor per coverage
type DriverAdjustmentAggregator struct {
	drivers *lookup.DriverFactorLookup
}

// NewDriverAdjustmentAggregator creates an aggregator over a driver lookup
func NewDriverAdjustmentAggregator(drivers *lookup.DriverFactorLookup) *DriverAdjustmentAggregator {
	return &DriverAdjustmentAggregator{drivers: drivers}
}

// Aggregate resolves every driver for coverage c and multiplies the combined factors.
// Percentage use enters only through each driver's percentage-use factor; the
// combined factors themselves are not weighted.
func (a *DriverAdjustmentAggregator) Aggregate(c types.CoverageType, drivers []lookup.RatedDriver, u lookup.UsageContext, diag *types.Diagnostics) types.DriverAdjustment {
	out := types.DriverAdjustment{
		Drivers:             make([]types.DriverFactors, 0, len(drivers)),
		Factor:              lookup.Neutral,
		ExcludingSingleAuto: lookup.Neutral,
		SingleAuto:          lookup.Neutral,
	}
	for _, rd := range drivers {
		f := a.drivers.Factors(c, rd, u, diag)
		out.Drivers = append(out.Drivers, f)
		out.Factor = out.Factor.Mul(f.CombinedFactor)
		out.ExcludingSingleAuto = out.ExcludingSingleAuto.Mul(f.ExcludingSingleAuto())
		out.SingleAuto = out.SingleAuto.Mul(f.SingleAutoFactor)
	}
	return out
}

package engine

import (
	"github.com/shopspring/decimal"

	"auto-rating/core/aggregate"
	"auto-rating/core/lookup"
	"auto-rating/core/tables"
	"auto-rating/core/types"
)

// pipeline binds every lookup to one table snapshot.
// It lives for a single request so all stages read the same tables.
type pipeline struct {
	tables tables.RatingTables

	base      *lookup.BaseRateLookup
	vehicle   *lookup.VehicleFactorLookup
	drivers   *lookup.DriverFactorLookup
	coverages *lookup.CoverageFactorLookup
	discounts *lookup.DiscountLookup

	driverAgg *aggregate.DriverAdjustmentAggregator
	chain     *aggregate.CoverageCalculationAggregator
}

func newPipeline(t tables.RatingTables) *pipeline {
	drivers := lookup.NewDriverFactorLookup(t)
	return &pipeline{
		tables:    t,
		base:      lookup.NewBaseRateLookup(t),
		vehicle:   lookup.NewVehicleFactorLookup(t),
		drivers:   drivers,
		coverages: lookup.NewCoverageFactorLookup(t),
		discounts: lookup.NewDiscountLookup(t),
		driverAgg: aggregate.NewDriverAdjustmentAggregator(drivers),
		chain:     aggregate.NewCoverageCalculationAggregator(),
	}
}

// policyContext holds the values resolved once per policy
type policyContext struct {
	input   *types.RatingInput
	diag    *types.Diagnostics
	drivers []lookup.RatedDriver
	usage   lookup.UsageContext
	match   types.VehicleMatch
}

func (p *pipeline) policy(in *types.RatingInput, asOf types.Date, diag *types.Diagnostics) *policyContext {
	return &policyContext{
		input:   in,
		diag:    diag,
		drivers: p.drivers.Prepare(in.Drivers, asOf, diag),
		usage:   usageContext(in),
		match:   p.vehicle.RatingGroup(in.Vehicle, diag),
	}
}

func usageContext(in *types.RatingInput) lookup.UsageContext {
	return lookup.UsageContext{Usage: in.Usage, Single: in.SingleAutomobile()}
}

// coverageRating is every resolved value of one coverage
type coverageRating struct {
	Coverage    types.CoverageType
	Base        types.BaseFactors
	Vehicle     types.VehicleFactors
	Drivers     types.DriverAdjustment
	Factor      types.CoverageFactor
	Discounts   types.DiscountFactors
	Calculation types.CoverageCalculation
}

// driverAdjustment resolves only the driver stage of coverage c
func (p *pipeline) driverAdjustment(pc *policyContext, c types.CoverageType) types.DriverAdjustment {
	return p.driverAgg.Aggregate(c, pc.drivers, pc.usage, pc.diag)
}

// rate resolves every stage of coverage c and runs the premium chain
func (p *pipeline) rate(pc *policyContext, c types.CoverageType) coverageRating {
	in := pc.input
	coverages := []types.CoverageType{c}

	r := coverageRating{Coverage: c}
	r.Base = p.base.Resolve(in.ZipCode, coverages, pc.diag)[c]
	r.Vehicle = p.vehicle.Factors(in.Vehicle, pc.match.Group, coverages, pc.diag)[c]
	r.Drivers = p.driverAdjustment(pc, c)
	r.Factor = p.coverages.Factor(c, in.Coverages.Get(c), pc.match.Group, pc.diag)
	r.Discounts = p.discounts.Factors(c, in.Discounts, in.SpecialFactors, pc.diag)
	r.Calculation = p.chain.Calculate(aggregate.CoverageInputs{
		Base:      r.Base,
		Coverage:  r.Factor,
		Drivers:   r.Drivers,
		Vehicle:   r.Vehicle,
		Discounts: r.Discounts,
	})
	return r
}

// assemble builds the result tree from per-coverage ratings
func assemble(ratings []coverageRating, match types.VehicleMatch) (map[types.CoverageType]decimal.Decimal, types.Breakdowns) {
	premiums := make(map[types.CoverageType]decimal.Decimal, len(ratings))
	b := types.Breakdowns{
		BaseFactors:         make(map[types.CoverageType]types.BaseFactors, len(ratings)),
		DriverAdjustments:   make(map[types.CoverageType]types.DriverAdjustment, len(ratings)),
		VehicleFactors:      make(map[types.CoverageType]types.VehicleFactors, len(ratings)),
		VehicleRatingGroups: match,
		CoverageFactors:     make(map[types.CoverageType]types.CoverageFactor, len(ratings)),
		DiscountFactors:     make(map[types.CoverageType]types.DiscountFactors, len(ratings)),
		Calculations:        make(map[types.CoverageType]types.CoverageCalculation, len(ratings)),
	}
	for _, r := range ratings {
		premiums[r.Coverage] = r.Calculation.Premium
		b.BaseFactors[r.Coverage] = r.Base
		b.DriverAdjustments[r.Coverage] = r.Drivers
		b.VehicleFactors[r.Coverage] = r.Vehicle
		b.CoverageFactors[r.Coverage] = r.Factor
		b.DiscountFactors[r.Coverage] = r.Discounts
		b.Calculations[r.Coverage] = r.Calculation
	}
	return premiums, b
}

package aggregate

import (
	"github.com/shopspring/decimal"

	"auto-rating/core/determinism"
	"auto-rating/core/types"
)

// Step names of the premium chain, in order
const (
	StepBaseRate              = "base_rate"
	StepTerritory             = "territory_factor"
	StepCoverage              = "coverage_factor"
	StepDriverExclSingleAuto  = "driver_factor_excluding_single_auto"
	StepSingleAuto            = "single_auto_factor"
	StepVehicle               = "vehicle_combined_factor"
	StepLRG                   = "lrg_factor"
	StepLoyalty               = "loyalty_factor"
	StepFederalEmployee       = "federal_employee_factor"
	StepGoodDriver            = "good_driver_factor"
	StepTransportationFriends = "transportation_friends_factor"
	StepTransportationNetwork = "transportation_network_factor"
	StepMultiLine             = "multi_line_factor"
)

// CoverageInputs are the resolved factors of one coverage
type CoverageInputs struct {
	Base      types.BaseFactors
	Coverage  types.CoverageFactor
	Drivers   types.DriverAdjustment
	Vehicle   types.VehicleFactors
	Discounts types.DiscountFactors
}

// CoverageCalculationAggregator runs the thirteen-step premium chain
type CoverageCalculationAggregator struct{}

// NewCoverageCalculationAggregator creates a chain aggregator
func NewCoverageCalculationAggregator() *CoverageCalculationAggregator {
	return &CoverageCalculationAggregator{}
}

// Calculate multiplies the factors in chain order.
// Running totals keep full precision; only the premium is rounded to cents.
func (a *CoverageCalculationAggregator) Calculate(in CoverageInputs) types.CoverageCalculation {
	factors := []struct {
		name   string
		factor decimal.Decimal
	}{
		{StepTerritory, in.Base.TerritoryFactor},
		{StepCoverage, in.Coverage.Factor},
		{StepDriverExclSingleAuto, in.Drivers.ExcludingSingleAuto},
		{StepSingleAuto, in.Drivers.SingleAuto},
		{StepVehicle, in.Vehicle.CombinedFactor},
		{StepLRG, in.Vehicle.LRGFactor},
		{StepLoyalty, in.Discounts.Loyalty},
		{StepFederalEmployee, in.Discounts.FederalEmployee},
		{StepGoodDriver, in.Discounts.GoodDriver},
		{StepTransportationFriends, in.Discounts.TransportationFriends},
		{StepTransportationNetwork, in.Discounts.TransportationNetwork},
		{StepMultiLine, in.Discounts.MultiLine},
	}

	running := in.Base.BaseRate
	steps := make([]types.CalculationStep, 0, len(factors)+1)
	steps = append(steps, types.CalculationStep{Step: 1, Name: StepBaseRate, Factor: running, Running: running})
	for i, f := range factors {
		running = running.Mul(f.factor)
		steps = append(steps, types.CalculationStep{Step: i + 2, Name: f.name, Factor: f.factor, Running: running})
	}

	return types.CoverageCalculation{
		Steps:   steps,
		Premium: determinism.RoundMoney(running),
	}
}

// Total sums rounded coverage premiums
func Total(premiums map[types.CoverageType]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range types.AllCoverages {
		if p, ok := premiums[c]; ok {
			total = total.Add(p)
		}
	}
	return determinism.RoundMoney(total)
}

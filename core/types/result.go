// Package types - Premium result and breakdown tree
package types

import "github.com/shopspring/decimal"

// PremiumResult is the outcome of one premium calculation.
// Premiums and TotalPremium are rounded to cents; every factor keeps full precision.
type PremiumResult struct {
	Premiums     map[CoverageType]decimal.Decimal `json:"premiums"`
	TotalPremium decimal.Decimal                  `json:"total_premium"`
	Breakdowns   Breakdowns                       `json:"breakdowns"`
	Metadata     ResultMetadata                   `json:"metadata"`
	Warnings     []Warning                        `json:"warnings,omitempty"`
}

// Breakdowns mirrors every intermediate value of the rating pipeline
type Breakdowns struct {
	BaseFactors         map[CoverageType]BaseFactors         `json:"base_factors"`
	DriverAdjustments   map[CoverageType]DriverAdjustment    `json:"driver_adjustment_factors"`
	VehicleFactors      map[CoverageType]VehicleFactors      `json:"vehicle_factors"`
	VehicleRatingGroups VehicleMatch                         `json:"vehicle_rating_groups"`
	CoverageFactors     map[CoverageType]CoverageFactor      `json:"coverage_factors"`
	DiscountFactors     map[CoverageType]DiscountFactors     `json:"discount_factors"`
	Calculations        map[CoverageType]CoverageCalculation `json:"calculations"`
}

// ResultMetadata identifies who rated the quote and with which tables
type ResultMetadata struct {
	Carrier       string `json:"carrier"`
	State         string `json:"state"`
	Engine        string `json:"engine"`
	QuoteID       string `json:"quote_id"`
	RatingDate    Date   `json:"rating_date"`
	TablesVersion string `json:"tables_version"`
}

// Warning records a non-fatal lookup miss
type Warning struct {
	Component string       `json:"component"`
	Coverage  CoverageType `json:"coverage,omitempty"`
	Message   string       `json:"message"`
}

// BaseFactors is the territory-adjusted base rate of a coverage
type BaseFactors struct {
	BaseRate        decimal.Decimal `json:"base_rate"`
	TerritoryFactor decimal.Decimal `json:"territory_factor"`
	TerritorialRate decimal.Decimal `json:"territorial_rate"`
}

// VehicleRatingGroup is the DRG/GRG/VSD/LRG classification of a vehicle
type VehicleRatingGroup struct {
	DRG int    `json:"drg"`
	GRG int    `json:"grg"`
	VSD string `json:"vsd"`
	LRG int    `json:"lrg"`
}

// MatchTier names the vehicle resolution tier that produced a rating group
type MatchTier string

const (
	MatchExact   MatchTier = "exact"
	MatchRelaxed MatchTier = "relaxed"
	MatchMSRP    MatchTier = "msrp_bracket"
	MatchDefault MatchTier = "default"
)

// VehicleMatch is a resolved rating group plus the audit trail of how it was found
type VehicleMatch struct {
	Group VehicleRatingGroup `json:"group"`
	Tier  MatchTier          `json:"tier"`

	// Dropped lists the optional fields ignored by a relaxed match, in drop order
	Dropped []string `json:"dropped,omitempty"`

	// Key is the matched vehicle key or MSRP bracket
	Key string `json:"key,omitempty"`
}

// VehicleFactors holds the vehicle factors of one coverage.
// CombinedFactor is the model-year factor; the LRG factor is a separate step.
type VehicleFactors struct {
	ModelYearFactor decimal.Decimal `json:"model_year_factor"`
	LRGFactor       decimal.Decimal `json:"lrg_factor"`
	CombinedFactor  decimal.Decimal `json:"combined_factor"`
}

// DriverFactors holds the seven sub-factors of one driver for one coverage
type DriverFactors struct {
	DriverID            string          `json:"driver_id"`
	BaseFactor          decimal.Decimal `json:"base_factor"`
	YearsLicensedFactor decimal.Decimal `json:"years_licensed_factor"`
	PercentageUseFactor decimal.Decimal `json:"percentage_use_factor"`
	SafetyRecordFactor  decimal.Decimal `json:"safety_record_factor"`
	SingleAutoFactor    decimal.Decimal `json:"single_auto_factor"`
	AnnualMileageFactor decimal.Decimal `json:"annual_mileage_factor"`
	UsageTypeFactor     decimal.Decimal `json:"usage_type_factor"`
	CombinedFactor      decimal.Decimal `json:"driver_combined_factor"`

	SafetyRecordLevel     int                  `json:"safety_record_level"`
	SafetyLevelCalculated bool                 `json:"safety_level_calculated"`
	SafetyRecord          *SafetyRecordDetails `json:"safety_record,omitempty"`
}

// ExcludingSingleAuto is the driver's combined factor without the single-auto factor
func (f DriverFactors) ExcludingSingleAuto() decimal.Decimal {
	return f.BaseFactor.
		Mul(f.YearsLicensedFactor).
		Mul(f.PercentageUseFactor).
		Mul(f.SafetyRecordFactor).
		Mul(f.AnnualMileageFactor).
		Mul(f.UsageTypeFactor)
}

// DriverAdjustment combines all drivers for one coverage.
// Per-driver combined factors are multiplied together, not weighted by percentage use.
type DriverAdjustment struct {
	Drivers []DriverFactors `json:"drivers"`

	// Factor is the product of every driver's combined factor
	Factor decimal.Decimal `json:"driver_adjustment_factor"`

	// ExcludingSingleAuto and SingleAuto split Factor into chain steps 4 and 5
	ExcludingSingleAuto decimal.Decimal `json:"excluding_single_auto"`
	SingleAuto          decimal.Decimal `json:"single_auto"`
}

// CoverageFactor is the limit or deductible factor of one coverage
type CoverageFactor struct {
	Factor            decimal.Decimal            `json:"factor"`
	LimitOrDeductible string                     `json:"limit_or_deductible,omitempty"`
	RatingGroup       *int                       `json:"rating_group,omitempty"`
	Components        map[string]decimal.Decimal `json:"components,omitempty"`
}

// DiscountFactors holds the six discount and surcharge factors of one coverage
type DiscountFactors struct {
	Loyalty               decimal.Decimal `json:"loyalty"`
	FederalEmployee       decimal.Decimal `json:"federal_employee"`
	GoodDriver            decimal.Decimal `json:"good_driver"`
	TransportationFriends decimal.Decimal `json:"transportation_friends"`
	TransportationNetwork decimal.Decimal `json:"transportation_network"`
	MultiLine             decimal.Decimal `json:"multi_line"`
	Combined              decimal.Decimal `json:"combined_factor"`
}

// CalculationStep is one multiplication of the premium chain
type CalculationStep struct {
	Step    int             `json:"step"`
	Name    string          `json:"name"`
	Factor  decimal.Decimal `json:"factor"`
	Running decimal.Decimal `json:"running_total"`
}

// CoverageCalculation is the full chain of one coverage
type CoverageCalculation struct {
	Steps   []CalculationStep `json:"steps"`
	Premium decimal.Decimal   `json:"premium"`
}

// SafetyRecordDetails explains a calculated safety record level
type SafetyRecordDetails struct {
	AssessmentDate Date             `json:"assessment_date"`
	TotalPoints    decimal.Decimal  `json:"total_violation_points"`
	Level          int              `json:"final_safety_level"`
	Clean          bool             `json:"clean_record"`
	Violations     []ViolationScore `json:"violations"`
}

// ViolationScore is the decayed contribution of one violation
type ViolationScore struct {
	Type          ViolationType   `json:"violation_type"`
	Date          Date            `json:"violation_date"`
	ElapsedYears  decimal.Decimal `json:"years_since"`
	PointsAdded   int             `json:"points_added"`
	BasePoints    int             `json:"base_points"`
	DecayYears    int             `json:"decay_period"`
	CurrentPoints decimal.Decimal `json:"current_points"`
	FullyRemoved  bool            `json:"fully_removed"`
}

// Diagnostics collects warnings during one calculation.
// It is created per request and never shared.
type Diagnostics struct {
	warnings []Warning
}

// Warn records a warning
func (d *Diagnostics) Warn(component string, coverage CoverageType, message string) {
	if d == nil {
		return
	}
	d.warnings = append(d.warnings, Warning{Component: component, Coverage: coverage, Message: message})
}

// Warnings returns the recorded warnings in order
func (d *Diagnostics) Warnings() []Warning {
	if d == nil {
		return nil
	}
	return d.warnings
}

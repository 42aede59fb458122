// Package tables - Immutable rating tables
// A Set is built once from CSV data and never mutated afterwards.
// Reloads build a new Set and swap it through a Holder.
package tables

import (
	"github.com/shopspring/decimal"

	"auto-rating/core/types"
)

// RatingTables is the read-only lookup capability consumed by the rating pipeline.
// Every lookup is pure and returns ok=false when the key is not in the table.
type RatingTables interface {
	// BaseRate returns the base rate of a coverage
	BaseRate(c types.CoverageType) (decimal.Decimal, bool)

	// TerritoryFactor returns the ZIP territory factor of a coverage
	TerritoryFactor(zip string, c types.CoverageType) (decimal.Decimal, bool)

	// FindVehicles returns vehicle records matching a query, sorted by key
	FindVehicles(q VehicleQuery) []VehicleRecord

	// MSRPRatingGroup returns the rating group of the MSRP bracket containing msrp
	MSRPRatingGroup(msrp float64) (MSRPBracket, bool)

	// DefaultRatingGroup is the factor-neutral rating group
	DefaultRatingGroup() types.VehicleRatingGroup

	ModelYearFactor(c types.CoverageType, year int) (decimal.Decimal, bool)
	LRGFactor(c types.CoverageType, lrg int) (decimal.Decimal, bool)

	// DriverBaseFactor is keyed by age band and marital status; a nil age uses the ANY row
	DriverBaseFactor(c types.CoverageType, age *int, marital types.MaritalStatus) (decimal.Decimal, bool)
	YearsLicensedFactor(c types.CoverageType, years int, assigned bool) (decimal.Decimal, bool)
	PercentageUseFactor(c types.CoverageType, pct float64, assigned bool) (decimal.Decimal, bool)
	SafetyRecordFactor(c types.CoverageType, level int) (decimal.Decimal, bool)
	MileageFactor(c types.CoverageType, miles int) (decimal.Decimal, bool)
	UsageTypeFactor(c types.CoverageType, u types.UsageType) (decimal.Decimal, bool)
	SingleAutoFactor(c types.CoverageType, single bool) (decimal.Decimal, bool)

	// ViolationRule returns the scoring schedule of a violation type
	ViolationRule(t types.ViolationType) (ViolationRule, bool)

	// SafetyLevel maps aggregate decayed points to a rate level
	SafetyLevel(points decimal.Decimal) int

	// LimitsFactor returns the factor of a limit key in one of the limit tables
	LimitsFactor(table LimitTable, key string) (decimal.Decimal, bool)

	// DeductibleFactor returns the deductible factor of a rating group.
	// COLL reads the DRG table and COMP the GRG table.
	DeductibleFactor(c types.CoverageType, group, deductible int) (decimal.Decimal, bool)

	// LoyaltyFactor returns the tenure band factor
	LoyaltyFactor(c types.CoverageType, years int) (decimal.Decimal, bool)

	// DiscountFactor returns a fixed discount or surcharge factor
	DiscountFactor(kind DiscountKind, c types.CoverageType) (decimal.Decimal, bool)

	// Version is the content hash of the loaded CSV data
	Version() string
}

// Source supplies the current table snapshot
type Source interface {
	Current() RatingTables
}

// VehicleQuery selects vehicle records. Wildcard fields match any value;
// every other field must equal the record after normalization.
type VehicleQuery struct {
	Year    int
	Make    string
	Model   string
	Series  string
	Package string
	Style   string
	Engine  string

	Wildcards map[VehicleField]bool
}

// VehicleField names an optional vehicle attribute
type VehicleField string

const (
	FieldSeries  VehicleField = "series"
	FieldPackage VehicleField = "package"
	FieldStyle   VehicleField = "style"
	FieldEngine  VehicleField = "engine"
)

// VehicleRecord is one row of the vehicle rating group database
type VehicleRecord struct {
	Year    int     `json:"year"`
	Make    string  `json:"make"`
	Model   string  `json:"model"`
	Series  string  `json:"series"`
	Package string  `json:"package"`
	Style   string  `json:"style"`
	Engine  string  `json:"engine"`
	MSRP    float64 `json:"msrp,omitempty"`

	Group types.VehicleRatingGroup `json:"rating_group"`
}

// Key returns the normalized lookup key of the record
func (r VehicleRecord) Key() string {
	return vehicleKey(r.Year, r.Make, r.Model, r.Series, r.Package, r.Style, r.Engine)
}

// MSRPBracket is one row of the MSRP fallback table
type MSRPBracket struct {
	Min   float64
	Max   float64
	Group types.VehicleRatingGroup
}

// ViolationRule is the base points and linear decay period of a violation type
type ViolationRule struct {
	BasePoints int
	DecayYears int
}

// LimitTable names a coverage limit table
type LimitTable string

const (
	LimitBI  LimitTable = "bi"
	LimitPD  LimitTable = "pd"
	LimitUM  LimitTable = "um"
	LimitMPC LimitTable = "mpc"
)

// DiscountKind names a fixed-factor discount row
type DiscountKind string

const (
	DiscountGoodDriver            DiscountKind = "good_driver"
	DiscountFederalEmployee       DiscountKind = "federal_employee"
	DiscountTransportationFriends DiscountKind = "transportation_friends"
	DiscountTransportationNetwork DiscountKind = "transportation_network"
)

// MultiLineDiscount returns the discount row of a multi-line kind
func MultiLineDiscount(k types.MultiLineKind) DiscountKind {
	return DiscountKind("multi_line_" + string(k))
}

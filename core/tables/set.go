package tables

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"auto-rating/core/types"
)

// coverageFactors is one row of a table with a column per coverage
type coverageFactors map[types.CoverageType]decimal.Decimal

// bandTable resolves a value to the row with the highest lower bound not above it
type bandTable struct {
	mins []int
	rows []coverageFactors
}

func (b *bandTable) add(min int, row coverageFactors) {
	i := sort.SearchInts(b.mins, min)
	b.mins = append(b.mins, 0)
	b.rows = append(b.rows, nil)
	copy(b.mins[i+1:], b.mins[i:])
	copy(b.rows[i+1:], b.rows[i:])
	b.mins[i] = min
	b.rows[i] = row
}

func (b *bandTable) lookup(v int) (coverageFactors, bool) {
	if b == nil {
		return nil, false
	}
	i := sort.Search(len(b.mins), func(i int) bool { return b.mins[i] > v }) - 1
	if i < 0 {
		return nil, false
	}
	return b.rows[i], true
}

type safetyBand struct {
	minPoints decimal.Decimal
	level     int
}

type deductibleTable struct {
	factors     map[int]map[int]decimal.Decimal
	deductibles []int
}

// Set is an immutable, fully loaded set of rating tables.
// All fields are written by Load and only read afterwards.
type Set struct {
	baseRates     coverageFactors
	territory     map[string]coverageFactors
	vehicles      []VehicleRecord
	vehicleIndex  map[string]int
	msrpBrackets  []MSRPBracket
	modelYear     *bandTable
	lrg           map[int]coverageFactors
	driverBase    map[types.MaritalStatus]*bandTable
	driverAny     coverageFactors
	yearsLicensed map[bool]*bandTable
	percentageUse map[string]coverageFactors
	safetyFactors map[int]coverageFactors
	safetyBands   []safetyBand
	violations    map[types.ViolationType]ViolationRule
	singleAuto    map[bool]coverageFactors
	mileage       *bandTable
	usage         map[types.UsageType]coverageFactors
	limits        map[LimitTable]map[string]decimal.Decimal
	limitOrder    map[LimitTable][]string
	deductibles   map[types.CoverageType]*deductibleTable
	loyalty       *bandTable
	discounts     map[DiscountKind]coverageFactors

	raw     map[string]FactorTable
	version string
}

var _ RatingTables = (*Set)(nil)

// defaultRatingGroup is factor-neutral: LRG 10 is 1.0 and group 10 at a 500 deductible is 1.0
var defaultRatingGroup = types.VehicleRatingGroup{DRG: 10, GRG: 10, VSD: "10", LRG: 10}

func (f coverageFactors) get(c types.CoverageType) (decimal.Decimal, bool) {
	v, ok := f[c]
	return v, ok
}

// BaseRate returns the base rate of a coverage
func (s *Set) BaseRate(c types.CoverageType) (decimal.Decimal, bool) {
	return s.baseRates.get(c)
}

// TerritoryFactor returns the ZIP territory factor of a coverage
func (s *Set) TerritoryFactor(zip string, c types.CoverageType) (decimal.Decimal, bool) {
	row, ok := s.territory[strings.TrimSpace(zip)]
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// FindVehicles returns matching records sorted by key
func (s *Set) FindVehicles(q VehicleQuery) []VehicleRecord {
	if len(q.Wildcards) == 0 {
		key := vehicleKey(q.Year, q.Make, q.Model, q.Series, q.Package, q.Style, q.Engine)
		if i, ok := s.vehicleIndex[key]; ok {
			return []VehicleRecord{s.vehicles[i]}
		}
		return nil
	}

	var out []VehicleRecord
	for _, r := range s.vehicles {
		if r.Year != q.Year || normalize(r.Make) != normalize(q.Make) || normalize(r.Model) != normalize(q.Model) {
			continue
		}
		if !fieldMatches(q, FieldSeries, r.Series, q.Series) ||
			!fieldMatches(q, FieldPackage, r.Package, q.Package) ||
			!fieldMatches(q, FieldStyle, r.Style, q.Style) ||
			!fieldMatches(q, FieldEngine, r.Engine, q.Engine) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func fieldMatches(q VehicleQuery, f VehicleField, have, want string) bool {
	return q.Wildcards[f] || normalize(have) == normalize(want)
}

// MSRPRatingGroup returns the bracket with Min <= msrp < Max
func (s *Set) MSRPRatingGroup(msrp float64) (MSRPBracket, bool) {
	for _, b := range s.msrpBrackets {
		if msrp >= b.Min && msrp < b.Max {
			return b, true
		}
	}
	return MSRPBracket{}, false
}

// DefaultRatingGroup returns the neutral rating group
func (s *Set) DefaultRatingGroup() types.VehicleRatingGroup {
	return defaultRatingGroup
}

// ModelYearFactor returns the factor of the highest model-year band not above year
func (s *Set) ModelYearFactor(c types.CoverageType, year int) (decimal.Decimal, bool) {
	row, ok := s.modelYear.lookup(year)
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// LRGFactor returns the loss rating group factor
func (s *Set) LRGFactor(c types.CoverageType, lrg int) (decimal.Decimal, bool) {
	row, ok := s.lrg[lrg]
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// DriverBaseFactor returns the age/marital-status factor
func (s *Set) DriverBaseFactor(c types.CoverageType, age *int, marital types.MaritalStatus) (decimal.Decimal, bool) {
	if age == nil {
		return s.driverAny.get(c)
	}
	if marital == "" {
		marital = types.MaritalSingle
	}
	row, ok := s.driverBase[types.MaritalStatus(strings.ToUpper(string(marital)))].lookup(*age)
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// YearsLicensedFactor returns the years-licensed factor.
// Unassigned drivers have a single band starting at zero.
func (s *Set) YearsLicensedFactor(c types.CoverageType, years int, assigned bool) (decimal.Decimal, bool) {
	row, ok := s.yearsLicensed[assigned].lookup(years)
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// Percentage-use rows
const (
	assignedSole   = "assigned_sole"
	assignedShared = "assigned_shared"
	unassigned     = "unassigned"
)

// PercentageUseFactor returns the percentage-use factor.
// An assigned driver at 100% is the sole driver; below 100% the vehicle is shared.
func (s *Set) PercentageUseFactor(c types.CoverageType, pct float64, assigned bool) (decimal.Decimal, bool) {
	key := unassigned
	switch {
	case assigned && pct >= 100:
		key = assignedSole
	case assigned:
		key = assignedShared
	}
	row, ok := s.percentageUse[key]
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// SafetyRecordFactor returns the factor of a safety record level
func (s *Set) SafetyRecordFactor(c types.CoverageType, level int) (decimal.Decimal, bool) {
	row, ok := s.safetyFactors[level]
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// SafetyLevel maps points to the level of the highest band not above them.
// Points below every band map to the neutral level.
func (s *Set) SafetyLevel(points decimal.Decimal) int {
	level := types.NeutralSafety
	for _, b := range s.safetyBands {
		if b.minPoints.GreaterThan(points) {
			break
		}
		level = b.level
	}
	return level
}

// ViolationRule returns the scoring schedule of a violation type
func (s *Set) ViolationRule(t types.ViolationType) (ViolationRule, bool) {
	r, ok := s.violations[t]
	return r, ok
}

// MileageFactor returns the factor of the highest mileage band not above miles
func (s *Set) MileageFactor(c types.CoverageType, miles int) (decimal.Decimal, bool) {
	row, ok := s.mileage.lookup(miles)
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// UsageTypeFactor returns the usage type factor
func (s *Set) UsageTypeFactor(c types.CoverageType, u types.UsageType) (decimal.Decimal, bool) {
	row, ok := s.usage[u]
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// SingleAutoFactor returns the single-automobile factor
func (s *Set) SingleAutoFactor(c types.CoverageType, single bool) (decimal.Decimal, bool) {
	row, ok := s.singleAuto[single]
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// LimitsFactor returns a limit factor
func (s *Set) LimitsFactor(table LimitTable, key string) (decimal.Decimal, bool) {
	v, ok := s.limits[table][normalizeLimit(key)]
	return v, ok
}

// DeductibleFactor returns the factor for a rating group and deductible
func (s *Set) DeductibleFactor(c types.CoverageType, group, deductible int) (decimal.Decimal, bool) {
	t, ok := s.deductibles[c]
	if !ok {
		return decimal.Decimal{}, false
	}
	v, ok := t.factors[group][deductible]
	return v, ok
}

// LoyaltyFactor returns the factor of the highest tenure band not above years
func (s *Set) LoyaltyFactor(c types.CoverageType, years int) (decimal.Decimal, bool) {
	row, ok := s.loyalty.lookup(years)
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// DiscountFactor returns a fixed discount factor
func (s *Set) DiscountFactor(kind DiscountKind, c types.CoverageType) (decimal.Decimal, bool) {
	row, ok := s.discounts[kind]
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.get(c)
}

// Version returns the content hash of the CSV data
func (s *Set) Version() string {
	return s.version
}

// normalize upper-cases and strips all whitespace
func normalize(v string) string {
	return strings.Join(strings.Fields(strings.ToUpper(v)), "")
}

func normalizeLimit(v string) string {
	return strings.Join(strings.Fields(v), "")
}

func vehicleKey(year int, fields ...string) string {
	parts := make([]string, 0, len(fields)+1)
	parts = append(parts, fmt.Sprint(year))
	for _, f := range fields {
		parts = append(parts, normalize(f))
	}
	return strings.Join(parts, "|")
}

// Package types defines core domain types shared across all layers.
// This package contains NO rating logic - only type definitions and input validation.
package types

import (
	"strings"
	"time"
)

// CoverageType identifies a rated coverage
type CoverageType string

const (
	CoverageBIPD CoverageType = "BIPD" // Bodily injury and property damage liability
	CoverageCOLL CoverageType = "COLL" // Collision
	CoverageCOMP CoverageType = "COMP" // Comprehensive
	CoverageMPC  CoverageType = "MPC"  // Medical payments
	CoverageUM   CoverageType = "UM"   // Uninsured motorist
)

// AllCoverages lists every coverage in rating order.
// Breakdowns and premiums are always emitted in this order.
var AllCoverages = []CoverageType{
	CoverageBIPD,
	CoverageCOLL,
	CoverageCOMP,
	CoverageMPC,
	CoverageUM,
}

// String returns the string representation of the coverage
func (c CoverageType) String() string {
	return string(c)
}

// IsValid checks if the coverage is a known coverage
func (c CoverageType) IsValid() bool {
	switch c {
	case CoverageBIPD, CoverageCOLL, CoverageCOMP, CoverageMPC, CoverageUM:
		return true
	default:
		return false
	}
}

// ParseCoverage parses a coverage code case-insensitively.
// The legacy table code "U" is accepted for UM.
func ParseCoverage(s string) (CoverageType, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "U" {
		return CoverageUM, true
	}
	c := CoverageType(code)
	return c, c.IsValid()
}

// ViolationType is the closed set of safety-record events
type ViolationType string

const (
	ViolationChargeableAccident   ViolationType = "chargeable-accident"
	ViolationMinorMovingViolation ViolationType = "minor-moving-violation"
	ViolationMajorViolation       ViolationType = "major-violation"
)

// legacyViolationTypes maps spellings used by older quoting front-ends
var legacyViolationTypes = map[string]ViolationType{
	"chargable accident":     ViolationChargeableAccident,
	"chargeable accident":    ViolationChargeableAccident,
	"minor moving voilation": ViolationMinorMovingViolation,
	"minor moving violation": ViolationMinorMovingViolation,
	"major violation":        ViolationMajorViolation,
}

// ParseViolationType normalizes a violation type
func ParseViolationType(s string) (ViolationType, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch ViolationType(v) {
	case ViolationChargeableAccident, ViolationMinorMovingViolation, ViolationMajorViolation:
		return ViolationType(v), true
	}
	if t, ok := legacyViolationTypes[v]; ok {
		return t, true
	}
	return "", false
}

// UsageType is the declared use of the vehicle
type UsageType string

const (
	UsagePleasure UsageType = "Pleasure / Work / School"
	UsageBusiness UsageType = "Business"
	UsageFarm     UsageType = "Farm"
)

// ParseUsageType normalizes a usage type. Empty means pleasure use.
func ParseUsageType(s string) (UsageType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pleasure / work / school", "pleasure", "pleasure/work/school":
		return UsagePleasure, true
	case "business":
		return UsageBusiness, true
	case "farm":
		return UsageFarm, true
	default:
		return "", false
	}
}

// MultiLineKind is the kind of additional policy held with the carrier
type MultiLineKind string

const (
	MultiLineNone  MultiLineKind = "none"
	MultiLineHome  MultiLineKind = "home"
	MultiLineLife  MultiLineKind = "life"
	MultiLineOther MultiLineKind = "other"
)

// ParseMultiLineKind normalizes a multi-line discount type. Empty means none.
func ParseMultiLineKind(s string) (MultiLineKind, bool) {
	switch k := MultiLineKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return MultiLineNone, true
	case MultiLineNone, MultiLineHome, MultiLineLife, MultiLineOther:
		return k, true
	default:
		return "", false
	}
}

// MaritalStatus is S or M
type MaritalStatus string

const (
	MaritalSingle  MaritalStatus = "S"
	MaritalMarried MaritalStatus = "M"
)

// Date is a calendar date encoded as YYYY-MM-DD
type Date struct {
	time.Time
}

// DateLayout is the wire layout for dates
const DateLayout = "2006-01-02"

// NewDate truncates t to its calendar date in UTC
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

// MustParseDate parses a date or panics. Intended for tests and literals.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the YYYY-MM-DD form
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

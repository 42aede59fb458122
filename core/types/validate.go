package types

import (
	"fmt"
	"regexp"
	"strings"

	"auto-rating/internal/errors"
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// Validation bounds
const (
	MinVehicleYear   = 1980
	MaxYearsLicensed = 80
	MinDriverAge     = 16
	MaxDriverAge     = 100
	MaxSafetyLevel   = 30
	NeutralSafety    = 8
)

// ValidateOptions carries deployment context for validation
type ValidateOptions struct {
	// State is the configured deployment state; empty disables the check
	State string

	// RatingDate bounds violation dates and the vehicle year
	RatingDate Date
}

// Validate checks the input before any lookup runs.
// It reports every offending field at once as an *errors.ValidationError.
func (r *RatingInput) Validate(opts ValidateOptions) error {
	v := &errors.ValidationError{}

	if opts.State != "" && r.State != "" && !strings.EqualFold(r.State, opts.State) {
		v.Addf("state", "this deployment rates %s only", opts.State)
	}
	if !zipPattern.MatchString(r.ZipCode) {
		v.Add("zip_code", "must be a 5-digit ZIP code")
	}

	r.validateVehicle(v, opts.RatingDate)
	r.validateCoverages(v)

	if len(r.Drivers) == 0 {
		v.Add("drivers", "at least one driver is required")
	}
	for i, d := range r.Drivers {
		validateDriver(v, fmt.Sprintf("drivers[%d]", i), d, opts.RatingDate)
	}

	if r.Usage.AnnualMileage < 0 {
		v.Add("usage.annual_mileage", "must not be negative")
	}
	if _, ok := ParseUsageType(r.Usage.Type); !ok {
		v.Addf("usage.type", "unknown usage type %q", r.Usage.Type)
	}
	if _, ok := ParseMultiLineKind(r.Discounts.MultiLine); !ok {
		v.Addf("discounts.multi_line", "unknown multi-line type %q", r.Discounts.MultiLine)
	}
	if r.Discounts.LoyaltyYears < 0 {
		v.Add("discounts.loyalty_years", "must not be negative")
	}
	if r.VehicleCount != nil && *r.VehicleCount < 1 {
		v.Add("vehicle_count", "must be at least 1")
	}

	return v.ErrOrNil()
}

func (r *RatingInput) validateVehicle(v *errors.ValidationError, ratingDate Date) {
	maxYear := ratingDate.Year() + 1
	if ratingDate.IsZero() {
		maxYear = 9999
	}
	if r.Vehicle.Year < MinVehicleYear || r.Vehicle.Year > maxYear {
		v.Addf("vehicle.year", "must be between %d and %d", MinVehicleYear, maxYear)
	}
	if strings.TrimSpace(r.Vehicle.Make) == "" {
		v.Add("vehicle.make", "is required")
	}
	if strings.TrimSpace(r.Vehicle.Model) == "" {
		v.Add("vehicle.model", "is required")
	}
	if r.Vehicle.MSRP != nil && *r.Vehicle.MSRP <= 0 {
		v.Add("vehicle.msrp", "must be positive")
	}
}

func (r *RatingInput) validateCoverages(v *errors.ValidationError) {
	if len(r.Coverages.Selected()) == 0 {
		v.Add("coverages", "at least one coverage must be selected")
	}
	for _, t := range AllCoverages {
		c := r.Coverages.Get(t)
		if c == nil {
			continue
		}
		if c.Deductible != nil && *c.Deductible <= 0 {
			v.Add("coverages."+string(t)+".deductible", "must be positive")
		}
	}
}

func validateDriver(v *errors.ValidationError, path string, d Driver, ratingDate Date) {
	if d.YearsLicensed < 0 || d.YearsLicensed > MaxYearsLicensed {
		v.Addf(path+".years_licensed", "must be between 0 and %d", MaxYearsLicensed)
	}
	if d.Age != nil && (*d.Age < MinDriverAge || *d.Age > MaxDriverAge) {
		v.Addf(path+".age", "must be between %d and %d", MinDriverAge, MaxDriverAge)
	}
	if d.MaritalStatus != "" {
		switch MaritalStatus(strings.ToUpper(d.MaritalStatus)) {
		case MaritalSingle, MaritalMarried:
		default:
			v.Addf(path+".marital_status", "must be S or M, got %q", d.MaritalStatus)
		}
	}
	if p := d.Percentage(); p < 0 || p > 100 {
		v.Add(path+".percentage_use", "must be between 0 and 100")
	}
	if d.SafetyRecordLevel != nil && (*d.SafetyRecordLevel < 0 || *d.SafetyRecordLevel > MaxSafetyLevel) {
		v.Addf(path+".safety_record_level", "must be between 0 and %d", MaxSafetyLevel)
	}

	for j, viol := range d.Violations {
		vp := fmt.Sprintf("%s.violations[%d]", path, j)
		if _, ok := ParseViolationType(viol.Type); !ok {
			v.Addf(vp+".type", "unknown violation type %q", viol.Type)
		}
		if viol.Date.IsZero() {
			v.Add(vp+".date", "is required")
		} else if !ratingDate.IsZero() && viol.Date.After(ratingDate.Time) {
			v.Addf(vp+".date", "must not be after the rating date %s", ratingDate)
		}
		if viol.PointsAdded < 0 {
			v.Add(vp+".points_added", "must not be negative")
		}
	}
}

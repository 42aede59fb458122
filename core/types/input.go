// Package types - Rating input document
package types

// RatingInput is the complete request for one premium calculation
type RatingInput struct {
	Carrier        string         `json:"carrier"`
	State          string         `json:"state"`
	ZipCode        string         `json:"zip_code"`
	Vehicle        Vehicle        `json:"vehicle"`
	Coverages      Coverages      `json:"coverages"`
	Drivers        []Driver       `json:"drivers"`
	Usage          Usage          `json:"usage"`
	Discounts      Discounts      `json:"discounts"`
	SpecialFactors SpecialFactors `json:"special_factors"`

	// VehicleCount is the number of vehicles on the policy.
	// It decides single_automobile when usage does not state it.
	VehicleCount *int `json:"vehicle_count,omitempty"`

	// RatingDate is the evaluation date for violation decay.
	// When nil the engine clock supplies today's date.
	RatingDate *Date `json:"rating_date,omitempty"`
}

// Vehicle describes the rated vehicle
type Vehicle struct {
	Year    int      `json:"year"`
	Make    string   `json:"make"`
	Model   string   `json:"model"`
	Series  string   `json:"series,omitempty"`
	Package string   `json:"package,omitempty"`
	Style   string   `json:"style,omitempty"`
	Engine  string   `json:"engine,omitempty"`
	MSRP    *float64 `json:"msrp,omitempty"`
}

// Coverage is one requested coverage.
// A nil Selected means the coverage is selected.
type Coverage struct {
	Selected   *bool  `json:"selected,omitempty"`
	Limits     string `json:"limits,omitempty"`
	Deductible *int   `json:"deductible,omitempty"`
}

// IsSelected reports whether the coverage should be rated
func (c *Coverage) IsSelected() bool {
	if c == nil {
		return false
	}
	return c.Selected == nil || *c.Selected
}

// Coverages holds the optional coverages of a policy
type Coverages struct {
	BIPD *Coverage `json:"BIPD,omitempty"`
	COLL *Coverage `json:"COLL,omitempty"`
	COMP *Coverage `json:"COMP,omitempty"`
	MPC  *Coverage `json:"MPC,omitempty"`
	UM   *Coverage `json:"UM,omitempty"`
}

// Get returns the coverage entry for a coverage type, nil if absent
func (c Coverages) Get(t CoverageType) *Coverage {
	switch t {
	case CoverageBIPD:
		return c.BIPD
	case CoverageCOLL:
		return c.COLL
	case CoverageCOMP:
		return c.COMP
	case CoverageMPC:
		return c.MPC
	case CoverageUM:
		return c.UM
	default:
		return nil
	}
}

// Selected returns the selected coverages in rating order
func (c Coverages) Selected() []CoverageType {
	var out []CoverageType
	for _, t := range AllCoverages {
		if c.Get(t).IsSelected() {
			out = append(out, t)
		}
	}
	return out
}

// Driver is a listed driver on the policy
type Driver struct {
	ID                string      `json:"driver_id"`
	YearsLicensed     int         `json:"years_licensed"`
	SafetyRecordLevel *int        `json:"safety_record_level,omitempty"`
	PercentageUse     *float64    `json:"percentage_use,omitempty"`
	AssignedDriver    *bool       `json:"assigned_driver,omitempty"`
	Age               *int        `json:"age,omitempty"`
	MaritalStatus     string      `json:"marital_status,omitempty"`
	Violations        []Violation `json:"violations,omitempty"`
}

// Percentage returns percentage_use, defaulting to 100
func (d Driver) Percentage() float64 {
	if d.PercentageUse == nil {
		return 100
	}
	return *d.PercentageUse
}

// IsAssigned returns assigned_driver, defaulting to true
func (d Driver) IsAssigned() bool {
	return d.AssignedDriver == nil || *d.AssignedDriver
}

// Violation is a recorded accident or moving violation
type Violation struct {
	Type        string `json:"type"`
	Date        Date   `json:"date"`
	PointsAdded int    `json:"points_added"`
}

// Usage describes how the vehicle is driven
type Usage struct {
	AnnualMileage    int    `json:"annual_mileage"`
	Type             string `json:"type,omitempty"`
	SingleAutomobile *bool  `json:"single_automobile,omitempty"`
}

// UsageType returns the parsed usage type; invalid values fall back to pleasure use
// and are rejected earlier by validation.
func (u Usage) UsageType() UsageType {
	t, ok := ParseUsageType(u.Type)
	if !ok {
		return UsagePleasure
	}
	return t
}

// Discounts lists discount eligibility
type Discounts struct {
	GoodDriver   bool   `json:"good_driver"`
	MultiLine    string `json:"multi_line,omitempty"`
	LoyaltyYears int    `json:"loyalty_years"`

	// Accepted on the request but not rated by the current plan
	CarSafetyRating              string `json:"car_safety_rating,omitempty"`
	GoodStudent                  bool   `json:"good_student,omitempty"`
	InexperiencedDriverEducation bool   `json:"inexperienced_driver_education,omitempty"`
	MatureDriverCourse           bool   `json:"mature_driver_course,omitempty"`
	StudentAwayAtSchool          bool   `json:"student_away_at_school,omitempty"`
}

// MultiLineKind returns the parsed multi-line kind
func (d Discounts) MultiLineKind() MultiLineKind {
	k, ok := ParseMultiLineKind(d.MultiLine)
	if !ok {
		return MultiLineNone
	}
	return k
}

// SpecialFactors lists surcharge/discount flags outside the discount plan
type SpecialFactors struct {
	FederalEmployee              bool `json:"federal_employee"`
	TransportationNetworkCompany bool `json:"transportation_network_company"`
	TransportationOfFriends      bool `json:"transportation_of_friends"`
}

// SingleAutomobile resolves the single-automobile flag.
// An explicit usage flag wins; otherwise a policy with one vehicle is single.
func (r *RatingInput) SingleAutomobile() bool {
	if r.Usage.SingleAutomobile != nil {
		return *r.Usage.SingleAutomobile
	}
	return r.VehicleCount == nil || *r.VehicleCount == 1
}

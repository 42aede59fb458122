package types

import (
	"testing"

	json "github.com/goccy/go-json"

	"auto-rating/internal/errors"
)

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func validInput() *RatingInput {
	return &RatingInput{
		Carrier: "Mercury",
		State:   "CA",
		ZipCode: "90210",
		Vehicle: Vehicle{Year: 2020, Make: "TOYOTA", Model: "CAMRY", Series: "LE"},
		Coverages: Coverages{
			BIPD: &Coverage{Selected: boolPtr(true), Limits: "15/30/5"},
		},
		Drivers: []Driver{{ID: "d1", YearsLicensed: 10, Age: intPtr(35), MaritalStatus: "M"}},
		Usage:   Usage{AnnualMileage: 12000, Type: "Pleasure / Work / School"},
	}
}

func TestParseViolationTypeAliases(t *testing.T) {
	tests := []struct {
		in   string
		want ViolationType
		ok   bool
	}{
		{"chargeable-accident", ViolationChargeableAccident, true},
		{"Chargable Accident", ViolationChargeableAccident, true},
		{"Minor Moving Voilation", ViolationMinorMovingViolation, true},
		{"MAJOR-VIOLATION", ViolationMajorViolation, true},
		{"speeding", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseViolationType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseViolationType(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCoverageAcceptsLegacyUM(t *testing.T) {
	if c, ok := ParseCoverage("u"); !ok || c != CoverageUM {
		t.Errorf("ParseCoverage(u) = %s,%v", c, ok)
	}
	if _, ok := ParseCoverage("GAP"); ok {
		t.Error("GAP should not parse")
	}
}

func TestCoverageSelectionDefaults(t *testing.T) {
	c := Coverages{
		BIPD: &Coverage{},
		COLL: &Coverage{Selected: boolPtr(false)},
		UM:   &Coverage{Selected: boolPtr(true)},
	}
	got := c.Selected()
	if len(got) != 2 || got[0] != CoverageBIPD || got[1] != CoverageUM {
		t.Errorf("Selected() = %v", got)
	}
}

func TestSingleAutomobileResolution(t *testing.T) {
	in := validInput()
	if !in.SingleAutomobile() {
		t.Error("no flag and no vehicle count should be single")
	}
	in.VehicleCount = intPtr(2)
	if in.SingleAutomobile() {
		t.Error("two vehicles should not be single")
	}
	in.Usage.SingleAutomobile = boolPtr(true)
	if !in.SingleAutomobile() {
		t.Error("explicit flag should win")
	}
}

func TestDateJSON(t *testing.T) {
	var v Violation
	if err := json.Unmarshal([]byte(`{"type":"major-violation","date":"2022-03-15","points_added":2}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Date.String() != "2022-03-15" {
		t.Errorf("date = %s", v.Date)
	}
	out, err := json.Marshal(v.Date)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"2022-03-15"` {
		t.Errorf("marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"date":"15/03/2022"}`), &v); err == nil {
		t.Error("expected error for bad date layout")
	}
}

func TestValidateAcceptsValidInput(t *testing.T) {
	err := validInput().Validate(ValidateOptions{State: "CA", RatingDate: MustParseDate("2024-06-01")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	in := validInput()
	in.State = "NV"
	in.ZipCode = "9021"
	in.Usage.Type = "Racing"
	in.Drivers[0].Age = intPtr(12)
	in.Drivers[0].YearsLicensed = 90
	in.Drivers[0].Violations = []Violation{{Type: "speeding", Date: MustParseDate("2025-01-01")}}

	err := in.Validate(ValidateOptions{State: "CA", RatingDate: MustParseDate("2024-06-01")})
	verr, ok := errors.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}

	for _, field := range []string{
		"state",
		"zip_code",
		"usage.type",
		"drivers[0].age",
		"drivers[0].years_licensed",
		"drivers[0].violations[0].type",
		"drivers[0].violations[0].date",
	} {
		if !verr.HasField(field) {
			t.Errorf("missing field %s in %v", field, verr.Fields)
		}
	}
	if !errors.IsType(err, errors.TypeValidation) {
		t.Error("IsType should recognise validation errors")
	}
}

func TestValidateEmptyDrivers(t *testing.T) {
	in := validInput()
	in.Drivers = nil
	err := in.Validate(ValidateOptions{})
	verr, ok := errors.AsValidation(err)
	if !ok || !verr.HasField("drivers") {
		t.Fatalf("expected drivers error, got %v", err)
	}
}

func TestValidateVehicleBounds(t *testing.T) {
	in := validInput()
	in.Vehicle.Year = 2026
	in.Vehicle.MSRP = floatPtr(-1)
	err := in.Validate(ValidateOptions{RatingDate: MustParseDate("2024-06-01")})
	verr, ok := errors.AsValidation(err)
	if !ok || !verr.HasField("vehicle.year") || !verr.HasField("vehicle.msrp") {
		t.Fatalf("expected vehicle errors, got %v", err)
	}
}

func TestDiagnosticsNilSafe(t *testing.T) {
	var d *Diagnostics
	d.Warn("x", CoverageBIPD, "ignored")
	if d.Warnings() != nil {
		t.Error("nil diagnostics should have no warnings")
	}

	d = &Diagnostics{}
	d.Warn("territory", CoverageCOLL, "zip not found")
	if len(d.Warnings()) != 1 || d.Warnings()[0].Coverage != CoverageCOLL {
		t.Errorf("warnings = %+v", d.Warnings())
	}
}

func TestWithDefaultsFillsCoverageTerms(t *testing.T) {
	in := validInput()
	in.Vehicle.Make = "  toyota "
	in.Coverages = Coverages{
		BIPD: &Coverage{},
		COLL: &Coverage{},
		MPC:  &Coverage{Selected: boolPtr(false)},
	}

	out := in.WithDefaults()
	if out.Vehicle.Make != "TOYOTA" {
		t.Errorf("Make = %q, want TOYOTA", out.Vehicle.Make)
	}
	if out.Coverages.BIPD.Limits != DefaultBIPDLimits {
		t.Errorf("BIPD limits = %q", out.Coverages.BIPD.Limits)
	}
	if out.Coverages.COLL.Deductible == nil || *out.Coverages.COLL.Deductible != DefaultDeductible {
		t.Errorf("COLL deductible = %v", out.Coverages.COLL.Deductible)
	}
	if out.Coverages.MPC.Limits != "" {
		t.Errorf("unselected MPC got limits %q", out.Coverages.MPC.Limits)
	}
	if out.Coverages.COMP != nil || out.Coverages.UM != nil {
		t.Error("absent coverages must stay absent")
	}
	if in.Coverages.BIPD.Limits != "" || in.Vehicle.Make != "  toyota " {
		t.Error("WithDefaults modified its receiver")
	}
}

func TestWithDefaultsSelectsDefaultPackage(t *testing.T) {
	in := validInput()
	in.Coverages = Coverages{}

	out := in.WithDefaults()
	if got := out.Coverages.Selected(); len(got) != len(AllCoverages) {
		t.Errorf("Selected() = %v, want every coverage", got)
	}
	if out.Coverages.UM.Limits != DefaultUMLimits || out.Coverages.MPC.Limits != DefaultMPCLimits {
		t.Errorf("UM/MPC limits = %q/%q", out.Coverages.UM.Limits, out.Coverages.MPC.Limits)
	}
}

package engine

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"auto-rating/core/aggregate"
	"auto-rating/core/determinism"
	"auto-rating/core/tables"
	"auto-rating/core/types"
	"auto-rating/internal/errors"
)

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testConfig = Config{Carrier: "Mercury", State: "CA", Engine: "auto-rating-go"}

func newEngine(t *testing.T) (*Engine, *tables.Holder) {
	t.Helper()
	set, err := tables.LoadBundled()
	if err != nil {
		t.Fatalf("LoadBundled failed: %v", err)
	}
	holder := tables.NewHolder(set)
	clock := determinism.FixedClock{At: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(holder, testConfig, WithClock(clock)), holder
}

func basicExample() *types.RatingInput {
	return &types.RatingInput{
		Carrier: "Mercury",
		State:   "CA",
		ZipCode: "90210",
		Vehicle: types.Vehicle{Year: 2020, Make: "TOYOTA", Model: "CAMRY", Series: "LE"},
		Coverages: types.Coverages{
			BIPD: &types.Coverage{Selected: boolPtr(true), Limits: "15/30/5"},
			COLL: &types.Coverage{Selected: boolPtr(true), Deductible: intPtr(500)},
			COMP: &types.Coverage{Selected: boolPtr(true), Deductible: intPtr(500)},
		},
		Drivers: []types.Driver{{
			ID:            "driver_1",
			YearsLicensed: 10,
			PercentageUse: floatPtr(100),
			Age:           intPtr(35),
			MaritalStatus: "M",
		}},
		Usage: types.Usage{
			AnnualMileage:    12000,
			Type:             "Pleasure / Work / School",
			SingleAutomobile: boolPtr(false),
		},
		Discounts: types.Discounts{GoodDriver: true, MultiLine: "home", LoyaltyYears: 5},
	}
}

func minimalExample() *types.RatingInput {
	return &types.RatingInput{
		State:     "CA",
		ZipCode:   "90210",
		Vehicle:   types.Vehicle{Year: 2020, Make: "TOYOTA", Model: "CAMRY", Series: "LE"},
		Coverages: types.Coverages{BIPD: &types.Coverage{Limits: "15/30/5"}},
		Drivers:   []types.Driver{{ID: "d1", YearsLicensed: 10, Age: intPtr(35), MaritalStatus: "M"}},
		Usage:     types.Usage{AnnualMileage: 12000},
	}
}

func TestBasicExample(t *testing.T) {
	e, _ := newEngine(t)

	res, err := e.CalculatePremium(context.Background(), basicExample())
	if err != nil {
		t.Fatalf("CalculatePremium failed: %v", err)
	}

	want := map[types.CoverageType]string{
		types.CoverageBIPD: "409.09",
		types.CoverageCOLL: "609.23",
		types.CoverageCOMP: "29.75",
	}
	if len(res.Premiums) != len(want) {
		t.Fatalf("got %d premiums, want %d: %v", len(res.Premiums), len(want), res.Premiums)
	}
	for c, w := range want {
		if !res.Premiums[c].Equal(d(w)) {
			t.Errorf("%s premium = %s, want %s", c, res.Premiums[c], w)
		}
		if res.Premiums[c].IsNegative() {
			t.Errorf("%s premium is negative", c)
		}
		if n := len(res.Breakdowns.Calculations[c].Steps); n != 13 {
			t.Errorf("%s has %d steps, want 13", c, n)
		}
	}
	if !res.TotalPremium.Equal(d("1048.07")) {
		t.Errorf("TotalPremium = %s, want 1048.07", res.TotalPremium)
	}

	if res.Breakdowns.VehicleRatingGroups.Tier != types.MatchRelaxed {
		t.Errorf("vehicle tier = %s, want relaxed", res.Breakdowns.VehicleRatingGroups.Tier)
	}
	if res.Breakdowns.VehicleRatingGroups.Group.DRG != 12 {
		t.Errorf("DRG = %d, want 12", res.Breakdowns.VehicleRatingGroups.Group.DRG)
	}
	if res.Metadata.Carrier != "Mercury" || res.Metadata.Engine != "auto-rating-go" {
		t.Errorf("metadata = %+v", res.Metadata)
	}
	if res.Metadata.RatingDate.String() != "2024-06-01" {
		t.Errorf("rating date = %s, want clock date", res.Metadata.RatingDate)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestMinimalExampleDiscountsAreNeutral(t *testing.T) {
	e, _ := newEngine(t)

	res, err := e.CalculatePremium(context.Background(), minimalExample())
	if err != nil {
		t.Fatalf("CalculatePremium failed: %v", err)
	}
	if len(res.Premiums) != 1 {
		t.Fatalf("premiums = %v, want BIPD only", res.Premiums)
	}

	df := res.Breakdowns.DiscountFactors[types.CoverageBIPD]
	for name, f := range map[string]decimal.Decimal{
		"loyalty":                df.Loyalty,
		"federal_employee":       df.FederalEmployee,
		"good_driver":            df.GoodDriver,
		"transportation_friends": df.TransportationFriends,
		"transportation_network": df.TransportationNetwork,
		"multi_line":             df.MultiLine,
	} {
		if !f.Equal(decimal.NewFromInt(1)) {
			t.Errorf("%s = %s, want 1", name, f)
		}
	}

	// one vehicle on the policy rates as a single automobile
	if !res.Premiums[types.CoverageBIPD].Equal(d("777.54")) {
		t.Errorf("BIPD premium = %s, want 777.54", res.Premiums[types.CoverageBIPD])
	}
}

func TestTotalEqualsSumOfPremiums(t *testing.T) {
	e, _ := newEngine(t)

	inputs := []*types.RatingInput{basicExample(), minimalExample()}
	full := basicExample()
	full.Coverages.MPC = &types.Coverage{Limits: "1000"}
	full.Coverages.UM = &types.Coverage{Limits: "30/60"}
	full.SpecialFactors = types.SpecialFactors{FederalEmployee: true, TransportationOfFriends: true}
	inputs = append(inputs, full)

	for i, in := range inputs {
		res, err := e.CalculatePremium(context.Background(), in)
		if err != nil {
			t.Fatalf("input %d: %v", i, err)
		}
		sum := decimal.Zero
		for _, p := range res.Premiums {
			sum = sum.Add(p)
		}
		if !sum.Equal(res.TotalPremium) {
			t.Errorf("input %d: sum %s != total %s", i, sum, res.TotalPremium)
		}
	}
}

func TestCalculatePremiumIsIdempotent(t *testing.T) {
	e, _ := newEngine(t)

	first, err := e.CalculatePremium(context.Background(), basicExample())
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.CalculatePremium(context.Background(), basicExample())
	if err != nil {
		t.Fatal(err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical input produced different output")
	}
	if first.Metadata.QuoteID == "" || first.Metadata.QuoteID != second.Metadata.QuoteID {
		t.Errorf("quote ids %q and %q", first.Metadata.QuoteID, second.Metadata.QuoteID)
	}

	other := basicExample()
	other.ZipCode = "90001"
	third, err := e.CalculatePremium(context.Background(), other)
	if err != nil {
		t.Fatal(err)
	}
	if third.Metadata.QuoteID == first.Metadata.QuoteID {
		t.Error("different input produced the same quote id")
	}
}

func TestUnselectedCoveragesAreExcluded(t *testing.T) {
	e, _ := newEngine(t)
	in := basicExample()
	in.Coverages.COLL.Selected = boolPtr(false)

	res, err := e.CalculatePremium(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Premiums[types.CoverageCOLL]; ok {
		t.Error("unselected COLL has a premium")
	}
	if _, ok := res.Breakdowns.Calculations[types.CoverageCOLL]; ok {
		t.Error("unselected COLL has a breakdown")
	}
	if !res.TotalPremium.Equal(aggregate.Total(res.Premiums)) {
		t.Errorf("TotalPremium = %s", res.TotalPremium)
	}
	if !res.TotalPremium.Equal(d("438.84")) {
		t.Errorf("TotalPremium = %s, want BIPD + COMP = 438.84", res.TotalPremium)
	}
}

func TestFactorMissesAreWarnings(t *testing.T) {
	e, _ := newEngine(t)
	in := basicExample()
	in.ZipCode = "00001"
	in.Vehicle = types.Vehicle{Year: 2020, Make: "ACME", Model: "ROADSTER"}

	res, err := e.CalculatePremium(context.Background(), in)
	if err != nil {
		t.Fatalf("lookup misses must not fail the calculation: %v", err)
	}
	if res.Breakdowns.VehicleRatingGroups.Tier != types.MatchDefault {
		t.Errorf("tier = %s, want default", res.Breakdowns.VehicleRatingGroups.Tier)
	}

	territory := 0
	for _, w := range res.Warnings {
		if w.Component == "territory" {
			territory++
		}
	}
	if territory != 3 {
		t.Errorf("got %d territory warnings, want one per coverage: %v", territory, res.Warnings)
	}
	if res.Warnings[0].Component != "vehicle" {
		t.Errorf("first warning = %+v, want the vehicle fallback", res.Warnings[0])
	}
}

func TestValidationRunsFirst(t *testing.T) {
	e, _ := newEngine(t)

	tests := []struct {
		name   string
		mutate func(*types.RatingInput)
		field  string
	}{
		{"bad zip", func(in *types.RatingInput) { in.ZipCode = "ABCDE" }, "zip_code"},
		{"no drivers", func(in *types.RatingInput) { in.Drivers = nil }, "drivers"},
		{"other state", func(in *types.RatingInput) { in.State = "NY" }, "state"},
		{"young driver", func(in *types.RatingInput) { in.Drivers[0].Age = intPtr(14) }, "drivers[0].age"},
		{"future violation", func(in *types.RatingInput) {
			in.Drivers[0].Violations = []types.Violation{{Type: "major-violation", Date: types.MustParseDate("2024-07-01")}}
		}, "drivers[0].violations[0].date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := basicExample()
			tt.mutate(in)
			_, err := e.CalculatePremium(context.Background(), in)
			verr, ok := errors.AsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !verr.HasField(tt.field) {
				t.Errorf("fields = %v, want %s", verr.Fields, tt.field)
			}
		})
	}

	if _, err := e.CalculatePremium(context.Background(), nil); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("nil input error = %v, want input error", err)
	}
}

func TestCanceledContext(t *testing.T) {
	e, _ := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.CalculatePremium(ctx, basicExample()); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestRatingDateDrivesViolationDecay(t *testing.T) {
	e, _ := newEngine(t)
	in := basicExample()
	in.Drivers[0].Violations = []types.Violation{{Type: "major-violation", Date: types.MustParseDate("2020-01-01")}}

	recent, err := e.CalculatePremium(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	later := types.MustParseDate("2028-01-01")
	in.RatingDate = &later
	decayed, err := e.CalculatePremium(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	lvl := func(r *types.PremiumResult) int {
		return r.Breakdowns.DriverAdjustments[types.CoverageBIPD].Drivers[0].SafetyRecordLevel
	}
	if lvl(recent) <= types.NeutralSafety {
		t.Errorf("recent major violation level = %d, want above neutral", lvl(recent))
	}
	if lvl(decayed) != types.NeutralSafety {
		t.Errorf("decayed level = %d, want neutral", lvl(decayed))
	}
	if decayed.Metadata.RatingDate.String() != "2028-01-01" {
		t.Errorf("rating date = %s", decayed.Metadata.RatingDate)
	}
}

func TestNarrowEntryPointsMatchFullCalculation(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	full, err := e.CalculatePremium(ctx, basicExample())
	if err != nil {
		t.Fatal(err)
	}

	drivers, err := e.DriverAdjustments(ctx, basicExample())
	if err != nil {
		t.Fatal(err)
	}
	for c, adj := range full.Breakdowns.DriverAdjustments {
		if !drivers.Adjustments[c].Factor.Equal(adj.Factor) {
			t.Errorf("%s driver factor %s != %s", c, drivers.Adjustments[c].Factor, adj.Factor)
		}
	}

	coll, err := e.CoverageBreakdown(ctx, types.CoverageCOLL, basicExample())
	if err != nil {
		t.Fatal(err)
	}
	if !coll.Calculation.Premium.Equal(full.Premiums[types.CoverageCOLL]) {
		t.Errorf("COLL breakdown premium %s != %s", coll.Calculation.Premium, full.Premiums[types.CoverageCOLL])
	}
	if coll.CoverageFactor.RatingGroup == nil || *coll.CoverageFactor.RatingGroup != 12 {
		t.Errorf("COLL rating group = %v", coll.CoverageFactor.RatingGroup)
	}

	if _, err := e.CoverageBreakdown(ctx, types.CoverageUM, basicExample()); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("unselected coverage error = %v, want not found", err)
	}
	if _, err := e.CoverageBreakdown(ctx, "GAP", basicExample()); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("unknown coverage error = %v, want input error", err)
	}
}

func TestSnapshotVersionInMetadata(t *testing.T) {
	e, holder := newEngine(t)
	ctx := context.Background()

	before, err := e.CalculatePremium(ctx, basicExample())
	if err != nil {
		t.Fatal(err)
	}
	if before.Metadata.TablesVersion != holder.Current().Version() {
		t.Errorf("TablesVersion = %s, want %s", before.Metadata.TablesVersion, holder.Current().Version())
	}

	if _, err := holder.Reload(""); err != nil {
		t.Fatal(err)
	}
	after, err := e.CalculatePremium(ctx, basicExample())
	if err != nil {
		t.Fatal(err)
	}
	if !after.TotalPremium.Equal(before.TotalPremium) || after.Metadata.TablesVersion != before.Metadata.TablesVersion {
		t.Error("reloading identical tables changed the result")
	}
}

func TestSafetyRecords(t *testing.T) {
	e, _ := newEngine(t)
	in := basicExample()
	in.Drivers[0].Violations = []types.Violation{{Type: "minor-moving-violation", Date: types.MustParseDate("2024-06-01")}}

	report, err := e.SafetyRecords(context.Background(), in, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Drivers) != 1 {
		t.Fatalf("got %d drivers", len(report.Drivers))
	}
	dr := report.Drivers[0]
	if dr.Level != 13 || !dr.Calculated {
		t.Errorf("level = %d calculated=%v, want 13", dr.Level, dr.Calculated)
	}
	if len(dr.Projection) != 7 {
		t.Fatalf("got %d projection years, want 7", len(dr.Projection))
	}
	if last := dr.Projection[6]; !last.Clean {
		t.Errorf("year 6 = %+v, want clean record", last)
	}
}

func TestNoPublishedTables(t *testing.T) {
	e := New(tables.NewHolder(nil), testConfig)

	_, err := e.CalculatePremium(context.Background(), basicExample())
	if !errors.IsType(err, errors.TypeRating) {
		t.Fatalf("err = %v, want %s", err, errors.TypeRating)
	}
}

func TestUnknownCoverageCarriesContext(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.CoverageBreakdown(context.Background(), types.CoverageType("XYZ"), basicExample())
	var typed *errors.Error
	if !stderrors.As(err, &typed) || typed.Type != errors.TypeInput {
		t.Fatalf("err = %v, want %s", err, errors.TypeInput)
	}
	if typed.Context["coverage"] != "XYZ" {
		t.Errorf("context = %v, want coverage XYZ", typed.Context)
	}
}

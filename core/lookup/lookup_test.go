package lookup

import (
	"io/fs"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"auto-rating/core/tables"
	"auto-rating/core/types"
	"auto-rating/internal/logging"
)

func mustTables(t *testing.T) *tables.Set {
	t.Helper()
	s, err := tables.LoadBundled()
	if err != nil {
		t.Fatalf("LoadBundled failed: %v", err)
	}
	return s
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func assertFactor(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func camry(engine string) types.Vehicle {
	return types.Vehicle{
		Year:   2020,
		Make:   "Toyota",
		Model:  "Camry",
		Series: "LE",
		Style:  "4DR SEDAN",
		Engine: engine,
	}
}

func TestBaseRateLookup(t *testing.T) {
	l := NewBaseRateLookup(mustTables(t))
	diag := &types.Diagnostics{}

	got := l.Resolve("90210", []types.CoverageType{types.CoverageBIPD, types.CoverageCOLL}, diag)
	if len(got) != 2 {
		t.Fatalf("got %d coverages, want 2", len(got))
	}
	assertFactor(t, "BIPD base rate", got[types.CoverageBIPD].BaseRate, "841.98")
	assertFactor(t, "BIPD territory", got[types.CoverageBIPD].TerritoryFactor, "0.896")
	assertFactor(t, "BIPD territorial rate", got[types.CoverageBIPD].TerritorialRate, "754.41408")
	if len(diag.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", diag.Warnings())
	}
}

func TestBaseRateUnknownZipIsNeutral(t *testing.T) {
	l := NewBaseRateLookup(mustTables(t))
	diag := &types.Diagnostics{}

	got := l.Resolve("00001", []types.CoverageType{types.CoverageCOMP}, diag)
	assertFactor(t, "territory", got[types.CoverageCOMP].TerritoryFactor, "1")
	assertFactor(t, "territorial rate", got[types.CoverageCOMP].TerritorialRate, "50")

	w := diag.Warnings()
	if len(w) != 1 || w[0].Component != "territory" || w[0].Coverage != types.CoverageCOMP {
		t.Errorf("warnings = %v, want one territory warning for COMP", w)
	}
}

func TestVehicleResolutionTiers(t *testing.T) {
	l := NewVehicleFactorLookup(mustTables(t))

	tests := []struct {
		name     string
		vehicle  types.Vehicle
		wantTier types.MatchTier
		wantDRG  int
		dropped  []string
	}{
		{"exact", camry("2.5L 4CYL"), types.MatchExact, 12, nil},
		{"exact hybrid", camry("2.5L HYBRID"), types.MatchExact, 13, nil},
		{"relaxed engine", camry("2.0L TURBO"), types.MatchRelaxed, 12, []string{"engine"}},
		{"relaxed style", types.Vehicle{Year: 2020, Make: "TOYOTA", Model: "CAMRY", Series: "XSE"}, types.MatchRelaxed, 15, []string{"engine", "style"}},
		{"msrp bracket", types.Vehicle{Year: 2020, Make: "ACME", Model: "ROADSTER", MSRP: floatPtr(30000)}, types.MatchMSRP, 12, nil},
		{"default", types.Vehicle{Year: 2020, Make: "ACME", Model: "ROADSTER"}, types.MatchDefault, 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diag := &types.Diagnostics{}
			m := l.RatingGroup(tt.vehicle, diag)
			if m.Tier != tt.wantTier {
				t.Errorf("Tier = %s, want %s", m.Tier, tt.wantTier)
			}
			if m.Group.DRG != tt.wantDRG {
				t.Errorf("DRG = %d, want %d", m.Group.DRG, tt.wantDRG)
			}
			if strings.Join(m.Dropped, ",") != strings.Join(tt.dropped, ",") {
				t.Errorf("Dropped = %v, want %v", m.Dropped, tt.dropped)
			}
			wantWarnings := 0
			if tt.wantTier == types.MatchDefault {
				wantWarnings = 1
			}
			if len(diag.Warnings()) != wantWarnings {
				t.Errorf("got %d warnings, want %d", len(diag.Warnings()), wantWarnings)
			}
		})
	}
}

// reversedVehicles loads the bundled tables with the vehicle rows in reverse order
func reversedVehicles(t *testing.T) *tables.Set {
	t.Helper()
	src := os.DirFS("../tables/data")
	mfs := fstest.MapFS{}
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		data, err := fs.ReadFile(src, e.Name())
		if err != nil {
			t.Fatal(err)
		}
		if e.Name() == "vehicle_rating_groups.csv" {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			rows := lines[1:]
			for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
				rows[i], rows[j] = rows[j], rows[i]
			}
			data = []byte(lines[0] + "\n" + strings.Join(rows, "\n") + "\n")
		}
		mfs[e.Name()] = &fstest.MapFile{Data: data}
	}
	s, err := tables.Load(mfs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func TestExactMatchWinsRegardlessOfTableOrder(t *testing.T) {
	for name, set := range map[string]*tables.Set{"bundled": mustTables(t), "reversed": reversedVehicles(t)} {
		t.Run(name, func(t *testing.T) {
			l := NewVehicleFactorLookup(set)
			m := l.RatingGroup(camry("2.5L HYBRID"), nil)
			if m.Tier != types.MatchExact || m.Group.LRG != 11 {
				t.Errorf("got %s match with LRG %d, want exact hybrid LRG 11", m.Tier, m.Group.LRG)
			}
		})
	}
}

func TestVehicleFactors(t *testing.T) {
	l := NewVehicleFactorLookup(mustTables(t))
	group := types.VehicleRatingGroup{DRG: 12, GRG: 10, VSD: "14", LRG: 8}

	got := l.Factors(types.Vehicle{Year: 2021}, group, []types.CoverageType{types.CoverageBIPD, types.CoverageCOLL}, nil)

	assertFactor(t, "BIPD model year", got[types.CoverageBIPD].ModelYearFactor, "1.012")
	assertFactor(t, "BIPD lrg", got[types.CoverageBIPD].LRGFactor, "0.93")
	assertFactor(t, "BIPD combined", got[types.CoverageBIPD].CombinedFactor, "1.012")
	assertFactor(t, "COLL model year", got[types.CoverageCOLL].ModelYearFactor, "1.035")
	assertFactor(t, "COLL lrg", got[types.CoverageCOLL].LRGFactor, "1")
}

func TestDriverFactors(t *testing.T) {
	set := mustTables(t)
	l := NewDriverFactorLookup(set)
	asOf := types.MustParseDate("2024-01-01")

	driver := types.Driver{ID: "d1", YearsLicensed: 10, Age: intPtr(35), MaritalStatus: "m", PercentageUse: floatPtr(100)}
	rated := l.Prepare([]types.Driver{driver}, asOf, nil)
	if len(rated) != 1 || rated[0].Safety.Level != types.NeutralSafety {
		t.Fatalf("Prepare = %+v, want one neutral driver", rated)
	}

	u := UsageContext{Usage: types.Usage{AnnualMileage: 12000}, Single: false}
	diag := &types.Diagnostics{}
	f := l.Factors(types.CoverageBIPD, rated[0], u, diag)

	assertFactor(t, "base", f.BaseFactor, "1")
	assertFactor(t, "years licensed", f.YearsLicensedFactor, "1")
	assertFactor(t, "percentage use", f.PercentageUseFactor, "0.817")
	assertFactor(t, "safety record", f.SafetyRecordFactor, "1")
	assertFactor(t, "single auto", f.SingleAutoFactor, "1")
	assertFactor(t, "annual mileage", f.AnnualMileageFactor, "1.002")
	assertFactor(t, "usage type", f.UsageTypeFactor, "1")
	assertFactor(t, "combined", f.CombinedFactor, "0.818634")
	if !f.SafetyLevelCalculated {
		t.Error("expected calculated safety level")
	}
	if len(diag.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", diag.Warnings())
	}
}

func TestDriverFactorsUnassignedSingleAuto(t *testing.T) {
	l := NewDriverFactorLookup(mustTables(t))
	assigned := false
	driver := types.Driver{ID: "d2", YearsLicensed: 3, AssignedDriver: &assigned, PercentageUse: floatPtr(20), SafetyRecordLevel: intPtr(10)}

	rated := l.Prepare([]types.Driver{driver}, types.MustParseDate("2024-01-01"), nil)
	f := l.Factors(types.CoverageCOLL, rated[0], UsageContext{Usage: types.Usage{AnnualMileage: 5000, Type: "Business"}, Single: true}, nil)

	assertFactor(t, "base (age ANY)", f.BaseFactor, "1")
	assertFactor(t, "years licensed", f.YearsLicensedFactor, "0.943")
	assertFactor(t, "percentage use", f.PercentageUseFactor, "0.749")
	assertFactor(t, "safety record", f.SafetyRecordFactor, "1.044")
	assertFactor(t, "single auto", f.SingleAutoFactor, "1.255")
	assertFactor(t, "annual mileage", f.AnnualMileageFactor, "0.803")
	assertFactor(t, "usage type", f.UsageTypeFactor, "0.918")
	if f.SafetyLevelCalculated || f.SafetyRecordLevel != 10 {
		t.Errorf("safety level = %d calculated=%v, want supplied 10", f.SafetyRecordLevel, f.SafetyLevelCalculated)
	}
	want := f.ExcludingSingleAuto().Mul(d("1.255"))
	if !f.CombinedFactor.Equal(want) {
		t.Errorf("combined = %s, want %s", f.CombinedFactor, want)
	}
}

func TestCoverageFactors(t *testing.T) {
	l := NewCoverageFactorLookup(mustTables(t))
	group := types.VehicleRatingGroup{DRG: 12, GRG: 10, VSD: "14", LRG: 10}

	tests := []struct {
		name     string
		coverage types.CoverageType
		cov      types.Coverage
		want     string
		warnings int
	}{
		{"bipd minimum", types.CoverageBIPD, types.Coverage{Limits: "15/30/5"}, "1", 0},
		{"bipd product", types.CoverageBIPD, types.Coverage{Limits: "100/300/50"}, "1.6016", 0},
		{"bipd unparseable", types.CoverageBIPD, types.Coverage{Limits: "full"}, "1", 2},
		{"bipd missing pd", types.CoverageBIPD, types.Coverage{Limits: "100/300"}, "1", 2},
		{"coll drg", types.CoverageCOLL, types.Coverage{Deductible: intPtr(500)}, "1.05", 0},
		{"coll low deductible", types.CoverageCOLL, types.Coverage{Deductible: intPtr(250)}, "1.134", 0},
		{"comp grg", types.CoverageCOMP, types.Coverage{Deductible: intPtr(1000)}, "0.87", 0},
		{"comp unknown deductible", types.CoverageCOMP, types.Coverage{Deductible: intPtr(750)}, "1", 1},
		{"comp no deductible", types.CoverageCOMP, types.Coverage{}, "1", 1},
		{"mpc formatted", types.CoverageMPC, types.Coverage{Limits: "$2,000"}, "1", 0},
		{"mpc plain", types.CoverageMPC, types.Coverage{Limits: "500"}, "0.72", 0},
		{"um two part", types.CoverageUM, types.Coverage{Limits: "25/50"}, "1.15", 0},
		{"um three part", types.CoverageUM, types.Coverage{Limits: "25/50/10"}, "1.15", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diag := &types.Diagnostics{}
			cov := tt.cov
			got := l.Factor(tt.coverage, &cov, group, diag)
			assertFactor(t, "factor", got.Factor, tt.want)
			if len(diag.Warnings()) != tt.warnings {
				t.Errorf("got %d warnings, want %d: %v", len(diag.Warnings()), tt.warnings, diag.Warnings())
			}
		})
	}
}

func TestCoverageFactorRecordsRatingGroup(t *testing.T) {
	l := NewCoverageFactorLookup(mustTables(t))
	group := types.VehicleRatingGroup{DRG: 12, GRG: 9, VSD: "14", LRG: 10}

	coll := l.Factor(types.CoverageCOLL, &types.Coverage{Deductible: intPtr(500)}, group, nil)
	comp := l.Factor(types.CoverageCOMP, &types.Coverage{Deductible: intPtr(500)}, group, nil)
	if coll.RatingGroup == nil || *coll.RatingGroup != 12 {
		t.Errorf("COLL rating group = %v, want DRG 12", coll.RatingGroup)
	}
	if comp.RatingGroup == nil || *comp.RatingGroup != 9 {
		t.Errorf("COMP rating group = %v, want GRG 9", comp.RatingGroup)
	}
	if coll.LimitOrDeductible != "500" {
		t.Errorf("LimitOrDeductible = %q", coll.LimitOrDeductible)
	}

	bipd := l.Factor(types.CoverageBIPD, &types.Coverage{Limits: "100/300/50"}, group, nil)
	assertFactor(t, "bi component", bipd.Components["bi_limits"], "1.43")
	assertFactor(t, "pd component", bipd.Components["pd_limits"], "1.12")
}

func TestSplitLimits(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"15/30/5", "15|30|5", true},
		{" 100 / 300 / 50 ", "100|300|50", true},
		{"$5,000", "5000", true},
		{"", "", false},
		{"15/thirty", "", false},
	}
	for _, tt := range tests {
		parts, ok := SplitLimits(tt.in)
		if ok != tt.ok || strings.Join(parts, "|") != tt.want {
			t.Errorf("SplitLimits(%q) = %v, %v; want %q, %v", tt.in, parts, ok, tt.want, tt.ok)
		}
	}
}

func TestDiscountFactors(t *testing.T) {
	l := NewDiscountLookup(mustTables(t))

	t.Run("basic example", func(t *testing.T) {
		got := l.Factors(types.CoverageBIPD, types.Discounts{GoodDriver: true, MultiLine: "home", LoyaltyYears: 5}, types.SpecialFactors{}, nil)
		assertFactor(t, "loyalty", got.Loyalty, "0.92")
		assertFactor(t, "good driver", got.GoodDriver, "0.8")
		assertFactor(t, "multi line", got.MultiLine, "0.9")
		assertFactor(t, "federal employee", got.FederalEmployee, "1")
		assertFactor(t, "combined", got.Combined, "0.6624")
	})

	t.Run("surcharges", func(t *testing.T) {
		sf := types.SpecialFactors{FederalEmployee: true, TransportationNetworkCompany: true, TransportationOfFriends: true}
		got := l.Factors(types.CoverageUM, types.Discounts{}, sf, nil)
		assertFactor(t, "federal employee", got.FederalEmployee, "0.7")
		assertFactor(t, "transportation friends", got.TransportationFriends, "1.2")
		assertFactor(t, "transportation network", got.TransportationNetwork, "1.15")
		assertFactor(t, "combined", got.Combined, "0.966")
	})

	t.Run("empty discounts are neutral", func(t *testing.T) {
		diag := &types.Diagnostics{}
		got := l.Factors(types.CoverageMPC, types.Discounts{}, types.SpecialFactors{}, diag)
		for name, f := range map[string]decimal.Decimal{
			"loyalty":                got.Loyalty,
			"federal employee":       got.FederalEmployee,
			"good driver":            got.GoodDriver,
			"transportation friends": got.TransportationFriends,
			"transportation network": got.TransportationNetwork,
			"multi line":             got.MultiLine,
			"combined":               got.Combined,
		} {
			assertFactor(t, name, f, "1")
		}
		if len(diag.Warnings()) != 0 {
			t.Errorf("unexpected warnings: %v", diag.Warnings())
		}
	})
}

func TestTerritoryMissIsLoggedAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logging.Replace(zap.New(core))()

	l := NewBaseRateLookup(mustTables(t))
	diag := &types.Diagnostics{}
	got := l.Resolve("00000", []types.CoverageType{types.CoverageBIPD}, diag)
	assertFactor(t, "territory", got[types.CoverageBIPD].TerritoryFactor, "1")

	entries := logs.FilterMessage("rating factor not found").AllUntimed()
	if len(entries) != 1 {
		t.Fatalf("got %d WARN entries, want 1: %v", len(entries), logs.AllUntimed())
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel {
		t.Errorf("level = %s, want warn", e.Level)
	}
	fields := e.ContextMap()
	want := map[string]string{"component": "territory", "coverage": "BIPD", "key": "zip 00000"}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("field %s = %v, want %q", k, fields[k], v)
		}
	}
	if len(diag.Warnings()) != 1 {
		t.Errorf("diagnostics = %v, want one warning", diag.Warnings())
	}
}

// Package safety - Time-decayed driver safety record scoring
// Each violation contributes points that decay linearly to zero over its
// type-specific decay period. The decayed sum maps to a rate level 0-30.
package safety

import (
	"go.uber.org/zap"

	"github.com/shopspring/decimal"

	"auto-rating/core/tables"
	"auto-rating/core/types"
	"auto-rating/internal/logging"
)

// daysPerYear converts elapsed days to fractional years
var daysPerYear = decimal.RequireFromString("365.25")

// Scorer computes safety record levels from violation history
type Scorer struct {
	tables tables.RatingTables
}

// NewScorer creates a scorer reading the violation schedule and level bands from t
func NewScorer(t tables.RatingTables) *Scorer {
	return &Scorer{tables: t}
}

// Resolution is the safety level used for rating one driver
type Resolution struct {
	Level      int
	Calculated bool

	// Details is set when the level was calculated
	Details *types.SafetyRecordDetails
}

// Resolve returns the driver's rating level.
// A supplied level is used as-is unless the driver also has violations,
// in which case the level is calculated.
func (s *Scorer) Resolve(d types.Driver, asOf types.Date, diag *types.Diagnostics) Resolution {
	if d.SafetyRecordLevel != nil && len(d.Violations) == 0 {
		return Resolution{Level: *d.SafetyRecordLevel}
	}
	details := s.Details(d, asOf, diag)
	return Resolution{Level: details.Level, Calculated: true, Details: &details}
}

// Level calculates the level from violations alone
func (s *Scorer) Level(d types.Driver, asOf types.Date) int {
	return s.Details(d, asOf, nil).Level
}

// Details scores every violation and returns the full breakdown
func (s *Scorer) Details(d types.Driver, asOf types.Date, diag *types.Diagnostics) types.SafetyRecordDetails {
	out := types.SafetyRecordDetails{
		AssessmentDate: asOf,
		TotalPoints:    decimal.Zero,
		Violations:     make([]types.ViolationScore, 0, len(d.Violations)),
	}

	for _, v := range d.Violations {
		score, ok := s.score(v, asOf)
		if !ok {
			logging.Warn("violation type not in schedule",
				zap.String("driver_id", d.ID),
				zap.String("violation_type", v.Type))
			diag.Warn("safety_record", "", "violation type "+v.Type+" not in schedule, ignored")
			continue
		}
		out.Violations = append(out.Violations, score)
		out.TotalPoints = out.TotalPoints.Add(score.CurrentPoints)
	}

	out.Level = s.tables.SafetyLevel(out.TotalPoints)
	out.Clean = out.TotalPoints.IsZero()
	return out
}

// score applies linear decay to one violation.
// contribution = points * max(0, 1 - elapsed/decay)
func (s *Scorer) score(v types.Violation, asOf types.Date) (types.ViolationScore, bool) {
	vt, ok := types.ParseViolationType(v.Type)
	if !ok {
		return types.ViolationScore{}, false
	}
	rule, ok := s.tables.ViolationRule(vt)
	if !ok {
		return types.ViolationScore{}, false
	}

	points := rule.BasePoints
	if v.PointsAdded > 0 {
		points = v.PointsAdded
	}

	elapsed := ElapsedYears(v.Date, asOf)
	remaining := decimal.NewFromInt(1).Sub(elapsed.Div(decimal.NewFromInt(int64(rule.DecayYears))))
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	if remaining.GreaterThan(decimal.NewFromInt(1)) {
		remaining = decimal.NewFromInt(1)
	}
	current := decimal.NewFromInt(int64(points)).Mul(remaining)

	return types.ViolationScore{
		Type:          vt,
		Date:          v.Date,
		ElapsedYears:  elapsed,
		PointsAdded:   points,
		BasePoints:    rule.BasePoints,
		DecayYears:    rule.DecayYears,
		CurrentPoints: current,
		FullyRemoved:  current.IsZero(),
	}, true
}

// ElapsedYears returns the fractional years from 'from' to 'to' on a 365.25-day year.
// Negative spans are clamped to zero.
func ElapsedYears(from, to types.Date) decimal.Decimal {
	days := int64(to.Sub(from.Time).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return decimal.NewFromInt(days).Div(daysPerYear)
}

// Projection is the expected safety record at a future date
type Projection struct {
	YearsAhead int             `json:"years_ahead"`
	Date       types.Date      `json:"date"`
	Points     decimal.Decimal `json:"violation_points"`
	Level      int             `json:"safety_level"`
	Clean      bool            `json:"clean_record"`
}

// Project simulates the record on each anniversary of 'from', from year 0 to years
func (s *Scorer) Project(d types.Driver, from types.Date, years int) []Projection {
	if years < 0 {
		years = 0
	}
	out := make([]Projection, 0, years+1)
	for i := 0; i <= years; i++ {
		at := types.NewDate(from.AddDate(i, 0, 0))
		details := s.Details(d, at, nil)
		out = append(out, Projection{
			YearsAhead: i,
			Date:       at,
			Points:     details.TotalPoints,
			Level:      details.Level,
			Clean:      details.Clean,
		})
	}
	return out
}

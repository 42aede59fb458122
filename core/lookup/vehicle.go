package lookup

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"auto-rating/core/tables"
	"auto-rating/core/types"
	"auto-rating/internal/logging"
)

// relaxOrder is the order optional vehicle fields are dropped in a relaxed match
var relaxOrder = []tables.VehicleField{
	tables.FieldEngine,
	tables.FieldStyle,
	tables.FieldPackage,
	tables.FieldSeries,
}

// VehicleFactorLookup resolves vehicle rating groups and vehicle factors
type VehicleFactorLookup struct {
	tables tables.RatingTables
}

// NewVehicleFactorLookup creates a vehicle lookup over t
func NewVehicleFactorLookup(t tables.RatingTables) *VehicleFactorLookup {
	return &VehicleFactorLookup{tables: t}
}

// tier is one step of the rating group resolution chain
type tier func(v types.Vehicle) (types.VehicleMatch, bool)

// RatingGroup resolves the vehicle rating group.
// Tiers run in order: exact, relaxed, MSRP bracket, default. The first match wins.
func (l *VehicleFactorLookup) RatingGroup(v types.Vehicle, diag *types.Diagnostics) types.VehicleMatch {
	for _, t := range []tier{l.exact, l.relaxed, l.msrp} {
		if m, ok := t(v); ok {
			logging.Debug("vehicle rating group resolved",
				zap.String("tier", string(m.Tier)),
				zap.String("key", m.Key))
			return m
		}
	}

	logging.Warn("vehicle not found, using default rating group",
		zap.Int("year", v.Year),
		zap.String("make", v.Make),
		zap.String("model", v.Model))
	diag.Warn("vehicle", "", fmt.Sprintf("no rating group for %d %s %s, using default", v.Year, v.Make, v.Model))
	return types.VehicleMatch{Group: l.tables.DefaultRatingGroup(), Tier: types.MatchDefault}
}

func (l *VehicleFactorLookup) exact(v types.Vehicle) (types.VehicleMatch, bool) {
	found := l.tables.FindVehicles(query(v, nil))
	if len(found) == 0 {
		return types.VehicleMatch{}, false
	}
	return types.VehicleMatch{Group: found[0].Group, Tier: types.MatchExact, Key: found[0].Key()}, true
}

// relaxed drops one more optional field per attempt, keeping earlier drops
func (l *VehicleFactorLookup) relaxed(v types.Vehicle) (types.VehicleMatch, bool) {
	wildcards := make(map[tables.VehicleField]bool, len(relaxOrder))
	var dropped []string
	for _, f := range relaxOrder {
		wildcards[f] = true
		dropped = append(dropped, string(f))

		found := l.tables.FindVehicles(query(v, wildcards))
		if len(found) == 0 {
			continue
		}
		return types.VehicleMatch{
			Group:   found[0].Group,
			Tier:    types.MatchRelaxed,
			Dropped: dropped,
			Key:     found[0].Key(),
		}, true
	}
	return types.VehicleMatch{}, false
}

func (l *VehicleFactorLookup) msrp(v types.Vehicle) (types.VehicleMatch, bool) {
	if v.MSRP == nil {
		return types.VehicleMatch{}, false
	}
	b, ok := l.tables.MSRPRatingGroup(*v.MSRP)
	if !ok {
		return types.VehicleMatch{}, false
	}
	return types.VehicleMatch{
		Group: b.Group,
		Tier:  types.MatchMSRP,
		Key:   fmt.Sprintf("msrp %s-%s", formatMoney(b.Min), formatMoney(b.Max)),
	}, true
}

func query(v types.Vehicle, wildcards map[tables.VehicleField]bool) tables.VehicleQuery {
	return tables.VehicleQuery{
		Year:      v.Year,
		Make:      v.Make,
		Model:     v.Model,
		Series:    v.Series,
		Package:   v.Package,
		Style:     v.Style,
		Engine:    v.Engine,
		Wildcards: wildcards,
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Factors resolves the model-year and LRG factors of each coverage.
// The LRG factor applies to BIPD only and is 1.0 elsewhere.
func (l *VehicleFactorLookup) Factors(v types.Vehicle, group types.VehicleRatingGroup, coverages []types.CoverageType, diag *types.Diagnostics) map[types.CoverageType]types.VehicleFactors {
	out := make(map[types.CoverageType]types.VehicleFactors, len(coverages))
	for _, c := range coverages {
		my, ok := l.tables.ModelYearFactor(c, v.Year)
		modelYear := orNeutral(my, ok, diag, "model_year", c, "year "+strconv.Itoa(v.Year))

		lrg := Neutral
		if c == types.CoverageBIPD {
			f, ok := l.tables.LRGFactor(c, group.LRG)
			lrg = orNeutral(f, ok, diag, "lrg", c, "lrg "+strconv.Itoa(group.LRG))
		}

		out[c] = types.VehicleFactors{
			ModelYearFactor: modelYear,
			LRGFactor:       lrg,
			CombinedFactor:  modelYear,
		}
	}
	return out
}

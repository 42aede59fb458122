package lookup

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"auto-rating/core/tables"
	"auto-rating/core/types"
)

// CoverageFactorLookup resolves limit and deductible factors
type CoverageFactorLookup struct {
	tables tables.RatingTables
}

// NewCoverageFactorLookup creates a coverage lookup over t
func NewCoverageFactorLookup(t tables.RatingTables) *CoverageFactorLookup {
	return &CoverageFactorLookup{tables: t}
}

// Factor resolves the coverage factor of c.
// COLL reads the DRG deductible table and COMP the GRG deductible table.
func (l *CoverageFactorLookup) Factor(c types.CoverageType, cov *types.Coverage, group types.VehicleRatingGroup, diag *types.Diagnostics) types.CoverageFactor {
	if cov == nil {
		cov = &types.Coverage{}
	}
	switch c {
	case types.CoverageBIPD:
		return l.bipd(cov.Limits, diag)
	case types.CoverageCOLL:
		return l.deductible(c, cov.Deductible, group.DRG, diag)
	case types.CoverageCOMP:
		return l.deductible(c, cov.Deductible, group.GRG, diag)
	case types.CoverageMPC:
		key := ""
		if parts, ok := SplitLimits(cov.Limits); ok && len(parts) == 1 {
			key = parts[0]
		}
		f := l.limit(tables.LimitMPC, c, key, diag)
		return types.CoverageFactor{Factor: f, LimitOrDeductible: cov.Limits}
	case types.CoverageUM:
		key := ""
		if parts, ok := SplitLimits(cov.Limits); ok && len(parts) >= 2 {
			key = parts[0] + "/" + parts[1]
		}
		f := l.limit(tables.LimitUM, c, key, diag)
		return types.CoverageFactor{Factor: f, LimitOrDeductible: cov.Limits}
	default:
		return types.CoverageFactor{Factor: miss(diag, "coverage", c, "unknown coverage")}
	}
}

// bipd multiplies the BI limit factor by the PD limit factor of a "pp/po/pd" string
func (l *CoverageFactorLookup) bipd(limits string, diag *types.Diagnostics) types.CoverageFactor {
	var biKey, pdKey string
	if parts, ok := SplitLimits(limits); ok && len(parts) == 3 {
		biKey = parts[0] + "/" + parts[1]
		pdKey = parts[2]
	}
	bi := l.limit(tables.LimitBI, types.CoverageBIPD, biKey, diag)
	pd := l.limit(tables.LimitPD, types.CoverageBIPD, pdKey, diag)
	return types.CoverageFactor{
		Factor:            bi.Mul(pd),
		LimitOrDeductible: limits,
		Components: map[string]decimal.Decimal{
			"bi_limits": bi,
			"pd_limits": pd,
		},
	}
}

func (l *CoverageFactorLookup) limit(table tables.LimitTable, c types.CoverageType, key string, diag *types.Diagnostics) decimal.Decimal {
	if key == "" {
		return miss(diag, "coverage_limits", c, string(table)+" limit (unparseable)")
	}
	f, ok := l.tables.LimitsFactor(table, key)
	return orNeutral(f, ok, diag, "coverage_limits", c, string(table)+" limit "+key)
}

func (l *CoverageFactorLookup) deductible(c types.CoverageType, deductible *int, group int, diag *types.Diagnostics) types.CoverageFactor {
	g := group
	out := types.CoverageFactor{RatingGroup: &g}
	if deductible == nil {
		out.Factor = miss(diag, "deductible", c, "missing deductible")
		return out
	}
	out.LimitOrDeductible = strconv.Itoa(*deductible)
	f, ok := l.tables.DeductibleFactor(c, group, *deductible)
	out.Factor = orNeutral(f, ok, diag, "deductible", c, "group "+strconv.Itoa(group)+" deductible "+out.LimitOrDeductible)
	return out
}

// SplitLimits splits a "/"-separated limit string into whole-number parts.
// Thousands separators and a leading "$" are accepted.
func SplitLimits(limits string) ([]string, bool) {
	limits = strings.TrimSpace(limits)
	if limits == "" {
		return nil, false
	}
	parts := strings.Split(limits, "/")
	for i, p := range parts {
		p = strings.TrimPrefix(strings.TrimSpace(p), "$")
		p = strings.ReplaceAll(p, ",", "")
		if _, err := strconv.Atoi(p); err != nil {
			return nil, false
		}
		parts[i] = p
	}
	return parts, true
}

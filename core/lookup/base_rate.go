package lookup

import (
	"go.uber.org/zap"

	"github.com/shopspring/decimal"

	"auto-rating/core/tables"
	"auto-rating/core/types"
	"auto-rating/internal/logging"
)

// BaseRateLookup resolves base rates and ZIP territory factors
type BaseRateLookup struct {
	tables tables.RatingTables
}

// NewBaseRateLookup creates a base rate lookup over t
func NewBaseRateLookup(t tables.RatingTables) *BaseRateLookup {
	return &BaseRateLookup{tables: t}
}

// Resolve returns the territorial rate of each coverage.
// An unknown ZIP uses territory factor 1.0.
func (l *BaseRateLookup) Resolve(zip string, coverages []types.CoverageType, diag *types.Diagnostics) map[types.CoverageType]types.BaseFactors {
	out := make(map[types.CoverageType]types.BaseFactors, len(coverages))
	for _, c := range coverages {
		out[c] = l.resolve(zip, c, diag)
	}
	return out
}

func (l *BaseRateLookup) resolve(zip string, c types.CoverageType, diag *types.Diagnostics) types.BaseFactors {
	base, ok := l.tables.BaseRate(c)
	if !ok {
		// Loading rejects tables without a base rate for every coverage
		logging.Error("base rate missing", zap.String("coverage", string(c)))
		diag.Warn("base_rate", c, "no base rate, coverage rated at 0")
		base = decimal.Zero
	}

	tf, ok := l.tables.TerritoryFactor(zip, c)
	territory := orNeutral(tf, ok, diag, "territory", c, "zip "+zip)

	return types.BaseFactors{
		BaseRate:        base,
		TerritoryFactor: territory,
		TerritorialRate: base.Mul(territory),
	}
}

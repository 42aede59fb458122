package lookup

import (
	"strconv"

	"github.com/shopspring/decimal"

	"auto-rating/core/tables"
	"auto-rating/core/types"
)

// DiscountLookup resolves the six discount and surcharge factors
type DiscountLookup struct {
	tables tables.RatingTables
}

// NewDiscountLookup creates a discount lookup over t
func NewDiscountLookup(t tables.RatingTables) *DiscountLookup {
	return &DiscountLookup{tables: t}
}

// Factors resolves the discount factors of coverage c.
// A discount the policy does not qualify for is 1.0.
func (l *DiscountLookup) Factors(c types.CoverageType, d types.Discounts, sf types.SpecialFactors, diag *types.Diagnostics) types.DiscountFactors {
	lf, ok := l.tables.LoyaltyFactor(c, d.LoyaltyYears)
	loyalty := orNeutral(lf, ok, diag, "loyalty", c, strconv.Itoa(d.LoyaltyYears)+" years")

	out := types.DiscountFactors{
		Loyalty:               loyalty,
		FederalEmployee:       l.flag(sf.FederalEmployee, tables.DiscountFederalEmployee, c, diag),
		GoodDriver:            l.flag(d.GoodDriver, tables.DiscountGoodDriver, c, diag),
		TransportationFriends: l.flag(sf.TransportationOfFriends, tables.DiscountTransportationFriends, c, diag),
		TransportationNetwork: l.flag(sf.TransportationNetworkCompany, tables.DiscountTransportationNetwork, c, diag),
		MultiLine:             l.multiLine(d.MultiLineKind(), c, diag),
	}
	out.Combined = out.Loyalty.
		Mul(out.FederalEmployee).
		Mul(out.GoodDriver).
		Mul(out.TransportationFriends).
		Mul(out.TransportationNetwork).
		Mul(out.MultiLine)
	return out
}

func (l *DiscountLookup) flag(set bool, kind tables.DiscountKind, c types.CoverageType, diag *types.Diagnostics) decimal.Decimal {
	if !set {
		return Neutral
	}
	f, ok := l.tables.DiscountFactor(kind, c)
	return orNeutral(f, ok, diag, "discount", c, string(kind))
}

func (l *DiscountLookup) multiLine(k types.MultiLineKind, c types.CoverageType, diag *types.Diagnostics) decimal.Decimal {
	if k == types.MultiLineNone {
		return Neutral
	}
	kind := tables.MultiLineDiscount(k)
	f, ok := l.tables.DiscountFactor(kind, c)
	return orNeutral(f, ok, diag, "discount", c, string(kind))
}

// Package lookup - Rating factor resolution
// Each lookup reads an immutable table snapshot and resolves the factors of one
// rating concern. A key missing from a table resolves to the neutral factor 1.0,
// is logged at WARN and is recorded in the request diagnostics.
package lookup

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"auto-rating/core/types"
	"auto-rating/internal/logging"
)

// Neutral is the identity factor
var Neutral = decimal.NewFromInt(1)

// miss records a lookup miss and returns the neutral factor
func miss(diag *types.Diagnostics, component string, c types.CoverageType, key string) decimal.Decimal {
	logging.Warn("rating factor not found",
		zap.String("component", component),
		zap.String("coverage", string(c)),
		zap.String("key", key))
	diag.Warn(component, c, fmt.Sprintf("no %s factor for %s, using 1.0", component, key))
	return Neutral
}

// orNeutral returns v when the lookup succeeded and records a miss otherwise
func orNeutral(v decimal.Decimal, ok bool, diag *types.Diagnostics, component string, c types.CoverageType, key string) decimal.Decimal {
	if !ok {
		return miss(diag, component, c, key)
	}
	return v
}

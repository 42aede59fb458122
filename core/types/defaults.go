package types

import "strings"

// Default coverage terms applied when a selected coverage omits them
const (
	DefaultBIPDLimits = "100/300/50"
	DefaultUMLimits   = "100/300"
	DefaultMPCLimits  = "5000"
	DefaultDeductible = 500
)

// WithDefaults returns a normalized copy of the input.
// A request without any coverage gets the default package; selected coverages
// missing limits or a deductible get the default terms. The receiver is not modified.
func (r *RatingInput) WithDefaults() RatingInput {
	out := *r
	out.State = strings.ToUpper(strings.TrimSpace(r.State))
	out.ZipCode = strings.TrimSpace(r.ZipCode)
	out.Vehicle.Make = strings.ToUpper(strings.TrimSpace(r.Vehicle.Make))
	out.Vehicle.Model = strings.ToUpper(strings.TrimSpace(r.Vehicle.Model))

	cov := r.Coverages
	if cov.BIPD == nil && cov.COLL == nil && cov.COMP == nil && cov.MPC == nil && cov.UM == nil {
		cov = Coverages{BIPD: &Coverage{}, COLL: &Coverage{}, COMP: &Coverage{}, MPC: &Coverage{}, UM: &Coverage{}}
	}
	out.Coverages = Coverages{
		BIPD: withLimits(cov.BIPD, DefaultBIPDLimits),
		COLL: withDeductible(cov.COLL),
		COMP: withDeductible(cov.COMP),
		MPC:  withLimits(cov.MPC, DefaultMPCLimits),
		UM:   withLimits(cov.UM, DefaultUMLimits),
	}

	out.Drivers = make([]Driver, len(r.Drivers))
	copy(out.Drivers, r.Drivers)
	return out
}

func withLimits(c *Coverage, limits string) *Coverage {
	if c == nil {
		return nil
	}
	out := *c
	if out.IsSelected() && strings.TrimSpace(out.Limits) == "" {
		out.Limits = limits
	}
	return &out
}

func withDeductible(c *Coverage) *Coverage {
	if c == nil {
		return nil
	}
	out := *c
	if out.IsSelected() && out.Deductible == nil {
		d := DefaultDeductible
		out.Deductible = &d
	}
	return &out
}

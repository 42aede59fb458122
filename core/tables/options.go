package tables

import (
	"sort"
	"strconv"

	"auto-rating/core/types"
)

// CoverageOptions lists the selectable limits and deductibles of the loaded plan
type CoverageOptions struct {
	BILimits        []string `json:"bi_limits"`
	PDLimits        []string `json:"pd_limits"`
	UMLimits        []string `json:"um_limits"`
	MPCLimits       []string `json:"mpc_limits"`
	COLLDeductibles []int    `json:"coll_deductibles"`
	COMPDeductibles []int    `json:"comp_deductibles"`
	MultiLine       []string `json:"multi_line"`
	UsageTypes      []string `json:"usage_types"`
}

// CoverageOptions returns the options in table order
func (s *Set) CoverageOptions() CoverageOptions {
	opts := CoverageOptions{
		BILimits:        copyStrings(s.limitOrder[LimitBI]),
		PDLimits:        copyStrings(s.limitOrder[LimitPD]),
		UMLimits:        copyStrings(s.limitOrder[LimitUM]),
		MPCLimits:       copyStrings(s.limitOrder[LimitMPC]),
		COLLDeductibles: s.deductibleOptions(types.CoverageCOLL),
		COMPDeductibles: s.deductibleOptions(types.CoverageCOMP),
	}

	for _, k := range []types.MultiLineKind{types.MultiLineNone, types.MultiLineHome, types.MultiLineLife, types.MultiLineOther} {
		if _, ok := s.discounts[MultiLineDiscount(k)]; ok {
			opts.MultiLine = append(opts.MultiLine, string(k))
		}
	}
	for _, u := range []types.UsageType{types.UsagePleasure, types.UsageBusiness, types.UsageFarm} {
		if _, ok := s.usage[u]; ok {
			opts.UsageTypes = append(opts.UsageTypes, string(u))
		}
	}

	sortNumeric(opts.MPCLimits)
	return opts
}

func (s *Set) deductibleOptions(c types.CoverageType) []int {
	t, ok := s.deductibles[c]
	if !ok {
		return nil
	}
	out := make([]int, len(t.deductibles))
	copy(out, t.deductibles)
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func sortNumeric(values []string) {
	sort.SliceStable(values, func(i, j int) bool {
		a, errA := strconv.Atoi(values[i])
		b, errB := strconv.Atoi(values[j])
		if errA != nil || errB != nil {
			return values[i] < values[j]
		}
		return a < b
	})
}

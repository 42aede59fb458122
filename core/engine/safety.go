package engine

import (
	"context"

	"auto-rating/core/safety"
	"auto-rating/core/types"
)

// DriverSafetyReport is the scored record of one driver plus its projection
type DriverSafetyReport struct {
	DriverID   string                    `json:"driver_id"`
	Level      int                       `json:"safety_record_level"`
	Calculated bool                      `json:"calculated"`
	Details    types.SafetyRecordDetails `json:"details"`
	Projection []safety.Projection       `json:"projection,omitempty"`
}

// SafetyReport covers every driver on the policy
type SafetyReport struct {
	Drivers  []DriverSafetyReport `json:"drivers"`
	Metadata types.ResultMetadata `json:"metadata"`
	Warnings []types.Warning      `json:"warnings,omitempty"`
}

// SafetyRecords scores each driver as of the rating date and projects the
// record forward by up to years anniversaries.
func (e *Engine) SafetyRecords(ctx context.Context, input *types.RatingInput, years int) (*SafetyReport, error) {
	req, err := e.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	scorer := req.pipeline.drivers.Scorer()
	out := &SafetyReport{Metadata: req.metadata}
	for _, d := range req.input.Drivers {
		res := scorer.Resolve(d, req.asOf, req.diag)
		report := DriverSafetyReport{
			DriverID:   d.ID,
			Level:      res.Level,
			Calculated: res.Calculated,
			Details:    scorer.Details(d, req.asOf, nil),
		}
		if years > 0 {
			report.Projection = scorer.Project(d, req.asOf, years)
		}
		out.Drivers = append(out.Drivers, report)
	}
	out.Warnings = req.diag.Warnings()
	return out, nil
}

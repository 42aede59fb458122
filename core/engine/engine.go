// Package engine provides the pricing orchestrator.
// CLI and HTTP are thin wrappers around this engine.
// Each call takes one table snapshot and sequences validation, lookups,
// aggregation and result assembly against it.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"auto-rating/core/aggregate"
	"auto-rating/core/determinism"
	"auto-rating/core/tables"
	"auto-rating/core/types"
	"auto-rating/internal/errors"
	"auto-rating/internal/logging"
)

// Engine is the primary API for premium calculation
type Engine struct {
	source tables.Source
	config Config
	clock  determinism.Clock
	log    *zap.Logger
}

// Config identifies the deployment.
// An engine serves exactly one carrier and state.
type Config struct {
	Carrier string
	State   string
	Engine  string
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the clock that supplies the default rating date
func WithClock(c determinism.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an engine reading tables from source
func New(source tables.Source, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		config: cfg,
		clock:  determinism.SystemClock{},
		log:    logging.Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the deployment configuration
func (e *Engine) Config() Config {
	return e.config
}

// request is a validated input bound to one table snapshot
type request struct {
	input    types.RatingInput
	asOf     types.Date
	diag     *types.Diagnostics
	pipeline *pipeline
	metadata types.ResultMetadata
}

// prepare normalizes and validates the input, then pins the table snapshot
func (e *Engine) prepare(ctx context.Context, input *types.RatingInput) (*request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.Input("rating input is required", nil)
	}

	in := input.WithDefaults()
	asOf := types.NewDate(e.clock.Now())
	if in.RatingDate != nil && !in.RatingDate.IsZero() {
		asOf = *in.RatingDate
	}

	if err := in.Validate(types.ValidateOptions{State: e.config.State, RatingDate: asOf}); err != nil {
		e.log.Debug("rating input rejected", zap.Error(err))
		return nil, err
	}

	snapshot := e.source.Current()
	if snapshot == nil {
		return nil, errors.New(errors.TypeRating, "no rating tables loaded")
	}

	quoteID, err := e.quoteID(&in, asOf, snapshot.Version())
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInternal, err, "failed to hash rating input for tables %s", snapshot.Version())
	}

	return &request{
		input:    in,
		asOf:     asOf,
		diag:     &types.Diagnostics{},
		pipeline: newPipeline(snapshot),
		metadata: types.ResultMetadata{
			Carrier:       e.config.Carrier,
			State:         e.config.State,
			Engine:        e.config.Engine,
			QuoteID:       quoteID,
			RatingDate:    asOf,
			TablesVersion: snapshot.Version(),
		},
	}, nil
}

// quoteID hashes everything the result depends on
func (e *Engine) quoteID(in *types.RatingInput, asOf types.Date, version string) (string, error) {
	h, err := determinism.HashJSON(struct {
		Carrier string             `json:"carrier"`
		State   string             `json:"state"`
		Tables  string             `json:"tables"`
		AsOf    types.Date         `json:"as_of"`
		Input   *types.RatingInput `json:"input"`
	}{e.config.Carrier, e.config.State, version, asOf, in})
	if err != nil {
		return "", err
	}
	return determinism.QuoteID(h), nil
}

// CalculatePremium rates every selected coverage and assembles the full breakdown
func (e *Engine) CalculatePremium(ctx context.Context, input *types.RatingInput) (*types.PremiumResult, error) {
	start := time.Now()
	req, err := e.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	p := req.pipeline
	pc := p.policy(&req.input, req.asOf, req.diag)
	e.log.Debug("policy context resolved",
		zap.String("quote_id", req.metadata.QuoteID),
		zap.String("vehicle_tier", string(pc.match.Tier)),
		zap.Int("drivers", len(pc.drivers)))

	selected := req.input.Coverages.Selected()
	ratings := make([]coverageRating, 0, len(selected))
	for _, c := range selected {
		r := p.rate(pc, c)
		e.log.Debug("coverage rated",
			zap.String("coverage", string(c)),
			zap.String("premium", r.Calculation.Premium.StringFixed(2)))
		ratings = append(ratings, r)
	}

	premiums, breakdowns := assemble(ratings, pc.match)
	result := &types.PremiumResult{
		Premiums:     premiums,
		TotalPremium: aggregate.Total(premiums),
		Breakdowns:   breakdowns,
		Metadata:     req.metadata,
		Warnings:     req.diag.Warnings(),
	}

	e.log.Info("premium calculated",
		zap.String("quote_id", result.Metadata.QuoteID),
		zap.String("total_premium", result.TotalPremium.StringFixed(2)),
		zap.Int("coverages", len(premiums)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// DriverAdjustmentResult is the driver stage of every selected coverage
type DriverAdjustmentResult struct {
	Adjustments map[types.CoverageType]types.DriverAdjustment `json:"driver_adjustment_factors"`
	Metadata    types.ResultMetadata                          `json:"metadata"`
	Warnings    []types.Warning                               `json:"warnings,omitempty"`
}

// DriverAdjustments resolves only the driver adjustment factors
func (e *Engine) DriverAdjustments(ctx context.Context, input *types.RatingInput) (*DriverAdjustmentResult, error) {
	req, err := e.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	p := req.pipeline
	pc := &policyContext{
		input:   &req.input,
		diag:    req.diag,
		drivers: p.drivers.Prepare(req.input.Drivers, req.asOf, req.diag),
		usage:   usageContext(&req.input),
	}

	out := &DriverAdjustmentResult{
		Adjustments: make(map[types.CoverageType]types.DriverAdjustment),
		Metadata:    req.metadata,
	}
	for _, c := range req.input.Coverages.Selected() {
		out.Adjustments[c] = p.driverAdjustment(pc, c)
	}
	out.Warnings = req.diag.Warnings()
	return out, nil
}

// CoverageBreakdown is the full chain of one coverage
type CoverageBreakdown struct {
	Coverage            types.CoverageType        `json:"coverage"`
	BaseFactors         types.BaseFactors         `json:"base_factors"`
	VehicleRatingGroups types.VehicleMatch        `json:"vehicle_rating_groups"`
	VehicleFactors      types.VehicleFactors      `json:"vehicle_factors"`
	DriverAdjustment    types.DriverAdjustment    `json:"driver_adjustment_factors"`
	CoverageFactor      types.CoverageFactor      `json:"coverage_factors"`
	DiscountFactors     types.DiscountFactors     `json:"discount_factors"`
	Calculation         types.CoverageCalculation `json:"calculation"`
	Metadata            types.ResultMetadata      `json:"metadata"`
	Warnings            []types.Warning           `json:"warnings,omitempty"`
}

// CoverageBreakdown rates a single selected coverage
func (e *Engine) CoverageBreakdown(ctx context.Context, coverage types.CoverageType, input *types.RatingInput) (*CoverageBreakdown, error) {
	if !coverage.IsValid() {
		return nil, errors.Newf(errors.TypeInput, "unknown coverage %q", coverage).WithContext("coverage", string(coverage))
	}
	req, err := e.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	if !req.input.Coverages.Get(coverage).IsSelected() {
		return nil, errors.NotFound("selected coverage", string(coverage))
	}

	p := req.pipeline
	pc := p.policy(&req.input, req.asOf, req.diag)
	r := p.rate(pc, coverage)

	return &CoverageBreakdown{
		Coverage:            coverage,
		BaseFactors:         r.Base,
		VehicleRatingGroups: pc.match,
		VehicleFactors:      r.Vehicle,
		DriverAdjustment:    r.Drivers,
		CoverageFactor:      r.Factor,
		DiscountFactors:     r.Discounts,
		Calculation:         r.Calculation,
		Metadata:            req.metadata,
		Warnings:            req.diag.Warnings(),
	}, nil
}

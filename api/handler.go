package api

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"auto-rating/core/output"
	"auto-rating/core/tables"
	"auto-rating/core/types"
	"auto-rating/internal/errors"
)

// maxProjectionYears bounds the safety projection of one request
const maxProjectionYears = 10

// handlePremium handles POST /v1/premium
func (s *Server) handlePremium(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	result, err := s.engine.CalculatePremium(r.Context(), input)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, output.NewDocument(result), http.StatusOK)
}

// handleDriverAdjustments handles POST /v1/premium/drivers
func (s *Server) handleDriverAdjustments(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	result, err := s.engine.DriverAdjustments(r.Context(), input)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handleCoverageBreakdown handles POST /v1/premium/breakdown/{coverage}
func (s *Server) handleCoverageBreakdown(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "coverage")
	coverage, valid := types.ParseCoverage(raw)
	if !valid {
		s.writeError(w, "INVALID_COVERAGE", "unknown coverage "+strconv.Quote(raw), http.StatusBadRequest)
		return
	}
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	result, err := s.engine.CoverageBreakdown(r.Context(), coverage, input)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handleSafetyRecords handles POST /v1/premium/safety?years=N
func (s *Server) handleSafetyRecords(w http.ResponseWriter, r *http.Request) {
	years := 0
	if v := r.URL.Query().Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxProjectionYears {
			s.writeError(w, "INVALID_QUERY", "years must be an integer between 0 and "+strconv.Itoa(maxProjectionYears), http.StatusBadRequest)
			return
		}
		years = n
	}
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	result, err := s.engine.SafetyRecords(r.Context(), input, years)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handleCoverageOptions handles GET /v1/coverage-options
func (s *Server) handleCoverageOptions(w http.ResponseWriter, r *http.Request) {
	set, ok := s.tables(w)
	if !ok {
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"coverage_options": set.CoverageOptions(),
		"tables_version":   set.Version(),
	}, http.StatusOK)
}

// handleVehicles handles GET /v1/vehicles?year=&make=&model=
func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	set, ok := s.tables(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	year := 0
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, "INVALID_QUERY", "year must be an integer", http.StatusBadRequest)
			return
		}
		year = n
	}

	vehicles := set.Catalog().Search(year, q.Get("make"), q.Get("model"))
	if vehicles == nil {
		vehicles = []tables.VehicleRecord{}
	}
	s.writeJSON(w, map[string]interface{}{
		"vehicles": vehicles,
		"count":    len(vehicles),
	}, http.StatusOK)
}

// handleFactorTables handles GET /v1/factors
func (s *Server) handleFactorTables(w http.ResponseWriter, r *http.Request) {
	set, ok := s.tables(w)
	if !ok {
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"tables":         set.FactorTables(),
		"tables_version": set.Version(),
	}, http.StatusOK)
}

// handleFactorTable handles GET /v1/factors/{table}
func (s *Server) handleFactorTable(w http.ResponseWriter, r *http.Request) {
	set, ok := s.tables(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "table")
	tbl, found := set.FactorTable(name)
	if !found {
		s.writeError(w, "NOT_FOUND", "unknown factor table "+name, http.StatusNotFound)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"table":          tbl,
		"tables_version": set.Version(),
	}, http.StatusOK)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	tablesVersion := ""
	if set := s.holder.Set(); set != nil {
		tablesVersion = set.Version()
	} else {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	s.writeJSON(w, map[string]interface{}{
		"status":         status,
		"version":        s.version,
		"tables_version": tablesVersion,
		"time":           time.Now().UTC().Format(time.RFC3339),
	}, code)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	cfg := s.engine.Config()
	s.writeJSON(w, map[string]string{
		"version": s.version,
		"carrier": cfg.Carrier,
		"state":   cfg.State,
		"engine":  cfg.Engine,
	}, http.StatusOK)
}

func (s *Server) tables(w http.ResponseWriter) (*tables.Set, bool) {
	set := s.holder.Set()
	if set == nil {
		s.writeError(w, "TABLES_UNAVAILABLE", "no rating tables loaded", http.StatusServiceUnavailable)
		return nil, false
	}
	return set, true
}

// decodeInput reads one RatingInput document
func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (*types.RatingInput, bool) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	var input types.RatingInput
	if err := dec.Decode(&input); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &input, true
}

// writeEngineError maps an engine error to its HTTP status
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := errors.AsValidation(err); ok {
		s.writeJSON(w, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    string(errors.TypeValidation),
				"message": "rating input failed validation",
				"fields":  v.Fields,
			},
		}, http.StatusUnprocessableEntity)
		return
	}

	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		s.writeError(w, "CANCELED", err.Error(), http.StatusServiceUnavailable)
	case errors.IsType(err, errors.TypeRating):
		s.writeError(w, "TABLES_UNAVAILABLE", err.Error(), http.StatusServiceUnavailable)
	case errors.IsType(err, errors.TypeNotFound):
		s.writeError(w, string(errors.TypeNotFound), err.Error(), http.StatusNotFound)
	case errors.IsType(err, errors.TypeInput):
		s.writeError(w, string(errors.TypeInput), err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("rating failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.writeError(w, "ENGINE_ERROR", "rating failed", http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("response encoding failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, map[string]interface{}{
		"error": map[string]string{
			"code":    strings.ToUpper(code),
			"message": message,
		},
	}, status)
}

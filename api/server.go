// Package api - Thin, deterministic API layer
// The API is ONLY responsible for: request decoding, engine invocation, response encoding.
// The API NEVER performs rating logic.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"auto-rating/core/engine"
	"auto-rating/core/tables"
	"auto-rating/internal/logging"
)

// maxBodyBytes bounds a rating request document
const maxBodyBytes = 1 << 20

// Server is the API server
type Server struct {
	engine  *engine.Engine
	holder  *tables.Holder
	router  chi.Router
	version string
	log     *zap.Logger
}

// NewServer creates an API server rating against the tables published by holder
func NewServer(eng *engine.Engine, holder *tables.Holder, version string) *Server {
	s := &Server{
		engine:  eng,
		holder:  holder,
		router:  chi.NewRouter(),
		version: version,
		log:     logging.Named("api"),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/premium", func(r chi.Router) {
			r.Post("/", s.handlePremium)
			r.Post("/drivers", s.handleDriverAdjustments)
			r.Post("/breakdown/{coverage}", s.handleCoverageBreakdown)
			r.Post("/safety", s.handleSafetyRecords)
		})
		r.Get("/coverage-options", s.handleCoverageOptions)
		r.Get("/vehicles", s.handleVehicles)
		r.Get("/factors", s.handleFactorTables)
		r.Get("/factors/{table}", s.handleFactorTable)
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/version", s.handleVersion)
}

// requestLogger logs one line per request
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

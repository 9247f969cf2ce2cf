// Package api serves the scoring engine and report store over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/ev-risk/internal/config"
	"github.com/sells-group/ev-risk/internal/metrics"
	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/store"
)

// Scorer runs the engine for one validated input.
type Scorer interface {
	Score(in model.ScoringInput, asOfYear int) model.BuyConfidence
}

// Deps holds everything the router needs. Metrics may be nil.
type Deps struct {
	Scorer  Scorer
	Store   store.Store
	Metrics *metrics.Metrics
	API     config.APIConfig
	// AsOfYear pins the evaluation year; zero reads the clock per request.
	AsOfYear int
	Now      func() time.Time
}

// Server holds handler state.
type Server struct {
	scorer   Scorer
	store    store.Store
	asOfYear int
	now      func() time.Time
}

// NewRouter builds the full route tree.
func NewRouter(d Deps) http.Handler {
	s := &Server{
		scorer:   d.Scorer,
		store:    d.Store,
		asOfYear: d.AsOfYear,
		now:      d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(securityHeaders(d.API.HSTS))
	r.Use(requestLogger(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.API.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	ips := newIPResolver(d.API.TrustedProxies)
	limiter := newClientLimiter(d.API.RateLimitRPS, d.API.RateLimitBurst, 10*time.Minute)

	r.Route("/api", func(api chi.Router) {
		api.Use(limiter.middleware(ips))

		api.Post("/score", s.score)

		api.Route("/report", func(rr chi.Router) {
			rr.Post("/create", s.createReport(model.ReportStatusDraft))
			rr.Post("/free", s.createReport(model.ReportStatusFree))
			rr.Get("/{reportID}", s.getReport)
			rr.Get("/{reportID}/summary", s.reportSummary)
		})

		api.Post("/feedback", s.feedback)

		api.Group(func(admin chi.Router) {
			admin.Use(adminOnly(ips, d.API.AdminAllowedIPs, d.API.AdminAPIKey))
			admin.Get("/analytics", s.analytics)
		})
	})

	return r
}

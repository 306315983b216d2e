package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"pledg/metrics"
)

// ReadinessCheck reports whether a backing store is reachable.
type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	Calculator     *CalculatorHandler
	Waitlist       *WaitlistHandler
	Price          *PriceHandler
	RateLimiter    *RateLimiter
	Recorder       *metrics.Recorder
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	Ready          ReadinessCheck

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	if deps.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(deps.Recorder))

	limited := func(scope string, h http.HandlerFunc) http.Handler {
		if deps.RateLimiter == nil {
			return h
		}
		return RateLimitMiddleware(deps.RateLimiter, scope)(h)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, r, http.StatusOK, "ok", nil)
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(r.Context()); err != nil {
				writeError(w, r, http.StatusServiceUnavailable, "not ready: "+err.Error())
				return
			}
		}
		writeSuccess(w, r, http.StatusOK, "ready", nil)
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/loan", func(r chi.Router) {
			r.Method(http.MethodPost, "/calculate", limited("calculate", deps.Calculator.CalculateLoan))
			r.Method(http.MethodPost, "/schedule", limited("calculate", deps.Calculator.Schedule))
			r.Method(http.MethodPost, "/terms", limited("calculate", deps.Calculator.CompareTerms))
			r.Method(http.MethodPost, "/simulate", limited("calculate", deps.Calculator.Simulate))
			r.Get("/compare", deps.Calculator.SellVsBorrow)
		})
		r.Get("/price", deps.Price.GetPrice)
		r.Get("/price/stream", deps.Price.Stream)
	})

	// Any method reaches the handler so non-POST requests get the JSON 405.
	r.Handle("/api/join-waitlist", limited("waitlist", deps.Waitlist.Join))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return cors.New(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: false,
	}).Handler(r)
}

// Package server provides the HTTP API for the breakout dashboard backend.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/server/handler"
	"github.com/squireaintready/breakout/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	Password    string // if empty, authentication is disabled

	// Limiter enables per-client rate limiting on the API routes when set
	// together with a positive RateLimit.
	Limiter         domain.RateLimiter
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	State     *handler.StateHandler
	Prices    *handler.PricesHandler
	Risk      *handler.RiskHandler
	Positions *handler.PositionHandler
	Alerts    *handler.AlertHandler
}

// Server is the HTTP API server for the dashboard backend.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer registers all routes and wraps them in the middleware chain
// (CORS, logging, rate limiting, auth).
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Full account snapshot.
	mux.HandleFunc("GET /api/state", handlers.State.GetState)
	mux.HandleFunc("PUT /api/state", handlers.State.PutState)

	// Prices and risk.
	mux.HandleFunc("GET /api/prices", handlers.Prices.GetPrices)
	mux.HandleFunc("GET /api/risk", handlers.Risk.GetRisk)
	mux.HandleFunc("POST /api/risk/size", handlers.Risk.SizePosition)

	// Position lifecycle.
	mux.HandleFunc("POST /api/positions", handlers.Positions.OpenPosition)
	mux.HandleFunc("DELETE /api/positions/{id}", handlers.Positions.DeletePosition)
	mux.HandleFunc("PUT /api/positions/{id}/stops", handlers.Positions.EditStops)
	mux.HandleFunc("POST /api/positions/{id}/close", handlers.Positions.ClosePosition)

	// Account operations.
	mux.HandleFunc("POST /api/account/balance", handlers.Positions.SetBalance)
	mux.HandleFunc("POST /api/account/reset", handlers.Positions.ResetAccount)

	// Alert lifecycle.
	mux.HandleFunc("POST /api/alerts/price", handlers.Alerts.CreatePriceAlert)
	mux.HandleFunc("DELETE /api/alerts/price/{id}", handlers.Alerts.DeletePriceAlert)
	mux.HandleFunc("POST /api/alerts/price/{id}/rearm", handlers.Alerts.RearmPriceAlert)
	mux.HandleFunc("POST /api/alerts/pnl", handlers.Alerts.CreatePnlAlert)
	mux.HandleFunc("DELETE /api/alerts/pnl/{id}", handlers.Alerts.DeletePnlAlert)
	mux.HandleFunc("POST /api/alerts/pnl/{id}/rearm", handlers.Alerts.RearmPnlAlert)

	// Auth sits innermost; an empty password disables it.
	var h http.Handler = mux
	h = middleware.Auth(cfg.Password)(h)

	// Per-client rate limiting guards the API routes only; health and
	// metrics stay unthrottled.
	if cfg.Limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		h = middleware.RateLimit(cfg.Limiter, cfg.RateLimit, window)(h)
	}

	// Health and Prometheus metrics bypass auth so probes and scrapers work
	// without the dashboard password.
	outer := http.NewServeMux()
	outer.Handle("GET /metrics", promhttp.Handler())
	outer.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	outer.Handle("/", h)

	var root http.Handler = outer
	root = middleware.Logging(logger)(root)
	root = cors(cfg.CORSOrigins)(root)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start blocks serving HTTP until Shutdown is called or listening fails.
func (s *Server) Start() error {
	s.logger.Info("listening", slog.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// cors sets the CORS headers for allowed browser origins and answers
// preflight requests. An empty origin list allows everything, which suits a
// dashboard bound to localhost.
func cors(origins []string) func(http.Handler) http.Handler {
	match := func(origin string) bool {
		if len(origins) == 0 {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && match(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				h.Set("Access-Control-Max-Age", "86400")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

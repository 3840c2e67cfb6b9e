package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/rollcall-go/internal/server/httpserver/handler"
	"github.com/yndnr/rollcall-go/internal/server/ratelimit"
	"github.com/yndnr/rollcall-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the API routes.
	Handler *handler.Handler

	// Metrics serves /metrics and records request metrics. Optional.
	Metrics *metric.Registry

	// RateLimits limits requests per client IP. Nil disables limiting.
	RateLimits *ratelimit.Registry

	Logger *slog.Logger
}

// NewRouter builds the top-level handler.
//
// Order: Recover -> RequestID -> RateLimit -> Metrics -> Audit -> routes.
// /health and /metrics skip rate limiting and audit.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	api := Chain(cfg.Handler,
		RateLimit(cfg.RateLimits, cfg.Metrics),
		Metrics(cfg.Metrics),
		Audit(log),
	)

	mux := http.NewServeMux()
	mux.Handle("GET /health", cfg.Handler)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	mux.Handle("/", api)

	return Chain(mux, Recover(log), RequestID())
}

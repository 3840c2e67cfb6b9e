package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/rollcall-go/internal/core/domain"
)

const namespace = "rollcall"

// Result label values.
const (
	ResultOK = "ok"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Operations counts service operations by operation and result. Result
	// is "ok" or the domain error code.
	Operations *prometheus.CounterVec

	// RequestDuration observes transport request latency.
	RequestDuration *prometheus.HistogramVec

	// RateLimited counts rejected requests per transport.
	RateLimited *prometheus.CounterVec

	// LastAttendanceID is the most recently issued attendance id.
	LastAttendanceID prometheus.Gauge

	// BackupsCreated counts successful backups.
	BackupsCreated prometheus.Counter
}

// NewRegistry creates a registry with the Go runtime and process collectors
// and every application metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		reg: reg,
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by operation and result.",
		}, []string{"operation", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by transport and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "route"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"transport"}),
		LastAttendanceID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_attendance_id",
			Help:      "Most recently issued attendance id.",
		}),
		BackupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_created_total",
			Help:      "Backups written successfully.",
		}),
	}

	reg.MustRegister(
		r.Operations,
		r.RequestDuration,
		r.RateLimited,
		r.LastAttendanceID,
		r.BackupsCreated,
	)
	return r
}

// Registerer exposes the underlying registry for other components.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer exposes the underlying registry for tests and handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveOperation counts one operation outcome.
func (r *Registry) ObserveOperation(operation string, err error) {
	result := ResultOK
	if err != nil {
		result = domain.GetErrorCode(err)
		if result == "" {
			result = domain.ErrInternalServer.Code
		}
	}
	r.Operations.WithLabelValues(operation, result).Inc()
}

// ObserveDuration records the latency of one request.
func (r *Registry) ObserveDuration(transport, route string, d time.Duration) {
	r.RequestDuration.WithLabelValues(transport, route).Observe(d.Seconds())
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

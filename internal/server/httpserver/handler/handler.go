// Package handler provides the HTTP request handlers for rollcall.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/rollcall-go/internal/core/domain"
	"github.com/yndnr/rollcall-go/internal/core/service"
	"github.com/yndnr/rollcall-go/internal/server/admin"
	"github.com/yndnr/rollcall-go/internal/storage/snapshot"
	"github.com/yndnr/rollcall-go/internal/telemetry/logger"
	"github.com/yndnr/rollcall-go/internal/telemetry/metric"
)

// maxBodyBytes bounds request bodies. Records are far smaller.
const maxBodyBytes = 64 << 10

// Admin is the set of operator actions exposed under /admin/v1.
type Admin interface {
	Summary(ctx context.Context) (*admin.Summary, error)
	TriggerGC(ctx context.Context) (*admin.GCResult, error)
	CreateBackup(ctx context.Context) (*snapshot.Info, error)
	ListBackups(ctx context.Context) ([]*snapshot.Info, error)
}

// Readiness reports whether the server can take traffic.
type Readiness func(ctx context.Context) error

// Deps holds the collaborators of Handler.
type Deps struct {
	Attendance *service.AttendanceService
	Employees  *service.EmployeeService
	Admin      Admin            // optional
	Metrics    *metric.Registry // optional
	Ready      Readiness        // optional
	Logger     *slog.Logger
}

// Handler routes API requests to the services.
type Handler struct {
	attendance *service.AttendanceService
	employees  *service.EmployeeService
	admin      Admin
	metrics    *metric.Registry
	ready      Readiness
	logger     *slog.Logger
	mux        *http.ServeMux
}

// New creates a Handler with all routes registered.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &Handler{
		attendance: deps.Attendance,
		employees:  deps.Employees,
		admin:      deps.Admin,
		metrics:    deps.Metrics,
		ready:      deps.Ready,
		logger:     deps.Logger,
		mux:        http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("POST /attendance", h.handleSubmitAttendance)
	h.mux.HandleFunc("GET /attendance/{id}", h.handleGetAttendance)

	h.mux.HandleFunc("POST /employees", h.handleAddEmployee)
	h.mux.HandleFunc("GET /employees/{id}", h.handleGetEmployee)
	h.mux.HandleFunc("PUT /employees/{id}", h.handleUpdateEmployee)
	h.mux.HandleFunc("POST /employees/{id}/update", h.handleUpdateEmployee)

	h.mux.HandleFunc("GET /admin/v1/status/summary", h.handleAdminStatus)
	h.mux.HandleFunc("POST /admin/v1/gc/trigger", h.handleGCTrigger)
	h.mux.HandleFunc("POST /admin/v1/backups/snapshots", h.handleCreateBackup)
	h.mux.HandleFunc("GET /admin/v1/backups/snapshots", h.handleListBackups)
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, details))
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		var details any
		if de.Details != "" {
			details = de.Details
		}
		h.writeError(w, r, ErrorCodeToHTTPStatus(de.Code), de.Code, de.Message, details)
		return
	}

	h.logger.ErrorContext(r.Context(), "internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError,
		domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// observe counts one service operation.
func (h *Handler) observe(op string, err error) {
	if h.metrics != nil {
		h.metrics.ObserveOperation(op, err)
	}
}

// decodeBody decodes a JSON request body into v.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, msg, err.Error())
		return false
	}
	return true
}

// pathID parses the {id} path value as a decimal uint64.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code,
			"id must be a non-negative decimal integer", raw)
		return 0, false
	}
	return id, true
}

// getRequestID returns the request id set by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// ErrorCodeToHTTPStatus maps error codes to HTTP status codes by suffix.
func ErrorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "RC-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package redisserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/yndnr/rollcall-go/internal/core/domain"
	"github.com/yndnr/rollcall-go/internal/core/service"
	"github.com/yndnr/rollcall-go/internal/server/ratelimit"
	"github.com/yndnr/rollcall-go/internal/telemetry/metric"
)

// formatError converts err to a RESP error line without the leading '-'.
// Non-domain errors are reported as internal errors so storage details
// never reach the client.
func formatError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return "ERR " + de.Code + " " + de.Message
	}
	return "ERR " + domain.ErrInternalServer.Code + " " + domain.ErrInternalServer.Message
}

// CommandHandler executes commands against the record services.
type CommandHandler struct {
	attendance *service.AttendanceService
	employees  *service.EmployeeService
	limits     *ratelimit.Registry
	metrics    *metric.Registry
	logger     *slog.Logger
}

// Handle executes one command and buffers its reply on conn.
// It reports false when the connection should be closed.
func (h *CommandHandler) Handle(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) == 0 {
		_ = writeError(conn.bw, "ERR no command")
		return true
	}

	name := commandName(args[0])
	switch name {
	case "PING":
		h.handlePing(conn, args)
		return true
	case "QUIT":
		_ = writeSimpleString(conn.bw, "OK")
		return false
	}

	if h.limits.Enabled() && !h.limits.Allow(remoteIP(conn.RemoteAddr())) {
		if h.metrics != nil {
			h.metrics.RateLimited.WithLabelValues("redis").Inc()
		}
		_ = writeError(conn.bw, formatError(domain.ErrRateLimited))
		return true
	}

	start := time.Now()
	switch name {
	case "ATT.SUBMIT":
		h.handleAttSubmit(ctx, conn, args)
	case "ATT.GET":
		h.handleAttGet(ctx, conn, args)
	case "EMP.ADD":
		h.handleEmpAdd(ctx, conn, args)
	case "EMP.UPDATE":
		h.handleEmpUpdate(ctx, conn, args)
	case "EMP.GET":
		h.handleEmpGet(ctx, conn, args)
	default:
		_ = writeError(conn.bw, "ERR unknown command '"+name+"'")
		return true
	}
	if h.metrics != nil {
		h.metrics.ObserveDuration("redis", name, time.Since(start))
	}
	return true
}

func (h *CommandHandler) handlePing(conn *Conn, args [][]byte) {
	switch len(args) {
	case 1:
		_ = writeSimpleString(conn.bw, "PONG")
	case 2:
		_ = writeBulk(conn.bw, args[1])
	default:
		_ = writeError(conn.bw, "ERR wrong number of arguments for 'PING' command")
	}
}

// ATT.SUBMIT <employee_id>
func (h *CommandHandler) handleAttSubmit(ctx context.Context, conn *Conn, args [][]byte) {
	if !checkArity(conn, args, 2, 2) {
		return
	}
	employeeID, ok := parseID(conn, args[1])
	if !ok {
		return
	}

	rec, err := h.attendance.Submit(ctx, employeeID)
	h.observe("submit_attendance", err)
	if err != nil {
		h.writeServiceError(ctx, conn, err)
		return
	}
	if h.metrics != nil {
		h.metrics.LastAttendanceID.Set(float64(rec.ID))
	}
	h.writeJSON(conn, rec)
}

// ATT.GET <id>
func (h *CommandHandler) handleAttGet(ctx context.Context, conn *Conn, args [][]byte) {
	if !checkArity(conn, args, 2, 2) {
		return
	}
	id, ok := parseID(conn, args[1])
	if !ok {
		return
	}

	rec, err := h.attendance.Get(ctx, id)
	h.observe("get_attendance", err)
	if err != nil {
		h.writeServiceError(ctx, conn, err)
		return
	}
	h.writeJSON(conn, rec)
}

// EMP.ADD <employee_id> <name> [role]
func (h *CommandHandler) handleEmpAdd(ctx context.Context, conn *Conn, args [][]byte) {
	if !checkArity(conn, args, 3, 4) {
		return
	}
	id, ok := parseID(conn, args[1])
	if !ok {
		return
	}

	emp, err := h.employees.Add(ctx, &service.AddEmployeeRequest{
		EmployeeID: id,
		Name:       string(args[2]),
		Role:       optionalArg(args, 3),
	})
	h.observe("add_employee", err)
	if err != nil {
		h.writeServiceError(ctx, conn, err)
		return
	}
	h.writeJSON(conn, emp)
}

// EMP.UPDATE <employee_id> <name> [role]
func (h *CommandHandler) handleEmpUpdate(ctx context.Context, conn *Conn, args [][]byte) {
	if !checkArity(conn, args, 3, 4) {
		return
	}
	id, ok := parseID(conn, args[1])
	if !ok {
		return
	}

	emp, err := h.employees.Update(ctx, &service.UpdateEmployeeRequest{
		EmployeeID: id,
		Name:       string(args[2]),
		Role:       optionalArg(args, 3),
	})
	h.observe("update_employee", err)
	if err != nil {
		h.writeServiceError(ctx, conn, err)
		return
	}
	h.writeJSON(conn, emp)
}

// EMP.GET <employee_id>
func (h *CommandHandler) handleEmpGet(ctx context.Context, conn *Conn, args [][]byte) {
	if !checkArity(conn, args, 2, 2) {
		return
	}
	id, ok := parseID(conn, args[1])
	if !ok {
		return
	}

	emp, err := h.employees.Get(ctx, id)
	h.observe("get_employee", err)
	if err != nil {
		h.writeServiceError(ctx, conn, err)
		return
	}
	h.writeJSON(conn, emp)
}

// writeServiceError writes a null bulk for a missing record and an error
// line for everything else.
func (h *CommandHandler) writeServiceError(ctx context.Context, conn *Conn, err error) {
	if errors.Is(err, domain.ErrAttendanceNotFound) || errors.Is(err, domain.ErrEmployeeNotFound) {
		_ = writeNullBulk(conn.bw)
		return
	}
	if domain.GetErrorCode(err) == "" || errors.Is(err, domain.ErrStorageError) {
		h.logger.ErrorContext(ctx, "redis command failed",
			"remote", conn.RemoteAddr().String(),
			"error", err)
	}
	_ = writeError(conn.bw, formatError(err))
}

func (h *CommandHandler) writeJSON(conn *Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		_ = writeError(conn.bw, formatError(err))
		return
	}
	_ = writeBulk(conn.bw, b)
}

func (h *CommandHandler) observe(op string, err error) {
	if h.metrics != nil {
		h.metrics.ObserveOperation(op, err)
	}
}

// checkArity reports whether len(args) is within [lo, hi], writing the
// standard arity error otherwise.
func checkArity(conn *Conn, args [][]byte, lo, hi int) bool {
	if len(args) < lo || len(args) > hi {
		_ = writeError(conn.bw, "ERR wrong number of arguments for '"+commandName(args[0])+"' command")
		return false
	}
	return true
}

func parseID(conn *Conn, b []byte) (uint64, bool) {
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		_ = writeError(conn.bw, formatError(domain.ErrInvalidArgument))
		return 0, false
	}
	return id, true
}

func optionalArg(args [][]byte, i int) string {
	if i < len(args) {
		return string(args[i])
	}
	return ""
}

func remoteIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/rollcall-go/internal/core/domain"
	"github.com/yndnr/rollcall-go/internal/core/service"
	"github.com/yndnr/rollcall-go/internal/server/admin"
	"github.com/yndnr/rollcall-go/internal/storage"
	"github.com/yndnr/rollcall-go/internal/storage/snapshot"
	"github.com/yndnr/rollcall-go/internal/telemetry/metric"
)

// fakeAdmin implements Admin for testing.
type fakeAdmin struct {
	err     error
	backups []*snapshot.Info
}

func (f *fakeAdmin) Summary(context.Context) (*admin.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &admin.Summary{Status: "running", Storage: &storage.Status{LastAttendanceID: 2}}, nil
}

func (f *fakeAdmin) TriggerGC(context.Context) (*admin.GCResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &admin.GCResult{Rewrites: 1, TriggeredAt: time.Now()}, nil
}

func (f *fakeAdmin) CreateBackup(context.Context) (*snapshot.Info, error) {
	if f.err != nil {
		return nil, f.err
	}
	info := &snapshot.Info{ID: "01TEST", Size: 42}
	f.backups = append(f.backups, info)
	return info, nil
}

func (f *fakeAdmin) ListBackups(context.Context) ([]*snapshot.Info, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.backups, nil
}

type testEnv struct {
	handler *Handler
	metrics *metric.Registry
	admin   *fakeAdmin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := storage.DefaultConfig("")
	cfg.InMemory = true
	engine, err := storage.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { engine.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	reg := metric.NewRegistry()
	fa := &fakeAdmin{}

	h := New(Deps{
		Attendance: service.NewAttendanceService(engine, nil, logger),
		Employees:  service.NewEmployeeService(engine, logger),
		Admin:      fa,
		Metrics:    reg,
		Logger:     logger,
	})
	return &testEnv{handler: h, metrics: reg, admin: fa}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v\n%s", err, w.Body.String())
		}
	}
	return w, resp
}

// decodeData re-decodes the envelope data into v.
func decodeData(t *testing.T, resp Response, v any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatal(err)
	}
}

func TestHandler_Scenario(t *testing.T) {
	env := newTestEnv(t)

	// add_employee(7, "Bob", "Clerk")
	w, resp := env.do(t, http.MethodPost, "/employees", `{"employee_id":7,"name":"Bob","role":"Clerk"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add employee: status %d, body %s", w.Code, w.Body.String())
	}
	if resp.Code != CodeOK {
		t.Errorf("envelope code = %q", resp.Code)
	}

	w, resp = env.do(t, http.MethodGet, "/employees/7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get employee: status %d", w.Code)
	}
	var emp domain.Employee
	decodeData(t, resp, &emp)
	if emp != (domain.Employee{EmployeeID: 7, Name: "Bob", Role: "Clerk"}) {
		t.Errorf("employee = %+v", emp)
	}

	// Two attendance submissions get ids 1 and 2 with non-decreasing time.
	var first, second domain.Attendance
	w, resp = env.do(t, http.MethodPost, "/attendance", `{"employee_id":7}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit attendance: status %d, body %s", w.Code, w.Body.String())
	}
	decodeData(t, resp, &first)
	_, resp = env.do(t, http.MethodPost, "/attendance", `{"employee_id":7}`)
	decodeData(t, resp, &second)

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", first.ID, second.ID)
	}
	if second.Time < first.Time {
		t.Errorf("time went backwards: %d < %d", second.Time, first.Time)
	}
	if got := testutil.ToFloat64(env.metrics.LastAttendanceID); got != 2 {
		t.Errorf("last_attendance_id gauge = %v, want 2", got)
	}

	w, resp = env.do(t, http.MethodGet, "/attendance/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get attendance: status %d", w.Code)
	}
	var got domain.Attendance
	decodeData(t, resp, &got)
	if got != first {
		t.Errorf("get attendance = %+v, want %+v", got, first)
	}

	w, resp = env.do(t, http.MethodGet, "/attendance/999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing attendance: status %d, want 404", w.Code)
	}
	if resp.Code != domain.ErrAttendanceNotFound.Code {
		t.Errorf("missing attendance: code %q", resp.Code)
	}
	if resp.Details != "attendance with ID 999 not found" {
		t.Errorf("missing attendance: details %v", resp.Details)
	}
	if w.Header().Get("X-Error-Code") != domain.ErrAttendanceNotFound.Code {
		t.Errorf("X-Error-Code = %q", w.Header().Get("X-Error-Code"))
	}

	if n := testutil.ToFloat64(env.metrics.Operations.WithLabelValues("submit_attendance", metric.ResultOK)); n != 2 {
		t.Errorf("submit_attendance ok count = %v, want 2", n)
	}
	if n := testutil.ToFloat64(env.metrics.Operations.WithLabelValues("get_attendance", "RC-ATT-4040")); n != 1 {
		t.Errorf("get_attendance not-found count = %v, want 1", n)
	}
}

func TestHandler_UpdateEmployee(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/employees", `{"employee_id":7,"name":"Bob","role":"Clerk"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"put", http.MethodPut, "/employees/7", `{"name":"Robert","role":"Manager"}`, http.StatusOK, CodeOK},
		{"post alias", http.MethodPost, "/employees/7/update", `{"name":"Rob","role":""}`, http.StatusOK, CodeOK},
		{"missing employee", http.MethodPut, "/employees/8", `{"name":"Eve","role":"Clerk"}`, http.StatusNotFound, "RC-EMP-4040"},
		{"blank name", http.MethodPut, "/employees/7", `{"name":"  ","role":"Clerk"}`, http.StatusOK, CodeOK},
		{"missing employee empty name", http.MethodPut, "/employees/999", `{"name":"","role":"x"}`, http.StatusNotFound, "RC-EMP-4040"},
		{"bad id", http.MethodPut, "/employees/abc", `{"name":"Bob"}`, http.StatusBadRequest, "RC-ARG-1001"},
		{"negative id", http.MethodPut, "/employees/-1", `{"name":"Bob"}`, http.StatusBadRequest, "RC-ARG-1001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.do(t, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}

	_, resp := env.do(t, http.MethodGet, "/employees/7", "")
	var emp domain.Employee
	decodeData(t, resp, &emp)
	if emp.Name != "Rob" || emp.Role != "" || emp.EmployeeID != 7 {
		t.Errorf("employee after updates = %+v", emp)
	}

	// A failed update must not create the record.
	w, _ := env.do(t, http.MethodGet, "/employees/8", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("employee 8 should not exist, status %d", w.Code)
	}
}

func TestHandler_AddEmployeeOverwrites(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/employees", `{"employee_id":3,"name":"Ann","role":"Clerk"}`)
	w, _ := env.do(t, http.MethodPost, "/employees", `{"employee_id":3,"name":"Zoë","role":"Lead"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("second add: status %d", w.Code)
	}

	_, resp := env.do(t, http.MethodGet, "/employees/3", "")
	var emp domain.Employee
	decodeData(t, resp, &emp)
	if emp.Name != "Zoë" || emp.Role != "Lead" {
		t.Errorf("employee = %+v, want overwritten record", emp)
	}
}

func TestHandler_AddEmployeeEmptyFields(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/employees", `{"employee_id":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add without name: status %d (%s)", w.Code, w.Body.String())
	}
	w, resp := env.do(t, http.MethodGet, "/employees/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}
	var got domain.Employee
	decodeData(t, resp, &got)
	if got != (domain.Employee{EmployeeID: 1}) {
		t.Errorf("got %+v", got)
	}
}

func TestHandler_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   string
	}{
		{"empty body", http.MethodPost, "/attendance", "", "RC-SYS-4000"},
		{"malformed json", http.MethodPost, "/attendance", `{"employee_id":`, "RC-SYS-4000"},
		{"unknown field", http.MethodPost, "/attendance", `{"employee":1}`, "RC-SYS-4000"},
		{"negative employee id", http.MethodPost, "/attendance", `{"employee_id":-1}`, "RC-SYS-4000"},
		{"missing employee id", http.MethodPost, "/attendance", `{}`, "RC-ARG-1002"},
		{"add missing id", http.MethodPost, "/employees", `{"name":"Bob"}`, "RC-ARG-1002"},
		{"attendance bad id", http.MethodGet, "/attendance/1.5", "", "RC-ARG-1001"},
		{"attendance overflow id", http.MethodGet, "/attendance/18446744073709551616", "", "RC-ARG-1001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.do(t, tt.method, tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", w.Code, w.Body.String())
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestHandler_MaxEmployeeID(t *testing.T) {
	env := newTestEnv(t)
	w, _ := env.do(t, http.MethodPost, "/employees", `{"employee_id":18446744073709551615,"name":"Max"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	w, _ = env.do(t, http.MethodGet, "/employees/18446744073709551615", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestHandler_Health(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/ready"} {
		w, resp := env.do(t, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, w.Code)
		}
		var hr HealthResponse
		decodeData(t, resp, &hr)
		if hr.Status == "" || hr.Time == "" {
			t.Errorf("%s: response %+v", path, hr)
		}
	}

	env.handler.ready = func(context.Context) error { return errors.New("storage closed") }
	w, resp := env.do(t, http.MethodGet, "/ready", "")
	if w.Code != http.StatusServiceUnavailable || resp.Code != "RC-SYS-5030" {
		t.Errorf("not ready: status %d code %q", w.Code, resp.Code)
	}
}

func TestHandler_Admin(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/admin/v1/status/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status summary: %d", w.Code)
	}
	var sum admin.Summary
	decodeData(t, resp, &sum)
	if sum.Status != "running" || sum.Storage == nil || sum.Storage.LastAttendanceID != 2 {
		t.Errorf("summary = %+v", sum)
	}

	if w, _ := env.do(t, http.MethodPost, "/admin/v1/gc/trigger", ""); w.Code != http.StatusOK {
		t.Errorf("gc trigger: status %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodPost, "/admin/v1/backups/snapshots", ""); w.Code != http.StatusCreated {
		t.Errorf("create backup: status %d", w.Code)
	}
	w, resp = env.do(t, http.MethodGet, "/admin/v1/backups/snapshots", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list backups: status %d", w.Code)
	}
	var infos []snapshot.Info
	decodeData(t, resp, &infos)
	if len(infos) != 1 || infos[0].ID != "01TEST" {
		t.Errorf("backups = %+v", infos)
	}

	env.admin.err = domain.ErrBackupUnavailable.WithDetails("backups are not configured")
	w, resp = env.do(t, http.MethodPost, "/admin/v1/backups/snapshots", "")
	if w.Code != http.StatusConflict || resp.Code != "RC-ADMIN-4091" {
		t.Errorf("unavailable backup: status %d code %q", w.Code, resp.Code)
	}

	env.admin.err = errors.New("disk on fire")
	w, resp = env.do(t, http.MethodPost, "/admin/v1/gc/trigger", "")
	if w.Code != http.StatusInternalServerError || resp.Code != "RC-SYS-5000" {
		t.Errorf("plain error: status %d code %q", w.Code, resp.Code)
	}
	if strings.Contains(w.Body.String(), "disk on fire") {
		t.Error("internal error text must not leak to clients")
	}
}

func TestHandler_AdminDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.handler.admin = nil

	w, resp := env.do(t, http.MethodGet, "/admin/v1/status/summary", "")
	if w.Code != http.StatusServiceUnavailable || resp.Code != "RC-SYS-5030" {
		t.Errorf("status %d code %q", w.Code, resp.Code)
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{"RC-ATT-4040", http.StatusNotFound},
		{"RC-EMP-4040", http.StatusNotFound},
		{"RC-ADMIN-4041", http.StatusNotFound},
		{"RC-EMP-4090", http.StatusConflict},
		{"RC-ADMIN-4091", http.StatusConflict},
		{"RC-EMP-4001", http.StatusBadRequest},
		{"RC-SYS-4000", http.StatusBadRequest},
		{"RC-ARG-1001", http.StatusBadRequest},
		{"RC-ARG-1002", http.StatusBadRequest},
		{"RC-SYS-4290", http.StatusTooManyRequests},
		{"RC-SYS-5030", http.StatusServiceUnavailable},
		{"RC-SYS-5001", http.StatusInternalServerError},
		{"RC-SYS-5000", http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ErrorCodeToHTTPStatus(tt.code); got != tt.status {
				t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.status)
			}
		})
	}
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/rollcall-go/internal/core/domain"
	"github.com/yndnr/rollcall-go/internal/core/service"
	"github.com/yndnr/rollcall-go/internal/storage/snapshot"
)

func openTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	cfg := DefaultConfig(dir)
	cfg.KV.Badger.GCInterval = time.Hour
	e, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/data")
	if cfg.KV.Dir != "/data/kv" {
		t.Errorf("KV.Dir = %q, want /data/kv", cfg.KV.Dir)
	}
	if !cfg.KV.Badger.SyncWrites {
		t.Error("SyncWrites should default to true")
	}
}

func TestOpen_RequiresDataDir(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("expected error without data dir")
	}
}

func TestOpen_WarnsWithoutSyncWrites(t *testing.T) {
	tests := []struct {
		name       string
		syncWrites bool
		wantWarn   bool
	}{
		{"sync", true, false},
		{"no sync", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := DefaultConfig(t.TempDir())
			cfg.KV.Badger.GCInterval = time.Hour
			cfg.KV.Badger.SyncWrites = tt.syncWrites
			cfg.Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

			e, err := Open(cfg)
			if err != nil {
				t.Fatal(err)
			}
			defer e.Close()

			if got := strings.Contains(buf.String(), "sync_writes disabled"); got != tt.wantWarn {
				t.Errorf("warning logged = %v, want %v (log: %s)", got, tt.wantWarn, buf.String())
			}
		})
	}
}

// TestEngine_Scenario walks the attendance and employee flow end to end.
func TestEngine_Scenario(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t, t.TempDir())
	defer e.Close()

	employees := service.NewEmployeeService(e, slog.Default())
	attendance := service.NewAttendanceService(e, nil, slog.Default())

	bob, err := employees.Add(ctx, &service.AddEmployeeRequest{EmployeeID: 7, Name: "Bob", Role: "Clerk"})
	if err != nil {
		t.Fatal(err)
	}
	if bob != (domain.Employee{EmployeeID: 7, Name: "Bob", Role: "Clerk"}) {
		t.Errorf("Add() = %+v", bob)
	}

	a1, err := attendance.Submit(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := attendance.Submit(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if a1.ID != 1 || a2.ID != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", a1.ID, a2.ID)
	}
	if a2.Time < a1.Time {
		t.Errorf("time went backwards: %d then %d", a1.Time, a2.Time)
	}

	got, err := attendance.Get(ctx, a1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != a1 {
		t.Errorf("Get(%d) = %+v, want %+v", a1.ID, got, a1)
	}

	if _, err := attendance.Get(ctx, 999); !errors.Is(err, domain.ErrAttendanceNotFound) {
		t.Errorf("expected ErrAttendanceNotFound, got %v", err)
	}

	updated, err := employees.Update(ctx, &service.UpdateEmployeeRequest{EmployeeID: 7, Name: "Robert", Role: "Manager"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.EmployeeID != 7 || updated.Name != "Robert" {
		t.Errorf("Update() = %+v", updated)
	}

	if _, err := employees.Update(ctx, &service.UpdateEmployeeRequest{EmployeeID: 8, Name: "Nobody"}); !errors.Is(err, domain.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}
	if _, ok, _ := e.GetEmployee(ctx, 8); ok {
		t.Error("failed update must not create a record")
	}

	st, err := e.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.LastAttendanceID != 2 || st.AttendanceCount != 2 || st.EmployeeCount != 1 {
		t.Errorf("Status() = %+v", st)
	}
	if st.InMemory || st.KV == nil {
		t.Errorf("expected durable status with kv stats, got %+v", st)
	}
}

func TestEngine_Restart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	e := openTestEngine(t, dir)
	first, err := e.CreateAttendance(ctx, domain.NewAttendance(1, 100))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.PutEmployee(ctx, domain.Employee{EmployeeID: 1, Name: "Zoë", Role: "経理"}); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	e = openTestEngine(t, dir)
	defer e.Close()

	got, ok, err := e.GetAttendance(ctx, first.ID)
	if err != nil || !ok {
		t.Fatalf("GetAttendance after restart: ok=%v err=%v", ok, err)
	}
	if got != first {
		t.Errorf("expected %+v, got %+v", first, got)
	}

	emp, ok, err := e.GetEmployee(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("GetEmployee after restart: ok=%v err=%v", ok, err)
	}
	if emp.Name != "Zoë" || emp.Role != "経理" {
		t.Errorf("multi-byte fields not preserved: %+v", emp)
	}

	second, err := e.CreateAttendance(ctx, domain.NewAttendance(1, 200))
	if err != nil {
		t.Fatal(err)
	}
	if second.ID <= first.ID {
		t.Errorf("id after restart %d must exceed %d", second.ID, first.ID)
	}
}

func TestEngine_InMemory(t *testing.T) {
	ctx := context.Background()
	e, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if e.Durable() {
		t.Error("in-memory engine reports durable")
	}

	a, err := e.CreateAttendance(ctx, domain.NewAttendance(3, 1))
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != 1 {
		t.Errorf("first id = %d, want 1", a.ID)
	}

	if _, err := e.GC(ctx); !errors.Is(err, ErrNotDurable) {
		t.Errorf("GC: expected ErrNotDurable, got %v", err)
	}
	if _, err := e.Backup(ctx, nil); !errors.Is(err, ErrNotDurable) {
		t.Errorf("Backup: expected ErrNotDurable, got %v", err)
	}

	st, err := e.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !st.InMemory || st.KV != nil {
		t.Errorf("Status() = %+v", st)
	}
}

func TestEngine_BackupRestore(t *testing.T) {
	ctx := context.Background()

	src := openTestEngine(t, t.TempDir())
	defer src.Close()

	for i := uint64(1); i <= 3; i++ {
		if _, err := src.CreateAttendance(ctx, domain.NewAttendance(i, i*10)); err != nil {
			t.Fatal(err)
		}
	}
	if err := src.PutEmployee(ctx, domain.Employee{EmployeeID: 5, Name: "Ann"}); err != nil {
		t.Fatal(err)
	}

	counts, err := src.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["attendance"] != 3 || counts["employee"] != 1 {
		t.Errorf("Counts() = %v", counts)
	}

	cfg := snapshot.DefaultConfig(t.TempDir())
	cfg.Passphrase = []byte("backup passphrase")
	mgr, err := snapshot.NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}

	info, err := mgr.Create(ctx, src, counts)
	if err != nil {
		t.Fatal(err)
	}

	dst := openTestEngine(t, t.TempDir())
	defer dst.Close()

	if err := mgr.Restore(ctx, info, dst); err != nil {
		t.Fatal(err)
	}

	st, err := dst.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.LastAttendanceID != 3 || st.AttendanceCount != 3 || st.EmployeeCount != 1 {
		t.Errorf("restored status = %+v", st)
	}

	// The restored counter continues where the source stopped.
	next, err := dst.CreateAttendance(ctx, domain.NewAttendance(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != 4 {
		t.Errorf("next id after restore = %d, want 4", next.ID)
	}

	if err := mgr.Restore(ctx, info, dst); err == nil {
		t.Error("restore into a non-empty engine should fail")
	}
}

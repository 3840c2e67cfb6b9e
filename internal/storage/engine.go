package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/yndnr/rollcall-go/internal/core/domain"
	"github.com/yndnr/rollcall-go/internal/core/service"
	"github.com/yndnr/rollcall-go/internal/storage/idalloc"
	"github.com/yndnr/rollcall-go/internal/storage/memory"
	"github.com/yndnr/rollcall-go/internal/storage/record"
	"github.com/yndnr/rollcall-go/internal/storage/segment"
)

// DefaultKVDir is the Badger directory under Config.DataDir.
const DefaultKVDir = "kv"

// ErrNotDurable is returned by operations that need the on-disk engine when
// the engine runs in memory.
var ErrNotDurable = errors.New("storage: operation requires durable storage")

// Config configures the storage engine.
type Config struct {
	// DataDir is the base directory for all storage files.
	DataDir string

	// InMemory keeps all data in memory. Nothing survives a restart.
	InMemory bool

	// KV configures the Badger engine. KV.Dir defaults to DataDir/kv.
	KV KVConfig

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir: dataDir,
		KV:      DefaultKVConfig(filepath.Join(dataDir, DefaultKVDir)),
		Logger:  slog.Default(),
	}
}

// Engine is the storage context shared by the services.
type Engine struct {
	provider segment.Provider
	kv       *BadgerEngine // nil in memory mode

	ids        *idalloc.Allocator
	attendance *record.Store[domain.Attendance]
	employees  *record.Store[domain.Employee]

	logger *slog.Logger
}

// Compile-time interface checks.
var (
	_ service.AttendanceRepository = (*Engine)(nil)
	_ service.EmployeeRepository   = (*Engine)(nil)
)

// Open opens the storage engine. Existing data in the data directory is
// picked up as is.
func Open(cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var (
		provider segment.Provider
		kv       *BadgerEngine
	)
	if cfg.InMemory {
		provider = memory.New()
		cfg.Logger.Warn("storage running in memory, data will not survive restart")
	} else {
		if cfg.DataDir == "" && cfg.KV.Dir == "" {
			return nil, fmt.Errorf("storage: data_dir is required")
		}
		if cfg.KV.Dir == "" {
			cfg.KV.Dir = filepath.Join(cfg.DataDir, DefaultKVDir)
		}
		if cfg.KV.Badger == (BadgerConfig{}) {
			cfg.KV.Badger = DefaultBadgerConfig()
		}
		if !cfg.KV.Badger.SyncWrites {
			cfg.Logger.Warn("storage sync_writes disabled, attendance ids issued just before a crash may be issued again",
				"dir", cfg.KV.Dir)
		}
		var err error
		kv, err = NewBadgerEngine(cfg.KV, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		provider = kv
	}

	engine, err := newEngine(provider, cfg.Logger)
	if err != nil {
		provider.Close()
		return nil, err
	}
	engine.kv = kv
	return engine, nil
}

func newEngine(provider segment.Provider, logger *slog.Logger) (*Engine, error) {
	counter, err := provider.Segment(segment.HandleIDCounter)
	if err != nil {
		return nil, fmt.Errorf("storage: counter segment: %w", err)
	}
	attRegion, err := provider.Segment(segment.HandleAttendance)
	if err != nil {
		return nil, fmt.Errorf("storage: attendance segment: %w", err)
	}
	empRegion, err := provider.Segment(segment.HandleEmployee)
	if err != nil {
		return nil, fmt.Errorf("storage: employee segment: %w", err)
	}

	ids := idalloc.New(counter, idalloc.SlotAttendance)

	attendance, err := record.New(record.Config[domain.Attendance]{
		Name:      "attendance",
		Region:    attRegion,
		Policy:    record.Allocated,
		Sequencer: ids,
	})
	if err != nil {
		return nil, err
	}

	employees, err := record.New(record.Config[domain.Employee]{
		Name:   "employee",
		Region: empRegion,
		Policy: record.Supplied,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		provider:   provider,
		ids:        ids,
		attendance: attendance,
		employees:  employees,
		logger:     logger,
	}, nil
}

// ============================================================================
// Repository operations
// ============================================================================

// CreateAttendance allocates an id for a and stores it.
func (e *Engine) CreateAttendance(ctx context.Context, a domain.Attendance) (domain.Attendance, error) {
	return e.attendance.Insert(ctx, a)
}

// GetAttendance returns the attendance event with the given id.
func (e *Engine) GetAttendance(ctx context.Context, id uint64) (domain.Attendance, bool, error) {
	return e.attendance.Get(ctx, id)
}

// PutEmployee stores emp under its EmployeeID, replacing any existing record.
func (e *Engine) PutEmployee(ctx context.Context, emp domain.Employee) error {
	_, err := e.employees.Insert(ctx, emp)
	return err
}

// GetEmployee returns the employee with the given id.
func (e *Engine) GetEmployee(ctx context.Context, id uint64) (domain.Employee, bool, error) {
	return e.employees.Get(ctx, id)
}

// ============================================================================
// Administration
// ============================================================================

// Status summarizes the engine state.
type Status struct {
	InMemory         bool     `json:"in_memory"`
	LastAttendanceID uint64   `json:"last_attendance_id"`
	AttendanceCount  int      `json:"attendance_count"`
	EmployeeCount    int      `json:"employee_count"`
	KV               *KVStats `json:"kv,omitempty"`
}

// Status returns counters and storage statistics.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	last, err := e.ids.Current(ctx)
	if err != nil {
		return nil, err
	}
	attCount, err := e.attendance.Count(ctx)
	if err != nil {
		return nil, err
	}
	empCount, err := e.employees.Count(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		InMemory:         e.kv == nil,
		LastAttendanceID: last,
		AttendanceCount:  attCount,
		EmployeeCount:    empCount,
	}
	if e.kv != nil {
		if st.KV, err = e.kv.Stats(ctx); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Counts returns the number of records per store.
func (e *Engine) Counts(ctx context.Context) (map[string]int64, error) {
	attCount, err := e.attendance.Count(ctx)
	if err != nil {
		return nil, err
	}
	empCount, err := e.employees.Count(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int64{
		"attendance": int64(attCount),
		"employee":   int64(empCount),
	}, nil
}

// Durable reports whether data is persisted to disk.
func (e *Engine) Durable() bool {
	return e.kv != nil
}

// GC runs value log garbage collection.
func (e *Engine) GC(ctx context.Context) (uint64, error) {
	if e.kv == nil {
		return 0, ErrNotDurable
	}
	return e.kv.GC(ctx)
}

// KV returns the Badger engine, or nil in memory mode.
func (e *Engine) KV() *BadgerEngine {
	return e.kv
}

// Backup streams a full backup to w.
func (e *Engine) Backup(ctx context.Context, w io.Writer) (uint64, error) {
	if e.kv == nil {
		return 0, ErrNotDurable
	}
	return e.kv.Backup(ctx, w)
}

// Load restores a backup stream. The engine must be empty.
func (e *Engine) Load(ctx context.Context, r io.Reader) error {
	if e.kv == nil {
		return ErrNotDurable
	}
	empty, err := e.kv.IsEmpty()
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("storage: refusing to restore into a non-empty data directory")
	}
	return e.kv.Load(ctx, r)
}

// Close closes the underlying provider.
func (e *Engine) Close() error {
	return e.provider.Close()
}

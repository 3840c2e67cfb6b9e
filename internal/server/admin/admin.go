// Package admin implements the operator actions shared by the HTTP admin
// API and rollcall-cli: status summary, storage GC and backups.
package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/yndnr/rollcall-go/internal/core/domain"
	"github.com/yndnr/rollcall-go/internal/infra/buildinfo"
	"github.com/yndnr/rollcall-go/internal/storage"
	"github.com/yndnr/rollcall-go/internal/storage/snapshot"
	"github.com/yndnr/rollcall-go/internal/telemetry/metric"
)

// Engine is the subset of *storage.Engine the admin actions need.
type Engine interface {
	Status(ctx context.Context) (*storage.Status, error)
	Counts(ctx context.Context) (map[string]int64, error)
	GC(ctx context.Context) (uint64, error)
	Backup(ctx context.Context, w io.Writer) (uint64, error)
}

// Summary is the payload of the status endpoint.
type Summary struct {
	Status        string          `json:"status" yaml:"status"`
	Build         buildinfo.Info  `json:"build" yaml:"build"`
	StartedAt     time.Time       `json:"started_at" yaml:"started_at"`
	UptimeSeconds int64           `json:"uptime_seconds" yaml:"uptime_seconds"`
	Storage       *storage.Status `json:"storage" yaml:"storage"`
	Backups       int             `json:"backups" yaml:"backups"`
}

// GCResult is the payload of the GC trigger endpoint.
type GCResult struct {
	Rewrites    uint64    `json:"rewrites" yaml:"rewrites"`
	TriggeredAt time.Time `json:"triggered_at" yaml:"triggered_at"`
}

// Backend runs admin actions against the storage engine.
type Backend struct {
	engine  Engine
	backups *snapshot.Manager // nil when backups are not configured
	metrics *metric.Registry  // optional
	logger  *slog.Logger
	started time.Time
}

// New creates a Backend. backups and metrics may be nil.
func New(engine Engine, backups *snapshot.Manager, metrics *metric.Registry, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		engine:  engine,
		backups: backups,
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}
}

// Summary reports build info, uptime and storage counters.
func (b *Backend) Summary(ctx context.Context) (*Summary, error) {
	st, err := b.engine.Status(ctx)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	if b.metrics != nil {
		b.metrics.LastAttendanceID.Set(float64(st.LastAttendanceID))
	}

	sum := &Summary{
		Status:        "running",
		Build:         buildinfo.Get(),
		StartedAt:     b.started.UTC(),
		UptimeSeconds: int64(time.Since(b.started).Seconds()),
		Storage:       st,
	}
	if b.backups != nil {
		infos, err := b.backups.List()
		if err != nil {
			b.logger.WarnContext(ctx, "listing backups for status failed", "error", err)
		}
		sum.Backups = len(infos)
	}
	return sum, nil
}

// TriggerGC runs value log GC now.
func (b *Backend) TriggerGC(ctx context.Context) (*GCResult, error) {
	rewrites, err := b.engine.GC(ctx)
	if errors.Is(err, storage.ErrNotDurable) {
		return nil, domain.ErrServiceUnavailable.WithDetails("gc requires durable storage")
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "gc failed", "error", err)
		return nil, domain.ErrStorageError.WithCause(err)
	}
	b.logger.InfoContext(ctx, "gc triggered", "rewrites", rewrites)
	return &GCResult{Rewrites: rewrites, TriggeredAt: time.Now().UTC()}, nil
}

// CreateBackup writes a new backup of the whole store.
func (b *Backend) CreateBackup(ctx context.Context) (*snapshot.Info, error) {
	if b.backups == nil {
		return nil, domain.ErrBackupUnavailable.WithDetails("backups are not configured")
	}
	counts, err := b.engine.Counts(ctx)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}

	info, err := b.backups.Create(ctx, b.engine, counts)
	if errors.Is(err, storage.ErrNotDurable) {
		return nil, domain.ErrBackupUnavailable.WithDetails("backups require durable storage")
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "backup failed", "error", err)
		return nil, domain.ErrStorageError.WithCause(err)
	}
	if b.metrics != nil {
		b.metrics.BackupsCreated.Inc()
	}
	return info, nil
}

// ListBackups returns the available backups, oldest first.
func (b *Backend) ListBackups(ctx context.Context) ([]*snapshot.Info, error) {
	if b.backups == nil {
		return nil, domain.ErrBackupUnavailable.WithDetails("backups are not configured")
	}
	infos, err := b.backups.List()
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	if infos == nil {
		infos = []*snapshot.Info{}
	}
	return infos, nil
}

// Package storage provides the Badger-backed segment provider.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/rollcall-go/internal/storage/segment"
)

// BadgerEngine implements segment.Provider on a single Badger database.
//
// Every key is stored as [handle byte][segment key], so segments occupy
// disjoint key ranges and each one is ordered on its own.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	// Metrics (internal counters)
	lastGCTime atomic.Int64  // Unix milliseconds
	gcRuns     atomic.Uint64 // Value log files rewritten by GC

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsTotalSize    prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	// Shutdown
	closed    atomic.Bool
	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

var _ segment.Provider = (*BadgerEngine)(nil)

// NewBadgerEngine opens (or creates) the Badger database in cfg.Dir.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}

	badgerCfg := cfg.Badger
	opts.BlockCacheSize = badgerCfg.CacheSize
	opts.ValueLogFileSize = badgerCfg.ValueLogFileSize
	opts.NumMemtables = badgerCfg.NumMemtables
	opts.NumLevelZeroTables = badgerCfg.NumLevelZeroTables
	opts.NumLevelZeroTablesStall = badgerCfg.NumLevelZeroTablesStall
	opts.SyncWrites = badgerCfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    badgerCfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go engine.gcLoop()

	logger.Info("badger engine started",
		"dir", cfg.Dir,
		"cache_size", badgerCfg.CacheSize,
		"sync_writes", badgerCfg.SyncWrites,
		"gc_interval", badgerCfg.GCInterval)

	return engine, nil
}

// Segment returns the region for handle h.
func (e *BadgerEngine) Segment(h segment.Handle) (segment.Region, error) {
	if e.closed.Load() {
		return nil, segment.ErrClosed
	}
	return &badgerRegion{engine: e, prefix: []byte{byte(h)}}, nil
}

// Backup streams a full backup of the database to w.
// Returns the version up to which the backup is consistent.
func (e *BadgerEngine) Backup(ctx context.Context, w io.Writer) (uint64, error) {
	if e.closed.Load() {
		return 0, segment.ErrClosed
	}
	version, err := e.db.Backup(w, 0)
	if err != nil {
		return 0, fmt.Errorf("badger: backup: %w", err)
	}
	return version, nil
}

// Load restores entries from a backup stream produced by Backup.
//
// Existing keys present in the backup are overwritten; the engine is meant to
// be empty when restoring.
func (e *BadgerEngine) Load(ctx context.Context, r io.Reader) error {
	if e.closed.Load() {
		return segment.ErrClosed
	}
	if err := e.db.Load(r, 256); err != nil {
		return fmt.Errorf("badger: load: %w", err)
	}
	e.logger.Info("backup loaded")
	return nil
}

// IsEmpty reports whether the database holds no keys.
func (e *BadgerEngine) IsEmpty() (bool, error) {
	empty := true
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Rewind()
		empty = !it.Valid()
		return nil
	})
	return empty, err
}

// GC runs value log garbage collection until nothing more can be rewritten.
// Returns the number of value log files rewritten.
func (e *BadgerEngine) GC(ctx context.Context) (uint64, error) {
	startTime := time.Now()

	var runs uint64
	for {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRuns.Add(runs)
	if e.metricsGCRuns != nil {
		e.metricsGCRuns.Add(float64(runs))
	}

	e.logger.Info("gc completed",
		"rewrites", runs,
		"elapsed", time.Since(startTime))

	return runs, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats(ctx context.Context) (*KVStats, error) {
	if e.closed.Load() {
		return nil, segment.ErrClosed
	}
	lsm, vlog := e.db.Size()

	return &KVStats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
		GCRuns:       e.gcRuns.Load(),
	}, nil
}

// Close stops background work and closes the database.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.logger.Info("shutting down badger engine")
		e.closed.Store(true)

		close(e.stopCh)
		<-e.doneCh

		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
			return
		}
		e.logger.Info("badger engine shutdown complete")
	})
	return err
}

// RegisterMetrics registers Badger metrics with Prometheus.
//
// This should be called once during initialization.
// Returns the engine for method chaining.
func (e *BadgerEngine) RegisterMetrics(registry prometheus.Registerer) *BadgerEngine {
	e.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rollcall",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})

	e.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rollcall",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})

	e.metricsTotalSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rollcall",
		Subsystem: "badger",
		Name:      "total_size_bytes",
		Help:      "Badger total storage size in bytes (LSM + value log)",
	})

	e.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rollcall",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})

	e.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rollcall",
		Subsystem: "badger",
		Name:      "gc_rewrites_total",
		Help:      "Total value log files rewritten by Badger garbage collection",
	})

	registry.MustRegister(
		e.metricsLSMSize,
		e.metricsValueLogSize,
		e.metricsTotalSize,
		e.metricsLastGCTime,
		e.metricsGCRuns,
	)

	e.updateMetrics()
	go e.metricsUpdateLoop()

	return e
}

func (e *BadgerEngine) updateMetrics() {
	stats, err := e.Stats(context.Background())
	if err != nil {
		return
	}

	e.metricsLSMSize.Set(float64(stats.LSMSize))
	e.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	e.metricsTotalSize.Set(float64(stats.TotalSize))
	if stats.LastGCTime > 0 {
		e.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
	}
}

// metricsUpdateLoop periodically updates Prometheus metrics.
func (e *BadgerEngine) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.updateMetrics()
		case <-e.stopCh:
			return
		}
	}
}

// gcLoop runs periodic garbage collection.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	interval := e.cfg.GCInterval
	if interval <= 0 {
		interval = DefaultBadgerConfig().GCInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := e.GC(ctx); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// badgerRegion is the segment view for one handle.
type badgerRegion struct {
	engine *BadgerEngine
	prefix []byte
}

func (r *badgerRegion) fullKey(key []byte) []byte {
	out := make([]byte, 0, len(r.prefix)+len(key))
	out = append(out, r.prefix...)
	return append(out, key...)
}

func (r *badgerRegion) Get(ctx context.Context, key []byte) ([]byte, error) {
	if r.engine.closed.Load() {
		return nil, segment.ErrClosed
	}

	var value []byte
	err := r.engine.db.View(func(txn *badger.Txn) error {
		var err error
		value, err = getValue(txn, r.fullKey(key))
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *badgerRegion) Set(ctx context.Context, key, value []byte) error {
	if r.engine.closed.Load() {
		return segment.ErrClosed
	}
	return r.engine.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.fullKey(key), value)
	})
}

func (r *badgerRegion) Update(ctx context.Context, fn func(txn segment.Txn) error) error {
	if r.engine.closed.Load() {
		return segment.ErrClosed
	}
	return r.engine.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn, region: r})
	})
}

func (r *badgerRegion) Scan(ctx context.Context, fn func(key, value []byte) bool) error {
	if r.engine.closed.Load() {
		return segment.ErrClosed
	}
	return r.engine.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = r.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := bytes.TrimPrefix(item.KeyCopy(nil), r.prefix)
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			if !fn(key, value) {
				break
			}
		}
		return nil
	})
}

func (r *badgerRegion) Count(ctx context.Context) (int, error) {
	if r.engine.closed.Load() {
		return 0, segment.ErrClosed
	}

	count := 0
	err := r.engine.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = r.prefix
		opts.PrefetchValues = false // Only need keys
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// badgerTxn adapts a Badger transaction to segment.Txn.
type badgerTxn struct {
	txn    *badger.Txn
	region *badgerRegion
}

func (t *badgerTxn) Get(key []byte) ([]byte, error) {
	return getValue(t.txn, t.region.fullKey(key))
}

func (t *badgerTxn) Set(key, value []byte) error {
	return t.txn.Set(t.region.fullKey(key), value)
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, segment.ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

package storage

import "time"

// KVStats reports Badger disk usage and GC activity.
type KVStats struct {
	TotalSize    uint64 `json:"total_size"`
	LSMSize      uint64 `json:"lsm_size"`
	ValueLogSize uint64 `json:"value_log_size"`

	// LastGCTime is Unix milliseconds; zero until the first rewrite.
	LastGCTime int64  `json:"last_gc_time"`
	GCRuns     uint64 `json:"gc_runs"`
}

// KVConfig locates and tunes the Badger database.
type KVConfig struct {
	Dir    string
	Badger BadgerConfig
}

// BadgerConfig holds the Badger options rollcall exposes.
type BadgerConfig struct {
	// GCInterval is the period of the value log GC loop.
	GCInterval time.Duration

	// GCThreshold is the discard ratio a value log file must reach before
	// it is rewritten, in (0, 1).
	GCThreshold float64

	CacheSize               int64
	ValueLogFileSize        int64
	NumMemtables            int
	NumLevelZeroTables      int
	NumLevelZeroTablesStall int

	// SyncWrites fsyncs every commit before it returns. The allocator
	// depends on it: an id handed out by Next must survive a crash.
	SyncWrites bool
}

// DefaultKVConfig returns the default configuration for a database in dir.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the defaults. Record values are at most
// record.MaxRecordSize bytes, so the memtable and value log sizes sit well below
// Badger's own defaults.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:              10 * time.Minute,
		GCThreshold:             0.5,
		CacheSize:               64 << 20,
		ValueLogFileSize:        256 << 20,
		NumMemtables:            2,
		NumLevelZeroTables:      5,
		NumLevelZeroTablesStall: 10,
		SyncWrites:              true,
	}
}

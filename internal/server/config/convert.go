package config

import (
	"log/slog"
	"path/filepath"

	"github.com/yndnr/rollcall-go/internal/storage"
	"github.com/yndnr/rollcall-go/internal/storage/snapshot"
)

// DefaultBackupSubdir is the backup directory under storage.data_dir.
const DefaultBackupSubdir = "backups"

// StorageConfig translates the storage section for storage.Open.
func (c *ServerConfig) StorageConfig(logger *slog.Logger) storage.Config {
	sc := storage.DefaultConfig(c.Storage.DataDir)
	sc.InMemory = c.Storage.InMemory
	sc.Logger = logger

	b := &sc.KV.Badger
	b.SyncWrites = c.Storage.SyncWrites
	if c.Storage.GCInterval > 0 {
		b.GCInterval = c.Storage.GCInterval
	}
	if c.Storage.GCThreshold > 0 {
		b.GCThreshold = c.Storage.GCThreshold
	}
	if c.Storage.CacheSize > 0 {
		b.CacheSize = c.Storage.CacheSize
	}
	return sc
}

// BackupDir returns the configured backup directory.
func (c *ServerConfig) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.Storage.DataDir, DefaultBackupSubdir)
}

// SnapshotConfig translates the backup section for snapshot.NewManager.
func (c *ServerConfig) SnapshotConfig(logger *slog.Logger) snapshot.Config {
	sc := snapshot.DefaultConfig(c.BackupDir())
	sc.RetentionCount = c.Backup.Keep
	sc.RetentionDays = c.Backup.RetentionDays
	sc.Suite = c.Backup.Suite
	sc.Logger = logger
	if c.Backup.Passphrase != "" {
		sc.Passphrase = []byte(c.Backup.Passphrase)
	}
	return sc
}

package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rollcall-go/internal/storage"
	"github.com/yndnr/rollcall-go/internal/storage/snapshot"
)

// restore loads a backup into the configured data directory. The server
// must not be running; Badger holds an exclusive lock on the directory.
func restore(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"), flagOverrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.InMemory {
		return errors.New("restore needs a durable data directory")
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	backups, err := snapshot.NewManager(cfg.SnapshotConfig(log))
	if err != nil {
		return fmt.Errorf("init backups: %w", err)
	}

	var info *snapshot.Info
	if id := c.String("snapshot"); id != "" {
		info, err = backups.Get(id)
	} else {
		info, err = backups.Latest()
	}
	if err != nil {
		return fmt.Errorf("find backup: %w", err)
	}

	engine, err := storage.Open(cfg.StorageConfig(log))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer engine.Close()

	if err := backups.Restore(c.Context, info, engine); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "restored backup %s (%d attendance, %d employees)\n",
		info.ID, info.Counts["attendance"], info.Counts["employee"])
	return err
}

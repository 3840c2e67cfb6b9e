package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/yndnr/rollcall-go/internal/storage/snapshot"
	"github.com/yndnr/rollcall-go/internal/telemetry/logger"
	"github.com/yndnr/rollcall-go/pkg/crypto/adaptive"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyBackup(&cfg.Backup); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "json", "text", "console", "":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		return err
	}
	if err := verifyRate("server.http", cfg.HTTP.RateLimit, cfg.HTTP.RateBurst); err != nil {
		return err
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and server.http.tls_key_file must be set together")
	}
	if !cfg.Redis.Enabled {
		return nil
	}
	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		return err
	}
	if cfg.Redis.Addr == cfg.HTTP.Addr {
		return fmt.Errorf("server.redis.addr conflicts with server.http.addr (%s)", cfg.Redis.Addr)
	}
	return verifyRate("server.redis", cfg.Redis.RateLimit, cfg.Redis.RateBurst)
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func verifyRate(key string, limit float64, burst int) error {
	if limit < 0 {
		return fmt.Errorf("%s.rate_limit must not be negative", key)
	}
	if limit > 0 && burst < 1 {
		return fmt.Errorf("%s.rate_burst must be at least 1 when rate limiting is enabled", key)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.InMemory {
		return nil
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		return fmt.Errorf("storage.gc_threshold must be in (0, 1), got %v", cfg.GCThreshold)
	}
	if cfg.GCInterval <= 0 {
		return errors.New("storage.gc_interval must be positive")
	}
	if cfg.CacheSize < 0 {
		return errors.New("storage.cache_size must not be negative")
	}
	return nil
}

func verifyBackup(cfg *BackupSection) error {
	if cfg.Keep < 1 {
		return errors.New("backup.keep must be at least 1")
	}
	if cfg.Passphrase != "" && len(cfg.Passphrase) < snapshot.MinPassphraseLength {
		return fmt.Errorf("backup.passphrase must be at least %d characters", snapshot.MinPassphraseLength)
	}
	if _, err := adaptive.ParseSuite(cfg.Suite); err != nil {
		return fmt.Errorf("backup.suite: %w", err)
	}
	return nil
}

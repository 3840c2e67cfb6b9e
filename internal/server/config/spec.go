package config

import "time"

// ServerConfig is the root configuration for rollcall-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server" yaml:"server"`
	Storage StorageSection `koanf:"storage" yaml:"storage"`
	Backup  BackupSection  `koanf:"backup" yaml:"backup"`
	Log     LogSection     `koanf:"log" yaml:"log"`
}

// ServerSection configures the network endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http" yaml:"http"`
	Redis RedisConfig `koanf:"redis" yaml:"redis"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr         string        `koanf:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout"`

	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst"`

	// TLSCertFile and TLSKeyFile switch the listener to HTTPS when both are set.
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file"`
}

// RedisConfig configures the RESP command port.
type RedisConfig struct {
	Enabled     bool          `koanf:"enabled" yaml:"enabled"`
	Addr        string        `koanf:"addr" yaml:"addr"`
	IdleTimeout time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`
	RateLimit   float64       `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst   int           `koanf:"rate_burst" yaml:"rate_burst"`
}

// StorageSection configures the record store.
type StorageSection struct {
	DataDir string `koanf:"data_dir" yaml:"data_dir"`

	// InMemory keeps everything in memory. Nothing survives a restart.
	InMemory bool `koanf:"in_memory" yaml:"in_memory"`

	SyncWrites  bool          `koanf:"sync_writes" yaml:"sync_writes"`
	GCInterval  time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold" yaml:"gc_threshold"`
	CacheSize   int64         `koanf:"cache_size" yaml:"cache_size"`
}

// BackupSection configures on-disk backups.
type BackupSection struct {
	// Dir defaults to <storage.data_dir>/backups.
	Dir           string `koanf:"dir" yaml:"dir"`
	Keep          int    `koanf:"keep" yaml:"keep"`
	RetentionDays int    `koanf:"retention_days" yaml:"retention_days"`

	// Passphrase enables encryption when set.
	Passphrase string `koanf:"passphrase" yaml:"passphrase"`
	Suite      string `koanf:"suite" yaml:"suite"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

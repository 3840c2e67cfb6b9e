package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:5080"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultRateLimit    = 200
	DefaultRateBurst    = 400

	DefaultRedisAddr        = "127.0.0.1:6379"
	DefaultRedisIdleTimeout = 5 * time.Minute

	DefaultDataDir     = "/var/lib/rollcall/data"
	DefaultGCInterval  = 10 * time.Minute
	DefaultGCThreshold = 0.5
	DefaultCacheSize   = 64 << 20

	DefaultBackupKeep          = 5
	DefaultBackupRetentionDays = 7

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				RateLimit:    DefaultRateLimit,
				RateBurst:    DefaultRateBurst,
			},
			Redis: RedisConfig{
				Enabled:     false,
				Addr:        DefaultRedisAddr,
				IdleTimeout: DefaultRedisIdleTimeout,
				RateLimit:   DefaultRateLimit,
				RateBurst:   DefaultRateBurst,
			},
		},
		Storage: StorageSection{
			DataDir:     DefaultDataDir,
			SyncWrites:  true,
			GCInterval:  DefaultGCInterval,
			GCThreshold: DefaultGCThreshold,
			CacheSize:   DefaultCacheSize,
		},
		Backup: BackupSection{
			Keep:          DefaultBackupKeep,
			RetentionDays: DefaultBackupRetentionDays,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

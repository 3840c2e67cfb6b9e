package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/rollcall-go/internal/infra/confloader"
)

// EnvPrefix is the environment prefix for CLI preferences.
const EnvPrefix = "ROLLCALL_CLI_"

// CLIConfig is the configuration for rollcall-cli.
type CLIConfig struct {
	// Server is the HTTP address of the rollcall server.
	Server string `koanf:"server" yaml:"server"`
	// Output is the default output format.
	Output string `koanf:"output" yaml:"output"`
	// Timeout bounds each request.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	// CAFile is a PEM bundle trusted for https servers.
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty"`
	// HistoryFile stores interactive shell history.
	HistoryFile string `koanf:"history_file" yaml:"history_file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:      "http://127.0.0.1:5080",
		Output:      "table",
		Timeout:     30 * time.Second,
		HistoryFile: filepath.Join(homeDir(), ".rollcall", "history"),
	}
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".rollcall", "cli.yaml")
}

func homeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return dir
}

// Load reads path (DefaultConfigPath when empty) over the defaults, then
// applies ROLLCALL_CLI_* variables. A missing file is not an error.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	opts := []confloader.Option{confloader.WithEnvPrefix(EnvPrefix)}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load cli config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path (DefaultConfigPath when empty) with owner-only
// permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal cli config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rollcall-go/internal/infra/buildinfo"
	"github.com/yndnr/rollcall-go/internal/infra/confloader"
	"github.com/yndnr/rollcall-go/internal/server/config"
	"github.com/yndnr/rollcall-go/internal/telemetry/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "rollcall-server",
		Usage:   "employee and attendance record server",
		Version: buildinfo.String(),
		Flags:   configFlags(),
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the server (default)",
				Flags:  configFlags(),
				Action: serve,
			},
			{
				Name:  "restore",
				Usage: "Load a snapshot into an empty data directory",
				Flags: append(configFlags(),
					&cli.StringFlag{
						Name:  "snapshot",
						Usage: "snapshot id (default: latest)",
					},
				),
				Action: restore,
			},
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintln(c.App.Writer, "rollcall-server", buildinfo.String())
					return err
				},
			},
		},
	}
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"ROLLCALL_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "override storage.data_dir",
		},
		&cli.StringFlag{
			Name:  "http-addr",
			Usage: "override server.http.addr",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "override log.level",
		},
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "keep all data in memory (nothing survives a restart)",
		},
	}
}

// flagOverrides maps explicitly set flags onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	if c.IsSet("data-dir") {
		out["storage.data_dir"] = c.String("data-dir")
	}
	if c.IsSet("http-addr") {
		out["server.http.addr"] = c.String("http-addr")
	}
	if c.IsSet("log-level") {
		out["log.level"] = c.String("log-level")
	}
	if c.IsSet("in-memory") {
		out["storage.in_memory"] = c.Bool("in-memory")
	}
	return out
}

// loadConfig builds the verified server configuration.
func loadConfig(path string, overrides map[string]any) (*config.ServerConfig, error) {
	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	cfg := config.Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rollcall-go/internal/core/service"
	"github.com/yndnr/rollcall-go/internal/infra/buildinfo"
	"github.com/yndnr/rollcall-go/internal/infra/confloader"
	"github.com/yndnr/rollcall-go/internal/infra/shutdown"
	"github.com/yndnr/rollcall-go/internal/infra/tlsroots"
	"github.com/yndnr/rollcall-go/internal/server/admin"
	"github.com/yndnr/rollcall-go/internal/server/config"
	"github.com/yndnr/rollcall-go/internal/server/httpserver"
	"github.com/yndnr/rollcall-go/internal/server/httpserver/handler"
	"github.com/yndnr/rollcall-go/internal/server/ratelimit"
	"github.com/yndnr/rollcall-go/internal/server/redisserver"
	"github.com/yndnr/rollcall-go/internal/storage"
	"github.com/yndnr/rollcall-go/internal/storage/snapshot"
	"github.com/yndnr/rollcall-go/internal/telemetry/logger"
	"github.com/yndnr/rollcall-go/internal/telemetry/metric"
)

// limiterPruneInterval is how often idle rate limit buckets are dropped.
const limiterPruneInterval = time.Minute

func serve(c *cli.Context) error {
	configPath := c.String("config")
	overrides := flagOverrides(c)

	cfg, err := loadConfig(configPath, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting rollcall-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configPath)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	engine, err := storage.Open(cfg.StorageConfig(log))
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	sd := shutdown.NewHandler(shutdown.DefaultTimeout, log)
	sd.OnShutdown("storage", func(context.Context) error {
		return engine.Close()
	})

	ctx, cancel := context.WithCancelCause(c.Context)
	defer cancel(nil)

	if err := runServer(ctx, cancel, cfg, configPath, overrides, engine, sd, log); err != nil {
		if closeErr := sd.Shutdown(); closeErr != nil {
			log.Error("cleanup after failed start", "error", closeErr)
		}
		return err
	}

	log.Info("server started, press Ctrl+C to stop")
	waitErr := sd.Wait(ctx)
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return errors.Join(cause, waitErr)
	}
	if waitErr != nil {
		return waitErr
	}
	log.Info("server stopped")
	return nil
}

// runServer wires services and listeners onto engine. Every started
// component registers a shutdown hook on sd. A listener that fails after
// startup calls fail.
func runServer(ctx context.Context, fail context.CancelCauseFunc, cfg *config.ServerConfig, configPath string, overrides map[string]any,
	engine *storage.Engine, sd *shutdown.Handler, log *slog.Logger) error {

	metrics := metric.NewRegistry()
	if kv := engine.KV(); kv != nil {
		kv.RegisterMetrics(metrics.Registerer())
	}
	if err := metrics.RegisterCollector(metric.NewCollector(engine)); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}

	attendance := service.NewAttendanceService(engine, nil, log)
	employees := service.NewEmployeeService(engine, log)

	var backups *snapshot.Manager
	if engine.Durable() {
		m, err := snapshot.NewManager(cfg.SnapshotConfig(log))
		if err != nil {
			return fmt.Errorf("init backups: %w", err)
		}
		backups = m
	}

	stopLimiters := make(chan struct{})
	sd.OnShutdown("ratelimit", func(context.Context) error {
		close(stopLimiters)
		return nil
	})

	httpCfg := cfg.Server.HTTP
	httpLimits := ratelimit.New(httpCfg.RateLimit, httpCfg.RateBurst)
	go httpLimits.Run(limiterPruneInterval, stopLimiters)

	h := handler.New(handler.Deps{
		Attendance: attendance,
		Employees:  employees,
		Admin:      admin.New(engine, backups, metrics, log),
		Metrics:    metrics,
		Ready: func(ctx context.Context) error {
			_, err := engine.Status(ctx)
			return err
		},
		Logger: log,
	})
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:    h,
		Metrics:    metrics,
		RateLimits: httpLimits,
		Logger:     log,
	})

	httpSrv := httpserver.New(httpserver.Config{
		Addr:         httpCfg.Addr,
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
	}, router)
	httpLn, err := net.Listen("tcp", httpCfg.Addr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	useTLS := httpCfg.TLSCertFile != ""
	if useTLS {
		certs, err := tlsroots.NewCertReloader(httpCfg.TLSCertFile, httpCfg.TLSKeyFile, log)
		if err != nil {
			httpLn.Close()
			return fmt.Errorf("init tls: %w", err)
		}
		go func() {
			if err := certs.Run(ctx); err != nil {
				log.Warn("certificate reload disabled", "error", err)
			}
		}()
		httpLn = tls.NewListener(httpLn, certs.TLSConfig())
	}
	sd.OnShutdown("http", httpSrv.Shutdown)
	go func() {
		log.Info("HTTP server listening", "address", httpLn.Addr().String(), "tls", useTLS)
		if err := httpSrv.Serve(httpLn); err != nil {
			fail(fmt.Errorf("http server: %w", err))
		}
	}()

	if redisCfg := cfg.Server.Redis; redisCfg.Enabled {
		redisLimits := ratelimit.New(redisCfg.RateLimit, redisCfg.RateBurst)
		go redisLimits.Run(limiterPruneInterval, stopLimiters)

		redisSrv := redisserver.New(redisserver.Config{
			Addr:         redisCfg.Addr,
			IdleTimeout:  redisCfg.IdleTimeout,
			ReadTimeout:  httpCfg.ReadTimeout,
			WriteTimeout: httpCfg.WriteTimeout,
		}, redisserver.Deps{
			Attendance: attendance,
			Employees:  employees,
			RateLimits: redisLimits,
			Metrics:    metrics,
			Logger:     log,
		})
		redisLn, err := net.Listen("tcp", redisCfg.Addr)
		if err != nil {
			return fmt.Errorf("listen redis: %w", err)
		}
		sd.OnShutdown("redis", redisSrv.Shutdown)
		go func() {
			if err := redisSrv.Serve(ctx, redisLn); err != nil {
				fail(fmt.Errorf("redis server: %w", err))
			}
		}()
	}

	if configPath != "" {
		if err := watchConfig(ctx, configPath, overrides, sd, log); err != nil {
			log.Warn("config watcher disabled", "error", err)
		}
	}
	return nil
}

// watchConfig reapplies log.level whenever the config file changes. Other
// settings need a restart.
func watchConfig(ctx context.Context, path string, overrides map[string]any, sd *shutdown.Handler, log *slog.Logger) error {
	w, err := confloader.NewWatcher(path, log)
	if err != nil {
		return err
	}
	w.OnChange(func(string) {
		cfg, err := loadConfig(path, overrides)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not applied", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	sd.OnShutdown("config-watcher", func(context.Context) error {
		return w.Stop()
	})
	go w.Run(ctx)
	return nil
}

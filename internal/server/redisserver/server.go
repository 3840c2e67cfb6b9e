package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/rollcall-go/internal/core/service"
	"github.com/yndnr/rollcall-go/internal/server/ratelimit"
	"github.com/yndnr/rollcall-go/internal/telemetry/metric"
)

// Config holds the command port configuration.
type Config struct {
	// Addr is the listen address.
	Addr string
	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration
	// IdleTimeout closes connections that send nothing for this long.
	IdleTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Deps holds the collaborators of Server.
type Deps struct {
	Attendance *service.AttendanceService
	Employees  *service.EmployeeService
	RateLimits *ratelimit.Registry // optional
	Metrics    *metric.Registry    // optional
	Logger     *slog.Logger
}

// Server is the RESP command port.
type Server struct {
	cfg     Config
	handler *CommandHandler
	logger  *slog.Logger

	mu      sync.Mutex
	ln      net.Listener
	conns   map[*Conn]struct{}
	closing atomic.Bool
	wg      sync.WaitGroup
}

// Conn is a single client connection.
type Conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	closed  atomic.Bool
}

func newConn(c net.Conn) *Conn {
	return &Conn{
		netConn: c,
		br:      bufio.NewReader(c),
		bw:      bufio.NewWriter(c),
	}
}

// Close closes the connection once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a Server. Zero timeouts in cfg fall back to DefaultConfig.
func New(cfg Config, deps Deps) *Server {
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Server{
		cfg: cfg,
		handler: &CommandHandler{
			attendance: deps.Attendance,
			employees:  deps.Employees,
			limits:     deps.RateLimits,
			metrics:    deps.Metrics,
			logger:     deps.Logger,
		},
		logger: deps.Logger,
		conns:  make(map[*Conn]struct{}),
	}
}

// ListenAndServe listens on cfg.Addr and serves until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		return ln.Close()
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("redis server listening", "address", ln.Addr().String())

	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		c := newConn(nc)
		if !s.track(c) {
			c.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

// Shutdown stops accepting, closes open connections and waits for their
// goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)

	s.mu.Lock()
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()
	remote := c.RemoteAddr().String()

	for {
		// Idle connections may wait up to IdleTimeout for the next command.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadError(remote, err)
			return
		}

		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}
		args, err := ReadCommand(c.br)
		if err != nil {
			if errors.Is(err, ErrProtocol) || errors.Is(err, ErrLimitExceeded) {
				s.logger.Warn("redis protocol error", "remote", remote, "error", err)
				_ = c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				_ = writeError(c.bw, "ERR "+err.Error())
				_ = c.bw.Flush()
				return
			}
			s.logReadError(remote, err)
			return
		}

		keep := s.handler.Handle(ctx, c, args)

		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return
		}
		if err := c.bw.Flush(); err != nil || !keep {
			return
		}
	}
}

func (s *Server) logReadError(remote string, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case errors.As(err, &netErr) && netErr.Timeout():
		s.logger.Debug("redis connection idle timeout", "remote", remote)
	default:
		s.logger.Debug("redis connection read error", "remote", remote, "error", err)
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jonwraymond/ttlserve/cache"
	"github.com/jonwraymond/ttlserve/health"
	"github.com/jonwraymond/ttlserve/observe"
)

const (
	// DefaultAddr is the listen address.
	DefaultAddr = "0.0.0.0:8080"

	// DefaultDrainTimeout bounds how long Serve waits for in-flight requests.
	DefaultDrainTimeout = 30 * time.Second

	// DefaultReadHeaderTimeout bounds slow request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	// Addr is the TCP listen address.
	// Default: DefaultAddr
	Addr string

	// DrainTimeout bounds the wait for in-flight requests on shutdown.
	// Zero waits without bound.
	DrainTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers.
	// Default: DefaultReadHeaderTimeout
	ReadHeaderTimeout time.Duration

	// MaxBodyBytes caps POST bodies.
	// Default: DefaultMaxBodyBytes
	MaxBodyBytes int64

	// ExposeMetrics serves the default Prometheus registry on /metrics.
	ExposeMetrics bool
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Addr:              DefaultAddr,
		DrainTimeout:      DefaultDrainTimeout,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		MaxBodyBytes:      DefaultMaxBodyBytes,
	}
}

// Validate reports unusable settings.
func (c Config) Validate() error {
	if c.DrainTimeout < 0 {
		return fmt.Errorf("%w: negative drain timeout %s", ErrInvalidConfig, c.DrainTimeout)
	}
	if c.ReadHeaderTimeout < 0 {
		return fmt.Errorf("%w: negative read header timeout %s", ErrInvalidConfig, c.ReadHeaderTimeout)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: negative max body bytes %d", ErrInvalidConfig, c.MaxBodyBytes)
	}
	return nil
}

// Server owns the listener, the routes and the shutdown sequence.
//
// Contract:
//   - Concurrency: Shutdown may be called from any goroutine while Serve runs.
//   - Lifecycle: Serve may be called once.
type Server struct {
	cfg     Config
	handler http.Handler
	gate    *health.Gate
	logger  observe.Logger

	mu       sync.Mutex
	started  bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	drainErr error
	addr     net.Addr
}

// New builds a Server over store. readiness may be nil; the server registers
// its drain gate on it either way.
func New(cfg Config, store cache.Cache, tel observe.Telemetry, readiness *health.Aggregator) (*Server, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	tel = tel.OrNop()

	if readiness == nil {
		readiness = health.NewAggregator()
	}
	gate := health.NewGate()
	readiness.Register(gate)

	mux := newMux(NewHandlers(store, tel.Logger, cfg.MaxBodyBytes), readiness, cfg.ExposeMetrics)

	return &Server{
		cfg:     cfg,
		handler: buildHandler(mux, tel),
		gate:    gate,
		logger:  tel.Logger.With(observe.F("component", "server")),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Draining reports whether shutdown has begun.
func (s *Server) Draining() bool {
	return s.gate.Draining()
}

// Addr returns the bound address once Serve is listening, nil before.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve listens on Config.Addr and serves until ctx is done or Shutdown is
// called, then drains.
func (s *Server) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener, which it takes ownership of.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrAlreadyServing
	}
	s.started = true
	s.addr = ln.Addr()
	s.mu.Unlock()
	defer close(s.done)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	s.logger.Info(ctx, "listening", observe.F("addr", ln.Addr().String()))

	select {
	case err := <-serveErr:
		s.gate.Drain()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.drainErr = err
		return err
	case <-ctx.Done():
	case <-s.stop:
	}

	s.drainErr = s.drain(srv)
	<-serveErr
	return s.drainErr
}

// drain stops accepting and waits for in-flight requests.
func (s *Server) drain(srv *http.Server) error {
	s.gate.Drain()

	ctx := context.Background()
	if s.cfg.DrainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DrainTimeout)
		defer cancel()
	}

	s.logger.Info(ctx, "draining", observe.F("timeout", s.cfg.DrainTimeout.String()))
	start := time.Now()

	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
		s.logger.Error(ctx, "drain deadline exceeded, connections closed",
			observe.F("elapsed_ms", time.Since(start).Milliseconds()))
		return fmt.Errorf("%w: %w", ErrDrainTimeout, err)
	}

	s.logger.Info(ctx, "drained", observe.F("elapsed_ms", time.Since(start).Milliseconds()))
	return nil
}

// Shutdown asks a running Serve to drain and waits for it to return or for
// ctx to end. It returns Serve's drain result. Calling it before Serve only
// marks the server as draining.
func (s *Server) Shutdown(ctx context.Context) error {
	s.gate.Drain()
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-s.done:
		return s.drainErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

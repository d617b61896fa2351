// Package server hosts the arena WebSocket transport, the tick scheduler that
// drives the shared game, and the optional ops health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	platformgrpc "github.com/louisbranch/gridsnake/internal/platform/grpc"
	"github.com/louisbranch/gridsnake/internal/platform/timeouts"
	"github.com/louisbranch/gridsnake/internal/services/arena/domain"
	"github.com/rs/zerolog"
)

// HealthService is the gRPC health service name reported by the ops server.
const HealthService = "gridsnake.arena"

// Config defines the inputs for the arena process.
type Config struct {
	HTTPAddr string
	// OpsAddr enables the gRPC health listener when set.
	OpsAddr           string
	Board             domain.Config
	Logger            zerolog.Logger
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the arena HTTP/WebSocket process and its game clock.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	hub             *gameHub
	scheduler       *Scheduler
	health          *platformgrpc.HealthServer
	servingOnce     sync.Once
	log             zerolog.Logger
}

// NewServer builds a server from config.
func NewServer(config Config) (*Server, error) {
	return NewServerWithContext(context.Background(), config)
}

// NewServerWithContext builds the game, the transport, and the scheduler. The
// ops listener is bound immediately when configured.
func NewServerWithContext(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	logger := config.Logger

	game, err := domain.NewState(config.Board, domain.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init game state: %w", err)
	}
	hub := newGameHub(game, logger)

	s := &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           newHandler(hub),
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
		hub: hub,
		log: logger.With().Str("component", "arena.server").Logger(),
	}

	s.scheduler, err = NewScheduler(game, hub.broadcast,
		WithSchedulerLogger(logger),
		WithTickObserver(s.observeTick),
	)
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if opsAddr := strings.TrimSpace(config.OpsAddr); opsAddr != "" {
		s.health, err = platformgrpc.NewHealthServer(opsAddr, logger, HealthService)
		if err != nil {
			return nil, fmt.Errorf("init ops server: %w", err)
		}
	}
	return s, nil
}

// Run creates a server and serves until ctx is cancelled.
func Run(ctx context.Context, config Config) error {
	server, err := NewServerWithContext(ctx, config)
	if err != nil {
		return fmt.Errorf("init arena server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve arena: %w", err)
	}
	return nil
}

// OpsAddr returns the bound ops listener address, or "" when disabled.
func (s *Server) OpsAddr() string {
	if s == nil {
		return ""
	}
	return s.health.Addr()
}

// ListenAndServe runs the HTTP listener, the tick scheduler, and the ops
// server until ctx is cancelled or one of them fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("arena server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	schedulerErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		schedulerErr <- s.scheduler.Run(runCtx)
	}()

	opsErr := make(chan error, 1)
	if s.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opsErr <- s.health.Serve(runCtx)
		}()
	}

	serveErr := make(chan error, 1)
	s.log.Info().Str("addr", s.httpAddr).Msg("arena server listening")
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		err = s.shutdown()
	case serr := <-serveErr:
		if !errors.Is(serr, http.ErrServerClosed) {
			err = fmt.Errorf("serve http: %w", serr)
		}
	case serr := <-schedulerErr:
		if ctx.Err() != nil {
			err = s.shutdown()
			break
		}
		err = errors.Join(fmt.Errorf("tick scheduler stopped: %w", errOrStopped(serr)), s.shutdown())
	case serr := <-opsErr:
		if ctx.Err() != nil {
			err = s.shutdown()
			break
		}
		err = errors.Join(fmt.Errorf("ops server stopped: %w", errOrStopped(serr)), s.shutdown())
	}
	s.health.SetServing(false)
	cancel()
	wg.Wait()
	return err
}

func (s *Server) shutdown() error {
	s.health.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	// Hijacked WebSocket connections are not tracked by Shutdown.
	s.hub.closeAll()
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Close releases the ops listener and any open connections.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.hub != nil {
		s.hub.closeAll()
	}
	s.health.Close()
}

func (s *Server) observeTick(event TickEvent) {
	s.servingOnce.Do(func() {
		s.health.SetServing(true)
		s.log.Info().Int("level", event.Level).Msg("arena serving")
	})
}

func errOrStopped(err error) error {
	if err == nil {
		return errors.New("stopped unexpectedly")
	}
	return err
}

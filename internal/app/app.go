package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/convo-relay/internal/config"
	"github.com/vovakirdan/convo-relay/internal/core"
	transporthttp "github.com/vovakirdan/convo-relay/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	log             *zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	stopHub  context.CancelFunc
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	gin.SetMode(gin.ReleaseMode)

	hub := core.NewHub(logger)
	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}, nil
}

// Hub exposes the relay hub.
func (a *App) Hub() *core.Hub { return a.hub }

// Addr returns the bound listen address once Start has succeeded.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Start binds the listen address, starts the hub and serves in the background.
// The returned channel yields the serve result exactly once.
func (a *App) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	a.mu.Lock()
	a.listener = ln
	a.stopHub = stopHub
	a.mu.Unlock()

	go a.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", ln.Addr().String()).Msg("relay listening")
	return serverErr, nil
}

// Shutdown stops accepting connections, closes every live client and waits for
// in-flight handlers until ctx expires.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info().Msg("shutting down http server")

	a.mu.Lock()
	stopHub := a.stopHub
	a.mu.Unlock()
	if stopHub != nil {
		stopHub()
	}

	return a.server.Shutdown(ctx)
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr, err := a.Start()
	if err != nil {
		return err
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		if err := a.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/api/auth"
	"github.com/hubvault/hubvault/pkg/content"
	"github.com/hubvault/hubvault/pkg/engine"
	"github.com/hubvault/hubvault/pkg/store"
)

// Server provides the vault's HTTP server with graceful shutdown.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates the HTTP server.
//
// The JWT service is created internally when a secret is configured (via
// config or the HUBVAULT_API_SECRET environment variable); without one
// the management API stays disabled and only the health probes and the
// download endpoint serve.
func NewServer(cfg Config, eng *engine.Engine, metaStore *store.Store, blobs *content.Store) (*Server, error) {
	cfg.ApplyDefaults()

	var jwtService *auth.JWTService
	if secret := cfg.GetJWTSecret(); secret != "" {
		var err error
		jwtService, err = auth.NewJWTService(auth.JWTConfig{
			Secret:        secret,
			TokenDuration: cfg.JWT.TokenDuration,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT service: %w", err)
		}
	}

	router := NewRouter(eng, jwtService, metaStore, blobs)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{server: server, config: cfg}, nil
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Fresh context: the loop's is already cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.Err(err))
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int {
	return s.config.Port
}

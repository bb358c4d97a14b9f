package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/secure-transfer-ledger/internal/api_gateway/handler"
	"github.com/secure-transfer-ledger/internal/api_gateway/middleware"
	"github.com/secure-transfer-ledger/internal/api_gateway/service"
	"github.com/secure-transfer-ledger/internal/config"
	"github.com/secure-transfer-ledger/internal/credential_gate"
	"github.com/secure-transfer-ledger/internal/platform/security"
)

// Dependencies are the services the HTTP layer is built on.
// RateLimiter may be nil, which disables login throttling.
type Dependencies struct {
	Accounts        service.AccountService
	Transfers       service.TransferService
	Login           credential_gate.LoginService
	TokenVerifier   security.TokenVerifier
	RateLimiter     middleware.Limiter
	LoginRateLimit  int
	LoginRateWindow time.Duration
	HealthChecks    map[string]handler.Pinger
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, deps Dependencies) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	h := handlers{
		auth:     handler.NewAuthHandler(log, deps.Login),
		account:  handler.NewAccountHandler(log, deps.Accounts),
		transfer: handler.NewTransferHandler(log, deps.Transfers),
		health:   handler.NewHealthHandler(log, deps.HealthChecks),
	}

	setupRouter(log, httpRouter, h, deps)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server. In-flight requests get until
// ctx expires; transfers already past the debit finish regardless.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}

package api_gateway

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/secure-transfer-ledger/internal/api_gateway/handler"
	"github.com/secure-transfer-ledger/internal/api_gateway/middleware"
)

type handlers struct {
	auth     *handler.AuthHandler
	account  *handler.AccountHandler
	transfer *handler.TransferHandler
	health   *handler.HealthHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers, deps Dependencies) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	requireAuth := middleware.RequireAuth(deps.TokenVerifier)

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login",
			middleware.RateLimit(logger, deps.RateLimiter, "login", deps.LoginRateLimit, deps.LoginRateWindow),
			h.auth.Login,
		)

		// Account operations
		v1.POST("/accounts", h.account.Create)
		accounts := v1.Group("/accounts", requireAuth)
		{
			accounts.GET("/:id", h.account.GetByID)
			accounts.PUT("/:id/password", h.account.ChangePassword)
			accounts.GET("/:id/transfers", h.transfer.ListByAccount)
		}

		// Transfer operations
		transfers := v1.Group("/transfers", requireAuth)
		{
			transfers.POST("", h.transfer.Create)
			transfers.POST("/async", h.transfer.CreateAsync)
			transfers.GET("/:id", h.transfer.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", h.health.Check)
}

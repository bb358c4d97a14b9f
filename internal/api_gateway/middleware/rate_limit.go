package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/secure-transfer-ledger/internal/platform/ratelimit"
)

// Limiter counts hits in a shared window
type Limiter interface {
	Consume(ctx context.Context, scope, subject string, limit int, window time.Duration) (ratelimit.Decision, error)
}

// RateLimit throttles requests per client IP. A nil limiter disables it and
// limiter errors let the request through.
func RateLimit(logger *slog.Logger, limiter Limiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		decision, err := limiter.Consume(c.Request.Context(), scope, c.ClientIP(), limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", "scope", scope, "error", err)
			c.Next()
			return
		}

		if !decision.Allowed {
			retryAfter := int((decision.RetryAfter + time.Second - 1) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			response := gin.H{
				"error": gin.H{
					"code":    "TOO_MANY_REQUESTS",
					"message": "Too many requests, slow down",
				},
			}
			if correlationID := GetCorrelationID(c); correlationID != "" {
				response["correlation_id"] = correlationID
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response)
			return
		}

		c.Next()
	}
}

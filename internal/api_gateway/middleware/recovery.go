package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/secure-transfer-ledger/internal/platform/observability"
)

// Recovery middleware catches panics, reports them to Sentry and returns a 500
// carrying the correlation ID
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				correlationID := GetCorrelationID(c)

				attrs := []any{
					"error", r,
					"stack", stack,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"correlation_id", correlationID,
				}
				if accountID, ok := AuthenticatedAccountID(c); ok {
					attrs = append(attrs, "account_id", accountID.String())
				}
				logger.Error("Panic recovered", attrs...)

				observability.CapturePanic(r, map[string]interface{}{
					"path":           c.Request.URL.Path,
					"method":         c.Request.Method,
					"correlation_id": correlationID,
					"stack":          stack,
				})

				response := gin.H{
					"error": gin.H{
						"code":    "INTERNAL_SERVER_ERROR",
						"message": "An internal server error occurred",
					},
				}
				if correlationID != "" {
					response["correlation_id"] = correlationID
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, response)
			}
		}()

		c.Next()
	}
}

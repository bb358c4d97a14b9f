package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/platform/security"
)

// AccountIDKey holds the authenticated account id in the gin context
const AccountIDKey = "account_id"

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(verifier security.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		accountID, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(AccountIDKey, accountID)
		c.Next()
	}
}

// AuthenticatedAccountID returns the token subject set by RequireAuth
func AuthenticatedAccountID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(AccountIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="transfer-ledger"`)
	response := gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, response)
}

package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("LogsRequestDetails", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		router := gin.New()
		router.Use(CorrelationID())
		router.Use(Logger(testLogger))

		router.GET("/test_log", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		req, _ := http.NewRequest(http.MethodGet, "/test_log?param=value", nil)
		req.Header.Set("User-Agent", "test-agent")
		testCorrelationID := uuid.New().String()
		req.Header.Set(CorrelationIDHeader, testCorrelationID)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		logOutput := logBuffer.String()
		assert.NotEmpty(t, logOutput, "Log output should not be empty")

		assert.Contains(t, logOutput, `"level":"INFO"`)
		assert.Contains(t, logOutput, `"msg":"HTTP request"`)
		assert.Contains(t, logOutput, `"method":"GET"`)
		assert.Contains(t, logOutput, `"path":"/test_log?param=value"`)
		assert.Contains(t, logOutput, `"status":200`)
		assert.Contains(t, logOutput, `"latency":`)
		assert.Contains(t, logOutput, `"client_ip":`)
		assert.Contains(t, logOutput, `"user_agent":"test-agent"`)
		assert.Contains(t, logOutput, `"correlation_id":"`+testCorrelationID+`"`)
	})

	t.Run("LevelFollowsStatus", func(t *testing.T) {
		testCases := []struct {
			status int
			level  string
		}{
			{http.StatusCreated, `"level":"INFO"`},
			{http.StatusUnprocessableEntity, `"level":"WARN"`},
			{http.StatusTooManyRequests, `"level":"WARN"`},
			{http.StatusServiceUnavailable, `"level":"ERROR"`},
		}

		for _, tc := range testCases {
			var logBuffer bytes.Buffer
			router := gin.New()
			router.Use(CorrelationID())
			router.Use(Logger(slog.New(slog.NewJSONHandler(&logBuffer, nil))))
			router.POST("/api/v1/transfers", func(c *gin.Context) {
				c.Status(tc.status)
			})

			req, _ := http.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader("{}"))
			router.ServeHTTP(httptest.NewRecorder(), req)

			logOutput := logBuffer.String()
			assert.Contains(t, logOutput, tc.level, "status %d", tc.status)
			assert.Contains(t, logOutput, `"correlation_id":`)
			assert.NotContains(t, logOutput, `"account_id"`)
		}
	})

	t.Run("ClientErrorsLogAtWarn", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, nil))

		router := gin.New()
		router.Use(Logger(testLogger))
		router.GET("/missing", func(c *gin.Context) {
			c.Set(AccountIDKey, uuid.MustParse("6f1c1a8e-3d5b-4a53-9a55-8f0e2b7c1d42"))
			c.Status(http.StatusNotFound)
		})

		req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"WARN"`)
		assert.Contains(t, logOutput, `"status":404`)
		assert.Contains(t, logOutput, `"account_id":"6f1c1a8e-3d5b-4a53-9a55-8f0e2b7c1d42"`)
	})
}

package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/secure-transfer-ledger/internal/credential_gate"
)

// AuthHandler exposes the credential gate over HTTP
type AuthHandler struct {
	loginService credential_gate.LoginService
	logger       *slog.Logger
}

func NewAuthHandler(logger *slog.Logger, loginService credential_gate.LoginService) *AuthHandler {
	return &AuthHandler{
		loginService: loginService,
		logger:       logger,
	}
}

// Login exchanges an email and password for a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.loginService.AttemptLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, LoginResponse{
		AccountID: result.AccountID.String(),
		TokenType: "Bearer",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

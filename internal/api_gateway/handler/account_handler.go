package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/api_gateway/middleware"
	"github.com/secure-transfer-ledger/internal/api_gateway/service"
	"github.com/secure-transfer-ledger/internal/domain/account"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create registers a new account holder
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.CreateAccount(
		c.Request.Context(), req.OwnerName, req.Email, req.Password, req.AccountNumber, req.InitialBalance,
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID returns the caller's own account
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := ownAccountParam(c, h.logger)
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ChangePassword replaces the caller's password after checking the current one
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	id, ok := ownAccountParam(c, h.logger)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	err := h.accountService.ChangePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Password changed", "account_id", id)
	RespondNoContent(c)
}

// ownAccountParam parses :id and insists it names the authenticated account.
// It writes the error response itself and reports false when the request must stop.
func ownAccountParam(c *gin.Context, logger *slog.Logger) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Warn("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return uuid.Nil, false
	}

	subject, ok := middleware.AuthenticatedAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return uuid.Nil, false
	}
	if subject != id {
		RespondForbidden(c, "Access to another account is not allowed")
		return uuid.Nil, false
	}
	return id, true
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:            acc.ID.String(),
		OwnerName:     acc.OwnerName,
		Email:         acc.Email,
		AccountNumber: acc.AccountNumber,
		Balance:       acc.Balance,
		CreatedAt:     acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     acc.UpdatedAt.Format(time.RFC3339),
	}
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/secure-transfer-ledger/internal/api_gateway/service"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/auth"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
)

// respondError maps domain errors onto HTTP responses. Anything unrecognized
// is logged and answered with a 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var locked auth.ErrAccountLocked

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		RespondWithError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.As(err, &locked):
		RespondLocked(c, locked.RetryAfterSeconds(), "Account is temporarily locked after repeated failed logins")
	case errors.Is(err, account.ErrAccountNotFound{}):
		RespondNotFound(c, "Account not found")
	case errors.Is(err, transfer.ErrTransferNotFound{}):
		RespondNotFound(c, "Transfer not found")
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Insufficient funds")
	case errors.Is(err, account.ErrBalanceOverflow):
		RespondUnprocessable(c, "BALANCE_LIMIT_EXCEEDED", "Destination balance would exceed the supported maximum")
	case errors.Is(err, transfer.ErrTransferConflict{}):
		RespondConflict(c, "Transfer aborted after concurrent updates, retry with the same transfer_id")
	case errors.Is(err, transfer.ErrTransferIDReused{}):
		RespondWithError(c, http.StatusConflict, "TRANSFER_ID_REUSED", "transfer_id was already used for a different transfer")
	case isDuplicateAccount(err):
		RespondConflict(c, err.Error())
	case errors.Is(err, transfer.ErrSameAccount),
		errors.Is(err, transfer.ErrInvalidTransferID),
		errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrEmptyOwnerName),
		errors.Is(err, account.ErrEmptyAccountNumber),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrWeakPassword):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, shared.ErrTransientStoreFailure{}):
		logger.Warn("Transient failure serving request", "error", err)
		RespondServiceUnavailable(c, "Temporarily unavailable, please retry")
	case errors.Is(err, service.ErrAsyncTransferClosed):
		RespondServiceUnavailable(c, err.Error())
	default:
		logger.Error("Unhandled error serving request", "error", err)
		RespondInternalError(c)
	}
}

func isDuplicateAccount(err error) bool {
	var dupEmail account.ErrDuplicateEmail
	var dupNumber account.ErrDuplicateAccountNumber
	return errors.As(err, &dupEmail) || errors.As(err, &dupNumber)
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/api_gateway/middleware"
	"github.com/secure-transfer-ledger/internal/api_gateway/service"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
)

// TransferHandler handles HTTP requests for transfer operations
type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, transferService service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Create runs a transfer synchronously and returns its completed record
func (h *TransferHandler) Create(c *gin.Context) {
	req, ok := h.bindTransfer(c)
	if !ok {
		return
	}

	record, err := h.transferService.Transfer(c.Request.Context(), req)
	if err != nil {
		h.logger.Info("Transfer rejected", "transfer_id", req.TransferID, "error", err)
		respondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapRecordToResponse(record))
}

// CreateAsync queues a transfer for the transfer processor
func (h *TransferHandler) CreateAsync(c *gin.Context) {
	req, ok := h.bindTransfer(c)
	if !ok {
		return
	}

	if err := h.transferService.SubmitTransfer(c.Request.Context(), req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondAccepted(c, gin.H{
		"transfer_id": req.TransferID,
		"status":      "PENDING",
	})
}

// GetByID returns a completed transfer the caller took part in
func (h *TransferHandler) GetByID(c *gin.Context) {
	subject, ok := middleware.AuthenticatedAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	record, err := h.transferService.GetTransferByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	// Records of other accounts are reported as missing.
	if !record.Involves(subject) {
		RespondNotFound(c, "Transfer not found")
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// ListByAccount lists the caller's transfer records, newest first
func (h *TransferHandler) ListByAccount(c *gin.Context) {
	id, ok := ownAccountParam(c, h.logger)
	if !ok {
		return
	}

	var page PaginationParams
	if err := c.ShouldBindQuery(&page); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	records, err := h.transferService.GetTransfersByAccountID(c.Request.Context(), id, page.Limit, page.Offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	list := TransferListResponse{Transfers: make([]TransferResponse, 0, len(records))}
	for _, rec := range records {
		list.Transfers = append(list.Transfers, mapRecordToResponse(rec))
	}
	RespondWithPaginatedData(c, http.StatusOK, list, page.Limit, page.Offset, len(records))
}

// bindTransfer validates the body and checks that the caller owns the source account
func (h *TransferHandler) bindTransfer(c *gin.Context) (*shared.TransferRequest, bool) {
	var body CreateTransferRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return nil, false
	}

	fromID, err := uuid.Parse(body.FromAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid from_account_id")
		return nil, false
	}

	subject, ok := middleware.AuthenticatedAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return nil, false
	}
	if subject != fromID {
		h.logger.Warn("Transfer from a foreign account refused", "account_id", subject, "from_account_id", fromID)
		RespondForbidden(c, "Transfers may only debit the authenticated account")
		return nil, false
	}

	transferID := body.TransferID
	if transferID == "" {
		transferID = uuid.NewString()
	}

	return &shared.TransferRequest{
		TransferID:      transferID,
		FromAccountID:   fromID,
		ToAccountNumber: body.ToAccountNumber,
		Amount:          body.Amount,
		CorrelationID:   middleware.GetCorrelationID(c),
		Timestamp:       time.Now().UTC(),
	}, true
}

func mapRecordToResponse(rec *transfer.Record) TransferResponse {
	return TransferResponse{
		TransferID:      rec.TransferID,
		FromAccountID:   rec.FromAccountID.String(),
		ToAccountID:     rec.ToAccountID.String(),
		ToAccountNumber: rec.ToAccountNumber,
		Amount:          rec.Amount,
		Status:          string(rec.Status),
		FailureReason:   rec.FailureReason,
		Timestamp:       rec.Timestamp.Format(time.RFC3339),
	}
}

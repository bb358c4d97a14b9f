package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/api_gateway/service"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func completedRecord(id string, from, to uuid.UUID) *transfer.Record {
	return &transfer.Record{
		TransferID:      id,
		FromAccountID:   from,
		ToAccountID:     to,
		ToAccountNumber: "ACC-BOB",
		Amount:          3000,
		Status:          transfer.StatusCompleted,
		Timestamp:       time.Now().UTC(),
	}
}

func TestTransferHandler_Create(t *testing.T) {
	logger := testLogger()
	fromID := uuid.New()
	toID := uuid.New()

	body := CreateTransferRequest{
		TransferID:      "t-1",
		FromAccountID:   fromID.String(),
		ToAccountNumber: "ACC-BOB",
		Amount:          3000,
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		mockService.On("Transfer", mock.Anything, mock.MatchedBy(func(req *shared.TransferRequest) bool {
			return req.TransferID == "t-1" &&
				req.FromAccountID == fromID &&
				req.ToAccountNumber == "ACC-BOB" &&
				req.Amount == 3000 &&
				req.CorrelationID != ""
		})).Return(completedRecord("t-1", fromID, toID), nil)

		router := setupTestRouter()
		router.POST("/transfers", asAccount(fromID), handler.Create)

		rr := doJSON(t, router, http.MethodPost, "/transfers", body)
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp TransferResponse
		decodeData(t, rr, &resp)
		assert.Equal(t, "t-1", resp.TransferID)
		assert.Equal(t, toID.String(), resp.ToAccountID)
		assert.Equal(t, "COMPLETED", resp.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("GeneratesTransferID", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		var seen string
		mockService.On("Transfer", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				seen = args.Get(1).(*shared.TransferRequest).TransferID
			}).
			Return(completedRecord("generated", fromID, toID), nil)

		router := setupTestRouter()
		router.POST("/transfers", asAccount(fromID), handler.Create)

		noID := body
		noID.TransferID = ""
		rr := doJSON(t, router, http.MethodPost, "/transfers", noID)
		assert.Equal(t, http.StatusCreated, rr.Code)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})

	t.Run("ForeignSourceAccount", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/transfers", asAccount(uuid.New()), handler.Create)

		rr := doJSON(t, router, http.MethodPost, "/transfers", body)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockService.AssertNotCalled(t, "Transfer")
	})

	t.Run("ZeroAmount", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/transfers", asAccount(fromID), handler.Create)

		zero := body
		zero.Amount = 0
		rr := doJSON(t, router, http.MethodPost, "/transfers", zero)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Transfer")
	})

	testCases := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"InsufficientFunds", account.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"BalanceOverflow", account.ErrBalanceOverflow, http.StatusUnprocessableEntity, "BALANCE_LIMIT_EXCEEDED"},
		{"UnknownDestination", account.ErrAccountNotFound{Key: "ACC-BOB"}, http.StatusNotFound, "NOT_FOUND"},
		{"SameAccount", transfer.ErrSameAccount, http.StatusBadRequest, "BAD_REQUEST"},
		{"Conflict", transfer.ErrTransferConflict{TransferID: "t-1"}, http.StatusConflict, "CONFLICT"},
		{"TransferIDReused", transfer.ErrTransferIDReused{TransferID: "t-1"}, http.StatusConflict, "TRANSFER_ID_REUSED"},
		{"Transient", shared.ErrTransientStoreFailure{Op: "debit"}, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockTransferService)
			handler := NewTransferHandler(logger, mockService)
			mockService.On("Transfer", mock.Anything, mock.Anything).Return(nil, tc.err)

			router := setupTestRouter()
			router.POST("/transfers", asAccount(fromID), handler.Create)

			rr := doJSON(t, router, http.MethodPost, "/transfers", body)
			assert.Equal(t, tc.expectedCode, rr.Code)

			envelope := decodeData(t, rr, nil)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tc.expectedErr, envelope.Error.Code)
		})
	}
}

func TestTransferHandler_CreateAsync(t *testing.T) {
	logger := testLogger()
	fromID := uuid.New()
	body := CreateTransferRequest{
		TransferID:      "t-async",
		FromAccountID:   fromID.String(),
		ToAccountNumber: "ACC-BOB",
		Amount:          100,
	}

	t.Run("Accepted", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)
		mockService.On("SubmitTransfer", mock.Anything, mock.MatchedBy(func(req *shared.TransferRequest) bool {
			return req.TransferID == "t-async"
		})).Return(nil)

		router := setupTestRouter()
		router.POST("/transfers/async", asAccount(fromID), handler.CreateAsync)

		rr := doJSON(t, router, http.MethodPost, "/transfers/async", body)
		assert.Equal(t, http.StatusAccepted, rr.Code)

		var resp map[string]string
		decodeData(t, rr, &resp)
		assert.Equal(t, "t-async", resp["transfer_id"])
		assert.Equal(t, "PENDING", resp["status"])
		mockService.AssertExpectations(t)
	})

	t.Run("Disabled", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)
		mockService.On("SubmitTransfer", mock.Anything, mock.Anything).Return(service.ErrAsyncTransferClosed)

		router := setupTestRouter()
		router.POST("/transfers/async", asAccount(fromID), handler.CreateAsync)

		rr := doJSON(t, router, http.MethodPost, "/transfers/async", body)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestTransferHandler_GetByID(t *testing.T) {
	logger := testLogger()
	fromID := uuid.New()
	toID := uuid.New()

	t.Run("Participant", func(t *testing.T) {
		for _, caller := range []uuid.UUID{fromID, toID} {
			mockService := new(MockTransferService)
			handler := NewTransferHandler(logger, mockService)
			mockService.On("GetTransferByID", mock.Anything, "t-1").Return(completedRecord("t-1", fromID, toID), nil)

			router := setupTestRouter()
			router.GET("/transfers/:id", asAccount(caller), handler.GetByID)

			rr := doJSON(t, router, http.MethodGet, "/transfers/t-1", nil)
			assert.Equal(t, http.StatusOK, rr.Code)
		}
	})

	t.Run("OutsiderSeesNotFound", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)
		mockService.On("GetTransferByID", mock.Anything, "t-1").Return(completedRecord("t-1", fromID, toID), nil)

		router := setupTestRouter()
		router.GET("/transfers/:id", asAccount(uuid.New()), handler.GetByID)

		rr := doJSON(t, router, http.MethodGet, "/transfers/t-1", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)
		mockService.On("GetTransferByID", mock.Anything, "missing").Return(nil, transfer.ErrTransferNotFound{TransferID: "missing"})

		router := setupTestRouter()
		router.GET("/transfers/:id", asAccount(fromID), handler.GetByID)

		rr := doJSON(t, router, http.MethodGet, "/transfers/missing", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestTransferHandler_ListByAccount(t *testing.T) {
	logger := testLogger()
	accountID := uuid.New()

	t.Run("DefaultWindow", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)
		records := []*transfer.Record{
			completedRecord("t-2", accountID, uuid.New()),
			completedRecord("t-1", accountID, uuid.New()),
		}
		mockService.On("GetTransfersByAccountID", mock.Anything, accountID, 20, 0).Return(records, nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/transfers", asAccount(accountID), handler.ListByAccount)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String()+"/transfers", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var list TransferListResponse
		envelope := decodeData(t, rr, &list)
		require.Len(t, list.Transfers, 2)
		assert.Equal(t, "t-2", list.Transfers[0].TransferID)
		require.NotNil(t, envelope.Meta)
		assert.Equal(t, 20, envelope.Meta.Limit)
		assert.Equal(t, 2, envelope.Meta.Count)
		mockService.AssertExpectations(t)
	})

	t.Run("CustomWindow", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)
		mockService.On("GetTransfersByAccountID", mock.Anything, accountID, 5, 10).Return([]*transfer.Record{}, nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/transfers", asAccount(accountID), handler.ListByAccount)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String()+"/transfers?limit=5&offset=10", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"transfers":[]`)
		mockService.AssertExpectations(t)
	})

	t.Run("LimitTooLarge", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id/transfers", asAccount(accountID), handler.ListByAccount)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String()+"/transfers?limit=1000", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetTransfersByAccountID")
	})

	t.Run("OtherAccount", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id/transfers", asAccount(uuid.New()), handler.ListByAccount)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String()+"/transfers", nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("StoreError", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)
		mockService.On("GetTransfersByAccountID", mock.Anything, accountID, 20, 0).Return(nil, errors.New("boom"))

		router := setupTestRouter()
		router.GET("/accounts/:id/transfers", asAccount(accountID), handler.ListByAccount)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String()+"/transfers", nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

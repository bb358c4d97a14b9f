package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/api_gateway/service"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/auth"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleAccount(id uuid.UUID) *account.Account {
	now := time.Now().UTC()
	return &account.Account{
		ID:             id,
		OwnerName:      "Alice",
		Email:          "alice@example.com",
		PasswordDigest: "digest",
		AccountNumber:  "ACC-ALICE",
		Balance:        10000,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestAccountHandler_Create(t *testing.T) {
	logger := testLogger()

	validBody := CreateAccountRequest{
		OwnerName:      "Alice",
		Email:          "alice@example.com",
		Password:       "correct-horse",
		InitialBalance: 10000,
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		expected := sampleAccount(uuid.New())
		mockService.On("CreateAccount", mock.Anything, "Alice", "alice@example.com", "correct-horse", "", int64(10000)).
			Return(expected, nil)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		rr := doJSON(t, router, http.MethodPost, "/accounts", validBody)
		assert.Equal(t, http.StatusCreated, rr.Code)

		var body AccountResponse
		envelope := decodeData(t, rr, &body)
		assert.NotEmpty(t, envelope.CorrelationID)
		assert.Equal(t, expected.ID.String(), body.ID)
		assert.Equal(t, "ACC-ALICE", body.AccountNumber)
		assert.Equal(t, int64(10000), body.Balance)
		assert.NotContains(t, rr.Body.String(), "digest")
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		rr := doJSON(t, router, http.MethodPost, "/accounts", `{"invalid`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NegativeInitialBalance", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		body := validBody
		body.InitialBalance = -1
		rr := doJSON(t, router, http.MethodPost, "/accounts", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "CreateAccount")
	})

	testCases := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{"DuplicateEmail", account.ErrDuplicateEmail{Email: "alice@example.com"}, http.StatusConflict},
		{"WeakPassword", service.ErrWeakPassword, http.StatusBadRequest},
		{"StoreDown", shared.ErrTransientStoreFailure{Op: "create account", Err: errors.New("down")}, http.StatusServiceUnavailable},
		{"Unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockAccountService)
			handler := NewAccountHandler(logger, mockService)
			mockService.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(nil, tc.err)

			router := setupTestRouter()
			router.POST("/accounts", handler.Create)

			rr := doJSON(t, router, http.MethodPost, "/accounts", validBody)
			assert.Equal(t, tc.expectedCode, rr.Code)

			envelope := decodeData(t, rr, nil)
			require.NotNil(t, envelope.Error)
			mockService.AssertExpectations(t)
		})
	}
}

func TestAccountHandler_GetByID(t *testing.T) {
	logger := testLogger()
	accountID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)
		mockService.On("GetAccountByID", mock.Anything, accountID).Return(sampleAccount(accountID), nil)

		router := setupTestRouter()
		router.GET("/accounts/:id", asAccount(accountID), handler.GetByID)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String(), nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var body AccountResponse
		decodeData(t, rr, &body)
		assert.Equal(t, accountID.String(), body.ID)
		assert.Equal(t, "alice@example.com", body.Email)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id", asAccount(accountID), handler.GetByID)

		rr := doJSON(t, router, http.MethodGet, "/accounts/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("OtherAccountIsForbidden", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id", asAccount(uuid.New()), handler.GetByID)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String(), nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockService.AssertNotCalled(t, "GetAccountByID")
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetByID)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String(), nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)
		mockService.On("GetAccountByID", mock.Anything, accountID).Return(nil, account.ErrAccountNotFound{AccountID: accountID})

		router := setupTestRouter()
		router.GET("/accounts/:id", asAccount(accountID), handler.GetByID)

		rr := doJSON(t, router, http.MethodGet, "/accounts/"+accountID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_ChangePassword(t *testing.T) {
	logger := testLogger()
	accountID := uuid.New()
	body := ChangePasswordRequest{
		CurrentPassword: "old-password",
		NewPassword:     "new-password",
		ConfirmPassword: "new-password",
	}

	testCases := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{"Success", nil, http.StatusNoContent},
		{"WrongCurrentPassword", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"Mismatch", service.ErrPasswordMismatch, http.StatusBadRequest},
		{"Contended", shared.ErrTransientStoreFailure{Op: "change password"}, http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockAccountService)
			handler := NewAccountHandler(logger, mockService)
			mockService.On("ChangePassword", mock.Anything, accountID, "old-password", "new-password", "new-password").
				Return(tc.err)

			router := setupTestRouter()
			router.PUT("/accounts/:id/password", asAccount(accountID), handler.ChangePassword)

			rr := doJSON(t, router, http.MethodPut, "/accounts/"+accountID.String()+"/password", body)
			assert.Equal(t, tc.expectedCode, rr.Code)
			mockService.AssertExpectations(t)
		})
	}

	t.Run("MissingFields", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.PUT("/accounts/:id/password", asAccount(accountID), handler.ChangePassword)

		rr := doJSON(t, router, http.MethodPut, "/accounts/"+accountID.String()+"/password", `{"new_password":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "ChangePassword")
	})
}

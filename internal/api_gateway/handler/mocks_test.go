package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/api_gateway/middleware"
	"github.com/secure-transfer-ledger/internal/api_gateway/service"
	"github.com/secure-transfer-ledger/internal/credential_gate"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/auth"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, ownerName, email, password, accountNumber string, initialBalance int64) (*account.Account, error) {
	args := m.Called(ctx, ownerName, email, password, accountNumber, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword, confirmPassword string) error {
	args := m.Called(ctx, id, currentPassword, newPassword, confirmPassword)
	return args.Error(0)
}

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, request *shared.TransferRequest) (*transfer.Record, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Record), args.Error(1)
}

func (m *MockTransferService) SubmitTransfer(ctx context.Context, request *shared.TransferRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockTransferService) GetTransferByID(ctx context.Context, transferID string) (*transfer.Record, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Record), args.Error(1)
}

func (m *MockTransferService) GetTransfersByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.Record, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Record), args.Error(1)
}

type MockLoginService struct {
	mock.Mock
}

func (m *MockLoginService) AttemptLogin(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.LoginResult), args.Error(1)
}

var (
	_ service.AccountService       = (*MockAccountService)(nil)
	_ service.TransferService      = (*MockTransferService)(nil)
	_ credential_gate.LoginService = (*MockLoginService)(nil)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	return r
}

// asAccount stands in for RequireAuth and marks the request as authenticated
func asAccount(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AccountIDKey, id)
		c.Next()
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decodeData unmarshals the data envelope field into out
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()

	var envelope Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	if out != nil {
		require.NotNil(t, envelope.Data, "'data' field should not be nil")
		dataBytes, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(dataBytes, out))
	}
	return envelope
}

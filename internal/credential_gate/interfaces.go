package credential_gate

import (
	"context"

	"github.com/secure-transfer-ledger/internal/domain/auth"
)

// LoginService authenticates account holders
type LoginService interface {
	AttemptLogin(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

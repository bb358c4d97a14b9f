// Package auth holds the login outcome types shared by the credential gate and its callers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong password alike
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAccountLocked reports an active lock and how long until it expires
type ErrAccountLocked struct {
	RetryAfter  time.Duration
	LockedUntil time.Time
}

func (e ErrAccountLocked) Error() string {
	return fmt.Sprintf("account locked, retry after %s", e.RetryAfter.Round(time.Second))
}

// Is matches any ErrAccountLocked regardless of the deadline
func (e ErrAccountLocked) Is(target error) bool {
	_, ok := target.(ErrAccountLocked)
	return ok
}

// RetryAfterSeconds rounds the remaining lock time up to whole seconds
func (e ErrAccountLocked) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// LoginResult is returned on a successful login
type LoginResult struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

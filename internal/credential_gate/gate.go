// Package credential_gate verifies passwords and enforces the login lockout policy.
//
// Lockout state lives on the account record (failed count plus a lock deadline)
// and every change to it is a versioned conditional update, so concurrent
// attempts against one account serialize through the store instead of through
// process memory. A lock is a stored deadline; nothing sleeps.
package credential_gate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/secure-transfer-ledger/internal/config"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/auth"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/platform/security"
)

const dummyPassword = "credential-gate-timing-equalizer"

// Policy is the lockout configuration
type Policy struct {
	Threshold    int           // failures that trigger a lock
	LockDuration time.Duration // how long a lock lasts
	MaxAttempts  int           // evaluations before giving up on version conflicts
}

// PolicyFromConfig maps the lockout section of the config
func PolicyFromConfig(cfg config.LockoutConfig) Policy {
	return Policy{
		Threshold:    cfg.Threshold,
		LockDuration: cfg.Duration,
		MaxAttempts:  cfg.MaxUpdateAttempts,
	}
}

// Gate implements LoginService
type Gate struct {
	accounts    account.Repository
	hasher      security.PasswordHasher
	tokens      security.TokenIssuer
	policy      Policy
	logger      *slog.Logger
	now         func() time.Time
	dummyDigest string
}

func NewGate(
	logger *slog.Logger,
	accounts account.Repository,
	hasher security.PasswordHasher,
	tokens security.TokenIssuer,
	policy Policy,
) *Gate {
	if policy.Threshold <= 0 {
		policy.Threshold = 5
	}
	if policy.LockDuration <= 0 {
		policy.LockDuration = 30 * time.Minute
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		logger.Warn("Failed to prepare dummy digest, unknown-email logins will skip hashing", "error", err)
	}

	return &Gate{
		accounts:    accounts,
		hasher:      hasher,
		tokens:      tokens,
		policy:      policy,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		dummyDigest: dummy,
	}
}

// AttemptLogin evaluates one login attempt against the stored lockout state.
// It returns auth.ErrInvalidCredentials for an unknown email or wrong password,
// auth.ErrAccountLocked while a lock is active or when this attempt triggers one,
// and shared.ErrTransientStoreFailure when the store fails or keeps conflicting.
func (g *Gate) AttemptLogin(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	email = account.NormalizeEmail(email)

	// bcrypt dominates the cost of an attempt, so a digest is verified at most
	// once per call even if a conflict forces a re-read.
	verified := make(map[string]bool, 1)

	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		acc, err := g.accounts.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{}) {
				g.hasher.Verify(password, g.dummyDigest)
				return nil, auth.ErrInvalidCredentials
			}
			g.logger.Error("Failed to load account for login", "error", err)
			return nil, shared.ErrTransientStoreFailure{Op: "load account", Err: err}
		}

		now := g.now()
		if acc.IsLocked(now) {
			return nil, auth.ErrAccountLocked{RetryAfter: acc.LockedUntil.Sub(now), LockedUntil: *acc.LockedUntil}
		}

		ok, seen := verified[acc.PasswordDigest]
		if !seen {
			ok = g.hasher.Verify(password, acc.PasswordDigest)
			verified[acc.PasswordDigest] = ok
		}

		if ok {
			result, err := g.succeed(ctx, acc, now)
			if isVersionConflict(err) {
				g.logger.Debug("Login state changed concurrently, re-evaluating", "account_id", acc.ID, "attempt", attempt)
				continue
			}
			return result, err
		}

		err = g.fail(ctx, acc, now)
		if isVersionConflict(err) {
			g.logger.Debug("Login state changed concurrently, re-evaluating", "account_id", acc.ID, "attempt", attempt)
			continue
		}
		return nil, err
	}

	g.logger.Warn("Login gave up after repeated version conflicts", "attempts", g.policy.MaxAttempts)
	return nil, shared.ErrTransientStoreFailure{
		Op:  "update login state",
		Err: errors.New("too many concurrent modifications"),
	}
}

// succeed clears leftover failure state and issues a session token
func (g *Gate) succeed(ctx context.Context, acc *account.Account, now time.Time) (*auth.LoginResult, error) {
	if acc.HasLoginState() {
		if _, err := g.accounts.ConditionalUpdate(ctx, acc.ID, acc.Version, account.ClearLockout()); err != nil {
			return nil, g.mapUpdateError(acc, err)
		}
	}

	token, expiresAt, err := g.tokens.Issue(acc.ID, now)
	if err != nil {
		g.logger.Error("Failed to issue session token", "account_id", acc.ID, "error", err)
		return nil, shared.ErrTransientStoreFailure{Op: "issue session token", Err: err}
	}

	g.logger.Info("Login succeeded", "account_id", acc.ID)
	return &auth.LoginResult{
		AccountID: acc.ID,
		Email:     acc.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// fail records one more failure, locking the account when it reaches the threshold
func (g *Gate) fail(ctx context.Context, acc *account.Account, now time.Time) error {
	next := acc.EffectiveFailedLoginCount(now) + 1

	if next >= g.policy.Threshold {
		lockedUntil := now.Add(g.policy.LockDuration)
		if _, err := g.accounts.ConditionalUpdate(ctx, acc.ID, acc.Version, account.SetLockout(0, &lockedUntil)); err != nil {
			return g.mapUpdateError(acc, err)
		}
		g.logger.Warn("Account locked after repeated login failures",
			"account_id", acc.ID,
			"locked_until", lockedUntil)
		return auth.ErrAccountLocked{RetryAfter: g.policy.LockDuration, LockedUntil: lockedUntil}
	}

	if _, err := g.accounts.ConditionalUpdate(ctx, acc.ID, acc.Version, account.SetLockout(next, nil)); err != nil {
		return g.mapUpdateError(acc, err)
	}
	g.logger.Info("Login failed", "account_id", acc.ID, "failed_login_count", next)
	return auth.ErrInvalidCredentials
}

// mapUpdateError keeps version conflicts retryable and hides everything else
// behind the taxonomy the caller sees
func (g *Gate) mapUpdateError(acc *account.Account, err error) error {
	switch {
	case isVersionConflict(err):
		return err
	case errors.Is(err, account.ErrAccountNotFound{}):
		return auth.ErrInvalidCredentials
	default:
		g.logger.Error("Failed to update login state", "account_id", acc.ID, "error", err)
		return shared.ErrTransientStoreFailure{Op: "update login state", Err: err}
	}
}

func isVersionConflict(err error) bool {
	return errors.Is(err, account.ErrConcurrentModification{})
}

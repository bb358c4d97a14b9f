package account

import "time"

// LockoutState is the pair of login fields written together
type LockoutState struct {
	FailedLoginCount int
	LockedUntil      *time.Time
}

// Mutation describes one conditional update of an account.
// Nil fields are left unchanged; BalanceDelta is added to the balance and
// the store rejects it when the result would go negative.
type Mutation struct {
	BalanceDelta   int64
	Lockout        *LockoutState
	PasswordDigest *string
}

// Credit builds a balance increase
func Credit(amount int64) Mutation {
	return Mutation{BalanceDelta: amount}
}

// Debit builds a balance decrease
func Debit(amount int64) Mutation {
	return Mutation{BalanceDelta: -amount}
}

// SetLockout builds a write of both login fields
func SetLockout(failedLoginCount int, lockedUntil *time.Time) Mutation {
	return Mutation{Lockout: &LockoutState{FailedLoginCount: failedLoginCount, LockedUntil: lockedUntil}}
}

// ClearLockout resets the failure count and removes any lock
func ClearLockout() Mutation {
	return SetLockout(0, nil)
}

// SetPassword replaces the stored digest
func SetPassword(digest string) Mutation {
	return Mutation{PasswordDigest: &digest}
}

// Validate rejects mutations no store should accept
func (m Mutation) Validate() error {
	if m.Lockout != nil && m.Lockout.FailedLoginCount < 0 {
		return ErrNegativeLoginCounter
	}
	if m.PasswordDigest != nil && *m.PasswordDigest == "" {
		return ErrEmptyPasswordDigest
	}
	return nil
}

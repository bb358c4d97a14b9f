package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", digest)

	assert.True(t, h.Verify("s3cret!", digest))
	assert.False(t, h.Verify("wrong", digest))
	assert.False(t, h.Verify("s3cret!", "not-a-bcrypt-digest"))

	_, err = h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("0123456789abcdef-secret", 15*time.Minute, "transfer-ledger")
	id := uuid.New()
	now := time.Now()

	token, expiresAt, err := m.Issue(id, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), expiresAt)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("0123456789abcdef-secret", time.Minute, "")
	id := uuid.New()

	t.Run("Expired", func(t *testing.T) {
		token, _, err := m.Issue(id, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewJWTManager("another-secret-of-16+", time.Minute, "")
		token, _, err := other.Issue(id, time.Now())
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongType", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": id.String(),
			"exp": time.Now().Add(time.Minute).Unix(),
			"typ": "refresh",
		}).SignedString(m.secret)
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("BadSubject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "not-a-uuid",
			"exp": time.Now().Add(time.Minute).Unix(),
			"typ": "access",
		}).SignedString(m.secret)
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := m.Verify("  ")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

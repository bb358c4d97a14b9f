package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer signs session tokens for authenticated accounts
type TokenIssuer interface {
	Issue(accountID uuid.UUID, now time.Time) (token string, expiresAt time.Time, err error)
}

// TokenVerifier resolves a bearer token to the account it was issued for
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// JWTManager issues and verifies HS256 access tokens
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewJWTManager(secret string, ttl time.Duration, issuer string) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl, issuer: issuer}
}

func (m *JWTManager) Issue(accountID uuid.UUID, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.ttl)
	claims := jwt.MapClaims{
		"sub": accountID.String(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"typ": accessTokenType,
	}
	if m.issuer != "" {
		claims["iss"] = m.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) Verify(tokenStr string) (uuid.UUID, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return uuid.Nil, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != accessTokenType {
		return uuid.Nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	accountID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return accountID, nil
}

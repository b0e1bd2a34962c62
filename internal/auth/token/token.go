// Package token issues and verifies the signed bearer tokens handed out on
// registration and login.
package token

import (
	"errors"
	"time"

	"membership_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

// ErrInvalid is returned for any token that fails verification.
var ErrInvalid = errors.New("token invalid")

// Claims are the JWT claims of an access token. The subject is the user ID.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 access tokens with a process-wide key.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager from the auth configuration.
func NewManager(cfg config.AuthServiceConfig) *Manager {
	return newManager([]byte(cfg.GetJWTAccessSecret()), cfg.GetAccessTokenTTL(), time.Now)
}

func newManager(secret []byte, ttl time.Duration, now func() time.Time) *Manager {
	return &Manager{secret: secret, ttl: ttl, now: now}
}

// Issue returns a signed access token for userID.
func (m *Manager) Issue(userID uuid.UUID) (string, error) {
	now := m.now()
	claims := Claims{
		Type: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies rawToken and returns its claims. Tokens signed with another
// algorithm or key, expired tokens and non-access tokens are rejected.
func (m *Manager) Parse(rawToken string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}

	if claims.Type != accessTokenType {
		return nil, ErrInvalid
	}

	return claims, nil
}

// Verify verifies rawToken and returns the user ID in its subject.
func (m *Manager) Verify(rawToken string) (uuid.UUID, error) {
	claims, err := m.Parse(rawToken)
	if err != nil {
		return uuid.UUID{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.UUID{}, ErrInvalid
	}
	return userID, nil
}

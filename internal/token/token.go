// Package token issues and verifies the HS256 access tokens handed out at
// sign-in, and tracks revoked tokens until they would have expired anyway.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// ErrInvalidToken indicates the token failed validation or was revoked.
var ErrInvalidToken = errors.New("invalid token")

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("auth secret is not configured")

// Claims carried by an access token.
type Claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Revocations remembers revoked token ids until their expiry.
type Revocations interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Manager signs and parses access tokens.
type Manager struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoked Revocations
	now     func() time.Time
}

// NewManager builds a Manager from the auth config.
func NewManager(cfg config.AuthConfig, revoked Revocations) (*Manager, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token ttl must be greater than zero")
	}
	if revoked == nil {
		revoked = NewMemoryRevocations()
	}
	return &Manager{
		secret:  []byte(secret),
		issuer:  cfg.Issuer,
		ttl:     cfg.TokenTTL,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

// Issue signs a token for the identity with the given role.
func (m *Manager) Issue(ident model.Identity, role model.Role) (string, time.Time, error) {
	if strings.TrimSpace(ident.ID) == "" {
		return "", time.Time{}, errors.New("identity id is required")
	}
	now := m.now().UTC()
	expires := now.Add(m.ttl)
	claims := Claims{
		Email: ident.Email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   ident.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies signature, issuer, expiry and revocation.
func (m *Manager) Parse(ctx context.Context, raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke invalidates the token described by claims.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}
	until := m.now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := m.revoked.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Package auth issues and verifies session tokens and staff passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = domain.NewUnauthorizedError("Invalid or expired token")

type tokenType string

const (
	tokenTypeAccess  tokenType = "access"
	tokenTypeRefresh tokenType = "refresh"
)

type accessClaims struct {
	jwt.RegisteredClaims
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenType tokenType `json:"token_type"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
	ID        string    `json:"id"`
	TokenType tokenType `json:"token_type"`
}

// Tokens signs session tokens with a shared HMAC secret.
type Tokens struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

var _ ports.TokenService = (*Tokens)(nil)

// NewTokens creates the token service. Only HMAC algorithms are accepted.
func NewTokens(cfg *config.JWTConfig) (*Tokens, error) {
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q: must be HS256, HS384 or HS512", cfg.Algorithm)
	}

	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is empty")
	}

	return &Tokens{
		secret:     []byte(cfg.SecretKey),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}, nil
}

// AccessTTL is the lifetime of access tokens.
func (t *Tokens) AccessTTL() time.Duration { return t.accessTTL }

// RefreshTTL is the lifetime of refresh tokens.
func (t *Tokens) RefreshTTL() time.Duration { return t.refreshTTL }

// IssueAccess signs an access token for the user.
func (t *Tokens) IssueAccess(user *domain.CurrentUser) (string, error) {
	now := t.now()
	claims := &accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		TokenType: tokenTypeAccess,
	}

	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}

	return signed, nil
}

// IssueRefresh signs a refresh token carrying only the user id.
func (t *Tokens) IssueRefresh(userID string) (string, error) {
	now := t.now()
	claims := &refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
		},
		ID:        userID,
		TokenType: tokenTypeRefresh,
	}

	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing refresh token: %w", err)
	}

	return signed, nil
}

// ParseAccess verifies an access token and returns its claims.
func (t *Tokens) ParseAccess(token string) (*ports.AccessClaims, error) {
	claims := &accessClaims{}
	if err := t.parse(token, claims); err != nil {
		return nil, err
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}

	out := &ports.AccessClaims{
		UserID:  claims.ID,
		Name:    claims.Name,
		Email:   claims.Email,
		Role:    domain.Role(claims.Role),
		TokenID: claims.RegisteredClaims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}

// ParseRefresh verifies a refresh token and returns the user id it names.
func (t *Tokens) ParseRefresh(token string) (string, error) {
	claims := &refreshClaims{}
	if err := t.parse(token, claims); err != nil {
		return "", err
	}

	if claims.TokenType != tokenTypeRefresh || claims.ID == "" {
		return "", ErrInvalidToken
	}

	return claims.ID, nil
}

func (t *Tokens) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}

		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}

	return nil
}

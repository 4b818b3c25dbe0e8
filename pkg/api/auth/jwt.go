// Package auth provides JWT authentication for the vault management API.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles for management API callers.
const (
	// RoleAdmin may run every operation, including force release, secure
	// deletion and project removal.
	RoleAdmin = "admin"

	// RoleOperator may read state and run non-destructive operations.
	RoleOperator = "operator"
)

// Claims are the JWT claims of a management API token.
//
// UserID is the platform identity the call acts as; every engine
// operation and audit entry is attributed to it.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the acting user's platform identifier.
	UserID string `json:"uid"`

	// Role is "admin" or "operator".
	Role string `json:"role"`
}

// IsAdmin returns true if the caller has the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// JWTConfig configures the JWT service.
type JWTConfig struct {
	// Secret is the HMAC-SHA256 signing key. At least 32 characters.
	Secret string

	// Issuer is the iss claim of issued tokens.
	Issuer string

	// TokenDuration is the lifetime of issued tokens.
	TokenDuration time.Duration
}

// JWTService issues and validates management API tokens.
type JWTService struct {
	secret        []byte
	issuer        string
	tokenDuration time.Duration
}

var nowFunc = time.Now

// NewJWTService creates a JWT service. The secret must be at least 32
// characters; short HMAC keys are brute-forceable.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters, got %d", len(cfg.Secret))
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "hubvault"
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = 15 * time.Minute
	}

	return &JWTService{
		secret:        []byte(cfg.Secret),
		issuer:        cfg.Issuer,
		tokenDuration: cfg.TokenDuration,
	}, nil
}

// GenerateToken issues a signed token acting as userID with the given
// role.
func (s *JWTService) GenerateToken(userID, role string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if role != RoleAdmin && role != RoleOperator {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := nowFunc()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
		},
		UserID: userID,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// TokenDuration returns the configured token lifetime.
func (s *JWTService) TokenDuration() time.Duration {
	return s.tokenDuration
}

package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role values carried in the "role" claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims represents the identity contained in a JWT.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims grant the admin role.
func (c Claims) IsAdmin() bool {
	return strings.EqualFold(c.Role, RoleAdmin)
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Keys signs and verifies HS256 tokens with an injected secret.
type Keys struct {
	secret []byte
}

// NewKeys builds Keys for env. An empty secret falls back to a dev key
// outside production and is an error in production.
func NewKeys(secret, env string) (*Keys, error) {
	secret = strings.TrimSpace(secret)
	env = strings.ToLower(strings.TrimSpace(env))
	if secret == "" {
		if env == "production" || env == "prod" {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
		secret = "dev-secret"
	}
	return &Keys{secret: []byte(secret)}, nil
}

// Sign signs claims, defaulting iat to now and exp to 24h.
func (k *Keys) Sign(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("sub is required")
	}
	now := time.Now().UTC()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(24 * time.Hour))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(k.secret)
}

// Verify checks signature and expiry and returns the claims.
func (k *Keys) Verify(token string) (Claims, error) {
	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return k.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// SignJWT signs claims with the secret from the JWT_SECRET environment
// variable. Used by tooling and tests; the server injects Keys.
func SignJWT(claims Claims) (string, error) {
	keys, err := envKeys()
	if err != nil {
		return "", err
	}
	return keys.Sign(claims)
}

// VerifyJWT verifies a token against the JWT_SECRET environment variable.
func VerifyJWT(token string) (Claims, error) {
	keys, err := envKeys()
	if err != nil {
		return Claims{}, err
	}
	return keys.Verify(token)
}

func envKeys() (*Keys, error) {
	return NewKeys(os.Getenv("JWT_SECRET"), os.Getenv("ENV"))
}

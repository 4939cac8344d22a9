package auth

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/LilFatFrank/scratch-off/pkg/config"
)

// SessionIssuer mints and validates HMAC-signed session tokens. A session
// binds one wallet address for the configured TTL.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

// sessionClaims is the JWT payload of a session token.
type sessionClaims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}

// NewSessionIssuer loads the signing secret from the configured env var.
func NewSessionIssuer(cfg *config.AuthConfig) (*SessionIssuer, error) {
	secret := strings.TrimSpace(os.Getenv(cfg.JWTSecretEnv))
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret env %s must hold at least 32 bytes", cfg.JWTSecretEnv)
	}
	return &SessionIssuer{secret: []byte(secret), ttl: cfg.SessionTTL}, nil
}

// NewSessionIssuerWithSecret builds an issuer from raw secret material.
// Used by tests.
func NewSessionIssuerWithSecret(secret []byte, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: secret, ttl: ttl}
}

// Issue mints a session token for the given wallet.
func (s *SessionIssuer) Issue(wallet string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Wallet: NormalizeAddress(wallet),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate checks a session token and returns the bound wallet address.
func (s *SessionIssuer) Validate(tokenString string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid session token")
	}
	if claims.Wallet == "" {
		return "", fmt.Errorf("session token has no wallet claim")
	}
	return claims.Wallet, nil
}

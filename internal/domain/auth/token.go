package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tolk-server-go/internal/platform/errors"
)

const defaultTTL = 12 * time.Hour

// AuthToken signs and verifies operator bearer tokens (HS256).
type AuthToken struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthToken builds a token helper using the provided secret.
func NewAuthToken(secretKey string) *AuthToken {
	return &AuthToken{
		secretKey: []byte(secretKey),
		ttl:       defaultTTL,
		now:       time.Now,
	}
}

// WithTTL allows customising the expiration duration.
func (at *AuthToken) WithTTL(ttl time.Duration) *AuthToken {
	if ttl > 0 {
		at.ttl = ttl
	}
	return at
}

// Enabled 是否配置了签名密钥
func (at *AuthToken) Enabled() bool {
	return at != nil && len(at.secretKey) > 0
}

// GenerateToken issues a token for the given subject, e.g. a front-desk terminal name.
func (at *AuthToken) GenerateToken(subject string) (string, error) {
	if !at.Enabled() {
		return "", errors.New(errors.KindConfig, "auth.generate_token", "jwt secret is not configured")
	}

	now := at.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(at.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(at.secretKey)
	if err != nil {
		return "", errors.Wrap(errors.KindPlatform, "auth.generate_token", "failed to sign token", err)
	}
	return signed, nil
}

// VerifyToken validates the token and returns its subject.
func (at *AuthToken) VerifyToken(tokenString string) (string, error) {
	const op = "auth.verify_token"
	if !at.Enabled() {
		return "", errors.New(errors.KindConfig, op, "jwt secret is not configured")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return at.secretKey, nil
	}, jwt.WithTimeFunc(at.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Wrap(errors.KindValidation, op, "invalid token", err)
	}
	if !token.Valid {
		return "", errors.New(errors.KindValidation, op, "invalid token")
	}
	return claims.Subject, nil
}

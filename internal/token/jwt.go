// Package token issues and validates the bearer tokens callers use to prove
// control of the identity key they register.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"slotkeeper/internal/platform/middleware"
	dErrors "slotkeeper/pkg/domain-errors"
)

// Claims are the JWT claims carried by caller tokens.
type Claims struct {
	Key      string `json:"key"`
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Service signs and validates caller tokens with a shared HMAC key.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Generate issues a token binding key and clientID for expiresIn.
func (s *Service) Generate(key, clientID string, expiresIn time.Duration) (string, error) {
	claims := Claims{
		Key:      key,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, expiry, and issuer, and extracts the
// caller identity. Implements middleware.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (*middleware.CallerClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Key == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token carries no caller key")
	}

	return &middleware.CallerClaims{Key: claims.Key, ClientID: claims.ClientID}, nil
}

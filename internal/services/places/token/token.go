// Package token issues and verifies the signed identity tokens handed out at
// signup and login.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/requestctx"
)

// Lifetime is how long an issued token stays valid.
const Lifetime = time.Hour

const signingMethod = "HS256"

// Failure reasons carried in AuthError metadata.
const (
	ReasonExpired          = "expired"
	ReasonMalformed        = "malformed"
	ReasonInvalidSignature = "invalid-signature"
)

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Key    string `env:"PLACES_JWT_KEY"`
	Issuer string `env:"PLACES_JWT_ISSUER"`
}

// Config defines how tokens are signed and verified.
type Config struct {
	Secret []byte
	Issuer string
	Now    func() time.Time
}

// LoadConfigFromEnv reads the signing key and issuer once at startup.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	key := strings.TrimSpace(raw.Key)
	if key == "" {
		return Config{}, apperrors.New(apperrors.CodeConfigInvalid, "PLACES_JWT_KEY is required")
	}
	return Config{
		Secret: []byte(key),
		Issuer: strings.TrimSpace(raw.Issuer),
		Now:    now,
	}, nil
}

// Service signs and verifies identity tokens with a fixed secret.
type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewService builds a token service. The secret is copied and never mutated.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, apperrors.New(apperrors.CodeConfigInvalid, "token signing key is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &Service{secret: secret, issuer: cfg.Issuer, now: now}, nil
}

type identityClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Issue signs a token for identity that expires after Lifetime.
func (s *Service) Issue(identity requestctx.Identity) (string, error) {
	if s == nil {
		return "", apperrors.New(apperrors.CodeConfigInvalid, "token service is not configured")
	}
	if strings.TrimSpace(identity.UserID) == "" {
		return "", errors.New("user id is required")
	}
	issuedAt := s.now().UTC().Truncate(time.Second)
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(Lifetime)),
		},
		UserID: identity.UserID,
		Email:  identity.Email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns the identity it
// carries.
func (s *Service) Verify(raw string) (requestctx.Identity, error) {
	if s == nil {
		return requestctx.Identity{}, apperrors.New(apperrors.CodeConfigInvalid, "token service is not configured")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return requestctx.Identity{}, authError(apperrors.CodeTokenMalformed, ReasonMalformed, nil)
	}

	var parsed identityClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return requestctx.Identity{}, mapJWTError(err)
	}

	if parsed.ExpiresAt == nil {
		return requestctx.Identity{}, authError(apperrors.CodeTokenMalformed, ReasonMalformed, nil)
	}
	if !parsed.ExpiresAt.Time.After(s.now()) {
		return requestctx.Identity{}, authError(apperrors.CodeTokenExpired, ReasonExpired, nil)
	}
	if s.issuer != "" && parsed.Issuer != s.issuer {
		return requestctx.Identity{}, authError(apperrors.CodeTokenMalformed, ReasonMalformed, nil)
	}
	if strings.TrimSpace(parsed.UserID) == "" {
		return requestctx.Identity{}, authError(apperrors.CodeTokenMalformed, ReasonMalformed, nil)
	}
	return requestctx.Identity{UserID: parsed.UserID, Email: parsed.Email}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return authError(apperrors.CodeTokenExpired, ReasonExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return authError(apperrors.CodeTokenSignatureInvalid, ReasonInvalidSignature, err)
	default:
		return authError(apperrors.CodeTokenMalformed, ReasonMalformed, err)
	}
}

func authError(code apperrors.Code, reason string, cause error) error {
	return &apperrors.Error{
		Code:     code,
		Message:  "Authentication failed!",
		Metadata: map[string]string{"Reason": reason},
		Cause:    cause,
	}
}

package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/requestctx"
)

func newTestService(t *testing.T, now func() time.Time) *Service {
	t.Helper()
	svc, err := NewService(Config{Secret: []byte("test-secret"), Issuer: "places", Now: now})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := err.(*apperrors.Error)
	if !ok {
		t.Fatalf("error type = %T, want *apperrors.Error", err)
	}
	return appErr.Metadata["Reason"]
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	token, err := svc.Issue(requestctx.Identity{UserID: "user-1", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	identity, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UserID != "user-1" || identity.Email != "a@b.com" {
		t.Fatalf("identity = %+v, want user-1/a@b.com", identity)
	}
}

func TestIssueSetsOneHourExpiry(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return issued })
	token, err := svc.Issue(requestctx.Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var claims identityClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != Lifetime {
		t.Fatalf("lifetime = %v, want %v", got, Lifetime)
	}
	if claims.Issuer != "places" {
		t.Fatalf("issuer = %q, want places", claims.Issuer)
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	token, err := svc.Issue(requestctx.Identity{UserID: "user-1", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Verify(tampered)
	if !apperrors.HasCode(err, apperrors.CodeTokenSignatureInvalid) {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeTokenSignatureInvalid)
	}
	if reason := reasonOf(t, err); reason != ReasonInvalidSignature {
		t.Fatalf("reason = %q, want %q", reason, ReasonInvalidSignature)
	}
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	t.Parallel()

	other, err := NewService(Config{Secret: []byte("other-secret"), Issuer: "places"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	token, err := other.Issue(requestctx.Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := newTestService(t, nil).Verify(token); !apperrors.HasCode(err, apperrors.CodeTokenSignatureInvalid) {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeTokenSignatureInvalid)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return now })
	token, err := svc.Issue(requestctx.Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(Lifetime + time.Second)
	_, err = svc.Verify(token)
	if !apperrors.HasCode(err, apperrors.CodeTokenExpired) {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeTokenExpired)
	}
	if reason := reasonOf(t, err); reason != ReasonExpired {
		t.Fatalf("reason = %q, want %q", reason, ReasonExpired)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(raw)
		if !apperrors.HasCode(err, apperrors.CodeTokenMalformed) {
			t.Fatalf("Verify(%q) code = %s, want %s", raw, apperrors.CodeOf(err), apperrors.CodeTokenMalformed)
		}
		if apperrors.HTTPStatus(err) != 401 {
			t.Fatalf("Verify(%q) status = %d, want 401", raw, apperrors.HTTPStatus(err))
		}
	}
}

func TestVerifyRejectsUnexpectedAlgorithm(t *testing.T) {
	t.Parallel()

	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "user-1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := newTestService(t, nil).Verify(token); err == nil {
		t.Fatal("expected HS512 token to be rejected")
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewService(Config{})
	if !apperrors.HasCode(err, apperrors.CodeConfigInvalid) {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeConfigInvalid)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PLACES_JWT_KEY", " secret ")
	t.Setenv("PLACES_JWT_ISSUER", "places-api")

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if string(cfg.Secret) != "secret" || cfg.Issuer != "places-api" {
		t.Fatalf("config = %q/%q, want secret/places-api", cfg.Secret, cfg.Issuer)
	}
}

func TestLoadConfigFromEnvRequiresKey(t *testing.T) {
	t.Setenv("PLACES_JWT_KEY", "")

	if _, err := LoadConfigFromEnv(nil); !apperrors.HasCode(err, apperrors.CodeConfigInvalid) {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeConfigInvalid)
	}
}

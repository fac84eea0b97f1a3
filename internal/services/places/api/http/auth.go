package httpapi

import (
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/httpx"
	"github.com/louisbranch/places/internal/platform/requestctx"
)

// ErrAuthRequired is returned when a protected route has no bearer token.
var ErrAuthRequired = apperrors.New(apperrors.CodeUnauthenticated, "Authentication failed!")

// TokenVerifier resolves a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (requestctx.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// verified identity in the request context.
func RequireAuth(verifier TokenVerifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || verifier == nil {
				httpx.WriteError(w, ErrAuthRequired)
				return
			}
			identity, err := verifier.Verify(raw)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

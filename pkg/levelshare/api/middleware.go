package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/bect/levelshare/pkg/levelshare"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext returns the authenticated actor placed by Authenticator.
func IdentityFromContext(ctx context.Context) (levelshare.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(levelshare.Identity)
	return identity, ok
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// Authenticator verifies the bearer token on every request it wraps and
// stores the resolved identity in the request context. Missing and invalid
// tokens both answer 401; callers never learn which.
func Authenticator(identity levelshare.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := identity.VerifySession(r.Context(), bearerToken(r))
			if err != nil {
				writeError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, *actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose actor does not carry the admin role.
// Must be mounted inside Authenticator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok || !actor.IsAdmin() {
			writeError(w, r, levelshare.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

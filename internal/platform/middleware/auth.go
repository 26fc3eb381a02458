package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
	"specregistry/pkg/platform/httputil"
	"specregistry/pkg/requestcontext"
)

// TokenVerifier validates a bearer token and returns the caller it encodes.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.UserContext, error)
}

const bearerPrefix = "Bearer "

// Authenticate resolves the Authorization header when present. An invalid
// token is rejected outright; a missing header leaves the request anonymous
// so that anonymous-allowed read endpoints keep working. Endpoints that need
// a caller pair this with RequireUser or RequireAdmin.
func Authenticate(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "malformed Authorization header"))
				return
			}
			user, err := verifier.VerifyToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.User(r.Context()) == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests and callers without the Admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := requestcontext.User(r.Context())
		if user == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		if !user.Role.IsAdmin() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "administrator role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

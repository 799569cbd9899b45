package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Atim-01/devblog/internal/models"
	"github.com/gorilla/mux"
)

// TokenCookie is the cookie that may carry the access token
const TokenCookie = "jwt"

// ErrMissingToken is passed to DenyFunc when no token was sent
var ErrMissingToken = errors.New("missing access token")

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves an access token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// DenyFunc writes the response for a rejected request
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// AuthMiddleware rejects requests without a valid token and stores the
// authenticated user in the request context
func AuthMiddleware(authn Authenticator, deny DenyFunc) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				deny(w, r, ErrMissingToken)
				return
			}
			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// TokenFromRequest reads a bearer token from the Authorization header,
// falling back to the jwt cookie
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

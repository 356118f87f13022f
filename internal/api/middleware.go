package api

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"blogify/internal/apperr"
	"blogify/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a bearer access token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate rejects requests without a valid bearer token and attaches
// the caller to the request context otherwise.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, apperr.New(apperr.KindNoToken, "Access denied. No token provided."))
			return
		}

		user, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// OptionalAuthenticate attaches the caller when a valid bearer token is
// present and passes every request through.
func (m *AuthMiddleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if user, err := m.auth.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(withUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Authorize admits only callers whose role is listed. It must run after
// Authenticate.
func Authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeError(w, r, apperr.New(apperr.KindUnauthenticated, "Authentication required."))
				return
			}
			if !slices.Contains(roles, user.Role) {
				writeError(w, r, apperr.New(apperr.KindForbidden, "Access denied. Insufficient permissions."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// userID returns the authenticated caller's id, or "" for anonymous requests.
func userID(r *http.Request) string {
	if user := UserFromContext(r.Context()); user != nil {
		return user.ID
	}
	return ""
}

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// BearerMiddleware authenticates API requests via an "Authorization: Bearer"
// header. Only tokens of the required kind are accepted.
type BearerMiddleware struct {
	verifier     Verifier
	unauthorized http.HandlerFunc
}

// NewBearerMiddleware builds the middleware. unauthorized renders the 401
// response; nil selects a plain JSON error body.
func NewBearerMiddleware(v Verifier, unauthorized http.HandlerFunc) *BearerMiddleware {
	if unauthorized == nil {
		unauthorized = writeUnauthorized
	}
	return &BearerMiddleware{verifier: v, unauthorized: unauthorized}
}

// Require returns a middleware that rejects requests without a valid token of
// kind. On success the token subject is available via UserIDFromContext.
func (m *BearerMiddleware) Require(kind Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				m.unauthorized(w, r)
				return
			}
			userID, err := m.verifier.Verify(token, kind)
			if err != nil {
				m.unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext retrieves the authenticated user id from the context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

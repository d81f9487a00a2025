package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pausemo/api/internal/model"
)

// UserIDHeader carries the caller's user id, set by the upstream gateway
// after it has authenticated the request
const UserIDHeader = "X-User-ID"

// maxUserIDLength bounds the header value
const maxUserIDLength = 128

// UserContext puts the gateway-supplied user id into the request context.
// Requests without one are rejected with 401.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			model.NewUnauthorizedError("missing " + UserIDHeader + " header").WriteJSON(w)
			return
		}
		if len(userID) > maxUserIDLength || strings.ContainsAny(userID, " \t\r\n") {
			model.NewUnauthorizedError("invalid " + UserIDHeader + " header").WriteJSON(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID returns a context carrying userID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

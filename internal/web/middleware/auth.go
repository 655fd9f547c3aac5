package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labtrack/console/internal/core"
	"github.com/labtrack/console/internal/forms"
)

type userContextKey struct{}

// GatewayUser returns middleware that extracts the authenticated user from
// the trusted gateway headers and stores it in the request context.
// Authentication itself happens at the gateway; this service only runs
// behind it, so a request without the user header is rejected outright.
//
// The role header is optional and defaults to the student role: every
// authenticated user may manage their own account, and the role only
// widens form requirements.
func GatewayUser(userHeader, roleHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userHeader))
			if userID == "" {
				slog.Warn("auth: missing user header",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, `{"error":"not authenticated","code":"AUTH_MISSING_USER"}`, http.StatusUnauthorized)
				return
			}

			user := core.User{ID: userID, Role: parseRole(r.Header.Get(roleHeader))}
			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user stored by GatewayUser.
func UserFromContext(ctx context.Context) (core.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(core.User)
	return user, ok
}

// parseRole maps the role header to a known role, defaulting to student.
func parseRole(raw string) forms.Role {
	switch forms.Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case forms.RoleSupervisor:
		return forms.RoleSupervisor
	case forms.RoleAdmin:
		return forms.RoleAdmin
	default:
		return forms.RoleStudent
	}
}

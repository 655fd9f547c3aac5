package web

import (
	"context"
	"net/http"

	"github.com/labtrack/console/internal/core"
	"github.com/labtrack/console/internal/web/middleware"
)

// currentUser returns the authenticated user placed in the context by the
// gateway middleware. Handlers under /api can rely on it being present;
// the false case means a route was mounted outside the auth group.
func currentUser(r *http.Request) (core.User, bool) {
	return middleware.UserFromContext(r.Context())
}

// withRecorder attaches a notification recorder to the request context so
// the service's toasts can be returned in the response body.
func withRecorder(r *http.Request) (context.Context, *core.Recorder) {
	recorder := core.NewRecorder()
	return core.ContextWithNotifier(r.Context(), recorder), recorder
}

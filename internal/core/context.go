package core

import "context"

type contextKey string

const ctxKeyNotifier contextKey = "notifier"

// ContextWithNotifier attaches a request-scoped notification sink.
// The web layer installs a Recorder per request so notifications ride
// back to the browser in the response.
func ContextWithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKeyNotifier, n)
}

// notifierFromContext returns the request's sink, or the service default.
func (s *Service) notifierFromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(ctxKeyNotifier).(Notifier); ok && n != nil {
		return n
	}
	return s.notifier
}

package core

// notify.go defines the notification sink. Notifications are
// fire-and-forget user feedback; the sink's return value is never
// consumed and a sink must never block.

import (
	"log/slog"
	"sync"
)

// NotificationKind classifies a notification for the UI.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is one user-facing toast message.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(kind NotificationKind, message string)
}

// LogNotifier writes notifications to the structured log. It is the
// fallback sink when no request-scoped sink is present.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a sink backed by the given logger.
// A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(kind NotificationKind, message string) {
	n.logger.Info("notification", "kind", string(kind), "message", message)
}

// Recorder collects notifications so a request handler can return them to
// the browser, and tests can assert on them.
type Recorder struct {
	mu     sync.Mutex
	events []Notification
}

// NewRecorder creates an empty notification recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(kind NotificationKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Notification{Kind: kind, Message: message})
}

// Events returns a copy of the recorded notifications in emission order.
func (r *Recorder) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.events...)
}

// Package core provides the business logic for the account console:
// mutation orchestration, the multi-target document upload coordinator,
// notification and cache-invalidation sinks, and user-facing error
// mapping. This package has no HTTP-handler dependencies and can be used
// by any frontend.
package core

import (
	"errors"
	"fmt"

	"github.com/labtrack/console/internal/forms"
)

// User identifies the acting user. It is always passed explicitly: the
// console never reads a process-global current user.
type User struct {
	ID   string
	Role forms.Role
}

// Action names one logical mutation. At most one attempt per action per
// user is in flight at any time.
type Action string

const (
	ActionUpdateProfile     Action = "update_profile"
	ActionChangePassword    Action = "change_password"
	ActionUpdatePreferences Action = "update_preferences"
	ActionUploadAvatar      Action = "upload_avatar"
	ActionUploadDocument    Action = "upload_document"
)

// MutationPhase is the lifecycle state of one logical mutation.
type MutationPhase string

const (
	PhaseIdle      MutationPhase = "idle"
	PhasePending   MutationPhase = "pending"
	PhaseSucceeded MutationPhase = "succeeded"
	PhaseFailed    MutationPhase = "failed"
)

// ErrMutationInFlight is returned when a mutation is triggered while a
// previous attempt for the same action is still pending. The caller treats
// it as a no-op, not as a queueing request.
var ErrMutationInFlight = errors.New("a previous attempt is still in progress")

// ErrFormInvalid is returned when client-side validation fails. The field
// errors live on the form; nothing was sent to the network.
var ErrFormInvalid = errors.New("form has validation errors")

// ErrNoTargets is returned when a document upload has no target projects
// selected. Checked before any network activity.
var ErrNoTargets = errors.New("no target project selected")

// FileRejectedError reports a file that failed constraint validation.
// Reason is the validator's human-readable rejection message.
type FileRejectedError struct {
	Reason string
}

func (e *FileRejectedError) Error() string {
	return e.Reason
}

// TargetFailure records one target project's failed submission in a batch.
type TargetFailure struct {
	Target string `json:"target"`
	Error  string `json:"error"`
}

// BatchOutcome aggregates per-target results of a multi-target document
// submission. Failures preserve the order targets were attempted in.
type BatchOutcome struct {
	SuccessCount int             `json:"successCount"`
	Failures     []TargetFailure `json:"failures,omitempty"`
}

// AllFailed reports whether no target accepted the upload.
func (o BatchOutcome) AllFailed() bool {
	return o.SuccessCount == 0
}

// Attempted returns the total number of targets attempted.
func (o BatchOutcome) Attempted() int {
	return o.SuccessCount + len(o.Failures)
}

// DocumentUploadResult is the coordinator's result: the aggregated
// outcome plus where the UI should navigate when anything succeeded.
type DocumentUploadResult struct {
	Outcome    BatchOutcome `json:"outcome"`
	RedirectTo string       `json:"redirectTo,omitempty"`
}

// documentViewPath is the UI route for a project's document list.
func documentViewPath(projectID string) string {
	return fmt.Sprintf("/projects/%s/documents", projectID)
}

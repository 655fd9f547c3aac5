package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/labtrack/console/internal/api"
	"github.com/labtrack/console/internal/metrics"
	"github.com/labtrack/console/internal/policy"
)

// ProfileService is the profile read/write collaborator.
type ProfileService interface {
	Get(ctx context.Context) (*api.Profile, error)
	Update(ctx context.Context, update api.ProfileUpdate) (*api.Profile, error)
}

// PasswordService is the password-change collaborator.
type PasswordService interface {
	Change(ctx context.Context, currentPassword, newPassword string) error
}

// PreferencesService is the preferences collaborator.
type PreferencesService interface {
	Get(ctx context.Context) (api.Preferences, error)
	Update(ctx context.Context, p api.Preferences) error
}

// AvatarService is the avatar upload collaborator.
type AvatarService interface {
	Upload(ctx context.Context, file api.File) (string, error)
}

// DocumentService is the document upload collaborator, invoked once per
// target project by the batch coordinator.
type DocumentService interface {
	Upload(ctx context.Context, projectID string, file api.File, description string) error
}

// Deps bundles the Service's collaborators.
type Deps struct {
	Profiles    ProfileService
	Passwords   PasswordService
	Preferences PreferencesService
	Avatars     AvatarService
	Documents   DocumentService

	AvatarPolicy   policy.Provider
	DocumentPolicy policy.Provider

	// Notifier is the fallback sink when a request carries none.
	Notifier Notifier

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Service orchestrates the console's mutations.
type Service struct {
	profiles    ProfileService
	passwords   PasswordService
	preferences PreferencesService
	avatars     AvatarService
	documents   DocumentService

	avatarPolicy   policy.Provider
	documentPolicy policy.Provider

	cache    *Cache
	notifier Notifier
	metrics  *metrics.Metrics
	trackers *trackerSet
	previews *PreviewStore
	sanitize *bluemonday.Policy
}

// NewService creates the orchestration service.
func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Profiles == nil:
		return nil, fmt.Errorf("new service: profile client is required")
	case deps.Passwords == nil:
		return nil, fmt.Errorf("new service: password client is required")
	case deps.Preferences == nil:
		return nil, fmt.Errorf("new service: preferences client is required")
	case deps.Avatars == nil:
		return nil, fmt.Errorf("new service: avatar client is required")
	case deps.Documents == nil:
		return nil, fmt.Errorf("new service: document client is required")
	case deps.AvatarPolicy == nil || deps.DocumentPolicy == nil:
		return nil, fmt.Errorf("new service: both upload policies are required")
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(nil)
	}

	return &Service{
		profiles:       deps.Profiles,
		passwords:      deps.Passwords,
		preferences:    deps.Preferences,
		avatars:        deps.Avatars,
		documents:      deps.Documents,
		avatarPolicy:   deps.AvatarPolicy,
		documentPolicy: deps.DocumentPolicy,
		cache:          NewCache(),
		notifier:       notifier,
		metrics:        deps.Metrics,
		trackers:       newTrackerSet(),
		previews:       NewPreviewStore(),
		// Descriptions are free text typed next to a file picker; any
		// markup in them is an accident or an attack, never intent.
		sanitize: bluemonday.StrictPolicy(),
	}, nil
}

// Cache exposes the read-side cache, mainly for handlers and tests.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Previews exposes the preview handle store.
func (s *Service) Previews() *PreviewStore {
	return s.previews
}

// MutationPhase reports the current phase for a (user, action) pair.
func (s *Service) MutationPhase(user User, action Action) MutationPhase {
	return s.trackers.get(user.ID, action).Phase()
}

// AvatarPolicy resolves the active avatar upload policy.
func (s *Service) AvatarPolicy(ctx context.Context) (policy.Policy, error) {
	return s.avatarPolicy.Policy(ctx)
}

// DocumentPolicy resolves the active document upload policy.
func (s *Service) DocumentPolicy(ctx context.Context) (policy.Policy, error) {
	return s.documentPolicy.Policy(ctx)
}

// Shutdown closes all trackers and releases all preview handles.
func (s *Service) Shutdown() {
	s.trackers.closeAll()
	s.previews.Close()
}

// notify emits a notification through the request's sink.
func (s *Service) notify(ctx context.Context, kind NotificationKind, message string) {
	s.notifierFromContext(ctx).Notify(kind, message)
	s.metrics.ObserveNotification(string(kind))
}

// run executes one logical mutation under single-flight control.
//
// On success it invalidates the listed cache patterns and emits the fixed
// success message. On failure it emits the server-provided message when
// present (falling back to failureMsg) and forwards field-scoped server
// errors to the form. Completions for a closed tracker update the cache
// (the data really changed) but touch neither the form nor the user.
func (s *Service) run(
	ctx context.Context,
	user User,
	action Action,
	form serverErrorSink,
	successMsg, failureMsg string,
	invalidate []string,
	work func(ctx context.Context) error,
) error {
	tracker := s.trackers.get(user.ID, action)
	attempt, err := tracker.Begin()
	if err != nil {
		return err
	}

	if err := work(ctx); err != nil {
		live := tracker.Fail(attempt, err.Error())
		s.metrics.ObserveMutation(string(action), "failure")

		if live {
			var reqErr *api.RequestError
			if errors.As(err, &reqErr) && reqErr.HasFields() && form != nil {
				form.ApplyServerErrors(reqErr.Fields)
			}
			s.notify(ctx, NotifyError, failureMessage(err, failureMsg))
		}
		return err
	}

	live := tracker.Succeed(attempt)
	s.metrics.ObserveMutation(string(action), "success")

	for _, pattern := range invalidate {
		s.cache.Invalidate(pattern)
	}
	if live {
		s.notify(ctx, NotifySuccess, successMsg)
	}
	return nil
}

// serverErrorSink is the slice of the form controller the orchestrator
// needs: somewhere to merge field-scoped server errors.
type serverErrorSink interface {
	ApplyServerErrors(errs map[string]string)
}

// failureMessage picks the user-facing message for a failed mutation:
// the upstream-provided message when there is one, else the generic
// per-action fallback.
func failureMessage(err error, fallback string) string {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}

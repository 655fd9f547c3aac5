package core

// service_documents.go implements the batch upload coordinator: one file,
// optional shared description, N target projects.
//
// Targets are submitted strictly sequentially in list order. Sequencing
// is deliberate: it bounds upstream load to one in-flight upload and
// keeps failure attribution deterministic, matching the input order. A
// target's failure never blocks or cancels the remaining targets, and
// nothing is retried or rolled back; the result is always a BatchOutcome.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labtrack/console/internal/api"
	"github.com/labtrack/console/internal/logging"
	"github.com/labtrack/console/internal/policy"
)

// genericUploadFailure is the per-target fallback when the service gives
// no usable message.
const genericUploadFailure = "upload failed"

// UploadDocuments submits one document against the given target projects.
//
// Preconditions are checked before any network activity: a file must be
// present, at least one target selected, and the file must pass the
// document policy. A single target delegates to the plain mutation path;
// multiple targets run the sequential batch loop. Partial failure is not
// an error: the outcome reports it and the caller renders it.
func (s *Service) UploadDocuments(ctx context.Context, user User, file api.File, description string, targets []string) (*DocumentUploadResult, error) {
	if len(file.Content) == 0 || file.Name == "" {
		return nil, &FileRejectedError{Reason: "no file provided"}
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	result, err := policy.ValidateWith(ctx, s.documentPolicy, policy.FileInfo{
		Name:     file.Name,
		MIMEType: file.MIMEType,
		Size:     file.Size(),
	})
	if err != nil {
		return nil, fmt.Errorf("document validation: %w", err)
	}
	if !result.Accepted {
		s.notify(ctx, NotifyError, result.Reason)
		return nil, &FileRejectedError{Reason: result.Reason}
	}

	description = s.sanitizeDescription(description)

	tracker := s.trackers.get(user.ID, ActionUploadDocument)
	attempt, err := tracker.Begin()
	if err != nil {
		return nil, err
	}

	if len(targets) == 1 {
		return s.uploadSingle(ctx, tracker, attempt, file, description, targets[0])
	}
	return s.uploadBatch(ctx, user, tracker, attempt, file, description, targets)
}

// uploadSingle is the no-batching path for exactly one target.
func (s *Service) uploadSingle(ctx context.Context, tracker *Tracker, attempt string, file api.File, description, target string) (*DocumentUploadResult, error) {
	outcome := BatchOutcome{}

	if err := s.documents.Upload(ctx, target, file, description); err != nil {
		outcome.Failures = append(outcome.Failures, TargetFailure{
			Target: target,
			Error:  targetErrorMessage(err),
		})
		s.metrics.ObserveUploadTarget("failure")
		s.metrics.ObserveMutation(string(ActionUploadDocument), "failure")

		if tracker.Fail(attempt, err.Error()) {
			s.notify(ctx, NotifyError, failureMessage(err, "Could not upload document"))
		}
		return &DocumentUploadResult{Outcome: outcome}, nil
	}

	outcome.SuccessCount = 1
	s.metrics.ObserveUploadTarget("success")
	s.metrics.ObserveMutation(string(ActionUploadDocument), "success")

	s.invalidateDocuments(target)
	if tracker.Succeed(attempt) {
		s.notify(ctx, NotifySuccess, "Document uploaded")
	}

	return &DocumentUploadResult{
		Outcome:    outcome,
		RedirectTo: documentViewPath(target),
	}, nil
}

// uploadBatch runs the sequential multi-target loop.
func (s *Service) uploadBatch(ctx context.Context, user User, tracker *Tracker, attempt string, file api.File, description string, targets []string) (*DocumentUploadResult, error) {
	logger := logging.WithFields(ctx,
		"action", string(ActionUploadDocument),
		"user", user.ID,
		"file", file.Name,
		"targets", len(targets),
	)

	outcome := BatchOutcome{}

	// One submission at a time, in list order. Each target's failure is
	// caught here and recorded; the loop always reaches the next target.
	for _, target := range targets {
		if err := s.documents.Upload(ctx, target, file, description); err != nil {
			outcome.Failures = append(outcome.Failures, TargetFailure{
				Target: target,
				Error:  targetErrorMessage(err),
			})
			s.metrics.ObserveUploadTarget("failure")
			logger.Warn("target upload failed", "target", target, "error", err.Error())
			continue
		}
		outcome.SuccessCount++
		s.metrics.ObserveUploadTarget("success")
	}

	live := true
	if outcome.AllFailed() {
		s.metrics.ObserveMutation(string(ActionUploadDocument), "failure")
		live = tracker.Fail(attempt, "upload failed for all targets")
	} else {
		s.metrics.ObserveMutation(string(ActionUploadDocument), "success")
		live = tracker.Succeed(attempt)
	}

	result := &DocumentUploadResult{Outcome: outcome}

	if outcome.AllFailed() {
		// Exactly one notification, and the UI stays where it is.
		if live {
			s.notify(ctx, NotifyError, "Upload failed for all projects")
		}
		logger.Warn("batch upload failed for all targets")
		return result, nil
	}

	// The UI can only show one destination, so the convention is the
	// first listed target's document view, whatever happened to the rest.
	first := targets[0]
	s.invalidateDocuments(first)
	result.RedirectTo = documentViewPath(first)

	if live {
		s.notify(ctx, NotifySuccess, fmt.Sprintf("Document uploaded to %s", pluralizeProjects(outcome.SuccessCount)))
		if len(outcome.Failures) > 0 {
			s.notify(ctx, NotifyError, fmt.Sprintf("Upload failed for %s", pluralizeProjects(len(outcome.Failures))))
		}
	}

	logger.Info("batch upload finished",
		"succeeded", outcome.SuccessCount,
		"failed", len(outcome.Failures),
	)
	return result, nil
}

// invalidateDocuments marks the navigated-to project's document listing
// and the generic documents collection stale.
func (s *Service) invalidateDocuments(projectID string) {
	s.cache.Invalidate("documents:project:" + projectID)
	s.cache.Invalidate("documents")
}

// sanitizeDescription strips any markup from the shared description.
func (s *Service) sanitizeDescription(description string) string {
	return strings.TrimSpace(s.sanitize.Sanitize(description))
}

// targetErrorMessage extracts the per-target failure message: the
// upstream-provided one when present, else the generic fallback.
func targetErrorMessage(err error) string {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return genericUploadFailure
}

func pluralizeProjects(n int) string {
	if n == 1 {
		return "1 project"
	}
	return fmt.Sprintf("%d projects", n)
}

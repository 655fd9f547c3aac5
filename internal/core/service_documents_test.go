package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/labtrack/console/internal/api"
)

func documentFile() api.File {
	return api.File{
		Name:     "thesis.pdf",
		MIMEType: "application/pdf",
		Content:  make([]byte, 4096),
	}
}

// ==== preconditions ====

func TestUploadDocumentsPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No file at all.
	_, err := f.service.UploadDocuments(ctx, testUser(), api.File{}, "", []string{"proj-a"})
	var rejected *FileRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("empty file: err = %v, want FileRejectedError", err)
	}

	// No targets.
	_, err = f.service.UploadDocuments(ctx, testUser(), documentFile(), "", nil)
	if !errors.Is(err, ErrNoTargets) {
		t.Fatalf("no targets: err = %v, want ErrNoTargets", err)
	}

	// Disallowed type.
	bad := api.File{Name: "demo.mkv", MIMEType: "video/x-matroska", Content: make([]byte, 10)}
	_, err = f.service.UploadDocuments(ctx, testUser(), bad, "", []string{"proj-a"})
	if !errors.As(err, &rejected) {
		t.Fatalf("bad type: err = %v, want FileRejectedError", err)
	}

	if len(f.documents.calls) != 0 {
		t.Fatalf("precondition failures reached the network: %+v", f.documents.calls)
	}
}

// ==== single target ====

func TestUploadDocumentsSingleTarget(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.UploadDocuments(context.Background(), testUser(), documentFile(), "final draft", []string{"proj-a"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}

	want := &DocumentUploadResult{
		Outcome:    BatchOutcome{SuccessCount: 1},
		RedirectTo: "/projects/proj-a/documents",
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	if len(f.documents.calls) != 1 || f.documents.calls[0].ProjectID != "proj-a" {
		t.Fatalf("calls = %+v", f.documents.calls)
	}
	if f.documents.calls[0].Description != "final draft" {
		t.Errorf("description = %q", f.documents.calls[0].Description)
	}

	events := f.notifications()
	if len(events) != 1 || events[0].Message != "Document uploaded" {
		t.Errorf("notifications = %+v", events)
	}
}

func TestUploadDocumentsSingleTargetFailure(t *testing.T) {
	f := newFixture(t)
	f.documents.failFor = map[string]error{
		"proj-a": &api.RequestError{Status: 507, Message: "Project storage quota exceeded"},
	}

	result, err := f.service.UploadDocuments(context.Background(), testUser(), documentFile(), "", []string{"proj-a"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}

	want := &DocumentUploadResult{
		Outcome: BatchOutcome{
			Failures: []TargetFailure{{Target: "proj-a", Error: "Project storage quota exceeded"}},
		},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	events := f.notifications()
	if len(events) != 1 || events[0].Kind != NotifyError {
		t.Fatalf("notifications = %+v", events)
	}
	if events[0].Message != "Project storage quota exceeded" {
		t.Errorf("notification = %q, want the server message", events[0].Message)
	}
}

// ==== multi target ====

func TestUploadDocumentsPartialFailure(t *testing.T) {
	f := newFixture(t)
	f.documents.failFor = map[string]error{
		"proj-b": &api.RequestError{Status: 507, Message: "Project storage quota exceeded"},
	}

	result, err := f.service.UploadDocuments(context.Background(), testUser(), documentFile(), "shared notes", []string{"proj-a", "proj-b", "proj-c"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}

	want := &DocumentUploadResult{
		Outcome: BatchOutcome{
			SuccessCount: 2,
			Failures:     []TargetFailure{{Target: "proj-b", Error: "Project storage quota exceeded"}},
		},
		RedirectTo: "/projects/proj-a/documents",
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	// One failure never stops the remaining targets.
	gotOrder := make([]string, 0, len(f.documents.calls))
	for _, c := range f.documents.calls {
		gotOrder = append(gotOrder, c.ProjectID)
	}
	if diff := cmp.Diff([]string{"proj-a", "proj-b", "proj-c"}, gotOrder); diff != "" {
		t.Errorf("submission order mismatch (-want +got):\n%s", diff)
	}

	events := f.notifications()
	if len(events) != 2 {
		t.Fatalf("notifications = %+v, want success + failure pair", events)
	}
	if events[0].Kind != NotifySuccess || events[0].Message != "Document uploaded to 2 projects" {
		t.Errorf("first notification = %+v", events[0])
	}
	if events[1].Kind != NotifyError || events[1].Message != "Upload failed for 1 project" {
		t.Errorf("second notification = %+v", events[1])
	}
}

func TestUploadDocumentsAllFail(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("dial tcp: connection refused")
	f.documents.failFor = map[string]error{"proj-a": boom, "proj-b": boom}

	result, err := f.service.UploadDocuments(context.Background(), testUser(), documentFile(), "", []string{"proj-a", "proj-b"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}

	if !result.Outcome.AllFailed() {
		t.Fatalf("outcome = %+v, want all failed", result.Outcome)
	}
	if result.RedirectTo != "" {
		t.Errorf("RedirectTo = %q, want empty when nothing succeeded", result.RedirectTo)
	}
	// Raw transport errors stay out of per-target messages.
	for _, failure := range result.Outcome.Failures {
		if failure.Error != "upload failed" {
			t.Errorf("target %s error = %q, want generic message", failure.Target, failure.Error)
		}
	}

	events := f.notifications()
	if len(events) != 1 || events[0].Kind != NotifyError || events[0].Message != "Upload failed for all projects" {
		t.Errorf("notifications = %+v", events)
	}
	if got := f.service.MutationPhase(testUser(), ActionUploadDocument); got != PhaseFailed {
		t.Errorf("phase = %q, want %q", got, PhaseFailed)
	}
}

func TestUploadDocumentsAllSucceed(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.UploadDocuments(context.Background(), testUser(), documentFile(), "", []string{"proj-a", "proj-b", "proj-c"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}

	if result.Outcome.SuccessCount != 3 || len(result.Outcome.Failures) != 0 {
		t.Fatalf("outcome = %+v", result.Outcome)
	}
	if result.RedirectTo != "/projects/proj-a/documents" {
		t.Errorf("RedirectTo = %q, want the first target's view", result.RedirectTo)
	}

	events := f.notifications()
	if len(events) != 1 || events[0].Message != "Document uploaded to 3 projects" {
		t.Errorf("notifications = %+v", events)
	}
}

func TestUploadDocumentsSingleFlight(t *testing.T) {
	f := newFixture(t)

	attempt, err := f.service.trackers.get("user-1", ActionUploadDocument).Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	_, err = f.service.UploadDocuments(context.Background(), testUser(), documentFile(), "", []string{"proj-a"})
	if !errors.Is(err, ErrMutationInFlight) {
		t.Fatalf("err = %v, want ErrMutationInFlight", err)
	}
	if len(f.documents.calls) != 0 {
		t.Fatal("blocked batch reached the network")
	}

	f.service.trackers.get("user-1", ActionUploadDocument).Succeed(attempt)
	if _, err := f.service.UploadDocuments(context.Background(), testUser(), documentFile(), "", []string{"proj-a"}); err != nil {
		t.Fatalf("retry after completion: %v", err)
	}
}

func TestUploadDocumentsSanitizesDescription(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.UploadDocuments(context.Background(), testUser(), documentFile(),
		`<script>alert(1)</script> lab notes`, []string{"proj-a"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}

	if got := f.documents.calls[0].Description; got != "lab notes" {
		t.Errorf("description = %q, want markup stripped", got)
	}
}

func TestUploadDocumentsInvalidatesDocumentListings(t *testing.T) {
	f := newFixture(t)
	cache := f.service.Cache()
	cache.Put("documents:project:proj-a", "listing-a")
	cache.Put("documents:project:proj-z", "listing-z")

	_, err := f.service.UploadDocuments(context.Background(), testUser(), documentFile(), "", []string{"proj-a", "proj-b"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}

	if _, ok := cache.Get("documents:project:proj-a"); ok {
		t.Error("navigated-to listing still fresh")
	}
	// The broad "documents" pattern sweeps the other project listings too.
	if _, ok := cache.Get("documents:project:proj-z"); ok {
		t.Error("document listing outside the batch still fresh")
	}
}

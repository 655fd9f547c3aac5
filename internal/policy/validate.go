package policy

// validate.go implements the pure file validator.
//
// Validation rules run in a fixed order and the first failing rule decides
// the rejection reason: unavailable policy, then type, then size. The type
// rejection enumerates the allowed types in display form so the user sees
// "JPEG, PNG" rather than raw MIME strings.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FileInfo describes a candidate file for validation.
// Only the declared MIME type and size are inspected; content is not read.
type FileInfo struct {
	Name     string
	MIMEType string
	Size     int64
}

// Result is the outcome of validating one file against one policy.
// Either Accepted is true, or Reason carries the rejection message.
type Result struct {
	Accepted bool
	Reason   string
}

// Accept is the successful validation result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject builds a rejection with the given reason.
func Reject(reason string) Result {
	return Result{Reason: reason}
}

// displayNames maps known MIME types to short names for user messages.
// Types missing from this table are silently dropped from the displayed
// allowed list; they still validate normally.
var displayNames = map[string]string{
	"image/jpeg":      "JPEG",
	"image/png":       "PNG",
	"image/gif":       "GIF",
	"image/webp":      "WebP",
	"application/pdf": "PDF",
	"application/msword": "DOC",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "DOCX",
	"application/vnd.ms-excel": "XLS",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "XLSX",
	"text/plain": "TXT",
	"text/csv":   "CSV",
}

// Validate checks a file against a policy. It is pure and deterministic:
// the same file and policy always produce the same result. Type is checked
// before size, so a file failing both reports the type rejection.
func Validate(file FileInfo, p Policy) Result {
	if p.IsZero() {
		return Reject(ErrUnavailable.Error())
	}

	if !p.Allows(file.MIMEType) {
		allowed := DisplayList(p.AllowedTypes)
		if allowed == "" {
			return Reject("unsupported file type")
		}
		return Reject(fmt.Sprintf("unsupported file type (allowed: %s)", allowed))
	}

	if file.Size > p.MaxBytes {
		return Reject(fmt.Sprintf("file too large (max %dMB)", p.MaxMegabytes()))
	}

	return Accept()
}

// ValidateWith resolves the provider's current policy and validates the
// file against it. A provider that has no policy yet yields a rejection
// telling the user settings are not available; no default is guessed.
func ValidateWith(ctx context.Context, provider Provider, file FileInfo) (Result, error) {
	p, err := provider.Policy(ctx)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return Reject(ErrUnavailable.Error()), nil
		}
		return Result{}, fmt.Errorf("resolve policy: %w", err)
	}
	return Validate(file, p), nil
}

// DisplayList renders MIME types as a comma-separated list of display
// names, preserving the order of the input. Unmapped types are skipped.
func DisplayList(mimeTypes []string) string {
	names := make([]string, 0, len(mimeTypes))
	for _, t := range mimeTypes {
		if name, ok := displayNames[t]; ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

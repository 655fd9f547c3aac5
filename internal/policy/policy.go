// Package policy provides upload constraint policies and file validation.
// A policy is the active set of allowed MIME types and the maximum permitted
// size for one upload category (avatars, documents). Policies are immutable
// once handed out; consumers never modify them.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnavailable is returned when a policy has not been loaded yet.
// Callers must block the upload and tell the user settings are not
// available; guessing a default limit is never correct.
var ErrUnavailable = errors.New("upload settings not yet available")

// Policy defines the constraints for one upload category.
type Policy struct {
	// AllowedTypes is the set of acceptable MIME types.
	AllowedTypes []string `yaml:"allowed_types"`

	// MaxBytes is the maximum permitted file size in bytes.
	MaxBytes int64 `yaml:"max_bytes"`
}

// IsZero reports whether the policy carries no constraints at all.
// A zero policy is treated as unconfigured, not as "allow everything".
func (p Policy) IsZero() bool {
	return len(p.AllowedTypes) == 0 && p.MaxBytes == 0
}

// Allows reports whether the given MIME type is in the allowed set.
func (p Policy) Allows(mimeType string) bool {
	for _, t := range p.AllowedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// MaxMegabytes returns the size limit rounded to whole megabytes for
// display ("5MB", never "5242880 bytes").
func (p Policy) MaxMegabytes() int64 {
	const mb = 1 << 20
	return (p.MaxBytes + mb/2) / mb
}

// Provider supplies the active policy for an upload category.
// Implementations may be static (compiled in) or remote (fetched from the
// settings service). Provider returns ErrUnavailable until a policy exists.
type Provider interface {
	Policy(ctx context.Context) (Policy, error)
}

// Static is a Provider backed by a fixed policy known at startup.
type Static struct {
	policy Policy
}

// NewStatic creates a provider for a compiled-in policy.
// Returns an error if the policy has no allowed types or no size limit,
// so a misconfigured category fails at startup rather than at upload time.
func NewStatic(p Policy) (*Static, error) {
	if len(p.AllowedTypes) == 0 {
		return nil, fmt.Errorf("static policy: no allowed types configured")
	}
	if p.MaxBytes <= 0 {
		return nil, fmt.Errorf("static policy: max size must be positive, got %d", p.MaxBytes)
	}
	sorted := make([]string, len(p.AllowedTypes))
	copy(sorted, p.AllowedTypes)
	sort.Strings(sorted)
	return &Static{policy: Policy{AllowedTypes: sorted, MaxBytes: p.MaxBytes}}, nil
}

// Policy returns the fixed policy. Never returns ErrUnavailable.
func (s *Static) Policy(ctx context.Context) (Policy, error) {
	return s.policy, nil
}

package policy

// remote.go implements the dynamic policy configuration: constraints are
// fetched from the settings service, cached for a TTL, and revalidated on
// demand. Until the first successful fetch the provider reports
// ErrUnavailable so consumers block uploads instead of guessing limits.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRemoteTTL is how long a fetched policy is served before the next
// request triggers a revalidation.
const DefaultRemoteTTL = 5 * time.Minute

// FetchFunc retrieves the current policy from the settings service.
type FetchFunc func(ctx context.Context) (Policy, error)

// Remote is a Provider that fetches its policy from a settings service.
// Concurrent callers during a fetch share a single request. A stale cached
// policy is served while revalidation fails, so a settings-service blip
// does not take uploads down once a policy has ever been loaded.
type Remote struct {
	fetch FetchFunc
	ttl   time.Duration

	group singleflight.Group

	mu        sync.RWMutex
	policy    Policy
	loaded    bool
	fetchedAt time.Time
}

// NewRemote creates a remote provider. A ttl <= 0 uses DefaultRemoteTTL.
func NewRemote(fetch FetchFunc, ttl time.Duration) *Remote {
	if ttl <= 0 {
		ttl = DefaultRemoteTTL
	}
	return &Remote{fetch: fetch, ttl: ttl}
}

// Policy returns the cached policy, refreshing it when the TTL has expired.
// Before the first successful fetch completes, a fetch failure surfaces as
// ErrUnavailable.
func (r *Remote) Policy(ctx context.Context) (Policy, error) {
	r.mu.RLock()
	policy, loaded, fresh := r.policy, r.loaded, time.Since(r.fetchedAt) < r.ttl
	r.mu.RUnlock()

	if loaded && fresh {
		return policy, nil
	}

	// Collapse concurrent refreshes into one upstream request.
	v, err, _ := r.group.Do("policy", func() (any, error) {
		fetched, err := r.fetch(ctx)
		if err != nil {
			return Policy{}, err
		}
		if fetched.IsZero() {
			return Policy{}, fmt.Errorf("settings service returned empty policy")
		}
		r.mu.Lock()
		r.policy = fetched
		r.loaded = true
		r.fetchedAt = time.Now()
		r.mu.Unlock()
		return fetched, nil
	})

	if err != nil {
		if loaded {
			// Serve the stale policy rather than blocking uploads.
			return policy, nil
		}
		return Policy{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return v.(Policy), nil
}

// Loaded reports whether a policy has ever been fetched successfully.
func (r *Remote) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Invalidate drops the cached policy so the next call refetches.
func (r *Remote) Invalidate() {
	r.mu.Lock()
	r.fetchedAt = time.Time{}
	r.mu.Unlock()
}

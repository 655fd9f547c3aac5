package core

// preview.go manages file preview handles.
//
// When a file selection passes validation, the UI shows a local preview
// until the upload is submitted or the selection changes. A preview
// handle owns the buffered file bytes, and exactly one handle is live per
// owner: creating a new one releases the previous one first, and release
// happens exactly once per handle on every exit path (supersession,
// explicit removal, or teardown).

import (
	"sync"

	"github.com/google/uuid"

	"github.com/labtrack/console/internal/api"
)

// PreviewHandle is one live file preview. ID doubles as the URL token the
// UI uses to fetch the preview bytes.
type PreviewHandle struct {
	ID   string
	File api.File

	mu       sync.Mutex
	released bool
	onFree   func()
}

// Release frees the handle's resources. Safe to call more than once; only
// the first call has an effect.
func (h *PreviewHandle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.File.Content = nil
	onFree := h.onFree
	h.mu.Unlock()

	if onFree != nil {
		onFree()
	}
}

// Snapshot returns a copy of the buffered file, or false if the handle
// has already been released. Readers use this instead of touching File
// directly, so a concurrent Release cannot pull the bytes out from under
// them.
func (h *PreviewHandle) Snapshot() (api.File, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return api.File{}, false
	}
	file := h.File
	file.Content = append([]byte(nil), h.File.Content...)
	return file, true
}

// Released reports whether the handle has been released.
func (h *PreviewHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// PreviewStore tracks the live preview handle per owner (a form session).
type PreviewStore struct {
	mu      sync.Mutex
	handles map[string]*PreviewHandle
	closed  bool
}

// NewPreviewStore creates an empty store.
func NewPreviewStore() *PreviewStore {
	return &PreviewStore{handles: make(map[string]*PreviewHandle)}
}

// Put creates a preview handle for the owner's current selection,
// releasing the owner's previous handle first.
func (s *PreviewStore) Put(owner string, file api.File) *PreviewHandle {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	prev := s.handles[owner]
	h := &PreviewHandle{ID: uuid.New().String(), File: file}
	h.onFree = func() { s.forget(owner, h) }
	s.handles[owner] = h
	s.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
	return h
}

// Get returns the owner's live handle, if any.
func (s *PreviewStore) Get(owner string) (*PreviewHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[owner]
	return h, ok
}

// Remove releases and forgets the owner's live handle.
func (s *PreviewStore) Remove(owner string) {
	s.mu.Lock()
	h := s.handles[owner]
	s.mu.Unlock()

	if h != nil {
		h.Release()
	}
}

// Close releases every live handle. Used at component teardown; the store
// accepts no new handles afterwards.
func (s *PreviewStore) Close() {
	s.mu.Lock()
	s.closed = true
	handles := make([]*PreviewHandle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.Release()
	}
}

// Len returns the number of live handles.
func (s *PreviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// forget drops the owner's map entry if it still points at h. A handle
// superseded by Put must not evict its replacement.
func (s *PreviewStore) forget(owner string, h *PreviewHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handles[owner] == h {
		delete(s.handles, owner)
	}
}

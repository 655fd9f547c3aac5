package web

// handlers_uploads.go holds the file endpoints: avatar and document
// uploads, the policy hints the UI renders next to its pickers, and the
// preview handle lifecycle. Uploads are multipart; the body cap comes
// from SERVER_MAX_UPLOAD_BYTES and is enforced before the form is parsed.

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/labtrack/console/internal/api"
	"github.com/labtrack/console/internal/core"
	"github.com/labtrack/console/internal/policy"
)

// policyPayload is the constraint hint the UI renders next to a picker.
type policyPayload struct {
	AllowedTypes []string `json:"allowedTypes"`
	AllowedNames string   `json:"allowedNames"`
	MaxBytes     int64    `json:"maxBytes"`
	MaxMegabytes int64    `json:"maxMegabytes"`
}

func (s *Server) handleAvatarPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.AvatarPolicy(r.Context())
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}
	writeJSON(w, policyResponse(p))
}

func (s *Server) handleDocumentPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.DocumentPolicy(r.Context())
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}
	writeJSON(w, policyResponse(p))
}

func policyResponse(p policy.Policy) policyPayload {
	return policyPayload{
		AllowedTypes: p.AllowedTypes,
		AllowedNames: policy.DisplayList(p.AllowedTypes),
		MaxBytes:     p.MaxBytes,
		MaxMegabytes: p.MaxMegabytes(),
	}
}

// readUploadedFile pulls the named multipart file into an api.File.
func (s *Server) readUploadedFile(w http.ResponseWriter, r *http.Request, field string) (api.File, bool) {
	maxSize := s.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return api.File{}, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return api.File{}, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return api.File{}, false
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return api.File{
		Name:     header.Filename,
		MIMEType: mimeType,
		Content:  content,
	}, true
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	file, ok := s.readUploadedFile(w, r, "file")
	if !ok {
		return
	}

	ctx, recorder := withRecorder(r)
	url, err := s.service.UploadAvatar(ctx, user, file)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}

	// A successful upload supersedes any staged avatar preview.
	s.service.Previews().Remove(previewOwner(user, "avatar"))

	writeJSON(w, mutationResponse{
		AvatarURL:     url,
		Notifications: recorder.Events(),
	})
}

// documentUploadResponse is the batch coordinator's result envelope.
type documentUploadResponse struct {
	Outcome       core.BatchOutcome   `json:"outcome"`
	RedirectTo    string              `json:"redirectTo,omitempty"`
	Notifications []core.Notification `json:"notifications"`
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	file, ok := s.readUploadedFile(w, r, "file")
	if !ok {
		return
	}

	description := r.FormValue("description")
	targets := splitTargets(r.Form["target"])

	ctx, recorder := withRecorder(r)
	result, err := s.service.UploadDocuments(ctx, user, file, description, targets)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}

	// A submitted selection no longer needs its preview.
	s.service.Previews().Remove(previewOwner(user, "document"))

	writeJSON(w, documentUploadResponse{
		Outcome:       result.Outcome,
		RedirectTo:    result.RedirectTo,
		Notifications: recorder.Events(),
	})
}

// splitTargets normalizes the submitted target project IDs: repeated
// "target" fields and comma-separated lists are both accepted.
func splitTargets(raw []string) []string {
	var targets []string
	for _, field := range raw {
		for _, t := range strings.Split(field, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				targets = append(targets, t)
			}
		}
	}
	return targets
}

// ==== previews ====

// previewOwner scopes preview handles per user and picker.
func previewOwner(user core.User, kind string) string {
	return user.ID + ":" + kind
}

// previewKind validates the {kind} URL segment and returns the policy
// that governs it.
func (s *Server) previewKind(r *http.Request) (string, func(*http.Request) (policy.Policy, error), bool) {
	kind := chi.URLParam(r, "kind")
	switch kind {
	case "avatar":
		return kind, func(r *http.Request) (policy.Policy, error) {
			return s.service.AvatarPolicy(r.Context())
		}, true
	case "document":
		return kind, func(r *http.Request) (policy.Policy, error) {
			return s.service.DocumentPolicy(r.Context())
		}, true
	default:
		return "", nil, false
	}
}

// handleCreatePreview validates a file selection and stages it for
// preview. The staged bytes live until the selection is replaced,
// removed, uploaded, or the service shuts down.
func (s *Server) handleCreatePreview(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	kind, policyFor, ok := s.previewKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown preview kind")
		return
	}

	file, ok := s.readUploadedFile(w, r, "file")
	if !ok {
		return
	}

	p, err := policyFor(r)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}

	result := policy.Validate(policy.FileInfo{
		Name:     file.Name,
		MIMEType: file.MIMEType,
		Size:     file.Size(),
	}, p)
	if !result.Accepted {
		s.respondError(w, r, &core.FileRejectedError{Reason: result.Reason}, nil)
		return
	}

	handle := s.service.Previews().Put(previewOwner(user, kind), file)
	if handle == nil {
		writeError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}

	writeJSON(w, map[string]string{
		"id":   handle.ID,
		"name": handle.File.Name,
		"url":  "/api/previews/" + kind,
	})
}

// handleGetPreview serves the staged preview bytes.
func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	kind, _, ok := s.previewKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown preview kind")
		return
	}

	handle, ok := s.service.Previews().Get(previewOwner(user, kind))
	if !ok {
		writeError(w, http.StatusNotFound, "no preview staged")
		return
	}

	file, ok := handle.Snapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no preview staged")
		return
	}

	w.Header().Set("Content-Type", file.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(file.Content)
}

// handleRemovePreview discards the staged selection.
func (s *Server) handleRemovePreview(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	kind, _, ok := s.previewKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown preview kind")
		return
	}

	s.service.Previews().Remove(previewOwner(user, kind))
	w.WriteHeader(http.StatusNoContent)
}

package web

// End-to-end handler tests: a stub upstream serves the account and media
// APIs, the real clients and service sit in between, and requests go
// through the full router including the auth middleware.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labtrack/console/internal/api"
	"github.com/labtrack/console/internal/config"
	"github.com/labtrack/console/internal/core"
	"github.com/labtrack/console/internal/policy"
)

// upstream is a scripted stand-in for the account and media services.
type upstream struct {
	mu sync.Mutex

	profile       map[string]any
	preferences   map[string]any
	passwordFails bool
	failDocsFor   map[string]bool

	documentUploads []string
}

func newUpstream() *upstream {
	return &upstream{
		profile: map[string]any{
			"id":       "user-1",
			"fullName": "Ada Lovelace",
			"email":    "ada@example.edu",
			"role":     "STUDENT",
		},
		preferences: map[string]any{"timezone": "UTC", "language": "en", "theme": "dark"},
		failDocsFor: map[string]bool{},
	}
}

func (u *upstream) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()

		if r.Method == http.MethodPut {
			var update map[string]string
			json.NewDecoder(r.Body).Decode(&update)
			for k, v := range update {
				u.profile[k] = v
			}
		}
		json.NewEncoder(w).Encode(u.profile)
	})

	mux.HandleFunc("/password", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()

		if u.passwordFails {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"message": "Current password is incorrect",
				"errors":  map[string]string{"currentPassword": "incorrect"},
			})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/preferences", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()

		if r.Method == http.MethodPut {
			json.NewDecoder(r.Body).Decode(&u.preferences)
		}
		json.NewEncoder(w).Encode(u.preferences)
	})

	mux.HandleFunc("/avatar", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"avatarUrl": "/media/avatars/user-1.png"})
	})

	mux.HandleFunc("/projects/", func(w http.ResponseWriter, r *http.Request) {
		projectID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/projects/"), "/documents")

		u.mu.Lock()
		defer u.mu.Unlock()

		if u.failDocsFor[projectID] {
			w.WriteHeader(http.StatusInsufficientStorage)
			json.NewEncoder(w).Encode(map[string]string{"message": "Project storage quota exceeded"})
			return
		}
		u.documentUploads = append(u.documentUploads, projectID)
		w.WriteHeader(http.StatusCreated)
	})

	return mux
}

type fixture struct {
	server   *Server
	upstream *upstream
}

func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Upstream: config.UpstreamConfig{
			AccountURL: upstreamURL,
			MediaURL:   upstreamURL,
			Timeout:    5 * time.Second,
		},
		Policy:   config.PolicyConfig{Mode: "static", RefreshTTL: time.Minute},
		Rate:     config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{UserHeader: "X-Auth-User", RoleHeader: "X-Auth-Role"},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newWebFixture(t *testing.T) *fixture {
	t.Helper()

	up := newUpstream()
	backend := httptest.NewServer(up.handler())
	t.Cleanup(backend.Close)

	cfg := testConfig(backend.URL)
	httpClient := backend.Client()

	avatarPolicy, err := policy.NewStatic(policy.DefaultAvatarPolicy())
	require.NoError(t, err)
	documentPolicy, err := policy.NewStatic(policy.DefaultDocumentPolicy())
	require.NoError(t, err)

	service, err := core.NewService(core.Deps{
		Profiles:       api.NewProfileClient(cfg.Upstream.AccountURL, httpClient),
		Passwords:      api.NewPasswordClient(cfg.Upstream.AccountURL, httpClient),
		Preferences:    api.NewPreferencesClient(cfg.Upstream.AccountURL, httpClient),
		Avatars:        api.NewAvatarClient(cfg.Upstream.MediaURL, httpClient),
		Documents:      api.NewDocumentClient(cfg.Upstream.MediaURL, httpClient),
		AvatarPolicy:   avatarPolicy,
		DocumentPolicy: documentPolicy,
	})
	require.NoError(t, err)

	return &fixture{
		server:   NewServer(cfg, service, nil),
		upstream: up,
	}
}

// request performs an authenticated request against the router.
func (f *fixture) request(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("X-Auth-User", "user-1")
	req.Header.Set("X-Auth-Role", "STUDENT")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// multipartBody builds a multipart upload with one file part plus fields.
func multipartBody(t *testing.T, filename, mimeType string, content []byte, fields map[string][]string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	h["Content-Type"] = []string{mimeType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(name, v))
		}
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

// ==== auth and plumbing ====

func TestHealthEndpoint(t *testing.T) {
	f := newWebFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAPIRequiresUserHeader(t *testing.T) {
	f := newWebFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	f := newWebFixture(t)

	rec := f.request(t, http.MethodGet, "/healthz", nil, "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

// ==== profile ====

func TestGetProfile(t *testing.T) {
	f := newWebFixture(t)

	rec := f.request(t, http.MethodGet, "/api/profile", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Ada Lovelace", got["fullName"])
	assert.Equal(t, "STUDENT", got["role"])
}

func TestUpdateProfileSuccess(t *testing.T) {
	f := newWebFixture(t)

	body := jsonBody(t, map[string]string{
		"fullName":  "Ada King",
		"email":     "ada@example.edu",
		"studentId": "S-1815",
	})
	rec := f.request(t, http.MethodPut, "/api/profile", body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Profile       map[string]any      `json:"profile"`
		Notifications []core.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ada King", resp.Profile["fullName"])
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, core.NotifySuccess, resp.Notifications[0].Kind)
}

func TestUpdateProfileValidationErrors(t *testing.T) {
	f := newWebFixture(t)

	body := jsonBody(t, map[string]string{
		"fullName":  "",
		"email":     "not-an-email",
		"studentId": "",
	})
	rec := f.request(t, http.MethodPut, "/api/profile", body, "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VAL001", resp.Code)
	assert.Contains(t, resp.Fields, "fullName")
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "studentId")
}

// ==== password ====

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newWebFixture(t)
	f.upstream.passwordFails = true

	body := jsonBody(t, map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "new-secret",
		"confirmPassword": "new-secret",
	})
	rec := f.request(t, http.MethodPost, "/api/profile/password", body, "application/json")
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "incorrect", resp.Fields["currentPassword"])
}

// ==== preferences ====

func TestPreferencesRoundTrip(t *testing.T) {
	f := newWebFixture(t)

	rec := f.request(t, http.MethodGet, "/api/preferences", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dark")

	body := jsonBody(t, map[string]string{
		"timezone": "Europe/Copenhagen",
		"language": "da",
		"theme":    "light",
	})
	rec = f.request(t, http.MethodPut, "/api/preferences", body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdatePreferencesPartialSubmission(t *testing.T) {
	f := newWebFixture(t)

	// Only the theme changes; the unsubmitted keys come from the current
	// record instead of failing the required checks.
	body := jsonBody(t, map[string]string{"theme": "light"})
	rec := f.request(t, http.MethodPut, "/api/preferences", body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f.upstream.mu.Lock()
	defer f.upstream.mu.Unlock()
	assert.Equal(t, "light", f.upstream.preferences["theme"])
	assert.Equal(t, "UTC", f.upstream.preferences["timezone"])
	assert.Equal(t, "en", f.upstream.preferences["language"])
}

// ==== policies ====

func TestPolicyEndpoints(t *testing.T) {
	f := newWebFixture(t)

	rec := f.request(t, http.MethodGet, "/api/policy/avatar", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var p policyPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Contains(t, p.AllowedTypes, "image/png")
	assert.Equal(t, int64(5), p.MaxMegabytes)
	assert.Contains(t, p.AllowedNames, "PNG")

	rec = f.request(t, http.MethodGet, "/api/policy/document", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Contains(t, p.AllowedTypes, "application/pdf")
	assert.Equal(t, int64(25), p.MaxMegabytes)
}

// ==== uploads ====

func TestUploadAvatar(t *testing.T) {
	f := newWebFixture(t)

	body, contentType := multipartBody(t, "me.png", "image/png", make([]byte, 2048), nil)
	rec := f.request(t, http.MethodPost, "/api/profile/avatar", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp mutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/media/avatars/user-1.png", resp.AvatarURL)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Avatar updated", resp.Notifications[0].Message)
}

func TestUploadAvatarRejectedType(t *testing.T) {
	f := newWebFixture(t)

	body, contentType := multipartBody(t, "report.pdf", "application/pdf", make([]byte, 100), nil)
	rec := f.request(t, http.MethodPost, "/api/profile/avatar", body, contentType)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VAL002", resp.Code)

	// The body must carry the validator's full reason, not the generic
	// mapped text: the user needs the allowed-type list to pick a file.
	assert.Contains(t, resp.Message, "allowed:")
	assert.Contains(t, resp.Message, "PNG")
}

func TestUploadDocumentsPartialFailure(t *testing.T) {
	f := newWebFixture(t)
	f.upstream.failDocsFor["proj-b"] = true

	body, contentType := multipartBody(t, "thesis.pdf", "application/pdf", make([]byte, 4096), map[string][]string{
		"target":      {"proj-a", "proj-b", "proj-c"},
		"description": {"final draft"},
	})
	rec := f.request(t, http.MethodPost, "/api/documents", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp documentUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Outcome.SuccessCount)
	require.Len(t, resp.Outcome.Failures, 1)
	assert.Equal(t, "proj-b", resp.Outcome.Failures[0].Target)
	assert.Equal(t, "Project storage quota exceeded", resp.Outcome.Failures[0].Error)
	assert.Equal(t, "/projects/proj-a/documents", resp.RedirectTo)
	assert.Len(t, resp.Notifications, 2)

	assert.Equal(t, []string{"proj-a", "proj-c"}, f.upstream.documentUploads)
}

func TestUploadDocumentsNoTargets(t *testing.T) {
	f := newWebFixture(t)

	body, contentType := multipartBody(t, "thesis.pdf", "application/pdf", make([]byte, 100), nil)
	rec := f.request(t, http.MethodPost, "/api/documents", body, contentType)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UPL001", resp.Code)
}

// ==== previews ====

func TestPreviewLifecycle(t *testing.T) {
	f := newWebFixture(t)
	content := []byte{0x89, 0x50, 0x4e, 0x47}

	body, contentType := multipartBody(t, "me.png", "image/png", content, nil)
	rec := f.request(t, http.MethodPost, "/api/previews/avatar", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "/api/previews/avatar", created["url"])

	rec = f.request(t, http.MethodGet, "/api/previews/avatar", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = f.request(t, http.MethodDelete, "/api/previews/avatar", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/previews/avatar", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewRejectsOversizeFile(t *testing.T) {
	f := newWebFixture(t)

	body, contentType := multipartBody(t, "me.png", "image/png", make([]byte, 6*1024*1024), nil)
	rec := f.request(t, http.MethodPost, "/api/previews/avatar", body, contentType)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VAL003", resp.Code)
}

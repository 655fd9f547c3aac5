package web

// handlers_account.go holds the profile, password, and preferences
// endpoints. Mutations all follow the same shape: decode the submitted
// values into the matching form, run the service mutation with a
// notification recorder on the context, and return the result plus any
// recorded toasts. Validation failures come back as 422 with the
// per-field errors.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/labtrack/console/internal/core"
	"github.com/labtrack/console/internal/forms"
)

// mutationResponse is the success envelope for form mutations.
type mutationResponse struct {
	Profile       *profilePayload     `json:"profile,omitempty"`
	Preferences   *preferencesPayload `json:"preferences,omitempty"`
	AvatarURL     string              `json:"avatarUrl,omitempty"`
	Notifications []core.Notification `json:"notifications"`
}

type profilePayload struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	StudentID string `json:"studentId,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type preferencesPayload struct {
	Timezone string `json:"timezone"`
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

// decodeFormValues reads a flat JSON object of field values.
func decodeFormValues(r *http.Request) (map[string]string, error) {
	var values map[string]string
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10)).Decode(&values); err != nil {
		return nil, errors.New("invalid request body")
	}
	return values, nil
}

// fillForm copies the submitted values into the form, ignoring unknown
// keys so clients can send extra metadata without breaking validation.
func fillForm(form *forms.State, values map[string]string) {
	for _, name := range form.FieldNames() {
		if v, ok := values[name]; ok {
			form.Set(name, v)
		}
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	profile, err := s.service.LoadProfile(r.Context(), user)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}

	writeJSON(w, profilePayload{
		ID:        profile.ID,
		FullName:  profile.FullName,
		Email:     profile.Email,
		Role:      profile.Role,
		StudentID: profile.StudentID,
		AvatarURL: profile.AvatarURL,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	values, err := decodeFormValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	form := forms.NewProfile(user.Role)
	fillForm(form, values)

	ctx, recorder := withRecorder(r)
	profile, err := s.service.UpdateProfile(ctx, user, form)
	if err != nil {
		s.respondError(w, r, err, form.Errors())
		return
	}

	writeJSON(w, mutationResponse{
		Profile: &profilePayload{
			ID:        profile.ID,
			FullName:  profile.FullName,
			Email:     profile.Email,
			Role:      profile.Role,
			StudentID: profile.StudentID,
			AvatarURL: profile.AvatarURL,
		},
		Notifications: recorder.Events(),
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	values, err := decodeFormValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	form := forms.NewPassword()
	fillForm(form, values)

	ctx, recorder := withRecorder(r)
	if err := s.service.ChangePassword(ctx, user, form); err != nil {
		s.respondError(w, r, err, form.Errors())
		return
	}

	writeJSON(w, mutationResponse{Notifications: recorder.Events()})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	prefs, err := s.service.LoadPreferences(r.Context(), user)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}

	writeJSON(w, preferencesPayload{
		Timezone: prefs.Timezone,
		Language: prefs.Language,
		Theme:    prefs.Theme,
	})
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	values, err := decodeFormValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Partial submissions are allowed: the form is hydrated from the
	// current record (defaults already filled) and the submitted keys
	// override it.
	current, err := s.service.LoadPreferences(r.Context(), user)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}

	form := forms.NewPreferences()
	form.Hydrate(map[string]string{
		forms.FieldTimezone: current.Timezone,
		forms.FieldLanguage: current.Language,
		forms.FieldTheme:    current.Theme,
	})
	fillForm(form, values)

	ctx, recorder := withRecorder(r)
	if err := s.service.UpdatePreferences(ctx, user, form); err != nil {
		s.respondError(w, r, err, form.Errors())
		return
	}

	writeJSON(w, mutationResponse{Notifications: recorder.Events()})
}

// handleMutationPhase reports the single-flight state for one action, for
// clients that poll while a slow mutation runs.
func (s *Server) handleMutationPhase(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	action, ok := parseAction(chi.URLParam(r, "action"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	writeJSON(w, map[string]string{
		"action": string(action),
		"phase":  string(s.service.MutationPhase(user, action)),
	})
}

// parseAction maps a URL segment to a known mutation action.
func parseAction(raw string) (core.Action, bool) {
	switch core.Action(raw) {
	case core.ActionUpdateProfile, core.ActionChangePassword, core.ActionUpdatePreferences,
		core.ActionUploadAvatar, core.ActionUploadDocument:
		return core.Action(raw), true
	default:
		return "", false
	}
}

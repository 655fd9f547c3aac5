package core

// service_account.go holds the account mutations: profile update,
// password change, preferences update, and avatar upload. Each goes
// through run (see service.go) so single-flight, cache invalidation,
// notifications, and server-error forwarding behave identically across
// actions.

import (
	"context"
	"fmt"

	"github.com/labtrack/console/internal/api"
	"github.com/labtrack/console/internal/forms"
	"github.com/labtrack/console/internal/policy"
)

func profileCacheKey(user User) string {
	return "profile:" + user.ID
}

func preferencesCacheKey(user User) string {
	return "preferences:" + user.ID
}

// LoadProfile returns the user's profile record, served from cache when a
// fresh copy exists.
func (s *Service) LoadProfile(ctx context.Context, user User) (*api.Profile, error) {
	key := profileCacheKey(user)
	if v, ok := s.cache.Get(key); ok {
		return v.(*api.Profile), nil
	}

	p, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	s.cache.Put(key, p)
	return p, nil
}

// LoadPreferences returns the user's preferences with defaults filled for
// any fields the (possibly partial) upstream record omits.
func (s *Service) LoadPreferences(ctx context.Context, user User) (api.Preferences, error) {
	key := preferencesCacheKey(user)
	if v, ok := s.cache.Get(key); ok {
		return v.(api.Preferences), nil
	}

	p, err := s.preferences.Get(ctx)
	if err != nil {
		return api.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}

	defaults := forms.PreferenceDefaults()
	if p.Timezone == "" {
		p.Timezone = defaults[forms.FieldTimezone]
	}
	if p.Language == "" {
		p.Language = defaults[forms.FieldLanguage]
	}
	if p.Theme == "" {
		p.Theme = defaults[forms.FieldTheme]
	}

	s.cache.Put(key, p)
	return p, nil
}

// UpdateProfile validates the profile form and submits the trimmed values.
// On validation failure nothing is sent; the field errors live on the
// form and ErrFormInvalid is returned.
func (s *Service) UpdateProfile(ctx context.Context, user User, form *forms.State) (*api.Profile, error) {
	if !form.Validate() {
		return nil, ErrFormInvalid
	}

	values := form.SubmitValues()
	update := api.ProfileUpdate{
		FullName:  values[forms.FieldFullName],
		Email:     values[forms.FieldEmail],
		StudentID: values[forms.FieldStudentID],
	}

	var updated *api.Profile
	err := s.run(ctx, user, ActionUpdateProfile, form,
		"Profile updated",
		"Could not update profile",
		[]string{profileCacheKey(user)},
		func(ctx context.Context) error {
			p, err := s.profiles.Update(ctx, update)
			if err != nil {
				return err
			}
			updated = p
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword validates the password form and submits the change.
// On success the three password fields are wiped: sensitive values must
// not linger in form state after the change lands.
func (s *Service) ChangePassword(ctx context.Context, user User, form *forms.State) error {
	if !form.Validate() {
		return ErrFormInvalid
	}

	values := form.SubmitValues()
	current := values[forms.FieldCurrentPassword]
	newPw := values[forms.FieldNewPassword]

	err := s.run(ctx, user, ActionChangePassword, form,
		"Password changed",
		"Could not change password",
		nil,
		func(ctx context.Context) error {
			return s.passwords.Change(ctx, current, newPw)
		},
	)
	if err != nil {
		return err
	}

	form.Reset()
	return nil
}

// UpdatePreferences validates the preferences form and writes the record.
func (s *Service) UpdatePreferences(ctx context.Context, user User, form *forms.State) error {
	if !form.Validate() {
		return ErrFormInvalid
	}

	values := form.SubmitValues()
	prefs := api.Preferences{
		Timezone: values[forms.FieldTimezone],
		Language: values[forms.FieldLanguage],
		Theme:    values[forms.FieldTheme],
	}

	return s.run(ctx, user, ActionUpdatePreferences, form,
		"Preferences saved",
		"Could not save preferences",
		[]string{preferencesCacheKey(user)},
		func(ctx context.Context) error {
			return s.preferences.Update(ctx, prefs)
		},
	)
}

// UploadAvatar validates the file against the avatar policy and uploads
// it. An unavailable policy blocks the upload with a notification; it is
// never treated as "no restrictions".
func (s *Service) UploadAvatar(ctx context.Context, user User, file api.File) (string, error) {
	if len(file.Content) == 0 {
		return "", &FileRejectedError{Reason: "no file provided"}
	}

	result, err := policy.ValidateWith(ctx, s.avatarPolicy, policy.FileInfo{
		Name:     file.Name,
		MIMEType: file.MIMEType,
		Size:     file.Size(),
	})
	if err != nil {
		return "", fmt.Errorf("avatar validation: %w", err)
	}
	if !result.Accepted {
		s.notify(ctx, NotifyError, result.Reason)
		return "", &FileRejectedError{Reason: result.Reason}
	}

	var avatarURL string
	err = s.run(ctx, user, ActionUploadAvatar, nil,
		"Avatar updated",
		"Could not upload avatar",
		[]string{profileCacheKey(user)},
		func(ctx context.Context) error {
			url, err := s.avatars.Upload(ctx, file)
			if err != nil {
				return err
			}
			avatarURL = url
			return nil
		},
	)
	if err != nil {
		return "", err
	}
	return avatarURL, nil
}

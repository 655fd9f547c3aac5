package forms

// rules.go defines the concrete account-console forms and their field
// rules. Rules receive the full value set and return the complete error
// map, so independent problems surface together instead of short-circuiting
// at the first failure.

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Role is the acting user's role, injected explicitly by the caller.
// It is never read from a global.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// Profile form fields.
const (
	FieldFullName  = "fullName"
	FieldEmail     = "email"
	FieldStudentID = "studentId"
)

// Password form fields.
const (
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldConfirmPassword = "confirmPassword"
)

// Preferences form fields.
const (
	FieldTimezone = "timezone"
	FieldLanguage = "language"
	FieldTheme    = "theme"
)

// Document form fields.
const (
	FieldDescription = "description"
)

// MinPasswordLength is the minimum accepted new-password length.
const MinPasswordLength = 6

// emailPattern accepts the simple local@domain.tld shape. Full RFC 5322
// parsing is the server's job; this only catches obvious typos early.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Themes accepted by the preferences form.
var allowedThemes = []string{"light", "dark", "system"}

// NewProfile creates the profile form for a user with the given role.
// The studentId field is only required for students.
func NewProfile(role Role) *State {
	fields := []string{FieldFullName, FieldEmail, FieldStudentID}
	return New("profile", fields, nil, func(values map[string]string) map[string]string {
		errs := make(map[string]string)

		if strings.TrimSpace(values[FieldFullName]) == "" {
			errs[FieldFullName] = "Full name is required"
		}

		email := strings.TrimSpace(values[FieldEmail])
		if email == "" {
			errs[FieldEmail] = "Email is required"
		} else if !emailPattern.MatchString(email) {
			errs[FieldEmail] = "Enter a valid email address"
		}

		if role == RoleStudent && strings.TrimSpace(values[FieldStudentID]) == "" {
			errs[FieldStudentID] = "Student ID is required"
		}

		return errs
	})
}

// NewPassword creates the password-change form. All three fields are
// secret: values are never trimmed and never logged.
func NewPassword() *State {
	fields := []string{FieldCurrentPassword, FieldNewPassword, FieldConfirmPassword}
	return New("password", fields, fields, func(values map[string]string) map[string]string {
		errs := make(map[string]string)

		if values[FieldCurrentPassword] == "" {
			errs[FieldCurrentPassword] = "Current password is required"
		}

		switch newPw := values[FieldNewPassword]; {
		case newPw == "":
			errs[FieldNewPassword] = "New password is required"
		case utf8.RuneCountInString(newPw) < MinPasswordLength:
			errs[FieldNewPassword] = "Password must be at least 6 characters"
		}

		// Mismatch is reported even when the new password itself is
		// invalid, so the user fixes everything in one pass.
		if values[FieldConfirmPassword] != values[FieldNewPassword] {
			errs[FieldConfirmPassword] = "Passwords do not match"
		}

		return errs
	})
}

// NewPreferences creates the preferences form. Callers hydrate it from
// the current record, with PreferenceDefaults filling any keys the
// upstream omits, before applying edits — so a partial submission never
// trips the required checks.
func NewPreferences() *State {
	fields := []string{FieldTimezone, FieldLanguage, FieldTheme}
	return New("preferences", fields, nil, func(values map[string]string) map[string]string {
		errs := make(map[string]string)

		if strings.TrimSpace(values[FieldTimezone]) == "" {
			errs[FieldTimezone] = "Timezone is required"
		}
		if strings.TrimSpace(values[FieldLanguage]) == "" {
			errs[FieldLanguage] = "Language is required"
		}

		theme := strings.TrimSpace(values[FieldTheme])
		if theme == "" {
			errs[FieldTheme] = "Theme is required"
		} else if !themeAllowed(theme) {
			errs[FieldTheme] = "Theme must be one of: " + strings.Join(allowedThemes, ", ")
		}

		return errs
	})
}

// PreferenceDefaults are applied client-side when the upstream record is
// partial (the preferences service allows missing keys).
func PreferenceDefaults() map[string]string {
	return map[string]string{
		FieldTimezone: "UTC",
		FieldLanguage: "en",
		FieldTheme:    "system",
	}
}

// NewDocument creates the document-upload metadata form. The description
// is optional; file and target validation happen in the upload coordinator.
func NewDocument() *State {
	return New("document", []string{FieldDescription}, nil, func(values map[string]string) map[string]string {
		return map[string]string{}
	})
}

func themeAllowed(theme string) bool {
	for _, t := range allowedThemes {
		if t == theme {
			return true
		}
	}
	return false
}

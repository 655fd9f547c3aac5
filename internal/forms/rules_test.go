package forms

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// Profile rules
// ============================================================================

func TestProfileRules(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		values map[string]string
		want   map[string]string
	}{
		{
			name: "valid supervisor profile",
			role: RoleSupervisor,
			values: map[string]string{
				FieldFullName: "Ada Lovelace",
				FieldEmail:    "ada@example.edu",
			},
			want: map[string]string{},
		},
		{
			name:   "all empty as student",
			role:   RoleStudent,
			values: map[string]string{},
			want: map[string]string{
				FieldFullName:  "Full name is required",
				FieldEmail:     "Email is required",
				FieldStudentID: "Student ID is required",
			},
		},
		{
			name: "student id not required for supervisors",
			role: RoleSupervisor,
			values: map[string]string{
				FieldFullName: "Grace Hopper",
				FieldEmail:    "grace@example.edu",
			},
			want: map[string]string{},
		},
		{
			name: "whitespace-only name rejected",
			role: RoleSupervisor,
			values: map[string]string{
				FieldFullName: "   ",
				FieldEmail:    "grace@example.edu",
			},
			want: map[string]string{FieldFullName: "Full name is required"},
		},
		{
			name: "email without tld rejected",
			role: RoleSupervisor,
			values: map[string]string{
				FieldFullName: "Grace Hopper",
				FieldEmail:    "grace@example",
			},
			want: map[string]string{FieldEmail: "Enter a valid email address"},
		},
		{
			name: "email with spaces rejected",
			role: RoleSupervisor,
			values: map[string]string{
				FieldFullName: "Grace Hopper",
				FieldEmail:    "grace hopper@example.edu",
			},
			want: map[string]string{FieldEmail: "Enter a valid email address"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewProfile(tt.role)
			for name, v := range tt.values {
				if err := form.Set(name, v); err != nil {
					t.Fatal(err)
				}
			}

			ok := form.Validate()
			if wantOK := len(tt.want) == 0; ok != wantOK {
				t.Errorf("Validate() = %v, want %v", ok, wantOK)
			}
			if diff := cmp.Diff(tt.want, form.Errors()); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ============================================================================
// Password rules
// ============================================================================

func TestPasswordRules(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   map[string]string
	}{
		{
			name: "valid change",
			values: map[string]string{
				FieldCurrentPassword: "old-secret",
				FieldNewPassword:     "new-secret",
				FieldConfirmPassword: "new-secret",
			},
			want: map[string]string{},
		},
		{
			// All three problems must surface at once, no short-circuit.
			name: "empty current, short new, mismatched confirm",
			values: map[string]string{
				FieldCurrentPassword: "",
				FieldNewPassword:     "abc",
				FieldConfirmPassword: "abd",
			},
			want: map[string]string{
				FieldCurrentPassword: "Current password is required",
				FieldNewPassword:     "Password must be at least 6 characters",
				FieldConfirmPassword: "Passwords do not match",
			},
		},
		{
			name: "mismatch reported even with valid new password",
			values: map[string]string{
				FieldCurrentPassword: "old-secret",
				FieldNewPassword:     "long-enough",
				FieldConfirmPassword: "long-enuff",
			},
			want: map[string]string{FieldConfirmPassword: "Passwords do not match"},
		},
		{
			name: "exactly six characters accepted",
			values: map[string]string{
				FieldCurrentPassword: "old-secret",
				FieldNewPassword:     "sixsix",
				FieldConfirmPassword: "sixsix",
			},
			want: map[string]string{},
		},
		{
			name: "multibyte runes counted as characters",
			values: map[string]string{
				FieldCurrentPassword: "old-secret",
				FieldNewPassword:     "pässwd",
				FieldConfirmPassword: "pässwd",
			},
			want: map[string]string{},
		},
		{
			name:   "all empty",
			values: map[string]string{},
			want: map[string]string{
				FieldCurrentPassword: "Current password is required",
				FieldNewPassword:     "New password is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewPassword()
			for name, v := range tt.values {
				if err := form.Set(name, v); err != nil {
					t.Fatal(err)
				}
			}

			form.Validate()
			if diff := cmp.Diff(tt.want, form.Errors()); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ============================================================================
// Preferences rules
// ============================================================================

func TestPreferencesRules(t *testing.T) {
	form := NewPreferences()
	form.Hydrate(PreferenceDefaults())

	if !form.Validate() {
		t.Fatalf("defaults should validate, got %v", form.Errors())
	}

	form.Set(FieldTheme, "neon")
	form.Validate()
	if form.Error(FieldTheme) == "" {
		t.Error("unknown theme should be rejected")
	}

	form.Set(FieldTheme, "dark")
	if !form.Validate() {
		t.Errorf("dark theme should validate, got %v", form.Errors())
	}
}

func TestPreferenceDefaultsFillPartialRecords(t *testing.T) {
	form := NewPreferences()

	// Upstream record only carries timezone; defaults fill the rest.
	record := map[string]string{FieldTimezone: "Europe/Copenhagen"}
	merged := PreferenceDefaults()
	for k, v := range record {
		merged[k] = v
	}
	form.Hydrate(merged)

	if form.Value(FieldTimezone) != "Europe/Copenhagen" {
		t.Errorf("timezone = %q", form.Value(FieldTimezone))
	}
	if form.Value(FieldLanguage) != "en" {
		t.Errorf("language = %q, want default", form.Value(FieldLanguage))
	}
	if form.Value(FieldTheme) != "system" {
		t.Errorf("theme = %q, want default", form.Value(FieldTheme))
	}
}

// Package forms implements form state for the account console: field
// values, per-field errors, validation, and one-way hydration from server
// records. A State owns its fields exclusively; nothing here is shared
// between forms or goroutines.
package forms

import (
	"fmt"
	"sort"
	"strings"
)

// Field holds one form field's current value and its validation error.
// An empty Error means the field passed the last validation pass.
type Field struct {
	Value string
	Error string
}

// RuleFunc validates a full value set and returns the complete error map
// for the form. Fields absent from the map are error-free.
type RuleFunc func(values map[string]string) map[string]string

// State is the controller for a single form instance. The field key set is
// fixed at construction; Set on an unknown field is an error rather than a
// silent expansion of the form.
type State struct {
	name     string
	fields   map[string]*Field
	order    []string
	secret   map[string]bool // fields never trimmed and never echoed
	rules    RuleFunc
	hydrated bool
}

// New creates a form with the given fixed field names.
// Secret fields (passwords) keep their raw value on submit; all other
// fields are trimmed.
func New(name string, fieldNames []string, secret []string, rules RuleFunc) *State {
	s := &State{
		name:   name,
		fields: make(map[string]*Field, len(fieldNames)),
		order:  append([]string(nil), fieldNames...),
		secret: make(map[string]bool, len(secret)),
		rules:  rules,
	}
	for _, n := range fieldNames {
		s.fields[n] = &Field{}
	}
	for _, n := range secret {
		s.secret[n] = true
	}
	return s
}

// Name returns the form's identifier ("profile", "password", ...).
func (s *State) Name() string {
	return s.name
}

// Set updates a field's value. If the field currently holds an error the
// error is cleared in the same update: errors belong to the last validation
// pass and must not linger once the user starts correcting the field.
func (s *State) Set(name, value string) error {
	f, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("form %s: unknown field %q", s.name, name)
	}
	f.Value = value
	f.Error = ""
	return nil
}

// Value returns a field's current value, or "" for unknown fields.
func (s *State) Value(name string) string {
	if f, ok := s.fields[name]; ok {
		return f.Value
	}
	return ""
}

// Error returns a field's current error message, or "".
func (s *State) Error(name string) string {
	if f, ok := s.fields[name]; ok {
		return f.Error
	}
	return ""
}

// Validate runs the form's rules and replaces the entire error mapping.
// Stale errors on now-valid fields disappear; the rules see every field at
// once so independent problems are reported simultaneously. Returns true
// when the form is error-free.
func (s *State) Validate() bool {
	values := s.values()
	errs := map[string]string{}
	if s.rules != nil {
		errs = s.rules(values)
	}

	for name, f := range s.fields {
		f.Error = errs[name]
	}
	return len(errs) == 0
}

// Valid reports whether any field currently holds an error.
// It does not re-run validation.
func (s *State) Valid() bool {
	for _, f := range s.fields {
		if f.Error != "" {
			return false
		}
	}
	return true
}

// Errors returns a copy of the current non-empty error mapping.
func (s *State) Errors() map[string]string {
	errs := make(map[string]string)
	for name, f := range s.fields {
		if f.Error != "" {
			errs[name] = f.Error
		}
	}
	return errs
}

// FieldNames returns the form's field names in declaration order.
func (s *State) FieldNames() []string {
	return append([]string(nil), s.order...)
}

// SubmitValues returns the values to hand to the mutation layer: text
// fields trimmed of leading/trailing whitespace, secret fields untouched.
func (s *State) SubmitValues() map[string]string {
	values := make(map[string]string, len(s.fields))
	for name, f := range s.fields {
		if s.secret[name] {
			values[name] = f.Value
		} else {
			values[name] = strings.TrimSpace(f.Value)
		}
	}
	return values
}

// ApplyServerErrors merges field-scoped errors returned by a failed
// mutation into the form, so server and client validation share one error
// surface. Unknown field names are ignored; existing errors on other
// fields are preserved.
func (s *State) ApplyServerErrors(errs map[string]string) {
	for name, msg := range errs {
		if f, ok := s.fields[name]; ok && msg != "" {
			f.Error = msg
		}
	}
}

// Hydrate populates field values from a fetched server record. Hydration
// happens at most once per State: a stale re-fetch never clobbers edits
// the user made after the first fill. Reset the form to hydrate again.
func (s *State) Hydrate(values map[string]string) {
	if s.hydrated {
		return
	}
	for name, v := range values {
		if f, ok := s.fields[name]; ok {
			f.Value = v
		}
	}
	s.hydrated = true
}

// Hydrated reports whether the form has been filled from a server record.
func (s *State) Hydrated() bool {
	return s.hydrated
}

// Reset clears all values and errors and allows hydration again.
// Used when a form is re-opened and after a successful password change.
func (s *State) Reset() {
	for _, f := range s.fields {
		f.Value = ""
		f.Error = ""
	}
	s.hydrated = false
}

// values snapshots the current field values for the rules.
func (s *State) values() map[string]string {
	values := make(map[string]string, len(s.fields))
	for name, f := range s.fields {
		values[name] = f.Value
	}
	return values
}

// sortedErrorFields lists fields with errors in a stable order, for logs.
func (s *State) sortedErrorFields() []string {
	var names []string
	for name, f := range s.fields {
		if f.Error != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Summary renders "field: message" pairs for structured logging.
func (s *State) Summary() []string {
	fields := s.sortedErrorFields()
	out := make([]string, len(fields))
	for i, name := range fields {
		out[i] = name + ": " + s.fields[name].Error
	}
	return out
}

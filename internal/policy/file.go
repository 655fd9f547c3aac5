package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk shape of a constraint policy file.
// Categories are keyed by name so one file covers avatars and documents.
type policyFile struct {
	Categories map[string]Policy `yaml:"categories"`
}

// LoadFile reads named upload policies from a YAML file.
//
//	categories:
//	  avatar:
//	    allowed_types: [image/jpeg, image/png]
//	    max_bytes: 5242880
//	  document:
//	    allowed_types: [application/pdf, text/plain]
//	    max_bytes: 26214400
func LoadFile(path string) (map[string]Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	if len(pf.Categories) == 0 {
		return nil, fmt.Errorf("policy file %s: no categories defined", path)
	}

	for name, p := range pf.Categories {
		if len(p.AllowedTypes) == 0 {
			return nil, fmt.Errorf("policy file %s: category %q has no allowed types", path, name)
		}
		if p.MaxBytes <= 0 {
			return nil, fmt.Errorf("policy file %s: category %q has no size limit", path, name)
		}
	}

	return pf.Categories, nil
}

// DefaultDocumentPolicy is the compiled-in fallback for document uploads
// when no policy file is configured. The 25MB limit and the broad type set
// are authoritative; UI hint text is derived from this policy rather than
// hand-written, so the displayed limits always match the enforced ones.
func DefaultDocumentPolicy() Policy {
	return Policy{
		AllowedTypes: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/vnd.ms-excel",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"text/plain",
			"text/csv",
			"image/png",
			"image/jpeg",
		},
		MaxBytes: 25 * 1024 * 1024,
	}
}

// DefaultAvatarPolicy is the compiled-in fallback for avatar uploads when
// neither a policy file nor the settings service provides one.
func DefaultAvatarPolicy() Policy {
	return Policy{
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxBytes:     5 * 1024 * 1024,
	}
}

package api

import (
	"context"
	"net/http"
)

// Preferences is the user's display preferences record. The service
// allows partial records; empty fields are filled with defaults on the
// client side (see forms.PreferenceDefaults).
type Preferences struct {
	Timezone string `json:"timezone,omitempty"`
	Language string `json:"language,omitempty"`
	Theme    string `json:"theme,omitempty"`
}

// PreferencesClient talks to the preferences service.
type PreferencesClient struct {
	*Client
}

// NewPreferencesClient creates a preferences service client.
func NewPreferencesClient(baseURL string, httpClient *http.Client) *PreferencesClient {
	return &PreferencesClient{Client: NewClient(baseURL, httpClient)}
}

// Get fetches the stored preferences. The record may be partial.
func (c *PreferencesClient) Get(ctx context.Context) (Preferences, error) {
	var p Preferences
	if err := c.doJSON(ctx, http.MethodGet, "/preferences", nil, &p); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

// Update writes the full preferences record.
func (c *PreferencesClient) Update(ctx context.Context, p Preferences) error {
	return c.doJSON(ctx, http.MethodPut, "/preferences", p, nil)
}

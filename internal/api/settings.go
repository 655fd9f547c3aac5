package api

import (
	"context"
	"net/http"

	"github.com/labtrack/console/internal/policy"
)

// SettingsClient talks to the settings service that publishes the dynamic
// avatar upload constraints.
type SettingsClient struct {
	*Client
}

// NewSettingsClient creates a settings service client.
func NewSettingsClient(baseURL string, httpClient *http.Client) *SettingsClient {
	return &SettingsClient{Client: NewClient(baseURL, httpClient)}
}

type uploadSettings struct {
	AllowedAvatarTypes []string `json:"allowedAvatarTypes"`
	MaxAvatarSize      int64    `json:"maxAvatarSize"`
}

// AvatarPolicy fetches the current avatar constraints. The returned
// policy can be zero when the service publishes nothing; the policy
// provider treats that as unavailable rather than unrestricted.
func (c *SettingsClient) AvatarPolicy(ctx context.Context) (policy.Policy, error) {
	var s uploadSettings
	if err := c.doJSON(ctx, http.MethodGet, "/settings/uploads", nil, &s); err != nil {
		return policy.Policy{}, err
	}
	return policy.Policy{
		AllowedTypes: s.AllowedAvatarTypes,
		MaxBytes:     s.MaxAvatarSize,
	}, nil
}

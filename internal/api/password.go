package api

import (
	"context"
	"net/http"
)

// PasswordClient talks to the password-change service.
type PasswordClient struct {
	*Client
}

// NewPasswordClient creates a password service client.
func NewPasswordClient(baseURL string, httpClient *http.Client) *PasswordClient {
	return &PasswordClient{Client: NewClient(baseURL, httpClient)}
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Change submits a password change. A wrong current password comes back as
// a *RequestError with a field message on currentPassword.
func (c *PasswordClient) Change(ctx context.Context, currentPassword, newPassword string) error {
	req := passwordChangeRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}
	return c.doJSON(ctx, http.MethodPost, "/password", req, nil)
}

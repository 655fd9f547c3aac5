package api

import (
	"context"
	"net/http"
	"time"
)

// Profile is the server's profile record for the acting user.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	StudentID string    `json:"studentId,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate is the writable subset of a profile record.
type ProfileUpdate struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	StudentID string `json:"studentId,omitempty"`
}

// ProfileClient talks to the profile read/write service.
type ProfileClient struct {
	*Client
}

// NewProfileClient creates a profile service client.
func NewProfileClient(baseURL string, httpClient *http.Client) *ProfileClient {
	return &ProfileClient{Client: NewClient(baseURL, httpClient)}
}

// Get fetches the current user's profile record.
func (c *ProfileClient) Get(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update writes the profile fields and returns the updated record.
// Validation failures come back as *RequestError with per-field messages.
func (c *ProfileClient) Update(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	var p Profile
	if err := c.doJSON(ctx, http.MethodPut, "/profile", update, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

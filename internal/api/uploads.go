package api

// uploads.go implements the two multipart upload clients: avatars and
// project documents. Both send a single binary file per request; the
// document endpoint is called once per target project by the batch upload
// coordinator.

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// File is a single upload payload with its declared MIME type.
type File struct {
	Name     string
	MIMEType string
	Content  []byte
}

// Size returns the payload size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Content))
}

// AvatarClient talks to the avatar upload service.
type AvatarClient struct {
	*Client
}

// NewAvatarClient creates an avatar service client.
func NewAvatarClient(baseURL string, httpClient *http.Client) *AvatarClient {
	return &AvatarClient{Client: NewClient(baseURL, httpClient)}
}

// Upload sends the avatar as multipart form content and returns the new
// avatar URL when the service provides one.
func (c *AvatarClient) Upload(ctx context.Context, file File) (string, error) {
	var resp struct {
		AvatarURL string `json:"avatarUrl"`
	}
	if err := c.postMultipart(ctx, "/avatar", file, nil, &resp); err != nil {
		return "", err
	}
	return resp.AvatarURL, nil
}

// DocumentClient talks to the document upload service.
type DocumentClient struct {
	*Client
}

// NewDocumentClient creates a document service client.
func NewDocumentClient(baseURL string, httpClient *http.Client) *DocumentClient {
	return &DocumentClient{Client: NewClient(baseURL, httpClient)}
}

// Upload submits one file against one target project, with an optional
// description. Each call stands alone: a failure for one project says
// nothing about the others.
func (c *DocumentClient) Upload(ctx context.Context, projectID string, file File, description string) error {
	fields := map[string]string{}
	if description != "" {
		fields["description"] = description
	}
	path := "/projects/" + url.PathEscape(projectID) + "/documents"
	return c.postMultipart(ctx, path, file, fields, nil)
}

// postMultipart sends file plus extra form fields as multipart/form-data.
func (c *Client) postMultipart(ctx context.Context, path string, file File, fields map[string]string, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, escapeQuotes(file.Name)))
	header.Set("Content-Type", file.MIMEType)

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finish multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func escapeQuotes(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

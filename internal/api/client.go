// Package api provides HTTP clients for the external collaborator
// services: profile, password, preferences, avatar, document, and
// settings. Error payloads of every shape are decoded exactly once here,
// into RequestError, so the rest of the system never inspects raw
// responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every upstream call that the caller's context
// does not bound more tightly.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 64 * 1024

// RequestError is a structured error from an upstream service. Message is
// the human-readable summary when the service provided one; Fields carries
// per-field validation messages when the failure is field-scoped.
type RequestError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// HasFields reports whether the error carries per-field messages.
func (e *RequestError) HasFields() bool {
	return len(e.Fields) > 0
}

// Client is the shared base for all service clients.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service rooted at baseURL.
// A nil httpClient uses a default with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// errorEnvelope matches the error body shape the upstream services emit.
// Both {"message": ...} and {"error": ...} spellings occur in the wild;
// whichever is present wins.
type errorEnvelope struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

// doJSON issues a request with an optional JSON body and decodes a JSON
// response into out (which may be nil). Non-2xx responses become
// *RequestError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

// do executes a prepared request and decodes the response.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// decodeError converts a non-2xx response into a *RequestError. A body
// that is not the expected JSON envelope still yields a usable error with
// the status code; the raw body is never surfaced to users.
func decodeError(resp *http.Response) error {
	reqErr := &RequestError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return reqErr
	}

	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil {
		reqErr.Message = env.Message
		if reqErr.Message == "" {
			reqErr.Message = env.Error
		}
		reqErr.Fields = env.Errors
	}

	return reqErr
}

// Package api is a small HTTP client for the /api/schools endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aanand-mishra/schools-api/internal/types"
	"github.com/aanand-mishra/schools-api/internal/validation"
)

const schoolsPath = "/api/schools"

// ErrMalformed means the server answered 2xx but the envelope did not have
// the expected shape.
var ErrMalformed = errors.New("invalid response format from server")

// Error is a non-2xx answer. Message is the envelope's error when the
// server sent one.
type Error struct {
	Status  int
	Message string
	Fields  validation.FieldErrors
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// TokenSource yields the bearer token to attach, or "" for none.
type TokenSource interface {
	Token() string
}

// Client talks to one server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
}

// New returns a client for baseURL. A nil httpClient means
// http.DefaultClient; a nil tokens sends no Authorization header.
func New(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Tokens:  tokens,
	}
}

type envelope struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	ID      int64                  `json:"id"`
	Schools *[]types.School        `json:"schools"`
	Fields  validation.FieldErrors `json:"fields"`
}

// CreateSchool POSTs an already encoded multipart body and returns the
// new record's id (0 if the server did not report one).
func (c *Client) CreateSchool(ctx context.Context, body io.Reader, contentType string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+schoolsPath, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", contentType)

	env, err := c.do(req)
	if err != nil {
		return 0, err
	}
	return env.ID, nil
}

// ListSchools fetches every record.
func (c *Client) ListSchools(ctx context.Context) ([]types.School, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+schoolsPath, nil)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !env.Success || env.Schools == nil {
		return nil, ErrMalformed
	}
	return *env.Schools, nil
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	req.Header.Set("Accept", "application/json")
	if c.Tokens != nil {
		if token := c.Tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Error
			apiErr.Fields = env.Fields
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, decodeErr)
	}
	return &env, nil
}

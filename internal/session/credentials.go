package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Reply is what the credential service answered.
type Reply struct {
	// OK is true for a 2xx status.
	OK bool
	// Token is the issued bearer token, if any.
	Token string
	// Message is the service's explanation on failure.
	Message string
	// Data is the decoded body, handed back to callers untouched.
	Data map[string]any
}

// Credentials is the external service that issues and revokes tokens.
// An error return means the service could not be reached at all.
type Credentials interface {
	Login(ctx context.Context, email, password string) (Reply, error)
	Signup(ctx context.Context, email, password string) (Reply, error)
	Logout(ctx context.Context, token string) error
}

// HTTPCredentials calls a credential service over JSON:
//
//	POST {BaseURL}/api/auth/login     {"email","password"}
//	POST {BaseURL}/api/auth/register  {"email","password"}
//	POST {BaseURL}/api/auth/logout    Authorization: Bearer <token>
type HTTPCredentials struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPCredentials returns a client for baseURL. A nil httpClient means
// http.DefaultClient.
func NewHTTPCredentials(baseURL string, httpClient *http.Client) *HTTPCredentials {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPCredentials{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

func (c *HTTPCredentials) Login(ctx context.Context, email, password string) (Reply, error) {
	return c.post(ctx, "/api/auth/login", email, password)
}

func (c *HTTPCredentials) Signup(ctx context.Context, email, password string) (Reply, error) {
	return c.post(ctx, "/api/auth/register", email, password)
}

func (c *HTTPCredentials) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/auth/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("logout: status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPCredentials) post(ctx context.Context, path, email, password string) (Reply, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Reply{}, fmt.Errorf("decode %s response: %w", path, err)
	}

	reply := Reply{
		OK:   resp.StatusCode >= 200 && resp.StatusCode <= 299,
		Data: data,
	}
	reply.Token, _ = data["token"].(string)
	reply.Message, _ = data["message"].(string)
	return reply, nil
}

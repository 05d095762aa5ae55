package bbs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RemoteStore implements Store against the guestbook HTTP API. All bodies
// are JSON; failures map back onto the same error taxonomy the durable
// backends use, so the service cannot tell the variants apart.
type RemoteStore struct {
	BaseURL string       // Base URL of the API (e.g. "https://bbs.example.com")
	Client  *http.Client // HTTP client (can customize timeouts, TLS, etc.)
}

// NewRemoteStore creates a store speaking to the API at baseURL.
func NewRemoteStore(baseURL string, timeout time.Duration) *RemoteStore {
	return &RemoteStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// apiEnvelope is the response shape shared by every API endpoint.
type apiEnvelope struct {
	Success   bool     `json:"success"`
	Posts     []Post   `json:"posts,omitempty"`
	Post      *Post    `json:"post,omitempty"`
	Count     *int64   `json:"count,omitempty"`
	Message   string   `json:"message,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Error     string   `json:"error,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func (t *RemoteStore) do(ctx context.Context, method, path string, body any) (int, *apiEnvelope, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, t.BaseURL+path, &buf)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, &env, nil
}

// serverError turns a failed envelope into an error carrying the
// server-provided message when present, else the generic fallback.
func serverError(status int, env *apiEnvelope, fallback string) error {
	if env != nil && env.Error != "" {
		return fmt.Errorf("server returned %d: %s", status, env.Error)
	}
	return fmt.Errorf("server returned %d: %s", status, fallback)
}

// ListPosts fetches the recent-post window from GET /api/posts.
func (t *RemoteStore) ListPosts(ctx context.Context) ([]Post, error) {
	status, env, err := t.do(ctx, http.MethodGet, "/api/posts", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !env.Success {
		return nil, serverError(status, env, MsgListFailed)
	}
	return env.Posts, nil
}

// CreatePost submits the raw fields to POST /api/posts. A 400 with a field
// error list surfaces as *ValidationError.
func (t *RemoteStore) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	status, env, err := t.do(ctx, http.MethodPost, "/api/posts", in)
	if err != nil {
		return Post{}, err
	}
	switch {
	case status == http.StatusCreated && env.Post != nil:
		return *env.Post, nil
	case status == http.StatusBadRequest && len(env.Errors) > 0:
		return Post{}, &ValidationError{Errors: env.Errors}
	default:
		return Post{}, serverError(status, env, MsgCreateFailed)
	}
}

// DeletePost authorizes and removes a post via DELETE /api/posts/{id}.
func (t *RemoteStore) DeletePost(ctx context.Context, id, deleteKey string) error {
	status, env, err := t.do(ctx, http.MethodDelete, "/api/posts/"+id,
		map[string]string{"deleteKey": deleteKey})
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrPostNotFound
	case http.StatusForbidden:
		return ErrWrongDeleteKey
	case http.StatusBadRequest:
		return ErrMissingDeleteKey
	default:
		return serverError(status, env, MsgDeleteFailed)
	}
}

// VisitCount reads the counter without incrementing it.
func (t *RemoteStore) VisitCount(ctx context.Context) (int64, error) {
	status, env, err := t.do(ctx, http.MethodGet, "/api/counter", nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK || env.Count == nil {
		return 0, serverError(status, env, MsgCounterGetFailed)
	}
	return *env.Count, nil
}

// IncrementVisits bumps the counter and returns the new value.
func (t *RemoteStore) IncrementVisits(ctx context.Context) (int64, error) {
	status, env, err := t.do(ctx, http.MethodPost, "/api/counter", nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK || env.Count == nil {
		return 0, serverError(status, env, MsgCounterIncFailed)
	}
	return *env.Count, nil
}

// Health checks GET /api/health and returns the server's status message.
func (t *RemoteStore) Health(ctx context.Context) (string, error) {
	status, env, err := t.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || !env.Success {
		return "", serverError(status, env, "health check failed")
	}
	return env.Message, nil
}

// Package api is the dashboard's client for the AdsCity REST backend.
//
// Error taxonomy matters here: ErrAuthRejected means the backend examined the
// credentials and said no, while every other error is a transport failure and
// tells the caller nothing about whether the session is still valid. The
// session controller depends on that distinction to avoid logging users out
// over a flaky network.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adscity/dashboard/internal/obs"
)

// ErrAuthRejected reports that the backend rejected the request's
// credentials. Malformed or incomplete profile payloads map here too: a body
// the backend produced but that fails validation is not a transport problem.
var ErrAuthRejected = errors.New("api: authentication rejected")

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend origin, e.g. https://api.adscity.net.
	BaseURL string
	// Jar carries the ambient authToken cookie. Share it with the token
	// store so cookie-only recovery works.
	Jar http.CookieJar
	// Timeout bounds each request. Defaults to 15s.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client calls the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a backend client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     cfg.Jar,
		},
		logger: logger,
	}
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one JSON request and decodes the response envelope.
// Auth failures (401/403) return ErrAuthRejected; everything else that goes
// wrong is returned as-is and must be treated as indeterminate.
func (c *Client) do(ctx context.Context, op, method, path, bearer string, body any) (*envelope, error) {
	start := time.Now()
	env, err := c.roundTrip(ctx, method, path, bearer, body)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrAuthRejected):
		outcome = "auth_rejected"
	case err != nil:
		outcome = "transport_error"
	}
	obs.APIRequest(op, outcome, time.Since(start))
	return env, err
}

func (c *Client) roundTrip(ctx context.Context, method, path, bearer string, body any) (*envelope, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return nil, fmt.Errorf("api: encode request: %w", err)
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuthRejected
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("api: %s %s: server error %d", method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("api: %s %s: malformed response: %w", method, path, err)
	}
	return &env, nil
}

// opErr turns an unsuccessful envelope into an error carrying the backend's
// message.
func opErr(op string, env *envelope) error {
	if env.Message != "" {
		return fmt.Errorf("api: %s: %s", op, env.Message)
	}
	return fmt.Errorf("api: %s failed", op)
}

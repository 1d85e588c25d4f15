// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package backend is the request/response client for the Octank demo
// backend. It covers the six calls the client makes: session start, turn
// submission, agent-desktop context, analytics aggregate, document content,
// and the member directory.
//
// The push channel is NOT here; it lives in pkg/channel. The two arrive
// independently and are reconciled by pkg/session and pkg/trace.
//
// # Architecture
//
//	TUI loop → Client interface → HTTPClient interface → http.Client
//	                ↓
//	          httpClient (production)
//	          mockBackend (tests, pkg/session)
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Client defines the contract for the backend's request/response surface.
//
// # Description
//
// All methods are synchronous from the caller's perspective: they block
// until the backend answers or the context is done. The session package
// never calls them on the UI event loop; the presentation layer dispatches
// them from commands and feeds results back as messages.
//
// # Outputs
//
// Every method returns either a decoded response or an error. A non-2xx
// backend status decodes the server's {detail} body into a *StatusError.
//
// # Assumptions
//
//   - One SubmitTurn call is outstanding per session at most; the caller's
//     processing gate enforces this, not the client.
type Client interface {
	// StartSession opens a session for the member and returns its identity.
	StartSession(ctx context.Context, memberID string) (*StartSessionResponse, error)

	// SubmitTurn submits one user message and returns the complete turn
	// result, including trace steps, tool calls, sources, and guardrails.
	SubmitTurn(ctx context.Context, sessionID, message string) (*TurnResponse, error)

	// AgentDesktop fetches the full hand-off context for an escalated session.
	AgentDesktop(ctx context.Context, sessionID string) (*AgentDesktop, error)

	// Analytics fetches the aggregate dashboard payload.
	Analytics(ctx context.Context) (*Analytics, error)

	// Document fetches the raw markdown content of a knowledge-base document.
	Document(ctx context.Context, name string) (string, error)

	// Members lists the member directory for the auth screen.
	Members(ctx context.Context) ([]Member, error)
}

// HTTPClient abstracts the HTTP transport so tests can substitute a mock.
type HTTPClient interface {
	Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error)
	Get(ctx context.Context, url string) (*http.Response, error)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrSessionNotFound reports a backend 404 for a session-scoped call,
// typically a session that expired server-side.
var ErrSessionNotFound = errors.New("session not found")

// StatusError is a non-2xx backend response with its decoded detail.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.Code)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the backend client configuration. Only BaseURL is required.
type Config struct {
	// BaseURL is the backend origin without a trailing slash,
	// e.g. "http://localhost:8000".
	BaseURL string `validate:"required,url"`

	// Timeout bounds each request. Default: 30 seconds.
	Timeout time.Duration
}

// =============================================================================
// IMPLEMENTATION
// =============================================================================

// httpClient implements Client over HTTP.
type httpClient struct {
	client  HTTPClient
	baseURL string
}

// NewClient creates a production backend client.
//
// # Inputs
//
//   - config: client configuration; BaseURL is validated (required, URL).
//
// # Outputs
//
//   - Client: ready-to-use client.
//   - error: non-nil when config validation fails.
//
// # Examples
//
//	client, err := backend.NewClient(backend.Config{
//	    BaseURL: "http://localhost:8000",
//	})
//	if err != nil {
//	    return err
//	}
func NewClient(config Config) (Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &httpClient{
		client:  &defaultHTTPClient{client: &http.Client{Timeout: timeout}},
		baseURL: config.BaseURL,
	}, nil
}

// NewClientWithHTTP creates a backend client with an injected transport.
// Use this constructor for testing with mock clients.
func NewClientWithHTTP(client HTTPClient, config Config) Client {
	return &httpClient{
		client:  client,
		baseURL: config.BaseURL,
	}
}

func (c *httpClient) StartSession(ctx context.Context, memberID string) (*StartSessionResponse, error) {
	var resp StartSessionResponse
	err := c.postJSON(ctx, "/api/session/start", StartSessionRequest{MemberID: memberID}, &resp)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &resp, nil
}

func (c *httpClient) SubmitTurn(ctx context.Context, sessionID, message string) (*TurnResponse, error) {
	var resp TurnResponse
	err := c.postJSON(ctx, "/api/chat", TurnRequest{SessionID: sessionID, Message: message}, &resp)
	if err != nil {
		return nil, fmt.Errorf("submit turn: %w", asSessionNotFound(err))
	}
	return &resp, nil
}

func (c *httpClient) AgentDesktop(ctx context.Context, sessionID string) (*AgentDesktop, error) {
	var resp AgentDesktop
	err := c.getJSON(ctx, "/api/agent-desktop/"+url.PathEscape(sessionID), &resp)
	if err != nil {
		return nil, fmt.Errorf("agent desktop: %w", asSessionNotFound(err))
	}
	return &resp, nil
}

func (c *httpClient) Analytics(ctx context.Context) (*Analytics, error) {
	var resp Analytics
	if err := c.getJSON(ctx, "/api/analytics", &resp); err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	return &resp, nil
}

func (c *httpClient) Document(ctx context.Context, name string) (string, error) {
	var resp DocumentResponse
	if err := c.getJSON(ctx, "/api/docs/"+url.PathEscape(name), &resp); err != nil {
		return "", fmt.Errorf("document %q: %w", name, err)
	}
	return resp.Content, nil
}

func (c *httpClient) Members(ctx context.Context) ([]Member, error) {
	var resp MembersResponse
	if err := c.getJSON(ctx, "/api/members", &resp); err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	return resp.Members, nil
}

func (c *httpClient) postJSON(ctx context.Context, path string, req, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.client.Post(ctx, c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.client.Get(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Detail: decodeDetail(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// asSessionNotFound maps a 404 on a session-keyed call to the
// ErrSessionNotFound sentinel. Calls that 404 for other reasons, like a
// missing document, keep their StatusError.
func asSessionNotFound(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, se.Detail)
	}
	return err
}

// decodeDetail extracts the backend's {"detail": ...} error body, if any.
func decodeDetail(body io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Detail
}

// =============================================================================
// DEFAULT TRANSPORT
// =============================================================================

// defaultHTTPClient is the production HTTPClient over net/http. Every
// request carries an X-Request-ID for backend log correlation.
type defaultHTTPClient struct {
	client *http.Client
}

func (c *defaultHTTPClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return c.client.Do(req)
}

func (c *defaultHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return c.client.Do(req)
}

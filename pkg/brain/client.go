// Package brain is the HTTP client of the diagnostic backend: the streamed
// chat endpoint and the authenticated diagnostic storage endpoints.
package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bigsis-chat/internal/constant"
	"bigsis-chat/internal/dto"
)

const maxErrorBody = 4 * 1024

var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError is returned for any non-success response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// IsUnauthorized reports whether err is a 401 or 403 response.
func IsUnauthorized(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
	}
	return false
}

type Client struct {
	BaseURL string
	// Stream has no overall timeout: a diagnostic stream lasts as long as
	// the model keeps writing. Cancellation goes through the context.
	Stream *http.Client
	// Rest serves the bounded storage calls.
	Rest *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces both underlying clients, keeping the REST timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		timeout := c.Rest.Timeout
		stream := *hc
		stream.Timeout = 0
		rest := *hc
		rest.Timeout = timeout
		c.Stream = &stream
		c.Rest = &rest
	}
}

func NewClient(baseURL string, restTimeout time.Duration, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Stream:  &http.Client{},
		Rest: &http.Client{
			Timeout: restTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenDiagnosticStream posts the conversation and returns the streamed body.
// The caller owns the body and must close it.
func (c *Client) OpenDiagnosticStream(ctx context.Context, token string, req *dto.DiagnosticChatRequest) (io.ReadCloser, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, constant.BrainDiagnosticStreamPath, token, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.Stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("diagnostic stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(httpReq, resp)
	}
	return resp.Body, nil
}

func (c *Client) SaveDiagnostic(ctx context.Context, token string, req *dto.SaveDiagnosticRequest) (*dto.SaveDiagnosticResponse, error) {
	var res dto.SaveDiagnosticResponse
	if err := c.doJSON(ctx, http.MethodPost, constant.BrainSaveDiagnosticPath, token, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, token, diagnosticId string, req *dto.FeedbackRequest) error {
	path := fmt.Sprintf(constant.BrainFeedbackPathFormat, diagnosticId)
	return c.doJSON(ctx, http.MethodPatch, path, token, req, nil)
}

func (c *Client) ListDiagnostics(ctx context.Context, token string) ([]dto.SavedDiagnosticResponse, error) {
	var res []dto.SavedDiagnosticResponse
	if err := c.doJSON(ctx, http.MethodGet, constant.BrainSaveDiagnosticPath, token, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	resp, err := c.Rest.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(req, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func statusError(req *http.Request, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method: req.Method,
		Path:   req.URL.Path,
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(data)),
	}
}

// Package api is the HTTP client for the travel backend. Every request carries
// the session credential when there is one, and a 401 anywhere triggers the
// unauthorized hook.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"travelapp/internal/config"
	"travelapp/internal/logging"
)

// ErrMissingBaseURL is returned before any request is built when no API
// origin is configured.
var ErrMissingBaseURL = config.ErrMissingBaseURL

// ErrUnauthorized is matched by errors.Is for any 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response. Message comes from the body's "message" field
// when present, otherwise from the HTTP status text.
type Error struct {
	Status  int
	Message string

	fromBody bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// ServerMessage returns the message the server put in the response body, if
// err is an API error that carried one.
func ServerMessage(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.fromBody {
		return apiErr.Message, true
	}
	return "", false
}

// Message returns the server's message for err, or fallback.
func Message(err error, fallback string) string {
	if msg, ok := ServerMessage(err); ok {
		return msg
	}
	return fallback
}

// TokenSource yields the current bearer credential, or "" for none.
type TokenSource func() string

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	Token      TokenSource
	// OnUnauthorized runs after any 401 response, before the caller sees
	// the error.
	OnUnauthorized func()
	// HTTPClient replaces the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client wraps a resty client with the backend's conventions.
type Client struct {
	rc      *resty.Client
	baseURL string
	token   TokenSource
	log     *zap.Logger

	onUnauthorized func()
}

// New builds a client. A missing base URL is reported by each call, not
// here, so the UI can render the configuration error in place.
func New(opts Options) *Client {
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	rc.SetBaseURL(baseURL)
	rc.SetHeader("Content-Type", "application/json")
	rc.SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.RetryCount > 0 {
		rc.SetRetryCount(opts.RetryCount)
		rc.SetRetryWaitTime(200 * time.Millisecond)
		rc.AddRetryCondition(retryIdempotent)
	}

	c := &Client{
		rc:             rc,
		baseURL:        baseURL,
		token:          opts.Token,
		log:            logging.For(logging.CategoryAPI),
		onUnauthorized: opts.OnUnauthorized,
	}
	rc.OnBeforeRequest(c.beforeRequest)
	rc.OnAfterResponse(c.afterResponse)
	return c
}

// SetOnUnauthorized replaces the 401 hook. Wiring code uses it when the hook
// needs objects built after the client.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// BaseURL returns the configured origin without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) beforeRequest(_ *resty.Client, r *resty.Request) error {
	if c.token != nil {
		if tok := c.token(); tok != "" {
			r.SetAuthToken(tok)
		}
	}
	if r.Header.Get("X-Request-ID") == "" {
		r.SetHeader("X-Request-ID", uuid.NewString())
	}
	return nil
}

func (c *Client) afterResponse(_ *resty.Client, resp *resty.Response) error {
	c.log.Debug("response",
		zap.String("method", resp.Request.Method),
		zap.String("url", resp.Request.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)
	if resp.StatusCode() == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.log.Warn("credential rejected", zap.String("url", resp.Request.URL))
		c.onUnauthorized()
	}
	return nil
}

// retryIdempotent retries GETs on transport errors and 5xx. Submissions are
// never retried.
func retryIdempotent(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode() >= http.StatusInternalServerError
}

// do sends a request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return ErrMissingBaseURL
	}

	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return responseError(resp)
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func responseError(resp *resty.Response) *Error {
	e := &Error{Status: resp.StatusCode()}

	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(resp.Body(), &body) == nil {
		e.Message = strings.TrimSpace(body.Message)
		e.fromBody = e.Message != ""
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode())
	}
	if e.Message == "" {
		e.Message = resp.Status()
	}
	return e
}

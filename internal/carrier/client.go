package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	defaultTimeout    = 30 * time.Second
	baseBackoff       = 500 * time.Millisecond
	maxBackoff        = 8 * time.Second
)

// Request describes one carrier API call. Exactly one of Body (JSON) or Form
// may be set.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
	Form    url.Values
	// Timeout overrides the client default for this call. Lighter read
	// endpoints use 15-25s, writes keep the 30s default.
	Timeout time.Duration
}

// Response is the raw outcome of a successful (2xx) carrier call.
type Response struct {
	Code   int
	Body   []byte
	Header http.Header
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out interface{}) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return &InvalidResponseError{Reason: fmt.Sprintf("decode body: %v", err)}
	}
	return nil
}

// Client executes authenticated HTTP requests against the carrier API with
// bounded retries. It knows nothing about shipment semantics.
type Client struct {
	baseURL      string
	token        string
	sharedSecret string
	clientName   string

	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(time.Duration)
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithMaxRetries caps retry attempts (total attempts = retries + 1).
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithSharedSecret adds the optional shared-secret header to every request.
func WithSharedSecret(secret string) ClientOption {
	return func(c *Client) { c.sharedSecret = secret }
}

// WithSleep overrides the backoff sleeper. Test hook.
func WithSleep(fn func(time.Duration)) ClientOption {
	return func(c *Client) { c.sleep = fn }
}

// NewClient builds a carrier API client.
func NewClient(baseURL, token, clientName string, logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		clientName: clientName,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		logger:     logger,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send executes the request with retry on retryable failures: connection and
// timeout errors and HTTP 5xx. 4xx responses and undecodable bodies are
// terminal for the call. At most maxRetries+1 attempts are made, with
// exponential backoff capped at maxBackoff.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	if c.token == "" || c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var lastErr error
	attempts := c.maxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.attempt(ctx, req, attempt)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryableError(err) || attempt == attempts {
			break
		}

		backoff := baseBackoff << (attempt - 1)
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		c.sleep(backoff)
	}

	return nil, lastErr
}

// SendJSON executes the request and decodes a 2xx body into out.
func (c *Client) SendJSON(ctx context.Context, req Request, out interface{}) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) attempt(ctx context.Context, req Request, attempt int) (*Response, error) {
	u, err := url.Parse(c.baseURL + req.Path)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	callCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("transId", uuid.New().String())
	httpReq.Header.Set("transactionSrc", c.clientName)
	if c.sharedSecret != "" {
		httpReq.Header.Set("X-Api-Secret", c.sharedSecret)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logAttempt(req, attempt, 0, err)
		return nil, &TransportError{Op: req.Method + " " + req.Path, Err: err}
	}
	defer func(rc io.ReadCloser) {
		_ = rc.Close()
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logAttempt(req, attempt, resp.StatusCode, err)
		return nil, &TransportError{Op: req.Method + " " + req.Path, Err: err}
	}

	c.logAttempt(req, attempt, resp.StatusCode, nil)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Status:         resp.StatusCode,
			CarrierMessage: extractCarrierMessage(respBody),
		}
	}

	return &Response{
		Code:   resp.StatusCode,
		Body:   respBody,
		Header: resp.Header,
	}, nil
}

// logAttempt records one structured entry per attempt. Request bodies and
// auth headers are never logged.
func (c *Client) logAttempt(req Request, attempt, code int, err error) {
	if c.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("attempt", attempt),
	}
	if code > 0 {
		fields = append(fields, zap.Int("status", code))
	}
	if err != nil {
		c.logger.Warn("carrier call failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Info("carrier call", fields...)
}

// retryableError decides whether a Send failure is worth another attempt.
func retryableError(err error) bool {
	switch e := err.(type) {
	case *TransportError:
		return isRetryable(e.Err)
	case *HTTPError:
		return e.Status >= 500
	}
	return false
}

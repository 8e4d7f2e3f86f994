package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"veloshop-client/internal/domain"
	"veloshop-client/pkg/logger"
)

// TokenSource supplies the current session credential for outgoing requests.
// An empty string means the request goes out unauthenticated.
type TokenSource func() string

// Client is the shared HTTP transport for the storefront API. Failures are
// translated into the engine's typed errors at this boundary; callers never
// see raw transport details.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	limiter    *rate.Limiter
}

// NewClient creates a gateway client. rps <= 0 disables client-side rate
// limiting.
func NewClient(baseURL string, timeout time.Duration, rps float64, burst int, token TokenSource) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		token: token,
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return c
}

// errorBody is the API's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs one round trip. body and out may be nil. Response bodies are
// decoded with goccy/go-json into out; any shape mismatch downstream of a
// 2xx status is the caller's concern via decodeStrict.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &domain.TransportError{Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &domain.SerializationError{Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &domain.TransportError{Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.RemoteCall(method, path, requestID, 0, time.Since(start), err)
		return &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	logger.RemoteCall(method, path, requestID, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.SerializationError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// statusError maps HTTP failure statuses onto the engine's error taxonomy.
func (c *Client) statusError(resp *http.Response) error {
	var apiErr errorBody
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &apiErr)

	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &domain.ValidationError{Msg: msg}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.PermissionDeniedError{Msg: msg}
	case http.StatusNotFound:
		return &domain.NotFoundError{Resource: msg}
	default:
		return &domain.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("%s", msg)}
	}
}

package formsrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 16 * 1024
)

// Option customises the relay client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used to talk to the relay.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithBodyLimit adjusts how many bytes are retained from the response body.
func WithBodyLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBodyBytes = limit
		}
	}
}

// Client posts submissions to a hosted forms relay over HTTPS.
type Client struct {
	logger       zerolog.Logger
	endpoint     string
	httpClient   HTTPClient
	maxBodyBytes int64
}

// NewClient constructs a relay client for endpoint.
func NewClient(endpoint string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("forms relay client: endpoint is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	c := &Client{
		logger:       logger,
		endpoint:     endpoint,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Submit posts sub to the relay. Network failures are returned as is;
// explicit failures reported by the relay wrap ErrRejected.
func (c *Client) Submit(ctx context.Context, sub *Submission) (*Response, error) {
	if sub == nil {
		return nil, errors.New("forms relay client: submission is required")
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("forms relay client: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("forms relay client: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forms relay client: http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("forms relay client: read body: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: string(body)}
	decodeErr := json.Unmarshal(body, out)

	c.logger.Debug().
		Int("http_status", resp.StatusCode).
		Bool("success", out.Success).
		Msg("forms relay responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, fmt.Errorf("%w: http %d: %s", ErrRejected, resp.StatusCode, describe(out))
	}
	if decodeErr != nil {
		return out, fmt.Errorf("%w: unreadable response: %v", ErrRejected, decodeErr)
	}
	if !out.Success {
		return out, fmt.Errorf("%w: %s", ErrRejected, describe(out))
	}
	return out, nil
}

func describe(resp *Response) string {
	if msg := strings.TrimSpace(resp.Message); msg != "" {
		return msg
	}
	if body := strings.TrimSpace(resp.Body); body != "" {
		return body
	}
	return http.StatusText(resp.StatusCode)
}

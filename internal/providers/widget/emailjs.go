package widget

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
	defaultEmailJSURL   = "https://api.emailjs.com/api/v1.0/email/send"
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 4 * 1024
)

// EmailJSConfig carries the account identifiers of an EmailJS service.
type EmailJSConfig struct {
	URL        string
	ServiceID  string
	PublicKey  string
	PrivateKey string
}

// EmailJSOption customises the EmailJS client.
type EmailJSOption func(*EmailJSClient)

// WithHTTPClient overrides the HTTP client used to talk to EmailJS.
func WithHTTPClient(client HTTPClient) EmailJSOption {
	return func(c *EmailJSClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) EmailJSOption {
	return func(c *EmailJSClient) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// EmailJSClient implements Provider against the EmailJS REST API.
type EmailJSClient struct {
	logger     zerolog.Logger
	cfg        EmailJSConfig
	httpClient HTTPClient
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// NewEmailJSClient constructs an EmailJS-backed widget provider.
func NewEmailJSClient(cfg EmailJSConfig, logger zerolog.Logger, opts ...EmailJSOption) (*EmailJSClient, error) {
	cfg.ServiceID = strings.TrimSpace(cfg.ServiceID)
	cfg.PublicKey = strings.TrimSpace(cfg.PublicKey)
	if cfg.ServiceID == "" {
		return nil, errors.New("emailjs client: service id is required")
	}
	if cfg.PublicKey == "" {
		return nil, errors.New("emailjs client: public key is required")
	}
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = defaultEmailJSURL
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	c := &EmailJSClient{
		logger:     logger,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Send implements Provider. EmailJS answers 200 with a plain "OK" body on
// success; any other status is a rejection.
func (c *EmailJSClient) Send(ctx context.Context, templateID string, params map[string]string) error {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return errors.New("emailjs client: template id is required")
	}

	payload, err := json.Marshal(emailJSRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     templateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    strings.TrimSpace(c.cfg.PrivateKey),
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("emailjs client: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("emailjs client: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs client: http do: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBodyBytes))
	c.logger.Debug().
		Int("http_status", resp.StatusCode).
		Str("template_id", templateID).
		Msg("emailjs responded")

	if resp.StatusCode != http.StatusOK {
		text := strings.TrimSpace(string(body))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: http %d: %s", ErrRejected, resp.StatusCode, text)
	}
	return nil
}

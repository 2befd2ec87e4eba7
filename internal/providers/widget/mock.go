package widget

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scenario enumerates supported behaviours for the mock widget.
type Scenario string

const (
	ScenarioSuccess Scenario = "success"
	ScenarioReject  Scenario = "reject"
	ScenarioTimeout Scenario = "timeout"
)

// ParseScenario maps a configuration value to a Scenario, defaulting to
// success.
func ParseScenario(value string) (Scenario, error) {
	switch s := Scenario(strings.ToLower(strings.TrimSpace(value))); s {
	case "":
		return ScenarioSuccess, nil
	case ScenarioSuccess, ScenarioReject, ScenarioTimeout:
		return s, nil
	default:
		return "", fmt.Errorf("widget mock: unknown scenario %q", value)
	}
}

// MockOption customises the mock provider at construction time.
type MockOption func(*MockProvider)

// WithScenario overrides the default scenario.
func WithScenario(s Scenario) MockOption {
	return func(p *MockProvider) {
		p.scenario = s
	}
}

// WithLatency sets the artificial latency inserted before responding.
func WithLatency(d time.Duration) MockOption {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// SentMail is one send recorded by the mock.
type SentMail struct {
	TemplateID string
	Params     map[string]string
}

// MockProvider is a deterministic widget for local development and tests.
type MockProvider struct {
	logger   zerolog.Logger
	scenario Scenario
	latency  time.Duration

	mu   sync.Mutex
	sent []SentMail
}

// NewMockProvider constructs a mock widget provider.
func NewMockProvider(logger zerolog.Logger, opts ...MockOption) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:   logger,
		scenario: ScenarioSuccess,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Send implements Provider.
func (p *MockProvider) Send(ctx context.Context, templateID string, params map[string]string) error {
	if strings.TrimSpace(templateID) == "" {
		return errors.New("widget mock: template id is required")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	switch p.scenario {
	case ScenarioSuccess:
		p.record(templateID, params)
		p.logger.Info().
			Str("template_id", templateID).
			Str("to", params[ParamToEmail]).
			Str("subject", params[ParamSubject]).
			Msg("widget mock: mail accepted")
		return nil
	case ScenarioReject:
		return fmt.Errorf("%w: mock rejected template %s", ErrRejected, templateID)
	case ScenarioTimeout:
		<-ctx.Done()
		return ctx.Err()
	default:
		return fmt.Errorf("widget mock: unknown scenario %s", p.scenario)
	}
}

// Sent returns a copy of the mails accepted so far.
func (p *MockProvider) Sent() []SentMail {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SentMail, len(p.sent))
	copy(out, p.sent)
	return out
}

func (p *MockProvider) record(templateID string, params map[string]string) {
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	p.mu.Lock()
	p.sent = append(p.sent, SentMail{TemplateID: templateID, Params: cp})
	p.mu.Unlock()
}

package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/config"
	relayprovider "github.com/example/salon-notify/internal/providers/formsrelay"
	widgetprovider "github.com/example/salon-notify/internal/providers/widget"
)

// Widget constructs the configured widget provider. The "none" backend
// returns a nil provider, which the widget adapter reports as not
// configured.
func Widget(cfg config.WidgetConfig, timeouts config.TimeoutConfig, logger zerolog.Logger) (widgetprovider.Provider, error) {
	backend := normalize(cfg.Backend, "none")
	switch backend {
	case "emailjs":
		provider, err := widgetprovider.NewEmailJSClient(widgetprovider.EmailJSConfig{
			URL:        cfg.URL,
			ServiceID:  cfg.ServiceID,
			PublicKey:  cfg.PublicKey,
			PrivateKey: cfg.PrivateKey,
		}, logger, widgetprovider.WithTimeout(providerTimeout(timeouts)))
		if err != nil {
			return nil, fmt.Errorf("factory: emailjs provider init: %w", err)
		}
		logger.Info().
			Str("backend", "emailjs").
			Msg("widget provider initialised")
		return provider, nil
	case "mock":
		scenario, err := widgetprovider.ParseScenario(cfg.MockScenario)
		if err != nil {
			return nil, fmt.Errorf("factory: mock widget init: %w", err)
		}
		provider := widgetprovider.NewMockProvider(logger, widgetprovider.WithScenario(scenario))
		logger.Info().
			Str("backend", "mock").
			Str("scenario", string(scenario)).
			Msg("widget provider initialised")
		return provider, nil
	case "none":
		logger.Info().
			Str("backend", "none").
			Msg("widget provider disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("factory: unsupported widget backend %q", cfg.Backend)
	}
}

// FormsRelay constructs the forms relay HTTP client.
func FormsRelay(cfg config.RelayConfig, timeouts config.TimeoutConfig, logger zerolog.Logger) (relayprovider.Provider, error) {
	client, err := relayprovider.NewClient(cfg.URL, logger, relayprovider.WithTimeout(providerTimeout(timeouts)))
	if err != nil {
		return nil, fmt.Errorf("factory: forms relay init: %w", err)
	}
	logger.Info().
		Str("endpoint", cfg.URL).
		Bool("build_credential", cfg.AccessKey != "").
		Msg("forms relay provider initialised")
	return client, nil
}

func providerTimeout(t config.TimeoutConfig) time.Duration {
	if t.ProviderTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(t.ProviderTimeoutSeconds) * time.Second
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}

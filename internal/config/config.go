package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the notification service.
type Config struct {
	App      AppConfig
	Business BusinessConfig
	Relay    RelayConfig
	Widget   WidgetConfig
	UPI      UPIConfig
	Settings SettingsConfig
	Kafka    KafkaConfig
	Dispatch DispatchConfig
	Timeouts TimeoutConfig
	HTTP     HTTPConfig
	Payments PaymentConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// BusinessConfig describes the business the notifications are sent for.
type BusinessConfig struct {
	Name          string
	Location      string
	OperatorEmail string
	OperatorPhone string
}

// RelayConfig configures the hosted forms relay.
type RelayConfig struct {
	URL string
	// AccessKey is the build-time credential. A key stored in settings takes
	// precedence over it.
	AccessKey string
}

// WidgetConfig selects and configures the embedded email widget backend.
// MockScenario drives the mock backend: success, reject or timeout.
type WidgetConfig struct {
	Backend      string
	URL          string
	ServiceID    string
	TemplateID   string
	PublicKey    string
	PrivateKey   string
	MockScenario string
}

// UPIConfig holds the fallback payee used when settings carry none.
type UPIConfig struct {
	PayeeID   string
	PayeeName string
}

// SettingsConfig selects the settings store backend.
type SettingsConfig struct {
	Backend  string
	RedisURL string
	RedisKey string
}

// KafkaConfig enables status publishing when brokers are present.
type KafkaConfig struct {
	Brokers          []string
	DeliveryTopic    string
	UndeliveredTopic string
}

// Enabled reports whether status publishing should be wired.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// DispatchConfig controls background delivery.
type DispatchConfig struct {
	Concurrency     int
	DevLogCapacity  int
	DevLogFallbacks bool
}

// TimeoutConfig contains timeout thresholds for outbound providers.
type TimeoutConfig struct {
	ProviderTimeoutSeconds int
	ShutdownTimeoutSeconds int
}

// HTTPConfig configures the API surface.
type HTTPConfig struct {
	AllowedOrigins []string
}

// PaymentConfig configures the payment session registry.
type PaymentConfig struct {
	SessionTTLMinutes int
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 8080, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Business.Name = ldr.getString("BUSINESS_NAME", "Glow Beauty Studio", false)
	cfg.Business.Location = ldr.getString("BUSINESS_LOCATION", "", false)
	cfg.Business.OperatorEmail = ldr.getString("OPERATOR_EMAIL", "", true)
	cfg.Business.OperatorPhone = ldr.getString("OPERATOR_PHONE", "", false)

	cfg.Relay.URL = ldr.getString("FORMS_RELAY_URL", "https://api.web3forms.com/submit", false)
	cfg.Relay.AccessKey = ldr.getString("FORMS_RELAY_ACCESS_KEY", "", false)

	cfg.Widget.Backend = strings.ToLower(ldr.getString("WIDGET_BACKEND", "none", false))
	cfg.Widget.URL = ldr.getString("EMAILJS_URL", "https://api.emailjs.com/api/v1.0/email/send", false)
	cfg.Widget.ServiceID = ldr.getString("EMAILJS_SERVICE_ID", "", cfg.Widget.Backend == "emailjs")
	cfg.Widget.TemplateID = ldr.getString("EMAILJS_TEMPLATE_ID", "template_notification", false)
	cfg.Widget.PublicKey = ldr.getString("EMAILJS_PUBLIC_KEY", "", cfg.Widget.Backend == "emailjs")
	cfg.Widget.PrivateKey = ldr.getString("EMAILJS_PRIVATE_KEY", "", false)
	cfg.Widget.MockScenario = ldr.getString("WIDGET_MOCK_SCENARIO", "success", false)

	cfg.UPI.PayeeID = ldr.getString("UPI_PAYEE_ID", "", false)
	cfg.UPI.PayeeName = ldr.getString("UPI_PAYEE_NAME", cfg.Business.Name, false)

	cfg.Settings.Backend = strings.ToLower(ldr.getString("SETTINGS_BACKEND", "memory", false))
	cfg.Settings.RedisURL = ldr.getString("REDIS_URL", "", cfg.Settings.Backend == "redis")
	cfg.Settings.RedisKey = ldr.getString("SETTINGS_REDIS_KEY", "salon:settings", false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", false)
	cfg.Kafka.DeliveryTopic = ldr.getString("KAFKA_DELIVERY_TOPIC", "notify.delivery", false)
	cfg.Kafka.UndeliveredTopic = ldr.getString("KAFKA_UNDELIVERED_TOPIC", "notify.undelivered", false)

	cfg.Dispatch.Concurrency = ldr.getInt("DISPATCH_CONCURRENCY", 8, false)
	cfg.Dispatch.DevLogCapacity = ldr.getInt("DEVLOG_CAPACITY", 100, false)
	cfg.Dispatch.DevLogFallbacks = ldr.getBool("DEVLOG_FALLBACK", true, false)

	cfg.Timeouts.ProviderTimeoutSeconds = ldr.getInt("PROVIDER_TIMEOUT_SECONDS", 15, false)
	cfg.Timeouts.ShutdownTimeoutSeconds = ldr.getInt("SHUTDOWN_TIMEOUT_SECONDS", 10, false)

	cfg.HTTP.AllowedOrigins = ldr.getStringSlice("CORS_ALLOWED_ORIGINS", false)

	cfg.Payments.SessionTTLMinutes = ldr.getInt("PAYMENT_SESSION_TTL_MINUTES", 30, false)

	switch cfg.Widget.Backend {
	case "none", "emailjs", "mock":
	default:
		ldr.addError(fmt.Sprintf("WIDGET_BACKEND %q is not supported", cfg.Widget.Backend))
	}
	switch cfg.Settings.Backend {
	case "memory", "redis":
	default:
		ldr.addError(fmt.Sprintf("SETTINGS_BACKEND %q is not supported", cfg.Settings.Backend))
	}
	if cfg.Dispatch.Concurrency < 1 {
		ldr.addError("DISPATCH_CONCURRENCY must be >= 1")
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

// lookup returns the trimmed value of key and whether it is set to a
// non-empty value. A missing required key is recorded as an error.
func (l *envLoader) lookup(key string, required bool) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		if val = strings.TrimSpace(val); val != "" {
			return val, true
		}
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return "", false
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := l.lookup(key, required); ok {
		return val
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	val, ok := l.lookup(key, required)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	val, ok := l.lookup(key, required)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid boolean", key))
		return def
	}
	return parsed
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}

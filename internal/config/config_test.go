package config_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/example/salon-notify/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPERATOR_EMAIL", "owner@example.com")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Env != "development" {
		t.Fatalf("expected development env, got %q", cfg.App.Env)
	}
	if cfg.App.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.App.Port)
	}
	if cfg.Widget.Backend != "none" {
		t.Fatalf("expected widget backend none, got %q", cfg.Widget.Backend)
	}
	if cfg.Settings.Backend != "memory" {
		t.Fatalf("expected memory settings backend, got %q", cfg.Settings.Backend)
	}
	if cfg.Kafka.Enabled() {
		t.Fatalf("kafka must be disabled without brokers")
	}
	if cfg.Relay.AccessKey != "" {
		t.Fatalf("relay access key must not have a built-in default, got %q", cfg.Relay.AccessKey)
	}
	if cfg.Dispatch.Concurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.Dispatch.Concurrency)
	}
	if cfg.UPI.PayeeName != cfg.Business.Name {
		t.Fatalf("payee name should default to business name, got %q", cfg.UPI.PayeeName)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("OPERATOR_EMAIL", "owner@example.com")
	t.Setenv("FORMS_RELAY_ACCESS_KEY", "env-key")
	t.Setenv("WIDGET_BACKEND", "EmailJS")
	t.Setenv("EMAILJS_SERVICE_ID", "service_x")
	t.Setenv("EMAILJS_PUBLIC_KEY", "pub")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9093")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://glow.example.com")
	t.Setenv("UPI_PAYEE_ID", "glow@upi")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.App.Port)
	}
	if cfg.Relay.AccessKey != "env-key" {
		t.Fatalf("unexpected relay key %q", cfg.Relay.AccessKey)
	}
	if cfg.Widget.Backend != "emailjs" {
		t.Fatalf("expected backend to be lowercased, got %q", cfg.Widget.Backend)
	}
	wantBrokers := []string{"broker-a:9092", "broker-b:9093"}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, wantBrokers) {
		t.Fatalf("brokers = %v, want %v", cfg.Kafka.Brokers, wantBrokers)
	}
	if !cfg.Kafka.Enabled() {
		t.Fatalf("kafka should be enabled")
	}
	if cfg.UPI.PayeeID != "glow@upi" {
		t.Fatalf("unexpected payee id %q", cfg.UPI.PayeeID)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("OPERATOR_EMAIL", "")
	t.Setenv("WIDGET_BACKEND", "emailjs")
	t.Setenv("SETTINGS_BACKEND", "redis")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"OPERATOR_EMAIL", "EMAILJS_SERVICE_ID", "EMAILJS_PUBLIC_KEY", "REDIS_URL"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected error to mention %s: %v", key, err)
		}
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	t.Setenv("OPERATOR_EMAIL", "owner@example.com")
	t.Setenv("WIDGET_BACKEND", "carrier-pigeon")
	t.Setenv("DISPATCH_CONCURRENCY", "0")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "WIDGET_BACKEND") || !strings.Contains(err.Error(), "DISPATCH_CONCURRENCY") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadInvalidInteger(t *testing.T) {
	t.Setenv("OPERATOR_EMAIL", "owner@example.com")
	t.Setenv("APP_PORT", "eighty")

	_, err := config.Load()
	if err == nil || !strings.Contains(err.Error(), "APP_PORT must be a valid integer") {
		t.Fatalf("expected integer error, got %v", err)
	}
}

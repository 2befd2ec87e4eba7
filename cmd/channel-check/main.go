// Command channel-check sends one sample operator message through a single
// delivery channel using the service configuration, and prints the attempt
// result. It is meant for verifying credentials after a deploy.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/salon-notify/internal/adapters/common"
	devlogadapter "github.com/example/salon-notify/internal/adapters/devlog"
	relayadapter "github.com/example/salon-notify/internal/adapters/formsrelay"
	widgetadapter "github.com/example/salon-notify/internal/adapters/widget"
	"github.com/example/salon-notify/internal/config"
	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/providers/factory"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/templates"
)

func main() {
	channel := flag.String("channel", relayadapter.ChannelName, "channel to test: email_widget, forms_relay or dev_log")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	adapter, err := buildAdapter(*channel, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("channel", *channel).Msg("failed to initialise adapter")
	}

	builder := templates.NewBuilder(templates.Options{
		OperatorEmail: cfg.Business.OperatorEmail,
		OperatorPhone: cfg.Business.OperatorPhone,
		BusinessName:  cfg.Business.Name,
	})
	msg, err := builder.Contact(models.ContactInquiry{
		Name:    "Channel check",
		Email:   cfg.Business.OperatorEmail,
		Message: "This is a test message sent by channel-check at " + time.Now().Format(time.RFC1123) + ".",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build sample message")
	}

	timeout := time.Duration(cfg.Timeouts.ProviderTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res := common.SafeSend(ctx, adapter, msg)
	if !res.Succeeded {
		logger.Error().
			Str("channel", res.Channel).
			Str("class", common.Class(res.Err)).
			Str("reason", res.Reason).
			Msg("channel check failed")
		os.Exit(1)
	}
	logger.Info().Str("channel", res.Channel).Str("to", msg.To).Msg("channel check succeeded")
}

func buildAdapter(channel string, cfg *config.Config, logger zerolog.Logger) (common.Adapter, error) {
	switch channel {
	case widgetadapter.ChannelName:
		provider, err := factory.Widget(cfg.Widget, cfg.Timeouts, logger)
		if err != nil {
			return nil, err
		}
		return widgetadapter.NewAdapter(provider, logger, widgetadapter.WithTemplateID(cfg.Widget.TemplateID)), nil
	case devlogadapter.ChannelName:
		return devlogadapter.NewAdapter(devlogadapter.NewJournal(1), logger), nil
	default:
		provider, err := factory.FormsRelay(cfg.Relay, cfg.Timeouts, logger)
		if err != nil {
			return nil, err
		}
		return relayadapter.NewAdapter(provider, settings.Static{}, logger,
			relayadapter.WithEnvAccessKey(cfg.Relay.AccessKey),
			relayadapter.WithFromName(cfg.Business.Name),
		)
	}
}

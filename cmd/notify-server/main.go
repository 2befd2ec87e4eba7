package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	common "github.com/example/salon-notify/internal/adapters/common"
	devlogadapter "github.com/example/salon-notify/internal/adapters/devlog"
	relayadapter "github.com/example/salon-notify/internal/adapters/formsrelay"
	widgetadapter "github.com/example/salon-notify/internal/adapters/widget"
	"github.com/example/salon-notify/internal/config"
	"github.com/example/salon-notify/internal/dispatcher"
	"github.com/example/salon-notify/internal/kafka/producer"
	kafkapublisher "github.com/example/salon-notify/internal/kafka/publisher"
	"github.com/example/salon-notify/internal/logger"
	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/notify"
	"github.com/example/salon-notify/internal/payment"
	"github.com/example/salon-notify/internal/providers/factory"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/templates"
	transporthttp "github.com/example/salon-notify/internal/transport/http"
	"github.com/example/salon-notify/internal/validator"
	"github.com/example/salon-notify/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "notify-server").Logger()

	store, closeStore, err := openSettings(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open settings store")
	}
	defer closeStore()

	widgetProvider, err := factory.Widget(cfg.Widget, cfg.Timeouts, logger.Component(log, "widget-provider"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise widget provider")
	}
	relayProvider, err := factory.FormsRelay(cfg.Relay, cfg.Timeouts, logger.Component(log, "relay-provider"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise forms relay provider")
	}

	widget := widgetadapter.NewAdapter(widgetProvider, logger.Component(log, "widget-adapter"),
		widgetadapter.WithTemplateID(cfg.Widget.TemplateID),
		widgetadapter.WithFromName(cfg.Business.Name),
	)
	relay, err := relayadapter.NewAdapter(relayProvider, store, logger.Component(log, "relay-adapter"),
		relayadapter.WithEnvAccessKey(cfg.Relay.AccessKey),
		relayadapter.WithFromName(cfg.Business.Name),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise forms relay adapter")
	}

	journal := devlogadapter.NewJournal(cfg.Dispatch.DevLogCapacity)
	var devlog common.Adapter
	if cfg.Dispatch.DevLogFallbacks {
		devlog = devlogadapter.NewAdapter(journal, logger.Component(log, "devlog-adapter"))
	}

	disp := dispatcher.New(dispatcher.DefaultRoutes(widget, relay, devlog), logger.Component(log, "dispatcher"))

	var (
		statusPublisher      worker.StatusPublisher      = kafkapublisher.Discard{}
		undeliveredPublisher worker.UndeliveredPublisher = kafkapublisher.Discard{}
		prod                 *producer.Producer
	)
	if cfg.Kafka.Enabled() {
		prod, err = producer.New(cfg.Kafka.Brokers, logger.Component(log, "kafka"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		statusPublisher = kafkapublisher.NewDeliveryPublisher(prod, cfg.Kafka.DeliveryTopic, logger.Component(log, "delivery-publisher"))
		undeliveredPublisher = kafkapublisher.NewUndeliveredPublisher(prod, cfg.Kafka.UndeliveredTopic, logger.Component(log, "undelivered-publisher"))
	} else {
		log.Info().Msg("KAFKA_BROKERS not set, delivery events are not published")
	}

	engine, err := worker.NewEngine(worker.Config{Concurrency: cfg.Dispatch.Concurrency}, worker.Dependencies{
		Dispatcher:           disp,
		StatusPublisher:      statusPublisher,
		UndeliveredPublisher: undeliveredPublisher,
		Logger:               logger.Component(log, "worker-engine"),
		Now:                  time.Now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise delivery engine")
	}

	svc, err := notify.NewService(engine, notify.Options{
		Defaults: templates.Options{
			OperatorEmail: cfg.Business.OperatorEmail,
			OperatorPhone: cfg.Business.OperatorPhone,
			BusinessName:  cfg.Business.Name,
		},
		Settings: store,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise notification service")
	}

	payments := payment.NewRegistry(payment.Dependencies{
		Settings:          store,
		Launcher:          transporthttp.NewHandoffLauncher(log),
		Notifier:          svc,
		FallbackPayeeID:   cfg.UPI.PayeeID,
		FallbackPayeeName: cfg.UPI.PayeeName,
		Logger:            log,
	}, time.Duration(cfg.Payments.SessionTTLMinutes)*time.Minute)

	router, err := transporthttp.NewRouter(transporthttp.Dependencies{
		Notifier:       svc,
		Ready:          readiness(prod),
		Settings:       store,
		Payments:       payments,
		Validator:      validator.New(),
		Journal:        journal,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Development:    logger.IsDevelopment(cfg.App.Env),
		Logger:         logger.Component(log, "http"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise http router")
	}

	shutdownTimeout := time.Duration(cfg.Timeouts.ShutdownTimeoutSeconds) * time.Second
	server := transporthttp.NewServer(fmt.Sprintf(":%d", cfg.App.Port), router, shutdownTimeout, log)

	log.Info().
		Strs("appointment_chain", disp.Chain(models.KindAppointment)).
		Strs("contact_chain", disp.Chain(models.KindContact)).
		Str("widget_backend", cfg.Widget.Backend).
		Str("settings_backend", cfg.Settings.Backend).
		Bool("kafka", cfg.Kafka.Enabled()).
		Msg("notify server starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		return payments.Run(gctx, time.Minute)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server terminated with error")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := engine.Wait(drainCtx); err != nil {
		log.Warn().Err(err).Msg("background deliveries did not finish before shutdown")
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka producer")
		}
	}
	log.Info().Msg("notify server stopped")
}

func readiness(prod *producer.Producer) func(context.Context) error {
	if prod == nil {
		return nil
	}
	return prod.Ready
}

// openSettings returns the configured settings store seeded with the
// environment values, and a func releasing its resources.
func openSettings(ctx context.Context, cfg *config.Config, log zerolog.Logger) (settings.Store, func(), error) {
	defaults := settings.Settings{
		PayeeID:       cfg.UPI.PayeeID,
		PayeeName:     cfg.UPI.PayeeName,
		OperatorPhone: cfg.Business.OperatorPhone,
		OperatorEmail: cfg.Business.OperatorEmail,
	}
	if cfg.Settings.Backend != "redis" {
		return settings.NewMemoryStore(defaults), func() {}, nil
	}

	client, err := settings.DialRedis(ctx, cfg.Settings.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := settings.NewRedisStore(ctx, client, cfg.Settings.RedisKey, defaults, logger.Component(log, "settings"))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}, nil
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("notify server init failed")
}

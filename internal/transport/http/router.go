// Package http exposes the notification and payment use-cases over a JSON
// HTTP API.
package http

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/adapters/devlog"
	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/payment"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/validator"
)

// Notifier is the notification surface the API calls into.
type Notifier interface {
	NotifyAppointment(ctx context.Context, ev models.AppointmentEvent) (string, error)
	SubmitContact(ctx context.Context, inq models.ContactInquiry) error
	SendPasswordReset(ctx context.Context, req models.PasswordReset) error
}

// Dependencies wires the API. Journal is optional and only served when
// Development is set. Ready backs /readyz; when nil the service is always
// ready.
type Dependencies struct {
	Notifier       Notifier
	Ready          func(context.Context) error
	Settings       settings.Store
	Payments       *payment.Registry
	Validator      *validator.Validator
	Journal        *devlog.Journal
	AllowedOrigins []string
	Development    bool
	Logger         zerolog.Logger
}

type api struct {
	notifier  Notifier
	settings  settings.Store
	payments  *payment.Registry
	validator *validator.Validator
	journal   *devlog.Journal
	logger    zerolog.Logger
}

// NewRouter builds the chi router serving every endpoint.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Notifier == nil {
		return nil, errors.New("http: notifier dependency is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("http: settings dependency is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("http: payments dependency is required")
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	a := &api{
		notifier:  deps.Notifier,
		settings:  deps.Settings,
		payments:  deps.Payments,
		validator: deps.Validator,
		journal:   deps.Journal,
		logger:    logger,
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/settings", a.getSettings)
		r.Patch("/settings", a.patchSettings)

		r.Post("/contact", a.submitContact)
		r.Post("/appointments/notify", a.notifyAppointment)
		r.Post("/password-reset", a.passwordReset)

		r.Route("/payments", func(r chi.Router) {
			r.Get("/apps", a.listApps)
			r.Post("/", a.createPayment)
			r.Get("/{id}", a.getPayment)
			r.Post("/{id}/launch", a.launchPayment)
			r.Post("/{id}/confirm", a.confirmPayment)
			r.Post("/{id}/cancel", a.cancelPayment)
		})

		if deps.Development && deps.Journal != nil {
			r.Get("/debug/messages", a.debugMessages)
		}
	})

	return r, nil
}

// Package notify exposes the notification use-cases: it renders a message,
// hands it to the delivery engine and decides how a failure surfaces.
package notify

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/templates"
	"github.com/example/salon-notify/internal/util"
	"github.com/example/salon-notify/internal/worker"
)

// Deliverer runs messages through the fallback chains.
type Deliverer interface {
	Deliver(ctx context.Context, kind models.MessageKind, msg *models.OutboundMessage) worker.Result
	Submit(ctx context.Context, kind models.MessageKind, msg *models.OutboundMessage) (string, error)
}

// DeliveryError reports a message no channel accepted. Error returns the raw
// reason of the last channel so it can be shown to the submitter as is.
type DeliveryError struct {
	Kind       models.MessageKind
	DispatchID string
	Reason     string
	Err        error
}

func (e *DeliveryError) Error() string { return e.Reason }

func (e *DeliveryError) Unwrap() error { return e.Err }

// Options configures a Service.
type Options struct {
	// Defaults seed the builder; operator contact details stored in settings
	// override them per call.
	Defaults templates.Options
	Settings settings.Reader
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Service implements the notification use-cases.
type Service struct {
	deliverer Deliverer
	defaults  templates.Options
	settings  settings.Reader
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService constructs a notification service.
func NewService(deliverer Deliverer, opts Options) (*Service, error) {
	if deliverer == nil {
		return nil, errors.New("notify: deliverer dependency is required")
	}
	logger := opts.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		deliverer: deliverer,
		defaults:  opts.Defaults,
		settings:  opts.Settings,
		logger:    logger.With().Str("component", "notify").Logger(),
		now:       now,
	}, nil
}

// NotifyAppointment alerts the operator about a new booking in the
// background and returns the dispatch id. Delivery failures are logged and
// published by the engine only; the booking itself already succeeded.
func (s *Service) NotifyAppointment(ctx context.Context, ev models.AppointmentEvent) (string, error) {
	msg, err := s.builder(ctx).Appointment(ev)
	if err != nil {
		return "", err
	}
	id, err := s.deliverer.Submit(ctx, models.KindAppointment, msg)
	if err != nil {
		return "", fmt.Errorf("notify: submit appointment alert: %w", err)
	}
	s.logger.Debug().
		Str("dispatch_id", id).
		Str("booking_id", ev.BookingID).
		Msg("appointment alert submitted")
	return id, nil
}

// SubmitContact delivers a contact inquiry and waits for the outcome. A
// failure is returned as a *DeliveryError carrying the raw reason.
func (s *Service) SubmitContact(ctx context.Context, inq models.ContactInquiry) error {
	msg, err := s.builder(ctx).Contact(inq)
	if err != nil {
		return err
	}
	return s.deliver(ctx, models.KindContact, msg)
}

// SendPasswordReset mails the reset reference to the account holder and
// waits for the outcome.
func (s *Service) SendPasswordReset(ctx context.Context, req models.PasswordReset) error {
	if req.IssuedAt.IsZero() {
		req.IssuedAt = s.now()
	}
	msg, err := s.builder(ctx).PasswordReset(req)
	if err != nil {
		return err
	}
	return s.deliver(ctx, models.KindPasswordReset, msg)
}

// ConfirmPayment notifies the operator about a customer-confirmed payment.
// The caller decides what a failure means.
func (s *Service) ConfirmPayment(ctx context.Context, pc models.PaymentConfirmation) error {
	msg, err := s.builder(ctx).PaymentConfirmation(pc)
	if err != nil {
		return err
	}
	return s.deliver(ctx, models.KindPaymentConfirmation, msg)
}

func (s *Service) deliver(ctx context.Context, kind models.MessageKind, msg *models.OutboundMessage) error {
	res := s.deliverer.Deliver(ctx, kind, msg)
	if res.Success {
		return nil
	}
	return &DeliveryError{
		Kind:       kind,
		DispatchID: res.DispatchID,
		Reason:     res.Error,
		Err:        res.Err,
	}
}

// builder returns a template builder reflecting the current settings
// snapshot. A settings read failure falls back to the configured defaults.
func (s *Service) builder(ctx context.Context) *templates.Builder {
	opts := s.defaults
	if s.settings != nil {
		snap, err := s.settings.Get(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("settings unavailable, using configured operator contact")
		} else {
			opts.OperatorEmail = util.FirstNonEmpty(snap.OperatorEmail, opts.OperatorEmail)
			opts.OperatorPhone = util.FirstNonEmpty(snap.OperatorPhone, opts.OperatorPhone)
		}
	}
	return templates.NewBuilder(opts)
}

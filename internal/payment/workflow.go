// Package payment runs the per-screen UPI payment confirmation workflow.
//
// Confirmation is asserted by the customer. Nothing here talks to a payment
// gateway, so a Confirmed workflow means "the customer said they paid", and
// every Receipt says so with Verified set to false.
package payment

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/upi"
	"github.com/example/salon-notify/internal/util"
)

// State is a workflow state.
type State string

const (
	StateIdle           State = "idle"
	StateIntentLaunched State = "intent_launched"
	StateConfirming     State = "confirming"
	StateConfirmed      State = "confirmed"
	StateCancelled      State = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled
}

// ErrInvalidTransition is returned when an operation is not allowed in the
// current state.
var ErrInvalidTransition = errors.New("payment: invalid state transition")

// Launcher hands a generated intent to whatever opens the wallet app.
type Launcher interface {
	Launch(ctx context.Context, intent upi.Intent) error
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, intent upi.Intent) error

// Launch implements Launcher.
func (f LauncherFunc) Launch(ctx context.Context, intent upi.Intent) error { return f(ctx, intent) }

// Notifier sends the operator notice for a confirmed payment.
type Notifier interface {
	ConfirmPayment(ctx context.Context, pc models.PaymentConfirmation) error
}

// Order is what is being paid for.
type Order struct {
	OrderID      string  `json:"order_id"`
	BookingID    string  `json:"booking_id,omitempty"`
	CustomerName string  `json:"customer_name,omitempty"`
	Amount       float64 `json:"amount"`
	Note         string  `json:"note,omitempty"`
}

// Receipt is produced when the workflow reaches Confirmed.
type Receipt struct {
	OrderID           string    `json:"order_id"`
	BookingID         string    `json:"booking_id,omitempty"`
	Amount            float64   `json:"amount"`
	Method            string    `json:"method"`
	Reference         string    `json:"reference"`
	ConfirmedAt       time.Time `json:"confirmed_at"`
	Verified          bool      `json:"verified"`
	NotificationSent  bool      `json:"notification_sent"`
	NotificationError string    `json:"notification_error,omitempty"`
}

// Snapshot is a point-in-time copy of a workflow.
type Snapshot struct {
	State     State       `json:"state"`
	Order     Order       `json:"order"`
	Intent    *upi.Intent `json:"intent,omitempty"`
	Receipt   *Receipt    `json:"receipt,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Dependencies collects the collaborators of a workflow. Settings and
// Notifier may be nil.
type Dependencies struct {
	Settings          settings.Reader
	Launcher          Launcher
	Notifier          Notifier
	FallbackPayeeID   string
	FallbackPayeeName string
	Logger            zerolog.Logger
	Now               func() time.Time
	NewReference      func() string
}

// NewReference generates a payment reference.
func NewReference() string {
	return "PAY-" + ulid.Make().String()
}

// Workflow is the state machine behind one payment screen. It is safe for
// concurrent use.
type Workflow struct {
	deps   Dependencies
	logger zerolog.Logger

	mu        sync.Mutex
	state     State
	order     Order
	intent    *upi.Intent
	receipt   *Receipt
	updatedAt time.Time
}

// NewWorkflow starts a workflow in Idle for order. A missing order id is
// generated.
func NewWorkflow(order Order, deps Dependencies) (*Workflow, error) {
	if deps.Launcher == nil {
		return nil, errors.New("payment: launcher dependency is required")
	}
	if order.Amount <= 0 {
		return nil, fmt.Errorf("%w: got %v", upi.ErrInvalidAmount, order.Amount)
	}
	order.OrderID = strings.TrimSpace(order.OrderID)
	if order.OrderID == "" {
		order.OrderID = "ORD-" + ulid.Make().String()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewReference == nil {
		deps.NewReference = NewReference
	}
	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	return &Workflow{
		deps:      deps,
		logger:    logger.With().Str("component", "payment").Str("order_id", order.OrderID).Logger(),
		state:     StateIdle,
		order:     order,
		updatedAt: deps.Now(),
	}, nil
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns a copy of the workflow.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{State: w.state, Order: w.order, UpdatedAt: w.updatedAt}
	if w.intent != nil {
		intent := *w.intent
		snap.Intent = &intent
	}
	if w.receipt != nil {
		receipt := *w.receipt
		snap.Receipt = &receipt
	}
	return snap
}

// Launch builds the intent for app and hands it to the launcher, moving the
// workflow to IntentLaunched. Launching again from IntentLaunched lets the
// customer pick another app. When no payee is configured the state is left
// unchanged and upi.ErrConfiguration is returned. A launcher error is logged;
// the attempt still counts, since the customer may have reached the app.
func (w *Workflow) Launch(ctx context.Context, app upi.App) (upi.Intent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle && w.state != StateIntentLaunched {
		return upi.Intent{}, fmt.Errorf("%w: cannot launch from %s", ErrInvalidTransition, w.state)
	}

	payeeID, payeeName := w.payee(ctx)
	intent, err := upi.BuildAll(app, upi.Params{
		PayeeID:   payeeID,
		PayeeName: payeeName,
		Amount:    w.order.Amount,
		OrderID:   w.order.OrderID,
		Note:      w.note(),
	})
	if err != nil {
		w.logger.Warn().Err(err).Str("app", string(app)).Msg("payment intent could not be built")
		return upi.Intent{}, err
	}

	if err := w.deps.Launcher.Launch(ctx, intent); err != nil {
		w.logger.Warn().Err(err).Str("app", string(app)).Msg("payment intent launch reported an error")
	}

	w.intent = &intent
	w.transition(StateIntentLaunched)
	return intent, nil
}

// Confirm records the customer's claim that the payment went through. It is
// only allowed after an intent was launched. The confirmation notice is
// best-effort: a delivery failure is logged and recorded on the receipt but
// the workflow still ends in Confirmed.
func (w *Workflow) Confirm(ctx context.Context) (Receipt, error) {
	w.mu.Lock()
	if w.state != StateIntentLaunched {
		state := w.state
		w.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: cannot confirm from %s", ErrInvalidTransition, state)
	}
	w.transition(StateConfirming)
	receipt := Receipt{
		OrderID:     w.order.OrderID,
		BookingID:   w.order.BookingID,
		Amount:      w.order.Amount,
		Method:      methodLabel(w.intent),
		Reference:   w.deps.NewReference(),
		ConfirmedAt: w.deps.Now(),
	}
	customer := w.order.CustomerName
	w.mu.Unlock()

	if w.deps.Notifier != nil {
		err := w.deps.Notifier.ConfirmPayment(context.WithoutCancel(ctx), models.PaymentConfirmation{
			OrderID:      receipt.OrderID,
			BookingID:    receipt.BookingID,
			CustomerName: customer,
			Amount:       receipt.Amount,
			Method:       receipt.Method,
			Reference:    receipt.Reference,
			ConfirmedAt:  receipt.ConfirmedAt,
		})
		if err != nil {
			receipt.NotificationError = err.Error()
			w.logger.Error().
				Err(err).
				Str("reference", receipt.Reference).
				Msg("payment confirmation notice was not delivered")
		} else {
			receipt.NotificationSent = true
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.receipt = &receipt
	w.transition(StateConfirmed)
	w.logger.Info().
		Str("reference", receipt.Reference).
		Str("method", receipt.Method).
		Bool("notification_sent", receipt.NotificationSent).
		Msg("payment confirmed by customer")
	return receipt, nil
}

// Cancel ends the workflow without a notification. It is rejected once the
// workflow is terminal or while a confirmation is being recorded.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Terminal() || w.state == StateConfirming {
		return fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, w.state)
	}
	w.transition(StateCancelled)
	return nil
}

func (w *Workflow) transition(to State) {
	w.logger.Debug().Str("from", string(w.state)).Str("to", string(to)).Msg("payment state changed")
	w.state = to
	w.updatedAt = w.deps.Now()
}

func (w *Workflow) payee(ctx context.Context) (string, string) {
	var snap settings.Settings
	if w.deps.Settings != nil {
		s, err := w.deps.Settings.Get(ctx)
		if err != nil {
			w.logger.Warn().Err(err).Msg("settings unavailable, using configured payee")
		} else {
			snap = s
		}
	}
	return util.FirstNonEmpty(snap.PayeeID, w.deps.FallbackPayeeID),
		util.FirstNonEmpty(snap.PayeeName, w.deps.FallbackPayeeName)
}

func (w *Workflow) note() string {
	if note := strings.TrimSpace(w.order.Note); note != "" {
		return note
	}
	if w.order.BookingID != "" {
		return "Booking " + w.order.BookingID
	}
	return "Order " + w.order.OrderID
}

func methodLabel(intent *upi.Intent) string {
	if intent == nil {
		return "UPI"
	}
	for _, app := range upi.Apps() {
		if app.ID == intent.App && app.ID != upi.AppGeneric {
			return "UPI (" + app.Label + ")"
		}
	}
	return "UPI"
}

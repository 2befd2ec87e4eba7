package http

import (
	"context"
	"errors"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/payment"
	"github.com/example/salon-notify/internal/upi"
)

// HandoffLauncher is the payment.Launcher used behind the API. The browser
// performs the navigation and the installed-app check, so launching only
// records that the intent was handed over; the URLs travel back in the
// launch response.
type HandoffLauncher struct {
	logger zerolog.Logger
}

// NewHandoffLauncher returns a launcher logging through logger.
func NewHandoffLauncher(logger zerolog.Logger) *HandoffLauncher {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &HandoffLauncher{logger: logger.With().Str("component", "payment_launcher").Logger()}
}

// Launch implements payment.Launcher.
func (l *HandoffLauncher) Launch(_ context.Context, intent upi.Intent) error {
	paymentLaunches.WithLabelValues(string(intent.App)).Inc()
	l.logger.Debug().
		Str("app", string(intent.App)).
		Msg("payment intent handed to browser")
	return nil
}

type createPaymentRequest struct {
	OrderID      string  `json:"order_id" validate:"max=64"`
	BookingID    string  `json:"booking_id" validate:"max=64"`
	CustomerName string  `json:"customer_name" validate:"max=120"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	Note         string  `json:"note" validate:"max=80"`
}

// launchRequest selects the wallet app. An empty body launches the generic
// intent.
type launchRequest struct {
	App string `json:"app"`
}

type sessionResponse struct {
	ID string `json:"id"`
	payment.Snapshot
}

type launchResponse struct {
	State  payment.State `json:"state"`
	Intent upi.Intent    `json:"intent"`
}

type confirmResponse struct {
	State   payment.State   `json:"state"`
	Receipt payment.Receipt `json:"receipt"`
}

func (a *api) listApps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"apps": upi.Apps()})
}

func (a *api) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalid(w, err)
		return
	}
	if err := a.validator.Struct(req); err != nil {
		writeInvalid(w, err)
		return
	}
	id, wf, err := a.payments.Create(payment.Order{
		OrderID:      req.OrderID,
		BookingID:    req.BookingID,
		CustomerName: req.CustomerName,
		Amount:       req.Amount,
		Note:         req.Note,
	})
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Snapshot: wf.Snapshot()})
}

func (a *api) getPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wf, err := a.payments.Get(id)
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: wf.Snapshot()})
}

func (a *api) launchPayment(w http.ResponseWriter, r *http.Request) {
	wf, err := a.payments.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	var req launchRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeInvalid(w, err)
			return
		}
	}
	app, err := upi.ParseApp(req.App)
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	intent, err := wf.Launch(r.Context(), app)
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, launchResponse{State: wf.State(), Intent: intent})
}

func (a *api) confirmPayment(w http.ResponseWriter, r *http.Request) {
	wf, err := a.payments.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	receipt, err := wf.Confirm(r.Context())
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResponse{State: wf.State(), Receipt: receipt})
}

func (a *api) cancelPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wf, err := a.payments.Get(id)
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	if err := wf.Cancel(); err != nil {
		a.writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: wf.Snapshot()})
}

func (a *api) writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, upi.ErrConfiguration), errors.Is(err, upi.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, upi.ErrUnknownApp):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error().Err(err).Msg("payment request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

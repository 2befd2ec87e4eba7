package http

import (
	"errors"
	"net/http"

	"github.com/example/salon-notify/internal/adapters/common"
	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/notify"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/util"
	"github.com/example/salon-notify/internal/worker"
)

// settingsView is the settings payload with the relay credential masked.
type settingsView struct {
	PayeeID             string `json:"payee_id"`
	PayeeName           string `json:"payee_name"`
	OperatorPhone       string `json:"operator_phone"`
	OperatorEmail       string `json:"operator_email"`
	FormsRelayAccessKey string `json:"forms_relay_access_key"`
}

func maskSettings(s settings.Settings) settingsView {
	return settingsView{
		PayeeID:             s.PayeeID,
		PayeeName:           s.PayeeName,
		OperatorPhone:       s.OperatorPhone,
		OperatorEmail:       s.OperatorEmail,
		FormsRelayAccessKey: util.MaskSecret(s.FormsRelayAccessKey),
	}
}

func (a *api) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := a.settings.Get(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("settings read failed")
		writeError(w, http.StatusInternalServerError, "settings are unavailable")
		return
	}
	writeJSON(w, http.StatusOK, maskSettings(s))
}

func (a *api) patchSettings(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeInvalid(w, err)
		return
	}
	patch, err := a.validator.SettingsPatch(patch)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	s, err := a.settings.Update(r.Context(), patch)
	if err != nil {
		a.logger.Error().Err(err).Msg("settings update failed")
		writeError(w, http.StatusInternalServerError, "settings could not be saved")
		return
	}
	writeJSON(w, http.StatusOK, maskSettings(s))
}

// submitContact waits for delivery so the visitor learns whether the message
// went out. The raw channel reason is returned on failure.
func (a *api) submitContact(w http.ResponseWriter, r *http.Request) {
	var inq models.ContactInquiry
	if err := decodeJSON(w, r, &inq); err != nil {
		writeInvalid(w, err)
		return
	}
	inq, err := a.validator.Contact(inq)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	if err := a.notifier.SubmitContact(r.Context(), inq); err != nil {
		a.writeDeliveryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (a *api) notifyAppointment(w http.ResponseWriter, r *http.Request) {
	var ev models.AppointmentEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeInvalid(w, err)
		return
	}
	ev, err := a.validator.Appointment(ev)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	id, err := a.notifier.NotifyAppointment(r.Context(), ev)
	if err != nil {
		if errors.Is(err, worker.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "service is shutting down")
			return
		}
		a.logger.Error().Err(err).Str("booking_id", ev.BookingID).Msg("appointment alert not submitted")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"dispatch_id": id})
}

func (a *api) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordReset
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalid(w, err)
		return
	}
	req, err := a.validator.PasswordReset(req)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	if err := a.notifier.SendPasswordReset(r.Context(), req); err != nil {
		a.writeDeliveryError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (a *api) debugMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"messages": a.journal.Entries()})
}

// writeDeliveryError maps a failed synchronous delivery: a missing credential
// is 503, any other channel failure is 502 with the channel's reason.
func (a *api) writeDeliveryError(w http.ResponseWriter, err error) {
	var derr *notify.DeliveryError
	switch {
	case errors.Is(err, common.ErrConfiguration):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &derr):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":       derr.Reason,
			"dispatch_id": derr.DispatchID,
		})
	default:
		a.logger.Error().Err(err).Msg("delivery request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

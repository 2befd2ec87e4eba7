package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/salon-notify/internal/adapters/common"
	"github.com/example/salon-notify/internal/dispatcher"
	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/templates"
	"github.com/example/salon-notify/internal/worker"
)

type sent struct {
	kind models.MessageKind
	msg  *models.OutboundMessage
	sync bool
}

type fakeDeliverer struct {
	mu      sync.Mutex
	sent    []sent
	outcome dispatcher.Outcome
	subErr  error
}

func (f *fakeDeliverer) Deliver(_ context.Context, kind models.MessageKind, msg *models.OutboundMessage) worker.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{kind: kind, msg: msg, sync: true})
	return worker.Result{DispatchID: "d-sync", Outcome: f.outcome}
}

func (f *fakeDeliverer) Submit(_ context.Context, kind models.MessageKind, msg *models.OutboundMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return "", f.subErr
	}
	f.sent = append(f.sent, sent{kind: kind, msg: msg})
	return "d-async", nil
}

func newService(t *testing.T, d Deliverer, reader settings.Reader) *Service {
	t.Helper()
	svc, err := NewService(d, Options{
		Defaults: templates.Options{
			OperatorEmail: "owner@example.com",
			OperatorPhone: "+919800000000",
			BusinessName:  "Glow Beauty Studio",
		},
		Settings: reader,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2025, 3, 3, 4, 30, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func TestNotifyAppointmentSubmitsInBackground(t *testing.T) {
	d := &fakeDeliverer{}
	svc := newService(t, d, settings.Static{})

	id, err := svc.NotifyAppointment(context.Background(), models.AppointmentEvent{
		CustomerName:    "Priya",
		CustomerEmail:   "priya@example.com",
		ServiceNames:    []string{"Facial"},
		Date:            time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Time:            "10:30 AM",
		TotalAmount:     1500,
		BookingID:       "BK-1",
		ServiceLocation: models.LocationAtPremises,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "d-async" {
		t.Fatalf("unexpected dispatch id %s", id)
	}
	if len(d.sent) != 1 || d.sent[0].sync || d.sent[0].kind != models.KindAppointment {
		t.Fatalf("expected one background appointment dispatch, got %+v", d.sent)
	}
	if d.sent[0].msg.To != "owner@example.com" {
		t.Fatalf("unexpected recipient %s", d.sent[0].msg.To)
	}
}

func TestNotifyAppointmentSurfacesSubmitError(t *testing.T) {
	d := &fakeDeliverer{subErr: worker.ErrClosed}
	svc := newService(t, d, nil)
	if _, err := svc.NotifyAppointment(context.Background(), models.AppointmentEvent{}); !errors.Is(err, worker.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSubmitContactReturnsRawReason(t *testing.T) {
	reason := "remote rejection: forms relay: submission rejected: Invalid access key"
	d := &fakeDeliverer{outcome: dispatcher.Outcome{
		Error: reason,
		Err:   common.WrapRemoteRejection(errors.New("Invalid access key")),
	}}
	svc := newService(t, d, settings.Static{})

	err := svc.SubmitContact(context.Background(), models.ContactInquiry{
		Name:    "Asha",
		Email:   "asha@example.com",
		Message: "Do you do bridal makeup?",
	})
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if err.Error() != reason || derr.DispatchID != "d-sync" {
		t.Fatalf("unexpected delivery error %+v", derr)
	}
	if !errors.Is(err, common.ErrRemoteRejection) {
		t.Fatalf("delivery error should unwrap to the classification")
	}
	if !d.sent[0].sync || d.sent[0].msg.ReplyTo != "asha@example.com" {
		t.Fatalf("unexpected dispatch %+v", d.sent[0])
	}
}

func TestSubmitContactSuccess(t *testing.T) {
	d := &fakeDeliverer{outcome: dispatcher.Outcome{Success: true, Channel: "forms_relay"}}
	svc := newService(t, d, settings.Static{})
	if err := svc.SubmitContact(context.Background(), models.ContactInquiry{Name: "Asha", Email: "asha@example.com", Message: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSettingsOverrideOperatorInbox(t *testing.T) {
	d := &fakeDeliverer{outcome: dispatcher.Outcome{Success: true}}
	svc := newService(t, d, settings.Static{OperatorEmail: "frontdesk@example.com"})

	if err := svc.ConfirmPayment(context.Background(), models.PaymentConfirmation{OrderID: "ORD-1", Amount: 1500}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.sent[0].msg.To; got != "frontdesk@example.com" {
		t.Fatalf("expected settings inbox, got %s", got)
	}
	if d.sent[0].kind != models.KindPaymentConfirmation {
		t.Fatalf("unexpected kind %s", d.sent[0].kind)
	}
}

func TestSendPasswordResetDefaultsIssuedAt(t *testing.T) {
	d := &fakeDeliverer{outcome: dispatcher.Outcome{Success: true}}
	svc := newService(t, d, nil)

	err := svc.SendPasswordReset(context.Background(), models.PasswordReset{
		Email:      "priya@example.com",
		ResetToken: "RST-123456",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := d.sent[0].msg
	if msg.Recipient != models.RecipientCustomer || msg.To != "priya@example.com" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if strings.Contains(msg.PlainBody, templates.NotProvided) {
		t.Fatalf("issued time should be defaulted, body: %s", msg.PlainBody)
	}
}

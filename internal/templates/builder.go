// Package templates turns booking, contact, password reset and payment data
// into channel agnostic outbound messages. Everything here is pure: no I/O and
// no shared mutable state.
package templates

import (
	"errors"
	"fmt"
	htmltmpl "html/template"
	"strings"
	texttmpl "text/template"
	"time"

	"github.com/example/salon-notify/internal/models"
)

// ResetValidity is how long a password reset reference stays usable.
const ResetValidity = 15 * time.Minute

// ErrUnsupportedData is returned by Build when data does not match kind.
var ErrUnsupportedData = errors.New("templates: unsupported data for message kind")

// Options configures a Builder.
type Options struct {
	OperatorEmail string
	OperatorPhone string
	BusinessName  string
}

// Builder renders outbound messages. The zero value is usable but addresses
// operator messages to an empty inbox.
type Builder struct {
	operatorEmail string
	operatorPhone string
	businessName  string
}

// NewBuilder constructs a Builder from opts.
func NewBuilder(opts Options) *Builder {
	name := strings.TrimSpace(opts.BusinessName)
	if name == "" {
		name = "Beauty Studio"
	}
	return &Builder{
		operatorEmail: strings.TrimSpace(opts.OperatorEmail),
		operatorPhone: strings.TrimSpace(opts.OperatorPhone),
		businessName:  name,
	}
}

// BusinessName returns the display name used as sender in every message.
func (b *Builder) BusinessName() string { return b.businessName }

// Build dispatches to the typed builder matching kind.
func (b *Builder) Build(kind models.MessageKind, data any) (*models.OutboundMessage, error) {
	switch kind {
	case models.KindAppointment:
		if ev, ok := asValue[models.AppointmentEvent](data); ok {
			return b.Appointment(ev)
		}
	case models.KindContact:
		if inq, ok := asValue[models.ContactInquiry](data); ok {
			return b.Contact(inq)
		}
	case models.KindPasswordReset:
		if req, ok := asValue[models.PasswordReset](data); ok {
			return b.PasswordReset(req)
		}
	case models.KindPaymentConfirmation:
		if pc, ok := asValue[models.PaymentConfirmation](data); ok {
			return b.PaymentConfirmation(pc)
		}
	}
	return nil, fmt.Errorf("%w: %s got %T", ErrUnsupportedData, kind, data)
}

func asValue[T any](data any) (T, bool) {
	switch v := data.(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

type appointmentView struct {
	Business      string
	CustomerName  string
	CustomerEmail string
	Phone         string
	Services      string
	Date          string
	Time          string
	Amount        string
	BookingID     string
	Location      string
	WhatsApp      string
}

// Appointment builds the operator alert for a new booking.
func (b *Builder) Appointment(ev models.AppointmentEvent) (*models.OutboundMessage, error) {
	view := appointmentView{
		Business:      b.businessName,
		CustomerName:  OrPlaceholder(ev.CustomerName),
		CustomerEmail: OrPlaceholder(ev.CustomerEmail),
		Phone:         OrPlaceholder(ev.CustomerPhone),
		Services:      JoinServices(ev.ServiceNames),
		Date:          FormatDate(ev.Date),
		Time:          OrPlaceholder(ev.Time),
		Amount:        FormatAmount(ev.TotalAmount),
		BookingID:     OrPlaceholder(ev.BookingID),
		Location:      describeLocation(ev.ServiceLocation, ev.CustomerAddress),
		WhatsApp:      WhatsAppLink(ev.CustomerPhone, "Hi "+strings.TrimSpace(ev.CustomerName)+", about your booking "+ev.BookingID),
	}

	return b.render(renderInput{
		recipient: models.RecipientOperator,
		to:        b.operatorEmail,
		subject:   fmt.Sprintf("New Appointment: %s - %s at %s", view.CustomerName, view.Date, view.Time),
		replyTo:   strings.TrimSpace(ev.CustomerEmail),
		sender:    strings.TrimSpace(ev.CustomerName),
		plain:     appointmentText,
		rich:      appointmentHTML,
		view:      view,
	})
}

func describeLocation(loc models.ServiceLocation, address string) string {
	switch loc {
	case models.LocationAtCustomerAddress:
		return "Home service at " + OrPlaceholder(address)
	case models.LocationAtPremises:
		return "At the studio"
	default:
		return NotProvided
	}
}

type contactView struct {
	Business string
	Name     string
	Email    string
	Phone    string
	Service  string
	Message  string
}

// Contact builds the operator message for a contact form submission. Replies
// go straight to the submitter.
func (b *Builder) Contact(inq models.ContactInquiry) (*models.OutboundMessage, error) {
	view := contactView{
		Business: b.businessName,
		Name:     OrPlaceholder(inq.Name),
		Email:    OrPlaceholder(inq.Email),
		Phone:    OrPlaceholder(inq.Phone),
		Service:  OrPlaceholder(inq.ServiceOfInterest),
		Message:  OrPlaceholder(inq.Message),
	}

	return b.render(renderInput{
		recipient: models.RecipientOperator,
		to:        b.operatorEmail,
		subject:   "New Contact Inquiry from " + view.Name,
		replyTo:   strings.TrimSpace(inq.Email),
		sender:    strings.TrimSpace(inq.Name),
		plain:     contactText,
		rich:      contactHTML,
		view:      view,
	})
}

type resetView struct {
	Business      string
	Name          string
	Token         string
	ValidMinutes  int
	ExpiresAt     string
	OperatorPhone string
}

// PasswordReset builds the reset mail for the account holder.
func (b *Builder) PasswordReset(req models.PasswordReset) (*models.OutboundMessage, error) {
	issued := req.IssuedAt
	expires := NotProvided
	if !issued.IsZero() {
		expires = FormatClock(issued.Add(ResetValidity))
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "there"
	}

	view := resetView{
		Business:      b.businessName,
		Name:          name,
		Token:         strings.TrimSpace(req.ResetToken),
		ValidMinutes:  int(ResetValidity / time.Minute),
		ExpiresAt:     expires,
		OperatorPhone: b.operatorPhone,
	}

	return b.render(renderInput{
		recipient: models.RecipientCustomer,
		to:        strings.TrimSpace(req.Email),
		subject:   b.businessName + " password reset",
		plain:     resetText,
		rich:      resetHTML,
		view:      view,
	})
}

type paymentView struct {
	Business    string
	OrderID     string
	BookingID   string
	Customer    string
	Amount      string
	Method      string
	Reference   string
	ConfirmedAt string
}

// PaymentConfirmation builds the operator notice for a payment the customer
// reported as completed in a UPI app.
func (b *Builder) PaymentConfirmation(pc models.PaymentConfirmation) (*models.OutboundMessage, error) {
	confirmed := NotProvided
	if !pc.ConfirmedAt.IsZero() {
		confirmed = FormatDate(pc.ConfirmedAt) + " " + FormatClock(pc.ConfirmedAt)
	}
	view := paymentView{
		Business:    b.businessName,
		OrderID:     OrPlaceholder(pc.OrderID),
		BookingID:   OrPlaceholder(pc.BookingID),
		Customer:    OrPlaceholder(pc.CustomerName),
		Amount:      FormatAmount(pc.Amount),
		Method:      OrPlaceholder(pc.Method),
		Reference:   OrPlaceholder(pc.Reference),
		ConfirmedAt: confirmed,
	}

	return b.render(renderInput{
		recipient: models.RecipientOperator,
		to:        b.operatorEmail,
		subject:   fmt.Sprintf("Payment Confirmed: %s - %s", view.OrderID, view.Amount),
		sender:    strings.TrimSpace(pc.CustomerName),
		plain:     paymentText,
		rich:      paymentHTML,
		view:      view,
	})
}

type renderInput struct {
	recipient models.Recipient
	to        string
	subject   string
	replyTo   string
	sender    string
	plain     *texttmpl.Template
	rich      *htmltmpl.Template
	view      any
}

func (b *Builder) render(in renderInput) (*models.OutboundMessage, error) {
	var plain strings.Builder
	if err := in.plain.Execute(&plain, in.view); err != nil {
		return nil, fmt.Errorf("templates: render %s plain body: %w", in.plain.Name(), err)
	}
	var rich strings.Builder
	if err := in.rich.Execute(&rich, in.view); err != nil {
		return nil, fmt.Errorf("templates: render %s rich body: %w", in.rich.Name(), err)
	}

	return &models.OutboundMessage{
		Recipient:  in.recipient,
		To:         in.to,
		Subject:    in.subject,
		PlainBody:  strings.TrimSpace(plain.String()) + "\n",
		RichBody:   rich.String(),
		ReplyTo:    in.replyTo,
		SenderName: in.sender,
	}, nil
}

package models

// Recipient is the logical role a message is addressed to.
type Recipient string

const (
	RecipientOperator Recipient = "operator"
	RecipientCustomer Recipient = "customer"
)

// MessageKind selects the fallback chain used to deliver a message.
type MessageKind string

const (
	KindAppointment         MessageKind = "appointment"
	KindContact             MessageKind = "contact"
	KindPasswordReset       MessageKind = "password_reset"
	KindPaymentConfirmation MessageKind = "payment_confirmation"
)

// Valid reports whether k is one of the known message kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindAppointment, KindContact, KindPasswordReset, KindPaymentConfirmation:
		return true
	default:
		return false
	}
}

// OutboundMessage is the channel agnostic representation of a notification.
// It is built once by the template builder and handed unchanged to every
// adapter attempt, so adapters must treat it as read-only.
type OutboundMessage struct {
	Recipient Recipient
	To        string
	Subject   string
	PlainBody string
	RichBody  string
	ReplyTo   string
	// SenderName is the display name of the person the message is about,
	// e.g. the customer who filled in the contact form.
	SenderName string
}

// DeliveryAttemptResult is the outcome of a single adapter invocation.
type DeliveryAttemptResult struct {
	Channel   string
	Succeeded bool
	Reason    string
	Err       error
}

// Success builds a successful attempt result for channel.
func Success(channel string) DeliveryAttemptResult {
	return DeliveryAttemptResult{Channel: channel, Succeeded: true}
}

// Failure builds a failed attempt result carrying err as the reason.
func Failure(channel string, err error) DeliveryAttemptResult {
	res := DeliveryAttemptResult{Channel: channel, Err: err}
	if err != nil {
		res.Reason = err.Error()
	}
	return res
}

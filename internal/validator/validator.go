// Package validator checks and normalises API request payloads.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/util"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid request")

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error collects the field errors of one payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Validator wraps a configured go-playground validator.
type Validator struct {
	v *playground.Validate
}

// New returns a Validator reporting json field names and understanding the
// vpa and phone tags.
func New() *Validator {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("vpa", func(fl playground.FieldLevel) bool {
		_, err := util.ValidateVPA(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("phone", func(fl playground.FieldLevel) bool {
		_, err := util.NormalizePhone(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Struct validates s against its validate tags.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// Appointment normalises and validates a booking notification request.
func (v *Validator) Appointment(ev models.AppointmentEvent) (models.AppointmentEvent, error) {
	ev.CustomerName = strings.TrimSpace(ev.CustomerName)
	ev.CustomerEmail = strings.TrimSpace(ev.CustomerEmail)
	ev.BookingID = strings.TrimSpace(ev.BookingID)
	ev.Time = strings.TrimSpace(ev.Time)
	ev.CustomerAddress = strings.TrimSpace(ev.CustomerAddress)
	for i, name := range ev.ServiceNames {
		ev.ServiceNames[i] = strings.TrimSpace(name)
	}
	if err := v.Struct(ev); err != nil {
		return ev, err
	}
	email, err := util.NormalizeEmail(ev.CustomerEmail)
	if err != nil {
		return ev, single("customer_email", err)
	}
	ev.CustomerEmail = email
	if phone := strings.TrimSpace(ev.CustomerPhone); phone != "" {
		if ev.CustomerPhone, err = util.NormalizePhone(phone); err != nil {
			return ev, single("customer_phone", err)
		}
	}
	return ev, nil
}

// Contact normalises and validates a contact form submission.
func (v *Validator) Contact(inq models.ContactInquiry) (models.ContactInquiry, error) {
	inq.Name = strings.TrimSpace(inq.Name)
	inq.Email = strings.TrimSpace(inq.Email)
	inq.ServiceOfInterest = strings.TrimSpace(inq.ServiceOfInterest)
	inq.Message = strings.TrimSpace(inq.Message)
	if err := v.Struct(inq); err != nil {
		return inq, err
	}
	email, err := util.NormalizeEmail(inq.Email)
	if err != nil {
		return inq, single("email", err)
	}
	inq.Email = email
	if phone := strings.TrimSpace(inq.Phone); phone != "" {
		if inq.Phone, err = util.NormalizePhone(phone); err != nil {
			return inq, single("phone", err)
		}
	}
	return inq, nil
}

// PasswordReset normalises and validates a reset mail request.
func (v *Validator) PasswordReset(req models.PasswordReset) (models.PasswordReset, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.ResetToken = strings.TrimSpace(req.ResetToken)
	if err := v.Struct(req); err != nil {
		return req, err
	}
	email, err := util.NormalizeEmail(req.Email)
	if err != nil {
		return req, single("email", err)
	}
	req.Email = email
	return req, nil
}

// SettingsPatch validates the fields present in p and normalises phone and
// email values. An empty string clears a value and is always accepted.
func (v *Validator) SettingsPatch(p settings.Patch) (settings.Patch, error) {
	if p.Empty() {
		return p, single("settings", errors.New("no fields to update"))
	}
	trim := func(val *string) *string {
		if val == nil {
			return nil
		}
		t := strings.TrimSpace(*val)
		return &t
	}
	p.PayeeID = trim(p.PayeeID)
	p.PayeeName = trim(p.PayeeName)
	p.OperatorPhone = trim(p.OperatorPhone)
	p.OperatorEmail = trim(p.OperatorEmail)
	p.FormsRelayAccessKey = trim(p.FormsRelayAccessKey)

	if err := v.Struct(p); err != nil {
		return p, err
	}
	if p.OperatorPhone != nil && *p.OperatorPhone != "" {
		phone, err := util.NormalizePhone(*p.OperatorPhone)
		if err != nil {
			return p, single("operator_phone", err)
		}
		p.OperatorPhone = &phone
	}
	if p.OperatorEmail != nil && *p.OperatorEmail != "" {
		email, err := util.NormalizeEmail(*p.OperatorEmail)
		if err != nil {
			return p, single("operator_email", err)
		}
		p.OperatorEmail = &email
	}
	return p, nil
}

func single(field string, err error) error {
	return &Error{Fields: []FieldError{{Field: field, Message: err.Error()}}}
}

func fieldPath(fe playground.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "vpa":
		return "must look like name@bank"
	case "phone":
		return "must be a valid phone number"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " long"
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

package models

import "time"

// ServiceLocation describes where an appointment takes place.
type ServiceLocation string

const (
	LocationAtPremises        ServiceLocation = "at_premises"
	LocationAtCustomerAddress ServiceLocation = "at_customer_address"
)

// AppointmentEvent is produced by the booking flow once a slot is booked.
type AppointmentEvent struct {
	CustomerName    string          `json:"customer_name" validate:"required,max=120"`
	CustomerEmail   string          `json:"customer_email" validate:"required,email"`
	CustomerPhone   string          `json:"customer_phone,omitempty" validate:"omitempty,phone"`
	ServiceNames    []string        `json:"service_names" validate:"required,min=1,dive,required"`
	Date            time.Time       `json:"date" validate:"required"`
	Time            string          `json:"time" validate:"required,max=40"`
	TotalAmount     float64         `json:"total_amount" validate:"gte=0"`
	BookingID       string          `json:"booking_id" validate:"required,max=64"`
	ServiceLocation ServiceLocation `json:"service_location" validate:"required,oneof=at_premises at_customer_address"`
	CustomerAddress string          `json:"customer_address,omitempty" validate:"required_if=ServiceLocation at_customer_address,max=500"`
}

// ContactInquiry is a single-use contact form submission.
type ContactInquiry struct {
	Name              string `json:"name" validate:"required,max=120"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone,omitempty" validate:"omitempty,phone"`
	ServiceOfInterest string `json:"service_of_interest,omitempty" validate:"max=120"`
	Message           string `json:"message" validate:"required,max=5000"`
}

// PasswordReset carries the reference a customer needs to reset a password.
type PasswordReset struct {
	Email      string    `json:"email" validate:"required,email"`
	Name       string    `json:"name,omitempty" validate:"max=120"`
	ResetToken string    `json:"reset_token" validate:"required,min=6,max=128"`
	IssuedAt   time.Time `json:"issued_at"`
}

// PaymentConfirmation describes a payment the customer reported as done.
type PaymentConfirmation struct {
	OrderID      string
	BookingID    string
	CustomerName string
	Amount       float64
	Method       string
	Reference    string
	ConfirmedAt  time.Time
}

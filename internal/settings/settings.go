// Package settings holds the user-editable business settings. Notification
// and payment components only ever read them.
package settings

import (
	"context"
	"strings"
)

// Settings is the snapshot of user-editable values.
type Settings struct {
	PayeeID             string `json:"payee_id"`
	PayeeName           string `json:"payee_name"`
	OperatorPhone       string `json:"operator_phone"`
	OperatorEmail       string `json:"operator_email"`
	FormsRelayAccessKey string `json:"forms_relay_access_key"`
}

// Patch is a partial update. Nil fields are left untouched; an empty string
// clears the value.
type Patch struct {
	PayeeID             *string `json:"payee_id,omitempty" validate:"omitempty,vpa"`
	PayeeName           *string `json:"payee_name,omitempty" validate:"omitempty,max=120"`
	OperatorPhone       *string `json:"operator_phone,omitempty" validate:"omitempty,phone"`
	OperatorEmail       *string `json:"operator_email,omitempty" validate:"omitempty,email"`
	FormsRelayAccessKey *string `json:"forms_relay_access_key,omitempty" validate:"omitempty,max=128"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.PayeeID == nil && p.PayeeName == nil && p.OperatorPhone == nil &&
		p.OperatorEmail == nil && p.FormsRelayAccessKey == nil
}

// Apply returns s with the patch applied. Values are trimmed.
func (p Patch) Apply(s Settings) Settings {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&s.PayeeID, p.PayeeID)
	set(&s.PayeeName, p.PayeeName)
	set(&s.OperatorPhone, p.OperatorPhone)
	set(&s.OperatorEmail, p.OperatorEmail)
	set(&s.FormsRelayAccessKey, p.FormsRelayAccessKey)
	return s
}

// Reader is the read-only view handed to delivery and payment components.
type Reader interface {
	Get(ctx context.Context) (Settings, error)
}

// Store is the full settings collaborator.
type Store interface {
	Reader
	Update(ctx context.Context, patch Patch) (Settings, error)
}

// Static is a Reader over a fixed snapshot, handy for tests and tooling.
type Static Settings

// Get implements Reader.
func (s Static) Get(context.Context) (Settings, error) {
	return Settings(s), nil
}

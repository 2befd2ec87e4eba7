// Package upi builds UPI payment deep links for wallet apps.
package upi

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/salon-notify/internal/util"
)

// Currency is the only currency UPI intents are generated for.
const Currency = "INR"

var (
	// ErrConfiguration is returned when no payee id is configured.
	ErrConfiguration = errors.New("upi: payee id is not configured")
	// ErrInvalidAmount is returned for zero, negative or non-finite amounts.
	ErrInvalidAmount = errors.New("upi: amount must be greater than zero")
	// ErrUnknownApp is returned for an app outside Apps().
	ErrUnknownApp = errors.New("upi: unknown payment app")
)

// App selects the deep-link scheme.
type App string

const (
	AppGeneric App = "generic"
	AppGPay    App = "gpay"
	AppPhonePe App = "phonepe"
	AppPaytm   App = "paytm"
)

var prefixes = map[App]string{
	AppGeneric: "upi://pay",
	AppGPay:    "tez://upi/pay",
	AppPhonePe: "phonepe://pay",
	AppPaytm:   "paytmmp://pay",
}

var labels = map[App]string{
	AppGeneric: "Any UPI app",
	AppGPay:    "Google Pay",
	AppPhonePe: "PhonePe",
	AppPaytm:   "Paytm",
}

// AppInfo describes a supported app for selection screens.
type AppInfo struct {
	ID     App    `json:"id"`
	Label  string `json:"label"`
	Scheme string `json:"scheme"`
}

// Apps lists the supported apps, generic first.
func Apps() []AppInfo {
	order := []App{AppGeneric, AppGPay, AppPhonePe, AppPaytm}
	out := make([]AppInfo, 0, len(order))
	for _, app := range order {
		out = append(out, AppInfo{ID: app, Label: labels[app], Scheme: prefixes[app]})
	}
	return out
}

// ParseApp maps a user supplied name to an App. Empty selects generic.
func ParseApp(value string) (App, error) {
	app := App(strings.ToLower(strings.TrimSpace(value)))
	if app == "" {
		return AppGeneric, nil
	}
	if _, ok := prefixes[app]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownApp, value)
	}
	return app, nil
}

// Params carries the values encoded into an intent.
type Params struct {
	PayeeID   string
	PayeeName string
	Amount    float64
	OrderID   string
	Note      string
}

// BuildIntent returns the deep link for app. Every value is percent-encoded
// with spaces as %20, and parameters are always emitted in the order
// pa, pn, am, cu, tn, tr.
func BuildIntent(app App, p Params) (string, error) {
	prefix, ok := prefixes[app]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownApp, app)
	}
	payee := strings.TrimSpace(p.PayeeID)
	if payee == "" {
		return "", ErrConfiguration
	}
	if p.Amount <= 0 || math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) {
		return "", fmt.Errorf("%w: got %v", ErrInvalidAmount, p.Amount)
	}

	pairs := [][2]string{
		{"pa", payee},
		{"pn", strings.TrimSpace(p.PayeeName)},
		{"am", FormatAmount(p.Amount)},
		{"cu", Currency},
		{"tn", strings.TrimSpace(p.Note)},
		{"tr", strings.TrimSpace(p.OrderID)},
	}

	var b strings.Builder
	b.WriteString(prefix)
	for i, kv := range pairs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(escape(kv[1]))
	}
	return b.String(), nil
}

// Intent pairs the chosen app's link with the generic fallback link built
// from the same parameters.
type Intent struct {
	App         App    `json:"app"`
	URL         string `json:"url"`
	FallbackURL string `json:"fallback_url"`
}

// BuildAll builds the link for app together with the generic fallback.
func BuildAll(app App, p Params) (Intent, error) {
	primary, err := BuildIntent(app, p)
	if err != nil {
		return Intent{}, err
	}
	fallback := primary
	if app != AppGeneric {
		if fallback, err = BuildIntent(AppGeneric, p); err != nil {
			return Intent{}, err
		}
	}
	return Intent{App: app, URL: primary, FallbackURL: fallback}, nil
}

// escape percent-encodes a query value. QueryEscape turns spaces into '+',
// which several wallet apps show literally, so they become %20; a literal
// '+' is already %2B at that point.
func escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// FormatAmount renders amount with exactly two decimals.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// ValidatePayeeID checks the handle@provider shape of a UPI id.
func ValidatePayeeID(id string) (string, error) {
	return util.ValidateVPA(id)
}

package upi

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func sampleParams() Params {
	return Params{
		PayeeID:   "glowstudio@okaxis",
		PayeeName: "Glow Beauty Studio",
		Amount:    1500,
		OrderID:   "ORD-42",
		Note:      "Booking BK-7",
	}
}

func TestBuildIntentSchemesAndOrder(t *testing.T) {
	cases := map[App]string{
		AppGeneric: "upi://pay?",
		AppGPay:    "tez://upi/pay?",
		AppPhonePe: "phonepe://pay?",
		AppPaytm:   "paytmmp://pay?",
	}
	for app, prefix := range cases {
		got, err := BuildIntent(app, sampleParams())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", app, err)
		}
		want := prefix + "pa=glowstudio%40okaxis&pn=Glow%20Beauty%20Studio&am=1500.00&cu=INR&tn=Booking%20BK-7&tr=ORD-42"
		if got != want {
			t.Fatalf("%s:\n got %s\nwant %s", app, got, want)
		}
	}
}

func TestBuildIntentEncodesSpecialCharacters(t *testing.T) {
	p := sampleParams()
	p.PayeeName = "Glow & Co"
	p.Note = "Facial #2 + tip=yes?"

	got, err := BuildIntent(AppGeneric, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, " ") || strings.Contains(got, "#") {
		t.Fatalf("intent carries unescaped characters: %s", got)
	}
	if !strings.Contains(got, "pn=Glow%20%26%20Co") {
		t.Fatalf("spaces must be %%20 and & escaped: %s", got)
	}

	query := got[strings.Index(got, "?")+1:]
	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("query does not parse: %v", err)
	}
	if values.Get("pn") != "Glow & Co" || values.Get("tn") != "Facial #2 + tip=yes?" {
		t.Fatalf("values did not round-trip: %v", values)
	}
	if len(values) != 6 {
		t.Fatalf("expected 6 parameters, got %v", values)
	}
}

func TestBuildIntentAmountFormatting(t *testing.T) {
	cases := map[float64]string{
		1:        "am=1.00",
		1234.5:   "am=1234.50",
		99.999:   "am=100.00",
		0.015001: "am=0.02",
	}
	for amount, want := range cases {
		p := sampleParams()
		p.Amount = amount
		got, err := BuildIntent(AppGeneric, p)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", amount, err)
		}
		if !strings.Contains(got, want+"&") {
			t.Fatalf("%v: expected %s in %s", amount, want, got)
		}
	}
}

func TestBuildIntentRejectsBadInput(t *testing.T) {
	p := sampleParams()
	p.PayeeID = "  "
	if _, err := BuildIntent(AppGeneric, p); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	for _, amount := range []float64{0, -10} {
		p = sampleParams()
		p.Amount = amount
		if _, err := BuildIntent(AppGPay, p); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%v: expected invalid amount, got %v", amount, err)
		}
	}

	if _, err := BuildIntent(App("bhim"), sampleParams()); !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("expected unknown app, got %v", err)
	}
}

func TestBuildAllSharesParameters(t *testing.T) {
	intent, err := BuildAll(AppPhonePe, sampleParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(intent.URL, "phonepe://pay?") || !strings.HasPrefix(intent.FallbackURL, "upi://pay?") {
		t.Fatalf("unexpected intent %+v", intent)
	}
	primaryQuery := intent.URL[strings.Index(intent.URL, "?"):]
	fallbackQuery := intent.FallbackURL[strings.Index(intent.FallbackURL, "?"):]
	if primaryQuery != fallbackQuery {
		t.Fatalf("fallback must reuse identical parameters:\n%s\n%s", primaryQuery, fallbackQuery)
	}

	generic, err := BuildAll(AppGeneric, sampleParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if generic.URL != generic.FallbackURL {
		t.Fatalf("generic intent should fall back to itself")
	}

	p := sampleParams()
	p.PayeeID = ""
	if _, err := BuildAll(AppPaytm, p); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAppsAndParseApp(t *testing.T) {
	apps := Apps()
	if len(apps) != 4 || apps[0].ID != AppGeneric {
		t.Fatalf("unexpected apps %+v", apps)
	}
	if app, err := ParseApp(" GPay "); err != nil || app != AppGPay {
		t.Fatalf("unexpected parse %s %v", app, err)
	}
	if app, err := ParseApp(""); err != nil || app != AppGeneric {
		t.Fatalf("empty app should be generic, got %s %v", app, err)
	}
	if _, err := ParseApp("bhim"); !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("expected unknown app error, got %v", err)
	}
}

func TestValidatePayeeID(t *testing.T) {
	if _, err := ValidatePayeeID("glowstudio@okaxis"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ValidatePayeeID("not-a-vpa"); err == nil {
		t.Fatalf("expected error for malformed payee id")
	}
}

package templates

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/example/salon-notify/internal/util"
)

// NotProvided is rendered for optional fields the caller left empty.
const NotProvided = "Not provided"

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "₹"

// DateLayout is the single date format used across all channels.
const DateLayout = "Monday, 2 January 2006"

// BusinessZone is the fixed zone dates are rendered in. A fixed offset keeps
// output identical on hosts without tzdata.
var BusinessZone = time.FixedZone("IST", 5*60*60+30*60)

// maxPaiseAmount is the largest amount rendered through int64 paise. Above
// it a float64 carries no paise precision anyway.
const maxPaiseAmount = 1e15

// FormatAmount renders amount with the currency symbol and thousands
// separators. Whole amounts drop the decimals ("₹1,500"), others keep two
// ("₹1,234.50"). Negative amounts are clamped to zero and amounts beyond
// maxPaiseAmount are rounded to whole rupees.
func FormatAmount(amount float64) string {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	if amount > maxPaiseAmount {
		return CurrencySymbol + humanize.Commaf(math.Round(amount))
	}
	paise := int64(math.Round(amount * 100))
	whole, frac := paise/100, paise%100
	if frac == 0 {
		return CurrencySymbol + humanize.Comma(whole)
	}
	return fmt.Sprintf("%s%s.%02d", CurrencySymbol, humanize.Comma(whole), frac)
}

// FormatDate renders t in the business zone using DateLayout.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return NotProvided
	}
	return t.In(BusinessZone).Format(DateLayout)
}

// FormatClock renders the time of day of t, e.g. "10:45 AM".
func FormatClock(t time.Time) string {
	return t.In(BusinessZone).Format("3:04 PM")
}

// OrPlaceholder returns value, or NotProvided when it is blank.
func OrPlaceholder(value string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return NotProvided
}

// JoinServices renders the ordered service names comma separated.
func JoinServices(names []string) string {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return NotProvided
	}
	return strings.Join(cleaned, ", ")
}

// WhatsAppLink builds a click-to-chat link for phone with a prefilled text.
// It returns an empty string when phone has no digits.
func WhatsAppLink(phone, text string) string {
	digits := util.DigitsOnly(phone)
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		digits = util.DefaultCountryCode + digits
	}
	link := "https://wa.me/" + digits
	if text = strings.TrimSpace(text); text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link
}

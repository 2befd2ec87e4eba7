package widget

import (
	"context"
	"errors"
	"net/http"
)

// ErrRejected marks a send the widget service refused.
var ErrRejected = errors.New("widget: send rejected")

// Template parameter names shared by every widget template.
const (
	ParamToEmail     = "to_email"
	ParamSubject     = "subject"
	ParamMessage     = "message"
	ParamHTMLMessage = "html_message"
	ParamReplyTo     = "reply_to"
	ParamFromName    = "from_name"
)

// Provider sends a templated email through an embedded email widget
// service.
type Provider interface {
	Send(ctx context.Context, templateID string, params map[string]string) error
}

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

package formsrelay

import (
	"context"
	"errors"
	"net/http"
)

// ErrRejected marks a response in which the relay itself reported failure,
// either through a non-2xx status or `success: false`.
var ErrRejected = errors.New("forms relay: submission rejected")

// Submission is the JSON body the relay accepts.
type Submission struct {
	AccessKey string `json:"access_key"`
	Subject   string `json:"subject"`
	FromName  string `json:"from_name"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Message   string `json:"message"`
}

// Response mirrors the relay's JSON response plus transport details.
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"-"`
	Body       string `json:"-"`
}

// Provider submits a form payload to the relay.
type Provider interface {
	Submit(ctx context.Context, sub *Submission) (*Response, error)
}

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

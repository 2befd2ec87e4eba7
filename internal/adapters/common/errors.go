package common

import (
	"errors"
	"fmt"
)

// Sentinel errors adapters use to classify failures. Callers match them with
// errors.Is.
var (
	// ErrConfiguration marks a missing credential or setting the user can fix.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransport marks network failures and timeouts.
	ErrTransport = errors.New("transport error")
	// ErrRemoteRejection marks an explicit failure reported by the remote service.
	ErrRemoteRejection = errors.New("remote rejection")
	// ErrNotConfigured marks an optional channel that is absent in this
	// environment. It is expected and not worth an error log.
	ErrNotConfigured = errors.New("channel not configured")
	// ErrWidget marks any failure raised by the embedded email widget.
	ErrWidget = errors.New("widget error")
)

func wrap(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, TruncateRaw(err.Error(), DefaultRawBodyLimit))
}

// WrapConfiguration annotates err as a configuration error.
func WrapConfiguration(err error) error { return wrap(ErrConfiguration, err) }

// WrapTransport annotates err as a transport error.
func WrapTransport(err error) error { return wrap(ErrTransport, err) }

// WrapRemoteRejection annotates err as a remote rejection.
func WrapRemoteRejection(err error) error { return wrap(ErrRemoteRejection, err) }

// WrapNotConfigured annotates err as an absent optional channel.
func WrapNotConfigured(err error) error { return wrap(ErrNotConfigured, err) }

// WrapWidget annotates err as a widget failure.
func WrapWidget(err error) error { return wrap(ErrWidget, err) }

// Silent reports whether a failure is expected and should only be logged at
// debug level.
func Silent(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// Class names the taxonomy bucket of err for logs and metrics.
func Class(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrRemoteRejection):
		return "remote_rejection"
	case errors.Is(err, ErrWidget):
		return "widget"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

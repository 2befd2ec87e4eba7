// Package dispatcher delivers a message through an ordered chain of channel
// adapters, stopping at the first one that succeeds.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	common "github.com/example/salon-notify/internal/adapters/common"
	"github.com/example/salon-notify/internal/models"
)

// ErrNoChannel is returned when a kind has no adapters at all.
var ErrNoChannel = errors.New("no delivery channel configured")

// Routes maps each message kind to its ordered adapter chain.
type Routes map[models.MessageKind][]common.Adapter

// DefaultRoutes builds the standard chains. devlog may be nil, in which case
// it is left out of every chain.
func DefaultRoutes(widget, relay, devlog common.Adapter) Routes {
	chain := func(adapters ...common.Adapter) []common.Adapter {
		out := make([]common.Adapter, 0, len(adapters))
		for _, a := range adapters {
			if !isNil(a) {
				out = append(out, a)
			}
		}
		return out
	}
	return Routes{
		models.KindAppointment:         chain(widget, relay, devlog),
		models.KindPaymentConfirmation: chain(widget, relay, devlog),
		// A contact message nobody received must surface to the submitter,
		// so it never falls through to the development log.
		models.KindContact:       chain(relay),
		models.KindPasswordReset: chain(widget, devlog),
	}
}

// Outcome is the result of one Dispatch call. Channel names the adapter that
// delivered the message. On failure Error and Err carry the last attempt's
// reason.
type Outcome struct {
	Success  bool
	Channel  string
	Error    string
	Err      error
	Attempts []models.DeliveryAttemptResult
}

// Dispatcher walks adapter chains. It holds no mutable state and is safe for
// concurrent use.
type Dispatcher struct {
	logger zerolog.Logger
	routes Routes
}

// New constructs a dispatcher over a copy of routes.
func New(routes Routes, logger zerolog.Logger) *Dispatcher {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	cp := make(Routes, len(routes))
	for kind, chain := range routes {
		cp[kind] = append([]common.Adapter(nil), chain...)
	}
	return &Dispatcher{logger: logger, routes: cp}
}

// Chain returns the adapter names configured for kind, in order.
func (d *Dispatcher) Chain(kind models.MessageKind) []string {
	chain := d.routes[kind]
	names := make([]string, 0, len(chain))
	for _, a := range chain {
		names = append(names, a.Name())
	}
	return names
}

// Dispatch tries each adapter for kind strictly in order and returns on the
// first success. Every adapter gets exactly one attempt. Calling Dispatch
// twice sends the message twice.
func (d *Dispatcher) Dispatch(ctx context.Context, kind models.MessageKind, msg *models.OutboundMessage) Outcome {
	chain := d.routes[kind]
	if len(chain) == 0 {
		err := fmt.Errorf("%w for %s", ErrNoChannel, kind)
		d.logger.Warn().Str("kind", string(kind)).Msg(err.Error())
		dispatchesTotal.WithLabelValues(string(kind), resultLabel(false)).Inc()
		return Outcome{Error: err.Error(), Err: err}
	}

	out := Outcome{Attempts: make([]models.DeliveryAttemptResult, 0, len(chain))}
	for _, adapter := range chain {
		res := common.SafeSend(ctx, adapter, msg)
		out.Attempts = append(out.Attempts, res)
		attemptsTotal.WithLabelValues(string(kind), res.Channel, resultLabel(res.Succeeded)).Inc()

		if res.Succeeded {
			out.Success = true
			out.Channel = res.Channel
			out.Error = ""
			out.Err = nil
			d.logger.Debug().
				Str("kind", string(kind)).
				Str("channel", res.Channel).
				Int("attempts", len(out.Attempts)).
				Msg("message delivered")
			break
		}

		out.Error = res.Reason
		out.Err = res.Err
		evt := d.logger.Warn()
		if common.Silent(res.Err) {
			evt = d.logger.Debug()
		}
		evt.Str("kind", string(kind)).
			Str("channel", res.Channel).
			Str("error_class", common.Class(res.Err)).
			Str("reason", res.Reason).
			Msg("delivery channel failed, trying next")
	}

	if !out.Success {
		d.logger.Error().
			Str("kind", string(kind)).
			Str("reason", out.Error).
			Int("attempts", len(out.Attempts)).
			Msg("all delivery channels failed")
	}
	dispatchesTotal.WithLabelValues(string(kind), resultLabel(out.Success)).Inc()
	return out
}

func isNil(a common.Adapter) bool {
	if a == nil {
		return true
	}
	v := reflect.ValueOf(a)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

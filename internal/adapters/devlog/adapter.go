package devlog

import (
	"context"
	"reflect"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/models"
)

// ChannelName identifies the development log in results, logs and metrics.
const ChannelName = "dev_log"

// Adapter writes messages to the log and the in-memory journal. It always
// succeeds, so it is placed last in a chain.
type Adapter struct {
	logger  zerolog.Logger
	journal *Journal
	now     func() time.Time
}

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithClock overrides the clock used for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAdapter constructs a development log adapter. A nil journal gets a
// default-sized one.
func NewAdapter(journal *Journal, logger zerolog.Logger, opts ...Option) *Adapter {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	if journal == nil {
		journal = NewJournal(defaultCapacity)
	}
	a := &Adapter{logger: logger, journal: journal, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Name implements common.Adapter.
func (a *Adapter) Name() string { return ChannelName }

// Journal exposes the captured messages.
func (a *Adapter) Journal() *Journal { return a.journal }

// Send implements common.Adapter.
func (a *Adapter) Send(_ context.Context, msg *models.OutboundMessage) models.DeliveryAttemptResult {
	if msg == nil {
		a.logger.Warn().Msg("dev log: nil message")
		return models.Success(ChannelName)
	}
	a.journal.Append(msg, a.now())
	a.logger.Info().
		Str("channel", ChannelName).
		Str("recipient", string(msg.Recipient)).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("reply_to", msg.ReplyTo).
		Str("body", msg.PlainBody).
		Msg("message captured by development log")
	return models.Success(ChannelName)
}

package formsrelay

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	common "github.com/example/salon-notify/internal/adapters/common"
	"github.com/example/salon-notify/internal/models"
	relayprovider "github.com/example/salon-notify/internal/providers/formsrelay"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/util"
)

// ChannelName identifies the forms relay in results, logs and metrics.
const ChannelName = "forms_relay"

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithEnvAccessKey sets the build-time credential used when settings carry
// none.
func WithEnvAccessKey(key string) Option {
	return func(a *Adapter) {
		a.envKey = strings.TrimSpace(key)
	}
}

// WithFromName sets the sender display name reported to the relay.
func WithFromName(name string) Option {
	return func(a *Adapter) {
		if name = strings.TrimSpace(name); name != "" {
			a.fromName = name
		}
	}
}

// Adapter delivers operator messages through the hosted forms relay.
type Adapter struct {
	logger   zerolog.Logger
	provider relayprovider.Provider
	settings settings.Reader
	envKey   string
	fromName string
}

// NewAdapter constructs a forms relay adapter.
func NewAdapter(provider relayprovider.Provider, reader settings.Reader, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if provider == nil {
		return nil, errors.New("forms relay adapter: provider dependency is required")
	}
	if reader == nil {
		return nil, errors.New("forms relay adapter: settings reader is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	a := &Adapter{
		logger:   logger,
		provider: provider,
		settings: reader,
		fromName: "Website",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Name implements common.Adapter.
func (a *Adapter) Name() string { return ChannelName }

// Send implements common.Adapter.
func (a *Adapter) Send(ctx context.Context, msg *models.OutboundMessage) models.DeliveryAttemptResult {
	if msg == nil {
		return models.Failure(ChannelName, common.WrapConfiguration(errors.New("message is nil")))
	}
	// The relay forwards to the inbox registered with the access key, which
	// is always the operator's.
	if msg.Recipient != models.RecipientOperator {
		return models.Failure(ChannelName, common.WrapNotConfigured(errors.New("forms relay only reaches the operator inbox")))
	}

	key := a.resolveAccessKey(ctx)
	if key == "" {
		return models.Failure(ChannelName, common.WrapConfiguration(errors.New("forms relay access key is not configured")))
	}

	sub := &relayprovider.Submission{
		AccessKey: key,
		Subject:   msg.Subject,
		FromName:  a.fromName,
		Email:     util.FirstNonEmpty(msg.ReplyTo, msg.To),
		Name:      util.FirstNonEmpty(msg.SenderName, a.fromName),
		Message:   msg.PlainBody,
	}

	resp, err := a.provider.Submit(ctx, sub)
	if err != nil {
		wrapped := a.classify(err)
		evt := a.logger.Info().
			Str("channel", ChannelName).
			Str("error_class", common.Class(wrapped)).
			Err(err)
		if resp != nil {
			evt = evt.Int("http_status", resp.StatusCode).
				Str("raw", common.TruncateRaw(resp.Body, common.DefaultRawBodyLimit))
		}
		evt.Msg("forms relay send failed")
		return models.Failure(ChannelName, wrapped)
	}

	a.logger.Debug().
		Str("channel", ChannelName).
		Str("relay_message", resp.Message).
		Msg("forms relay send succeeded")
	return models.Success(ChannelName)
}

// resolveAccessKey applies the precedence settings, then environment. A
// settings read failure is logged and treated as an empty value.
func (a *Adapter) resolveAccessKey(ctx context.Context) string {
	var fromSettings string
	if s, err := a.settings.Get(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("forms relay: settings unavailable, using environment credential")
	} else {
		fromSettings = s.FormsRelayAccessKey
	}
	return util.FirstNonEmpty(fromSettings, a.envKey)
}

func (a *Adapter) classify(err error) error {
	if errors.Is(err, relayprovider.ErrRejected) {
		return common.WrapRemoteRejection(err)
	}
	return common.WrapTransport(err)
}

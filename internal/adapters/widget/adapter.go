package widget

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	common "github.com/example/salon-notify/internal/adapters/common"
	"github.com/example/salon-notify/internal/models"
	widgetprovider "github.com/example/salon-notify/internal/providers/widget"
	"github.com/example/salon-notify/internal/util"
)

// ChannelName identifies the embedded widget in results, logs and metrics.
const ChannelName = "email_widget"

// DefaultTemplateID is the widget template every notification is rendered
// with.
const DefaultTemplateID = "template_notification"

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithTemplateID overrides the widget template identifier.
func WithTemplateID(id string) Option {
	return func(a *Adapter) {
		if id = strings.TrimSpace(id); id != "" {
			a.templateID = id
		}
	}
}

// WithFromName sets the from_name template parameter.
func WithFromName(name string) Option {
	return func(a *Adapter) {
		a.fromName = strings.TrimSpace(name)
	}
}

// Adapter delivers messages through the embedded email widget. The widget
// is optional: without a provider every send fails as not configured.
type Adapter struct {
	logger     zerolog.Logger
	provider   widgetprovider.Provider
	templateID string
	fromName   string
}

// NewAdapter constructs a widget adapter. provider may be nil.
func NewAdapter(provider widgetprovider.Provider, logger zerolog.Logger, opts ...Option) *Adapter {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	a := &Adapter{
		logger:     logger,
		provider:   provider,
		templateID: DefaultTemplateID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Name implements common.Adapter.
func (a *Adapter) Name() string { return ChannelName }

// Send implements common.Adapter.
func (a *Adapter) Send(ctx context.Context, msg *models.OutboundMessage) models.DeliveryAttemptResult {
	if a.provider == nil {
		return models.Failure(ChannelName, common.WrapNotConfigured(errors.New("email widget is not loaded")))
	}
	if msg == nil {
		return models.Failure(ChannelName, common.WrapWidget(errors.New("message is nil")))
	}

	if err := a.provider.Send(ctx, a.templateID, a.params(msg)); err != nil {
		a.logger.Info().
			Str("channel", ChannelName).
			Str("template_id", a.templateID).
			Err(err).
			Msg("email widget send failed")
		return models.Failure(ChannelName, common.WrapWidget(err))
	}

	a.logger.Debug().
		Str("channel", ChannelName).
		Str("template_id", a.templateID).
		Msg("email widget send succeeded")
	return models.Success(ChannelName)
}

func (a *Adapter) params(msg *models.OutboundMessage) map[string]string {
	return map[string]string{
		widgetprovider.ParamToEmail:     msg.To,
		widgetprovider.ParamSubject:     msg.Subject,
		widgetprovider.ParamMessage:     msg.PlainBody,
		widgetprovider.ParamHTMLMessage: util.FirstNonEmpty(msg.RichBody, msg.PlainBody),
		widgetprovider.ParamReplyTo:     util.FirstNonEmpty(msg.ReplyTo, msg.To),
		widgetprovider.ParamFromName:    util.FirstNonEmpty(msg.SenderName, a.fromName),
	}
}

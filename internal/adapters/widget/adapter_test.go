package widget_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	common "github.com/example/salon-notify/internal/adapters/common"
	widgetadapter "github.com/example/salon-notify/internal/adapters/widget"
	"github.com/example/salon-notify/internal/models"
	widgetprovider "github.com/example/salon-notify/internal/providers/widget"
)

func sampleMessage() *models.OutboundMessage {
	return &models.OutboundMessage{
		Recipient: models.RecipientOperator,
		To:        "owner@example.com",
		Subject:   "New Appointment: Priya - Monday, 3 March 2025 at 10:30 AM",
		PlainBody: "plain",
		RichBody:  "<p>rich</p>",
		ReplyTo:   "priya@example.com",
	}
}

func TestAdapterWithoutProviderIsNotConfigured(t *testing.T) {
	adapter := widgetadapter.NewAdapter(nil, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleMessage())
	if res.Succeeded || !errors.Is(res.Err, common.ErrNotConfigured) {
		t.Fatalf("expected not configured failure, got %+v", res)
	}
	if !common.Silent(res.Err) {
		t.Fatalf("absent widget should be a silent failure")
	}
}

func TestAdapterMapsTemplateParams(t *testing.T) {
	provider := widgetprovider.NewMockProvider(zerolog.Nop())
	adapter := widgetadapter.NewAdapter(provider, zerolog.Nop(),
		widgetadapter.WithTemplateID("template_custom"),
		widgetadapter.WithFromName("Glow Beauty Studio"),
	)

	res := adapter.Send(context.Background(), sampleMessage())
	if !res.Succeeded || res.Channel != widgetadapter.ChannelName {
		t.Fatalf("unexpected result %+v", res)
	}

	sent := provider.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(sent))
	}
	if sent[0].TemplateID != "template_custom" {
		t.Fatalf("unexpected template id %s", sent[0].TemplateID)
	}
	p := sent[0].Params
	want := map[string]string{
		widgetprovider.ParamToEmail:     "owner@example.com",
		widgetprovider.ParamSubject:     "New Appointment: Priya - Monday, 3 March 2025 at 10:30 AM",
		widgetprovider.ParamMessage:     "plain",
		widgetprovider.ParamHTMLMessage: "<p>rich</p>",
		widgetprovider.ParamReplyTo:     "priya@example.com",
		widgetprovider.ParamFromName:    "Glow Beauty Studio",
	}
	for k, v := range want {
		if p[k] != v {
			t.Fatalf("param %s = %q, want %q", k, p[k], v)
		}
	}
}

func TestAdapterDefaultTemplate(t *testing.T) {
	provider := widgetprovider.NewMockProvider(zerolog.Nop())
	adapter := widgetadapter.NewAdapter(provider, zerolog.Nop())

	if res := adapter.Send(context.Background(), sampleMessage()); !res.Succeeded {
		t.Fatalf("unexpected failure %+v", res)
	}
	if got := provider.Sent()[0].TemplateID; got != widgetadapter.DefaultTemplateID {
		t.Fatalf("unexpected template id %s", got)
	}
}

func TestAdapterProviderErrorIsWidgetError(t *testing.T) {
	provider := widgetprovider.NewMockProvider(zerolog.Nop(), widgetprovider.WithScenario(widgetprovider.ScenarioReject))
	adapter := widgetadapter.NewAdapter(provider, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleMessage())
	if res.Succeeded || !errors.Is(res.Err, common.ErrWidget) {
		t.Fatalf("expected widget failure, got %+v", res)
	}
	if res.Reason == "" {
		t.Fatalf("expected failure reason")
	}
}

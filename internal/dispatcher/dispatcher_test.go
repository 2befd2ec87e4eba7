package dispatcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	common "github.com/example/salon-notify/internal/adapters/common"
	"github.com/example/salon-notify/internal/models"
)

type spyAdapter struct {
	name string
	err  error

	mu    sync.Mutex
	calls int
	order *[]string
}

func (s *spyAdapter) Name() string { return s.name }

func (s *spyAdapter) Send(context.Context, *models.OutboundMessage) models.DeliveryAttemptResult {
	s.mu.Lock()
	s.calls++
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	s.mu.Unlock()
	if s.err != nil {
		return models.Failure(s.name, s.err)
	}
	return models.Success(s.name)
}

func (s *spyAdapter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testMessage() *models.OutboundMessage {
	return &models.OutboundMessage{Recipient: models.RecipientOperator, To: "owner@example.com", Subject: "hi"}
}

func TestDispatchStopsAtFirstSuccess(t *testing.T) {
	var order []string
	a := &spyAdapter{name: "A", err: common.WrapTransport(errors.New("a down")), order: &order}
	b := &spyAdapter{name: "B", order: &order}
	c := &spyAdapter{name: "C", order: &order}

	d := New(Routes{models.KindAppointment: {a, b, c}}, zerolog.Nop())
	out := d.Dispatch(context.Background(), models.KindAppointment, testMessage())

	if !out.Success || out.Channel != "B" {
		t.Fatalf("expected success via B, got %+v", out)
	}
	if out.Error != "" || out.Err != nil {
		t.Fatalf("successful outcome must not carry an error: %+v", out)
	}
	if c.Calls() != 0 {
		t.Fatalf("C must not run after B succeeded, got %d calls", c.Calls())
	}
	if strings.Join(order, ",") != "A,B" {
		t.Fatalf("unexpected invocation order %v", order)
	}
	if len(out.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(out.Attempts))
	}
}

func TestDispatchAllFailReturnsLastReason(t *testing.T) {
	a := &spyAdapter{name: "A", err: common.WrapConfiguration(errors.New("reason A"))}
	b := &spyAdapter{name: "B", err: common.WrapRemoteRejection(errors.New("reason B"))}

	d := New(Routes{models.KindContact: {a, b}}, zerolog.Nop())
	out := d.Dispatch(context.Background(), models.KindContact, testMessage())

	if out.Success {
		t.Fatalf("expected failure, got %+v", out)
	}
	if !strings.Contains(out.Error, "reason B") || strings.Contains(out.Error, "reason A") {
		t.Fatalf("expected B's reason, got %q", out.Error)
	}
	if !errors.Is(out.Err, common.ErrRemoteRejection) {
		t.Fatalf("expected B's classification, got %v", out.Err)
	}
	if a.Calls() != 1 || b.Calls() != 1 {
		t.Fatalf("each adapter gets exactly one attempt: a=%d b=%d", a.Calls(), b.Calls())
	}
}

func TestDispatchEmptyChain(t *testing.T) {
	d := New(Routes{}, zerolog.Nop())
	out := d.Dispatch(context.Background(), models.KindPasswordReset, testMessage())

	if out.Success || !errors.Is(out.Err, ErrNoChannel) {
		t.Fatalf("expected no channel failure, got %+v", out)
	}
	if out.Error != "no delivery channel configured for password_reset" {
		t.Fatalf("unexpected reason %q", out.Error)
	}
}

func TestDispatchDoesNotDeduplicate(t *testing.T) {
	a := &spyAdapter{name: "A"}
	d := New(Routes{models.KindAppointment: {a}}, zerolog.Nop())
	msg := testMessage()

	d.Dispatch(context.Background(), models.KindAppointment, msg)
	d.Dispatch(context.Background(), models.KindAppointment, msg)

	if a.Calls() != 2 {
		t.Fatalf("expected the message to be sent twice, got %d", a.Calls())
	}
}

type panicAdapter struct{}

func (panicAdapter) Name() string { return "panicky" }

func (panicAdapter) Send(context.Context, *models.OutboundMessage) models.DeliveryAttemptResult {
	panic("boom")
}

func TestDispatchSurvivesPanickingAdapter(t *testing.T) {
	b := &spyAdapter{name: "B"}
	d := New(Routes{models.KindAppointment: {panicAdapter{}, b}}, zerolog.Nop())

	out := d.Dispatch(context.Background(), models.KindAppointment, testMessage())
	if !out.Success || out.Channel != "B" {
		t.Fatalf("expected fallback to B, got %+v", out)
	}
	if out.Attempts[0].Succeeded || !errors.Is(out.Attempts[0].Err, common.ErrTransport) {
		t.Fatalf("panic should be a transport failure, got %+v", out.Attempts[0])
	}
}

func TestNewCopiesRoutes(t *testing.T) {
	a := &spyAdapter{name: "A"}
	routes := Routes{models.KindContact: {a}}
	d := New(routes, zerolog.Nop())
	routes[models.KindContact][0] = &spyAdapter{name: "Z"}

	if got := d.Chain(models.KindContact); len(got) != 1 || got[0] != "A" {
		t.Fatalf("dispatcher must not observe later route edits, got %v", got)
	}
}

func TestDefaultRoutes(t *testing.T) {
	widget := &spyAdapter{name: "widget"}
	relay := &spyAdapter{name: "relay"}
	devlog := &spyAdapter{name: "devlog"}

	d := New(DefaultRoutes(widget, relay, devlog), zerolog.Nop())
	cases := map[models.MessageKind]string{
		models.KindAppointment:         "widget,relay,devlog",
		models.KindPaymentConfirmation: "widget,relay,devlog",
		models.KindContact:             "relay",
		models.KindPasswordReset:       "widget,devlog",
	}
	for kind, want := range cases {
		if got := strings.Join(d.Chain(kind), ","); got != want {
			t.Fatalf("%s chain = %s, want %s", kind, got, want)
		}
	}

	var noDevlog *spyAdapter
	d = New(DefaultRoutes(widget, relay, noDevlog), zerolog.Nop())
	if got := strings.Join(d.Chain(models.KindAppointment), ","); got != "widget,relay" {
		t.Fatalf("nil devlog must be omitted, got %s", got)
	}
}

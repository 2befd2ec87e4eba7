package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/models"
	"github.com/example/salon-notify/internal/settings"
	"github.com/example/salon-notify/internal/upi"
)

type recordingLauncher struct {
	mu      sync.Mutex
	intents []upi.Intent
	err     error
}

func (l *recordingLauncher) Launch(_ context.Context, intent upi.Intent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intents = append(l.intents, intent)
	return l.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	calls  []models.PaymentConfirmation
	ctxErr error
	err    error
}

func (n *recordingNotifier) ConfirmPayment(ctx context.Context, pc models.PaymentConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, pc)
	n.ctxErr = ctx.Err()
	return n.err
}

var fixedNow = time.Date(2025, 3, 3, 5, 0, 0, 0, time.UTC)

func testDeps(l Launcher, n Notifier, reader settings.Reader) Dependencies {
	return Dependencies{
		Settings:          reader,
		Launcher:          l,
		Notifier:          n,
		FallbackPayeeID:   "fallback@okhdfc",
		FallbackPayeeName: "Glow Beauty Studio",
		Logger:            zerolog.Nop(),
		Now:               func() time.Time { return fixedNow },
		NewReference:      func() string { return "PAY-TEST" },
	}
}

func testOrder() Order {
	return Order{OrderID: "ORD-1", BookingID: "BK-9", CustomerName: "Priya", Amount: 1500}
}

func TestHappyPathEndsConfirmedWithUnverifiedReceipt(t *testing.T) {
	launcher := &recordingLauncher{}
	notifier := &recordingNotifier{}
	wf, err := NewWorkflow(testOrder(), testDeps(launcher, notifier, settings.Static{PayeeID: "studio@okaxis", PayeeName: "Studio"}))
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	if wf.State() != StateIdle {
		t.Fatalf("expected idle, got %s", wf.State())
	}

	intent, err := wf.Launch(context.Background(), upi.AppGPay)
	if err != nil {
		t.Fatalf("unexpected launch error: %v", err)
	}
	if wf.State() != StateIntentLaunched {
		t.Fatalf("expected intent launched, got %s", wf.State())
	}
	if !strings.HasPrefix(intent.URL, "tez://upi/pay?pa=studio%40okaxis&pn=Studio&am=1500.00") {
		t.Fatalf("settings payee should win: %s", intent.URL)
	}
	if !strings.Contains(intent.URL, "tn=Booking%20BK-9&tr=ORD-1") {
		t.Fatalf("unexpected note/reference: %s", intent.URL)
	}
	if len(launcher.intents) != 1 || launcher.intents[0].FallbackURL == "" {
		t.Fatalf("launcher should receive both urls: %+v", launcher.intents)
	}

	receipt, err := wf.Confirm(context.Background())
	if err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}
	if wf.State() != StateConfirmed {
		t.Fatalf("expected confirmed, got %s", wf.State())
	}
	if receipt.Verified {
		t.Fatalf("customer-asserted payments must never be marked verified")
	}
	if receipt.Reference != "PAY-TEST" || receipt.Method != "UPI (Google Pay)" || !receipt.NotificationSent {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if len(notifier.calls) != 1 || notifier.calls[0].Reference != "PAY-TEST" || notifier.calls[0].CustomerName != "Priya" {
		t.Fatalf("unexpected notification %+v", notifier.calls)
	}
}

func TestConfirmNoticeIgnoresCallerCancellation(t *testing.T) {
	notifier := &recordingNotifier{}
	wf, err := NewWorkflow(testOrder(), testDeps(&recordingLauncher{}, notifier, nil))
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	if _, err := wf.Launch(context.Background(), upi.AppGeneric); err != nil {
		t.Fatalf("unexpected launch error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	receipt, err := wf.Confirm(ctx)
	if err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}
	if notifier.ctxErr != nil {
		t.Fatalf("notifier saw cancelled context: %v", notifier.ctxErr)
	}
	if !receipt.NotificationSent {
		t.Fatalf("expected notification to be sent")
	}
}

func TestConfirmSurvivesNotificationFailure(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("no delivery channel configured for payment_confirmation")}
	wf, err := NewWorkflow(testOrder(), testDeps(&recordingLauncher{}, notifier, nil))
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	if _, err := wf.Launch(context.Background(), upi.AppGeneric); err != nil {
		t.Fatalf("unexpected launch error: %v", err)
	}

	receipt, err := wf.Confirm(context.Background())
	if err != nil {
		t.Fatalf("dispatch failure must not fail confirmation: %v", err)
	}
	if wf.State() != StateConfirmed {
		t.Fatalf("expected confirmed despite failed notice, got %s", wf.State())
	}
	if receipt.NotificationSent || receipt.NotificationError == "" {
		t.Fatalf("receipt should record the failed notice: %+v", receipt)
	}
	if receipt.Method != "UPI" {
		t.Fatalf("generic launch should report plain UPI, got %s", receipt.Method)
	}
}

func TestLaunchWithoutPayeeKeepsState(t *testing.T) {
	deps := testDeps(&recordingLauncher{}, nil, settings.Static{})
	deps.FallbackPayeeID = ""
	wf, err := NewWorkflow(testOrder(), deps)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	if _, err := wf.Launch(context.Background(), upi.AppPhonePe); !errors.Is(err, upi.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if wf.State() != StateIdle {
		t.Fatalf("state must stay idle, got %s", wf.State())
	}
}

func TestLaunchFallsBackToConfiguredPayee(t *testing.T) {
	launcher := &recordingLauncher{err: errors.New("navigation blocked")}
	wf, err := NewWorkflow(testOrder(), testDeps(launcher, nil, settings.Static{}))
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	intent, err := wf.Launch(context.Background(), upi.AppPaytm)
	if err != nil {
		t.Fatalf("launcher errors are logged only, got %v", err)
	}
	if !strings.Contains(intent.URL, "pa=fallback%40okhdfc") {
		t.Fatalf("expected fallback payee, got %s", intent.URL)
	}
	if wf.State() != StateIntentLaunched {
		t.Fatalf("expected intent launched, got %s", wf.State())
	}
}

func TestRelaunchAllowed(t *testing.T) {
	launcher := &recordingLauncher{}
	wf, _ := NewWorkflow(testOrder(), testDeps(launcher, nil, nil))
	if _, err := wf.Launch(context.Background(), upi.AppGPay); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := wf.Launch(context.Background(), upi.AppPhonePe); err != nil {
		t.Fatalf("relaunch should be allowed: %v", err)
	}
	if snap := wf.Snapshot(); snap.Intent == nil || snap.Intent.App != upi.AppPhonePe {
		t.Fatalf("snapshot should reflect latest intent: %+v", snap)
	}
}

func TestConfirmRequiresLaunch(t *testing.T) {
	wf, _ := NewWorkflow(testOrder(), testDeps(&recordingLauncher{}, nil, nil))
	if _, err := wf.Confirm(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if wf.State() != StateIdle {
		t.Fatalf("state must be unchanged, got %s", wf.State())
	}
}

func TestCancelFromIdleAndTerminalStates(t *testing.T) {
	notifier := &recordingNotifier{}
	wf, _ := NewWorkflow(testOrder(), testDeps(&recordingLauncher{}, notifier, nil))
	if err := wf.Cancel(); err != nil {
		t.Fatalf("cancel from idle should succeed: %v", err)
	}
	if wf.State() != StateCancelled {
		t.Fatalf("expected cancelled, got %s", wf.State())
	}
	if err := wf.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel should fail, got %v", err)
	}
	if _, err := wf.Launch(context.Background(), upi.AppGeneric); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("launch after cancel should fail, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("cancel must not notify")
	}

	wf2, _ := NewWorkflow(testOrder(), testDeps(&recordingLauncher{}, nil, nil))
	_, _ = wf2.Launch(context.Background(), upi.AppGeneric)
	if err := wf2.Cancel(); err != nil {
		t.Fatalf("cancel from intent launched should succeed: %v", err)
	}

	wf3, _ := NewWorkflow(testOrder(), testDeps(&recordingLauncher{}, nil, nil))
	_, _ = wf3.Launch(context.Background(), upi.AppGeneric)
	_, _ = wf3.Confirm(context.Background())
	if err := wf3.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel after confirm should fail, got %v", err)
	}
}

type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingNotifier) ConfirmPayment(context.Context, models.PaymentConfirmation) error {
	close(b.entered)
	<-b.release
	return nil
}

func TestCancelRejectedWhileConfirming(t *testing.T) {
	notifier := &blockingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	wf, _ := NewWorkflow(testOrder(), testDeps(&recordingLauncher{}, notifier, nil))
	_, _ = wf.Launch(context.Background(), upi.AppGeneric)

	done := make(chan error, 1)
	go func() {
		_, err := wf.Confirm(context.Background())
		done <- err
	}()

	<-notifier.entered
	if wf.State() != StateConfirming {
		t.Fatalf("expected confirming, got %s", wf.State())
	}
	if err := wf.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel during confirmation should fail, got %v", err)
	}
	if _, err := wf.Confirm(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second confirm should fail, got %v", err)
	}
	close(notifier.release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}
	if wf.State() != StateConfirmed {
		t.Fatalf("expected confirmed, got %s", wf.State())
	}
}

func TestNewWorkflowValidation(t *testing.T) {
	if _, err := NewWorkflow(testOrder(), Dependencies{}); err == nil {
		t.Fatalf("expected error for missing launcher")
	}
	order := testOrder()
	order.Amount = 0
	if _, err := NewWorkflow(order, testDeps(&recordingLauncher{}, nil, nil)); !errors.Is(err, upi.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	order = testOrder()
	order.OrderID = ""
	wf, err := NewWorkflow(order, testDeps(&recordingLauncher{}, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(wf.Snapshot().Order.OrderID, "ORD-") {
		t.Fatalf("missing order id should be generated, got %q", wf.Snapshot().Order.OrderID)
	}
}

func TestNewReferenceShape(t *testing.T) {
	ref := NewReference()
	if !strings.HasPrefix(ref, "PAY-") || len(ref) != len("PAY-")+26 {
		t.Fatalf("unexpected reference %q", ref)
	}
	if NewReference() == ref {
		t.Fatalf("references must be unique")
	}
}

func TestLauncherFunc(t *testing.T) {
	var got upi.Intent
	l := LauncherFunc(func(_ context.Context, intent upi.Intent) error {
		got = intent
		return nil
	})
	if err := l.Launch(context.Background(), upi.Intent{URL: "upi://pay"}); err != nil || got.URL != "upi://pay" {
		t.Fatalf("launcher func not invoked correctly: %v %+v", err, got)
	}
}

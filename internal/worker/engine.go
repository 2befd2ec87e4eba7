package worker

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/example/salon-notify/internal/dispatcher"
	"github.com/example/salon-notify/internal/models"
)

// ErrClosed is returned by Submit once the engine has started draining.
var ErrClosed = errors.New("worker: engine is shutting down")

// Config contains the runtime settings of the delivery engine.
type Config struct {
	// Concurrency bounds the number of background dispatches in flight.
	Concurrency int
}

// Dispatcher runs a message through its fallback chain.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind models.MessageKind, msg *models.OutboundMessage) dispatcher.Outcome
}

// StatusPublisher publishes one audit event per dispatch.
type StatusPublisher interface {
	PublishDelivery(ctx context.Context, event models.DeliveryEvent) error
}

// UndeliveredPublisher records messages no channel accepted.
type UndeliveredPublisher interface {
	PublishUndelivered(ctx context.Context, record models.UndeliveredRecord) error
}

// Dependencies collects the runtime collaborators required by the engine.
// Publishers are optional.
type Dependencies struct {
	Dispatcher           Dispatcher
	StatusPublisher      StatusPublisher
	UndeliveredPublisher UndeliveredPublisher
	Logger               zerolog.Logger
	Now                  func() time.Time
	NewID                func() string
}

// Result is a dispatcher outcome tagged with the dispatch id used in status
// events.
type Result struct {
	DispatchID string
	dispatcher.Outcome
}

// Engine executes dispatches either synchronously or in the background and
// emits a status event for every one of them. Nothing is retried.
type Engine struct {
	cfg         Config
	dispatcher  Dispatcher
	status      StatusPublisher
	undelivered UndeliveredPublisher
	logger      zerolog.Logger

	semaphore *semaphore.Weighted

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewEngine constructs a delivery engine using the supplied configuration and
// collaborators.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if cfg.Concurrency < 1 {
		return nil, errors.New("worker: concurrency must be >= 1")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("worker: dispatcher dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "delivery_engine").Logger()

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}
	idFunc := deps.NewID
	if idFunc == nil {
		idFunc = uuid.NewString
	}

	return &Engine{
		cfg:         cfg,
		dispatcher:  deps.Dispatcher,
		status:      deps.StatusPublisher,
		undelivered: deps.UndeliveredPublisher,
		logger:      logger,
		semaphore:   semaphore.NewWeighted(int64(cfg.Concurrency)),
		now:         nowFunc,
		newID:       idFunc,
	}, nil
}

// Deliver dispatches msg and waits for the outcome. Once started the
// dispatch is not cancelled with ctx: a channel call runs to completion or
// failure even if the caller goes away.
func (e *Engine) Deliver(ctx context.Context, kind models.MessageKind, msg *models.OutboundMessage) Result {
	return e.run(context.WithoutCancel(ctx), e.newID(), kind, msg)
}

// Submit dispatches msg on a background goroutine and returns its dispatch
// id at once. It blocks only while the concurrency limit is reached. The
// send is detached from ctx cancellation so it outlives the caller's
// request; failures are logged and published, never returned.
func (e *Engine) Submit(ctx context.Context, kind models.MessageKind, msg *models.OutboundMessage) (string, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrClosed
	}
	e.inflight.Add(1)
	e.mu.Unlock()

	if err := e.semaphore.Acquire(ctx, 1); err != nil {
		e.inflight.Done()
		e.logger.Error().
			Str("kind", string(kind)).
			Err(err).
			Msg("worker: failed to acquire concurrency semaphore")
		return "", err
	}

	id := e.newID()
	bg := context.WithoutCancel(ctx)
	go func() {
		defer e.inflight.Done()
		defer e.semaphore.Release(1)
		e.run(bg, id, kind, msg)
	}()
	return id, nil
}

// Wait stops accepting submissions and blocks until every background
// dispatch has finished or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) run(ctx context.Context, id string, kind models.MessageKind, msg *models.OutboundMessage) Result {
	start := e.now()
	out := e.dispatcher.Dispatch(ctx, kind, msg)
	duration := e.now().Sub(start)

	logEvent := e.logger.With().
		Str("dispatch_id", id).
		Str("kind", string(kind)).
		Int("attempts", len(out.Attempts)).
		Dur("duration", duration).
		Logger()

	event := models.DeliveryEvent{
		DispatchID: id,
		Kind:       kind,
		Channel:    out.Channel,
		Attempts:   attemptRecords(out.Attempts),
		DurationMs: duration.Milliseconds(),
		Timestamp:  e.now(),
	}
	if msg != nil {
		event.Recipient = msg.Recipient
		event.Subject = msg.Subject
	}

	if out.Success {
		logEvent.Info().Str("channel", out.Channel).Msg("worker: message delivered")
		event.EventType = models.DeliveryEventSent
		e.publishStatus(ctx, event)
		return Result{DispatchID: id, Outcome: out}
	}

	logEvent.Warn().Str("reason", out.Error).Msg("worker: message undelivered")
	event.EventType = models.DeliveryEventFailed
	event.Error = out.Error
	e.publishStatus(ctx, event)

	record := models.UndeliveredRecord{
		DispatchID: id,
		Kind:       kind,
		LastError:  out.Error,
		Attempts:   event.Attempts,
		FailedAt:   event.Timestamp,
	}
	if msg != nil {
		record.Recipient = msg.Recipient
		record.To = msg.To
		record.Subject = msg.Subject
		record.PlainBody = msg.PlainBody
	}
	e.publishUndelivered(ctx, record)
	return Result{DispatchID: id, Outcome: out}
}

func (e *Engine) publishStatus(ctx context.Context, event models.DeliveryEvent) {
	if e.status == nil {
		return
	}
	if err := e.status.PublishDelivery(ctx, event); err != nil {
		e.logger.Error().
			Str("dispatch_id", event.DispatchID).
			Str("event", event.EventType).
			Err(err).
			Msg("worker: failed to publish status event")
	}
}

func (e *Engine) publishUndelivered(ctx context.Context, record models.UndeliveredRecord) {
	if e.undelivered == nil {
		return
	}
	if err := e.undelivered.PublishUndelivered(ctx, record); err != nil {
		e.logger.Error().
			Str("dispatch_id", record.DispatchID).
			Err(err).
			Msg("worker: failed to publish undelivered record")
	}
}

func attemptRecords(results []models.DeliveryAttemptResult) []models.AttemptRecord {
	out := make([]models.AttemptRecord, 0, len(results))
	for _, r := range results {
		out = append(out, models.AttemptRecord{
			Channel:   r.Channel,
			Succeeded: r.Succeeded,
			Reason:    r.Reason,
		})
	}
	return out
}

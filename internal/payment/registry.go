package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/logger"
)

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("payment: session not found")

// Registry keeps one workflow per active payment screen.
type Registry struct {
	deps   Dependencies
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Workflow
}

// NewRegistry returns a registry that builds workflows from deps and evicts
// sessions untouched for ttl.
func NewRegistry(deps Dependencies, ttl time.Duration) *Registry {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		deps:     deps,
		ttl:      ttl,
		now:      now,
		logger:   logger.Component(deps.Logger, "payment_registry"),
		sessions: make(map[string]*Workflow),
	}
}

// Create starts a workflow for order and returns its session id.
func (r *Registry) Create(order Order) (string, *Workflow, error) {
	wf, err := NewWorkflow(order, r.deps)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = wf
	r.mu.Unlock()
	return id, wf, nil
}

// Get returns the workflow for id.
func (r *Registry) Get(id string) (*Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return wf, nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts every session whose last transition is older than the TTL and
// returns how many were removed. A session mid-confirmation is kept.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, wf := range r.sessions {
		snap := wf.Snapshot()
		if snap.State == StateConfirming {
			continue
		}
		if snap.UpdatedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug().Int("evicted", n).Msg("payment sessions evicted")
			}
		}
	}
}

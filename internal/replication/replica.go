package replication

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultSyncInterval = time.Second

// Renderer shows a slide. It is called once per applied index and is not
// retried by the replica.
type Renderer interface {
	Render(ctx context.Context, index int) error
}

type RendererFunc func(ctx context.Context, index int) error

func (f RendererFunc) Render(ctx context.Context, index int) error {
	return f(ctx, index)
}

// Replica mirrors one presentation's index. Pushed messages and polled
// durable reads both go through Apply, so neither path re-renders a slide
// that is already shown.
type Replica struct {
	presentationID string
	store          IndexStore
	broker         Broker
	renderer       Renderer
	interval       time.Duration
	logger         *slog.Logger

	mu       sync.Mutex
	shown    int
	hasShown bool
}

func NewReplica(presentationID string, store IndexStore, broker Broker, renderer Renderer, interval time.Duration, logger *slog.Logger) *Replica {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Replica{
		presentationID: presentationID,
		store:          store,
		broker:         broker,
		renderer:       renderer,
		interval:       interval,
		logger:         logger,
	}
}

// Shown returns the last rendered index.
func (r *Replica) Shown() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shown, r.hasShown
}

// Apply renders index unless it is already shown. It reports whether a
// render happened. On failure the shown index is left untouched.
func (r *Replica) Apply(ctx context.Context, index int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasShown && r.shown == index {
		return false, nil
	}

	if err := r.renderer.Render(ctx, index); err != nil {
		return false, fmt.Errorf("failed to render slide %d: %w", index, err)
	}

	r.shown = index
	r.hasShown = true
	return true, nil
}

// Run feeds Apply from the push channel and from a durable read every
// interval until ctx is done or a render fails.
func (r *Replica) Run(ctx context.Context) error {
	sub, err := r.broker.Subscribe(ctx, Topic(r.presentationID))
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Close()

	if err := r.Reconcile(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				return ErrSubscriptionClosed
			}
			index, ok := msg.SlideIndex()
			if !ok {
				continue
			}
			if _, err := r.Apply(ctx, index); err != nil {
				return err
			}
		case <-ticker.C:
			if err := r.Reconcile(ctx); err != nil {
				return err
			}
		}
	}
}

// Reconcile reads the durable index and applies it. Missing or unreadable
// records are skipped until the next interval.
func (r *Replica) Reconcile(ctx context.Context) error {
	index, err := r.store.GetCurrentIndex(ctx, r.presentationID)
	if err != nil {
		r.logger.DebugContext(ctx, "failed to read durable index", "presentation_id", r.presentationID, "error", err)
		return nil
	}

	rendered, err := r.Apply(ctx, index)
	if err != nil {
		return err
	}
	if rendered {
		r.logger.DebugContext(ctx, "replica reconciled from durable index", "presentation_id", r.presentationID, "index", index)
	}
	return nil
}

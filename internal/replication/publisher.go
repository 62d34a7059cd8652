package replication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const defaultPublishTimeout = 5 * time.Second

// Publisher is the owner side: every slide change is committed to the
// durable index and then pushed to listening contexts.
type Publisher struct {
	presentationID string
	store          IndexStore
	broker         Broker
	logger         *slog.Logger
	timeout        time.Duration
}

func NewPublisher(presentationID string, store IndexStore, broker Broker, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		presentationID: presentationID,
		store:          store,
		broker:         broker,
		logger:         logger,
		timeout:        defaultPublishTimeout,
	}
}

// SlideChanged persists index, then broadcasts it. A failed write does not
// stop the broadcast; replicas that miss it recover from the next poll.
func (p *Publisher) SlideChanged(ctx context.Context, index int) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var errs []error
	if err := p.store.SetCurrentIndex(ctx, p.presentationID, index); err != nil {
		p.logger.WarnContext(ctx, "failed to persist current index", "index", index, "error", err)
		errs = append(errs, fmt.Errorf("failed to persist current index: %w", err))
	}

	if err := p.broker.Publish(ctx, Topic(p.presentationID), SlideChanged(index)); err != nil {
		p.logger.WarnContext(ctx, "failed to broadcast slide change", "index", index, "error", err)
		errs = append(errs, fmt.Errorf("failed to broadcast slide change: %w", err))
	}

	return errors.Join(errs...)
}

// RemoteCommand broadcasts a control action for the presenter context.
func (p *Publisher) RemoteCommand(ctx context.Context, action, payload string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.broker.Publish(ctx, Topic(p.presentationID), RemoteCommand(action, payload)); err != nil {
		return fmt.Errorf("failed to broadcast remote command: %w", err)
	}
	return nil
}

// Package replication mirrors the presenter's slide index to every other
// context. A push channel carries changes immediately and without guarantees;
// a periodic read of the durable index lets late or lossy observers converge.
package replication

import (
	"context"
	"errors"
	"sync"
)

var ErrSubscriptionClosed = errors.New("subscription closed")

type Broker interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

type Subscription interface {
	Messages() <-chan Message
	Close() error
}

// IndexStore holds the durable index record of each presentation.
type IndexStore interface {
	SetCurrentIndex(ctx context.Context, presentationID string, index int) error
	GetCurrentIndex(ctx context.Context, presentationID string) (int, error)
}

const localBufferSize = 16

// LocalBroker fans messages out inside one process. Slow subscribers lose
// messages instead of blocking the publisher.
type LocalBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*localSubscription]struct{}
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[*localSubscription]struct{})}
}

func (b *LocalBroker) Publish(ctx context.Context, topic string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[topic] {
		select {
		case sub.ch <- msg:
		default:
		}
	}

	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &localSubscription{
		broker: b,
		topic:  topic,
		ch:     make(chan Message, localBufferSize),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*localSubscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}

	return sub, nil
}

func (b *LocalBroker) remove(sub *localSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs[sub.topic], sub)
	if len(b.subs[sub.topic]) == 0 {
		delete(b.subs, sub.topic)
	}
}

type localSubscription struct {
	broker *LocalBroker
	topic  string
	ch     chan Message
	once   sync.Once
}

func (s *localSubscription) Messages() <-chan Message {
	return s.ch
}

func (s *localSubscription) Close() error {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.ch)
	})
	return nil
}

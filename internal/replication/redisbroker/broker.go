package redisbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/smartpresent/internal/replication"
)

const bufferSize = 16

type broker struct {
	rc     *redis.Client
	logger *slog.Logger
}

func New(rc *redis.Client, logger *slog.Logger) *broker {
	return &broker{
		rc:     rc,
		logger: logger,
	}
}

func (b broker) Publish(ctx context.Context, topic string, msg replication.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := b.rc.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (b broker) Subscribe(ctx context.Context, topic string) (replication.Subscription, error) {
	ps := b.rc.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &subscription{
		ps:     ps,
		ch:     make(chan replication.Message, bufferSize),
		done:   make(chan struct{}),
		logger: b.logger,
	}
	go sub.forward()

	return sub, nil
}

type subscription struct {
	ps     *redis.PubSub
	ch     chan replication.Message
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func (s *subscription) forward() {
	defer close(s.ch)

	in := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case raw, ok := <-in:
			if !ok {
				return
			}

			var msg replication.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				s.logger.Warn("failed to decode sync message", "channel", raw.Channel, "error", err)
				continue
			}

			select {
			case s.ch <- msg:
			case <-s.done:
				return
			}
		}
	}
}

func (s *subscription) Messages() <-chan replication.Message {
	return s.ch
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

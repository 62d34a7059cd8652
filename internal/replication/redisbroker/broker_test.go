package redisbroker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/smartpresent/internal/replication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*broker, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })
	return New(rc, slog.Default()), s
}

func TestPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBroker(t)

	sub, err := b.Subscribe(ctx, replication.Topic("p1"))
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, replication.Topic("p1"), replication.SlideChanged(2)))
	require.NoError(t, b.Publish(ctx, replication.Topic("p1"), replication.RemoteCommand(replication.ActionGoto, "intro")))

	select {
	case msg := <-sub.Messages():
		index, ok := msg.SlideIndex()
		assert.True(t, ok)
		assert.Equal(t, 2, index)
	case <-time.After(time.Second):
		t.Fatal("slide change not delivered")
	}

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, replication.TypeRemoteCommand, msg.Type)
		assert.Equal(t, replication.ActionGoto, msg.Action)
		assert.Equal(t, "intro", msg.PayloadString())
	case <-time.After(time.Second):
		t.Fatal("remote command not delivered")
	}
}

func TestSkipsUndecodablePayload(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBroker(t)

	sub, err := b.Subscribe(ctx, "topic")
	require.NoError(t, err)
	defer sub.Close()

	s.Publish("topic", "not json")
	require.NoError(t, b.Publish(ctx, "topic", replication.SlideChanged(1)))

	select {
	case msg := <-sub.Messages():
		index, _ := msg.SlideIndex()
		assert.Equal(t, 1, index)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestCloseClosesMessages(t *testing.T) {
	b, _ := newTestBroker(t)

	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Messages():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("messages channel not closed")
	}
}

func TestReplicaOverRedis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b, _ := newTestBroker(t)

	shown := make(chan int, 4)
	store := &staticStore{index: 0}
	replica := replication.NewReplica("p1", store, b, replication.RendererFunc(func(_ context.Context, index int) error {
		shown <- index
		return nil
	}), time.Hour, slog.Default())
	go replica.Run(ctx)

	assert.Equal(t, 0, <-shown)

	require.NoError(t, b.Publish(ctx, replication.Topic("p1"), replication.SlideChanged(3)))
	select {
	case index := <-shown:
		assert.Equal(t, 3, index)
	case <-time.After(time.Second):
		t.Fatal("replica did not follow push")
	}
}

type staticStore struct {
	index int
}

func (s *staticStore) SetCurrentIndex(_ context.Context, _ string, index int) error {
	s.index = index
	return nil
}

func (s *staticStore) GetCurrentIndex(context.Context, string) (int, error) {
	return s.index, nil
}

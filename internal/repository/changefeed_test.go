package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupFeed(t *testing.T) *RedisChangeFeed {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisChangeFeed(client, zap.NewNop())
}

func TestRedisChangeFeed_PublishReachesSubscriber(t *testing.T) {
	feed := setupFeed(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := feed.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, CollectionOrders))

	select {
	case ev := <-events:
		assert.Equal(t, CollectionOrders, ev.Collection)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestRedisChangeFeed_SubscribeEndsOnCancel(t *testing.T) {
	feed := setupFeed(t)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := feed.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestMemoryChangeFeed_FanOut(t *testing.T) {
	feed := NewMemoryChangeFeed()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := feed.Subscribe(ctx)
	require.NoError(t, err)
	b, err := feed.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, CollectionTables))

	for _, ch := range []<-chan ChangeEvent{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, CollectionTables, ev.Collection)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// changeChannel is the pub/sub channel all collection change
// notifications travel on. The message body is the collection name.
const changeChannel = "resbar:changes"

// RedisChangeFeed implements ChangeFeed over redis pub/sub.
type RedisChangeFeed struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisChangeFeed creates the feed on an existing client.
func NewRedisChangeFeed(client *redis.Client, logger *zap.Logger) *RedisChangeFeed {
	return &RedisChangeFeed{client: client, logger: logger}
}

// Publish sends a collection-changed notification. Failures are
// surfaced to the caller; a write that persisted but failed to notify
// still becomes visible on the next explicit refresh.
func (f *RedisChangeFeed) Publish(ctx context.Context, collection string) error {
	if err := f.client.Publish(ctx, changeChannel, collection).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe delivers change events until ctx is cancelled. Redis
// handles reconnection internally; the channel closes when the
// subscription is torn down.
func (f *RedisChangeFeed) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	sub := f.client.Subscribe(ctx, changeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to change feed: %w", err)
	}

	out := make(chan ChangeEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				f.logger.Debug("Change notification received",
					zap.String("collection", msg.Payload),
				)
				select {
				case out <- ChangeEvent{Collection: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// NewRedisClient creates the redis client used for the change feed.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisRelay implements the CodeRelay on Redis: values live under
// relay:<key>, change notification rides pub/sub. It lets the popup
// callback handler and the flow controllers run in different processes.
type RedisRelay struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisRelay initializes a relay on the given Redis client.
func NewRedisRelay(client *redis.Client, logger *logrus.Logger) (*RedisRelay, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisRelay{client: client, logger: logger}, nil
}

func valueKey(key string) string   { return fmt.Sprintf("relay:%s", key) }
func channelKey(key string) string { return fmt.Sprintf("relay:notify:%s", key) }

// Publish stores the code and notifies the subscriber.
func (r *RedisRelay) Publish(ctx context.Context, key, code string) error {
	if err := r.client.Set(ctx, valueKey(key), code, 0).Err(); err != nil {
		return err
	}
	return r.client.Publish(ctx, channelKey(key), "code").Err()
}

// Subscribe registers a one-shot listener. The first notification
// triggers an atomic read-and-delete of the stored value, so a second
// consumer can never see it.
func (r *RedisRelay) Subscribe(ctx context.Context, key string) (<-chan string, func(), error) {
	pubsub := r.client.Subscribe(ctx, channelKey(key))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	ch := make(chan string, 1)
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			pubsub.Close()
		})
	}

	go func() {
		defer cancel()
		for range pubsub.Channel() {
			code, err := r.client.GetDel(ctx, valueKey(key)).Result()
			if err == redis.Nil {
				// Another reader consumed the value first.
				continue
			}
			if err != nil {
				r.logger.WithError(err).WithField("key", key).Error("Failed to read relay value")
				continue
			}
			ch <- code
			close(ch)
			return
		}
	}()

	return ch, cancel, nil
}

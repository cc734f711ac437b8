package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChangesChannel is the redis channel change announcements travel on.
const ChangesChannel = "sitebooks:changes"

// Notifier carries change announcements between instances.
type Notifier interface {
	Publish(ctx context.Context, path string) error
	// Listen calls fn for every change announced by another instance and
	// blocks until ctx is done.
	Listen(ctx context.Context, fn func(path string)) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string) error { return nil }

func (nopNotifier) Listen(ctx context.Context, _ func(string)) error {
	<-ctx.Done()
	return nil
}

type changeMessage struct {
	Origin string `json:"origin"`
	Path   string `json:"path"`
}

// RedisNotifier announces changes over redis pub/sub.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	origin  string
	log     *zap.Logger
}

// NewRedisNotifier returns a notifier with a fresh origin id, so an instance
// ignores its own announcements.
func NewRedisNotifier(client *redis.Client, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: ChangesChannel,
		origin:  uuid.NewString(),
		log:     log,
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, path string) error {
	payload, err := json.Marshal(changeMessage{Origin: n.origin, Path: path})
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.channel, payload).Err()
}

func (n *RedisNotifier) Listen(ctx context.Context, fn func(path string)) error {
	pubsub := n.client.Subscribe(ctx, n.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m changeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				n.log.Warn("dropping malformed change message", zap.Error(err))
				continue
			}
			if m.Origin == n.origin {
				continue
			}
			fn(m.Path)
		}
	}
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nfrund/shellbus/internal/channel"
)

var _ channel.Relay = (*Redis)(nil)

// ErrRedisNotReady is returned when the server does not answer PING.
var ErrRedisNotReady = errors.New("redis not ready")

// Redis relays frames over Redis PUBLISH/SUBSCRIBE. Delivery is at most
// once; frames of one channel arrive in order.
type Redis struct {
	client *redis.Client
	owned  bool
	logger *slog.Logger
}

// DialRedis parses url (redis:// or rediss://), connects and verifies the
// connection with PING.
func DialRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrRedisNotReady, err)
	}
	r := NewRedis(client)
	r.owned = true
	return r, nil
}

// NewRedis wraps an existing client. Close leaves it open.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, logger: slog.Default().With("component", "redis_relay")}
}

// Send publishes frame on the Redis channel of name.
func (r *Redis) Send(ctx context.Context, name string, frame []byte) error {
	return r.client.Publish(ctx, RedisChannel(name), frame).Err()
}

// Subscribe subscribes to the Redis channel of name and waits for the
// server to confirm.
func (r *Redis) Subscribe(name string, deliver func([]byte)) (func(), error) {
	ctx := context.Background()
	ps := r.client.Subscribe(ctx, RedisChannel(name))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}

	go func() {
		for msg := range ps.Channel() {
			deliver([]byte(msg.Payload))
		}
		r.logger.Debug("Subscription loop ended", "channel", name)
	}()

	return func() {
		if err := ps.Close(); err != nil {
			r.logger.Debug("Failed to close subscription", "channel", name, "error", err)
		}
	}, nil
}

// Close closes the client when the relay owns it.
func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}

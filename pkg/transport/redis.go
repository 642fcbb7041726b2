package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// RedisTransport carries datagrams over redis pub/sub on one channel
type RedisTransport struct {
	client     *redis.Client
	pubsub     *redis.PubSub
	messages   <-chan *redis.Message
	channel    string
	ownsClient bool

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Transport = &RedisTransport{}

// DialRedis connects to addr and subscribes to channel
func DialRedis(ctx context.Context, addr, channel string) (*RedisTransport, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	t, err := NewRedisTransport(ctx, client, channel)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	t.ownsClient = true
	return t, nil
}

// NewRedisTransport subscribes an existing client to channel and returns once
// the subscription is confirmed, so datagrams published afterwards are seen.
func NewRedisTransport(ctx context.Context, client *redis.Client, channel string) (*RedisTransport, error) {
	channel = Namespace("mxgram", channel)
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("transport: subscribe to redis channel %s: %w", channel, err)
	}
	return &RedisTransport{
		client:   client,
		pubsub:   pubsub,
		messages: pubsub.Channel(),
		channel:  channel,
		closed:   make(chan struct{}),
	}, nil
}

func (t *RedisTransport) String() string { return "redis " + t.channel }

func (t *RedisTransport) Send(ctx context.Context, data []byte) error {
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}
	if err := checkLength(data); err != nil {
		return err
	}
	if err := t.client.Publish(ctx, t.channel, data).Err(); err != nil {
		return fmt.Errorf("transport: publish to redis channel %s: %w", t.channel, err)
	}
	return nil
}

func (t *RedisTransport) Receive(ctx context.Context, buf []byte) (int, error) {
	select {
	case msg, ok := <-t.messages:
		if !ok {
			return 0, ErrClosed
		}
		return deliver(buf, []byte(msg.Payload))
	case <-t.closed:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (t *RedisTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.pubsub.Close()
		if t.ownsClient {
			if cerr := t.client.Close(); err == nil {
				err = cerr
			}
		}
	})
	return err
}

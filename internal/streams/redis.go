package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
)

// RedisPublisher mirrors both streams onto a redis channel so consumers
// outside the process can subscribe. Publish failures are logged and
// dropped; the in-process streams stay authoritative.
type RedisPublisher struct {
	rdb     *goredis.Client
	channel string
}

type envelope struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

func NewRedisPublisher(addr, channel string) (*RedisPublisher, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisPublisher{rdb: rdb, channel: channel}, nil
}

// Attach consumes one subscription of each stream and mirrors it until the
// bus closes.
func (p *RedisPublisher) Attach(bus *Bus) {
	triggers := bus.SubscribeTriggers()
	trust := bus.SubscribeTrust()

	go func() {
		for event := range triggers {
			p.publish("trigger", event)
		}
	}()
	go func() {
		for event := range trust {
			p.publish("trust", event)
		}
	}()
}

func (p *RedisPublisher) publish(kind string, payload interface{}) {
	raw, err := json.Marshal(envelope{Kind: kind, Payload: payload})
	if err != nil {
		logging.Error("stream envelope marshal failed: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		logging.Warn("redis stream publish failed: %v", err)
	}
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

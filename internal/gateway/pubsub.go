package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"

	"signal-relay/internal/metrics"
	"signal-relay/internal/relay"
)

// EventsChannel is the Redis channel shared by all relay workers.
const EventsChannel = "relay:events"

// RedisBridge publishes relay events to Redis and re-broadcasts everything
// on the channel into the local hub, so each dashboard sees every worker.
type RedisBridge struct {
	rdb     *goredis.Client
	hub     *Hub
	channel string
	metrics *metrics.Metrics
}

// NewRedisBridge creates a bridge on EventsChannel. m may be nil.
func NewRedisBridge(rdb *goredis.Client, hub *Hub, m *metrics.Metrics) *RedisBridge {
	return &RedisBridge{rdb: rdb, hub: hub, channel: EventsChannel, metrics: m}
}

// Publish implements relay.EventSink. When Redis is unreachable the event
// still reaches local clients.
func (b *RedisBridge) Publish(ctx context.Context, ev relay.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("feed event marshal failed", "component", "gateway", "error", err)
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		slog.Warn("feed publish failed, broadcasting locally",
			"component", "gateway",
			"channel", b.channel,
			"error", err,
		)
		if b.metrics != nil {
			b.metrics.FeedPublishErrors.Inc()
		}
		b.hub.Broadcast(data)
	}
}

// Run subscribes to the channel and routes messages into the hub.
// Blocks until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("gateway: subscribe %s: %w", b.channel, err)
	}
	slog.Info("feed bridge subscribed", "component", "gateway", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.hub.Broadcast([]byte(msg.Payload))
		}
	}
}

package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"signal-relay/internal/metrics"
	"signal-relay/internal/relay"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRedisBridge_FansOutAcrossWorkers(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newWorker := func() (*Hub, *RedisBridge) {
		rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		hub := NewHub(10, nil)
		b := NewRedisBridge(rdb, hub, nil)
		go b.Run(ctx)
		return hub, b
	}
	hubA, bridgeA := newWorker()
	hubB, _ := newWorker()

	waitFor(t, "both subscriptions", func() bool {
		return mr.PubSubNumSub(EventsChannel)[EventsChannel] == 2
	})

	bridgeA.Publish(ctx, relay.Event{Outcome: relay.Delivered, Ticker: "BTCUSDT"})

	waitFor(t, "worker A event", func() bool { return hubA.Seq() == 1 })
	waitFor(t, "worker B event", func() bool { return hubB.Seq() == 1 })
}

func TestRedisBridge_PublishFallsBackToLocal(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	hub := NewHub(10, m)
	b := NewRedisBridge(rdb, hub, m)

	b.Publish(context.Background(), relay.Event{Outcome: relay.DeliveryFailed})

	if hub.Seq() != 1 {
		t.Fatalf("event should be broadcast locally, seq = %d", hub.Seq())
	}
	if got := testutil.ToFloat64(m.FeedPublishErrors); got != 1 {
		t.Errorf("publish errors = %v, want 1", got)
	}
}

func TestRedisBridge_RunFailsWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := NewRedisBridge(rdb, NewHub(1, nil), nil).Run(ctx); err == nil {
		t.Fatal("expected subscribe error")
	}
}

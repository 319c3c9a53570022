package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"signal-relay/config"
	"signal-relay/internal/api"
	"signal-relay/internal/dedup"
	"signal-relay/internal/format"
	"signal-relay/internal/gateway"
	"signal-relay/internal/logger"
	"signal-relay/internal/metrics"
	"signal-relay/internal/notification"
	"signal-relay/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init("relay", logger.ParseLevel(cfg.LogLevel))
	slog.Info("starting",
		"port", cfg.Port,
		"dedup_window", cfg.DedupWindow.String(),
		"tz_offset_hours", cfg.TZOffsetHours,
		"dry_run", cfg.DryRun,
		"bot_token", config.Mask(cfg.BotToken),
	)
	if missing := cfg.MissingCredentials(); len(missing) > 0 && !cfg.DryRun {
		slog.Error("telegram credentials missing, every dispatch will fail", "missing", missing)
	}

	// ---- Metrics & health ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus()
	health.SetBotConfigured(cfg.BotConfigured())
	health.SetDryRun(cfg.DryRun)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, reg)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Dedup store: local cache, shared through Redis when configured ----
	local := dedup.NewMemoryStore(cfg.DedupWindow)
	var store dedup.Store = local
	backend := "memory"

	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		health.SetRedisEnabled(true)
		health.CheckRedis(ctx, rdb)
		if !health.RedisOK() {
			slog.Warn("redis unreachable at startup, dedup falls back to local cache", "addr", cfg.RedisAddr)
		}
		health.StartLivenessChecker(ctx, rdb, 10*time.Second)

		breaker := dedup.NewCircuitBreaker(3, 10*time.Second)
		breaker.OnStateChange = func(from, to dedup.BreakerState) {
			prom.DedupBreakerState.Set(float64(to))
			if to == dedup.StateOpen {
				prom.DedupBreakerTrips.Inc()
			}
			slog.Warn("dedup circuit breaker", "from", from.String(), "to", to.String())
		}
		fallback := dedup.NewFallbackStore(dedup.NewRedisStore(rdb, cfg.DedupWindow), local, breaker)
		fallback.OnFallback = func(error) { prom.DedupFallbacks.Inc() }
		store = fallback
		backend = "redis"
	}

	// ---- Dispatcher ----
	var notifier notification.Notifier
	if cfg.DryRun {
		notifier = notification.NewLogNotifier()
	} else {
		notifier = notification.NewTelegramNotifier(notification.TelegramConfig{
			BotToken: cfg.BotToken,
			ChatID:   cfg.ChatID,
			APIURL:   cfg.TelegramAPIURL,
			Timeout:  cfg.DispatchTimeout,
		})
	}

	// ---- Live feed ----
	hub := gateway.NewHub(cfg.FeedReplay, prom)
	var sink relay.EventSink = hub
	if rdb != nil {
		bridge := gateway.NewRedisBridge(rdb, hub, prom)
		sink = bridge
		go runBridge(ctx, bridge)
	}

	// ---- Pipeline & HTTP ----
	loc := cfg.Location()
	r := relay.New(relay.Deps{
		Formatter:  format.New(loc),
		Suppressor: dedup.NewSuppressor(store),
		Notifier:   notifier,
		Metrics:    prom,
		Health:     health,
		Events:     sink,
	})

	mux := api.NewRouter(api.Deps{
		Relay: r,
		Status: api.Status{
			BotTokenConfigured: cfg.BotToken != "",
			ChatIDConfigured:   cfg.ChatID != "",
			BotToken:           config.Mask(cfg.BotToken),
			DryRun:             cfg.DryRun,
			DedupBackend:       backend,
			DedupWindow:        cfg.DedupWindow.String(),
			Timezone:           loc.String(),
		},
		Feed: http.HandlerFunc(hub.ServeWS),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("webhook server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("webhook server error", "error", err)
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("webhook server shutdown", "error", err)
	}
	metricsSrv.Stop(shutdownCtx)
	slog.Info("stopped")
}

// runBridge keeps the Redis feed subscription alive until ctx is done.
func runBridge(ctx context.Context, bridge *gateway.RedisBridge) {
	for {
		err := bridge.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("feed bridge stopped, retrying", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

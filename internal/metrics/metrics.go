package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch results used as the "result" label.
const (
	ResultDelivered     = "delivered"
	ResultNotConfigured = "not_configured"
	ResultFailed        = "failed"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	AlertsReceived   *prometheus.CounterVec // labels: kind=json|text|rejected
	AlertsClassified *prometheus.CounterVec // labels: category
	AlertsSuppressed prometheus.Counter

	DispatchTotal   *prometheus.CounterVec // labels: result
	DispatchDur     prometheus.Histogram
	FallbackFormats prometheus.Counter

	// Shared dedup store
	DedupFallbacks    prometheus.Counter
	DedupBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	DedupBreakerTrips prometheus.Counter

	// Live feed
	FeedClients       prometheus.Gauge
	FeedDrops         prometheus.Counter
	FeedPublishErrors prometheus.Counter
}

// NewMetrics creates the relay metrics and registers them on reg.
// Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AlertsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_alerts_received_total",
			Help: "Webhook payloads received (by kind)",
		}, []string{"kind"}),
		AlertsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_alerts_classified_total",
			Help: "Alerts classified (by category)",
		}, []string{"category"}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_alerts_suppressed_total",
			Help: "Alerts dropped as duplicates inside the window",
		}),

		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_dispatch_total",
			Help: "Outbound dispatch attempts (by result)",
		}, []string{"result"}),
		DispatchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_dispatch_duration_seconds",
			Help:    "Outbound chat API call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FallbackFormats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_fallback_format_total",
			Help: "Messages rendered with the minimal fallback format",
		}),

		DedupFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_dedup_fallback_total",
			Help: "Dedup checks answered by the local cache because Redis failed",
		}),
		DedupBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_dedup_circuit_breaker_state",
			Help: "Redis dedup circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		DedupBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_dedup_circuit_breaker_trips_total",
			Help: "Times the Redis dedup circuit breaker tripped open",
		}),

		FeedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_feed_clients",
			Help: "Connected live feed WebSocket clients",
		}),
		FeedDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_feed_drops_total",
			Help: "Feed events dropped for slow clients",
		}),
		FeedPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_feed_publish_errors_total",
			Help: "Feed events that could not be published to Redis",
		}),
	}

	reg.MustRegister(
		m.AlertsReceived,
		m.AlertsClassified,
		m.AlertsSuppressed,
		m.DispatchTotal,
		m.DispatchDur,
		m.FallbackFormats,
		m.DedupFallbacks,
		m.DedupBreakerState,
		m.DedupBreakerTrips,
		m.FeedClients,
		m.FeedDrops,
		m.FeedPublishErrors,
	)

	return m
}

// HealthStatus represents the relay health.
type HealthStatus struct {
	mu sync.RWMutex

	BotConfigured  bool      `json:"bot_configured"`
	DryRun         bool      `json:"dry_run"`
	RedisEnabled   bool      `json:"redis_enabled"`
	RedisConnected bool      `json:"redis_connected"`
	LastAlertAt    time.Time `json:"last_alert_at"`
	LastDispatchAt time.Time `json:"last_dispatch_at"`
	LastDispatchOK bool      `json:"last_dispatch_ok"`

	// Liveness probe results
	RedisLatencyMs float64   `json:"redis_latency_ms"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetBotConfigured(v bool) {
	h.mu.Lock()
	h.BotConfigured = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetDryRun(v bool) {
	h.mu.Lock()
	h.DryRun = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisEnabled(v bool) {
	h.mu.Lock()
	h.RedisEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

// RecordAlert notes that a payload reached the pipeline.
func (h *HealthStatus) RecordAlert(t time.Time) {
	h.mu.Lock()
	h.LastAlertAt = t
	h.mu.Unlock()
}

// RecordDispatch notes the time and result of the latest outbound call.
func (h *HealthStatus) RecordDispatch(t time.Time, ok bool) {
	h.mu.Lock()
	h.LastDispatchAt = t
	h.LastDispatchOK = ok
	h.mu.Unlock()
}

// LastDispatch returns the latest dispatch time and result.
func (h *HealthStatus) LastDispatch() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.LastDispatchAt, h.LastDispatchOK
}

// RedisOK reports the result of the latest Redis probe.
func (h *HealthStatus) RedisOK() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.RedisConnected
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker pings Redis every interval until ctx is done.
// A nil client disables the checker.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	if rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.CheckRedis(probeCtx, rdb)
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// A relay without credentials can still answer webhooks, but every
	// dispatch fails; report it as degraded. Redis only matters when enabled.
	overallStatus := "healthy"
	httpCode := http.StatusOK
	if (!h.BotConfigured && !h.DryRun) || (h.RedisEnabled && !h.RedisConnected) {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		BotConfigured  bool    `json:"bot_configured"`
		DryRun         bool    `json:"dry_run"`
		RedisEnabled   bool    `json:"redis_enabled"`
		RedisConnected bool    `json:"redis_connected"`
		RedisLatencyMs float64 `json:"redis_latency_ms"`
		LastAlertAt    string  `json:"last_alert_at,omitempty"`
		LastDispatchAt string  `json:"last_dispatch_at,omitempty"`
		LastDispatchOK bool    `json:"last_dispatch_ok"`
		LastCheckAt    string  `json:"last_check_at,omitempty"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		BotConfigured:  h.BotConfigured,
		DryRun:         h.DryRun,
		RedisEnabled:   h.RedisEnabled,
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		LastAlertAt:    formatTime(h.LastAlertAt),
		LastDispatchAt: formatTime(h.LastDispatchAt),
		LastDispatchOK: h.LastDispatchOK,
		LastCheckAt:    formatTime(h.LastCheckAt),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server that exposes gatherer.
func NewServer(addr string, health *HealthStatus, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the server mux.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "component", "metrics", "addr", s.addr)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "component", "metrics", "error", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

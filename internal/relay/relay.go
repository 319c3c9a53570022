// Package relay runs one webhook payload through the whole pipeline:
// parse, classify, extract, format, dedup, dispatch.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"signal-relay/internal/alert"
	"signal-relay/internal/classify"
	"signal-relay/internal/dedup"
	"signal-relay/internal/extract"
	"signal-relay/internal/format"
	"signal-relay/internal/logger"
	"signal-relay/internal/metrics"
	"signal-relay/internal/notification"
)

// Outcome is the terminal state of one payload.
type Outcome string

const (
	Delivered      Outcome = "delivered"
	Suppressed     Outcome = "suppressed"
	NotConfigured  Outcome = "not_configured"
	DeliveryFailed Outcome = "delivery_failed"
	Rejected       Outcome = "rejected"
)

// Result describes what happened to a payload.
type Result struct {
	Outcome  Outcome
	TraceID  string
	Category classify.Category
	Ticker   string
	Message  string
	// Fallback is set when the minimal fallback format was used.
	Fallback bool
	Err      error
}

// Deps wires a Relay. Formatter, Suppressor and Notifier are required.
type Deps struct {
	Formatter  *format.Formatter
	Suppressor *dedup.Suppressor
	Notifier   notification.Notifier

	Metrics *metrics.Metrics      // private registry when nil
	Health  *metrics.HealthStatus // optional
	Events  EventSink             // optional
	Rules   []classify.Rule       // classify.Rules when nil
	Now     func() time.Time      // time.Now when nil
}

// Relay is safe for concurrent use.
type Relay struct {
	formatter  *format.Formatter
	suppressor *dedup.Suppressor
	notifier   notification.Notifier
	metrics    *metrics.Metrics
	health     *metrics.HealthStatus
	events     EventSink
	rules      []classify.Rule
	now        func() time.Time
}

// New builds a Relay from deps.
func New(deps Deps) *Relay {
	r := &Relay{
		formatter:  deps.Formatter,
		suppressor: deps.Suppressor,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		health:     deps.Health,
		events:     deps.Events,
		rules:      deps.Rules,
		now:        deps.Now,
	}
	if r.metrics == nil {
		r.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	}
	if r.health == nil {
		r.health = metrics.NewHealthStatus()
	}
	if r.events == nil {
		r.events = discard{}
	}
	if r.rules == nil {
		r.rules = classify.Rules
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Configured reports whether the notifier can attempt delivery.
func (r *Relay) Configured() bool { return r.notifier.Configured() }

// Formatter returns the formatter in use.
func (r *Relay) Formatter() *format.Formatter { return r.formatter }

// Handle relays one webhook body.
func (r *Relay) Handle(ctx context.Context, body []byte, contentType string) Result {
	ctx = logger.WithTraceID(ctx, logger.NewTraceID())
	now := r.now()
	res := Result{TraceID: logger.TraceID(ctx)}
	r.health.RecordAlert(now)

	a, err := alert.Parse(body, contentType)
	if err != nil {
		r.metrics.AlertsReceived.WithLabelValues("rejected").Inc()
		slog.Warn("alert rejected", r.attrs(ctx, "error", err)...)
		res.Outcome, res.Err = Rejected, err
		r.publish(ctx, now, res)
		return res
	}
	kind := "text"
	if a.Structured {
		kind = "json"
	}
	r.metrics.AlertsReceived.WithLabelValues(kind).Inc()
	slog.Info("alert received", r.attrs(ctx, "kind", kind, "bytes", len(body))...)

	if !r.notifier.Configured() {
		slog.Error("bot not configured, alert dropped", r.attrs(ctx)...)
		r.metrics.DispatchTotal.WithLabelValues(metrics.ResultNotConfigured).Inc()
		res.Outcome, res.Err = NotConfigured, notification.ErrNotConfigured
		r.publish(ctx, now, res)
		return res
	}

	r.compose(ctx, &res, a, now)

	if r.suppressor.ShouldSuppress(ctx, res.Message, now) {
		r.metrics.AlertsSuppressed.Inc()
		slog.Info("duplicate alert suppressed", r.attrs(ctx, "category", string(res.Category))...)
		res.Outcome = Suppressed
		r.publish(ctx, now, res)
		return res
	}

	res.Outcome, res.Err = r.dispatch(ctx, res.Message)
	r.publish(ctx, now, res)
	return res
}

// Preview renders body without dedup or dispatch.
func (r *Relay) Preview(ctx context.Context, body []byte, contentType string) (Result, error) {
	a, err := alert.Parse(body, contentType)
	if err != nil {
		return Result{Outcome: Rejected, Err: err}, err
	}
	var res Result
	r.compose(ctx, &res, a, r.now())
	return res, nil
}

// compose classifies, extracts and formats a into res.
func (r *Relay) compose(ctx context.Context, res *Result, a alert.RawAlert, now time.Time) {
	text := a.Text()
	res.Category = classify.ClassifyWith(r.rules, text)
	r.metrics.AlertsClassified.WithLabelValues(string(res.Category)).Inc()

	fields := r.fields(a, text)
	res.Ticker = fields.Ticker
	slog.Info("alert classified", r.attrs(ctx,
		"category", string(res.Category),
		"ticker", fields.Ticker,
		"strength", fields.Strength,
	)...)

	res.Message, res.Fallback = r.render(ctx, format.Input{
		Category: res.Category,
		Fields:   fields,
		Raw:      a.Original(),
	}, now)
}

// SendTest sends the bot check message. It bypasses dedup.
func (r *Relay) SendTest(ctx context.Context) Result {
	ctx = logger.WithTraceID(ctx, logger.NewTraceID())
	now := r.now()
	res := Result{
		TraceID: logger.TraceID(ctx),
		Message: r.formatter.TestMessage(now),
	}
	res.Outcome, res.Err = r.dispatch(ctx, res.Message)
	r.publish(ctx, now, res)
	return res
}

// fields prefers values carried by a structured alert and falls back to
// scanning the text.
func (r *Relay) fields(a alert.RawAlert, text string) format.Fields {
	f := format.Fields{
		Ticker:    strings.ToUpper(strings.TrimSpace(a.Fields.Ticker)),
		Price:     strings.TrimSpace(a.Fields.Price),
		Timeframe: strings.TrimSpace(a.Fields.Timeframe),
		Details:   strings.TrimSpace(a.Fields.Details),
	}
	if f.Ticker == "" {
		f.Ticker = extract.Ticker(text)
	}

	if s := strings.TrimSpace(a.Fields.Strength); s != "" {
		f.Strength = extract.Strength(s)
		if extract.IsUnresolved(f.Strength) {
			f.Strength = s
		}
	} else {
		f.Strength = extract.Strength(text)
	}
	return f
}

func (r *Relay) render(ctx context.Context, in format.Input, now time.Time) (string, bool) {
	msg, err := r.formatter.Format(in, now)
	if err == nil {
		return msg, false
	}
	r.metrics.FallbackFormats.Inc()
	slog.Warn("format failed, using fallback", r.attrs(ctx, "category", string(in.Category), "error", err)...)
	return r.formatter.Fallback(in.Raw, now), true
}

func (r *Relay) dispatch(ctx context.Context, text string) (Outcome, error) {
	start := time.Now()
	err := r.notifier.Send(ctx, notification.Message{Text: text})
	r.metrics.DispatchDur.Observe(time.Since(start).Seconds())

	var de *notification.DeliveryError
	switch {
	case err == nil:
		r.metrics.DispatchTotal.WithLabelValues(metrics.ResultDelivered).Inc()
		r.health.RecordDispatch(r.now(), true)
		slog.Info("alert delivered", r.attrs(ctx)...)
		return Delivered, nil
	case errors.Is(err, notification.ErrNotConfigured):
		r.metrics.DispatchTotal.WithLabelValues(metrics.ResultNotConfigured).Inc()
		slog.Error("bot not configured", r.attrs(ctx)...)
		return NotConfigured, err
	case errors.As(err, &de):
		slog.Error("delivery rejected", r.attrs(ctx, "status", de.Status, "body", de.Body)...)
	default:
		slog.Error("delivery failed", r.attrs(ctx, "error", err)...)
	}
	r.metrics.DispatchTotal.WithLabelValues(metrics.ResultFailed).Inc()
	r.health.RecordDispatch(r.now(), false)
	return DeliveryFailed, err
}

func (r *Relay) attrs(ctx context.Context, kv ...any) []any {
	out := append([]any{"component", "relay"}, logger.LogWithTrace(ctx)...)
	return append(out, kv...)
}

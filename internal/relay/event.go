package relay

import (
	"context"
	"time"
)

// Event is the live feed record of one handled payload.
type Event struct {
	TraceID  string    `json:"trace_id"`
	Time     time.Time `json:"time"`
	Outcome  Outcome   `json:"outcome"`
	Category string    `json:"category,omitempty"`
	Ticker   string    `json:"ticker,omitempty"`
	Message  string    `json:"message,omitempty"`
	Fallback bool      `json:"fallback,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// EventSink receives events after each payload. Publish must not block the
// request for long.
type EventSink interface {
	Publish(ctx context.Context, ev Event)
}

type discard struct{}

func (discard) Publish(context.Context, Event) {}

func (r *Relay) publish(ctx context.Context, now time.Time, res Result) {
	ev := Event{
		TraceID:  res.TraceID,
		Time:     now.UTC(),
		Outcome:  res.Outcome,
		Category: string(res.Category),
		Ticker:   res.Ticker,
		Message:  res.Message,
		Fallback: res.Fallback,
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	r.events.Publish(ctx, ev)
}

package dedup

import (
	"context"
	"log/slog"
	"time"
)

// FallbackStore routes checks to a shared primary store through a circuit
// breaker and answers from a local secondary store whenever the primary
// fails or the breaker is open. A backend error never suppresses an alert
// on its own.
type FallbackStore struct {
	primary   Store
	secondary Store
	breaker   *CircuitBreaker

	// OnFallback is called each time the secondary answers a check.
	OnFallback func(err error)
}

// NewFallbackStore wires primary and secondary behind breaker.
func NewFallbackStore(primary, secondary Store, breaker *CircuitBreaker) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary, breaker: breaker}
}

// Breaker exposes the breaker for health reporting.
func (f *FallbackStore) Breaker() *CircuitBreaker { return f.breaker }

func (f *FallbackStore) CheckAndInsert(ctx context.Context, fp string, now time.Time) (bool, error) {
	var dup bool
	err := f.breaker.Execute(func() error {
		var err error
		dup, err = f.primary.CheckAndInsert(ctx, fp, now)
		return err
	})
	if err == nil {
		return dup, nil
	}

	slog.Warn("dedup primary unavailable, using local cache",
		"component", "dedup",
		"error", err,
		"breaker", f.breaker.CurrentState().String(),
	)
	if f.OnFallback != nil {
		f.OnFallback(err)
	}
	return f.secondary.CheckAndInsert(ctx, fp, now)
}

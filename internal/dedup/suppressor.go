package dedup

import (
	"context"
	"log/slog"
	"time"
)

// Suppressor gates dispatch on a Store.
type Suppressor struct {
	store Store
}

// NewSuppressor creates a Suppressor over store.
func NewSuppressor(store Store) *Suppressor {
	return &Suppressor{store: store}
}

// ShouldSuppress reports whether message repeats one seen inside the window,
// registering its fingerprint when it does not. A store error lets the
// message through.
func (s *Suppressor) ShouldSuppress(ctx context.Context, message string, now time.Time) bool {
	fp := Fingerprint(message)
	dup, err := s.store.CheckAndInsert(ctx, fp, now)
	if err != nil {
		slog.Error("dedup check failed, letting alert through",
			"component", "dedup",
			"fingerprint", fp[:12],
			"error", err,
		)
		return false
	}
	return dup
}

package dedup

import (
	"errors"
	"testing"
	"time"
)

// fakeClock lets breaker tests move time without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(max int, reset time.Duration) (*CircuitBreaker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(max, reset)
	cb.now = clk.Now
	return cb, clk
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Second)
	if cb.CurrentState() != StateClosed {
		t.Errorf("expected Closed, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Second)
	errFail := errors.New("fail")

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return errFail }); err != errFail {
			t.Fatalf("expected errFail, got %v", err)
		}
	}
	if cb.CurrentState() != StateOpen {
		t.Errorf("expected Open after 3 failures, got %v", cb.CurrentState())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clk := newTestBreaker(2, time.Second)
	errFail := errors.New("fail")
	for i := 0; i < 2; i++ {
		cb.Execute(func() error { return errFail })
	}

	clk.Advance(2 * time.Second)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if cb.CurrentState() != StateClosed {
		t.Errorf("expected Closed after successful probe, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clk := newTestBreaker(2, time.Second)
	errFail := errors.New("fail")
	for i := 0; i < 2; i++ {
		cb.Execute(func() error { return errFail })
	}

	clk.Advance(2 * time.Second)
	cb.Execute(func() error { return errFail })
	if cb.CurrentState() != StateOpen {
		t.Errorf("expected Open after failed probe, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Second)
	errFail := errors.New("fail")

	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return errFail })

	if cb.CurrentState() != StateClosed {
		t.Errorf("expected Closed (counter should have reset), got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, clk := newTestBreaker(1, time.Second)
	var transitions []BreakerState
	cb.OnStateChange = func(from, to BreakerState) {
		transitions = append(transitions, to)
	}

	cb.Execute(func() error { return errors.New("fail") })
	clk.Advance(2 * time.Second)
	cb.Execute(func() error { return nil })

	want := []BreakerState{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestBreakerState_String(t *testing.T) {
	if StateHalfOpen.String() != "half-open" || BreakerState(9).String() != "unknown" {
		t.Fatal("unexpected state names")
	}
}

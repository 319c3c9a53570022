package dedup

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	StateClosed   BreakerState = 0 // calls pass through
	StateOpen     BreakerState = 1 // calls rejected until the reset timeout
	StateHalfOpen BreakerState = 2 // one probe allowed
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("dedup: circuit breaker is open")

// CircuitBreaker stops calling a failing backend. After maxFailures
// consecutive failures it opens for resetTimeout, then lets one probe
// through: success closes it, failure reopens it.
type CircuitBreaker struct {
	mu           sync.Mutex
	state        BreakerState
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time
	now          func() time.Time

	// OnStateChange is called on every transition, under the breaker lock.
	OnStateChange func(from, to BreakerState)
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
		now:          time.Now,
	}
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
			cb.transition(StateHalfOpen)
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.transition(StateOpen)
		}
		return err
	}

	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
	}
	cb.failures = 0
	return nil
}

// CurrentState returns the breaker state.
func (cb *CircuitBreaker) CurrentState() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transition(to BreakerState) {
	from := cb.state
	cb.state = to
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.OnStateChange != nil {
		cb.OnStateChange(from, to)
	}
}

package gateway

import "sync"

type replayEntry struct {
	Seq  int64
	Data []byte // pre-built envelope JSON
}

// ReplayBuffer keeps the last N feed envelopes so a dashboard that connects
// (or reconnects) can catch up. Thread-safe.
type ReplayBuffer struct {
	mu   sync.RWMutex
	buf  []replayEntry
	pos  int // next write position
	full bool
}

// NewReplayBuffer creates a replay buffer. A non-positive capacity disables
// replay: Push keeps nothing.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &ReplayBuffer{buf: make([]replayEntry, capacity)}
}

// Cap returns the buffer capacity.
func (rb *ReplayBuffer) Cap() int { return len(rb.buf) }

// Push stores an envelope, evicting the oldest when full.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	if len(rb.buf) == 0 {
		return
	}
	rb.mu.Lock()
	defer rb.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)

	rb.buf[rb.pos] = replayEntry{Seq: seq, Data: cp}
	rb.pos = (rb.pos + 1) % len(rb.buf)
	if rb.pos == 0 {
		rb.full = true
	}
}

// Since returns envelopes with seq > after, oldest first.
func (rb *ReplayBuffer) Since(after int64) [][]byte {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var out [][]byte
	n := rb.len()
	start := 0
	if rb.full {
		start = rb.pos
	}
	for i := 0; i < n; i++ {
		e := rb.buf[(start+i)%len(rb.buf)]
		if e.Seq > after {
			out = append(out, e.Data)
		}
	}
	return out
}

// Len returns the number of entries currently held.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.len()
}

func (rb *ReplayBuffer) len() int {
	if rb.full {
		return len(rb.buf)
	}
	return rb.pos
}

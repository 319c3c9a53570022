package gateway

import (
	"strconv"
	"testing"
)

func push(rb *ReplayBuffer, from, to int64) {
	for i := from; i <= to; i++ {
		rb.Push(i, []byte(strconv.FormatInt(i, 10)))
	}
}

func TestReplayBuffer_Since(t *testing.T) {
	rb := NewReplayBuffer(100)
	push(rb, 1, 10)

	got := rb.Since(7)
	if len(got) != 3 {
		t.Fatalf("Since(7): expected 3, got %d", len(got))
	}
	for i, d := range got {
		if want := strconv.Itoa(8 + i); string(d) != want {
			t.Errorf("entry[%d] = %s, want %s", i, d, want)
		}
	}
}

func TestReplayBuffer_Wraparound(t *testing.T) {
	rb := NewReplayBuffer(5)
	push(rb, 1, 8)

	if rb.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", rb.Len())
	}
	got := rb.Since(0)
	if len(got) != 5 {
		t.Fatalf("Since(0): expected 5, got %d", len(got))
	}
	if string(got[0]) != "4" || string(got[4]) != "8" {
		t.Errorf("expected oldest 4 and newest 8, got %s and %s", got[0], got[4])
	}
}

func TestReplayBuffer_CopiesInput(t *testing.T) {
	rb := NewReplayBuffer(2)
	data := []byte("a")
	rb.Push(1, data)
	data[0] = 'b'
	if got := rb.Since(0); string(got[0]) != "a" {
		t.Fatalf("buffer should hold its own copy, got %s", got[0])
	}
}

func TestReplayBuffer_Disabled(t *testing.T) {
	rb := NewReplayBuffer(0)
	push(rb, 1, 3)
	if rb.Len() != 0 || len(rb.Since(0)) != 0 {
		t.Fatal("zero-capacity buffer should keep nothing")
	}
}

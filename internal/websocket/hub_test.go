package websocket

import (
	"fmt"
	"testing"
)

func TestPublishBuffersBursts(t *testing.T) {
	h := NewHub()

	// A burst of concurrent transitions must not lose events just because
	// the dispatch loop has not drained the channel yet.
	const n = 50
	for i := 0; i < n; i++ {
		h.Publish(Event{Type: "NOTIFICATION", Message: fmt.Sprintf("event %d", i)})
	}

	if got := len(h.Broadcast); got != n {
		t.Fatalf("buffered events = %d, want %d", got, n)
	}
}

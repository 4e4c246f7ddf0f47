package relay

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRelay is an in-process CodeRelay. It backs tests and
// single-process deployments where the popup callback handler and the
// flow controllers share one process.
type MemoryRelay struct {
	mu      sync.Mutex
	values  map[string]string
	waiters map[string]chan string
}

// NewMemoryRelay initializes an empty in-memory relay.
func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{
		values:  make(map[string]string),
		waiters: make(map[string]chan string),
	}
}

// Publish stores code under key. A registered listener consumes it
// immediately; without one the value sits until the next Subscribe
// discards it as stale.
func (r *MemoryRelay) Publish(ctx context.Context, key, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.waiters[key]; ok {
		delete(r.waiters, key)
		ch <- code
		close(ch)
		return nil
	}

	r.values[key] = code
	return nil
}

// Subscribe registers a one-shot listener for key. Only one listener
// per key may be live at a time.
func (r *MemoryRelay) Subscribe(ctx context.Context, key string) (<-chan string, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.waiters[key]; ok {
		return nil, nil, fmt.Errorf("relay key '%s' already has a listener", key)
	}

	ch := make(chan string, 1)

	// A value published before the listener armed is a leftover from an
	// abandoned session; a fresh listener must only see its own
	// redirect.
	delete(r.values, key)

	r.waiters[key] = ch
	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if waiter, ok := r.waiters[key]; ok && waiter == ch {
			delete(r.waiters, key)
			close(waiter)
		}
	}
	return ch, cancel, nil
}

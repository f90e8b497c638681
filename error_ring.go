package bloc

import "sync"

// errorRing is a thread-safe ring buffer of recent processing errors.
type errorRing struct {
	mu      sync.RWMutex
	entries []ProcessingError
	size    int
	head    int
	count   int
}

// newErrorRing creates an error ring with the given capacity.
// If size is 0, the ring is disabled and all methods are no-ops.
func newErrorRing(size int) *errorRing {
	if size <= 0 {
		return nil
	}
	return &errorRing{
		entries: make([]ProcessingError, size),
		size:    size,
	}
}

// push records a processing error, evicting the oldest entry when full.
func (r *errorRing) push(e ProcessingError) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = e
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// all returns the recorded errors, oldest first.
func (r *errorRing) all() []ProcessingError {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	out := make([]ProcessingError, r.count)
	start := (r.head - r.count + r.size) % r.size
	for i := 0; i < r.count; i++ {
		out[i] = r.entries[(start+i)%r.size]
	}
	return out
}

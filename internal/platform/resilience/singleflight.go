package resilience

import "sync"

type flight struct {
	done chan struct{}
	val  any
	err  error
}

// SingleFlight coalesces concurrent calls that share a key: the first
// caller runs fn, the rest wait and receive the same result. The zero
// value is ready to use.
type SingleFlight struct {
	mu       sync.Mutex
	inflight map[string]*flight
}

// Do returns fn's result for key. The shared flag is true for callers
// that piggybacked on another caller's in-progress fn.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (val any, err error, shared bool) {
	g.mu.Lock()
	if f, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}

	f := &flight{done: make(chan struct{})}
	if g.inflight == nil {
		g.inflight = make(map[string]*flight)
	}
	g.inflight[key] = f
	g.mu.Unlock()

	f.val, f.err = fn()

	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()
	close(f.done)

	return f.val, f.err, false
}

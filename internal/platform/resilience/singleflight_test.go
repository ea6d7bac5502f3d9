package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CoalescesConcurrentCallers(t *testing.T) {
	t.Parallel()

	var group SingleFlight
	var executions atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _, _ = group.Do("movie:603", func() (any, error) {
			close(started)
			<-release
			executions.Add(1)
			return "The Matrix", nil
		})
	}()
	<-started

	const waiters = 4
	var wg sync.WaitGroup
	shared := make([]bool, waiters)
	values := make([]any, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i], _, shared[i] = group.Do("movie:603", func() (any, error) {
				executions.Add(1)
				return "The Matrix", nil
			})
		}(i)
	}

	// Give every waiter time to park on the in-flight call before it
	// is released.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected one execution for the shared key, got %d", got)
	}
	for i := 0; i < waiters; i++ {
		if !shared[i] {
			t.Fatalf("waiter %d should report a shared result", i)
		}
		if values[i] != "The Matrix" {
			t.Fatalf("waiter %d got %v", i, values[i])
		}
	}
}

func TestSingleFlight_RerunsAfterCompletion(t *testing.T) {
	t.Parallel()

	var group SingleFlight
	calls := 0
	load := func() (any, error) {
		calls++
		return calls, nil
	}

	first, _, shared := group.Do("club:cedar-room", load)
	if shared || first != 1 {
		t.Fatalf("first call should run fn: value=%v shared=%v", first, shared)
	}

	second, _, shared := group.Do("club:cedar-room", load)
	if shared || second != 2 {
		t.Fatalf("second call should run fn again: value=%v shared=%v", second, shared)
	}
}

func TestSingleFlight_DistinctKeysDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	var group SingleFlight
	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _, _ = group.Do("movie:238", func() (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started
	defer close(release)

	value, err, shared := group.Do("movie:240", func() (any, error) {
		return "The Godfather Part II", nil
	})
	if err != nil || shared {
		t.Fatalf("distinct key should run immediately: err=%v shared=%v", err, shared)
	}
	if value != "The Godfather Part II" {
		t.Fatalf("unexpected value %v", value)
	}
}

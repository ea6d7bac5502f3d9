package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(threshold, probes int, openFor time.Duration) (*CircuitBreaker, *time.Time) {
	breaker := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      openFor,
		HalfOpenMaxReq:   probes,
	})
	at := time.Date(2026, time.March, 7, 20, 0, 0, 0, time.UTC)
	breaker.clock = func() time.Time { return at }
	return breaker, &at
}

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	breaker, _ := newTestBreaker(3, 1, 30*time.Second)

	for i := 0; i < 2; i++ {
		if err := breaker.Allow(); err != nil {
			t.Fatalf("request %d should pass while closed: %v", i, err)
		}
		breaker.RecordFailure()
	}
	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("expected closed below the threshold, got %s", got)
	}

	breaker.RecordFailure()
	if got := breaker.State(); got != CircuitStateOpen {
		t.Fatalf("expected open after third failure, got %s", got)
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureRun(t *testing.T) {
	t.Parallel()

	breaker, _ := newTestBreaker(2, 1, 30*time.Second)

	breaker.RecordFailure()
	breaker.RecordSuccess()
	breaker.RecordFailure()
	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("interleaved success should reset the run, got %s", got)
	}
}

func TestCircuitBreaker_ProbeClosesAfterOpenWindow(t *testing.T) {
	t.Parallel()

	breaker, at := newTestBreaker(1, 1, 30*time.Second)

	breaker.RecordFailure()
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected rejection inside the open window, got %v", err)
	}

	*at = at.Add(31 * time.Second)
	if got := breaker.State(); got != CircuitStateHalfOpen {
		t.Fatalf("expected half-open once the window elapsed, got %s", got)
	}

	if err := breaker.Allow(); err != nil {
		t.Fatalf("the probe should be admitted: %v", err)
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("a second concurrent probe should be rejected, got %v", err)
	}

	breaker.RecordSuccess()
	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("a winning probe should close the breaker, got %s", got)
	}
	if err := breaker.Allow(); err != nil {
		t.Fatalf("closed breaker should admit requests: %v", err)
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	t.Parallel()

	breaker, at := newTestBreaker(1, 1, 30*time.Second)

	breaker.RecordFailure()
	*at = at.Add(31 * time.Second)
	if err := breaker.Allow(); err != nil {
		t.Fatalf("the probe should be admitted: %v", err)
	}

	breaker.RecordFailure()
	if got := breaker.State(); got != CircuitStateOpen {
		t.Fatalf("a failed probe should reopen the breaker, got %s", got)
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected rejection after the probe failed, got %v", err)
	}
}

func TestNormalizeCircuitBreakerConfig_FillsBadFields(t *testing.T) {
	t.Parallel()

	got := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 0,
		OpenTimeout:      -time.Second,
		HalfOpenMaxReq:   0,
	})
	want := DefaultCircuitBreakerConfig()
	if got != want {
		t.Fatalf("normalized config mismatch: got %+v want %+v", got, want)
	}

	tuned := CircuitBreakerConfig{Enabled: false, FailureThreshold: 8, OpenTimeout: time.Minute, HalfOpenMaxReq: 3}
	if got := NormalizeCircuitBreakerConfig(tuned); got != tuned {
		t.Fatalf("in-range config should pass through unchanged: got %+v", got)
	}
}

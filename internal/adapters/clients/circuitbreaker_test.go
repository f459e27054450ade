package clients

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
)

// fakeClock drives a breaker's cool-down without sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func (f *fakeClock) install(cb *CircuitBreaker) { cb.now = f.now }

func newTestBreaker(maxFailures, halfOpenLimit int) (*CircuitBreaker, *fakeClock) {
	cb := NewCircuitBreaker(config.CircuitBreakerConfig{
		MaxFailures:   maxFailures,
		Timeout:       30 * time.Second,
		HalfOpenLimit: halfOpenLimit,
	})

	clock := &fakeClock{t: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
	clock.install(cb)

	return cb, clock
}

// tripped returns a breaker that has just opened.
func tripped(t *testing.T, halfOpenLimit int) (*CircuitBreaker, *fakeClock) {
	t.Helper()

	cb, clock := newTestBreaker(1, halfOpenLimit)
	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	return cb, clock
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb, _ := newTestBreaker(5, 3)

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
	assert.Zero(t, cb.RetryIn())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, 1)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State(), "a success resets the count")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_RetryInCountsDown(t *testing.T) {
	cb, clock := tripped(t, 1)

	assert.Equal(t, 30*time.Second, cb.RetryIn())

	clock.advance(20 * time.Second)
	assert.Equal(t, 10*time.Second, cb.RetryIn())

	clock.advance(time.Minute)
	assert.Zero(t, cb.RetryIn())
}

func TestCircuitBreaker_HalfOpenProbes(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []bool
		want     State
	}{
		{"all probes pass", []bool{true, true}, StateClosed},
		{"one probe passes", []bool{true}, StateHalfOpen},
		{"probe fails", []bool{true, false}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := tripped(t, 2)
			clock.advance(31 * time.Second)

			require.True(t, cb.Allow())
			require.Equal(t, StateHalfOpen, cb.State())
			require.True(t, cb.Allow())
			assert.False(t, cb.Allow(), "probe limit reached")

			for _, ok := range tt.outcomes {
				if ok {
					cb.RecordSuccess()
				} else {
					cb.RecordFailure()
				}
			}

			assert.Equal(t, tt.want, cb.State())
		})
	}
}

func TestCircuitBreaker_ReopenRestartsCoolDown(t *testing.T) {
	cb, clock := tripped(t, 1)

	clock.advance(31 * time.Second)
	require.True(t, cb.Allow())
	cb.RecordFailure()

	assert.Equal(t, 30*time.Second, cb.RetryIn())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, clock := newTestBreaker(1, 1)

	var transitions []string
	cb.OnStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	cb.RecordFailure()
	clock.advance(31 * time.Second)
	cb.Allow()
	cb.RecordSuccess()

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestCircuitBreaker_CallbackMayReadState(t *testing.T) {
	cb, _ := newTestBreaker(1, 1)

	var seen State
	cb.OnStateChange(func(_, _ State) { seen = cb.State() })

	cb.RecordFailure()

	assert.Equal(t, StateOpen, seen)
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(config.CircuitBreakerConfig{
		MaxFailures:   100,
		Timeout:       time.Second,
		HalfOpenLimit: 10,
	})

	var wg sync.WaitGroup
	for i := range 1000 {
		wg.Go(func() {
			if !cb.Allow() {
				return
			}

			if i%2 == 0 {
				cb.RecordSuccess()
			} else {
				cb.RecordFailure()
			}
		})
	}
	wg.Wait()

	assert.Contains(t, []State{StateClosed, StateOpen, StateHalfOpen}, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}

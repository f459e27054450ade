package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls with ErrCircuitOpen until the cool-down ends.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

var stateNames = map[State]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}

// CircuitBreaker guards one AI provider. While the provider keeps failing,
// queued recordings fail fast instead of holding a worker for the whole
// retry budget.
//
// MaxFailures consecutive failures open the circuit. After Timeout the next
// call is let through as a probe; HalfOpenLimit consecutive probe successes
// close it again and any probe failure reopens it.
type CircuitBreaker struct {
	cfg config.CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	probes   int // in flight while half-open
	passed   int // consecutive probe successes
	openedAt time.Time
	notify   func(from, to State)
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to be called after every transition, outside
// the breaker's lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.notify = fn
	cb.mu.Unlock()
}

// Allow reports whether a call may proceed. An open circuit whose cool-down
// has elapsed turns half-open and admits the caller as the first probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		allowed bool
		change  func()
	)

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
			change = cb.moveTo(StateHalfOpen)
			cb.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenLimit {
			cb.probes++
			allowed = true
		}
	}

	cb.mu.Unlock()
	run(change)

	return allowed
}

// RecordSuccess reports a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var change func()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.passed++

		if cb.passed >= cb.cfg.HalfOpenLimit {
			change = cb.moveTo(StateClosed)
		}
	case StateOpen:
	}

	cb.mu.Unlock()
	run(change)
}

// RecordFailure reports a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var change func()

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.cfg.MaxFailures {
			change = cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		change = cb.moveTo(StateOpen)
	case StateOpen:
	}

	cb.mu.Unlock()
	run(change)
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// RetryIn is how long an open circuit keeps rejecting calls; zero otherwise.
func (cb *CircuitBreaker) RetryIn() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return 0
	}

	return max(cb.cfg.Timeout-cb.now().Sub(cb.openedAt), 0)
}

// moveTo switches state and resets the counters. It must be called with
// the lock held and returns the notification to run once it is released.
func (cb *CircuitBreaker) moveTo(to State) func() {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.passed = 0

	if to == StateOpen {
		cb.openedAt = cb.now()
	}

	if notify := cb.notify; notify != nil {
		return func() { notify(from, to) }
	}

	return nil
}

func run(fn func()) {
	if fn != nil {
		fn()
	}
}

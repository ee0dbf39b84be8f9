package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is how a finished call is recorded.
type Outcome int

const (
	Success Outcome = iota
	Failure
	// Ignored calls say nothing about the backend, such as ones the
	// caller abandoned.
	Ignored
)

// CircuitBreaker opens after more than maxFailures failures inside window
// and stays open for timeout. After that it is half-open: calls are let
// through, and the first one to settle closes or reopens the breaker.
// Concurrent calls started while half-open all get through.
//
// Calls are not serialized: the lock is only held while bookkeeping.
type CircuitBreaker struct {
	maxFailures     int
	window          time.Duration
	timeout         time.Duration
	failures        []time.Time
	lastFailureTime time.Time
	state           State
	mu              sync.Mutex

	now func() time.Time
}

func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreakerWithWindow(maxFailures, timeout, 60*time.Second)
}

func NewCircuitBreakerWithWindow(maxFailures int, timeout time.Duration, window time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		window:      window,
		timeout:     timeout,
		state:       StateClosed,
		failures:    make([]time.Time, 0),
		now:         time.Now,
	}
}

// Execute runs fn unless the breaker is open, in which case it returns
// ErrOpen without calling fn. A nil error is a Success; otherwise classify
// decides, and a nil classify makes every error a Failure.
func (cb *CircuitBreaker) Execute(fn func() error, classify func(error) Outcome) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn()
	outcome := Success
	if err != nil {
		outcome = Failure
		if classify != nil {
			outcome = classify(err)
		}
	}
	cb.record(outcome)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailureTime) < cb.timeout {
			return ErrOpen
		}
		cb.state = StateHalfOpen
		cb.failures = cb.failures[:0]
	}
	return nil
}

func (cb *CircuitBreaker) record(outcome Outcome) {
	if outcome == Ignored {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.state {
	case StateHalfOpen:
		if outcome == Failure {
			cb.state = StateOpen
			cb.lastFailureTime = now
		} else {
			cb.state = StateClosed
			cb.failures = cb.failures[:0]
		}
		return
	case StateOpen:
		// late result of a half-open batch that already reopened
		return
	}

	if outcome == Failure {
		cb.lastFailureTime = now
		cb.failures = append(cb.failures, now)
	}
	cb.cleanOldFailures(now)

	if len(cb.failures) > cb.maxFailures {
		cb.state = StateOpen
	}
}

func (cb *CircuitBreaker) cleanOldFailures(now time.Time) {
	cutoff := now.Add(-cb.window)
	keep := 0
	for keep < len(cb.failures) && !cb.failures[keep].After(cutoff) {
		keep++
	}
	cb.failures = cb.failures[keep:]
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the number of failures counted inside the window.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.cleanOldFailures(cb.now())
	return len(cb.failures)
}

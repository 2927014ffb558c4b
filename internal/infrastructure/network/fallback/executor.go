package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/pkg/metrics"
)

const (
	// DefaultTimeout bounds a single endpoint attempt of a read.
	DefaultTimeout = 5000 * time.Millisecond
	// SessionKitTimeout bounds a single attempt at building a wallet session kit.
	SessionKitTimeout = 3000 * time.Millisecond
)

var (
	// ErrAllEndpointsFailed is matched by the error returned when every endpoint failed.
	ErrAllEndpointsFailed = errors.New("all endpoints failed")
	// ErrNoEndpoints is returned when the executor has nothing to try.
	ErrNoEndpoints = errors.New("no endpoints configured")
	// ErrAttemptTimeout marks an attempt abandoned after its deadline.
	ErrAttemptTimeout = errors.New("attempt timed out")
)

// AttemptError is the failure of one endpoint.
type AttemptError struct {
	Endpoint string
	Err      error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

// ExhaustedError reports that an operation failed on every endpoint.
// It matches ErrAllEndpointsFailed and wraps the last underlying error.
type ExhaustedError struct {
	Operation string
	Attempts  []AttemptError
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("%s: %v", e.Operation, ErrNoEndpoints)
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("%s: %v after %d attempts, last error: %v", e.Operation, ErrAllEndpointsFailed, len(e.Attempts), last.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	if len(e.Attempts) == 0 {
		return []error{ErrAllEndpointsFailed, ErrNoEndpoints}
	}
	return []error{ErrAllEndpointsFailed, e.Attempts[len(e.Attempts)-1].Err}
}

// Last returns the last underlying error, or nil.
func (e *ExhaustedError) Last() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Executor tries an operation against an ordered endpoint list, one endpoint at a time.
type Executor struct {
	endpoints []string
	timeout   time.Duration
	logger    port.Logger
	metrics   *metrics.Metrics
}

// NewExecutor creates an executor. A non-positive timeout selects DefaultTimeout.
func NewExecutor(endpoints []string, timeout time.Duration, logger port.Logger, m *metrics.Metrics) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	eps := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		if ep = strings.TrimSpace(ep); ep != "" {
			eps = append(eps, ep)
		}
	}
	return &Executor{endpoints: eps, timeout: timeout, logger: logger, metrics: m}
}

// WithEndpoints returns a copy of the executor bound to other endpoints.
func (e *Executor) WithEndpoints(endpoints []string) *Executor {
	return NewExecutor(endpoints, e.timeout, e.logger, e.metrics)
}

// WithTimeout returns a copy of the executor with another attempt timeout.
func (e *Executor) WithTimeout(timeout time.Duration) *Executor {
	return NewExecutor(e.endpoints, timeout, e.logger, e.metrics)
}

// Endpoints returns the endpoints in the order they are tried.
func (e *Executor) Endpoints() []string {
	return append([]string(nil), e.endpoints...)
}

// Timeout returns the per-attempt timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Run calls op for each endpoint in order until one succeeds.
// Every attempt gets its own deadline; an op that does not return by then is abandoned
// and the next endpoint is tried. Cancellation of ctx stops the loop.
func Run[T any](ctx context.Context, e *Executor, operation string, op func(ctx context.Context, endpoint string) (T, error)) (T, error) {
	var zero T
	exhausted := &ExhaustedError{Operation: operation}
	if len(e.endpoints) == 0 {
		return zero, exhausted
	}

	for i, endpoint := range e.endpoints {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: %w", operation, err)
		}

		start := time.Now()
		v, err := attempt(ctx, e.timeout, endpoint, op)
		elapsed := time.Since(start)

		if err == nil {
			e.metrics.ObserveAttempt(operation, "success", elapsed)
			if i > 0 {
				e.logger.Info("Operation succeeded on fallback endpoint", "operation", operation, "endpoint", endpoint, "attempt", i+1)
			}
			return v, nil
		}

		outcome := "error"
		if errors.Is(err, ErrAttemptTimeout) {
			outcome = "timeout"
		}
		e.metrics.ObserveAttempt(operation, outcome, elapsed)
		e.logger.Warn("Endpoint attempt failed", "operation", operation, "endpoint", endpoint, "attempt", i+1, "error", err)
		exhausted.Attempts = append(exhausted.Attempts, AttemptError{Endpoint: endpoint, Err: err})

		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w", operation, ctx.Err())
		}
	}

	e.logger.Error("All endpoints failed", "operation", operation, "attempts", len(exhausted.Attempts), "error", exhausted.Last())
	return zero, exhausted
}

func attempt[T any](ctx context.Context, timeout time.Duration, endpoint string, op func(ctx context.Context, endpoint string) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := op(attemptCtx, endpoint)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return r.v, fmt.Errorf("%w after %s: %v", ErrAttemptTimeout, timeout, r.err)
		}
		return r.v, r.err
	case <-attemptCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w after %s", ErrAttemptTimeout, timeout)
	}
}

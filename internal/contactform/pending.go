package contactform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tsukikage-sato/contact-web/internal/models"
	apperrors "github.com/tsukikage-sato/contact-web/pkg/errors"
	"github.com/tsukikage-sato/contact-web/pkg/metrics"
)

var (
	// ErrTooManyPending is returned by Register when the registry is full
	ErrTooManyPending = fmt.Errorf("too many pending submissions: %w", apperrors.ErrCapacity)

	// ErrDuplicateRequest is returned when a request ID is registered twice
	ErrDuplicateRequest = apperrors.ConflictError("request already pending")

	// ErrNotPending is returned by Wait for an unknown or already finished request
	ErrNotPending = apperrors.NotFoundError("pending request")

	// ErrPendingTimeout is returned by Wait when no outcome arrives in time
	ErrPendingTimeout = fmt.Errorf("no endpoint result before timeout: %w", context.DeadlineExceeded)
)

// Outcome is what a delivery produced for one request
type Outcome struct {
	Response models.EndpointResponse
	Err      error
}

// Registry correlates in-flight deliveries with their results by request ID.
// It holds at most capacity entries. An entry is removed once its waiter has
// the outcome, times out, or gives up.
type Registry struct {
	mu       sync.Mutex
	pending  map[string]chan Outcome
	capacity int
}

// NewRegistry creates a registry bounded to capacity entries
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = 1
	}
	return &Registry{
		pending:  make(map[string]chan Outcome, capacity),
		capacity: capacity,
	}
}

// Register reserves a slot for requestID
func (r *Registry) Register(requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[requestID]; exists {
		return ErrDuplicateRequest
	}
	if len(r.pending) >= r.capacity {
		return ErrTooManyPending
	}

	// Buffered so Resolve never blocks on a waiter
	r.pending[requestID] = make(chan Outcome, 1)
	metrics.PendingSubmissions.Set(float64(len(r.pending)))
	return nil
}

// Resolve hands the outcome to the waiter for requestID. It returns false if
// the request is no longer pending or was already resolved.
func (r *Registry) Resolve(requestID string, outcome Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.pending[requestID]
	if !ok {
		return false
	}
	select {
	case ch <- outcome:
		return true
	default:
		return false
	}
}

// Wait blocks until requestID is resolved, timeout elapses, or ctx is done.
// Each request has a single waiter, and the entry is gone when Wait returns.
func (r *Registry) Wait(ctx context.Context, requestID string, timeout time.Duration) (Outcome, error) {
	r.mu.Lock()
	ch, ok := r.pending[requestID]
	r.mu.Unlock()
	if !ok {
		return Outcome{}, ErrNotPending
	}
	defer r.forget(requestID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case outcome := <-ch:
		return outcome, nil
	case <-timer.C:
		return r.late(requestID, ch, ErrPendingTimeout)
	case <-ctx.Done():
		return r.late(requestID, ch, ctx.Err())
	}
}

// late drops requestID, preferring an outcome that raced in with the deadline
func (r *Registry) late(requestID string, ch chan Outcome, cause error) (Outcome, error) {
	r.forget(requestID)
	select {
	case outcome := <-ch:
		return outcome, nil
	default:
		return Outcome{}, cause
	}
}

// Len returns the number of pending requests
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Registry) forget(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[requestID]; ok {
		delete(r.pending, requestID)
		metrics.PendingSubmissions.Set(float64(len(r.pending)))
	}
}

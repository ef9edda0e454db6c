package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

func TestGuardRetriesUnavailableOnce(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	err := exec.Guard(context.Background(), "store", func(context.Context) error {
		attempts++
		return domain.WrapError(domain.ErrCollaboratorUnavailable, "query", errors.New("connection refused"))
	})
	if !domain.IsKind(err, domain.ErrCollaboratorUnavailable) {
		t.Fatalf("expected collaborator unavailable, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestGuardMapsAttemptTimeoutToStrategyTimeout(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		AttemptTimeout:      10 * time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	err := exec.Guard(context.Background(), "index", func(ctx context.Context) error {
		attempts++
		<-ctx.Done()
		return ctx.Err()
	})
	if !domain.IsKind(err, domain.ErrStrategyTimeout) {
		t.Fatalf("expected strategy timeout, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected attempt timeout to be retried once, got %d attempts", attempts)
	}
}

func TestGuardWrapsUntypedErrors(t *testing.T) {
	exec := NewExecutor(Config{RetryMaxAttempts: 1, BreakerEnabled: false})
	err := exec.Guard(context.Background(), "embed", func(context.Context) error {
		return errors.New("boom")
	})
	if !domain.IsKind(err, domain.ErrCollaboratorUnavailable) {
		t.Fatalf("expected collaborator unavailable, got %v", err)
	}
}

func TestGuardDoesNotRetryCallerCancellation(t *testing.T) {
	exec := NewExecutor(Config{RetryMaxAttempts: 3, RetryInitialBackoff: time.Millisecond, BreakerEnabled: false})
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := exec.Guard(ctx, "store", func(context.Context) error {
		attempts++
		cancel()
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestGuardOpenCircuitIsCollaboratorUnavailable(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})
	down := func(context.Context) error {
		return domain.WrapError(domain.ErrCollaboratorUnavailable, "ping", errors.New("no route to host"))
	}
	_ = exec.Guard(context.Background(), "vector_index.query", down)

	err := exec.Guard(context.Background(), "vector_index.query", func(context.Context) error {
		t.Fatalf("open circuit must short-circuit the call")
		return nil
	})
	if !IsCircuitOpen(err) || !domain.IsKind(err, domain.ErrCollaboratorUnavailable) {
		t.Fatalf("expected open circuit mapped to collaborator unavailable, got %v", err)
	}
}

package resilience

import (
	"context"
	"errors"
	"net"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// Guard runs a collaborator call through retry, attempt timeout and the
// per-operation breaker, then maps the outcome onto domain error kinds:
// attempt or deadline expiry becomes ErrStrategyTimeout, anything else that
// is not already typed becomes ErrCollaboratorUnavailable.
func (e *Executor) Guard(ctx context.Context, operation string, fn func(context.Context) error) error {
	err := e.Execute(ctx, operation, fn, ClassifyCollaboratorError)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, ErrAttemptTimeout), errors.Is(err, context.DeadlineExceeded):
		if domain.IsKind(err, domain.ErrStrategyTimeout) {
			return err
		}
		return domain.WrapError(domain.ErrStrategyTimeout, operation, err)
	case domain.IsKind(err, domain.ErrCollaboratorUnavailable),
		domain.IsKind(err, domain.ErrStrategyTimeout),
		domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrRecordNotFound):
		return err
	default:
		return domain.WrapError(domain.ErrCollaboratorUnavailable, operation, err)
	}
}

// ClassifyCollaboratorError retries unreachable collaborators and attempts
// that ran out of time. Caller cancellation is neither retried nor counted
// against the breaker.
func ClassifyCollaboratorError(err error) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, ErrAttemptTimeout) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrCollaboratorUnavailable) || domain.IsKind(err, domain.ErrStrategyTimeout) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrRecordNotFound) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

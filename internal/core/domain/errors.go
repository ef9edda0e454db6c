package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrRecordNotFound          = errors.New("record not found")
	ErrMalformedRecord         = errors.New("malformed record")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrStrategyTimeout         = errors.New("strategy timeout")
	ErrAllStrategiesFailed     = errors.New("search temporarily unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// TaskFailure describes one strategy run that did not produce candidates.
type TaskFailure struct {
	Strategy   Strategy
	Collection string
	Err        error
}

// AllStrategiesFailedError is returned when every launched strategy failed or
// timed out. It matches ErrAllStrategiesFailed with errors.Is.
type AllStrategiesFailedError struct {
	Failures []TaskFailure
}

func (e *AllStrategiesFailedError) Error() string {
	if e == nil || len(e.Failures) == 0 {
		return ErrAllStrategiesFailed.Error()
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s@%s: %v", f.Strategy, f.Collection, f.Err))
	}
	return fmt.Sprintf("%s: %s", ErrAllStrategiesFailed.Error(), strings.Join(parts, "; "))
}

func (e *AllStrategiesFailedError) Is(target error) bool {
	return target == ErrAllStrategiesFailed
}

func (e *AllStrategiesFailedError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrAllStrategiesFailed):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrMalformedRecord):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrCollaboratorUnavailable), domain.IsKind(err, domain.ErrStrategyTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps collaborator details out of 5xx bodies.
func publicErrorMessage(status int, err error) string {
	switch {
	case domain.IsKind(err, domain.ErrAllStrategiesFailed):
		return domain.ErrAllStrategiesFailed.Error()
	case status == http.StatusServiceUnavailable:
		return "dependency temporarily unavailable"
	case status >= 500:
		return http.StatusText(status)
	default:
		return err.Error()
	}
}

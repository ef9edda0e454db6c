package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "qdrant status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type queryResponse struct {
	Result struct {
		Points []scoredPoint `json:"points"`
	} `json:"result"`
}

type scrollResponse struct {
	Result struct {
		Points         []scoredPoint `json:"points"`
		NextPageOffset any           `json:"next_page_offset"`
	} `json:"result"`
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapUnavailableIfNeeded("qdrant "+operation, fmt.Errorf("qdrant %s request: %w", operation, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(msg),
		}
		return wrapUnavailableIfNeeded("qdrant "+operation, statusErr)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// wrapUnavailableIfNeeded tags transport failures and retryable statuses so
// callers can tell an unreachable index from a bad request.
func wrapUnavailableIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrCollaboratorUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return domain.WrapError(domain.ErrCollaboratorUnavailable, operation, err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrCollaboratorUnavailable, operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isStatus(err error, code int) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

func isMissingCollection(err error) bool {
	return isStatus(err, http.StatusNotFound)
}

func toMatches(points []scoredPoint) []domain.VectorMatch {
	out := make([]domain.VectorMatch, 0, len(points))
	for _, p := range points {
		out = append(out, domain.VectorMatch{
			PointID:        fmt.Sprintf("%v", p.ID),
			RecordID:       getStringPayload(p.Payload, keyRecordID),
			ChunkType:      domain.ChunkType(getStringPayload(p.Payload, keyChunkType)),
			PriorityWeight: getFloatPayload(p.Payload, keyPriorityWeight),
			Score:          p.Score,
		})
	}
	return out
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getFloatPayload(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

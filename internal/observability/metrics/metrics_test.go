package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

func TestMiddlewareNormalizesRecordPaths(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, id := range []string{"rec-1", "rec-2"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/records/"+id, nil))
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/records/{record_id}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests on the normalized path, got %v", got)
	}
}

func TestSearchObserverCountsOutcomes(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.ObserveStrategy(domain.StrategyExact, "full", "success", 3*time.Millisecond)
	m.ObserveStrategy(domain.StrategySemantic, "full", "timeout", time.Second)
	m.ObserveSearch(domain.IntentExactCode, "success", 5*time.Millisecond)
	m.ObserveSearch("", "", time.Millisecond)

	if got := testutil.ToFloat64(m.strategyTotal.WithLabelValues("api", "semantic", "full", "timeout")); got != 1 {
		t.Fatalf("expected one semantic timeout, got %v", got)
	}
	if got := testutil.ToFloat64(m.searchTotal.WithLabelValues("api", "unknown", "unknown")); got != 1 {
		t.Fatalf("expected empty labels to map to unknown, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ingsearch_strategy_runs_total") {
		t.Fatalf("expected strategy metric in exposition")
	}
}

func TestWorkerMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartEvent()
	m.FinishEvent(10*time.Millisecond, errors.New("boom"))
	m.ObserveEventLag(-time.Second)
	m.ObserveReindex("skipped")
	m.ObserveReindex("skipped")

	if got := testutil.ToFloat64(m.eventTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("expected one failed event, got %v", got)
	}
	if got := testutil.ToFloat64(m.eventInFlight); got != 0 {
		t.Fatalf("expected no in-flight events, got %v", got)
	}
	if got := testutil.ToFloat64(m.reindexTotal.WithLabelValues("worker", "skipped")); got != 2 {
		t.Fatalf("expected 2 skipped records, got %v", got)
	}
}

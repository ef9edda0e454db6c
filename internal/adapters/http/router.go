package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/ingredient-search/internal/config"
	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
	"github.com/kirillkom/ingredient-search/internal/observability/metrics"
)

const (
	maxRequestBodyBytes = 1 << 20
	backpressureWait    = 100 * time.Millisecond
	metricsServiceName  = "api"
)

type Router struct {
	cfg       config.Config
	search    ports.SearchService
	reindexer ports.Reindexer
	records   ports.RecordReader
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

func NewRouter(
	cfg config.Config,
	search ports.SearchService,
	reindexer ports.Reindexer,
	records ports.RecordReader,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:       cfg,
		search:    search,
		reindexer: reindexer,
		records:   records,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Handler assembles the mux and middleware chain. It panics if the embedded
// OpenAPI document is invalid.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /v1/search", rt.searchGet)
	mux.HandleFunc("POST /v1/search", rt.searchPost)
	mux.HandleFunc("POST /v1/reindex", rt.reindex)
	mux.HandleFunc("GET /v1/records/{record_id}", rt.getRecord)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	validator, err := loadOpenAPIRouter()
	if err != nil {
		panic(err)
	}

	var handler http.Handler = mux
	handler = requestValidationMiddleware(validator, handler)
	handler = backpressureMiddleware(handler, rt.cfg.HTTPMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.HTTPRateLimitRPS, rt.cfg.HTTPRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(metricsServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k"`
	Collection string `json:"collection"`
	Explain    bool   `json:"explain"`
}

type searchResponse struct {
	Query          string                      `json:"query"`
	Results        []domain.SearchResult       `json:"results"`
	Classification *domain.QueryClassification `json:"classification,omitempty"`
}

func (rt *Router) searchGet(w http.ResponseWriter, r *http.Request) {
	var (
		query      string
		topK       *int
		collection *string
		explain    *bool
	)
	params := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", params, &query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_k", params, &topK); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "collection", params, &collection); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "explain", params, &explain); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := searchRequest{Query: query}
	if topK != nil {
		req.TopK = *topK
	}
	if collection != nil {
		req.Collection = *collection
	}
	if explain != nil {
		req.Explain = *explain
	}
	rt.runSearch(w, r, req)
}

func (rt *Router) searchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt.runSearch(w, r, req)
}

func (rt *Router) runSearch(w http.ResponseWriter, r *http.Request, req searchRequest) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	hint, ok := domain.ParseCollectionHint(strings.ToLower(strings.TrimSpace(req.Collection)))
	if !ok {
		writeError(w, http.StatusBadRequest, "collection must be one of available, full, both")
		return
	}

	results, err := rt.search.Search(r.Context(), query, req.TopK, hint)
	if err != nil {
		rt.writeDomainError(w, r, "search_failed", err)
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	if rt.metrics != nil {
		rt.metrics.RecordResultCount("search", len(results))
	}

	resp := searchResponse{Query: query, Results: results}
	if req.Explain {
		cls := rt.search.Classify(query)
		resp.Classification = &cls
	}
	writeJSON(w, http.StatusOK, resp)
}

type reindexRequest struct {
	RecordID string `json:"record_id"`
}

// reindex rebuilds one record when record_id is given, the whole catalog
// otherwise.
func (rt *Router) reindex(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if err := decodeJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recordID := strings.TrimSpace(req.RecordID)
	if recordID == "" {
		report, err := rt.reindexer.ReindexAll(r.Context())
		if err != nil {
			rt.writeDomainError(w, r, "reindex_failed", err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	record, err := rt.records.GetByID(r.Context(), recordID)
	if err != nil {
		rt.writeDomainError(w, r, "reindex_failed", err)
		return
	}
	if err := rt.reindexer.Reindex(r.Context(), *record); err != nil {
		rt.writeDomainError(w, r, "reindex_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ReindexReport{Indexed: 1})
}

func (rt *Router) getRecord(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("record_id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "record id is required")
		return
	}
	record, err := rt.records.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, "record_lookup_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, event string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error(event, "request_id", requestIDFromContext(r.Context()), "status", status, "error", err)
	}
	writeError(w, status, publicErrorMessage(status, err))
}

func decodeJSONBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return errors.New("invalid json")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/ingredient-search/internal/config"
	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

type searchFake struct {
	results []domain.SearchResult
	err     error

	gotQuery string
	gotTopK  int
	gotHint  domain.CollectionHint
	calls    int
}

func (f *searchFake) Search(_ context.Context, query string, topK int, hint domain.CollectionHint) ([]domain.SearchResult, error) {
	f.calls++
	f.gotQuery = query
	f.gotTopK = topK
	f.gotHint = hint
	if f.err != nil {
		return []domain.SearchResult{}, f.err
	}
	return f.results, nil
}

func (f *searchFake) Classify(query string) domain.QueryClassification {
	return domain.QueryClassification{Query: query, Intent: domain.IntentGeneric}
}

type reindexFake struct {
	report    domain.ReindexReport
	err       error
	reindexed []string
	allCalls  int
}

func (f *reindexFake) Reindex(_ context.Context, record domain.CatalogRecord) error {
	f.reindexed = append(f.reindexed, record.ID)
	return f.err
}

func (f *reindexFake) ReindexAll(context.Context) (domain.ReindexReport, error) {
	f.allCalls++
	return f.report, f.err
}

func (f *reindexFake) RemoveRecord(context.Context, string) error { return f.err }

type recordsFake struct {
	records map[string]domain.CatalogRecord
}

func (f recordsFake) GetByID(_ context.Context, id string) (*domain.CatalogRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", errors.New("id="+id))
	}
	return &record, nil
}

func newTestHandler(cfg config.Config, search *searchFake) http.Handler {
	if search == nil {
		search = &searchFake{}
	}
	records := recordsFake{records: map[string]domain.CatalogRecord{
		"rec-1": {ID: "rec-1", CanonicalCode: "RM000001", DisplayName: "Hyaluronic Acid", Available: true},
	}}
	return NewRouter(cfg, search, &reindexFake{}, records).Handler()
}

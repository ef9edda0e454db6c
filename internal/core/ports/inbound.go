package ports

import (
	"context"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// SearchService is the inbound contract for hybrid search.
type SearchService interface {
	Search(ctx context.Context, query string, topK int, hint domain.CollectionHint) ([]domain.SearchResult, error)
	Classify(query string) domain.QueryClassification
}

// Reindexer is the inbound contract for (re)building the vector index.
type Reindexer interface {
	Reindex(ctx context.Context, record domain.CatalogRecord) error
	ReindexAll(ctx context.Context) (domain.ReindexReport, error)
	RemoveRecord(ctx context.Context, recordID string) error
}

// RecordReader is the inbound read model for catalog records.
type RecordReader interface {
	GetByID(ctx context.Context, id string) (*domain.CatalogRecord, error)
}

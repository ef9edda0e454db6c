package ports

import (
	"context"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// DocumentStore reads catalog records. Implementations scope every read to
// the collection's AvailableOnly flag.
type DocumentStore interface {
	// GetByCodeOrName matches text against code, display name and alt name:
	// case-insensitive equality first, substring second.
	GetByCodeOrName(ctx context.Context, collection domain.CollectionRef, text string) ([]domain.RecordMatch, error)
	// ListAll streams records page by page. Returning an error from visit stops the scan.
	ListAll(ctx context.Context, collection domain.CollectionRef, visit func(domain.CatalogRecord) error) error
	GetByID(ctx context.Context, id string) (*domain.CatalogRecord, error)
}

// CatalogWriter persists records coming from imports.
type CatalogWriter interface {
	UpsertRecord(ctx context.Context, record domain.CatalogRecord) error
}

// VectorIndex stores chunk vectors, one namespace per collection.
type VectorIndex interface {
	Upsert(ctx context.Context, namespace string, points []domain.VectorPoint) error
	DeleteByRecord(ctx context.Context, namespace, recordID string) error
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter *domain.MetadataFilter) ([]domain.VectorMatch, error)
	// Filter returns points matching the metadata filter; Score is always zero.
	Filter(ctx context.Context, namespace string, filter domain.MetadataFilter, limit int) ([]domain.VectorMatch, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// RecordEvents publishes/consumes catalog change notifications.
type RecordEvents interface {
	PublishRecordChanged(ctx context.Context, event domain.RecordChanged) error
	SubscribeRecordChanged(ctx context.Context, handler func(context.Context, domain.RecordChanged) error) error
}

package ports

import (
	"context"
	"time"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// QueryClassifier turns query text into intent, entities and strategy hints.
// It never fails.
type QueryClassifier interface {
	Classify(query string) domain.QueryClassification
}

// DocumentChunker builds the weighted chunks indexed for one record.
type DocumentChunker interface {
	Chunk(record domain.CatalogRecord) ([]domain.Chunk, error)
}

// RetrievalStrategy is one independent retrieval method. An empty result is
// success; errors mean the collaborator could not be reached.
type RetrievalStrategy interface {
	Name() domain.Strategy
	Search(ctx context.Context, expanded []string, cls domain.QueryClassification, collection domain.CollectionRef) ([]domain.CandidateResult, error)
}

// CallGuard runs one collaborator call with retry, per-attempt timeout and
// circuit breaking.
type CallGuard interface {
	Guard(ctx context.Context, operation string, fn func(context.Context) error) error
}

// SearchObserver receives per-task and per-search outcomes for metrics.
type SearchObserver interface {
	ObserveStrategy(strategy domain.Strategy, collection string, outcome string, elapsed time.Duration)
	ObserveSearch(intent domain.Intent, outcome string, elapsed time.Duration)
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

// MetadataFilterStrategy matches chunk metadata (codes, property tags)
// through the vector index filter. Similarity plays no part in the score.
type MetadataFilterStrategy struct {
	index ports.VectorIndex
	guard ports.CallGuard
	score float64
	limit int
}

func NewMetadataFilterStrategy(index ports.VectorIndex, guard ports.CallGuard, cfg SearchConfig) *MetadataFilterStrategy {
	cfg = cfg.normalize()
	return &MetadataFilterStrategy{
		index: index,
		guard: guardOrDefault(guard),
		score: cfg.MetadataScore,
		limit: cfg.MetadataLimit,
	}
}

func (s *MetadataFilterStrategy) Name() domain.Strategy { return domain.StrategyMetadata }

func (s *MetadataFilterStrategy) Applicable(cls domain.QueryClassification) bool {
	return !buildMetadataFilter(cls.Entities).IsEmpty()
}

func (s *MetadataFilterStrategy) Search(
	ctx context.Context,
	_ []string,
	cls domain.QueryClassification,
	collection domain.CollectionRef,
) ([]domain.CandidateResult, error) {
	filter := buildMetadataFilter(cls.Entities)
	if filter.IsEmpty() {
		return []domain.CandidateResult{}, nil
	}

	var matches []domain.VectorMatch
	err := s.guard.Guard(ctx, "vector_index.filter", func(ctx context.Context) error {
		var err error
		matches, err = s.index.Filter(ctx, collection.Namespace, filter, s.limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("metadata filter: %w", err)
	}

	best := make(bestByRecord)
	for _, m := range matches {
		if m.RecordID == "" {
			continue
		}
		if _, seen := best[m.RecordID]; seen {
			continue
		}
		best[m.RecordID] = domain.CandidateResult{
			RecordID:         m.RecordID,
			RawScore:         s.score,
			MatchType:        domain.StrategyMetadata,
			MatchedChunkType: m.ChunkType,
		}
	}
	return best.sorted(), nil
}

func buildMetadataFilter(entities domain.ExtractedEntities) domain.MetadataFilter {
	var filter domain.MetadataFilter
	for _, code := range entities.Codes {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			filter.Codes = appendUniqueString(filter.Codes, code)
		}
	}
	for _, prop := range entities.Properties {
		if prop = strings.ToLower(strings.TrimSpace(prop)); prop != "" {
			filter.Tags = appendUniqueString(filter.Tags, prop)
		}
	}
	return filter
}

func appendUniqueString(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

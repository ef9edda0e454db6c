package usecase

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

// SemanticSearchStrategy embeds every query variant and keeps, per record,
// the best index similarity weighted by the chunk's priority.
type SemanticSearchStrategy struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	guard    ports.CallGuard
	topK     int
}

func NewSemanticSearchStrategy(
	embedder ports.Embedder,
	index ports.VectorIndex,
	guard ports.CallGuard,
	cfg SearchConfig,
) *SemanticSearchStrategy {
	cfg = cfg.normalize()
	return &SemanticSearchStrategy{
		embedder: embedder,
		index:    index,
		guard:    guardOrDefault(guard),
		topK:     cfg.SemanticTopK,
	}
}

func (s *SemanticSearchStrategy) Name() domain.Strategy { return domain.StrategySemantic }

func (s *SemanticSearchStrategy) Applicable(cls domain.QueryClassification) bool {
	for _, q := range cls.ExpandedQueries {
		if q != "" {
			return true
		}
	}
	return false
}

func (s *SemanticSearchStrategy) Search(
	ctx context.Context,
	expanded []string,
	_ domain.QueryClassification,
	collection domain.CollectionRef,
) ([]domain.CandidateResult, error) {
	variants := make([]string, 0, len(expanded))
	for _, q := range expanded {
		if q != "" {
			variants = appendUniqueString(variants, q)
		}
	}
	if len(variants) == 0 {
		return []domain.CandidateResult{}, nil
	}

	var vectors [][]float32
	err := s.guard.Guard(ctx, "embedder.embed", func(ctx context.Context) error {
		var err error
		vectors, err = s.embedder.Embed(ctx, variants)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed query variants: %w", err)
	}
	if len(vectors) != len(variants) {
		return nil, domain.WrapError(domain.ErrCollaboratorUnavailable, "embed query variants",
			fmt.Errorf("got %d vectors for %d variants", len(vectors), len(variants)))
	}

	var (
		mu   sync.Mutex
		best = make(bestByRecord)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, vector := range vectors {
		g.Go(func() error {
			var matches []domain.VectorMatch
			err := s.guard.Guard(gctx, "vector_index.query", func(ctx context.Context) error {
				var err error
				matches, err = s.index.Query(ctx, collection.Namespace, vector, s.topK, nil)
				return err
			})
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			for _, m := range matches {
				if m.RecordID == "" {
					continue
				}
				best.offer(domain.CandidateResult{
					RecordID:         m.RecordID,
					RawScore:         clampUnit(m.Score) * weightOrOne(m.PriorityWeight),
					MatchType:        domain.StrategySemantic,
					MatchedChunkType: m.ChunkType,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("semantic query: %w", err)
	}
	return best.sorted(), nil
}

func weightOrOne(w float64) float64 {
	if w <= 0 || w > 1 {
		return 1
	}
	return w
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

// ExactMatchStrategy looks extracted codes and names up in the document store.
type ExactMatchStrategy struct {
	store          ports.DocumentStore
	guard          ports.CallGuard
	equalScore     float64
	substringScore float64
}

func NewExactMatchStrategy(store ports.DocumentStore, guard ports.CallGuard, cfg SearchConfig) *ExactMatchStrategy {
	cfg = cfg.normalize()
	return &ExactMatchStrategy{
		store:          store,
		guard:          guardOrDefault(guard),
		equalScore:     cfg.ExactEqualScore,
		substringScore: cfg.ExactSubstringScore,
	}
}

func (s *ExactMatchStrategy) Name() domain.Strategy { return domain.StrategyExact }

func (s *ExactMatchStrategy) Applicable(cls domain.QueryClassification) bool {
	return len(lookupTerms(cls.Entities)) > 0
}

func (s *ExactMatchStrategy) Search(
	ctx context.Context,
	_ []string,
	cls domain.QueryClassification,
	collection domain.CollectionRef,
) ([]domain.CandidateResult, error) {
	terms := lookupTerms(cls.Entities)
	if len(terms) == 0 {
		return []domain.CandidateResult{}, nil
	}

	best := make(bestByRecord)
	for _, term := range terms {
		var matches []domain.RecordMatch
		err := s.guard.Guard(ctx, "document_store.get_by_code_or_name", func(ctx context.Context) error {
			var err error
			matches, err = s.store.GetByCodeOrName(ctx, collection, term)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("exact lookup %q: %w", term, err)
		}
		for _, m := range matches {
			score := s.substringScore
			if m.Exact {
				score = s.equalScore
			}
			best.offer(domain.CandidateResult{
				RecordID:  m.Record.ID,
				RawScore:  score,
				MatchType: domain.StrategyExact,
			})
		}
	}
	return best.sorted(), nil
}

// lookupTerms returns codes then names, deduplicated case-insensitively.
func lookupTerms(entities domain.ExtractedEntities) []string {
	out := make([]string, 0, len(entities.Codes)+len(entities.Names))
	seen := make(map[string]struct{}, cap(out))
	for _, group := range [][]string{entities.Codes, entities.Names} {
		for _, term := range group {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			key := strings.ToLower(term)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, term)
		}
	}
	return out
}

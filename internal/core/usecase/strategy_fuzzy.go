package usecase

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/lexicon"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

// FuzzyMatchStrategy scores candidate names against display and alt names of
// every record streamed from the document store.
type FuzzyMatchStrategy struct {
	store         ports.DocumentStore
	guard         ports.CallGuard
	threshold     float64
	maxCandidates int
}

func NewFuzzyMatchStrategy(store ports.DocumentStore, guard ports.CallGuard, cfg SearchConfig) *FuzzyMatchStrategy {
	cfg = cfg.normalize()
	return &FuzzyMatchStrategy{
		store:         store,
		guard:         guardOrDefault(guard),
		threshold:     cfg.FuzzyThreshold,
		maxCandidates: cfg.FuzzyMaxCandidates,
	}
}

func (s *FuzzyMatchStrategy) Name() domain.Strategy { return domain.StrategyFuzzy }

func (s *FuzzyMatchStrategy) Applicable(cls domain.QueryClassification) bool {
	return len(fuzzyTerms(cls)) > 0
}

func (s *FuzzyMatchStrategy) Search(
	ctx context.Context,
	_ []string,
	cls domain.QueryClassification,
	collection domain.CollectionRef,
) ([]domain.CandidateResult, error) {
	names := fuzzyTerms(cls)
	if len(names) == 0 {
		return []domain.CandidateResult{}, nil
	}

	var best bestByRecord
	err := s.guard.Guard(ctx, "document_store.list_all", func(ctx context.Context) error {
		best = make(bestByRecord)
		return s.store.ListAll(ctx, collection, func(record domain.CatalogRecord) error {
			score := bestSimilarity(names, record)
			if score >= s.threshold {
				best.offer(domain.CandidateResult{
					RecordID:  record.ID,
					RawScore:  score,
					MatchType: domain.StrategyFuzzy,
				})
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fuzzy scan: %w", err)
	}

	out := best.sorted()
	if len(out) > s.maxCandidates {
		out = out[:s.maxCandidates]
	}
	return out, nil
}

// fuzzyTerms are the extracted names, or the normalized query when nothing was
// extracted and the query is not a code lookup.
func fuzzyTerms(cls domain.QueryClassification) []string {
	out := make([]string, 0, len(cls.Entities.Names))
	for _, name := range cls.Entities.Names {
		if n := lexicon.Normalize(name); n != "" {
			out = appendUniqueString(out, n)
		}
	}
	if len(out) == 0 && cls.Intent != domain.IntentExactCode && cls.Normalized != "" {
		out = append(out, cls.Normalized)
	}
	return out
}

func bestSimilarity(names []string, record domain.CatalogRecord) float64 {
	best := 0.0
	for _, field := range []string{record.DisplayName, record.AltName} {
		target := lexicon.Normalize(field)
		if target == "" {
			continue
		}
		for _, name := range names {
			if sim := Similarity(name, target); sim > best {
				best = sim
			}
		}
	}
	return best
}

// Similarity is 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

package usecase

import (
	"time"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// SearchConfig holds the tunable constants of the retrieval pipeline.
type SearchConfig struct {
	Boosts map[domain.Strategy]float64

	ExactEqualScore     float64
	ExactSubstringScore float64
	MetadataScore       float64
	MetadataLimit       int
	FuzzyThreshold      float64
	FuzzyMaxCandidates  int
	SemanticTopK        int

	AvailabilityBonus float64
	DefaultTopK       int
	MaxTopK           int
	SearchTimeout     time.Duration
	HydrateRecords    bool
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Boosts: map[domain.Strategy]float64{
			domain.StrategyExact:    1.0,
			domain.StrategyMetadata: 0.9,
			domain.StrategyFuzzy:    0.85,
			domain.StrategySemantic: 0.75,
		},
		ExactEqualScore:     1.0,
		ExactSubstringScore: 0.9,
		MetadataScore:       0.9,
		MetadataLimit:       100,
		FuzzyThreshold:      0.6,
		FuzzyMaxCandidates:  50,
		SemanticTopK:        10,
		AvailabilityBonus:   0.05,
		DefaultTopK:         10,
		MaxTopK:             100,
		SearchTimeout:       5 * time.Second,
		HydrateRecords:      true,
	}
}

func (c SearchConfig) normalize() SearchConfig {
	out := c
	def := DefaultSearchConfig()

	boosts := make(map[domain.Strategy]float64, len(def.Boosts))
	for s, b := range def.Boosts {
		boosts[s] = b
	}
	for s, b := range c.Boosts {
		if b > 0 {
			boosts[s] = b
		}
	}
	out.Boosts = boosts

	if out.ExactEqualScore <= 0 || out.ExactEqualScore > 1 {
		out.ExactEqualScore = def.ExactEqualScore
	}
	if out.ExactSubstringScore <= 0 || out.ExactSubstringScore > 1 {
		out.ExactSubstringScore = def.ExactSubstringScore
	}
	if out.MetadataScore <= 0 || out.MetadataScore > 1 {
		out.MetadataScore = def.MetadataScore
	}
	if out.MetadataLimit <= 0 {
		out.MetadataLimit = def.MetadataLimit
	}
	if out.FuzzyThreshold <= 0 || out.FuzzyThreshold > 1 {
		out.FuzzyThreshold = def.FuzzyThreshold
	}
	if out.FuzzyMaxCandidates <= 0 {
		out.FuzzyMaxCandidates = def.FuzzyMaxCandidates
	}
	if out.SemanticTopK <= 0 {
		out.SemanticTopK = def.SemanticTopK
	}
	if out.AvailabilityBonus <= 0 || out.AvailabilityBonus > 1 {
		out.AvailabilityBonus = def.AvailabilityBonus
	}
	if out.DefaultTopK <= 0 {
		out.DefaultTopK = def.DefaultTopK
	}
	if out.MaxTopK < out.DefaultTopK {
		out.MaxTopK = max(def.MaxTopK, out.DefaultTopK)
	}
	if out.SearchTimeout <= 0 {
		out.SearchTimeout = def.SearchTimeout
	}
	return out
}

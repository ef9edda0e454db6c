package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning holds retrieval constants that operators adjust without a rebuild.
// Zero values keep the built-in defaults.
type Tuning struct {
	Boosts             map[string]float64 `yaml:"boosts"`
	ExactEqualScore    float64            `yaml:"exact_equal_score"`
	ExactSubstring     float64            `yaml:"exact_substring_score"`
	MetadataScore      float64            `yaml:"metadata_score"`
	MetadataLimit      int                `yaml:"metadata_limit"`
	FuzzyThreshold     float64            `yaml:"fuzzy_threshold"`
	FuzzyMaxCandidates int                `yaml:"fuzzy_max_candidates"`
	SemanticTopK       int                `yaml:"semantic_top_k"`
	AvailabilityBonus  float64            `yaml:"availability_bonus"`
	DefaultTopK        int                `yaml:"default_top_k"`
	MaxTopK            int                `yaml:"max_top_k"`
	SearchTimeout      time.Duration      `yaml:"search_timeout"`
	AttemptTimeout     time.Duration      `yaml:"attempt_timeout"`
	MaxExpandedQueries int                `yaml:"max_expanded_queries"`
	CodePrefixes       []string           `yaml:"code_prefixes"`
	Chunking           ChunkTuning        `yaml:"chunking"`
}

type ChunkTuning struct {
	MaxLength int                `yaml:"max_length"`
	Overlap   int                `yaml:"overlap"`
	Languages []string           `yaml:"languages"`
	Weights   map[string]float64 `yaml:"weights"`
}

var knownStrategies = map[string]struct{}{
	"exact": {}, "metadata": {}, "fuzzy": {}, "semantic": {},
}

// LoadTuning reads a YAML tuning file. An empty path or a missing file yields
// zero Tuning.
func LoadTuning(path string) (Tuning, error) {
	if path == "" {
		return Tuning{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Tuning{}, nil
		}
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) validate() error {
	for name, boost := range t.Boosts {
		if _, ok := knownStrategies[name]; !ok {
			return fmt.Errorf("unknown strategy %q in boosts", name)
		}
		if boost < 0 {
			return fmt.Errorf("boost for %s must not be negative", name)
		}
	}
	if t.FuzzyThreshold < 0 || t.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold %v is outside [0,1]", t.FuzzyThreshold)
	}
	if t.AvailabilityBonus < 0 || t.AvailabilityBonus > 1 {
		return fmt.Errorf("availability_bonus %v is outside [0,1]", t.AvailabilityBonus)
	}
	if t.Chunking.Overlap < 0 || t.Chunking.MaxLength < 0 {
		return errors.New("chunking sizes must not be negative")
	}
	if t.Chunking.MaxLength > 0 && t.Chunking.Overlap >= t.Chunking.MaxLength {
		return fmt.Errorf("chunking overlap %d must be smaller than max_length %d", t.Chunking.Overlap, t.Chunking.MaxLength)
	}
	return nil
}

package usecase

import (
	"sort"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// ResultFusion merges strategy outputs into one list per record. A record's
// fused score is its strongest boosted contribution, never a sum.
type ResultFusion struct {
	boosts map[domain.Strategy]float64
}

func NewResultFusion(cfg SearchConfig) *ResultFusion {
	return &ResultFusion{boosts: cfg.normalize().Boosts}
}

func (f *ResultFusion) boost(s domain.Strategy) float64 {
	if b, ok := f.boosts[s]; ok {
		return b
	}
	return 1
}

// Fuse deduplicates by record id and orders with compareResults. limit <= 0
// keeps every record.
func (f *ResultFusion) Fuse(candidates map[domain.Strategy][]domain.CandidateResult, limit int) []domain.SearchResult {
	byRecord := make(map[string]*domain.SearchResult)
	bestPerStrategy := make(map[string]map[domain.Strategy]int)

	// Map iteration order must not leak into the output.
	for _, strategy := range strategiesInOrder(candidates) {
		for _, c := range candidates[strategy] {
			if c.RecordID == "" {
				continue
			}
			result, ok := byRecord[c.RecordID]
			if !ok {
				result = &domain.SearchResult{RecordID: c.RecordID}
				byRecord[c.RecordID] = result
				bestPerStrategy[c.RecordID] = make(map[domain.Strategy]int, 2)
			}

			match := domain.ContributingMatch{
				MatchType:        strategy,
				RawScore:         c.RawScore,
				MatchedChunkType: c.MatchedChunkType,
			}
			if idx, seen := bestPerStrategy[c.RecordID][strategy]; seen {
				if result.ContributingMatches[idx].RawScore < c.RawScore {
					result.ContributingMatches[idx] = match
				}
			} else {
				bestPerStrategy[c.RecordID][strategy] = len(result.ContributingMatches)
				result.ContributingMatches = append(result.ContributingMatches, match)
			}

			if boosted := clampUnit(c.RawScore * f.boost(strategy)); boosted > result.FusedScore {
				result.FusedScore = boosted
			}
		}
	}

	out := make([]domain.SearchResult, 0, len(byRecord))
	for _, r := range byRecord {
		f.sortMatches(r.ContributingMatches)
		out = append(out, *r)
	}
	sortResults(out)
	return trimResults(out, limit)
}

func (f *ResultFusion) sortMatches(matches []domain.ContributingMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		bi := matches[i].RawScore * f.boost(matches[i].MatchType)
		bj := matches[j].RawScore * f.boost(matches[j].MatchType)
		if bi != bj {
			return bi > bj
		}
		return strategyRank(matches[i].MatchType) < strategyRank(matches[j].MatchType)
	})
}

// compareResults: records with an exact contribution first, then fused
// score, number of contributing strategies and record id.
func compareResults(a, b domain.SearchResult) bool {
	aExact, bExact := a.HasMatch(domain.StrategyExact), b.HasMatch(domain.StrategyExact)
	if aExact != bExact {
		return aExact
	}
	if a.FusedScore != b.FusedScore {
		return a.FusedScore > b.FusedScore
	}
	if ac, bc := a.StrategyCount(), b.StrategyCount(); ac != bc {
		return ac > bc
	}
	return a.RecordID < b.RecordID
}

func sortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return compareResults(results[i], results[j])
	})
}

func trimResults(results []domain.SearchResult, limit int) []domain.SearchResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}

func strategiesInOrder(candidates map[domain.Strategy][]domain.CandidateResult) []domain.Strategy {
	out := make([]domain.Strategy, 0, len(candidates))
	for s := range candidates {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := strategyRank(out[i]), strategyRank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

func strategyRank(s domain.Strategy) int {
	for i, known := range domain.AllStrategies {
		if known == s {
			return i
		}
	}
	return len(domain.AllStrategies)
}

package usecase

import (
	"context"
	"sort"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

type passthroughGuard struct{}

func (passthroughGuard) Guard(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

func guardOrDefault(guard ports.CallGuard) ports.CallGuard {
	if guard == nil {
		return passthroughGuard{}
	}
	return guard
}

// sortCandidates orders by raw score, then record id.
func sortCandidates(out []domain.CandidateResult) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore > out[j].RawScore
		}
		return out[i].RecordID < out[j].RecordID
	})
}

// bestByRecord keeps the highest-scoring candidate per record.
type bestByRecord map[string]domain.CandidateResult

func (b bestByRecord) offer(c domain.CandidateResult) {
	if current, ok := b[c.RecordID]; ok && current.RawScore >= c.RawScore {
		return
	}
	b[c.RecordID] = c
}

func (b bestByRecord) sorted() []domain.CandidateResult {
	out := make([]domain.CandidateResult, 0, len(b))
	for _, c := range b {
		out = append(out, c)
	}
	sortCandidates(out)
	return out
}

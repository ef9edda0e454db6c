package usecase

import (
	"testing"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

func TestFuseDeduplicatesByRecordUsingMaxBoostedScore(t *testing.T) {
	fusion := NewResultFusion(DefaultSearchConfig())
	fused := fusion.Fuse(map[domain.Strategy][]domain.CandidateResult{
		domain.StrategyFuzzy: {
			{RecordID: "r1", RawScore: 0.9, MatchType: domain.StrategyFuzzy},
		},
		domain.StrategySemantic: {
			{RecordID: "r1", RawScore: 0.95, MatchType: domain.StrategySemantic, MatchedChunkType: domain.ChunkDescriptive},
			{RecordID: "r2", RawScore: 0.5, MatchType: domain.StrategySemantic},
		},
	}, 10)

	if len(fused) != 2 {
		t.Fatalf("expected 2 fused results, got %d", len(fused))
	}
	if fused[0].RecordID != "r1" {
		t.Fatalf("expected r1 first, got %s", fused[0].RecordID)
	}
	want := 0.9 * 0.85
	if diff := fused[0].FusedScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected fused score %v (max, not sum), got %v", want, fused[0].FusedScore)
	}
	if len(fused[0].ContributingMatches) != 2 {
		t.Fatalf("expected both contributions kept, got %+v", fused[0].ContributingMatches)
	}
	if fused[0].ContributingMatches[0].MatchType != domain.StrategyFuzzy {
		t.Fatalf("expected strongest contribution first, got %+v", fused[0].ContributingMatches)
	}
}

func TestFuseExactMatchNeverRanksBelowNonExact(t *testing.T) {
	cfg := DefaultSearchConfig()
	cfg.Boosts = map[domain.Strategy]float64{domain.StrategyExact: 0.5}
	fusion := NewResultFusion(cfg)

	fused := fusion.Fuse(map[domain.Strategy][]domain.CandidateResult{
		domain.StrategyExact:    {{RecordID: "exact", RawScore: 0.9, MatchType: domain.StrategyExact}},
		domain.StrategySemantic: {{RecordID: "semantic", RawScore: 1.0, MatchType: domain.StrategySemantic}},
	}, 0)

	if fused[0].RecordID != "exact" {
		t.Fatalf("expected exact match first, got %+v", fused)
	}
	if fused[0].FusedScore >= fused[1].FusedScore {
		t.Fatalf("test setup should give the exact match the lower score")
	}
}

func TestFuseTieBreaksByStrategyCountThenRecordID(t *testing.T) {
	fusion := NewResultFusion(DefaultSearchConfig())
	fused := fusion.Fuse(map[domain.Strategy][]domain.CandidateResult{
		domain.StrategyMetadata: {
			{RecordID: "b", RawScore: 0.9, MatchType: domain.StrategyMetadata},
			{RecordID: "c", RawScore: 0.9, MatchType: domain.StrategyMetadata},
			{RecordID: "a", RawScore: 0.9, MatchType: domain.StrategyMetadata},
		},
		domain.StrategySemantic: {
			{RecordID: "c", RawScore: 0.1, MatchType: domain.StrategySemantic},
		},
	}, 0)

	got := []string{fused[0].RecordID, fused[1].RecordID, fused[2].RecordID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestFuseCapsResultCount(t *testing.T) {
	fusion := NewResultFusion(DefaultSearchConfig())
	fused := fusion.Fuse(map[domain.Strategy][]domain.CandidateResult{
		domain.StrategySemantic: {
			{RecordID: "a", RawScore: 0.9},
			{RecordID: "b", RawScore: 0.8},
			{RecordID: "c", RawScore: 0.7},
		},
	}, 2)
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
}

func TestFuseIsIndependentOfInputOrder(t *testing.T) {
	fusion := NewResultFusion(DefaultSearchConfig())
	first := fusion.Fuse(map[domain.Strategy][]domain.CandidateResult{
		domain.StrategyFuzzy:    {{RecordID: "x", RawScore: 0.7}, {RecordID: "y", RawScore: 0.7}},
		domain.StrategySemantic: {{RecordID: "y", RawScore: 0.2}},
	}, 0)
	second := fusion.Fuse(map[domain.Strategy][]domain.CandidateResult{
		domain.StrategySemantic: {{RecordID: "y", RawScore: 0.2}},
		domain.StrategyFuzzy:    {{RecordID: "y", RawScore: 0.7}, {RecordID: "x", RawScore: 0.7}},
	}, 0)
	for i := range first {
		if first[i].RecordID != second[i].RecordID {
			t.Fatalf("order depends on input order: %v vs %v", first, second)
		}
	}
}

package usecase

import (
	"testing"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/classifier/heuristic"
)

func newTestRouter() *CollectionRouter {
	return NewCollectionRouter(&availableRef, &fullRef, DefaultSearchConfig())
}

func TestRouteThaiAvailabilityPhraseRestrictsToAvailable(t *testing.T) {
	cls := heuristic.New(heuristic.Config{}).Classify("สารให้ความชุ่มชื้นมีในสต็อก")
	route := newTestRouter().Route(cls, domain.HintNone)

	if route.Priority != domain.RouteSingleRestricted {
		t.Fatalf("expected single_restricted, got %s", route.Priority)
	}
	if len(route.Collections) != 1 || route.Collections[0].Name != "available" {
		t.Fatalf("expected only the available collection, got %+v", route.Collections)
	}
}

func TestRouteOutcomes(t *testing.T) {
	classifier := heuristic.New(heuristic.Config{})
	tests := []struct {
		query string
		hint  domain.CollectionHint
		want  domain.RoutingPriority
	}{
		{query: "moisturizing actives in stock", want: domain.RouteSingleRestricted},
		{query: "anti-aging actives in the full catalog", want: domain.RouteSingleFull},
		{query: "สารกันแดดทั้งหมด", want: domain.RouteSingleFull},
		{query: "hyaluronic acid", want: domain.RouteMergedPrioritized},
		{query: "unavailable grades", want: domain.RouteMergedPrioritized},
		{query: "moisturizer not available yet, show alternatives", want: domain.RouteMergedPrioritized},
		{query: "hyaluronic acid no longer in stock", want: domain.RouteMergedPrioritized},
		{query: "สารให้ความชุ่มชื้นไม่มีในสต็อก", want: domain.RouteMergedPrioritized},
		{query: "not sure which is available now", want: domain.RouteSingleRestricted},
		{query: "hyaluronic acid", hint: domain.HintAvailable, want: domain.RouteSingleRestricted},
		{query: "moisturizing actives in stock", hint: domain.HintFull, want: domain.RouteSingleFull},
		{query: "moisturizing actives in stock", hint: domain.HintBoth, want: domain.RouteMergedPrioritized},
	}
	router := newTestRouter()
	for _, tt := range tests {
		got := router.Route(classifier.Classify(tt.query), tt.hint)
		if got.Priority != tt.want {
			t.Fatalf("Route(%q, %q) = %s, want %s", tt.query, tt.hint, got.Priority, tt.want)
		}
	}
}

func TestRouteWithSingleConfiguredCollection(t *testing.T) {
	router := NewCollectionRouter(nil, &fullRef, DefaultSearchConfig())
	route := router.Route(domain.QueryClassification{Normalized: "in stock"}, domain.HintAvailable)
	if route.Priority != domain.RouteSingleFull || route.Collections[0].Name != "full" {
		t.Fatalf("expected full collection only, got %+v", route)
	}
}

func TestMergeBoostsAvailableRecordsAndAnnotates(t *testing.T) {
	router := newTestRouter()
	route := domain.Route{
		Collections: []domain.CollectionRef{availableRef, fullRef},
		Priority:    domain.RouteMergedPrioritized,
	}
	merged := router.Merge(route, map[string][]domain.SearchResult{
		"available": {
			{RecordID: "stocked", FusedScore: 0.70, ContributingMatches: []domain.ContributingMatch{{MatchType: domain.StrategySemantic, RawScore: 0.93}}},
		},
		"full": {
			{RecordID: "orderable", FusedScore: 0.72, ContributingMatches: []domain.ContributingMatch{{MatchType: domain.StrategySemantic, RawScore: 0.96}}},
			{RecordID: "stocked", FusedScore: 0.70, ContributingMatches: []domain.ContributingMatch{{MatchType: domain.StrategySemantic, RawScore: 0.93}}},
		},
	}, 10)

	if len(merged) != 2 {
		t.Fatalf("expected one result per record, got %d", len(merged))
	}
	if merged[0].RecordID != "stocked" {
		t.Fatalf("expected stocked record boosted above orderable, got %+v", merged)
	}
	if diff := merged[0].FusedScore - 0.75; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected bonus of 0.05, got %v", merged[0].FusedScore)
	}
	if merged[0].Availability != domain.AvailabilityReadyNow || merged[1].Availability != domain.AvailabilityOrderable {
		t.Fatalf("unexpected availability annotations: %+v", merged)
	}
	if merged[0].SourceCollection != "available" {
		t.Fatalf("expected source collection available, got %s", merged[0].SourceCollection)
	}
	for _, m := range merged[0].ContributingMatches {
		if m.Collection == "" {
			t.Fatalf("expected contributing matches annotated with collection")
		}
	}
}

func TestMergeCapsBonusAtOne(t *testing.T) {
	router := newTestRouter()
	route := domain.Route{Collections: []domain.CollectionRef{availableRef, fullRef}, Priority: domain.RouteMergedPrioritized}
	merged := router.Merge(route, map[string][]domain.SearchResult{
		"available": {{RecordID: "r1", FusedScore: 0.98}},
	}, 0)
	if merged[0].FusedScore != 1.0 {
		t.Fatalf("expected fused score capped at 1.0, got %v", merged[0].FusedScore)
	}
}

func TestMergeSingleRestrictedDoesNotAddBonus(t *testing.T) {
	router := newTestRouter()
	route := domain.Route{Collections: []domain.CollectionRef{availableRef}, Priority: domain.RouteSingleRestricted}
	merged := router.Merge(route, map[string][]domain.SearchResult{
		"available": {{RecordID: "r1", FusedScore: 0.5}},
	}, 0)
	if merged[0].FusedScore != 0.5 {
		t.Fatalf("expected no bonus outside merged routing, got %v", merged[0].FusedScore)
	}
	if merged[0].Availability != domain.AvailabilityReadyNow {
		t.Fatalf("expected ready_now, got %q", merged[0].Availability)
	}
}

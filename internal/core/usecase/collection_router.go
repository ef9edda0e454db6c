package usecase

import (
	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/lexicon"
)

// CollectionRouter picks the collections a query runs against and merges
// their fused lists.
type CollectionRouter struct {
	available *domain.CollectionRef
	full      *domain.CollectionRef
	bonus     float64
}

// NewCollectionRouter accepts nil for a collection that is not configured;
// at least one must be set.
func NewCollectionRouter(available, full *domain.CollectionRef, cfg SearchConfig) *CollectionRouter {
	return &CollectionRouter{
		available: available,
		full:      full,
		bonus:     cfg.normalize().AvailabilityBonus,
	}
}

// Route honours an explicit hint first, then availability or full-catalog
// phrasing in the query. Negated availability ("not in stock") is no
// signal. Without a signal both collections are merged.
func (r *CollectionRouter) Route(cls domain.QueryClassification, hint domain.CollectionHint) domain.Route {
	switch {
	case r.available == nil && r.full == nil:
		return domain.Route{Priority: domain.RouteSingleFull}
	case r.available == nil:
		return r.singleFull()
	case r.full == nil:
		return r.singleRestricted()
	}

	switch hint {
	case domain.HintAvailable:
		return r.singleRestricted()
	case domain.HintFull:
		return r.singleFull()
	case domain.HintBoth:
		return r.merged()
	}

	text := cls.Normalized
	if text == "" {
		text = lexicon.Normalize(cls.Query)
	}
	wantsAvailable := lexicon.MatchesAnyAffirmed(text, lexicon.AvailabilityTerms)
	wantsFull := lexicon.MatchesAny(text, lexicon.FullCatalogTerms)
	switch {
	case wantsAvailable && !wantsFull:
		return r.singleRestricted()
	case wantsFull && !wantsAvailable:
		return r.singleFull()
	default:
		return r.merged()
	}
}

func (r *CollectionRouter) singleRestricted() domain.Route {
	return domain.Route{Collections: []domain.CollectionRef{*r.available}, Priority: domain.RouteSingleRestricted}
}

func (r *CollectionRouter) singleFull() domain.Route {
	return domain.Route{Collections: []domain.CollectionRef{*r.full}, Priority: domain.RouteSingleFull}
}

func (r *CollectionRouter) merged() domain.Route {
	return domain.Route{
		Collections: []domain.CollectionRef{*r.available, *r.full},
		Priority:    domain.RouteMergedPrioritized,
	}
}

// Merge joins per-collection fused lists into one list with one entry per
// record. Under merged_prioritized, records found in an available-only
// collection get the availability bonus, capped at 1.0.
func (r *CollectionRouter) Merge(route domain.Route, perCollection map[string][]domain.SearchResult, limit int) []domain.SearchResult {
	byRecord := make(map[string]*domain.SearchResult)
	inAvailable := make(map[string]bool)
	order := make([]string, 0)

	for _, collection := range route.Collections {
		for _, res := range perCollection[collection.Name] {
			if collection.AvailableOnly {
				inAvailable[res.RecordID] = true
			}
			matches := make([]domain.ContributingMatch, 0, len(res.ContributingMatches))
			for _, m := range res.ContributingMatches {
				m.Collection = collection.Name
				matches = append(matches, m)
			}

			current, ok := byRecord[res.RecordID]
			if !ok {
				res.SourceCollection = collection.Name
				res.ContributingMatches = matches
				copied := res
				byRecord[res.RecordID] = &copied
				order = append(order, res.RecordID)
				continue
			}
			current.ContributingMatches = append(current.ContributingMatches, matches...)
			if res.FusedScore > current.FusedScore {
				current.FusedScore = res.FusedScore
				current.SourceCollection = collection.Name
			}
		}
	}

	out := make([]domain.SearchResult, 0, len(byRecord))
	for _, id := range order {
		res := *byRecord[id]
		if inAvailable[id] {
			res.Availability = domain.AvailabilityReadyNow
			if route.Priority == domain.RouteMergedPrioritized {
				res.FusedScore = min(1.0, res.FusedScore+r.bonus)
			}
		} else if route.Priority != domain.RouteSingleFull {
			res.Availability = domain.AvailabilityOrderable
		}
		out = append(out, res)
	}
	sortResults(out)
	return trimResults(out, limit)
}

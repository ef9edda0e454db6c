package domain

// CollectionRef names a logical partition of the catalog.
type CollectionRef struct {
	Name          string `json:"name"`
	Namespace     string `json:"namespace"`
	AvailableOnly bool   `json:"available_only"`
}

type RoutingPriority string

const (
	RouteSingleRestricted  RoutingPriority = "single_restricted"
	RouteSingleFull        RoutingPriority = "single_full"
	RouteMergedPrioritized RoutingPriority = "merged_prioritized"
)

// CollectionHint lets a caller override routing with out-of-band context.
type CollectionHint string

const (
	HintNone      CollectionHint = ""
	HintAvailable CollectionHint = "available"
	HintFull      CollectionHint = "full"
	HintBoth      CollectionHint = "both"
)

func ParseCollectionHint(s string) (CollectionHint, bool) {
	switch CollectionHint(s) {
	case HintNone, HintAvailable, HintFull, HintBoth:
		return CollectionHint(s), true
	default:
		return HintNone, false
	}
}

type Route struct {
	Collections []CollectionRef `json:"collections"`
	Priority    RoutingPriority `json:"priority"`
}

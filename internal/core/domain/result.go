package domain

// CandidateResult is produced by one retrieval strategy; RawScore is strategy-local.
type CandidateResult struct {
	RecordID         string    `json:"record_id"`
	RawScore         float64   `json:"raw_score"`
	MatchType        Strategy  `json:"match_type"`
	MatchedChunkType ChunkType `json:"matched_chunk_type,omitempty"`
}

type ContributingMatch struct {
	MatchType        Strategy  `json:"match_type"`
	RawScore         float64   `json:"raw_score"`
	MatchedChunkType ChunkType `json:"matched_chunk_type,omitempty"`
	Collection       string    `json:"collection,omitempty"`
}

type Availability string

const (
	AvailabilityReadyNow  Availability = "ready_now"
	AvailabilityOrderable Availability = "orderable"
)

// SearchResult is the fused, cross-strategy comparable output entity.
type SearchResult struct {
	RecordID            string              `json:"record_id"`
	FusedScore          float64             `json:"fused_score"`
	ContributingMatches []ContributingMatch `json:"contributing_matches"`
	SourceCollection    string              `json:"source_collection"`
	Availability        Availability        `json:"availability,omitempty"`
	Record              *CatalogRecord      `json:"record,omitempty"`
}

func (r SearchResult) HasMatch(s Strategy) bool {
	for _, m := range r.ContributingMatches {
		if m.MatchType == s {
			return true
		}
	}
	return false
}

// StrategyCount counts distinct strategies among the contributing matches.
func (r SearchResult) StrategyCount() int {
	seen := make(map[Strategy]struct{}, len(r.ContributingMatches))
	for _, m := range r.ContributingMatches {
		seen[m.MatchType] = struct{}{}
	}
	return len(seen)
}

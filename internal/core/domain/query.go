package domain

type Intent string

const (
	IntentExactCode      Intent = "exact_code"
	IntentNameSearch     Intent = "name_search"
	IntentPropertySearch Intent = "property_search"
	IntentGeneric        Intent = "generic"
)

type Strategy string

const (
	StrategyExact    Strategy = "exact"
	StrategyMetadata Strategy = "metadata"
	StrategyFuzzy    Strategy = "fuzzy"
	StrategySemantic Strategy = "semantic"
)

// AllStrategies is the canonical launch order.
var AllStrategies = []Strategy{StrategyExact, StrategyMetadata, StrategyFuzzy, StrategySemantic}

type ExtractedEntities struct {
	Codes      []string `json:"codes"`
	Names      []string `json:"names"`
	Properties []string `json:"properties"`
}

// QueryClassification is produced per query and discarded with the response.
// ExpandedQueries[0] is always the original query verbatim.
type QueryClassification struct {
	Query                 string            `json:"query"`
	Normalized            string            `json:"normalized"`
	Intent                Intent            `json:"intent"`
	Confidence            float64           `json:"confidence"`
	Entities              ExtractedEntities `json:"extracted_entities"`
	ExpandedQueries       []string          `json:"expanded_queries"`
	RecommendedStrategies []Strategy        `json:"recommended_strategies"`
}

func (c QueryClassification) Recommends(s Strategy) bool {
	for _, rec := range c.RecommendedStrategies {
		if rec == s {
			return true
		}
	}
	return false
}

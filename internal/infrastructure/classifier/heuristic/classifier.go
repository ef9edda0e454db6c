// Package heuristic classifies search queries with pattern and keyword rules,
// without a trained model.
package heuristic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/lexicon"
)

const (
	defaultMaxExpandedQueries = 5
	minQueryRunes             = 2

	maxKeywordConfidence     = 0.85
	baseKeywordConfidence    = 0.4
	genericConfidencePerWord = 0.1
	maxGenericConfidence     = 0.6
	lowConfidenceThreshold   = 0.3
)

type codeDetector struct {
	name       string
	pattern    *regexp.Regexp
	confidence float64
}

// defaultCodePrefixes are the catalog prefixes recognised in lower case.
var defaultCodePrefixes = []string{"RM"}

// Detectors run in order; the first one that matches wins. Lower-case letters
// only count when they spell a known catalog prefix.
var codeDetectors = []codeDetector{
	{
		name:       "joined_code",
		pattern:    regexp.MustCompile(`(?i)\b([a-z]{2,4})([-_]?)(\d{3,6})\b`),
		confidence: 0.95,
	},
	{
		name:       "spaced_code",
		pattern:    regexp.MustCompile(`\b([A-Z]{2,4})( )(\d{3,6})\b`),
		confidence: 0.9,
	},
}

var (
	quotedPattern      = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
	capitalizedPattern = regexp.MustCompile(`\b[A-Z][\p{L}0-9-]*(?:\s+[A-Z][\p{L}0-9-]*)+`)
)

var leadingStopwords = map[string]struct{}{
	"what": {}, "where": {}, "which": {}, "find": {}, "show": {}, "the": {},
	"is": {}, "a": {}, "an": {}, "please": {}, "give": {}, "me": {},
}

type Config struct {
	MaxExpandedQueries int
	// CodePrefixes accepted in lower case, e.g. "rm000001". Upper-case codes
	// are accepted with any prefix.
	CodePrefixes []string
}

type Classifier struct {
	maxExpanded int
	prefixes    map[string]struct{}
}

func New(cfg Config) *Classifier {
	maxExpanded := cfg.MaxExpandedQueries
	if maxExpanded <= 0 {
		maxExpanded = defaultMaxExpandedQueries
	}
	prefixes := cfg.CodePrefixes
	if len(prefixes) == 0 {
		prefixes = defaultCodePrefixes
	}
	known := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			known[p] = struct{}{}
		}
	}
	return &Classifier{maxExpanded: maxExpanded, prefixes: known}
}

// Classify never fails. Queries shorter than two runes after normalization
// return a generic, zero-confidence classification with semantic search only.
func (c *Classifier) Classify(query string) domain.QueryClassification {
	normalized := lexicon.Normalize(query)
	out := domain.QueryClassification{
		Query:      query,
		Normalized: normalized,
		Intent:     domain.IntentGeneric,
		Entities: domain.ExtractedEntities{
			Codes:      []string{},
			Names:      []string{},
			Properties: []string{},
		},
		ExpandedQueries:       []string{query},
		RecommendedStrategies: []domain.Strategy{domain.StrategySemantic},
	}
	if utf8.RuneCountInString(normalized) < minQueryRunes {
		return out
	}

	trimmed := norm.NFC.String(strings.TrimSpace(query))
	codes, codeConfidence := c.detectCodes(trimmed)
	propertyHits := lexicon.Match(normalized, lexicon.PropertyTerms)
	nameHits := lexicon.Match(normalized, lexicon.NameLookupTerms)

	out.Entities.Codes = codes
	out.Entities.Properties = canonicalTerms(propertyHits)
	out.Entities.Names = c.extractNames(trimmed, normalized, nameHits)

	switch {
	case len(codes) > 0:
		out.Intent = domain.IntentExactCode
		out.Confidence = codeConfidence
	default:
		out.Intent, out.Confidence = scoreKeywords(normalized, propertyHits, nameHits)
	}

	out.ExpandedQueries = c.expand(query, normalized, out.Entities.Names)
	out.RecommendedStrategies = recommend(out.Intent, out.Confidence)
	return out
}

func (c *Classifier) detectCodes(text string) ([]string, float64) {
	for _, detector := range codeDetectors {
		matches := detector.pattern.FindAllStringSubmatch(text, -1)
		codes := make([]string, 0, len(matches)*2)
		for _, m := range matches {
			if !c.acceptPrefix(m[1]) {
				continue
			}
			prefix := strings.ToUpper(m[1])
			verbatim := prefix + m[2] + m[3]
			codes = appendUnique(codes, verbatim)
			codes = appendUnique(codes, prefix+m[3])
		}
		if len(codes) > 0 {
			return codes, detector.confidence
		}
	}
	return nil, 0
}

func (c *Classifier) acceptPrefix(prefix string) bool {
	if prefix == strings.ToUpper(prefix) {
		return true
	}
	_, ok := c.prefixes[strings.ToUpper(prefix)]
	return ok
}

func scoreKeywords(normalized string, propertyHits, nameHits []lexicon.Hit) (domain.Intent, float64) {
	propertyScore := sumWeights(propertyHits)
	nameScore := sumWeights(nameHits)

	switch {
	case propertyScore == 0 && nameScore == 0:
		words := len(strings.Fields(normalized))
		confidence := genericConfidencePerWord * float64(words)
		if confidence > maxGenericConfidence {
			confidence = maxGenericConfidence
		}
		return domain.IntentGeneric, confidence
	case nameScore >= propertyScore:
		return domain.IntentNameSearch, keywordConfidence(nameScore)
	default:
		return domain.IntentPropertySearch, keywordConfidence(propertyScore)
	}
}

func keywordConfidence(score float64) float64 {
	confidence := baseKeywordConfidence + score
	if confidence > maxKeywordConfidence {
		return maxKeywordConfidence
	}
	return confidence
}

func recommend(intent domain.Intent, confidence float64) []domain.Strategy {
	switch intent {
	case domain.IntentExactCode:
		return []domain.Strategy{domain.StrategyExact, domain.StrategyMetadata}
	case domain.IntentNameSearch:
		return []domain.Strategy{domain.StrategyFuzzy, domain.StrategySemantic}
	case domain.IntentPropertySearch:
		return []domain.Strategy{domain.StrategySemantic, domain.StrategyMetadata}
	default:
		if confidence < lowConfidenceThreshold {
			all := make([]domain.Strategy, len(domain.AllStrategies))
			copy(all, domain.AllStrategies)
			return all
		}
		return []domain.Strategy{domain.StrategySemantic}
	}
}

func (c *Classifier) extractNames(original, normalized string, nameHits []lexicon.Hit) []string {
	names := make([]string, 0, 2)

	for _, m := range quotedPattern.FindAllStringSubmatch(original, -1) {
		for _, group := range m[1:] {
			if s := strings.TrimSpace(group); s != "" {
				names = appendUniqueFold(names, s)
			}
		}
	}

	withoutCodes := original
	for _, detector := range codeDetectors {
		withoutCodes = detector.pattern.ReplaceAllString(withoutCodes, " | ")
	}
	for _, span := range capitalizedPattern.FindAllString(withoutCodes, -1) {
		if name := trimLeadingStopwords(span); len(strings.Fields(name)) >= 2 {
			names = appendUniqueFold(names, name)
		}
	}

	if name := c.nameAfterLookupPhrase(normalized, nameHits); name != "" {
		names = appendUniqueFold(names, name)
	}
	return names
}

func (c *Classifier) nameAfterLookupPhrase(normalized string, nameHits []lexicon.Hit) string {
	best := ""
	for _, hit := range nameHits {
		idx := strings.Index(normalized, hit.Phrase)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(normalized[idx+len(hit.Phrase):])
		rest = strings.Trim(rest, " ?!.,:;\"“”")
		rest = trimLeadingStopwords(rest)
		if rest == "" || c.isCode(rest) {
			continue
		}
		// Prefer the tail of the longest phrase that still leaves a name.
		if best == "" || len(rest) < len(best) {
			best = rest
		}
	}
	return best
}

func trimLeadingStopwords(span string) string {
	words := strings.Fields(span)
	for len(words) > 0 {
		if _, ok := leadingStopwords[strings.ToLower(words[0])]; !ok {
			break
		}
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func (c *Classifier) isCode(s string) bool {
	codes, _ := c.detectCodes(s)
	return len(codes) > 0 && len(strings.Fields(s)) == 1
}

func (c *Classifier) expand(original, normalized string, names []string) []string {
	out := make([]string, 0, c.maxExpanded)
	out = append(out, original)
	add := func(q string) {
		if q == "" || len(out) >= c.maxExpanded {
			return
		}
		out = appendUnique(out, q)
	}

	add(normalized)
	if lexicon.ContainsThai(normalized) {
		if substituted, ok := lexicon.SubstituteThai(normalized); ok {
			add(substituted)
		}
	}
	for _, name := range names {
		add(name)
	}
	return out
}

func canonicalTerms(hits []lexicon.Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = appendUnique(out, h.Canonical)
	}
	return out
}

func sumWeights(hits []lexicon.Hit) float64 {
	total := 0.0
	for _, h := range hits {
		total += h.Weight
	}
	return total
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func appendUniqueFold(list []string, s string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, s) {
			return list
		}
	}
	return append(list, s)
}

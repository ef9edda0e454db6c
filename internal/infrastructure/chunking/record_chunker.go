package chunking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/lexicon"
)

const (
	defaultMaxLength = 500
	defaultOverlap   = 50
)

// chunkNamespace seeds deterministic chunk ids so reindexing a record
// overwrites its previous points.
var chunkNamespace = uuid.MustParse("6b1d5f0e-8c59-4c0b-9a43-2f1f0c7e5a11")

// DefaultWeights is the priority weight per chunk type.
func DefaultWeights() map[domain.ChunkType]float64 {
	return map[domain.ChunkType]float64{
		domain.ChunkPrimaryIdentifier: 1.0,
		domain.ChunkCodeOnly:          1.0,
		domain.ChunkTechnical:         0.9,
		domain.ChunkCommercial:        0.8,
		domain.ChunkDescriptive:       0.7,
		domain.ChunkCombinedContext:   0.85,
		domain.ChunkLocalized:         0.9,
	}
}

type Config struct {
	MaxLength int
	Overlap   int
	Languages []string
	Weights   map[domain.ChunkType]float64
}

// RecordChunker turns one catalog record into weighted chunks for indexing.
// It is deterministic for a fixed Config.
type RecordChunker struct {
	maxLength int
	splitter  *Splitter
	languages []string
	weights   map[domain.ChunkType]float64
}

func NewRecordChunker(cfg Config) *RecordChunker {
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}
	overlap := cfg.Overlap
	if overlap <= 0 {
		overlap = defaultOverlap
	}
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{lexicon.LangEnglish, lexicon.LangThai}
	}
	weights := DefaultWeights()
	for chunkType, w := range cfg.Weights {
		if w > 0 && w <= 1 {
			weights[chunkType] = w
		}
	}
	return &RecordChunker{
		maxLength: maxLength,
		splitter:  NewSplitter(maxLength, overlap),
		languages: languages,
		weights:   weights,
	}
}

// Chunk returns ErrMalformedRecord for records without identity fields. Chunk
// types whose source fields are empty are omitted.
func (c *RecordChunker) Chunk(record domain.CatalogRecord) ([]domain.Chunk, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	r := cleanRecord(record)
	tags := recordTags(r)

	out := make([]domain.Chunk, 0, 8)
	add := func(chunkType domain.ChunkType, ordinal int, lang, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		out = append(out, domain.Chunk{
			ID:             chunkID(r.ID, chunkType, ordinal, lang),
			SourceRecordID: r.ID,
			ChunkType:      chunkType,
			Ordinal:        ordinal,
			Language:       lang,
			Text:           text,
			PriorityWeight: c.weights[chunkType],
			Code:           r.CanonicalCode,
			Tags:           tags,
		})
	}

	add(domain.ChunkPrimaryIdentifier, 0, "", joinNonEmpty(" | ", r.CanonicalCode, r.DisplayName, r.AltName))
	if r.CanonicalCode != "" {
		add(domain.ChunkCodeOnly, 0, "", joinNonEmpty(" ", r.CanonicalCode, firstNonEmpty(r.DisplayName, r.AltName)))
	}
	if r.AltName != "" || r.Category != "" || len(r.FunctionTags) > 0 {
		add(domain.ChunkTechnical, 0, "", joinNonEmpty(" | ", r.AltName, r.Category, strings.Join(r.FunctionTags, ", ")))
	}
	if r.Supplier != "" || r.Cost > 0 {
		add(domain.ChunkCommercial, 0, "", joinNonEmpty(" | ", r.CanonicalCode, r.Supplier, formatCost(r.Cost, r.Currency)))
	}

	descriptive := joinNonEmpty(". ", strings.Join(r.Benefits, ", "), r.Description)
	for i, window := range c.splitter.Split(descriptive) {
		add(domain.ChunkDescriptive, i, "", window)
	}

	add(domain.ChunkCombinedContext, 0, "", truncateRunes(joinNonEmpty(" | ",
		r.CanonicalCode,
		r.DisplayName,
		r.AltName,
		r.Category,
		strings.Join(r.FunctionTags, ", "),
		strings.Join(r.Benefits, ", "),
		r.Supplier,
		formatCost(r.Cost, r.Currency),
		r.Description,
	), c.maxLength))

	for _, lang := range c.languages {
		if text := localizedText(r, lang); text != "" {
			add(domain.ChunkLocalized, 0, lang, truncateRunes(text, c.maxLength))
		}
	}
	return out, nil
}

func chunkID(recordID string, chunkType domain.ChunkType, ordinal int, lang string) string {
	key := recordID + "/" + string(chunkType) + "/" + strconv.Itoa(ordinal)
	if lang != "" {
		key += "/" + lang
	}
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}

func cleanRecord(r domain.CatalogRecord) domain.CatalogRecord {
	r.ID = strings.TrimSpace(r.ID)
	r.CanonicalCode = strings.TrimSpace(r.CanonicalCode)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.AltName = strings.TrimSpace(r.AltName)
	r.Category = strings.TrimSpace(r.Category)
	r.Supplier = strings.TrimSpace(r.Supplier)
	r.Description = strings.TrimSpace(r.Description)
	r.FunctionTags = nonEmpty(r.FunctionTags)
	r.Benefits = nonEmpty(r.Benefits)
	return r
}

// recordTags feeds the metadata filter: category, function tags and the
// canonical property terms found in benefits and description.
func recordTags(r domain.CatalogRecord) []string {
	tags := make([]string, 0, len(r.FunctionTags)+4)
	seen := make(map[string]struct{}, cap(tags))
	push := func(tag string) {
		tag = lexicon.Normalize(tag)
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	push(r.Category)
	for _, t := range r.FunctionTags {
		push(t)
	}
	for _, t := range lexicon.CanonicalProperties(strings.Join(append(append([]string{}, r.Benefits...), r.FunctionTags...), " ; ")) {
		push(t)
	}
	for _, t := range lexicon.CanonicalProperties(r.Description) {
		push(t)
	}
	return tags
}

var fieldLabels = map[string]map[string]string{
	lexicon.LangEnglish: {
		"code":        "Code",
		"name":        "Name",
		"inci":        "INCI name",
		"category":    "Category",
		"function":    "Function",
		"benefits":    "Benefits",
		"supplier":    "Supplier",
		"description": "Description",
	},
	lexicon.LangThai: {
		"code":        "รหัส",
		"name":        "ชื่อ",
		"inci":        "ชื่อ INCI",
		"category":    "หมวดหมู่",
		"function":    "หน้าที่",
		"benefits":    "คุณสมบัติ",
		"supplier":    "ผู้จำหน่าย",
		"description": "รายละเอียด",
	},
}

// localizedText renders labelled fields in lang. Identity fields appear in
// every language; free text only where it is written in that language. A
// language with no free text of its own yields "".
func localizedText(r domain.CatalogRecord, lang string) string {
	labels, ok := fieldLabels[lang]
	if !ok {
		return ""
	}
	inLang := func(s string) bool {
		switch lang {
		case lexicon.LangThai:
			return lexicon.ContainsThai(s)
		default:
			return lexicon.ContainsLatin(s)
		}
	}

	var localized []string
	keep := func(values ...string) []string {
		out := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" && inLang(v) {
				out = append(out, v)
			}
		}
		return out
	}

	var b strings.Builder
	line := func(key, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", labels[key], value)
	}

	line("code", r.CanonicalCode)
	line("name", r.DisplayName)
	line("inci", r.AltName)

	if r.Category != "" && inLang(r.Category) {
		localized = append(localized, r.Category)
		line("category", r.Category)
	}
	if functions := keep(r.FunctionTags...); len(functions) > 0 {
		localized = append(localized, functions...)
		line("function", strings.Join(functions, ", "))
	}
	if benefits := keep(r.Benefits...); len(benefits) > 0 {
		localized = append(localized, benefits...)
		line("benefits", strings.Join(benefits, ", "))
	}
	if r.Supplier != "" && inLang(r.Supplier) {
		line("supplier", r.Supplier)
	}
	if r.Description != "" && inLang(r.Description) {
		localized = append(localized, r.Description)
		line("description", r.Description)
	}

	if len(localized) == 0 && !inLang(r.DisplayName) && !inLang(r.AltName) {
		return ""
	}
	return b.String()
}

func formatCost(cost float64, currency string) string {
	if cost <= 0 {
		return ""
	}
	return joinNonEmpty(" ", strconv.FormatFloat(cost, 'f', 2, 64), strings.TrimSpace(currency))
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

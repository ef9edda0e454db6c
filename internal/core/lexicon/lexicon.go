// Package lexicon holds the English/Thai vocabulary used to classify queries,
// route them across collections and tag chunks at index time.
package lexicon

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	LangEnglish = "en"
	LangThai    = "th"
)

// Term is one dictionary entry. Canonical is the Latin-script form shared by
// all phrasings of the same concept.
type Term struct {
	Phrase    string
	Canonical string
	Weight    float64
	Lang      string
}

// Hit is a term found in a text at rune offset Pos.
type Hit struct {
	Term
	Pos int
}

// Normalize trims, NFC-normalizes, collapses whitespace and case-folds Latin
// script. Other scripts are left untouched.
func Normalize(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")

	folder := cases.Fold()
	var b strings.Builder
	b.Grow(len(s))
	var latin strings.Builder
	flush := func() {
		if latin.Len() > 0 {
			b.WriteString(folder.String(latin.String()))
			latin.Reset()
		}
	}
	for _, r := range s {
		if unicode.Is(unicode.Latin, r) {
			latin.WriteRune(r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

// Contains reports whether normalized text contains term. Latin terms must sit
// on word boundaries; Thai terms match as substrings since Thai has no spaces.
func Contains(text, term string) bool {
	return indexTerm(text, term) >= 0
}

func indexTerm(text, term string) int {
	if term == "" || text == "" {
		return -1
	}
	if !IsLatinOnly(term) {
		return strings.Index(text, term)
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.Is(unicode.Latin, r) || unicode.IsDigit(r)
}

// IsLatinOnly reports whether every letter in s is Latin script.
func IsLatinOnly(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

func ContainsThai(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Thai, r) {
			return true
		}
	}
	return false
}

func ContainsLatin(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// Match finds dictionary terms in normalized text. Hits are deduplicated by
// canonical form (keeping the heaviest phrasing) and ordered by position.
func Match(text string, terms []Term) []Hit {
	if text == "" {
		return nil
	}
	byCanonical := make(map[string]Hit, 4)
	for _, term := range terms {
		pos := indexTerm(text, term.Phrase)
		if pos < 0 {
			continue
		}
		hit := Hit{Term: term, Pos: utf8.RuneCountInString(text[:pos])}
		current, ok := byCanonical[term.Canonical]
		if !ok || term.Weight > current.Weight {
			if ok && current.Pos < hit.Pos {
				hit.Pos = current.Pos
			}
			byCanonical[term.Canonical] = hit
		}
	}
	out := make([]Hit, 0, len(byCanonical))
	for _, h := range byCanonical {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pos != out[j].Pos {
			return out[i].Pos < out[j].Pos
		}
		return out[i].Canonical < out[j].Canonical
	})
	return out
}

// MatchesAny reports whether any phrase in terms occurs in normalized text.
func MatchesAny(text string, terms []Term) bool {
	for _, term := range terms {
		if Contains(text, term.Phrase) {
			return true
		}
	}
	return false
}

// negations cancel a term they directly precede.
var negations = []string{"not", "no", "never", "no longer", "without", "ไม่", "ไม่มี"}

// MatchesAnyAffirmed is MatchesAny that ignores occurrences directly preceded
// by a negation, so "not available" does not count as "available".
func MatchesAnyAffirmed(text string, terms []Term) bool {
	for _, term := range terms {
		for offset := 0; offset < len(text); {
			i := indexTerm(text[offset:], term.Phrase)
			if i < 0 {
				break
			}
			start := offset + i
			if !negated(text[:start]) {
				return true
			}
			offset = start + len(term.Phrase)
		}
	}
	return false
}

func negated(prefix string) bool {
	prefix = strings.TrimRight(prefix, " ")
	for _, n := range negations {
		if !strings.HasSuffix(prefix, n) {
			continue
		}
		if IsLatinOnly(n) && !boundaryBefore(prefix, len(prefix)-len(n)) {
			continue
		}
		return true
	}
	return false
}

// CanonicalProperties returns the canonical property terms found in text.
func CanonicalProperties(text string) []string {
	hits := Match(Normalize(text), PropertyTerms)
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Canonical)
	}
	return out
}

// SubstituteThai replaces Thai property phrases in normalized text with their
// canonical Latin form. It reports whether anything was replaced.
func SubstituteThai(text string) (string, bool) {
	thai := make([]Term, 0, len(PropertyTerms))
	for _, t := range PropertyTerms {
		if t.Lang == LangThai {
			thai = append(thai, t)
		}
	}
	sort.SliceStable(thai, func(i, j int) bool {
		return utf8.RuneCountInString(thai[i].Phrase) > utf8.RuneCountInString(thai[j].Phrase)
	})

	replaced := false
	for _, t := range thai {
		if strings.Contains(text, t.Phrase) {
			text = strings.ReplaceAll(text, t.Phrase, " "+t.Canonical+" ")
			replaced = true
		}
	}
	if !replaced {
		return text, false
	}
	return strings.Join(strings.Fields(text), " "), true
}

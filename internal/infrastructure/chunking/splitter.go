package chunking

import (
	"strings"
	"unicode"
)

// Splitter cuts long text into overlapping rune windows. A window prefers to
// end on whitespace when one exists in its last fifth.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultMaxLength
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []string{string(runes)}
	}

	out := make([]string, 0, len(runes)/(s.ChunkSize-s.Overlap)+1)
	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes, end-s.ChunkSize/5, end); cut > start+s.Overlap {
			end = cut
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
		start = end - s.Overlap
	}
	return out
}

func lastSpace(runes []rune, from, to int) int {
	if from < 0 {
		from = 0
	}
	for i := to - 1; i >= from; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

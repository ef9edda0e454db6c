package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const (
	DefaultDimensions = 256
	tokenK            = 1.2
	trigramWeight     = 0.5
)

// Embedder hashes word tokens and character trigrams into a fixed-size dense
// vector. Vectors are L2-normalized so cosine similarity equals dot product.
// It needs no model server and is deterministic across processes.
type Embedder struct {
	dims int
}

func New(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

func (e *Embedder) Dimensions() int {
	return e.dims
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, e.encode(text))
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) encode(text string) []float32 {
	termFreq := make(map[uint32]float64, 64)
	for _, token := range tokenize(text) {
		termFreq[hashToken(token)] += 1.0
		for _, gram := range trigrams(token) {
			termFreq[hashToken("#"+gram)] += trigramWeight
		}
	}

	vec := make([]float32, e.dims)
	for h, tf := range termFreq {
		weight := (tf * (tokenK + 1.0)) / (tf + tokenK)
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			continue
		}
		// The top bit picks the sign to keep collisions from only adding up.
		if h&(1<<31) != 0 {
			weight = -weight
		}
		vec[int(h%uint32(e.dims))] += float32(weight)
	}
	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// tokenize splits on anything that is not a letter, mark or digit. Thai
// combining vowels and tone marks are unicode.Mn, so they stay inside tokens.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func trigrams(token string) []string {
	runes := []rune(token)
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return h.Sum32()
}

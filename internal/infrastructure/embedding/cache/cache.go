package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

const (
	DefaultSize = 10000
	DefaultTTL  = 30 * time.Minute
)

// Embedder memoizes vectors by content hash in a bounded LRU with TTL.
// Only misses reach the wrapped embedder, batched in one call.
type Embedder struct {
	inner     ports.Embedder
	namespace string
	cache     *expirable.LRU[string, []float32]
}

// New wraps inner. namespace separates vectors of different models that
// share one process.
func New(inner ports.Embedder, namespace string, size int, ttl time.Duration) *Embedder {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Embedder{
		inner:     inner,
		namespace: namespace,
		cache:     expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))
	pending := make(map[string]int, len(texts))
	for i, text := range texts {
		keys[i] = e.key(text)
		if vec, ok := e.cache.Get(keys[i]); ok {
			out[i] = clone(vec)
			continue
		}
		missIdx = append(missIdx, i)
		if _, ok := pending[keys[i]]; !ok {
			pending[keys[i]] = len(missTexts)
			missTexts = append(missTexts, text)
		}
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := e.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(missTexts))
	}
	for i, text := range missTexts {
		e.cache.Add(e.key(text), clone(vectors[i]))
	}
	for _, i := range missIdx {
		out[i] = clone(vectors[pending[keys[i]]])
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

func (e *Embedder) Len() int {
	return e.cache.Len()
}

func (e *Embedder) key(text string) string {
	h := sha256.Sum256([]byte(e.namespace + "\x00" + text))
	return hex.EncodeToString(h[:])
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// Index is an in-process cosine index with the same namespace and filter
// semantics as the Qdrant client. Used by local mode and tests.
type Index struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]domain.VectorPoint
}

func NewIndex() *Index {
	return &Index{namespaces: make(map[string]map[string]domain.VectorPoint)}
}

func (i *Index) Upsert(_ context.Context, namespace string, points []domain.VectorPoint) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	ns := i.namespaces[namespace]
	if ns == nil {
		ns = make(map[string]domain.VectorPoint, len(points))
		i.namespaces[namespace] = ns
	}
	for _, p := range points {
		if p.Chunk.ID == "" {
			return domain.WrapError(domain.ErrInvalidInput, "memory upsert", fmt.Errorf("chunk without id for record %s", p.Chunk.SourceRecordID))
		}
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		p.Vector = vec
		ns[p.Chunk.ID] = p
	}
	return nil
}

func (i *Index) DeleteByRecord(_ context.Context, namespace, recordID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, p := range i.namespaces[namespace] {
		if p.Chunk.SourceRecordID == recordID {
			delete(i.namespaces[namespace], id)
		}
	}
	return nil
}

func (i *Index) Query(_ context.Context, namespace string, vector []float32, topK int, filter *domain.MetadataFilter) ([]domain.VectorMatch, error) {
	if len(vector) == 0 || topK <= 0 {
		return []domain.VectorMatch{}, nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]domain.VectorMatch, 0, len(i.namespaces[namespace]))
	for id, p := range i.namespaces[namespace] {
		if filter != nil && !filter.IsEmpty() && !matches(p.Chunk, *filter) {
			continue
		}
		out = append(out, toMatch(id, p, cosine(vector, p.Vector)))
	}
	sortMatches(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (i *Index) Filter(_ context.Context, namespace string, filter domain.MetadataFilter, limit int) ([]domain.VectorMatch, error) {
	if filter.IsEmpty() || limit <= 0 {
		return []domain.VectorMatch{}, nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]domain.VectorMatch, 0)
	for id, p := range i.namespaces[namespace] {
		if matches(p.Chunk, filter) {
			out = append(out, toMatch(id, p, 0))
		}
	}
	sortMatches(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports the number of points stored in a namespace.
func (i *Index) Len(namespace string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.namespaces[namespace])
}

func toMatch(id string, p domain.VectorPoint, score float64) domain.VectorMatch {
	return domain.VectorMatch{
		PointID:        id,
		RecordID:       p.Chunk.SourceRecordID,
		ChunkType:      p.Chunk.ChunkType,
		PriorityWeight: p.Chunk.PriorityWeight,
		Score:          score,
	}
}

// matches mirrors Qdrant keyword matching: codes and tags compare exactly.
func matches(c domain.Chunk, filter domain.MetadataFilter) bool {
	for _, code := range filter.Codes {
		if code != "" && code == c.Code {
			return true
		}
	}
	for _, tag := range filter.Tags {
		for _, have := range c.Tags {
			if strings.TrimSpace(tag) != "" && tag == have {
				return true
			}
		}
	}
	return false
}

func sortMatches(out []domain.VectorMatch) {
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].PointID < out[b].PointID
	})
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

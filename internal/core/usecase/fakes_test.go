package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

var errCollaboratorDown = errors.New("connection refused")

type storeFake struct {
	records []domain.CatalogRecord
	err     error
	// blockGetByID makes GetByID wait for its context.
	blockGetByID bool
}

func (f *storeFake) GetByCodeOrName(_ context.Context, collection domain.CollectionRef, text string) ([]domain.RecordMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	var exact, partial []domain.RecordMatch
	for _, r := range f.visible(collection) {
		fields := []string{r.CanonicalCode, r.DisplayName, r.AltName}
		matchedExact, matchedPartial := false, false
		for _, field := range fields {
			value := strings.ToLower(field)
			if value == "" {
				continue
			}
			if value == needle {
				matchedExact = true
			} else if strings.Contains(value, needle) {
				matchedPartial = true
			}
		}
		switch {
		case matchedExact:
			exact = append(exact, domain.RecordMatch{Record: r, Exact: true})
		case matchedPartial:
			partial = append(partial, domain.RecordMatch{Record: r})
		}
	}
	return append(exact, partial...), nil
}

func (f *storeFake) ListAll(_ context.Context, collection domain.CollectionRef, visit func(domain.CatalogRecord) error) error {
	if f.err != nil {
		return f.err
	}
	for _, r := range f.visible(collection) {
		if err := visit(r); err != nil {
			return err
		}
	}
	return nil
}

func (f *storeFake) GetByID(ctx context.Context, id string) (*domain.CatalogRecord, error) {
	if f.blockGetByID {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.records {
		if r.ID == id {
			out := r
			return &out, nil
		}
	}
	return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", errors.New(id))
}

func (f *storeFake) visible(collection domain.CollectionRef) []domain.CatalogRecord {
	out := make([]domain.CatalogRecord, 0, len(f.records))
	for _, r := range f.records {
		if collection.AvailableOnly && !r.Available {
			continue
		}
		out = append(out, r)
	}
	return out
}

type indexFake struct {
	mu      sync.Mutex
	points  map[string]map[string]domain.VectorPoint
	err     error
	deletes []string
}

func newIndexFake() *indexFake {
	return &indexFake{points: make(map[string]map[string]domain.VectorPoint)}
}

func (f *indexFake) Upsert(_ context.Context, namespace string, points []domain.VectorPoint) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.points[namespace] == nil {
		f.points[namespace] = make(map[string]domain.VectorPoint)
	}
	for _, p := range points {
		f.points[namespace][p.Chunk.ID] = p
	}
	return nil
}

func (f *indexFake) DeleteByRecord(_ context.Context, namespace, recordID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, namespace+"/"+recordID)
	for id, p := range f.points[namespace] {
		if p.Chunk.SourceRecordID == recordID {
			delete(f.points[namespace], id)
		}
	}
	return nil
}

func (f *indexFake) Query(_ context.Context, namespace string, vector []float32, topK int, _ *domain.MetadataFilter) ([]domain.VectorMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.VectorMatch, 0, len(f.points[namespace]))
	for id, p := range f.points[namespace] {
		out = append(out, domain.VectorMatch{
			PointID:        id,
			RecordID:       p.Chunk.SourceRecordID,
			ChunkType:      p.Chunk.ChunkType,
			PriorityWeight: p.Chunk.PriorityWeight,
			Score:          cosine(vector, p.Vector),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].PointID < out[j].PointID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (f *indexFake) Filter(_ context.Context, namespace string, filter domain.MetadataFilter, limit int) ([]domain.VectorMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.VectorMatch, 0)
	for id, p := range f.points[namespace] {
		if !matchesFilter(p.Chunk, filter) {
			continue
		}
		out = append(out, domain.VectorMatch{
			PointID:        id,
			RecordID:       p.Chunk.SourceRecordID,
			ChunkType:      p.Chunk.ChunkType,
			PriorityWeight: p.Chunk.PriorityWeight,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PointID < out[j].PointID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *indexFake) count(namespace string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points[namespace])
}

func matchesFilter(c domain.Chunk, filter domain.MetadataFilter) bool {
	for _, code := range filter.Codes {
		if strings.EqualFold(code, c.Code) {
			return true
		}
	}
	for _, tag := range filter.Tags {
		for _, have := range c.Tags {
			if tag == have {
				return true
			}
		}
	}
	return false
}

// embedderFake hashes character trigrams into a small vector.
type embedderFake struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, trigramVector(t))
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func trigramVector(text string) []float32 {
	v := make([]float32, 64)
	runes := []rune(strings.ToLower(text))
	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(string(runes[i : i+3])))
		v[h.Sum32()%64]++
	}
	return v
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type classifierStub struct {
	cls domain.QueryClassification
}

func (s classifierStub) Classify(string) domain.QueryClassification { return s.cls }

type strategyStub struct {
	name       domain.Strategy
	candidates []domain.CandidateResult
	err        error
	block      bool
}

func (s strategyStub) Name() domain.Strategy { return s.name }

func (s strategyStub) Search(ctx context.Context, _ []string, _ domain.QueryClassification, _ domain.CollectionRef) ([]domain.CandidateResult, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.candidates, s.err
}

type guardFake struct {
	mu  sync.Mutex
	ops []string
}

func (g *guardFake) Guard(ctx context.Context, op string, fn func(context.Context) error) error {
	g.mu.Lock()
	g.ops = append(g.ops, op)
	g.mu.Unlock()
	return fn(ctx)
}

type observerFake struct {
	mu         sync.Mutex
	strategies map[string]int
	searches   []string
}

func (o *observerFake) ObserveStrategy(s domain.Strategy, collection, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.strategies == nil {
		o.strategies = make(map[string]int)
	}
	o.strategies[string(s)+"/"+collection+"/"+outcome]++
}

func (o *observerFake) ObserveSearch(_ domain.Intent, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.searches = append(o.searches, outcome)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// CatalogStore keeps records in process. It backs local mode and tests and
// follows the Postgres store's matching rules.
type CatalogStore struct {
	mu      sync.RWMutex
	records map[string]domain.CatalogRecord
}

func NewCatalogStore(records ...domain.CatalogRecord) *CatalogStore {
	s := &CatalogStore{records: make(map[string]domain.CatalogRecord, len(records))}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *CatalogStore) UpsertRecord(_ context.Context, record domain.CatalogRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *CatalogStore) DeleteRecord(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	delete(s.records, id)
	return ok
}

func (s *CatalogStore) GetByCodeOrName(_ context.Context, collection domain.CollectionRef, text string) ([]domain.RecordMatch, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return []domain.RecordMatch{}, nil
	}

	var exact, partial []domain.RecordMatch
	for _, r := range s.snapshot(collection) {
		isExact, isPartial := false, false
		for _, field := range []string{r.CanonicalCode, r.DisplayName, r.AltName} {
			value := strings.ToLower(strings.TrimSpace(field))
			switch {
			case value == "":
			case value == needle:
				isExact = true
			case strings.Contains(value, needle):
				isPartial = true
			}
		}
		switch {
		case isExact:
			exact = append(exact, domain.RecordMatch{Record: r, Exact: true})
		case isPartial:
			partial = append(partial, domain.RecordMatch{Record: r})
		}
	}
	out := make([]domain.RecordMatch, 0, len(exact)+len(partial))
	out = append(out, exact...)
	return append(out, partial...), nil
}

func (s *CatalogStore) ListAll(ctx context.Context, collection domain.CollectionRef, visit func(domain.CatalogRecord) error) error {
	for _, r := range s.snapshot(collection) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := visit(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *CatalogStore) GetByID(_ context.Context, id string) (*domain.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("record %s", id))
	}
	return &r, nil
}

// snapshot copies the visible records sorted by id so callers never hold the lock.
func (s *CatalogStore) snapshot(collection domain.CollectionRef) []domain.CatalogRecord {
	s.mu.RLock()
	out := make([]domain.CatalogRecord, 0, len(s.records))
	for _, r := range s.records {
		if collection.AvailableOnly && !r.Available {
			continue
		}
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

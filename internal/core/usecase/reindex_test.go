package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/chunking"
)

func newReindexer(store *storeFake, index *indexFake, embedder *embedderFake, opts ...ReindexOption) *ReindexUseCase {
	return NewReindexUseCase(store, chunking.NewRecordChunker(chunking.Config{}), embedder, index,
		[]domain.CollectionRef{availableRef, fullRef}, opts...)
}

func TestReindexAllSkipsMalformedRecords(t *testing.T) {
	store := &storeFake{records: []domain.CatalogRecord{
		{ID: "r1", CanonicalCode: "RM000001", DisplayName: "Hyaluronic Acid", Available: true},
		{ID: "bad", Description: "no identity"},
		{ID: "r2", DisplayName: "Ginger Extract"},
		{DisplayName: "missing id"},
	}}
	index := newIndexFake()
	outcomes := make(map[string]int)
	uc := newReindexer(store, index, &embedderFake{}, WithReindexParallelism(2), WithReindexObserver(func(outcome string) {
		outcomes[outcome]++
	}))

	report, err := uc.ReindexAll(context.Background())
	if err != nil {
		t.Fatalf("ReindexAll() error = %v", err)
	}
	if report.Indexed != 2 || report.Skipped != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	sort.Strings(report.SkippedIDs)
	if report.SkippedIDs[0] != "" || report.SkippedIDs[1] != "bad" {
		t.Fatalf("unexpected skipped ids: %v", report.SkippedIDs)
	}
	if outcomes["indexed"] != 2 || outcomes["skipped"] != 2 {
		t.Fatalf("unexpected observed outcomes: %v", outcomes)
	}
	if index.count(fullRef.Namespace) == 0 {
		t.Fatalf("expected indexed chunks")
	}
}

func TestReindexAllCountsEmbeddingFailures(t *testing.T) {
	store := &storeFake{records: []domain.CatalogRecord{{ID: "r1", DisplayName: "Hyaluronic Acid"}}}
	uc := newReindexer(store, newIndexFake(), &embedderFake{err: errCollaboratorDown})

	report, err := uc.ReindexAll(context.Background())
	if err != nil {
		t.Fatalf("ReindexAll() error = %v", err)
	}
	if report.Failed != 1 || len(report.FailedIDs) != 1 {
		t.Fatalf("expected one failed record, got %+v", report)
	}
}

func TestReindexAllReportsScanFailure(t *testing.T) {
	uc := newReindexer(&storeFake{err: errCollaboratorDown}, newIndexFake(), &embedderFake{})
	if _, err := uc.ReindexAll(context.Background()); !errors.Is(err, errCollaboratorDown) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestReindexRemovesRecordThatIsNoLongerAvailable(t *testing.T) {
	record := domain.CatalogRecord{ID: "r1", CanonicalCode: "RM000001", DisplayName: "Hyaluronic Acid", Available: true}
	index := newIndexFake()
	uc := newReindexer(&storeFake{}, index, &embedderFake{})

	if err := uc.Reindex(context.Background(), record); err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	before := index.count(fullRef.Namespace)
	if index.count(availableRef.Namespace) == 0 {
		t.Fatalf("expected chunks in available namespace")
	}

	record.Available = false
	if err := uc.Reindex(context.Background(), record); err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if index.count(availableRef.Namespace) != 0 {
		t.Fatalf("expected record removed from available namespace")
	}
	if index.count(fullRef.Namespace) != before {
		t.Fatalf("expected full namespace unchanged, got %d want %d", index.count(fullRef.Namespace), before)
	}
}

func TestReindexRejectsMalformedRecord(t *testing.T) {
	uc := newReindexer(&storeFake{}, newIndexFake(), &embedderFake{})
	err := uc.Reindex(context.Background(), domain.CatalogRecord{ID: "x"})
	if !domain.IsKind(err, domain.ErrMalformedRecord) {
		t.Fatalf("expected malformed record error, got %v", err)
	}
}

func TestHandleRecordChanged(t *testing.T) {
	record := domain.CatalogRecord{ID: "r1", DisplayName: "Hyaluronic Acid"}
	store := &storeFake{records: []domain.CatalogRecord{record}}
	index := newIndexFake()
	uc := newReindexer(store, index, &embedderFake{})

	if err := uc.HandleRecordChanged(context.Background(), domain.RecordChanged{RecordID: "r1"}); err != nil {
		t.Fatalf("HandleRecordChanged() error = %v", err)
	}
	if index.count(fullRef.Namespace) == 0 {
		t.Fatalf("expected record indexed")
	}

	if err := uc.HandleRecordChanged(context.Background(), domain.RecordChanged{RecordID: "r1", Deleted: true}); err != nil {
		t.Fatalf("HandleRecordChanged(deleted) error = %v", err)
	}
	if index.count(fullRef.Namespace) != 0 {
		t.Fatalf("expected record removed")
	}

	if err := uc.HandleRecordChanged(context.Background(), domain.RecordChanged{RecordID: "gone"}); err != nil {
		t.Fatalf("vanished record should be removed quietly, got %v", err)
	}
	if len(index.deletes) == 0 || index.deletes[len(index.deletes)-1] != fullRef.Namespace+"/gone" {
		t.Fatalf("expected delete for vanished record, got %v", index.deletes)
	}
}

func TestRemoveRecordRequiresID(t *testing.T) {
	uc := newReindexer(&storeFake{}, newIndexFake(), &embedderFake{})
	if err := uc.RemoveRecord(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

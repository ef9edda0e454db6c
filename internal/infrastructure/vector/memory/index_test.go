package memory

import (
	"context"
	"testing"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

func seed(t *testing.T, idx *Index) {
	t.Helper()
	points := []domain.VectorPoint{
		{Chunk: domain.Chunk{ID: "a1", SourceRecordID: "rec-a", ChunkType: domain.ChunkCodeOnly, PriorityWeight: 1, Code: "RM000001", Tags: []string{"humectant"}}, Vector: []float32{1, 0}},
		{Chunk: domain.Chunk{ID: "a2", SourceRecordID: "rec-a", ChunkType: domain.ChunkDescriptive, PriorityWeight: 0.7, Code: "RM000001", Tags: []string{"humectant"}}, Vector: []float32{0.7, 0.7}},
		{Chunk: domain.Chunk{ID: "b1", SourceRecordID: "rec-b", ChunkType: domain.ChunkCodeOnly, PriorityWeight: 1, Code: "RM000002", Tags: []string{"preservative"}}, Vector: []float32{0, 1}},
	}
	if err := idx.Upsert(context.Background(), "full", points); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestQueryOrdersByCosine(t *testing.T) {
	idx := NewIndex()
	seed(t, idx)

	got, err := idx.Query(context.Background(), "full", []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 || got[0].PointID != "a1" || got[1].PointID != "a2" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Score < 0.999 {
		t.Fatalf("expected identical vector to score 1, got %f", got[0].Score)
	}
}

func TestQueryAppliesFilter(t *testing.T) {
	idx := NewIndex()
	seed(t, idx)

	got, _ := idx.Query(context.Background(), "full", []float32{1, 0}, 10, &domain.MetadataFilter{Tags: []string{"preservative"}})
	if len(got) != 1 || got[0].RecordID != "rec-b" {
		t.Fatalf("unexpected filtered result: %+v", got)
	}
}

func TestFilterMatchesCodesOrTags(t *testing.T) {
	idx := NewIndex()
	seed(t, idx)

	got, _ := idx.Filter(context.Background(), "full", domain.MetadataFilter{Codes: []string{"RM000002"}, Tags: []string{"humectant"}}, 10)
	if len(got) != 3 {
		t.Fatalf("expected every point to match codes or tags, got %+v", got)
	}
	for _, m := range got {
		if m.Score != 0 {
			t.Fatalf("filter hits must not carry a score: %+v", m)
		}
	}

	got, _ = idx.Filter(context.Background(), "full", domain.MetadataFilter{Codes: []string{"RM000001"}}, 1)
	if len(got) != 1 || got[0].RecordID != "rec-a" {
		t.Fatalf("expected limit to apply, got %+v", got)
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	idx := NewIndex()
	seed(t, idx)

	got, _ := idx.Query(context.Background(), "available", []float32{1, 0}, 10, nil)
	if len(got) != 0 {
		t.Fatalf("expected empty namespace, got %+v", got)
	}
}

func TestDeleteByRecord(t *testing.T) {
	idx := NewIndex()
	seed(t, idx)

	if err := idx.DeleteByRecord(context.Background(), "full", "rec-a"); err != nil {
		t.Fatalf("DeleteByRecord() error = %v", err)
	}
	if idx.Len("full") != 1 {
		t.Fatalf("expected 1 point left, got %d", idx.Len("full"))
	}
}

func TestUpsertRejectsMissingID(t *testing.T) {
	err := NewIndex().Upsert(context.Background(), "full", []domain.VectorPoint{{Chunk: domain.Chunk{SourceRecordID: "rec"}}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

package hashing

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestEmbedIsDeterministicAndNormalized(t *testing.T) {
	e := New(128)
	v1, err := e.EmbedQuery(context.Background(), "Hyaluronic Acid humectant")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	v2, _ := e.EmbedQuery(context.Background(), "Hyaluronic Acid humectant")
	if len(v1) != 128 {
		t.Fatalf("expected 128 dims, got %d", len(v1))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("vectors differ at %d: %f vs %f", i, v1[i], v2[i])
		}
	}
	if norm := math.Sqrt(dot(v1, v1)); math.Abs(norm-1) > 1e-5 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
}

func TestEmbedRanksRelatedTextHigher(t *testing.T) {
	e := New(0)
	vectors, err := e.Embed(context.Background(), []string{
		"moisturizing hyaluronic serum",
		"hyaluronic acid moisturizing",
		"preservative phenoxyethanol",
	})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	related := dot(vectors[0], vectors[1])
	unrelated := dot(vectors[0], vectors[2])
	if related <= unrelated {
		t.Fatalf("expected related %f > unrelated %f", related, unrelated)
	}
}

func TestEmbedNoiseInputIsZeroVector(t *testing.T) {
	v, err := New(16).EmbedQuery(context.Background(), "___---!!!")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, got %f at %d", x, i)
		}
	}
}

func TestTokenizeKeepsThaiMarks(t *testing.T) {
	tokens := tokenize("กรดไฮยาลูโรนิก, RM-0001")
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %v", tokens)
	}
	if tokens[0] != "กรดไฮยาลูโรนิก" || tokens[1] != "rm" || tokens[2] != "0001" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}

func TestEmbedHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(8).Embed(ctx, []string{"a"}); err == nil {
		t.Fatalf("expected context error")
	}
}

package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/ingredient-search/internal/config"
	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

func writeSeed(t *testing.T, rows ...[]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func localConfig(seed string) config.Config {
	return config.Config{
		CatalogBackend:             BackendMemory,
		CatalogSeedFile:            seed,
		EmbeddingProvider:          ProviderHashing,
		EmbeddingDimensions:        128,
		EmbeddingCacheSize:         100,
		EmbeddingCacheTTL:          60,
		VectorBackend:              BackendMemory,
		AvailableCollectionEnabled: true,
		AvailableCollectionName:    "available",
		FullCollectionName:         "full",
		ReindexParallelism:         2,
	}
}

func TestNewLocalAppSeedsAndSearches(t *testing.T) {
	seed := writeSeed(t,
		[]any{"Code", "Name", "INCI Name", "Function", "Benefits", "Available"},
		[]any{"RM000001", "Hyaluronic Acid", "Sodium Hyaluronate", "humectant", "moisturizing", "yes"},
		[]any{"RM000002", "Niacinamide", "Niacinamide", "brightening", "whitening", "no"},
	)

	app, err := New(context.Background(), localConfig(seed))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if len(app.Collections) != 2 {
		t.Fatalf("expected two collections, got %+v", app.Collections)
	}
	if app.Events != nil {
		t.Fatalf("events must stay disabled without WithEvents")
	}

	results, err := app.SearchUC.Search(context.Background(), "RM000002", 5, domain.HintFull)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 || results[0].RecordID != "RM000002" {
		t.Fatalf("expected RM000002 first, got %+v", results)
	}
	if !results[0].HasMatch(domain.StrategyExact) {
		t.Fatalf("expected an exact contribution, got %+v", results[0].ContributingMatches)
	}
	if results[0].Record == nil || results[0].Record.DisplayName != "Niacinamide" {
		t.Fatalf("expected hydrated record, got %+v", results[0].Record)
	}

	restricted, err := app.SearchUC.Search(context.Background(), "RM000002", 5, domain.HintAvailable)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range restricted {
		if r.RecordID == "RM000002" {
			t.Fatalf("unavailable record leaked into available collection: %+v", r)
		}
	}
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	cfg := localConfig("")
	cfg.VectorBackend = "faiss"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unknown vector backend")
	}

	cfg = localConfig("")
	cfg.EmbeddingProvider = "openai"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unknown embedding provider")
	}
}

func TestNewFailsOnInvalidTuningFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("fuzzy_threshold: 3\n"), 0o600); err != nil {
		t.Fatalf("write tuning: %v", err)
	}
	cfg := localConfig("")
	cfg.SearchTuningFile = path
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected tuning validation error")
	}
}

func TestSearchConfigOverlaysTuning(t *testing.T) {
	cfg := SearchConfig(config.Tuning{
		Boosts:         map[string]float64{"semantic": 0.5},
		FuzzyThreshold: 0.8,
		SemanticTopK:   25,
		SearchTimeout:  3 * time.Second,
	})
	if cfg.Boosts[domain.StrategySemantic] != 0.5 || cfg.Boosts[domain.StrategyExact] != 1.0 {
		t.Fatalf("unexpected boosts: %+v", cfg.Boosts)
	}
	if cfg.FuzzyThreshold != 0.8 || cfg.SemanticTopK != 25 || cfg.SearchTimeout != 3*time.Second {
		t.Fatalf("unexpected overlay: %+v", cfg)
	}
	if cfg.DefaultTopK != 10 {
		t.Fatalf("expected untouched default top k, got %d", cfg.DefaultTopK)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

const defaultReindexParallelism = 4

// ReindexUseCase chunks records, embeds the chunks and writes them to every
// namespace the record belongs to.
type ReindexUseCase struct {
	store       ports.DocumentStore
	chunker     ports.DocumentChunker
	embedder    ports.Embedder
	index       ports.VectorIndex
	collections []domain.CollectionRef
	parallelism int64
	logger      *slog.Logger
	onResult    func(outcome string)
}

type ReindexOption func(*ReindexUseCase)

func WithReindexParallelism(n int) ReindexOption {
	return func(uc *ReindexUseCase) {
		if n > 0 {
			uc.parallelism = int64(n)
		}
	}
}

func WithReindexLogger(logger *slog.Logger) ReindexOption {
	return func(uc *ReindexUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

// WithReindexObserver receives indexed/skipped/failed per record. Calls are
// serialized.
func WithReindexObserver(fn func(outcome string)) ReindexOption {
	return func(uc *ReindexUseCase) { uc.onResult = fn }
}

func NewReindexUseCase(
	store ports.DocumentStore,
	chunker ports.DocumentChunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	collections []domain.CollectionRef,
	opts ...ReindexOption,
) *ReindexUseCase {
	uc := &ReindexUseCase{
		store:       store,
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		collections: collections,
		parallelism: defaultReindexParallelism,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Reindex replaces the record's chunks. Records no longer available are
// removed from available-only namespaces.
func (uc *ReindexUseCase) Reindex(ctx context.Context, record domain.CatalogRecord) error {
	chunks, err := uc.chunker.Chunk(record)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrMalformedRecord, "chunk record", fmt.Errorf("record %s produced no chunks", record.ID))
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]domain.VectorPoint, 0, len(chunks))
	for i, c := range chunks {
		points = append(points, domain.VectorPoint{Chunk: c, Vector: vectors[i]})
	}

	for _, collection := range uc.collections {
		if err := uc.index.DeleteByRecord(ctx, collection.Namespace, record.ID); err != nil {
			return fmt.Errorf("delete stale chunks in %s: %w", collection.Namespace, err)
		}
		if collection.AvailableOnly && !record.Available {
			continue
		}
		if err := uc.index.Upsert(ctx, collection.Namespace, points); err != nil {
			return fmt.Errorf("upsert chunks in %s: %w", collection.Namespace, err)
		}
	}
	return nil
}

// ReindexAll streams the full catalog. Malformed records are skipped and
// logged; other per-record failures are counted. Only a failed scan aborts.
func (uc *ReindexUseCase) ReindexAll(ctx context.Context) (domain.ReindexReport, error) {
	var (
		mu     sync.Mutex
		report domain.ReindexReport
	)
	sem := semaphore.NewWeighted(uc.parallelism)
	scope := domain.CollectionRef{Name: "reindex"}

	scanErr := uc.store.ListAll(ctx, scope, func(record domain.CatalogRecord) error {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func() {
			defer sem.Release(1)
			err := uc.Reindex(ctx, record)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Indexed++
				uc.observe("indexed")
			case domain.IsKind(err, domain.ErrMalformedRecord):
				report.Skipped++
				report.SkippedIDs = append(report.SkippedIDs, record.ID)
				uc.observe("skipped")
				uc.logger.Warn("reindex_record_skipped", "record_id", record.ID, "error", err)
			default:
				report.Failed++
				report.FailedIDs = append(report.FailedIDs, record.ID)
				uc.observe("failed")
				uc.logger.Error("reindex_record_failed", "record_id", record.ID, "error", err)
			}
		}()
		return nil
	})

	// Wait for in-flight records even when the scan stopped early.
	waitErr := sem.Acquire(context.WithoutCancel(ctx), uc.parallelism)
	if waitErr == nil {
		sem.Release(uc.parallelism)
	}

	mu.Lock()
	defer mu.Unlock()
	uc.logger.Info("reindex_completed",
		"indexed", report.Indexed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	if scanErr != nil {
		return report, fmt.Errorf("scan catalog: %w", scanErr)
	}
	return report, nil
}

func (uc *ReindexUseCase) RemoveRecord(ctx context.Context, recordID string) error {
	if recordID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "remove record", errors.New("empty record id"))
	}
	for _, collection := range uc.collections {
		if err := uc.index.DeleteByRecord(ctx, collection.Namespace, recordID); err != nil {
			return fmt.Errorf("delete chunks in %s: %w", collection.Namespace, err)
		}
	}
	return nil
}

// HandleRecordChanged applies one change event: deleted or vanished records
// leave the index, everything else is reindexed from the store.
func (uc *ReindexUseCase) HandleRecordChanged(ctx context.Context, event domain.RecordChanged) error {
	if event.Deleted {
		return uc.RemoveRecord(ctx, event.RecordID)
	}
	record, err := uc.store.GetByID(ctx, event.RecordID)
	if err != nil {
		if domain.IsKind(err, domain.ErrRecordNotFound) {
			return uc.RemoveRecord(ctx, event.RecordID)
		}
		return fmt.Errorf("load record: %w", err)
	}
	return uc.Reindex(ctx, *record)
}

func (uc *ReindexUseCase) observe(outcome string) {
	if uc.onResult != nil {
		uc.onResult(outcome)
	}
}

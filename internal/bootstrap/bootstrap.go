package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kirillkom/ingredient-search/internal/config"
	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
	"github.com/kirillkom/ingredient-search/internal/core/usecase"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/chunking"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/classifier/heuristic"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/embedding/cache"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/embedding/hashing"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/embedding/ollama"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/importer/xlsx"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/queue/nats"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/repository/memory"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/resilience"
	vectormemory "github.com/kirillkom/ingredient-search/internal/infrastructure/vector/memory"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/vector/qdrant"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendQdrant   = "qdrant"

	ProviderOllama  = "ollama"
	ProviderHashing = "hashing"
)

// catalogStore is what the search and import paths need from a backend.
type catalogStore interface {
	ports.DocumentStore
	ports.CatalogWriter
}

type App struct {
	Config config.Config
	Tuning config.Tuning
	Logger *slog.Logger

	Store       catalogStore
	Index       ports.VectorIndex
	Embedder    ports.Embedder
	Collections []domain.CollectionRef
	// Events is nil when NATS is disabled.
	Events ports.RecordEvents

	SearchUC  *usecase.HybridSearchUseCase
	ReindexUC *usecase.ReindexUseCase

	closers []func()
}

type options struct {
	logger          *slog.Logger
	searchObserver  ports.SearchObserver
	reindexObserver func(outcome string)
	withEvents      bool
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithSearchObserver(observer ports.SearchObserver) Option {
	return func(o *options) { o.searchObserver = observer }
}

func WithReindexObserver(fn func(outcome string)) Option {
	return func(o *options) { o.reindexObserver = fn }
}

// WithEvents connects to NATS when the config enables it.
func WithEvents() Option {
	return func(o *options) { o.withEvents = true }
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	tuning, err := config.LoadTuning(cfg.SearchTuningFile)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Tuning: tuning, Logger: o.logger}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	executor := resilience.NewExecutor(resilienceConfig(cfg, tuning))

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initEmbedder(); err != nil {
		return nil, err
	}
	if err := app.initIndex(); err != nil {
		return nil, err
	}
	app.Collections = collections(cfg)

	if o.withEvents && cfg.NATSEnabled {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             o.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Events = queue
		app.closers = append(app.closers, queue.Close)
	}

	searchCfg := SearchConfig(tuning)
	chunker := chunking.NewRecordChunker(chunkingConfig(tuning))
	classifier := heuristic.New(heuristic.Config{
		MaxExpandedQueries: tuning.MaxExpandedQueries,
		CodePrefixes:       tuning.CodePrefixes,
	})

	var available, full *domain.CollectionRef
	for i := range app.Collections {
		if app.Collections[i].AvailableOnly {
			available = &app.Collections[i]
		} else {
			full = &app.Collections[i]
		}
	}
	router := usecase.NewCollectionRouter(available, full, searchCfg)

	strategies := []ports.RetrievalStrategy{
		usecase.NewExactMatchStrategy(app.Store, executor, searchCfg),
		usecase.NewMetadataFilterStrategy(app.Index, executor, searchCfg),
		usecase.NewFuzzyMatchStrategy(app.Store, executor, searchCfg),
		usecase.NewSemanticSearchStrategy(app.Embedder, app.Index, executor, searchCfg),
	}
	searchOpts := []usecase.SearchOption{
		usecase.WithRecordStore(app.Store),
		usecase.WithHydrationGuard(executor),
		usecase.WithLogger(o.logger),
	}
	if o.searchObserver != nil {
		searchOpts = append(searchOpts, usecase.WithSearchObserver(o.searchObserver))
	}
	app.SearchUC = usecase.NewHybridSearchUseCase(classifier, router, strategies, searchCfg, searchOpts...)

	reindexOpts := []usecase.ReindexOption{
		usecase.WithReindexParallelism(cfg.ReindexParallelism),
		usecase.WithReindexLogger(o.logger),
	}
	if o.reindexObserver != nil {
		reindexOpts = append(reindexOpts, usecase.WithReindexObserver(o.reindexObserver))
	}
	app.ReindexUC = usecase.NewReindexUseCase(app.Store, chunker, app.Embedder, app.Index, app.Collections, reindexOpts...)

	if err := app.seed(ctx); err != nil {
		return nil, err
	}

	ok = true
	return app, nil
}

func (a *App) initStore(ctx context.Context) error {
	switch a.Config.CatalogBackend {
	case BackendMemory:
		a.Store = memory.NewCatalogStore()
		return nil
	case BackendPostgres, "":
		db, err := postgres.OpenDB(a.Config.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		repo := postgres.NewCatalogRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		a.Store = repo
		return nil
	default:
		return fmt.Errorf("unknown catalog backend %q", a.Config.CatalogBackend)
	}
}

func (a *App) initEmbedder() error {
	var (
		inner     ports.Embedder
		namespace string
	)
	switch a.Config.EmbeddingProvider {
	case ProviderHashing:
		h := hashing.New(a.Config.EmbeddingDimensions)
		inner = h
		namespace = fmt.Sprintf("hashing-%d", h.Dimensions())
	case ProviderOllama, "":
		// reindex calls bypass the search guard and rely on this executor
		client := ollama.NewWithOptions(a.Config.OllamaURL, a.Config.OllamaEmbedModel, ollama.Options{
			ResilienceExecutor: resilience.NewExecutor(resilienceConfig(a.Config, a.Tuning)),
		})
		inner = ollama.NewEmbedder(client)
		namespace = "ollama-" + a.Config.OllamaEmbedModel
	default:
		return fmt.Errorf("unknown embedding provider %q", a.Config.EmbeddingProvider)
	}

	if a.Config.EmbeddingCacheSize <= 0 {
		a.Embedder = inner
		return nil
	}
	ttl := time.Duration(a.Config.EmbeddingCacheTTL) * time.Second
	a.Embedder = cache.New(inner, namespace, a.Config.EmbeddingCacheSize, ttl)
	return nil
}

func (a *App) initIndex() error {
	switch a.Config.VectorBackend {
	case BackendMemory:
		a.Index = vectormemory.NewIndex()
	case BackendQdrant, "":
		a.Index = qdrant.New(a.Config.QdrantURL, a.Config.QdrantCollectionPrefix)
	default:
		return fmt.Errorf("unknown vector backend %q", a.Config.VectorBackend)
	}
	return nil
}

// seed loads CatalogSeedFile into the memory backend and indexes it. Other
// backends are populated by catalogctl import.
func (a *App) seed(ctx context.Context) error {
	if a.Config.CatalogSeedFile == "" || a.Config.CatalogBackend != BackendMemory {
		return nil
	}
	f, err := os.Open(a.Config.CatalogSeedFile)
	if err != nil {
		return fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()

	report, _, err := xlsx.Import(ctx, f, a.Store, xlsx.Options{})
	if err != nil {
		return fmt.Errorf("import catalog seed: %w", err)
	}
	for _, rowErr := range report.Errors {
		a.Logger.Warn("catalog_seed_row_skipped", "row", rowErr.Row, "error", rowErr.Err)
	}
	indexed, err := a.ReindexUC.ReindexAll(ctx)
	if err != nil {
		return fmt.Errorf("index catalog seed: %w", err)
	}
	a.Logger.Info("catalog_seeded",
		"file", a.Config.CatalogSeedFile,
		"imported", report.Imported,
		"indexed", indexed.Indexed,
		"skipped", indexed.Skipped,
		"failed", indexed.Failed,
	)
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func collections(cfg config.Config) []domain.CollectionRef {
	out := make([]domain.CollectionRef, 0, 2)
	if cfg.AvailableCollectionEnabled {
		out = append(out, domain.CollectionRef{
			Name:          "available",
			Namespace:     cfg.AvailableCollectionName,
			AvailableOnly: true,
		})
	}
	out = append(out, domain.CollectionRef{
		Name:      "full",
		Namespace: cfg.FullCollectionName,
	})
	return out
}

// SearchConfig overlays the tuning file on the built-in defaults.
func SearchConfig(t config.Tuning) usecase.SearchConfig {
	cfg := usecase.DefaultSearchConfig()
	for name, boost := range t.Boosts {
		cfg.Boosts[domain.Strategy(name)] = boost
	}
	setIfPositive(&cfg.ExactEqualScore, t.ExactEqualScore)
	setIfPositive(&cfg.ExactSubstringScore, t.ExactSubstring)
	setIfPositive(&cfg.MetadataScore, t.MetadataScore)
	setIfPositive(&cfg.FuzzyThreshold, t.FuzzyThreshold)
	setIfPositive(&cfg.AvailabilityBonus, t.AvailabilityBonus)
	setIfPositive(&cfg.MetadataLimit, t.MetadataLimit)
	setIfPositive(&cfg.FuzzyMaxCandidates, t.FuzzyMaxCandidates)
	setIfPositive(&cfg.SemanticTopK, t.SemanticTopK)
	setIfPositive(&cfg.DefaultTopK, t.DefaultTopK)
	setIfPositive(&cfg.MaxTopK, t.MaxTopK)
	setIfPositive(&cfg.SearchTimeout, t.SearchTimeout)
	return cfg
}

func chunkingConfig(t config.Tuning) chunking.Config {
	weights := make(map[domain.ChunkType]float64, len(t.Chunking.Weights))
	for chunkType, w := range t.Chunking.Weights {
		weights[domain.ChunkType(chunkType)] = w
	}
	return chunking.Config{
		MaxLength: t.Chunking.MaxLength,
		Overlap:   t.Chunking.Overlap,
		Languages: t.Chunking.Languages,
		Weights:   weights,
	}
}

func resilienceConfig(cfg config.Config, t config.Tuning) resilience.Config {
	rc := resilience.DefaultConfig()
	setIfPositive(&rc.RetryMaxAttempts, cfg.RetryMaxAttempts)
	setIfPositive(&rc.AttemptTimeout, time.Duration(cfg.AttemptTimeoutMS)*time.Millisecond)
	setIfPositive(&rc.AttemptTimeout, t.AttemptTimeout)
	rc.BreakerEnabled = cfg.BreakerEnabled
	return rc
}

func setIfPositive[T int | float64 | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

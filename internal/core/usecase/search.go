package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// HybridSearchUseCase classifies a query, fans the recommended strategies out
// over the routed collections, and fuses whatever succeeded.
type HybridSearchUseCase struct {
	classifier ports.QueryClassifier
	router     *CollectionRouter
	fusion     *ResultFusion
	strategies map[domain.Strategy]ports.RetrievalStrategy
	store      ports.DocumentStore
	guard      ports.CallGuard
	observer   ports.SearchObserver
	logger     *slog.Logger
	cfg        SearchConfig
}

type SearchOption func(*HybridSearchUseCase)

// WithRecordStore enables hydration of result records.
func WithRecordStore(store ports.DocumentStore) SearchOption {
	return func(uc *HybridSearchUseCase) { uc.store = store }
}

// WithHydrationGuard wraps each record lookup made during hydration.
func WithHydrationGuard(guard ports.CallGuard) SearchOption {
	return func(uc *HybridSearchUseCase) { uc.guard = guard }
}

func WithSearchObserver(observer ports.SearchObserver) SearchOption {
	return func(uc *HybridSearchUseCase) { uc.observer = observer }
}

func WithLogger(logger *slog.Logger) SearchOption {
	return func(uc *HybridSearchUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

func NewHybridSearchUseCase(
	classifier ports.QueryClassifier,
	router *CollectionRouter,
	strategies []ports.RetrievalStrategy,
	cfg SearchConfig,
	opts ...SearchOption,
) *HybridSearchUseCase {
	cfg = cfg.normalize()
	byName := make(map[domain.Strategy]ports.RetrievalStrategy, len(strategies))
	for _, s := range strategies {
		if s != nil {
			byName[s.Name()] = s
		}
	}
	uc := &HybridSearchUseCase{
		classifier: classifier,
		router:     router,
		fusion:     NewResultFusion(cfg),
		strategies: byName,
		logger:     slog.Default(),
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(uc)
	}
	uc.guard = guardOrDefault(uc.guard)
	return uc
}

func (uc *HybridSearchUseCase) Classify(query string) domain.QueryClassification {
	return uc.classifier.Classify(query)
}

type searchTask struct {
	strategy   ports.RetrievalStrategy
	collection domain.CollectionRef
}

type taskResult struct {
	index      int
	candidates []domain.CandidateResult
	err        error
	elapsed    time.Duration
}

// Search returns an empty list with a nil error when nothing matched, and an
// empty list with *domain.AllStrategiesFailedError when every launched task
// failed or timed out.
func (uc *HybridSearchUseCase) Search(
	ctx context.Context,
	query string,
	topK int,
	hint domain.CollectionHint,
) ([]domain.SearchResult, error) {
	started := time.Now()
	topK = uc.clampTopK(topK)

	cls := uc.classifier.Classify(query)
	if cls.Normalized == "" {
		uc.observeSearch(cls.Intent, OutcomeEmpty, started)
		return []domain.SearchResult{}, nil
	}

	route := uc.router.Route(cls, hint)
	tasks := uc.plan(cls, route)
	if len(tasks) == 0 {
		uc.observeSearch(cls.Intent, OutcomeEmpty, started)
		return []domain.SearchResult{}, nil
	}

	settled := uc.runTasks(ctx, tasks, cls)

	perCollection := make(map[string]map[domain.Strategy][]domain.CandidateResult, len(route.Collections))
	failures := make([]domain.TaskFailure, 0)
	for i, task := range tasks {
		res := settled[i]
		name := task.strategy.Name()
		if res.err != nil {
			failures = append(failures, domain.TaskFailure{Strategy: name, Collection: task.collection.Name, Err: res.err})
			outcome := OutcomeError
			if domain.IsKind(res.err, domain.ErrStrategyTimeout) {
				outcome = OutcomeTimeout
			}
			uc.logger.Warn("strategy_failed",
				"strategy", name,
				"collection", task.collection.Name,
				"intent", cls.Intent,
				"error", res.err,
			)
			uc.observeStrategy(name, task.collection.Name, outcome, res.elapsed)
			continue
		}

		outcome := OutcomeSuccess
		if len(res.candidates) == 0 {
			outcome = OutcomeEmpty
		}
		uc.observeStrategy(name, task.collection.Name, outcome, res.elapsed)
		if perCollection[task.collection.Name] == nil {
			perCollection[task.collection.Name] = make(map[domain.Strategy][]domain.CandidateResult, 4)
		}
		perCollection[task.collection.Name][name] = res.candidates
	}

	if len(failures) == len(tasks) {
		if err := ctx.Err(); err != nil {
			uc.observeSearch(cls.Intent, OutcomeError, started)
			return []domain.SearchResult{}, fmt.Errorf("search: %w", err)
		}
		uc.observeSearch(cls.Intent, OutcomeError, started)
		return []domain.SearchResult{}, &domain.AllStrategiesFailedError{Failures: failures}
	}

	fused := make(map[string][]domain.SearchResult, len(perCollection))
	for collection, candidates := range perCollection {
		fused[collection] = uc.fusion.Fuse(candidates, 0)
	}
	results := uc.router.Merge(route, fused, topK)
	results = uc.hydrate(ctx, results, started.Add(uc.cfg.SearchTimeout))

	outcome := OutcomeSuccess
	if len(results) == 0 {
		outcome = OutcomeEmpty
	}
	uc.observeSearch(cls.Intent, outcome, started)
	return results, nil
}

func (uc *HybridSearchUseCase) clampTopK(topK int) int {
	if topK <= 0 {
		return uc.cfg.DefaultTopK
	}
	return min(topK, uc.cfg.MaxTopK)
}

// applicable is implemented by strategies that can tell up front that a
// classification gives them nothing to look for.
type applicable interface {
	Applicable(cls domain.QueryClassification) bool
}

// plan builds one task per (collection, recommended strategy) pair, in
// canonical strategy order. Strategies with nothing to look for are not
// launched, so they can neither succeed nor fail.
func (uc *HybridSearchUseCase) plan(cls domain.QueryClassification, route domain.Route) []searchTask {
	tasks := make([]searchTask, 0, len(route.Collections)*len(cls.RecommendedStrategies))
	for _, collection := range route.Collections {
		for _, name := range domain.AllStrategies {
			if !cls.Recommends(name) {
				continue
			}
			strategy, ok := uc.strategies[name]
			if !ok {
				continue
			}
			if a, ok := strategy.(applicable); ok && !a.Applicable(cls) {
				continue
			}
			tasks = append(tasks, searchTask{strategy: strategy, collection: collection})
		}
	}
	return tasks
}

// runTasks waits for every task or the search deadline, whichever comes
// first. Tasks still running at the deadline are reported as timeouts.
func (uc *HybridSearchUseCase) runTasks(ctx context.Context, tasks []searchTask, cls domain.QueryClassification) []taskResult {
	searchCtx, cancel := context.WithTimeout(ctx, uc.cfg.SearchTimeout)
	defer cancel()

	results := make(chan taskResult, len(tasks))
	for i, task := range tasks {
		go func() {
			started := time.Now()
			candidates, err := runStrategy(searchCtx, task, cls)
			results <- taskResult{index: i, candidates: candidates, err: err, elapsed: time.Since(started)}
		}()
	}

	settled := make([]taskResult, len(tasks))
	done := make([]bool, len(tasks))
	for received := 0; received < len(tasks); {
		select {
		case res := <-results:
			settled[res.index] = res
			done[res.index] = true
			received++
		case <-searchCtx.Done():
			for drained := false; !drained; {
				select {
				case res := <-results:
					settled[res.index] = res
					done[res.index] = true
				default:
					drained = true
				}
			}
			for i := range tasks {
				if !done[i] {
					settled[i] = taskResult{
						index:   i,
						err:     domain.WrapError(domain.ErrStrategyTimeout, "search", searchCtx.Err()),
						elapsed: uc.cfg.SearchTimeout,
					}
				}
			}
			return settled
		}
	}
	return settled
}

func runStrategy(ctx context.Context, task searchTask, cls domain.QueryClassification) (candidates []domain.CandidateResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrCollaboratorUnavailable, string(task.strategy.Name()), fmt.Errorf("panic: %v", r))
		}
	}()

	candidates, err = task.strategy.Search(ctx, cls.ExpandedQueries, cls, task.collection)
	if err == nil {
		return candidates, nil
	}
	switch {
	case domain.IsKind(err, domain.ErrStrategyTimeout), domain.IsKind(err, domain.ErrCollaboratorUnavailable):
		return nil, err
	case errors.Is(err, context.DeadlineExceeded):
		return nil, domain.WrapError(domain.ErrStrategyTimeout, string(task.strategy.Name()), err)
	default:
		return nil, domain.WrapError(domain.ErrCollaboratorUnavailable, string(task.strategy.Name()), err)
	}
}

// hydrate attaches records to results within what is left of the search
// deadline. Failed or unfinished lookups leave the result bare.
func (uc *HybridSearchUseCase) hydrate(ctx context.Context, results []domain.SearchResult, deadline time.Time) []domain.SearchResult {
	if uc.store == nil || !uc.cfg.HydrateRecords || len(results) == 0 {
		return results
	}
	hydrateCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var (
		mu      sync.Mutex
		records = make(map[string]*domain.CatalogRecord, len(results))
		wg      sync.WaitGroup
	)
	for _, res := range results {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			var record *domain.CatalogRecord
			err := uc.guard.Guard(hydrateCtx, "document_store.get_by_id", func(ctx context.Context) error {
				var err error
				record, err = uc.store.GetByID(ctx, id)
				return err
			})
			if err != nil {
				uc.logger.Warn("result_hydration_failed", "record_id", id, "error", err)
				return
			}
			mu.Lock()
			records[id] = record
			mu.Unlock()
		}(res.RecordID)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-hydrateCtx.Done():
		uc.logger.Warn("result_hydration_incomplete", "error", hydrateCtx.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	for i := range results {
		record, ok := records[results[i].RecordID]
		if !ok || record == nil {
			continue
		}
		results[i].Record = record
		if results[i].Availability == "" {
			results[i].Availability = domain.AvailabilityOrderable
			if record.Available {
				results[i].Availability = domain.AvailabilityReadyNow
			}
		}
	}
	return results
}

func (uc *HybridSearchUseCase) observeStrategy(s domain.Strategy, collection, outcome string, elapsed time.Duration) {
	if uc.observer != nil {
		uc.observer.ObserveStrategy(s, collection, outcome, elapsed)
	}
}

func (uc *HybridSearchUseCase) observeSearch(intent domain.Intent, outcome string, started time.Time) {
	if uc.observer != nil {
		uc.observer.ObserveSearch(intent, outcome, time.Since(started))
	}
}

package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/simaogato/pricewatch-backend/internal/domain"
	"github.com/simaogato/pricewatch-backend/internal/obs"
	"github.com/simaogato/pricewatch-backend/internal/usecase/alertengine"
)

const (
	DefaultWorkers        = 4
	DefaultStoreTimeout   = 10 * time.Second
	DefaultCatalogTimeout = 10 * time.Second
)

var tracer = otel.Tracer("github.com/simaogato/pricewatch-backend/internal/usecase/cycle")

// Options bounds the cycle's concurrency and every collaborator call
type Options struct {
	Workers        int
	StoreTimeout   time.Duration
	CatalogTimeout time.Duration
}

// CycleService refreshes the tracked items of a user and evaluates their rules
type CycleService struct {
	TrackedItemRepo domain.TrackedItemRepository
	RuleRepo        domain.RuleRepository
	SnapshotRepo    domain.SnapshotRepository
	AlertRepo       domain.AlertRepository
	Catalog         domain.CatalogLookup

	opts Options
	now  func() time.Time
}

// NewCycleService creates a new CycleService instance.
// Zero-valued options fall back to the package defaults.
func NewCycleService(
	trackedItemRepo domain.TrackedItemRepository,
	ruleRepo domain.RuleRepository,
	snapshotRepo domain.SnapshotRepository,
	alertRepo domain.AlertRepository,
	catalog domain.CatalogLookup,
	opts Options,
) *CycleService {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.CatalogTimeout <= 0 {
		opts.CatalogTimeout = DefaultCatalogTimeout
	}

	return &CycleService{
		TrackedItemRepo: trackedItemRepo,
		RuleRepo:        ruleRepo,
		SnapshotRepo:    snapshotRepo,
		AlertRepo:       alertRepo,
		Catalog:         catalog,
		opts:            opts,
		now:             time.Now,
	}
}

// RunCycle performs one refresh-and-evaluate pass over the active items of a user.
// Logic:
//  1. List the active tracked items once; this is the only step that fails the whole run
//  2. Run the item pipeline for every listed item on a bounded pool of workers
//  3. Return one ItemResult per listed item, in list order
//
// A failing item is recorded in its own result and never affects the others.
func (s *CycleService) RunCycle(ctx context.Context, userID int64) (*Result, error) {
	result := &Result{
		RunID:     uuid.New(),
		UserID:    userID,
		StartedAt: s.now().UTC(),
	}

	ctx, span := tracer.Start(ctx, "cycle.RunCycle", trace.WithAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("run_id", result.RunID.String()),
	))
	defer span.End()

	logger := obs.Logger.With("run_id", result.RunID.String(), "user_id", userID)

	listCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	items, err := s.TrackedItemRepo.ListActiveByUser(listCtx, userID)
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list tracked items")
		logger.Error("cycle_aborted", "error", err)
		return nil, fmt.Errorf("failed to list tracked items for user %d: %w", userID, err)
	}

	logger.Info("cycle_started", "items", len(items), "workers", s.opts.Workers)

	result.Items = make([]ItemResult, len(items))
	sem := semaphore.NewWeighted(int64(s.opts.Workers))
	var wg sync.WaitGroup

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled before the item got a worker
			res := newItemResult(item)
			res.fail(&StepError{Step: StepSchedule, Err: err})
			result.Items[i] = res
			continue
		}

		wg.Add(1)
		go func(i int, item *domain.TrackedItem) {
			defer sem.Release(1)
			defer wg.Done()
			result.Items[i] = s.runItem(ctx, logger, item)
		}(i, item)
	}

	wg.Wait()

	result.FinishedAt = s.now().UTC()
	span.SetAttributes(
		attribute.Int("items", len(result.Items)),
		attribute.Int("failed", result.FailedCount()),
	)
	logger.Info("cycle_finished",
		"items", len(result.Items),
		"failed", result.FailedCount(),
		"triggered", result.TriggeredCount(),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	)

	return result, nil
}

// runItem runs the pipeline of one item and turns its outcome into a result.
// A panic inside the pipeline fails only this item.
func (s *CycleService) runItem(ctx context.Context, logger *slog.Logger, item *domain.TrackedItem) (res ItemResult) {
	res = newItemResult(item)

	ctx, span := tracer.Start(ctx, "cycle.item", trace.WithAttributes(
		attribute.Int64("tracked_item_id", item.ID),
		attribute.String("marketplace", item.Marketplace),
		attribute.String("external_id", item.ExternalID),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			res.fail(&StepError{Step: res.Step, Err: fmt.Errorf("panic: %v", r)})
		}
		if res.Failed {
			span.SetStatus(codes.Error, string(res.Step))
			logger.Warn("item_failed",
				"tracked_item_id", item.ID,
				"step", string(res.Step),
				"error", res.Error,
			)
		}
	}()

	if err := s.processItem(ctx, item, &res); err != nil {
		span.RecordError(err)
		res.fail(err)
	}
	return res
}

// processItem is the per-item pipeline.
// Logic:
//  1. Load the latest snapshot, absent on the first cycle
//  2. Load the enabled rules
//  3. Look the listing up in the catalog; on failure nothing is written
//  4. Persist the new snapshot
//  5. Evaluate the rules against the new and the previous state
//  6. Persist one alert per fired rule and mark the rule as triggered
//
// res is filled in as steps succeed, so a late failure keeps the snapshot id
// and the alerts persisted so far.
func (s *CycleService) processItem(ctx context.Context, item *domain.TrackedItem, res *ItemResult) *StepError {
	// 1. Previous state
	res.Step = StepLatestSnapshot
	var previous *domain.PriceState
	var latest *domain.Snapshot
	err := bounded(ctx, s.opts.StoreTimeout, func(ctx context.Context) (err error) {
		latest, err = s.SnapshotRepo.GetLatest(ctx, item.ID)
		return err
	})
	switch {
	case err == nil:
		state := latest.State()
		previous = &state
	case errors.Is(err, domain.ErrNotFound):
		// first observation of this item
	default:
		return &StepError{Step: StepLatestSnapshot, Err: err}
	}

	// 2. Rules
	res.Step = StepRules
	var rules []*domain.Rule
	err = bounded(ctx, s.opts.StoreTimeout, func(ctx context.Context) (err error) {
		rules, err = s.RuleRepo.ListEnabledByItem(ctx, item.ID)
		return err
	})
	if err != nil {
		return &StepError{Step: StepRules, Err: err}
	}

	// 3. Current state
	res.Step = StepLookup
	observation, err := s.lookup(ctx, item)
	if err != nil {
		return &StepError{Step: StepLookup, Err: err}
	}

	// 4. Snapshot
	res.Step = StepPersistSnapshot
	snapshot := &domain.Snapshot{
		TrackedItemID: item.ID,
		Price:         observation.Price,
		Currency:      observation.Currency,
		InStock:       observation.InStock,
	}
	if err := bounded(ctx, s.opts.StoreTimeout, func(ctx context.Context) error {
		return s.SnapshotRepo.Add(ctx, snapshot)
	}); err != nil {
		return &StepError{Step: StepPersistSnapshot, Err: err}
	}
	res.SnapshotID = &snapshot.ID

	s.refreshCache(ctx, item, observation)

	// 5. Evaluation
	fired := alertengine.Evaluate(snapshot.State(), previous, rules)

	// 6. Alerts
	res.Step = StepPersistAlerts
	for _, f := range fired {
		alert := &domain.TriggeredAlert{
			RuleID:        f.RuleID,
			TrackedItemID: item.ID,
			SnapshotID:    snapshot.ID,
			Message:       f.Message,
			Details:       f.Details,
		}
		if err := bounded(ctx, s.opts.StoreTimeout, func(ctx context.Context) error {
			return s.AlertRepo.Create(ctx, alert)
		}); err != nil {
			return &StepError{Step: StepPersistAlerts, Err: fmt.Errorf("rule %d: %w", f.RuleID, err)}
		}
		if err := bounded(ctx, s.opts.StoreTimeout, func(ctx context.Context) error {
			return s.RuleRepo.UpdateLastTriggered(ctx, f.RuleID, snapshot.ID)
		}); err != nil {
			return &StepError{Step: StepPersistAlerts, Err: fmt.Errorf("rule %d: %w", f.RuleID, err)}
		}
		res.Triggered = append(res.Triggered, f)
		res.TriggeredCount++
	}

	res.Step = ""
	return nil
}

// lookup asks the catalog for the current state of the item. The call is
// abandoned when the timeout expires even if the catalog ignores ctx.
func (s *CycleService) lookup(ctx context.Context, item *domain.TrackedItem) (*domain.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CatalogTimeout)
	defer cancel()

	type reply struct {
		observation *domain.Observation
		err         error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("catalog lookup panicked: %v", r)}
			}
		}()
		observation, err := s.Catalog.Lookup(ctx, item.Marketplace, item.ExternalID)
		done <- reply{observation: observation, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("catalog lookup: %w: %w", domain.ErrCollaboratorUnavailable, ctx.Err())
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.observation == nil {
		return nil, fmt.Errorf("catalog returned no observation: %w", domain.ErrCollaboratorUnavailable)
	}
	if err := r.observation.Validate(); err != nil {
		return nil, fmt.Errorf("malformed catalog response: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	return r.observation, nil
}

// refreshCache stores the title and url reported by the catalog when they
// changed. Failures are logged only.
func (s *CycleService) refreshCache(ctx context.Context, item *domain.TrackedItem, observation *domain.Observation) {
	title := item.Title
	if observation.Title != "" {
		title = &observation.Title
	}
	url := item.URL
	if observation.URL != nil {
		url = observation.URL
	}
	if domain.StringValue(title) == domain.StringValue(item.Title) &&
		domain.StringValue(url) == domain.StringValue(item.URL) {
		return
	}

	if err := bounded(ctx, s.opts.StoreTimeout, func(ctx context.Context) error {
		return s.TrackedItemRepo.UpdateCache(ctx, item.ID, title, url)
	}); err != nil {
		obs.Logger.Warn("item_cache_refresh_failed", "tracked_item_id", item.ID, "error", err)
	}
}

// bounded runs one State Store call under timeout
func bounded(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

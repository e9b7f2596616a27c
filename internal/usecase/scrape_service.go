package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
)

// RunState tracks a single competition group run.
type RunState string

const (
	RunStateEnumerating RunState = "ENUMERATING"
	RunStateDispatching RunState = "DISPATCHING"
	RunStateAggregating RunState = "AGGREGATING"
	RunStatePersisted   RunState = "PERSISTED"
	RunStateFailed      RunState = "FAILED"
)

type RunResult struct {
	Query       CalendarQuery
	State       RunState
	Key         competition.DatasetKey
	Dataset     competition.Dataset
	MatchCount  int
	FailedCount int
	Duration    time.Duration
	Err         error
}

type ScrapeServiceConfig struct {
	Calendar    CalendarSource
	Matches     MatchSource
	Repository  competition.DatasetRepository
	Concurrency int
	Progress    ProgressFunc
	Logger      *logging.Logger
	Now         func() time.Time
}

// ScrapeService runs the enumerate, dispatch, aggregate and persist pipeline for
// competition groups.
type ScrapeService struct {
	calendar    CalendarSource
	dispatcher  *Dispatcher
	repo        competition.DatasetRepository
	concurrency int
	validator   *validator.Validate
	logger      *logging.Logger
	now         func() time.Time
}

func NewScrapeService(cfg ScrapeServiceConfig) *ScrapeService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	progress := cfg.Progress
	if progress == nil {
		progress = LogProgress(logger)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &ScrapeService{
		calendar: cfg.Calendar,
		dispatcher: NewDispatcher(cfg.Matches, DispatcherOptions{
			Progress: progress,
			Logger:   logger,
		}),
		repo:        cfg.Repository,
		concurrency: cfg.Concurrency,
		validator:   validator.New(),
		logger:      logger,
		now:         now,
	}
}

// Run scrapes one competition group. Enumeration failures abort before any match
// page is requested; per-match failures are recorded in the dataset and do not fail
// the run.
func (s *ScrapeService) Run(ctx context.Context, query CalendarQuery) (result RunResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScrapeService.Run", queryAttributes(query)...)
	defer func() { endSpan(span, err) }()

	start := s.now()
	result = RunResult{Query: query, State: RunStateEnumerating}
	defer func() {
		result.Duration = s.now().Sub(start)
		result.Err = err
		if err != nil {
			result.State = RunStateFailed
		}
	}()

	logger := s.logger.With(
		"season_id", query.SeasonID,
		"competition_id", query.CompetitionID,
		"group_id", query.GroupID,
	)

	if err := s.validator.StructCtx(ctx, query); err != nil {
		return result, fmt.Errorf("%w: calendar query: %v", ErrInvalidInput, err)
	}

	meta, items, err := s.enumerate(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "calendar enumeration failed", "error", err)
		return result, err
	}
	logger.InfoContext(ctx, "calendar enumerated",
		"competition", meta.CompetitionName,
		"group", meta.GroupName,
		"season", meta.SeasonLabel,
		"matches", len(items),
	)

	result.State = RunStateDispatching
	aggregator := NewAggregator(len(items))
	err = s.dispatcher.Dispatch(ctx, items, s.concurrency, func(r DispatchResult) {
		if addErr := aggregator.Add(r); addErr != nil {
			logger.WarnContext(ctx, "drop dispatch result", "match_id", r.Item.MatchID, "error", addErr)
		}
	})
	if err != nil {
		return result, fmt.Errorf("dispatch matches: %w", err)
	}

	result.State = RunStateAggregating
	dataset, err := s.finalizeAndPersist(ctx, aggregator, meta, query, items)
	if err != nil {
		logger.ErrorContext(ctx, "persist dataset failed", "error", err)
		return result, err
	}

	result.State = RunStatePersisted
	result.Dataset = dataset
	result.Key = dataset.Key()
	result.MatchCount = dataset.MatchCount()
	result.FailedCount = dataset.FailedCount()

	logger.InfoContext(ctx, "dataset persisted",
		"key", result.Key.String(),
		"matches", result.MatchCount,
		"failed", result.FailedCount,
		"elapsed", s.now().Sub(start),
	)
	return result, nil
}

// AggregateAndPersist builds a dataset from already collected results and saves it.
func (s *ScrapeService) AggregateAndPersist(
	ctx context.Context,
	meta competition.Metadata,
	query CalendarQuery,
	items []competition.WorkItem,
	results []DispatchResult,
) (competition.Dataset, error) {
	items = normalizeWorkItems(items)
	// A match id listed twice owns several slots; results claim them in calendar order.
	free := make(map[string][]int, len(items))
	for _, item := range items {
		free[item.MatchID] = append(free[item.MatchID], item.Position)
	}

	aggregator := NewAggregator(len(items))
	for _, r := range results {
		slots := free[r.Item.MatchID]
		if len(slots) == 0 {
			s.logger.WarnContext(ctx, "drop dispatch result", "match_id", r.Item.MatchID, "reason", "no open slot for match")
			continue
		}
		free[r.Item.MatchID] = slots[1:]
		r.Item = items[slots[0]]
		if err := aggregator.Add(r); err != nil {
			s.logger.WarnContext(ctx, "drop dispatch result", "match_id", r.Item.MatchID, "error", err)
		}
	}
	return s.finalizeAndPersist(ctx, aggregator, meta, query, items)
}

func (s *ScrapeService) enumerate(ctx context.Context, query CalendarQuery) (competition.Metadata, []competition.WorkItem, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScrapeService.enumerate", queryAttributes(query)...)
	meta, items, err := s.calendar.EnumerateCalendar(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrEnumeration) {
			err = fmt.Errorf("%w: %w", ErrEnumeration, err)
		}
		endSpan(span, err)
		return competition.Metadata{}, nil, err
	}

	items = normalizeWorkItems(items)
	for _, item := range items {
		if vErr := s.validator.StructCtx(ctx, item); vErr != nil {
			err = fmt.Errorf("%w: work item at position %d: %v", ErrEnumeration, item.Position, vErr)
			endSpan(span, err)
			return competition.Metadata{}, nil, err
		}
	}
	endSpan(span, nil)
	return meta, items, nil
}

func (s *ScrapeService) finalizeAndPersist(
	ctx context.Context,
	aggregator *Aggregator,
	meta competition.Metadata,
	query CalendarQuery,
	items []competition.WorkItem,
) (competition.Dataset, error) {
	dataset := aggregator.Finalize(meta, query, items, s.now())
	if len(dataset.Matches) != len(items) {
		return competition.Dataset{}, fmt.Errorf("dataset has %d matches for %d work items", len(dataset.Matches), len(items))
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.ScrapeService.persist")
	err := s.repo.Save(ctx, dataset)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrPersist, dataset.Key(), err)
	}
	endSpan(span, err)
	if err != nil {
		return competition.Dataset{}, err
	}
	return dataset, nil
}

// normalizeWorkItems copies items and numbers them in enumeration order.
func normalizeWorkItems(items []competition.WorkItem) []competition.WorkItem {
	out := make([]competition.WorkItem, len(items))
	for i, item := range items {
		item.Position = i
		out[i] = item
	}
	return out
}

// LogProgress reports every completion through the logger.
func LogProgress(logger *logging.Logger) ProgressFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(p Progress) {
		if p.Err != nil {
			logger.Warn("match failed",
				"completed", p.Completed,
				"total", p.Total,
				"match_id", p.Item.MatchID,
				"round", p.Item.Round,
				"error", p.Err,
			)
			return
		}
		logger.Info("match fetched",
			"completed", p.Completed,
			"total", p.Total,
			"match_id", p.Item.MatchID,
			"round", p.Item.Round,
		)
	}
}

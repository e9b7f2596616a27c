package usecase

import (
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
)

var (
	ErrDuplicateResult = crerr.New("result already recorded for position")
	ErrUnknownPosition = crerr.New("result position outside work item range")
)

const unresolvedMessage = "not resolved"

// Aggregator collects dispatch results keyed by work item position. Add is safe for
// concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	total   int
	results map[int]DispatchResult
}

func NewAggregator(total int) *Aggregator {
	if total < 0 {
		total = 0
	}
	return &Aggregator{
		total:   total,
		results: make(map[int]DispatchResult, total),
	}
}

func (a *Aggregator) Add(result DispatchResult) error {
	pos := result.Item.Position
	if pos < 0 || pos >= a.total {
		return crerr.Wrapf(ErrUnknownPosition, "position=%d total=%d", pos, a.total)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.results[pos]; exists {
		return crerr.Wrapf(ErrDuplicateResult, "position=%d match_id=%s", pos, result.Item.MatchID)
	}
	a.results[pos] = result
	return nil
}

func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

// Finalize builds the dataset in work item order. Failed items, and items that never
// reported, become failure sentinels so the dataset always has one slot per item.
func (a *Aggregator) Finalize(
	meta competition.Metadata,
	query CalendarQuery,
	items []competition.WorkItem,
	fetchedAt time.Time,
) competition.Dataset {
	a.mu.Lock()
	defer a.mu.Unlock()

	matches := make([]competition.MatchEntry, 0, len(items))
	for _, item := range items {
		result, ok := a.results[item.Position]
		switch {
		case !ok:
			matches = append(matches, competition.FailureEntry(item, unresolvedMessage))
		case result.Err != nil:
			matches = append(matches, competition.FailureEntry(item, result.Err.Error()))
		default:
			matches = append(matches, competition.RecordEntry(item, result.Record))
		}
	}

	return competition.Dataset{
		CompetitionName: meta.CompetitionName,
		GroupName:       meta.GroupName,
		SeasonLabel:     meta.SeasonLabel,
		SeasonID:        query.SeasonID,
		CompetitionID:   query.CompetitionID,
		GroupID:         query.GroupID,
		FetchedAt:       fetchedAt.UTC(),
		Matches:         matches,
	}
}

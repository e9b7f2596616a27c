package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
)

type stubCalendarSource struct {
	meta  competition.Metadata
	items []competition.WorkItem
	err   error
	calls atomic.Int32
}

func (s *stubCalendarSource) EnumerateCalendar(_ context.Context, query CalendarQuery) (competition.Metadata, []competition.WorkItem, error) {
	s.calls.Add(1)
	if s.err != nil {
		return competition.Metadata{}, nil, s.err
	}
	out := make([]competition.WorkItem, len(s.items))
	for i, item := range s.items {
		item.SeasonID = query.SeasonID
		item.CompetitionID = query.CompetitionID
		item.GroupID = query.GroupID
		out[i] = item
	}
	return s.meta, out, nil
}

// stubMatchSource answers with {"codacta": id}. Items listed in failures fail with
// the mapped error and items in panics panic.
type stubMatchSource struct {
	failures map[string]error
	panics   map[string]bool
	delay    time.Duration

	mu       sync.Mutex
	seen     []string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (s *stubMatchSource) FetchMatch(ctx context.Context, item competition.WorkItem) (competition.MatchRecord, error) {
	current := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	s.mu.Lock()
	s.seen = append(s.seen, item.MatchID)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.panics[item.MatchID] {
		panic(fmt.Sprintf("parser blew up on %s", item.MatchID))
	}
	if err := s.failures[item.MatchID]; err != nil {
		return nil, err
	}
	return payload.Object{"codacta": item.MatchID, "round": item.Round}, nil
}

func (s *stubMatchSource) seenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// recordingRepository keeps every saved dataset.
type recordingRepository struct {
	mu    sync.Mutex
	saved []competition.Dataset
	err   error
}

func (r *recordingRepository) Save(_ context.Context, dataset competition.Dataset) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, dataset)
	return nil
}

func (r *recordingRepository) datasets() []competition.Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]competition.Dataset(nil), r.saved...)
}

func workItems(rounds, perRound int) []competition.WorkItem {
	items := make([]competition.WorkItem, 0, rounds*perRound)
	for r := 1; r <= rounds; r++ {
		for m := 0; m < perRound; m++ {
			items = append(items, competition.WorkItem{
				MatchID:       fmt.Sprintf("r%dm%d", r, m),
				SeasonID:      "19",
				CompetitionID: "100",
				GroupID:       "200",
				Round:         r,
				Position:      len(items),
			})
		}
	}
	return items
}

var fixedNow = time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

package usecase

import (
	"context"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
)

// CalendarQuery names one competition group on the federation site.
type CalendarQuery struct {
	SeasonID      string `validate:"required"`
	GameType      string `validate:"required"`
	CompetitionID string `validate:"required"`
	GroupID       string `validate:"required"`
}

// CalendarSource lists the matches of a competition group.
type CalendarSource interface {
	EnumerateCalendar(ctx context.Context, query CalendarQuery) (competition.Metadata, []competition.WorkItem, error)
}

// MatchSource turns one work item into its match record.
type MatchSource interface {
	FetchMatch(ctx context.Context, item competition.WorkItem) (competition.MatchRecord, error)
}

// Progress is reported once per completed work item.
type Progress struct {
	Completed int
	Total     int
	Item      competition.WorkItem
	Err       error
}

type ProgressFunc func(Progress)

package competition

import (
	"strings"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
)

// WorkItem is one match to fetch, keyed by the identifiers the match page needs.
type WorkItem struct {
	MatchID       string `validate:"required"`
	SeasonID      string `validate:"required"`
	CompetitionID string `validate:"required"`
	GroupID       string `validate:"required"`
	Round         int    `validate:"gte=0"`
	Position      int    `validate:"gte=0"`
}

// MatchRecord is the match page's game payload, kept exactly as extracted.
type MatchRecord = payload.Object

// Metadata carries the labels the calendar page declares for a competition group.
type Metadata struct {
	CompetitionName string
	GroupName       string
	SeasonLabel     string
}

// MatchEntry is one slot of a dataset: a record, or a failure sentinel. Item is the
// work item the slot was filled for; it is zero for entries read back from a document.
type MatchEntry struct {
	Item    WorkItem
	Record  MatchRecord
	Failure *Failure
}

type Failure struct {
	MatchID string
	Round   int
	Error   string
}

func RecordEntry(item WorkItem, record MatchRecord) MatchEntry {
	return MatchEntry{Item: item, Record: record}
}

func FailureEntry(item WorkItem, message string) MatchEntry {
	return MatchEntry{
		Item: item,
		Failure: &Failure{
			MatchID: item.MatchID,
			Round:   item.Round,
			Error:   message,
		},
	}
}

func (e MatchEntry) Failed() bool {
	return e.Failure != nil
}

// Dataset is the persisted result of one competition group run.
type Dataset struct {
	CompetitionName string
	GroupName       string
	SeasonLabel     string
	SeasonID        string
	CompetitionID   string
	GroupID         string
	FetchedAt       time.Time
	Matches         []MatchEntry
}

func (d Dataset) Key() DatasetKey {
	return DatasetKey{
		SeasonLabel:     firstNonEmpty(d.SeasonLabel, d.SeasonID),
		CompetitionName: firstNonEmpty(d.CompetitionName, d.CompetitionID),
		GroupName:       firstNonEmpty(d.GroupName, d.GroupID),
	}
}

func (d Dataset) MatchCount() int {
	return len(d.Matches)
}

func (d Dataset) FailedCount() int {
	count := 0
	for _, entry := range d.Matches {
		if entry.Failed() {
			count++
		}
	}
	return count
}

// DatasetKey identifies a persisted dataset. A later save under the same key replaces it.
type DatasetKey struct {
	SeasonLabel     string
	CompetitionName string
	GroupName       string
}

func (k DatasetKey) String() string {
	return k.SeasonLabel + "/" + k.CompetitionName + "/" + k.GroupName
}

func (k DatasetKey) Valid() bool {
	return strings.TrimSpace(k.SeasonLabel) != "" &&
		strings.TrimSpace(k.CompetitionName) != "" &&
		strings.TrimSpace(k.GroupName) != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

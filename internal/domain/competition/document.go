package competition

import (
	"strconv"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
)

// Document is the serialised form of a Dataset shared by the file and postgres sinks.
type Document struct {
	CompetitionName string    `json:"competition_name"`
	GroupName       string    `json:"group_name"`
	SeasonLabel     string    `json:"season_label"`
	SeasonID        string    `json:"season_id"`
	CompetitionID   string    `json:"competition_id"`
	GroupID         string    `json:"group_id"`
	FetchedAt       time.Time `json:"fetched_at"`
	MatchCount      int       `json:"match_count"`
	FailedCount     int       `json:"failed_count"`
	Matches         []any     `json:"matches"`
}

// FailureDocument is the sentinel written in place of a match that could not be fetched.
type FailureDocument struct {
	Failed  bool   `json:"failed"`
	MatchID string `json:"match_id"`
	Round   int    `json:"round"`
	Error   string `json:"error"`
}

func NewDocument(d Dataset) Document {
	matches := make([]any, 0, len(d.Matches))
	for _, entry := range d.Matches {
		matches = append(matches, entry.documentValue())
	}
	return Document{
		CompetitionName: d.CompetitionName,
		GroupName:       d.GroupName,
		SeasonLabel:     d.SeasonLabel,
		SeasonID:        d.SeasonID,
		CompetitionID:   d.CompetitionID,
		GroupID:         d.GroupID,
		FetchedAt:       d.FetchedAt.UTC(),
		MatchCount:      d.MatchCount(),
		FailedCount:     d.FailedCount(),
		Matches:         matches,
	}
}

func (e MatchEntry) documentValue() any {
	if e.Failure != nil {
		return FailureDocument{
			Failed:  true,
			MatchID: e.Failure.MatchID,
			Round:   e.Failure.Round,
			Error:   e.Failure.Error,
		}
	}
	if e.Record == nil {
		return payload.Object{}
	}
	return e.Record
}

// MarshalDocument encodes a dataset with the payload codec.
func MarshalDocument(d Dataset) ([]byte, error) {
	raw, err := payload.API.Marshal(NewDocument(d))
	if err != nil {
		return nil, crerr.Wrapf(err, "marshal dataset %s", d.Key())
	}
	return raw, nil
}

// MarshalEntry encodes a single match slot.
func MarshalEntry(e MatchEntry) ([]byte, error) {
	return payload.API.Marshal(e.documentValue())
}

// UnmarshalDocument reads a dataset back. Objects carrying "failed": true become
// failure entries, everything else is a record.
func UnmarshalDocument(raw []byte) (Dataset, error) {
	var doc Document
	if err := payload.API.Unmarshal(raw, &doc); err != nil {
		return Dataset{}, crerr.Wrap(err, "unmarshal dataset")
	}

	entries := make([]MatchEntry, 0, len(doc.Matches))
	for idx, item := range doc.Matches {
		obj, ok := payload.AsObject(item)
		if !ok {
			return Dataset{}, crerr.Newf("match %d is %s, expected object", idx, payload.Kind(item))
		}
		if failed, _ := obj["failed"].(bool); failed {
			round, _ := strconv.Atoi(payload.StringAt(obj, "round"))
			entries = append(entries, MatchEntry{Failure: &Failure{
				MatchID: payload.StringAt(obj, "match_id"),
				Round:   round,
				Error:   payload.StringAt(obj, "error"),
			}})
			continue
		}
		entries = append(entries, MatchEntry{Record: obj})
	}

	return Dataset{
		CompetitionName: doc.CompetitionName,
		GroupName:       doc.GroupName,
		SeasonLabel:     doc.SeasonLabel,
		SeasonID:        doc.SeasonID,
		CompetitionID:   doc.CompetitionID,
		GroupID:         doc.GroupID,
		FetchedAt:       doc.FetchedAt,
		Matches:         entries,
	}, nil
}

package postgres

import "time"

type datasetUpsertModel struct {
	SeasonLabel     string    `db:"season_label"`
	CompetitionName string    `db:"competition_name"`
	GroupName       string    `db:"group_name"`
	SeasonID        string    `db:"season_id"`
	CompetitionID   string    `db:"competition_id"`
	GroupID         string    `db:"group_id"`
	FetchedAt       time.Time `db:"fetched_at"`
	MatchCount      int       `db:"match_count"`
	FailedCount     int       `db:"failed_count"`
	PayloadHash     string    `db:"payload_hash"`
}

type datasetTableModel struct {
	ID              int64     `db:"id"`
	SeasonLabel     string    `db:"season_label"`
	CompetitionName string    `db:"competition_name"`
	GroupName       string    `db:"group_name"`
	SeasonID        string    `db:"season_id"`
	CompetitionID   string    `db:"competition_id"`
	GroupID         string    `db:"group_id"`
	FetchedAt       time.Time `db:"fetched_at"`
	MatchCount      int       `db:"match_count"`
	FailedCount     int       `db:"failed_count"`
	PayloadHash     string    `db:"payload_hash"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type datasetMatchTableModel struct {
	DatasetID int64  `db:"dataset_id"`
	Position  int    `db:"position"`
	MatchID   string `db:"match_id"`
	Round     int    `db:"round"`
	Failed    bool   `db:"failed"`
	Payload   string `db:"payload"`
}

package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
	qb "github.com/riskibarqy/federation-scraper/internal/platform/querybuilder"
)

const (
	datasetsTable       = "competition_datasets"
	datasetMatchesTable = "competition_dataset_matches"

	// Postgres caps a statement at 65535 bind parameters.
	matchInsertBatchSize = 1000
)

const datasetUpsertSuffix = `ON CONFLICT (season_label, competition_name, group_name)
DO UPDATE SET
    season_id = EXCLUDED.season_id,
    competition_id = EXCLUDED.competition_id,
    group_id = EXCLUDED.group_id,
    fetched_at = EXCLUDED.fetched_at,
    match_count = EXCLUDED.match_count,
    failed_count = EXCLUDED.failed_count,
    payload_hash = EXCLUDED.payload_hash,
    updated_at = NOW()
RETURNING id`

// DatasetRepository stores one row per dataset key and one row per match slot. Save
// replaces the previous slots of the key inside a single transaction.
type DatasetRepository struct {
	db *sqlx.DB
}

var _ competition.DatasetRepository = (*DatasetRepository)(nil)

func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

func (r *DatasetRepository) Save(ctx context.Context, dataset competition.Dataset) error {
	key := dataset.Key()
	if !key.Valid() {
		return fmt.Errorf("dataset key %q is incomplete", key.String())
	}

	rows, err := datasetMatchRows(dataset)
	if err != nil {
		return err
	}
	hash, err := datasetPayloadHash(dataset)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save dataset: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	upsertQuery, upsertArgs, err := datasetUpsertQuery(dataset, hash)
	if err != nil {
		return fmt.Errorf("build upsert dataset query: %w", err)
	}
	var datasetID int64
	if err := tx.QueryRowxContext(ctx, upsertQuery, upsertArgs...).Scan(&datasetID); err != nil {
		return fmt.Errorf("upsert dataset %s: %w", key, err)
	}

	clearQuery, clearArgs, err := qb.DeleteFrom(datasetMatchesTable).
		Where(qb.Eq("dataset_id", datasetID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear dataset matches query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear dataset matches: %w", err)
	}

	batches, err := matchInsertBatches(datasetID, rows, matchInsertBatchSize)
	if err != nil {
		return fmt.Errorf("build insert dataset matches query: %w", err)
	}
	for _, insert := range batches {
		query, args, err := insert.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert dataset matches query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert dataset matches: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save dataset: %w", err)
	}
	return nil
}

// Load reads a dataset back by key. The boolean is false when nothing is stored.
func (r *DatasetRepository) Load(ctx context.Context, key competition.DatasetKey) (competition.Dataset, bool, error) {
	query, args, err := qb.Select("*").From(datasetsTable).
		Where(
			qb.Eq("season_label", key.SeasonLabel),
			qb.Eq("competition_name", key.CompetitionName),
			qb.Eq("group_name", key.GroupName),
		).
		ToSQL()
	if err != nil {
		return competition.Dataset{}, false, fmt.Errorf("build get dataset query: %w", err)
	}

	var header datasetTableModel
	if err := r.db.GetContext(ctx, &header, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Dataset{}, false, nil
		}
		return competition.Dataset{}, false, fmt.Errorf("get dataset %s: %w", key, err)
	}

	matchesQuery, matchesArgs, err := qb.Select("position", "match_id", "round", "failed", "payload::text AS payload").
		From(datasetMatchesTable).
		Where(qb.Eq("dataset_id", header.ID)).
		OrderBy("position").
		ToSQL()
	if err != nil {
		return competition.Dataset{}, false, fmt.Errorf("build list dataset matches query: %w", err)
	}

	var rows []datasetMatchTableModel
	if err := r.db.SelectContext(ctx, &rows, matchesQuery, matchesArgs...); err != nil {
		return competition.Dataset{}, false, fmt.Errorf("list dataset matches: %w", err)
	}

	entries, err := matchEntriesFromRows(rows)
	if err != nil {
		return competition.Dataset{}, false, err
	}

	return competition.Dataset{
		CompetitionName: header.CompetitionName,
		GroupName:       header.GroupName,
		SeasonLabel:     header.SeasonLabel,
		SeasonID:        header.SeasonID,
		CompetitionID:   header.CompetitionID,
		GroupID:         header.GroupID,
		FetchedAt:       header.FetchedAt.UTC(),
		Matches:         entries,
	}, true, nil
}

func datasetUpsertQuery(dataset competition.Dataset, hash string) (string, []any, error) {
	key := dataset.Key()
	return qb.InsertModel(datasetsTable, datasetUpsertModel{
		SeasonLabel:     key.SeasonLabel,
		CompetitionName: key.CompetitionName,
		GroupName:       key.GroupName,
		SeasonID:        dataset.SeasonID,
		CompetitionID:   dataset.CompetitionID,
		GroupID:         dataset.GroupID,
		FetchedAt:       dataset.FetchedAt.UTC(),
		MatchCount:      dataset.MatchCount(),
		FailedCount:     dataset.FailedCount(),
		PayloadHash:     hash,
	}, datasetUpsertSuffix)
}

func datasetMatchRows(dataset competition.Dataset) ([]datasetMatchTableModel, error) {
	rows := make([]datasetMatchTableModel, 0, len(dataset.Matches))
	for idx, entry := range dataset.Matches {
		raw, err := competition.MarshalEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("encode match slot %d: %w", idx, err)
		}

		row := datasetMatchTableModel{
			Position: idx,
			MatchID:  entry.Item.MatchID,
			Round:    entry.Item.Round,
			Failed:   entry.Failed(),
			Payload:  string(raw),
		}
		if entry.Failure != nil {
			row.MatchID = entry.Failure.MatchID
			row.Round = entry.Failure.Round
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func matchInsertBatches(datasetID int64, rows []datasetMatchTableModel, batchSize int) ([]*qb.InsertBuilder, error) {
	if batchSize <= 0 {
		batchSize = matchInsertBatchSize
	}

	var batches []*qb.InsertBuilder
	for start := 0; start < len(rows); start += batchSize {
		chunk := rows[start:min(start+batchSize, len(rows))]
		for i := range chunk {
			chunk[i].DatasetID = datasetID
		}
		insert, err := qb.InsertModels(datasetMatchesTable, chunk)
		if err != nil {
			return nil, err
		}
		batches = append(batches, insert)
	}
	return batches, nil
}

func matchEntriesFromRows(rows []datasetMatchTableModel) ([]competition.MatchEntry, error) {
	entries := make([]competition.MatchEntry, 0, len(rows))
	for _, row := range rows {
		obj, err := payload.Decode([]byte(row.Payload))
		if err != nil {
			return nil, fmt.Errorf("decode match slot %d: %w", row.Position, err)
		}
		item := competition.WorkItem{MatchID: row.MatchID, Round: row.Round, Position: row.Position}
		if row.Failed {
			entries = append(entries, competition.FailureEntry(item, payload.StringAt(obj, "error")))
			continue
		}
		entries = append(entries, competition.RecordEntry(item, obj))
	}
	return entries, nil
}

// datasetPayloadHash fingerprints the encoded document without its fetch time, so two
// runs that scraped identical data share a hash.
func datasetPayloadHash(dataset competition.Dataset) (string, error) {
	dataset.FetchedAt = time.Time{}
	raw, err := competition.MarshalDocument(dataset)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

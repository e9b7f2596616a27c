package memory

import (
	"context"
	"testing"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
)

func TestDatasetRepository_SaveReplacesByKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewDatasetRepository()

	first := competition.Dataset{
		CompetitionName: "Primera Aficionados",
		GroupName:       "Grupo 3",
		SeasonLabel:     "2024-2025",
		Matches: []competition.MatchEntry{
			competition.RecordEntry(competition.WorkItem{MatchID: "1"}, payload.Object{"codacta": "1"}),
			competition.RecordEntry(competition.WorkItem{MatchID: "2"}, payload.Object{"codacta": "2"}),
		},
	}
	second := first
	second.Matches = []competition.MatchEntry{
		competition.FailureEntry(competition.WorkItem{MatchID: "3", Round: 1}, "status 500"),
	}

	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, ok, err := repo.Load(ctx, first.Key())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.MatchCount() != 1 || got.FailedCount() != 1 {
		t.Fatalf("second save should replace the first, got matches=%d failed=%d", got.MatchCount(), got.FailedCount())
	}
	if len(repo.Keys()) != 1 || repo.Saves() != 2 {
		t.Fatalf("unexpected repository state: keys=%d saves=%d", len(repo.Keys()), repo.Saves())
	}

	if _, ok, _ := repo.Load(ctx, competition.DatasetKey{SeasonLabel: "x"}); ok {
		t.Fatalf("expected unknown key to be missing")
	}
}

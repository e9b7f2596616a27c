package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
)

func sampleDataset(matches ...competition.MatchEntry) competition.Dataset {
	return competition.Dataset{
		CompetitionName: "Tercera Federación",
		GroupName:       "Grupo 7",
		SeasonLabel:     "2024/2025",
		SeasonID:        "19",
		CompetitionID:   "100",
		GroupID:         "200",
		FetchedAt:       time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
		Matches:         matches,
	}
}

func TestDatasetRepository_Path(t *testing.T) {
	t.Parallel()

	repo := NewDatasetRepository("/data/out")
	got := repo.Path(competition.DatasetKey{
		SeasonLabel:     "2024/2025",
		CompetitionName: "Tercera Federación",
		GroupName:       " ../Grupo 7 ",
	})
	want := filepath.Join("/data/out", "2024_2025", "Tercera Federación", "_Grupo 7.json")
	if got != want {
		t.Fatalf("unexpected path:\nwant %s\ngot  %s", want, got)
	}
}

func TestDatasetRepository_SaveOverwritesAndLoads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewDatasetRepository(t.TempDir())

	first := sampleDataset(
		competition.RecordEntry(competition.WorkItem{MatchID: "1"}, payload.Object{"codacta": "1"}),
		competition.RecordEntry(competition.WorkItem{MatchID: "2"}, payload.Object{"codacta": "2"}),
	)
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := sampleDataset(
		competition.FailureEntry(competition.WorkItem{MatchID: "3", Round: 2}, "status 500"),
	)
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	path := repo.Path(first.Key())
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dataset file: %v", err)
	}
	if !strings.Contains(string(raw), "Tercera Federación") || !strings.Contains(string(raw), "\n  \"") {
		t.Fatalf("expected indented document with raw non-ascii text: %s", raw)
	}

	got, ok, err := repo.Load(ctx, first.Key())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.MatchCount() != 1 || got.FailedCount() != 1 || got.Matches[0].Failure.MatchID != "3" {
		t.Fatalf("second save should replace the first, got %+v", got.Matches)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestDatasetRepository_LoadMissing(t *testing.T) {
	t.Parallel()

	repo := NewDatasetRepository(t.TempDir())
	_, ok, err := repo.Load(context.Background(), competition.DatasetKey{SeasonLabel: "a", CompetitionName: "b", GroupName: "c"})
	if err != nil || ok {
		t.Fatalf("expected missing dataset, got ok=%v err=%v", ok, err)
	}
}

func TestSanitizeSegment(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Grupo 1":       "Grupo 1",
		"a/b\\c":        "a_b_c",
		"   ":           "_",
		"..":            "_",
		"Jornada\t1":    "Jornada1",
		"Alevín F-7 ¿?": "Alevín F-7 ¿_",
	}
	for in, want := range cases {
		if got := sanitizeSegment(in); got != want {
			t.Fatalf("sanitizeSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
)

// BatchInput runs several groups of one competition.
type BatchInput struct {
	SeasonID      string
	GameType      string
	CompetitionID string
	GroupIDs      []string
	// MaxParallel bounds how many groups run at once; 1 keeps them sequential.
	MaxParallel int
}

// RunGroups runs every group and returns one result per group, in input order. The
// error is non-nil when at least one group failed to enumerate or persist.
func (s *ScrapeService) RunGroups(ctx context.Context, input BatchInput) ([]RunResult, error) {
	groups := make([]string, 0, len(input.GroupIDs))
	seen := make(map[string]struct{}, len(input.GroupIDs))
	for _, id := range input.GroupIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		groups = append(groups, id)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: at least one group id is required", ErrInvalidInput)
	}

	maxParallel := input.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}

	type indexed struct {
		idx    int
		result RunResult
	}

	p := pool.NewWithResults[indexed]().WithMaxGoroutines(maxParallel)
	for idx, groupID := range groups {
		idx, groupID := idx, groupID
		p.Go(func() indexed {
			res, err := s.Run(ctx, CalendarQuery{
				SeasonID:      input.SeasonID,
				GameType:      input.GameType,
				CompetitionID: input.CompetitionID,
				GroupID:       groupID,
			})
			res.Err = err
			return indexed{idx: idx, result: res}
		})
	}

	out := make([]RunResult, len(groups))
	failed := 0
	for _, item := range p.Wait() {
		out[item.idx] = item.result
		if item.result.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		return out, fmt.Errorf("%d of %d group runs failed", failed, len(groups))
	}
	return out, nil
}

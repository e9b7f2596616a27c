// Package fanout saves every dataset to several repositories at once.
package fanout

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
)

type DatasetRepository struct {
	next []competition.DatasetRepository
}

var _ competition.DatasetRepository = (*DatasetRepository)(nil)

func NewDatasetRepository(next ...competition.DatasetRepository) *DatasetRepository {
	out := make([]competition.DatasetRepository, 0, len(next))
	for _, repo := range next {
		if repo != nil {
			out = append(out, repo)
		}
	}
	return &DatasetRepository{next: out}
}

// Save writes to every sink concurrently and waits for all of them. The error joins
// every sink failure; a failing sink does not stop the others.
func (r *DatasetRepository) Save(ctx context.Context, dataset competition.Dataset) error {
	if len(r.next) == 0 {
		return fmt.Errorf("no dataset sink configured")
	}
	if len(r.next) == 1 {
		return r.next[0].Save(ctx, dataset)
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, repo := range r.next {
		repo := repo
		p.Go(func(ctx context.Context) error {
			return repo.Save(ctx, dataset)
		})
	}
	return p.Wait()
}

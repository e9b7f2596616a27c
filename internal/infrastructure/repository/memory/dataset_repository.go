package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
)

type DatasetRepository struct {
	mu    sync.RWMutex
	items map[competition.DatasetKey]competition.Dataset
	saves int
}

var _ competition.DatasetRepository = (*DatasetRepository)(nil)

func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{items: make(map[competition.DatasetKey]competition.Dataset)}
}

func (r *DatasetRepository) Save(_ context.Context, dataset competition.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[dataset.Key()] = cloneDataset(dataset)
	r.saves++
	return nil
}

func (r *DatasetRepository) Load(_ context.Context, key competition.DatasetKey) (competition.Dataset, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dataset, ok := r.items[key]
	if !ok {
		return competition.Dataset{}, false, nil
	}
	return cloneDataset(dataset), true, nil
}

func (r *DatasetRepository) Keys() []competition.DatasetKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]competition.DatasetKey, 0, len(r.items))
	for key := range r.items {
		out = append(out, key)
	}
	return out
}

// Saves counts Save calls, overwrites included.
func (r *DatasetRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

func cloneDataset(d competition.Dataset) competition.Dataset {
	copied := d
	copied.Matches = append([]competition.MatchEntry(nil), d.Matches...)
	return copied
}

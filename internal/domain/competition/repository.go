package competition

import "context"

// DatasetRepository persists finished datasets. Save replaces whatever is stored
// under the dataset's key; it never merges.
type DatasetRepository interface {
	Save(ctx context.Context, dataset Dataset) error
}

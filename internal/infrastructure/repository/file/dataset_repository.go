// Package file writes datasets as indented JSON documents under an output directory,
// one file per season, competition and group.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/payload"
)

const (
	fileExtension = ".json"
	dirPerm       = 0o755
	filePerm      = 0o644
)

type DatasetRepository struct {
	root string
}

var _ competition.DatasetRepository = (*DatasetRepository)(nil)

func NewDatasetRepository(root string) *DatasetRepository {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	return &DatasetRepository{root: root}
}

// Path is <root>/<season>/<competition>/<group>.json with every segment sanitised.
func (r *DatasetRepository) Path(key competition.DatasetKey) string {
	return filepath.Join(
		r.root,
		sanitizeSegment(key.SeasonLabel),
		sanitizeSegment(key.CompetitionName),
		sanitizeSegment(key.GroupName)+fileExtension,
	)
}

// Save replaces the file for the dataset's key. The document is written to a temp
// file in the same directory and renamed over the target, so readers never see a
// partial file.
func (r *DatasetRepository) Save(ctx context.Context, dataset competition.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := r.Path(dataset.Key())
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	enc := payload.API.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(competition.NewDocument(dataset)); err != nil {
		return fmt.Errorf("encode dataset %s: %w", dataset.Key(), err)
	}

	return writeAtomic(target, buf.B)
}

func (r *DatasetRepository) Load(ctx context.Context, key competition.DatasetKey) (competition.Dataset, bool, error) {
	if err := ctx.Err(); err != nil {
		return competition.Dataset{}, false, err
	}

	raw, err := os.ReadFile(r.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return competition.Dataset{}, false, nil
		}
		return competition.Dataset{}, false, fmt.Errorf("read dataset %s: %w", key, err)
	}

	dataset, err := competition.UnmarshalDocument(raw)
	if err != nil {
		return competition.Dataset{}, false, fmt.Errorf("decode dataset %s: %w", key, err)
	}
	return dataset, true, nil
}

func writeAtomic(target string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

// sanitizeSegment keeps labels readable, accents and spaces included, and only
// replaces what a path segment cannot hold.
func sanitizeSegment(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		default:
			return r
		}
	}, raw)
	cleaned = strings.Trim(strings.TrimSpace(cleaned), ".")
	if cleaned == "" {
		return "_"
	}
	return cleaned
}

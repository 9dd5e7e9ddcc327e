package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/school-map-service/internal/domain"
)

// BuildDataset assembles the map dataset from processed results and writes
// it as JSON to path.
func BuildDataset(results []domain.YearResults, zoom int, path string, logger *slog.Logger) (domain.Dataset, error) {
	ds, err := domain.BuildDataset(results, zoom, logger)
	if err != nil {
		return domain.Dataset{}, err
	}
	if err := WriteDataset(path, ds); err != nil {
		return domain.Dataset{}, err
	}
	logger.Info("dataset written",
		"path", path,
		"current_year", ds.CurrentYear(),
		"schools", len(ds.Schools),
	)
	return ds, nil
}

// WriteDataset writes ds to path via a temporary file so readers never see
// a partial document.
func WriteDataset(path string, ds domain.Dataset) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace dataset: %w", err)
	}
	return nil
}

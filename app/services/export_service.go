package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/pkg/logger"
	"github.com/shashiranjanraj/vendo/pkg/metrics"
	"github.com/shashiranjanraj/vendo/pkg/storage"
)

// ExportDir is the directory exports are written under on the disk.
const ExportDir = "ledger"

// ExportResult describes one written export file.
type ExportResult struct {
	Path  string
	URL   string
	Count int
}

// ExportService copies a window of the ledger to a storage disk as JSON
// lines, oldest purchase first.
type ExportService struct {
	history *HistoryService
	disk    storage.Disk
	now     func() time.Time
}

func NewExportService(history *HistoryService, disk storage.Disk) *ExportService {
	return &ExportService{history: history, disk: disk, now: time.Now}
}

// WithClock returns a copy of s that names files and measures the window
// from now().
func (s *ExportService) WithClock(now func() time.Time) *ExportService {
	c := *s
	c.now = now
	c.history = s.history.WithClock(now)
	return &c
}

// Export writes the purchases of the last hours to
// ledger/<UTC timestamp>.jsonl. An empty window still writes an empty file
// so each run leaves a trace.
func (s *ExportService) Export(ctx context.Context, hours int) (res ExportResult, err error) {
	defer func() { metrics.RecordLedgerExport(err) }()

	if hours <= 0 {
		return ExportResult{}, validationError("Export window must be a positive number of hours")
	}

	purchases, err := s.history.Query(ctx, models.PurchaseFilterParams{
		Hours:     &hours,
		SortField: models.SortByTimestamp,
		SortOrder: models.SortAsc,
	})
	if err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range purchases {
		if err := enc.Encode(&purchases[i]); err != nil {
			return ExportResult{}, fmt.Errorf("export: encode %s: %w", purchases[i].ID, err)
		}
	}

	path := fmt.Sprintf("%s/%s.jsonl", ExportDir, s.now().UTC().Format("20060102T150405Z"))
	if err := s.disk.Put(ctx, path, &buf); err != nil {
		return ExportResult{}, fmt.Errorf("export: %w", err)
	}

	res = ExportResult{Path: path, URL: s.disk.URL(path), Count: len(purchases)}
	logger.WithCtx(ctx).Info("export: ledger written", "path", path, "purchases", res.Count, "hours", hours)
	return res, nil
}

// Prune deletes all but the newest keep exports.
func (s *ExportService) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, errors.New("export: keep must not be negative")
	}

	files, err := s.disk.Files(ctx, ExportDir)
	if err != nil {
		return 0, fmt.Errorf("export: list: %w", err)
	}
	if len(files) <= keep {
		return 0, nil
	}

	// Names are timestamps, so lexical order is chronological.
	stale := files[:len(files)-keep]
	for _, path := range stale {
		if err := s.disk.Delete(ctx, path); err != nil {
			return 0, fmt.Errorf("export: %w", err)
		}
	}
	return len(stale), nil
}

package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
)

var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// EntryLister is satisfied by services.TransactionService.
type EntryLister interface {
	Entries(ctx context.Context, kind core.Kind, ownerID string, period core.Period) ([]core.Entry, error)
}

// ExportWorker keeps a workbook per owner and kind up to date on disk.
type ExportWorker struct {
	entries  EntryLister
	renderer sheets.Renderer
	dir      string
	logger   *log.Logger
}

func NewExportWorker(entries EntryLister, renderer sheets.Renderer, dir string, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		entries:  entries,
		renderer: renderer,
		dir:      dir,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordEvent regenerates the export touched by one change event.
func (w *ExportWorker) HandleRecordEvent(ctx context.Context, msg *amqp.RecordEventMessage) error {
	w.logger.InfoContext(ctx, "Processing record event",
		log.FieldRecordID, msg.RecordID,
		log.FieldKind, msg.Kind,
		log.FieldOperation, msg.Op)

	path, err := w.Export(ctx, msg.Kind, msg.OwnerID)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Export refreshed", log.FieldOwnerID, msg.OwnerID, log.FieldFile, path)
	return nil
}

// Export writes <dir>/<owner>/<file> atomically and returns its path.
func (w *ExportWorker) Export(ctx context.Context, kind core.Kind, ownerID string) (string, error) {
	if !ownerPattern.MatchString(ownerID) {
		return "", fmt.Errorf("%w: owner id %q cannot be used as a directory name", core.ErrValidation, ownerID)
	}

	entries, err := w.entries.Entries(ctx, kind, ownerID, core.Period{})
	if err != nil {
		return "", fmt.Errorf("list %s entries: %w", kind, err)
	}

	dir := filepath.Join(w.dir, ownerID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := w.renderer.Render(tmp, kind, entries); err != nil {
		tmp.Close()
		return "", fmt.Errorf("render %s export: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(dir, sheets.FileName(kind))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replace export: %w", err)
	}
	return path, nil
}

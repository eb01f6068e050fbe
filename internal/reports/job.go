package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/shopdesk-app/shopdesk/internal/jobs"
	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/reports/export"
	"github.com/shopdesk-app/shopdesk/internal/shared"
	"github.com/shopdesk-app/shopdesk/jobs"
)

// ExportStateStore is the lifecycle surface the job needs from the
// export repository.
type ExportStateStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Export, error)
	MarkInProgress(ctx context.Context, id uuid.UUID) error
	MarkReady(ctx context.Context, id uuid.UUID, filePath string) error
	MarkFailed(ctx context.Context, id uuid.UUID, msg string) error
}

// JobConfig wires dependencies required by the worker job.
type JobConfig struct {
	Exports    ExportStateStore
	Products   ProductSource
	Sales      SaleSource
	Debts      DebtSource
	StorageDir string
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// Job renders queued report exports coming from the queue.
type Job struct {
	exports    ExportStateStore
	products   ProductSource
	sales      SaleSource
	debts      DebtSource
	storageDir string
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
}

// NewJob constructs a Job handler.
func NewJob(cfg JobConfig) *Job {
	return &Job{
		exports:    cfg.Exports,
		products:   cfg.Products,
		sales:      cfg.Sales,
		debts:      cfg.Debts,
		storageDir: cfg.StorageDir,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.exports == nil {
		return fmt.Errorf("report export job not configured")
	}
	tracker := j.metrics.Track("report_export")
	return tracker.End(j.handle(ctx, task))
}

func (j *Job) handle(ctx context.Context, task *asynq.Task) error {
	var payload jobs.ReportExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	exportID, err := uuid.Parse(payload.ExportID)
	if err != nil {
		return asynq.SkipRetry
	}

	record, err := j.exports.GetByID(ctx, exportID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return asynq.SkipRetry
		}
		return err
	}
	if record.Status == ExportReady {
		return nil
	}
	if err := j.exports.MarkInProgress(ctx, record.ID); err != nil {
		if errors.Is(err, ErrExportStatus) {
			current, loadErr := j.exports.GetByID(ctx, record.ID)
			if loadErr == nil && (current.Status == ExportInProgress || current.Status == ExportReady) {
				return nil
			}
		}
		return err
	}

	var buf bytes.Buffer
	if err := j.render(ctx, record, &buf); err != nil {
		_ = j.exports.MarkFailed(ctx, record.ID, err.Error())
		return err
	}
	path, err := j.save(record, buf.Bytes())
	if err != nil {
		_ = j.exports.MarkFailed(ctx, record.ID, err.Error())
		return err
	}
	if err := j.exports.MarkReady(ctx, record.ID, path); err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("report export ready",
			slog.String("export_id", record.ID.String()),
			slog.String("kind", string(record.Kind)),
			slog.String("file", path))
	}
	return nil
}

func (j *Job) render(ctx context.Context, record *Export, buf *bytes.Buffer) error {
	switch record.Kind {
	case ExportSales:
		items, err := j.sales.List(ctx, record.UserID)
		if err != nil {
			return err
		}
		return export.WriteSalesCSV(buf, items)
	case ExportInventory:
		items, err := j.products.List(ctx, record.UserID, products.ListFilter{})
		if err != nil {
			return err
		}
		return export.WriteInventoryCSV(buf, items)
	case ExportDebts:
		items, err := j.debts.List(ctx, record.UserID)
		if err != nil {
			return err
		}
		return export.WriteDebtsCSV(buf, items)
	default:
		return fmt.Errorf("unknown export kind %q", record.Kind)
	}
}

func (j *Job) save(record *Export, data []byte) (string, error) {
	dir := j.storageDir
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-report-%s.csv", record.Kind, record.ID)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// ExportStatus captures the state of a queued export record.
type ExportStatus string

const (
	ExportQueued     ExportStatus = "QUEUED"
	ExportInProgress ExportStatus = "IN_PROGRESS"
	ExportReady      ExportStatus = "READY"
	ExportFailed     ExportStatus = "FAILED"
)

// ExportKind names the report a queued export renders.
type ExportKind string

const (
	ExportSales     ExportKind = "sales"
	ExportInventory ExportKind = "inventory"
	ExportDebts     ExportKind = "debts"
)

// Valid reports whether the kind is one of the supported reports.
func (k ExportKind) Valid() bool {
	switch k {
	case ExportSales, ExportInventory, ExportDebts:
		return true
	}
	return false
}

// ErrExportStatus signals a status transition that does not apply to the
// record's current state.
var ErrExportStatus = errors.New("reports: export status conflict")

// Export represents a persisted export request/result.
type Export struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"-"`
	Kind         ExportKind   `json:"kind"`
	Status       ExportStatus `json:"status"`
	FilePath     string       `json:"file_path,omitempty"`
	ErrorMessage string       `json:"error,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ExportRepository persists export lifecycle state in PostgreSQL.
type ExportRepository struct {
	pool *pgxpool.Pool
}

// NewExportRepository constructs the repository.
func NewExportRepository(pool *pgxpool.Pool) *ExportRepository {
	return &ExportRepository{pool: pool}
}

// Insert queues a new export request.
func (r *ExportRepository) Insert(ctx context.Context, userID uuid.UUID, kind ExportKind) (*Export, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("reports: export repository not initialised")
	}
	exp := &Export{UserID: userID, Kind: kind, Status: ExportQueued}
	err := r.pool.QueryRow(ctx, `INSERT INTO report_exports (user_id, kind, status)
VALUES ($1, $2, 'QUEUED')
RETURNING id, created_at, updated_at`, userID, string(kind)).Scan(&exp.ID, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert report export: %w", err)
	}
	return exp, nil
}

// Get loads one export scoped to its owner.
func (r *ExportRepository) Get(ctx context.Context, userID, id uuid.UUID) (*Export, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("reports: export repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `SELECT id, user_id, kind, status, file_path, error_message, created_at, updated_at
FROM report_exports
WHERE id = $1 AND user_id = $2`, id, userID)
	return scanExport(row)
}

// GetByID loads one export regardless of owner. Used by the worker, which
// receives the owner inside the task payload.
func (r *ExportRepository) GetByID(ctx context.Context, id uuid.UUID) (*Export, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("reports: export repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `SELECT id, user_id, kind, status, file_path, error_message, created_at, updated_at
FROM report_exports
WHERE id = $1`, id)
	return scanExport(row)
}

// MarkInProgress transitions a queued export to in-progress.
func (r *ExportRepository) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE report_exports
SET status = 'IN_PROGRESS', error_message = '', updated_at = NOW()
WHERE id = $1 AND status = 'QUEUED'`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExportStatus
	}
	return nil
}

// MarkReady stores the rendered file path and marks the export as ready.
func (r *ExportRepository) MarkReady(ctx context.Context, id uuid.UUID, filePath string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE report_exports
SET status = 'READY', file_path = $2, updated_at = NOW()
WHERE id = $1`, id, filePath)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkFailed captures the error message and switches the status to failed.
func (r *ExportRepository) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	if len(msg) > 500 {
		msg = msg[:500]
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE report_exports
SET status = 'FAILED', error_message = $2, updated_at = NOW()
WHERE id = $1`, id, msg)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanExport(row pgx.Row) (*Export, error) {
	var exp Export
	var kind, status string
	err := row.Scan(&exp.ID, &exp.UserID, &kind, &status, &exp.FilePath, &exp.ErrorMessage, &exp.CreatedAt, &exp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report export: %w", err)
	}
	exp.Kind = ExportKind(kind)
	exp.Status = ExportStatus(status)
	return &exp, nil
}

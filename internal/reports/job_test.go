package reports

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shopdesk-app/shopdesk/internal/debts"
	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/sales"
	"github.com/shopdesk-app/shopdesk/internal/shared"
	"github.com/shopdesk-app/shopdesk/jobs"
)

type memoryExportStore struct {
	records map[uuid.UUID]*Export
}

func newMemoryExportStore() *memoryExportStore {
	return &memoryExportStore{records: make(map[uuid.UUID]*Export)}
}

func (s *memoryExportStore) add(userID uuid.UUID, kind ExportKind, status ExportStatus) *Export {
	record := &Export{ID: uuid.New(), UserID: userID, Kind: kind, Status: status}
	s.records[record.ID] = record
	return record
}

func (s *memoryExportStore) GetByID(ctx context.Context, id uuid.UUID) (*Export, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *memoryExportStore) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	record, ok := s.records[id]
	if !ok || record.Status != ExportQueued {
		return ErrExportStatus
	}
	record.Status = ExportInProgress
	return nil
}

func (s *memoryExportStore) MarkReady(ctx context.Context, id uuid.UUID, filePath string) error {
	record, ok := s.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	record.Status = ExportReady
	record.FilePath = filePath
	return nil
}

func (s *memoryExportStore) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	record, ok := s.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	record.Status = ExportFailed
	record.ErrorMessage = msg
	return nil
}

type staticSaleSource struct{ items []sales.Sale }

func (s staticSaleSource) List(ctx context.Context, userID uuid.UUID) ([]sales.Sale, error) {
	return s.items, nil
}

type staticProductSource struct{ items []products.Product }

func (s staticProductSource) List(ctx context.Context, userID uuid.UUID, filter products.ListFilter) ([]products.Product, error) {
	return s.items, nil
}

type staticDebtSource struct{ items []debts.Debt }

func (s staticDebtSource) List(ctx context.Context, userID uuid.UUID) ([]debts.Debt, error) {
	return s.items, nil
}

func exportTask(t *testing.T, record *Export) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(jobs.ReportExportPayload{
		ExportID: record.ID.String(),
		UserID:   record.UserID.String(),
		Kind:     string(record.Kind),
	})
	require.NoError(t, err)
	return asynq.NewTask(jobs.TaskTypeReportExport, payload)
}

func TestJobRendersSalesExport(t *testing.T) {
	store := newMemoryExportStore()
	record := store.add(uuid.New(), ExportSales, ExportQueued)
	dir := t.TempDir()

	job := NewJob(JobConfig{
		Exports: store,
		Sales: staticSaleSource{items: []sales.Sale{
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 2, TotalAmount: decimal.RequireFromString("300.00")},
		}},
		Products:   staticProductSource{},
		Debts:      staticDebtSource{},
		StorageDir: dir,
	})

	require.NoError(t, job.Handle(context.Background(), exportTask(t, record)))

	updated, err := store.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, ExportReady, updated.Status)
	require.Equal(t, dir, filepath.Dir(updated.FilePath))

	data, err := os.ReadFile(updated.FilePath)
	require.NoError(t, err)
	require.Contains(t, string(data), "300.00")
	require.True(t, strings.HasPrefix(filepath.Base(updated.FilePath), "sales-report-"))
}

func TestJobSkipsAlreadyReadyExport(t *testing.T) {
	store := newMemoryExportStore()
	record := store.add(uuid.New(), ExportDebts, ExportReady)
	job := NewJob(JobConfig{Exports: store, Sales: staticSaleSource{}, Products: staticProductSource{}, Debts: staticDebtSource{}, StorageDir: t.TempDir()})

	require.NoError(t, job.Handle(context.Background(), exportTask(t, record)))
	require.Equal(t, ExportReady, store.records[record.ID].Status)
}

func TestJobMarksFailedOnUnknownKind(t *testing.T) {
	store := newMemoryExportStore()
	record := store.add(uuid.New(), ExportKind("bogus"), ExportQueued)
	job := NewJob(JobConfig{Exports: store, Sales: staticSaleSource{}, Products: staticProductSource{}, Debts: staticDebtSource{}, StorageDir: t.TempDir()})

	require.Error(t, job.Handle(context.Background(), exportTask(t, record)))
	require.Equal(t, ExportFailed, store.records[record.ID].Status)
	require.NotEmpty(t, store.records[record.ID].ErrorMessage)
}

func TestJobSkipsMissingRecord(t *testing.T) {
	store := newMemoryExportStore()
	ghost := &Export{ID: uuid.New(), UserID: uuid.New(), Kind: ExportSales}
	job := NewJob(JobConfig{Exports: store, Sales: staticSaleSource{}, Products: staticProductSource{}, Debts: staticDebtSource{}, StorageDir: t.TempDir()})

	// Missing rows are dropped, not retried.
	err := job.Handle(context.Background(), exportTask(t, ghost))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

package reporthttp

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shopdesk-app/shopdesk/internal/debts"
	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/reports"
	"github.com/shopdesk-app/shopdesk/internal/sales"
	"github.com/shopdesk-app/shopdesk/internal/shared"
	"github.com/shopdesk-app/shopdesk/jobs"
	_ "github.com/shopdesk-app/shopdesk/testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubService struct {
	summary reports.Summary
	daily   []reports.DailyPoint
}

func (s *stubService) GetSummary(ctx context.Context, userID uuid.UUID) (reports.Summary, error) {
	return s.summary, nil
}

func (s *stubService) GetDaily(ctx context.Context, userID uuid.UUID) ([]reports.DailyPoint, error) {
	return s.daily, nil
}

type stubProductSource struct{ items []products.Product }

func (s stubProductSource) List(ctx context.Context, userID uuid.UUID, filter products.ListFilter) ([]products.Product, error) {
	return s.items, nil
}

type stubSaleSource struct{ items []sales.Sale }

func (s stubSaleSource) List(ctx context.Context, userID uuid.UUID) ([]sales.Sale, error) {
	return s.items, nil
}

type stubDebtSource struct{ items []debts.Debt }

func (s stubDebtSource) List(ctx context.Context, userID uuid.UUID) ([]debts.Debt, error) {
	return s.items, nil
}

type stubExportStore struct {
	records map[uuid.UUID]*reports.Export
}

func (s *stubExportStore) Insert(ctx context.Context, userID uuid.UUID, kind reports.ExportKind) (*reports.Export, error) {
	record := &reports.Export{ID: uuid.New(), UserID: userID, Kind: kind, Status: reports.ExportQueued}
	if s.records == nil {
		s.records = make(map[uuid.UUID]*reports.Export)
	}
	s.records[record.ID] = record
	return record, nil
}

func (s *stubExportStore) Get(ctx context.Context, userID, id uuid.UUID) (*reports.Export, error) {
	record, ok := s.records[id]
	if !ok || record.UserID != userID {
		return nil, shared.ErrNotFound
	}
	return record, nil
}

type stubEnqueuer struct {
	payloads []jobs.ReportExportPayload
}

func (s *stubEnqueuer) EnqueueReportExport(ctx context.Context, payload jobs.ReportExportPayload) (*asynq.TaskInfo, error) {
	s.payloads = append(s.payloads, payload)
	return &asynq.TaskInfo{}, nil
}

func newReportRouter(t *testing.T, h *Handler, userID uuid.UUID) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != uuid.Nil {
				req = req.WithContext(shared.ContextWithUser(req.Context(), userID))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/reports", h.MountRoutes)
	return r
}

func TestSummaryIncludesDisplayAmounts(t *testing.T) {
	service := &stubService{summary: reports.Summary{
		RevenueToday:    decimal.RequireFromString("1500.00"),
		RevenueWeek:     decimal.RequireFromString("1234567.89"),
		RevenueMonth:    decimal.RequireFromString("1234567.89"),
		OutstandingDebt: decimal.RequireFromString("250.00"),
		SaleCount:       3,
	}}
	h := NewHandler(newTestLogger(), service, stubProductSource{}, stubSaleSource{}, stubDebtSource{}, nil, nil)
	router := newReportRouter(t, h, uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SaleCount int64 `json:"sale_count"`
		Display   struct {
			RevenueToday string `json:"revenue_today"`
			RevenueWeek  string `json:"revenue_week"`
		} `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(3), body.SaleCount)
	require.Equal(t, "1,500.00", body.Display.RevenueToday)
	require.Equal(t, "1,234,567.89", body.Display.RevenueWeek)
}

func TestSummaryRequiresUser(t *testing.T) {
	h := NewHandler(newTestLogger(), &stubService{}, stubProductSource{}, stubSaleSource{}, stubDebtSource{}, nil, nil)
	router := newReportRouter(t, h, uuid.Nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/summary", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInventoryCSVDownload(t *testing.T) {
	src := stubProductSource{items: []products.Product{
		{ID: uuid.New(), Name: "Beras, 5kg", Price: decimal.RequireFromString("78500.00"), Stock: 12},
	}}
	h := NewHandler(newTestLogger(), &stubService{}, src, stubSaleSource{}, stubDebtSource{}, nil, nil)
	router := newReportRouter(t, h, uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/inventory.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "inventory-report.csv")

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Beras, 5kg", records[1][1])
}

func TestCreateExportEnqueues(t *testing.T) {
	store := &stubExportStore{}
	queue := &stubEnqueuer{}
	h := NewHandler(newTestLogger(), &stubService{}, stubProductSource{}, stubSaleSource{}, stubDebtSource{}, store, queue)
	userID := uuid.New()
	router := newReportRouter(t, h, userID)

	body := bytes.NewBufferString(`{"kind":"sales"}`)
	req := httptest.NewRequest(http.MethodPost, "/reports/exports", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.payloads, 1)
	require.Equal(t, "sales", queue.payloads[0].Kind)
	require.Equal(t, userID.String(), queue.payloads[0].UserID)

	var created reports.Export
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, reports.ExportQueued, created.Status)

	// Status endpoint reflects the queued record.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/exports/"+created.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateExportRejectsUnknownKind(t *testing.T) {
	store := &stubExportStore{}
	queue := &stubEnqueuer{}
	h := NewHandler(newTestLogger(), &stubService{}, stubProductSource{}, stubSaleSource{}, stubDebtSource{}, store, queue)
	router := newReportRouter(t, h, uuid.New())

	body := bytes.NewBufferString(`{"kind":"everything"}`)
	req := httptest.NewRequest(http.MethodPost, "/reports/exports", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Empty(t, queue.payloads)
}

func TestGetExportScopedToOwner(t *testing.T) {
	store := &stubExportStore{}
	owner := uuid.New()
	record, err := store.Insert(context.Background(), owner, reports.ExportSales)
	require.NoError(t, err)

	h := NewHandler(newTestLogger(), &stubService{}, stubProductSource{}, stubSaleSource{}, stubDebtSource{}, store, &stubEnqueuer{})
	router := newReportRouter(t, h, uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/exports/"+record.ID.String(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

package reporthttp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/reports"
	"github.com/shopdesk-app/shopdesk/internal/reports/export"
	"github.com/shopdesk-app/shopdesk/internal/shared"
	"github.com/shopdesk-app/shopdesk/jobs"
)

const requestTimeout = 5 * time.Second

// ReportService defines the aggregation contract used by the handler.
type ReportService interface {
	GetSummary(ctx context.Context, userID uuid.UUID) (reports.Summary, error)
	GetDaily(ctx context.Context, userID uuid.UUID) ([]reports.DailyPoint, error)
}

// ExportStore persists export requests and serves their status.
type ExportStore interface {
	Insert(ctx context.Context, userID uuid.UUID, kind reports.ExportKind) (*reports.Export, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*reports.Export, error)
}

// Enqueuer submits export rendering tasks to the queue.
type Enqueuer interface {
	EnqueueReportExport(ctx context.Context, payload jobs.ReportExportPayload) (*asynq.TaskInfo, error)
}

// Handler coordinates HTTP requests for shop reports.
type Handler struct {
	logger   *slog.Logger
	service  ReportService
	products reports.ProductSource
	sales    reports.SaleSource
	debts    reports.DebtSource
	exports  ExportStore
	queue    Enqueuer
	csvPool  sync.Pool
}

// NewHandler constructs the reports HTTP handler. The export store and queue
// may be nil when asynchronous exports are disabled.
func NewHandler(logger *slog.Logger, service ReportService, productSrc reports.ProductSource, saleSrc reports.SaleSource, debtSrc reports.DebtSource, exports ExportStore, queue Enqueuer) *Handler {
	h := &Handler{
		logger:   logger,
		service:  service,
		products: productSrc,
		sales:    saleSrc,
		debts:    debtSrc,
		exports:  exports,
		queue:    queue,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

type summaryResponse struct {
	reports.Summary
	Display summaryDisplay `json:"display"`
}

type summaryDisplay struct {
	RevenueToday    string `json:"revenue_today"`
	RevenueWeek     string `json:"revenue_week"`
	RevenueMonth    string `json:"revenue_month"`
	OutstandingDebt string `json:"outstanding_debt"`
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondError(w, h.logger, shared.ErrInvalidCredentials)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.GetSummary(ctx, userID)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, summaryResponse{
		Summary: summary,
		Display: summaryDisplay{
			RevenueToday:    shared.FormatAmount(summary.RevenueToday),
			RevenueWeek:     shared.FormatAmount(summary.RevenueWeek),
			RevenueMonth:    shared.FormatAmount(summary.RevenueMonth),
			OutstandingDebt: shared.FormatAmount(summary.OutstandingDebt),
		},
	})
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondError(w, h.logger, shared.ErrInvalidCredentials)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	series, err := h.service.GetDaily(ctx, userID)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if series == nil {
		series = []reports.DailyPoint{}
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"series": series})
}

func (h *Handler) handleSalesCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, "sales-report.csv", func(ctx context.Context, userID uuid.UUID, buf *bytes.Buffer) error {
		items, err := h.sales.List(ctx, userID)
		if err != nil {
			return err
		}
		return export.WriteSalesCSV(buf, items)
	})
}

func (h *Handler) handleInventoryCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, "inventory-report.csv", func(ctx context.Context, userID uuid.UUID, buf *bytes.Buffer) error {
		items, err := h.products.List(ctx, userID, products.ListFilter{})
		if err != nil {
			return err
		}
		return export.WriteInventoryCSV(buf, items)
	})
}

func (h *Handler) handleDebtsCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, "debts-report.csv", func(ctx context.Context, userID uuid.UUID, buf *bytes.Buffer) error {
		items, err := h.debts.List(ctx, userID)
		if err != nil {
			return err
		}
		return export.WriteDebtsCSV(buf, items)
	})
}

func (h *Handler) serveCSV(w http.ResponseWriter, r *http.Request, filename string, write func(context.Context, uuid.UUID, *bytes.Buffer) error) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondError(w, h.logger, shared.ErrInvalidCredentials)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := write(ctx, userID, buf); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}

type createExportRequest struct {
	Kind string `json:"kind"`
}

func (h *Handler) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondError(w, h.logger, shared.ErrInvalidCredentials)
		return
	}
	if h.exports == nil || h.queue == nil {
		shared.RespondJSON(w, http.StatusServiceUnavailable, shared.ErrorResponse{Error: "exports disabled"})
		return
	}

	var req createExportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorResponse{Error: "invalid request body"})
		return
	}
	kind := reports.ExportKind(req.Kind)
	if !kind.Valid() {
		shared.RespondJSON(w, http.StatusUnprocessableEntity, shared.ErrorResponse{Error: "kind must be one of sales, inventory, debts"})
		return
	}

	record, err := h.exports.Insert(r.Context(), userID, kind)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if _, err := h.queue.EnqueueReportExport(r.Context(), jobs.ReportExportPayload{
		ExportID: record.ID.String(),
		UserID:   userID.String(),
		Kind:     string(kind),
	}); err != nil {
		h.logger.Error("enqueue report export",
			slog.String("export_id", record.ID.String()),
			slog.Any("error", err))
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusAccepted, record)
}

func (h *Handler) handleGetExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondError(w, h.logger, shared.ErrInvalidCredentials)
		return
	}
	if h.exports == nil {
		shared.RespondJSON(w, http.StatusServiceUnavailable, shared.ErrorResponse{Error: "exports disabled"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondError(w, h.logger, shared.ErrNotFound)
		return
	}
	record, err := h.exports.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondError(w, h.logger, shared.ErrNotFound)
			return
		}
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, record)
}

package debts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// Handler manages debt endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers debt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Post("/{id}/status", h.updateStatus)
}

type createDebtRequest struct {
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      string          `json:"due_date"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type debtResponse struct {
	ID           uuid.UUID       `json:"id"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      string          `json:"due_date"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toDebtResponse(d *Debt) debtResponse {
	return debtResponse{
		ID:           d.ID,
		CustomerName: d.CustomerName,
		Amount:       d.Amount,
		DueDate:      d.DueDate.Format("2006-01-02"),
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "authentication required"})
		return
	}

	items, err := h.service.List(r.Context(), userID)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}

	out := make([]debtResponse, 0, len(items))
	for i := range items {
		out = append(out, toDebtResponse(&items[i]))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "authentication required"})
		return
	}

	var req createDebtRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorResponse{Error: "malformed request body"})
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		shared.RespondJSON(w, http.StatusUnprocessableEntity, shared.ErrorResponse{Error: "due_date must be YYYY-MM-DD"})
		return
	}

	debt, err := h.service.Create(r.Context(), userID, CreateDebtInput{
		CustomerName: req.CustomerName,
		Amount:       req.Amount,
		DueDate:      dueDate,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}

	shared.RespondJSON(w, http.StatusCreated, toDebtResponse(debt))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "authentication required"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondJSON(w, http.StatusNotFound, shared.ErrorResponse{Error: "not found"})
		return
	}

	debt, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}

	shared.RespondJSON(w, http.StatusOK, toDebtResponse(debt))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "authentication required"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondJSON(w, http.StatusNotFound, shared.ErrorResponse{Error: "not found"})
		return
	}

	var req updateStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorResponse{Error: "malformed request body"})
		return
	}

	debt, err := h.service.UpdateStatus(r.Context(), userID, id, Status(req.Status))
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}

	shared.RespondJSON(w, http.StatusOK, toDebtResponse(debt))
}

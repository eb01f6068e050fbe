package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// Handler manages sales endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.record)
}

type recordSaleRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

type saleResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int64           `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toSaleResponse(s *Sale) saleResponse {
	return saleResponse{
		ID:          s.ID,
		ProductID:   s.ProductID,
		Quantity:    s.Quantity,
		TotalAmount: s.TotalAmount,
		CreatedAt:   s.CreatedAt,
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

	out := make([]saleResponse, 0, len(items))
	for i := range items {
		out = append(out, toSaleResponse(&items[i]))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserFromContext(r.Context())
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "authentication required"})
		return
	}

	var req recordSaleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorResponse{Error: "malformed request body"})
		return
	}

	sale, err := h.service.RecordSale(r.Context(), userID, RecordSaleInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		IdempotencyKey: r.Header.Get("X-Idempotency-Key"),
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, shared.ErrIdempotencyConflict) {
			shared.RespondJSON(w, http.StatusConflict, shared.ErrorResponse{Error: err.Error()})
			return
		}
		shared.RespondError(w, h.logger, err)
		return
	}

	shared.RespondJSON(w, http.StatusCreated, toSaleResponse(sale))
}

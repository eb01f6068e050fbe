package reporthttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// MountRoutes registers report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			shared.RespondJSON(w, http.StatusTooManyRequests, shared.ErrorResponse{Error: http.StatusText(http.StatusTooManyRequests)})
		}),
	)

	r.Get("/summary", h.handleSummary)
	r.Get("/daily", h.handleDaily)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/sales.csv", h.handleSalesCSV)
		gr.Get("/inventory.csv", h.handleInventoryCSV)
		gr.Get("/debts.csv", h.handleDebtsCSV)
		gr.Post("/exports", h.handleCreateExport)
	})
	r.Get("/exports/{id}", h.handleGetExport)
}

func rateLimitKey(r *http.Request) (string, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if user := strings.TrimSpace(sess.User()); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

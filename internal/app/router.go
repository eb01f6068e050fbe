package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopdesk-app/shopdesk/internal/auth"
	"github.com/shopdesk-app/shopdesk/internal/debts"
	"github.com/shopdesk-app/shopdesk/internal/observability"
	"github.com/shopdesk-app/shopdesk/internal/products"
	reporthttp "github.com/shopdesk-app/shopdesk/internal/reports/http"
	"github.com/shopdesk-app/shopdesk/internal/sales"
	"github.com/shopdesk-app/shopdesk/internal/shared"
	"github.com/shopdesk-app/shopdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	ProductHandler *products.Handler
	SaleHandler    *sales.Handler
	DebtHandler    *debts.Handler
	ReportHandler  *reporthttp.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Shopdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser(params.Logger))
		r.Route("/products", params.ProductHandler.MountRoutes)
		r.Route("/sales", params.SaleHandler.MountRoutes)
		r.Route("/debts", params.DebtHandler.MountRoutes)
		r.Route("/reports", params.ReportHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

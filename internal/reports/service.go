package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shopdesk-app/shopdesk/internal/debts"
	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/sales"
)

// ProductSource supplies a caller's products for aggregation and export.
type ProductSource interface {
	List(ctx context.Context, userID uuid.UUID, filter products.ListFilter) ([]products.Product, error)
}

// SaleSource supplies a caller's sales newest first.
type SaleSource interface {
	List(ctx context.Context, userID uuid.UUID) ([]sales.Sale, error)
}

// DebtSource supplies a caller's debts.
type DebtSource interface {
	List(ctx context.Context, userID uuid.UUID) ([]debts.Debt, error)
}

// LowStockItem is one product flagged on the summary.
type LowStockItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Stock     int64     `json:"stock"`
}

// Summary carries the headline numbers for a shop.
type Summary struct {
	RevenueToday    decimal.Decimal `json:"revenue_today"`
	RevenueWeek     decimal.Decimal `json:"revenue_week"`
	RevenueMonth    decimal.Decimal `json:"revenue_month"`
	SaleCount       int64           `json:"sale_count"`
	OutstandingDebt decimal.Decimal `json:"outstanding_debt"`
	LowStock        []LowStockItem  `json:"low_stock"`
}

// Service coordinates report aggregation with the cache layer.
type Service struct {
	productSrc  ProductSource
	saleSrc     SaleSource
	debtSrc     DebtSource
	cache       *Cache
	lowStockMin int64
	now         func() time.Time
}

// NewService wires the row sources with a Cache helper. The cache may be nil.
func NewService(productSrc ProductSource, saleSrc SaleSource, debtSrc DebtSource, cache *Cache, lowStockMin int64) *Service {
	if lowStockMin <= 0 {
		lowStockMin = 10
	}
	return &Service{
		productSrc:  productSrc,
		saleSrc:     saleSrc,
		debtSrc:     debtSrc,
		cache:       cache,
		lowStockMin: lowStockMin,
		now:         time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// GetSummary resolves the summary card using cache-aware lookups.
func (s *Service) GetSummary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.buildSummary(ctx, userID)
	}

	key, err := s.cache.BuildKey(ctx, keySummary(userID)...)
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// GetDaily resolves the per-day sales series using cache-aware lookups.
func (s *Service) GetDaily(ctx context.Context, userID uuid.UUID) ([]DailyPoint, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		items, err := s.saleSrc.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		return DailySales(items), nil
	}

	key, err := s.cache.BuildKey(ctx, keyDaily(userID)...)
	if err != nil {
		return nil, err
	}
	var series []DailyPoint
	if err := s.cache.FetchJSON(ctx, key, &series, loader); err != nil {
		return nil, err
	}
	return series, nil
}

func (s *Service) buildSummary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	var (
		saleItems    []sales.Sale
		productItems []products.Product
		debtItems    []debts.Debt
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.saleSrc.List(ctx, userID)
		if err != nil {
			return err
		}
		saleItems = items
		return nil
	})
	g.Go(func() error {
		items, err := s.productSrc.List(ctx, userID, products.ListFilter{})
		if err != nil {
			return err
		}
		productItems = items
		return nil
	})
	g.Go(func() error {
		items, err := s.debtSrc.List(ctx, userID)
		if err != nil {
			return err
		}
		debtItems = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	summary := Summary{
		RevenueToday:    TotalSince(saleItems, startOfDay),
		RevenueWeek:     TotalSince(saleItems, startOfDay.AddDate(0, 0, -6)),
		RevenueMonth:    TotalSince(saleItems, startOfDay.AddDate(0, 0, -29)),
		SaleCount:       int64(len(saleItems)),
		OutstandingDebt: OutstandingDebt(debtItems),
	}
	for _, product := range LowStock(productItems, s.lowStockMin) {
		summary.LowStock = append(summary.LowStock, LowStockItem{
			ProductID: product.ID,
			Name:      product.Name,
			Stock:     product.Stock,
		})
	}
	return summary, nil
}

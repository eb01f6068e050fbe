package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shopdesk-app/shopdesk/internal/debts"
	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/sales"
)

type mockSources struct {
	products     []products.Product
	sales        []sales.Sale
	debts        []debts.Debt
	productCalls int
	saleCalls    int
	debtCalls    int
}

func (m *mockSources) List(ctx context.Context, userID uuid.UUID) ([]sales.Sale, error) {
	m.saleCalls++
	return m.sales, nil
}

type mockProductSource struct{ m *mockSources }

func (s mockProductSource) List(ctx context.Context, userID uuid.UUID, filter products.ListFilter) ([]products.Product, error) {
	s.m.productCalls++
	return s.m.products, nil
}

type mockDebtSource struct{ m *mockSources }

func (s mockDebtSource) List(ctx context.Context, userID uuid.UUID) ([]debts.Debt, error) {
	s.m.debtCalls++
	return s.m.debts, nil
}

func newTestService(t *testing.T, src *mockSources) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	svc := NewService(mockProductSource{src}, src, mockDebtSource{src}, cache, 10)
	return svc, cache
}

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	now, err := time.Parse(time.RFC3339, "2026-08-30T15:00:00Z")
	require.NoError(t, err)
	return now
}

func TestGetSummaryAggregatesAndCaches(t *testing.T) {
	now := fixedNow(t)
	src := &mockSources{
		products: []products.Product{
			{ID: uuid.New(), Name: "Kopi", Stock: 3},
			{ID: uuid.New(), Name: "Teh", Stock: 25},
		},
		sales: []sales.Sale{
			{TotalAmount: decimal.RequireFromString("150.00"), CreatedAt: now.Add(-2 * time.Hour)},
			{TotalAmount: decimal.RequireFromString("80.00"), CreatedAt: now.AddDate(0, 0, -3)},
			{TotalAmount: decimal.RequireFromString("999.00"), CreatedAt: now.AddDate(0, 0, -45)},
		},
		debts: []debts.Debt{
			{Amount: decimal.NewFromInt(500), Status: debts.StatusPending},
			{Amount: decimal.NewFromInt(100), Status: debts.StatusPaid},
		},
	}
	svc, _ := newTestService(t, src)
	svc.WithNow(func() time.Time { return now })
	userID := uuid.New()

	summary, err := svc.GetSummary(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, summary.RevenueToday.Equal(decimal.RequireFromString("150.00")), "today %s", summary.RevenueToday)
	require.True(t, summary.RevenueWeek.Equal(decimal.RequireFromString("230.00")), "week %s", summary.RevenueWeek)
	require.True(t, summary.RevenueMonth.Equal(decimal.RequireFromString("230.00")), "month %s", summary.RevenueMonth)
	require.Equal(t, int64(3), summary.SaleCount)
	require.True(t, summary.OutstandingDebt.Equal(decimal.NewFromInt(500)))
	require.Len(t, summary.LowStock, 1)
	require.Equal(t, "Kopi", summary.LowStock[0].Name)

	// Second call is served from the cache.
	_, err = svc.GetSummary(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, src.saleCalls)
	require.Equal(t, 1, src.productCalls)
	require.Equal(t, 1, src.debtCalls)
}

func TestGetSummaryBumpInvalidates(t *testing.T) {
	src := &mockSources{}
	svc, cache := newTestService(t, src)
	userID := uuid.New()

	_, err := svc.GetSummary(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, src.saleCalls)

	require.NoError(t, cache.Bump(context.Background()))

	_, err = svc.GetSummary(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 2, src.saleCalls)
}

func TestGetDailyUsesCache(t *testing.T) {
	now := fixedNow(t)
	src := &mockSources{
		sales: []sales.Sale{
			{TotalAmount: decimal.NewFromInt(10), CreatedAt: now},
			{TotalAmount: decimal.NewFromInt(20), CreatedAt: now.AddDate(0, 0, -1)},
		},
	}
	svc, _ := newTestService(t, src)
	userID := uuid.New()

	series, err := svc.GetDaily(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.Equal(t, "2026-08-29", series[0].Day)

	_, err = svc.GetDaily(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, src.saleCalls)
}

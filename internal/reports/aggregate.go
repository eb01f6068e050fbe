package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopdesk-app/shopdesk/internal/debts"
	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/sales"
)

// DailyPoint is one calendar day of sales volume.
type DailyPoint struct {
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// TotalSince sums sale totals recorded at or after the given instant.
func TotalSince(items []sales.Sale, from time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range items {
		if sale.CreatedAt.Before(from) {
			continue
		}
		total = total.Add(sale.TotalAmount)
	}
	return total
}

// LowStock returns the products whose stock sits below the threshold.
// The input slice is never mutated.
func LowStock(items []products.Product, threshold int64) []products.Product {
	var out []products.Product
	for _, product := range items {
		if product.Stock < threshold {
			out = append(out, product)
		}
	}
	return out
}

// OutstandingDebt sums the amounts of debts still marked pending. Overdue
// and paid entries are excluded; overdue is an explicit reminder state, not
// an open balance bucket.
func OutstandingDebt(items []debts.Debt) decimal.Decimal {
	total := decimal.Zero
	for _, debt := range items {
		if debt.Status != debts.StatusPending {
			continue
		}
		total = total.Add(debt.Amount)
	}
	return total
}

// DailySales buckets sales per calendar day (UTC) and returns the series in
// ascending day order regardless of input ordering.
func DailySales(items []sales.Sale) []DailyPoint {
	buckets := make(map[string]*DailyPoint)
	for _, sale := range items {
		day := sale.CreatedAt.UTC().Format("2006-01-02")
		point, ok := buckets[day]
		if !ok {
			point = &DailyPoint{Day: day, Total: decimal.Zero}
			buckets[day] = point
		}
		point.Total = point.Total.Add(sale.TotalAmount)
		point.Count++
	}

	out := make([]DailyPoint, 0, len(buckets))
	for _, point := range buckets {
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

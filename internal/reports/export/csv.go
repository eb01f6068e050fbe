package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopdesk-app/shopdesk/internal/debts"
	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/sales"
)

// WriteSalesCSV serialises recorded sales, newest ordering preserved.
func WriteSalesCSV(w io.Writer, items []sales.Sale) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Sale ID", "Product ID", "Quantity", "Total", "Recorded At"}); err != nil {
		return err
	}
	for _, sale := range items {
		if err := writer.Write([]string{
			sale.ID.String(),
			sale.ProductID.String(),
			strconv.FormatInt(sale.Quantity, 10),
			sale.TotalAmount.StringFixed(2),
			sale.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteInventoryCSV emits the product catalogue with current stock levels.
func WriteInventoryCSV(w io.Writer, items []products.Product) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Product ID", "Name", "Price", "Stock"}); err != nil {
		return err
	}
	for _, product := range items {
		if err := writer.Write([]string{
			product.ID.String(),
			product.Name,
			product.Price.StringFixed(2),
			strconv.FormatInt(product.Stock, 10),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDebtsCSV prints the debt ledger to CSV.
func WriteDebtsCSV(w io.Writer, items []debts.Debt) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Debt ID", "Customer", "Amount", "Due Date", "Status"}); err != nil {
		return err
	}
	for _, debt := range items {
		if err := writer.Write([]string{
			debt.ID.String(),
			debt.CustomerName,
			debt.Amount.StringFixed(2),
			debt.DueDate.Format("2006-01-02"),
			string(debt.Status),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

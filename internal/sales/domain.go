package sales

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale records a completed point-of-sale transaction. TotalAmount captures
// price × quantity at the time of sale and is never recomputed afterwards.
type Sale struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ProductID   uuid.UUID
	Quantity    int64
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// RecordSaleInput describes a requested sale. IdempotencyKey is optional;
// when set, retried submissions with the same key are rejected instead of
// recording the sale twice.
type RecordSaleInput struct {
	ProductID      uuid.UUID
	Quantity       int64
	IdempotencyKey string
}

// ErrInsufficientStock is returned when the requested quantity exceeds the
// product's available stock.
var ErrInsufficientStock = errors.New("sales: insufficient stock")

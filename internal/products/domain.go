package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable inventory item owned by a single user.
type Product struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Price     decimal.Decimal
	Stock     int64
	CreatedAt time.Time
}

// CreateProductInput describes a request to add a product.
type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock int64
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search string
}

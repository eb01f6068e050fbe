package debts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates the debt states. Transitions are free-form: any state may
// move to any other, and "overdue" is set explicitly rather than derived from
// the due date.
type Status string

const (
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
	StatusPaid    Status = "paid"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOverdue, StatusPaid:
		return true
	}
	return false
}

// Debt tracks an amount a customer owes the shop owner.
type Debt struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CustomerName string
	Amount       decimal.Decimal
	DueDate      time.Time
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateDebtInput describes a new debt record.
type CreateDebtInput struct {
	CustomerName string
	Amount       decimal.Decimal
	DueDate      time.Time
}

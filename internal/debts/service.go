package debts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateDebtInput) (*Debt, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Debt, error)
	List(ctx context.Context, userID uuid.UUID) ([]Debt, error)
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, status Status) (*Debt, error)
}

// Service coordinates debt operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new debt for userID.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateDebtInput) (*Debt, error) {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	if input.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", shared.ErrValidation)
	}
	if input.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", shared.ErrValidation)
	}
	if input.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", shared.ErrValidation)
	}
	return s.repo.Create(ctx, userID, input)
}

// Get fetches a debt owned by userID.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Debt, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns the caller's debts.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Debt, error) {
	return s.repo.List(ctx, userID)
}

// UpdateStatus moves a debt to the target status. All transitions are
// allowed, including setting the current status again.
func (s *Service) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status Status) (*Debt, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
	}
	return s.repo.UpdateStatus(ctx, userID, id, status)
}

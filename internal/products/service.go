package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*Product, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Product, error)
	List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Product, error)
}

// Service coordinates product operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new product for userID.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: product name is required", shared.ErrValidation)
	}
	if input.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}
	if input.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", shared.ErrValidation)
	}
	return s.repo.Create(ctx, userID, input)
}

// Get fetches a product owned by userID.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Product, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns the caller's products.
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Product, error) {
	return s.repo.List(ctx, userID, filter)
}

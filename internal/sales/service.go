package sales

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, userID uuid.UUID) ([]Sale, error)
}

// CacheInvalidator is notified after a sale commits so cached report views
// are rebuilt on next read.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// MetricsPort counts completed sales.
type MetricsPort interface {
	SaleRecorded()
}

// IdempotencyPort guards against duplicate submissions of the same sale.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates the sale transaction workflow.
type Service struct {
	repo    RepositoryPort
	cache   CacheInvalidator
	metrics MetricsPort
	idem    IdempotencyPort
	logger  *slog.Logger
}

// NewService builds a Service. Cache, metrics and idem may be nil.
func NewService(repo RepositoryPort, cache CacheInvalidator, metrics MetricsPort, idem IdempotencyPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, metrics: metrics, idem: idem, logger: logger}
}

// RecordSale validates the requested quantity against current stock, computes
// the total amount at the product's current price, and persists the sale
// together with the stock decrement in one transaction.
func (s *Service) RecordSale(ctx context.Context, userID uuid.UUID, input RecordSaleInput) (*Sale, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}

	if s.idem != nil && input.IdempotencyKey != "" {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, "sales"); err != nil {
			return nil, err
		}
	}

	sale := &Sale{
		UserID:    userID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, userID, input.ProductID)
		if err != nil {
			return err
		}
		if product.Stock < input.Quantity {
			return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, input.Quantity, product.Stock)
		}

		sale.TotalAmount = product.Price.Mul(decimal.NewFromInt(input.Quantity))

		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}

		affected, err := tx.DecrementStock(ctx, userID, input.ProductID, input.Quantity)
		if err != nil {
			return err
		}
		// The row lock makes this unreachable in practice, but the guard
		// keeps stock non-negative even if the locking strategy changes.
		if affected == 0 {
			return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, input.Quantity, product.Stock)
		}
		return nil
	})
	if err != nil {
		if s.idem != nil && input.IdempotencyKey != "" {
			if delErr := s.idem.Delete(ctx, input.IdempotencyKey); delErr != nil && s.logger != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
			s.logger.Warn("bump report cache", slog.Any("error", err))
		}
	}
	if s.metrics != nil {
		s.metrics.SaleRecorded()
	}
	return sale, nil
}

// List returns the caller's sales.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Sale, error) {
	return s.repo.List(ctx, userID)
}

package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for sales.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a sale transaction.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, userID, productID uuid.UUID) (*products.Product, error)
	InsertSale(ctx context.Context, sale *Sale) error
	DecrementStock(ctx context.Context, userID, productID uuid.UUID, quantity int64) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a database transaction. The sale insert
// and the stock decrement commit or roll back together.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// List returns the caller's sales, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]Sale, error) {
	const query = `
		SELECT id, user_id, product_id, quantity, total_amount, created_at
		FROM sales
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.UserID, &sale.ProductID, &sale.Quantity, &sale.TotalAmount, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

// GetProductForUpdate loads the product row with a row lock so the stock
// check and decrement observe a stable value.
func (r *txRepo) GetProductForUpdate(ctx context.Context, userID, productID uuid.UUID) (*products.Product, error) {
	const query = `
		SELECT id, user_id, name, price, stock, created_at
		FROM products
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`

	var product products.Product
	err := r.tx.QueryRow(ctx, query, productID, userID).
		Scan(&product.ID, &product.UserID, &product.Name, &product.Price, &product.Stock, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return &product, nil
}

func (r *txRepo) InsertSale(ctx context.Context, sale *Sale) error {
	const query = `
		INSERT INTO sales (user_id, product_id, quantity, total_amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`

	err := r.tx.QueryRow(ctx, query, sale.UserID, sale.ProductID, sale.Quantity, sale.TotalAmount).
		Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// DecrementStock applies the stock change conditionally: the row is only
// touched when enough stock remains, and the affected-row count tells the
// caller whether the guard held.
func (r *txRepo) DecrementStock(ctx context.Context, userID, productID uuid.UUID, quantity int64) (int64, error) {
	const query = `
		UPDATE products
		SET stock = stock - $1
		WHERE id = $2 AND user_id = $3 AND stock >= $1`

	tag, err := r.tx.Exec(ctx, query, quantity, productID, userID)
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}
	return tag.RowsAffected(), nil
}

package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for products.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a product owned by userID.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*Product, error) {
	const query = `
		INSERT INTO products (user_id, name, price, stock, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`

	product := Product{
		UserID: userID,
		Name:   input.Name,
		Price:  input.Price,
		Stock:  input.Stock,
	}
	err := r.pool.QueryRow(ctx, query, userID, input.Name, input.Price, input.Stock).
		Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return &product, nil
}

// Get fetches a single product owned by userID.
func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*Product, error) {
	const query = `
		SELECT id, user_id, name, price, stock, created_at
		FROM products
		WHERE id = $1 AND user_id = $2`

	var product Product
	err := r.pool.QueryRow(ctx, query, id, userID).
		Scan(&product.ID, &product.UserID, &product.Name, &product.Price, &product.Stock, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}

// List returns all products owned by userID, optionally filtered by a
// case-insensitive name search, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Product, error) {
	query := `
		SELECT id, user_id, name, price, stock, created_at
		FROM products
		WHERE user_id = $1`
	args := []any{userID}
	if filter.Search != "" {
		query += ` AND name ILIKE '%' || $2 || '%'`
		args = append(args, filter.Search)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.UserID, &product.Name, &product.Price, &product.Stock, &product.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, product)
	}
	return out, rows.Err()
}

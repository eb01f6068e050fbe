package debts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for debts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a debt owned by userID with status pending.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, input CreateDebtInput) (*Debt, error) {
	const query = `
		INSERT INTO debts (user_id, customer_name, amount, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW(), NOW())
		RETURNING id, created_at, updated_at`

	debt := Debt{
		UserID:       userID,
		CustomerName: input.CustomerName,
		Amount:       input.Amount,
		DueDate:      input.DueDate,
		Status:       StatusPending,
	}
	err := r.pool.QueryRow(ctx, query, userID, input.CustomerName, input.Amount, input.DueDate).
		Scan(&debt.ID, &debt.CreatedAt, &debt.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert debt: %w", err)
	}
	return &debt, nil
}

// Get fetches a single debt owned by userID.
func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*Debt, error) {
	const query = `
		SELECT id, user_id, customer_name, amount, due_date, status, created_at, updated_at
		FROM debts
		WHERE id = $1 AND user_id = $2`

	return r.scanDebt(r.pool.QueryRow(ctx, query, id, userID))
}

// List returns all debts owned by userID, soonest due first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]Debt, error) {
	const query = `
		SELECT id, user_id, customer_name, amount, due_date, status, created_at, updated_at
		FROM debts
		WHERE user_id = $1
		ORDER BY due_date ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []Debt
	for rows.Next() {
		var debt Debt
		if err := rows.Scan(&debt.ID, &debt.UserID, &debt.CustomerName, &debt.Amount, &debt.DueDate, &debt.Status, &debt.CreatedAt, &debt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, debt)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status of a debt owned by userID and returns the
// updated record.
func (r *Repository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status Status) (*Debt, error) {
	const query = `
		UPDATE debts
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, customer_name, amount, due_date, status, created_at, updated_at`

	return r.scanDebt(r.pool.QueryRow(ctx, query, status, id, userID))
}

func (r *Repository) scanDebt(row pgx.Row) (*Debt, error) {
	var debt Debt
	err := row.Scan(&debt.ID, &debt.UserID, &debt.CustomerName, &debt.Amount, &debt.DueDate, &debt.Status, &debt.CreatedAt, &debt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("get debt: %w", err)
	}
	return &debt, nil
}

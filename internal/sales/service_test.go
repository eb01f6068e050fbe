package sales

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shopdesk-app/shopdesk/internal/products"
	"github.com/shopdesk-app/shopdesk/internal/shared"
)

// memorySaleRepo mimics the transactional repository: mutations made inside
// WithTx are discarded when the callback returns an error.
type memorySaleRepo struct {
	products map[uuid.UUID]*products.Product
	sales    []Sale
}

func newMemorySaleRepo() *memorySaleRepo {
	return &memorySaleRepo{products: make(map[uuid.UUID]*products.Product)}
}

func (r *memorySaleRepo) addProduct(userID uuid.UUID, price string, stock int64) uuid.UUID {
	product := &products.Product{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "item",
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
	}
	r.products[product.ID] = product
	return product.ID
}

func (r *memorySaleRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshotProducts := make(map[uuid.UUID]products.Product, len(r.products))
	for id, p := range r.products {
		snapshotProducts[id] = *p
	}
	snapshotSales := make([]Sale, len(r.sales))
	copy(snapshotSales, r.sales)

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		for id := range r.products {
			p := snapshotProducts[id]
			r.products[id] = &p
		}
		r.sales = snapshotSales
		return err
	}
	return nil
}

func (r *memorySaleRepo) List(ctx context.Context, userID uuid.UUID) ([]Sale, error) {
	var out []Sale
	for _, s := range r.sales {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memoryTx struct {
	repo *memorySaleRepo
	// forceZeroAffected simulates a concurrent writer exhausting the stock
	// between the read and the conditional update.
	forceZeroAffected bool
}

func (t *memoryTx) GetProductForUpdate(ctx context.Context, userID, productID uuid.UUID) (*products.Product, error) {
	product, ok := t.repo.products[productID]
	if !ok || product.UserID != userID {
		return nil, shared.ErrNotFound
	}
	copied := *product
	return &copied, nil
}

func (t *memoryTx) InsertSale(ctx context.Context, sale *Sale) error {
	sale.ID = uuid.New()
	t.repo.sales = append(t.repo.sales, *sale)
	return nil
}

func (t *memoryTx) DecrementStock(ctx context.Context, userID, productID uuid.UUID, quantity int64) (int64, error) {
	if t.forceZeroAffected {
		return 0, nil
	}
	product, ok := t.repo.products[productID]
	if !ok || product.UserID != userID || product.Stock < quantity {
		return 0, nil
	}
	product.Stock -= quantity
	return 1, nil
}

type countingInvalidator struct {
	bumps int
}

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func TestRecordSaleDecrementsStockAndComputesTotal(t *testing.T) {
	repo := newMemorySaleRepo()
	userID := uuid.New()
	productID := repo.addProduct(userID, "500.00", 10)

	cache := &countingInvalidator{}
	service := NewService(repo, cache, nil, nil, nil)

	sale, err := service.RecordSale(context.Background(), userID, RecordSaleInput{ProductID: productID, Quantity: 3})
	require.NoError(t, err)
	require.True(t, sale.TotalAmount.Equal(decimal.RequireFromString("1500.00")),
		"total = %s", sale.TotalAmount)
	require.EqualValues(t, 7, repo.products[productID].Stock)
	require.Equal(t, 1, cache.bumps)

	listed, err := service.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, sale.ID, listed[0].ID)
}

func TestRecordSaleInsufficientStockLeavesStateUntouched(t *testing.T) {
	repo := newMemorySaleRepo()
	userID := uuid.New()
	productID := repo.addProduct(userID, "100.00", 2)

	service := NewService(repo, nil, nil, nil, nil)

	_, err := service.RecordSale(context.Background(), userID, RecordSaleInput{ProductID: productID, Quantity: 5})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.EqualValues(t, 2, repo.products[productID].Stock)

	listed, err := service.List(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestRecordSaleRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMemorySaleRepo()
	userID := uuid.New()
	productID := repo.addProduct(userID, "100.00", 2)

	service := NewService(repo, nil, nil, nil, nil)

	for _, qty := range []int64{0, -1} {
		_, err := service.RecordSale(context.Background(), userID, RecordSaleInput{ProductID: productID, Quantity: qty})
		require.ErrorIs(t, err, shared.ErrValidation)
	}
}

func TestRecordSaleUnknownProduct(t *testing.T) {
	repo := newMemorySaleRepo()
	service := NewService(repo, nil, nil, nil, nil)

	_, err := service.RecordSale(context.Background(), uuid.New(), RecordSaleInput{ProductID: uuid.New(), Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordSaleOtherUsersProductIsInvisible(t *testing.T) {
	repo := newMemorySaleRepo()
	owner := uuid.New()
	productID := repo.addProduct(owner, "100.00", 5)

	service := NewService(repo, nil, nil, nil, nil)

	_, err := service.RecordSale(context.Background(), uuid.New(), RecordSaleInput{ProductID: productID, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.EqualValues(t, 5, repo.products[productID].Stock)
}

func TestRecordSaleConditionalDecrementGuardRollsBack(t *testing.T) {
	repo := newMemorySaleRepo()
	userID := uuid.New()
	productID := repo.addProduct(userID, "100.00", 5)

	service := NewService(&zeroAffectedRepo{inner: repo}, nil, nil, nil, nil)

	_, err := service.RecordSale(context.Background(), userID, RecordSaleInput{ProductID: productID, Quantity: 1})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.EqualValues(t, 5, repo.products[productID].Stock)

	listed, err := repo.List(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, listed, "sale must not survive a failed stock decrement")
}

// zeroAffectedRepo wraps the memory repo but forces the conditional update to
// report no affected rows.
type zeroAffectedRepo struct {
	inner *memorySaleRepo
}

func (r *zeroAffectedRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.inner.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		mtx := tx.(*memoryTx)
		mtx.forceZeroAffected = true
		return fn(ctx, mtx)
	})
}

func (r *zeroAffectedRepo) List(ctx context.Context, userID uuid.UUID) ([]Sale, error) {
	return r.inner.List(ctx, userID)
}

// memoryIdempotency mimics the shared store's unique-key semantics.
type memoryIdempotency struct {
	keys map[string]bool
}

func (m *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func TestRecordSaleDuplicateIdempotencyKey(t *testing.T) {
	repo := newMemorySaleRepo()
	userID := uuid.New()
	productID := repo.addProduct(userID, "100.00", 10)

	service := NewService(repo, nil, nil, &memoryIdempotency{}, nil)

	input := RecordSaleInput{ProductID: productID, Quantity: 1, IdempotencyKey: "pos-42"}
	_, err := service.RecordSale(context.Background(), userID, input)
	require.NoError(t, err)

	_, err = service.RecordSale(context.Background(), userID, input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.EqualValues(t, 9, repo.products[productID].Stock)
}

func TestRecordSaleFailureReleasesIdempotencyKey(t *testing.T) {
	repo := newMemorySaleRepo()
	userID := uuid.New()
	productID := repo.addProduct(userID, "100.00", 1)
	idem := &memoryIdempotency{}

	service := NewService(repo, nil, nil, idem, nil)

	input := RecordSaleInput{ProductID: productID, Quantity: 5, IdempotencyKey: "pos-7"}
	_, err := service.RecordSale(context.Background(), userID, input)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The key is released, so a corrected retry may reuse it.
	input.Quantity = 1
	_, err = service.RecordSale(context.Background(), userID, input)
	require.NoError(t, err)
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeonghakHeo/Proshop-again/internal/model"
)

// insertTestOrder persists an order with one line item and returns it.
func insertTestOrder(t *testing.T, repo OrderRepository) *model.Order {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	order := &model.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		ShippingAddress: model.ShippingAddress{
			Address:    "1 Main St",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
		},
		PaymentMethod: "paypal",
		ItemsPrice:    decimal.RequireFromString("110.00"),
		ShippingPrice: decimal.RequireFromString("0.00"),
		TaxPrice:      decimal.RequireFromString("5.50"),
		TotalPrice:    decimal.RequireFromString("115.50"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.OrderItems = []model.OrderItem{
		{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: "P001",
			Name:      "Airpods",
			Image:     "/images/airpods.jpg",
			Price:     decimal.RequireFromString("110.00"),
			Qty:       1,
		},
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderItems(ctx, tx, order.OrderItems))
	require.NoError(t, tx.Commit(ctx))

	return order
}

func newOrderRepo(pool *pgxpool.Pool) OrderRepository {
	return NewOrderRepository(pool, zerolog.Nop())
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupRepoTestDB(t)
	defer cleanup()

	repo := newOrderRepo(pool)
	created := insertTestOrder(t, repo)

	got, err := repo.GetByID(context.Background(), created.ID)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.UserID, got.UserID)
	assert.Equal(t, "paypal", got.PaymentMethod)
	assert.Equal(t, created.ShippingAddress, got.ShippingAddress)
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("115.50")))
	assert.False(t, got.IsPaid)
	assert.Nil(t, got.PaidAt)
	assert.Nil(t, got.PaymentResult)
	assert.Equal(t, model.StatusCreated, got.Status())
	require.Len(t, got.OrderItems, 1)
	assert.Equal(t, "P001", got.OrderItems[0].ProductID)
	assert.True(t, got.OrderItems[0].Price.Equal(decimal.RequireFromString("110.00")))
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupRepoTestDB(t)
	defer cleanup()

	repo := newOrderRepo(pool)

	got, err := repo.GetByID(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_MarkPaid(t *testing.T) {
	pool, cleanup := setupRepoTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := newOrderRepo(pool)
	order := insertTestOrder(t, repo)

	result := &model.PaymentResult{
		ExternalID: "5O190127TN364715T",
		Status:     "COMPLETED",
		UpdateTime: "2024-03-01T10:00:00Z",
		PayerEmail: "buyer@example.com",
	}
	paidAt := time.Now().UTC()

	updated, err := repo.MarkPaid(ctx, order.ID, result, paidAt)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	require.NotNil(t, got.PaidAt)
	require.NotNil(t, got.PaymentResult)
	assert.Equal(t, result.ExternalID, got.PaymentResult.ExternalID)
	assert.Equal(t, model.StatusPaid, got.Status())

	// Second attempt loses the flag guard: no rows updated, paid_at untouched.
	firstPaidAt := *got.PaidAt
	updated, err = repo.MarkPaid(ctx, order.ID, result, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, updated)

	got, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, firstPaidAt, *got.PaidAt)
}

func TestOrderRepository_MarkSent_RequiresPaid(t *testing.T) {
	pool, cleanup := setupRepoTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := newOrderRepo(pool)
	order := insertTestOrder(t, repo)

	// Unpaid order cannot be marked sent.
	updated, err := repo.MarkSent(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, updated)

	result := &model.PaymentResult{ExternalID: "X1", Status: "COMPLETED"}
	updated, err = repo.MarkPaid(ctx, order.ID, result, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, updated)

	updated, err = repo.MarkSent(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSent)
	assert.NotNil(t, got.SentAt)
	assert.Equal(t, model.StatusSent, got.Status())
}

func TestOrderRepository_MarkDelivered_RequiresSent(t *testing.T) {
	pool, cleanup := setupRepoTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := newOrderRepo(pool)
	order := insertTestOrder(t, repo)

	updated, err := repo.MarkDelivered(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, updated)

	result := &model.PaymentResult{ExternalID: "X1", Status: "COMPLETED"}
	_, err = repo.MarkPaid(ctx, order.ID, result, time.Now().UTC())
	require.NoError(t, err)
	_, err = repo.MarkSent(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)

	updated, err = repo.MarkDelivered(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDelivered)
	assert.NotNil(t, got.DeliveredAt)
	assert.Equal(t, model.StatusDelivered, got.Status())
}

func TestOrderRepository_ConcurrentMarkSent_OneWinner(t *testing.T) {
	pool, cleanup := setupRepoTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := newOrderRepo(pool)
	order := insertTestOrder(t, repo)

	result := &model.PaymentResult{ExternalID: "X1", Status: "COMPLETED"}
	_, err := repo.MarkPaid(ctx, order.ID, result, time.Now().UTC())
	require.NoError(t, err)

	const racers = 8
	wins := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		go func() {
			updated, err := repo.MarkSent(ctx, order.ID, time.Now().UTC())
			if err != nil {
				wins <- false
				return
			}
			wins <- updated
		}()
	}

	winners := 0
	for i := 0; i < racers; i++ {
		if <-wins {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSent)
}

func TestOrderRepository_ListByUser(t *testing.T) {
	pool, cleanup := setupRepoTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := newOrderRepo(pool)

	first := insertTestOrder(t, repo)
	second := insertTestOrder(t, repo)

	mine, err := repo.ListByUser(ctx, first.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
	require.Len(t, mine[0].OrderItems, 1)

	all, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := repo.ListByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)

	_ = second
}

func TestOrderRepository_Delete(t *testing.T) {
	pool, cleanup := setupRepoTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := newOrderRepo(pool)
	order := insertTestOrder(t, repo)

	deleted, err := repo.Delete(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again reports nothing removed.
	deleted, err = repo.Delete(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

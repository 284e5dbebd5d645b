package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JeonghakHeo/Proshop-again/internal/model"
)

// ProductRepository defines read access to the catalogue. The order core
// never writes products; it only snapshots them at order creation.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ValidateProductsExist checks if all provided product IDs exist in the database.
	// Returns error if any product ID does not exist.
	ValidateProductsExist(ctx context.Context, ids []string) error
}

// OrderRepository defines the interface for order data access operations.
//
// The three Mark methods are conditional single-statement updates guarded
// on the prior flag state. They return false (and no error) when the guard
// did not match, which covers both an unknown id and a lost race; the
// service re-reads to tell the two apart. This is the compare-and-swap
// that serialises transitions per order.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves all orders belonging to a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// List retrieves all orders with pagination, newest first.
	List(ctx context.Context, limit, offset int) ([]model.Order, error)

	// MarkPaid flips is_paid and records the payment receipt, guarded on
	// is_paid being false.
	MarkPaid(ctx context.Context, id uuid.UUID, result *model.PaymentResult, paidAt time.Time) (bool, error)

	// MarkSent flips is_sent, guarded on is_paid true and is_sent false.
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) (bool, error)

	// MarkDelivered flips is_delivered, guarded on is_sent true and
	// is_delivered false.
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) (bool, error)

	// Delete removes an order and its items. Returns false if no order
	// with the given id existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

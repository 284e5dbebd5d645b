package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/JeonghakHeo/Proshop-again/internal/model"
	"github.com/JeonghakHeo/Proshop-again/internal/payment"
)

// ProductService defines read operations over the catalogue.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}

// OrderService owns the order lifecycle: creation with server-side
// pricing, payment verification and the fulfilment transitions. Every
// transition validates the actor's role and the order's current state
// before committing, and commits atomically per order.
type OrderService interface {
	// CreateOrder creates a new order for the actor, snapshotting catalogue
	// prices and computing the authoritative totals server-side.
	CreateOrder(ctx context.Context, actor model.Actor, req *model.OrderRequest) (*model.Order, error)

	// GetOrder retrieves an order. Only the owner or an admin may read it.
	GetOrder(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error)

	// ListMyOrders retrieves the actor's own orders, newest first.
	ListMyOrders(ctx context.Context, actor model.Actor) ([]model.Order, error)

	// ListOrders retrieves all orders. Admin only.
	ListOrders(ctx context.Context, actor model.Actor, limit, offset int) ([]model.Order, error)

	// PayOrder verifies a payment assertion against the order's total and,
	// on success, transitions the order to paid. Any actor may trigger it.
	PayOrder(ctx context.Context, actor model.Actor, id uuid.UUID, assertion payment.Assertion) (*model.Order, error)

	// MarkSent transitions a paid order to sent. Admin only.
	MarkSent(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error)

	// MarkDelivered transitions a sent order to delivered. Admin only.
	MarkDelivered(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error)

	// DeleteOrder removes an order. Admin only.
	DeleteOrder(ctx context.Context, actor model.Actor, id uuid.UUID) error

	// CancelOrder is not supported: no cancellation or refund policy is
	// defined for this store.
	CancelOrder(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

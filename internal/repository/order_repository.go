package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/JeonghakHeo/Proshop-again/internal/model"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `
	id, user_id, payment_method,
	ship_address, ship_city, ship_postal_code, ship_country,
	items_price, shipping_price, tax_price, total_price,
	is_paid, paid_at, is_sent, sent_at, is_delivered, delivered_at,
	pay_external_id, pay_status, pay_update_time, pay_payer_email,
	created_at, updated_at
`

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, payment_method,
			ship_address, ship_city, ship_postal_code, ship_country,
			items_price, shipping_price, tax_price, total_price,
			is_paid, is_sent, is_delivered,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.PaymentMethod,
		order.ShippingAddress.Address, order.ShippingAddress.City,
		order.ShippingAddress.PostalCode, order.ShippingAddress.Country,
		order.ItemsPrice, order.ShippingPrice, order.TaxPrice, order.TotalPrice,
		order.IsPaid, order.IsSent, order.IsDelivered,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, name, image, price, qty)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Name, item.Image, item.Price, item.Qty)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// scanOrder scans a full order row into a model.Order.
func scanOrder(row pgx.Row, order *model.Order) error {
	var payExternalID, payStatus, payUpdateTime, payPayerEmail *string

	err := row.Scan(
		&order.ID, &order.UserID, &order.PaymentMethod,
		&order.ShippingAddress.Address, &order.ShippingAddress.City,
		&order.ShippingAddress.PostalCode, &order.ShippingAddress.Country,
		&order.ItemsPrice, &order.ShippingPrice, &order.TaxPrice, &order.TotalPrice,
		&order.IsPaid, &order.PaidAt, &order.IsSent, &order.SentAt,
		&order.IsDelivered, &order.DeliveredAt,
		&payExternalID, &payStatus, &payUpdateTime, &payPayerEmail,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if payExternalID != nil {
		order.PaymentResult = &model.PaymentResult{
			ExternalID: *payExternalID,
			Status:     derefString(payStatus),
			UpdateTime: derefString(payUpdateTime),
			PayerEmail: derefString(payPayerEmail),
		}
	}

	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id), &order)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.OrderItems = items

	return &order, nil
}

// getItems retrieves the line items of a single order.
func (r *orderRepository) getItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	itemsQuery := `
		SELECT id, order_id, product_id, name, image, price, qty
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Image, &item.Price, &item.Qty)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// listOrders runs a query returning full order rows and loads the items
// of each order.
func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		if err := scanOrder(rows, &order); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for i := range orders {
		items, err := r.getItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].OrderItems = items
	}

	return orders, nil
}

// ListByUser retrieves all orders belonging to a user, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.listOrders(ctx, query, userID)
}

// List retrieves all orders with pagination, newest first.
func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.listOrders(ctx, query, limit, offset)
}

// MarkPaid flips is_paid and records the payment receipt. The WHERE guard
// makes the read-validate-write atomic: a concurrent payment loses the
// race and sees zero rows affected.
func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, result *model.PaymentResult, paidAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET is_paid = TRUE,
			paid_at = $2,
			pay_external_id = $3,
			pay_status = $4,
			pay_update_time = $5,
			pay_payer_email = $6,
			updated_at = $7
		WHERE id = $1 AND is_paid = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, paidAt,
		result.ExternalID, result.Status, result.UpdateTime, result.PayerEmail, paidAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order paid")
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	updated := tag.RowsAffected() == 1
	r.logger.Debug().
		Str("order_id", id.String()).
		Bool("updated", updated).
		Msg("mark paid attempted")

	return updated, nil
}

// MarkSent flips is_sent, guarded on is_paid true and is_sent false.
func (r *orderRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET is_sent = TRUE, sent_at = $2, updated_at = $2
		WHERE id = $1 AND is_paid = TRUE AND is_sent = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, sentAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order sent")
		return false, fmt.Errorf("failed to mark order sent: %w", err)
	}

	updated := tag.RowsAffected() == 1
	r.logger.Debug().
		Str("order_id", id.String()).
		Bool("updated", updated).
		Msg("mark sent attempted")

	return updated, nil
}

// MarkDelivered flips is_delivered, guarded on is_sent true and
// is_delivered false.
func (r *orderRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET is_delivered = TRUE, delivered_at = $2, updated_at = $2
		WHERE id = $1 AND is_sent = TRUE AND is_delivered = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, deliveredAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order delivered")
		return false, fmt.Errorf("failed to mark order delivered: %w", err)
	}

	updated := tag.RowsAffected() == 1
	r.logger.Debug().
		Str("order_id", id.String()).
		Bool("updated", updated).
		Msg("mark delivered attempted")

	return updated, nil
}

// Delete removes an order and its items. Items go first to satisfy the
// foreign key.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order items")
		return false, fmt.Errorf("failed to delete order items: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return false, fmt.Errorf("failed to delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit order deletion")
		return false, fmt.Errorf("failed to commit order deletion: %w", err)
	}

	deleted := tag.RowsAffected() == 1
	r.logger.Debug().
		Str("order_id", id.String()).
		Bool("deleted", deleted).
		Msg("order deletion attempted")

	return deleted, nil
}

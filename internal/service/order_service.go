package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JeonghakHeo/Proshop-again/internal/model"
	"github.com/JeonghakHeo/Proshop-again/internal/notification"
	"github.com/JeonghakHeo/Proshop-again/internal/payment"
	"github.com/JeonghakHeo/Proshop-again/internal/pricing"
	"github.com/JeonghakHeo/Proshop-again/internal/repository"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	rules       pricing.Rules
	notifier    notification.Sink
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	rules pricing.Rules,
	notifier notification.Sink,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		rules:       rules,
		notifier:    notifier,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder creates a new order for the actor. Line item name, image
// and price are snapshotted from the catalogue; the price breakdown is
// computed server-side. Client-submitted amounts are never read.
func (s *orderService) CreateOrder(ctx context.Context, actor model.Actor, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	// Resolve the catalogue snapshot for every requested product.
	productIDs := make([]string, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}

	if err := s.productRepo.ValidateProductsExist(ctx, productIDs); err != nil {
		s.logger.Warn().
			Int("product_count", len(productIDs)).
			Err(err).
			Msg("product validation failed")
		return nil, err
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to retrieve product details")
		return nil, fmt.Errorf("failed to retrieve product details: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := time.Now()
	orderID := uuid.New()

	orderItems := make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, model.ErrProductNotFound
		}
		orderItems[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Price:     product.Price,
			Qty:       item.Qty,
		}
	}

	breakdown, err := pricing.Compute(orderItems, s.rules)
	if err != nil {
		s.logger.Warn().Err(err).Msg("price computation rejected order")
		return nil, err
	}

	order := &model.Order{
		ID:              orderID,
		UserID:          actor.ID,
		OrderItems:      orderItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      breakdown.ItemsPrice,
		ShippingPrice:   breakdown.ShippingPrice,
		TaxPrice:        breakdown.TaxPrice,
		TotalPrice:      breakdown.TotalPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(orderItems)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", actor.ID.String()).
		Str("total_price", order.TotalPrice.StringFixed(2)).
		Int("item_count", len(orderItems)).
		Msg("order created successfully")

	return order, nil
}

// GetOrder retrieves an order. Only the owner or an admin may read it.
func (s *orderService) GetOrder(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanView(order.UserID) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Msg("actor may not view order")
		return nil, model.ErrUnauthorised
	}

	return order, nil
}

// ListMyOrders retrieves the actor's own orders, newest first.
func (s *orderService) ListMyOrders(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", actor.ID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrders retrieves all orders. Admin only.
func (s *orderService) ListOrders(ctx context.Context, actor model.Actor, limit, offset int) ([]model.Order, error) {
	if !actor.IsAdmin {
		return nil, model.ErrUnauthorised
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list all orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// PayOrder verifies the payment assertion against the order and commits
// the created-to-paid transition. The flag update is a compare-and-swap:
// two racing callbacks cannot both flip is_paid, and a lost race is never
// retried here (retrying a payment silently could double-credit).
func (s *orderService) PayOrder(ctx context.Context, actor model.Actor, id uuid.UUID, assertion payment.Assertion) (*model.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := payment.Verify(order, assertion, s.rules.Currency)
	if err != nil {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("external_id", assertion.ExternalID).
			Err(err).
			Msg("payment verification rejected")
		return nil, err
	}

	paidAt := time.Now()
	updated, err := s.orderRepo.MarkPaid(ctx, id, result, paidAt)
	if err != nil {
		return nil, fmt.Errorf("failed to pay order: %w", err)
	}
	if !updated {
		return nil, s.classifyLostPayRace(ctx, id)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("external_id", result.ExternalID).
		Msg("order paid")

	return s.getOrder(ctx, id)
}

// classifyLostPayRace re-reads the order once to distinguish why the
// conditional update matched nothing.
func (s *orderService) classifyLostPayRace(ctx context.Context, id uuid.UUID) error {
	current, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to re-read order after lost update: %w", err)
	}
	if current == nil {
		return model.ErrOrderNotFound
	}
	if current.IsPaid {
		return model.ErrAlreadyPaid
	}
	return model.ErrConflict
}

// MarkSent commits the paid-to-sent transition. Admin only.
func (s *orderService) MarkSent(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, actor, id, model.StatusPaid, s.orderRepo.MarkSent, "sent")
}

// MarkDelivered commits the sent-to-delivered transition. Admin only.
func (s *orderService) MarkDelivered(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, actor, id, model.StatusSent, s.orderRepo.MarkDelivered, "delivered")
}

// transition runs an admin fulfilment transition: role check, state
// precondition on the current read, then the conditional update. A guard
// miss after the precondition passed means a concurrent writer won.
func (s *orderService) transition(
	ctx context.Context,
	actor model.Actor,
	id uuid.UUID,
	required model.OrderStatus,
	mark func(context.Context, uuid.UUID, time.Time) (bool, error),
	name string,
) (*model.Order, error) {
	if !actor.IsAdmin {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Str("transition", name).
			Msg("non-admin actor attempted fulfilment transition")
		return nil, model.ErrUnauthorised
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status() != required {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("status", string(order.Status())).
			Str("transition", name).
			Msg("transition precondition violated")
		return nil, model.ErrInvalidState
	}

	updated, err := mark(ctx, id, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %s: %w", name, err)
	}
	if !updated {
		// Precondition held on our read, so the guard was lost to a
		// concurrent writer between read and update.
		return nil, model.ErrConflict
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("transition", name).
		Msg("order transition committed")

	return s.getOrder(ctx, id)
}

// DeleteOrder removes an order. Admin only. The notification flag set is
// told so the UI can surface the deletion.
func (s *orderService) DeleteOrder(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.IsAdmin {
		return model.ErrUnauthorised
	}

	deleted, err := s.orderRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if !deleted {
		return model.ErrOrderNotFound
	}

	s.notifier.Publish(notification.EventDeleted)

	s.logger.Info().
		Str("order_id", id.String()).
		Str("actor_id", actor.ID.String()).
		Msg("order deleted")

	return nil
}

// CancelOrder is not supported: the store defines no cancellation or
// refund policy.
func (s *orderService) CancelOrder(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return model.ErrUnsupported
}

// getOrder loads an order or returns ErrOrderNotFound.
func (s *orderService) getOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return fmt.Errorf("order request is nil")
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return fmt.Errorf("item %d: product ID is required", i)
		}

		if item.Qty <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("qty", item.Qty).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	addr := req.ShippingAddress
	if addr.Address == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return fmt.Errorf("shipping address is incomplete: address, city, postal code and country are required")
	}

	if req.PaymentMethod == "" {
		return fmt.Errorf("payment method is required")
	}

	return nil
}

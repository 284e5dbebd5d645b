package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle stage of an order, derived from its
// fulfilment flags. Exactly one status describes an order at any instant.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusPaid      OrderStatus = "PAID"
	StatusSent      OrderStatus = "SENT"
	StatusDelivered OrderStatus = "DELIVERED"
)

// Order represents a checked-out cart: items, price breakdown and
// fulfilment flags. Price fields are always server-derived.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"`

	ItemsPrice    decimal.Decimal `json:"itemsPrice" db:"items_price"`
	ShippingPrice decimal.Decimal `json:"shippingPrice" db:"shipping_price"`
	TaxPrice      decimal.Decimal `json:"taxPrice" db:"tax_price"`
	TotalPrice    decimal.Decimal `json:"totalPrice" db:"total_price"`

	IsPaid      bool       `json:"isPaid" db:"is_paid"`
	PaidAt      *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	IsSent      bool       `json:"isSent" db:"is_sent"`
	SentAt      *time.Time `json:"sentAt,omitempty" db:"sent_at"`
	IsDelivered bool       `json:"isDelivered" db:"is_delivered"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`

	PaymentResult *PaymentResult `json:"paymentResult,omitempty"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Status derives the lifecycle stage from the fulfilment flags. The flags
// are monotonic, so the furthest set flag wins.
func (o *Order) Status() OrderStatus {
	switch {
	case o.IsDelivered:
		return StatusDelivered
	case o.IsSent:
		return StatusSent
	case o.IsPaid:
		return StatusPaid
	default:
		return StatusCreated
	}
}

// OrderItem is a line item snapshot captured at order time. Name, image
// and price are copied from the catalogue and never re-read, so historical
// totals stay stable.
type OrderItem struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Image     string          `json:"image" db:"image"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Qty       int             `json:"qty" db:"qty"`
}

// ShippingAddress is the delivery destination for an order.
type ShippingAddress struct {
	Address    string `json:"address" db:"ship_address"`
	City       string `json:"city" db:"ship_city"`
	PostalCode string `json:"postalCode" db:"ship_postal_code"`
	Country    string `json:"country" db:"ship_country"`
}

// PaymentResult is the opaque receipt recorded on successful payment
// verification, kept for audit and reconciliation.
type PaymentResult struct {
	ExternalID string `json:"externalId" db:"pay_external_id"`
	Status     string `json:"status" db:"pay_status"`
	UpdateTime string `json:"updateTime" db:"pay_update_time"`
	PayerEmail string `json:"payerEmail" db:"pay_payer_email"`
}

// OrderRequest represents the request payload for creating an order.
// Only product references and quantities are taken from the client;
// prices are resolved server-side from the catalogue.
type OrderRequest struct {
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress ShippingAddress    `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JeonghakHeo/Proshop-again/internal/model"
)

// Rules holds the store-wide pricing configuration injected into Compute.
type Rules struct {
	Currency              string          `json:"currency"`
	TaxRate               decimal.Decimal `json:"taxRate"`
	ShippingFee           decimal.Decimal `json:"shippingFee"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
}

// Validate checks the rules for values that would corrupt order totals.
func (r Rules) Validate() error {
	if r.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if r.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate must not be negative")
	}
	if r.ShippingFee.IsNegative() {
		return fmt.Errorf("shipping fee must not be negative")
	}
	if r.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("free shipping threshold must not be negative")
	}
	return nil
}

// Breakdown is the authoritative price breakdown of an order.
type Breakdown struct {
	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// round2 rounds half-up to 2 decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Compute turns an order's line items into the authoritative price
// breakdown. It is pure and deterministic: the single source of truth for
// order pricing, invoked server-side at order creation. Rounding is
// applied once per field, never re-applied after summation.
func Compute(items []model.OrderItem, rules Rules) (Breakdown, error) {
	if len(items) == 0 {
		return Breakdown{}, fmt.Errorf("order must contain at least one item")
	}

	itemsSum := decimal.Zero
	for i, item := range items {
		if !item.Price.IsPositive() {
			return Breakdown{}, fmt.Errorf("item %d: price must be positive", i)
		}
		if item.Qty <= 0 {
			return Breakdown{}, fmt.Errorf("item %d: qty must be positive", i)
		}
		itemsSum = itemsSum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
	}

	itemsPrice := round2(itemsSum)

	shippingPrice := round2(rules.ShippingFee)
	if itemsPrice.GreaterThan(rules.FreeShippingThreshold) {
		shippingPrice = decimal.Zero.Round(2)
	}

	taxPrice := round2(itemsPrice.Mul(rules.TaxRate))

	// Operands are already at 2 decimals, so the sum is exact.
	totalPrice := itemsPrice.Add(shippingPrice).Add(taxPrice)

	return Breakdown{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shippingPrice,
		TaxPrice:      taxPrice,
		TotalPrice:    totalPrice,
	}, nil
}

// Package payment validates externally-asserted payment events against an
// order's authoritative total. The verifier performs no I/O and never
// mutates the order; the service layer persists the receipt it returns.
package payment

import (
	"github.com/shopspring/decimal"

	"github.com/JeonghakHeo/Proshop-again/internal/model"
)

// StatusCompleted is the provider's success sentinel. Any other status is
// rejected.
const StatusCompleted = "COMPLETED"

// Assertion is the payload delivered by the payment provider callback: an
// externally supplied claim that a specific amount was paid. It must never
// be trusted before verification.
type Assertion struct {
	ExternalID string          `json:"externalId"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	PayerEmail string          `json:"payerEmail"`
	UpdateTime string          `json:"updateTime"`
}

// Verify checks a payment assertion against an order. All checks must
// pass; the first failure wins. The amount check normalises both sides to
// 2 decimals and allows zero tolerance: a client could otherwise pay for a
// cheap order with an unrelated transaction's receipt.
func Verify(order *model.Order, assertion Assertion, storeCurrency string) (*model.PaymentResult, error) {
	if order.IsPaid {
		return nil, model.ErrAlreadyPaid
	}

	if assertion.Status != StatusCompleted {
		return nil, model.ErrPaymentNotCompleted
	}

	if !assertion.Amount.Round(2).Equal(order.TotalPrice.Round(2)) {
		return nil, model.ErrAmountMismatch
	}

	if assertion.Currency != storeCurrency {
		return nil, model.ErrCurrencyMismatch
	}

	return &model.PaymentResult{
		ExternalID: assertion.ExternalID,
		Status:     assertion.Status,
		UpdateTime: assertion.UpdateTime,
		PayerEmail: assertion.PayerEmail,
	}, nil
}

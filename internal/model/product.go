package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue product. The catalogue is read-only from
// the order core's point of view; orders snapshot these fields at creation.
type Product struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Image     string          `json:"image" db:"image"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Category  string          `json:"category" db:"category"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

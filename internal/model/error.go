package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeAlreadyPaid         = "ALREADY_PAID"
	ErrCodePaymentNotCompleted = "PAYMENT_NOT_COMPLETED"
	ErrCodeAmountMismatch      = "AMOUNT_MISMATCH"
	ErrCodeCurrencyMismatch    = "CURRENCY_MISMATCH"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeUnsupported         = "UNSUPPORTED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "Actor is not allowed to perform this action")
	ErrInvalidState        = NewDomainError(ErrCodeInvalidState, "Order is not in a state that allows this transition")
	ErrAlreadyPaid         = NewDomainError(ErrCodeAlreadyPaid, "Order has already been paid")
	ErrPaymentNotCompleted = NewDomainError(ErrCodePaymentNotCompleted, "Payment assertion is not in a completed state")
	ErrAmountMismatch      = NewDomainError(ErrCodeAmountMismatch, "Payment amount does not match the order total")
	ErrCurrencyMismatch    = NewDomainError(ErrCodeCurrencyMismatch, "Payment currency does not match the store currency")
	ErrConflict            = NewDomainError(ErrCodeConflict, "Order was modified concurrently; re-read before retrying")
	ErrUnsupported         = NewDomainError(ErrCodeUnsupported, "Operation is not supported")
)

package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeMissingField    = "MISSING_FIELD"
	ErrCodeOrderNotFound   = "ORDER_NOT_FOUND"
	ErrCodeItemNotFound    = "ITEM_NOT_FOUND"
	ErrCodeProductNotFound = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodePaymentFailed   = "PAYMENT_FAILED"
	ErrCodeStaleOrder      = "STALE_ORDER"
	ErrCodeUnknownStatus   = "UNKNOWN_STATUS"
	ErrCodeItemRefunded    = "ITEM_REFUNDED"
	ErrCodeManualRefund    = "MANUAL_RECONCILIATION"
	ErrCodeRefundInFlight  = "REFUND_IN_FLIGHT"

	// Status transitions
	ErrCodeIllegalTransition  = "ILLEGAL_TRANSITION"
	ErrCodeItemsNotReady      = "ITEMS_NOT_READY"
	ErrCodeWrongTrack         = "WRONG_DELIVERY_TRACK"
	ErrCodeNoItemsRemaining   = "NO_ITEMS_REMAINING"
	ErrCodeTransitionRejected = "TRANSITION_REJECTED"

	// Refund validation, in the order they are checked
	ErrCodeFullyRefunded     = "ALREADY_FULLY_REFUNDED"
	ErrCodeNoRefundMode      = "NO_REFUND_MODE"
	ErrCodeEmptySelection    = "EMPTY_REFUND_SELECTION"
	ErrCodeNonPositiveAmount = "NON_POSITIVE_AMOUNT"
	ErrCodeExceedsAvailable  = "EXCEEDS_AVAILABLE_AMOUNT"
	ErrCodeInvalidRefundItem = "INVALID_REFUND_ITEM"
	ErrCodeFeeAlreadyRefund  = "DELIVERY_FEE_ALREADY_REFUNDED"
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

// AsDomainError unwraps err into a *DomainError when it is one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrOrderNotFound   = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrItemNotFound    = NewDomainError(ErrCodeItemNotFound, "Order item not found")
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrItemRefunded    = NewDomainError(ErrCodeItemRefunded, "Refunded items cannot be changed")
	ErrStaleOrder      = NewDomainError(ErrCodeStaleOrder, "Order changed since it was loaded; refresh and try again")
	ErrUnknownStatus   = NewDomainError(ErrCodeUnknownStatus, "Unknown order status")
	ErrRefundInFlight  = NewDomainError(ErrCodeRefundInFlight, "A refund for this order is still being processed")

	ErrIllegalTransition  = NewDomainError(ErrCodeIllegalTransition, "This status change is not allowed")
	ErrItemsNotReady      = NewDomainError(ErrCodeItemsNotReady, "All remaining items must be ready first")
	ErrWrongTrack         = NewDomainError(ErrCodeWrongTrack, "Status does not match the order's delivery method")
	ErrNoItemsRemaining   = NewDomainError(ErrCodeNoItemsRemaining, "Every item on this order has been refunded")
	ErrTransitionRejected = NewDomainError(ErrCodeTransitionRejected, "Order store rejected the status change")

	ErrManualReconciliation = NewDomainError(ErrCodeManualRefund, "Payment on delivery orders must be reconciled manually")
	ErrAlreadyFullyRefunded = NewDomainError(ErrCodeFullyRefunded, "This order has already been fully refunded")
	ErrNoRefundMode         = NewDomainError(ErrCodeNoRefundMode, "Please select a refund option")
	ErrEmptySelection       = NewDomainError(ErrCodeEmptySelection, "Please select at least one item or the delivery fee")
	ErrNonPositiveAmount    = NewDomainError(ErrCodeNonPositiveAmount, "Refund amount must be greater than zero")
	ErrExceedsAvailable     = NewDomainError(ErrCodeExceedsAvailable, "Refund amount exceeds the available amount")
	ErrInvalidRefundItem    = NewDomainError(ErrCodeInvalidRefundItem, "Refund includes an item that is missing or already refunded")
	ErrFeeAlreadyRefunded   = NewDomainError(ErrCodeFeeAlreadyRefund, "The delivery fee has already been refunded")
)

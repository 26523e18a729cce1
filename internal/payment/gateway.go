// Package payment issues refunds against the payment provider that captured an order.
package payment

import (
	"context"
	"errors"

	"orderdesk/internal/money"
)

// ErrRefundFailed is returned when the provider did not issue the refund.
var ErrRefundFailed = errors.New("payment provider refund failed")

// RefundRequest asks the provider to return part of a captured payment.
type RefundRequest struct {
	TransactionID  string
	Amount         money.MinorAmount
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// Receipt is the provider's acknowledgement of a refund.
type Receipt struct {
	ProviderRefundID string
	Status           string
}

// Gateway issues refunds.
type Gateway interface {
	Refund(ctx context.Context, req RefundRequest) (*Receipt, error)
}

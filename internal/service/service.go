package service

import (
	"context"

	"orderdesk/internal/model"
	"orderdesk/internal/refund"

	"github.com/google/uuid"
)

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// OrderService defines the order lifecycle and refund operations. It satisfies
// refund.Loader and refund.Submitter so a refund.Controller can run in-process.
type OrderService interface {
	// GetOrder reads the order snapshot from the store with its discount
	// resolved. It never answers from the cache.
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetOrderView returns the snapshot with its derived amounts, flags and
	// refund options, serving it from the cache when possible.
	GetOrderView(ctx context.Context, id uuid.UUID) (*OrderView, error)

	// RefreshOrderView is GetOrderView read straight from the store.
	RefreshOrderView(ctx context.Context, id uuid.UUID) (*OrderView, error)

	// TransitionStatus moves the order to target after validating the transition.
	TransitionStatus(ctx context.Context, id uuid.UUID, target model.Status, actor *model.Actor) (*OrderView, error)

	// SetItemReady marks a non-refunded item ready or not ready.
	SetItemReady(ctx context.Context, orderID, itemID uuid.UUID, ready bool, actor *model.Actor) (*OrderView, error)

	// Refund records the refund and then issues it with the payment provider.
	Refund(ctx context.Context, req refund.Request) (*refund.Result, error)

	// QuoteRefund prices a selection without changing anything.
	QuoteRefund(ctx context.Context, id uuid.UUID, sel refund.Selection) (*RefundQuote, error)
}

package repository

import (
	"context"

	"orderdesk/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Restock adds the given quantities back to product stock within the provided transaction.
	Restock(ctx context.Context, tx pgx.Tx, quantities map[string]int) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts an order and its items within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order with its items and refunds.
	// Returns nil, nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForUpdate retrieves an order and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateStatus moves the order from expected to target. When requireReady is set
	// the update only applies if every non-refunded item is ready.
	// Returns model.ErrTransitionRejected when the row did not match.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, target model.Status, requireReady bool) error

	// SetItemReady updates the readiness flag of a non-refunded item.
	SetItemReady(ctx context.Context, orderID, itemID uuid.UUID, ready bool) error

	// AppendRefund records a refund, marks its items refunded and updates the
	// order status and delivery fee flag within the provided transaction.
	AppendRefund(ctx context.Context, tx pgx.Tx, refund *model.Refund, status model.Status) error
}

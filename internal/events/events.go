// Package events publishes order domain events after their changes commit.
package events

import (
	"context"

	"orderdesk/internal/model"
	"orderdesk/internal/money"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeStatusChanged        = "order.status.changed"
	TypeItemReadinessChanged = "order.item.readiness.changed"
	TypeRefundExecuted       = "order.refund.executed"
)

// Event is a domain event keyed by its order.
type Event interface {
	EventType() string
	OrderKey() uuid.UUID
}

// Publisher delivers events. Publish failures never undo the committed change.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// StatusChanged is emitted after an order's status changed.
type StatusChanged struct {
	OrderID uuid.UUID    `json:"orderId"`
	From    model.Status `json:"from"`
	To      model.Status `json:"to"`
	Actor   *model.Actor `json:"actor,omitempty"`
}

func (e StatusChanged) EventType() string   { return TypeStatusChanged }
func (e StatusChanged) OrderKey() uuid.UUID { return e.OrderID }

// ItemReadinessChanged is emitted after an item was marked ready or not ready.
type ItemReadinessChanged struct {
	OrderID uuid.UUID    `json:"orderId"`
	ItemID  uuid.UUID    `json:"itemId"`
	Ready   bool         `json:"ready"`
	Actor   *model.Actor `json:"actor,omitempty"`
}

func (e ItemReadinessChanged) EventType() string   { return TypeItemReadinessChanged }
func (e ItemReadinessChanged) OrderKey() uuid.UUID { return e.OrderID }

// RefundExecuted is emitted after a refund was issued and recorded.
type RefundExecuted struct {
	OrderID             uuid.UUID         `json:"orderId"`
	RefundID            string            `json:"refundId"`
	Amount              money.MinorAmount `json:"amount"`
	Currency            string            `json:"currency"`
	ItemIDs             []uuid.UUID       `json:"itemIds"`
	IncludedDeliveryFee bool              `json:"includedDeliveryFee"`
	ReturnedToStock     bool              `json:"returnedToStock"`
	Status              model.Status      `json:"status"`
	Actor               *model.Actor      `json:"actor,omitempty"`
}

func (e RefundExecuted) EventType() string   { return TypeRefundExecuted }
func (e RefundExecuted) OrderKey() uuid.UUID { return e.OrderID }

type noopPublisher struct{}

// NewNoop returns a publisher that drops every event.
func NewNoop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }

package model

import (
	"time"

	"orderdesk/internal/money"

	"github.com/google/uuid"
)

// DeliveryMethod selects the fulfillment track of an order.
type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "pickup"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
)

// Payment method types. Cash and payment-on-delivery have nothing to refund electronically.
const (
	PaymentTypeCard = "card"
	PaymentTypeCash = "cash"
	PaymentTypePOD  = "pod"
)

// PaymentMethod describes how the order was settled.
type PaymentMethod struct {
	Type          string `json:"type"`
	TransactionID string `json:"transactionId,omitempty"`
}

// Order represents a customer order.
type Order struct {
	ID                   uuid.UUID          `json:"id" db:"id"`
	Amount               money.MinorAmount  `json:"amount" db:"amount"`
	DeliveryFee          *money.MajorAmount `json:"deliveryFee,omitempty" db:"delivery_fee"`
	CouponCode           *string            `json:"couponCode,omitempty" db:"coupon_code"`
	Discount             *money.Discount    `json:"discount,omitempty"`
	Currency             string             `json:"currency" db:"currency"`
	Status               Status             `json:"status" db:"status"`
	DeliveryMethod       DeliveryMethod     `json:"deliveryMethod" db:"delivery_method"`
	IsPODOrder           bool               `json:"isPODOrder" db:"is_pod_order"`
	PaymentMethod        PaymentMethod      `json:"paymentMethod"`
	DidRefundDeliveryFee bool               `json:"didRefundDeliveryFee" db:"did_refund_delivery_fee"`
	Items                []OrderItem        `json:"items"`
	Refunds              []Refund           `json:"refunds"`
	CreatedAt            time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time          `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	OrderID    uuid.UUID         `json:"orderId" db:"order_id"`
	ProductID  string            `json:"productId" db:"product_id"`
	Name       string            `json:"name" db:"name"`
	Price      money.MajorAmount `json:"price" db:"price"`
	Quantity   int               `json:"quantity" db:"quantity"`
	IsRefunded bool              `json:"isRefunded" db:"is_refunded"`
	IsReady    bool              `json:"isReady" db:"is_ready"`
}

// Refund is an immutable record of an executed refund.
type Refund struct {
	ID                  string            `json:"id" db:"id"`
	OrderID             uuid.UUID         `json:"orderId" db:"order_id"`
	Amount              money.MinorAmount `json:"amount" db:"amount"`
	ItemIDs             []uuid.UUID       `json:"itemIds" db:"item_ids"`
	IncludedDeliveryFee bool              `json:"includedDeliveryFee" db:"included_delivery_fee"`
	ReturnedToStock     bool              `json:"returnedToStock" db:"returned_to_stock"`
	ActorID             string            `json:"actorId,omitempty" db:"actor_id"`
	ActorEmail          string            `json:"actorEmail,omitempty" db:"actor_email"`
	Date                time.Time         `json:"date" db:"created_at"`
}

// Actor is the signed-in operator performing a mutation.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IsPOD reports whether the order was settled without a capturable electronic payment.
func (o *Order) IsPOD() bool {
	if o.IsPODOrder {
		return true
	}
	return o.PaymentMethod.Type == PaymentTypePOD || o.PaymentMethod.Type == PaymentTypeCash
}

// Item returns the item with the given ID.
func (o *Order) Item(id uuid.UUID) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// Total returns the line total of the item in minor units.
func (i OrderItem) Total() money.MinorAmount {
	return money.ToMinor(i.Price.Times(i.Quantity))
}

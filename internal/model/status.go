package model

import (
	"fmt"
	"strings"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusOpen              Status = "open"
	StatusReadyForDelivery  Status = "ready-for-delivery"
	StatusReadyForPickup    Status = "ready-for-pickup"
	StatusOutForDelivery    Status = "out-for-delivery"
	StatusDelivered         Status = "delivered"
	StatusPickedUp          Status = "picked-up"
	StatusCancelled         Status = "cancelled"
	StatusRefunded          Status = "refunded"
	StatusPartiallyRefunded Status = "partially-refunded"
	StatusRefundPending     Status = "refund-pending"
	StatusRefundProcessing  Status = "refund-processing"
)

// AllStatuses lists every known status.
var AllStatuses = []Status{
	StatusOpen,
	StatusReadyForDelivery,
	StatusReadyForPickup,
	StatusOutForDelivery,
	StatusDelivered,
	StatusPickedUp,
	StatusCancelled,
	StatusRefunded,
	StatusPartiallyRefunded,
	StatusRefundPending,
	StatusRefundProcessing,
}

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range AllStatuses {
		if st == candidate {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) IsOpen() bool { return s == StatusOpen }

// IsReady reports whether the order is waiting for pickup or dispatch.
func (s Status) IsReady() bool {
	return s == StatusReadyForDelivery || s == StatusReadyForPickup
}

func (s Status) IsOutForDelivery() bool { return s == StatusOutForDelivery }
func (s Status) IsDelivered() bool      { return s == StatusDelivered }
func (s Status) IsPickedUp() bool       { return s == StatusPickedUp }
func (s Status) IsCancelled() bool      { return s == StatusCancelled }

// HasTransitioned reports whether the order has left the merchant's premises
// or been handed over.
func (s Status) HasTransitioned() bool {
	return s.IsOutForDelivery() || s.IsDelivered() || s.IsPickedUp()
}

// IsRefundInFlight reports whether a refund is being settled by the payment provider.
func (s Status) IsRefundInFlight() bool {
	return s == StatusRefundPending || s == StatusRefundProcessing
}

// IsTerminal reports whether no further fulfillment transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusPickedUp, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

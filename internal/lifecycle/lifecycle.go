// Package lifecycle governs the fulfillment status of an order.
//
// Orders follow one of two tracks depending on their delivery method:
//
//	pickup:   open -> ready-for-pickup -> picked-up
//	delivery: open -> ready-for-delivery -> out-for-delivery -> delivered
//
// An open order may also be cancelled. The refund statuses are never
// requested directly; they are derived from the refunds recorded on the
// order (see DeriveRefundStatus).
package lifecycle

import (
	"slices"

	"orderdesk/internal/model"
	"orderdesk/internal/reconcile"
)

var transitions = map[model.Status][]model.Status{
	model.StatusOpen:              {model.StatusReadyForPickup, model.StatusReadyForDelivery, model.StatusCancelled},
	model.StatusPartiallyRefunded: {model.StatusReadyForPickup, model.StatusReadyForDelivery},
	model.StatusReadyForPickup:    {model.StatusPickedUp},
	model.StatusReadyForDelivery:  {model.StatusOutForDelivery},
	model.StatusOutForDelivery:    {model.StatusDelivered},
}

// derived statuses can only be set by recording refunds.
var derived = []model.Status{
	model.StatusRefunded,
	model.StatusPartiallyRefunded,
	model.StatusRefundPending,
	model.StatusRefundProcessing,
}

var pickupTrack = []model.Status{model.StatusReadyForPickup, model.StatusPickedUp}

var deliveryTrack = []model.Status{model.StatusReadyForDelivery, model.StatusOutForDelivery, model.StatusDelivered}

// CanTransition reports whether target follows current in the transition table.
func CanTransition(current, target model.Status) bool {
	return slices.Contains(transitions[current], target)
}

// RemainingItems returns the items that have not been refunded, in order.
func RemainingItems(o *model.Order) []model.OrderItem {
	remaining := make([]model.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if !item.IsRefunded {
			remaining = append(remaining, item)
		}
	}
	return remaining
}

// AllRemainingReady reports whether every non-refunded item is ready.
func AllRemainingReady(o *model.Order) bool {
	for _, item := range o.Items {
		if !item.IsRefunded && !item.IsReady {
			return false
		}
	}
	return true
}

// CanPerformInitialTransition reports whether the order may leave its
// pre-fulfillment state: it is still open, or a refund left at least one item.
func CanPerformInitialTransition(o *model.Order) bool {
	return o.Status.IsOpen() || len(RemainingItems(o)) > 0
}

// IsCompleted reports whether the order needs no further action.
func IsCompleted(o *model.Order) bool {
	if o.Status.IsDelivered() || o.Status.IsPickedUp() {
		return true
	}
	total := reconcile.Total(o)
	return total > 0 && reconcile.AmountRefunded(o) == total
}

// Next returns the forward step of the order's track.
func Next(o *model.Order) (model.Status, bool) {
	if o.Status.IsTerminal() {
		return "", false
	}
	switch o.Status {
	case model.StatusOpen, model.StatusPartiallyRefunded:
		if o.DeliveryMethod == model.DeliveryMethodPickup {
			return model.StatusReadyForPickup, true
		}
		return model.StatusReadyForDelivery, true
	case model.StatusReadyForPickup:
		return model.StatusPickedUp, true
	case model.StatusReadyForDelivery:
		return model.StatusOutForDelivery, true
	case model.StatusOutForDelivery:
		return model.StatusDelivered, true
	}
	return "", false
}

// Validate checks whether the order may move to target. It never mutates the order.
func Validate(o *model.Order, target model.Status) error {
	if slices.Contains(derived, target) {
		return model.ErrIllegalTransition
	}
	if o.Status.IsRefundInFlight() {
		return model.ErrRefundInFlight
	}
	if o.Status.IsTerminal() {
		return model.ErrIllegalTransition
	}
	if !CanTransition(o.Status, target) {
		return model.ErrIllegalTransition
	}
	if !onTrack(o.DeliveryMethod, target) {
		return model.ErrWrongTrack
	}
	if target == model.StatusCancelled {
		return nil
	}

	switch o.Status {
	case model.StatusOpen, model.StatusPartiallyRefunded:
		if len(RemainingItems(o)) == 0 {
			return model.ErrNoItemsRemaining
		}
		if !AllRemainingReady(o) {
			return model.ErrItemsNotReady
		}
	case model.StatusReadyForPickup, model.StatusReadyForDelivery:
		if !AllRemainingReady(o) {
			return model.ErrItemsNotReady
		}
	}
	return nil
}

// IsForward reports whether moving from current to target advances fulfillment
// and therefore requires the readiness guard.
func IsForward(current, target model.Status) bool {
	if target == model.StatusCancelled {
		return false
	}
	switch current {
	case model.StatusOpen, model.StatusPartiallyRefunded, model.StatusReadyForPickup, model.StatusReadyForDelivery:
		return true
	}
	return false
}

// DeriveRefundStatus returns the status an order should have after its refunds
// changed. Cancelled orders keep their status.
func DeriveRefundStatus(o *model.Order) model.Status {
	if o.Status.IsCancelled() {
		return o.Status
	}
	if reconcile.IsFullyRefunded(o) {
		return model.StatusRefunded
	}
	if len(o.Refunds) > 0 && (o.Status.IsOpen() || o.Status == model.StatusPartiallyRefunded) {
		return model.StatusPartiallyRefunded
	}
	return o.Status
}

func onTrack(method model.DeliveryMethod, target model.Status) bool {
	switch {
	case slices.Contains(pickupTrack, target):
		return method == model.DeliveryMethodPickup
	case slices.Contains(deliveryTrack, target):
		return method == model.DeliveryMethodDelivery
	}
	return true
}

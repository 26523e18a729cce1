// Package refund computes and sequences refunds against an order snapshot.
//
// Calculate and Validate are pure. The session types in this package model
// the operator workflow that leads to a refund submission.
package refund

import (
	"fmt"
	"strings"

	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/reconcile"

	"github.com/google/uuid"
)

// Mode selects how the refund amount and its item set are computed.
type Mode string

const (
	ModeNone        Mode = ""
	ModeEntireOrder Mode = "entire-order"
	ModePartial     Mode = "partial"
	ModeRemaining   Mode = "remaining"
)

// ParseMode parses a refund mode name. The empty string is ModeNone.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNone, ModeEntireOrder, ModePartial, ModeRemaining:
		return m, nil
	default:
		return "", fmt.Errorf("unknown refund mode %q", s)
	}
}

// Selection is the operator's refund choice.
type Selection struct {
	Mode               Mode        `json:"mode"`
	ItemIDs            []uuid.UUID `json:"itemIds,omitempty"`
	IncludeDeliveryFee bool        `json:"includeDeliveryFee"`
}

func (s Selection) selected(id uuid.UUID) bool {
	for _, candidate := range s.ItemIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// Calculate returns the refund amount for the selection in minor units.
func Calculate(o *model.Order, sel Selection) money.MinorAmount {
	switch sel.Mode {
	case ModeEntireOrder, ModeRemaining:
		return reconcile.NetAmount(o)
	case ModePartial:
		var amount money.MinorAmount
		for _, item := range o.Items {
			if item.IsRefunded || !sel.selected(item.ID) {
				continue
			}
			amount += item.Total()
		}
		if sel.IncludeDeliveryFee && !o.DidRefundDeliveryFee {
			amount += reconcile.DeliveryFee(o)
		}
		// Selections may be ahead of the stored refunds.
		return money.Min(amount, reconcile.NetAmount(o))
	default:
		return 0
	}
}

// AvailableItems returns the items that can still be selected for a refund.
func AvailableItems(o *model.Order) []model.OrderItem {
	available := make([]model.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if !item.IsRefunded {
			available = append(available, item)
		}
	}
	return available
}

// CanReturnToStock reports whether the return-to-stock option applies.
func CanReturnToStock(o *model.Order, mode Mode) bool {
	return mode != ModeNone && len(o.Items) > 0 && len(AvailableItems(o)) > 0
}

// SubmissionItemIDs returns the item ids sent with the refund: every available
// item for whole-order modes, exactly the selection for partial refunds.
func SubmissionItemIDs(o *model.Order, sel Selection) []uuid.UUID {
	if sel.Mode == ModePartial {
		ids := make([]uuid.UUID, len(sel.ItemIDs))
		copy(ids, sel.ItemIDs)
		return ids
	}
	available := AvailableItems(o)
	ids := make([]uuid.UUID, len(available))
	for i, item := range available {
		ids[i] = item.ID
	}
	return ids
}

// IncludesDeliveryFee reports whether the submitted refund covers the
// delivery fee. Whole-order modes always include an unrefunded fee.
func IncludesDeliveryFee(o *model.Order, sel Selection) bool {
	if o.DeliveryFee == nil || o.DidRefundDeliveryFee {
		return false
	}
	switch sel.Mode {
	case ModeEntireOrder, ModeRemaining:
		return true
	case ModePartial:
		return sel.IncludeDeliveryFee
	}
	return false
}

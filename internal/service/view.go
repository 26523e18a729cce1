package service

import (
	"orderdesk/internal/lifecycle"
	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/reconcile"
	"orderdesk/internal/refund"

	"github.com/google/uuid"
)

// OrderView is an order snapshot together with everything derived from it.
type OrderView struct {
	Order   *model.Order      `json:"order"`
	Summary reconcile.Summary `json:"summary"`
	Flags   lifecycle.Flags   `json:"flags"`
	Refund  refund.Options    `json:"refund"`
}

// NewOrderView derives the view of an order.
func NewOrderView(o *model.Order) *OrderView {
	return &OrderView{
		Order:   o,
		Summary: reconcile.Summarize(o),
		Flags:   lifecycle.Describe(o),
		Refund:  refund.OptionsFor(o),
	}
}

// RefundQuote is the priced result of a refund selection.
type RefundQuote struct {
	Amount             money.MinorAmount `json:"amount"`
	Formatted          string            `json:"formatted"`
	ItemIDs            []uuid.UUID       `json:"itemIds"`
	IncludeDeliveryFee bool              `json:"includeDeliveryFee"`
	CanReturnToStock   bool              `json:"canReturnToStock"`
	Valid              bool              `json:"valid"`
	Code               string            `json:"code,omitempty"`
	Reason             string            `json:"reason,omitempty"`
}

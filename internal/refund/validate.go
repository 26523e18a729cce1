package refund

import (
	"errors"

	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/reconcile"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Validate checks the selection against the order, stopping at the first
// failure. It runs before any mutating call.
func Validate(o *model.Order, sel Selection) error {
	net := reconcile.NetAmount(o)
	if net <= 0 {
		return model.ErrAlreadyFullyRefunded
	}
	if sel.Mode == ModeNone {
		return model.ErrNoRefundMode
	}
	if sel.Mode == ModePartial && len(sel.ItemIDs) == 0 && !sel.IncludeDeliveryFee {
		return model.ErrEmptySelection
	}
	amount := Calculate(o, sel)
	if amount <= 0 {
		return model.ErrNonPositiveAmount
	}
	if amount > net {
		return model.ErrExceedsAvailable
	}
	return nil
}

// ValidateRequest re-checks a submitted refund against the latest order state.
// The order store runs it under the order's row lock, so its verdict is final.
func ValidateRequest(o *model.Order, req Request) error {
	net := reconcile.NetAmount(o)
	if net <= 0 {
		return model.ErrAlreadyFullyRefunded
	}
	if req.Amount <= 0 {
		return model.ErrNonPositiveAmount
	}
	seen := make(map[uuid.UUID]struct{}, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		item, ok := o.Item(id)
		if !ok || item.IsRefunded {
			return model.ErrInvalidRefundItem
		}
		if _, dup := seen[id]; dup {
			return model.ErrInvalidRefundItem
		}
		seen[id] = struct{}{}
	}
	if req.IncludeDeliveryFee && (o.DeliveryFee == nil || o.DidRefundDeliveryFee) {
		return model.ErrFeeAlreadyRefunded
	}
	if req.Amount > net {
		return model.ErrExceedsAvailable
	}
	return nil
}

// LogExceeded logs err at error level when it reports a refund above the
// order's net amount. Calculate never produces one, so seeing it means the
// snapshot and the stored refunds disagree. Other errors are ignored.
func LogExceeded(logger zerolog.Logger, err error, o *model.Order, amount money.MinorAmount) {
	if !errors.Is(err, model.ErrExceedsAvailable) {
		return
	}
	logger.Error().
		Err(err).
		Str("order_id", o.ID.String()).
		Int64("amount", int64(amount)).
		Int64("net_amount", int64(reconcile.NetAmount(o))).
		Msg("refund exceeds the order's net amount")
}

// Options describes the refund controls an operator may use on an order.
type Options struct {
	Modes                []Mode            `json:"modes"`
	ManualReconciliation bool              `json:"manualReconciliation"`
	AvailableItems       []model.OrderItem `json:"availableItems"`
	CanRefundFee         bool              `json:"canRefundDeliveryFee"`
}

// OptionsFor returns the refund controls for the order. Payment-on-delivery
// orders get none: the only action is a manual reconciliation notice.
func OptionsFor(o *model.Order) Options {
	if o.IsPOD() {
		return Options{Modes: []Mode{}, ManualReconciliation: true, AvailableItems: []model.OrderItem{}}
	}
	if reconcile.IsFullyRefunded(o) {
		return Options{Modes: []Mode{}, AvailableItems: []model.OrderItem{}}
	}

	opts := Options{
		AvailableItems: AvailableItems(o),
		CanRefundFee:   o.DeliveryFee != nil && !o.DidRefundDeliveryFee,
	}
	if len(o.Refunds) > 0 {
		opts.Modes = []Mode{ModePartial, ModeRemaining}
	} else {
		opts.Modes = []Mode{ModeEntireOrder, ModePartial}
	}
	return opts
}

// Allowed reports whether mode is offered for the order.
func (o Options) Allowed(mode Mode) bool {
	for _, m := range o.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Package reconcile derives monetary figures from an order snapshot.
//
// All results are minor units. The functions only report; validation and
// clamping live in the refund calculator.
package reconcile

import (
	"orderdesk/internal/model"
	"orderdesk/internal/money"
)

// AmountRefunded sums every refund recorded on the order.
func AmountRefunded(o *model.Order) money.MinorAmount {
	var sum money.MinorAmount
	for _, r := range o.Refunds {
		sum += r.Amount
	}
	return sum
}

// DeliveryFee returns the order's delivery fee in minor units.
func DeliveryFee(o *model.Order) money.MinorAmount {
	if o.DeliveryFee == nil {
		return 0
	}
	return money.ToMinor(*o.DeliveryFee)
}

// Total is the subtotal plus the delivery fee: the most that can ever be refunded.
func Total(o *model.Order) money.MinorAmount {
	return o.Amount + DeliveryFee(o)
}

// NetAmount is the amount still refundable. A negative result means the
// stored refunds already exceed the order and is reported as is.
func NetAmount(o *model.Order) money.MinorAmount {
	return Total(o) - AmountRefunded(o)
}

// AmountPaid is what the customer was charged at checkout, independent of refunds.
func AmountPaid(o *model.Order) money.MinorAmount {
	return o.Amount - money.DiscountValue(o.Amount, o.Discount) + DeliveryFee(o)
}

// IsFullyRefunded reports whether nothing is left to refund.
func IsFullyRefunded(o *model.Order) bool {
	return NetAmount(o) <= 0
}

// Summary bundles the derived amounts of an order.
type Summary struct {
	Subtotal       money.MinorAmount `json:"subtotal"`
	Discount       money.MinorAmount `json:"discount"`
	DeliveryFee    money.MinorAmount `json:"deliveryFee"`
	Total          money.MinorAmount `json:"total"`
	AmountPaid     money.MinorAmount `json:"amountPaid"`
	AmountRefunded money.MinorAmount `json:"amountRefunded"`
	NetAmount      money.MinorAmount `json:"netAmount"`
}

// Summarize computes every derived amount of the order at once.
func Summarize(o *model.Order) Summary {
	return Summary{
		Subtotal:       o.Amount,
		Discount:       money.DiscountValue(o.Amount, o.Discount),
		DeliveryFee:    DeliveryFee(o),
		Total:          Total(o),
		AmountPaid:     AmountPaid(o),
		AmountRefunded: AmountRefunded(o),
		NetAmount:      NetAmount(o),
	}
}

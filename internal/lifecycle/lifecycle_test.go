package lifecycle

import (
	"testing"

	"orderdesk/internal/model"
	"orderdesk/internal/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newOrder(status model.Status, method model.DeliveryMethod, items ...model.OrderItem) *model.Order {
	fee := money.MajorAmount(10)
	return &model.Order{
		ID:             uuid.New(),
		Amount:         10000,
		DeliveryFee:    &fee,
		Status:         status,
		DeliveryMethod: method,
		Items:          items,
	}
}

func item(ready, refunded bool) model.OrderItem {
	return model.OrderItem{ID: uuid.New(), Price: 50, Quantity: 1, IsReady: ready, IsRefunded: refunded}
}

func TestValidate_Tracks(t *testing.T) {
	tests := []struct {
		name    string
		status  model.Status
		method  model.DeliveryMethod
		target  model.Status
		wantErr error
	}{
		{name: "Pickup open to ready", status: model.StatusOpen, method: model.DeliveryMethodPickup, target: model.StatusReadyForPickup},
		{name: "Pickup ready to picked up", status: model.StatusReadyForPickup, method: model.DeliveryMethodPickup, target: model.StatusPickedUp},
		{name: "Delivery open to ready", status: model.StatusOpen, method: model.DeliveryMethodDelivery, target: model.StatusReadyForDelivery},
		{name: "Delivery ready to out", status: model.StatusReadyForDelivery, method: model.DeliveryMethodDelivery, target: model.StatusOutForDelivery},
		{name: "Delivery out to delivered", status: model.StatusOutForDelivery, method: model.DeliveryMethodDelivery, target: model.StatusDelivered},
		{name: "Open to cancelled", status: model.StatusOpen, method: model.DeliveryMethodDelivery, target: model.StatusCancelled},
		{name: "Partially refunded advances", status: model.StatusPartiallyRefunded, method: model.DeliveryMethodPickup, target: model.StatusReadyForPickup},
		{name: "Pickup order cannot go on delivery track", status: model.StatusOpen, method: model.DeliveryMethodPickup, target: model.StatusReadyForDelivery, wantErr: model.ErrWrongTrack},
		{name: "Delivery order cannot be picked up", status: model.StatusOpen, method: model.DeliveryMethodDelivery, target: model.StatusReadyForPickup, wantErr: model.ErrWrongTrack},
		{name: "Skipping a step", status: model.StatusOpen, method: model.DeliveryMethodDelivery, target: model.StatusDelivered, wantErr: model.ErrIllegalTransition},
		{name: "Backwards", status: model.StatusOutForDelivery, method: model.DeliveryMethodDelivery, target: model.StatusReadyForDelivery, wantErr: model.ErrIllegalTransition},
		{name: "Cancel after ready", status: model.StatusReadyForPickup, method: model.DeliveryMethodPickup, target: model.StatusCancelled, wantErr: model.ErrIllegalTransition},
		{name: "Terminal delivered", status: model.StatusDelivered, method: model.DeliveryMethodDelivery, target: model.StatusOutForDelivery, wantErr: model.ErrIllegalTransition},
		{name: "Refunded cannot be requested", status: model.StatusOpen, method: model.DeliveryMethodDelivery, target: model.StatusRefunded, wantErr: model.ErrIllegalTransition},
		{name: "Partially refunded cannot be requested", status: model.StatusOpen, method: model.DeliveryMethodDelivery, target: model.StatusPartiallyRefunded, wantErr: model.ErrIllegalTransition},
		{name: "Refund in flight blocks transitions", status: model.StatusRefundProcessing, method: model.DeliveryMethodDelivery, target: model.StatusReadyForDelivery, wantErr: model.ErrRefundInFlight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(tt.status, tt.method, item(true, false), item(true, false))

			err := Validate(o, tt.target)

			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ReadinessGate(t *testing.T) {
	tests := []struct {
		name    string
		status  model.Status
		items   []model.OrderItem
		target  model.Status
		wantErr error
	}{
		{
			name:    "Unready item blocks initial transition",
			status:  model.StatusOpen,
			items:   []model.OrderItem{item(true, false), item(false, false)},
			target:  model.StatusReadyForDelivery,
			wantErr: model.ErrItemsNotReady,
		},
		{
			name:    "Unready item blocks dispatch",
			status:  model.StatusReadyForDelivery,
			items:   []model.OrderItem{item(false, false)},
			target:  model.StatusOutForDelivery,
			wantErr: model.ErrItemsNotReady,
		},
		{
			name:    "Refunded unready item is ignored",
			status:  model.StatusPartiallyRefunded,
			items:   []model.OrderItem{item(true, false), item(false, true)},
			target:  model.StatusReadyForDelivery,
			wantErr: nil,
		},
		{
			name:    "Partial refund with unready remaining item blocks",
			status:  model.StatusPartiallyRefunded,
			items:   []model.OrderItem{item(false, false), item(false, true)},
			target:  model.StatusReadyForDelivery,
			wantErr: model.ErrItemsNotReady,
		},
		{
			name:    "Everything refunded leaves nothing to fulfil",
			status:  model.StatusPartiallyRefunded,
			items:   []model.OrderItem{item(false, true), item(true, true)},
			target:  model.StatusReadyForDelivery,
			wantErr: model.ErrNoItemsRemaining,
		},
		{
			name:    "Cancel ignores readiness",
			status:  model.StatusOpen,
			items:   []model.OrderItem{item(false, false)},
			target:  model.StatusCancelled,
			wantErr: nil,
		},
		{
			name:    "Delivery completion does not re-check readiness",
			status:  model.StatusOutForDelivery,
			items:   []model.OrderItem{item(false, false)},
			target:  model.StatusDelivered,
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(tt.status, model.DeliveryMethodDelivery, tt.items...)

			err := Validate(o, tt.target)

			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_AnyUnreadyItemRejectsEveryForwardTransition(t *testing.T) {
	for _, status := range []model.Status{model.StatusOpen, model.StatusPartiallyRefunded, model.StatusReadyForDelivery} {
		o := newOrder(status, model.DeliveryMethodDelivery, item(true, false), item(false, false))
		next, ok := Next(o)
		assert.True(t, ok)
		assert.Error(t, Validate(o, next), "status %s", status)
	}
}

func TestCanPerformInitialTransition(t *testing.T) {
	assert.True(t, CanPerformInitialTransition(newOrder(model.StatusOpen, model.DeliveryMethodPickup)))
	assert.True(t, CanPerformInitialTransition(newOrder(model.StatusPartiallyRefunded, model.DeliveryMethodPickup, item(false, true), item(false, false))))
	assert.False(t, CanPerformInitialTransition(newOrder(model.StatusPartiallyRefunded, model.DeliveryMethodPickup, item(false, true))))
}

func TestNext(t *testing.T) {
	tests := []struct {
		status model.Status
		method model.DeliveryMethod
		next   model.Status
		ok     bool
	}{
		{model.StatusOpen, model.DeliveryMethodPickup, model.StatusReadyForPickup, true},
		{model.StatusOpen, model.DeliveryMethodDelivery, model.StatusReadyForDelivery, true},
		{model.StatusPartiallyRefunded, model.DeliveryMethodDelivery, model.StatusReadyForDelivery, true},
		{model.StatusReadyForPickup, model.DeliveryMethodPickup, model.StatusPickedUp, true},
		{model.StatusReadyForDelivery, model.DeliveryMethodDelivery, model.StatusOutForDelivery, true},
		{model.StatusOutForDelivery, model.DeliveryMethodDelivery, model.StatusDelivered, true},
		{model.StatusDelivered, model.DeliveryMethodDelivery, "", false},
		{model.StatusCancelled, model.DeliveryMethodPickup, "", false},
		{model.StatusRefunded, model.DeliveryMethodPickup, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			next, ok := Next(newOrder(tt.status, tt.method))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestIsCompleted(t *testing.T) {
	assert.True(t, IsCompleted(newOrder(model.StatusDelivered, model.DeliveryMethodDelivery)))
	assert.True(t, IsCompleted(newOrder(model.StatusPickedUp, model.DeliveryMethodPickup)))
	assert.False(t, IsCompleted(newOrder(model.StatusOutForDelivery, model.DeliveryMethodDelivery)))

	refunded := newOrder(model.StatusRefunded, model.DeliveryMethodDelivery)
	refunded.Refunds = []model.Refund{{ID: "r1", Amount: 11000}}
	assert.True(t, IsCompleted(refunded))

	partial := newOrder(model.StatusPartiallyRefunded, model.DeliveryMethodDelivery)
	partial.Refunds = []model.Refund{{ID: "r1", Amount: 5000}}
	assert.False(t, IsCompleted(partial))
}

func TestDeriveRefundStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   model.Status
		refunds  []money.MinorAmount
		expected model.Status
	}{
		{name: "No refunds keeps status", status: model.StatusOpen, expected: model.StatusOpen},
		{name: "Partial refund on open order", status: model.StatusOpen, refunds: []money.MinorAmount{5000}, expected: model.StatusPartiallyRefunded},
		{name: "Partial refund keeps fulfillment status", status: model.StatusOutForDelivery, refunds: []money.MinorAmount{5000}, expected: model.StatusOutForDelivery},
		{name: "Full refund", status: model.StatusReadyForPickup, refunds: []money.MinorAmount{5000, 6000}, expected: model.StatusRefunded},
		{name: "Cancelled stays cancelled", status: model.StatusCancelled, refunds: []money.MinorAmount{11000}, expected: model.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(tt.status, model.DeliveryMethodDelivery)
			for _, amount := range tt.refunds {
				o.Refunds = append(o.Refunds, model.Refund{Amount: amount})
			}
			assert.Equal(t, tt.expected, DeriveRefundStatus(o))
		})
	}
}

func TestDescribe(t *testing.T) {
	o := newOrder(model.StatusOpen, model.DeliveryMethodDelivery, item(true, false))

	f := Describe(o)

	assert.True(t, f.IsOpen)
	assert.False(t, f.HasTransitioned)
	assert.Equal(t, model.StatusReadyForDelivery, f.NextStatus)
	assert.True(t, f.CanAdvance)
	assert.True(t, f.CanCancel)

	o.Items[0].IsReady = false
	assert.False(t, Describe(o).CanAdvance)

	out := newOrder(model.StatusOutForDelivery, model.DeliveryMethodDelivery, item(true, false))
	f = Describe(out)
	assert.True(t, f.HasTransitioned)
	assert.True(t, f.IsOutForDelivery)
	assert.False(t, f.CanCancel)
}

func TestIsForward(t *testing.T) {
	assert.True(t, IsForward(model.StatusOpen, model.StatusReadyForPickup))
	assert.True(t, IsForward(model.StatusReadyForDelivery, model.StatusOutForDelivery))
	assert.False(t, IsForward(model.StatusOpen, model.StatusCancelled))
	assert.False(t, IsForward(model.StatusOutForDelivery, model.StatusDelivered))
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []model.Status{model.StatusDelivered, model.StatusPickedUp, model.StatusCancelled, model.StatusRefunded}

	for _, status := range terminal {
		t.Run(string(status), func(t *testing.T) {
			assert.Empty(t, transitions[status])

			o := newOrder(status, model.DeliveryMethodDelivery)
			_, ok := Next(o)
			assert.False(t, ok)
			for _, target := range []model.Status{model.StatusReadyForDelivery, model.StatusOutForDelivery, model.StatusDelivered, model.StatusCancelled} {
				assert.Equal(t, model.ErrIllegalTransition, Validate(o, target), "%s -> %s", status, target)
			}
		})
	}
}

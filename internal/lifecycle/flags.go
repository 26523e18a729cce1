package lifecycle

import "orderdesk/internal/model"

// Flags are the status-derived booleans used to gate operator actions.
type Flags struct {
	IsOpen                      bool         `json:"isOpen"`
	IsReady                     bool         `json:"isReady"`
	IsOutForDelivery            bool         `json:"isOutForDelivery"`
	IsDelivered                 bool         `json:"isDelivered"`
	IsPickedUp                  bool         `json:"isPickedUp"`
	HasTransitioned             bool         `json:"hasTransitioned"`
	IsCompleted                 bool         `json:"isCompleted"`
	CanPerformInitialTransition bool         `json:"canPerformInitialTransition"`
	NextStatus                  model.Status `json:"nextStatus,omitempty"`
	CanAdvance                  bool         `json:"canAdvance"`
	CanCancel                   bool         `json:"canCancel"`
}

// Describe computes the flags of an order.
func Describe(o *model.Order) Flags {
	f := Flags{
		IsOpen:                      o.Status.IsOpen(),
		IsReady:                     o.Status.IsReady(),
		IsOutForDelivery:            o.Status.IsOutForDelivery(),
		IsDelivered:                 o.Status.IsDelivered(),
		IsPickedUp:                  o.Status.IsPickedUp(),
		HasTransitioned:             o.Status.HasTransitioned(),
		IsCompleted:                 IsCompleted(o),
		CanPerformInitialTransition: CanPerformInitialTransition(o),
		CanCancel:                   Validate(o, model.StatusCancelled) == nil,
	}
	if next, ok := Next(o); ok {
		f.NextStatus = next
		f.CanAdvance = Validate(o, next) == nil
	}
	return f
}

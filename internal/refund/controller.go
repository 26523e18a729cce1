package refund

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"orderdesk/internal/model"
	"orderdesk/internal/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrSubmissionInFlight is returned when Submit is called while a submission is running.
	ErrSubmissionInFlight = errors.New("refund submission already in progress")
	// ErrNotConfirming is returned when Submit is called outside the confirmation step.
	ErrNotConfirming = errors.New("refund must be confirmed before it is submitted")
	// ErrRefundRejected wraps an unsuccessful refund result.
	ErrRefundRejected = errors.New("refund rejected")
)

// Request is the payload of the refund operation.
type Request struct {
	OrderID            uuid.UUID         `json:"orderId"`
	TransactionID      string            `json:"transactionId,omitempty"`
	Amount             money.MinorAmount `json:"amount"`
	ItemIDs            []uuid.UUID       `json:"itemIds"`
	ReturnToStock      bool              `json:"returnToStock"`
	IncludeDeliveryFee bool              `json:"includeDeliveryFee"`
	Actor              *model.Actor      `json:"actor,omitempty"`
}

// Result is the outcome of the refund operation.
type Result struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Refund  *model.Refund `json:"refund,omitempty"`
}

// Loader reads an order snapshot.
type Loader interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

// Submitter executes the refund operation.
type Submitter interface {
	Refund(ctx context.Context, req Request) (*Result, error)
}

// Controller drives one refund workflow for one order. Only one submission
// can be in flight at a time.
type Controller struct {
	mu        sync.Mutex
	order     *model.Order
	state     State
	lastErr   error
	loader    Loader
	submitter Submitter
	actor     *model.Actor
	logger    zerolog.Logger
}

// NewController creates a controller for the order snapshot.
func NewController(order *model.Order, loader Loader, submitter Submitter, actor *model.Actor, logger zerolog.Logger) *Controller {
	return &Controller{
		order:     order,
		state:     Idle{},
		loader:    loader,
		submitter: submitter,
		actor:     actor,
		logger:    logger.With().Str("component", "refund-controller").Str("order_id", order.ID.String()).Logger(),
	}
}

// State returns the current workflow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Order returns the order snapshot the controller works on.
func (c *Controller) Order() *model.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order
}

// Err returns the error of the last failed submission, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Options returns the refund controls available for the current snapshot.
func (c *Controller) Options() Options {
	return OptionsFor(c.Order())
}

// Dispatch applies an operator action. Actions are ignored while submitting.
func (c *Controller) Dispatch(a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.state.(Submitting); busy {
		return c.state
	}
	if set, ok := a.(SetMode); ok && set.Mode != ModeNone && !OptionsFor(c.order).Allowed(set.Mode) {
		c.logger.Debug().Str("mode", string(set.Mode)).Msg("refund mode not offered for order")
		return c.state
	}
	c.state = Reduce(c.state, a)
	return c.state
}

// Quote returns the amount the current draft would refund and whether it is valid.
func (c *Controller) Quote() (money.MinorAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	draft, _ := DraftOf(c.state)
	if c.order.IsPOD() {
		return 0, model.ErrManualReconciliation
	}
	amount := Calculate(c.order, draft.Selection)
	err := Validate(c.order, draft.Selection)
	LogExceeded(c.logger, err, c.order, amount)
	return amount, err
}

// Submit validates the confirmed draft and executes the refund. On success the
// controller resets and reloads the order; on failure it stays in the
// confirmation step with a fresh snapshot so the operator can retry or cancel.
func (c *Controller) Submit(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	confirming, ok := c.state.(Confirming)
	if !ok {
		_, busy := c.state.(Submitting)
		c.mu.Unlock()
		if busy {
			return nil, ErrSubmissionInFlight
		}
		return nil, ErrNotConfirming
	}

	order := c.order
	if order.IsPOD() {
		c.lastErr = model.ErrManualReconciliation
		c.mu.Unlock()
		return nil, model.ErrManualReconciliation
	}
	sel := confirming.Selection
	if err := Validate(order, sel); err != nil {
		LogExceeded(c.logger, err, order, Calculate(order, sel))
		c.lastErr = err
		c.mu.Unlock()
		return nil, err
	}

	req := Request{
		OrderID:            order.ID,
		TransactionID:      order.PaymentMethod.TransactionID,
		Amount:             Calculate(order, sel),
		ItemIDs:            SubmissionItemIDs(order, sel),
		ReturnToStock:      confirming.ReturnToStock && CanReturnToStock(order, sel.Mode),
		IncludeDeliveryFee: IncludesDeliveryFee(order, sel),
		Actor:              c.actor,
	}
	c.state = Submitting{confirming.clone()}
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info().
		Str("mode", string(sel.Mode)).
		Int64("amount", int64(req.Amount)).
		Int("item_count", len(req.ItemIDs)).
		Msg("submitting refund")

	res, err := c.submitter.Refund(ctx, req)
	if err == nil && (res == nil || !res.Success) {
		msg := "no result"
		if res != nil {
			msg = res.Message
		}
		err = fmt.Errorf("%w: %s", ErrRefundRejected, msg)
	}

	fresh, loadErr := c.loader.GetOrder(ctx, order.ID)
	if loadErr != nil {
		c.logger.Warn().Err(loadErr).Msg("failed to reload order after refund submission")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if loadErr == nil && fresh != nil {
		c.order = fresh
	}

	if err != nil {
		c.logger.Warn().Err(err).Msg("refund submission failed")
		draft := confirming.clone()
		draft.Selection.ItemIDs = pruneRefunded(c.order, draft.Selection.ItemIDs)
		c.state = Confirming{draft}
		c.lastErr = err
		return nil, err
	}

	c.logger.Info().Int64("amount", int64(req.Amount)).Msg("refund submitted")
	c.state = Reduce(c.state, Reset{})
	return res, nil
}

// Refresh reloads the order snapshot and drops selected items that have since been refunded.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	id := c.order.ID
	c.mu.Unlock()

	fresh, err := c.loader.GetOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to reload order: %w", err)
	}
	if fresh == nil {
		return model.ErrOrderNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = fresh
	switch st := c.state.(type) {
	case ModeSelected:
		st.Selection.ItemIDs = pruneRefunded(fresh, st.Selection.ItemIDs)
		c.state = st
	case Confirming:
		st.Selection.ItemIDs = pruneRefunded(fresh, st.Selection.ItemIDs)
		c.state = st
	}
	return nil
}

func pruneRefunded(o *model.Order, ids []uuid.UUID) []uuid.UUID {
	kept := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if item, ok := o.Item(id); ok && !item.IsRefunded {
			kept = append(kept, id)
		}
	}
	return kept
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/cache"
	"orderdesk/internal/discount"
	"orderdesk/internal/events"
	"orderdesk/internal/lifecycle"
	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/payment"
	"orderdesk/internal/refund"
	"orderdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

var errTransactionMismatch = model.NewDomainError(model.ErrCodeInvalidRequest, "Transaction does not belong to this order")

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	catalogue   discount.Catalogue
	gateway     payment.Gateway
	cache       cache.OrderCache
	publisher   events.Publisher
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	catalogue discount.Catalogue,
	gateway payment.Gateway,
	orderCache cache.OrderCache,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		catalogue:   catalogue,
		gateway:     gateway,
		cache:       orderCache,
		publisher:   publisher,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// GetOrder reads the order from the store. Refund controllers reload through
// it after a submission, so a snapshot cached before the refund committed
// must not answer.
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.load(ctx, id)
}

// cached returns the order snapshot, serving it from the cache when possible.
func (s *orderService) cached(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", id.String()).Msg("order cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, order); err != nil {
		s.logger.Warn().Err(err).Str("order_id", id.String()).Msg("order cache write failed")
	}
	return order, nil
}

// GetOrderView returns the order with its derived amounts, flags and refund options.
func (s *orderService) GetOrderView(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	order, err := s.cached(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewOrderView(order), nil
}

// RefreshOrderView returns the order view read from the store.
func (s *orderService) RefreshOrderView(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewOrderView(order), nil
}

// TransitionStatus validates the move against a fresh snapshot and applies it
// only if the stored status still matches.
func (s *orderService) TransitionStatus(ctx context.Context, id uuid.UUID, target model.Status, actor *model.Actor) (*OrderView, error) {
	logger := s.logger.With().Str("order_id", id.String()).Str("target", string(target)).Logger()

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Validate(order, target); err != nil {
		logger.Warn().Err(err).Str("current", string(order.Status)).Msg("status transition refused")
		return nil, err
	}

	from := order.Status
	if err := s.orderRepo.UpdateStatus(ctx, id, from, target, lifecycle.IsForward(from, target)); err != nil {
		logger.Warn().Err(err).Str("current", string(from)).Msg("status update failed")
		return nil, s.wrapStore(err, "failed to update order status")
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.StatusChanged{OrderID: id, From: from, To: target, Actor: actor})

	logger.Info().Str("from", string(from)).Msg("order status changed")
	return s.RefreshOrderView(ctx, id)
}

// SetItemReady marks an item ready or not ready. Setting the current value is a no-op.
func (s *orderService) SetItemReady(ctx context.Context, orderID, itemID uuid.UUID, ready bool, actor *model.Actor) (*OrderView, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	item, ok := order.Item(itemID)
	if !ok {
		return nil, model.ErrItemNotFound
	}
	if item.IsRefunded {
		return nil, model.ErrItemRefunded
	}
	if item.IsReady == ready {
		return NewOrderView(order), nil
	}

	if err := s.orderRepo.SetItemReady(ctx, orderID, itemID, ready); err != nil {
		s.logger.Warn().Err(err).
			Str("order_id", orderID.String()).
			Str("item_id", itemID.String()).
			Msg("failed to update item readiness")
		return nil, s.wrapStore(err, "failed to update item")
	}

	s.invalidate(ctx, orderID)
	s.publish(ctx, events.ItemReadinessChanged{OrderID: orderID, ItemID: itemID, Ready: ready, Actor: actor})

	return s.RefreshOrderView(ctx, orderID)
}

// QuoteRefund prices a selection against the current snapshot.
func (s *orderService) QuoteRefund(ctx context.Context, id uuid.UUID, sel refund.Selection) (*RefundQuote, error) {
	order, err := s.cached(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsPOD() {
		return nil, model.ErrManualReconciliation
	}

	amount := refund.Calculate(order, sel)
	quote := &RefundQuote{
		Amount:             amount,
		Formatted:          money.Format(amount, order.Currency),
		ItemIDs:            refund.SubmissionItemIDs(order, sel),
		IncludeDeliveryFee: refund.IncludesDeliveryFee(order, sel),
		CanReturnToStock:   refund.CanReturnToStock(order, sel.Mode),
		Valid:              true,
	}
	if err := refund.Validate(order, sel); err != nil {
		refund.LogExceeded(s.logger, err, order, amount)
		de, ok := model.AsDomainError(err)
		if !ok {
			return nil, err
		}
		quote.Valid = false
		quote.Code = de.Code
		quote.Reason = de.Message
	}
	return quote, nil
}

// Refund records the refund and restocks items inside the order lock, then
// issues it with the payment provider as the last step before commit. A store
// failure therefore never reaches the provider.
func (s *orderService) Refund(ctx context.Context, req refund.Request) (res *refund.Result, err error) {
	logger := s.logger.With().Str("order_id", req.OrderID.String()).Logger()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to refund order: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.GetForUpdate(ctx, tx, req.OrderID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to refund order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	s.resolveDiscount(order)

	if order.IsPOD() {
		return nil, model.ErrManualReconciliation
	}
	if order.Status.IsRefundInFlight() {
		return nil, model.ErrRefundInFlight
	}
	if req.TransactionID != "" && req.TransactionID != order.PaymentMethod.TransactionID {
		return nil, errTransactionMismatch
	}
	if err := refund.ValidateRequest(order, req); err != nil {
		if errors.Is(err, model.ErrExceedsAvailable) {
			refund.LogExceeded(logger, err, order, req.Amount)
		} else {
			logger.Warn().Err(err).Int64("amount", int64(req.Amount)).Msg("refund request refused")
		}
		return nil, err
	}

	record := &model.Refund{
		ID:                  ulid.Make().String(),
		OrderID:             order.ID,
		Amount:              req.Amount,
		ItemIDs:             req.ItemIDs,
		IncludedDeliveryFee: req.IncludeDeliveryFee,
		ReturnedToStock:     req.ReturnToStock,
		Date:                s.now().UTC(),
	}
	if req.Actor != nil {
		record.ActorID = req.Actor.ID
		record.ActorEmail = req.Actor.Email
	}

	from := order.Status
	status := lifecycle.DeriveRefundStatus(applyRefund(order, record))

	if err = s.orderRepo.AppendRefund(ctx, tx, record, status); err != nil {
		logger.Error().Err(err).Str("refund_id", record.ID).Msg("failed to record refund")
		return nil, s.wrapStore(err, "failed to record refund")
	}

	if req.ReturnToStock {
		if err = s.productRepo.Restock(ctx, tx, restockQuantities(order, req.ItemIDs)); err != nil {
			logger.Error().Err(err).Str("refund_id", record.ID).Msg("failed to restock refunded items")
			return nil, s.wrapStore(err, "failed to restock items")
		}
	}

	var receipt *payment.Receipt
	if order.PaymentMethod.TransactionID != "" {
		receipt, err = s.gateway.Refund(ctx, payment.RefundRequest{
			TransactionID:  order.PaymentMethod.TransactionID,
			Amount:         req.Amount,
			Currency:       order.Currency,
			IdempotencyKey: record.ID,
			Metadata: map[string]string{
				"order_id":    order.ID.String(),
				"refund_id":   record.ID,
				"actor_email": record.ActorEmail,
			},
		})
		if err != nil {
			logger.Error().Err(err).Str("refund_id", record.ID).Msg("payment provider refund failed")
			return nil, fmt.Errorf("failed to refund order: %w", err)
		}
	} else {
		logger.Info().Str("payment_type", order.PaymentMethod.Type).Msg("no captured payment, recording refund only")
	}

	if err = tx.Commit(ctx); err != nil {
		ev := logger.Error().Err(err).Str("refund_id", record.ID)
		if receipt != nil {
			ev = ev.Str("provider_refund_id", receipt.ProviderRefundID)
		}
		ev.Msg("refund issued by provider but not recorded")
		return nil, fmt.Errorf("failed to refund order: %w", err)
	}
	committed = true

	s.invalidate(ctx, order.ID)
	s.publish(ctx, events.RefundExecuted{
		OrderID:             order.ID,
		RefundID:            record.ID,
		Amount:              record.Amount,
		Currency:            order.Currency,
		ItemIDs:             record.ItemIDs,
		IncludedDeliveryFee: record.IncludedDeliveryFee,
		ReturnedToStock:     record.ReturnedToStock,
		Status:              status,
		Actor:               req.Actor,
	})
	if status != from {
		s.publish(ctx, events.StatusChanged{OrderID: order.ID, From: from, To: status, Actor: req.Actor})
	}

	logger.Info().
		Str("refund_id", record.ID).
		Int64("amount", int64(record.Amount)).
		Str("status", string(status)).
		Msg("refund recorded")

	return &refund.Result{
		Success: true,
		Message: "Refunded " + money.Format(record.Amount, order.Currency),
		Refund:  record,
	}, nil
}

// load reads the order from the store and resolves its discount.
func (s *orderService) load(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	s.resolveDiscount(order)
	return order, nil
}

func (s *orderService) resolveDiscount(order *model.Order) {
	if order.CouponCode == nil || *order.CouponCode == "" {
		return
	}
	d, ok := s.catalogue.Lookup(*order.CouponCode)
	if !ok {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("coupon_code", *order.CouponCode).
			Msg("discount code not in catalogue")
		return
	}
	order.Discount = d
}

func (s *orderService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("order_id", id.String()).Msg("failed to invalidate cached order")
	}
}

func (s *orderService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).
			Str("order_id", event.OrderKey().String()).
			Str("event_type", event.EventType()).
			Msg("failed to publish event")
	}
}

// wrapStore passes domain errors through untouched.
func (s *orderService) wrapStore(err error, msg string) error {
	if _, ok := model.AsDomainError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// applyRefund returns a copy of the order with the refund applied.
func applyRefund(o *model.Order, r *model.Refund) *model.Order {
	next := *o
	next.Refunds = append(append([]model.Refund(nil), o.Refunds...), *r)
	next.Items = append([]model.OrderItem(nil), o.Items...)
	for i := range next.Items {
		for _, id := range r.ItemIDs {
			if next.Items[i].ID == id {
				next.Items[i].IsRefunded = true
			}
		}
	}
	if r.IncludedDeliveryFee {
		next.DidRefundDeliveryFee = true
	}
	return &next
}

// restockQuantities sums refunded quantities per product.
func restockQuantities(o *model.Order, itemIDs []uuid.UUID) map[string]int {
	quantities := make(map[string]int)
	for _, id := range itemIDs {
		if item, ok := o.Item(id); ok {
			quantities[item.ProductID] += item.Quantity
		}
	}
	return quantities
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"orderdesk/internal/model"
	"orderdesk/internal/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts an order and its items within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, amount, delivery_fee, coupon_code, currency, status, delivery_method,
			is_pod_order, payment_type, transaction_id, did_refund_delivery_fee, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var fee *float64
	if order.DeliveryFee != nil {
		v := float64(*order.DeliveryFee)
		fee = &v
	}
	var txID *string
	if order.PaymentMethod.TransactionID != "" {
		txID = &order.PaymentMethod.TransactionID
	}

	_, err := tx.Exec(ctx, query,
		order.ID,
		int64(order.Amount),
		fee,
		order.CouponCode,
		order.Currency,
		string(order.Status),
		string(order.DeliveryMethod),
		order.IsPODOrder,
		order.PaymentMethod.Type,
		txID,
		order.DidRefundDeliveryFee,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, price, quantity, is_refunded, is_ready, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for i, item := range order.Items {
		batch.Queue(itemQuery,
			item.ID, order.ID, item.ProductID, item.Name, float64(item.Price),
			item.Quantity, item.IsRefunded, item.IsReady, i,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(order.Items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("product_id", order.Items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order with its items and refunds.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.load(ctx, r.pool, id, false)
}

// GetForUpdate retrieves an order and locks its row until the transaction ends.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.load(ctx, tx, id, true)
}

func (r *orderRepository) load(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*model.Order, error) {
	orderQuery := `
		SELECT id, amount, delivery_fee, coupon_code, currency, status, delivery_method,
			is_pod_order, payment_type, transaction_id, did_refund_delivery_fee, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	if forUpdate {
		orderQuery += " FOR UPDATE"
	}

	var (
		order    model.Order
		amount   int64
		fee      *float64
		status   string
		method   string
		txID     *string
		currency string
	)
	err := q.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&amount,
		&fee,
		&order.CouponCode,
		&currency,
		&status,
		&method,
		&order.IsPODOrder,
		&order.PaymentMethod.Type,
		&txID,
		&order.DidRefundDeliveryFee,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	order.Amount = money.MinorAmount(amount)
	if fee != nil {
		f := money.MajorAmount(*fee)
		order.DeliveryFee = &f
	}
	order.Currency = currency
	order.Status = model.Status(status)
	order.DeliveryMethod = model.DeliveryMethod(method)
	if txID != nil {
		order.PaymentMethod.TransactionID = *txID
	}

	if order.Items, err = r.loadItems(ctx, q, id); err != nil {
		return nil, err
	}
	if order.Refunds, err = r.loadRefunds(ctx, q, id); err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, price, quantity, is_refunded, is_ready
		FROM order_items
		WHERE order_id = $1
		ORDER BY position, created_at
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var (
			item  model.OrderItem
			price float64
		)
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &price,
			&item.Quantity, &item.IsRefunded, &item.IsReady)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.Price = money.MajorAmount(price)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) loadRefunds(ctx context.Context, q querier, orderID uuid.UUID) ([]model.Refund, error) {
	query := `
		SELECT id, order_id, amount, item_ids::text[], included_delivery_fee, returned_to_stock,
			actor_id, actor_email, created_at
		FROM refunds
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query refunds")
		return nil, fmt.Errorf("failed to query refunds: %w", err)
	}
	defer rows.Close()

	refunds := []model.Refund{}
	for rows.Next() {
		var (
			rf      model.Refund
			amount  int64
			itemIDs []string
		)
		err := rows.Scan(&rf.ID, &rf.OrderID, &amount, &itemIDs, &rf.IncludedDeliveryFee,
			&rf.ReturnedToStock, &rf.ActorID, &rf.ActorEmail, &rf.Date)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan refund row")
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		rf.Amount = money.MinorAmount(amount)
		rf.ItemIDs = make([]uuid.UUID, 0, len(itemIDs))
		for _, s := range itemIDs {
			itemID, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("failed to parse refunded item id %q: %w", s, err)
			}
			rf.ItemIDs = append(rf.ItemIDs, itemID)
		}
		refunds = append(refunds, rf)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating refund rows")
		return nil, fmt.Errorf("error iterating refunds: %w", err)
	}

	return refunds, nil
}

// UpdateStatus moves the order from expected to target.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, target model.Status, requireReady bool) error {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1
			AND status = $2
			AND (
				NOT $4::boolean
				OR NOT EXISTS (
					SELECT 1 FROM order_items
					WHERE order_id = $1 AND NOT is_refunded AND NOT is_ready
				)
			)
	`

	tag, err := r.pool.Exec(ctx, query, id, string(expected), string(target), requireReady)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("order_id", id.String()).
			Str("expected", string(expected)).
			Str("target", string(target)).
			Msg("status update did not match order row")
		return model.ErrTransitionRejected
	}

	return nil
}

// SetItemReady updates the readiness flag of a non-refunded item.
func (r *orderRepository) SetItemReady(ctx context.Context, orderID, itemID uuid.UUID, ready bool) error {
	query := `
		UPDATE order_items
		SET is_ready = $3
		WHERE order_id = $1 AND id = $2 AND NOT is_refunded
	`

	tag, err := r.pool.Exec(ctx, query, orderID, itemID, ready)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("item_id", itemID.String()).
			Msg("failed to update order item")
		return fmt.Errorf("failed to update order item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrStaleOrder
	}

	return nil
}

// AppendRefund records a refund within the provided transaction.
func (r *orderRepository) AppendRefund(ctx context.Context, tx pgx.Tx, refund *model.Refund, status model.Status) error {
	itemIDs := uuidStrings(refund.ItemIDs)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO refunds (
			id, order_id, amount, item_ids, included_delivery_fee, returned_to_stock,
			actor_id, actor_email, created_at
		)
		VALUES ($1, $2, $3, $4::uuid[], $5, $6, $7, $8, $9)
	`,
		refund.ID, refund.OrderID, int64(refund.Amount), itemIDs, refund.IncludedDeliveryFee,
		refund.ReturnedToStock, refund.ActorID, refund.ActorEmail, refund.Date,
	)
	batch.Queue(`
		UPDATE order_items
		SET is_refunded = TRUE
		WHERE order_id = $1 AND id = ANY($2::uuid[]) AND NOT is_refunded
	`, refund.OrderID, itemIDs)
	batch.Queue(`
		UPDATE orders
		SET status = $2,
			did_refund_delivery_fee = did_refund_delivery_fee OR $3,
			updated_at = NOW()
		WHERE id = $1
	`, refund.OrderID, string(status), refund.IncludedDeliveryFee)

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	if _, err := results.Exec(); err != nil {
		r.logger.Error().Err(err).Str("refund_id", refund.ID).Msg("failed to insert refund")
		return fmt.Errorf("failed to insert refund: %w", err)
	}

	tag, err := results.Exec()
	if err != nil {
		r.logger.Error().Err(err).Str("refund_id", refund.ID).Msg("failed to mark items refunded")
		return fmt.Errorf("failed to mark items refunded: %w", err)
	}
	if tag.RowsAffected() != int64(len(itemIDs)) {
		r.logger.Warn().
			Str("refund_id", refund.ID).
			Int("expected", len(itemIDs)).
			Int64("updated", tag.RowsAffected()).
			Msg("refund references items that are missing or already refunded")
		return model.ErrInvalidRefundItem
	}

	if _, err := results.Exec(); err != nil {
		r.logger.Error().Err(err).Str("order_id", refund.OrderID.String()).Msg("failed to update order after refund")
		return fmt.Errorf("failed to update order after refund: %w", err)
	}

	r.logger.Debug().
		Str("refund_id", refund.ID).
		Str("order_id", refund.OrderID.String()).
		Int64("amount", int64(refund.Amount)).
		Msg("refund recorded")

	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

package repository

import (
	"context"
	"testing"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupOrderTestDB creates a test database with the catalogue products the test orders reference.
func setupOrderTestDB(t *testing.T) (*pgxpool.Pool, OrderRepository, func()) {
	pool, cleanup := setupTestDB(t)
	now := time.Now()
	seedProducts(t, pool, []model.Product{
		{ID: "P001", Name: "Product A", Price: 25, Category: "Cat1", Stock: 0, CreatedAt: now},
		{ID: "P002", Name: "Product B", Price: 50, Category: "Cat1", Stock: 0, CreatedAt: now},
	})
	return pool, NewOrderRepository(pool, zerolog.Nop()), cleanup
}

func TestOrderRepository_BeginTx(t *testing.T) {
	_, repo, cleanup := setupOrderTestDB(t)
	defer cleanup()

	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)

	require.NoError(t, err)
	require.NotNil(t, tx)

	// Rollback to cleanup
	assert.NoError(t, tx.Rollback(ctx))
}

func TestOrderRepository_CreateAndGetByID(t *testing.T) {
	_, repo, cleanup := setupOrderTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder()
	coupon := "SAVE10"
	order.CouponCode = &coupon
	seedOrder(t, repo, order)

	got, err := repo.GetByID(ctx, order.ID)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, money.MinorAmount(10000), got.Amount)
	require.NotNil(t, got.DeliveryFee)
	assert.InDelta(t, 10.0, float64(*got.DeliveryFee), 0.001)
	assert.Equal(t, &coupon, got.CouponCode)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.Equal(t, model.DeliveryMethodDelivery, got.DeliveryMethod)
	assert.Equal(t, "pi_test", got.PaymentMethod.TransactionID)
	assert.Empty(t, got.Refunds)

	// Items come back in insertion order.
	require.Len(t, got.Items, 2)
	assert.Equal(t, order.Items[0].ID, got.Items[0].ID)
	assert.Equal(t, order.Items[1].ID, got.Items[1].ID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.InDelta(t, 25.0, float64(got.Items[0].Price), 0.001)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	_, repo, cleanup := setupOrderTestDB(t)
	defer cleanup()

	got, err := repo.GetByID(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	_, repo, cleanup := setupOrderTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder()
	seedOrder(t, repo, order)

	t.Run("Rejected while items are not ready", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, order.ID, model.StatusOpen, model.StatusReadyForDelivery, true)
		assert.Equal(t, model.ErrTransitionRejected, err)
	})

	t.Run("Cancel skips the readiness guard", func(t *testing.T) {
		other := newTestOrder()
		seedOrder(t, repo, other)

		require.NoError(t, repo.UpdateStatus(ctx, other.ID, model.StatusOpen, model.StatusCancelled, false))

		got, err := repo.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
	})

	t.Run("Applies once every item is ready", func(t *testing.T) {
		for _, item := range order.Items {
			require.NoError(t, repo.SetItemReady(ctx, order.ID, item.ID, true))
		}

		require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.StatusOpen, model.StatusReadyForDelivery, true))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusReadyForDelivery, got.Status)
	})

	t.Run("Rejected when the expected status is stale", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, order.ID, model.StatusOpen, model.StatusReadyForDelivery, true)
		assert.Equal(t, model.ErrTransitionRejected, err)
	})
}

func TestOrderRepository_AppendRefund(t *testing.T) {
	_, repo, cleanup := setupOrderTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder()
	seedOrder(t, repo, order)

	rf := &model.Refund{
		ID:                  ulid.Make().String(),
		OrderID:             order.ID,
		Amount:              6000,
		ItemIDs:             []uuid.UUID{order.Items[0].ID},
		IncludedDeliveryFee: true,
		ActorID:             "op-1",
		ActorEmail:          "op@example.com",
		Date:                time.Now().UTC().Truncate(time.Microsecond),
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	locked, err := repo.GetForUpdate(ctx, tx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)

	require.NoError(t, repo.AppendRefund(ctx, tx, rf, model.StatusPartiallyRefunded))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPartiallyRefunded, got.Status)
	assert.True(t, got.DidRefundDeliveryFee)
	assert.True(t, got.Items[0].IsRefunded)
	assert.False(t, got.Items[1].IsRefunded)
	require.Len(t, got.Refunds, 1)
	assert.Equal(t, rf.ID, got.Refunds[0].ID)
	assert.Equal(t, money.MinorAmount(6000), got.Refunds[0].Amount)
	assert.Equal(t, []uuid.UUID{order.Items[0].ID}, got.Refunds[0].ItemIDs)
	assert.Equal(t, "op@example.com", got.Refunds[0].ActorEmail)

	t.Run("Refunded items cannot be refunded again", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		again := *rf
		again.ID = ulid.Make().String()
		again.IncludedDeliveryFee = false

		err = repo.AppendRefund(ctx, tx, &again, model.StatusPartiallyRefunded)
		assert.Equal(t, model.ErrInvalidRefundItem, err)
	})

	t.Run("Refunded items cannot change readiness", func(t *testing.T) {
		err := repo.SetItemReady(ctx, order.ID, order.Items[0].ID, true)
		assert.Equal(t, model.ErrStaleOrder, err)
	})
}

package repository

import (
	"context"
	"testing"
	"time"

	"orderdesk/internal/database"
	"orderdesk/internal/model"
	"orderdesk/internal/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the order store schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed repository test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, database.Schema())
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	ctx := context.Background()

	query := `
		INSERT INTO products (id, name, price, category, stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, p := range products {
		_, err := pool.Exec(ctx, query, p.ID, p.Name, float64(p.Price), p.Category, p.Stock, p.CreatedAt)
		require.NoError(t, err)
	}
}

// newTestOrder builds a delivery order over products P001 and P002 with a 10.00 fee.
func newTestOrder() *model.Order {
	id := uuid.New()
	fee := money.MajorAmount(10)
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Order{
		ID:             id,
		Amount:         10000,
		DeliveryFee:    &fee,
		Currency:       "USD",
		Status:         model.StatusOpen,
		DeliveryMethod: model.DeliveryMethodDelivery,
		PaymentMethod:  model.PaymentMethod{Type: model.PaymentTypeCard, TransactionID: "pi_test"},
		Items: []model.OrderItem{
			{ID: uuid.New(), OrderID: id, ProductID: "P001", Name: "Product A", Price: 25, Quantity: 2},
			{ID: uuid.New(), OrderID: id, ProductID: "P002", Name: "Product B", Price: 50, Quantity: 1},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// seedOrder inserts the order and its items.
func seedOrder(t *testing.T, repo OrderRepository, order *model.Order) {
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Commit(ctx))
}

//go:build ignore

// Seeds a local database with products and a handful of orders covering both
// fulfillment tracks and every payment type, then prints their IDs for use
// with refundctl.
//
//	go run scripts/seed_orders.go
//
// Connection settings come from the same environment as the API (DB_HOST,
// DB_NAME, CONFIG_FILE, ...). The schema is applied first.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	if os.Getenv("API_KEY") == "" {
		os.Setenv("API_KEY", "seed")
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Unable to connect to database")
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		logger.Fatal().Err(err).Msg("QueryRow failed")
	}
	logger.Info().Str("database", dbName).Msg("connected")

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply schema")
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO products (id, name, price, category, stock) VALUES
			('P001', 'Ceramic Mug', 12.50, 'Kitchen', 40),
			('P002', 'Pour-over Kettle', 49.00, 'Kitchen', 12),
			('P003', 'Coffee Beans 1kg', 24.00, 'Pantry', 30),
			('P004', 'Paper Filters', 4.50, 'Pantry', 200)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed products")
	}

	repo := repository.NewOrderRepository(pool, logger)
	fee := money.MajorAmount(4.99)
	coupon := "SAVE10"

	orders := []struct {
		label string
		order *model.Order
	}{
		{"card delivery", newOrder(model.DeliveryMethodDelivery, &fee, model.PaymentMethod{Type: model.PaymentTypeCard, TransactionID: "pi_seed_delivery"}, nil)},
		{"card pickup + SAVE10", newOrder(model.DeliveryMethodPickup, nil, model.PaymentMethod{Type: model.PaymentTypeCard, TransactionID: "pi_seed_pickup"}, &coupon)},
		{"cash pickup", newOrder(model.DeliveryMethodPickup, nil, model.PaymentMethod{Type: model.PaymentTypeCash}, nil)},
		{"payment on delivery", newOrder(model.DeliveryMethodDelivery, &fee, model.PaymentMethod{Type: model.PaymentTypePOD}, nil)},
	}

	for _, o := range orders {
		tx, err := repo.BeginTx(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to begin transaction")
		}
		if err := repo.CreateOrder(ctx, tx, o.order); err != nil {
			_ = tx.Rollback(ctx)
			logger.Fatal().Err(err).Str("order", o.label).Msg("Failed to seed order")
		}
		if err := tx.Commit(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to commit order")
		}
		fmt.Printf("%-22s %s\n", o.label, o.order.ID)
	}
}

func newOrder(method model.DeliveryMethod, fee *money.MajorAmount, pm model.PaymentMethod, coupon *string) *model.Order {
	id := uuid.New()
	now := time.Now().UTC()
	items := []model.OrderItem{
		{ID: uuid.New(), OrderID: id, ProductID: "P001", Name: "Ceramic Mug", Price: 12.50, Quantity: 2},
		{ID: uuid.New(), OrderID: id, ProductID: "P002", Name: "Pour-over Kettle", Price: 49.00, Quantity: 1},
		{ID: uuid.New(), OrderID: id, ProductID: "P004", Name: "Paper Filters", Price: 4.50, Quantity: 3},
	}
	var subtotal money.MinorAmount
	for _, item := range items {
		subtotal += item.Total()
	}
	return &model.Order{
		ID:             id,
		Amount:         subtotal,
		DeliveryFee:    fee,
		CouponCode:     coupon,
		Currency:       "USD",
		Status:         model.StatusOpen,
		DeliveryMethod: method,
		IsPODOrder:     pm.Type == model.PaymentTypePOD,
		PaymentMethod:  pm,
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

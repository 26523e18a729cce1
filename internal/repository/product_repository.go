package repository

import (
	"context"
	"errors"
	"fmt"

	"orderdesk/internal/model"
	"orderdesk/internal/money"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT id, name, price, category, stock, created_at
		FROM products
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `
		SELECT id, name, price, category, stock, created_at
		FROM products
		WHERE id = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// Restock adds the given quantities back to product stock within the provided transaction.
func (r *productRepository) Restock(ctx context.Context, tx pgx.Tx, quantities map[string]int) error {
	if len(quantities) == 0 {
		return nil
	}

	query := `
		UPDATE products
		SET stock = stock + $2
		WHERE id = $1
	`

	ids := make([]string, 0, len(quantities))
	batch := &pgx.Batch{}
	for id, qty := range quantities {
		ids = append(ids, id)
		batch.Queue(query, id, qty)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for _, id := range ids {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().Err(err).Str("product_id", id).Msg("failed to restock product")
			return fmt.Errorf("failed to restock product %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			r.logger.Warn().Str("product_id", id).Msg("refunded item references unknown product")
			return model.ErrProductNotFound
		}
	}

	r.logger.Debug().Int("count", len(quantities)).Msg("products restocked")

	return nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		price float64
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Category, &p.Stock, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Price = money.MajorAmount(price)
	return &p, nil
}

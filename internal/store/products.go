package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"butcherdesk/pkg/models"
)

// FetchFreshStockCodes returns the raw sage_code column of every product
// flagged fresh. Legacy rows may hold a JSON-encoded list of codes rather
// than a single code; flattening is the consumer's job (butchers.NewFreshCodeSet).
func (s *Store) FetchFreshStockCodes(ctx context.Context) ([]string, error) {
	const op = "FetchFreshStockCodes"

	rows, err := s.pool.Query(ctx, `
		SELECT sage_code
		FROM products
		WHERE fresh = TRUE AND sage_code IS NOT NULL AND sage_code <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return codes, nil
}

// FetchProducts returns the whole product catalog ordered by name.
func (s *Store) FetchProducts(ctx context.Context) ([]models.Product, error) {
	const op = "FetchProducts"

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, cost, stock_count, product_value, stock_category,
		       product_category, COALESCE(sage_code, ''), COALESCE(supplier, ''), sold_as, fresh
		FROM products
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Cost, &p.StockCount, &p.ProductValue,
			&p.StockCategory, &p.ProductCategory, &p.SageCode, &p.Supplier, &p.SoldAs, &p.Fresh); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// InsertProduct adds a catalog row and returns its ID.
func (s *Store) InsertProduct(ctx context.Context, p models.Product) (string, error) {
	const op = "InsertProduct"

	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (id, name, cost, stock_count, product_value, stock_category,
		                      product_category, sage_code, supplier, sold_as, fresh)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, p.Name, p.Cost, p.StockCount, p.ProductValue, p.StockCategory,
		p.ProductCategory, p.SageCode, p.Supplier, p.SoldAs, p.Fresh)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("name", p.Name).Str("id", id).Msg("Product inserted")
	return id, nil
}

// SetProductFresh flags or unflags a product for butchers-list aggregation.
func (s *Store) SetProductFresh(ctx context.Context, id string, fresh bool) error {
	const op = "SetProductFresh"

	tag, err := s.pool.Exec(ctx, `UPDATE products SET fresh = $2 WHERE id = $1`, id, fresh)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: product %s not found", op, id)
	}
	return nil
}
